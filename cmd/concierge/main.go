package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/channels/telegram"
	"github.com/hamdanlabs/concierge/internal/channels/whatsapp"
	"github.com/hamdanlabs/concierge/internal/config"
	"github.com/hamdanlabs/concierge/internal/httpapi"
	"github.com/hamdanlabs/concierge/internal/imagegen"
	. "github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/pipeline"
	"github.com/hamdanlabs/concierge/internal/session"
	"github.com/hamdanlabs/concierge/internal/stt"
	"github.com/hamdanlabs/concierge/internal/tts"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("concierge %s\n", version)
			return
		case "whatsapp":
			runWhatsAppCommand(os.Args[2:])
			return
		}
	}

	cfg, err := config.Load("concierge.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	Init(&Config{
		Level:      logLevel(cfg.LogLevel),
		ShowCaller: true,
	})

	L_info("concierge %s starting", version)

	pool, err := ai.NewPool(ai.PoolConfig{
		GeminiKeys:      cfg.AI.GeminiKeys,
		GeminiModel:     cfg.AI.GeminiModel,
		OpenRouterKeys:  cfg.AI.OpenRouterKeys,
		OpenRouterModel: cfg.AI.OpenRouterModel,
		OpenRouterURL:   cfg.AI.OpenRouterURL,
	})
	if err != nil {
		L_fatal("failed to build provider pool: %v", err)
	}
	if !pool.Enabled(ai.CapChat) {
		L_warn("no chat providers configured, replies will report unavailability")
	}

	sessions := openSessionStore(cfg.Session.Path)
	defer sessions.Close()

	images, err := imagegen.New(cfg.AI.XAIKey, cfg.AI.XAIModel)
	if err != nil {
		L_fatal("failed to build image client: %v", err)
	}

	pipeCfg := pipeline.Config{
		Pool:        pool,
		Sessions:    sessions,
		Transcriber: stt.NewTranscriber(cfg.AI.OpenAIKey, ""),
		Synthesizer: tts.NewSynthesizer(cfg.AI.OpenAIKey),
		Persona:     cfg.AI.Persona,
	}
	if images != nil {
		pipeCfg.Images = images
	}
	engine := pipeline.New(pipeCfg)

	var waBot *whatsapp.Bot
	if cfg.WhatsApp.Enabled {
		ensureDataDir(cfg.WhatsApp.DBPath)
		waBot, err = whatsapp.New(cfg.WhatsApp.DBPath, engine)
		if err != nil {
			L_fatal("whatsapp init failed: %v", err)
		}
		if err := waBot.Start(); err != nil {
			L_fatal("whatsapp start failed: %v", err)
		}
	}

	var tgBot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		tgBot, err = telegram.New(cfg.Telegram.BotToken, engine)
		if err != nil {
			L_fatal("telegram init failed: %v", err)
		}
		go tgBot.Start()
	}

	server := httpapi.New(cfg.HTTP.Addr, cfg.HTTP.AllowedOrigins, engine)
	go func() {
		if err := server.Start(); err != nil {
			L_fatal("http server failed: %v", err)
		}
	}()

	L_info("concierge ready")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	L_info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		L_error("http shutdown error", "error", err)
	}
	if tgBot != nil {
		tgBot.Stop()
	}
	if waBot != nil {
		if err := waBot.Stop(); err != nil {
			L_error("whatsapp shutdown error", "error", err)
		}
	}
}

// runWhatsAppCommand handles the 'concierge whatsapp <link|unlink>' pairing
// subcommands, which run without starting the service.
func runWhatsAppCommand(args []string) {
	cfg, err := config.Load("concierge.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	Init(&Config{Level: LevelWarn, ShowCaller: false})
	ensureDataDir(cfg.WhatsApp.DBPath)

	sub := "link"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "link":
		err = whatsapp.LinkDevice(cfg.WhatsApp.DBPath)
	case "unlink":
		err = whatsapp.UnlinkDevice(cfg.WhatsApp.DBPath)
	default:
		err = fmt.Errorf("unknown subcommand %q (want link or unlink)", sub)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func openSessionStore(path string) session.Store {
	if path == "" {
		return session.NewMemoryStore()
	}
	ensureDataDir(path)
	store, err := session.NewSQLiteStore(path)
	if err != nil {
		L_warn("session db unavailable, using in-memory store", "path", path, "error", err)
		return session.NewMemoryStore()
	}
	return store
}

func ensureDataDir(path string) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
}

func logLevel(name string) int {
	switch name {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

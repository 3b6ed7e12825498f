// Package config loads the concierge configuration: a JSON file merged with
// env-style credential lists. A missing file is fine; credentials usually
// arrive via the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the merged concierge configuration.
type Config struct {
	HTTP     HTTPConfig     `json:"http"`
	WhatsApp WhatsAppConfig `json:"whatsapp"`
	Telegram TelegramConfig `json:"telegram"`
	AI       AIConfig       `json:"ai"`
	Session  SessionConfig  `json:"session"`
	LogLevel string         `json:"logLevel"`
}

type HTTPConfig struct {
	Addr           string   `json:"addr"`
	AllowedOrigins []string `json:"allowedOrigins"`
}

type WhatsAppConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"dbPath"`
}

type TelegramConfig struct {
	BotToken string `json:"botToken"`
}

// AIConfig carries one credential list per provider tier per capability.
// An empty list disables the tiers it would have configured; a capability
// with no credentials at all is disabled entirely.
type AIConfig struct {
	GeminiKeys      []string `json:"geminiKeys"`
	GeminiModel     string   `json:"geminiModel"`
	OpenRouterKeys  []string `json:"openRouterKeys"`
	OpenRouterModel string   `json:"openRouterModel"`
	OpenRouterURL   string   `json:"openRouterURL"`
	XAIKey          string   `json:"xaiKey"`
	XAIModel        string   `json:"xaiModel"`
	OpenAIKey       string   `json:"openaiKey"` // Whisper STT + speech synthesis
	Persona         string   `json:"persona"`
}

type SessionConfig struct {
	// Path to the SQLite session database. Empty = in-memory only.
	Path string `json:"path"`
}

// Load reads configuration from path (if it exists) and merges environment
// overrides on top. A .env file in the working directory is loaded first,
// best effort.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP: HTTPConfig{Addr: ":8090"},
		WhatsApp: WhatsAppConfig{
			DBPath: "data/whatsapp.db",
		},
		AI: AIConfig{
			OpenRouterURL: "https://openrouter.ai/api/v1",
		},
		Session:  SessionConfig{Path: "data/sessions.db"},
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv merges env-style credential lists over the file config.
func (c *Config) applyEnv() {
	if v := envList("GEMINI_API_KEYS"); len(v) > 0 {
		c.AI.GeminiKeys = v
	}
	if v := envList("OPENROUTER_API_KEYS"); len(v) > 0 {
		c.AI.OpenRouterKeys = v
	}
	if v := os.Getenv("XAI_API_KEY"); v != "" {
		c.AI.XAIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.OpenAIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
}

// envList parses a comma-separated env var into a list, dropping blanks.
func envList(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

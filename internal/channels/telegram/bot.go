// Package telegram provides the Telegram channel adapter for Concierge.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/hamdanlabs/concierge/internal/lang"
	. "github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/types"
)

// downloadTimeout is the maximum time to wait for a Telegram file download.
const downloadTimeout = 30 * time.Second

// textOptions renders *bold* and _italic_ markers instead of sending the
// raw asterisks to the user.
var textOptions = &tele.SendOptions{ParseMode: tele.ModeMarkdown}

// Engine is the slice of the pipeline the bot needs.
type Engine interface {
	Handle(ctx context.Context, msg *types.InboundMessage, dialect lang.Dialect) *types.OutboundReply
}

// Bot represents the Telegram channel.
type Bot struct {
	bot    *tele.Bot
	engine Engine

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Telegram bot with the given token.
func New(token string, engine Engine) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		bot:    bot,
		engine: engine,
		ctx:    ctx,
		cancel: cancel,
	}

	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnPhoto, b.handlePhoto)
	b.bot.Handle(tele.OnVoice, b.handleVoice)

	return b, nil
}

// Start begins long polling. Blocks until Stop is called.
func (b *Bot) Start() {
	L_info("telegram: starting", "bot", b.bot.Me.Username)
	b.bot.Start()
}

// Stop shuts down the poller.
func (b *Bot) Stop() {
	L_info("telegram: stopping")
	b.cancel()
	b.bot.Stop()
}

func (b *Bot) handleText(c tele.Context) error {
	if c.Chat().Type != tele.ChatPrivate {
		L_debug("telegram: ignoring group message")
		return nil
	}

	_ = c.Notify(tele.Typing)

	msg := b.inbound(c)
	msg.Text = c.Text()
	return b.respond(c, msg)
}

func (b *Bot) handlePhoto(c tele.Context) error {
	if c.Chat().Type != tele.ChatPrivate {
		return nil
	}

	photo := c.Message().Photo
	if photo == nil {
		L_warn("telegram: photo message but no photo found")
		return nil
	}

	_ = c.Notify(tele.Typing)

	data, err := b.downloadFile(&photo.File)
	if err != nil {
		L_error("telegram: failed to download photo", "error", err)
		return c.Send("Sorry, I couldn't process that image.")
	}

	msg := b.inbound(c)
	msg.Text = c.Message().Caption
	msg.Attachment = &types.Attachment{
		Kind:     types.AttachmentImage,
		Data:     data,
		MimeType: "image/jpeg",
	}
	return b.respond(c, msg)
}

func (b *Bot) handleVoice(c tele.Context) error {
	if c.Chat().Type != tele.ChatPrivate {
		return nil
	}

	voice := c.Message().Voice
	if voice == nil {
		return nil
	}

	_ = c.Notify(tele.RecordingAudio)

	data, err := b.downloadFile(&voice.File)
	if err != nil {
		L_error("telegram: failed to download voice note", "error", err)
		return c.Send("Sorry, I couldn't process that voice note.")
	}

	mimeType := voice.MIME
	if mimeType == "" {
		mimeType = "audio/ogg"
	}

	msg := b.inbound(c)
	msg.Attachment = &types.Attachment{
		Kind:     types.AttachmentAudio,
		Data:     data,
		MimeType: mimeType,
	}
	return b.respond(c, msg)
}

func (b *Bot) inbound(c tele.Context) *types.InboundMessage {
	return &types.InboundMessage{
		ChannelID: "telegram",
		SenderID:  fmt.Sprintf("%d", c.Sender().ID),
		Received:  c.Message().Time(),
	}
}

func (b *Bot) respond(c tele.Context, msg *types.InboundMessage) error {
	reply := b.engine.Handle(b.ctx, msg, lang.DialectTelegram)
	if reply == nil {
		return nil
	}

	switch {
	case reply.Image != nil:
		photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(reply.Image.Data))}
		if reply.Image.Caption != "" {
			photo.Caption = reply.Image.Caption
		}
		if err := c.Send(photo); err != nil {
			L_error("telegram: failed to send photo", "error", err)
			return c.Send(reply.Text, textOptions)
		}
		return nil
	case reply.Audio != nil:
		voice := &tele.Voice{File: tele.FromReader(bytes.NewReader(reply.Audio.Data))}
		if reply.Audio.Seconds > 0 {
			voice.Duration = reply.Audio.Seconds
		}
		if err := c.Send(voice); err != nil {
			L_error("telegram: failed to send voice note, falling back to text", "error", err)
			return c.Send(reply.Text, textOptions)
		}
		return nil
	default:
		if reply.Text == "" {
			return nil
		}
		return c.Send(reply.Text, textOptions)
	}
}

// downloadFile fetches a file from the Telegram bot API by its FileID.
func (b *Bot) downloadFile(file *tele.File) ([]byte, error) {
	if file == nil || file.FileID == "" {
		return nil, fmt.Errorf("invalid file: missing FileID")
	}

	fileInfo, err := b.bot.FileByID(file.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s",
		b.bot.Token, fileInfo.FilePath)

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	return data, nil
}

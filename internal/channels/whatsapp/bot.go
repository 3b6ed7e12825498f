// Package whatsapp provides the WhatsApp channel adapter for Concierge.
package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	watypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/hamdanlabs/concierge/internal/lang"
	. "github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/media"
	"github.com/hamdanlabs/concierge/internal/pipeline"
	"github.com/hamdanlabs/concierge/internal/types"
)

const maxWhatsAppMessage = 65536

// Bot represents the WhatsApp channel.
type Bot struct {
	client *whatsmeow.Client
	engine *pipeline.Engine
	store  *sqlstore.Container

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
	lastError error
}

// conciergeLogger bridges whatsmeow's waLog.Logger to our L_* functions
type conciergeLogger struct {
	module string
}

func (l *conciergeLogger) Debugf(msg string, args ...interface{}) {
	L_debug(fmt.Sprintf("whatsmeow/%s: %s", l.module, fmt.Sprintf(msg, args...)))
}

func (l *conciergeLogger) Infof(msg string, args ...interface{}) {
	L_info(fmt.Sprintf("whatsmeow/%s: %s", l.module, fmt.Sprintf(msg, args...)))
}

func (l *conciergeLogger) Warnf(msg string, args ...interface{}) {
	L_warn(fmt.Sprintf("whatsmeow/%s: %s", l.module, fmt.Sprintf(msg, args...)))
}

func (l *conciergeLogger) Errorf(msg string, args ...interface{}) {
	L_error(fmt.Sprintf("whatsmeow/%s: %s", l.module, fmt.Sprintf(msg, args...)))
}

func (l *conciergeLogger) Sub(module string) waLog.Logger {
	return &conciergeLogger{module: l.module + "/" + module}
}

// New creates a new WhatsApp bot backed by the session database at dbPath.
// The device must already be paired; run 'concierge whatsapp link' first.
func New(dbPath string, engine *pipeline.Engine) (*Bot, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp db: %w", err)
	}

	storeLog := &conciergeLogger{module: "store"}
	container := sqlstore.NewWithDB(db, "sqlite3", storeLog)

	if err := container.Upgrade(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to upgrade whatsapp store: %w", err)
	}

	device, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get whatsapp device: %w", err)
	}

	if device == nil {
		return nil, fmt.Errorf("no whatsapp device paired — run 'concierge whatsapp link' first")
	}

	clientLog := &conciergeLogger{module: "client"}
	client := whatsmeow.NewClient(device, clientLog)

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bot{
		client: client,
		engine: engine,
		store:  container,
		ctx:    ctx,
		cancel: cancel,
	}

	return b, nil
}

// Start connects to WhatsApp and starts listening.
func (b *Bot) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}

	b.client.AddEventHandler(b.handleEvent)

	if err := b.client.Connect(); err != nil {
		b.lastError = err
		return fmt.Errorf("whatsapp: failed to connect: %w", err)
	}

	b.running = true
	b.startedAt = time.Now()
	b.lastError = nil

	L_info("whatsapp: connected", "jid", b.client.Store.ID)
	return nil
}

// Stop disconnects from WhatsApp.
func (b *Bot) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.running {
		return nil
	}

	L_info("whatsapp: disconnecting")
	b.cancel()
	b.client.Disconnect()
	b.running = false
	return nil
}

// handleEvent is the whatsmeow event handler
func (b *Bot) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		go b.handleMessage(v)
	case *events.Connected:
		L_info("whatsapp: connected to server")
	case *events.Disconnected:
		L_warn("whatsapp: disconnected from server")
	case *events.LoggedOut:
		L_error("whatsapp: logged out — re-pair with 'concierge whatsapp link'",
			"reason", v.Reason)
		b.mu.Lock()
		b.lastError = fmt.Errorf("logged out: %v", v.Reason)
		b.mu.Unlock()
	}
}

// handleMessage processes an incoming WhatsApp message
func (b *Bot) handleMessage(evt *events.Message) {
	// Ignore group messages
	if evt.Info.IsGroup {
		L_debug("whatsapp: ignoring group message")
		return
	}

	// Ignore own messages
	if evt.Info.IsFromMe {
		return
	}

	sender := evt.Info.Sender.User
	L_debug("whatsapp: message received", "sender", sender)

	inbound, ok := b.extractInbound(evt, sender)
	if !ok {
		return
	}

	chatJID := evt.Info.Chat
	presence := watypes.ChatPresenceMediaText
	if inbound.Attachment != nil && inbound.Attachment.Kind == types.AttachmentAudio {
		presence = watypes.ChatPresenceMediaAudio
	}
	_ = b.client.SendChatPresence(b.ctx, chatJID, watypes.ChatPresenceComposing, presence)

	reply := b.engine.Handle(b.ctx, inbound, lang.DialectWhatsApp)
	_ = b.client.SendChatPresence(b.ctx, chatJID, watypes.ChatPresencePaused, watypes.ChatPresenceMediaText)

	b.deliver(chatJID, reply)
}

// extractInbound pulls text, a voice note, or an image out of the raw event.
func (b *Bot) extractInbound(evt *events.Message, sender string) (*types.InboundMessage, bool) {
	msg := evt.Message
	inbound := &types.InboundMessage{
		ChannelID: "whatsapp",
		SenderID:  sender,
		Received:  evt.Info.Timestamp,
	}

	switch {
	case msg.GetConversation() != "":
		inbound.Text = msg.GetConversation()
	case msg.GetExtendedTextMessage() != nil:
		inbound.Text = msg.GetExtendedTextMessage().GetText()
	case msg.GetAudioMessage() != nil && msg.GetAudioMessage().GetPTT():
		audioMsg := msg.GetAudioMessage()
		data, err := b.client.Download(b.ctx, audioMsg)
		if err != nil {
			L_error("whatsapp: failed to download voice note", "error", err)
			return nil, false
		}
		inbound.Attachment = &types.Attachment{
			Kind:     types.AttachmentAudio,
			Data:     data,
			MimeType: audioMsg.GetMimetype(),
		}
	case msg.GetImageMessage() != nil:
		imageMsg := msg.GetImageMessage()
		data, err := b.client.Download(b.ctx, imageMsg)
		if err != nil {
			L_error("whatsapp: failed to download image", "error", err)
			return nil, false
		}
		inbound.Attachment = &types.Attachment{
			Kind:     types.AttachmentImage,
			Data:     data,
			MimeType: imageMsg.GetMimetype(),
		}
		inbound.Text = imageMsg.GetCaption()
	default:
		L_debug("whatsapp: unsupported message type, ignoring")
		return nil, false
	}

	return inbound, true
}

// deliver sends an outbound reply to the chat, richest form first.
func (b *Bot) deliver(chatJID watypes.JID, reply *types.OutboundReply) {
	if reply == nil {
		return
	}

	switch {
	case reply.Image != nil:
		if err := b.sendImage(chatJID, reply.Image); err != nil {
			L_error("whatsapp: failed to send image", "error", err)
			b.sendText(chatJID, reply.Text)
		}
	case reply.Audio != nil:
		if err := b.sendVoiceNote(chatJID, reply.Audio); err != nil {
			L_error("whatsapp: failed to send voice note, falling back to text", "error", err)
			b.sendText(chatJID, reply.Text)
		}
	default:
		b.sendText(chatJID, reply.Text)
	}
}

func (b *Bot) sendText(chatJID watypes.JID, text string) {
	if text == "" {
		return
	}
	for _, part := range splitMessage(text, maxWhatsAppMessage) {
		_, err := b.client.SendMessage(b.ctx, chatJID, &waE2E.Message{
			Conversation: proto.String(part),
		})
		if err != nil {
			L_error("whatsapp: failed to send message", "error", err)
			return
		}
	}
}

func (b *Bot) sendImage(chatJID watypes.JID, img *types.ImageReply) error {
	resp, err := b.client.Upload(b.ctx, img.Data, whatsmeow.MediaImage)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	imageMsg := &waE2E.ImageMessage{
		URL:           &resp.URL,
		DirectPath:    &resp.DirectPath,
		MediaKey:      resp.MediaKey,
		FileEncSHA256: resp.FileEncSHA256,
		FileSHA256:    resp.FileSHA256,
		FileLength:    &resp.FileLength,
		Mimetype:      proto.String(img.MimeType),
	}
	if img.Caption != "" {
		imageMsg.Caption = proto.String(img.Caption)
	}

	_, err = b.client.SendMessage(b.ctx, chatJID, &waE2E.Message{ImageMessage: imageMsg})
	return err
}

func (b *Bot) sendVoiceNote(chatJID watypes.JID, audio *types.AudioReply) error {
	resp, err := b.client.Upload(b.ctx, audio.Data, whatsmeow.MediaAudio)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	seconds := audio.Seconds
	if seconds == 0 {
		seconds = media.ProbeVoiceNote(audio.Data).Seconds
	}

	audioMsg := &waE2E.AudioMessage{
		URL:           &resp.URL,
		DirectPath:    &resp.DirectPath,
		MediaKey:      resp.MediaKey,
		FileEncSHA256: resp.FileEncSHA256,
		FileSHA256:    resp.FileSHA256,
		FileLength:    &resp.FileLength,
		Mimetype:      proto.String(audio.MimeType),
		PTT:           proto.Bool(true),
	}
	if seconds > 0 {
		audioMsg.Seconds = proto.Uint32(uint32(seconds))
	}

	_, err = b.client.SendMessage(b.ctx, chatJID, &waE2E.Message{AudioMessage: audioMsg})
	return err
}

// splitMessage breaks text into chunks no longer than limit bytes,
// preferring paragraph and line boundaries over hard cuts.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	for len(text) > limit {
		cut := limit
		if idx := lastIndexBefore(text, "\n\n", limit); idx > 0 {
			cut = idx
		} else if idx := lastIndexBefore(text, "\n", limit); idx > 0 {
			cut = idx
		} else if idx := lastIndexBefore(text, " ", limit); idx > 0 {
			cut = idx
		} else {
			// Hard cut: back off to a rune boundary so a multi-byte
			// character is never split across parts.
			for cut > 0 && text[cut]&0xC0 == 0x80 {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		parts = append(parts, text[:cut])
		for cut < len(text) && (text[cut] == '\n' || text[cut] == ' ') {
			cut++
		}
		text = text[cut:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func lastIndexBefore(s, sep string, limit int) int {
	if limit > len(s) {
		limit = len(s)
	}
	for i := limit - len(sep); i >= 0; i-- {
		if s[i:i+len(sep)] == sep {
			return i
		}
	}
	return -1
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/session"
	"github.com/hamdanlabs/concierge/internal/types"
)

type scriptedProvider struct {
	name string
	text string
	err  error
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Generate(ctx context.Context, req *ai.Request) (*ai.Result, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &ai.Result{Text: p.text}, nil
}

func newTestEngine(store session.Store, providers ...*scriptedProvider) *Engine {
	var handles []ai.Handle
	for _, p := range providers {
		handles = append(handles, ai.Handle{Capability: ai.CapChat, Provider: p})
	}
	return New(Config{
		Pool:     ai.NewPoolFromHandles(handles...),
		Sessions: store,
	})
}

func inboundText(text string) *types.InboundMessage {
	return &types.InboundMessage{
		ChannelID: "whatsapp",
		SenderID:  "27821234567",
		Text:      text,
		Received:  time.Now(),
	}
}

func TestHandleChatFallbackToLastTier(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(store,
		&scriptedProvider{name: "t1", err: errors.New("429 too many requests")},
		&scriptedProvider{name: "t2", err: errors.New("quota exceeded")},
		&scriptedProvider{name: "t3", err: errors.New("connection refused")},
		&scriptedProvider{name: "t4", text: "OK"},
	)

	reply := engine.Handle(context.Background(), inboundText("what time do you open?"), lang.DialectWhatsApp)
	if reply.Text != "OK" {
		t.Fatalf("reply = %q, want OK", reply.Text)
	}

	// Exactly one exchange recorded: user turn then assistant turn.
	turns, err := store.Recent(context.Background(), "whatsapp:27821234567", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Role != session.RoleUser || turns[0].Content != "what time do you open?" {
		t.Errorf("turn 0 = %+v", turns[0])
	}
	if turns[1].Role != session.RoleAssistant || turns[1].Content != "OK" {
		t.Errorf("turn 1 = %+v", turns[1])
	}
}

func TestHandleChatQuotaExhaustion(t *testing.T) {
	store := session.NewMemoryStore()
	engine := newTestEngine(store,
		&scriptedProvider{name: "t1", err: errors.New("429")},
		&scriptedProvider{name: "t2", err: errors.New("quota exceeded")},
	)

	reply := engine.Handle(context.Background(), inboundText("hello"), lang.DialectWhatsApp)
	if !strings.Contains(reply.Text, "try again in a little while") {
		t.Errorf("reply = %q, want the quota message", reply.Text)
	}

	// Failed exchanges are not recorded.
	turns, _ := store.Recent(context.Background(), "whatsapp:27821234567", 10)
	if len(turns) != 0 {
		t.Errorf("len(turns) = %d, want 0 after failure", len(turns))
	}
}

func TestHandleChatArabicFailureString(t *testing.T) {
	engine := newTestEngine(session.NewMemoryStore(),
		&scriptedProvider{name: "t1", err: errors.New("connection reset")},
	)

	reply := engine.Handle(context.Background(), inboundText("مرحبا"), lang.DialectWhatsApp)
	if !strings.Contains(reply.Text, "يرجى إعادة إرسال") {
		t.Errorf("reply = %q, want the Arabic transient message", reply.Text)
	}
}

func TestHandleUnsupportedAttachment(t *testing.T) {
	engine := newTestEngine(session.NewMemoryStore(),
		&scriptedProvider{name: "t1", text: "never"},
	)

	msg := inboundText("here is a file")
	msg.Attachment = &types.Attachment{Kind: types.AttachmentKind("document"), MimeType: "application/pdf"}

	reply := engine.Handle(context.Background(), msg, lang.DialectWhatsApp)
	if !strings.Contains(reply.Text, "don't support that kind of attachment") {
		t.Errorf("reply = %q, want the unsupported-media message", reply.Text)
	}
}

func TestHandleTextToImageUnavailable(t *testing.T) {
	// No image client configured: the image request degrades to the
	// capability-unavailable string rather than a chat reply.
	engine := newTestEngine(session.NewMemoryStore(),
		&scriptedProvider{name: "t1", text: "chat answer"},
	)

	reply := engine.Handle(context.Background(), inboundText("generate an image of a sunset"), lang.DialectWhatsApp)
	if !strings.Contains(reply.Text, "isn't available right now") {
		t.Errorf("reply = %q, want the unavailable message", reply.Text)
	}
}

func TestHandleVoiceUnavailable(t *testing.T) {
	// Chat-only pool and no transcriber: voice notes are rejected.
	engine := newTestEngine(session.NewMemoryStore(),
		&scriptedProvider{name: "t1", text: "chat answer"},
	)

	msg := inboundText("")
	msg.Attachment = &types.Attachment{Kind: types.AttachmentAudio, MimeType: "audio/ogg"}

	reply := engine.Handle(context.Background(), msg, lang.DialectWhatsApp)
	if !strings.Contains(reply.Text, "isn't available right now") {
		t.Errorf("reply = %q, want the unavailable message", reply.Text)
	}
}

func TestHandleBoundedHistory(t *testing.T) {
	store := session.NewMemoryStore()

	// Preload 20 turns; the provider must see at most historyTurns of them.
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_ = store.Append(ctx, "whatsapp:27821234567",
			session.NewTurn(session.RoleUser, "q"),
			session.NewTurn(session.RoleAssistant, "a"),
		)
	}

	var seen int
	recorder := &recordingProvider{onRequest: func(req *ai.Request) {
		seen = len(req.History)
	}}
	engine := New(Config{
		Pool:     ai.NewPoolFromHandles(ai.Handle{Capability: ai.CapChat, Provider: recorder}),
		Sessions: store,
	})

	engine.Handle(ctx, inboundText("latest question"), lang.DialectWhatsApp)
	if seen != historyTurns {
		t.Errorf("provider saw %d history turns, want %d", seen, historyTurns)
	}
}

type recordingProvider struct {
	onRequest func(*ai.Request)
}

func (p *recordingProvider) Name() string { return "recorder" }

func (p *recordingProvider) Generate(ctx context.Context, req *ai.Request) (*ai.Result, error) {
	if p.onRequest != nil {
		p.onRequest(req)
	}
	return &ai.Result{Text: "ok"}, nil
}

func TestCleanPrompt(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		detected lang.Language
		want     string
	}{
		{"command of", "generate an image of a sunset", lang.Default, "a sunset"},
		{"command showing", "create a picture showing our new menu", lang.Default, "our new menu"},
		{"polite prefix", "please draw an illustration of a cat", lang.Default, "a cat"},
		{"can you prefix", "can you make a photo of the beach", lang.Default, "the beach"},
		{"no command", "a red bicycle on a hill", lang.Default, "a red bicycle on a hill"},
		{"too short after strip", "draw a picture of it", lang.Default, "draw a picture of it"},
		{"arabic command", "ارسم لي صورة غروب الشمس", lang.Arabic, "غروب الشمس"},
		{"whitespace", "  generate an image of   a sunset  ", lang.Default, "a sunset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPrompt(tt.text, tt.detected); got != tt.want {
				t.Errorf("CleanPrompt(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTransformPrompt(t *testing.T) {
	tests := []struct {
		name    string
		caption string
		want    string
	}{
		{"empty caption", "", defaultTransformPrompt},
		{"whitespace caption", "   ", defaultTransformPrompt},
		{"has verb", "remove the background", "remove the background"},
		{"arabic verb", "حول الصورة الى رسمة", "حول الصورة الى رسمة"},
		{"no verb", "a watercolor style", "Transform the input image: a watercolor style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transformPrompt(tt.caption); got != tt.want {
				t.Errorf("transformPrompt(%q) = %q, want %q", tt.caption, got, tt.want)
			}
		})
	}
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/imagegen"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/session"
	"github.com/hamdanlabs/concierge/internal/types"
)

type fakeImageGen struct {
	lastPrompt string
	lastInput  []byte
	result     *imagegen.Image
	err        error
}

func (f *fakeImageGen) Generate(_ context.Context, prompt string) (*imagegen.Image, error) {
	f.lastPrompt = prompt
	return f.result, f.err
}

func (f *fakeImageGen) Transform(_ context.Context, prompt string, input []byte, _ string) (*imagegen.Image, error) {
	f.lastPrompt = prompt
	f.lastInput = input
	return f.result, f.err
}

func TestTextToImageEndToEnd(t *testing.T) {
	store := session.NewMemoryStore()
	gen := &fakeImageGen{result: &imagegen.Image{Data: []byte{0xFF, 0xD8}, MimeType: "image/jpeg"}}
	engine := New(Config{
		Pool:     ai.NewPoolFromHandles(),
		Sessions: store,
		Images:   gen,
	})

	reply := engine.Handle(context.Background(),
		inboundText("generate image of a sunset"), lang.DialectWhatsApp)

	if reply.Image == nil {
		t.Fatalf("expected image reply, got %+v", reply)
	}
	if gen.lastPrompt != "a sunset" {
		t.Errorf("prompt = %q, want the command phrase stripped to %q", gen.lastPrompt, "a sunset")
	}
	if !strings.Contains(reply.Image.Caption, "a sunset") {
		t.Errorf("caption = %q, want it to contain %q", reply.Image.Caption, "a sunset")
	}

	turns, _ := store.Recent(context.Background(), "whatsapp:27821234567", 10)
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Content != "generate image of a sunset" {
		t.Errorf("user turn = %q", turns[0].Content)
	}
	if !strings.Contains(turns[1].Content, "a sunset") {
		t.Errorf("assistant turn = %q, want the prompt recorded", turns[1].Content)
	}
}

func TestTextToImageQuotaFailure(t *testing.T) {
	gen := &fakeImageGen{err: errors.New("429 too many requests")}
	engine := New(Config{
		Pool:     ai.NewPoolFromHandles(),
		Sessions: session.NewMemoryStore(),
		Images:   gen,
	})

	reply := engine.Handle(context.Background(),
		inboundText("draw a picture of a cat"), lang.DialectWhatsApp)
	if reply.Image != nil {
		t.Fatal("expected a text failure reply")
	}
	if !strings.Contains(reply.Text, "try again in a little while") {
		t.Errorf("reply = %q, want the quota message", reply.Text)
	}
}

func TestImageToImageUndecodableAttachment(t *testing.T) {
	gen := &fakeImageGen{result: &imagegen.Image{Data: []byte{1}, MimeType: "image/jpeg"}}
	engine := New(Config{
		Pool:     ai.NewPoolFromHandles(),
		Sessions: session.NewMemoryStore(),
		Images:   gen,
	})

	msg := inboundText("remove the background")
	msg.Attachment = &types.Attachment{
		Kind:     types.AttachmentImage,
		Data:     []byte("not an image at all"),
		MimeType: "image/jpeg",
	}

	reply := engine.Handle(context.Background(), msg, lang.DialectWhatsApp)
	if reply.Image != nil {
		t.Fatal("expected a text failure reply for an undecodable attachment")
	}
	// Decode failures classify transient to keep user messaging consistent.
	if !strings.Contains(reply.Text, "resend your message") {
		t.Errorf("reply = %q, want the transient message", reply.Text)
	}
	if gen.lastInput != nil {
		t.Error("provider must not be called when decoding fails")
	}
}


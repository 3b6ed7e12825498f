// Package stt provides speech-to-text transcription for voice notes.
package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

// TranscribeTimeout bounds one transcription call. Voice notes are short;
// anything slower than this is treated as a transient failure.
const TranscribeTimeout = 300 * time.Second

// Transcriber converts voice-note audio to text via the Whisper API.
// OpenAI accepts OGG/Opus directly, no conversion needed.
type Transcriber struct {
	client *openai.Client
	model  string
}

// NewTranscriber creates a transcriber. Returns nil (capability disabled)
// when no key is configured.
func NewTranscriber(apiKey, model string) *Transcriber {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = openai.Whisper1
	}
	L_info("stt: transcriber initialized", "model", model)
	return &Transcriber{client: openai.NewClient(apiKey), model: model}
}

// Transcribe converts audio bytes to text with a bounded timeout.
func (t *Transcriber) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, TranscribeTimeout)
	defer cancel()

	L_debug("stt: transcribing", "bytes", len(data), "mime", mimeType)

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "voice" + extForMime(mimeType),
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	L_debug("stt: transcription complete", "length", len(text))
	return text, nil
}

func extForMime(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "ogg"), strings.Contains(mimeType, "opus"):
		return ".ogg"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return ".mp3"
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return ".m4a"
	default:
		return ".ogg"
	}
}

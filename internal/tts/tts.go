// Package tts synthesizes spoken replies.
package tts

import (
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hamdanlabs/concierge/internal/lang"
	. "github.com/hamdanlabs/concierge/internal/logging"
)

// Synthesizer turns reply text into an OGG/Opus voice note.
type Synthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
}

// NewSynthesizer creates a synthesizer. Returns nil (synthesis disabled,
// voice replies fall back to text) when no key is configured.
func NewSynthesizer(apiKey string) *Synthesizer {
	if apiKey == "" {
		return nil
	}
	L_info("tts: synthesizer initialized")
	return &Synthesizer{client: openai.NewClient(apiKey), model: openai.TTSModel1}
}

// Synthesize renders text as speech. The voice persona follows the reply's
// language, not the input's: an Arabic reply gets the Arabic-leaning voice.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, replyLang lang.Language) ([]byte, string, error) {
	voice := openai.VoiceAlloy
	if replyLang == lang.Arabic {
		voice = openai.VoiceShimmer
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return nil, "", fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, "", fmt.Errorf("read synthesized audio: %w", err)
	}

	L_debug("tts: synthesized", "chars", len(text), "bytes", len(data), "voice", voice)
	return data, "audio/ogg; codecs=opus", nil
}

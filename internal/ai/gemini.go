package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider implements Provider against the Gemini API. It services
// plain chat, vision (inline image parts), and native-audio chat.
type GeminiProvider struct {
	name   string
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider bound to one API key.
func NewGeminiProvider(name, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key required")
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	L_debug("ai: gemini provider initialized", "name", name, "model", model)

	return &GeminiProvider{name: name, client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string { return p.name }

// Generate sends the instruction, bounded history and current payload to
// Gemini and returns the text reply.
func (p *GeminiProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}

	var contents []*genai.Content
	for _, m := range req.History {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	var parts []*genai.Part
	if req.Audio != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Audio.Data, req.Audio.MimeType))
	}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MimeType))
	}
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("gemini: empty request")
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		if req.Audio != nil && isAudioUnsupported(err) {
			return nil, fmt.Errorf("%w: %v", ErrNativeAudioUnavailable, err)
		}
		return nil, fmt.Errorf("gemini %s: %w", p.name, err)
	}

	text := resp.Text()
	if text == "" {
		if req.Audio != nil {
			// Model accepted the call but produced nothing for the audio:
			// let the voice pipeline switch to transcribe-then-generate.
			return nil, ErrNativeAudioUnavailable
		}
		return nil, fmt.Errorf("gemini %s: empty response", p.name)
	}

	return &Result{Text: text}, nil
}

// isAudioUnsupported detects "this model cannot take audio input" errors,
// as opposed to ordinary quota or network failures.
func isAudioUnsupported(err error) bool {
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "audio") && !strings.Contains(lower, "mime") &&
		!strings.Contains(lower, "modality") {
		return false
	}
	return strings.Contains(lower, "not supported") ||
		strings.Contains(lower, "unsupported") ||
		strings.Contains(lower, "invalid")
}

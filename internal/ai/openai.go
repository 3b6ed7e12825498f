package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

const defaultOpenRouterModel = "meta-llama/llama-3.3-70b-instruct"

// OpenAIProvider implements Provider for OpenAI-compatible chat APIs.
// Used for the OpenRouter fallback tiers; works with any compatible
// endpoint via BaseURL.
type OpenAIProvider struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-compatible provider bound to one key.
func NewOpenAIProvider(name, apiKey, baseURL, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key required")
	}
	if model == "" {
		model = defaultOpenRouterModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	L_debug("ai: openai-compatible provider initialized",
		"name", name, "model", model, "baseURL", cfg.BaseURL)

	return &OpenAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

// Generate sends a chat completion request. Audio payloads are rejected with
// the native-audio sentinel: this provider type has no audio modality.
func (p *OpenAIProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	if req.Audio != nil {
		return nil, ErrNativeAudioUnavailable
	}

	var msgs []openai.ChatCompletionMessage
	if req.Instruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Instruction,
		})
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if req.Image != nil {
		dataURL := fmt.Sprintf("data:%s;base64,%s",
			req.Image.MimeType, base64.StdEncoding.EncodeToString(req.Image.Data))
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		}
	} else {
		user.Content = req.Prompt
	}
	msgs = append(msgs, user)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: msgs,
	})
	if err != nil {
		return nil, fmt.Errorf("openai %s: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai %s: no choices in response", p.name)
	}

	return &Result{Text: resp.Choices[0].Message.Content}, nil
}

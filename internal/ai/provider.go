package ai

import (
	"context"
	"time"
)

// Capability identifies which provider pool services a request.
type Capability string

const (
	CapChat  Capability = "chat"
	CapVoice Capability = "voice"
	CapImage Capability = "image"
)

// Message roles, shared with the session store vocabulary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one prior conversation turn passed to a provider.
type Message struct {
	Role    string
	Content string
}

// Media is an inline payload (audio or image) attached to a request.
type Media struct {
	Data     []byte
	MimeType string
}

// Request is a single generation request. Constructed fresh per logical
// request; the gateway passes it to each tier by value semantics (providers
// must not mutate it).
type Request struct {
	Instruction string    // system instruction, already language-shaped
	History     []Message // bounded recent turns, chronological
	Prompt      string    // current user text
	Audio       *Media    // voice payload (native-audio chat)
	Image       *Media    // image payload (vision)
	Deadline    time.Duration
}

// Result is a successful generation.
type Result struct {
	Text     string
	Provider string // provider instance name, filled by the gateway
	Tier     int    // which tier succeeded, filled by the gateway
}

// Provider is a single generation backend bound to one credential.
// Implementations: GeminiProvider, OpenAIProvider.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// Handle is one ordinal position in a capability's provider pool.
// Immutable after construction.
type Handle struct {
	Capability Capability
	Tier       int
	Provider   Provider
}

package ai

import (
	"fmt"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

// PoolConfig describes the credentials available per provider type.
// Ordering within each list is significant: the first key of the preferred
// type becomes tier 1.
type PoolConfig struct {
	GeminiKeys      []string // preferred provider type, one tier per key
	GeminiModel     string   // default: gemini-2.0-flash
	OpenRouterKeys  []string // alternate provider type, tried after Gemini
	OpenRouterModel string   // default: meta-llama/llama-3.3-70b-instruct
	OpenRouterURL   string   // default: https://openrouter.ai/api/v1
}

// Pool holds the per-capability ordered provider handles. Built once at
// startup, read-only afterwards, safe to share across conversations.
type Pool struct {
	handles map[Capability][]Handle
}

// NewPool constructs the provider pool from configuration. A capability with
// no usable credentials ends up with an empty pool: disabled, not an error.
func NewPool(cfg PoolConfig) (*Pool, error) {
	p := &Pool{handles: make(map[Capability][]Handle)}

	for _, cap := range []Capability{CapChat, CapVoice} {
		tier := 0
		for i, key := range cfg.GeminiKeys {
			prov, err := NewGeminiProvider(fmt.Sprintf("gemini-%d", i+1), key, cfg.GeminiModel)
			if err != nil {
				return nil, fmt.Errorf("gemini provider %d: %w", i+1, err)
			}
			tier++
			p.handles[cap] = append(p.handles[cap], Handle{Capability: cap, Tier: tier, Provider: prov})
		}
		// OpenRouter has no native-audio path, so it only backs the chat pool.
		if cap != CapChat {
			continue
		}
		for i, key := range cfg.OpenRouterKeys {
			prov, err := NewOpenAIProvider(fmt.Sprintf("openrouter-%d", i+1), key, cfg.OpenRouterURL, cfg.OpenRouterModel)
			if err != nil {
				return nil, fmt.Errorf("openrouter provider %d: %w", i+1, err)
			}
			tier++
			p.handles[cap] = append(p.handles[cap], Handle{Capability: cap, Tier: tier, Provider: prov})
		}
	}

	L_info("ai: provider pool built",
		"chat", len(p.handles[CapChat]),
		"voice", len(p.handles[CapVoice]))

	return p, nil
}

// NewPoolFromHandles builds a pool from pre-constructed handles, re-tiering
// them in order. Used by tests and by custom wiring.
func NewPoolFromHandles(handles ...Handle) *Pool {
	p := &Pool{handles: make(map[Capability][]Handle)}
	for _, h := range handles {
		h.Tier = len(p.handles[h.Capability]) + 1
		p.handles[h.Capability] = append(p.handles[h.Capability], h)
	}
	return p
}

// Handles returns the ordered tier list for a capability. May be empty.
func (p *Pool) Handles(cap Capability) []Handle {
	return p.handles[cap]
}

// Enabled reports whether a capability has at least one configured provider.
func (p *Pool) Enabled(cap Capability) bool {
	return len(p.handles[cap]) > 0
}

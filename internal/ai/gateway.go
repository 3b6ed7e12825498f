package ai

import (
	"context"
	"errors"
	"time"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

// Default overall deadlines for one logical request, shared across all tiers.
const (
	DeadlineInteractive = 60 * time.Second
	DeadlineSlow        = 300 * time.Second
)

// Outcome is the result of one gateway walk: either a success tagged with the
// tier that produced it, or a failure with its classification.
type Outcome struct {
	Result *Result        // nil on failure
	Class  Classification // set on failure
	Err    error          // last underlying cause, for logging
}

// OK reports whether the walk produced a result.
func (o *Outcome) OK() bool { return o.Result != nil }

// Gateway walks a capability's provider pool in tier order until one call
// succeeds or the pool is exhausted. It holds no state between invocations.
type Gateway struct {
	pool *Pool
}

// NewGateway creates a gateway over the given pool.
func NewGateway(pool *Pool) *Gateway {
	return &Gateway{pool: pool}
}

// Generate tries each tier of the capability's pool in order.
//
// One deadline covers the whole walk: it is taken from req.Deadline (default
// DeadlineInteractive) and is NOT reset between tiers, so a slow chain of
// fallbacks cannot exceed the caller's total patience. Fatal classifications
// abort the walk; quota and transient advance to the next tier. On
// exhaustion the failure is classified quota if any tier reported quota,
// since the specific capacity signal explains the failure better than a
// generic transient one.
func (g *Gateway) Generate(ctx context.Context, cap Capability, req *Request) *Outcome {
	handles := g.pool.Handles(cap)
	if len(handles) == 0 {
		return &Outcome{Class: ClassFatal, Err: ErrNoProviders}
	}

	deadline := req.Deadline
	if deadline <= 0 {
		deadline = DeadlineInteractive
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var lastErr error
	lastClass := ClassTransient
	sawQuota := false

	for _, h := range handles {
		if ctx.Err() != nil {
			// Deadline expired mid-walk: abandon remaining tiers.
			L_warn("ai: gateway deadline expired", "capability", cap, "tier", h.Tier)
			break
		}

		result, err := h.Provider.Generate(ctx, req)
		if err == nil {
			result.Provider = h.Provider.Name()
			result.Tier = h.Tier
			L_debug("ai: generation succeeded",
				"capability", cap, "provider", result.Provider, "tier", h.Tier)
			return &Outcome{Result: result}
		}

		// The native-audio sentinel is a pipeline-shape signal, not a tier
		// failure: surface it to the caller untouched.
		if errors.Is(err, ErrNativeAudioUnavailable) {
			return &Outcome{Class: ClassTransient, Err: err}
		}

		class := Classify(err)
		L_warn("ai: tier failed",
			"capability", cap, "provider", h.Provider.Name(),
			"tier", h.Tier, "class", class, "error", err)

		if class == ClassFatal {
			return &Outcome{Class: ClassFatal, Err: err}
		}
		if class == ClassQuota {
			sawQuota = true
		}
		lastErr = err
		lastClass = class
	}

	if ctx.Err() != nil && lastErr == nil {
		lastErr = ctx.Err()
	}
	if lastClass == ClassQuota || sawQuota {
		return &Outcome{Class: ClassQuota, Err: lastErr}
	}
	return &Outcome{Class: ClassTransient, Err: lastErr}
}

package pipeline

import (
	"context"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/router"
	"github.com/hamdanlabs/concierge/internal/types"
)

// handleChat runs the plain conversation pipeline.
func (e *Engine) handleChat(ctx context.Context, msg *types.InboundMessage, dialect lang.Dialect) *types.OutboundReply {
	// Last-resort catch: the router's image heuristic is reapplied here so
	// its own false negatives self-correct. One redundant check, accepted.
	if router.WantsImage(msg.Text) {
		return e.handleTextToImage(ctx, msg.SessionKey(), msg.Text, dialect)
	}

	key := msg.SessionKey()
	detected := lang.Detect(msg.Text)

	req := &ai.Request{
		Instruction: lang.BuildInstruction(e.persona, detected, lang.IsGreeting(msg.Text)),
		History:     e.recent(ctx, key),
		Prompt:      msg.Text,
		Deadline:    ai.DeadlineInteractive,
	}

	out := e.gateway.Generate(ctx, ai.CapChat, req)
	if !out.OK() {
		logging.L_warn("chat: generation failed", "class", out.Class, "error", out.Err)
		return &types.OutboundReply{Text: failureReply(out.Class, detected)}
	}

	e.appendExchange(ctx, key, msg.Text, out.Result.Text)

	return &types.OutboundReply{Text: lang.Format(out.Result.Text, dialect)}
}

// generateChatReply runs the chat gateway for a caller that already has the
// user text in hand (the voice fallback path). Returns the raw reply text.
func (e *Engine) generateChatReply(ctx context.Context, key, userText string) (*ai.Result, *ai.Outcome) {
	detected := lang.Detect(userText)
	req := &ai.Request{
		Instruction: lang.BuildInstruction(e.persona, detected, lang.IsGreeting(userText)),
		History:     e.recent(ctx, key),
		Prompt:      userText,
		Deadline:    ai.DeadlineInteractive,
	}
	out := e.gateway.Generate(ctx, ai.CapChat, req)
	if !out.OK() {
		return nil, out
	}
	return out.Result, out
}

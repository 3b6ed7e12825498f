// Package pipeline orchestrates router output, session history, language
// adaptation, and the fallback gateway into channel replies.
package pipeline

import (
	"context"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/imagegen"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/router"
	"github.com/hamdanlabs/concierge/internal/session"
	"github.com/hamdanlabs/concierge/internal/stt"
	"github.com/hamdanlabs/concierge/internal/tts"
	"github.com/hamdanlabs/concierge/internal/types"
)

// historyTurns is how many recent turns are ever passed to a provider:
// 3 exchanges. The store may retain more for audit.
const historyTurns = 6

const defaultPersona = "You are the assistant for a small business. " +
	"Answer customer questions helpfully and concisely."

// ImageGenerator is the slice of the image client the pipelines need.
// Satisfied by *imagegen.Client.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*imagegen.Image, error)
	Transform(ctx context.Context, prompt string, input []byte, mimeType string) (*imagegen.Image, error)
}

// Config wires an Engine. Images, Transcriber, and Synthesizer may be nil;
// the matching capabilities degrade per the unavailable/fallback rules.
type Config struct {
	Pool        *ai.Pool
	Sessions    session.Store
	Images      ImageGenerator
	Transcriber *stt.Transcriber
	Synthesizer *tts.Synthesizer
	Persona     string
}

// Engine processes one inbound message at a time per conversation key and
// hands a finished reply back to the channel. Safe for concurrent use across
// conversations.
type Engine struct {
	gateway     *ai.Gateway
	pool        *ai.Pool
	sessions    session.Store
	locks       *session.KeyedLock
	images      ImageGenerator
	transcriber *stt.Transcriber
	synth       *tts.Synthesizer
	persona     string
}

// New creates a pipeline engine.
func New(cfg Config) *Engine {
	persona := cfg.Persona
	if persona == "" {
		persona = defaultPersona
	}
	return &Engine{
		gateway:     ai.NewGateway(cfg.Pool),
		pool:        cfg.Pool,
		sessions:    cfg.Sessions,
		locks:       session.NewKeyedLock(),
		images:      cfg.Images,
		transcriber: cfg.Transcriber,
		synth:       cfg.Synthesizer,
		persona:     persona,
	}
}

// Handle routes and processes one inbound message. It never returns a raw
// provider error: every failure path resolves to a fixed localized string.
//
// Processing is serialized per conversation key so that two messages from
// the same sender cannot interleave history reads and appends.
func (e *Engine) Handle(ctx context.Context, msg *types.InboundMessage, dialect lang.Dialect) *types.OutboundReply {
	key := msg.SessionKey()
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	kind := router.Classify(msg)
	logging.L_info("pipeline: message routed",
		"channel", msg.ChannelID, "kind", kind,
		"hasAttachment", msg.Attachment != nil, "textLen", len(msg.Text))

	// Media present but not consumed by any pipeline: unsupported kind.
	if msg.Attachment != nil && kind != router.KindVoice && kind != router.KindImageToImage {
		return &types.OutboundReply{Text: replyUnsupportedMedia(lang.Detect(msg.Text))}
	}

	switch kind {
	case router.KindVoice:
		return e.handleVoice(ctx, msg, dialect)
	case router.KindImageToImage:
		return e.handleImageToImage(ctx, msg, dialect)
	case router.KindTextToImage:
		return e.handleTextToImage(ctx, msg.SessionKey(), msg.Text, dialect)
	default:
		return e.handleChat(ctx, msg, dialect)
	}
}

// recent loads the bounded history, treating store errors as an empty
// session: a degraded reply beats no reply.
func (e *Engine) recent(ctx context.Context, key string) []ai.Message {
	turns, err := e.sessions.Recent(ctx, key, historyTurns)
	if err != nil {
		logging.L_warn("pipeline: history load failed", "key", key, "error", err)
		return nil
	}
	msgs := make([]ai.Message, len(turns))
	for i, t := range turns {
		msgs[i] = ai.Message{Role: t.Role, Content: t.Content}
	}
	return msgs
}

// appendExchange records the completed exchange: exactly two turns, user
// first. Append failures are logged, not surfaced; history is best effort.
func (e *Engine) appendExchange(ctx context.Context, key, userText, assistantText string) {
	err := e.sessions.Append(ctx, key,
		session.NewTurn(session.RoleUser, userText),
		session.NewTurn(session.RoleAssistant, assistantText),
	)
	if err != nil {
		logging.L_error("pipeline: session append failed", "key", key, "error", err)
	}
}

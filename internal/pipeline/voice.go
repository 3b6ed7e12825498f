package pipeline

import (
	"context"
	"errors"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/media"
	"github.com/hamdanlabs/concierge/internal/router"
	"github.com/hamdanlabs/concierge/internal/types"
)

// voiceState tracks progress through the voice pipeline.
type voiceState string

const (
	stateReceived           voiceState = "received"
	stateNativeAttempt      voiceState = "native_attempt"
	stateNativeSuccess      voiceState = "native_success"
	stateNeedsFallback      voiceState = "needs_fallback"
	stateFallbackTranscribe voiceState = "fallback_transcribe"
	stateFallbackGenerate   voiceState = "fallback_generate"
	stateSynthesize         voiceState = "synthesize"
	stateDelivered          voiceState = "delivered"
	stateDeliveredAsText    voiceState = "delivered_as_text"
	stateRejected           voiceState = "rejected"
)

const voiceNativePrompt = "Reply to this voice note. Answer in the language spoken in it."

// handleVoice runs the voice pipeline:
//
//	Received -> NativeAttempt -> {NativeSuccess | NeedsFallback}
//	         -> FallbackTranscribe -> FallbackGenerate
//	         -> Synthesize -> {Delivered | DeliveredAsText}
//
// The native path hands audio straight to a voice-capable provider. The
// fallback signal is the ErrNativeAudioUnavailable sentinel, not a gateway
// classification: it switches pipeline shape instead of advancing tiers.
func (e *Engine) handleVoice(ctx context.Context, msg *types.InboundMessage, dialect lang.Dialect) *types.OutboundReply {
	state := stateReceived
	key := msg.SessionKey()

	if !e.pool.Enabled(ai.CapVoice) && e.transcriber == nil {
		state = stateRejected
		logging.L_warn("voice: no provider configured", "state", state)
		return &types.OutboundReply{Text: replyCapabilityUnavailable(lang.Default)}
	}

	var userText, replyText string

	if e.pool.Enabled(ai.CapVoice) {
		state = stateNativeAttempt
		logging.L_debug("voice: state", "state", state)

		req := &ai.Request{
			Instruction: lang.BuildInstruction(e.persona, lang.Default, false),
			History:     e.recent(ctx, key),
			Prompt:      voiceNativePrompt,
			Audio: &ai.Media{
				Data:     msg.Attachment.Data,
				MimeType: msg.Attachment.MimeType,
			},
			Deadline: ai.DeadlineSlow,
		}

		out := e.gateway.Generate(ctx, ai.CapVoice, req)
		switch {
		case out.OK():
			state = stateNativeSuccess
			userText = "[voice note]"
			replyText = out.Result.Text
		case errors.Is(out.Err, ai.ErrNativeAudioUnavailable):
			state = stateNeedsFallback
			logging.L_debug("voice: state", "state", state, "reason", out.Err)
		default:
			logging.L_warn("voice: native generation failed", "class", out.Class, "error", out.Err)
			return &types.OutboundReply{Text: failureReply(out.Class, lang.Default)}
		}
	} else {
		state = stateNeedsFallback
	}

	if state == stateNeedsFallback {
		if e.transcriber == nil {
			state = stateRejected
			logging.L_warn("voice: no transcriber for fallback", "state", state)
			return &types.OutboundReply{Text: replyCapabilityUnavailable(lang.Default)}
		}

		state = stateFallbackTranscribe
		logging.L_debug("voice: state", "state", state)

		transcript, err := e.transcriber.Transcribe(ctx, msg.Attachment.Data, msg.Attachment.MimeType)
		if err != nil {
			logging.L_warn("voice: transcription failed", "error", err)
			return &types.OutboundReply{Text: replyTransient(lang.Default)}
		}
		if transcript == "" {
			state = stateRejected
			logging.L_info("voice: empty transcript", "state", state)
			return &types.OutboundReply{Text: replyEmptyVoice(lang.Default)}
		}

		// Reroute on the transcribed text: a voice note whose content asks
		// for an image still becomes a text-to-image request.
		if router.WantsImage(transcript) {
			logging.L_info("voice: transcript rerouted to image generation")
			return e.handleTextToImage(ctx, key, transcript, dialect)
		}

		state = stateFallbackGenerate
		logging.L_debug("voice: state", "state", state)

		result, out := e.generateChatReply(ctx, key, transcript)
		if result == nil {
			logging.L_warn("voice: fallback generation failed", "class", out.Class, "error", out.Err)
			return &types.OutboundReply{Text: failureReply(out.Class, lang.Detect(transcript))}
		}
		userText = transcript
		replyText = result.Text
	}

	e.appendExchange(ctx, key, userText, replyText)

	// Regardless of path, synthesize a spoken reply; the voice persona
	// follows the reply's language, not the input's.
	state = stateSynthesize
	logging.L_debug("voice: state", "state", state)

	formatted := lang.Format(replyText, dialect)

	if e.synth != nil {
		audio, mimeType, err := e.synth.Synthesize(ctx, replyText, lang.Detect(replyText))
		if err == nil {
			state = stateDelivered
			seconds := media.ProbeVoiceNote(audio).Seconds
			logging.L_info("voice: reply synthesized", "state", state, "bytes", len(audio), "seconds", seconds)
			return &types.OutboundReply{
				Audio: &types.AudioReply{Data: audio, MimeType: mimeType, Seconds: seconds},
				Text:  formatted,
			}
		}
		logging.L_warn("voice: synthesis failed, sending text", "error", err)
	}

	state = stateDeliveredAsText
	logging.L_info("voice: reply delivered as text", "state", state)
	return &types.OutboundReply{Text: formatted}
}

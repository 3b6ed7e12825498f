package pipeline

import (
	"context"
	"strings"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/media"
	"github.com/hamdanlabs/concierge/internal/types"
)

const defaultTransformPrompt = "Enhance the input image: improve lighting, sharpness and color balance."

var transformVerbs = []string{
	"transform", "change", "turn", "convert", "edit", "enhance", "make",
	"add", "remove", "replace", "restyle",
	"حول", "حوّل", "غير", "غيّر", "اجعل", "عدل", "عدّل", "أضف", "اضف", "امسح", "ازل", "أزل",
}

// transformPrompt shapes the user's caption into an image-transform prompt:
// empty captions get the generic enhance instruction, and captions without a
// transform verb are rewritten to explicitly reference the input image.
func transformPrompt(caption string) string {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return defaultTransformPrompt
	}
	lower := strings.ToLower(caption)
	for _, v := range transformVerbs {
		if strings.Contains(lower, v) {
			return caption
		}
	}
	return "Transform the input image: " + caption
}

// handleImageToImage runs the image transform pipeline. Media decode and
// normalization failures are classified transient so the user message stays
// consistent with gateway retry semantics.
func (e *Engine) handleImageToImage(ctx context.Context, msg *types.InboundMessage, _ lang.Dialect) *types.OutboundReply {
	detected := lang.Detect(msg.Text)

	if e.images == nil {
		return &types.OutboundReply{Text: replyCapabilityUnavailable(detected)}
	}

	data, mimeType, err := media.NormalizeImage(msg.Attachment.Data)
	if err != nil {
		logging.L_warn("imageimage: attachment decode failed", "error", err)
		return &types.OutboundReply{Text: replyTransient(detected)}
	}

	prompt := transformPrompt(msg.Text)
	logging.L_info("imageimage: transforming", "prompt", prompt, "bytes", len(data))

	img, err := e.images.Transform(ctx, prompt, data, mimeType)
	if err != nil {
		class := ai.Classify(err)
		logging.L_warn("imageimage: transform failed", "class", class, "error", err)
		return &types.OutboundReply{Text: failureReply(class, detected)}
	}

	caption := strings.TrimSpace(msg.Text)
	e.appendExchange(ctx, msg.SessionKey(), "[image] "+caption, "[image] "+prompt)

	return &types.OutboundReply{Image: &types.ImageReply{
		Data:     img.Data,
		MimeType: img.MimeType,
		Caption:  caption,
	}}
}

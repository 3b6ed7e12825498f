package pipeline

import (
	"context"
	"regexp"
	"strings"

	"github.com/hamdanlabs/concierge/internal/ai"
	"github.com/hamdanlabs/concierge/internal/lang"
	"github.com/hamdanlabs/concierge/internal/logging"
	"github.com/hamdanlabs/concierge/internal/types"
)

// minPromptRunes: a cleaned prompt shorter than this reverts to the raw
// message, since stripping clearly removed too much.
const minPromptRunes = 3

var (
	englishCommandPattern = regexp.MustCompile(
		`(?i)^(please\s+)?(can you\s+)?(generate|create|draw|make|design)\s+(an?\s+)?(image|picture|photo|illustration|logo)\s*(of\s+|showing\s+|with\s+|for\s+)?`)

	arabicCommandPattern = regexp.MustCompile(
		`^(ارسم|أرسم|اصنع|أصنع|انشئ|أنشئ|سوي|اعمل|أعمل)\s+(لي\s+)?(صورة|صوره|رسمة|رسمه)\s*(ل|عن\s+|فيها\s+)?`)
)

// CleanPrompt strips the leading image-generation command phrase in the
// detected language, reverting to the raw message if stripping leaves too
// little behind.
func CleanPrompt(text string, detected lang.Language) string {
	raw := strings.TrimSpace(text)
	cleaned := raw
	if detected == lang.Arabic {
		cleaned = arabicCommandPattern.ReplaceAllString(cleaned, "")
	} else {
		cleaned = englishCommandPattern.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if len([]rune(cleaned)) < minPromptRunes {
		return raw
	}
	return cleaned
}

// handleTextToImage runs the text-to-image pipeline. Single provider, not
// part of the fallback chain: only one is configured.
func (e *Engine) handleTextToImage(ctx context.Context, key, text string, _ lang.Dialect) *types.OutboundReply {
	detected := lang.Detect(text)

	if e.images == nil {
		return &types.OutboundReply{Text: replyCapabilityUnavailable(detected)}
	}

	prompt := CleanPrompt(text, detected)
	logging.L_info("textimage: generating", "prompt", prompt)

	img, err := e.images.Generate(ctx, prompt)
	if err != nil {
		class := ai.Classify(err)
		logging.L_warn("textimage: generation failed", "class", class, "error", err)
		return &types.OutboundReply{Text: failureReply(class, detected)}
	}

	e.appendExchange(ctx, key, text, "[image] "+prompt)

	return &types.OutboundReply{Image: &types.ImageReply{
		Data:     img.Data,
		MimeType: img.MimeType,
		Caption:  prompt,
	}}
}

// Package router classifies inbound messages into pipeline kinds.
package router

import (
	"regexp"
	"strings"

	"github.com/hamdanlabs/concierge/internal/types"
)

// Kind is the pipeline a message routes to.
type Kind string

const (
	KindChat         Kind = "chat"
	KindVoice        Kind = "voice"
	KindTextToImage  Kind = "text-to-image"
	KindImageToImage Kind = "image-to-image"
)

// Classify routes an inbound message. Rules evaluate in fixed priority
// order, first match wins:
//  1. audio attachment -> voice
//  2. image attachment -> image-to-image
//  3. image-request text -> text-to-image
//  4. otherwise -> chat
func Classify(msg *types.InboundMessage) Kind {
	if a := msg.Attachment; a != nil {
		switch a.Kind {
		case types.AttachmentAudio:
			return KindVoice
		case types.AttachmentImage:
			return KindImageToImage
		}
	}
	if WantsImage(msg.Text) {
		return KindTextToImage
	}
	return KindChat
}

var (
	// "generate/create/draw/make ... image/picture/photo"
	englishImagePattern = regexp.MustCompile(
		`(?i)\b(generate|create|draw|make|design)\b.{0,40}\b(image|picture|photo|illustration|logo)\b`)

	// Arabic equivalents: ارسم / اصنع / انشئ ... صورة / رسمة
	arabicImagePattern = regexp.MustCompile(
		`(ارسم|أرسم|اصنع|أصنع|انشئ|أنشئ|سوي|اعمل|أعمل).{0,40}(صورة|صوره|رسمة|رسمه|لوجو)`)
)

// WantsImage is the image-generation text heuristic. It is exported because
// it is reapplied downstream as a safety net: on text transcribed from a
// voice message, and once more inside the chat pipeline as a last-resort
// catch for the classifier's own false negatives.
func WantsImage(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if englishImagePattern.MatchString(text) {
		return true
	}
	return arabicImagePattern.MatchString(text)
}

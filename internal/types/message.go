// Package types contains shared message types used across channels and pipelines.
package types

import "time"

// AttachmentKind identifies the media type of an inbound attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentAudio AttachmentKind = "audio"
)

// Attachment is media carried by an inbound message.
type Attachment struct {
	Kind     AttachmentKind
	Data     []byte
	MimeType string
}

// InboundMessage represents any message that triggers pipeline processing.
// All entry points (WhatsApp, Telegram, the web widget) are expressed in
// terms of InboundMessage.
type InboundMessage struct {
	// Identity
	ChannelID string // "whatsapp", "telegram", "web"
	SenderID  string // phone number, chat id, or widget session id

	// Content
	Text       string
	Attachment *Attachment // nil for plain text

	Received time.Time
}

// SessionKey returns the channel-qualified conversation identifier.
func (m *InboundMessage) SessionKey() string {
	return m.ChannelID + ":" + m.SenderID
}

// ImageReply is an outbound image with its caption.
type ImageReply struct {
	Data     []byte
	MimeType string
	Caption  string
}

// AudioReply is an outbound voice note.
type AudioReply struct {
	Data     []byte
	MimeType string
	Seconds  int // playback duration hint for voice-note UIs
}

// OutboundReply is the finished product a pipeline hands back to the channel.
// Exactly one of Text, Image, or Audio is normally set; Audio may carry Text
// as a fallback if the channel cannot deliver audio.
type OutboundReply struct {
	Text  string
	Image *ImageReply
	Audio *AudioReply
}

// Package imagegen provides image generation (text-to-image and
// image-to-image) and decoding of the provider's response payloads.
package imagegen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hamdanlabs/concierge/internal/media"
)

// PayloadKind tags the decoded shape of a provider response payload.
type PayloadKind string

const (
	// PayloadImage is raw binary image data.
	PayloadImage PayloadKind = "image"
	// PayloadURL is a URL the image must be fetched from.
	PayloadURL PayloadKind = "url"
)

// Payload is the decoded form of one provider response. Exactly one of
// (Data, MimeType) or URL is populated, per Kind.
type Payload struct {
	Kind     PayloadKind
	Data     []byte
	MimeType string
	URL      string
}

// jsonPayload covers the structured object shapes seen from image providers.
type jsonPayload struct {
	URL     string `json:"url"`
	B64JSON string `json:"b64_json"`
	Image   string `json:"image"`
	Data    struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// DecodePayload decodes a provider response body whose shape is not known up
// front. Decoders are tried in fixed priority order:
//  1. magic-byte sniff: raw binary image data
//  2. JSON object carrying a url or base64 image field
//  3. bare URL text
func DecodePayload(body []byte) (*Payload, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	if media.IsImage(body) {
		return &Payload{Kind: PayloadImage, Data: body, MimeType: media.DetectMime(body)}, nil
	}

	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "{") {
		var jp jsonPayload
		if err := json.Unmarshal(body, &jp); err == nil {
			switch {
			case jp.URL != "":
				return &Payload{Kind: PayloadURL, URL: jp.URL}, nil
			case jp.Data.URL != "":
				return &Payload{Kind: PayloadURL, URL: jp.Data.URL}, nil
			case jp.B64JSON != "" || jp.Image != "" || jp.Data.B64JSON != "":
				b64 := jp.B64JSON
				if b64 == "" {
					b64 = jp.Image
				}
				if b64 == "" {
					b64 = jp.Data.B64JSON
				}
				raw, err := base64.StdEncoding.DecodeString(b64)
				if err != nil {
					return nil, fmt.Errorf("decode base64 image field: %w", err)
				}
				return &Payload{Kind: PayloadImage, Data: raw, MimeType: media.DetectMime(raw)}, nil
			}
		}
		return nil, fmt.Errorf("json payload carries no image")
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return &Payload{Kind: PayloadURL, URL: trimmed}, nil
	}

	return nil, fmt.Errorf("unrecognized image payload (%d bytes, starts %q)",
		len(body), preview(trimmed))
}

func preview(s string) string {
	if len(s) > 24 {
		return s[:24]
	}
	return s
}

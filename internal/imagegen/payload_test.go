package imagegen

import (
	"bytes"
	"encoding/base64"
	"testing"
)

// pngHeader is the 8-byte PNG signature plus enough bytes to sniff.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestDecodePayloadBinary(t *testing.T) {
	p, err := DecodePayload(pngHeader)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.Kind != PayloadImage {
		t.Errorf("Kind = %v, want image", p.Kind)
	}
	if !bytes.Equal(p.Data, pngHeader) {
		t.Error("binary data must pass through untouched")
	}
}

func TestDecodePayloadJSON(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name     string
		body     string
		wantKind PayloadKind
		wantURL  string
	}{
		{"url field", `{"url":"https://img.example.com/1.png"}`, PayloadURL, "https://img.example.com/1.png"},
		{"nested data url", `{"data":{"url":"https://img.example.com/2.png"}}`, PayloadURL, "https://img.example.com/2.png"},
		{"b64_json field", `{"b64_json":"` + b64 + `"}`, PayloadImage, ""},
		{"image field", `{"image":"` + b64 + `"}`, PayloadImage, ""},
		{"nested b64", `{"data":{"b64_json":"` + b64 + `"}}`, PayloadImage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodePayload([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodePayload: %v", err)
			}
			if p.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", p.Kind, tt.wantKind)
			}
			if tt.wantURL != "" && p.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", p.URL, tt.wantURL)
			}
			if tt.wantKind == PayloadImage && !bytes.Equal(p.Data, pngHeader) {
				t.Error("decoded base64 data mismatch")
			}
		})
	}
}

func TestDecodePayloadURL(t *testing.T) {
	p, err := DecodePayload([]byte("  https://img.example.com/3.png \n"))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.Kind != PayloadURL || p.URL != "https://img.example.com/3.png" {
		t.Errorf("got %+v, want trimmed URL payload", p)
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"json without image", []byte(`{"status":"ok"}`)},
		{"bad base64", []byte(`{"b64_json":"!!!not-base64!!!"}`)},
		{"plain text", []byte("no image here")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePayload(tt.body); err == nil {
				t.Errorf("DecodePayload(%q) succeeded, want error", tt.body)
			}
		})
	}
}

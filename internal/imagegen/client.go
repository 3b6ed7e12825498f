package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/roelfdiedericks/xai-go"

	. "github.com/hamdanlabs/concierge/internal/logging"
)

const defaultModel = "grok-2-image"

// Image is a generated image ready for channel delivery.
type Image struct {
	Data     []byte
	MimeType string
}

// Client generates images through the xAI image API. Single provider, not
// part of the fallback chain: only one is configured.
type Client struct {
	xc    *xai.Client
	model string
	http  *http.Client
}

// New creates an image generation client. Returns nil client (not an error)
// when no key is configured: the capability is disabled, callers must check.
func New(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}
	if model == "" {
		model = defaultModel
	}

	xc, err := xai.New(xai.Config{APIKey: xai.NewSecureString(apiKey)})
	if err != nil {
		return nil, fmt.Errorf("imagegen: create client: %w", err)
	}

	L_debug("imagegen: client created", "model", model)

	return &Client{xc: xc, model: model, http: &http.Client{}}, nil
}

// Generate produces an image from a text prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (*Image, error) {
	req := xai.NewImageRequest(prompt).WithModel(c.model)
	return c.run(ctx, req)
}

// Transform produces an image from a prompt plus an input image. The input
// is passed inline as a data URI.
func (c *Client) Transform(ctx context.Context, prompt string, input []byte, mimeType string) (*Image, error) {
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(input))
	req := xai.NewImageRequest(prompt).WithModel(c.model).WithInputImage(dataURI)
	return c.run(ctx, req)
}

func (c *Client) run(ctx context.Context, req *xai.ImageRequest) (*Image, error) {
	resp, err := c.xc.GenerateImage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Images) == 0 {
		return nil, fmt.Errorf("no images generated")
	}

	img := resp.Images[0]
	if img.URL == "" {
		return nil, fmt.Errorf("image response carries no url")
	}
	return c.Fetch(ctx, img.URL)
}

// Fetch downloads an image result and decodes whatever shape comes back:
// the body may be binary image data, a JSON object pointing elsewhere, or a
// bare URL. One level of indirection is followed.
func (c *Client) Fetch(ctx context.Context, url string) (*Image, error) {
	body, err := c.download(ctx, url)
	if err != nil {
		return nil, err
	}

	payload, err := DecodePayload(body)
	if err != nil {
		return nil, fmt.Errorf("decode image response: %w", err)
	}

	if payload.Kind == PayloadURL {
		body, err = c.download(ctx, payload.URL)
		if err != nil {
			return nil, err
		}
		payload, err = DecodePayload(body)
		if err != nil {
			return nil, fmt.Errorf("decode redirected image response: %w", err)
		}
		if payload.Kind != PayloadImage {
			return nil, fmt.Errorf("image url resolved to another url")
		}
	}

	return &Image{Data: payload.Data, MimeType: payload.MimeType}, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

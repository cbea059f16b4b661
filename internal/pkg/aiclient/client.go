package aiclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	geminiEndpoint     = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	falEndpoint        = "https://fal.run/fal-ai/flux/dev"
	elevenLabsEndpoint = "https://api.elevenlabs.io/v1/text-to-speech"
)

// Client wraps resty for the external AI providers: Gemini for scripts,
// fal.ai for slide images, ElevenLabs for narration. Provider errors are
// returned verbatim so operators see the raw message; nothing here retries.
type Client struct {
	r              *resty.Client
	geminiKey      string
	falKey         string
	elevenLabsKey  string
	narrationVoice string
}

func New(geminiKey, falKey, elevenLabsKey string) *Client {
	r := resty.New().
		SetTimeout(5 * time.Minute)

	return &Client{
		r:              r,
		geminiKey:      geminiKey,
		falKey:         falKey,
		elevenLabsKey:  elevenLabsKey,
		narrationVoice: "onwK4e9ZLuTAKqWW03F9",
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateScript asks Gemini for a slideshow script on the topic.
func (c *Client) GenerateScript(ctx context.Context, prompt string) (string, error) {
	var out geminiResponse
	resp, err := c.r.R().
		SetContext(ctx).
		SetQueryParam("key", c.geminiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}).
		SetResult(&out).
		SetError(&out).
		Post(geminiEndpoint)
	if err != nil {
		return "", err
	}
	if resp.IsError() || out.Error.Message != "" {
		return "", fmt.Errorf("gemini: %s", out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

type falRequest struct {
	Prompt    string `json:"prompt"`
	ImageSize string `json:"image_size"`
	NumImages int    `json:"num_images"`
}

type falResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Detail string `json:"detail"`
}

// GenerateImage renders one slide image and returns the raw bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	var out falResponse
	resp, err := c.r.R().
		SetContext(ctx).
		SetHeader("Authorization", "Key "+c.falKey).
		SetHeader("Content-Type", "application/json").
		SetBody(falRequest{Prompt: prompt, ImageSize: "portrait_16_9", NumImages: 1}).
		SetResult(&out).
		SetError(&out).
		Post(falEndpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fal.ai: %s", out.Detail)
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("fal.ai: no image returned")
	}

	img, err := c.r.R().SetContext(ctx).Get(out.Images[0].URL)
	if err != nil {
		return nil, err
	}
	if img.IsError() {
		return nil, fmt.Errorf("fal.ai: fetching image failed with status %d", img.StatusCode())
	}
	return img.Body(), nil
}

type narrationRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// GenerateNarration synthesizes voice-over audio for video content types.
func (c *Client) GenerateNarration(ctx context.Context, script string) ([]byte, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetHeader("xi-api-key", c.elevenLabsKey).
		SetHeader("Content-Type", "application/json").
		SetBody(narrationRequest{Text: script, ModelID: "eleven_multilingual_v2"}).
		Post(fmt.Sprintf("%s/%s", elevenLabsEndpoint, c.narrationVoice))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("elevenlabs: %s", resp.String())
	}
	return resp.Body(), nil
}

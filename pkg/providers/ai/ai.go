// Package ai calls the generative text and image models used for content generation.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/httpjson"
)

const anthropicVersion = "2023-06-01"

// Client talks to Gemini for text and images and to Anthropic for text.
type Client struct {
	GeminiKey     string
	GeminiBaseURL string
	TextModel     string
	ImageModel    string

	AnthropicKey     string
	AnthropicBaseURL string
	AnthropicModel   string

	HTTPClient *http.Client
}

func New(cfg config.AIConfig) *Client {
	return &Client{
		GeminiKey:        cfg.GeminiAPIKey,
		GeminiBaseURL:    strings.TrimRight(cfg.GeminiBaseURL, "/"),
		TextModel:        cfg.TextModel,
		ImageModel:       cfg.ImageModel,
		AnthropicKey:     cfg.AnthropicAPIKey,
		AnthropicBaseURL: strings.TrimRight(cfg.AnthropicBaseURL, "/"),
		AnthropicModel:   cfg.AnthropicModel,
		HTTPClient:       httpjson.DefaultClient(),
	}
}

// HasAnthropic reports whether an Anthropic key is configured.
func (c *Client) HasAnthropic() bool {
	return c.AnthropicKey != ""
}

type geminiPart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *geminiInline `json:"inlineData,omitempty"`
}

type geminiInline struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, model string, req geminiRequest) (geminiResponse, error) {
	var out geminiResponse
	if c.GeminiKey == "" {
		return out, apperr.Configuration("GEMINI_API_KEY")
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.GeminiBaseURL, url.PathEscape(model), url.QueryEscape(c.GeminiKey))

	_, err := httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method:   http.MethodPost,
		URL:      endpoint,
		JSON:     req,
		Provider: "gemini",
	}, &out)
	return out, err
}

// GenerateText returns the text of the first candidate for prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generate(ctx, c.TextModel, geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
		break
	}
	return strings.TrimSpace(b.String()), nil
}

// Image is a generated image.
type Image struct {
	MimeType string
	Data     []byte
}

// ErrNoImage is returned when the model answered without image data.
var ErrNoImage = apperr.Validation("이미지 생성에 실패했습니다. 다른 프롬프트를 시도해보세요.")

// GenerateImage renders prompt with the image model.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := c.generate(ctx, c.ImageModel, geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: map[string]any{"responseModalities": []string{"TEXT", "IMAGE"}},
	})
	if err != nil {
		return Image{}, fmt.Errorf("failed to generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return Image{}, fmt.Errorf("failed to decode image: %w", err)
			}
			return Image{MimeType: p.InlineData.MimeType, Data: data}, nil
		}
	}
	return Image{}, ErrNoImage
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a single user message to the Anthropic model.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.AnthropicKey == "" {
		return "", apperr.Configuration("ANTHROPIC_API_KEY")
	}

	var out anthropicResponse
	_, err := httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method: http.MethodPost,
		URL:    c.AnthropicBaseURL + "/v1/messages",
		Header: http.Header{
			"x-api-key":         []string{c.AnthropicKey},
			"anthropic-version": []string{anthropicVersion},
		},
		JSON: anthropicRequest{
			Model:     c.AnthropicModel,
			MaxTokens: maxTokens,
			Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		},
		Provider: "anthropic",
	}, &out)
	if err != nil {
		return "", fmt.Errorf("failed to complete prompt: %w", err)
	}
	if len(out.Content) == 0 {
		return "", apperr.Backend("", "anthropic returned no content", nil)
	}
	return strings.TrimSpace(out.Content[0].Text), nil
}

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON returns the outermost {...} block of a model answer, or "" when there is none.
func ExtractJSON(s string) string {
	return jsonBlock.FindString(s)
}

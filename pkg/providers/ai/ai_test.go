package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(config.AIConfig{
		GeminiAPIKey:     "g-key",
		GeminiBaseURL:    srv.URL,
		TextModel:        "text-model",
		ImageModel:       "image-model",
		AnthropicAPIKey:  "a-key",
		AnthropicBaseURL: srv.URL,
		AnthropicModel:   "claude-test",
	})
	c.HTTPClient = srv.Client()
	return c
}

func TestGenerateText(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/text-model:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  a clean office "},{"text":"desk"}]}}]}`))
	})

	got, err := c.GenerateText(context.Background(), "describe")

	require.NoError(t, err)
	assert.Equal(t, "a clean office desk", got)
}

func TestGenerateImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}

	t.Run("Returns inline data", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req geminiRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "prompt", req.Contents[0].Parts[0].Text)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString(png)}},
				}}}},
			})
		})

		img, err := c.GenerateImage(context.Background(), "prompt")

		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MimeType)
		assert.Equal(t, png, img.Data)
	})

	t.Run("No image part", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
		})

		_, err := c.GenerateImage(context.Background(), "prompt")

		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("Missing key", func(t *testing.T) {
		_, err := New(config.AIConfig{}).GenerateImage(context.Background(), "prompt")

		assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	})
}

func TestComplete(t *testing.T) {
	t.Run("Sends versioned request", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/messages", r.URL.Path)
			assert.Equal(t, "a-key", r.Header.Get("x-api-key"))
			assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
			var req anthropicRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "claude-test", req.Model)
			assert.Equal(t, 1024, req.MaxTokens)
			_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"keywords\":[\"a\"]}"}]}`))
		})

		got, err := c.Complete(context.Background(), "hi", 1024)

		require.NoError(t, err)
		assert.Equal(t, `{"keywords":["a"]}`, got)
	})

	t.Run("Upstream error", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
		})

		_, err := c.Complete(context.Background(), "hi", 10)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "slow down")
	})
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, ExtractJSON("Sure!\n```json\n{\"a\":{\"b\":1}}\n```"))
	assert.Equal(t, "", ExtractJSON("no json here"))
}

// Package supabase talks to a regional project over its REST surfaces: PostgREST for tables,
// GoTrue admin for auth users and the storage API for objects.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

// Client implements storage.Client for one region.
type Client struct {
	BaseURL    string
	ServiceKey string
	HTTPClient *http.Client
	region     region.Region
}

// New creates a client for the project at baseURL authenticated with serviceKey.
func New(r region.Region, baseURL, serviceKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		HTTPClient: httpClient,
		region:     r,
	}
}

// Make sure we conform to the interface
var _ storage.Client = (*Client)(nil)

func (c *Client) Region() region.Region { return c.region }

func (c *Client) Close() error { return nil }

// apiError is the error body shape shared by PostgREST, GoTrue and storage.
type apiError struct {
	Code       any    `json:"code"`
	Message    string `json:"message"`
	Msg        string `json:"msg"`
	Error      string `json:"error"`
	StatusCode string `json:"statusCode"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	headers     map[string]string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.BaseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.ServiceKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return apperr.Backend("", fmt.Sprintf("%s request failed", c.region), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Backend("", "failed to read response", err)
	}

	if resp.StatusCode >= 300 {
		var e apiError
		_ = json.Unmarshal(body, &e)
		msg := e.text()
		if msg == "" {
			msg = fmt.Sprintf("%s returned status %d", req.path, resp.StatusCode)
		}
		code := fmt.Sprint(resp.StatusCode)
		if e.Code != nil {
			code = fmt.Sprint(e.Code)
		}
		return apperr.Backend(code, msg, nil)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Backend("", "failed to decode response", err)
	}
	return nil
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(b), nil
}

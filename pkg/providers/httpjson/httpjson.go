// Package httpjson is the request helper shared by the REST provider adapters.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
)

// DefaultClient is used by adapters constructed without an explicit client.
func DefaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// Request describes one provider call. JSON is marshalled as the body unless Body is set.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	JSON        any
	Body        io.Reader
	ContentType string

	// Provider names the upstream in error messages.
	Provider string
	// RelayStatus keeps the upstream status on the returned error so it reaches the caller.
	RelayStatus bool
}

// providerError covers the error shapes of the providers in use.
type providerError struct {
	Code      any    `json:"code"`
	Message   string `json:"message"`
	ErrorText any    `json:"error"`
}

func (e providerError) code() string {
	switch v := e.Code.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(e.Code)
}

func (e providerError) text() string {
	if e.Message != "" {
		return e.Message
	}
	switch v := e.ErrorText.(type) {
	case string:
		return v
	case map[string]any:
		if m, ok := v["message"].(string); ok {
			return m
		}
	}
	return ""
}

// Do sends req and decodes a 2xx JSON response into out when out is non-nil.
// It returns the raw response body for callers that need it.
func Do(ctx context.Context, client *http.Client, req Request, out any) ([]byte, error) {
	body := req.Body
	contentType := req.ContentType
	if body == nil && req.JSON != nil {
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, apperr.Backend("", req.Provider+" request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Backend("", "failed to read "+req.Provider+" response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var pe providerError
		_ = json.Unmarshal(raw, &pe)
		msg := pe.text()
		if msg == "" {
			msg = fmt.Sprintf("%s returned status %d: %s", req.Provider, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		e := apperr.Backend(pe.code(), msg, nil)
		if req.RelayStatus {
			e.Status = resp.StatusCode
		}
		return raw, e
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, apperr.Backend("", "failed to decode "+req.Provider+" response", err)
		}
	}
	return raw, nil
}

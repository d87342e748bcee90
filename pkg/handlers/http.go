package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ToRequest converts an HTTP request into the gateway request shape the handlers consume.
func ToRequest(r *http.Request) (Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return Request{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		headers[k] = strings.Join(vs, ",")
	}
	query := make(map[string]string, len(r.URL.Query()))
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[0]
		}
	}

	req := Request{
		HTTPMethod:            r.Method,
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
	}
	req.RequestContext.RequestID = middleware.GetReqID(r.Context())
	return req, nil
}

// WriteResponse writes a gateway response to w.
func WriteResponse(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		if b, err := base64.StdEncoding.DecodeString(resp.Body); err == nil {
			body = b
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// HTTPHandler serves the function named by the {function} route parameter.
func (r *Router) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, hr *http.Request) {
		req, err := ToRequest(hr)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		WriteResponse(w, r.Serve(hr.Context(), chi.URLParam(hr, "function"), req))
	}
}

// FunctionName picks the function a gateway request targets: the {function} path
// parameter, else the last path segment.
func FunctionName(req Request) string {
	if name := req.PathParameters["function"]; name != "" {
		return name
	}
	path := strings.TrimRight(req.Path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}

// Package handlers is the request pipeline shared by every admin function: CORS, method
// checks, bearer authentication, request binding, error mapping, metrics and logging.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/auth"
	"go.uber.org/zap"
)

type (
	Request  = events.APIGatewayProxyRequest
	Response = events.APIGatewayProxyResponse
)

// M is a JSON object body.
type M map[string]any

// Reply is what an endpoint returns on success, or on a failure that needs a custom body.
type Reply struct {
	Status      int
	Body        any
	ContentType string
	// Binary, when set, is sent base64 encoded instead of Body.
	Binary []byte
	Header map[string]string
}

// OK is a 200 reply. An M body gets "success": true unless it sets it.
func OK(body any) *Reply {
	return &Reply{Status: http.StatusOK, Body: body}
}

// Created is a 201 reply.
func Created(body any) *Reply {
	return &Reply{Status: http.StatusCreated, Body: body}
}

// Fail is a reply with status and a {"success": false, "error": msg} body plus extra fields.
func Fail(status int, msg string, extra M) *Reply {
	body := M{"success": false, "error": msg}
	for k, v := range extra {
		body[k] = v
	}
	return &Reply{Status: status, Body: body}
}

// File is a binary download.
func File(contentType, filename string, data []byte) *Reply {
	return &Reply{
		Status:      http.StatusOK,
		ContentType: contentType,
		Binary:      data,
		Header:      map[string]string{"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename)},
	}
}

// Endpoint is the business logic of one function.
type Endpoint func(call *Call) (*Reply, error)

// Handler is one named admin function.
type Handler struct {
	Name    string
	Methods []string
	// Auth requires a valid bearer token; its claims are available on the call.
	Auth     bool
	Endpoint Endpoint
}

// Call is one invocation of a handler.
type Call struct {
	ctx     context.Context
	Request Request
	Claims  *auth.Claims
	Deps    *Deps
	Log     *zap.Logger
}

func (c *Call) Context() context.Context { return c.ctx }

// Query returns a query string parameter.
func (c *Call) Query(key string) string {
	return c.Request.QueryStringParameters[key]
}

// Header returns a request header, ignoring case.
func (c *Call) Header(key string) string {
	return header(c.Request, key)
}

func header(req Request, key string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	for k, vs := range req.MultiValueHeaders {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func (h *Handler) allowedMethods() string {
	ms := append(slices.Clone(h.Methods), http.MethodOptions)
	return strings.Join(ms, ", ")
}

func (h *Handler) headers() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
		"Access-Control-Allow-Methods": h.allowedMethods(),
		"Content-Type":                 "application/json",
	}
}

// Invoke runs the full pipeline for req. It never returns an error; every failure is a response.
func (h *Handler) Invoke(ctx context.Context, deps *Deps, req Request) (resp Response) {
	start := time.Now()
	log := deps.Log.With(zap.String("function", h.Name), zap.String("request_id", req.RequestContext.RequestID))

	defer func() {
		if p := recover(); p != nil {
			log.Error("handler panicked", zap.Any("panic", p))
			resp = h.respond(Fail(http.StatusInternalServerError, fmt.Sprint(p), nil))
		}
		deps.Metrics.ObserveRequest(h.Name, resp.StatusCode, time.Since(start))
		log.Info("request handled", zap.String("method", req.HTTPMethod), zap.Int("status", resp.StatusCode))
	}()

	if req.HTTPMethod == http.MethodOptions {
		return Response{StatusCode: http.StatusOK, Headers: h.headers(), Body: ""}
	}
	if !slices.Contains(h.Methods, req.HTTPMethod) {
		return h.respond(Fail(http.StatusMethodNotAllowed, "Method not allowed", nil))
	}

	call := &Call{ctx: ctx, Request: req, Deps: deps, Log: log}
	if h.Auth {
		claims, err := deps.Verifier.Verify(header(req, "Authorization"))
		if err != nil {
			return h.fail(log, err)
		}
		call.Claims = claims
		call.Log = log.With(zap.String("user_id", claims.Subject))
	}

	reply, err := h.Endpoint(call)
	if err != nil {
		return h.fail(call.Log, err)
	}
	return h.respond(reply)
}

func (h *Handler) fail(log *zap.Logger, err error) Response {
	status := apperr.StatusCode(err)
	var appErr *apperr.Error
	switch kind := apperr.KindOf(err); {
	case kind == apperr.KindConfiguration && errors.As(err, &appErr):
		log.Error("missing configuration", zap.String("credential", appErr.Code), zap.Error(err))
	case status >= 500:
		log.Error("request failed", zap.Error(err))
	default:
		log.Info("request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}
	return h.respond(Fail(status, apperr.PublicMessage(err), nil))
}

func (h *Handler) respond(r *Reply) Response {
	hdrs := h.headers()
	for k, v := range r.Header {
		hdrs[k] = v
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	if r.Binary != nil {
		hdrs["Content-Type"] = r.ContentType
		return Response{StatusCode: status, Headers: hdrs, Body: base64.StdEncoding.EncodeToString(r.Binary), IsBase64Encoded: true}
	}
	if r.ContentType != "" {
		hdrs["Content-Type"] = r.ContentType
	}

	body := r.Body
	if m, ok := body.(M); ok {
		if _, set := m["success"]; !set {
			m["success"] = status < 400
		}
	}
	b, err := json.Marshal(body)
	if err != nil {
		b, _ = json.Marshal(M{"success": false, "error": fmt.Sprintf("failed to encode response: %v", err)})
		status = http.StatusInternalServerError
	}
	return Response{StatusCode: status, Headers: hdrs, Body: string(b)}
}

// Router holds the handlers by function name.
type Router struct {
	Deps     *Deps
	handlers map[string]*Handler
}

func NewRouter(deps *Deps) *Router {
	return &Router{Deps: deps, handlers: map[string]*Handler{}}
}

// Handle registers h. Registering a name twice panics.
func (r *Router) Handle(h *Handler) {
	if _, dup := r.handlers[h.Name]; dup {
		panic("handler registered twice: " + h.Name)
	}
	r.handlers[h.Name] = h
}

// Lookup returns the handler registered under name.
func (r *Router) Lookup(name string) (*Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered functions in alphabetical order.
func (r *Router) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Serve invokes the handler registered under name.
func (r *Router) Serve(ctx context.Context, name string, req Request) Response {
	h, ok := r.handlers[name]
	if !ok {
		b, _ := json.Marshal(M{"success": false, "error": fmt.Sprintf("Unknown function: %s", name)})
		return Response{
			StatusCode: http.StatusNotFound,
			Headers:    map[string]string{"Access-Control-Allow-Origin": "*", "Content-Type": "application/json"},
			Body:       string(b),
		}
	}
	return h.Invoke(ctx, r.Deps, req)
}

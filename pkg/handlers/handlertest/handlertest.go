// Package handlertest builds in-memory dependencies and requests for handler tests.
package handlertest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/auth"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// JWTSecret signs the tokens returned by Token.
const JWTSecret = "test-secret"

// Now is the fixed clock of the test dependencies.
var Now = time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

// Recorder is a Dispatcher that keeps what it was given.
type Recorder struct {
	mu   sync.Mutex
	Sent []notify.Notification
	Err  error
}

func (r *Recorder) Dispatch(ctx context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, n)
	return r.Err
}

// Env is a set of test dependencies.
type Env struct {
	Deps     *handlers.Deps
	Factory  *memory.Factory
	Notifier *Recorder
}

// Store returns the in-memory store of r.
func (e *Env) Store(r region.Region) *memory.Store {
	return e.Factory.Store(r)
}

// New returns dependencies backed by in-memory stores for every region.
func New(t *testing.T) *Env {
	t.Helper()
	cfg := &config.Config{
		Env:       "test",
		JWTSecret: JWTSecret,
		Regions:   map[string]config.RegionCredentials{},
		SMS:       config.SMSConfig{DefaultRegion: "KR"},
		Business: config.BusinessConfig{
			KakaoChargeRequestTemplate:  "025100000918",
			KakaoChargeCompleteTemplate: "025100000943",
			SupportPhone:                "1833-6025",
		},
	}
	deps := handlers.NewDeps(cfg, zap.NewNop())
	factory := memory.NewFactory(region.All...)
	rec := &Recorder{}
	deps.Factory = factory
	deps.Notifier = rec
	deps.Now = func() time.Time { return Now }
	return &Env{Deps: deps, Factory: factory, Notifier: rec}
}

// Token returns a bearer header value for subject.
func Token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := auth.NewVerifier(JWTSecret).Sign(auth.Claims{Role: "authenticated", StandardClaims: jwt.StandardClaims{Subject: subject}})
	require.NoError(t, err)
	return "Bearer " + tok
}

// Request builds a gateway request. A non-string body is JSON encoded.
func Request(t *testing.T, method string, body any) handlers.Request {
	t.Helper()
	req := handlers.Request{HTTPMethod: method, Headers: map[string]string{}, QueryStringParameters: map[string]string{}}
	switch b := body.(type) {
	case nil:
	case string:
		req.Body = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req.Body = string(raw)
	}
	return req
}

// Post invokes h with a JSON POST.
func Post(t *testing.T, e *Env, h *handlers.Handler, body any) handlers.Response {
	t.Helper()
	return h.Invoke(context.Background(), e.Deps, Request(t, http.MethodPost, body))
}

// Decode parses a JSON response body.
func Decode(t *testing.T, resp handlers.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out), resp.Body)
	return out
}

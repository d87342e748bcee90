package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Registers every function", func(t *testing.T) {
		r := New(handlertest.New(t).Deps)

		assert.Len(t, r.Names(), 25)
		for _, name := range []string{
			"create-charge-request", "manual-match-deposit", "get-bank-transactions", "popbill-issue-cashbill",
			"confirm-toss-payment", "send-sms", "recommend-keywords", "admin-reset-password",
			"get-application-stats", "add-featured-creator", "sign-contract", "stibee-address-book",
		} {
			_, ok := r.Lookup(name)
			assert.True(t, ok, name)
		}
	})

	t.Run("Every function answers preflight", func(t *testing.T) {
		env := handlertest.New(t)
		r := New(env.Deps)

		for _, name := range r.Names() {
			resp := r.Serve(context.Background(), name, handlertest.Request(t, http.MethodOptions, nil))

			assert.Equal(t, http.StatusOK, resp.StatusCode, name)
			assert.Empty(t, resp.Body, name)
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"], name)
		}
	})

	t.Run("Unknown function", func(t *testing.T) {
		r := New(handlertest.New(t).Deps)

		resp := r.Serve(context.Background(), "nope", handlertest.Request(t, http.MethodPost, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Body, "Unknown function: nope")
	})

	t.Run("Serves over chi", func(t *testing.T) {
		env := handlertest.New(t)
		mux := chi.NewRouter()
		mux.HandleFunc("/functions/{function}", New(env.Deps).HTTPHandler())
		srv := httptest.NewServer(mux)
		defer srv.Close()

		resp, err := srv.Client().Post(srv.URL+"/functions/get-video-submissions", "application/json", strings.NewReader(`{"region":"mars","campaignId":"c1"}`))

		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

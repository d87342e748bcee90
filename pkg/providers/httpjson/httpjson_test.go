package httpjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	t.Run("Decodes success bodies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "v", r.Header.Get("X-Test"))
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		var out struct{ OK bool }
		_, err := Do(context.Background(), srv.Client(), Request{
			Method: http.MethodPost, URL: srv.URL, JSON: map[string]string{"a": "b"},
			Header: http.Header{"X-Test": []string{"v"}}, Provider: "test",
		}, &out)

		require.NoError(t, err)
		assert.True(t, out.OK)
	})

	t.Run("Relays status and code when asked", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"ALREADY_PROCESSED_PAYMENT","message":"이미 처리된 결제 입니다."}`))
		}))
		defer srv.Close()

		_, err := Do(context.Background(), srv.Client(), Request{Method: http.MethodPost, URL: srv.URL, Provider: "toss", RelayStatus: true}, nil)

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "ALREADY_PROCESSED_PAYMENT", appErr.Code)
		assert.Equal(t, "이미 처리된 결제 입니다.", appErr.Message)
		assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))
	})

	t.Run("Without relay upstream failures are 500", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
		}))
		defer srv.Close()

		_, err := Do(context.Background(), srv.Client(), Request{Method: http.MethodGet, URL: srv.URL, Provider: "ai"}, nil)

		assert.Equal(t, http.StatusInternalServerError, apperr.StatusCode(err))
		assert.Equal(t, "bad key", apperr.PublicMessage(err))
	})
}

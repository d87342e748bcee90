package toss

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

func TestConfirm(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
			assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("sk_test:")), r.Header.Get("Authorization"))
			var p Confirmation
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			assert.Equal(t, Confirmation{PaymentKey: "pk", OrderID: "o1", Amount: 55000}, p)
			_, _ = w.Write([]byte(`{"status":"DONE","orderId":"o1"}`))
		}))
		defer srv.Close()
		c := New(config.TossConfig{SecretKey: "sk_test", BaseURL: srv.URL})
		c.HTTPClient = srv.Client()

		out, err := c.Confirm(context.Background(), Confirmation{PaymentKey: "pk", OrderID: "o1", Amount: 55000})

		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"DONE","orderId":"o1"}`, string(out))
	})

	t.Run("Rejection relays status and code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"한도초과 혹은 잔액부족으로 결제에 실패했습니다."}`))
		}))
		defer srv.Close()
		c := New(config.TossConfig{SecretKey: "sk_test", BaseURL: srv.URL})
		c.HTTPClient = srv.Client()

		_, err := c.Confirm(context.Background(), Confirmation{PaymentKey: "pk", OrderID: "o1", Amount: 1})

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "REJECT_CARD_PAYMENT", appErr.Code)
		assert.Equal(t, http.StatusForbidden, apperr.StatusCode(err))
	})

	t.Run("Missing key", func(t *testing.T) {
		_, err := New(config.TossConfig{}).Confirm(context.Background(), Confirmation{})

		assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	})
}

package invoices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPopbill(t *testing.T, env *handlertest.Env, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	env.Deps.Config.Popbill.CorpNum = "5758102253"
	env.Deps.Config.Business.CorpName = "CNEC"
	env.Deps.Popbill = popbill.New(config.PopbillConfig{LinkID: "LINK", SecretKey: "c2VjcmV0", BaseURL: srv.URL, CorpNum: "5758102253"})
}

func TestIssueTaxInvoice(t *testing.T) {
	t.Run("Issues with the VAT split", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		var sent map[string]any
		withPopbill(t, env, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/TaxInvoice/Issue", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			_, _ = w.Write([]byte(`{"code":1,"ntsConfirmNum":"N1"}`))
		})

		// Act
		resp := handlertest.Post(t, env, IssueTaxInvoice(), map[string]any{
			"invoiceData": map[string]any{"company_name": "Acme", "business_number": "123-45-67890", "email": "tax@acme.test"},
			"amount":      110000,
		})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "N1", handlertest.Decode(t, resp)["data"].(map[string]any)["ntsConfirmNum"])
		assert.Equal(t, "20240531", sent["writeDate"])
		assert.Equal(t, "1234567890", sent["invoiceeCorpNum"])
		assert.Equal(t, "CNEC", sent["invoicerCorpName"])
		assert.EqualValues(t, 100000, sent["supplyCostTotal"])
		assert.EqualValues(t, 10000, sent["taxTotal"])
	})

	t.Run("Company name is required", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, IssueTaxInvoice(), map[string]any{"invoiceData": map[string]any{}, "amount": 1000})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "company_name is required", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Provider failure", func(t *testing.T) {
		env := handlertest.New(t)
		withPopbill(t, env, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-99999999,"message":"사업자번호 오류"}`))
		})

		resp := handlertest.Post(t, env, IssueTaxInvoice(), map[string]any{"invoiceData": map[string]any{"company_name": "Acme"}, "amount": 1000})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "사업자번호 오류", handlertest.Decode(t, resp)["error"])
	})
}

func TestIssueCashbill(t *testing.T) {
	t.Run("Issues a receipt", func(t *testing.T) {
		env := handlertest.New(t)
		var sent map[string]any
		withPopbill(t, env, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/Cashbill/Issue", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			_, _ = w.Write([]byte(`{"code":1}`))
		})

		resp := handlertest.Post(t, env, IssueCashbill(), map[string]any{
			"cashbillData": map[string]any{"identity_num": "01012345678", "customer_name": "Kim"},
			"amount":       33000,
		})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "01012345678", sent["identityNum"])
		assert.EqualValues(t, 33000, sent["totalAmount"])
	})

	t.Run("Missing amount", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, IssueCashbill(), map[string]any{"cashbillData": map[string]any{"identity_num": "1"}})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "amount is required", handlertest.Decode(t, resp)["error"])
	})
}

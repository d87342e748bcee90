package contracts

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"net/http"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signaturePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 2))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func seedContract(env *handlertest.Env, status, expiresAt string) {
	env.Store(region.Biz).Seed(ContractsTable, storage.Row{
		"id":         "ct1",
		"status":     status,
		"creator_id": "creator-1",
		"expires_at": expiresAt,
	})
}

func TestDecodeSignature(t *testing.T) {
	t.Run("Data URL", func(t *testing.T) {
		b, err := DecodeSignature("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("sig")))

		require.NoError(t, err)
		assert.Equal(t, []byte("sig"), b)
	})

	t.Run("Bare base64", func(t *testing.T) {
		b, err := DecodeSignature(base64.StdEncoding.EncodeToString([]byte("sig")))

		require.NoError(t, err)
		assert.Equal(t, []byte("sig"), b)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := DecodeSignature("data:image/png;base64,@@@")

		assert.Error(t, err)
	})
}

func TestSignContract(t *testing.T) {
	t.Run("Drawn signature is stored", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		seedContract(env, StatusSent, "2024-06-30T00:00:00Z")

		// Act
		resp := handlertest.Post(t, env, SignContract(), map[string]any{
			"contractId":    "ct1",
			"signatureType": "draw",
			"signatureData": signaturePNG(t),
			"ipAddress":     "203.0.113.7",
		})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		body := handlertest.Decode(t, resp)
		assert.Equal(t, "계약서 서명이 완료되었습니다.", body["message"])

		store := env.Store(region.Biz)
		path := "signatures/ct1_" + "1717156800000" + ".png"
		_, ok := store.Object(SignatureBucket, path)
		assert.True(t, ok)

		row := store.Rows(ContractsTable)[0]
		assert.Equal(t, StatusSigned, row["status"])
		assert.Equal(t, store.PublicURL(SignatureBucket, path), row["creator_signature_url"])

		logs := store.Rows(SignatureLogsTable)
		require.Len(t, logs, 1)
		assert.Equal(t, "creator-1", logs[0]["signer_id"])
		assert.Equal(t, "203.0.113.7", logs[0]["ip_address"])
	})

	t.Run("Stamp keeps the given URL", func(t *testing.T) {
		env := handlertest.New(t)
		seedContract(env, StatusSent, "2024-06-30T00:00:00Z")

		resp := handlertest.Post(t, env, SignContract(), map[string]any{
			"contractId": "ct1", "signatureType": "stamp", "signatureData": "https://cdn.test/stamp.png",
		})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "https://cdn.test/stamp.png", env.Store(region.Biz).Rows(ContractsTable)[0]["creator_signature_url"])
	})

	t.Run("Expired contract is marked", func(t *testing.T) {
		env := handlertest.New(t)
		seedContract(env, StatusSent, "2024-05-01T00:00:00Z")

		resp := handlertest.Post(t, env, SignContract(), map[string]any{
			"contractId": "ct1", "signatureType": "stamp", "signatureData": "https://cdn.test/stamp.png",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "계약서가 만료되었습니다.", handlertest.Decode(t, resp)["error"])
		assert.Equal(t, StatusExpired, env.Store(region.Biz).Rows(ContractsTable)[0]["status"])
	})

	t.Run("Already signed", func(t *testing.T) {
		env := handlertest.New(t)
		seedContract(env, StatusSigned, "2024-06-30T00:00:00Z")

		resp := handlertest.Post(t, env, SignContract(), map[string]any{
			"contractId": "ct1", "signatureType": "stamp", "signatureData": "x",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "서명할 수 없는 계약서입니다.", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Unknown contract", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, SignContract(), map[string]any{
			"contractId": "missing", "signatureType": "stamp", "signatureData": "x",
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Missing fields", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, SignContract(), map[string]any{"contractId": "ct1"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "필수 정보가 누락되었습니다.", handlertest.Decode(t, resp)["error"])
	})
}

package regional

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func countingServer(hits *int32, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		_, _ = w.Write([]byte(body))
	}))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("Each region talks only to its own backend", func(t *testing.T) {
		// Arrange
		var koreaHits, japanHits int32
		korea := countingServer(&koreaHits, `[{"id":"kr-1"}]`)
		defer korea.Close()
		japan := countingServer(&japanHits, `[{"id":"jp-1"}]`)
		defer japan.Close()

		f := NewFactory(region.NewRegistry(map[string]config.RegionCredentials{
			"korea": {URL: korea.URL, ServiceKey: "kr-key"},
			"japan": {URL: japan.URL, ServiceKey: "jp-key"},
		}), zap.NewNop())

		// Act
		kr, err := f.Open(ctx, region.Korea)
		require.NoError(t, err)
		rows, err := kr.Select(ctx, "campaigns", storage.Select())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "kr-1", rows[0]["id"])
		assert.Equal(t, region.Korea, kr.Region())
		assert.Equal(t, int32(1), atomic.LoadInt32(&koreaHits))
		assert.Equal(t, int32(0), atomic.LoadInt32(&japanHits))
	})

	t.Run("Opening twice yields independent clients", func(t *testing.T) {
		f := NewFactory(region.NewRegistry(map[string]config.RegionCredentials{
			"biz": {URL: "http://biz.example", ServiceKey: "k"},
		}), zap.NewNop())

		a, err := f.Open(ctx, region.Biz)
		require.NoError(t, err)
		b, err := f.Open(ctx, region.Biz)
		require.NoError(t, err)

		assert.NotSame(t, a, b)
	})

	t.Run("A region without a credential fails and names the variable", func(t *testing.T) {
		f := NewFactory(region.NewRegistry(map[string]config.RegionCredentials{
			"korea":  {URL: "http://kr.example", ServiceKey: "k"},
			"taiwan": {URL: "http://tw.example", KeyVar: "SUPABASE_TAIWAN_SERVICE_ROLE_KEY"},
		}), zap.NewNop())

		_, err := f.Open(ctx, region.Taiwan)

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindConfiguration, appErr.Kind)
		assert.Equal(t, "SUPABASE_TAIWAN_SERVICE_ROLE_KEY", appErr.Code)
	})
}

package campaigns

import (
	"net/http"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetApplicationStats(t *testing.T) {
	t.Run("Counts across regions", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		env.Store(region.Korea).Seed(ApplicationsTable,
			storage.Row{"campaign_id": "c1", "status": "selected", "guide_confirmed": true},
			storage.Row{"campaign_id": "c1", "status": "pending", "guide_confirmed": false},
			storage.Row{"campaign_id": "other", "status": "completed"},
		)
		env.Store(region.Japan).Seed(ApplicationsTable,
			storage.Row{"campaign_id": "c1", "status": "completed", "guide_confirmed": true},
			storage.Row{"campaign_id": "c2", "status": "filming"},
		)

		// Act
		resp := handlertest.Post(t, env, GetApplicationStats(), map[string]any{
			"campaignsByRegion": map[string][]string{"korea": {"c1"}, "japan": {"c2"}},
		})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		body := handlertest.Decode(t, resp)
		stats := body["stats"].(map[string]any)
		assert.Equal(t, map[string]any{"total": 3.0, "selected": 2.0, "guideConfirmed": 2.0, "completed": 1.0}, stats["c1"])
		assert.Equal(t, map[string]any{"total": 1.0, "selected": 1.0, "guideConfirmed": 0.0, "completed": 0.0}, stats["c2"])
		assert.NotContains(t, stats, "other")
		assert.Len(t, body["debug"], len(region.All))
	})

	t.Run("Unconfigured region is reported", func(t *testing.T) {
		env := handlertest.New(t)
		env.Factory = memory.NewFactory(region.Korea)
		env.Deps.Factory = env.Factory
		env.Store(region.Korea).Seed(ApplicationsTable, storage.Row{"campaign_id": "c1", "status": "approved"})

		resp := handlertest.Post(t, env, GetApplicationStats(), map[string]any{"campaignsByRegion": map[string][]string{"korea": {"c1"}}})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		body := handlertest.Decode(t, resp)
		assert.EqualValues(t, 1, body["stats"].(map[string]any)["c1"].(map[string]any)["selected"])
		debug := body["debug"].([]any)
		assert.Equal(t, map[string]any{"region": "korea", "count": 1.0}, debug[0])
		assert.NotEmpty(t, debug[1].(map[string]any)["error"])
	})

	t.Run("Requires campaignsByRegion", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, GetApplicationStats(), map[string]any{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "campaignsByRegion is required", handlertest.Decode(t, resp)["error"])
	})
}

func TestGetVideoSubmissions(t *testing.T) {
	seed := func(env *handlertest.Env) {
		env.Store(region.Japan).Seed(VideoSubmissionsTable,
			storage.Row{"id": "v1", "campaign_id": "c1", "user_id": "u1", "status": "submitted", "private_note": "x"},
			storage.Row{"id": "v2", "campaign_id": "c2", "user_id": "u2", "status": "approved"},
			storage.Row{"id": "v3", "campaign_id": "c3", "user_id": "u3", "status": "approved"},
		)
	}

	t.Run("Single campaign", func(t *testing.T) {
		env := handlertest.New(t)
		seed(env)

		resp := handlertest.Post(t, env, GetVideoSubmissions(), map[string]any{"region": "jp", "campaignId": "c1"})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		body := handlertest.Decode(t, resp)
		assert.Equal(t, "japan", body["region"])
		assert.EqualValues(t, 1, body["count"])
		sub := body["submissions"].([]any)[0].(map[string]any)
		assert.Equal(t, "v1", sub["id"])
		assert.NotContains(t, sub, "private_note")
	})

	t.Run("Several campaigns", func(t *testing.T) {
		env := handlertest.New(t)
		seed(env)

		resp := handlertest.Post(t, env, GetVideoSubmissions(), map[string]any{"region": "japan", "campaignIds": []string{"c2", "c3"}})

		assert.EqualValues(t, 2, handlertest.Decode(t, resp)["count"])
	})

	t.Run("Unknown region", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, GetVideoSubmissions(), map[string]any{"region": "mars", "campaignId": "c1"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid region: mars", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Unconfigured region", func(t *testing.T) {
		env := handlertest.New(t)
		env.Deps.Factory = memory.NewFactory(region.Biz)

		resp := handlertest.Post(t, env, GetVideoSubmissions(), map[string]any{"region": "us", "campaignId": "c1"})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("Needs a campaign", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, GetVideoSubmissions(), map[string]any{"region": "korea"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "campaignId or campaignIds required", handlertest.Decode(t, resp)["error"])
	})
}

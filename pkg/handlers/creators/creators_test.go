package creators

import (
	"context"
	"net/http"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/scoring"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manage(t *testing.T, env *handlertest.Env, method, id string, body any) handlers.Response {
	t.Helper()
	req := handlertest.Request(t, method, body)
	req.Headers["Authorization"] = handlertest.Token(t, "company-1")
	if id != "" {
		req.QueryStringParameters["id"] = id
	}
	return ManageAffiliatedCreators().Invoke(context.Background(), env.Deps, req)
}

func TestManageAffiliatedCreators(t *testing.T) {
	t.Run("Lists only the caller's creators", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(AffiliatedCreatorsTable,
			storage.Row{"id": "a1", "company_id": "company-1", "creator_name": "old", "created_at": "2024-01-01T00:00:00Z"},
			storage.Row{"id": "a2", "company_id": "company-1", "creator_name": "new", "created_at": "2024-03-01T00:00:00Z"},
			storage.Row{"id": "a3", "company_id": "company-2", "creator_name": "foreign", "created_at": "2024-02-01T00:00:00Z"},
		)

		// Act
		resp := manage(t, env, http.MethodGet, "", nil)

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		data := handlertest.Decode(t, resp)["data"].([]any)
		require.Len(t, data, 2)
		assert.Equal(t, "a2", data[0].(map[string]any)["id"])
		assert.Equal(t, "a1", data[1].(map[string]any)["id"])
	})

	t.Run("Adds a creator", func(t *testing.T) {
		env := handlertest.New(t)

		resp := manage(t, env, http.MethodPost, "", map[string]any{"creator_name": "Mina", "channel_url": "https://youtube.com/@mina"})

		require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
		rows := env.Store(region.Biz).Rows(AffiliatedCreatorsTable)
		require.Len(t, rows, 1)
		assert.Equal(t, "company-1", rows[0]["company_id"])
		assert.Equal(t, "youtube", rows[0]["platform"])
	})

	t.Run("Rejects a channel already registered", func(t *testing.T) {
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(AffiliatedCreatorsTable,
			storage.Row{"id": "a1", "company_id": "company-1", "channel_url": "https://youtube.com/@mina"})

		resp := manage(t, env, http.MethodPost, "", map[string]any{"creator_name": "Mina", "channel_url": "https://youtube.com/@mina"})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "이미 등록된 채널입니다.", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Requires name and channel", func(t *testing.T) {
		env := handlertest.New(t)

		resp := manage(t, env, http.MethodPost, "", map[string]any{"creator_name": "Mina"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "creator_name and channel_url are required", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Updates without touching ownership", func(t *testing.T) {
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(AffiliatedCreatorsTable,
			storage.Row{"id": "a1", "company_id": "company-1", "notes": ""})

		resp := manage(t, env, http.MethodPut, "a1", map[string]any{"notes": "top tier", "company_id": "company-2"})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		row := env.Store(region.Biz).Rows(AffiliatedCreatorsTable)[0]
		assert.Equal(t, "top tier", row["notes"])
		assert.Equal(t, "company-1", row["company_id"])
		assert.NotEmpty(t, row["updated_at"])
	})

	t.Run("Update of another company's creator", func(t *testing.T) {
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(AffiliatedCreatorsTable, storage.Row{"id": "a1", "company_id": "company-2"})

		resp := manage(t, env, http.MethodPut, "a1", map[string]any{"notes": "x"})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Deletes", func(t *testing.T) {
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(AffiliatedCreatorsTable,
			storage.Row{"id": "a1", "company_id": "company-1"},
			storage.Row{"id": "a2", "company_id": "company-1"})

		resp := manage(t, env, http.MethodDelete, "a1", nil)

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "Creator deleted successfully", handlertest.Decode(t, resp)["message"])
		assert.Len(t, env.Store(region.Biz).Rows(AffiliatedCreatorsTable), 1)
	})

	t.Run("Delete needs an id", func(t *testing.T) {
		env := handlertest.New(t)

		resp := manage(t, env, http.MethodDelete, "", nil)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "id parameter is required", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Requires a token", func(t *testing.T) {
		env := handlertest.New(t)

		resp := ManageAffiliatedCreators().Invoke(context.Background(), env.Deps, handlertest.Request(t, http.MethodGet, nil))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestFeaturedRow(t *testing.T) {
	c := &Candidate{
		ID:    "u1",
		Email: "mina@acme.test",
		Audience: scoring.Audience{
			InstagramFollowers: 50000,
			YouTubeSubscribers: 2000,
			EngagementRate:     0.05,
		},
	}

	row := FeaturedRow(c, "KR")

	assert.Equal(t, "mina@acme.test", row["name"])
	assert.Equal(t, []string{"KR"}, row["active_regions"])
	assert.Equal(t, scoring.Overall(c.Audience), row["overall_score"])
	assert.Equal(t, scoring.BadgeFor(scoring.Overall(c.Audience)), row["recommendation_badge"])
	assert.Equal(t, scoring.PlatformScores{YouTube: 2, Instagram: 50}, row["platform_scores"])
	assert.Equal(t, "manual", row["featured_type"])
}

func TestAddFeaturedCreator(t *testing.T) {
	candidate := map[string]any{
		"id":                  "u1",
		"name":                "Mina",
		"email":               "mina@acme.test",
		"instagram_followers": 20000,
		"engagement_rate":     0.1,
	}

	t.Run("Registers with scores", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)

		// Act
		resp := handlertest.Post(t, env, AddFeaturedCreator(), map[string]any{"creator": candidate, "sourceCountry": "JP"})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		body := handlertest.Decode(t, resp)
		assert.Equal(t, "추천 크리에이터로 등록되었습니다.", body["message"])
		rows := env.Store(region.Biz).Rows(FeaturedCreatorsTable)
		require.Len(t, rows, 1)
		assert.Equal(t, "u1", rows[0]["source_user_id"])
		assert.Equal(t, "JP", rows[0]["primary_country"])
		// reach 2 + engagement 10 + instagram 13
		assert.Equal(t, 25, rows[0]["overall_score"])
		assert.Equal(t, scoring.BadgeNormal, rows[0]["recommendation_badge"])
	})

	t.Run("Already featured", func(t *testing.T) {
		env := handlertest.New(t)
		store := env.Store(region.Biz)
		store.Unique[FeaturedCreatorsTable] = []string{"source_user_id"}
		store.Seed(FeaturedCreatorsTable, storage.Row{"id": "f1", "source_user_id": "u1"})

		resp := handlertest.Post(t, env, AddFeaturedCreator(), map[string]any{"creator": candidate, "sourceCountry": "JP"})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "이미 추천 크리에이터로 등록된 사용자입니다.", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Needs creator and country", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, AddFeaturedCreator(), map[string]any{"creator": candidate})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "크리에이터 정보와 국가 코드가 필요합니다.", handlertest.Decode(t, resp)["error"])
	})
}

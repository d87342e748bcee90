package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/github"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/stibee"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commits = `[
 {"sha":"abcdef1234567","html_url":"https://github.com/x/y/commit/abcdef1",
  "commit":{"message":"feat(admin): deposit export","author":{"name":"Dev","email":"dev@example.com","date":"2024-05-02T01:00:00Z"}}},
 {"sha":"1234567abcdef","html_url":"https://github.com/x/y/commit/1234567",
  "commit":{"message":"tidy up","author":{"name":"Dev","email":"dev@example.com","date":"2024-05-01T23:00:00Z"}}}
]`

func withGitHub(t *testing.T, env *handlertest.Env, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := github.New(config.GitHubConfig{Owner: "mktbiz-byte", Repo: "cnecbiz", BaseURL: srv.URL})
	c.HTTPClient = srv.Client()
	env.Deps.GitHub = c
}

func get(t *testing.T, env *handlertest.Env, query map[string]string) handlers.Response {
	t.Helper()
	req := handlertest.Request(t, http.MethodGet, nil)
	for k, v := range query {
		req.QueryStringParameters[k] = v
	}
	return FetchGitHubCommits().Invoke(context.Background(), env.Deps, req)
}

func TestFetchGitHubCommits(t *testing.T) {
	t.Run("Parses a page", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		withGitHub(t, env, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "2", r.URL.Query().Get("per_page"))
			assert.Equal(t, "2024-05-01", r.URL.Query().Get("since"))
			_, _ = w.Write([]byte(commits))
		})

		// Act
		resp := get(t, env, map[string]string{"page": "2", "per_page": "2", "since": "2024-05-01"})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		data := handlertest.Decode(t, resp)["data"].(map[string]any)
		assert.Len(t, data["commits"], 2)
		assert.Equal(t, map[string]any{"feat": 1.0, "other": 1.0}, data["typeStats"])
		assert.Contains(t, data["groupedByDate"], "2024-05-02")
		assert.Equal(t, true, data["pagination"].(map[string]any)["hasMore"])
	})

	t.Run("Defaults the page size", func(t *testing.T) {
		env := handlertest.New(t)
		withGitHub(t, env, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "50", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(commits))
		})

		resp := get(t, env, nil)

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, false, handlertest.Decode(t, resp)["data"].(map[string]any)["pagination"].(map[string]any)["hasMore"])
	})

	t.Run("Bad page", func(t *testing.T) {
		env := handlertest.New(t)

		resp := get(t, env, map[string]string{"page": "zero"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "page is invalid", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Upstream failure", func(t *testing.T) {
		env := handlertest.New(t)
		withGitHub(t, env, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		resp := get(t, env, nil)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func withStibee(t *testing.T, env *handlertest.Env, key string, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := stibee.New(config.StibeeConfig{APIKey: key, BaseURL: srv.URL})
	c.HTTPClient = srv.Client()
	c.Pause = 0
	env.Deps.Stibee = c
}

func reply(w http.ResponseWriter, value any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"Ok": true, "Value": value})
}

func TestStibeeAddressBook(t *testing.T) {
	t.Run("Lists address books", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		withStibee(t, env, "st-key", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/lists", r.URL.Path)
			reply(w, []map[string]any{{"id": 7, "name": "Creators", "subscriberCount": 3}})
		})

		// Act
		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "lists"})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		lists := handlertest.Decode(t, resp)["lists"].([]any)
		assert.Equal(t, map[string]any{"id": 7.0, "name": "Creators", "subscriberCount": 3.0}, lists[0])
	})

	t.Run("Key from the api_keys table", func(t *testing.T) {
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(APIKeysTable, storage.Row{"service_name": "stibee", "is_active": true, "api_key": "db-key"})
		withStibee(t, env, "", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "db-key", r.Header.Get("AccessToken"))
			reply(w, []map[string]any{})
		})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "lists"})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "", env.Deps.Stibee.APIKey)
	})

	t.Run("No key anywhere", func(t *testing.T) {
		env := handlertest.New(t)
		withStibee(t, env, "", func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected call")
		})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "lists"})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, missingStibeeKey, handlertest.Decode(t, resp)["error"])
	})

	t.Run("Adds subscribers", func(t *testing.T) {
		env := handlertest.New(t)
		withStibee(t, env, "st-key", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/lists/7/subscribers", r.URL.Path)
			reply(w, map[string]any{"success": []any{map[string]any{}}, "update": []any{map[string]any{}}})
		})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{
			"action":      "add_subscribers",
			"listId":      7,
			"subscribers": []map[string]string{{"email": "a@acme.test"}, {"email": "b@acme.test", "name": "B"}},
		})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "신규 1명, 업데이트 1명, 중복 0명", handlertest.Decode(t, resp)["message"])
	})

	t.Run("Gets subscribers", func(t *testing.T) {
		env := handlertest.New(t)
		withStibee(t, env, "st-key", func(w http.ResponseWriter, r *http.Request) {
			reply(w, []map[string]any{{"email": "a@acme.test", "name": "A"}})
		})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "get_subscribers", "listId": "7"})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.EqualValues(t, 1, handlertest.Decode(t, resp)["total"])
	})

	t.Run("Sends to a list", func(t *testing.T) {
		env := handlertest.New(t)
		withStibee(t, env, "st-key", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				reply(w, []map[string]any{{"email": "a@acme.test"}, {"email": "b@acme.test"}})
				return
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.EqualValues(t, 42, body["templateId"])
			if body["email"] == "b@acme.test" {
				_ = json.NewEncoder(w).Encode(map[string]any{"Ok": false, "Error": "blocked"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"Ok": true})
		})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "send_to_list", "listId": "7", "templateId": "42"})

		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "1명 발송 완료, 1명 실패", handlertest.Decode(t, resp)["message"])
	})

	t.Run("List id required", func(t *testing.T) {
		env := handlertest.New(t)
		withStibee(t, env, "st-key", func(w http.ResponseWriter, r *http.Request) {})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "get_subscribers"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "주소록 ID가 필요합니다.", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Unknown action", func(t *testing.T) {
		env := handlertest.New(t)
		withStibee(t, env, "st-key", func(w http.ResponseWriter, r *http.Request) {})

		resp := handlertest.Post(t, env, StibeeAddressBook(), map[string]any{"action": "purge"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Unknown action: purge", handlertest.Decode(t, resp)["error"])
	})
}

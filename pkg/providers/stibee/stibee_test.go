package stibee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(config.StibeeConfig{APIKey: "st-key", BaseURL: srv.URL})
	c.HTTPClient = srv.Client()
	c.Pause = 0
	return c
}

func TestLists(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "st-key", r.Header.Get("AccessToken"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var page []map[string]any
		if offset == 0 {
			for i := 0; i < PageSize; i++ {
				page = append(page, map[string]any{"id": i + 1, "name": fmt.Sprintf("list %d", i+1)})
			}
		} else {
			page = append(page, map[string]any{"listId": 999, "title": "legacy", "subscriber_count": 7})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Ok": true, "Value": page})
	})

	lists, err := c.Lists(context.Background())

	require.NoError(t, err)
	require.Len(t, lists, PageSize+1)
	assert.Equal(t, List{ID: 999, Name: "legacy", SubscriberCount: 7}, lists[PageSize])
}

func TestAddSubscribers(t *testing.T) {
	t.Run("Batches and aggregates", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			n := calls.Add(1)
			var body struct {
				Subscribers []Subscriber `json:"subscribers"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if n == 2 {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"message":"bad batch"}`))
				return
			}
			assert.LessOrEqual(t, len(body.Subscribers), PageSize)
			_, _ = w.Write([]byte(`{"Ok":true,"Value":{"success":[{},{}],"update":[{}],"failDuplicate":[]}}`))
		})
		subs := make([]Subscriber, 250)
		for i := range subs {
			subs[i] = Subscriber{Email: fmt.Sprintf("u%d@example.com", i)}
		}

		res, err := c.AddSubscribers(context.Background(), "42", subs)

		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
		assert.Equal(t, 4, res.Success)
		assert.Equal(t, 2, res.Update)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "Batch 2")
	})

	t.Run("Missing key", func(t *testing.T) {
		_, err := New(config.StibeeConfig{}).AddSubscribers(context.Background(), "1", []Subscriber{{Email: "a@example.com"}})

		assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	})
}

func TestSendToList(t *testing.T) {
	t.Run("Counts per recipient", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(`{"Value":[{"email":"a@example.com","name":"A"},{"email":"b@example.com"}]}`))
				return
			}
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(7), body["templateId"])
			if body["email"] == "b@example.com" {
				assert.Equal(t, "크리에이터", body["variables"].(map[string]any)["name"])
				_, _ = w.Write([]byte(`{"Ok":false,"Error":"template not found"}`))
				return
			}
			_, _ = w.Write([]byte(`{"Ok":true}`))
		})

		res, err := c.SendToList(context.Background(), "42", 7)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, []SendFailure{{Email: "b@example.com", Error: "template not found"}}, res.Errors)
	})

	t.Run("Empty list", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Value":[]}`))
		})

		_, err := c.SendToList(context.Background(), "42", 7)

		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})
}

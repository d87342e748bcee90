// Package creators manages the creators companies work with.
package creators

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

const (
	AffiliatedCreatorsTable = "affiliated_creators"
	FeaturedCreatorsTable   = "featured_creators"
)

// Register adds the creator functions to r.
func Register(r *handlers.Router) {
	r.Handle(ManageAffiliatedCreators())
	r.Handle(AddFeaturedCreator())
}

// immutableColumns are never taken from an update body.
var immutableColumns = []string{"id", "company_id", "created_at"}

type affiliatedCreator struct {
	CreatorName   string `json:"creator_name" validate:"required"`
	ChannelURL    string `json:"channel_url" validate:"required"`
	ChannelID     string `json:"channel_id"`
	YouTubeAPIKey string `json:"youtube_api_key"`
	UseAPI        bool   `json:"use_api"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Platform      string `json:"platform"`
	Notes         string `json:"notes"`
}

// ManageAffiliatedCreators lists, adds, edits and removes the caller's affiliated creators.
// Every operation is scoped to the company of the bearer token.
func ManageAffiliatedCreators() *handlers.Handler {
	return &handlers.Handler{
		Name:    "manage-affiliated-creators",
		Methods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		Auth:    true,
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			owner := call.Claims.Subject
			switch call.Request.HTTPMethod {
			case http.MethodGet:
				return listAffiliated(call, db, owner)
			case http.MethodPost:
				return addAffiliated(call, db, owner)
			case http.MethodPut:
				return updateAffiliated(call, db, owner)
			default:
				return deleteAffiliated(call, db, owner)
			}
		},
	}
}

func listAffiliated(call *handlers.Call, db storage.Querier, owner string) (*handlers.Reply, error) {
	rows, err := db.Select(call.Context(), AffiliatedCreatorsTable,
		storage.Select().Where(storage.Eq("company_id", owner)).OrderBy("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("failed to list affiliated creators: %w", err)
	}
	if rows == nil {
		rows = []storage.Row{}
	}
	return handlers.OK(handlers.M{"data": rows}), nil
}

func addAffiliated(call *handlers.Call, db storage.Querier, owner string) (*handlers.Reply, error) {
	var req affiliatedCreator
	if err := call.Bind(&req, "creator_name and channel_url are required"); err != nil {
		return nil, err
	}
	ctx := call.Context()

	existing, err := db.Select(ctx, AffiliatedCreatorsTable, storage.Select("id").Where(
		storage.Eq("company_id", owner),
		storage.Eq("channel_url", req.ChannelURL),
	).Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check channel: %w", err)
	}
	if len(existing) > 0 {
		return nil, apperr.Duplicate("이미 등록된 채널입니다.")
	}

	platform := req.Platform
	if platform == "" {
		platform = "youtube"
	}
	row, err := db.Insert(ctx, AffiliatedCreatorsTable, storage.Row{
		"company_id":      owner,
		"creator_name":    req.CreatorName,
		"channel_url":     req.ChannelURL,
		"channel_id":      req.ChannelID,
		"youtube_api_key": req.YouTubeAPIKey,
		"use_api":         req.UseAPI,
		"thumbnail_url":   req.ThumbnailURL,
		"platform":        platform,
		"notes":           req.Notes,
	})
	if apperr.HasCode(err, storage.UniqueViolation) {
		return nil, apperr.Duplicate("이미 등록된 채널입니다.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add affiliated creator: %w", err)
	}
	return handlers.Created(handlers.M{"success": true, "data": row}), nil
}

func updateAffiliated(call *handlers.Call, db storage.Querier, owner string) (*handlers.Reply, error) {
	id := call.Query("id")
	if id == "" {
		return nil, apperr.Validation("id parameter is required")
	}
	body, err := call.Body()
	if err != nil {
		return nil, err
	}
	patch := storage.Row{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &patch); err != nil {
			return nil, apperr.Validation(fmt.Sprintf("Invalid request body: %v", err))
		}
	}
	if patch == nil {
		patch = storage.Row{}
	}
	for _, col := range immutableColumns {
		delete(patch, col)
	}
	patch["updated_at"] = call.Now().UTC().Format(time.RFC3339)

	rows, err := db.Update(call.Context(), AffiliatedCreatorsTable, patch, storage.Eq("id", id), storage.Eq("company_id", owner))
	if apperr.HasCode(err, storage.UniqueViolation) {
		return nil, apperr.Duplicate("이미 등록된 채널입니다.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update affiliated creator %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("크리에이터를 찾을 수 없습니다.")
	}
	return handlers.OK(handlers.M{"data": rows[0]}), nil
}

func deleteAffiliated(call *handlers.Call, db storage.Querier, owner string) (*handlers.Reply, error) {
	id := call.Query("id")
	if id == "" {
		return nil, apperr.Validation("id parameter is required")
	}
	if err := db.Delete(call.Context(), AffiliatedCreatorsTable, storage.Eq("id", id), storage.Eq("company_id", owner)); err != nil {
		return nil, fmt.Errorf("failed to delete affiliated creator %s: %w", id, err)
	}
	return handlers.OK(handlers.M{"message": "Creator deleted successfully"}), nil
}

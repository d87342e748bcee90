package creators

import (
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/scoring"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// Candidate is a regional creator profile proposed for the featured list.
type Candidate struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ProfileImageURL string `json:"profile_image_url"`
	Bio             string `json:"bio"`
	InstagramHandle string `json:"instagram_handle"`
	TikTokHandle    string `json:"tiktok_handle"`
	YouTubeHandle   string `json:"youtube_handle"`
	Gender          string `json:"gender"`
	Age             *int   `json:"age"`
	Region          string `json:"region"`
	scoring.Audience
}

type featuredRequest struct {
	Creator       *Candidate `json:"creator" validate:"required"`
	SourceCountry string     `json:"sourceCountry" validate:"required"`
}

// FeaturedRow builds the featured_creators row of c, scored for its audience.
func FeaturedRow(c *Candidate, country string) storage.Row {
	score := scoring.Overall(c.Audience)
	name := c.Name
	if name == "" {
		name = c.Email
	}
	return storage.Row{
		"source_user_id":       c.ID,
		"source_country":       country,
		"name":                 name,
		"email":                c.Email,
		"phone":                c.Phone,
		"profile_image_url":    c.ProfileImageURL,
		"bio":                  c.Bio,
		"instagram_handle":     c.InstagramHandle,
		"instagram_followers":  c.InstagramFollowers,
		"tiktok_handle":        c.TikTokHandle,
		"tiktok_followers":     c.TikTokFollowers,
		"youtube_handle":       c.YouTubeHandle,
		"youtube_subscribers":  c.YouTubeSubscribers,
		"engagement_rate":      c.EngagementRate,
		"gender":               c.Gender,
		"age":                  c.Age,
		"region":               c.Region,
		"primary_country":      country,
		"active_regions":       []string{country},
		"overall_score":        score,
		"recommendation_badge": scoring.BadgeFor(score),
		"platform_scores":      scoring.Platforms(c.Audience),
		"featured_type":        "manual",
		"is_active":            true,
	}
}

// AddFeaturedCreator copies a regional creator into the shared featured list with computed scores.
func AddFeaturedCreator() *handlers.Handler {
	return &handlers.Handler{
		Name:    "add-featured-creator",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req featuredRequest
			if err := call.Bind(&req, "크리에이터 정보와 국가 코드가 필요합니다."); err != nil {
				return nil, err
			}

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			row, err := db.Insert(call.Context(), FeaturedCreatorsTable, FeaturedRow(req.Creator, req.SourceCountry))
			if apperr.HasCode(err, storage.UniqueViolation) {
				return nil, apperr.Duplicate("이미 추천 크리에이터로 등록된 사용자입니다.")
			}
			if err != nil {
				return nil, fmt.Errorf("failed to add featured creator: %w", err)
			}

			call.Log.Info("featured creator added",
				zap.String("source_user_id", req.Creator.ID),
				zap.String("source_country", req.SourceCountry))
			return handlers.OK(handlers.M{"data": row, "message": "추천 크리에이터로 등록되었습니다."}), nil
		},
	}
}

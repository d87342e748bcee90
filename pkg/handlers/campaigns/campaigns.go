// Package campaigns reads campaign progress across the regional databases.
package campaigns

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

const (
	ApplicationsTable     = "applications"
	VideoSubmissionsTable = "video_submissions"
)

// SelectedStatuses are the application states that count as selected.
var SelectedStatuses = []string{"selected", "virtual_selected", "approved", "filming", "video_submitted", "revision_requested", "completed"}

// Register adds the campaign functions to r.
func Register(r *handlers.Router) {
	r.Handle(GetApplicationStats())
	r.Handle(GetVideoSubmissions())
}

// Stats counts the applications of one campaign.
type Stats struct {
	Total          int `json:"total"`
	Selected       int `json:"selected"`
	GuideConfirmed int `json:"guideConfirmed"`
	Completed      int `json:"completed"`
}

type application struct {
	CampaignID     string `json:"campaign_id"`
	Status         string `json:"status"`
	GuideConfirmed bool   `json:"guide_confirmed"`
}

// tally adds apps to stats, keyed by campaign.
func tally(stats map[string]*Stats, apps []application) {
	for _, a := range apps {
		s, ok := stats[a.CampaignID]
		if !ok {
			s = &Stats{}
			stats[a.CampaignID] = s
		}
		s.Total++
		if slices.Contains(SelectedStatuses, a.Status) {
			s.Selected++
		}
		if a.Status == "completed" {
			s.Completed++
		}
		if a.GuideConfirmed {
			s.GuideConfirmed++
		}
	}
}

// RegionResult reports how one region contributed to the stats.
type RegionResult struct {
	Region region.Region `json:"region"`
	Count  int           `json:"count"`
	Error  string        `json:"error,omitempty"`
}

type statsRequest struct {
	CampaignsByRegion map[string][]string `json:"campaignsByRegion" validate:"required"`
}

// GetApplicationStats counts applications for the given campaigns in every region, since a
// campaign's applications may live in a different database than the campaign itself.
// A region that cannot be read is reported and skipped.
func GetApplicationStats() *handlers.Handler {
	return &handlers.Handler{
		Name:    "get-application-stats",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req statsRequest
			if err := call.Bind(&req, "campaignsByRegion is required"); err != nil {
				return nil, err
			}

			var ids []string
			for _, byRegion := range req.CampaignsByRegion {
				ids = append(ids, byRegion...)
			}

			stats := map[string]*Stats{}
			results := make([]RegionResult, 0, len(region.All))
			if len(ids) == 0 {
				return handlers.OK(handlers.M{"stats": stats, "debug": results}), nil
			}

			for _, r := range region.All {
				apps, err := applications(call, r, ids)
				res := RegionResult{Region: r, Count: len(apps)}
				if err != nil {
					call.Log.Warn("skipping region", zap.String("region", string(r)), zap.Error(err))
					res.Error = apperr.PublicMessage(err)
				}
				tally(stats, apps)
				results = append(results, res)
			}

			return handlers.OK(handlers.M{"stats": stats, "debug": results}), nil
		},
	}
}

func applications(call *handlers.Call, r region.Region, ids []string) ([]application, error) {
	db, err := call.Open(r)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Select(call.Context(), ApplicationsTable,
		storage.Select("campaign_id", "status", "guide_confirmed").Where(storage.InStrings("campaign_id", ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	var apps []application
	if err := storage.DecodeAll(rows, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

type submissionsRequest struct {
	Region      string   `json:"region" validate:"required"`
	CampaignID  string   `json:"campaignId"`
	CampaignIDs []string `json:"campaignIds"`
}

var submissionColumns = []string{"id", "campaign_id", "user_id", "status", "final_confirmed_at", "week_number", "video_number", "created_at"}

// GetVideoSubmissions lists the video submissions of one or more campaigns in a region.
func GetVideoSubmissions() *handlers.Handler {
	return &handlers.Handler{
		Name:    "get-video-submissions",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req submissionsRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}
			r, err := region.Parse(req.Region)
			if err != nil {
				return nil, err
			}

			var filter storage.Filter
			switch {
			case req.CampaignID != "":
				filter = storage.Eq("campaign_id", req.CampaignID)
			case len(req.CampaignIDs) > 0:
				filter = storage.InStrings("campaign_id", req.CampaignIDs)
			default:
				return nil, apperr.Validation("campaignId or campaignIds required")
			}

			db, err := call.Open(r)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			rows, err := db.Select(call.Context(), VideoSubmissionsTable, storage.Select(submissionColumns...).Where(filter))
			if err != nil {
				return nil, fmt.Errorf("failed to list video submissions: %w", err)
			}
			if rows == nil {
				rows = []storage.Row{}
			}
			return handlers.OK(handlers.M{"region": r, "count": len(rows), "submissions": rows}), nil
		},
	}
}

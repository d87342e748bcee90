package payments

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	CreatorsTable       = "creators"
	CreatorPointsTable  = "creator_points"
	SystemSettingsTable = "system_settings"
	NotificationsTable  = "notifications"

	// BonusRateSetting is the system setting holding the affiliated bonus percentage.
	BonusRateSetting = "affiliated_bonus_rate"
)

// DefaultBonusRate applies when the setting is absent or unreadable.
var DefaultBonusRate = decimal.NewFromInt(10)

type bonusRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	CreatorID  string `json:"creator_id" validate:"required"`
	BaseAmount int64  `json:"base_amount" validate:"required,gt=0"`
}

type creator struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	IsAffiliated bool   `json:"is_affiliated"`
	Points       int64  `json:"points"`
}

// Bonus returns base * rate% rounded half away from zero.
func Bonus(base int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(base).Mul(rate).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}

// AwardBonusPoints credits an affiliated creator with a percentage of the campaign reward.
// A creator is credited at most once per campaign.
func AwardBonusPoints() *handlers.Handler {
	return &handlers.Handler{
		Name:    "award-bonus-points",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req bonusRequest
			if err := call.Bind(&req, "필수 파라미터가 누락되었습니다."); err != nil {
				return nil, err
			}
			ctx := call.Context()

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			var c creator
			err = storage.Get(ctx, db, CreatorsTable, storage.Select().Where(storage.Eq("id", req.CreatorID)), &c)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.NotFound("크리에이터를 찾을 수 없습니다.")
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load creator %s: %w", req.CreatorID, err)
			}
			if !c.IsAffiliated {
				return handlers.OK(handlers.M{
					"message":       "소속 크리에이터가 아니므로 보너스 지급 대상이 아닙니다.",
					"bonus_awarded": false,
				}), nil
			}

			rate := bonusRate(call, db)
			amount := Bonus(req.BaseAmount, rate)

			existing, err := db.Select(ctx, CreatorPointsTable, storage.Select("id").Where(
				storage.Eq("creator_id", req.CreatorID),
				storage.Eq("campaign_id", req.CampaignID),
				storage.Eq("type", "bonus"),
			).Limit(1))
			if err != nil {
				return nil, fmt.Errorf("failed to check existing bonus for creator %s: %w", req.CreatorID, err)
			}
			if len(existing) > 0 {
				return handlers.OK(handlers.M{
					"message":       "이미 보너스가 지급되었습니다.",
					"bonus_awarded": false,
				}), nil
			}

			if _, err := db.Insert(ctx, CreatorPointsTable, storage.Row{
				"creator_id":  req.CreatorID,
				"campaign_id": req.CampaignID,
				"amount":      amount,
				"type":        "bonus",
				"description": fmt.Sprintf("소속 크리에이터 보너스 %s%% 지급", rate),
				"status":      "completed",
			}); err != nil {
				return nil, fmt.Errorf("failed to record bonus: %w", err)
			}

			total := c.Points + amount
			if _, err := db.Update(ctx, CreatorsTable, storage.Row{"points": total}, storage.Eq("id", req.CreatorID)); err != nil {
				return nil, fmt.Errorf("failed to update creator points: %w", err)
			}

			apperr.BestEffort(call.Log, "bonus notification", func() error {
				_, err := db.Insert(ctx, NotificationsTable, storage.Row{
					"user_id": c.UserID,
					"title":   "🎉 보너스 포인트 지급",
					"message": fmt.Sprintf("소속 크리에이터 보너스로 %sP가 지급되었습니다! (%s%%)", models.Won(amount), rate),
					"type":    "point",
					"is_read": false,
				})
				return err
			})

			return handlers.OK(handlers.M{
				"message":          "보너스 포인트가 지급되었습니다.",
				"bonus_awarded":    true,
				"bonus_amount":     amount,
				"bonus_rate":       rate.InexactFloat64(),
				"creator_name":     c.Name,
				"new_total_points": total,
			}), nil
		},
	}
}

func bonusRate(call *handlers.Call, db storage.Querier) decimal.Decimal {
	row, err := storage.First(call.Context(), db, SystemSettingsTable, storage.Select("setting_value").Where(storage.Eq("setting_key", BonusRateSetting)))
	if err != nil {
		call.Log.Warn("bonus rate unavailable, using default", zap.Error(err))
		return DefaultBonusRate
	}
	rate, err := decimal.NewFromString(fmt.Sprint(row["setting_value"]))
	if err != nil {
		call.Log.Warn("bonus rate is not a number, using default", zap.Any("setting_value", row["setting_value"]))
		return DefaultBonusRate
	}
	return rate
}

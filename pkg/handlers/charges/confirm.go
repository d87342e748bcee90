package charges

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/mapping"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/settlement"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

const financialRecordsTable = "financial_records"

type confirmChargeComplete struct {
	ChargeRequestID string `json:"chargeRequestId" validate:"required"`
	AdminNote       string `json:"adminNote"`
}

// ConfirmChargeComplete is the admin's final approval of a charge request.
func ConfirmChargeComplete() *handlers.Handler {
	return &handlers.Handler{
		Name:    "confirm-charge-complete",
		Methods: []string{http.MethodPost},
		Auth:    true,
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req confirmChargeComplete
			if err := call.Bind(&req, "충전 신청 ID가 필요합니다."); err != nil {
				return nil, err
			}

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			settler := settlement.New(db, call.Log, call.Now)
			charge, err := settler.Load(call.Context(), req.ChargeRequestID)
			if err != nil {
				return nil, err
			}

			patch := storage.Row{"completed_at": call.Now().UTC().Format(time.RFC3339)}
			if req.AdminNote != "" {
				patch["admin_note"] = req.AdminNote
			}
			out, err := settler.Settle(call.Context(), charge, models.ActionComplete, settlement.Options{Patch: patch})
			if err != nil {
				return nil, err
			}

			company := out.Company
			if company == nil {
				company, _ = settler.Company(call.Context(), charge.CompanyID)
			}
			notifyCharged(call, company, charge.Amount)

			call.Log.Info("charge request completed",
				zap.String("charge_request_id", charge.ID), zap.Bool("credited", out.Credited))
			return handlers.OK(handlers.M{"message": "포인트 충전이 완료되었습니다."}), nil
		},
	}
}

type manualMatchDeposit struct {
	RequestID   string               `json:"requestId" validate:"required"`
	Transaction *mapping.Transaction `json:"transaction" validate:"required"`
}

// ManualMatchDeposit pairs a bank deposit with a charge request chosen by an admin and credits
// the company.
func ManualMatchDeposit() *handlers.Handler {
	return &handlers.Handler{
		Name:    "manual-match-deposit",
		Methods: []string{http.MethodPost},
		Auth:    true,
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req manualMatchDeposit
			if err := call.Bind(&req, "필수 파라미터가 누락되었습니다."); err != nil {
				return nil, err
			}
			tx := mapping.ToDomainTransaction(*req.Transaction)

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			settler := settlement.New(db, call.Log, call.Now)
			charge, err := settler.Load(call.Context(), req.RequestID)
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.NotFound("충전 요청을 찾을 수 없습니다.")
			}
			if err != nil {
				return nil, err
			}

			now := call.Now().UTC()
			out, err := settler.Settle(call.Context(), charge, models.ActionManualMatch, settlement.Options{
				Patch: storage.Row{
					"confirmed_at":  now.Format(time.RFC3339),
					"confirmed_by":  "admin_manual",
					"deposit_date":  req.Transaction.TradeDate,
					"actual_amount": tx.Amount,
					"memo":          fmt.Sprintf("수동 매칭 - 거래일시: %s", req.Transaction.TradeDate),
				},
				Description: "계좌이체 입금 확인 (수동 매칭)",
			})
			if err != nil {
				return nil, err
			}

			markMatched(call, db, tx.TID, charge.ID)
			recordRevenue(call, db, charge, tx.TradeDate, now)
			notifyCharged(call, out.Company, charge.Amount)

			return handlers.OK(handlers.M{
				"message":   "입금이 확인되어 포인트가 충전되었습니다.",
				"newPoints": out.Balance,
			}), nil
		},
	}
}

func markMatched(call *handlers.Call, db storage.Querier, tid, requestID string) {
	if tid == "" {
		return
	}
	apperr.BestEffort(call.Log, "mark bank transaction matched", func() error {
		_, err := db.Update(call.Context(), "bank_transactions", storage.Row{
			"is_matched":        true,
			"charge_request_id": requestID,
			"matched_at":        call.Now().UTC().Format(time.RFC3339),
			"matched_by":        "manual",
		}, storage.Eq("tid", tid))
		return err
	})
}

func recordRevenue(call *handlers.Call, db storage.Querier, charge *models.ChargeRequest, tradeDate string, now time.Time) {
	recordDate := now.Format("2006-01-02")
	if len(tradeDate) >= 8 {
		if d, err := time.Parse("20060102", tradeDate[:8]); err == nil {
			recordDate = d.Format("2006-01-02")
		}
	}
	depositor := charge.DepositorName
	if depositor == "" {
		depositor = "미상"
	}
	apperr.BestEffort(call.Log, "financial record", func() error {
		_, err := db.Insert(call.Context(), financialRecordsTable, storage.Row{
			"record_date":   recordDate,
			"type":          "revenue",
			"category":      "point_charge",
			"amount":        charge.Amount,
			"description":   fmt.Sprintf("포인트 충전 - %s", depositor),
			"is_receivable": false,
		})
		return err
	})
}

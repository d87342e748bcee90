package banking

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/matching"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/settlement"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// RematchResult is the outcome for one stored deposit.
type RematchResult struct {
	TID       string `json:"tid"`
	Depositor string `json:"deposit"`
	Amount    int64  `json:"amount"`
	RequestID string `json:"requestId,omitempty"`
	Matched   bool   `json:"matched"`
	Error     string `json:"error,omitempty"`
}

// RematchUnmatchedDeposits runs the matching engine again over deposits stored without a
// request, completing and crediting every pending request it finds. Deposits whose match is
// already settled stay unmatched.
func RematchUnmatchedDeposits() *handlers.Handler {
	return &handlers.Handler{
		Name:    "rematch-unmatched-deposits",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			rows, err := db.Select(call.Context(), TransactionsTable, storage.Select().
				Where(storage.Eq("is_matched", false)).
				OrderBy("trade_date", true).
				Limit(matching.MaxBatch))
			if err != nil {
				return nil, fmt.Errorf("failed to list unmatched deposits: %w", err)
			}
			var txs []models.BankTransaction
			if err := storage.DecodeAll(rows, &txs); err != nil {
				return nil, err
			}
			if len(txs) == 0 {
				return handlers.OK(handlers.M{"message": "미매칭 입금 건 없음", "matched": 0, "results": []RematchResult{}}), nil
			}

			batch := call.Deps.Matcher(db).Match(call.Context(), txs)
			settler := settlement.New(db, call.Log, call.Now)

			results := make([]RematchResult, 0, len(batch.Results))
			matched := 0
			for _, r := range batch.Results {
				res := RematchResult{TID: r.Transaction.TID, Depositor: r.Transaction.Briefs, Amount: r.Transaction.Amount, Error: r.Error}
				if !r.IsMatched {
					results = append(results, res)
					continue
				}
				res.RequestID = r.MatchedRequest.ID
				if err := complete(call, db, settler, r); err != nil {
					call.Log.Warn("rematch failed", zap.String("tid", res.TID), zap.String("charge_request_id", res.RequestID), zap.Error(err))
					res.Error = err.Error()
				} else {
					res.Matched = true
					matched++
				}
				results = append(results, res)
			}

			return handlers.OK(handlers.M{
				"message": fmt.Sprintf("%d건 재매칭 완료", matched),
				"matched": matched,
				"results": results,
			}), nil
		},
	}
}

func complete(call *handlers.Call, db storage.Querier, settler *settlement.Settler, r matching.Result) error {
	ctx := call.Context()
	req, err := settler.LoadPayable(ctx, r.MatchedRequest.ID)
	if err != nil {
		return err
	}
	now := call.Now().UTC().Format(time.RFC3339)
	out, err := settler.Settle(ctx, req, models.ActionComplete, settlement.Options{
		Patch: storage.Row{
			"completed_at":  now,
			"deposit_date":  r.Transaction.TradeDate,
			"actual_amount": r.Transaction.Amount,
		},
	})
	if err != nil {
		return err
	}

	if _, err := db.Update(ctx, TransactionsTable, storage.Row{
		"is_matched":         true,
		"charge_request_id":  req.ID,
		"matched_request_id": req.ID,
		"matched_at":         now,
		"matched_by":         "manual_rematch",
	}, storage.Eq("tid", r.Transaction.TID)); err != nil {
		call.Log.Warn("failed to mark deposit matched", zap.String("tid", r.Transaction.TID), zap.Error(err))
	}

	if out.Company != nil {
		for _, n := range notify.ChargeComplete(call.Deps.Config.Business, *out.Company, req.Amount) {
			call.Deps.Notify(call, "rematch "+string(n.Channel), n)
		}
	}
	return nil
}

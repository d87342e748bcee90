// Package collector pulls recent deposits from the bank on a schedule, stores the new ones and
// settles the charge requests they pay for.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/matching"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/metrics"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/settlement"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

const (
	TransactionsTable = "bank_transactions"
	// Days is how far back each run looks.
	Days = 7
)

// Bank dates are Korean calendar days.
var kst = time.FixedZone("KST", 9*60*60)

// BankSource runs a collection job and returns the account lines it found.
type BankSource interface {
	Collect(ctx context.Context, req popbill.SearchRequest, interval time.Duration) ([]models.BankTransaction, error)
}

// Report summarizes one run.
type Report struct {
	Period  matching.Period `json:"period"`
	Total   int             `json:"totalTransactions"`
	Skipped int             `json:"skippedCount"`
	Saved   int             `json:"savedCount"`
	Matched int             `json:"matchedCount"`
	Failed  int             `json:"failedCount"`

	// Truncated is set when more new deposits arrived than one batch matches. The rest are
	// left unstored and picked up by the next run.
	Truncated bool `json:"truncated,omitempty"`
}

func (r Report) Message() string {
	return fmt.Sprintf("%d건 저장, %d건 자동 매칭", r.Saved, r.Matched)
}

// Collector stores and matches the deposits of the configured account.
type Collector struct {
	Bank     BankSource
	Factory  storage.Factory
	Mirror   storage.TransactionMirror
	Notifier notify.Dispatcher
	Popbill  config.PopbillConfig
	Business config.BusinessConfig
	Interval time.Duration
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (c *Collector) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Run collects the last Days of deposits. Lines already stored are skipped. A line that
// cannot be settled or stored is logged and the run moves on.
func (c *Collector) Run(ctx context.Context) (Report, error) {
	now := c.now()
	rep := Report{Period: matching.LastDays(now.In(kst), Days)}

	lines, err := c.Bank.Collect(ctx, popbill.SearchRequest{
		BankCode:      c.Popbill.BankCode,
		AccountNumber: c.Popbill.AccountNumber,
		StartDate:     rep.Period.Start,
		EndDate:       rep.Period.End,
	}, c.Interval)
	if err != nil {
		return rep, fmt.Errorf("failed to collect transactions: %w", err)
	}

	var deposits []models.BankTransaction
	for _, tx := range lines {
		if tx.IsDeposit() {
			deposits = append(deposits, tx)
		}
	}
	rep.Total = len(deposits)
	if rep.Total == 0 {
		return rep, nil
	}

	db, err := c.Factory.Open(ctx, region.Biz)
	if err != nil {
		return rep, err
	}
	defer db.Close()

	fresh := make([]models.BankTransaction, 0, len(deposits))
	for _, tx := range deposits {
		rows, err := db.Select(ctx, TransactionsTable, storage.Select("id").Where(storage.Eq("tid", tx.TID)).Limit(1))
		if err != nil {
			c.Log.Warn("failed to check stored transaction", zap.String("tid", tx.TID), zap.Error(err))
			rep.Failed++
			continue
		}
		if len(rows) > 0 {
			rep.Skipped++
			continue
		}
		fresh = append(fresh, tx)
	}

	batch := matching.New(db, c.Log, c.Metrics).Match(ctx, fresh)
	if batch.Truncated {
		rep.Truncated = true
		c.Log.Warn("deposits left for the next run",
			zap.Int("fresh", len(fresh)), zap.Int("processed", len(batch.Results)))
	}
	settler := settlement.New(db, c.Log, c.Now)

	for _, r := range batch.Results {
		tx := r.Transaction
		log := c.Log.With(zap.String("tid", tx.TID))

		var requestID string
		if r.IsMatched {
			id, err := c.settle(ctx, settler, r, now)
			if err != nil {
				log.Warn("auto match not applied", zap.String("charge_request_id", r.MatchedRequest.ID), zap.Error(err))
			}
			requestID = id
		}

		if _, err := db.Insert(ctx, TransactionsTable, Row(tx, requestID, now)); err != nil {
			log.Error("failed to store transaction", zap.Error(err))
			rep.Failed++
			continue
		}
		rep.Saved++
		if requestID != "" {
			rep.Matched++
		}

		if c.Mirror != nil {
			if _, err := c.Mirror.MirrorTransaction(ctx, tx); err != nil {
				log.Warn("bank transaction mirror failed", zap.Error(err))
			}
		}
	}

	c.Log.Info("transaction collection finished",
		zap.Int("total", rep.Total), zap.Int("saved", rep.Saved), zap.Int("matched", rep.Matched),
		zap.Int("skipped", rep.Skipped), zap.Int("failed", rep.Failed), zap.Bool("truncated", rep.Truncated))
	return rep, nil
}

// settle confirms the pending request matched by r, crediting its points. It returns the id to
// store on the transaction. A request that is no longer pending, for example one paid by an
// earlier deposit of the same batch, is not linked.
func (c *Collector) settle(ctx context.Context, settler *settlement.Settler, r matching.Result, now time.Time) (string, error) {
	req, err := settler.LoadPayable(ctx, r.MatchedRequest.ID)
	if err != nil {
		return "", err
	}

	out, err := settler.Settle(ctx, req, models.ActionConfirm, settlement.Options{
		Patch: storage.Row{
			"confirmed_at":  now.UTC().Format(time.RFC3339),
			"confirmed_by":  "system_auto",
			"deposit_date":  r.Transaction.TradeDate,
			"actual_amount": r.Transaction.Amount,
		},
		Description: "계좌이체 입금 확인 (자동 매칭)",
	})
	if err != nil {
		return "", err
	}

	if out.Company != nil && c.Notifier != nil {
		for _, n := range notify.ChargeComplete(c.Business, *out.Company, req.Amount) {
			if err := c.Notifier.Dispatch(ctx, n); err != nil {
				c.Log.Warn("best-effort side effect failed", zap.String("effect", "auto match "+string(n.Channel)), zap.Error(err))
			}
		}
	}
	return req.ID, nil
}

// Row is the bank_transactions row for tx, linked to requestID when it is not empty.
func Row(tx models.BankTransaction, requestID string, now time.Time) storage.Row {
	row := storage.Row{
		"tid":           tx.TID,
		"trade_date":    tx.TradeDate,
		"trade_time":    tx.TradeTime,
		"trade_type":    models.TradeDeposit,
		"trade_balance": tx.Amount,
		"after_balance": tx.Balance,
		"briefs":        tx.Briefs,
		"remark1":       tx.Remark1,
		"remark2":       tx.Remark2,
		"remark3":       tx.Remark3,
		"is_matched":    requestID != "",
	}
	if requestID != "" {
		row["charge_request_id"] = requestID
		row["matched_at"] = now.UTC().Format(time.RFC3339)
		row["matched_by"] = "auto"
	}
	return row
}

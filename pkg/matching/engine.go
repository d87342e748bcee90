// Package matching reconciles bank deposits against open points charge requests.
package matching

import (
	"context"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/metrics"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// MaxBatch bounds the number of transactions examined per call.
const MaxBatch = 500

const (
	chargeRequestsTable = "points_charge_requests"
	companiesTable      = "companies"
)

// MatchedRequest is the charge request a deposit was matched to.
type MatchedRequest struct {
	ID          string              `json:"id"`
	Amount      int64               `json:"amount"`
	CompanyName string              `json:"companyName"`
	Status      models.ChargeStatus `json:"status"`
	CompanyID   string              `json:"-"`
}

// Result is one transaction with its match annotation.
type Result struct {
	Transaction    models.BankTransaction `json:"transaction"`
	IsMatched      bool                   `json:"isMatched"`
	MatchedRequest *MatchedRequest        `json:"matchedRequest"`
	Error          string                 `json:"error,omitempty"`
}

// Stats summarizes a batch. TotalAmount sums every examined transaction.
type Stats struct {
	Total       int   `json:"total"`
	Matched     int   `json:"matched"`
	Unmatched   int   `json:"unmatched"`
	TotalAmount int64 `json:"totalAmount"`
}

// Batch is the outcome of matching a list of transactions.
type Batch struct {
	Results   []Result `json:"results"`
	Stats     Stats    `json:"stats"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Engine matches by exact depositor name and exact amount.
type Engine struct {
	DB      storage.Querier
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func New(db storage.Querier, log *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{DB: db, Log: log, Metrics: m}
}

// Match annotates every transaction in txs. A failing lookup marks only that transaction
// unmatched; the call itself never fails.
func (e *Engine) Match(ctx context.Context, txs []models.BankTransaction) Batch {
	batch := Batch{Results: make([]Result, 0, min(len(txs), MaxBatch))}
	if len(txs) > MaxBatch {
		e.Log.Warn("matching batch truncated", zap.Int("received", len(txs)), zap.Int("max", MaxBatch))
		txs = txs[:MaxBatch]
		batch.Truncated = true
	}

	for _, tx := range txs {
		res := e.MatchOne(ctx, tx)
		batch.Results = append(batch.Results, res)

		batch.Stats.Total++
		batch.Stats.TotalAmount += tx.Amount
		if res.IsMatched {
			batch.Stats.Matched++
		} else {
			batch.Stats.Unmatched++
		}
	}
	return batch
}

// MatchOne finds the most recent open charge request for one transaction.
func (e *Engine) MatchOne(ctx context.Context, tx models.BankTransaction) Result {
	res := Result{Transaction: tx}
	if !tx.IsDeposit() {
		e.Metrics.ObserveMatch("skipped")
		return res
	}

	req, err := e.lookup(ctx, tx)
	if err != nil {
		e.Log.Warn("charge request lookup failed",
			zap.String("tid", tx.TID), zap.Error(err))
		res.Error = err.Error()
		e.Metrics.ObserveMatch("error")
		return res
	}
	if req == nil {
		e.Metrics.ObserveMatch("unmatched")
		return res
	}

	res.IsMatched = true
	res.MatchedRequest = &MatchedRequest{
		ID:          req.ID,
		Amount:      req.Amount,
		CompanyName: e.companyName(ctx, req),
		Status:      req.Status,
		CompanyID:   req.CompanyID,
	}
	e.Metrics.ObserveMatch("matched")
	return res
}

func (e *Engine) lookup(ctx context.Context, tx models.BankTransaction) (*models.ChargeRequest, error) {
	statuses := make([]any, len(models.MatchableStatuses))
	for i, s := range models.MatchableStatuses {
		statuses[i] = string(s)
	}

	rows, err := e.DB.Select(ctx, chargeRequestsTable, storage.Select().
		Where(
			storage.Eq("depositor_name", tx.Briefs),
			storage.Eq("amount", tx.Amount),
			storage.In("status", statuses...),
		).
		OrderBy("created_at", true).
		Limit(1))
	if err != nil {
		return nil, err
	}

	var reqs []models.ChargeRequest
	if err := storage.DecodeAll(rows, &reqs); err != nil {
		return nil, err
	}

	var best *models.ChargeRequest
	for i := range reqs {
		r := &reqs[i]
		if r.DepositorName != tx.Briefs || r.Amount != tx.Amount || !r.Status.IsMatchable() {
			continue
		}
		if best == nil || r.CreatedAt.After(best.CreatedAt) {
			best = r
		}
	}
	return best, nil
}

func (e *Engine) companyName(ctx context.Context, req *models.ChargeRequest) string {
	var c models.Company
	err := storage.Get(ctx, e.DB, companiesTable,
		storage.Select("company_name").Where(storage.Eq("user_id", req.CompanyID)), &c)
	if err != nil || c.CompanyName == "" {
		return req.DepositorName
	}
	return c.CompanyName
}

// Period is a matching window expressed as provider dates (YYYYMMDD).
type Period struct {
	Start string `json:"startDate"`
	End   string `json:"endDate"`
}

// LastDays returns the window ending today covering the previous n days.
func LastDays(now time.Time, n int) Period {
	return Period{
		Start: now.AddDate(0, 0, -n).Format("20060102"),
		End:   now.Format("20060102"),
	}
}

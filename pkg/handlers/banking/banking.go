// Package banking exposes the company bank account: stored and live deposits, their export
// and their reconciliation against charge requests.
package banking

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/mapping"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/matching"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/settlement"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// TransactionsTable stores every collected bank line with its matching columns.
const TransactionsTable = "bank_transactions"

// DefaultDays is the window shown when no period is given.
const DefaultDays = 30

// Register adds the banking functions to r.
func Register(r *handlers.Router) {
	r.Handle(GetBankTransactions())
	r.Handle(PopbillCheckDeposit())
	r.Handle(ExportBankTransactions())
	r.Handle(RematchUnmatchedDeposits())
}

// storedTransaction is a bank_transactions row. Older rows reference their request through
// matched_request_id instead of charge_request_id.
type storedTransaction struct {
	models.BankTransaction
	MatchedRequestID *string `json:"matched_request_id,omitempty"`
}

func (s storedTransaction) requestID() string {
	if s.MatchedRequestID != nil && *s.MatchedRequestID != "" {
		return *s.MatchedRequestID
	}
	if s.ChargeRequestID != nil {
		return *s.ChargeRequestID
	}
	return ""
}

func period(call *handlers.Call) matching.Period {
	p := matching.LastDays(call.Now(), DefaultDays)
	if s := call.Query("startDate"); s != "" {
		p.Start = s
	}
	if e := call.Query("endDate"); e != "" {
		p.End = e
	}
	return p
}

func stats(views []mapping.Transaction) matching.Stats {
	s := matching.Stats{Total: len(views), TotalAmount: mapping.TotalAmount(views)}
	for _, v := range views {
		if v.IsMatched {
			s.Matched++
		} else {
			s.Unmatched++
		}
	}
	return s
}

// stored reads the transactions of p, newest first, with their matched requests resolved.
func stored(ctx context.Context, db storage.Querier, log *zap.Logger, p matching.Period) ([]mapping.Transaction, error) {
	rows, err := db.Select(ctx, TransactionsTable, storage.Select().
		Where(storage.Gte("trade_date", p.Start), storage.Lte("trade_date", p.End)).
		OrderBy("trade_date", true).
		OrderBy("trade_time", true))
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions: %w", err)
	}
	var txs []storedTransaction
	if err := storage.DecodeAll(rows, &txs); err != nil {
		return nil, err
	}

	views := make([]mapping.Transaction, 0, len(txs))
	for _, tx := range txs {
		var matched *matching.MatchedRequest
		if id := tx.requestID(); id != "" {
			matched = matchedRequest(ctx, db, log, id, tx.Briefs)
		}
		views = append(views, mapping.ToTransaction(tx.BankTransaction, matched))
	}
	return views, nil
}

func matchedRequest(ctx context.Context, db storage.Querier, log *zap.Logger, id, depositor string) *matching.MatchedRequest {
	var req models.ChargeRequest
	err := storage.Get(ctx, db, settlement.ChargeRequestsTable, storage.Select().Where(storage.Eq("id", id)), &req)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("matched request lookup failed", zap.String("charge_request_id", id), zap.Error(err))
		}
		return nil
	}

	name := ""
	var c models.Company
	if err := storage.Get(ctx, db, settlement.CompaniesTable,
		storage.Select("company_name").Where(storage.Eq("user_id", req.CompanyID)), &c); err == nil {
		name = c.CompanyName
	}
	if name == "" {
		name = req.DepositorName
	}
	if name == "" {
		name = depositor
	}
	if name == "" {
		name = "알 수 없음"
	}
	return &matching.MatchedRequest{ID: req.ID, Amount: req.Amount, CompanyName: name, Status: req.Status, CompanyID: req.CompanyID}
}

func searchRequest(call *handlers.Call, p matching.Period) popbill.SearchRequest {
	cfg := call.Deps.Config.Popbill
	return popbill.SearchRequest{BankCode: cfg.BankCode, AccountNumber: cfg.AccountNumber, StartDate: p.Start, EndDate: p.End}
}

// live collects the deposits of p from the bank, matches them and mirrors them for audit.
func live(call *handlers.Call, db storage.Querier, p matching.Period) ([]mapping.Transaction, matching.Batch, error) {
	txs, err := call.Deps.Popbill.Collect(call.Context(), searchRequest(call, p), popbill.CollectInterval)
	if err != nil {
		return nil, matching.Batch{}, err
	}
	batch := call.Deps.Matcher(db).Match(call.Context(), txs)

	views := make([]mapping.Transaction, 0, len(batch.Results))
	for _, r := range batch.Results {
		tx := r.Transaction
		if _, err := call.Deps.Mirror.MirrorTransaction(call.Context(), tx); err != nil {
			call.Log.Warn("bank transaction mirror failed", zap.String("tid", tx.TID), zap.Error(err))
		}
		views = append(views, mapping.FromResult(r))
	}
	return views, batch, nil
}

// GetBankTransactions lists the deposits of a period, from storage or live from the bank.
func GetBankTransactions() *handlers.Handler {
	return &handlers.Handler{
		Name:    "get-bank-transactions",
		Methods: []string{http.MethodGet},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			p := period(call)

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			if call.Query("source") == "popbill" {
				views, batch, err := live(call, db, p)
				if err != nil {
					return nil, err
				}
				body := handlers.M{"transactions": views, "stats": batch.Stats, "period": p}
				if batch.Truncated {
					body["truncated"] = true
				}
				return handlers.OK(body), nil
			}

			views, err := stored(call.Context(), db, call.Log, p)
			if err != nil {
				return nil, err
			}
			return handlers.OK(handlers.M{"transactions": views, "stats": stats(views), "period": p}), nil
		},
	}
}

type checkDepositRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
	StartDate     string `json:"startDate" validate:"required,len=8,numeric"`
	EndDate       string `json:"endDate" validate:"required,len=8,numeric"`
}

// PopbillCheckDeposit searches an account's deposits directly at the bank.
func PopbillCheckDeposit() *handlers.Handler {
	return &handlers.Handler{
		Name:    "popbill-check-deposit",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req checkDepositRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}
			deposits, err := call.Deps.Popbill.SearchAccount(call.Context(), popbill.SearchRequest{
				AccountNumber: req.AccountNumber,
				StartDate:     req.StartDate,
				EndDate:       req.EndDate,
			})
			if err != nil {
				return nil, err
			}
			return handlers.OK(handlers.M{"deposits": deposits}), nil
		},
	}
}

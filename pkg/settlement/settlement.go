// Package settlement moves points charge requests through their lifecycle and credits the
// owning company when a request becomes paid.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

const (
	ChargeRequestsTable    = "points_charge_requests"
	CompaniesTable         = "companies"
	PointTransactionsTable = "point_transactions"
)

// Options carries what a particular caller writes alongside the new status.
type Options struct {
	// Patch holds extra columns written together with the status.
	Patch storage.Row
	// Amount overrides the credited amount. Zero credits the requested amount.
	Amount int64
	// Description is stored on the point_transactions entry.
	Description string
}

// Outcome is the result of a settled transition.
type Outcome struct {
	Request  models.ChargeRequest
	Status   models.ChargeStatus
	Company  *models.Company
	Credited bool
	Balance  int64
}

// Settler applies transitions against one region's tables.
type Settler struct {
	DB  storage.Querier
	Log *zap.Logger
	Now func() time.Time
}

func New(db storage.Querier, log *zap.Logger, now func() time.Time) *Settler {
	if now == nil {
		now = time.Now
	}
	return &Settler{DB: db, Log: log, Now: now}
}

// Load returns the charge request with the given id.
func (s *Settler) Load(ctx context.Context, id string) (*models.ChargeRequest, error) {
	var req models.ChargeRequest
	err := storage.Get(ctx, s.DB, ChargeRequestsTable, storage.Select().Where(storage.Eq("id", id)), &req)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("충전 신청을 찾을 수 없습니다.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load charge request %s: %w", id, err)
	}
	return &req, nil
}

// LoadPayable returns the request with the given id when a bank deposit can still settle it:
// it is pending and paid by bank transfer. Anything else is a Conflict, and the deposit is left
// for an admin to review.
func (s *Settler) LoadPayable(ctx context.Context, id string) (*models.ChargeRequest, error) {
	req, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.ChargePending {
		return nil, apperr.Conflict(fmt.Sprintf("charge request %s is %s", req.ID, req.Status))
	}
	if req.PaymentMethod != "" && req.PaymentMethod != models.PaymentBankTransfer {
		return nil, apperr.Conflict(fmt.Sprintf("charge request %s is paid by %s", req.ID, req.PaymentMethod))
	}
	return req, nil
}

// Company returns the company owned by the auth user userID.
func (s *Settler) Company(ctx context.Context, userID string) (*models.Company, error) {
	var c models.Company
	err := storage.Get(ctx, s.DB, CompaniesTable, storage.Select().Where(storage.Eq("user_id", userID)), &c)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("회사 정보를 찾을 수 없습니다.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load company %s: %w", userID, err)
	}
	return &c, nil
}

// Settle moves req under action. The status write only applies while the row still has the
// status req was read with, so two concurrent settlements cannot both credit points.
func (s *Settler) Settle(ctx context.Context, req *models.ChargeRequest, action models.ChargeAction, opts Options) (*Outcome, error) {
	next, err := models.Transition(req.Status, action)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Request: *req, Status: next}
	credit := next.PointsCredited() && !req.Status.PointsCredited()

	if credit {
		if out.Company, err = s.Company(ctx, req.CompanyID); err != nil {
			return nil, err
		}
	}

	patch := storage.Row{}
	for k, v := range opts.Patch {
		patch[k] = v
	}
	patch["status"] = string(next)

	rows, err := s.DB.Update(ctx, ChargeRequestsTable, patch,
		storage.Eq("id", req.ID), storage.Eq("status", string(req.Status)))
	if err != nil {
		return nil, fmt.Errorf("failed to update charge request %s: %w", req.ID, err)
	}
	if len(rows) == 0 {
		return nil, s.raced(ctx, req, action)
	}

	if !credit {
		return out, nil
	}

	amount := opts.Amount
	if amount == 0 {
		amount = req.Amount
	}
	balance, err := s.Credit(ctx, out.Company, amount)
	if err != nil {
		s.Log.Error("points credit failed after status change",
			zap.String("charge_request_id", req.ID), zap.String("status", string(next)), zap.Error(err))
		s.revert(ctx, req, next)
		return nil, err
	}
	out.Credited = true
	out.Balance = balance

	description := opts.Description
	if description == "" {
		description = fmt.Sprintf("포인트 충전 - %s원", models.Won(amount))
	}
	s.Record(ctx, req.CompanyID, req.ID, amount, balance, description)
	return out, nil
}

// Credit adds amount to the points balance of c and returns the new balance.
func (s *Settler) Credit(ctx context.Context, c *models.Company, amount int64) (int64, error) {
	balance := c.PointsBalance + amount
	_, err := s.DB.Update(ctx, CompaniesTable, storage.Row{"points_balance": balance}, storage.Eq("user_id", c.UserID))
	if err != nil {
		return 0, apperr.Backend("", "포인트 지급 중 오류가 발생했습니다.", err)
	}
	c.PointsBalance = balance
	return balance, nil
}

// Record writes the point_transactions entry of a credit. A failure is logged only.
func (s *Settler) Record(ctx context.Context, companyID, requestID string, amount, balance int64, description string) {
	apperr.BestEffort(s.Log, "point transaction", func() error {
		_, err := s.DB.Insert(ctx, PointTransactionsTable, storage.Row{
			"company_id":        companyID,
			"amount":            amount,
			"type":              "charge",
			"description":       description,
			"balance_after":     balance,
			"charge_request_id": requestID,
			"created_at":        s.Now().UTC().Format(time.RFC3339),
		})
		return err
	})
}

// revert puts req back to the status it was read with after its credit failed, so the
// request stays open instead of looking paid. It only applies while the row still has next.
func (s *Settler) revert(ctx context.Context, req *models.ChargeRequest, next models.ChargeStatus) {
	rows, err := s.DB.Update(ctx, ChargeRequestsTable, storage.Row{"status": string(req.Status)},
		storage.Eq("id", req.ID), storage.Eq("status", string(next)))
	if err != nil || len(rows) == 0 {
		s.Log.Error("charge request left settled without credit",
			zap.String("charge_request_id", req.ID), zap.String("status", string(next)), zap.Error(err))
	}
}

// raced explains why a conditional status write touched nothing: the row moved on since it was read.
func (s *Settler) raced(ctx context.Context, req *models.ChargeRequest, action models.ChargeAction) error {
	current, err := s.Load(ctx, req.ID)
	if err != nil {
		return err
	}
	if _, err := models.Transition(current.Status, action); err != nil {
		return err
	}
	return apperr.Conflict("이미 처리된 충전 신청입니다.")
}

package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/memory"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)

func seeded(status string) *memory.Store {
	s := memory.NewStore(region.Biz)
	s.Seed(ChargeRequestsTable, storage.Row{"id": "r1", "company_id": "u1", "amount": 50000, "status": status, "created_at": "2024-05-01T10:00:00Z"})
	s.Seed(CompaniesTable, storage.Row{"id": "c1", "user_id": "u1", "company_name": "Acme", "points_balance": 1000})
	return s
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("Completing a pending request credits points", func(t *testing.T) {
		// Arrange
		s := seeded("pending")
		settler := New(s, zap.NewNop(), func() time.Time { return now })
		req, err := settler.Load(ctx, "r1")
		require.NoError(t, err)

		// Act
		out, err := settler.Settle(ctx, req, models.ActionComplete, Options{Patch: storage.Row{"admin_note": "ok"}})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.ChargeCompleted, out.Status)
		assert.True(t, out.Credited)
		assert.Equal(t, int64(51000), out.Balance)

		row := s.Rows(ChargeRequestsTable)[0]
		assert.Equal(t, "completed", row["status"])
		assert.Equal(t, "ok", row["admin_note"])
		assert.EqualValues(t, 51000, s.Rows(CompaniesTable)[0]["points_balance"])

		ledger := s.Rows(PointTransactionsTable)
		require.Len(t, ledger, 1)
		assert.Equal(t, "포인트 충전 - 50,000원", ledger[0]["description"])
		assert.EqualValues(t, 51000, ledger[0]["balance_after"])
	})

	t.Run("Completing a confirmed request does not credit twice", func(t *testing.T) {
		s := seeded("confirmed")
		settler := New(s, zap.NewNop(), nil)
		req, err := settler.Load(ctx, "r1")
		require.NoError(t, err)

		out, err := settler.Settle(ctx, req, models.ActionComplete, Options{})

		require.NoError(t, err)
		assert.False(t, out.Credited)
		assert.EqualValues(t, 1000, s.Rows(CompaniesTable)[0]["points_balance"])
		assert.Empty(t, s.Rows(PointTransactionsTable))
	})

	t.Run("Rejected transition writes nothing", func(t *testing.T) {
		s := seeded("cancelled")
		settler := New(s, zap.NewNop(), nil)
		req, err := settler.Load(ctx, "r1")
		require.NoError(t, err)

		_, err = settler.Settle(ctx, req, models.ActionCancel, Options{})

		assert.Equal(t, "이미 취소된 충전 신청입니다.", apperr.PublicMessage(err))
		assert.Equal(t, "cancelled", s.Rows(ChargeRequestsTable)[0]["status"])
	})

	t.Run("Missing company fails before the status changes", func(t *testing.T) {
		s := memory.NewStore(region.Biz)
		s.Seed(ChargeRequestsTable, storage.Row{"id": "r1", "company_id": "ghost", "amount": 50000, "status": "pending"})
		settler := New(s, zap.NewNop(), nil)
		req, err := settler.Load(ctx, "r1")
		require.NoError(t, err)

		_, err = settler.Settle(ctx, req, models.ActionComplete, Options{})

		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Equal(t, "pending", s.Rows(ChargeRequestsTable)[0]["status"])
	})

	t.Run("Unknown request", func(t *testing.T) {
		_, err := New(memory.NewStore(region.Biz), zap.NewNop(), nil).Load(ctx, "nope")

		assert.Equal(t, "충전 신청을 찾을 수 없습니다.", apperr.PublicMessage(err))
	})
}

func TestSettleLostRace(t *testing.T) {
	// Arrange
	q := new(mocks.Querier)
	q.On("Select", mock.Anything, CompaniesTable, mock.Anything).
		Return([]storage.Row{{"user_id": "u1", "points_balance": 0}}, nil).Once()
	q.On("Update", mock.Anything, ChargeRequestsTable, mock.Anything, mock.Anything, mock.Anything).
		Return([]storage.Row{}, nil).Once()
	q.On("Select", mock.Anything, ChargeRequestsTable, mock.Anything).
		Return([]storage.Row{{"id": "r1", "company_id": "u1", "amount": 50000, "status": "completed"}}, nil).Once()
	settler := New(q, zap.NewNop(), nil)
	req := &models.ChargeRequest{ID: "r1", CompanyID: "u1", Amount: 50000, Status: models.ChargePending}

	// Act
	_, err := settler.Settle(context.Background(), req, models.ActionComplete, Options{})

	// Assert
	assert.Equal(t, "이미 처리된 충전 신청입니다.", apperr.PublicMessage(err))
	q.AssertExpectations(t)
	q.AssertNotCalled(t, "Insert", mock.Anything, PointTransactionsTable, mock.Anything)
}

// creditFails rejects every points balance write.
type creditFails struct{ *memory.Store }

func (c creditFails) Update(ctx context.Context, table string, patch storage.Row, filters ...storage.Filter) ([]storage.Row, error) {
	if table == CompaniesTable {
		return nil, errors.New("deadlock detected")
	}
	return c.Store.Update(ctx, table, patch, filters...)
}

func TestSettleCreditFailure(t *testing.T) {
	// Arrange
	s := seeded("pending")
	settler := New(creditFails{s}, zap.NewNop(), func() time.Time { return now })
	req, err := settler.Load(context.Background(), "r1")
	require.NoError(t, err)

	// Act
	_, err = settler.Settle(context.Background(), req, models.ActionConfirm, Options{})

	// Assert
	assert.Equal(t, "포인트 지급 중 오류가 발생했습니다.", apperr.PublicMessage(err))
	assert.Equal(t, "pending", s.Rows(ChargeRequestsTable)[0]["status"])
	assert.EqualValues(t, 1000, s.Rows(CompaniesTable)[0]["points_balance"])
	assert.Empty(t, s.Rows(PointTransactionsTable))
}

func TestLoadPayable(t *testing.T) {
	ctx := context.Background()

	t.Run("Pending bank transfer", func(t *testing.T) {
		s := seeded("pending")

		req, err := New(s, zap.NewNop(), nil).LoadPayable(ctx, "r1")

		require.NoError(t, err)
		assert.Equal(t, "r1", req.ID)
	})

	t.Run("Already confirmed", func(t *testing.T) {
		s := seeded("confirmed")

		_, err := New(s, zap.NewNop(), nil).LoadPayable(ctx, "r1")

		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})

	t.Run("Paid by card", func(t *testing.T) {
		s := memory.NewStore(region.Biz)
		s.Seed(ChargeRequestsTable, storage.Row{"id": "r1", "status": "pending", "payment_method": "card"})

		_, err := New(s, zap.NewNop(), nil).LoadPayable(ctx, "r1")

		assert.True(t, apperr.Is(err, apperr.KindConflict))
	})
}

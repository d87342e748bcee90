// Package charges holds the points charge request functions of the biz region.
package charges

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/settlement"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// MinimumCharge is the smallest amount a company may request, in KRW.
const MinimumCharge = 10000

// Register adds the charge functions to r.
func Register(r *handlers.Router) {
	r.Handle(CreateChargeRequest())
	r.Handle(CancelChargeRequest())
	r.Handle(ConfirmChargeComplete())
	r.Handle(ManualMatchDeposit())
}

type createChargeRequest struct {
	CompanyID             string               `json:"companyId" validate:"required"`
	Amount                int64                `json:"amount" validate:"required"`
	PaymentMethod         models.PaymentMethod `json:"paymentMethod" validate:"required"`
	DepositorName         string               `json:"depositorName"`
	Quantity              int                  `json:"quantity"`
	PackageAmount         int64                `json:"packageAmount"`
	NeedsTaxInvoice       bool                 `json:"needsTaxInvoice"`
	TaxInvoiceInfo        map[string]any       `json:"taxInvoiceInfo"`
	StripePaymentIntentID string               `json:"stripePaymentIntentId"`
}

func (req *createChargeRequest) check() error {
	if !req.PaymentMethod.Valid() {
		return apperr.Validation("지원하지 않는 결제 방식입니다.")
	}
	if req.PaymentMethod == models.PaymentBankTransfer && req.DepositorName == "" {
		return apperr.Validation("입금자명을 입력해주세요.")
	}
	if req.Amount < MinimumCharge {
		return apperr.Validation(fmt.Sprintf("최소 충전 금액은 %s원입니다.", models.Won(MinimumCharge)))
	}
	return nil
}

// CreateChargeRequest records a company's intent to buy points. Stripe payments are already
// captured, so they are stored completed and credited at once.
func CreateChargeRequest() *handlers.Handler {
	return &handlers.Handler{
		Name:    "create-charge-request",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req createChargeRequest
			if err := call.Bind(&req, "필수 필드가 누락되었습니다."); err != nil {
				return nil, err
			}
			if err := req.check(); err != nil {
				return nil, err
			}

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			company, err := findCompany(call, db, req.CompanyID)
			if err != nil {
				return nil, err
			}

			quantity := req.Quantity
			if quantity == 0 {
				quantity = 1
			}
			packageAmount := req.PackageAmount
			if packageAmount == 0 {
				packageAmount = req.Amount
			}

			record := storage.Row{
				"company_id":        ownerID(company, req.CompanyID),
				"amount":            req.Amount,
				"quantity":          quantity,
				"package_amount":    packageAmount,
				"payment_method":    string(req.PaymentMethod),
				"depositor_name":    req.DepositorName,
				"needs_tax_invoice": req.NeedsTaxInvoice,
				"tax_invoice_info":  req.TaxInvoiceInfo,
				"status":            string(models.ChargePending),
				"created_at":        call.Now().UTC().Format(time.RFC3339),
			}
			if req.StripePaymentIntentID != "" {
				record["stripe_payment_intent_id"] = req.StripePaymentIntentID
			}

			created, err := db.Insert(call.Context(), settlement.ChargeRequestsTable, record)
			if err != nil {
				return nil, fmt.Errorf("failed to create charge request: %w", err)
			}

			if req.PaymentMethod == models.PaymentStripe {
				return completeStripe(call, db, created, req.Amount)
			}

			if req.PaymentMethod == models.PaymentBankTransfer {
				notifyDepositGuide(call, company, req.DepositorName, req.Amount)
			}
			return handlers.OK(handlers.M{
				"data":    created,
				"message": "계좌이체 신청이 완료되었습니다. 입금 확인 후 포인트가 충전됩니다.",
			}), nil
		},
	}
}

// completeStripe settles a card-paid request that was just stored as pending. When the credit
// fails the request stays pending for an admin to confirm.
func completeStripe(call *handlers.Call, db storage.Querier, created storage.Row, amount int64) (*handlers.Reply, error) {
	var cr models.ChargeRequest
	if err := storage.Decode(created, &cr); err != nil {
		return nil, err
	}
	settler := settlement.New(db, call.Log, call.Now)
	out, err := settler.Settle(call.Context(), &cr, models.ActionComplete, settlement.Options{
		Patch:       storage.Row{"completed_at": call.Now().UTC().Format(time.RFC3339)},
		Description: fmt.Sprintf("포인트 충전 (카드 결제) - %s원", models.Won(amount)),
	})
	if err != nil {
		return nil, err
	}
	created["status"] = string(out.Status)
	return handlers.OK(handlers.M{"data": created, "message": "포인트가 충전되었습니다."}), nil
}

// findCompany resolves the company a request names. Clients send either the owner's auth
// user id or the company row id.
func findCompany(call *handlers.Call, db storage.Querier, id string) (*models.Company, error) {
	for _, column := range []string{"user_id", "id"} {
		var c models.Company
		err := storage.Get(call.Context(), db, settlement.CompaniesTable,
			storage.Select("id", "user_id", "company_name", "email", "phone", "phone_number", "points_balance").
				Where(storage.Eq(column, id)), &c)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load company %s: %w", id, err)
		}
	}
	return nil, apperr.NotFound("회사 정보를 찾을 수 없습니다.")
}

func ownerID(c *models.Company, fallback string) string {
	if c.UserID != "" {
		return c.UserID
	}
	return fallback
}

func notifyDepositGuide(call *handlers.Call, c *models.Company, depositor string, amount int64) {
	for _, n := range notify.DepositGuide(call.Deps.Config.Business, *c, depositor, amount) {
		call.Deps.Notify(call, "deposit guide "+string(n.Channel), n)
	}
}

// notifyCharged tells the company its points arrived.
func notifyCharged(call *handlers.Call, c *models.Company, amount int64) {
	if c == nil {
		return
	}
	for _, n := range notify.ChargeComplete(call.Deps.Config.Business, *c, amount) {
		call.Deps.Notify(call, "charge complete "+string(n.Channel), n)
	}
}

type cancelChargeRequest struct {
	RequestID string `json:"requestId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
}

// CancelChargeRequest lets a company withdraw its own open request.
func CancelChargeRequest() *handlers.Handler {
	return &handlers.Handler{
		Name:    "cancel-charge-request",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req cancelChargeRequest
			if err := call.Bind(&req, "필수 파라미터가 누락되었습니다."); err != nil {
				return nil, err
			}

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			settler := settlement.New(db, call.Log, call.Now)
			charge, err := settler.Load(call.Context(), req.RequestID)
			if err != nil {
				return nil, err
			}
			if charge.CompanyID != req.UserID {
				call.Log.Warn("charge request owner mismatch",
					zap.String("charge_request_id", charge.ID), zap.String("owner", charge.CompanyID))
				return nil, apperr.Forbidden("본인의 충전 신청만 취소할 수 있습니다.")
			}

			if _, err := settler.Settle(call.Context(), charge, models.ActionCancel, settlement.Options{}); err != nil {
				return nil, err
			}
			call.Log.Info("charge request cancelled", zap.String("charge_request_id", charge.ID))
			return handlers.OK(handlers.M{"message": "충전 신청이 취소되었습니다."}), nil
		},
	}
}

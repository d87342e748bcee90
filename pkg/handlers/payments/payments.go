// Package payments confirms card payments and awards campaign bonus points.
package payments

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/toss"
)

// Register adds the payment functions to r.
func Register(r *handlers.Router) {
	r.Handle(ConfirmTossPayment())
	r.Handle(AwardBonusPoints())
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey" validate:"required"`
	OrderID    string `json:"orderId" validate:"required"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
}

// ConfirmTossPayment captures a card payment authorised in the browser. A rejection keeps
// the gateway's status and error code.
func ConfirmTossPayment() *handlers.Handler {
	return &handlers.Handler{
		Name:    "confirm-toss-payment",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req confirmRequest
			if err := call.Bind(&req, "필수 파라미터가 누락되었습니다."); err != nil {
				return nil, err
			}

			payment, err := call.Deps.Toss.Confirm(call.Context(), toss.Confirmation{
				PaymentKey: req.PaymentKey,
				OrderID:    req.OrderID,
				Amount:     req.Amount,
			})
			var appErr *apperr.Error
			if errors.As(err, &appErr) && appErr.Kind == apperr.KindBackend && appErr.Status != 0 {
				msg := appErr.Message
				if msg == "" {
					msg = "결제 승인에 실패했습니다."
				}
				return handlers.Fail(appErr.Status, msg, handlers.M{"code": appErr.Code}), nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to confirm toss payment %s: %w", req.OrderID, err)
			}
			return handlers.OK(handlers.M{"payment": payment}), nil
		},
	}
}

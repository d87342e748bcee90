// Package invoices issues tax documents for point purchases through Popbill.
package invoices

import (
	"net/http"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
)

// kst is the business day used for document dates.
var kst = time.FixedZone("KST", 9*60*60)

// Register adds the invoice functions to r.
func Register(r *handlers.Router) {
	r.Handle(IssueTaxInvoice())
	r.Handle(IssueCashbill())
}

func issuer(call *handlers.Call) popbill.Party {
	biz := call.Deps.Config.Business
	return popbill.Party{
		CorpNum:  call.Deps.Config.Popbill.CorpNum,
		CorpName: biz.CorpName,
		CEOName:  biz.CEOName,
		Addr:     biz.Address,
		Email:    biz.Email,
		TEL:      biz.TEL,
	}
}

func today(call *handlers.Call) string {
	return call.Now().In(kst).Format("20060102")
}

type taxInvoiceRequest struct {
	InvoiceData *popbill.Invoicee `json:"invoiceData" validate:"required"`
	Amount      int64             `json:"amount" validate:"required,gt=0"`
}

// IssueTaxInvoice issues a VAT tax invoice for a point purchase.
func IssueTaxInvoice() *handlers.Handler {
	return &handlers.Handler{
		Name:    "popbill-issue-taxinvoice",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req taxInvoiceRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}
			receipt, err := call.Deps.Popbill.IssueTaxInvoice(call.Context(), issuer(call), *req.InvoiceData, req.Amount, today(call))
			if err != nil {
				return nil, err
			}
			return handlers.OK(handlers.M{"data": receipt}), nil
		},
	}
}

type cashbillRequest struct {
	CashbillData *popbill.CashbillCustomer `json:"cashbillData" validate:"required"`
	Amount       int64                     `json:"amount" validate:"required,gt=0"`
}

// IssueCashbill issues an income-deduction cash receipt for a point purchase.
func IssueCashbill() *handlers.Handler {
	return &handlers.Handler{
		Name:    "popbill-issue-cashbill",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req cashbillRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}
			receipt, err := call.Deps.Popbill.IssueCashbill(call.Context(), issuer(call), *req.CashbillData, req.Amount, today(call))
			if err != nil {
				return nil, err
			}
			return handlers.OK(handlers.M{"data": receipt}), nil
		},
	}
}

package models

import (
	"time"
)

// ChargeStatus defines the possible states of a points charge request.
type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeConfirmed ChargeStatus = "confirmed"
	ChargeCompleted ChargeStatus = "completed"
	ChargeCancelled ChargeStatus = "cancelled"
)

// MatchableStatuses are the statuses a deposit can be matched against.
var MatchableStatuses = []ChargeStatus{ChargePending, ChargeConfirmed}

// IsMatchable reports whether a request in status s may be matched to a deposit.
func (s ChargeStatus) IsMatchable() bool {
	for _, m := range MatchableStatuses {
		if s == m {
			return true
		}
	}
	return false
}

// PointsCredited reports whether points were already added for a request in status s.
func (s ChargeStatus) PointsCredited() bool {
	return s == ChargeConfirmed || s == ChargeCompleted
}

// PaymentMethod is how a company pays for a charge.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
	PaymentStripe       PaymentMethod = "stripe"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentBankTransfer, PaymentCard, PaymentStripe:
		return true
	}
	return false
}

// ChargeRequest is a company's declared intent to deposit funds for points.
type ChargeRequest struct {
	ID              string        `json:"id"`
	CompanyID       string        `json:"company_id"`
	Amount          int64         `json:"amount"`
	Quantity        int           `json:"quantity,omitempty"`
	PackageAmount   int64         `json:"package_amount,omitempty"`
	PaymentMethod   PaymentMethod `json:"payment_method,omitempty"`
	DepositorName   string        `json:"depositor_name,omitempty"`
	NeedsTaxInvoice bool          `json:"needs_tax_invoice,omitempty"`
	Status          ChargeStatus  `json:"status"`
	ConfirmedAt     *time.Time    `json:"confirmed_at,omitempty"`
	ConfirmedBy     string        `json:"confirmed_by,omitempty"`
	DepositDate     string        `json:"deposit_date,omitempty"`
	ActualAmount    *int64        `json:"actual_amount,omitempty"`
	Memo            string        `json:"memo,omitempty"`
	AdminNote       string        `json:"admin_note,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Trade types reported by the bank provider.
const (
	TradeDeposit    = "I"
	TradeWithdrawal = "O"
)

// BankTransaction is one bank ledger line fetched from the banking provider.
// It is never mutated once fetched; the matching columns live beside it in storage.
type BankTransaction struct {
	TID       string `json:"tid" dynamodbav:"tid"`
	TradeDate string `json:"trade_date" dynamodbav:"trade_date"`
	TradeTime string `json:"trade_time,omitempty" dynamodbav:"trade_time,omitempty"`
	TradeType string `json:"trade_type" dynamodbav:"trade_type"`
	Amount    int64  `json:"trade_balance" dynamodbav:"trade_balance"`
	Balance   int64  `json:"after_balance" dynamodbav:"after_balance"`
	Briefs    string `json:"briefs" dynamodbav:"briefs"`
	Remark1   string `json:"remark1,omitempty" dynamodbav:"remark1,omitempty"`
	Remark2   string `json:"remark2,omitempty" dynamodbav:"remark2,omitempty"`
	Remark3   string `json:"remark3,omitempty" dynamodbav:"remark3,omitempty"`

	IsMatched       bool    `json:"is_matched" dynamodbav:"is_matched"`
	ChargeRequestID *string `json:"charge_request_id,omitempty" dynamodbav:"charge_request_id,omitempty"`
	MatchedBy       string  `json:"matched_by,omitempty" dynamodbav:"matched_by,omitempty"`
}

// IsDeposit reports whether the line is an incoming transfer.
func (t BankTransaction) IsDeposit() bool {
	switch t.TradeType {
	case TradeDeposit, "입금", "1":
		return true
	}
	return false
}

// Company is the subset of the companies table the handlers read and write.
// Charge requests reference a company through its owner's auth user id.
type Company struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	CompanyName   string `json:"company_name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	PointsBalance int64  `json:"points_balance"`
}

// ContactPhone returns whichever phone column is filled in.
func (c Company) ContactPhone() string {
	if c.Phone != "" {
		return c.Phone
	}
	return c.PhoneNumber
}

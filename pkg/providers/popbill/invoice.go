package popbill

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

var vatDivisor = decimal.RequireFromString("1.1")

// SplitVAT splits a VAT-inclusive total into supply cost and tax.
func SplitVAT(total int64) (supply, tax int64) {
	supply = decimal.NewFromInt(total).Div(vatDivisor).Floor().IntPart()
	return supply, total - supply
}

// Party identifies the issuing business on a document.
type Party struct {
	CorpNum  string
	CorpName string
	CEOName  string
	Addr     string
	Email    string
	TEL      string
}

// Invoicee is the receiving company of a tax invoice.
type Invoicee struct {
	BusinessNumber   string `json:"business_number"`
	CompanyName      string `json:"company_name" validate:"required"`
	Representative   string `json:"representative"`
	Address          string `json:"address"`
	Email            string `json:"email"`
	Contact          string `json:"contact"`
	Memo             string `json:"memo"`
	BusinessType     string `json:"business_type"`
	BusinessCategory string `json:"business_category"`
}

type taxInvoiceDetail struct {
	SerialNum  int    `json:"serialNum"`
	ItemName   string `json:"itemName"`
	Spec       string `json:"spec"`
	Qty        int    `json:"qty"`
	UnitCost   int64  `json:"unitCost"`
	SupplyCost int64  `json:"supplyCost"`
	Tax        int64  `json:"tax"`
	Remark     string `json:"remark"`
}

type taxInvoice struct {
	WriteDate       string `json:"writeDate"`
	ChargeDirection string `json:"chargeDirection"`
	PurposeType     string `json:"purposeType"`
	TaxType         string `json:"taxType"`

	InvoicerCorpNum  string `json:"invoicerCorpNum"`
	InvoicerCorpName string `json:"invoicerCorpName"`
	InvoicerCEOName  string `json:"invoicerCEOName"`
	InvoicerAddr     string `json:"invoicerAddr"`
	InvoicerEmail    string `json:"invoicerEmail"`

	InvoiceeCorpNum     string `json:"invoiceeCorpNum"`
	InvoiceeCorpName    string `json:"invoiceeCorpName"`
	InvoiceeCEOName     string `json:"invoiceeCEOName"`
	InvoiceeAddr        string `json:"invoiceeAddr"`
	InvoiceeEmail       string `json:"invoiceeEmail"`
	InvoiceeContactName string `json:"invoiceeContactName"`
	InvoiceeTEL         string `json:"invoiceeTEL"`

	SupplyCostTotal int64              `json:"supplyCostTotal"`
	TaxTotal        int64              `json:"taxTotal"`
	TotalAmount     int64              `json:"totalAmount"`
	DetailList      []taxInvoiceDetail `json:"detailList"`

	Remark1          string `json:"remark1"`
	BusinessType     string `json:"businessType"`
	BusinessCategory string `json:"businessCategory"`
}

const pointChargeItem = "포인트 충전"

// IssueTaxInvoice issues a VAT-inclusive tax invoice for amount written on writeDate (YYYYMMDD).
func (c *Client) IssueTaxInvoice(ctx context.Context, invoicer Party, invoicee Invoicee, amount int64, writeDate string) (json.RawMessage, error) {
	supply, tax := SplitVAT(amount)
	body := taxInvoice{
		WriteDate:       writeDate,
		ChargeDirection: "정과금",
		PurposeType:     "영수",
		TaxType:         "과세",

		InvoicerCorpNum:  invoicer.CorpNum,
		InvoicerCorpName: invoicer.CorpName,
		InvoicerCEOName:  invoicer.CEOName,
		InvoicerAddr:     invoicer.Addr,
		InvoicerEmail:    invoicer.Email,

		InvoiceeCorpNum:     strings.ReplaceAll(invoicee.BusinessNumber, "-", ""),
		InvoiceeCorpName:    invoicee.CompanyName,
		InvoiceeCEOName:     invoicee.Representative,
		InvoiceeAddr:        invoicee.Address,
		InvoiceeEmail:       invoicee.Email,
		InvoiceeContactName: invoicee.Representative,
		InvoiceeTEL:         invoicee.Contact,

		SupplyCostTotal: supply,
		TaxTotal:        tax,
		TotalAmount:     amount,
		DetailList: []taxInvoiceDetail{{
			SerialNum:  1,
			ItemName:   pointChargeItem,
			Qty:        1,
			UnitCost:   supply,
			SupplyCost: supply,
			Tax:        tax,
			Remark:     invoicee.Memo,
		}},

		Remark1:          invoicee.Memo,
		BusinessType:     invoicee.BusinessType,
		BusinessCategory: invoicee.BusinessCategory,
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/TaxInvoice/Issue", body, &out); err != nil {
		return nil, fmt.Errorf("failed to issue tax invoice: %w", err)
	}
	return out, nil
}

// CashbillCustomer is the receiver of a cash receipt.
type CashbillCustomer struct {
	IdentityNum  string `json:"identity_num" validate:"required"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email"`
	Memo         string `json:"memo"`
}

type cashbill struct {
	FranchiseCorpNum  string `json:"franchiseCorpNum"`
	FranchiseCorpName string `json:"franchiseCorpName"`
	FranchiseCEOName  string `json:"franchiseCEOName"`
	FranchiseAddr     string `json:"franchiseAddr"`
	FranchiseTEL      string `json:"franchiseTEL"`

	TradeDate  string `json:"tradeDate"`
	TradeUsage string `json:"tradeUsage"`
	TradeType  string `json:"tradeType"`

	IdentityNum  string `json:"identityNum"`
	CustomerName string `json:"customerName"`
	ItemName     string `json:"itemName"`

	SupplyCost  int64 `json:"supplyCost"`
	Tax         int64 `json:"tax"`
	TotalAmount int64 `json:"totalAmount"`

	Email  string `json:"email"`
	Remark string `json:"remark"`
}

// IssueCashbill issues an income-deduction cash receipt for amount.
func (c *Client) IssueCashbill(ctx context.Context, franchise Party, customer CashbillCustomer, amount int64, tradeDate string) (json.RawMessage, error) {
	body := cashbill{
		FranchiseCorpNum:  franchise.CorpNum,
		FranchiseCorpName: franchise.CorpName,
		FranchiseCEOName:  franchise.CEOName,
		FranchiseAddr:     franchise.Addr,
		FranchiseTEL:      franchise.TEL,

		TradeDate:  tradeDate,
		TradeUsage: "1",
		TradeType:  "승인거래",

		IdentityNum:  customer.IdentityNum,
		CustomerName: customer.CustomerName,
		ItemName:     pointChargeItem,

		SupplyCost:  amount,
		Tax:         0,
		TotalAmount: amount,

		Email:  customer.Email,
		Remark: customer.Memo,
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/Cashbill/Issue", body, &out); err != nil {
		return nil, fmt.Errorf("failed to issue cashbill: %w", err)
	}
	return out, nil
}

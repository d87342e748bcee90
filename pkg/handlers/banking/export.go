package banking

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/mapping"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of an exported workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const exportSheet = "입금내역"

var exportHeader = []any{"거래일시", "구분", "입금액", "잔액", "입금자명", "비고", "매칭여부", "충전요청ID", "회사명"}

// Workbook renders views as a single-sheet xlsx file.
func Workbook(views []mapping.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, v := range views {
		amount, _ := strconv.ParseInt(v.TradeBalance, 10, 64)
		balance, _ := strconv.ParseInt(v.Balance, 10, 64)
		matched, requestID, company := "미매칭", "", ""
		if v.IsMatched {
			matched = "매칭"
		}
		if v.MatchedRequest != nil {
			requestID, company = v.MatchedRequest.ID, v.MatchedRequest.CompanyName
		}
		row := []any{v.TradeDate, v.TradeType, amount, balance, v.Briefs, v.Remark1, matched, requestID, company}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportBankTransactions downloads the stored transactions of a period as a spreadsheet.
func ExportBankTransactions() *handlers.Handler {
	return &handlers.Handler{
		Name:    "export-bank-transactions",
		Methods: []string{http.MethodGet},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			p := period(call)

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			views, err := stored(call.Context(), db, call.Log, p)
			if err != nil {
				return nil, err
			}
			data, err := Workbook(views)
			if err != nil {
				return nil, err
			}
			return handlers.File(XLSXContentType, fmt.Sprintf("bank_transactions_%s_%s.xlsx", p.Start, p.End), data), nil
		},
	}
}

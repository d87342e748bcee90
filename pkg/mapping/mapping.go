package mapping

import (
	"strconv"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/matching"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
)

// Transaction is the admin console's view of a bank transaction. Amounts are decimal strings.
type Transaction struct {
	TID            string                   `json:"tid"`
	TradeDate      string                   `json:"tradeDate"`
	TradeType      string                   `json:"tradeType"`
	TradeBalance   string                   `json:"tradeBalance"`
	Balance        string                   `json:"balance"`
	Briefs         string                   `json:"briefs"`
	Remark1        string                   `json:"remark1"`
	Remark2        string                   `json:"remark2"`
	Remark3        string                   `json:"remark3"`
	IsMatched      bool                     `json:"isMatched"`
	MatchedRequest *matching.MatchedRequest `json:"matchedRequest"`
}

// ToTransaction converts a stored bank transaction to its console view.
// TradeDate joins the date and the time, e.g. 20240501093000.
func ToTransaction(tx models.BankTransaction, matched *matching.MatchedRequest) Transaction {
	return Transaction{
		TID:            tx.TID,
		TradeDate:      tx.TradeDate + tx.TradeTime,
		TradeType:      tx.TradeType,
		TradeBalance:   strconv.FormatInt(tx.Amount, 10),
		Balance:        strconv.FormatInt(tx.Balance, 10),
		Briefs:         tx.Briefs,
		Remark1:        tx.Remark1,
		Remark2:        tx.Remark2,
		Remark3:        tx.Remark3,
		IsMatched:      tx.IsMatched || matched != nil,
		MatchedRequest: matched,
	}
}

// FromResult converts a matching engine result to its console view.
func FromResult(r matching.Result) Transaction {
	return ToTransaction(r.Transaction, r.MatchedRequest)
}

// ToDomainTransaction converts a console view back to a bank transaction. Unparseable
// amounts become zero.
func ToDomainTransaction(v Transaction) models.BankTransaction {
	amount, _ := strconv.ParseInt(v.TradeBalance, 10, 64)
	balance, _ := strconv.ParseInt(v.Balance, 10, 64)
	date, tm := v.TradeDate, ""
	if len(date) > 8 {
		date, tm = v.TradeDate[:8], v.TradeDate[8:]
	}
	return models.BankTransaction{
		TID:       v.TID,
		TradeDate: date,
		TradeTime: tm,
		TradeType: v.TradeType,
		Amount:    amount,
		Balance:   balance,
		Briefs:    v.Briefs,
		Remark1:   v.Remark1,
		Remark2:   v.Remark2,
		Remark3:   v.Remark3,
		IsMatched: v.IsMatched,
	}
}

// TotalAmount sums the amounts of views.
func TotalAmount(views []Transaction) int64 {
	var sum int64
	for _, v := range views {
		n, _ := strconv.ParseInt(v.TradeBalance, 10, 64)
		sum += n
	}
	return sum
}

package popbill

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
)

// SearchRequest bounds an account search by YYYYMMDD dates.
type SearchRequest struct {
	BankCode      string
	AccountNumber string
	StartDate     string
	EndDate       string
}

// Deposit is one incoming transfer returned by SearchAccount.
type Deposit struct {
	TradeDate string `json:"tradeDate"`
	TradeTime string `json:"tradeTime"`
	Amount    int64  `json:"amount"`
	Balance   int64  `json:"balance"`
	Depositor string `json:"depositor"`
	Memo      string `json:"memo"`
}

type accountLine struct {
	TradeDate string `json:"TradeDate"`
	TradeTime string `json:"TradeTime"`
	TradeType string `json:"TradeType"`
	Amount    int64  `json:"Amount"`
	Balance   int64  `json:"Balance"`
	Briefs    string `json:"Briefs"`
	Remark    string `json:"Remark"`
}

// SearchAccount returns the deposits of an account between two dates, newest first.
func (c *Client) SearchAccount(ctx context.Context, req SearchRequest) ([]Deposit, error) {
	var resp struct {
		List []accountLine `json:"list"`
	}
	err := c.do(ctx, http.MethodPost, "/BankAccount/Search", map[string]string{
		"CorpNum":       c.CorpNum,
		"BankCode":      req.BankCode,
		"AccountNumber": req.AccountNumber,
		"SDate":         req.StartDate,
		"EDate":         req.EndDate,
		"Order":         "D",
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search account: %w", err)
	}

	deposits := make([]Deposit, 0, len(resp.List))
	for _, l := range resp.List {
		if l.TradeType != "입금" && l.TradeType != "1" {
			continue
		}
		deposits = append(deposits, Deposit{
			TradeDate: l.TradeDate,
			TradeTime: l.TradeTime,
			Amount:    l.Amount,
			Balance:   l.Balance,
			Depositor: l.Briefs,
			Memo:      l.Remark,
		})
	}
	return deposits, nil
}

// Job states reported by JobState.
const (
	JobWaiting   = 1
	JobRunning   = 2
	JobCompleted = 3
)

// RequestJob asks the provider to collect account lines for a period and returns the job id.
func (c *Client) RequestJob(ctx context.Context, req SearchRequest) (string, error) {
	q := url.Values{}
	q.Set("BankCode", req.BankCode)
	q.Set("AccountNumber", req.AccountNumber)
	q.Set("SDate", req.StartDate)
	q.Set("EDate", req.EndDate)

	var resp struct {
		JobID string `json:"jobID"`
	}
	if err := c.do(ctx, http.MethodPost, "/EasyFinBank/BankAccount?"+q.Encode(), nil, &resp); err != nil {
		return "", fmt.Errorf("failed to request collection job: %w", err)
	}
	if resp.JobID == "" {
		return "", apperr.Backend("", "popbill returned no job id", nil)
	}
	return resp.JobID, nil
}

// JobState returns the state of a collection job.
func (c *Client) JobState(ctx context.Context, jobID string) (int, error) {
	var resp struct {
		JobState int `json:"jobState"`
	}
	if err := c.do(ctx, http.MethodGet, "/EasyFinBank/"+url.PathEscape(jobID)+"/State", nil, &resp); err != nil {
		return 0, fmt.Errorf("failed to get job state: %w", err)
	}
	return resp.JobState, nil
}

// WaitForJob polls JobState until the job completes. It reports false when attempts run out.
func (c *Client) WaitForJob(ctx context.Context, jobID string, attempts int, interval time.Duration) (bool, error) {
	for i := 0; i < attempts; i++ {
		state, err := c.JobState(ctx, jobID)
		if err != nil {
			return false, err
		}
		if state == JobCompleted {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
	return false, nil
}

type jobLine struct {
	TID     string `json:"tid"`
	TrDate  string `json:"trdate"`
	TrDT    string `json:"trdt"`
	AccIn   string `json:"accIn"`
	Balance string `json:"balance"`
	Briefs  string `json:"briefs"`
	Remark1 string `json:"remark1"`
	Remark2 string `json:"remark2"`
	Remark3 string `json:"remark3"`
}

// SearchJob returns the deposits collected by a completed job, newest first.
func (c *Client) SearchJob(ctx context.Context, jobID string, perPage int) ([]models.BankTransaction, error) {
	q := url.Values{}
	q.Set("TradeType", models.TradeDeposit)
	q.Set("Page", "1")
	q.Set("PerPage", strconv.Itoa(perPage))
	q.Set("Order", "D")

	var resp struct {
		List []jobLine `json:"list"`
	}
	if err := c.do(ctx, http.MethodGet, "/EasyFinBank/"+url.PathEscape(jobID)+"?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to search job: %w", err)
	}

	txs := make([]models.BankTransaction, 0, len(resp.List))
	for _, l := range resp.List {
		txs = append(txs, l.transaction())
	}
	return txs, nil
}

func (l jobLine) transaction() models.BankTransaction {
	briefs := l.Briefs
	if briefs == "" {
		briefs = l.Remark2
	}
	if briefs == "" {
		briefs = l.Remark1
	}
	tradeTime := ""
	if len(l.TrDT) >= 14 {
		tradeTime = l.TrDT[8:14]
	}
	amount, _ := strconv.ParseInt(l.AccIn, 10, 64)
	balance, _ := strconv.ParseInt(l.Balance, 10, 64)

	return models.BankTransaction{
		TID:       l.TID,
		TradeDate: l.TrDate,
		TradeTime: tradeTime,
		TradeType: models.TradeDeposit,
		Amount:    amount,
		Balance:   balance,
		Briefs:    briefs,
		Remark1:   l.Remark1,
		Remark2:   l.Remark2,
		Remark3:   l.Remark3,
	}
}

// Collection polling limits.
const (
	CollectAttempts = 10
	CollectInterval = 2 * time.Second
	CollectPerPage  = 1000
)

// Collect runs a collection job for req and returns its deposits. A job that does not finish
// within the polling limits is a backend error.
func (c *Client) Collect(ctx context.Context, req SearchRequest, interval time.Duration) ([]models.BankTransaction, error) {
	jobID, err := c.RequestJob(ctx, req)
	if err != nil {
		return nil, err
	}
	done, err := c.WaitForJob(ctx, jobID, CollectAttempts, interval)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, apperr.Backend("", fmt.Sprintf("popbill collection job %s did not finish", jobID), nil)
	}
	return c.SearchJob(ctx, jobID, CollectPerPage)
}

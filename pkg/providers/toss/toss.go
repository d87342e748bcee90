// Package toss confirms card payments with the payment gateway.
package toss

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/httpjson"
)

type Client struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

func New(cfg config.TossConfig) *Client {
	return &Client{
		SecretKey:  cfg.SecretKey,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: httpjson.DefaultClient(),
	}
}

// Confirmation identifies a payment authorised in the browser.
type Confirmation struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Confirm captures the payment. A rejected confirmation keeps the gateway's status and code.
func (c *Client) Confirm(ctx context.Context, p Confirmation) (json.RawMessage, error) {
	if c.SecretKey == "" {
		return nil, apperr.Configuration("TOSS_SECRET_KEY")
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.SecretKey + ":"))

	var out json.RawMessage
	_, err := httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method:      http.MethodPost,
		URL:         c.BaseURL + "/v1/payments/confirm",
		Header:      http.Header{"Authorization": []string{"Basic " + auth}},
		JSON:        p,
		Provider:    "toss",
		RelayStatus: true,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	return out, nil
}

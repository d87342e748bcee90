// Package sms sends text messages through a messaging service.
package sms

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/httpjson"
)

type Client struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	BaseURL             string
	HTTPClient          *http.Client
}

func New(cfg config.SMSConfig) *Client {
	return &Client{
		AccountSID:          cfg.AccountSID,
		AuthToken:           cfg.AuthToken,
		MessagingServiceSID: cfg.MessagingServiceSID,
		BaseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient:          httpjson.DefaultClient(),
	}
}

// Result is the provider's acknowledgement of a queued message.
type Result struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

var errorMessages = map[string]string{
	"21211": "유효하지 않은 전화번호입니다.",
	"21408": "해당 국가로 발송할 수 없습니다.",
	"21610": "수신 거부된 번호입니다.",
	"21614": "휴대폰 번호가 아닙니다.",
}

// Send delivers body to an E.164 number.
func (c *Client) Send(ctx context.Context, to, body string) (*Result, error) {
	switch {
	case c.AccountSID == "":
		return nil, apperr.Configuration("SMS_ACCOUNT_SID")
	case c.AuthToken == "":
		return nil, apperr.Configuration("SMS_AUTH_TOKEN")
	case c.MessagingServiceSID == "":
		return nil, apperr.Configuration("SMS_MESSAGING_SERVICE_SID")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("MessagingServiceSid", c.MessagingServiceSID)
	form.Set("Body", body)

	auth := base64.StdEncoding.EncodeToString([]byte(c.AccountSID + ":" + c.AuthToken))

	var out Result
	_, err := httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method:      http.MethodPost,
		URL:         fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.BaseURL, url.PathEscape(c.AccountSID)),
		Header:      http.Header{"Authorization": []string{"Basic " + auth}},
		Body:        strings.NewReader(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
		Provider:    "sms",
	}, &out)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			if msg, ok := errorMessages[appErr.Code]; ok {
				appErr.Message = msg
			}
		}
		return nil, fmt.Errorf("failed to send sms: %w", err)
	}
	return &out, nil
}

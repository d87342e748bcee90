// Package popbill is the adapter for bank account search, document issuance and alimtalk.
package popbill

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/httpjson"
)

// Client signs every request with the link id and secret key.
type Client struct {
	LinkID     string
	SecretKey  string
	BaseURL    string
	CorpNum    string
	SenderNum  string
	HTTPClient *http.Client

	// Now is replaceable in tests.
	Now func() time.Time
}

func New(cfg config.PopbillConfig) *Client {
	return &Client{
		LinkID:     cfg.LinkID,
		SecretKey:  cfg.SecretKey,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		CorpNum:    cfg.CorpNum,
		SenderNum:  cfg.SenderNum,
		HTTPClient: httpjson.DefaultClient(),
		Now:        time.Now,
	}
}

// Sign returns the base64 HMAC-SHA256 of linkID followed by timestamp.
func Sign(linkID, secretKey, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(linkID + timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) headers() (http.Header, error) {
	if c.LinkID == "" {
		return nil, apperr.Configuration("POPBILL_LINK_ID")
	}
	if c.SecretKey == "" {
		return nil, apperr.Configuration("POPBILL_SECRET_KEY")
	}
	ts := strconv.FormatInt(c.Now().UnixMilli(), 10)
	return http.Header{
		"Authorization":  []string{"Bearer " + Sign(c.LinkID, c.SecretKey, ts)},
		"x-pb-linkid":    []string{c.LinkID},
		"x-pb-timestamp": []string{ts},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	h, err := c.headers()
	if err != nil {
		return err
	}
	_, err = httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method:   method,
		URL:      c.BaseURL + path,
		Header:   h,
		JSON:     body,
		Provider: "popbill",
	}, out)
	return err
}

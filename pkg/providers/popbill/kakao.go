package popbill

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
)

// Alimtalk is one template message.
type Alimtalk struct {
	ReceiverNum  string            `json:"receiverNum"`
	ReceiverName string            `json:"receiverName"`
	TemplateCode string            `json:"templateCode"`
	Variables    map[string]string `json:"variables,omitempty"`
}

func (a Alimtalk) message() map[string]string {
	m := make(map[string]string, len(a.Variables)+4)
	for k, v := range a.Variables {
		m[k] = v
	}
	m["rcv"] = a.ReceiverNum
	m["rcvnm"] = a.ReceiverName
	m["msg"] = ""
	m["tmplCode"] = a.TemplateCode
	return m
}

// SendAlimtalk sends a template message immediately and returns the receipt.
func (c *Client) SendAlimtalk(ctx context.Context, msg Alimtalk) (json.RawMessage, error) {
	if c.SenderNum == "" {
		return nil, apperr.Configuration("POPBILL_SENDER_NUM")
	}
	body := map[string]any{
		"corpNum":  c.CorpNum,
		"snd":      c.SenderNum,
		"tmplCode": msg.TemplateCode,
		"msgs":     []map[string]string{msg.message()},
	}

	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/KakaoTalk/ATS", body, &out); err != nil {
		return nil, fmt.Errorf("failed to send alimtalk: %w", err)
	}
	return out, nil
}

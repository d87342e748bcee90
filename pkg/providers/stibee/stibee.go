// Package stibee manages newsletter address books.
package stibee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/httpjson"
)

// PageSize is both the listing page size and the subscriber batch size the API accepts.
const PageSize = 100

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	// Pause is waited between consecutive write calls.
	Pause time.Duration
}

func New(cfg config.StibeeConfig) *Client {
	return &Client{
		APIKey:     cfg.APIKey,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: httpjson.DefaultClient(),
		Pause:      200 * time.Millisecond,
	}
}

// envelope is the wrapper around every response; older endpoints use a lowercase key.
type envelope[T any] struct {
	Ok        bool   `json:"Ok"`
	Error     any    `json:"Error"`
	Value     *T     `json:"Value"`
	LowerCase *T     `json:"value"`
	Message   string `json:"message"`
}

func (e envelope[T]) value() (T, bool) {
	if e.Value != nil {
		return *e.Value, true
	}
	if e.LowerCase != nil {
		return *e.LowerCase, true
	}
	var zero T
	return zero, false
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if c.APIKey == "" {
		return apperr.Configuration("STIBEE_API_KEY")
	}
	_, err := httpjson.Do(ctx, c.HTTPClient, httpjson.Request{
		Method:   method,
		URL:      c.BaseURL + path,
		Header:   http.Header{"AccessToken": []string{c.APIKey}},
		JSON:     body,
		Provider: "stibee",
	}, out)
	return err
}

func (c *Client) wait(ctx context.Context) error {
	if c.Pause <= 0 {
		return nil
	}
	t := time.NewTimer(c.Pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// List is an address book.
type List struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	SubscriberCount int64  `json:"subscriberCount"`
}

type rawList struct {
	ID                 int64  `json:"id"`
	ListID             int64  `json:"listId"`
	Name               string `json:"name"`
	Title              string `json:"title"`
	SubscriberCount    int64  `json:"subscriberCount"`
	SubscriberCountAlt int64  `json:"subscriber_count"`
}

func (r rawList) normalize() List {
	l := List{ID: r.ID, Name: r.Name, SubscriberCount: r.SubscriberCount}
	if l.ID == 0 {
		l.ID = r.ListID
	}
	if l.Name == "" {
		l.Name = r.Title
	}
	if l.Name == "" {
		l.Name = "이름 없음"
	}
	if l.SubscriberCount == 0 {
		l.SubscriberCount = r.SubscriberCountAlt
	}
	return l
}

// paged fetches every page of path.
func paged[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	for offset := 0; ; offset += PageSize {
		var env envelope[[]T]
		if err := c.call(ctx, http.MethodGet, fmt.Sprintf("%s?offset=%d&limit=%d", path, offset, PageSize), nil, &env); err != nil {
			return nil, err
		}
		page, _ := env.value()
		all = append(all, page...)
		if len(page) < PageSize {
			return all, nil
		}
	}
}

// Lists returns every address book.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	raws, err := paged[rawList](ctx, c, "/lists")
	if err != nil {
		return nil, fmt.Errorf("failed to list address books: %w", err)
	}
	out := make([]List, len(raws))
	for i, r := range raws {
		out[i] = r.normalize()
	}
	return out, nil
}

// Subscriber is one address book entry.
type Subscriber struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Subscribers returns every subscriber of listID.
func (c *Client) Subscribers(ctx context.Context, listID string) ([]Subscriber, error) {
	subs, err := paged[Subscriber](ctx, c, "/lists/"+listID+"/subscribers")
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subs, nil
}

// AddResult aggregates the outcome of every batch.
type AddResult struct {
	Success       int      `json:"success"`
	Update        int      `json:"update"`
	FailDuplicate int      `json:"failDuplicate"`
	FailUnknown   int      `json:"failUnknown"`
	Errors        []string `json:"errors"`
}

type addValue struct {
	Success       []json.RawMessage `json:"success"`
	Update        []json.RawMessage `json:"update"`
	FailDuplicate []json.RawMessage `json:"failDuplicate"`
	FailUnknown   []json.RawMessage `json:"failUnknown"`
}

// AddSubscribers adds subs to listID in batches of PageSize. A failing batch is recorded
// in the result and the remaining batches are still sent.
func (c *Client) AddSubscribers(ctx context.Context, listID string, subs []Subscriber) (AddResult, error) {
	res := AddResult{Errors: []string{}}
	for i := 0; i < len(subs); i += PageSize {
		batch := subs[i:min(i+PageSize, len(subs))]

		var env envelope[addValue]
		err := c.call(ctx, http.MethodPost, "/lists/"+listID+"/subscribers", map[string]any{
			"eventOccuredBy": "MANUAL",
			"confirmEmailYN": "N",
			"subscribers":    batch,
		}, &env)
		if err != nil {
			if apperr.Is(err, apperr.KindConfiguration) {
				return res, err
			}
			res.Errors = append(res.Errors, fmt.Sprintf("Batch %d: %s", i/PageSize+1, err))
			continue
		}

		v, _ := env.value()
		res.Success += len(v.Success)
		res.Update += len(v.Update)
		res.FailDuplicate += len(v.FailDuplicate)
		res.FailUnknown += len(v.FailUnknown)

		if i+PageSize < len(subs) {
			if err := c.wait(ctx); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// SendEmail sends a transactional template email to one recipient.
func (c *Client) SendEmail(ctx context.Context, templateID int64, to Subscriber, vars map[string]string) error {
	var env envelope[json.RawMessage]
	err := c.call(ctx, http.MethodPost, "/emails/send", map[string]any{
		"email":      to.Email,
		"name":       to.Name,
		"templateId": templateID,
		"variables":  vars,
	}, &env)
	if err != nil {
		return err
	}
	if !env.Ok {
		msg := env.Message
		if s, ok := env.Error.(string); ok && s != "" {
			msg = s
		}
		if msg == "" {
			msg = "Unknown error"
		}
		return apperr.Backend("", msg, nil)
	}
	return nil
}

// SendFailure is one recipient SendToList could not reach.
type SendFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// SendResult aggregates a list send.
type SendResult struct {
	Sent   int           `json:"sent"`
	Failed int           `json:"failed"`
	Errors []SendFailure `json:"errors"`
}

// SendToList emails templateID to every subscriber of listID, one call per subscriber.
func (c *Client) SendToList(ctx context.Context, listID string, templateID int64) (SendResult, error) {
	subs, err := c.Subscribers(ctx, listID)
	if err != nil {
		return SendResult{}, err
	}
	if len(subs) == 0 {
		return SendResult{}, apperr.Validation("주소록에 구독자가 없습니다.")
	}

	res := SendResult{Errors: []SendFailure{}}
	for _, s := range subs {
		name := s.Name
		if name == "" {
			name = "크리에이터"
		}
		if err := c.SendEmail(ctx, templateID, s, map[string]string{"name": name, "email": s.Email}); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, SendFailure{Email: s.Email, Error: apperr.PublicMessage(err)})
		} else {
			res.Sent++
		}
		if err := c.wait(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

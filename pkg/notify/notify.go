// Package notify delivers best-effort notifications, either inline or through a queue.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
)

// Channel is the medium a notification is delivered through.
type Channel string

const (
	ChannelAlimtalk Channel = "alimtalk"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
)

// SMS is a plain text message.
type SMS struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Email is an HTML message. It is sent from the account stored in email_settings.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notification is one message on one channel.
type Notification struct {
	ID       string            `json:"id"`
	Channel  Channel           `json:"channel"`
	Alimtalk *popbill.Alimtalk `json:"alimtalk,omitempty"`
	SMS      *SMS              `json:"sms,omitempty"`
	Email    *Email            `json:"email,omitempty"`
}

// NewAlimtalk builds a Kakao template notification.
func NewAlimtalk(msg popbill.Alimtalk) Notification {
	return Notification{ID: uuid.NewString(), Channel: ChannelAlimtalk, Alimtalk: &msg}
}

// NewSMS builds a text notification.
func NewSMS(to, body string) Notification {
	return Notification{ID: uuid.NewString(), Channel: ChannelSMS, SMS: &SMS{To: to, Body: body}}
}

// NewEmail builds an email notification.
func NewEmail(to, subject, html string) Notification {
	return Notification{ID: uuid.NewString(), Channel: ChannelEmail, Email: &Email{To: to, Subject: subject, HTML: html}}
}

// Dispatcher defines the interface for a component that hands a notification off for delivery.
type Dispatcher interface {
	// Dispatch delivers n or enqueues it for delivery.
	Dispatch(ctx context.Context, n Notification) error
}

// NoOp drops every notification.
type NoOp struct{}

func (NoOp) Dispatch(ctx context.Context, n Notification) error { return nil }

// Make sure we conform to the interface
var _ Dispatcher = NoOp{}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/phone"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/mail"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/sms"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

type AlimtalkSender interface {
	SendAlimtalk(ctx context.Context, msg popbill.Alimtalk) (json.RawMessage, error)
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) (*sms.Result, error)
}

type MailSender interface {
	Deliver(ctx context.Context, creds mail.Credentials, msg mail.Message) error
}

// CredentialSource returns the account outgoing email is sent from.
type CredentialSource interface {
	MailCredentials(ctx context.Context) (mail.Credentials, error)
}

// Sender delivers notifications through the providers.
type Sender struct {
	Alimtalk      AlimtalkSender
	SMS           SMSSender
	Mail          MailSender
	Credentials   CredentialSource
	DefaultRegion string
	Log           *zap.Logger
}

// Deliver sends n on its channel.
func (s *Sender) Deliver(ctx context.Context, n Notification) error {
	log := s.Log.With(zap.String("notification_id", n.ID), zap.String("channel", string(n.Channel)))

	switch {
	case n.Channel == ChannelAlimtalk && n.Alimtalk != nil:
		msg := *n.Alimtalk
		if num, err := phone.Domestic(msg.ReceiverNum, s.DefaultRegion); err == nil {
			msg.ReceiverNum = num
		}
		if _, err := s.Alimtalk.SendAlimtalk(ctx, msg); err != nil {
			return fmt.Errorf("failed to send alimtalk: %w", err)
		}
	case n.Channel == ChannelSMS && n.SMS != nil:
		to, err := phone.E164(n.SMS.To, s.DefaultRegion)
		if err != nil {
			return err
		}
		if _, err := s.SMS.Send(ctx, to, n.SMS.Body); err != nil {
			return fmt.Errorf("failed to send sms: %w", err)
		}
	case n.Channel == ChannelEmail && n.Email != nil:
		creds, err := s.Credentials.MailCredentials(ctx)
		if err != nil {
			return err
		}
		if err := s.Mail.Deliver(ctx, creds, mail.Message{To: n.Email.To, Subject: n.Email.Subject, HTML: n.Email.HTML}); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
	default:
		return apperr.Validation(fmt.Sprintf("notification %s has no %s payload", n.ID, n.Channel))
	}

	log.Info("notification delivered")
	return nil
}

// Inline delivers notifications synchronously, within the request that raised them.
type Inline struct {
	Sender *Sender
}

// Make sure we conform to the interface
var _ Dispatcher = (*Inline)(nil)

func (d *Inline) Dispatch(ctx context.Context, n Notification) error {
	return d.Sender.Deliver(ctx, n)
}

const emailSettingsTable = "email_settings"

type emailSettings struct {
	GmailEmail       string `json:"gmail_email"`
	GmailAppPassword string `json:"gmail_app_password"`
	SenderName       string `json:"sender_name"`
}

// StoredCredentials reads the sending account from the biz region's email_settings table.
type StoredCredentials struct {
	Factory storage.Factory
}

func (c StoredCredentials) MailCredentials(ctx context.Context) (mail.Credentials, error) {
	db, err := c.Factory.Open(ctx, region.Biz)
	if err != nil {
		return mail.Credentials{}, err
	}
	defer db.Close()

	var s emailSettings
	if err := storage.Get(ctx, db, emailSettingsTable, storage.Select("gmail_email", "gmail_app_password", "sender_name"), &s); err != nil {
		return mail.Credentials{}, fmt.Errorf("failed to load email settings: %w", err)
	}
	if s.GmailEmail == "" || s.GmailAppPassword == "" {
		return mail.Credentials{}, apperr.Configuration("email_settings.gmail_app_password")
	}
	return mail.Credentials{Email: s.GmailEmail, Password: s.GmailAppPassword, SenderName: s.SenderName}, nil
}

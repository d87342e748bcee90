// Package notifications sends operator-triggered alimtalk, SMS and template email messages.
package notifications

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/phone"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/mail"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"
)

const EmailTemplatesTable = "email_templates"

// Register adds the notification functions to r.
func Register(r *handlers.Router) {
	r.Handle(SendKakaoNotification())
	r.Handle(SendSMS())
	r.Handle(SendTemplateEmail())
}

type kakaoRequest struct {
	ReceiverNum  string            `json:"receiverNum" validate:"required"`
	ReceiverName string            `json:"receiverName" validate:"required"`
	TemplateCode string            `json:"templateCode" validate:"required"`
	Variables    map[string]string `json:"variables"`
}

// SendKakaoNotification sends one alimtalk template message.
func SendKakaoNotification() *handlers.Handler {
	return &handlers.Handler{
		Name:    "send-kakao-notification",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req kakaoRequest
			if err := call.Bind(&req, ""); err != nil {
				return handlers.Fail(http.StatusBadRequest, "Missing required parameters", handlers.M{
					"required": []string{"receiverNum", "receiverName", "templateCode"},
				}), nil
			}

			receiver := req.ReceiverNum
			if num, err := phone.Domestic(receiver, call.Deps.Config.SMS.DefaultRegion); err == nil {
				receiver = num
			}
			result, err := call.Deps.Popbill.SendAlimtalk(call.Context(), popbill.Alimtalk{
				ReceiverNum:  receiver,
				ReceiverName: req.ReceiverName,
				TemplateCode: req.TemplateCode,
				Variables:    req.Variables,
			})
			if err != nil {
				return nil, err
			}
			return handlers.OK(handlers.M{"result": result}), nil
		},
	}
}

type smsRequest struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SendSMS sends a text message. Numbers without a country code are read in the default region.
func SendSMS() *handlers.Handler {
	return &handlers.Handler{
		Name:    "send-sms",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req smsRequest
			if err := call.Bind(&req, "수신번호와 메시지가 필요합니다."); err != nil {
				return nil, err
			}
			to, err := phone.E164(req.To, call.Deps.Config.SMS.DefaultRegion)
			if err != nil {
				return nil, err
			}

			res, err := call.Deps.SMS.Send(call.Context(), to, req.Message)
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) && appErr.Kind == apperr.KindBackend && appErr.Code != "" {
					return handlers.Fail(http.StatusBadRequest, appErr.Message, handlers.M{"code": appErr.Code}), nil
				}
				return nil, err
			}
			call.Log.Info("sms sent", zap.String("sid", res.SID))
			return handlers.OK(handlers.M{"messageId": res.SID, "status": res.Status, "to": to}), nil
		},
	}
}

type templateEmailRequest struct {
	TemplateKey string            `json:"templateKey" validate:"required"`
	To          types.Email       `json:"to" validate:"required"`
	Variables   map[string]string `json:"variables"`
}

type emailTemplate struct {
	TemplateKey string `json:"template_key"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// SendTemplateEmail renders an active stored template and sends it from the configured account.
func SendTemplateEmail() *handlers.Handler {
	return &handlers.Handler{
		Name:    "send-template-email",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req templateEmailRequest
			if err := call.Bind(&req, "템플릿 키와 수신자 이메일이 필요합니다."); err != nil {
				return nil, err
			}
			ctx := call.Context()

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			var tmpl emailTemplate
			err = storage.Get(ctx, db, EmailTemplatesTable, storage.Select().Where(
				storage.Eq("template_key", req.TemplateKey),
				storage.Eq("is_active", true),
			), &tmpl)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.NotFound("템플릿을 찾을 수 없습니다.")
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load template %s: %w", req.TemplateKey, err)
			}

			creds, err := notify.StoredCredentials{Factory: call.Deps.Factory}.MailCredentials(ctx)
			if err != nil {
				call.Log.Error("email settings unavailable", zap.Error(err))
				return nil, apperr.Backend("", "이메일 설정을 불러올 수 없습니다.", err)
			}

			msg := mail.Message{
				To:      string(req.To),
				Subject: mail.Render(tmpl.Subject, req.Variables),
				HTML:    mail.Render(tmpl.Body, req.Variables),
			}
			if err := call.Deps.Mail.Deliver(ctx, creds, msg); err != nil {
				return nil, err
			}
			call.Log.Info("template email sent", zap.String("template_key", req.TemplateKey), zap.String("subject", msg.Subject))
			return handlers.OK(handlers.M{"message": "이메일이 성공적으로 발송되었습니다."}), nil
		},
	}
}

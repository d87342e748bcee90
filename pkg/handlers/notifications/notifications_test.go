package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/handlertest"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/mail"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/sms"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendKakaoNotification(t *testing.T) {
	t.Run("Sends the template with variables", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		var sent map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/KakaoTalk/ATS", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			_, _ = w.Write([]byte(`{"receiptNum":"R1"}`))
		}))
		t.Cleanup(srv.Close)
		env.Deps.Popbill = popbill.New(config.PopbillConfig{LinkID: "LINK", SecretKey: "c2VjcmV0", BaseURL: srv.URL, SenderNum: "18336025"})

		// Act
		resp := handlertest.Post(t, env, SendKakaoNotification(), map[string]any{
			"receiverNum":  "+82 10-1234-5678",
			"receiverName": "Kim",
			"templateCode": "025100000918",
			"variables":    map[string]string{"회사명": "Acme"},
		})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "R1", handlertest.Decode(t, resp)["result"].(map[string]any)["receiptNum"])
		msg := sent["msgs"].([]any)[0].(map[string]any)
		assert.Equal(t, "01012345678", msg["rcv"])
		assert.Equal(t, "Acme", msg["회사명"])
	})

	t.Run("Lists the required parameters", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, SendKakaoNotification(), map[string]any{"receiverNum": "01012345678"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := handlertest.Decode(t, resp)
		assert.Equal(t, "Missing required parameters", body["error"])
		assert.Equal(t, []any{"receiverNum", "receiverName", "templateCode"}, body["required"])
	})
}

func withSMS(t *testing.T, env *handlertest.Env, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	env.Deps.SMS = sms.New(config.SMSConfig{AccountSID: "AC1", AuthToken: "tok", MessagingServiceSID: "MG1", BaseURL: srv.URL})
}

func TestSendSMS(t *testing.T) {
	t.Run("Normalizes the receiver", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		withSMS(t, env, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "+821012345678", r.PostForm.Get("To"))
			assert.Equal(t, "MG1", r.PostForm.Get("MessagingServiceSid"))
			_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
		})

		// Act
		resp := handlertest.Post(t, env, SendSMS(), map[string]any{"to": "010-1234-5678", "message": "hello"})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		body := handlertest.Decode(t, resp)
		assert.Equal(t, "SM1", body["messageId"])
		assert.Equal(t, "queued", body["status"])
		assert.Equal(t, "+821012345678", body["to"])
	})

	t.Run("Provider error code is explained", func(t *testing.T) {
		env := handlertest.New(t)
		withSMS(t, env, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":21610,"message":"Attempt to send to unsubscribed recipient"}`))
		})

		resp := handlertest.Post(t, env, SendSMS(), map[string]any{"to": "01012345678", "message": "hello"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := handlertest.Decode(t, resp)
		assert.Equal(t, "수신 거부된 번호입니다.", body["error"])
		assert.Equal(t, "21610", body["code"])
	})

	t.Run("Invalid number", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, SendSMS(), map[string]any{"to": "12", "message": "hello"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing message", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, SendSMS(), map[string]any{"to": "01012345678"})

		assert.Equal(t, "수신번호와 메시지가 필요합니다.", handlertest.Decode(t, resp)["error"])
	})
}

type sentMail struct {
	from string
	to   []string
	raw  string
}

func withMailer(env *handlertest.Env, out *[]sentMail) {
	env.Deps.Mail = &mail.Mailer{Host: "smtp.test", Port: 587, Send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*out = append(*out, sentMail{from: from, to: to, raw: string(msg)})
		return nil
	}}
}

func TestSendTemplateEmail(t *testing.T) {
	seed := func(env *handlertest.Env) {
		s := env.Store(region.Biz)
		s.Seed(EmailTemplatesTable,
			storage.Row{"template_key": "signup_welcome", "subject": "{{company_name}}님 환영합니다", "body": "<p>{{company_name}}</p>", "is_active": true},
			storage.Row{"template_key": "retired", "subject": "old", "body": "old", "is_active": false},
		)
		s.Seed("email_settings", storage.Row{"gmail_email": "noreply@cnec.test", "gmail_app_password": "app-pass", "sender_name": "CNEC"})
	}

	t.Run("Renders and sends", func(t *testing.T) {
		// Arrange
		env := handlertest.New(t)
		seed(env)
		var sent []sentMail
		withMailer(env, &sent)

		// Act
		resp := handlertest.Post(t, env, SendTemplateEmail(), map[string]any{
			"templateKey": "signup_welcome",
			"to":          "ops@acme.test",
			"variables":   map[string]string{"company_name": "Acme"},
		})

		// Assert
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
		assert.Equal(t, "이메일이 성공적으로 발송되었습니다.", handlertest.Decode(t, resp)["message"])
		require.Len(t, sent, 1)
		assert.Equal(t, "noreply@cnec.test", sent[0].from)
		assert.Equal(t, []string{"ops@acme.test"}, sent[0].to)
		assert.Contains(t, sent[0].raw, "To: ops@acme.test")
	})

	t.Run("Inactive template", func(t *testing.T) {
		env := handlertest.New(t)
		seed(env)

		resp := handlertest.Post(t, env, SendTemplateEmail(), map[string]any{"templateKey": "retired", "to": "ops@acme.test"})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "템플릿을 찾을 수 없습니다.", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Missing email settings", func(t *testing.T) {
		env := handlertest.New(t)
		env.Store(region.Biz).Seed(EmailTemplatesTable, storage.Row{"template_key": "k", "subject": "s", "body": "b", "is_active": true})

		resp := handlertest.Post(t, env, SendTemplateEmail(), map[string]any{"templateKey": "k", "to": "ops@acme.test"})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "이메일 설정을 불러올 수 없습니다.", handlertest.Decode(t, resp)["error"])
	})

	t.Run("Malformed receiver", func(t *testing.T) {
		env := handlertest.New(t)

		resp := handlertest.Post(t, env, SendTemplateEmail(), map[string]any{"templateKey": "k", "to": "not-an-email"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "템플릿 키와 수신자 이메일이 필요합니다.", handlertest.Decode(t, resp)["error"])
	})
}

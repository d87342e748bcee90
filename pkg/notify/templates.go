package notify

import (
	"fmt"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/models"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
)

// DepositGuide tells a company where to send a bank transfer it just requested.
func DepositGuide(biz config.BusinessConfig, c models.Company, depositor string, amount int64) []Notification {
	var out []Notification
	if p := c.ContactPhone(); p != "" {
		out = append(out, NewAlimtalk(popbill.Alimtalk{
			ReceiverNum:  p,
			ReceiverName: c.CompanyName,
			TemplateCode: biz.KakaoChargeRequestTemplate,
			Variables: map[string]string{
				"회사명":  c.CompanyName,
				"캠페인명": "포인트 충전",
				"금액":   models.Won(amount),
			},
		}))
	}
	if c.Email != "" {
		html := fmt.Sprintf(`<h2>포인트 충전 입금 안내</h2>
<p><strong>%s</strong>님, 포인트 충전 신청이 접수되었습니다.</p>
<p><strong>입금 계좌:</strong> %s</p>
<p><strong>예금주:</strong> %s</p>
<p><strong>입금자명:</strong> %s</p>
<p><strong>입금 금액:</strong> %s원</p>
<p>입금 확인 후 포인트가 자동으로 충전됩니다.</p>
<p>문의: %s</p>`, c.CompanyName, biz.DepositAccount, biz.AccountHolder, depositor, models.Won(amount), biz.SupportPhone)
		out = append(out, NewEmail(c.Email, "[CNEC] 포인트 충전 입금 안내", html))
	}
	return out
}

// ChargeComplete tells a company its points were credited.
func ChargeComplete(biz config.BusinessConfig, c models.Company, amount int64) []Notification {
	var out []Notification
	if p := c.ContactPhone(); p != "" {
		out = append(out, NewAlimtalk(popbill.Alimtalk{
			ReceiverNum:  p,
			ReceiverName: c.CompanyName,
			TemplateCode: biz.KakaoChargeCompleteTemplate,
			Variables: map[string]string{
				"회사명": c.CompanyName,
				"포인트": models.Won(amount),
				"금액":  models.Won(amount),
			},
		}))
	}
	if c.Email != "" {
		html := fmt.Sprintf(`<h2>포인트 충전이 완료되었습니다</h2>
<p><strong>%s</strong>님의 포인트 충전이 완료되었습니다.</p>
<p><strong>충전 금액:</strong> %s원</p>
<p>충전된 포인트로 캠페인을 진행하실 수 있습니다.</p>
<p>문의: %s</p>`, c.CompanyName, models.Won(amount), biz.SupportPhone)
		out = append(out, NewEmail(c.Email, "[CNEC] 포인트 충전 완료", html))
	}
	return out
}

// Package content generates campaign keywords and newsletter artwork with the AI models.
package content

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/ai"
	"go.uber.org/zap"
)

// Register adds the content generation functions to r.
func Register(r *handlers.Router) {
	r.Handle(RecommendKeywords())
	r.Handle(GenerateNewsletterImage())
}

type VideoStyle struct {
	Duration string `json:"duration"`
	Tempo    string `json:"tempo"`
	Tone     string `json:"tone"`
}

// Recommendation is the short-form content guide suggested for a product.
type Recommendation struct {
	Keywords            []string   `json:"keywords"`
	HookingPoint        string     `json:"hooking_point"`
	CoreMessage         string     `json:"core_message"`
	RecommendedMissions []string   `json:"recommended_missions"`
	VideoStyle          VideoStyle `json:"video_style"`
}

const (
	CampaignOliveYoung = "oliveyoung"
	CampaignChallenge  = "4week_challenge"
	CampaignPlanned    = "planned"
)

var (
	typeKeywords = map[string][]string{
		CampaignOliveYoung: {"올영픽", "올리브영추천", "뷰티템"},
		CampaignChallenge:  {"4주챌린지", "변화일기", "꾸준히"},
		CampaignPlanned:    {"추천템", "인생템", "찐리뷰"},
	}
	typeMissions = map[string][]string{
		CampaignOliveYoung: {"store_visit", "before_after", "price_info"},
		CampaignChallenge:  {"before_after", "7day_review"},
		CampaignPlanned:    {"before_after", "closeup", "texture"},
	}
	nonWord = regexp.MustCompile(`[^\w\sㄱ-ㅎㅏ-ㅣ가-힣]`)
)

const maxKeywords = 8

// Defaults derives a recommendation from the product name when no model is available.
func Defaults(productName, brandName, campaignType string) Recommendation {
	var keywords []string
	for _, w := range strings.Fields(nonWord.ReplaceAllString(productName, " ")) {
		if utf8.RuneCountInString(w) > 1 {
			keywords = append(keywords, w)
		}
		if len(keywords) == 3 {
			break
		}
	}

	base, ok := typeKeywords[campaignType]
	if !ok {
		base = typeKeywords[CampaignPlanned]
	}
	keywords = append(keywords, base...)
	keywords = append(keywords, "솔직후기", "데일리")
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}

	missions, ok := typeMissions[campaignType]
	if !ok {
		missions = typeMissions[CampaignPlanned]
	}

	brand := brandName
	if brand == "" {
		brand = "이 제품"
	}

	return Recommendation{
		Keywords:            keywords,
		HookingPoint:        fmt.Sprintf("%s 써봤는데 진짜 대박이에요!", productName),
		CoreMessage:         fmt.Sprintf("%s의 놀라운 효과를 직접 경험해보세요", brand),
		RecommendedMissions: append([]string(nil), missions...),
		VideoStyle:          VideoStyle{Duration: "30s", Tempo: "normal", Tone: "bright"},
	}
}

func campaignLabel(campaignType string) string {
	switch campaignType {
	case CampaignOliveYoung:
		return "올영세일"
	case CampaignChallenge:
		return "4주 챌린지"
	}
	return "기획형 숏폼"
}

func orUnset(s string) string {
	if s == "" {
		return "미입력"
	}
	return s
}

func keywordPrompt(req keywordRequest) string {
	return fmt.Sprintf(`당신은 한국의 뷰티/라이프스타일 인플루언서 마케팅 전문가입니다.
다음 상품 정보를 바탕으로 숏폼 콘텐츠용 추천 키워드와 가이드 요소를 제안해주세요.

상품명: %s
브랜드: %s
상품 설명: %s
캠페인 유형: %s

다음 JSON 형식으로만 응답해주세요:
{"keywords":["키워드1","키워드2"],"hooking_point":"1초후킹예시","core_message":"핵심메시지","recommended_missions":["before_after","closeup"],"video_style":{"duration":"30s","tempo":"normal","tone":"bright"}}`,
		req.ProductName, orUnset(req.BrandName), orUnset(req.ProductDescription), campaignLabel(req.CampaignType))
}

type keywordRequest struct {
	ProductName        string `json:"product_name" validate:"required"`
	BrandName          string `json:"brand_name"`
	ProductDescription string `json:"product_description"`
	CampaignType       string `json:"campaign_type"`
}

// RecommendKeywords suggests keywords and a content guide for a product. Any model failure
// falls back to Defaults.
func RecommendKeywords() *handlers.Handler {
	return &handlers.Handler{
		Name:    "recommend-keywords",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req keywordRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}

			if rec, ok := suggest(call, req); ok {
				return handlers.OK(handlers.M{"data": rec}), nil
			}
			return handlers.OK(handlers.M{"data": Defaults(req.ProductName, req.BrandName, req.CampaignType)}), nil
		},
	}
}

func suggest(call *handlers.Call, req keywordRequest) (Recommendation, bool) {
	var rec Recommendation
	if !call.Deps.AI.HasAnthropic() {
		return rec, false
	}
	answer, err := call.Deps.AI.Complete(call.Context(), keywordPrompt(req), 1024)
	if err != nil {
		call.Log.Warn("keyword model failed, using defaults", zap.Error(err))
		return rec, false
	}
	block := ai.ExtractJSON(answer)
	if block == "" {
		call.Log.Warn("keyword model answered without JSON, using defaults")
		return rec, false
	}
	if err := json.Unmarshal([]byte(block), &rec); err != nil {
		call.Log.Warn("keyword model answered malformed JSON, using defaults", zap.Error(err))
		return rec, false
	}
	return rec, true
}

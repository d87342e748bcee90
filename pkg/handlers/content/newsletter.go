package content

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/ai"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"go.uber.org/zap"
)

const (
	NewsletterBucket = "newsletter-thumbnails"
	ThumbnailWidth   = 400

	maxContentRunes = 2000
)

type newsletterImageRequest struct {
	Content      string `json:"content"`
	CustomPrompt string `json:"customPrompt"`
	NewsletterID string `json:"newsletterId"`
}

func imagePromptRequest(req newsletterImageRequest) string {
	content := "일반적인 비즈니스/마케팅 뉴스레터"
	if req.Content != "" {
		content = truncate(req.Content, maxContentRunes)
	}
	custom := ""
	if req.CustomPrompt != "" {
		custom = "사용자 요청: " + req.CustomPrompt
	}
	return fmt.Sprintf(`다음 뉴스레터 콘텐츠를 분석하고, 이 내용과 어울리는 이미지를 생성하기 위한 영어 프롬프트를 작성해주세요.

콘텐츠:
%s

%s

요구사항:
- 프로페셔널하고 깔끔한 비즈니스 스타일
- 뉴스레터에 적합한 일러스트레이션 또는 사진 스타일
- 영어로 된 상세한 이미지 생성 프롬프트만 출력
- 50단어 이내

프롬프트:`, content, custom)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Thumbnail scales a PNG or JPEG down to width pixels, keeping the aspect ratio, and
// returns it as PNG.
func Thumbnail(data []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateNewsletterImage asks the text model for an image prompt that suits the newsletter,
// renders it with the image model and stores the original and a thumbnail.
func GenerateNewsletterImage() *handlers.Handler {
	return &handlers.Handler{
		Name:    "generate-newsletter-image",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req newsletterImageRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}
			if call.Deps.AI.GeminiKey == "" {
				return handlers.Fail(http.StatusInternalServerError, "Gemini API 키가 설정되지 않았습니다.", nil), nil
			}
			ctx := call.Context()

			prompt, err := call.Deps.AI.GenerateText(ctx, imagePromptRequest(req))
			if err != nil {
				return nil, err
			}
			call.Log.Info("image prompt generated", zap.String("prompt", prompt))

			img, err := call.Deps.AI.GenerateImage(ctx, prompt)
			if errors.Is(err, ai.ErrNoImage) {
				return handlers.Fail(http.StatusBadRequest, apperr.PublicMessage(err), handlers.M{"generatedPrompt": prompt}), nil
			}
			if err != nil {
				return nil, err
			}

			thumb, err := Thumbnail(img.Data, ThumbnailWidth)
			if err != nil {
				return nil, err
			}

			db, err := call.Open(region.Biz)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			id := req.NewsletterID
			if id == "" {
				id = "new"
			}
			fileName := fmt.Sprintf("ai_generated_%s_%d.png", id, call.Now().UnixMilli())
			thumbName := "thumb_" + fileName

			if err := db.Upload(ctx, NewsletterBucket, fileName, "image/png", img.Data); err != nil {
				return nil, apperr.Backend("", fmt.Sprintf("이미지 업로드 실패: %s", apperr.PublicMessage(err)), err)
			}
			if err := db.Upload(ctx, NewsletterBucket, thumbName, "image/png", thumb); err != nil {
				return nil, apperr.Backend("", fmt.Sprintf("이미지 업로드 실패: %s", apperr.PublicMessage(err)), err)
			}

			return handlers.OK(handlers.M{
				"imageUrl":        db.PublicURL(NewsletterBucket, fileName),
				"thumbnailUrl":    db.PublicURL(NewsletterBucket, thumbName),
				"generatedPrompt": prompt,
				"fileName":        fileName,
			}), nil
		},
	}
}

package devtools

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/stibee"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// APIKeysTable holds service keys registered from the admin console.
const APIKeysTable = "api_keys"

// Address book actions.
const (
	ActionLists          = "lists"
	ActionAddSubscribers = "add_subscribers"
	ActionGetSubscribers = "get_subscribers"
	ActionSendToList     = "send_to_list"
)

const missingStibeeKey = "STIBEE_API_KEY가 설정되지 않았습니다. 관리자 페이지 → 뉴스레터 쇼케이스에서 API 키를 등록해주세요."

type addressBookRequest struct {
	Action      string              `json:"action" validate:"required"`
	ListID      json.Number         `json:"listId"`
	Subscribers []stibee.Subscriber `json:"subscribers"`
	TemplateID  json.Number         `json:"templateId"`
}

// stibeeClient returns the configured client, or one keyed from the api_keys table when the
// environment carries no key.
func stibeeClient(call *handlers.Call) (*stibee.Client, error) {
	if call.Deps.Stibee.APIKey != "" {
		return call.Deps.Stibee, nil
	}

	db, err := call.Open(region.Biz)
	if err != nil {
		call.Log.Warn("api key lookup unavailable", zap.Error(err))
		return nil, apperr.Backend("", missingStibeeKey, err)
	}
	defer db.Close()

	var key struct {
		APIKey string `json:"api_key"`
	}
	err = storage.Get(call.Context(), db, APIKeysTable, storage.Select("api_key").Where(
		storage.Eq("service_name", "stibee"),
		storage.Eq("is_active", true),
	), &key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to load stibee key: %w", err)
	}
	if key.APIKey == "" {
		return nil, apperr.Backend("", missingStibeeKey, nil)
	}

	c := *call.Deps.Stibee
	c.APIKey = key.APIKey
	return &c, nil
}

// StibeeAddressBook lists address books and their subscribers, adds subscribers and
// mails a template to a whole list.
func StibeeAddressBook() *handlers.Handler {
	return &handlers.Handler{
		Name:    "stibee-address-book",
		Methods: []string{http.MethodPost},
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req addressBookRequest
			if err := call.Bind(&req, ""); err != nil {
				return nil, err
			}
			client, err := stibeeClient(call)
			if err != nil {
				return nil, err
			}
			ctx := call.Context()
			listID := req.ListID.String()

			needsList := req.Action == ActionAddSubscribers || req.Action == ActionGetSubscribers || req.Action == ActionSendToList
			if needsList && listID == "" {
				return nil, apperr.Validation("주소록 ID가 필요합니다.")
			}

			switch req.Action {
			case ActionLists:
				lists, err := client.Lists(ctx)
				if err != nil {
					return nil, err
				}
				return handlers.OK(handlers.M{"lists": lists}), nil

			case ActionAddSubscribers:
				if len(req.Subscribers) == 0 {
					return nil, apperr.Validation("추가할 구독자가 없습니다.")
				}
				call.Log.Info("adding subscribers", zap.String("list_id", listID), zap.Int("count", len(req.Subscribers)))
				res, err := client.AddSubscribers(ctx, listID, req.Subscribers)
				if err != nil {
					return nil, err
				}
				return handlers.OK(handlers.M{
					"results": res,
					"message": fmt.Sprintf("신규 %d명, 업데이트 %d명, 중복 %d명", res.Success, res.Update, res.FailDuplicate),
				}), nil

			case ActionGetSubscribers:
				subs, err := client.Subscribers(ctx, listID)
				if err != nil {
					return nil, err
				}
				if subs == nil {
					subs = []stibee.Subscriber{}
				}
				return handlers.OK(handlers.M{"subscribers": subs, "total": len(subs)}), nil

			case ActionSendToList:
				templateID, err := req.TemplateID.Int64()
				if err != nil {
					return nil, apperr.Validation("템플릿 ID가 필요합니다.")
				}
				res, err := client.SendToList(ctx, listID, templateID)
				if err != nil {
					return nil, err
				}
				call.Log.Info("template sent to list", zap.String("list_id", listID), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
				return handlers.OK(handlers.M{
					"results": res,
					"message": fmt.Sprintf("%d명 발송 완료, %d명 실패", res.Sent, res.Failed),
				}), nil
			}
			return nil, apperr.Validation(fmt.Sprintf("Unknown action: %s", req.Action))
		},
	}
}

// Package users holds administrative account operations.
package users

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

const (
	MinPasswordLength = 6
	// UsersPerPage is the page size used when scanning auth users.
	UsersPerPage = 1000
)

// Register adds the user functions to r.
func Register(r *handlers.Router) {
	r.Handle(AdminResetPassword())
}

// FindByEmail scans the auth user pages for email, ignoring case.
func FindByEmail(ctx context.Context, admin storage.AuthAdmin, email string) (*storage.AuthUser, error) {
	for page := 1; ; page++ {
		users, err := admin.ListUsers(ctx, page, UsersPerPage)
		if err != nil {
			return nil, apperr.Backend("", "사용자 조회 중 오류가 발생했습니다.", err)
		}
		for i := range users {
			if strings.EqualFold(users[i].Email, email) {
				return &users[i], nil
			}
		}
		if len(users) < UsersPerPage {
			return nil, apperr.NotFound("해당 이메일의 사용자를 찾을 수 없습니다.")
		}
	}
}

type resetRequest struct {
	Email       string `json:"email" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
	Region      string `json:"region"`
}

// AdminResetPassword sets a new password for the account registered under an email.
func AdminResetPassword() *handlers.Handler {
	return &handlers.Handler{
		Name:    "admin-reset-password",
		Methods: []string{http.MethodPost},
		Auth:    true,
		Endpoint: func(call *handlers.Call) (*handlers.Reply, error) {
			var req resetRequest
			if err := call.Bind(&req, "이메일과 새 비밀번호가 필요합니다."); err != nil {
				return nil, err
			}
			if utf8.RuneCountInString(req.NewPassword) < MinPasswordLength {
				return nil, apperr.Validation(fmt.Sprintf("비밀번호는 최소 %d자 이상이어야 합니다.", MinPasswordLength))
			}

			target := region.Biz
			if req.Region != "" {
				r, err := region.Parse(req.Region)
				if err != nil {
					return nil, err
				}
				target = r
			}

			db, err := call.Open(target)
			if err != nil {
				return nil, err
			}
			defer db.Close()

			user, err := FindByEmail(call.Context(), db, req.Email)
			if err != nil {
				return nil, err
			}
			if err := db.UpdateUserPassword(call.Context(), user.ID, req.NewPassword); err != nil {
				return nil, apperr.Backend("", "비밀번호 변경 중 오류가 발생했습니다.", err)
			}

			call.Log.Info("password reset by admin", zap.String("target_user_id", user.ID), zap.String("region", string(target)))
			return handlers.OK(handlers.M{"message": "비밀번호가 성공적으로 변경되었습니다."}), nil
		},
	}
}

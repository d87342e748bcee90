package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

type listUsersResponse struct {
	Users []storage.AuthUser `json:"users"`
}

func (c *Client) ListUsers(ctx context.Context, page, perPage int) ([]storage.AuthUser, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprint(page))
	params.Set("per_page", fmt.Sprint(perPage))

	var resp listUsersResponse
	if err := c.do(ctx, request{method: "GET", path: "/auth/v1/admin/users", query: params}, &resp); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return resp.Users, nil
}

func (c *Client) UpdateUserPassword(ctx context.Context, userID, password string) error {
	body, err := jsonBody(map[string]string{"password": password})
	if err != nil {
		return err
	}
	err = c.do(ctx, request{
		method:      "PUT",
		path:        "/auth/v1/admin/users/" + url.PathEscape(userID),
		body:        body,
		contentType: "application/json",
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

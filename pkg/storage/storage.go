package storage

//go:generate go run github.com/vektra/mockery/v2 --config ../../.mockery.yaml

import (
	"context"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
)

// Querier runs relational operations against one regional database.
type Querier interface {
	// Select returns the rows of table matching q.
	Select(ctx context.Context, table string, q Query) ([]Row, error)

	// Insert adds a record and returns the stored row.
	Insert(ctx context.Context, table string, record Row) (Row, error)

	// Update applies patch to every row matching filters and returns the updated rows.
	Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error)

	// Delete removes every row matching filters. At least one filter is required.
	Delete(ctx context.Context, table string, filters ...Filter) error
}

// AuthUser is an account of the regional authentication subsystem.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthAdmin exposes the administrative operations of the authentication subsystem.
type AuthAdmin interface {
	// ListUsers returns one page (1-based) of users.
	ListUsers(ctx context.Context, page, perPage int) ([]AuthUser, error)

	// UpdateUserPassword sets a new password for the user with the given id.
	UpdateUserPassword(ctx context.Context, userID, password string) error
}

// ObjectStore stores binary objects such as signatures and generated images.
type ObjectStore interface {
	// Upload writes data to bucket/path. An existing object is not overwritten.
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) error

	// PublicURL returns the public address of bucket/path.
	PublicURL(bucket, path string) string
}

// Client is a request-scoped handle bound to exactly one region.
type Client interface {
	Querier
	AuthAdmin
	ObjectStore

	// Region returns the region this handle is bound to.
	Region() region.Region

	// Close releases the resources held by the handle.
	Close() error
}

// Factory opens request-scoped clients.
type Factory interface {
	// Open returns a client for region r or a configuration error when r is not usable.
	Open(ctx context.Context, r region.Region) (Client, error)
}

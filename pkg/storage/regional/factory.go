// Package regional opens storage clients from the region registry.
package regional

import (
	"context"
	"net/http"
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/postgres"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/supabase"
	"go.uber.org/zap"
)

// Factory builds one client per call from the registry. Clients are never cached or shared
// between requests, and a region without credentials never falls back to another region.
type Factory struct {
	Registry   *region.Registry
	HTTPClient *http.Client
	Log        *zap.Logger

	// UseDSN routes table operations over a direct connection when the region has a DSN.
	UseDSN bool
}

// Make sure we conform to the interface
var _ storage.Factory = (*Factory)(nil)

func NewFactory(registry *region.Registry, log *zap.Logger) *Factory {
	return &Factory{
		Registry:   registry,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Log:        log,
	}
}

func (f *Factory) Open(ctx context.Context, r region.Region) (storage.Client, error) {
	cfg, err := f.Registry.Resolve(string(r))
	if err != nil {
		return nil, err
	}

	rest := supabase.New(cfg.Region, cfg.Endpoint, cfg.Credential, f.HTTPClient)
	if !f.UseDSN || cfg.DSN == "" {
		return rest, nil
	}

	db, err := postgres.Connect(cfg.DSN)
	if err != nil {
		f.Log.Warn("direct connection unavailable, using REST", zap.String("region", string(r)), zap.Error(err))
		return rest, nil
	}
	return &client{Client: rest, db: db}, nil
}

// client routes table operations to the direct connection and everything else to REST.
type client struct {
	*supabase.Client
	db *postgres.Querier
}

func (c *client) Select(ctx context.Context, table string, q storage.Query) ([]storage.Row, error) {
	return c.db.Select(ctx, table, q)
}

func (c *client) Insert(ctx context.Context, table string, record storage.Row) (storage.Row, error) {
	return c.db.Insert(ctx, table, record)
}

func (c *client) Update(ctx context.Context, table string, patch storage.Row, filters ...storage.Filter) ([]storage.Row, error) {
	return c.db.Update(ctx, table, patch, filters...)
}

func (c *client) Delete(ctx context.Context, table string, filters ...storage.Filter) error {
	return c.db.Delete(ctx, table, filters...)
}

func (c *client) Close() error {
	return c.db.Close()
}

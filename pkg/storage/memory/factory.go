package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
)

// Factory hands out the store of each region. Regions without a store fail like an
// unconfigured region would.
type Factory struct {
	mu     sync.Mutex
	stores map[region.Region]*Store
}

// NewFactory returns a factory with an empty store for each of regions.
func NewFactory(regions ...region.Region) *Factory {
	f := &Factory{stores: map[region.Region]*Store{}}
	for _, r := range regions {
		f.stores[r] = NewStore(r)
	}
	return f
}

var _ storage.Factory = (*Factory)(nil)

// Store returns the store of r, or nil.
func (f *Factory) Store(r region.Region) *Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stores[r]
}

func (f *Factory) Open(ctx context.Context, r region.Region) (storage.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.stores[r]
	if !ok {
		return nil, apperr.Configuration(fmt.Sprintf("region %q has no credentials", r))
	}
	return s, nil
}

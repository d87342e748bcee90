package region

import (
	"fmt"
	"strings"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
)

// Region identifies an isolated regional deployment with its own database.
type Region string

const (
	Korea  Region = "korea"
	Japan  Region = "japan"
	US     Region = "us"
	Taiwan Region = "taiwan"
	Biz    Region = "biz"
)

// All lists every supported region in a stable order.
var All = []Region{Korea, Japan, US, Taiwan, Biz}

var aliases = map[string]Region{
	"korea":  Korea,
	"kr":     Korea,
	"japan":  Japan,
	"jp":     Japan,
	"us":     US,
	"usa":    US,
	"taiwan": Taiwan,
	"tw":     Taiwan,
	"biz":    Biz,
}

// Parse normalizes a region name or alias.
func Parse(s string) (Region, error) {
	r, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("Invalid region: %s", s))
	}
	return r, nil
}

// ConnectionConfig is everything needed to build a client for one regional backend.
type ConnectionConfig struct {
	Region     Region
	Endpoint   string
	Credential string
	// DSN is an optional direct database connection string.
	DSN string
}

// Registry resolves regions to their connection settings.
type Registry struct {
	entries map[Region]config.RegionCredentials
}

// NewRegistry builds a registry from the per-region credentials of a Config.
func NewRegistry(creds map[string]config.RegionCredentials) *Registry {
	entries := make(map[Region]config.RegionCredentials, len(creds))
	for name, c := range creds {
		r, err := Parse(name)
		if err != nil {
			continue
		}
		entries[r] = c
	}
	return &Registry{entries: entries}
}

// Resolve returns the connection settings of a region. Unknown regions and regions whose
// endpoint or credential is absent fail with a configuration error; there is no fallback.
func (r *Registry) Resolve(name string) (ConnectionConfig, error) {
	reg, err := Parse(name)
	if err != nil {
		return ConnectionConfig{}, apperr.Configuration(fmt.Sprintf("region %q is not supported", name))
	}

	c, ok := r.entries[reg]
	if !ok {
		return ConnectionConfig{}, apperr.Configuration(fmt.Sprintf("region %q has no credentials", reg))
	}
	if c.URL == "" {
		return ConnectionConfig{}, apperr.Configuration(c.URLVar)
	}
	if c.ServiceKey == "" {
		return ConnectionConfig{}, apperr.Configuration(c.KeyVar)
	}

	return ConnectionConfig{
		Region:     reg,
		Endpoint:   c.URL,
		Credential: c.ServiceKey,
		DSN:        c.DSN,
	}, nil
}

// Regions returns the regions that resolve successfully, in the order of All.
func (r *Registry) Regions() []Region {
	var out []Region
	for _, reg := range All {
		if _, err := r.Resolve(string(reg)); err == nil {
			out = append(out, reg)
		}
	}
	return out
}

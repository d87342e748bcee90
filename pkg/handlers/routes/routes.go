// Package routes assembles the router with every admin function.
package routes

import (
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/banking"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/campaigns"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/charges"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/content"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/contracts"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/creators"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/devtools"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/invoices"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/notifications"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/payments"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/users"
)

// New returns a router serving every function with deps.
func New(deps *handlers.Deps) *handlers.Router {
	r := handlers.NewRouter(deps)
	charges.Register(r)
	banking.Register(r)
	invoices.Register(r)
	payments.Register(r)
	notifications.Register(r)
	content.Register(r)
	users.Register(r)
	campaigns.Register(r)
	creators.Register(r)
	contracts.Register(r)
	devtools.Register(r)
	return r
}

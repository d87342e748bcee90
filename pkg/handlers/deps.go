package handlers

import (
	"time"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/auth"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/matching"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/metrics"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/ai"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/github"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/mail"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/sms"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/stibee"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/toss"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	"go.uber.org/zap"
)

// Deps holds everything a handler may use. It is built once per process; database
// clients are opened from Factory per request.
type Deps struct {
	Config   *config.Config
	Registry *region.Registry
	Factory  storage.Factory
	Verifier *auth.Verifier

	Popbill *popbill.Client
	Toss    *toss.Client
	SMS     *sms.Client
	Mail    *mail.Mailer
	AI      *ai.Client
	Stibee  *stibee.Client
	GitHub  *github.Client

	Notifier notify.Dispatcher
	Mirror   storage.TransactionMirror
	Metrics  *metrics.Metrics
	Log      *zap.Logger
	Now      func() time.Time
}

// NewDeps wires the providers from cfg. Factory, Notifier and Mirror are left to the caller
// because they depend on the hosting environment.
func NewDeps(cfg *config.Config, log *zap.Logger) *Deps {
	return &Deps{
		Config:   cfg,
		Registry: region.NewRegistry(cfg.Regions),
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Popbill:  popbill.New(cfg.Popbill),
		Toss:     toss.New(cfg.Toss),
		SMS:      sms.New(cfg.SMS),
		Mail:     mail.New(cfg.SMTP),
		AI:       ai.New(cfg.AI),
		Stibee:   stibee.New(cfg.Stibee),
		GitHub:   github.New(cfg.GitHub),
		Notifier: notify.NoOp{},
		Mirror:   storage.NoOpMirror{},
		Log:      log,
		Now:      time.Now,
	}
}

// Sender builds the notification sender backed by these providers.
func (d *Deps) Sender() *notify.Sender {
	return &notify.Sender{
		Alimtalk:      d.Popbill,
		SMS:           d.SMS,
		Mail:          d.Mail,
		Credentials:   notify.StoredCredentials{Factory: d.Factory},
		DefaultRegion: d.Config.SMS.DefaultRegion,
		Log:           d.Log,
	}
}

// Matcher returns a matching engine over db.
func (d *Deps) Matcher(db storage.Querier) *matching.Engine {
	return matching.New(db, d.Log, d.Metrics)
}

// Notify dispatches n, logging a failure instead of returning it.
func (d *Deps) Notify(call *Call, what string, n notify.Notification) {
	if err := d.Notifier.Dispatch(call.Context(), n); err != nil {
		call.Log.Warn("best-effort side effect failed", zap.String("effect", what), zap.Error(err))
	}
}

// Open returns a client for r scoped to this call. Callers close it.
func (c *Call) Open(r region.Region) (storage.Client, error) {
	return c.Deps.Factory.Open(c.ctx, r)
}

// Now returns the current time from Deps.
func (c *Call) Now() time.Time {
	if c.Deps.Now == nil {
		return time.Now()
	}
	return c.Deps.Now()
}

// Package bootstrap builds the process-wide dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/metrics"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage"
	dydbstore "github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/dynamodb"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/memory"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/storage/regional"
	"go.uber.org/zap"
)

// Storage drivers selected by STORAGE_DRIVER.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Storage returns the client factory for cfg.StorageDriver.
func Storage(cfg *config.Config, registry *region.Registry, log *zap.Logger) (storage.Factory, error) {
	switch cfg.StorageDriver {
	case DriverMemory:
		log.Warn("using in-memory storage, data is lost on exit")
		return memory.NewFactory(region.All...), nil
	case DriverPostgres:
		f := regional.NewFactory(registry, log)
		f.UseDSN = true
		return f, nil
	case DriverREST, "":
		return regional.NewFactory(registry, log), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// Deps wires handler dependencies. AWS clients are only created when a mirror table or a
// notification queue is configured; otherwise notifications are delivered inline.
func Deps(ctx context.Context, cfg *config.Config, log *zap.Logger) (*handlers.Deps, error) {
	deps := handlers.NewDeps(cfg, log)
	factory, err := Storage(cfg, deps.Registry, log)
	if err != nil {
		return nil, err
	}
	deps.Factory = factory
	deps.Metrics = metrics.New()
	deps.Notifier = &notify.Inline{Sender: deps.Sender()}

	if cfg.AWS.BankTransactionsTable == "" && cfg.AWS.NotificationQueueURL == "" {
		return deps, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	if table := cfg.AWS.BankTransactionsTable; table != "" {
		deps.Mirror = dydbstore.New(dynamodb.NewFromConfig(awsCfg), table)
	}
	if queue := cfg.AWS.NotificationQueueURL; queue != "" {
		deps.Notifier = notify.NewSQSDispatcher(sqs.NewFromConfig(awsCfg), queue)
	}
	return deps, nil
}

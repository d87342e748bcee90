package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/bootstrap"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/collector"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/logger"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/providers/popbill"
	"go.uber.org/zap"
)

var job *collector.Collector

func init() {
	cfg := config.Load()
	log := logger.Init(cfg.Env)

	deps, err := bootstrap.Deps(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to wire dependencies", zap.Error(err))
	}
	job = &collector.Collector{
		Bank:     deps.Popbill,
		Factory:  deps.Factory,
		Mirror:   deps.Mirror,
		Notifier: deps.Notifier,
		Popbill:  cfg.Popbill,
		Business: cfg.Business,
		Interval: popbill.CollectInterval,
		Log:      log.With(zap.String("job", "collect-transactions")),
		Metrics:  deps.Metrics,
		Now:      deps.Now,
	}
}

// HandleRequest is triggered by an EventBridge schedule.
func HandleRequest(ctx context.Context) (collector.Report, error) {
	defer logger.Sync()
	rep, err := job.Run(ctx)
	if err != nil {
		job.Log.Error("transaction collection failed", zap.Error(err))
		return rep, err
	}
	job.Log.Info(rep.Message())
	return rep, nil
}

func main() {
	lambda.Start(HandleRequest)
}

package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/bootstrap"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/logger"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/notify"
	"go.uber.org/zap"
)

var (
	sender *notify.Sender
	log    *zap.Logger
)

func init() {
	cfg := config.Load()
	log = logger.Init(cfg.Env)

	deps, err := bootstrap.Deps(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to wire dependencies", zap.Error(err))
	}
	sender = deps.Sender()
}

// HandleRequest delivers queued notifications. Failed messages are reported back so only
// they are retried.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	defer logger.Sync()
	return notify.Consume(ctx, sender, log, sqsEvent), nil
}

func main() {
	lambda.Start(HandleRequest)
}

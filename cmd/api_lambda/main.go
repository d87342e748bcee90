package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/bootstrap"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/routes"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/logger"
	"go.uber.org/zap"
)

var router *handlers.Router

func init() {
	cfg := config.Load()
	log := logger.Init(cfg.Env)

	// Initialize dependencies once per container.
	deps, err := bootstrap.Deps(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to wire dependencies", zap.Error(err))
	}
	router = routes.New(deps)
}

// HandleRequest serves the function named by the {function} path parameter or the last
// path segment.
func HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return router.Serve(ctx, handlers.FunctionName(req), req), nil
}

func main() {
	lambda.Start(HandleRequest)
}

package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/bootstrap"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/handlers/routes"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/logger"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log := logger.Init(cfg.Env)
	defer logger.Sync()

	deps, err := bootstrap.Deps(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to wire dependencies", zap.Error(err))
	}
	functions := routes.New(deps)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.NewStructuredLogger(log))
	router.Use(chimw.Recoverer)

	serve := functions.HTTPHandler()
	router.HandleFunc("/functions/{function}", serve)
	router.HandleFunc("/.netlify/functions/{function}", serve)
	router.Handle("/metrics", deps.Metrics.Handler())

	port := cfg.HTTPPort
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", zap.String("port", port), zap.Strings("functions", functions.Names()))
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

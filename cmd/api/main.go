package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/genequery/atlas-assistant/internal/adapters/http"
	"github.com/genequery/atlas-assistant/internal/bootstrap"
	"github.com/genequery/atlas-assistant/internal/config"
	"github.com/genequery/atlas-assistant/internal/observability/logging"
	"github.com/genequery/atlas-assistant/internal/observability/metrics"
)

const service = "api"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics(service)
	sessions := httpadapter.NewSessionRegistry(
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		service,
		serverMetrics,
	)
	sessions.StartEviction(ctx, time.Minute)

	router := httpadapter.NewRouter(
		service,
		app.Dialog,
		app.Finder,
		app.Files,
		app.Downloads,
		sessions,
		serverMetrics,
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}

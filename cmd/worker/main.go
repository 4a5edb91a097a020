package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genequery/atlas-assistant/internal/bootstrap"
	"github.com/genequery/atlas-assistant/internal/config"
	"github.com/genequery/atlas-assistant/internal/core/domain"
	"github.com/genequery/atlas-assistant/internal/observability/logging"
	"github.com/genequery/atlas-assistant/internal/observability/metrics"
)

const service = "worker"

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

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDownloadRequested(ctx, func(handlerCtx context.Context, job domain.DownloadJob) error {
		workerMetrics.ObserveQueueLag(service, time.Since(job.RequestedAt))
		workerMetrics.StartDownload()
		start := time.Now()

		downloadCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		path, err := app.Files.Download(downloadCtx, job.ExperimentID, job.Filename)
		workerMetrics.FinishDownload(service, time.Since(start), err)
		if err != nil {
			return err
		}

		logger.Info("download_complete",
			"job_id", job.ID,
			"experiment_id", job.ExperimentID,
			"path", path,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
		)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

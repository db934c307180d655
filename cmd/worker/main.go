package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/herense/cloudsentinel/internal/activity"
	"github.com/herense/cloudsentinel/internal/config"
	"github.com/herense/cloudsentinel/internal/db"
	"github.com/herense/cloudsentinel/internal/logging"
	"github.com/herense/cloudsentinel/internal/metrics"
	"github.com/herense/cloudsentinel/internal/reconcile"
	"github.com/herense/cloudsentinel/internal/vault"
	"github.com/herense/cloudsentinel/internal/workflow"
)

const taskQueue = "cloudsentinel-tasks"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	masterKey, err := cfg.MasterKey()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to decode master key")
	}
	v, err := vault.New(masterKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vault")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	w := worker.New(tc, taskQueue, worker.Options{})

	scanActivities := activity.NewScanActivities(pool, reconcile.New(pool), v, cfg.AWSCallTimeout)
	w.RegisterActivity(scanActivities)

	w.RegisterWorkflow(workflow.ScanAccountWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	httphandlers "moneyvoice/internal/interfaces/http"
	"moneyvoice/internal/interfaces/scheduler"
	"moneyvoice/internal/logger"
	"moneyvoice/internal/shared/config"
	"moneyvoice/internal/shared/telemetry"
)

func main() {
	log := logger.New()
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run() error {
	log := logger.New()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Telemetry is optional; when disabled the otel globals stay no-ops.
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("telemetry shutdown error")
			}
		}()
	}

	// The enqueue func is filled in after the worker pool exists.
	var enqueue httphandlers.EnqueueFunc
	enqueuePtr := &enqueue
	if !cfg.Scheduler.Enabled {
		enqueuePtr = nil
	}

	deps, err := NewDependencies(ctx, cfg, enqueuePtr)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Background worker pool for asynchronous ingestion
	var pool *scheduler.WorkerPool
	if cfg.Scheduler.Enabled {
		pool = scheduler.NewWorkerPool(cfg.Scheduler.WorkerCount, cfg.Scheduler.JobDelay, cfg.Scheduler.QueueSize)
		pool.Start()

		service := deps.IngestService
		enqueue = func(userID int64, utterance string) error {
			return pool.Submit(scheduler.NewIngestJob(userID, utterance, service))
		}
	} else {
		log.Info().Msg("background ingestion disabled")
	}

	handler := SetupRoutes(deps, cfg)
	srv := StartServer(cfg.Server.Host+":"+cfg.Server.Port, handler)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, pool, 30*time.Second)
	return nil
}

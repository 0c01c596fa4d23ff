package main

import (
	"context"
	"net/http"
	"time"

	"moneyvoice/internal/interfaces/scheduler"
	"moneyvoice/internal/logger"
)

// StartServer creates the HTTP server and starts it in the background.
func StartServer(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log := logger.New()
		log.Info().Str("addr", addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	return srv
}

// GracefulShutdown stops the server and drains the worker pool.
func GracefulShutdown(srv *http.Server, pool *scheduler.WorkerPool, timeout time.Duration) {
	log := logger.New()
	log.Info().Msg("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests first so no new jobs are queued.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down HTTP server")
	}

	if pool != nil {
		pool.ShutdownWithTimeout(timeout)
	}

	log.Info().Msg("server stopped")
}

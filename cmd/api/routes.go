package main

import (
	"net/http"

	httphandlers "moneyvoice/internal/interfaces/http"
	"moneyvoice/internal/shared/config"
	"moneyvoice/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Protected routes. The fronting gateway authenticates callers and
	// forwards the user ID; Identity rejects anything without one.
	mux.Handle("/api/ingest", middleware.Identity(http.HandlerFunc(deps.IngestHandler.HandleIngest)))
	mux.Handle("/api/runs", middleware.Identity(http.HandlerFunc(deps.IngestHandler.HandleRecentRuns)))
	mux.Handle("/api/preferences", middleware.Identity(http.HandlerFunc(deps.PrefsHandler.HandlePreferences)))

	// Apply global middleware
	var handler http.Handler = mux
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.Telemetry(handler)
	handler = middleware.Logging(handler)
	if len(cfg.Server.AllowedHosts) > 0 {
		handler = middleware.RequireHost(cfg.Server.AllowedHosts)(handler)
	}
	if cfg.Server.EnableHSTS {
		handler = middleware.HSTS(handler)
	}

	return handler
}

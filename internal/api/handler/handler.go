// Package handler provides HTTP handlers for the job-control API: health,
// resort administration, manual job triggers, and operational metrics.
package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dailyflake/dailyflake/internal/api/respond"
	"github.com/dailyflake/dailyflake/internal/config"
	"github.com/dailyflake/dailyflake/internal/resort"
	"github.com/dailyflake/dailyflake/internal/schedule"
	"github.com/dailyflake/dailyflake/internal/scrape"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool      *pgxpool.Pool
	cfg       *config.Config
	resorts   *resort.Store
	scraper   *scrape.Pipeline
	scheduler *schedule.Scheduler
}

// New creates a Handler with shared dependencies.
func New(pool *pgxpool.Pool, cfg *config.Config, resorts *resort.Store, scraper *scrape.Pipeline, scheduler *schedule.Scheduler) *Handler {
	return &Handler{
		pool:      pool,
		cfg:       cfg,
		resorts:   resorts,
		scraper:   scraper,
		scheduler: scheduler,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":      "Daily Flake Jobs API",
		"version":   "1.0.0",
		"status":    "running",
		"scheduler": h.scheduler.State(),
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

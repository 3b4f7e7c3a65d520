package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dailyflake/dailyflake/internal/api/respond"
	"github.com/dailyflake/dailyflake/internal/schedule"
)

type triggerRequest struct {
	Job string `json:"job"`
}

// TriggerJob runs a scheduler pass on demand (admin). The request names the
// job ("scraper" or "notifier"); the pass applies the same due-window and
// dedup rules as a timer tick.
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}

	var result schedule.TickResult
	switch req.Job {
	case "scraper":
		result = h.scheduler.RunScrapes(r.Context())
	case "notifier":
		result = h.scheduler.RunNotifies(r.Context())
	default:
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "job must be \"scraper\" or \"notifier\"")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"job":        req.Job,
		"candidates": result.Candidates,
		"due":        result.Due,
		"failed":     result.Failed,
		"duration":   result.Duration.String(),
	})
}

// Metrics reports operational counters for today (admin).
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := h.scheduler.Today()

	var activeResorts, activeSubscriptions int
	if err := h.pool.QueryRow(ctx, "count_active_resorts").Scan(&activeResorts); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load metrics")
		return
	}
	if err := h.pool.QueryRow(ctx, "count_active_subscriptions").Scan(&activeSubscriptions); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load metrics")
		return
	}

	var reportsOK, reportsFailed int
	if err := h.pool.QueryRow(ctx, "count_reports_today", date).Scan(&reportsOK, &reportsFailed); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load metrics")
		return
	}

	var deliveriesSent, deliveriesFailed int
	if err := h.pool.QueryRow(ctx, "count_deliveries_today", date).Scan(&deliveriesSent, &deliveriesFailed); err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load metrics")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"date":      date,
		"scheduler": h.scheduler.State(),
		"resorts": map[string]int{
			"active": activeResorts,
		},
		"subscriptions": map[string]int{
			"active": activeSubscriptions,
		},
		"reports": map[string]int{
			"success": reportsOK,
			"failed":  reportsFailed,
		},
		"deliveries": map[string]int{
			"sent":   deliveriesSent,
			"failed": deliveriesFailed,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

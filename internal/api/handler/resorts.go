package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dailyflake/dailyflake/internal/api/respond"
	"github.com/dailyflake/dailyflake/internal/resort"
)

// ListResorts returns all active resorts (public).
func (h *Handler) ListResorts(w http.ResponseWriter, r *http.Request) {
	resorts, err := h.resorts.ListActive(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list resorts")
		return
	}
	if resorts == nil {
		resorts = []resort.Resort{}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"resorts": resorts})
}

// ListAllResorts returns every resort, active or not (admin).
func (h *Handler) ListAllResorts(w http.ResponseWriter, r *http.Request) {
	resorts, err := h.resorts.ListAll(r.Context())
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to list resorts")
		return
	}
	if resorts == nil {
		resorts = []resort.Resort{}
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"resorts": resorts})
}

type resortRequest struct {
	Name          string `json:"name"`
	SnowReportURL string `json:"snow_report_url"`
	ScrapeTime    string `json:"scrape_time"`
	IsActive      *bool  `json:"is_active"`
}

// CreateResort adds a resort (admin).
func (h *Handler) CreateResort(w http.ResponseWriter, r *http.Request) {
	var req resortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}
	if req.Name == "" || req.SnowReportURL == "" || req.ScrapeTime == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "name, snow_report_url, and scrape_time are required")
		return
	}
	if err := resort.ValidateTargetTime(req.ScrapeTime); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid scrape_time", err.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	res := &resort.Resort{
		Name:          req.Name,
		SnowReportURL: req.SnowReportURL,
		ScrapeTime:    req.ScrapeTime,
		IsActive:      active,
	}
	if err := h.resorts.Create(r.Context(), res); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "CREATE_FAILED", "Failed to create resort", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, res)
}

// UpdateResort edits a resort (admin).
func (h *Handler) UpdateResort(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid resort id")
		return
	}

	var req resortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON body")
		return
	}

	existing, err := h.resorts.Get(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load resort")
		return
	}
	if existing == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resort not found")
		return
	}

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.SnowReportURL != "" {
		existing.SnowReportURL = req.SnowReportURL
	}
	if req.ScrapeTime != "" {
		if err := resort.ValidateTargetTime(req.ScrapeTime); err != nil {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid scrape_time", err.Error())
			return
		}
		existing.ScrapeTime = req.ScrapeTime
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if _, err := h.resorts.Update(r.Context(), existing); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "UPDATE_FAILED", "Failed to update resort", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, existing)
}

// DeleteResort removes a resort (admin).
func (h *Handler) DeleteResort(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid resort id")
		return
	}

	deleted, err := h.resorts.Delete(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to delete resort")
		return
	}
	if !deleted {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resort not found")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// ScrapeResort runs the scrape pipeline for one resort immediately (admin).
// Bypasses the due window but not the once-per-day dedup: a resort already
// captured today is a no-op.
func (h *Handler) ScrapeResort(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid resort id")
		return
	}

	res, err := h.resorts.Get(r.Context(), id)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "DB_ERROR", "Failed to load resort")
		return
	}
	if res == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resort not found")
		return
	}

	date := h.scheduler.Today()
	if err := h.scraper.Run(r.Context(), *res, date); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "SCRAPE_FAILED", "Scrape failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"resort": res.Name,
		"date":   date,
		"status": "completed",
	})
}

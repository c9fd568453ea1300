package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"quiz-performance-service/internal/app"
	"quiz-performance-service/internal/domain"
	"quiz-performance-service/internal/performance"
	"quiz-performance-service/internal/report"
)

// APIHandler serves the performance REST endpoints.
type APIHandler struct {
	service *app.PerformanceService
	now     func() time.Time
}

func NewAPIHandler(service *app.PerformanceService) *APIHandler {
	return &APIHandler{service: service, now: time.Now}
}

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiResponse{Error: &apiError{Code: code, Message: message}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func viewStateFrom(r *http.Request) performance.ViewState {
	return performance.ViewState{Filter: performance.ParseFilter(r.URL.Query().Get("filter"))}
}

func (h *APIHandler) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var attempt domain.Attempt
	if err := json.NewDecoder(r.Body).Decode(&attempt); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	recorded, err := h.service.RecordAttempt(r.Context(), attempt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAttempt) {
			respondError(w, http.StatusBadRequest, "invalid_attempt", err.Error())
			return
		}
		slog.Error("failed to record attempt", "error", err, "user_id", attempt.UserID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to record attempt")
		return
	}
	respondJSON(w, http.StatusCreated, recorded)
}

func (h *APIHandler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	overview, err := h.service.Overview(r.Context(), userID, viewStateFrom(r))
	if err != nil {
		h.overviewError(w, err, userID)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

func (h *APIHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	overview, err := h.service.Overview(r.Context(), userID, viewStateFrom(r))
	if err != nil {
		h.overviewError(w, err, userID)
		return
	}

	filename := report.Filename(userID, overview.View.Filter, h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := report.WriteCSV(w, overview.View); err != nil {
		slog.Error("failed to write report", "error", err, "user_id", userID)
	}
}

func (h *APIHandler) overviewError(w http.ResponseWriter, err error, userID string) {
	if errors.Is(err, domain.ErrUserRequired) {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	slog.Error("failed to load performance", "error", err, "user_id", userID)
	respondError(w, http.StatusInternalServerError, "internal_error", "failed to load performance")
}

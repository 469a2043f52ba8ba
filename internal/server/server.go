// Package server exposes the comparison pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/competitor-insights/internal/apperr"
	"github.com/sells-group/competitor-insights/internal/insights"
	"github.com/sells-group/competitor-insights/internal/model"
	"github.com/sells-group/competitor-insights/internal/store"
)

// Comparer runs a comparison end to end. *insights.Service satisfies it.
type Comparer interface {
	CreateComparison(ctx context.Context, req insights.ComparisonRequest) (*model.ComparisonReport, error)
}

// Handler serves the comparison HTTP API.
type Handler struct {
	comparer Comparer
	reports  store.Store
}

// NewHandler wires the comparison service and report store into an HTTP handler.
func NewHandler(comparer Comparer, reports store.Store) *Handler {
	return &Handler{comparer: comparer, reports: reports}
}

// Router builds the chi router with middleware and all API routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/comparisons", h.createComparison)
		r.Get("/comparisons", h.listComparisons)
		r.Get("/comparisons/{reportID}", h.getComparison)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type comparisonRequest struct {
	Identifier string `json:"user_business_identifier"`
	Style      string `json:"report_style"`
}

func (h *Handler) createComparison(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("body", "invalid request body"))
		return
	}

	report, err := h.comparer.CreateComparison(r.Context(), insights.ComparisonRequest{
		Identifier: req.Identifier,
		Style:      model.ReportStyle(req.Style),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.reports != nil {
		if err := h.reports.SaveReport(r.Context(), report); err != nil {
			zap.L().Error("failed to persist report",
				zap.String("report_id", report.ReportID),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) getComparison(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")

	report, err := h.reports.GetReport(r.Context(), reportID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error: "report not found",
			Code:  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		zap.L().Error("failed to load report",
			zap.String("report_id", reportID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) listComparisons(w http.ResponseWriter, r *http.Request) {
	var filter store.ReportFilter
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	reports, err := h.reports.ListReports(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if reports == nil {
		reports = []model.ComparisonReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: "internal error"}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		body = errorBody{Error: ae.Message, Code: string(ae.Code), Details: ae.Details}
		switch ae.Code {
		case apperr.CodeValidation:
			status = http.StatusBadRequest
		case apperr.CodeInsufficientData:
			status = http.StatusUnprocessableEntity
		case apperr.CodeRateLimit:
			status = http.StatusTooManyRequests
		case apperr.CodeBusinessData, apperr.CodeExternalAPI, apperr.CodeLLMService:
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

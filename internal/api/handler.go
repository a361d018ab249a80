package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/lifecycle"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	svc     *lifecycle.Service
	bus     domain.EventBus
	version string
}

// NewHandler creates a new API handler. The bus may be nil.
func NewHandler(svc *lifecycle.Service, bus domain.EventBus, version string) *Handler {
	return &Handler{
		svc:     svc,
		bus:     bus,
		version: version,
	}
}

// ClassifyRequest is the request body for POST /classify.
type ClassifyRequest struct {
	ComplaintText string `json:"complaint_text"`
}

// UpdateRequest is the request body for PATCH /cases/{id}.
type UpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// ReviewRequest is the request body for POST /cases/{id}/review.
type ReviewRequest struct {
	Reason        string `json:"reason"`
	Priority      string `json:"priority"`
	ReviewerNotes string `json:"reviewer_notes"`
}

// Classify handles POST /classify.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Classify(r.Context(), req.ComplaintText)
	respond(w, res, err)
}

// ScoreSeverity handles POST /severity.
func (h *Handler) ScoreSeverity(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.ScoreSeverityInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.ScoreSeverity(r.Context(), req)
	respond(w, res, err)
}

// RouteCase handles POST /route.
func (h *Handler) RouteCase(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.RouteCaseInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.RouteCase(r.Context(), req)
	respond(w, res, err)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListCategories(r.Context())
	respond(w, res, err)
}

// RoutingRules handles GET /routing-rules and GET /routing-rules/{category}.
func (h *Handler) RoutingRules(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RoutingRules(r.Context(), chi.URLParam(r, "category"))
	respond(w, res, err)
}

// Intake handles POST /cases.
func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.IntakeInput
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Intake(r.Context(), req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListCases handles GET /cases?status=&limit=.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeFailure(w, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}
	res, err := h.svc.ListCases(r.Context(), r.URL.Query().Get("status"), limit)
	respond(w, res, err)
}

// GetCase handles GET /cases/{id}.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetCase(r.Context(), chi.URLParam(r, "id"))
	respond(w, res, err)
}

// UpdateCase handles PATCH /cases/{id}.
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateCase(r.Context(), lifecycle.UpdateInput{
		CaseID: chi.URLParam(r, "id"),
		Status: req.Status,
		Notes:  req.Notes,
	})
	respond(w, res, err)
}

// Triage handles POST /cases/{id}/triage.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Triage(r.Context(), chi.URLParam(r, "id"))
	respond(w, res, err)
}

// Route handles POST /cases/{id}/route.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Route(r.Context(), chi.URLParam(r, "id"))
	respond(w, res, err)
}

// NextAction handles GET /cases/{id}/next-action.
func (h *Handler) NextAction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ProposeNextAction(r.Context(), chi.URLParam(r, "id"))
	respond(w, res, err)
}

// RequestReview handles POST /cases/{id}/review.
func (h *Handler) RequestReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.RequestHumanReview(r.Context(), lifecycle.ReviewInput{
		CaseID:        chi.URLParam(r, "id"),
		Reason:        req.Reason,
		Priority:      req.Priority,
		ReviewerNotes: req.ReviewerNotes,
	})
	respond(w, res, err)
}

// Statistics handles GET /statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Statistics(r.Context())
	respond(w, res, err)
}

// Health handles GET /health requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := map[string]string{}

	components["store"] = "ok"
	if err := h.svc.Ping(r.Context()); err != nil {
		components["store"] = err.Error()
		status = "degraded"
	}

	if h.bus != nil {
		components["bus"] = "ok"
		if err := h.bus.Ping(r.Context()); err != nil {
			components["bus"] = err.Error()
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"version":      h.version,
		"storage_mode": h.svc.StorageMode(),
		"components":   components,
	})
}

// Ready handles GET /ready requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// decode parses the JSON body into v, writing a failure on error.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, fmt.Errorf("%w: invalid JSON request body", domain.ErrInvalidInput))
		return false
	}
	return true
}

func respond(w http.ResponseWriter, res any, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeFailure(w http.ResponseWriter, err error) {
	resp := lifecycle.Failure(err)
	writeJSON(w, statusFor(resp.ErrorCode), resp)
}

// statusFor maps a failure code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeCaseNotFound, domain.CodeNoRoute:
		return http.StatusNotFound
	case domain.CodeNotTriaged:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

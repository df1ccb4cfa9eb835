package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/martinsuchenak/netgen/internal/log"
	"github.com/martinsuchenak/netgen/internal/model"
	"github.com/martinsuchenak/netgen/internal/netspace"
	"github.com/martinsuchenak/netgen/internal/planner"
	"github.com/martinsuchenak/netgen/internal/storage"
)

// Handler handles HTTP requests
type Handler struct {
	store storage.PlanStore
}

// NewHandler creates a new API handler
func NewHandler(store storage.PlanStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Plans
	mux.HandleFunc("POST /api/plans", h.createPlan)
	mux.HandleFunc("GET /api/plans", h.listPlans)
	mux.HandleFunc("GET /api/plans/{id}", h.getPlan)
	mux.HandleFunc("GET /api/plans/{id}/output", h.getPlanOutput)
	mux.HandleFunc("DELETE /api/plans/{id}", h.deletePlan)

	// Validation
	mux.HandleFunc("POST /api/validate", h.validateManifest)

	// Health, exempt from bearer auth in the middleware
	mux.HandleFunc("GET /api/health", h.health)
}

// createPlan handles POST /api/plans. The body is a raw manifest; the
// generated plan is persisted unless ?save=false.
func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if len(raw) == 0 {
		h.writeError(w, http.StatusBadRequest, "manifest body is required")
		return
	}

	start := time.Now()
	plan, err := planner.Generate(raw, "api")
	if err != nil {
		generateFailures.Inc()
		h.writeError(w, planStatus(err), err.Error())
		return
	}
	generateDuration.Observe(time.Since(start).Seconds())
	plansGenerated.Inc()

	if saveRequested(r) {
		if err := h.store.SavePlan(plan); err != nil {
			h.internalError(w, err)
			return
		}
	}

	log.Info("Generated plan", "id", plan.ID, "networks", plan.Networks, "source", "api")
	h.writeJSON(w, http.StatusCreated, plan)
}

// listPlans handles GET /api/plans
func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	filter := &model.PlanFilter{Source: r.URL.Query().Get("source")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	plans, err := h.store.ListPlans(filter)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plans)
}

// getPlan handles GET /api/plans/{id}
func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.GetPlan(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// getPlanOutput handles GET /api/plans/{id}/output and returns the raw
// rendered document.
func (h *Handler) getPlanOutput(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.GetPlan(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		h.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, plan.Output)
}

// deletePlan handles DELETE /api/plans/{id}
func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeletePlan(r.PathValue("id")); err != nil {
		if errors.Is(err, storage.ErrPlanNotFound) {
			h.writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		h.internalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateManifest handles POST /api/validate
func (h *Handler) validateManifest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "reading request body")
		return
	}

	summary, err := planner.Validate(raw)
	if err != nil {
		validationFailures.Inc()
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"networks": summary.Networks,
		"subnets":  summary.Subnets,
	})
}

// health handles GET /api/health
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.CountPlans()
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"plans":  count,
	})
}

// planStatus maps pipeline errors to HTTP status codes. Manifest shape
// and allocation errors are the caller's fault; anything else is not.
func planStatus(err error) int {
	switch {
	case errors.Is(err, netspace.ErrInvalidSubnet),
		errors.Is(err, netspace.ErrInvalidRequest),
		errors.Is(err, netspace.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func saveRequested(r *http.Request) bool {
	v := r.URL.Query().Get("save")
	if v == "" {
		return true
	}
	save, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return save
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

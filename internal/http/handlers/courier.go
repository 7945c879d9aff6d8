package handlers

import (
	"errors"
	"net/http"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/apperr"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

// CourierHandler serves courier directory endpoints.
type CourierHandler struct {
	directory   courierDirectory
	assignments assignmentReader
	dispatch    dispatchUsecase
	logger      logx.Logger
}

// NewCourierHandler creates a CourierHandler.
func NewCourierHandler(logger logx.Logger, directory courierDirectory, assignments assignmentReader, dispatch dispatchUsecase) *CourierHandler {
	return &CourierHandler{directory: directory, assignments: assignments, dispatch: dispatch, logger: logger}
}

// GetByID handles GET /couriers/{id}.
func (h *CourierHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := h.directory.Get(r.Context(), id)
	switch {
	case err != nil:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	case c == nil:
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	default:
		writeJSON(h.logger, w, r, http.StatusOK, c)
	}
}

// Assignments handles GET /couriers/{id}/assignments and lists the
// courier's active (non-terminal) assignments, newest first.
func (h *CourierHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	active, err := h.assignments.ActiveByCourier(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]*assignmentResponse, 0, len(active))
	for i := range active {
		out = append(out, assignmentToResponse(&active[i]))
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]any{"assignments": out})
}

// UpdateAvailability handles PATCH /couriers/{id}/availability. A courier
// coming back online proactively retries waiting orders.
func (h *CourierHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req availabilityRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.Available == nil && req.Location == nil && req.City == nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "empty update")
		return
	}

	updated, err := h.directory.UpdatePartial(r.Context(), domain.PartialCourierUpdate{
		ID:        id,
		Available: req.Available,
		Location:  req.Location,
		City:      req.City,
	})
	switch {
	case err == nil && !updated:
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	case err == nil:
		if req.Available != nil && *req.Available {
			h.dispatch.CourierAvailable(r.Context(), id)
		}
		writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

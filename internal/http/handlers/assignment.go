package handlers

import (
	"errors"
	"net/http"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/apperr"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

// AssignmentHandler serves assignment status updates from courier apps.
type AssignmentHandler struct {
	ledger ledgerUsecase
	logger logx.Logger
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(logger logx.Logger, ledger ledgerUsecase) *AssignmentHandler {
	return &AssignmentHandler{ledger: ledger, logger: logger}
}

// UpdateStatus handles PATCH /assignments/{id}/status. Transitions must
// follow the assignment state machine; out-of-order updates get 409.
func (h *AssignmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	next := domain.AssignmentStatus(req.Status)
	if !next.Valid() {
		writeError(h.logger, w, r, http.StatusBadRequest, "unknown status")
		return
	}

	a, err := h.ledger.UpdateStatus(r.Context(), assignmentID, next)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(a))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrIllegalTransition):
		writeError(h.logger, w, r, http.StatusConflict, "illegal status transition")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/apperr"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

// DispatchHandler serves the claim endpoint and the operator dashboard.
type DispatchHandler struct {
	uc     dispatchUsecase
	orders orderStore
	logger logx.Logger
}

// NewDispatchHandler creates a DispatchHandler.
func NewDispatchHandler(logger logx.Logger, uc dispatchUsecase, orders orderStore) *DispatchHandler {
	return &DispatchHandler{uc: uc, orders: orders, logger: logger}
}

// Claim handles POST /orders/{id}/claim. The first courier whose request
// reaches the ledger wins; everyone else gets 409 with the rejection
// reason.
func (h *DispatchHandler) Claim(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req claimRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if strings.TrimSpace(req.CourierID) == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "courier_id is required")
		return
	}

	res, err := h.uc.Claim(r.Context(), orderID, req.CourierID)
	switch {
	case err == nil && res.Claimed:
		writeJSON(h.logger, w, r, http.StatusOK, claimResultToResponse(res))
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusConflict, claimResultToResponse(res))
	case errors.Is(err, apperr.ErrInvalid):
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// GetOrder handles GET /orders/{id} and reports the order together with its
// queue membership.
func (h *DispatchHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	order, err := h.orders.Get(r.Context(), orderID)
	switch {
	case err != nil:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	case order == nil:
		writeError(h.logger, w, r, http.StatusNotFound, "not found")
	default:
		writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(order, h.uc.Queued(orderID)))
	}
}

// Cancel handles DELETE /orders/{id}/dispatch. The order is cancelled in the
// store first so a restart cannot re-enqueue it, then dropped from the queue.
// Idempotent: cancelling a terminal or unknown order still returns ok.
func (h *DispatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	cancelled, err := h.orders.Cancel(r.Context(), orderID)
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}
	h.uc.Cancel(r.Context(), orderID)

	writeJSON(h.logger, w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"cancelled": cancelled,
	})
}

// Stats handles GET /dispatch/stats for the operator dashboard.
func (h *DispatchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, r, http.StatusOK, h.uc.Stats())
}

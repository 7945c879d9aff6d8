package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/apperr"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
)

type fakeDispatch struct {
	claimResult domain.ClaimResult
	claimErr    error
	cancelled   []string
	available   []string
	queued      bool
	stats       dispatch.Stats
}

func (f *fakeDispatch) Claim(_ context.Context, orderID, courierID string) (domain.ClaimResult, error) {
	return f.claimResult, f.claimErr
}

func (f *fakeDispatch) Cancel(_ context.Context, orderID string) {
	f.cancelled = append(f.cancelled, orderID)
}

func (f *fakeDispatch) CourierAvailable(_ context.Context, courierID string) {
	f.available = append(f.available, courierID)
}

func (f *fakeDispatch) Queued(string) bool { return f.queued }

func (f *fakeDispatch) Stats() dispatch.Stats { return f.stats }

type fakeLedger struct {
	assignment *domain.Assignment
	err        error
}

func (f *fakeLedger) UpdateStatus(context.Context, string, domain.AssignmentStatus) (*domain.Assignment, error) {
	return f.assignment, f.err
}

type fakeDirectory struct {
	courier *domain.Courier
	updated bool
	err     error
	update  *domain.PartialCourierUpdate
}

func (f *fakeDirectory) Get(context.Context, string) (*domain.Courier, error) {
	return f.courier, f.err
}

func (f *fakeDirectory) UpdatePartial(_ context.Context, u domain.PartialCourierUpdate) (bool, error) {
	f.update = &u
	return f.updated, f.err
}

type fakeOrders struct {
	order        *domain.Order
	err          error
	cancelledIDs []string
	cancelErr    error
}

func (f *fakeOrders) Get(context.Context, string) (*domain.Order, error) {
	return f.order, f.err
}

func (f *fakeOrders) Cancel(_ context.Context, id string) (bool, error) {
	if f.cancelErr != nil {
		return false, f.cancelErr
	}
	f.cancelledIDs = append(f.cancelledIDs, id)
	return true, nil
}

type fakeAssignments struct {
	active []domain.Assignment
	err    error
}

func (f *fakeAssignments) ActiveByCourier(context.Context, string) ([]domain.Assignment, error) {
	return f.active, f.err
}

func newTestRouter(d *fakeDispatch, l *fakeLedger, dir *fakeDirectory, o *fakeOrders, a *fakeAssignments) http.Handler {
	logger := logx.Nop()
	dh := NewDispatchHandler(logger, d, o)
	ah := NewAssignmentHandler(logger, l)
	ch := NewCourierHandler(logger, dir, a, d)

	r := chi.NewRouter()
	r.Post("/orders/{id}/claim", dh.Claim)
	r.Get("/orders/{id}", dh.GetOrder)
	r.Delete("/orders/{id}/dispatch", dh.Cancel)
	r.Get("/dispatch/stats", dh.Stats)
	r.Patch("/assignments/{id}/status", ah.UpdateStatus)
	r.Get("/couriers/{id}", ch.GetByID)
	r.Get("/couriers/{id}/assignments", ch.Assignments)
	r.Patch("/couriers/{id}/availability", ch.UpdateAvailability)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClaim_Winner(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{claimResult: domain.ClaimResult{
		Claimed: true,
		Assignment: &domain.Assignment{
			ID:         "a-1",
			OrderID:    "order-1",
			CourierID:  "courier-1",
			Status:     domain.AssignmentAssigned,
			AssignedAt: time.Now().UTC(),
		},
	}}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPost, "/orders/order-1/claim", `{"courier_id":"courier-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"claimed":true`)
	assert.Contains(t, rec.Body.String(), `"a-1"`)
}

func TestClaim_LoserGets409WithReason(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{claimResult: domain.ClaimResult{
		Claimed: false,
		Reason:  domain.ReasonAlreadyAssigned,
	}}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPost, "/orders/order-1/claim", `{"courier_id":"courier-2"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"claimed":false`)
	assert.Contains(t, rec.Body.String(), domain.ReasonAlreadyAssigned)
}

func TestClaim_Validation(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPost, "/orders/order-1/claim", `{"courier_id":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/orders/order-1/claim", `not-json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaim_UnknownEntitiesGet404(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{claimErr: apperr.ErrNotFound}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPost, "/orders/order-x/claim", `{"courier_id":"courier-1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_ReportsQueueMembership(t *testing.T) {
	t.Parallel()

	o := &fakeOrders{order: &domain.Order{
		ID:         "order-1",
		CustomerID: "cust-1",
		Status:     domain.OrderReadyForPickup,
		CreatedAt:  time.Now().UTC(),
	}}
	d := &fakeDispatch{queued: true}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, o, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodGet, "/orders/order-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queued":true`)
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})
	rec := doRequest(t, h, http.MethodGet, "/orders/order-x", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelDispatch_OK(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{}
	o := &fakeOrders{}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, o, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodDelete, "/orders/order-1/dispatch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cancelled":true`)
	assert.Equal(t, []string{"order-1"}, o.cancelledIDs, "order cancelled in the store")
	assert.Equal(t, []string{"order-1"}, d.cancelled, "entry dropped from the queue")
}

func TestCancelDispatch_StoreError(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{}
	o := &fakeOrders{cancelErr: context.DeadlineExceeded}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, o, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodDelete, "/orders/order-1/dispatch", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, d.cancelled, "queue entry kept when the store write failed")
}

func TestStats_OK(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{stats: dispatch.Stats{QueueDepth: 3, CriticalOrders: 1}}
	h := newTestRouter(d, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodGet, "/dispatch/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queue_depth":3`)
	assert.Contains(t, rec.Body.String(), `"critical_orders":1`)
}

func TestUpdateStatus_OK(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	l := &fakeLedger{assignment: &domain.Assignment{
		ID:         "a-1",
		OrderID:    "order-1",
		CourierID:  "courier-1",
		Status:     domain.AssignmentPickedUp,
		AssignedAt: now,
		PickedUpAt: &now,
	}}
	h := newTestRouter(&fakeDispatch{}, l, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPatch, "/assignments/a-1/status", `{"status":"picked_up"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"picked_up"`)
}

func TestUpdateStatus_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"unknown status", `{"status":"teleported"}`, nil, http.StatusBadRequest},
		{"illegal transition", `{"status":"delivered"}`, apperr.ErrIllegalTransition, http.StatusConflict},
		{"not found", `{"status":"accepted"}`, apperr.ErrNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newTestRouter(&fakeDispatch{}, &fakeLedger{err: tc.err}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})
			rec := doRequest(t, h, http.MethodPatch, "/assignments/a-1/status", tc.body)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestUpdateAvailability_TriggersProactiveRetry(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{}
	dir := &fakeDirectory{updated: true}
	h := newTestRouter(d, &fakeLedger{}, dir, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPatch, "/couriers/courier-1/availability", `{"available":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"courier-1"}, d.available)
	require.NotNil(t, dir.update)
	require.NotNil(t, dir.update.Available)
	assert.True(t, *dir.update.Available)
}

func TestUpdateAvailability_GoingOfflineDoesNotRetry(t *testing.T) {
	t.Parallel()

	d := &fakeDispatch{}
	dir := &fakeDirectory{updated: true}
	h := newTestRouter(d, &fakeLedger{}, dir, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPatch, "/couriers/courier-1/availability", `{"available":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, d.available)
}

func TestUpdateAvailability_Validation(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, &fakeDirectory{updated: true}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPatch, "/couriers/courier-1/availability", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAvailability_UnknownCourier(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, &fakeDirectory{updated: false}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodPatch, "/couriers/courier-1/availability", `{"available":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCourierAssignments_OK(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	a := &fakeAssignments{active: []domain.Assignment{
		{ID: "a-1", OrderID: "order-1", CourierID: "courier-1", Status: domain.AssignmentOnTheWay, AssignedAt: now},
	}}
	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, a)

	rec := doRequest(t, h, http.MethodGet, "/couriers/courier-1/assignments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a-1"`)
	assert.Contains(t, rec.Body.String(), `"on_the_way"`)
}

func TestCourierAssignments_EmptyList(t *testing.T) {
	t.Parallel()

	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, &fakeDirectory{}, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodGet, "/couriers/courier-1/assignments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"assignments":[]`)
}

func TestGetCourier_OK(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{courier: &domain.Courier{ID: "courier-1", Name: "Ali", Available: true}}
	h := newTestRouter(&fakeDispatch{}, &fakeLedger{}, dir, &fakeOrders{}, &fakeAssignments{})

	rec := doRequest(t, h, http.MethodGet, "/couriers/courier-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "courier-1")
}

package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/gateway/notify"
)

type captured struct {
	Method string
	Path   string
	Body   map[string]any
}

func newCapturingServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		calls = append(calls, captured{Method: r.Method, Path: r.URL.Path, Body: body})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNewHTTPGateway_EmptyBaseURLDisables(t *testing.T) {
	t.Parallel()
	assert.Nil(t, notify.NewHTTPGateway("", nil))
	assert.Nil(t, notify.NewHTTPGateway("   ", nil))
}

func TestHTTPGateway_Broadcast(t *testing.T) {
	srv, calls := newCapturingServer(t, http.StatusOK)
	g := notify.NewHTTPGateway(srv.URL, srv.Client())
	require.NotNil(t, g)

	err := g.Broadcast(context.Background(), "courier-1", notify.Broadcast{
		BroadcastID:    "b-1",
		OrderID:        "order-1",
		Priority:       true,
		Bonus:          20,
		Attempt:        2,
		Urgent:         true,
		OrderValue:     150,
		StoreLocation:  &domain.Point{Lat: 30.04, Lon: 31.23},
		DistanceMeters: 1200,
	})
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/v1/couriers/courier-1/order-available", call.Path)
	assert.Equal(t, "order-1", call.Body["order_id"])
	assert.Equal(t, true, call.Body["priority"])
	assert.Equal(t, 20.0, call.Body["bonus"])
}

func TestHTTPGateway_NotifyClaimed(t *testing.T) {
	srv, calls := newCapturingServer(t, http.StatusOK)
	g := notify.NewHTTPGateway(srv.URL, srv.Client())

	require.NoError(t, g.NotifyClaimed(context.Background(), []string{"c-1", "c-2"}, "order-1"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/v1/couriers/order-taken", (*calls)[0].Path)

	// no recipients, no request
	require.NoError(t, g.NotifyClaimed(context.Background(), nil, "order-1"))
	assert.Len(t, *calls, 1)
}

func TestHTTPGateway_NotifyFailed(t *testing.T) {
	srv, calls := newCapturingServer(t, http.StatusOK)
	g := notify.NewHTTPGateway(srv.URL, srv.Client())

	require.NoError(t, g.NotifyFailed(context.Background(), "cust-1", "order-1", "no_available_couriers"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "/v1/customers/cust-1/delivery-failed", (*calls)[0].Path)
	assert.Equal(t, "no_available_couriers", (*calls)[0].Body["reason"])
}

func TestHTTPGateway_NonSuccessIsStatusError(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusBadGateway)
	g := notify.NewHTTPGateway(srv.URL, srv.Client())

	err := g.NotifyAdmins(context.Background(), "order_delivery_failed", map[string]any{"order_id": "order-1"})
	require.Error(t, err)

	var statusErr *notify.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "/v1/admins/events", statusErr.Path)
}

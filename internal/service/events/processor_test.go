package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/events"
)

type queueRecorder struct {
	enqueued  []string
	cancelled []string
	couriers  []string
	err       error
}

func (q *queueRecorder) Enqueue(_ context.Context, orderID string) error {
	q.enqueued = append(q.enqueued, orderID)
	return q.err
}

func (q *queueRecorder) Cancel(_ context.Context, orderID string) {
	q.cancelled = append(q.cancelled, orderID)
}

func (q *queueRecorder) CourierAvailable(_ context.Context, courierID string) {
	q.couriers = append(q.couriers, courierID)
}

func orderEvent(id, status string) events.OrderEvent {
	return events.OrderEvent{OrderID: id, Status: status, CreatedAt: time.Now()}
}

func TestHandleOrder_DispatchableStatusesEnqueue(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"created", "processing", "ready_for_pickup", " Ready_For_Pickup "} {
		q := &queueRecorder{}
		p := events.NewProcessor(q, logx.Nop())

		require.NoError(t, p.HandleOrder(context.Background(), orderEvent("order-1", status)))
		assert.Equal(t, []string{"order-1"}, q.enqueued, "status %q", status)
	}
}

func TestHandleOrder_CancelledStatusesCancel(t *testing.T) {
	t.Parallel()

	for _, status := range []string{"cancelled", "canceled", "deleted"} {
		q := &queueRecorder{}
		p := events.NewProcessor(q, logx.Nop())

		require.NoError(t, p.HandleOrder(context.Background(), orderEvent("order-1", status)))
		assert.Equal(t, []string{"order-1"}, q.cancelled, "status %q", status)
		assert.Empty(t, q.enqueued)
	}
}

func TestHandleOrder_UnknownStatusIgnored(t *testing.T) {
	t.Parallel()

	q := &queueRecorder{}
	p := events.NewProcessor(q, logx.Nop())

	require.NoError(t, p.HandleOrder(context.Background(), orderEvent("order-1", "delivered")))
	assert.Empty(t, q.enqueued)
	assert.Empty(t, q.cancelled)
}

func TestHandleOrder_EnqueueErrorPropagates(t *testing.T) {
	t.Parallel()

	q := &queueRecorder{err: assert.AnError}
	p := events.NewProcessor(q, logx.Nop())

	err := p.HandleOrder(context.Background(), orderEvent("order-1", "created"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestHandleCourier_AvailableTriggersRetry(t *testing.T) {
	t.Parallel()

	q := &queueRecorder{}
	p := events.NewProcessor(q, logx.Nop())

	require.NoError(t, p.HandleCourier(context.Background(), events.CourierEvent{CourierID: "c-1", Status: "available"}))
	require.NoError(t, p.HandleCourier(context.Background(), events.CourierEvent{CourierID: "c-2", Status: "ONLINE"}))
	require.NoError(t, p.HandleCourier(context.Background(), events.CourierEvent{CourierID: "c-3", Status: "offline"}))

	assert.Equal(t, []string{"c-1", "c-2"}, q.couriers)
}

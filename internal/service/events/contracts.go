package events

import "context"

// QueuePort abstracts the subset of dispatch queue operations needed by the
// Processor when handling stream events.
type QueuePort interface {
	Enqueue(ctx context.Context, orderID string) error
	Cancel(ctx context.Context, orderID string)
	CourierAvailable(ctx context.Context, courierID string)
}

package events

import (
	"context"
	"strings"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

// Processor routes order and courier stream events into the dispatch queue.
// Events whose status carries no dispatch meaning are acknowledged and
// dropped.
type Processor struct {
	queue   QueuePort
	factory *actionFactory
	logger  logx.Logger
}

// NewProcessor creates an events Processor.
func NewProcessor(queue QueuePort, logger logx.Logger) *Processor {
	p := &Processor{queue: queue, logger: logger}
	p.factory = newActionFactory(p.onDispatchable, p.onCancelled)
	return p
}

// HandleOrder processes a single order event.
func (p *Processor) HandleOrder(ctx context.Context, e OrderEvent) error {
	fn, ok := p.factory.get(e.Status)
	if !ok {
		p.logger.Debug("order event ignored",
			logx.String("order_id", e.OrderID),
			logx.String("status", e.Status),
		)
		return nil
	}
	return fn(ctx, e)
}

// HandleCourier processes a single courier availability event. Only a
// courier coming back online triggers queue work.
func (p *Processor) HandleCourier(ctx context.Context, e CourierEvent) error {
	switch strings.ToLower(strings.TrimSpace(e.Status)) {
	case "available", "online":
		p.queue.CourierAvailable(ctx, e.CourierID)
	}
	return nil
}

func (p *Processor) onDispatchable(ctx context.Context, e OrderEvent) error {
	return p.queue.Enqueue(ctx, e.OrderID)
}

func (p *Processor) onCancelled(ctx context.Context, e OrderEvent) error {
	p.queue.Cancel(ctx, e.OrderID)
	return nil
}

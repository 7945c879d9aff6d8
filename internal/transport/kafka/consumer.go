package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/events"
)

// Topics names the streams the consumer subscribes to. An empty courier
// topic disables the courier stream.
type Topics struct {
	Orders   string
	Couriers string
}

// Handlers processes decoded stream events. A handler error that is not
// Permanent leaves the message unmarked so the group redelivers it.
type Handlers struct {
	Order   func(context.Context, events.OrderEvent) error
	Courier func(context.Context, events.CourierEvent) error
}

// Consumer wraps a Sarama consumer group and feeds order and courier
// events into the dispatch processor.
type Consumer struct {
	group  sarama.ConsumerGroup
	topics Topics
	handle Handlers
	logger logx.Logger
}

// NewConsumer creates a Kafka consumer. Returns nil when brokers, group id
// or the orders topic is unset, so deployments without Kafka skip the
// stream entirely.
func NewConsumer(brokers []string, groupID string, topics Topics, h Handlers, logger logx.Logger) (*Consumer, error) {
	if len(brokers) == 0 || strings.TrimSpace(groupID) == "" || strings.TrimSpace(topics.Orders) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:  group,
		topics: topics,
		handle: h,
		logger: logger,
	}, nil
}

// Run starts the consume loop and blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	topics := []string{c.topics.Orders}
	if strings.TrimSpace(c.topics.Couriers) != "" {
		topics = append(topics, c.topics.Couriers)
	}

	h := &groupHandler{c: c}

	for {
		if err := c.group.Consume(ctx, topics, h); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			time.Sleep(time.Second)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.c.dispatch(sess.Context(), msg.Topic, msg.Value); err != nil {
			var perm PermanentError
			if !errors.As(err, &perm) {
				h.c.logger.Warn("kafka handle failed, message will be redelivered",
					logx.String("topic", msg.Topic),
					logx.Err(err),
				)
				return err
			}
			h.c.logger.Warn("kafka message dropped",
				logx.String("topic", msg.Topic),
				logx.Err(err),
			)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, topic string, value []byte) error {
	switch topic {
	case c.topics.Orders:
		var dto OrderEventDTO
		if err := json.Unmarshal(value, &dto); err != nil {
			return Permanent(err)
		}
		ev := dto.ToDomain()
		if ev.OrderID == "" {
			return Permanent(errors.New("order event without order_id"))
		}
		if c.handle.Order == nil {
			return nil
		}
		return c.handle.Order(ctx, ev)
	case c.topics.Couriers:
		var dto CourierEventDTO
		if err := json.Unmarshal(value, &dto); err != nil {
			return Permanent(err)
		}
		ev := dto.ToDomain()
		if ev.CourierID == "" {
			return Permanent(errors.New("courier event without courier_id"))
		}
		if c.handle.Courier == nil {
			return nil
		}
		return c.handle.Courier(ctx, ev)
	default:
		return Permanent(errors.New("unexpected topic " + topic))
	}
}

package kafka

import (
	"strings"
	"time"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/events"
)

// OrderEventDTO is the wire form of an order stream event.
type OrderEventDTO struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToDomain converts OrderEventDTO to events.OrderEvent.
func (dto OrderEventDTO) ToDomain() events.OrderEvent {
	return events.OrderEvent{
		OrderID:   strings.TrimSpace(dto.OrderID),
		Status:    strings.TrimSpace(dto.Status),
		CreatedAt: dto.CreatedAt,
	}
}

// CourierEventDTO is the wire form of a courier stream event.
type CourierEventDTO struct {
	CourierID string    `json:"courier_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToDomain converts CourierEventDTO to events.CourierEvent.
func (dto CourierEventDTO) ToDomain() events.CourierEvent {
	return events.CourierEvent{
		CourierID: strings.TrimSpace(dto.CourierID),
		Status:    strings.TrimSpace(dto.Status),
		CreatedAt: dto.CreatedAt,
	}
}

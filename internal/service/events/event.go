package events

import "time"

// OrderEvent is a single order lifecycle event from the order stream.
type OrderEvent struct {
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CourierEvent is a single courier availability event from the courier
// stream.
type CourierEvent struct {
	CourierID string    `json:"courier_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

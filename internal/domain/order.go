package domain

import "time"

// Order represents an order for delivery, owned by the order store.
// The engine mutates only Status, Priority, AttemptCount, AssignedCourierID
// and FailureReason.
type Order struct {
	ID              string
	CustomerID      string
	StoreID         string
	StoreLocation   *Point
	DeliveryAddress string
	DeliveryLocation *Point
	City            string
	TotalPrice      float64
	Status          OrderStatus
	Priority        int
	AttemptCount    int
	AssignedCourierID *string
	FailureReason   string
	CreatedAt       time.Time
}

// CanBeAssigned reports whether the order may receive a courier.
func (o *Order) CanBeAssigned() bool {
	return o.Status.Dispatchable() && o.AssignedCourierID == nil
}

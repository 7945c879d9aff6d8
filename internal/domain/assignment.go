package domain

import "time"

// Assignment - durable record binding an order to the courier that claimed it.
// At most one assignment per order may be in a non-terminal status; the
// claim transaction in the ledger enforces that.
type Assignment struct {
	ID          string
	OrderID     string
	CourierID   string
	Status      AssignmentStatus
	AssignedAt  time.Time
	AcceptedAt  *time.Time
	PickedUpAt  *time.Time
	OnTheWayAt  *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// ClaimResult - struct representing the outcome of a claim attempt.
type ClaimResult struct {
	Claimed    bool
	Reason     string
	Assignment *Assignment
}

// Claim rejection reasons returned to the losing courier.
const (
	ReasonAlreadyAssigned = "already_assigned"
	ReasonNotDispatchable = "not_dispatchable"
	ReasonCourierBusy     = "courier_busy"
)

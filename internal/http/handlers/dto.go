package handlers

import (
	"time"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

type claimRequest struct {
	CourierID string `json:"courier_id"`
}

type claimResponse struct {
	Claimed    bool                `json:"claimed"`
	Reason     string              `json:"reason,omitempty"`
	Assignment *assignmentResponse `json:"assignment,omitempty"`
}

type assignmentResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	CourierID   string     `json:"courier_id"`
	Status      string     `json:"status"`
	AssignedAt  time.Time  `json:"assigned_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	OnTheWayAt  *time.Time `json:"on_the_way_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type availabilityRequest struct {
	Available *bool         `json:"available"`
	Location  *domain.Point `json:"location,omitempty"`
	City      *string       `json:"city,omitempty"`
}

type orderResponse struct {
	ID                string        `json:"id"`
	CustomerID        string        `json:"customer_id"`
	StoreID           string        `json:"store_id"`
	StoreLocation     *domain.Point `json:"store_location,omitempty"`
	DeliveryAddress   string        `json:"delivery_address,omitempty"`
	DeliveryLocation  *domain.Point `json:"delivery_location,omitempty"`
	City              string        `json:"city,omitempty"`
	TotalPrice        float64       `json:"total_price"`
	Status            string        `json:"status"`
	Priority          int           `json:"priority"`
	AttemptCount      int           `json:"attempt_count"`
	AssignedCourierID *string       `json:"assigned_courier_id,omitempty"`
	FailureReason     string        `json:"failure_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	Queued            bool          `json:"queued"`
}

package handlers

import "github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"

func assignmentToResponse(a *domain.Assignment) *assignmentResponse {
	if a == nil {
		return nil
	}
	return &assignmentResponse{
		ID:          a.ID,
		OrderID:     a.OrderID,
		CourierID:   a.CourierID,
		Status:      string(a.Status),
		AssignedAt:  a.AssignedAt,
		AcceptedAt:  a.AcceptedAt,
		PickedUpAt:  a.PickedUpAt,
		OnTheWayAt:  a.OnTheWayAt,
		DeliveredAt: a.DeliveredAt,
		CancelledAt: a.CancelledAt,
	}
}

func claimResultToResponse(res domain.ClaimResult) claimResponse {
	return claimResponse{
		Claimed:    res.Claimed,
		Reason:     res.Reason,
		Assignment: assignmentToResponse(res.Assignment),
	}
}

func orderToResponse(o *domain.Order, queued bool) orderResponse {
	return orderResponse{
		ID:                o.ID,
		CustomerID:        o.CustomerID,
		StoreID:           o.StoreID,
		StoreLocation:     o.StoreLocation,
		DeliveryAddress:   o.DeliveryAddress,
		DeliveryLocation:  o.DeliveryLocation,
		City:              o.City,
		TotalPrice:        o.TotalPrice,
		Status:            string(o.Status),
		Priority:          o.Priority,
		AttemptCount:      o.AttemptCount,
		AssignedCourierID: o.AssignedCourierID,
		FailureReason:     o.FailureReason,
		CreatedAt:         o.CreatedAt,
		Queued:            queued,
	}
}

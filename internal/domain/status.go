package domain

type (
	// OrderStatus represents the lifecycle status of an order.
	OrderStatus string
	// AssignmentStatus represents the status of a delivery assignment.
	AssignmentStatus string
)

// List of possible order statuses
const (
	OrderPending        OrderStatus = "pending"
	OrderProcessing     OrderStatus = "processing"
	OrderReadyForPickup OrderStatus = "ready_for_pickup"
	OrderAssigned       OrderStatus = "assigned"
	OrderPickedUp       OrderStatus = "picked_up"
	OrderOnTheWay       OrderStatus = "on_the_way"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderDeliveryFailed OrderStatus = "delivery_failed"
)

// List of possible assignment statuses
const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentPickedUp  AssignmentStatus = "picked_up"
	AssignmentOnTheWay  AssignmentStatus = "on_the_way"
	AssignmentDelivered AssignmentStatus = "delivered"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

var allowedOrderStatuses = [...]OrderStatus{
	OrderPending, OrderProcessing, OrderReadyForPickup, OrderAssigned,
	OrderPickedUp, OrderOnTheWay, OrderDelivered, OrderCancelled, OrderDeliveryFailed,
}

var allowedAssignmentStatuses = [...]AssignmentStatus{
	AssignmentAssigned, AssignmentAccepted, AssignmentPickedUp,
	AssignmentOnTheWay, AssignmentDelivered, AssignmentCancelled,
}

// DispatchableStatuses are the order statuses eligible for queue entry.
// An order leaves this set exactly once: through the claim CAS or a
// terminal transition.
var DispatchableStatuses = []OrderStatus{OrderProcessing, OrderReadyForPickup}

// Valid checks if the OrderStatus is valid
func (s OrderStatus) Valid() bool {
	for _, v := range allowedOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the order status is terminal.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderDelivered, OrderCancelled, OrderDeliveryFailed:
		return true
	default:
		return false
	}
}

// Dispatchable reports whether an order in this status may enter the
// assignment queue.
func (s OrderStatus) Dispatchable() bool {
	for _, v := range DispatchableStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid checks if the AssignmentStatus is valid
func (s AssignmentStatus) Valid() bool {
	for _, v := range allowedAssignmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the assignment status is terminal.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentDelivered || s == AssignmentCancelled
}

// assigned → accepted → picked_up → on_the_way → delivered;
// cancellation is permitted from any non-terminal state.
var assignmentNext = map[AssignmentStatus]AssignmentStatus{
	AssignmentAssigned: AssignmentAccepted,
	AssignmentAccepted: AssignmentPickedUp,
	AssignmentPickedUp: AssignmentOnTheWay,
	AssignmentOnTheWay: AssignmentDelivered,
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	if next == AssignmentCancelled {
		return !s.Terminal()
	}
	return assignmentNext[s] == next
}

// OrderStatusFor maps an assignment status to the order status it implies.
func OrderStatusFor(s AssignmentStatus) (OrderStatus, bool) {
	switch s {
	case AssignmentAssigned, AssignmentAccepted:
		return OrderAssigned, true
	case AssignmentPickedUp:
		return OrderPickedUp, true
	case AssignmentOnTheWay:
		return OrderOnTheWay, true
	case AssignmentDelivered:
		return OrderDelivered, true
	default:
		return "", false
	}
}

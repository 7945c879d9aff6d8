package claimtx

import (
	"context"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

// Repository is the set of writes available inside a claim transaction.
// ClaimOrder is the conditional write the whole engine leans on: it moves
// the order out of the dispatchable set and records the courier in one
// statement, so concurrent claimers cannot both observe a claimable order.
type Repository interface {
	ClaimOrder(ctx context.Context, orderID, courierID string) (bool, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetCourierForUpdate(ctx context.Context, courierID string) (*domain.Courier, error)
	InsertAssignment(ctx context.Context, a *domain.Assignment) error
	GetAssignmentForUpdate(ctx context.Context, assignmentID string) (*domain.Assignment, error)
	SetAssignmentStatus(ctx context.Context, a *domain.Assignment) error
	SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	ReleaseOrder(ctx context.Context, orderID string) (bool, error)
	AddCourierActiveJobs(ctx context.Context, courierID string, delta int) error
	IncrementCourierCompleted(ctx context.Context, courierID string) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}

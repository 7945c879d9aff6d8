package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/apperr"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/ports/claimtx"
)

// Service is the assignment ledger: the single place that turns a
// dispatchable order into a claimed one, and the keeper of the assignment
// state machine. Its core guarantee is at-most-one non-terminal assignment
// per order, enforced by the conditional write in claimtx.Repository.
type Service struct {
	repo             claimRunner
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
	newID            func() string
}

// NewService - creates a new ledger Service.
func NewService(repo claimRunner, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		repo:             repo,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            func() string { return uuid.NewString() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// TryClaim attempts to make the courier the assigned courier for the order.
// Exactly one of N concurrent callers succeeds; the rest get a ClaimResult
// with Claimed=false and a reason, not an error. Errors are reserved for
// store failures and unknown ids.
func (s *Service) TryClaim(ctx context.Context, orderID, courierID string) (domain.ClaimResult, error) {
	orderID = strings.TrimSpace(orderID)
	courierID = strings.TrimSpace(courierID)
	if orderID == "" || courierID == "" {
		return domain.ClaimResult{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result domain.ClaimResult

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		courier, err := tx.GetCourierForUpdate(ctx, courierID)
		if err != nil {
			return err
		}
		if courier == nil {
			return fmt.Errorf("courier %q: %w", courierID, apperr.ErrNotFound)
		}
		if !courier.Eligible() {
			result = domain.ClaimResult{Claimed: false, Reason: domain.ReasonCourierBusy}
			return nil
		}

		claimed, err := tx.ClaimOrder(ctx, orderID, courierID)
		if err != nil {
			return err
		}
		if !claimed {
			reason, err := s.rejectionReason(ctx, tx, orderID)
			if err != nil {
				return err
			}
			result = domain.ClaimResult{Claimed: false, Reason: reason}
			return nil
		}

		a := &domain.Assignment{
			ID:         s.newID(),
			OrderID:    orderID,
			CourierID:  courierID,
			Status:     domain.AssignmentAssigned,
			AssignedAt: s.now(),
		}
		if err := tx.InsertAssignment(ctx, a); err != nil {
			return err
		}
		if err := tx.AddCourierActiveJobs(ctx, courierID, 1); err != nil {
			return err
		}

		result = domain.ClaimResult{Claimed: true, Assignment: a}
		return nil
	})
	if err != nil {
		return domain.ClaimResult{}, err
	}

	if result.Claimed {
		s.logger.Info("order claimed",
			logx.String("event", "order_claimed"),
			logx.String("order_id", orderID),
			logx.String("courier_id", courierID),
			logx.String("assignment_id", result.Assignment.ID),
		)
	}

	return result, nil
}

// rejectionReason inspects the order after a failed conditional claim so the
// losing courier gets a useful answer.
func (s *Service) rejectionReason(ctx context.Context, tx claimtx.Repository, orderID string) (string, error) {
	order, err := tx.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", fmt.Errorf("order %q: %w", orderID, apperr.ErrNotFound)
	}
	if order.AssignedCourierID != nil || order.Status == domain.OrderAssigned {
		return domain.ReasonAlreadyAssigned, nil
	}
	return domain.ReasonNotDispatchable, nil
}

// UpdateStatus advances an assignment through its state machine. Illegal
// transitions are rejected with apperr.ErrIllegalTransition; they never
// silently coerce state.
func (s *Service) UpdateStatus(ctx context.Context, assignmentID string, next domain.AssignmentStatus) (*domain.Assignment, error) {
	assignmentID = strings.TrimSpace(assignmentID)
	if assignmentID == "" || !next.Valid() {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var updated *domain.Assignment

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		a, err := tx.GetAssignmentForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("assignment %q: %w", assignmentID, apperr.ErrNotFound)
		}
		if !a.Status.CanTransitionTo(next) {
			return fmt.Errorf("assignment %q: %s -> %s: %w", assignmentID, a.Status, next, apperr.ErrIllegalTransition)
		}

		now := s.now()
		prev := a.Status
		a.Status = next
		switch next {
		case domain.AssignmentAccepted:
			a.AcceptedAt = &now
		case domain.AssignmentPickedUp:
			a.PickedUpAt = &now
		case domain.AssignmentOnTheWay:
			a.OnTheWayAt = &now
		case domain.AssignmentDelivered:
			a.DeliveredAt = &now
		case domain.AssignmentCancelled:
			a.CancelledAt = &now
		}

		if err := tx.SetAssignmentStatus(ctx, a); err != nil {
			return err
		}

		switch next {
		case domain.AssignmentDelivered:
			if err := tx.SetOrderStatus(ctx, a.OrderID, domain.OrderDelivered); err != nil {
				return err
			}
			if err := tx.AddCourierActiveJobs(ctx, a.CourierID, -1); err != nil {
				return err
			}
			if err := tx.IncrementCourierCompleted(ctx, a.CourierID); err != nil {
				return err
			}
		case domain.AssignmentCancelled:
			// put the order back in front of the engine unless it is terminal
			if _, err := tx.ReleaseOrder(ctx, a.OrderID); err != nil {
				return err
			}
			if err := tx.AddCourierActiveJobs(ctx, a.CourierID, -1); err != nil {
				return err
			}
		default:
			if orderStatus, ok := domain.OrderStatusFor(next); ok {
				if err := tx.SetOrderStatus(ctx, a.OrderID, orderStatus); err != nil {
					return err
				}
			}
		}

		s.logger.Info("assignment status updated",
			logx.String("event", "assignment_status"),
			logx.String("assignment_id", a.ID),
			logx.String("order_id", a.OrderID),
			logx.String("from", string(prev)),
			logx.String("to", string(next)),
		)

		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

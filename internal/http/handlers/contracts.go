package handlers

import (
	"context"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/repository"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/ledger"
)

type dispatchUsecase interface {
	Claim(ctx context.Context, orderID, courierID string) (domain.ClaimResult, error)
	Cancel(ctx context.Context, orderID string)
	CourierAvailable(ctx context.Context, courierID string)
	Queued(orderID string) bool
	Stats() dispatch.Stats
}

// NewDispatchUsecase wires the queue manager into a dispatchUsecase.
func NewDispatchUsecase(m *dispatch.Manager) dispatchUsecase {
	return m
}

type ledgerUsecase interface {
	UpdateStatus(ctx context.Context, assignmentID string, next domain.AssignmentStatus) (*domain.Assignment, error)
}

// NewLedgerUsecase wires the assignment ledger into a ledgerUsecase.
func NewLedgerUsecase(svc *ledger.Service) ledgerUsecase {
	return svc
}

type courierDirectory interface {
	Get(ctx context.Context, id string) (*domain.Courier, error)
	UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
}

// NewCourierDirectory wires the courier repository into a courierDirectory.
func NewCourierDirectory(repo *repository.CourierRepo) courierDirectory {
	return repo
}

type orderStore interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

// NewOrderStore wires the order repository into an orderStore.
func NewOrderStore(repo *repository.OrderRepo) orderStore {
	return repo
}

type assignmentReader interface {
	ActiveByCourier(ctx context.Context, courierID string) ([]domain.Assignment, error)
}

// NewAssignmentReader wires the assignment repository into an assignmentReader.
func NewAssignmentReader(repo *repository.AssignmentRepo) assignmentReader {
	return repo
}

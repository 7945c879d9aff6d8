//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/ports/claimtx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/repository"
)

type AssignmentRepositorySuite struct {
	suite.Suite
	pool   *pgxpool.Pool
	repo   *repository.AssignmentRepo
	orders *repository.OrderRepo
}

func (s *AssignmentRepositorySuite) SetupSuite() {
	s.Require().NotNil(tcPool, "tcPool must be initialized in TestMain")

	s.pool = tcPool
	s.repo = repository.NewAssignmentRepo(tcPool)
	s.orders = repository.NewOrderRepo(tcPool)
}

func (s *AssignmentRepositorySuite) SetupTest() {
	ctx := context.Background()
	_, err := s.pool.Exec(ctx, `TRUNCATE assignments, orders, couriers CASCADE`)
	s.Require().NoError(err)
}

func (s *AssignmentRepositorySuite) seedClaimable(orderID string, courierIDs ...string) {
	ctx := context.Background()
	s.Require().NoError(seedOrder(ctx, s.pool, orderSeed{
		id: orderID, status: string(domain.OrderReadyForPickup),
	}))
	for _, id := range courierIDs {
		s.Require().NoError(seedCourier(ctx, s.pool, courierSeed{
			id: id, available: true, capacity: 3,
		}))
	}
}

func (s *AssignmentRepositorySuite) claim(orderID, courierID string) bool {
	var claimed bool
	err := s.repo.WithTx(context.Background(), func(tx claimtx.Repository) error {
		ok, err := tx.ClaimOrder(context.Background(), orderID, courierID)
		if err != nil {
			return err
		}
		claimed = ok
		return nil
	})
	s.Require().NoError(err)
	return claimed
}

func (s *AssignmentRepositorySuite) TestClaimOrder_FirstWins() {
	s.seedClaimable("order-1", "courier-a", "courier-b")

	s.True(s.claim("order-1", "courier-a"))
	s.False(s.claim("order-1", "courier-b"), "second claim must match zero rows")

	got, err := s.orders.Get(context.Background(), "order-1")
	s.Require().NoError(err)
	s.Equal(domain.OrderAssigned, got.Status)
	s.Require().NotNil(got.AssignedCourierID)
	s.Equal("courier-a", *got.AssignedCourierID)
}

func (s *AssignmentRepositorySuite) TestClaimOrder_ConcurrentSingleWinner() {
	couriers := []string{"c-1", "c-2", "c-3", "c-4"}
	s.seedClaimable("order-1", couriers...)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []string
	)
	for _, id := range couriers {
		wg.Add(1)
		go func(courierID string) {
			defer wg.Done()
			err := s.repo.WithTx(context.Background(), func(tx claimtx.Repository) error {
				ok, err := tx.ClaimOrder(context.Background(), "order-1", courierID)
				if err != nil {
					return err
				}
				if ok {
					mu.Lock()
					wins = append(wins, courierID)
					mu.Unlock()
				}
				return nil
			})
			s.NoError(err)
		}(id)
	}
	wg.Wait()

	s.Len(wins, 1, "exactly one courier may win the claim race")
}

func (s *AssignmentRepositorySuite) TestWithTx_RollbackOnError() {
	s.seedClaimable("order-1", "courier-a")
	err := s.repo.WithTx(context.Background(), func(tx claimtx.Repository) error {
		ok, err := tx.ClaimOrder(context.Background(), "order-1", "courier-a")
		s.Require().NoError(err)
		s.Require().True(ok)
		return context.DeadlineExceeded
	})
	s.Require().ErrorIs(err, context.DeadlineExceeded)

	got, err := s.orders.Get(context.Background(), "order-1")
	s.Require().NoError(err)
	s.Equal(domain.OrderReadyForPickup, got.Status, "rolled-back claim must not stick")
	s.Nil(got.AssignedCourierID)
}

func (s *AssignmentRepositorySuite) TestClaimTransaction_FullLedgerWrite() {
	s.seedClaimable("order-1", "courier-a")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		ok, err := tx.ClaimOrder(ctx, "order-1", "courier-a")
		if err != nil {
			return err
		}
		s.Require().True(ok)

		if err := tx.InsertAssignment(ctx, &domain.Assignment{
			ID:         "assignment-1",
			OrderID:    "order-1",
			CourierID:  "courier-a",
			Status:     domain.AssignmentAssigned,
			AssignedAt: now,
		}); err != nil {
			return err
		}
		return tx.AddCourierActiveJobs(ctx, "courier-a", 1)
	})
	s.Require().NoError(err)

	active, err := s.repo.ActiveByCourier(ctx, "courier-a")
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("assignment-1", active[0].ID)
	s.Equal(domain.AssignmentAssigned, active[0].Status)
	s.True(active[0].AssignedAt.Equal(now))

	courier, err := repository.NewCourierRepo(s.pool).Get(ctx, "courier-a")
	s.Require().NoError(err)
	s.Equal(1, courier.ActiveJobs)
}

func (s *AssignmentRepositorySuite) TestAssignmentStatusTransition() {
	s.seedClaimable("order-1", "courier-a")
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		if _, err := tx.ClaimOrder(ctx, "order-1", "courier-a"); err != nil {
			return err
		}
		return tx.InsertAssignment(ctx, &domain.Assignment{
			ID: "assignment-1", OrderID: "order-1", CourierID: "courier-a",
			Status: domain.AssignmentAssigned, AssignedAt: now,
		})
	})
	s.Require().NoError(err)

	err = s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		a, err := tx.GetAssignmentForUpdate(ctx, "assignment-1")
		if err != nil {
			return err
		}
		s.Require().NotNil(a)

		accepted := now.Add(time.Minute)
		a.Status = domain.AssignmentAccepted
		a.AcceptedAt = &accepted
		if err := tx.SetAssignmentStatus(ctx, a); err != nil {
			return err
		}
		return tx.SetOrderStatus(ctx, a.OrderID, domain.OrderAssigned)
	})
	s.Require().NoError(err)

	active, err := s.repo.ActiveByCourier(ctx, "courier-a")
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(domain.AssignmentAccepted, active[0].Status)
	s.Require().NotNil(active[0].AcceptedAt)
}

func (s *AssignmentRepositorySuite) TestReleaseOrder() {
	ctx := context.Background()
	s.Require().NoError(seedOrder(ctx, s.pool, orderSeed{
		id: "order-1", status: string(domain.OrderAssigned), courierID: str("courier-a"),
	}))

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		released, err := tx.ReleaseOrder(ctx, "order-1")
		if err != nil {
			return err
		}
		s.True(released)
		return nil
	})
	s.Require().NoError(err)

	got, err := s.orders.Get(ctx, "order-1")
	s.Require().NoError(err)
	s.Equal(domain.OrderReadyForPickup, got.Status)
	s.Nil(got.AssignedCourierID)
}

func (s *AssignmentRepositorySuite) TestReleaseOrder_TerminalIsNoop() {
	ctx := context.Background()
	s.Require().NoError(seedOrder(ctx, s.pool, orderSeed{
		id: "order-1", status: string(domain.OrderDelivered), courierID: str("courier-a"),
	}))

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		released, err := tx.ReleaseOrder(ctx, "order-1")
		if err != nil {
			return err
		}
		s.False(released)
		return nil
	})
	s.Require().NoError(err)

	got, err := s.orders.Get(ctx, "order-1")
	s.Require().NoError(err)
	s.Equal(domain.OrderDelivered, got.Status)
}

func (s *AssignmentRepositorySuite) TestCourierCounters() {
	ctx := context.Background()
	s.Require().NoError(seedCourier(ctx, s.pool, courierSeed{
		id: "courier-a", available: true, active: 1,
	}))

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		if err := tx.AddCourierActiveJobs(ctx, "courier-a", -1); err != nil {
			return err
		}
		// a second decrement clamps at zero instead of going negative
		if err := tx.AddCourierActiveJobs(ctx, "courier-a", -1); err != nil {
			return err
		}
		return tx.IncrementCourierCompleted(ctx, "courier-a")
	})
	s.Require().NoError(err)

	courier, err := repository.NewCourierRepo(s.pool).Get(ctx, "courier-a")
	s.Require().NoError(err)
	s.Equal(0, courier.ActiveJobs)
	s.Equal(1, courier.CompletedJobs)
}

func (s *AssignmentRepositorySuite) TestActiveByCourier_ExcludesTerminal() {
	ctx := context.Background()
	s.seedClaimable("order-1", "courier-a")
	s.Require().NoError(seedOrder(ctx, s.pool, orderSeed{
		id: "order-2", status: string(domain.OrderReadyForPickup),
	}))
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := s.repo.WithTx(ctx, func(tx claimtx.Repository) error {
		if err := tx.InsertAssignment(ctx, &domain.Assignment{
			ID: "a-live", OrderID: "order-1", CourierID: "courier-a",
			Status: domain.AssignmentOnTheWay, AssignedAt: now,
		}); err != nil {
			return err
		}
		return tx.InsertAssignment(ctx, &domain.Assignment{
			ID: "a-done", OrderID: "order-2", CourierID: "courier-a",
			Status: domain.AssignmentDelivered, AssignedAt: now.Add(-time.Hour),
		})
	})
	s.Require().NoError(err)

	active, err := s.repo.ActiveByCourier(ctx, "courier-a")
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("a-live", active[0].ID)
}

func TestAssignmentRepositorySuite(t *testing.T) {
	suite.Run(t, new(AssignmentRepositorySuite))
}

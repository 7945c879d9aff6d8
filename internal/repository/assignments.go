package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/ports/claimtx"
)

// AssignmentRepo represents the assignment ledger storage.
type AssignmentRepo struct {
	db *pgxpool.Pool
}

// NewAssignmentRepo creates a new AssignmentRepo.
func NewAssignmentRepo(db *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *AssignmentRepo) WithTx(ctx context.Context, fn func(tx claimtx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			err = tx.Rollback(ctx)
			if err != nil {
				panic(err)
			}
			panic(p)
		}
	}()

	wrapped := &TxRepo{tx: tx}

	if err := fn(wrapped); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// ActiveByCourier returns the courier's non-terminal assignments.
func (r *AssignmentRepo) ActiveByCourier(ctx context.Context, courierID string) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE courier_id = $1 AND NOT (status = ANY($2))
        ORDER BY assigned_at DESC
    `, courierID, terminalAssignmentStatuses())
	if err != nil {
		return nil, fmt.Errorf("active assignments for courier %q: %w", courierID, err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// TxRepo represents a claim transaction.
type TxRepo struct {
	tx pgx.Tx
}

var _ claimtx.Repository = (*TxRepo)(nil)

const assignmentColumns = `
    id, order_id, courier_id, status, assigned_at,
    accepted_at, picked_up_at, on_the_way_at, delivered_at, cancelled_at
`

func scanAssignment(row interface{ Scan(...any) error }) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(
		&a.ID, &a.OrderID, &a.CourierID, &a.Status, &a.AssignedAt,
		&a.AcceptedAt, &a.PickedUpAt, &a.OnTheWayAt, &a.DeliveredAt, &a.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ClaimOrder is the conditional write behind TryClaim: one UPDATE that only
// succeeds while the order is still dispatchable and unassigned. With two
// concurrent claim transactions the second blocks on the row lock and then
// matches zero rows.
func (r *TxRepo) ClaimOrder(ctx context.Context, orderID, courierID string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE orders
        SET status = $3,
            assigned_courier_id = $2,
            updated_at = now()
        WHERE id = $1
          AND status = ANY($4)
          AND assigned_courier_id IS NULL
    `, orderID, courierID, string(domain.OrderAssigned), statusStrings(domain.DispatchableStatuses))
	if err != nil {
		return false, fmt.Errorf("claim order %q: %w", orderID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// GetOrder - get order inside the transaction.
func (r *TxRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	o, err := scanOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", orderID, err)
	}
	return o, nil
}

// GetCourierForUpdate locks the courier row for the rest of the transaction.
func (r *TxRepo) GetCourierForUpdate(ctx context.Context, courierID string) (*domain.Courier, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE id = $1 FOR UPDATE`, courierID)
	c, err := scanCourier(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier %q for update: %w", courierID, err)
	}
	return c, nil
}

// InsertAssignment - insert the ledger row created at claim time.
func (r *TxRepo) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO assignments (id, order_id, courier_id, status, assigned_at)
        VALUES ($1, $2, $3, $4, $5)
    `, a.ID, a.OrderID, a.CourierID, string(a.Status), a.AssignedAt)
	if err != nil {
		return fmt.Errorf("insert assignment for order %q: %w", a.OrderID, err)
	}
	return nil
}

// GetAssignmentForUpdate locks the assignment row for a status transition.
func (r *TxRepo) GetAssignmentForUpdate(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1 FOR UPDATE`, assignmentID)
	a, err := scanAssignment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment %q for update: %w", assignmentID, err)
	}
	return a, nil
}

// SetAssignmentStatus persists the assignment's status and transition timestamps.
func (r *TxRepo) SetAssignmentStatus(ctx context.Context, a *domain.Assignment) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE assignments
        SET status = $2,
            accepted_at = $3, picked_up_at = $4, on_the_way_at = $5,
            delivered_at = $6, cancelled_at = $7
        WHERE id = $1
    `, a.ID, string(a.Status), a.AcceptedAt, a.PickedUpAt, a.OnTheWayAt, a.DeliveredAt, a.CancelledAt)
	if err != nil {
		return fmt.Errorf("set assignment %q status: %w", a.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("assignment %q not found", a.ID)
	}
	return nil
}

// SetOrderStatus mirrors an assignment transition onto the order.
func (r *TxRepo) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
    `, orderID, string(status))
	if err != nil {
		return fmt.Errorf("set order %q status: %w", orderID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("order %q not found", orderID)
	}
	return nil
}

// ReleaseOrder puts a claimed order back into the dispatchable set after its
// assignment was cancelled. Terminal orders are left alone.
func (r *TxRepo) ReleaseOrder(ctx context.Context, orderID string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `
        UPDATE orders
        SET status = $2, assigned_courier_id = NULL, updated_at = now()
        WHERE id = $1 AND NOT (status = ANY($3))
    `, orderID, string(domain.OrderReadyForPickup), terminalOrderStatuses())
	if err != nil {
		return false, fmt.Errorf("release order %q: %w", orderID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// AddCourierActiveJobs adjusts the courier's active job count.
func (r *TxRepo) AddCourierActiveJobs(ctx context.Context, courierID string, delta int) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET active_jobs = greatest(active_jobs + $2, 0), updated_at = now()
        WHERE id = $1
    `, courierID, delta)
	if err != nil {
		return fmt.Errorf("adjust active jobs for courier %q: %w", courierID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier %q not found", courierID)
	}
	return nil
}

// IncrementCourierCompleted bumps the courier's completed-job counter.
func (r *TxRepo) IncrementCourierCompleted(ctx context.Context, courierID string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE couriers
        SET completed_jobs = completed_jobs + 1, updated_at = now()
        WHERE id = $1
    `, courierID)
	if err != nil {
		return fmt.Errorf("increment completed jobs for courier %q: %w", courierID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("courier %q not found", courierID)
	}
	return nil
}

func terminalAssignmentStatuses() []string {
	return []string{
		string(domain.AssignmentDelivered),
		string(domain.AssignmentCancelled),
	}
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

// OrderRepo represents the order store consumed by the dispatch engine.
type OrderRepo struct {
	db *pgxpool.Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(db *pgxpool.Pool) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `
    id, customer_id, store_id,
    store_lat, store_lon, delivery_address, delivery_lat, delivery_lon,
    city, total_price, status, priority, attempt_count,
    assigned_courier_id, failure_reason, created_at
`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var (
		o                  domain.Order
		storeLat, storeLon *float64
		dstLat, dstLon     *float64
		failureReason      *string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.StoreID,
		&storeLat, &storeLon, &o.DeliveryAddress, &dstLat, &dstLon,
		&o.City, &o.TotalPrice, &o.Status, &o.Priority, &o.AttemptCount,
		&o.AssignedCourierID, &failureReason, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if storeLat != nil && storeLon != nil {
		o.StoreLocation = &domain.Point{Lat: *storeLat, Lon: *storeLon}
	}
	if dstLat != nil && dstLon != nil {
		o.DeliveryLocation = &domain.Point{Lat: *dstLat, Lon: *dstLon}
	}
	if failureReason != nil {
		o.FailureReason = *failureReason
	}
	return &o, nil
}

// Get - returns order by its ID.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %q: %w", id, err)
	}
	return o, nil
}

// ListDispatchable returns every order still waiting for a courier, highest
// priority first. The engine rebuilds its queue from this set at startup.
func (r *OrderRepo) ListDispatchable(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE status = ANY($1) AND assigned_courier_id IS NULL
        ORDER BY priority DESC, created_at ASC
    `, statusStrings(domain.DispatchableStatuses))
	if err != nil {
		return nil, fmt.Errorf("list dispatchable orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispatchable order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Escalate raises the order's priority and attempt count after a timed-out
// broadcast cycle. Only dispatchable orders are touched; returns false when
// the order already left the dispatchable set (claimed or cancelled).
func (r *OrderRepo) Escalate(ctx context.Context, id string) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE orders
        SET priority = priority + 1,
            attempt_count = attempt_count + 1,
            updated_at = now()
        WHERE id = $1 AND status = ANY($2) AND assigned_courier_id IS NULL
    `, id, statusStrings(domain.DispatchableStatuses))
	if err != nil {
		return false, fmt.Errorf("escalate order %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// MarkFailed transitions a dispatchable order to delivery_failed with the
// given reason. Returns false if the order is no longer dispatchable, which
// makes terminal failure exactly-once under claim races.
func (r *OrderRepo) MarkFailed(ctx context.Context, id, reason string) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE orders
        SET status = $3,
            failure_reason = $2,
            failed_at = now(),
            updated_at = now()
        WHERE id = $1 AND status = ANY($4) AND assigned_courier_id IS NULL
    `, id, reason, string(domain.OrderDeliveryFailed), statusStrings(domain.DispatchableStatuses))
	if err != nil {
		return false, fmt.Errorf("mark order %q failed: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// Cancel transitions the order to cancelled unless it is already terminal.
// Cancelling a terminal order is a no-op, not an error.
func (r *OrderRepo) Cancel(ctx context.Context, id string) (bool, error) {
	ct, err := r.db.Exec(ctx, `
        UPDATE orders
        SET status = $2, updated_at = now()
        WHERE id = $1 AND NOT (status = ANY($3))
    `, id, string(domain.OrderCancelled), terminalOrderStatuses())
	if err != nil {
		return false, fmt.Errorf("cancel order %q: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

func terminalOrderStatuses() []string {
	return []string{
		string(domain.OrderDelivered),
		string(domain.OrderCancelled),
		string(domain.OrderDeliveryFailed),
	}
}

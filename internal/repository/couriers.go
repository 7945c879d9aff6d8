package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/apperr"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

// CourierRepo represents the courier directory.
type CourierRepo struct{ db *pgxpool.Pool }

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *pgxpool.Pool) *CourierRepo { return &CourierRepo{db: db} }

const courierColumns = `
    id, name, phone, lat, lon, city, available,
    active_jobs, max_concurrent_jobs, rating, completed_jobs
`

func scanCourier(row interface{ Scan(...any) error }) (*domain.Courier, error) {
	var (
		c        domain.Courier
		lat, lon *float64
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Phone, &lat, &lon, &c.City, &c.Available,
		&c.ActiveJobs, &c.MaxConcurrentJobs, &c.Rating, &c.CompletedJobs,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		c.Location = &domain.Point{Lat: *lat, Lon: *lon}
	}
	return &c, nil
}

// Get - returns courier by its ID.
func (r *CourierRepo) Get(ctx context.Context, id string) (*domain.Courier, error) {
	row := r.db.QueryRow(ctx, `SELECT `+courierColumns+` FROM couriers WHERE id = $1`, id)
	c, err := scanCourier(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get courier %q: %w", id, err)
	}
	return c, nil
}

// FindAvailableNear returns available couriers with free capacity inside a
// bounding box around origin. The box over-approximates the radius; the geo
// service applies the exact haversine cut afterwards.
func (r *CourierRepo) FindAvailableNear(ctx context.Context, origin domain.Point, radiusMeters float64, limit int) ([]domain.Courier, error) {
	latDelta := radiusMeters / 111320.0
	lonDelta := latDelta
	if cos := math.Cos(origin.Lat * math.Pi / 180); cos > 0.01 {
		lonDelta = latDelta / cos
	}

	rows, err := r.db.Query(ctx, `
        SELECT `+courierColumns+`
        FROM couriers
        WHERE available = true
          AND active_jobs < max_concurrent_jobs
          AND lat IS NOT NULL AND lon IS NOT NULL
          AND lat BETWEEN $1 AND $2
          AND lon BETWEEN $3 AND $4
        ORDER BY id
        LIMIT $5
    `, origin.Lat-latDelta, origin.Lat+latDelta, origin.Lon-lonDelta, origin.Lon+lonDelta, limit)
	if err != nil {
		return nil, fmt.Errorf("find couriers near (%f,%f): %w", origin.Lat, origin.Lon, err)
	}
	defer rows.Close()
	return collectCouriers(rows)
}

// FindAvailableInCity is the non-geo fallback: available couriers with free
// capacity whose declared service area matches the city.
func (r *CourierRepo) FindAvailableInCity(ctx context.Context, city string, limit int) ([]domain.Courier, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+courierColumns+`
        FROM couriers
        WHERE available = true
          AND active_jobs < max_concurrent_jobs
          AND city = $1
        ORDER BY id
        LIMIT $2
    `, city, limit)
	if err != nil {
		return nil, fmt.Errorf("find couriers in city %q: %w", city, err)
	}
	defer rows.Close()
	return collectCouriers(rows)
}

func collectCouriers(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Courier, error) {
	var out []domain.Courier
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan courier: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// UpdatePartial applies a partial update to a courier and returns true if a row was affected.
func (r *CourierRepo) UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error) {
	var lat, lon *float64
	if u.Location != nil {
		lat, lon = &u.Location.Lat, &u.Location.Lon
	}
	ct, err := r.db.Exec(ctx, `
        UPDATE couriers
        SET
            available = COALESCE($2, available),
            lat       = COALESCE($3, lat),
            lon       = COALESCE($4, lon),
            city      = COALESCE($5, city),
            updated_at = now()
        WHERE id = $1
    `, u.ID, u.Available, lat, lon, u.City)
	if err != nil {
		if IsDuplicate(err) {
			return false, apperr.ErrConflict
		}
		return false, fmt.Errorf("update courier %q: %w", u.ID, err)
	}
	return ct.RowsAffected() > 0, nil
}

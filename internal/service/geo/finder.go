package geo

import (
	"context"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

// Finder looks up candidate couriers for an order.
type Finder struct {
	directory courierDirectory
	radius    float64
	limit     int
	logger    logx.Logger
}

// NewFinder creates a Finder with the given search radius (meters) and
// candidate cap.
func NewFinder(directory courierDirectory, radiusMeters float64, limit int, logger logx.Logger) *Finder {
	if limit <= 0 {
		limit = 20
	}
	return &Finder{directory: directory, radius: radiusMeters, limit: limit, logger: logger}
}

// FindCandidates returns available couriers with free capacity near the
// order's store. When the store has no coordinates the lookup falls back to
// couriers serving the order's city; the fallback is deliberate, the engine
// must not treat a location-less store as "no couriers". An empty result is
// a valid answer, never an error.
func (f *Finder) FindCandidates(ctx context.Context, order *domain.Order) ([]domain.Courier, error) {
	if order.StoreLocation == nil {
		return f.cityFallback(ctx, order)
	}

	couriers, err := f.directory.FindAvailableNear(ctx, *order.StoreLocation, f.radius, f.limit)
	if err != nil {
		return nil, err
	}

	// the directory's bounding box over-approximates the radius
	out := couriers[:0]
	for _, c := range couriers {
		if domain.Distance(c.Location, order.StoreLocation) <= f.radius {
			out = append(out, c)
		}
	}

	if len(out) == 0 && order.City != "" {
		return f.cityFallback(ctx, order)
	}
	return out, nil
}

func (f *Finder) cityFallback(ctx context.Context, order *domain.Order) ([]domain.Courier, error) {
	if order.City == "" {
		return nil, nil
	}
	couriers, err := f.directory.FindAvailableInCity(ctx, order.City, f.limit)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("geo fallback to city match",
		logx.String("order_id", order.ID),
		logx.String("city", order.City),
		logx.Int("candidates", len(couriers)),
	)
	return couriers, nil
}

package geo

import (
	"context"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
)

type courierDirectory interface {
	FindAvailableNear(ctx context.Context, origin domain.Point, radiusMeters float64, limit int) ([]domain.Courier, error)
	FindAvailableInCity(ctx context.Context, city string, limit int) ([]domain.Courier, error)
}

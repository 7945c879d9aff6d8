package dispatch

import (
	"context"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/gateway/notify"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/rank"
)

type candidateFinder interface {
	FindCandidates(ctx context.Context, order *domain.Order) ([]domain.Courier, error)
}

type candidateRanker interface {
	Rank(candidates []domain.Courier, order *domain.Order) []rank.Candidate
}

type orderStore interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListDispatchable(ctx context.Context) ([]domain.Order, error)
	Escalate(ctx context.Context, id string) (bool, error)
	MarkFailed(ctx context.Context, id, reason string) (bool, error)
}

type claimer interface {
	TryClaim(ctx context.Context, orderID, courierID string) (domain.ClaimResult, error)
}

// notifier is the push channel to couriers, customers and admins. Delivery
// failures are the gateway's problem (it retries internally); the engine
// only logs them.
type notifier interface {
	Broadcast(ctx context.Context, courierID string, b notify.Broadcast) error
	NotifyClaimed(ctx context.Context, courierIDs []string, orderID string) error
	NotifyFailed(ctx context.Context, customerID, orderID, reason string) error
	NotifyAdmins(ctx context.Context, event string, payload any) error
}

package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/config"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/gateway/notify"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/metrics"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/repository"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/geo"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/ledger"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/rank"
)

type notifyGatewayIn struct {
	dig.In
	Cfg     *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"notify_retries_total"`
}

// newNotifyGateway builds the retrying notification gateway. Deployments
// without a notification service base URL get a nil gateway; the manager
// falls back to no-op pushes.
func newNotifyGateway(in notifyGatewayIn) *notify.RetryingGateway {
	base := notify.NewHTTPGateway(in.Cfg.Notify.BaseURL, nil)
	if base == nil {
		return nil
	}
	return notify.NewRetryingGateway(base, in.Logger, in.Retries, notify.RetryConfig{
		MaxAttempts: in.Cfg.Notify.MaxAttempts,
		BaseDelay:   in.Cfg.Notify.BaseDelay,
		MaxDelay:    in.Cfg.Notify.MaxDelay,
	})
}

func newDispatchManager(
	cfg *config.Config,
	finder *geo.Finder,
	ranker *rank.Ranker,
	orders *repository.OrderRepo,
	claims *ledger.Service,
	gateway *notify.RetryingGateway,
	m *metrics.Dispatch,
	logger logx.Logger,
) *dispatch.Manager {
	dc := dispatch.Config{
		MaxAttempts:     cfg.Dispatch.MaxAttempts,
		InitialTimeout:  cfg.Dispatch.InitialTimeout,
		RetryTimeout:    cfg.Dispatch.RetryTimeout,
		MaxTimeout:      cfg.Dispatch.MaxTimeout,
		BonusPerAttempt: cfg.Dispatch.BonusPerAttempt,
		EmptyRetryDelay: cfg.Dispatch.EmptyRetryDelay,
		CriticalWait:    cfg.Dispatch.CriticalWait,
		SweepInterval:   cfg.Dispatch.SweepInterval,
		QueueTTL:        cfg.Dispatch.QueueTTL,
	}
	if gateway == nil {
		return dispatch.NewManager(dc, finder, ranker, orders, claims, nil, m, logger, nil)
	}
	return dispatch.NewManager(dc, finder, ranker, orders, claims, gateway, m, logger, nil)
}

package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/config"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/handlers"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/router"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/repository"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/events"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/geo"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/ledger"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/rank"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns the dispatcher container (engine + HTTP API).
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx, true)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// MustBuildWorker builds and returns the headless worker container (engine +
// stream consumer, no HTTP API).
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.build(ctx, false)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context, withHTTP bool) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerStream(container); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	if withHTTP {
		if err := registerHTTP(container); err != nil {
			return nil, fmt.Errorf("http: %w", err)
		}
	}
	return container, nil
}

// MustBuildContainer builds and returns the dispatcher container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds and returns the worker container.
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		NewLogger,
		config.Load,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		repository.NewCourierRepo,
		repository.NewAssignmentRepo,
		func(cfg *config.Config) *rank.Ranker {
			return rank.New(cfg.Dispatch.SearchRadius)
		},
		newFinder,
		newLedger,
		newNotifyGateway,
		newDispatchManager,
		func(m *dispatch.Manager) events.QueuePort { return m },
		events.NewProcessor,
	)
}

func newFinder(cfg *config.Config, repo *repository.CourierRepo, logger logx.Logger) *geo.Finder {
	return geo.NewFinder(repo, cfg.Dispatch.SearchRadius, cfg.Dispatch.CandidateLimit, logger)
}

func newLedger(repo *repository.AssignmentRepo, logger logx.Logger) *ledger.Service {
	return ledger.NewService(repo, 5*time.Second, logger)
}

func registerStream(container *dig.Container) error {
	return provideAll(container, newKafkaConsumer)
}

func newKafkaConsumer(cfg *config.Config, p *events.Processor, logger logx.Logger) (*kafka.Consumer, error) {
	return kafka.NewConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupID,
		kafka.Topics{Orders: cfg.Kafka.OrdersTopic, Couriers: cfg.Kafka.CouriersTopic},
		kafka.Handlers{Order: p.HandleOrder, Courier: p.HandleCourier},
		logger,
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		handlers.NewDispatchUsecase,
		handlers.NewLedgerUsecase,
		handlers.NewOrderStore,
		handlers.NewAssignmentReader,
		handlers.NewCourierDirectory,
		handlers.NewDispatchHandler,
		handlers.NewAssignmentHandler,
		handlers.NewCourierHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		router.New,
		serverProvider,
	)
}

package app

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/transport/kafka"
)

// WorkerRunner runs the headless dispatch engine.
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the engine using the provided DI container
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

func workerRun(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger logx.Logger,
	manager *dispatch.Manager,
	consumer *kafka.Consumer,
) error {
	defer closeWorker(pool, logger, consumer)

	logger.Info("dispatch worker started")

	errCh := make(chan error, 2)
	go func() { errCh <- manager.Run(ctx) }()
	if consumer != nil {
		go func() { errCh <- consumer.Run(ctx) }()
	}
	return <-errCh
}

func closeWorker(pool *pgxpool.Pool, logger logx.Logger, consumer *kafka.Consumer) {
	if err := consumer.Close(); err != nil {
		logger.Error("kafka close error", logx.Err(err))
	}
	if pool != nil {
		pool.Close()
	}
}

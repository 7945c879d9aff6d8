package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/config"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/pprofserver"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/transport/kafka"
)

// MustRun starts the dispatcher (engine + HTTP API) using the provided DI
// container.
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

func run(container *dig.Container) error {
	return container.Invoke(func(
		ctx context.Context,
		cfg *config.Config,
		server *http.Server,
		pool *pgxpool.Pool,
		logger logx.Logger,
		manager *dispatch.Manager,
		consumer *kafka.Consumer,
	) error {
		engineCtx, stopEngine := context.WithCancel(ctx)
		defer stopEngine()

		startEngine(engineCtx, manager, consumer, logger)
		pprofSrv := startPprof(cfg, logger)
		startServer(server, logger)

		waitForShutdown(ctx, logger)
		stopEngine()
		gracefulShutdown(server, logger, 15*time.Second)
		closeResources(pool, server, pprofSrv, consumer, logger)
		return nil
	})
}

// startEngine runs queue recovery, the sweep loop, and the stream consumer
// in the background.
func startEngine(ctx context.Context, manager *dispatch.Manager, consumer *kafka.Consumer, logger logx.Logger) {
	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("dispatch engine stopped", logx.Err(err))
		}
	}()
	if consumer != nil {
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka consumer stopped", logx.Err(err))
			}
		}()
	}
}

func startPprof(cfg *config.Config, logger logx.Logger) *http.Server {
	if !cfg.Pprof.Enabled {
		return nil
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Pprof.Port),
		Handler:           pprofserver.Handler(pprofserver.Config{User: cfg.Pprof.User, Pass: cfg.Pprof.Pass}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("pprof listening", logx.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("pprof listen error", logx.Err(err))
		}
	}()
	return srv
}

func startServer(server *http.Server, logger logx.Logger) {
	go func() {
		logger.Info("dispatcher listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()
}

func waitForShutdown(ctx context.Context, logger logx.Logger) {
	<-ctx.Done()
	logger.Info("shutting down dispatcher")
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.Err(err))
	}
}

func closeResources(pool *pgxpool.Pool, server, pprofSrv *http.Server, consumer *kafka.Consumer, logger logx.Logger) {
	if err := consumer.Close(); err != nil {
		logger.Warn("kafka close error", logx.Err(err))
	}
	if pprofSrv != nil {
		if err := pprofSrv.Close(); err != nil {
			logger.Warn("pprof close error", logx.Err(err))
		}
	}
	if err := server.Close(); err != nil {
		logger.Warn("server close error", logx.Err(err))
	}
	pool.Close()
}

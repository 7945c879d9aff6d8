package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/config"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/http/handlers"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/service/dispatch"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/transport/kafka"
)

func testAppConfig() *config.Config {
	return &config.Config{
		Port:     8080,
		Dispatch: config.DefaultDispatch(),
		Notify:   config.DefaultNotify(),
	}
}

func setupTestContainer(t *testing.T) *dig.Container {
	t.Helper()

	c := dig.New()

	providers := []struct {
		name     string
		provider any
	}{
		{"context", func() context.Context { return context.Background() }},
		{"logger", func() logx.Logger { return logx.Nop() }},
		{"config", testAppConfig},
		{"pgxpool", func() *pgxpool.Pool { return &pgxpool.Pool{} }},
	}

	for _, p := range providers {
		err := c.Provide(p.provider)
		require.NoErrorf(t, err, "provide %s", p.name)
	}

	require.NoError(t, registerMetrics(c))
	require.NoError(t, registerService(c))
	require.NoError(t, registerStream(c))
	require.NoError(t, registerHTTP(c))

	return c
}

func verifyServer(t *testing.T, srv *http.Server) {
	t.Helper()

	require.NotNil(t, srv, "http.Server is nil")
	require.Equal(t, ":8080", srv.Addr)
	require.Greater(t, srv.ReadHeaderTimeout, time.Duration(0))
	require.Greater(t, srv.ReadTimeout, time.Duration(0))
	require.Greater(t, srv.WriteTimeout, time.Duration(0))
	require.Greater(t, srv.IdleTimeout, time.Duration(0))
}

func TestContainer_ProvidesServerHandlersAndEngine(t *testing.T) {
	t.Parallel()

	c := setupTestContainer(t)

	err := c.Invoke(func(
		srv *http.Server,
		base *handlers.Handlers,
		dispatchHandler *handlers.DispatchHandler,
		assignmentHandler *handlers.AssignmentHandler,
		courierHandler *handlers.CourierHandler,
		manager *dispatch.Manager,
	) {
		verifyServer(t, srv)
		require.NotNil(t, base)
		require.NotNil(t, dispatchHandler)
		require.NotNil(t, assignmentHandler)
		require.NotNil(t, courierHandler)
		require.NotNil(t, manager)
	})
	require.NoError(t, err)
}

func TestContainer_KafkaDisabledWithoutBrokers(t *testing.T) {
	t.Parallel()

	c := setupTestContainer(t)

	err := c.Invoke(func(consumer *kafka.Consumer) {
		require.Nil(t, consumer)
	})
	require.NoError(t, err)
}

func TestProvideAll_Success(t *testing.T) {
	t.Parallel()

	c := dig.New()

	err := provideAll(c,
		func() context.Context { return context.Background() },
		func() time.Duration { return 3 * time.Second },
	)
	require.NoError(t, err)

	err = c.Invoke(func(ctx context.Context, d time.Duration) {
		require.NotNil(t, ctx)
		require.Equal(t, 3*time.Second, d)
	})
	require.NoError(t, err)
}

func TestProvideAll_InvalidProvider(t *testing.T) {
	t.Parallel()

	c := dig.New()

	type bad struct{}
	err := provideAll(c, bad{})
	require.Error(t, err)
}

func TestBuilder_NilOptionsKeepDefaults(t *testing.T) {
	t.Parallel()

	b := NewContainerBuilder().WithDBConnect(nil).WithLogFatalf(nil)
	require.NotNil(t, b.dbConnect)
	require.NotNil(t, b.logFatalf)
}

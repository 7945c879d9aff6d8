package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/metrics"
)

// registerCollector tolerates re-registration so tests can build more than
// one container per process.
func registerCollector(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
	}
}

func registerMetrics(container *dig.Container) error {
	if err := container.Provide(func() prometheus.Counter {
		c := metrics.NewRateLimitExceededTotal()
		registerCollector(c)
		return c
	}, dig.Name("rate_limit_exceeded_total")); err != nil {
		return err
	}
	if err := container.Provide(func() prometheus.Counter {
		c := metrics.NewNotifyRetriesTotal()
		registerCollector(c)
		return c
	}, dig.Name("notify_retries_total")); err != nil {
		return err
	}
	return container.Provide(func() *metrics.Dispatch {
		d := metrics.NewDispatch()
		for _, c := range d.Collectors() {
			registerCollector(c)
		}
		return d
	})
}

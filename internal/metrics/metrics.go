package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewNotifyRetriesTotal returns a Prometheus counter for retry attempts performed by the notification gateway
func NewNotifyRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_retries_total",
		Help: "Total number of retry attempts performed by the notification gateway",
	})
}

// Dispatch groups the dispatch engine collectors.
type Dispatch struct {
	QueueDepth      prometheus.Gauge
	BroadcastsTotal prometheus.Counter
	ClaimsTotal     prometheus.Counter
	ClaimRacesTotal prometheus.Counter
	EscalationsTotal prometheus.Counter
	FailedTotal     prometheus.Counter
}

// NewDispatch returns the dispatch engine collectors.
func NewDispatch() *Dispatch {
	return &Dispatch{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Number of orders currently waiting for a courier",
		}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_broadcasts_total",
			Help: "Total number of broadcast cycles performed",
		}),
		ClaimsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_claims_total",
			Help: "Total number of successful order claims",
		}),
		ClaimRacesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_claim_races_total",
			Help: "Total number of claim attempts lost to a concurrent winner",
		}),
		EscalationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_escalations_total",
			Help: "Total number of timeout escalations",
		}),
		FailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_failed_orders_total",
			Help: "Total number of orders marked delivery_failed after exhausting attempts",
		}),
	}
}

// Collectors returns every dispatch collector for registration.
func (d *Dispatch) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		d.QueueDepth, d.BroadcastsTotal, d.ClaimsTotal,
		d.ClaimRacesTotal, d.EscalationsTotal, d.FailedTotal,
	}
}

package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "dispatch_db",
}

var defaultKafka = Kafka{
	Brokers:       nil, // consumer disabled unless brokers are configured
	GroupID:       "dispatch-engine",
	OrdersTopic:   "orders.events",
	CouriersTopic: "couriers.events",
}

// Timeouts and bonuses mirror the production policy: 10 minutes for the
// first broadcast cycle, then retryTimeout × attempts capped at 30 minutes,
// three cycles total before the order is failed.
var defaultDispatch = Dispatch{
	MaxAttempts:     3,
	InitialTimeout:  10 * time.Minute,
	RetryTimeout:    10 * time.Minute,
	MaxTimeout:      30 * time.Minute,
	BonusPerAttempt: 10,
	SearchRadius:    15000,
	CandidateLimit:  20,
	EmptyRetryDelay: time.Minute,
	CriticalWait:    20 * time.Minute,
	SweepInterval:   10 * time.Minute,
	QueueTTL:        4 * time.Hour,
}

var defaultNotify = Notify{
	BaseURL:     "",
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       50,
	Burst:      100,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

var defaultPprof = Pprof{
	Enabled: false,
	Port:    6060,
}

// DefaultPort returns the default port.
func DefaultPort() int { return defaultPort }

// DefaultDB returns the default database settings.
func DefaultDB() DB { return defaultDB }

// DefaultKafka returns the default Kafka settings.
func DefaultKafka() Kafka { return defaultKafka }

// DefaultDispatch returns the default dispatch policy.
func DefaultDispatch() Dispatch { return defaultDispatch }

// DefaultNotify returns the default notification gateway settings.
func DefaultNotify() Notify { return defaultNotify }

// DefaultRateLimit returns the default rate limit settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }

// DefaultPprof returns the default pprof settings.
func DefaultPprof() Pprof { return defaultPprof }

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores consumer settings for order and courier event topics.
type Kafka struct {
	Brokers       []string
	GroupID       string
	OrdersTopic   string
	CouriersTopic string
}

// Dispatch stores the queue manager policy.
type Dispatch struct {
	MaxAttempts     int
	InitialTimeout  time.Duration
	RetryTimeout    time.Duration
	MaxTimeout      time.Duration
	BonusPerAttempt float64
	SearchRadius    float64 // meters
	CandidateLimit  int
	EmptyRetryDelay time.Duration
	CriticalWait    time.Duration
	SweepInterval   time.Duration
	QueueTTL        time.Duration
}

// Notify stores notification gateway settings.
type Notify struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimit stores HTTP rate limiting settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores pprof side-server settings.
type Pprof struct {
	Enabled bool
	Port    int
	User    string
	Pass    string
}

// Config stores dispatcher service settings.
type Config struct {
	Port      int
	DB        DB
	Kafka     Kafka
	Dispatch  Dispatch
	Notify    Notify
	RateLimit RateLimit
	Pprof     Pprof
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      DefaultPort(),
		DB:        DefaultDB(),
		Kafka:     DefaultKafka(),
		Dispatch:  DefaultDispatch(),
		Notify:    DefaultNotify(),
		RateLimit: DefaultRateLimit(),
		Pprof:     DefaultPprof(),
	}

	cfg.Port = envInt("PORT", cfg.Port)

	cfg.DB.Host = envStr("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envStr("POSTGRES_PORT", cfg.DB.Port)
	cfg.DB.User = envStr("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envStr("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envStr("POSTGRES_DB", cfg.DB.Name)

	cfg.Kafka.Brokers = envList("KAFKA_BROKERS", cfg.Kafka.Brokers)
	cfg.Kafka.GroupID = envStr("KAFKA_GROUP_ID", cfg.Kafka.GroupID)
	cfg.Kafka.OrdersTopic = envStr("KAFKA_ORDERS_TOPIC", cfg.Kafka.OrdersTopic)
	cfg.Kafka.CouriersTopic = envStr("KAFKA_COURIERS_TOPIC", cfg.Kafka.CouriersTopic)

	cfg.Dispatch.MaxAttempts = envInt("DISPATCH_MAX_ATTEMPTS", cfg.Dispatch.MaxAttempts)
	cfg.Dispatch.InitialTimeout = envDuration("DISPATCH_INITIAL_TIMEOUT", cfg.Dispatch.InitialTimeout)
	cfg.Dispatch.RetryTimeout = envDuration("DISPATCH_RETRY_TIMEOUT", cfg.Dispatch.RetryTimeout)
	cfg.Dispatch.MaxTimeout = envDuration("DISPATCH_MAX_TIMEOUT", cfg.Dispatch.MaxTimeout)
	cfg.Dispatch.BonusPerAttempt = envFloat("DISPATCH_BONUS_PER_ATTEMPT", cfg.Dispatch.BonusPerAttempt)
	cfg.Dispatch.SearchRadius = envFloat("DISPATCH_SEARCH_RADIUS_METERS", cfg.Dispatch.SearchRadius)
	cfg.Dispatch.CandidateLimit = envInt("DISPATCH_CANDIDATE_LIMIT", cfg.Dispatch.CandidateLimit)
	cfg.Dispatch.EmptyRetryDelay = envDuration("DISPATCH_EMPTY_RETRY_DELAY", cfg.Dispatch.EmptyRetryDelay)
	cfg.Dispatch.CriticalWait = envDuration("DISPATCH_CRITICAL_WAIT", cfg.Dispatch.CriticalWait)
	cfg.Dispatch.SweepInterval = envDuration("DISPATCH_SWEEP_INTERVAL", cfg.Dispatch.SweepInterval)
	cfg.Dispatch.QueueTTL = envDuration("DISPATCH_QUEUE_TTL", cfg.Dispatch.QueueTTL)

	cfg.Notify.BaseURL = envStr("NOTIFY_BASE_URL", cfg.Notify.BaseURL)
	cfg.Notify.MaxAttempts = envInt("NOTIFY_MAX_ATTEMPTS", cfg.Notify.MaxAttempts)
	cfg.Notify.BaseDelay = envDuration("NOTIFY_BASE_DELAY", cfg.Notify.BaseDelay)
	cfg.Notify.MaxDelay = envDuration("NOTIFY_MAX_DELAY", cfg.Notify.MaxDelay)

	cfg.RateLimit.Enabled = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Rate = envFloat("RATE_LIMIT_RATE", cfg.RateLimit.Rate)
	cfg.RateLimit.Burst = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.TTL = envDuration("RATE_LIMIT_TTL", cfg.RateLimit.TTL)
	cfg.RateLimit.MaxBuckets = envInt("RATE_LIMIT_MAX_BUCKETS", cfg.RateLimit.MaxBuckets)

	cfg.Pprof.Enabled = envBool("PPROF_ENABLED", cfg.Pprof.Enabled)
	cfg.Pprof.Port = envInt("PPROF_PORT", cfg.Pprof.Port)
	cfg.Pprof.User = envStr("PPROF_USER", cfg.Pprof.User)
	cfg.Pprof.Pass = envStr("PPROF_PASSWORD", cfg.Pprof.Pass)

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Dispatch.MaxAttempts <= 0 {
		return fmt.Errorf("invalid dispatch max attempts: %d", c.Dispatch.MaxAttempts)
	}
	if c.Dispatch.InitialTimeout <= 0 || c.Dispatch.MaxTimeout < c.Dispatch.RetryTimeout {
		return fmt.Errorf("invalid dispatch timeouts: initial=%s retry=%s max=%s",
			c.Dispatch.InitialTimeout, c.Dispatch.RetryTimeout, c.Dispatch.MaxTimeout)
	}
	if c.Dispatch.SearchRadius <= 0 {
		return fmt.Errorf("invalid search radius: %f", c.Dispatch.SearchRadius)
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

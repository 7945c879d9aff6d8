package notify

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
)

type gateway interface {
	Broadcast(ctx context.Context, courierID string, b Broadcast) error
	NotifyClaimed(ctx context.Context, courierIDs []string, orderID string) error
	NotifyFailed(ctx context.Context, customerID, orderID, reason string) error
	NotifyAdmins(ctx context.Context, event string, payload any) error
}

type counter interface {
	Inc()
}

// RetryConfig describes the retry behaviour of RetryingGateway.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingGateway retries transient notification failures with capped
// exponential backoff before giving up.
type RetryingGateway struct {
	next    gateway
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingGateway wraps next; returns nil when next is nil so the
// optional-gateway convention propagates.
func NewRetryingGateway(next gateway, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingGateway {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingGateway{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Broadcast retries the underlying Broadcast.
func (g *RetryingGateway) Broadcast(ctx context.Context, courierID string, b Broadcast) error {
	return g.do(ctx, "Broadcast", func() error { return g.next.Broadcast(ctx, courierID, b) })
}

// NotifyClaimed retries the underlying NotifyClaimed.
func (g *RetryingGateway) NotifyClaimed(ctx context.Context, courierIDs []string, orderID string) error {
	return g.do(ctx, "NotifyClaimed", func() error { return g.next.NotifyClaimed(ctx, courierIDs, orderID) })
}

// NotifyFailed retries the underlying NotifyFailed.
func (g *RetryingGateway) NotifyFailed(ctx context.Context, customerID, orderID, reason string) error {
	return g.do(ctx, "NotifyFailed", func() error { return g.next.NotifyFailed(ctx, customerID, orderID, reason) })
}

// NotifyAdmins retries the underlying NotifyAdmins.
func (g *RetryingGateway) NotifyAdmins(ctx context.Context, event string, payload any) error {
	return g.do(ctx, "NotifyAdmins", func() error { return g.next.NotifyAdmins(ctx, event, payload) })
}

func (g *RetryingGateway) do(ctx context.Context, method string, call func() error) error {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("notify gateway retry",
			logx.String("method", method),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

// isRetryable treats network errors, timeouts, 429 and 5xx as transient.
func isRetryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

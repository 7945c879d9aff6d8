package dispatch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed-H20/talabatak-dispatch-go/internal/domain"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/gateway/notify"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/logx"
	"github.com/ahmed-H20/talabatak-dispatch-go/internal/metrics"
)

// FailureReason recorded on orders that exhausted every broadcast cycle.
const FailureReason = "no_available_couriers"

// reason recorded on entries force-failed by the reconciliation sweep.
const staleReason = "stuck_in_queue"

// Config is the queue manager policy.
type Config struct {
	MaxAttempts     int
	InitialTimeout  time.Duration
	RetryTimeout    time.Duration
	MaxTimeout      time.Duration
	BonusPerAttempt float64
	EmptyRetryDelay time.Duration
	CriticalWait    time.Duration
	SweepInterval   time.Duration
	QueueTTL        time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialTimeout <= 0 {
		c.InitialTimeout = 10 * time.Minute
	}
	if c.RetryTimeout <= 0 {
		c.RetryTimeout = c.InitialTimeout
	}
	if c.MaxTimeout <= 0 {
		c.MaxTimeout = 30 * time.Minute
	}
	if c.EmptyRetryDelay <= 0 {
		c.EmptyRetryDelay = time.Minute
	}
	if c.CriticalWait <= 0 {
		c.CriticalWait = 20 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 10 * time.Minute
	}
	if c.QueueTTL <= 0 {
		c.QueueTTL = 4 * time.Hour
	}
	return c
}

// entry is the in-memory queue record for one waiting order. Everything here
// is recoverable: attempts and priority live durably on the order, so a
// restarted coordinator rebuilds its entries from ListDispatchable.
type entry struct {
	orderID        string
	customerID     string
	orderCreatedAt time.Time
	enqueuedAt     time.Time
	attempts       int
	lastBroadcast  time.Time
	notified       []string
	timer          Timer
	retryTimer     Timer
	seq            int
}

// Manager owns the unassigned-order queue and drives the
// broadcast → wait → escalate → retry → fail cycle for every entry.
//
// The manager never holds its mutex across store or gateway I/O; the
// claim-vs-timeout race is settled by the ledger's conditional write, and
// whichever side loses detects the changed order status and backs off.
type Manager struct {
	cfg     Config
	finder  candidateFinder
	ranker  candidateRanker
	orders  orderStore
	claims  claimer
	gateway notifier
	metrics *metrics.Dispatch
	logger  logx.Logger
	clock   Clock
	newID   func() string

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates a queue manager. A nil gateway disables notifications.
func NewManager(
	cfg Config,
	finder candidateFinder,
	ranker candidateRanker,
	orders orderStore,
	claims claimer,
	gateway notifier,
	m *metrics.Dispatch,
	logger logx.Logger,
	clock Clock,
) *Manager {
	if gateway == nil {
		gateway = notify.NopGateway{}
	}
	if m == nil {
		m = metrics.NewDispatch()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Manager{
		cfg:     cfg.withDefaults(),
		finder:  finder,
		ranker:  ranker,
		orders:  orders,
		claims:  claims,
		gateway: gateway,
		metrics: m,
		logger:  logger,
		clock:   clock,
		newID:   func() string { return uuid.NewString() },
		entries: make(map[string]*entry),
	}
}

// Run recovers queue state from the order store and then sweeps
// periodically until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Recover(ctx); err != nil {
		m.logger.Error("dispatch recovery failed", logx.Err(err))
	}

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			return ctx.Err()
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Recover rebuilds queue entries from durable order state. Attempt counts
// and priorities come from the store; the timeout clock restarts for the
// current attempt rather than honoring time elapsed before the restart.
func (m *Manager) Recover(ctx context.Context) error {
	orders, err := m.orders.ListDispatchable(ctx)
	if err != nil {
		return err
	}
	for i := range orders {
		m.enqueueOrder(ctx, &orders[i])
	}
	m.logger.Info("dispatch queue recovered", logx.Int("orders", len(orders)))
	return nil
}

// Enqueue adds an order to the queue and starts its first broadcast cycle.
// Orders that cannot be assigned (already claimed, cancelled, unknown) are
// skipped without error; duplicate enqueues are no-ops.
func (m *Manager) Enqueue(ctx context.Context, orderID string) error {
	order, err := m.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		m.logger.Warn("enqueue skipped: order not found", logx.String("order_id", orderID))
		return nil
	}
	if !order.CanBeAssigned() {
		m.logger.Debug("enqueue skipped: order not dispatchable",
			logx.String("order_id", orderID),
			logx.String("status", string(order.Status)),
		)
		return nil
	}

	m.enqueueOrder(ctx, order)
	return nil
}

func (m *Manager) enqueueOrder(ctx context.Context, order *domain.Order) {
	m.mu.Lock()
	if _, ok := m.entries[order.ID]; ok {
		m.mu.Unlock()
		return
	}
	e := &entry{
		orderID:        order.ID,
		customerID:     order.CustomerID,
		orderCreatedAt: order.CreatedAt,
		enqueuedAt:     m.clock.Now(),
		attempts:       order.AttemptCount,
	}
	m.entries[order.ID] = e
	m.metrics.QueueDepth.Set(float64(len(m.entries)))
	m.armCycleTimerLocked(e)
	m.mu.Unlock()

	m.logger.Info("order enqueued for dispatch",
		logx.String("order_id", order.ID),
		logx.Int("attempts", order.AttemptCount),
		logx.Int("priority", order.Priority),
	)

	m.broadcast(ctx, order)
}

// Claim routes a courier's acceptance through the ledger. On a win the
// entry is removed, its timer cancelled, and every other notified courier
// is told the order is taken. A lost race comes back as Claimed=false and
// is not an error.
func (m *Manager) Claim(ctx context.Context, orderID, courierID string) (domain.ClaimResult, error) {
	res, err := m.claims.TryClaim(ctx, orderID, courierID)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	if !res.Claimed {
		if res.Reason == domain.ReasonAlreadyAssigned {
			m.metrics.ClaimRacesTotal.Inc()
		}
		return res, nil
	}

	losers := m.remove(orderID, courierID)
	m.metrics.ClaimsTotal.Inc()

	if len(losers) > 0 {
		if err := m.gateway.NotifyClaimed(ctx, losers, orderID); err != nil {
			m.logger.Warn("notify claimed failed", logx.String("order_id", orderID), logx.Err(err))
		}
	}
	return res, nil
}

// Cancel removes the order's queue entry and cancels its timers. Cancelling
// an order that is not queued is a no-op.
func (m *Manager) Cancel(_ context.Context, orderID string) {
	m.remove(orderID, "")
	m.logger.Info("order removed from dispatch queue", logx.String("order_id", orderID))
}

// CourierAvailable reacts to a courier coming back online: the oldest entry
// that already missed at least one broadcast cycle is re-broadcast
// immediately, ahead of its own timer. Entries still in their first cycle
// are left to their standing timers.
func (m *Manager) CourierAvailable(ctx context.Context, courierID string) {
	m.mu.Lock()
	var pick *entry
	for _, e := range m.entries {
		if e.attempts == 0 {
			continue
		}
		if pick == nil || e.enqueuedAt.Before(pick.enqueuedAt) {
			pick = e
		}
	}
	var orderID string
	if pick != nil {
		orderID = pick.orderID
	}
	m.mu.Unlock()

	if orderID == "" {
		return
	}

	m.logger.Info("proactive rebroadcast on courier availability",
		logx.String("courier_id", courierID),
		logx.String("order_id", orderID),
	)

	order, err := m.getOrder(ctx, orderID)
	if err != nil || order == nil || !order.CanBeAssigned() {
		return
	}
	m.broadcast(ctx, order)
}

// broadcast runs one notification round for the order: find candidates,
// rank them, push "priority" framing to the best one and "normal" framing
// to the rest. With no candidates the round is rescheduled after a short
// delay instead of burning an attempt.
func (m *Manager) broadcast(ctx context.Context, order *domain.Order) {
	m.mu.Lock()
	e, ok := m.entries[order.ID]
	if !ok {
		m.mu.Unlock()
		return
	}
	attempts := e.attempts
	seq := e.seq
	m.mu.Unlock()

	var candidates []domain.Courier
	err := m.withStoreRetry(ctx, func() error {
		var ferr error
		candidates, ferr = m.finder.FindCandidates(ctx, order)
		return ferr
	})
	if err != nil {
		m.storeFailure(ctx, order.ID, "candidate lookup", err)
		return
	}

	if len(candidates) == 0 {
		m.logger.Debug("no candidates, rescheduling broadcast", logx.String("order_id", order.ID))
		m.mu.Lock()
		if e, ok := m.entries[order.ID]; ok && e.seq == seq {
			if e.retryTimer != nil {
				e.retryTimer.Stop()
			}
			e.retryTimer = m.clock.AfterFunc(m.cfg.EmptyRetryDelay, func() {
				o, err := m.getOrder(context.Background(), order.ID)
				if err != nil || o == nil || !o.CanBeAssigned() {
					return
				}
				m.broadcast(context.Background(), o)
			})
		}
		m.mu.Unlock()
		return
	}

	ranked := m.ranker.Rank(candidates, order)
	bonus := float64(attempts) * m.cfg.BonusPerAttempt
	broadcastID := m.newID()
	now := m.clock.Now()

	notified := make([]string, 0, len(ranked))
	for i, cand := range ranked {
		b := notify.Broadcast{
			BroadcastID:     broadcastID,
			OrderID:         order.ID,
			Priority:        i == 0,
			Bonus:           bonus,
			Attempt:         attempts,
			Urgent:          attempts > 0,
			WaitingTime:     now.Sub(order.CreatedAt),
			OrderValue:      order.TotalPrice,
			StoreLocation:   order.StoreLocation,
			DeliveryAddress: order.DeliveryAddress,
			DistanceMeters:  cand.Distance,
		}
		if err := m.gateway.Broadcast(ctx, cand.Courier.ID, b); err != nil {
			m.logger.Warn("broadcast push failed",
				logx.String("order_id", order.ID),
				logx.String("courier_id", cand.Courier.ID),
				logx.Err(err),
			)
			continue
		}
		notified = append(notified, cand.Courier.ID)
	}

	m.metrics.BroadcastsTotal.Inc()
	m.logger.Info("order broadcast",
		logx.String("order_id", order.ID),
		logx.String("broadcast_id", broadcastID),
		logx.Int("candidates", len(ranked)),
		logx.Int("notified", len(notified)),
		logx.Int("attempt", attempts),
		logx.Float64("bonus", bonus),
	)

	m.mu.Lock()
	if e, ok := m.entries[order.ID]; ok && e.seq == seq {
		e.lastBroadcast = now
		e.notified = mergeNotified(e.notified, notified)
	}
	m.mu.Unlock()
}

// handleTimeout runs when a broadcast cycle expires without a claim. The
// conditional escalate settles the race against an in-flight claim: zero
// rows updated means the order left the dispatchable set and the timeout
// side must abort its own effects.
func (m *Manager) handleTimeout(orderID string, seq int) {
	m.mu.Lock()
	e, ok := m.entries[orderID]
	if !ok || e.seq != seq {
		m.mu.Unlock()
		return
	}
	e.seq++
	seq = e.seq
	m.mu.Unlock()

	ctx := context.Background()

	order, err := m.getOrder(ctx, orderID)
	if err != nil {
		m.storeFailure(ctx, orderID, "timeout order lookup", err)
		m.rearm(orderID, seq, m.cfg.RetryTimeout)
		return
	}
	if order == nil || !order.CanBeAssigned() {
		m.remove(orderID, "")
		return
	}

	var escalated bool
	err = m.withStoreRetry(ctx, func() error {
		var serr error
		escalated, serr = m.orders.Escalate(ctx, orderID)
		return serr
	})
	if err != nil {
		m.storeFailure(ctx, orderID, "escalate", err)
		m.rearm(orderID, seq, m.cfg.RetryTimeout)
		return
	}
	if !escalated {
		// lost the race: a claim landed between the Get and the Escalate
		m.remove(orderID, "")
		return
	}

	m.metrics.EscalationsTotal.Inc()

	m.mu.Lock()
	e, ok = m.entries[orderID]
	if !ok {
		m.mu.Unlock()
		return
	}
	e.attempts++
	attempts := e.attempts
	m.mu.Unlock()

	m.logger.Info("broadcast cycle timed out",
		logx.String("order_id", orderID),
		logx.Int("attempts", attempts),
		logx.Int("max_attempts", m.cfg.MaxAttempts),
	)

	if attempts >= m.cfg.MaxAttempts {
		m.fail(ctx, order)
		return
	}

	order.AttemptCount = attempts
	order.Priority++

	m.mu.Lock()
	if e, ok := m.entries[orderID]; ok && e.seq == seq {
		m.armCycleTimerLocked(e)
	}
	m.mu.Unlock()

	m.broadcast(ctx, order)
}

// fail marks the order delivery_failed. The conditional MarkFailed makes
// the terminal transition exactly-once even when a claim sneaks in after
// the last escalation.
func (m *Manager) fail(ctx context.Context, order *domain.Order) {
	var failed bool
	err := m.withStoreRetry(ctx, func() error {
		var serr error
		failed, serr = m.orders.MarkFailed(ctx, order.ID, FailureReason)
		return serr
	})
	if err != nil {
		m.storeFailure(ctx, order.ID, "mark failed", err)
		m.rearmCurrent(order.ID, m.cfg.RetryTimeout)
		return
	}

	m.remove(order.ID, "")

	if !failed {
		// claimed or cancelled between escalation and the terminal write
		return
	}

	m.metrics.FailedTotal.Inc()
	m.logger.Warn("order delivery failed",
		logx.String("order_id", order.ID),
		logx.String("reason", FailureReason),
	)

	if err := m.gateway.NotifyFailed(ctx, order.CustomerID, order.ID, FailureReason); err != nil {
		m.logger.Warn("notify customer failed", logx.String("order_id", order.ID), logx.Err(err))
	}
	if err := m.gateway.NotifyAdmins(ctx, "order_delivery_failed", map[string]any{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"order_value": order.TotalPrice,
		"reason":      FailureReason,
	}); err != nil {
		m.logger.Warn("notify admins failed", logx.String("order_id", order.ID), logx.Err(err))
	}
}

// Sweep reconciles the queue with the store: entries whose order left the
// dispatchable set are dropped, and entries past the queue TTL are failed
// defensively.
func (m *Manager) Sweep(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.entries))
	enqueued := make(map[string]time.Time, len(m.entries))
	for id, e := range m.entries {
		ids = append(ids, id)
		enqueued[id] = e.enqueuedAt
	}
	m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for _, id := range ids {
		order, err := m.getOrder(ctx, id)
		if err != nil {
			m.logger.Warn("sweep lookup failed", logx.String("order_id", id), logx.Err(err))
			continue
		}
		if order == nil || !order.CanBeAssigned() {
			m.remove(id, "")
			removed++
			continue
		}
		if now.Sub(enqueued[id]) > m.cfg.QueueTTL {
			m.logger.Warn("order stuck in queue past TTL, force failing",
				logx.String("order_id", id),
				logx.Duration("in_queue", now.Sub(enqueued[id])),
			)
			if _, err := m.orders.MarkFailed(ctx, id, staleReason); err != nil {
				m.logger.Error("force fail failed", logx.String("order_id", id), logx.Err(err))
				continue
			}
			m.metrics.FailedTotal.Inc()
			m.remove(id, "")
			removed++
			if err := m.gateway.NotifyAdmins(ctx, "order_force_failed", map[string]any{
				"order_id": id,
				"reason":   staleReason,
			}); err != nil {
				m.logger.Warn("notify admins failed", logx.String("order_id", id), logx.Err(err))
			}
		}
	}

	if removed > 0 {
		m.logger.Info("queue sweep removed stale entries", logx.Int("removed", removed))
	}
}

// remove deletes the entry, stops its timers, and returns the notified
// couriers except exclude.
func (m *Manager) remove(orderID, exclude string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[orderID]
	if !ok {
		return nil
	}
	e.seq++
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.retryTimer != nil {
		e.retryTimer.Stop()
	}
	delete(m.entries, orderID)
	m.metrics.QueueDepth.Set(float64(len(m.entries)))

	var losers []string
	for _, id := range e.notified {
		if id != exclude {
			losers = append(losers, id)
		}
	}
	return losers
}

func (m *Manager) stopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		e.seq++
		if e.timer != nil {
			e.timer.Stop()
		}
		if e.retryTimer != nil {
			e.retryTimer.Stop()
		}
	}
	m.entries = make(map[string]*entry)
	m.metrics.QueueDepth.Set(0)
}

// timeoutFor implements the linear backoff: the first cycle gets the
// initial timeout, later cycles get retryTimeout × attempts capped at
// maxTimeout.
func (m *Manager) timeoutFor(attempts int) time.Duration {
	if attempts == 0 {
		return m.cfg.InitialTimeout
	}
	d := time.Duration(attempts) * m.cfg.RetryTimeout
	if d > m.cfg.MaxTimeout {
		return m.cfg.MaxTimeout
	}
	return d
}

func (m *Manager) armCycleTimerLocked(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	seq := e.seq
	orderID := e.orderID
	e.timer = m.clock.AfterFunc(m.timeoutFor(e.attempts), func() {
		m.handleTimeout(orderID, seq)
	})
}

func (m *Manager) rearm(orderID string, seq int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[orderID]
	if !ok || e.seq != seq {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = m.clock.AfterFunc(d, func() {
		m.handleTimeout(orderID, seq)
	})
}

func (m *Manager) rearmCurrent(orderID string, d time.Duration) {
	m.mu.Lock()
	seq := -1
	if e, ok := m.entries[orderID]; ok {
		seq = e.seq
	}
	m.mu.Unlock()
	if seq >= 0 {
		m.rearm(orderID, seq, d)
	}
}

func (m *Manager) getOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := m.withStoreRetry(ctx, func() error {
		var serr error
		order, serr = m.orders.Get(ctx, id)
		return serr
	})
	return order, err
}

const (
	storeRetryAttempts = 3
	storeRetryBase     = 100 * time.Millisecond
)

// withStoreRetry retries transient store failures with jittered backoff.
// It never retries past ctx cancellation.
func (m *Manager) withStoreRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= storeRetryAttempts; attempt++ {
		if err := op(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if ctx.Err() != nil || attempt == storeRetryAttempts {
			break
		}
		delay := storeRetryBase<<(attempt-1) + time.Duration(rand.Int63n(int64(storeRetryBase)))
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}
	return lastErr
}

// storeFailure surfaces an exhausted store retry as an operational alert.
// The entry stays queued; the order is never silently dropped.
func (m *Manager) storeFailure(ctx context.Context, orderID, op string, err error) {
	m.logger.Error("store operation failed, order stays queued",
		logx.String("order_id", orderID),
		logx.String("op", op),
		logx.Err(err),
	)
	if nerr := m.gateway.NotifyAdmins(ctx, "dispatch_store_error", map[string]any{
		"order_id": orderID,
		"op":       op,
		"error":    err.Error(),
	}); nerr != nil {
		m.logger.Warn("notify admins failed", logx.String("order_id", orderID), logx.Err(nerr))
	}
}

func mergeNotified(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, id := range existing {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range added {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

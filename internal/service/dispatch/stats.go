package dispatch

import "time"

// Stats is a point-in-time snapshot of the dispatch queue for the operator
// dashboard.
type Stats struct {
	QueueDepth      int       `json:"queue_depth"`
	CriticalOrders  int       `json:"critical_orders"`
	AverageAttempts float64   `json:"average_attempts"`
	OldestWaiting   *OrderAge `json:"oldest_waiting,omitempty"`
	TakenAt         time.Time `json:"taken_at"`
}

// OrderAge identifies the longest-waiting queued order.
type OrderAge struct {
	OrderID string        `json:"order_id"`
	Waiting time.Duration `json:"waiting"`
}

// Stats snapshots the queue under the manager lock. Critical means the
// order has been waiting longer than the critical-wait threshold since it
// was created.
func (m *Manager) Stats() Stats {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		QueueDepth: len(m.entries),
		TakenAt:    now,
	}

	totalAttempts := 0
	var oldest *entry
	for _, e := range m.entries {
		totalAttempts += e.attempts
		if now.Sub(e.orderCreatedAt) > m.cfg.CriticalWait {
			s.CriticalOrders++
		}
		if oldest == nil || e.enqueuedAt.Before(oldest.enqueuedAt) {
			oldest = e
		}
	}
	if len(m.entries) > 0 {
		s.AverageAttempts = float64(totalAttempts) / float64(len(m.entries))
	}
	if oldest != nil {
		s.OldestWaiting = &OrderAge{
			OrderID: oldest.orderID,
			Waiting: now.Sub(oldest.enqueuedAt),
		}
	}
	return s
}

// Queued reports whether the order currently has a queue entry.
func (m *Manager) Queued(orderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[orderID]
	return ok
}

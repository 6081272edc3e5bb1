package maintenance

import "sync"

// Monitor pairs the mutex guarding the worker's shared state with the
// condition variable used for the wait/signal protocol.
type Monitor struct {
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMonitor constructs a monitor.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the monitor's mutex.
func (m *Monitor) Lock() { m.mu.Lock() }

// Unlock releases the monitor's mutex.
func (m *Monitor) Unlock() { m.mu.Unlock() }

// Await blocks until pred reports true. The caller must hold the lock. The
// predicate is evaluated with the lock held and re-checked after every
// wakeup, so spurious or unrelated signals cannot satisfy a stale snapshot.
func (m *Monitor) Await(pred func() bool) {
	for !pred() {
		m.cond.Wait()
	}
}

// Broadcast wakes all waiters. Callers signal only after mutating state the
// waiter's predicate depends on, under the same critical section.
func (m *Monitor) Broadcast() { m.cond.Broadcast() }

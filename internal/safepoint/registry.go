package safepoint

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInventoryFull is returned when the thread inventory has no free slots.
// Callers treat it as a resource-exhaustion failure; for required runtime
// threads it is fatal.
var ErrInventoryFull = errors.New("safepoint: thread inventory exhausted")

// Registry is the runtime's thread inventory and global-pause coordinator.
// A pause completes once every registered thread is either parked inside a
// blocked region or stopped at a safepoint poll.
type Registry struct {
	mu       sync.Mutex
	cond     *sync.Cond
	threads  map[*Thread]struct{}
	capacity int
	paused   bool
}

// NewRegistry constructs a registry with the given number of thread slots.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = 64
	}
	r := &Registry{
		threads:  make(map[*Thread]struct{}),
		capacity: capacity,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register adds a named thread to the inventory. The returned handle must be
// used by exactly one goroutine.
func (r *Registry) Register(name string) (*Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.threads) >= r.capacity {
		return nil, fmt.Errorf("register %q: %w", name, ErrInventoryFull)
	}
	t := &Thread{reg: r, name: name}
	r.threads[t] = struct{}{}
	return t, nil
}

// Deregister removes a thread from the inventory. A pending pause no longer
// waits on it.
func (r *Registry) Deregister(t *Thread) {
	if t == nil {
		return
	}
	r.mu.Lock()
	delete(r.threads, t)
	r.cond.Broadcast()
	r.mu.Unlock()
}

// StopTheWorld initiates a global pause and blocks until every registered
// thread is quiescent. The caller must pair it with Resume.
func (r *Registry) StopTheWorld() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.paused {
		r.cond.Wait()
	}
	r.paused = true
	r.cond.Broadcast()
	for !r.allQuiescentLocked() {
		r.cond.Wait()
	}
}

// Resume ends the pause and releases threads parked at polls or leaving
// blocked regions.
func (r *Registry) Resume() {
	r.mu.Lock()
	r.paused = false
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Paused reports whether a global pause is in progress.
func (r *Registry) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// ThreadCount returns the number of registered threads.
func (r *Registry) ThreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.threads)
}

func (r *Registry) allQuiescentLocked() bool {
	for t := range r.threads {
		if !t.blocked {
			return false
		}
	}
	return true
}

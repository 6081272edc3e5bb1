package safepoint

// Thread is a registered runtime thread's handle into the pause protocol.
// All methods must be called from the owning goroutine.
type Thread struct {
	reg     *Registry
	name    string
	blocked bool // guarded by reg.mu
}

// Name returns the inventory name of the thread.
func (t *Thread) Name() string { return t.name }

// EnterBlocked declares the thread parked and invisible to a global pause.
// The caller must call Exit on the returned region on every path out of the
// blocking section, and must not hold subsystem locks when calling Exit.
func (t *Thread) EnterBlocked() *BlockedRegion {
	r := t.reg
	r.mu.Lock()
	t.blocked = true
	r.cond.Broadcast()
	r.mu.Unlock()
	return &BlockedRegion{thread: t}
}

// Poll is a cooperative safepoint check. If a pause is in progress the
// calling thread parks until Resume.
func (t *Thread) Poll() {
	r := t.reg
	r.mu.Lock()
	if r.paused {
		t.blocked = true
		r.cond.Broadcast()
		for r.paused {
			r.cond.Wait()
		}
		t.blocked = false
	}
	r.mu.Unlock()
}

// BlockedRegion is the scoped declaration produced by EnterBlocked.
type BlockedRegion struct {
	thread *Thread
	exited bool
}

// Exit re-enters the running state. If a pause is active the thread parks
// here until Resume, so a resumed world never observes it mid-transition.
// Exit is idempotent.
func (b *BlockedRegion) Exit() {
	if b == nil || b.exited {
		return
	}
	b.exited = true
	t := b.thread
	r := t.reg
	r.mu.Lock()
	for r.paused {
		r.cond.Wait()
	}
	t.blocked = false
	r.mu.Unlock()
}

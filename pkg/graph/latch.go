package graph

import (
	"errors"
	"sync"
)

// ErrConcurrencyConflict is returned by UpgradeToExclusive when another
// writer is already upgrading, per spec §5's "losing writer aborts"
// deadlock-avoidance rule: two writers can never both wait on each
// other's read-hold to drain.
var ErrConcurrencyConflict = errors.New("concurrency conflict: another writer is already committing")

// Latch is the per-graph reader-writer latch of spec §5. Unlike
// sync.RWMutex, it supports a single holder upgrading its own shared hold
// to exclusive (a writing query runs its operators under shared mode,
// seeing its own pending buffer via algebra.Get, then upgrades to
// exclusive only at commit to flush).
type Latch struct {
	mu        sync.Mutex
	cond      *sync.Cond
	readers   int
	upgrading bool
	exclusive bool
}

func NewLatch() *Latch {
	l := &Latch{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// AcquireShared blocks until no exclusive holder is active, then joins as
// a shared holder. Both plain readers and writers (during operator
// execution) call this.
func (l *Latch) AcquireShared() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.exclusive {
		l.cond.Wait()
	}
	l.readers++
}

// ReleaseShared leaves shared mode.
func (l *Latch) ReleaseShared() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readers--
	l.cond.Broadcast()
}

// UpgradeToExclusive converts the caller's own shared hold into the
// exclusive hold, draining all other shared holders first. Only one
// upgrade may be in flight at a time; a second caller gets
// ErrConcurrencyConflict immediately rather than blocking, so two
// concurrent writers can never deadlock waiting on each other.
func (l *Latch) UpgradeToExclusive() error {
	l.mu.Lock()
	if l.upgrading {
		l.mu.Unlock()
		return ErrConcurrencyConflict
	}
	l.upgrading = true
	l.readers-- // release the caller's own shared hold
	for l.readers > 0 {
		l.cond.Wait()
	}
	l.exclusive = true
	l.upgrading = false
	l.mu.Unlock()
	return nil
}

// ReleaseExclusive ends the exclusive hold, unblocking waiting readers
// and writers.
func (l *Latch) ReleaseExclusive() {
	l.mu.Lock()
	l.exclusive = false
	l.cond.Broadcast()
	l.mu.Unlock()
}

// AbortUpgrade releases the caller's shared hold without ever having
// acquired exclusive mode (used when a query is cancelled after
// AcquireShared but before — or instead of — committing).
func (l *Latch) AbortUpgrade() {
	l.ReleaseShared()
}

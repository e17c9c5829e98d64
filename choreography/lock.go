package choreography

import (
	"fmt"
	"sync"
	"time"

	"github.com/hxrts/aura/ids"
	"github.com/hxrts/aura/journal"
)

// Lock is the distributed operation lock of spec.md §4.4: recovery and
// resharing (and any other mutually-exclusive choreography) must
// acquire it before running. It reuses journal.OperationLock as the
// held-lock record rather than inventing a parallel type, since that
// struct already exists on AccountState for exactly this purpose.
type Lock struct {
	mu     sync.Mutex
	holder *journal.OperationLock
}

func NewLock() *Lock {
	return &Lock{}
}

// Acquire grants the lock to holderKind if no lock is currently held and
// a majority of total known authorities acknowledged (acks maps each
// acknowledging authority to true). Returns false, nil if the lock is
// free but majority wasn't reached; returns an error if already held.
func (l *Lock) Acquire(opID ids.EventId, holderKind string, acks map[ids.AuthorityId]bool, total int, now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != nil {
		return false, fmt.Errorf("choreography: operation lock held by %s since %s", l.holder.HolderKind, l.holder.AcquiredAt)
	}

	yes := 0
	for _, ok := range acks {
		if ok {
			yes++
		}
	}
	if total == 0 || yes*2 <= total {
		return false, nil
	}

	l.holder = &journal.OperationLock{OperationID: opID, HolderKind: holderKind, AcquiredAt: now}
	return true, nil
}

// Release frees the lock if opID currently holds it; releasing a lock
// you don't hold is a no-op (matches "released on completion").
func (l *Lock) Release(opID ids.EventId) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != nil && l.holder.OperationID == opID {
		l.holder = nil
	}
}

// ReleaseOnTimeout frees the lock if it's been held at least timeout,
// implementing spec.md §4.4's "released ... by timeout".
func (l *Lock) ReleaseOnTimeout(now time.Time, timeout time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder != nil && now.Sub(l.holder.AcquiredAt) >= timeout {
		l.holder = nil
		return true
	}
	return false
}

// Holder returns a copy of the current lock holder, or nil if free.
func (l *Lock) Holder() *journal.OperationLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == nil {
		return nil
	}
	h := *l.holder
	return &h
}

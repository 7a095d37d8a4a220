package godb

import (
	"sync"
	"time"
)

// LockWaitInterval is how long an acquire attempt sleeps between
// re-checks of the grant conditions and the wait-for graph. Spec §4.3:
// "the manager is a single critical section; waits happen by bounded
// sleeps while re-checking grant conditions."
var LockWaitInterval = 5 * time.Millisecond

// pageLockState is the lock state for a single page: the set of
// transactions holding it shared, and the (at most one) transaction
// holding it exclusive.
type pageLockState struct {
	shared    map[TransactionID]bool
	exclusive TransactionID
	hasExcl   bool
}

// LockManager grants per-page shared/exclusive locks to transactions,
// detecting deadlock via a wait-for graph. It is the sole owner of lock
// state; it does not own page contents (spec §9 design note).
type LockManager struct {
	mu      sync.Mutex
	pages   map[any]*pageLockState
	waitFor map[TransactionID]map[TransactionID]bool // tid -> set of tids it awaits
	aborted map[TransactionID]bool
}

// NewLockManager constructs an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		pages:   make(map[any]*pageLockState),
		waitFor: make(map[TransactionID]map[TransactionID]bool),
		aborted: make(map[TransactionID]bool),
	}
}

func (lm *LockManager) stateFor(pid any) *pageLockState {
	st, ok := lm.pages[pid]
	if !ok {
		st = &pageLockState{shared: make(map[TransactionID]bool)}
		lm.pages[pid] = st
	}
	return st
}

// canGrant reports whether tid can be granted mode on pid's current
// state, per spec §4.3's shared/exclusive rules.
func canGrant(st *pageLockState, tid TransactionID, mode RWPerm) bool {
	if mode == ReadPerm {
		return !st.hasExcl || st.exclusive == tid
	}
	// exclusive: granted if no other transaction holds any lock, or tid
	// is the sole shared holder (upgrade).
	if st.hasExcl {
		return st.exclusive == tid
	}
	for other := range st.shared {
		if other != tid {
			return false
		}
	}
	return true
}

// Acquire blocks until tid is granted mode on pid, or returns
// ErrDeadlock if tid's wait closes a cycle in the wait-for graph.
// Re-acquiring a lock of equal or lesser strength already held is a
// no-op.
func (lm *LockManager) Acquire(tid TransactionID, pid any, mode RWPerm) error {
	for {
		lm.mu.Lock()
		if lm.aborted[tid] {
			lm.mu.Unlock()
			return ErrDeadlock
		}
		st := lm.stateFor(pid)

		if mode == ReadPerm && (st.shared[tid] || (st.hasExcl && st.exclusive == tid)) {
			lm.mu.Unlock()
			return nil
		}
		if mode == WritePerm && st.hasExcl && st.exclusive == tid {
			lm.mu.Unlock()
			return nil
		}

		if canGrant(st, tid, mode) {
			if mode == ReadPerm {
				st.shared[tid] = true
			} else {
				st.hasExcl = true
				st.exclusive = tid
				delete(st.shared, tid)
			}
			delete(lm.waitFor, tid)
			lm.mu.Unlock()
			return nil
		}

		// Can't grant yet: record who we're waiting on and check for a
		// cycle before sleeping.
		waiting := waitSet(st, tid)
		lm.waitFor[tid] = waiting
		if lm.hasCycle(tid) {
			lm.aborted[tid] = true
			delete(lm.waitFor, tid)
			lm.mu.Unlock()
			return ErrDeadlock
		}
		lm.mu.Unlock()
		time.Sleep(LockWaitInterval)
	}
}

// waitSet returns the transactions tid would be waiting on if it
// couldn't be granted mode on st right now: the exclusive holder, if
// any, plus every shared holder.
func waitSet(st *pageLockState, tid TransactionID) map[TransactionID]bool {
	s := make(map[TransactionID]bool)
	if st.hasExcl && st.exclusive != tid {
		s[st.exclusive] = true
	}
	for other := range st.shared {
		if other != tid {
			s[other] = true
		}
	}
	return s
}

// hasCycle reports whether, starting from tid, the wait-for graph has a
// cycle back to tid. Must be called with lm.mu held.
func (lm *LockManager) hasCycle(tid TransactionID) bool {
	visited := make(map[TransactionID]bool)
	var dfs func(TransactionID) bool
	dfs = func(cur TransactionID) bool {
		if cur == tid && visited[cur] {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for next := range lm.waitFor[cur] {
			if next == tid {
				return true
			}
			if dfs(next) {
				return true
			}
		}
		return false
	}
	for next := range lm.waitFor[tid] {
		if next == tid || dfs(next) {
			return true
		}
	}
	return false
}

// MarkAborted flags tid so that any Acquire call currently blocked on
// its behalf (or any future one, before ReleaseAll clears the flag)
// returns immediately without the lock. Used when a transaction is
// aborted for a reason other than this manager's own deadlock
// detection (spec §5: "Cancellation & timeouts").
func (lm *LockManager) MarkAborted(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.aborted[tid] = true
}

// Release drops tid's lock on pid, if any. A no-op if tid doesn't hold
// it.
func (lm *LockManager) Release(tid TransactionID, pid any) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	st, ok := lm.pages[pid]
	if !ok {
		return
	}
	delete(st.shared, tid)
	if st.hasExcl && st.exclusive == tid {
		st.hasExcl = false
	}
}

// ReleaseAll drops every lock tid holds and removes it from the
// wait-for graph, e.g. on transaction commit/abort.
func (lm *LockManager) ReleaseAll(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for _, st := range lm.pages {
		delete(st.shared, tid)
		if st.hasExcl && st.exclusive == tid {
			st.hasExcl = false
		}
	}
	delete(lm.waitFor, tid)
	delete(lm.aborted, tid)
	for _, waiters := range lm.waitFor {
		delete(waiters, tid)
	}
}

// Holds reports whether tid currently holds any lock (shared or
// exclusive) on pid.
func (lm *LockManager) Holds(tid TransactionID, pid any) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	st, ok := lm.pages[pid]
	if !ok {
		return false
	}
	return st.shared[tid] || (st.hasExcl && st.exclusive == tid)
}

// DirtyPages returns the set of page keys for which tid holds the
// exclusive lock -- candidates for the flush-or-discard decision at
// transactionComplete.
func (lm *LockManager) DirtyPages(tid TransactionID) []any {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	var out []any
	for pid, st := range lm.pages {
		if st.hasExcl && st.exclusive == tid {
			out = append(out, pid)
		}
	}
	return out
}

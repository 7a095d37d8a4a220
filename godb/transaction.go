package godb

import "sync/atomic"

// TransactionID identifies a transaction. It is a monotonically
// allocated counter, per spec §3 (no UUIDs or timestamps needed: the
// lock manager and buffer pool only need equality and use as a map key).
type TransactionID int64

var nextTID int64

// NewTID allocates a fresh, never-reused TransactionID.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&nextTID, 1))
}

package godb

// BufferPool caches pages read from disk, up to a fixed capacity, and is
// the sole gatekeeper for page access: every read or write goes through
// GetPage, which acquires the page's lock from the LockManager before
// returning it. This is how two-phase locking is enforced (spec §4.4).

import (
	"sync"
)

// RWPerm is the permission requested when fetching a page.
type RWPerm int

const (
	ReadPerm RWPerm = iota
	WritePerm
)

// cacheEntry pairs a resident page with its last-access timestamp, used
// by the NO-STEAL eviction policy to pick the oldest clean page.
type cacheEntry struct {
	page       Page
	lastAccess int64
}

// BufferPool is the page cache and lock gatekeeper shared by every
// HeapFile in a database. State: a PageId->Page mapping with capacity
// maxPages, protected by a single monitor; locking is delegated to a
// LockManager (spec §4.4).
type BufferPool struct {
	mu       sync.Mutex
	pages    map[any]*cacheEntry
	maxPages int
	clock    int64
	locks    *LockManager
	active   map[TransactionID]bool
}

// NewBufferPool constructs a BufferPool with room for numPages pages.
func NewBufferPool(numPages int) (*BufferPool, error) {
	return &BufferPool{
		pages:    make(map[any]*cacheEntry),
		maxPages: numPages,
		locks:    NewLockManager(),
		active:   make(map[TransactionID]bool),
	}, nil
}

// BeginTransaction registers tid as active. Returns an error if tid is
// already running.
func (bp *BufferPool) BeginTransaction(tid TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.active[tid] {
		return newErr(TransactionAbortedError, "transaction %d is already running", tid)
	}
	bp.active[tid] = true
	return nil
}

// getPage retrieves pageNo from file on behalf of tid, first acquiring
// the page lock in the requested mode. A lock-manager Deadlock becomes
// TransactionAborted at this boundary (spec §7): the caller must stop
// doing DB work and the transaction machinery will call
// transactionComplete(tid, abort=true).
//
// On a cache hit, bumps the page's last-access clock and returns it. On
// a miss, evicts if full, then reads the page from file and installs
// it.
func (bp *BufferPool) getPage(file DBFile, pageNo int, tid TransactionID, perm RWPerm) (Page, error) {
	key := file.pageKey(pageNo)

	if err := bp.locks.Acquire(tid, key, perm); err != nil {
		bp.locks.MarkAborted(tid)
		return nil, ErrTransactionAborted
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	bp.clock++
	if entry, ok := bp.pages[key]; ok {
		entry.lastAccess = bp.clock
		return entry.page, nil
	}

	if len(bp.pages) >= bp.maxPages {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	page, err := file.readPage(pageNo)
	if err != nil {
		return nil, err
	}
	bp.pages[key] = &cacheEntry{page: page, lastAccess: bp.clock}
	return page, nil
}

// GetPage is the public entry point operators use to fetch a page
// through the pool.
func (bp *BufferPool) GetPage(file DBFile, pageNo int, tid TransactionID, perm RWPerm) (Page, error) {
	return bp.getPage(file, pageNo, tid, perm)
}

// evictLocked selects the oldest-accessed clean resident page and drops
// it from the cache. NO-STEAL forbids flushing a dirty page outside of
// commit, so if every resident page is dirty, eviction fails with
// ErrNoCleanPage (spec §4.4/§7) rather than violate that rule. Must be
// called with bp.mu held.
func (bp *BufferPool) evictLocked() error {
	var oldestKey any
	var oldestAt int64 = -1
	found := false
	for key, entry := range bp.pages {
		if entry.page.isDirty() {
			continue
		}
		if !found || entry.lastAccess < oldestAt {
			oldestKey = key
			oldestAt = entry.lastAccess
			found = true
		}
	}
	if !found {
		return ErrNoCleanPage
	}
	delete(bp.pages, oldestKey)
	return nil
}

// insertTuple routes t to the given file. The file marks every
// page it touches dirty with tid as it goes.
func (bp *BufferPool) insertTuple(tid TransactionID, file DBFile, t *Tuple) error {
	return file.insertTuple(t, tid)
}

// deleteTuple routes to the tuple's owning file via its stored Rid.
func (bp *BufferPool) deleteTuple(tid TransactionID, file DBFile, t *Tuple) error {
	return file.deleteTuple(t, tid)
}

// transactionComplete finalizes tid: on commit, every page it
// exclusively dirtied is written to disk and its before-image updated;
// on abort, every such page is simply discarded from the cache so a
// later read re-fetches the pre-transaction bytes from disk. Either way,
// every lock tid held is released (spec §4.4).
func (bp *BufferPool) transactionComplete(tid TransactionID, commit bool) error {
	dirtyKeys := bp.locks.DirtyPages(tid)

	bp.mu.Lock()
	for _, key := range dirtyKeys {
		entry, ok := bp.pages[key]
		if !ok {
			continue
		}
		dirtiedBy, isDirty := dirtiedByTid(entry.page)
		if !isDirty || dirtiedBy != tid {
			continue
		}
		if commit {
			if err := entry.page.getFile().flushPage(entry.page); err != nil {
				bp.mu.Unlock()
				return err
			}
			entry.page.setDirty(tid, false)
		} else {
			delete(bp.pages, key)
		}
	}
	delete(bp.active, tid)
	bp.mu.Unlock()

	bp.locks.ReleaseAll(tid)
	return nil
}

// dirtiedByTid is a small helper so transactionComplete can ask a Page
// (whose concrete type may vary) who dirtied it, without a type switch
// at every call site.
func dirtiedByTid(p Page) (TransactionID, bool) {
	if hp, ok := p.(*heapPage); ok {
		return hp.dirtiedByTid()
	}
	return 0, false
}

// CommitTransaction commits tid: see transactionComplete.
func (bp *BufferPool) CommitTransaction(tid TransactionID) error {
	return bp.transactionComplete(tid, true)
}

// AbortTransaction aborts tid: see transactionComplete.
func (bp *BufferPool) AbortTransaction(tid TransactionID) {
	_ = bp.transactionComplete(tid, false)
}

// FlushAllPages writes every dirty resident page to disk. Testing-only:
// it bypasses transaction bookkeeping entirely.
func (bp *BufferPool) FlushAllPages() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, entry := range bp.pages {
		if !entry.page.isDirty() {
			continue
		}
		if err := entry.page.getFile().flushPage(entry.page); err != nil {
			continue
		}
		entry.page.setDirty(0, false)
	}
}

// DiscardPage removes pid's cache entry without writing it, e.g. for use
// by recovery hooks outside this package's scope.
func (bp *BufferPool) DiscardPage(file DBFile, pageNo int) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	delete(bp.pages, file.pageKey(pageNo))
}

// HoldsLock reports whether tid holds any lock on file's pageNo.
func (bp *BufferPool) HoldsLock(tid TransactionID, file DBFile, pageNo int) bool {
	return bp.locks.Holds(tid, file.pageKey(pageNo))
}

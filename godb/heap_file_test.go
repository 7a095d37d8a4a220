package godb

import (
	"path/filepath"
	"testing"
)

func newTestHeapFile(t *testing.T, pageSize int) (*HeapFile, *BufferPool) {
	t.Helper()
	oldSize := PageSize
	PageSize = pageSize
	t.Cleanup(func() { PageSize = oldSize })

	bp, err := NewBufferPool(10)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.dat")
	hf, err := NewHeapFile(path, intIntDesc(), bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	return hf, bp
}

func TestHeapFileInsertAndIterate(t *testing.T) {
	hf, bp := newTestHeapFile(t, 4096)
	tid := NewTID()
	if err := bp.BeginTransaction(tid); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}

	const n = 1200 // forces multiple pages at 504 slots/page
	for i := 0; i < n; i++ {
		tup := &Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{IntField{Value: int64(i)}, IntField{Value: int64(i * 2)}}}
		if err := bp.insertTuple(tid, hf, tup); err != nil {
			t.Fatalf("insertTuple(%d): %v", i, err)
		}
	}
	if err := bp.CommitTransaction(tid); err != nil {
		t.Fatalf("CommitTransaction: %v", err)
	}

	if hf.NumPages() < 3 {
		t.Fatalf("expected at least 3 pages for %d tuples at 504/page, got %d", n, hf.NumPages())
	}

	readTid := NewTID()
	if err := bp.BeginTransaction(readTid); err != nil {
		t.Fatalf("BeginTransaction: %v", err)
	}
	iter, err := hf.Iterator(readTid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	count := 0
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iterator error: %v", err)
		}
		if tup == nil {
			break
		}
		if tup.Fields[0].(IntField).Value != int64(count) {
			t.Fatalf("tuple %d has field0=%d, want %d", count, tup.Fields[0].(IntField).Value, count)
		}
		count++
	}
	if count != n {
		t.Fatalf("iterated %d tuples, want %d", count, n)
	}
}

func TestHeapFileTableIDDeterministic(t *testing.T) {
	dir := t.TempDir()
	bp, _ := NewBufferPool(5)
	path := filepath.Join(dir, "a.dat")
	hf1, err := NewHeapFile(path, intIntDesc(), bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	hf2, err := NewHeapFile(path, intIntDesc(), bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}
	if hf1.TableID() != hf2.TableID() {
		t.Fatalf("expected same table id for same path, got %d and %d", hf1.TableID(), hf2.TableID())
	}
}

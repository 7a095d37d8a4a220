package godb

import (
	"path/filepath"
	"testing"
)

func TestDeleteOpRemovesTuples(t *testing.T) {
	oldSize := PageSize
	PageSize = 4096
	t.Cleanup(func() { PageSize = oldSize })

	desc := intIntDesc()
	bp, err := NewBufferPool(5)
	if err != nil {
		t.Fatalf("NewBufferPool: %v", err)
	}
	hf, err := NewHeapFile(filepath.Join(t.TempDir(), "t.dat"), desc, bp)
	if err != nil {
		t.Fatalf("NewHeapFile: %v", err)
	}

	insTid := NewTID()
	bp.BeginTransaction(insTid)
	inserted := []*Tuple{
		{Desc: *desc, Fields: []DBValue{IntField{Value: 1}, IntField{Value: 1}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 2}, IntField{Value: 2}}},
	}
	for _, tup := range inserted {
		if err := bp.insertTuple(insTid, hf, tup); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := bp.CommitTransaction(insTid); err != nil {
		t.Fatalf("CommitTransaction: %v", err)
	}

	delTid := NewTID()
	bp.BeginTransaction(delTid)
	scanIter, err := hf.Iterator(delTid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var rows []*Tuple
	for {
		tup, err := scanIter()
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if tup == nil {
			break
		}
		rows = append(rows, tup)
	}
	child := &sliceOp{desc: desc, rows: rows}
	del := NewDeleteOp(delTid, bp, hf, child)
	iter, err := del.Iterator(delTid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	countTup, err := iter()
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	if countTup == nil || countTup.Fields[0].(IntField).Value != 2 {
		t.Fatalf("delete count = %v, want (2)", countTup)
	}
	if err := bp.CommitTransaction(delTid); err != nil {
		t.Fatalf("CommitTransaction: %v", err)
	}

	checkTid := NewTID()
	bp.BeginTransaction(checkTid)
	finalIter, err := hf.Iterator(checkTid)
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	remaining, err := finalIter()
	if err != nil {
		t.Fatalf("final scan: %v", err)
	}
	if remaining != nil {
		t.Fatalf("expected no tuples remaining, saw %+v", remaining.Fields)
	}
}

package godb

import "testing"

func intIntDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: "a", Ftype: IntType}, {Fname: "b", Ftype: IntType}}}
}

func TestNumSlotsForTwoIntFields(t *testing.T) {
	old := PageSize
	PageSize = 4096
	defer func() { PageSize = old }()

	n := numSlotsFor(intIntDesc().bytesPerTuple())
	if n != 504 {
		t.Fatalf("numSlotsFor(8 bytes) on a 4096 byte page = %d, want 504", n)
	}
}

func TestHeapPageRoundTrip(t *testing.T) {
	old := PageSize
	PageSize = 4096
	defer func() { PageSize = old }()

	desc := intIntDesc()
	hp, err := newHeapPage(desc, 0, nil)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	if hp.getNumSlots() != 504 {
		t.Fatalf("empty page has %d slots, want 504", hp.getNumSlots())
	}

	for i := 0; i < 10; i++ {
		tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int64(i)}, IntField{Value: int64(i * 2)}}}
		if _, err := hp.insertTuple(tup); err != nil {
			t.Fatalf("insertTuple(%d): %v", i, err)
		}
	}
	if hp.getNumEmptySlots() != 504-10 {
		t.Fatalf("getNumEmptySlots() = %d, want %d", hp.getNumEmptySlots(), 504-10)
	}

	data, err := hp.serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if len(data) != PageSize {
		t.Fatalf("serialize() length = %d, want %d", len(data), PageSize)
	}

	parsed, err := newHeapPageFromBytes(desc, 0, nil, data)
	if err != nil {
		t.Fatalf("newHeapPageFromBytes: %v", err)
	}

	iter := parsed.tupleIter()
	for i := 0; i < 10; i++ {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter() at %d: %v", i, err)
		}
		if tup == nil {
			t.Fatalf("iter() at %d returned nil, want tuple", i)
		}
		a := tup.Fields[0].(IntField).Value
		b := tup.Fields[1].(IntField).Value
		if a != int64(i) || b != int64(i*2) {
			t.Fatalf("tuple %d = (%d,%d), want (%d,%d)", i, a, b, i, i*2)
		}
	}
	last, err := iter()
	if err != nil || last != nil {
		t.Fatalf("expected end of iteration, got (%v, %v)", last, err)
	}
}

func TestHeapPageDeleteClearsHeaderBit(t *testing.T) {
	old := PageSize
	PageSize = 4096
	defer func() { PageSize = old }()

	desc := intIntDesc()
	hp, err := newHeapPage(desc, 0, nil)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}, IntField{Value: 2}}}
	rid, err := hp.insertTuple(tup)
	if err != nil {
		t.Fatalf("insertTuple: %v", err)
	}
	if err := hp.deleteTuple(rid); err != nil {
		t.Fatalf("deleteTuple: %v", err)
	}
	if hp.getNumEmptySlots() != hp.getNumSlots() {
		t.Fatalf("expected all slots empty after delete, got %d empty of %d", hp.getNumEmptySlots(), hp.getNumSlots())
	}

	data, err := hp.serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed, err := newHeapPageFromBytes(desc, 0, nil, data)
	if err != nil {
		t.Fatalf("newHeapPageFromBytes: %v", err)
	}
	if first, _ := parsed.tupleIter()(); first != nil {
		t.Fatalf("expected no tuples after delete+round-trip, got %+v", first)
	}
}

func TestHeapPageInsertFullFails(t *testing.T) {
	old := PageSize
	PageSize = 4096
	defer func() { PageSize = old }()

	desc := intIntDesc()
	hp, err := newHeapPage(desc, 0, nil)
	if err != nil {
		t.Fatalf("newHeapPage: %v", err)
	}
	for i := 0; i < hp.getNumSlots(); i++ {
		tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int64(i)}, IntField{Value: int64(i)}}}
		if _, err := hp.insertTuple(tup); err != nil {
			t.Fatalf("insertTuple(%d): %v", i, err)
		}
	}
	extra := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 0}, IntField{Value: 0}}}
	if _, err := hp.insertTuple(extra); err != ErrPageFull {
		t.Fatalf("insertTuple on full page = %v, want ErrPageFull", err)
	}
}

package godb

import "testing"

func TestFilterPassesMatchingTuples(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	child := &sliceOp{desc: desc, rows: []*Tuple{intRow(desc, 1), intRow(desc, 5), intRow(desc, 10)}}

	f, err := NewFilter(0, OpGt, IntField{Value: 3}, child)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	iter, err := f.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var got []int64
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		if tup == nil {
			break
		}
		got = append(got, tup.Fields[0].(IntField).Value)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 10 {
		t.Fatalf("Filter(>3) = %v, want [5 10]", got)
	}
}

func TestFilterRejectsOutOfRangeField(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	child := &sliceOp{desc: desc}
	if _, err := NewFilter(5, OpEq, IntField{Value: 1}, child); err == nil {
		t.Fatalf("expected error for out-of-range field index")
	}
}

func TestJoinEquality(t *testing.T) {
	ldesc := &TupleDesc{Fields: []FieldType{{Fname: "id", Ftype: IntType}}}
	rdesc := &TupleDesc{Fields: []FieldType{{Fname: "fk", Ftype: IntType}}}
	left := &sliceOp{desc: ldesc, rows: []*Tuple{intRow(ldesc, 1), intRow(ldesc, 2)}}
	right := &sliceOp{desc: rdesc, rows: []*Tuple{intRow(rdesc, 2), intRow(rdesc, 3), intRow(rdesc, 2)}}

	j, err := NewJoin(left, 0, right, 0)
	if err != nil {
		t.Fatalf("NewJoin: %v", err)
	}
	iter, err := j.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	count := 0
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		if tup == nil {
			break
		}
		if len(tup.Fields) != 2 {
			t.Fatalf("joined tuple should have 2 fields, got %d", len(tup.Fields))
		}
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 matches for id=2 joined twice, got %d", count)
	}
}

func TestProjectRenamesAndDedupes(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "a", Ftype: IntType}, {Fname: "b", Ftype: IntType}}}
	child := &sliceOp{desc: desc, rows: []*Tuple{
		intRow(desc, 1, 10), intRow(desc, 1, 99), intRow(desc, 2, 10),
	}}
	p, err := NewProjectOp([]int{0}, []string{"x"}, true, child)
	if err != nil {
		t.Fatalf("NewProjectOp: %v", err)
	}
	if p.Descriptor().Fields[0].Fname != "x" {
		t.Fatalf("expected renamed field x, got %s", p.Descriptor().Fields[0].Fname)
	}
	iter, err := p.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var got []int64
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		if tup == nil {
			break
		}
		got = append(got, tup.Fields[0].(IntField).Value)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("distinct project = %v, want [1 2]", got)
	}
}

func TestLimitCapsOutput(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	child := &sliceOp{desc: desc, rows: []*Tuple{intRow(desc, 1), intRow(desc, 2), intRow(desc, 3)}}
	l := NewLimitOp(2, child)
	iter, err := l.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	count := 0
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		if tup == nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Fatalf("LimitOp(2) emitted %d tuples, want 2", count)
	}
}

func TestOrderByDescending(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	child := &sliceOp{desc: desc, rows: []*Tuple{intRow(desc, 3), intRow(desc, 1), intRow(desc, 2)}}
	ob, err := NewOrderBy([]int{0}, child, []bool{false})
	if err != nil {
		t.Fatalf("NewOrderBy: %v", err)
	}
	iter, err := ob.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var got []int64
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		if tup == nil {
			break
		}
		got = append(got, tup.Fields[0].(IntField).Value)
	}
	if len(got) != 3 || got[0] != 3 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("descending order = %v, want [3 2 1]", got)
	}
}

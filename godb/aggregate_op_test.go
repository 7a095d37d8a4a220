package godb

import "testing"

func TestAggregateAvgNoGrouping(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	child := &sliceOp{desc: desc, rows: []*Tuple{
		intRow(desc, 1), intRow(desc, 2), intRow(desc, 3), intRow(desc, 4),
	}}

	agg, err := NewAggregate(child, NoGrouping, 0, AvgAgg, "avg")
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	iter, err := agg.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	tup, err := iter()
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	if tup == nil || tup.Fields[0].(IntField).Value != 2 {
		t.Fatalf("AVG([1,2,3,4]) = %v, want (2)", tup)
	}
	if next, err := iter(); err != nil || next != nil {
		t.Fatalf("expected single-tuple result, got %v, %v", next, err)
	}
}

func TestAggregateCountGrouped(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "g", Ftype: IntType}, {Fname: "v", Ftype: IntType}}}
	child := &sliceOp{desc: desc, rows: []*Tuple{
		intRow(desc, 1, 10), intRow(desc, 1, 20), intRow(desc, 2, 30),
	}}
	agg, err := NewAggregate(child, 0, 1, CountAgg, "cnt")
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	iter, err := agg.Iterator(NewTID())
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	got := map[int64]int64{}
	for {
		tup, err := iter()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		if tup == nil {
			break
		}
		got[tup.Fields[0].(IntField).Value] = tup.Fields[1].(IntField).Value
	}
	if got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected grouped counts: %v", got)
	}
}

func TestAggregateStringRejectsSum(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "s", Ftype: StringType}}}
	child := &sliceOp{desc: desc}
	if _, err := NewAggregate(child, NoGrouping, 0, SumAgg, "s"); err == nil {
		t.Fatalf("expected IllegalOp rejecting SUM over a string field")
	}
}

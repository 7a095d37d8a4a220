package godb

import "sort"

// OrderBy is an additive, blocking operator (spec §6.6): it materializes
// its child fully, sorts by a list of fields, then streams the sorted
// result.
type OrderBy struct {
	fieldNos  []int
	child     Operator
	ascending []bool
}

// NewOrderBy constructs an OrderBy over child, sorting by fieldNos in
// order, with ascending[i] selecting ascending (true) or descending
// (false) order for fieldNos[i].
func NewOrderBy(fieldNos []int, child Operator, ascending []bool) (*OrderBy, error) {
	if len(fieldNos) != len(ascending) {
		return nil, newErr(SchemaMismatchError, "order by has %d fields but %d ascending flags", len(fieldNos), len(ascending))
	}
	desc := child.Descriptor()
	for _, fn := range fieldNos {
		if fn < 0 || fn >= len(desc.Fields) {
			return nil, newErr(NoSuchFieldError, "order by field index %d out of range", fn)
		}
	}
	return &OrderBy{fieldNos: fieldNos, child: child, ascending: ascending}, nil
}

// Descriptor returns the child's descriptor: ordering changes row order,
// not the fields emitted.
func (o *OrderBy) Descriptor() *TupleDesc {
	return o.child.Descriptor()
}

// compareAt returns -1, 0, or 1 comparing a and b's fieldNo-th field.
func compareAt(a, b *Tuple, fieldNo int) int {
	switch av := a.Fields[fieldNo].(type) {
	case IntField:
		bv := b.Fields[fieldNo].(IntField)
		switch {
		case av.Value < bv.Value:
			return -1
		case av.Value > bv.Value:
			return 1
		default:
			return 0
		}
	case StringField:
		bv := b.Fields[fieldNo].(StringField)
		switch {
		case av.Value < bv.Value:
			return -1
		case av.Value > bv.Value:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// Iterator is "blocking": it drains child fully, sorts in place by
// fieldNos/ascending, and then returns a closure streaming the sorted
// slice one tuple at a time.
func (o *OrderBy) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := o.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	var rows []*Tuple
	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		rows = append(rows, t)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for k, fn := range o.fieldNos {
			cmp := compareAt(rows[i], rows[j], fn)
			if !o.ascending[k] {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})

	idx := 0
	return func() (*Tuple, error) {
		if idx >= len(rows) {
			return nil, nil
		}
		t := rows[idx]
		idx++
		return t, nil
	}, nil
}

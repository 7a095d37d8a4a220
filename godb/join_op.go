package godb

// Join is a nested-loop equality join: for each left tuple, every right
// tuple whose join field matches is emitted as the concatenation of the
// two (spec §4.5). To avoid a full rescan of right per left tuple, the
// whole left side is buffered into a hash table keyed by the join field
// first, then right is scanned once.
type Join struct {
	leftField, rightField int
	left, right           Operator
}

// NewJoin constructs an equality join of left.leftField ==
// right.rightField.
func NewJoin(left Operator, leftField int, right Operator, rightField int) (*Join, error) {
	ld, rd := left.Descriptor(), right.Descriptor()
	if leftField < 0 || leftField >= len(ld.Fields) {
		return nil, newErr(NoSuchFieldError, "left join field %d out of range", leftField)
	}
	if rightField < 0 || rightField >= len(rd.Fields) {
		return nil, newErr(NoSuchFieldError, "right join field %d out of range", rightField)
	}
	return &Join{leftField: leftField, rightField: rightField, left: left, right: right}, nil
}

// Descriptor is the concatenation of the left and right descriptors.
func (j *Join) Descriptor() *TupleDesc {
	return j.left.Descriptor().merge(j.right.Descriptor())
}

// joinKey renders a DBValue as a comparable map key.
func joinKey(v DBValue) any {
	switch f := v.(type) {
	case IntField:
		return f.Value
	case StringField:
		return f.Value
	default:
		return v
	}
}

// Iterator buffers every left tuple into a hash table on leftField, then
// streams right once, emitting joinTuples(left, right) for every match.
// Right is rewound (re-Iterator'd) fresh for this join's evaluation, as
// spec §4.5 requires of the inner side.
func (j *Join) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	leftIter, err := j.left.Iterator(tid)
	if err != nil {
		return nil, err
	}
	buckets := make(map[any][]*Tuple)
	for {
		t, err := leftIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		k := joinKey(t.Fields[j.leftField])
		buckets[k] = append(buckets[k], t)
	}

	rightIter, err := j.right.Iterator(tid)
	if err != nil {
		return nil, err
	}

	var matches []*Tuple
	var rightTuple *Tuple
	idx := 0

	return func() (*Tuple, error) {
		for {
			if idx < len(matches) {
				out := joinTuples(matches[idx], rightTuple)
				idx++
				return out, nil
			}
			var err error
			rightTuple, err = rightIter()
			if err != nil {
				return nil, err
			}
			if rightTuple == nil {
				return nil, nil
			}
			k := joinKey(rightTuple.Fields[j.rightField])
			matches = buckets[k]
			idx = 0
		}
	}, nil
}

package godb

// LimitOp is an additive operator (spec §6.6): it caps its child's
// output to the first limit tuples.
type LimitOp struct {
	child Operator
	limit int64
}

// NewLimitOp constructs a LimitOp emitting at most limit tuples of
// child.
func NewLimitOp(limit int64, child Operator) *LimitOp {
	return &LimitOp{child: child, limit: limit}
}

func (l *LimitOp) Descriptor() *TupleDesc {
	return l.child.Descriptor()
}

func (l *LimitOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := l.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	var emitted int64
	return func() (*Tuple, error) {
		if emitted >= l.limit {
			return nil, nil
		}
		t, err := childIter()
		if err != nil || t == nil {
			return nil, err
		}
		emitted++
		return t, nil
	}, nil
}

package godb

// Filter passes through only the child tuples whose fieldNo-th field
// satisfies op against a fixed constant (spec §4.5). There is no
// expression tree: the predicate is always one field compared to one
// literal.
type Filter struct {
	fieldNo  int
	op       BoolOp
	constant DBValue
	child    Operator
}

// NewFilter constructs a Filter over child, comparing the field at
// fieldNo against constant using op.
func NewFilter(fieldNo int, op BoolOp, constant DBValue, child Operator) (*Filter, error) {
	desc := child.Descriptor()
	if fieldNo < 0 || fieldNo >= len(desc.Fields) {
		return nil, newErr(NoSuchFieldError, "field index %d out of range for %d fields", fieldNo, len(desc.Fields))
	}
	return &Filter{fieldNo: fieldNo, op: op, constant: constant, child: child}, nil
}

func (f *Filter) Descriptor() *TupleDesc {
	return f.child.Descriptor()
}

// Iterator pulls from the child and yields only tuples whose fieldNo-th
// field evaluates true against the predicate.
func (f *Filter) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := f.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	return func() (*Tuple, error) {
		for {
			t, err := childIter()
			if err != nil || t == nil {
				return nil, err
			}
			if t.Fields[f.fieldNo].EvalPred(f.constant, f.op) {
				return t, nil
			}
		}
	}, nil
}

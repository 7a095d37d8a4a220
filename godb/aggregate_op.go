package godb

// AggType names the five supported aggregate functions (spec §4.5).
type AggType int

const (
	CountAgg AggType = iota
	SumAgg
	AvgAgg
	MaxAgg
	MinAgg
)

// NoGrouping is the sentinel gbField meaning "one synthetic group over
// the whole input."
const NoGrouping = -1

// Aggregate groups its child's tuples by gbField (or a single group when
// gbField == NoGrouping), applying op to aField within each group.
type Aggregate struct {
	child   Operator
	gbField int
	aField  int
	op      AggType
	alias   string
	desc    *TupleDesc
}

func newAggState(op AggType) AggState {
	switch op {
	case CountAgg:
		return &CountAggState{}
	case SumAgg:
		return &SumAggState{}
	case AvgAgg:
		return &AvgAggState{}
	case MaxAgg:
		return &MaxAggState{}
	case MinAgg:
		return &MinAggState{}
	}
	return nil
}

// NewAggregate constructs an Aggregate over child. gbField is NoGrouping
// or a valid field index; aField must be a valid field index. alias
// names the aggregate output column.
func NewAggregate(child Operator, gbField int, aField int, op AggType, alias string) (*Aggregate, error) {
	desc := child.Descriptor()
	if aField < 0 || aField >= len(desc.Fields) {
		return nil, newErr(NoSuchFieldError, "aggregate field index %d out of range", aField)
	}
	if gbField != NoGrouping && (gbField < 0 || gbField >= len(desc.Fields)) {
		return nil, newErr(NoSuchFieldError, "group-by field index %d out of range", gbField)
	}

	probe := newAggState(op)
	if err := probe.Init(alias, aField, desc.Fields[aField].Ftype); err != nil {
		return nil, err
	}

	var outFields []FieldType
	if gbField != NoGrouping {
		outFields = append(outFields, desc.Fields[gbField])
	}
	outFields = append(outFields, probe.GetTupleDesc().Fields[0])

	return &Aggregate{
		child:   child,
		gbField: gbField,
		aField:  aField,
		op:      op,
		alias:   alias,
		desc:    &TupleDesc{Fields: outFields},
	}, nil
}

// Descriptor is (gbType, aggType) when grouped, else (aggType); aggType
// is always INT, since only COUNT is accepted over a string field.
func (a *Aggregate) Descriptor() *TupleDesc {
	return a.desc
}

// Iterator is blocking: it drains child fully, accumulating one AggState
// per distinct group-by value (or a single one for NoGrouping), then
// streams the finalized per-group tuples.
func (a *Aggregate) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := a.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	desc := a.child.Descriptor()
	aType := desc.Fields[a.aField].Ftype

	type group struct {
		gbVal DBValue
		state AggState
	}
	order := []any{}
	groups := make(map[any]*group)

	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}

		var key any = 0
		var gbVal DBValue
		if a.gbField != NoGrouping {
			gbVal = t.Fields[a.gbField]
			key = joinKey(gbVal)
		}

		g, ok := groups[key]
		if !ok {
			st := newAggState(a.op)
			if err := st.Init(a.alias, a.aField, aType); err != nil {
				return nil, err
			}
			g = &group{gbVal: gbVal, state: st}
			groups[key] = g
			order = append(order, key)
		}
		g.state.AddTuple(t)
	}

	idx := 0
	return func() (*Tuple, error) {
		if idx >= len(order) {
			return nil, nil
		}
		g := groups[order[idx]]
		idx++
		finalized := g.state.Finalize()
		if a.gbField == NoGrouping {
			return &Tuple{Desc: *a.desc, Fields: finalized.Fields}, nil
		}
		fields := append([]DBValue{g.gbVal}, finalized.Fields...)
		return &Tuple{Desc: *a.desc, Fields: fields}, nil
	}, nil
}

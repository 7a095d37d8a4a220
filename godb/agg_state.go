package godb

// AggState is the per-group running state for one aggregate column. A
// fresh AggState is Init'd once per group and fed every tuple assigned
// to that group via AddTuple; Finalize renders the accumulated state as
// a one-field tuple.
type AggState interface {
	Init(alias string, fieldNo int, ftype DBType) error
	Copy() AggState
	AddTuple(*Tuple)
	Finalize() *Tuple
	GetTupleDesc() *TupleDesc
}

// CountAggState implements COUNT, the only aggregate that string fields
// may use (spec §4.5).
type CountAggState struct {
	alias   string
	fieldNo int
	count   int64
}

func (a *CountAggState) Init(alias string, fieldNo int, ftype DBType) error {
	a.alias = alias
	a.fieldNo = fieldNo
	a.count = 0
	return nil
}

func (a *CountAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *CountAggState) AddTuple(t *Tuple) {
	a.count++
}

func (a *CountAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *CountAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: a.count}}}
}

// SumAggState implements SUM over an int field.
type SumAggState struct {
	alias   string
	fieldNo int
	sum     int64
}

func (a *SumAggState) Init(alias string, fieldNo int, ftype DBType) error {
	if ftype != IntType {
		return newErr(IllegalOpError, "SUM is not supported on string fields")
	}
	a.alias = alias
	a.fieldNo = fieldNo
	a.sum = 0
	return nil
}

func (a *SumAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *SumAggState) AddTuple(t *Tuple) {
	if v, ok := t.Fields[a.fieldNo].(IntField); ok {
		a.sum += v.Value
	}
}

func (a *SumAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *SumAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: a.sum}}}
}

// AvgAggState implements AVG over an int field: a running (sum, count),
// emitting sum/count truncated toward zero by Go's integer division (spec
// §9 open question resolution). AddTuple is always called at least once
// before Finalize for any group that exists, so count is never zero.
type AvgAggState struct {
	alias   string
	fieldNo int
	sum     int64
	count   int64
}

func (a *AvgAggState) Init(alias string, fieldNo int, ftype DBType) error {
	if ftype != IntType {
		return newErr(IllegalOpError, "AVG is not supported on string fields")
	}
	a.alias = alias
	a.fieldNo = fieldNo
	a.sum, a.count = 0, 0
	return nil
}

func (a *AvgAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *AvgAggState) AddTuple(t *Tuple) {
	if v, ok := t.Fields[a.fieldNo].(IntField); ok {
		a.sum += v.Value
		a.count++
	}
}

func (a *AvgAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *AvgAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{Value: a.sum / a.count}}}
}

// MaxAggState implements MAX over an int field; Init rejects string
// fields.
type MaxAggState struct {
	alias   string
	fieldNo int
	ftype   DBType
	val     DBValue
	seen    bool
}

func (a *MaxAggState) Init(alias string, fieldNo int, ftype DBType) error {
	if ftype != IntType {
		return newErr(IllegalOpError, "MAX is not supported on string fields")
	}
	a.alias, a.fieldNo, a.ftype = alias, fieldNo, ftype
	a.seen = false
	return nil
}

func (a *MaxAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *MaxAggState) AddTuple(t *Tuple) {
	v := t.Fields[a.fieldNo]
	if !a.seen {
		a.val = v
		a.seen = true
		return
	}
	if a.val.EvalPred(v, OpLt) {
		a.val = v
	}
}

func (a *MaxAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.ftype}}}
}

func (a *MaxAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.val}}
}

// MinAggState implements MIN over an int field (Init rejects string
// fields), sharing MaxAggState's shape but comparing the other way.
type MinAggState struct {
	alias   string
	fieldNo int
	ftype   DBType
	val     DBValue
	seen    bool
}

func (a *MinAggState) Init(alias string, fieldNo int, ftype DBType) error {
	if ftype != IntType {
		return newErr(IllegalOpError, "MIN is not supported on string fields")
	}
	a.alias, a.fieldNo, a.ftype = alias, fieldNo, ftype
	a.seen = false
	return nil
}

func (a *MinAggState) Copy() AggState {
	cp := *a
	return &cp
}

func (a *MinAggState) AddTuple(t *Tuple) {
	v := t.Fields[a.fieldNo]
	if !a.seen {
		a.val = v
		a.seen = true
		return
	}
	if a.val.EvalPred(v, OpGt) {
		a.val = v
	}
}

func (a *MinAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.ftype}}}
}

func (a *MinAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.val}}
}

package godb

// InsertOp drains its child exactly once into insertFile via the buffer
// pool, emitting a single one-column (count) tuple and then end of
// stream (spec §4.5).
type InsertOp struct {
	tid        TransactionID
	bp         *BufferPool
	insertFile DBFile
	child      Operator
}

var countDesc = &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}}

// NewInsertOp constructs an operator that inserts every tuple child
// produces into insertFile, using bp for the actual writes.
func NewInsertOp(tid TransactionID, bp *BufferPool, insertFile DBFile, child Operator) (*InsertOp, error) {
	if !child.Descriptor().equals(insertFile.Descriptor()) {
		return nil, newErr(SchemaMismatchError, "insert child schema does not match target table schema")
	}
	return &InsertOp{tid: tid, bp: bp, insertFile: insertFile, child: child}, nil
}

// Descriptor is the one-column "count" schema.
func (i *InsertOp) Descriptor() *TupleDesc {
	return countDesc
}

// Iterator drains child fully on first pull, inserting every tuple, then
// emits one (count) tuple; every call thereafter returns end-of-stream
// until Iterator is called again, which resets the latch (spec §4.5).
func (i *InsertOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := i.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	emitted := false
	return func() (*Tuple, error) {
		if emitted {
			return nil, nil
		}
		var count int64
		for {
			t, err := childIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := i.bp.insertTuple(i.tid, i.insertFile, t); err != nil {
				return nil, err
			}
			count++
		}
		emitted = true
		return &Tuple{Desc: *countDesc, Fields: []DBValue{IntField{Value: count}}}, nil
	}, nil
}

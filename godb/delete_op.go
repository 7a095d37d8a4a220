package godb

// DeleteOp drains its child exactly once, deleting every tuple it
// produces from deleteFile via the buffer pool, emitting a single
// one-column (count) tuple and then end of stream (spec §4.5), symmetric
// to InsertOp.
type DeleteOp struct {
	tid        TransactionID
	bp         *BufferPool
	deleteFile DBFile
	child      Operator
}

// NewDeleteOp constructs an operator that deletes every tuple child
// produces from deleteFile.
func NewDeleteOp(tid TransactionID, bp *BufferPool, deleteFile DBFile, child Operator) *DeleteOp {
	return &DeleteOp{tid: tid, bp: bp, deleteFile: deleteFile, child: child}
}

// Descriptor is the one-column "count" schema.
func (d *DeleteOp) Descriptor() *TupleDesc {
	return countDesc
}

// Iterator drains child fully on first pull, deleting every tuple, then
// emits one (count) tuple; the latch resets on the next Iterator call.
func (d *DeleteOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := d.child.Iterator(tid)
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
			if err := d.bp.deleteTuple(d.tid, d.deleteFile, t); err != nil {
				return nil, err
			}
			count++
		}
		emitted = true
		return &Tuple{Desc: *countDesc, Fields: []DBValue{IntField{Value: count}}}, nil
	}, nil
}

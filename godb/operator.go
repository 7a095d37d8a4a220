package godb

// Operator is the uniform pull interface every relational operator
// implements (spec §4.5). A tree of operators is single-threaded per
// evaluation: Iterator returns a closure that yields tuples one at a
// time, or (nil, nil) at end of stream.
type Operator interface {
	// Descriptor returns the schema of tuples this operator produces.
	Descriptor() *TupleDesc

	// Iterator opens the operator (propagating to any children) and
	// returns a pull closure. Calling Iterator again restarts the
	// operator from the beginning, equivalent to rewind.
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}

package godb

import (
	"fmt"
	"log"
	"math"
)

// Stats is the interface the query planner (outside this package's
// scope) consults for cost-based decisions: scan cost, cardinality
// after a selectivity, and per-field selectivity estimates.
type Stats interface {
	EstimateScanCost() float64
	EstimateCardinality(selectivity float64) int
	EstimateSelectivity(fieldIndex int, op BoolOp, value DBValue) (float64, error)
}

// TableStats holds one histogram per field of a table, built by two
// full scans: the first collects per-field (min, max) and a tuple
// count, the second populates the histograms (spec §4.6).
type TableStats struct {
	basePages     int
	baseTups      int
	ioCostPerPage float64
	histograms    map[int]any
	tupleDesc     *TupleDesc
}

// NumHistBins is the default histogram bin count. bucketCount does not
// consult it: a field's bucket count comes from the tuple count and the
// field's range alone.
const NumHistBins = 100

func packedRange(ft FieldType, lo, hi int64) int64 {
	r := hi - lo
	if r < 0 {
		r = 0
	}
	return r
}

// tableMinMax scans dbFile once, recording per-field (min, max) — for
// int fields, the value itself; for string fields, its packString
// encoding — plus the total tuple count.
func tableMinMax(tid TransactionID, dbFile DBFile) ([]int64, []int64, int, error) {
	td := dbFile.Descriptor()
	mins := make([]int64, len(td.Fields))
	maxs := make([]int64, len(td.Fields))
	for i := range mins {
		mins[i] = math.MaxInt32
		maxs[i] = math.MinInt32
	}

	iter, err := dbFile.Iterator(tid)
	if err != nil {
		return nil, nil, 0, err
	}
	count := 0
	for tup, err := iter(); tup != nil; tup, err = iter() {
		if err != nil {
			return nil, nil, 0, err
		}
		for i, f := range td.Fields {
			var v int64
			switch f.Ftype {
			case IntType:
				v = tup.Fields[i].(IntField).Value
			case StringType:
				v = packString(tup.Fields[i].(StringField).Value)
			}
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
		count++
	}
	for i := range mins {
		if mins[i] > maxs[i] {
			mins[i] = 0
			maxs[i] = 0
		}
	}
	return mins, maxs, count, nil
}

// bucketCount implements spec §4.6's rule: max(1, min(totalTups/20,
// fieldRange+1)).
func bucketCount(totalTups int, fieldRange int64) int {
	byTups := totalTups / 20
	byRange := int(fieldRange) + 1
	n := byTups
	if byRange < n {
		n = byRange
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ComputeTableStats builds a TableStats for dbFile by scanning it
// twice under a dedicated transaction, grounded on the teacher's
// two-pass construction.
func ComputeTableStats(bp *BufferPool, dbFile DBFile, ioCostPerPage float64) (*TableStats, error) {
	tid := NewTID()
	if err := bp.BeginTransaction(tid); err != nil {
		return nil, err
	}
	defer bp.CommitTransaction(tid)

	td := dbFile.Descriptor()

	mins, maxs, baseTups, err := tableMinMax(tid, dbFile)
	if err != nil {
		return nil, err
	}

	hists := make(map[int]any, len(td.Fields))
	for i, f := range td.Fields {
		n := bucketCount(baseTups, packedRange(f, mins[i], maxs[i]))
		switch f.Ftype {
		case IntType:
			h, err := NewIntHistogram(n, mins[i], maxs[i])
			if err != nil {
				return nil, err
			}
			hists[i] = h
		case StringType:
			h, err := NewStringHistogram(n, unpackApprox(mins[i]), unpackApprox(maxs[i]))
			if err != nil {
				return nil, err
			}
			hists[i] = h
		case UnknownType:
			return nil, fmt.Errorf("unexpected unknown type")
		}
	}

	iter, err := dbFile.Iterator(tid)
	if err != nil {
		return nil, err
	}
	for tup, err := iter(); tup != nil; tup, err = iter() {
		if err != nil {
			return nil, err
		}
		for i, f := range td.Fields {
			switch f.Ftype {
			case IntType:
				hists[i].(*IntHistogram).AddValue(tup.Fields[i].(IntField).Value)
			case StringType:
				hists[i].(*StringHistogram).AddValue(tup.Fields[i].(StringField).Value)
			}
		}
	}

	return &TableStats{
		basePages:     dbFile.NumPages(),
		baseTups:      baseTups,
		ioCostPerPage: ioCostPerPage,
		histograms:    hists,
		tupleDesc:     td,
	}, nil
}

// unpackApprox constructs a string whose packString encoding reproduces
// a packed min/max bound, so NewStringHistogram can be built directly
// from the integer bounds tableMinMax already collected, without
// re-reading the original strings.
func unpackApprox(packed int64) string {
	var bytes [stringHistMaxChars]byte
	v := packed
	for i := stringHistMaxChars - 1; i >= 0; i-- {
		bytes[i] = byte(v % 128)
		v /= 128
	}
	return string(bytes[:])
}

// EstimateScanCost is numPages * ioCostPerPage, assuming no pages are
// cached and no seeks (spec §4.6).
func (t *TableStats) EstimateScanCost() float64 {
	return float64(t.basePages) * t.ioCostPerPage
}

// EstimateCardinality is floor(totalTups * selectivity).
func (t *TableStats) EstimateCardinality(selectivity float64) int {
	return int(float64(t.baseTups) * selectivity)
}

// EstimateSelectivity dispatches to fieldIndex's histogram.
func (t *TableStats) EstimateSelectivity(fieldIndex int, op BoolOp, value DBValue) (float64, error) {
	hist, ok := t.histograms[fieldIndex]
	if !ok {
		log.Printf("no histogram for field index %d, assuming selectivity 1.0", fieldIndex)
		return 1.0, nil
	}
	switch h := hist.(type) {
	case *IntHistogram:
		v, ok := value.(IntField)
		if !ok {
			return 1.0, fmt.Errorf("field %d is int, but value %v is not an IntField", fieldIndex, value)
		}
		return h.EstimateSelectivity(op, v.Value), nil
	case *StringHistogram:
		v, ok := value.(StringField)
		if !ok {
			return 1.0, fmt.Errorf("field %d is string, but value is not a StringField", fieldIndex)
		}
		return h.EstimateSelectivity(op, v.Value), nil
	}
	return 1.0, fmt.Errorf("unexpected histogram type")
}

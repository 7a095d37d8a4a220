package godb

import "fmt"

// Project is an additive operator (not part of the core six, but a
// natural extension per spec §6.6): it narrows and renames a subset of
// its child's fields, optionally suppressing duplicate output tuples.
type Project struct {
	fieldNos    []int
	outputNames []string
	child       Operator
	distinct    bool
	desc        *TupleDesc
}

// NewProjectOp selects child's fields at fieldNos, renaming the i-th
// selected field to outputNames[i]. If distinct, only the first
// occurrence of each output tuple is emitted.
func NewProjectOp(fieldNos []int, outputNames []string, distinct bool, child Operator) (*Project, error) {
	if len(fieldNos) != len(outputNames) {
		return nil, newErr(SchemaMismatchError, "projection has %d fields but %d output names", len(fieldNos), len(outputNames))
	}
	childDesc := child.Descriptor()
	fields := make([]FieldType, len(fieldNos))
	for i, fn := range fieldNos {
		if fn < 0 || fn >= len(childDesc.Fields) {
			return nil, newErr(NoSuchFieldError, "project field index %d out of range", fn)
		}
		fields[i] = childDesc.Fields[fn]
		fields[i].Fname = outputNames[i]
	}
	return &Project{
		fieldNos:    fieldNos,
		outputNames: outputNames,
		child:       child,
		distinct:    distinct,
		desc:        &TupleDesc{Fields: fields},
	}, nil
}

func (p *Project) Descriptor() *TupleDesc {
	return p.desc
}

// distinctKey renders a projected tuple's fields as a comparable map key.
func distinctKey(t *Tuple) any {
	key := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		key[i] = joinKey(f)
	}
	return fmt.Sprint(key)
}

func (p *Project) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := p.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	seen := make(map[any]bool)

	return func() (*Tuple, error) {
		for {
			t, err := childIter()
			if err != nil || t == nil {
				return nil, err
			}
			fields := make([]DBValue, len(p.fieldNos))
			for i, fn := range p.fieldNos {
				fields[i] = t.Fields[fn]
			}
			out := &Tuple{Desc: *p.desc, Fields: fields}
			if p.distinct {
				k := distinctKey(out)
				if seen[k] {
					continue
				}
				seen[k] = true
			}
			return out, nil
		}
	}, nil
}

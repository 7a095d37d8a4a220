package godb

// SeqScan scans every tuple of a table's HeapFile in order, exposing a
// TupleDesc whose field names are alias-qualified (spec §4.5).
type SeqScan struct {
	tid     TransactionID
	tableID int
	alias   string
	file    DBFile
	desc    *TupleDesc
}

// NewSeqScan constructs a full-table scan of the HeapFile registered
// under tableID in c, aliasing every field name "alias.original". An
// empty alias or field name is rendered as the literal "null" (both
// empty gives "null.null") rather than crashing, matching spec §4.5.
func NewSeqScan(tid TransactionID, tableID int, alias string, c *Catalog) (*SeqScan, error) {
	file, err := c.GetDBFile(tableID)
	if err != nil {
		return nil, err
	}
	base := file.Descriptor()
	prefixed := make([]FieldType, len(base.Fields))
	for i, f := range base.Fields {
		prefixed[i] = FieldType{
			Fname:          qualify(alias, f.Fname),
			TableQualifier: alias,
			Ftype:          f.Ftype,
		}
	}
	return &SeqScan{
		tid:     tid,
		tableID: tableID,
		alias:   alias,
		file:    file,
		desc:    &TupleDesc{Fields: prefixed},
	}, nil
}

// qualify renders "alias.name", substituting the literal string "null"
// for either side when empty, so callers never see a crash from an
// unset alias or field name.
func qualify(alias, name string) string {
	if alias == "" {
		alias = "null"
	}
	if name == "" {
		name = "null"
	}
	return alias + "." + name
}

func (s *SeqScan) Descriptor() *TupleDesc {
	return s.desc
}

// Iterator wraps the underlying HeapFile iterator, re-tagging each
// returned tuple with this scan's alias-qualified descriptor.
func (s *SeqScan) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	inner, err := s.file.Iterator(tid)
	if err != nil {
		return nil, err
	}
	return func() (*Tuple, error) {
		t, err := inner()
		if err != nil || t == nil {
			return nil, err
		}
		return &Tuple{Desc: *s.desc, Fields: t.Fields, Rid: t.Rid}, nil
	}, nil
}

package godb

import "fmt"

// DBType is the type of a tuple field: IntType or StringType.
type DBType int

const (
	IntType DBType = iota
	StringType
	UnknownType // neither int nor string; ComputeTableStats rejects it
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// intWidth and default StringLength are the on-disk byte widths for the
// two field types: an int serializes to 4 bytes, a string to a 4-byte
// length prefix plus StringLength capacity bytes, padded with zeros.
const intWidth = 4

// StringLength is the default fixed capacity, in bytes, for string
// fields. It is a configurable constant (spec §6); tests may reduce it
// to shrink tuple size.
var StringLength = 128

// FieldType names a field: its name, the (possibly empty) alias of the
// table it came from, and its DBType.
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
}

// byteWidth returns f's serialized size on disk.
func (f FieldType) byteWidth() int {
	switch f.Ftype {
	case StringType:
		return intWidth + StringLength
	default:
		return intWidth
	}
}

// TupleDesc is the schema of a tuple: an ordered sequence of FieldTypes.
type TupleDesc struct {
	Fields []FieldType
}

// bytesPerTuple is the sum of each field's own byte width. This is the
// spec-mandated fix for the source's bug of treating every field as an
// int-sized slot, which corrupts string-bearing heap pages.
func (td *TupleDesc) bytesPerTuple() int {
	n := 0
	for _, f := range td.Fields {
		n += f.byteWidth()
	}
	return n
}

// equals compares two TupleDescs field-by-field: same length, same
// ordered (type, name) sequence. TableQualifier is not part of equality.
func (td *TupleDesc) equals(other *TupleDesc) bool {
	if len(td.Fields) != len(other.Fields) {
		return false
	}
	for i := range td.Fields {
		if td.Fields[i].Fname != other.Fields[i].Fname {
			return false
		}
		if td.Fields[i].Ftype != other.Fields[i].Ftype {
			return false
		}
	}
	return true
}

// copy returns a TupleDesc with its own backing Fields slice.
func (td *TupleDesc) copy() *TupleDesc {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	return &TupleDesc{Fields: fields}
}

// setTableAlias rewrites every field's TableQualifier to alias, leaving
// names and types untouched. A null/empty alias is accepted as-is.
func (td *TupleDesc) setTableAlias(alias string) {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	for i := range fields {
		fields[i].TableQualifier = alias
	}
	td.Fields = fields
}

// findFieldInTd returns the index of the first field in desc matching
// name, or a "no such field" error.
func findFieldInTd(name string, desc *TupleDesc) (int, error) {
	for i, f := range desc.Fields {
		if f.Fname == name {
			return i, nil
		}
	}
	return -1, newErr(NoSuchFieldError, "no such field %q", name)
}

// merge concatenates desc's fields followed by desc2's fields into a new
// TupleDesc; neither input is mutated.
func (td *TupleDesc) merge(desc2 *TupleDesc) *TupleDesc {
	fields := make([]FieldType, 0, len(td.Fields)+len(desc2.Fields))
	fields = append(fields, td.Fields...)
	fields = append(fields, desc2.Fields...)
	return &TupleDesc{Fields: fields}
}

// BoolOp is a comparison operator used by Filter predicates and
// histogram selectivity estimates.
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
)

func (op BoolOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLike:
		return "LIKE"
	}
	return "?"
}

// DBValue is a tagged field value: IntField or StringField.
type DBValue interface {
	EvalPred(v DBValue, op BoolOp) bool
	fmt.Stringer
}

// IntField is a 32-bit-range signed integer value, stored as int64 for
// arithmetic headroom in aggregates.
type IntField struct {
	Value int64
}

func (f IntField) String() string {
	return fmt.Sprintf("%d", f.Value)
}

// EvalPred evaluates "f op v" and reports whether it holds. Comparing
// against a non-IntField is always false, matching the source's
// per-type equality/ordering rule.
func (f IntField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(IntField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNe:
		return f.Value != other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	default:
		return false
	}
}

// StringField is a fixed-capacity string value (capacity: StringLength
// at serialization time).
type StringField struct {
	Value string
}

func (f StringField) String() string {
	return f.Value
}

// EvalPred evaluates "f op v". OpLike does a simple substring match,
// matching the subset of LIKE this core supports (no wildcards beyond
// plain containment, since the SQL LIKE grammar is the parser's job).
func (f StringField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(StringField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNe:
		return f.Value != other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLike:
		return stringsContains(f.Value, other.Value)
	default:
		return false
	}
}

func stringsContains(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

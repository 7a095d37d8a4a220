package godb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Tuple is a TupleDesc plus a value per field, plus an optional record
// identifier set once the tuple has been placed on a page.
//
// Invariant: len(Fields) == len(Desc.Fields) and Fields[i]'s concrete
// type matches Desc.Fields[i].Ftype.
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    recordID
}

// writeTo serializes t's fields, in order, as fixed-width records: an
// int field as 4 bytes big-endian, a string field as a 4-byte big-endian
// length prefix followed by StringLength capacity bytes (zero-padded).
func (t *Tuple) writeTo(b *bytes.Buffer) error {
	for i, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			if err := binary.Write(b, binary.BigEndian, int32(v.Value)); err != nil {
				return err
			}
		case StringField:
			if err := writeStringField(b, v); err != nil {
				return err
			}
		default:
			return newErr(SchemaMismatchError, "tuple field %d has unsupported type %T", i, f)
		}
	}
	return nil
}

func writeStringField(b *bytes.Buffer, f StringField) error {
	raw := []byte(f.Value)
	if len(raw) > StringLength {
		raw = raw[:StringLength]
	}
	if err := binary.Write(b, binary.BigEndian, int32(len(raw))); err != nil {
		return err
	}
	padded := make([]byte, StringLength)
	copy(padded, raw)
	_, err := b.Write(padded)
	return err
}

// readTupleFrom deserializes a tuple matching desc from b, the inverse
// of writeTo.
func readTupleFrom(b *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	fields := make([]DBValue, len(desc.Fields))
	for i, ft := range desc.Fields {
		switch ft.Ftype {
		case StringType:
			sf, err := readStringField(b)
			if err != nil {
				return nil, err
			}
			fields[i] = sf
		default:
			var raw int32
			if err := binary.Read(b, binary.BigEndian, &raw); err != nil {
				return nil, err
			}
			fields[i] = IntField{Value: int64(raw)}
		}
	}
	return &Tuple{Desc: *desc, Fields: fields}, nil
}

func readStringField(b *bytes.Buffer) (StringField, error) {
	var length int32
	if err := binary.Read(b, binary.BigEndian, &length); err != nil {
		return StringField{}, err
	}
	raw := make([]byte, StringLength)
	if _, err := b.Read(raw); err != nil {
		return StringField{}, err
	}
	if int(length) > len(raw) {
		length = int32(len(raw))
	}
	return StringField{Value: string(raw[:length])}, nil
}

// equals reports whether two tuples have equal descriptors (per
// TupleDesc.equals) and equal fields, position by position. Rid is not
// part of equality.
func (t *Tuple) equals(other *Tuple) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !t.Desc.equals(&other.Desc) {
		return false
	}
	if len(t.Fields) != len(other.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// joinTuples concatenates t1's fields and descriptor with t2's,
// producing a fresh Tuple with no Rid (a joined tuple has no single
// page/slot it came from).
func joinTuples(t1, t2 *Tuple) *Tuple {
	if t1 == nil {
		return t2
	}
	if t2 == nil {
		return t1
	}
	return &Tuple{
		Desc:   *t1.Desc.merge(&t2.Desc),
		Fields: append(append([]DBValue{}, t1.Fields...), t2.Fields...),
	}
}

// PrettyPrintString renders t as a single line, comma-separated.
func (t *Tuple) PrettyPrintString() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = fmt.Sprint(f)
	}
	return strings.Join(parts, ",")
}

package codec

import (
	"fmt"

	"github.com/canopy-network/smtkv/lib"
	"google.golang.org/protobuf/encoding/protowire"
)

/*
	This package implements the binary form of every structure exchanged between the prover, the host and the validators.
	Structures are encoded as protobuf wire format messages through protowire, without generated code.

	Decoding is strict so that one structure has exactly one accepted encoding shape:
	- a field number missing from the schema is rejected
	- a field with a wire type other than the one declared is rejected
	- a singular field that appears more than once is rejected
	- any byte that does not belong to a well formed field is rejected
	Optional byte strings are encoded only when present, so present-but-empty is distinct from absent.
*/

// Encoder appends protobuf wire format fields in the order they are written
type Encoder struct {
	buf []byte
}

// NewEncoder() creates an empty encoder
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes() appends a length delimited field
func (e *Encoder) Bytes(num protowire.Number, b []byte) *Encoder {
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, b)
	return e
}

// OptBytes() appends a length delimited field only if present
func (e *Encoder) OptBytes(num protowire.Number, b []byte, present bool) *Encoder {
	if !present {
		return e
	}
	return e.Bytes(num, b)
}

// Varint() appends a varint field
func (e *Encoder) Varint(num protowire.Number, v uint64) *Encoder {
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, v)
	return e
}

// Encoded() returns the message bytes
func (e *Encoder) Encoded() []byte {
	if e.buf == nil {
		return []byte{}
	}
	return e.buf
}

// FieldSpec declares the wire type of a field and whether it may repeat
type FieldSpec struct {
	Type     protowire.Type
	Repeated bool
}

// Schema declares every field a message may contain
type Schema map[protowire.Number]FieldSpec

// Fields holds the decoded fields of a message
type Fields struct {
	bytes   map[protowire.Number][][]byte
	varints map[protowire.Number]uint64
}

// Decode() parses a message strictly against the schema
func Decode(bz []byte, schema Schema) (*Fields, lib.ErrorI) {
	f := &Fields{bytes: make(map[protowire.Number][][]byte), varints: make(map[protowire.Number]uint64)}
	seen := make(map[protowire.Number]bool)
	for len(bz) > 0 {
		num, typ, n := protowire.ConsumeTag(bz)
		if n < 0 {
			return nil, lib.ErrEncoding(protowire.ParseError(n))
		}
		bz = bz[n:]
		spec, ok := schema[num]
		if !ok {
			return nil, lib.ErrEncoding(fmt.Errorf("unknown field number %d", num))
		}
		if typ != spec.Type {
			return nil, lib.ErrEncoding(fmt.Errorf("field %d has wire type %d, expected %d", num, typ, spec.Type))
		}
		if seen[num] && !spec.Repeated {
			return nil, lib.ErrEncoding(fmt.Errorf("singular field %d is repeated", num))
		}
		seen[num] = true
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(bz)
			if m < 0 {
				return nil, lib.ErrEncoding(protowire.ParseError(m))
			}
			f.bytes[num] = append(f.bytes[num], append([]byte{}, v...))
			n = m
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(bz)
			if m < 0 {
				return nil, lib.ErrEncoding(protowire.ParseError(m))
			}
			f.varints[num] = v
			n = m
		default:
			return nil, lib.ErrEncoding(fmt.Errorf("unsupported wire type %d", typ))
		}
		bz = bz[n:]
	}
	return f, nil
}

// Bytes() returns a singular length delimited field and whether it was present
func (f *Fields) Bytes(num protowire.Number) ([]byte, bool) {
	v, ok := f.bytes[num]
	if !ok {
		return nil, false
	}
	return v[0], true
}

// RequiredBytes() returns a singular length delimited field that must be present with the exact length
// a length < 0 accepts any length
func (f *Fields) RequiredBytes(num protowire.Number, length int) ([]byte, lib.ErrorI) {
	v, ok := f.Bytes(num)
	if !ok {
		return nil, lib.ErrEncoding(fmt.Errorf("missing field %d", num))
	}
	if length >= 0 && len(v) != length {
		return nil, lib.ErrEncoding(fmt.Errorf("field %d has %d bytes, expected %d", num, len(v), length))
	}
	return v, nil
}

// RepeatedBytes() returns every occurrence of a repeated length delimited field in order
func (f *Fields) RepeatedBytes(num protowire.Number) [][]byte { return f.bytes[num] }

// Varint() returns a singular varint field; absent reads as 0
func (f *Fields) Varint(num protowire.Number) uint64 { return f.varints[num] }

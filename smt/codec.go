package smt

import (
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/codec"
	"google.golang.org/protobuf/encoding/protowire"
)

/*
	Wire layouts:

	Update        { 1: new_root (32 bytes), 2: repeated Change, 3: proof }
	Change        { 1: key, 2: old_value (optional), 3: new_value (optional) }
	DataWithProof { 1: repeated KeyValue, 2: proof }
	KeyValue      { 1: key, 2: value (optional) }
*/

var (
	updateSchema = codec.Schema{
		1: {Type: protowire.BytesType},
		2: {Type: protowire.BytesType, Repeated: true},
		3: {Type: protowire.BytesType},
	}
	changeSchema = codec.Schema{
		1: {Type: protowire.BytesType},
		2: {Type: protowire.BytesType},
		3: {Type: protowire.BytesType},
	}
	dataWithProofSchema = codec.Schema{
		1: {Type: protowire.BytesType, Repeated: true},
		2: {Type: protowire.BytesType},
	}
	keyValueSchema = codec.Schema{
		1: {Type: protowire.BytesType},
		2: {Type: protowire.BytesType},
	}
)

// Bytes() encodes the update
func (u *Update) Bytes() []byte {
	e := codec.NewEncoder().Bytes(1, u.NewRoot[:])
	for _, c := range u.Changes {
		e.Bytes(2, c.bytes())
	}
	return e.Bytes(3, u.Proof).Encoded()
}

// bytes() encodes one change
func (c Change) bytes() []byte {
	return codec.NewEncoder().
		Bytes(1, c.Key).
		OptBytes(2, c.OldValue.value, c.OldValue.some).
		OptBytes(3, c.NewValue.value, c.NewValue.some).
		Encoded()
}

// NewUpdateFromBytes() decodes an update
func NewUpdateFromBytes(bz []byte) (*Update, lib.ErrorI) {
	f, err := codec.Decode(bz, updateSchema)
	if err != nil {
		return nil, err
	}
	root, err := f.RequiredBytes(1, len(Zero))
	if err != nil {
		return nil, err
	}
	u := &Update{Changes: make([]Change, 0)}
	copy(u.NewRoot[:], root)
	for _, cbz := range f.RepeatedBytes(2) {
		cf, e := codec.Decode(cbz, changeSchema)
		if e != nil {
			return nil, e
		}
		key, e := cf.RequiredBytes(1, -1)
		if e != nil {
			return nil, e
		}
		u.Changes = append(u.Changes, Change{Key: key, OldValue: optFromField(cf, 2), NewValue: optFromField(cf, 3)})
	}
	u.Proof, _ = f.Bytes(3)
	return u, nil
}

// Bytes() encodes the data with proof
func (d *DataWithProof) Bytes() []byte {
	e := codec.NewEncoder()
	for _, kv := range d.Entries {
		e.Bytes(1, codec.NewEncoder().Bytes(1, kv.Key).OptBytes(2, kv.Value.value, kv.Value.some).Encoded())
	}
	return e.Bytes(2, d.Proof).Encoded()
}

// NewDataWithProofFromBytes() decodes a data with proof
func NewDataWithProofFromBytes(bz []byte) (*DataWithProof, lib.ErrorI) {
	f, err := codec.Decode(bz, dataWithProofSchema)
	if err != nil {
		return nil, err
	}
	d := &DataWithProof{Entries: make([]KeyValue, 0)}
	for _, kvbz := range f.RepeatedBytes(1) {
		kvf, e := codec.Decode(kvbz, keyValueSchema)
		if e != nil {
			return nil, e
		}
		key, e := kvf.RequiredBytes(1, -1)
		if e != nil {
			return nil, e
		}
		d.Entries = append(d.Entries, KeyValue{Key: key, Value: optFromField(kvf, 2)})
	}
	d.Proof, _ = f.Bytes(2)
	return d, nil
}

// optFromField() converts an optional field into a BytesOpt
func optFromField(f *codec.Fields, num protowire.Number) BytesOpt {
	v, ok := f.Bytes(num)
	if !ok {
		return None
	}
	return BytesOpt{value: v, some: true}
}

package host

import (
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/codec"
	"google.golang.org/protobuf/encoding/protowire"
)

/*
	Wire layouts:

	Script      { 1: code_hash (32 bytes), 2: hash_type (varint), 3: args }
	OutPoint    { 1: tx_hash, 2: index (varint) }
	CellInput   { 1: since (varint), 2: previous_output OutPoint }
	CellOutput  { 1: capacity (varint), 2: lock Script, 3: type Script (optional) }
	WitnessArgs { 1: lock, 2: input_type, 3: output_type } all optional
	Transaction { 1: repeated cell_dep OutPoint, 2: repeated CellInput, 3: repeated CellOutput,
	              4: repeated outputs_data, 5: repeated witness }
*/

var (
	scriptSchema = codec.Schema{
		1: {Type: protowire.BytesType},
		2: {Type: protowire.VarintType},
		3: {Type: protowire.BytesType},
	}
	outPointSchema = codec.Schema{
		1: {Type: protowire.BytesType},
		2: {Type: protowire.VarintType},
	}
	cellInputSchema = codec.Schema{
		1: {Type: protowire.VarintType},
		2: {Type: protowire.BytesType},
	}
	witnessArgsSchema = codec.Schema{
		1: {Type: protowire.BytesType},
		2: {Type: protowire.BytesType},
		3: {Type: protowire.BytesType},
	}
)

// Bytes() encodes the script
func (s *Script) Bytes() []byte {
	return codec.NewEncoder().
		Bytes(1, s.CodeHash).
		Varint(2, uint64(s.HashType)).
		Bytes(3, s.Args).
		Encoded()
}

// NewScriptFromBytes() decodes a script
func NewScriptFromBytes(bz []byte) (*Script, lib.ErrorI) {
	f, err := codec.Decode(bz, scriptSchema)
	if err != nil {
		return nil, err
	}
	codeHash, err := f.RequiredBytes(1, HashSize)
	if err != nil {
		return nil, err
	}
	hashType := f.Varint(2)
	if hashType > 0xff {
		return nil, ErrInvalidHashType(hashType)
	}
	args, _ := f.Bytes(3)
	return &Script{CodeHash: codeHash, HashType: uint8(hashType), Args: args}, nil
}

// Bytes() encodes the out point
func (o OutPoint) Bytes() []byte {
	return codec.NewEncoder().Bytes(1, o.TxHash).Varint(2, uint64(o.Index)).Encoded()
}

// newOutPointFromBytes() decodes an out point
func newOutPointFromBytes(bz []byte) (OutPoint, lib.ErrorI) {
	f, err := codec.Decode(bz, outPointSchema)
	if err != nil {
		return OutPoint{}, err
	}
	txHash, err := f.RequiredBytes(1, -1)
	if err != nil {
		return OutPoint{}, err
	}
	return OutPoint{TxHash: txHash, Index: uint32(f.Varint(2))}, nil
}

// Bytes() encodes the cell input; the unique identifier of a created record is derived from these bytes
func (c *CellInput) Bytes() []byte {
	return codec.NewEncoder().Varint(1, c.Since).Bytes(2, c.PreviousOutput.Bytes()).Encoded()
}

// NewCellInputFromBytes() decodes a cell input
func NewCellInputFromBytes(bz []byte) (*CellInput, lib.ErrorI) {
	f, err := codec.Decode(bz, cellInputSchema)
	if err != nil {
		return nil, err
	}
	prev, err := f.RequiredBytes(2, -1)
	if err != nil {
		return nil, err
	}
	o, err := newOutPointFromBytes(prev)
	if err != nil {
		return nil, err
	}
	return &CellInput{Since: f.Varint(1), PreviousOutput: o}, nil
}

// Bytes() encodes the cell output
func (c *CellOutput) Bytes() []byte {
	e := codec.NewEncoder().Varint(1, c.Capacity).Bytes(2, c.Lock.Bytes())
	if c.Type != nil {
		e.Bytes(3, c.Type.Bytes())
	}
	return e.Encoded()
}

// Bytes() encodes the witness args; absent fields are omitted
func (w *WitnessArgs) Bytes() []byte {
	return codec.NewEncoder().
		OptBytes(1, w.Lock, w.Lock != nil).
		OptBytes(2, w.InputType, w.InputType != nil).
		OptBytes(3, w.OutputType, w.OutputType != nil).
		Encoded()
}

// NewWitnessArgsFromBytes() decodes witness args
func NewWitnessArgsFromBytes(bz []byte) (*WitnessArgs, lib.ErrorI) {
	f, err := codec.Decode(bz, witnessArgsSchema)
	if err != nil {
		return nil, err
	}
	w := new(WitnessArgs)
	if v, ok := f.Bytes(1); ok {
		w.Lock = v
	}
	if v, ok := f.Bytes(2); ok {
		w.InputType = v
	}
	if v, ok := f.Bytes(3); ok {
		w.OutputType = v
	}
	return w, nil
}

// Bytes() encodes the transaction
func (t *Transaction) Bytes() []byte {
	e := codec.NewEncoder()
	for _, dep := range t.CellDeps {
		e.Bytes(1, dep.Bytes())
	}
	for i := range t.Inputs {
		e.Bytes(2, t.Inputs[i].Bytes())
	}
	for i := range t.Outputs {
		e.Bytes(3, t.Outputs[i].Bytes())
	}
	for _, data := range t.OutputsData {
		e.Bytes(4, data)
	}
	for _, w := range t.Witnesses {
		e.Bytes(5, w)
	}
	return e.Encoded()
}

package host

import (
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/crypto"
)

// HashSize is the length of every script and transaction hash
const HashSize = crypto.HashSize

// TxViewI is the read-only view of a transaction handed to a validator while one of its script groups runs
// Indexes are positions within the selected source
type TxViewI interface {
	ScriptHash() []byte                                           // identity hash of the script being executed
	ScriptArgs() []byte                                           // arguments of the script being executed
	Len(src Source) int                                           // number of cells in the source
	LockHash(index int, src Source) ([]byte, lib.ErrorI)          // lock script hash of a cell
	TypeHash(index int, src Source) ([]byte, bool, lib.ErrorI)    // type script hash of a cell; false if the cell has no type script
	CellData(index int, src Source) ([]byte, lib.ErrorI)          // data of a cell
	WitnessArgs(index int, src Source) (*WitnessArgs, lib.ErrorI) // decoded witness at the index; inputs and outputs share one witness list
	Input(index int) (*CellInput, lib.ErrorI)                     // the input record itself, not the cell it consumes
}

// ValidatorI is a program that accepts or rejects a transaction for the script group it guards
type ValidatorI interface {
	Validate(view TxViewI) lib.ErrorI
}

// ValidatorFunc adapts a function to a ValidatorI
type ValidatorFunc func(view TxViewI) lib.ErrorI

// Validate() calls the function
func (f ValidatorFunc) Validate(view TxViewI) lib.ErrorI { return f(view) }

// AlwaysSuccess accepts every transaction; used as a lock for cells whose authorization is not under test
var AlwaysSuccess ValidatorI = ValidatorFunc(func(TxViewI) lib.ErrorI { return nil })

var _ TxViewI = &txView{}

// txView is the TxViewI over a resolved transaction
type txView struct {
	tx         *Transaction
	inputs     []Cell // the cells consumed, in input order
	deps       []Cell // the cells referenced, in cell dep order
	script     Script
	scriptHash []byte
}

// newTxView() creates a view of a resolved transaction for one script
func newTxView(tx *Transaction, inputs, deps []Cell, script Script) *txView {
	return &txView{tx: tx, inputs: inputs, deps: deps, script: script, scriptHash: script.Hash()}
}

// ScriptHash() returns the identity hash of the executing script
func (v *txView) ScriptHash() []byte { return append([]byte{}, v.scriptHash...) }

// ScriptArgs() returns the arguments of the executing script
func (v *txView) ScriptArgs() []byte { return append([]byte{}, v.script.Args...) }

// Len() returns the number of cells in the source
func (v *txView) Len(src Source) int {
	switch src {
	case SourceInput:
		return len(v.inputs)
	case SourceOutput:
		return len(v.tx.Outputs)
	case SourceCellDep:
		return len(v.deps)
	default:
		return 0
	}
}

// LockHash() returns the lock script hash of a cell
func (v *txView) LockHash(index int, src Source) ([]byte, lib.ErrorI) {
	c, err := v.cell(index, src)
	if err != nil {
		return nil, err
	}
	return c.Output.Lock.Hash(), nil
}

// TypeHash() returns the type script hash of a cell
func (v *txView) TypeHash(index int, src Source) ([]byte, bool, lib.ErrorI) {
	c, err := v.cell(index, src)
	if err != nil {
		return nil, false, err
	}
	if c.Output.Type == nil {
		return nil, false, nil
	}
	return c.Output.Type.Hash(), true, nil
}

// CellData() returns the data of a cell
func (v *txView) CellData(index int, src Source) ([]byte, lib.ErrorI) {
	c, err := v.cell(index, src)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, c.Data...), nil
}

// WitnessArgs() decodes the witness at the index
func (v *txView) WitnessArgs(index int, src Source) (*WitnessArgs, lib.ErrorI) {
	if src != SourceInput && src != SourceOutput {
		return nil, ErrIndexOutOfBound(index, src)
	}
	if index < 0 || index >= len(v.tx.Witnesses) {
		return nil, ErrIndexOutOfBound(index, src)
	}
	return NewWitnessArgsFromBytes(v.tx.Witnesses[index])
}

// Input() returns the input record at the index
func (v *txView) Input(index int) (*CellInput, lib.ErrorI) {
	if index < 0 || index >= len(v.tx.Inputs) {
		return nil, ErrIndexOutOfBound(index, SourceInput)
	}
	in := v.tx.Inputs[index]
	return &in, nil
}

// cell() resolves the cell at the index of the source
func (v *txView) cell(index int, src Source) (*Cell, lib.ErrorI) {
	if index < 0 || index >= v.Len(src) {
		return nil, ErrIndexOutOfBound(index, src)
	}
	switch src {
	case SourceInput:
		return &v.inputs[index], nil
	case SourceOutput:
		return &Cell{Output: v.tx.Outputs[index], Data: v.tx.OutputsData[index]}, nil
	default:
		return &v.deps[index], nil
	}
}

package host

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/crypto"
)

/*
	This file defines the records (cells) a validator reads through the host.

	A transaction consumes cells (inputs), creates cells (outputs) and references cells read-only (cell deps).
	Every cell carries a lock script, an optional type script and a data blob.
	A script is identified by its hash, the digest of its encoded form.
*/

// Source selects which list of cells a host read refers to
type Source int

const (
	SourceInput   Source = iota + 1 // cells consumed by the transaction
	SourceOutput                    // cells created by the transaction
	SourceCellDep                   // cells referenced read-only
)

// String() returns the name of the source
func (s Source) String() string {
	switch s {
	case SourceInput:
		return "input"
	case SourceOutput:
		return "output"
	case SourceCellDep:
		return "cell_dep"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// HashTypeData means the code hash is the digest of the code cell data
const HashTypeData uint8 = 0

// Script identifies the validator that guards a cell and the arguments it is run with
type Script struct {
	CodeHash lib.HexBytes `json:"codeHash"` // digest of the deployed validator code
	HashType uint8        `json:"hashType"` // how the code hash is matched against deployed code
	Args     lib.HexBytes `json:"args"`     // validator specific arguments
}

// Hash() returns the identity hash of the script
func (s *Script) Hash() []byte { return crypto.Hash(s.Bytes()) }

// Equals() compares two scripts by their encoding
func (s *Script) Equals(other *Script) bool {
	if s == nil || other == nil {
		return s == other
	}
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// OutPoint references an output of a previous transaction
type OutPoint struct {
	TxHash lib.HexBytes `json:"txHash"`
	Index  uint32       `json:"index"`
}

// key() returns the out point as a map key
func (o OutPoint) key() string {
	k := binary.BigEndian.AppendUint32(append([]byte{}, o.TxHash...), o.Index)
	return lib.BytesToString(k)
}

// String() returns a human readable out point
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", lib.BytesToTruncatedString(o.TxHash), o.Index)
}

// CellInput references the cell a transaction consumes
type CellInput struct {
	Since          uint64   `json:"since"`
	PreviousOutput OutPoint `json:"previousOutput"`
}

// CellOutput is the header of a cell: capacity, lock script and optional type script
type CellOutput struct {
	Capacity uint64  `json:"capacity"`
	Lock     Script  `json:"lock"`
	Type     *Script `json:"type"` // nil if the cell has no type script
}

// Cell is a live record: its header and its data
type Cell struct {
	Output CellOutput   `json:"output"`
	Data   lib.HexBytes `json:"data"`
}

// WitnessArgs is the structured authorization payload attached to a transaction
// A nil field is absent; a non-nil empty field is present and empty
type WitnessArgs struct {
	Lock       lib.HexBytes `json:"lock"`
	InputType  lib.HexBytes `json:"inputType"`
	OutputType lib.HexBytes `json:"outputType"`
}

// Transaction is the unit the host verifies
type Transaction struct {
	CellDeps    []OutPoint     `json:"cellDeps"`
	Inputs      []CellInput    `json:"inputs"`
	Outputs     []CellOutput   `json:"outputs"`
	OutputsData []lib.HexBytes `json:"outputsData"`
	Witnesses   []lib.HexBytes `json:"witnesses"` // encoded WitnessArgs, indexed like inputs and outputs
}

// Hash() returns the transaction hash
func (t *Transaction) Hash() []byte { return crypto.Hash(t.Bytes()) }

// AddOutput() appends an output cell and its data
func (t *Transaction) AddOutput(output CellOutput, data []byte) *Transaction {
	t.Outputs = append(t.Outputs, output)
	t.OutputsData = append(t.OutputsData, data)
	return t
}

// AddInput() appends an input spending the out point
func (t *Transaction) AddInput(previous OutPoint) *Transaction {
	t.Inputs = append(t.Inputs, CellInput{PreviousOutput: previous})
	return t
}

// AddWitness() appends an encoded witness
func (t *Transaction) AddWitness(w *WitnessArgs) *Transaction {
	t.Witnesses = append(t.Witnesses, w.Bytes())
	return t
}

// AddCellDep() appends a read-only reference unless it is already present
func (t *Transaction) AddCellDep(o OutPoint) *Transaction {
	for _, dep := range t.CellDeps {
		if dep.key() == o.key() {
			return t
		}
	}
	t.CellDeps = append(t.CellDeps, o)
	return t
}

package host

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/crypto"
)

/*
	Context is an in-memory chain used to run validators end to end.

	Validators are deployed as code cells: the cell data is the validator name and the code hash is the digest of that data.
	A transaction is verified by resolving its inputs and cell deps against the live cells, then running
	- one lock group per distinct lock script among the inputs
	- one type group per distinct type script among the inputs and outputs
	Each group runs once with a view bound to its script; the first non-zero exit code rejects the transaction.
	A group can only run if the code cell of its script is among the transaction's cell deps.
*/

// Context is the mock chain
type Context struct {
	cells      map[string]Cell       // live cells by out point
	deployed   map[string]deployment // validators by code hash
	nextTxHash uint64                // source of the fake transaction hashes of created cells
	metrics    *lib.Metrics
	log        lib.LoggerI
}

// deployment is a validator and the code cell that carries it
type deployment struct {
	name      string
	validator ValidatorI
	outPoint  OutPoint
}

// GroupKind distinguishes the two kinds of script groups
type GroupKind string

const (
	LockGroup GroupKind = "lock"
	TypeGroup GroupKind = "type"
)

// GroupResult is the outcome of one script group
type GroupResult struct {
	Kind       GroupKind    `json:"kind"`
	Validator  string       `json:"validator"`
	ScriptHash lib.HexBytes `json:"scriptHash"`
	ExitCode   int8         `json:"exitCode"`
}

// Report lists the groups that ran, in execution order
type Report struct {
	TxHash lib.HexBytes  `json:"txHash"`
	Groups []GroupResult `json:"groups"`
}

// ExitCode() returns the exit code of the last group that ran; non-zero if the transaction was rejected
func (r *Report) ExitCode() int8 {
	if r == nil || len(r.Groups) == 0 {
		return 0
	}
	return r.Groups[len(r.Groups)-1].ExitCode
}

// NewContext() creates an empty chain
func NewContext(metrics *lib.Metrics, log lib.LoggerI) *Context {
	return &Context{
		cells:    make(map[string]Cell),
		deployed: make(map[string]deployment),
		metrics:  metrics,
		log:      log.WithModule("host"),
	}
}

// DeployValidator() creates a code cell for the validator and returns its code hash
func (c *Context) DeployValidator(name string, v ValidatorI) []byte {
	code := []byte(name)
	codeHash := crypto.Hash(code)
	outPoint := c.CreateCell(CellOutput{}, code)
	c.deployed[lib.BytesToString(codeHash)] = deployment{name: name, validator: v, outPoint: outPoint}
	c.log.Debugf("deployed validator %s with code hash %s at %s", name, lib.BytesToString(codeHash), outPoint)
	return codeHash
}

// BuildScript() creates a script running the deployed validator with the arguments
func (c *Context) BuildScript(codeHash, args []byte) (Script, lib.ErrorI) {
	if len(codeHash) != HashSize {
		return Script{}, ErrLengthNotEnough("code hash", HashSize, len(codeHash))
	}
	if _, ok := c.deployed[lib.BytesToString(codeHash)]; !ok {
		return Script{}, ErrScriptNotFound(codeHash)
	}
	return Script{CodeHash: append([]byte{}, codeHash...), HashType: HashTypeData, Args: append([]byte{}, args...)}, nil
}

// CreateCell() adds a live cell to the chain and returns where it lives
func (c *Context) CreateCell(output CellOutput, data []byte) OutPoint {
	c.nextTxHash++
	o := OutPoint{TxHash: crypto.Hash(binary.LittleEndian.AppendUint64(nil, c.nextTxHash))}
	c.cells[o.key()] = Cell{Output: output, Data: append([]byte{}, data...)}
	return o
}

// Cell() returns a live cell
func (c *Context) Cell(o OutPoint) (Cell, lib.ErrorI) {
	cell, ok := c.cells[o.key()]
	if !ok {
		return Cell{}, ErrUnknownCell(o)
	}
	return cell, nil
}

// CompleteTx() returns a copy of the transaction with the code cell of every referenced validator added to the cell deps
func (c *Context) CompleteTx(tx *Transaction) *Transaction {
	out := *tx
	out.CellDeps = append([]OutPoint{}, tx.CellDeps...)
	add := func(s *Script) {
		if s == nil {
			return
		}
		if d, ok := c.deployed[lib.BytesToString(s.CodeHash)]; ok {
			out.AddCellDep(d.outPoint)
		}
	}
	for _, in := range tx.Inputs {
		if cell, ok := c.cells[in.PreviousOutput.key()]; ok {
			add(&cell.Output.Lock)
			add(cell.Output.Type)
		}
	}
	for i := range tx.Outputs {
		add(&tx.Outputs[i].Lock)
		add(tx.Outputs[i].Type)
	}
	return &out
}

// VerifyTx() runs every script group of the transaction
// On rejection the returned error is the failing validator's own error, so lib.ExitCode(err) equals the group's exit code
func (c *Context) VerifyTx(tx *Transaction) (*Report, lib.ErrorI) {
	report := &Report{TxHash: tx.Hash(), Groups: make([]GroupResult, 0)}
	inputs, deps, err := c.resolve(tx)
	if err != nil {
		return report, err
	}
	for _, g := range groups(tx, inputs) {
		d, e := c.findValidator(g.script, deps)
		if e != nil {
			return report, e
		}
		view := newTxView(tx, inputs, deps, g.script)
		err = run(d.validator, view)
		code := lib.ExitCode(err)
		c.metrics.ObserveValidation(d.name, code)
		report.Groups = append(report.Groups, GroupResult{Kind: g.kind, Validator: d.name, ScriptHash: view.scriptHash, ExitCode: code})
		if code != 0 {
			c.log.Debugf("%s group %s rejected the transaction with exit code %d", g.kind, d.name, code)
			return report, err
		}
		c.log.Debugf("%s group %s accepted the transaction", g.kind, d.name)
	}
	return report, nil
}

// DumpTx() renders the transaction and the cells it resolves to as JSON, for inspecting a rejected transaction
func (c *Context) DumpTx(tx *Transaction) ([]byte, lib.ErrorI) {
	type mockTx struct {
		TxHash   lib.HexBytes `json:"txHash"`
		Inputs   []Cell       `json:"resolvedInputs"`
		CellDeps []Cell       `json:"resolvedCellDeps"`
		Tx       *Transaction `json:"tx"`
	}
	inputs, deps, err := c.resolve(tx)
	if err != nil {
		return nil, err
	}
	return lib.MarshalJSONIndent(mockTx{TxHash: tx.Hash(), Inputs: inputs, CellDeps: deps, Tx: tx})
}

// resolve() looks up the cells consumed and referenced by the transaction
func (c *Context) resolve(tx *Transaction) (inputs, deps []Cell, err lib.ErrorI) {
	if len(tx.OutputsData) != len(tx.Outputs) {
		return nil, nil, ErrItemMissing(fmt.Sprintf("outputs data (%d outputs, %d data)", len(tx.Outputs), len(tx.OutputsData)))
	}
	consumed := make(map[string]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		k := in.PreviousOutput.key()
		if _, ok := consumed[k]; ok {
			return nil, nil, ErrDuplicateCell(in.PreviousOutput)
		}
		consumed[k] = struct{}{}
		cell, e := c.Cell(in.PreviousOutput)
		if e != nil {
			return nil, nil, e
		}
		inputs = append(inputs, cell)
	}
	for _, o := range tx.CellDeps {
		cell, e := c.Cell(o)
		if e != nil {
			return nil, nil, e
		}
		deps = append(deps, cell)
	}
	return
}

// findValidator() returns the deployment of the script if its code cell is referenced by the transaction
func (c *Context) findValidator(s Script, deps []Cell) (*deployment, lib.ErrorI) {
	d, ok := c.deployed[lib.BytesToString(s.CodeHash)]
	if !ok {
		return nil, ErrScriptNotFound(s.CodeHash)
	}
	for _, dep := range deps {
		if bytes.Equal(crypto.Hash(dep.Data), s.CodeHash) {
			return &d, nil
		}
	}
	return nil, ErrScriptNotFound(s.CodeHash)
}

// group is one script and the kind of group it runs as
type group struct {
	kind   GroupKind
	script Script
}

// groups() lists the lock groups of the inputs then the type groups of the inputs and outputs, each in order of first appearance
func groups(tx *Transaction, inputs []Cell) (list []group) {
	seen := make(map[string]struct{})
	add := func(kind GroupKind, s *Script) {
		if s == nil {
			return
		}
		k := string(kind) + lib.BytesToString(s.Hash())
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		list = append(list, group{kind: kind, script: *s})
	}
	for i := range inputs {
		add(LockGroup, &inputs[i].Output.Lock)
	}
	for i := range inputs {
		add(TypeGroup, inputs[i].Output.Type)
	}
	for i := range tx.Outputs {
		add(TypeGroup, tx.Outputs[i].Type)
	}
	return
}

// run() executes a validator, converting a panic into a host failure
func run(v ValidatorI, view TxViewI) (err lib.ErrorI) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrUnknown(fmt.Sprintf("validator panicked: %v", r))
		}
	}()
	return v.Validate(view)
}

package contract

import (
	"github.com/canopy-network/smtkv/host"
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/smt"
)

// Chain is a mock chain with both validators deployed, used to run artifacts through the validators they target
type Chain struct {
	ctx       *host.Context
	lock      host.Script
	kvstore   []byte
	checkData []byte
}

// NewChain() creates a mock chain and deploys an always success lock, the kv store and the check data validators
func NewChain(metrics *lib.Metrics, log lib.LoggerI) (*Chain, lib.ErrorI) {
	ctx := host.NewContext(metrics, log)
	lock, err := ctx.BuildScript(ctx.DeployValidator("always_success", host.AlwaysSuccess), nil)
	if err != nil {
		return nil, err
	}
	return &Chain{
		ctx:       ctx,
		lock:      lock,
		kvstore:   ctx.DeployValidator(KVStoreName, NewKVStore(log)),
		checkData: ctx.DeployValidator(CheckDataName, NewCheckData(log)),
	}, nil
}

// Context() exposes the underlying host context
func (c *Chain) Context() *host.Context { return c.ctx }

// RecordScript() returns the kv store type script of a record with the id
func (c *Chain) RecordScript(id []byte) (host.Script, lib.ErrorI) {
	return c.ctx.BuildScript(c.kvstore, id)
}

// CreateRecord() builds a transaction creating a record with the empty root at outputs[0]
func (c *Chain) CreateRecord() (*host.Transaction, lib.ErrorI) {
	input := host.CellInput{PreviousOutput: c.ctx.CreateCell(host.CellOutput{Capacity: 1000, Lock: c.lock}, nil)}
	record, err := c.RecordScript(UniqueID(&input, 0))
	if err != nil {
		return nil, err
	}
	tx := &host.Transaction{Inputs: []host.CellInput{input}}
	tx.AddOutput(host.CellOutput{Capacity: 1000, Lock: c.lock, Type: &record}, smt.Zero[:])
	return c.ctx.CompleteTx(tx), nil
}

// UpdateRecord() builds a transaction moving a record from the old root to the new root of the update
func (c *Chain) UpdateRecord(oldRoot smt.H256, update *smt.Update) (*host.Transaction, lib.ErrorI) {
	record, err := c.RecordScript(make([]byte, RootSize))
	if err != nil {
		return nil, err
	}
	in := c.ctx.CreateCell(host.CellOutput{Capacity: 1000, Lock: c.lock, Type: &record}, oldRoot[:])
	tx := new(host.Transaction).AddInput(in).
		AddOutput(host.CellOutput{Capacity: 1000, Lock: c.lock, Type: &record}, update.NewRoot[:]).
		AddWitness(&host.WitnessArgs{OutputType: update.Bytes()})
	return c.ctx.CompleteTx(tx), nil
}

// SpendWithData() builds a transaction spending a check data locked cell with the data with proof,
// referencing a record that holds the root
func (c *Chain) SpendWithData(root smt.H256, dwp *smt.DataWithProof) (*host.Transaction, lib.ErrorI) {
	record, err := c.RecordScript(make([]byte, RootSize))
	if err != nil {
		return nil, err
	}
	dep := c.ctx.CreateCell(host.CellOutput{Capacity: 1000, Lock: c.lock, Type: &record}, root[:])
	lock, err := c.ctx.BuildScript(c.checkData, record.Hash())
	if err != nil {
		return nil, err
	}
	in := c.ctx.CreateCell(host.CellOutput{Capacity: 1000, Lock: lock}, nil)
	tx := new(host.Transaction).AddCellDep(dep).AddInput(in).
		AddOutput(host.CellOutput{Capacity: 1000, Lock: c.lock}, nil).
		AddWitness(&host.WitnessArgs{Lock: dwp.Bytes()})
	return c.ctx.CompleteTx(tx), nil
}

// Verify() runs every script group of the transaction
func (c *Chain) Verify(tx *host.Transaction) (*host.Report, lib.ErrorI) { return c.ctx.VerifyTx(tx) }

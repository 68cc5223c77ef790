package contract

import (
	"bytes"
	"testing"

	"github.com/canopy-network/smtkv/host"
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/smt"
	"github.com/stretchr/testify/require"
)

// checkDataFixture is a record holding a root and a data with proof valid against it
type checkDataFixture struct {
	record host.Script
	root   smt.H256
	dwp    *smt.DataWithProof
}

func newCheckDataFixture(t *testing.T, c *testChain) *checkDataFixture {
	g := newSeededGenerator(t, 20)
	root, err := g.Root()
	require.NoError(t, err)
	keys := [][]byte{{0, 0, 0, 0}, {5, 5, 5, 5}, {10, 10, 10, 10}, {15, 15, 15, 15}, {30, 30, 30, 30}}
	dwp, err := g.DataWithProof(keys)
	require.NoError(t, err)
	require.False(t, dwp.Entries[4].Value.IsSome())
	return &checkDataFixture{record: c.script(t, c.kvstore, make([]byte, RootSize)), root: root, dwp: dwp}
}

// rootDep() creates a cell carrying the record type script with the data
func (f *checkDataFixture) rootDep(c *testChain, data []byte) host.OutPoint {
	return c.ctx.CreateCell(host.CellOutput{Capacity: 1000, Lock: c.lock, Type: &f.record}, data)
}

func TestCheckData(t *testing.T) {
	tampered := func(f *checkDataFixture) []byte {
		d := *f.dwp
		d.Entries = append([]smt.KeyValue{}, f.dwp.Entries...)
		d.Entries[1].Value = smt.Some([]byte("not the value"))
		return d.Bytes()
	}
	tests := []struct {
		name   string
		detail string
		// args returns the check data script args
		args func(f *checkDataFixture) []byte
		// deps returns the root cells referenced by the transaction
		deps func(c *testChain, f *checkDataFixture) []host.OutPoint
		// witnesses returns one witness per locked input
		witnesses func(f *checkDataFixture) []*host.WitnessArgs
		exitCode  int8
	}{
		{
			name:   "success",
			detail: "the data with proof verifies against the root",
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}}
			},
			exitCode: 0,
		},
		{
			name:   "two inputs",
			detail: "every locked input is checked and both are valid",
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}, {Lock: f.dwp.Bytes()}}
			},
			exitCode: 0,
		},
		{
			name:   "invalid args length",
			detail: "the args must be a 32 byte type script hash",
			args:   func(f *checkDataFixture) []byte { return f.record.Hash()[:31] },
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}}
			},
			exitCode: int8(lib.CodeInvalidArgsLength),
		},
		{
			name:   "root not found",
			detail: "a cell dep must carry the record type script",
			deps:   func(*testChain, *checkDataFixture) []host.OutPoint { return nil },
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}}
			},
			exitCode: int8(lib.CodeCellDepNotFound),
		},
		{
			name:   "more than one root",
			detail: "exactly one cell dep may carry the record type script",
			deps: func(c *testChain, f *checkDataFixture) []host.OutPoint {
				return []host.OutPoint{f.rootDep(c, f.root[:]), f.rootDep(c, f.root[:])}
			},
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}}
			},
			exitCode: int8(lib.CodeCellDepMoreThanOne),
		},
		{
			name:   "invalid root data",
			detail: "the root cell data must be 32 bytes",
			deps: func(c *testChain, f *checkDataFixture) []host.OutPoint {
				return []host.OutPoint{f.rootDep(c, f.root[:31])}
			},
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}}
			},
			exitCode: int8(lib.CodeCellDepInvalidCellData),
		},
		{
			name:   "no lock payload",
			detail: "the data with proof lives in the lock field",
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{OutputType: f.dwp.Bytes()}}
			},
			exitCode: int8(lib.CodeWitnessIsNotExisted),
		},
		{
			name:   "malformed payload",
			detail: "the data with proof must decode",
			witnesses: func(*checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: []byte{0xff}}}
			},
			exitCode: int8(lib.CodeEncoding),
		},
		{
			name:   "stale root",
			detail: "the data with proof must verify against the referenced root",
			deps: func(c *testChain, f *checkDataFixture) []host.OutPoint {
				return []host.OutPoint{f.rootDep(c, smt.Zero[:])}
			},
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}}
			},
			exitCode: int8(lib.SMTExitCodeBase + lib.CodeMismatchedRoot),
		},
		{
			name:   "tampered value",
			detail: "a changed value computes another root",
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: tampered(f)}}
			},
			exitCode: int8(lib.SMTExitCodeBase + lib.CodeMismatchedRoot),
		},
		{
			name:   "second input invalid",
			detail: "one invalid locked input rejects the transaction",
			witnesses: func(f *checkDataFixture) []*host.WitnessArgs {
				return []*host.WitnessArgs{{Lock: f.dwp.Bytes()}, {Lock: tampered(f)}}
			},
			exitCode: int8(lib.SMTExitCodeBase + lib.CodeMismatchedRoot),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := newTestChain(t)
			f := newCheckDataFixture(t, c)
			args := f.record.Hash()
			if test.args != nil {
				args = test.args(f)
			}
			lock := c.script(t, c.checkData, args)
			tx := new(host.Transaction)
			deps := []host.OutPoint{f.rootDep(c, f.root[:])}
			if test.deps != nil {
				deps = test.deps(c, f)
			}
			for _, d := range deps {
				tx.AddCellDep(d)
			}
			for _, w := range test.witnesses(f) {
				tx.AddInput(c.ctx.CreateCell(host.CellOutput{Capacity: 1000, Lock: lock}, nil)).AddWitness(w)
			}
			tx.AddOutput(host.CellOutput{Capacity: 900, Lock: c.lock}, nil)
			c.requireExitCode(t, c.ctx.CompleteTx(tx), test.exitCode, test.detail)
		})
	}
}

func TestCheckDataIgnoresOtherInputs(t *testing.T) {
	c := newTestChain(t)
	f := newCheckDataFixture(t, c)
	lock := c.script(t, c.checkData, f.record.Hash())
	// inputs[0] is not locked by check data so its witness is never read
	tx := new(host.Transaction).
		AddCellDep(f.rootDep(c, f.root[:])).
		AddInput(c.ctx.CreateCell(host.CellOutput{Capacity: 10, Lock: c.lock}, nil)).
		AddWitness(&host.WitnessArgs{Lock: []byte{0xff}}).
		AddInput(c.ctx.CreateCell(host.CellOutput{Capacity: 10, Lock: lock}, nil)).
		AddWitness(&host.WitnessArgs{Lock: f.dwp.Bytes()}).
		AddOutput(host.CellOutput{Capacity: 20, Lock: c.lock}, nil)
	c.requireExitCode(t, c.ctx.CompleteTx(tx), 0, "only inputs locked by check data carry a data with proof")
	// a record type script with other args is not the root
	other := c.script(t, c.kvstore, bytes.Repeat([]byte{1}, RootSize))
	tx = new(host.Transaction).
		AddCellDep(c.ctx.CreateCell(host.CellOutput{Lock: c.lock, Type: &other}, f.root[:])).
		AddInput(c.ctx.CreateCell(host.CellOutput{Capacity: 10, Lock: lock}, nil)).
		AddWitness(&host.WitnessArgs{Lock: f.dwp.Bytes()}).
		AddOutput(host.CellOutput{Capacity: 10, Lock: c.lock}, nil)
	c.requireExitCode(t, c.ctx.CompleteTx(tx), int8(lib.CodeCellDepNotFound), "the root cell is found by its type script hash")
}

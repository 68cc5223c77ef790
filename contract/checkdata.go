package contract

import (
	"bytes"

	"github.com/canopy-network/smtkv/host"
	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/smt"
)

/*
	CheckData is a lock that authorizes spending only if the spender proves data against a key value record.

	Its args are the type script hash of the record. Exactly one cell dep must carry that type script; its data is the root.
	Every input locked by this script must carry a DataWithProof in the lock field of its witness, and every one of them
	must verify against the root.
*/

// CheckDataName is the name the check data validator is deployed under
const CheckDataName = "check_data"

var _ host.ValidatorI = &CheckData{}

// CheckData is the data authorization validator
type CheckData struct {
	verifier smt.ProofVerifierI
	log      lib.LoggerI
}

// NewCheckData() creates a check data validator with the default proof verifier
func NewCheckData(log lib.LoggerI) *CheckData {
	return NewCheckDataWithVerifier(smt.DefaultVerifier{}, log)
}

// NewCheckDataWithVerifier() creates a check data validator with an injected proof verifier
func NewCheckDataWithVerifier(verifier smt.ProofVerifierI, log lib.LoggerI) *CheckData {
	return &CheckData{verifier: verifier, log: log.WithModule(string(lib.CheckDataModule))}
}

// Validate() loads the root from the cell deps and verifies the witness of every input it locks
func (c *CheckData) Validate(view host.TxViewI) lib.ErrorI {
	scriptHash := view.ScriptHash()
	c.log.Debugf("script hash = %s", lib.BytesToString(scriptHash))
	args := view.ScriptArgs()
	if len(args) != RootSize {
		return ErrInvalidArgsLength(len(args))
	}
	c.log.Debug("find then load the root from the cell deps")
	root, err := c.loadRoot(view, args)
	if err != nil {
		return err
	}
	c.log.Debugf("the root is %s", root)
	return c.checkWitnesses(view, scriptHash, root)
}

// loadRoot() reads the root from the single cell dep whose type script hash is the record hash
func (c *CheckData) loadRoot(view host.TxViewI, recordHash []byte) (root smt.H256, err lib.ErrorI) {
	found := -1
	for i := 0; i < view.Len(host.SourceCellDep); i++ {
		typeHash, ok, e := view.TypeHash(i, host.SourceCellDep)
		if e != nil {
			return root, e
		}
		if !ok || !bytes.Equal(typeHash, recordHash) {
			continue
		}
		if found >= 0 {
			return root, ErrCellDepMoreThanOne()
		}
		found = i
	}
	if found < 0 {
		return root, ErrCellDepNotFound()
	}
	c.log.Debugf("the root is in cell_deps[%d]", found)
	data, err := view.CellData(found, host.SourceCellDep)
	if err != nil {
		return root, err
	}
	if len(data) != RootSize {
		return root, ErrCellDepInvalidCellData(len(data))
	}
	copy(root[:], data)
	return root, nil
}

// checkWitnesses() verifies the data with proof of every input locked by this script
func (c *CheckData) checkWitnesses(view host.TxViewI, scriptHash []byte, root smt.H256) lib.ErrorI {
	for i := 0; i < view.Len(host.SourceInput); i++ {
		lockHash, err := view.LockHash(i, host.SourceInput)
		if err != nil {
			return err
		}
		if !bytes.Equal(lockHash, scriptHash) {
			continue
		}
		c.log.Debugf("check the witness of inputs[%d]", i)
		witness, err := view.WitnessArgs(i, host.SourceInput)
		if err != nil {
			return err
		}
		if witness.Lock == nil {
			return ErrWitnessIsNotExisted(i)
		}
		dwp, err := smt.NewDataWithProofFromBytes(witness.Lock)
		if err != nil {
			return err
		}
		if err = smt.VerifyData(c.verifier, root, dwp); err != nil {
			return err
		}
	}
	return nil
}

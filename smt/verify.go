package smt

import (
	"github.com/canopy-network/smtkv/lib"
)

// VerifyData() checks that every entry of the artifact is the state of its key under root
func VerifyData(v ProofVerifierI, root H256, dwp *DataWithProof) lib.ErrorI {
	if dwp == nil {
		return ErrComputeRoot("data with proof is nil")
	}
	computed, err := v.ComputeRoot(dwp.Proof, dwp.Leaves())
	if err != nil {
		if err.Module() == lib.SMTModule && err.Code() == lib.CodeComputeRoot {
			return err
		}
		return ErrComputeRoot(errMsg(err))
	}
	if computed != root {
		return ErrMismatchedRoot(root, computed)
	}
	return nil
}

// VerifyTransition() checks that applying the changes of the update to the tree with oldRoot yields update.NewRoot
// the old endpoint is checked first
func VerifyTransition(v ProofVerifierI, oldRoot H256, update *Update) lib.ErrorI {
	if update == nil {
		return ErrComputeOldRoot(ErrNilUpdate())
	}
	computedOld, err := v.ComputeRoot(update.Proof, update.OldLeaves())
	if err != nil {
		return ErrComputeOldRoot(err)
	}
	if computedOld != oldRoot {
		return ErrMismatchedOldRoot(oldRoot, computedOld)
	}
	computedNew, err := v.ComputeRoot(update.Proof, update.NewLeaves())
	if err != nil {
		return ErrComputeNewRoot(err)
	}
	if computedNew != update.NewRoot {
		return ErrMismatchedNewRoot(update.NewRoot, computedNew)
	}
	return nil
}

// Verify() checks the artifact against root with the default verifier
func (d *DataWithProof) Verify(root H256) lib.ErrorI { return VerifyData(DefaultVerifier{}, root, d) }

// Verify() checks the update against the old root with the default verifier
func (u *Update) Verify(oldRoot H256) lib.ErrorI { return VerifyTransition(DefaultVerifier{}, oldRoot, u) }

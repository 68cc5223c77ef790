package smt

import (
	"fmt"

	"github.com/canopy-network/smtkv/lib"
)

func ErrComputeRoot(reason string) lib.ErrorI {
	return lib.NewError(lib.CodeComputeRoot, lib.SMTModule, fmt.Sprintf("computeRoot() failed: %s", reason))
}

func ErrDuplicateLeaf(key H256) lib.ErrorI {
	return ErrComputeRoot(fmt.Sprintf("duplicate leaf key %s", key))
}

func ErrMismatchedRoot(expected, got H256) lib.ErrorI {
	return lib.NewError(lib.CodeMismatchedRoot, lib.SMTModule, fmt.Sprintf("root mismatch: expected %s got %s", expected, got))
}

func ErrComputeOldRoot(err lib.ErrorI) lib.ErrorI {
	return lib.NewError(lib.CodeComputeOldRoot, lib.SMTUpdateModule, fmt.Sprintf("computing the old root failed: %s", errMsg(err)))
}

func ErrMismatchedOldRoot(expected, got H256) lib.ErrorI {
	return lib.NewError(lib.CodeMismatchedOldRoot, lib.SMTUpdateModule, fmt.Sprintf("old root mismatch: expected %s got %s", expected, got))
}

func ErrComputeNewRoot(err lib.ErrorI) lib.ErrorI {
	return lib.NewError(lib.CodeComputeNewRoot, lib.SMTUpdateModule, fmt.Sprintf("computing the new root failed: %s", errMsg(err)))
}

func ErrMismatchedNewRoot(expected, got H256) lib.ErrorI {
	return lib.NewError(lib.CodeMismatchedNewRoot, lib.SMTUpdateModule, fmt.Sprintf("new root mismatch: expected %s got %s", expected, got))
}

func ErrEmptyKeySet() lib.ErrorI {
	return lib.NewError(lib.CodeEmptyKeySet, lib.SMTModule, "cannot compile a proof for an empty key set")
}

func ErrDuplicateKey(key H256) lib.ErrorI {
	return lib.NewError(lib.CodeDuplicateKey, lib.SMTModule, fmt.Sprintf("duplicate key %s in proof request", key))
}

func ErrInvalidHashLength(length int) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidHashLength, lib.SMTModule, fmt.Sprintf("expected a 32 byte hash, got %d bytes", length))
}

func ErrCorruptNode(height int, path H256) lib.ErrorI {
	return lib.NewError(lib.CodeCorruptNode, lib.SMTModule, fmt.Sprintf("corrupt node at height %d path %s", height, path))
}

func ErrNilUpdate() lib.ErrorI {
	return lib.NewError(lib.CodeNilUpdate, lib.SMTModule, "update is nil")
}

// errMsg() returns the bare message of a wrapped error so nested messages stay on one line
func errMsg(err lib.ErrorI) string {
	if e, ok := err.(*lib.Error); ok {
		return e.Msg
	}
	return err.Error()
}

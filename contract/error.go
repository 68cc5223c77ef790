package contract

import (
	"fmt"

	"github.com/canopy-network/smtkv/lib"
)

// kv store validator errors below

func ErrUnknownOperation(inputs, outputs int) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownOperation, lib.KVStoreModule, fmt.Sprintf("unknown operation: %d inputs and %d outputs", inputs, outputs))
}

func ErrCreateInvalidArgsLength(length int) lib.ErrorI {
	return lib.NewError(lib.CodeCreateInvalidArgsLength, lib.KVStoreModule, fmt.Sprintf("script args must be 32 bytes, got %d", length))
}

func ErrCreateIncorrectUniqueId() lib.ErrorI {
	return lib.NewError(lib.CodeCreateIncorrectUniqueId, lib.KVStoreModule, "script args do not match the unique id")
}

func ErrCreateInitializedDataInvalidLength(length int) lib.ErrorI {
	return lib.NewError(lib.CodeCreateInitializedDataInvalidLength, lib.KVStoreModule, fmt.Sprintf("initial data must be 32 bytes, got %d", length))
}

func ErrCreateInitializedDataNotEmpty() lib.ErrorI {
	return lib.NewError(lib.CodeCreateInitializedDataNotEmpty, lib.KVStoreModule, "initial data must be the empty root")
}

func ErrUpdateInputDataInvalidLength(length int) lib.ErrorI {
	return lib.NewError(lib.CodeUpdateInputDataInvalidLength, lib.KVStoreModule, fmt.Sprintf("input data must be 32 bytes, got %d", length))
}

func ErrUpdateOutputDataInvalidLength(length int) lib.ErrorI {
	return lib.NewError(lib.CodeUpdateOutputDataInvalidLength, lib.KVStoreModule, fmt.Sprintf("output data must be 32 bytes, got %d", length))
}

func ErrUpdateWitnessIsNotExisted(index int) lib.ErrorI {
	return lib.NewError(lib.CodeUpdateWitnessIsNotExisted, lib.KVStoreModule, fmt.Sprintf("witness %d carries no output type payload", index))
}

func ErrUpdateNewRootIsMismatch() lib.ErrorI {
	return lib.NewError(lib.CodeUpdateNewRootIsMismatch, lib.KVStoreModule, "update new root does not match the output data")
}

// check data validator errors below

func ErrInvalidArgsLength(length int) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidArgsLength, lib.CheckDataModule, fmt.Sprintf("script args must be 32 bytes, got %d", length))
}

func ErrCellDepMoreThanOne() lib.ErrorI {
	return lib.NewError(lib.CodeCellDepMoreThanOne, lib.CheckDataModule, "more than one cell dep carries the root")
}

func ErrCellDepNotFound() lib.ErrorI {
	return lib.NewError(lib.CodeCellDepNotFound, lib.CheckDataModule, "no cell dep carries the root")
}

func ErrCellDepInvalidCellData(length int) lib.ErrorI {
	return lib.NewError(lib.CodeCellDepInvalidCellData, lib.CheckDataModule, fmt.Sprintf("root cell data must be 32 bytes, got %d", length))
}

func ErrWitnessIsNotExisted(index int) lib.ErrorI {
	return lib.NewError(lib.CodeWitnessIsNotExisted, lib.CheckDataModule, fmt.Sprintf("witness %d carries no lock payload", index))
}

package host

import (
	"fmt"

	"github.com/canopy-network/smtkv/lib"
)

func ErrIndexOutOfBound(index int, source Source) lib.ErrorI {
	return lib.NewError(lib.CodeIndexOutOfBound, lib.HostModule, fmt.Sprintf("index %d is out of bound for source %s", index, source))
}

func ErrItemMissing(item string) lib.ErrorI {
	return lib.NewError(lib.CodeItemMissing, lib.HostModule, fmt.Sprintf("%s is missing", item))
}

func ErrLengthNotEnough(what string, expected, got int) lib.ErrorI {
	return lib.NewError(lib.CodeLengthNotEnough, lib.HostModule, fmt.Sprintf("%s has length %d, expected %d", what, got, expected))
}

func ErrInvalidHashType(hashType uint64) lib.ErrorI {
	return lib.ErrEncoding(fmt.Errorf("hash type %d does not fit a byte", hashType))
}

func ErrUnknown(reason string) lib.ErrorI {
	return lib.NewError(lib.CodeUnknown, lib.HostModule, fmt.Sprintf("unknown host failure: %s", reason))
}

func ErrScriptNotFound(codeHash []byte) lib.ErrorI {
	return lib.NewError(lib.CodeScriptNotFound, lib.HostModule, fmt.Sprintf("no validator deployed in the cell deps for code hash %s", lib.BytesToString(codeHash)))
}

func ErrDuplicateCell(o OutPoint) lib.ErrorI {
	return lib.NewError(lib.CodeDuplicateCell, lib.HostModule, fmt.Sprintf("cell %s is consumed more than once", o))
}

func ErrUnknownCell(o OutPoint) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownCell, lib.HostModule, fmt.Sprintf("cell %s is not live", o))
}

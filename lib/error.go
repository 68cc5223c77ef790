package lib

import (
	"errors"
	"fmt"
	"math"
)

type ErrorI interface {
	Code() ErrorCode     // Returns the error code
	Module() ErrorModule // Returns the error module
	error                // Implements the built-in error interface
}

var _ ErrorI = &Error{} // Ensures *Error implements ErrorI

type ErrorCode uint32 // Defines a type for error codes

type ErrorModule string // Defines a type for error modules

type Error struct {
	ECode   ErrorCode   `json:"code"`   // Error code
	EModule ErrorModule `json:"module"` // Error module
	Msg     string      `json:"msg"`    // Error message
}

func NewError(code ErrorCode, module ErrorModule, msg string) *Error {
	// Constructs a new Error instance
	return &Error{ECode: code, EModule: module, Msg: msg}
}

// Code() returns the associated error code
func (p *Error) Code() ErrorCode { return p.ECode }

// Module() returns module field
func (p *Error) Module() ErrorModule { return p.EModule }

// String() calls Error()
func (p *Error) String() string { return p.Error() }

// Error() returns a formatted string including module, code and message
func (p *Error) Error() string {
	return fmt.Sprintf("\nModule:  %s\nCode:    %d\nMessage: %s", p.EModule, p.ECode, p.Msg)
}

// Is() allows errors.Is to match two errors of the same module and code
func (p *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return p.ECode == t.ECode && p.EModule == t.EModule
}

const (
	NoCode ErrorCode = math.MaxUint32

	// Main Module
	MainModule ErrorModule = "main"

	// Main Module Error Codes
	CodeJSONMarshal     ErrorCode = 1
	CodeJSONUnmarshal   ErrorCode = 2
	CodeStringToBytes   ErrorCode = 3
	CodeWriteFile       ErrorCode = 4
	CodeReadFile        ErrorCode = 5
	CodeInvalidArgument ErrorCode = 6
	CodeParseSize       ErrorCode = 7
	CodeWriteMetrics    ErrorCode = 8
	CodeMemTableSize    ErrorCode = 9

	// Host Module: errors raised by the host environment while reading the transaction
	// NOTE: these codes are surfaced verbatim as exit codes and must stay within [0x01, 0x0f]
	HostModule ErrorModule = "host"

	// Host Module Error Codes
	CodeIndexOutOfBound ErrorCode = 0x01
	CodeItemMissing     ErrorCode = 0x02
	CodeLengthNotEnough ErrorCode = 0x03
	CodeEncoding        ErrorCode = 0x04
	CodeUnknown         ErrorCode = 0x05
	CodeScriptNotFound  ErrorCode = 0x06
	CodeDuplicateCell   ErrorCode = 0x07
	CodeUnknownCell     ErrorCode = 0x08

	// KV Store Module: the key-value store transition validator
	// NOTE: contract codes must stay within [0x10, 0x5f]
	KVStoreModule ErrorModule = "kvstore"

	// KV Store Module Error Codes
	CodeUnknownOperation                   ErrorCode = 0x10
	CodeCreateInvalidArgsLength            ErrorCode = 0x11
	CodeCreateIncorrectUniqueId            ErrorCode = 0x12
	CodeCreateInitializedDataInvalidLength ErrorCode = 0x13
	CodeCreateInitializedDataNotEmpty      ErrorCode = 0x14
	CodeUpdateInputDataInvalidLength       ErrorCode = 0x15
	CodeUpdateOutputDataInvalidLength      ErrorCode = 0x16
	CodeUpdateWitnessIsNotExisted          ErrorCode = 0x17
	CodeUpdateNewRootIsMismatch            ErrorCode = 0x18

	// Check Data Module: the data authorization validator
	CheckDataModule ErrorModule = "check_data"

	// Check Data Module Error Codes
	CodeInvalidArgsLength      ErrorCode = 0x10
	CodeCellDepMoreThanOne     ErrorCode = 0x11
	CodeCellDepNotFound        ErrorCode = 0x12
	CodeCellDepInvalidCellData ErrorCode = 0x13
	CodeWitnessIsNotExisted    ErrorCode = 0x14

	// SMT Module: proof verification and generation
	// NOTE: verification codes are offset by SMTExitCodeBase at the exit boundary
	SMTModule ErrorModule = "smt"

	// SMT Module Error Codes
	CodeComputeRoot    ErrorCode = 0x01
	CodeMismatchedRoot ErrorCode = 0x02

	// codes below are only produced by the proof generator and never reach a validator
	CodeEmptyKeySet       ErrorCode = 0x10
	CodeDuplicateKey      ErrorCode = 0x11
	CodeInvalidHashLength ErrorCode = 0x12
	CodeCorruptNode       ErrorCode = 0x13
	CodeNilUpdate         ErrorCode = 0x14

	// SMT Update Module: transition verification, numbered on its own and offset like the smt module
	SMTUpdateModule ErrorModule = "smt_update"

	// SMT Update Module Error Codes
	CodeComputeOldRoot    ErrorCode = 0x01
	CodeComputeNewRoot    ErrorCode = 0x02
	CodeMismatchedOldRoot ErrorCode = 0x03
	CodeMismatchedNewRoot ErrorCode = 0x04

	// Storage Module
	StorageModule   ErrorModule = "store"
	CodeOpenDB      ErrorCode   = 1
	CodeCloseDB     ErrorCode   = 2
	CodeStoreSet    ErrorCode   = 3
	CodeStoreGet    ErrorCode   = 4
	CodeStoreDelete ErrorCode   = 5
	CodeIterator    ErrorCode   = 6
	CodeInvalidKey  ErrorCode   = 7
	CodeCommitDB    ErrorCode   = 8
)

const (
	// SMTExitCodeBase separates proof verification errors from host and contract exit codes
	SMTExitCodeBase = 0x60
	// exitCodeUnknown is returned for errors that do not carry a module (should never happen)
	exitCodeUnknown int8 = -1
)

// ExitCode() maps a validation result onto the signed status code reported to the host
// 0 is accepted, host errors keep [0x01, 0x0f], contract errors keep [0x10, 0x5f]
// and smt verification errors are shifted into [0x60, ...)
func ExitCode(err error) int8 {
	if err == nil {
		return 0
	}
	var e ErrorI
	if !errors.As(err, &e) {
		return exitCodeUnknown
	}
	switch e.Module() {
	case HostModule, KVStoreModule, CheckDataModule:
		return int8(e.Code())
	case SMTModule, SMTUpdateModule:
		return int8(SMTExitCodeBase + e.Code())
	default:
		return exitCodeUnknown
	}
}

// error implementations below for the `lib` package
func newLogError(err error) ErrorI {
	return NewError(NoCode, MainModule, err.Error())
}

func ErrJSONUnmarshal(err error) ErrorI {
	return NewError(CodeJSONUnmarshal, MainModule, fmt.Sprintf("json.unmarshal() failed with err: %s", err.Error()))
}

func ErrJSONMarshal(err error) ErrorI {
	return NewError(CodeJSONMarshal, MainModule, fmt.Sprintf("json.marshal() failed with err: %s", err.Error()))
}

func ErrStringToBytes(err error) ErrorI {
	return NewError(CodeStringToBytes, MainModule, fmt.Sprintf("stringToBytes() failed with err: %s", err.Error()))
}

func ErrWriteFile(err error) ErrorI {
	return NewError(CodeWriteFile, MainModule, fmt.Sprintf("os.WriteFile() failed with err: %s", err.Error()))
}

func ErrReadFile(err error) ErrorI {
	return NewError(CodeReadFile, MainModule, fmt.Sprintf("os.ReadFile() failed with err: %s", err.Error()))
}

// ErrEncoding() is raised when bytes handed over by the host do not decode; surfaced as a host error
func ErrEncoding(err error) ErrorI {
	return NewError(CodeEncoding, HostModule, fmt.Sprintf("decoding failed with err: %s", err.Error()))
}

func ErrInvalidArgument() ErrorI {
	return NewError(CodeInvalidArgument, MainModule, "the argument is invalid")
}

func ErrParseSize(err error) ErrorI {
	return NewError(CodeParseSize, MainModule, fmt.Sprintf("units.ParseBase2Bytes() failed with err: %s", err.Error()))
}

func ErrMemTableTooSmall(size string) ErrorI {
	return NewError(CodeMemTableSize, MainModule, fmt.Sprintf("memTableSize %s is below the minimum of %dMB", size, MinMemTableSize>>20))
}

func ErrWriteMetrics(err error) ErrorI {
	return NewError(CodeWriteMetrics, MainModule, fmt.Sprintf("writing metrics failed with err: %s", err.Error()))
}

package lib

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		detail   string
		err      error
		expected int8
	}{
		{
			name:     "accepted",
			detail:   "no error is exit code 0",
			err:      nil,
			expected: 0,
		},
		{
			name:     "host",
			detail:   "host codes are surfaced verbatim",
			err:      NewError(CodeEncoding, HostModule, ""),
			expected: 0x04,
		},
		{
			name:     "kv store",
			detail:   "contract codes are surfaced verbatim",
			err:      NewError(CodeUpdateNewRootIsMismatch, KVStoreModule, ""),
			expected: 0x18,
		},
		{
			name:     "check data",
			detail:   "contract codes are surfaced verbatim",
			err:      NewError(CodeWitnessIsNotExisted, CheckDataModule, ""),
			expected: 0x14,
		},
		{
			name:     "smt",
			detail:   "verification codes are shifted past the contract range",
			err:      NewError(CodeMismatchedRoot, SMTModule, ""),
			expected: 0x62,
		},
		{
			name:     "compute old root",
			detail:   "transition codes are numbered on their own from 0x01",
			err:      NewError(CodeComputeOldRoot, SMTUpdateModule, ""),
			expected: 0x61,
		},
		{
			name:     "compute new root",
			detail:   "transition codes are numbered on their own from 0x01",
			err:      NewError(CodeComputeNewRoot, SMTUpdateModule, ""),
			expected: 0x62,
		},
		{
			name:     "mismatched old root",
			detail:   "transition codes are numbered on their own from 0x01",
			err:      NewError(CodeMismatchedOldRoot, SMTUpdateModule, ""),
			expected: 0x63,
		},
		{
			name:     "mismatched new root",
			detail:   "transition codes are numbered on their own from 0x01",
			err:      NewError(CodeMismatchedNewRoot, SMTUpdateModule, ""),
			expected: 0x64,
		},
		{
			name:     "wrapped",
			detail:   "a wrapped module error keeps its code",
			err:      fmt.Errorf("context: %w", NewError(CodeCellDepNotFound, CheckDataModule, "")),
			expected: 0x12,
		},
		{
			name:     "other module",
			detail:   "errors of the tooling never become a validator code",
			err:      ErrInvalidArgument(),
			expected: -1,
		},
		{
			name:     "plain error",
			detail:   "errors without a module are unknown",
			err:      errors.New("plain"),
			expected: -1,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ExitCode(test.err), test.detail)
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := NewError(CodeMismatchedRoot, SMTModule, "one message")
	require.True(t, errors.Is(err, NewError(CodeMismatchedRoot, SMTModule, "another message")))
	require.False(t, errors.Is(err, NewError(CodeMismatchedRoot, HostModule, "one message")))
	require.Contains(t, err.Error(), "one message")
	// a transition error sharing a code with a data error is a different error
	require.False(t, errors.Is(NewError(CodeComputeOldRoot, SMTUpdateModule, ""), NewError(CodeComputeRoot, SMTModule, "")))
}

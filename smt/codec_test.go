package smt

import (
	"testing"

	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/codec"
	"github.com/stretchr/testify/require"
)

func TestUpdatePresenceSurvivesWire(t *testing.T) {
	u := &Update{
		NewRoot: KeyDigest([]byte("root")),
		Changes: []Change{
			{Key: []byte("a"), OldValue: None, NewValue: Some(nil)},
			{Key: []byte("b"), OldValue: Some([]byte{}), NewValue: None},
		},
		Proof: []byte{OpLeaf, OpZeros, 0},
	}
	got, err := NewUpdateFromBytes(u.Bytes())
	require.NoError(t, err)
	require.Equal(t, u.NewRoot, got.NewRoot)
	require.Len(t, got.Changes, 2)
	require.False(t, got.Changes[0].OldValue.IsSome())
	require.True(t, got.Changes[0].NewValue.IsSome())
	require.True(t, got.Changes[1].OldValue.IsSome())
	require.False(t, got.Changes[1].NewValue.IsSome())
	require.Equal(t, []byte(u.Proof), []byte(got.Proof))
}

func TestDecodeUpdateInvalid(t *testing.T) {
	root := KeyDigest([]byte("root"))
	change := codec.NewEncoder().Bytes(1, []byte("k")).Encoded()
	tests := []struct {
		name   string
		detail string
		bz     []byte
	}{
		{
			name:   "missing root",
			detail: "field 1 is required",
			bz:     codec.NewEncoder().Bytes(3, []byte{}).Encoded(),
		},
		{
			name:   "short root",
			detail: "the root must be 32 bytes",
			bz:     codec.NewEncoder().Bytes(1, root[:31]).Encoded(),
		},
		{
			name:   "repeated root",
			detail: "the root is a singular field",
			bz:     codec.NewEncoder().Bytes(1, root[:]).Bytes(1, root[:]).Encoded(),
		},
		{
			name:   "unknown field",
			detail: "field 9 is not part of the update",
			bz:     codec.NewEncoder().Bytes(1, root[:]).Bytes(9, nil).Encoded(),
		},
		{
			name:   "change without key",
			detail: "the key of a change is required",
			bz:     codec.NewEncoder().Bytes(1, root[:]).Bytes(2, codec.NewEncoder().Bytes(3, []byte("v")).Encoded()).Encoded(),
		},
		{
			name:   "change with unknown field",
			detail: "field 4 is not part of a change",
			bz:     codec.NewEncoder().Bytes(1, root[:]).Bytes(2, append(append([]byte{}, change...), 0x22, 0x00)).Encoded(),
		},
		{
			name:   "trailing garbage",
			detail: "a byte after the last field",
			bz:     append(codec.NewEncoder().Bytes(1, root[:]).Encoded(), 0x07),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewUpdateFromBytes(test.bz)
			require.Error(t, err, test.detail)
			require.Equal(t, lib.HostModule, err.Module())
			require.Equal(t, lib.CodeEncoding, err.Code())
		})
	}
}

func TestDecodeDataWithProofInvalid(t *testing.T) {
	_, err := NewDataWithProofFromBytes(codec.NewEncoder().Bytes(1, codec.NewEncoder().Bytes(2, []byte("v")).Encoded()).Encoded())
	require.Error(t, err)
	require.Equal(t, lib.CodeEncoding, err.Code())
	_, err = NewDataWithProofFromBytes(codec.NewEncoder().Varint(2, 1).Encoded())
	require.Error(t, err)
	require.Equal(t, lib.CodeEncoding, err.Code())
	// an empty message is an empty artifact
	d, err := NewDataWithProofFromBytes(nil)
	require.NoError(t, err)
	require.Empty(t, d.Entries)
}

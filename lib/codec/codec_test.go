package codec

import (
	"testing"

	"github.com/canopy-network/smtkv/lib"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

var testSchema = Schema{
	1: {Type: protowire.BytesType},
	2: {Type: protowire.VarintType},
	3: {Type: protowire.BytesType, Repeated: true},
}

func TestEncodeDecode(t *testing.T) {
	bz := NewEncoder().
		Bytes(1, []byte("a")).
		Varint(2, 300).
		Bytes(3, []byte("x")).
		Bytes(3, []byte{}).
		Encoded()
	f, err := Decode(bz, testSchema)
	require.NoError(t, err)
	got, ok := f.Bytes(1)
	require.True(t, ok)
	require.Equal(t, []byte("a"), got)
	require.Equal(t, uint64(300), f.Varint(2))
	require.Equal(t, [][]byte{[]byte("x"), {}}, f.RepeatedBytes(3))
}

func TestOptBytesPresence(t *testing.T) {
	// absent
	f, err := Decode(NewEncoder().OptBytes(1, nil, false).Encoded(), testSchema)
	require.NoError(t, err)
	_, ok := f.Bytes(1)
	require.False(t, ok)
	// present and empty
	f, err = Decode(NewEncoder().OptBytes(1, nil, true).Encoded(), testSchema)
	require.NoError(t, err)
	got, ok := f.Bytes(1)
	require.True(t, ok)
	require.Empty(t, got)
}

func TestDecodeStrict(t *testing.T) {
	valid := NewEncoder().Bytes(1, []byte("a")).Encoded()
	tests := []struct {
		name   string
		detail string
		bz     []byte
	}{
		{
			name:   "unknown field",
			detail: "field 4 is not in the schema",
			bz:     NewEncoder().Bytes(4, []byte("a")).Encoded(),
		},
		{
			name:   "wrong wire type",
			detail: "field 1 is declared as bytes",
			bz:     NewEncoder().Varint(1, 1).Encoded(),
		},
		{
			name:   "repeated singular",
			detail: "field 1 appears twice",
			bz:     NewEncoder().Bytes(1, []byte("a")).Bytes(1, []byte("b")).Encoded(),
		},
		{
			name:   "trailing garbage",
			detail: "a lone byte after a valid field",
			bz:     append(append([]byte{}, valid...), 0xFF),
		},
		{
			name:   "truncated bytes",
			detail: "the length prefix claims more bytes than available",
			bz:     valid[:len(valid)-1],
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(test.bz, testSchema)
			require.Error(t, err, test.detail)
			require.Equal(t, lib.HostModule, err.Module())
			require.Equal(t, lib.CodeEncoding, err.Code())
		})
	}
}

func TestRequiredBytes(t *testing.T) {
	f, err := Decode(NewEncoder().Bytes(1, []byte("abc")).Encoded(), testSchema)
	require.NoError(t, err)
	got, err := f.RequiredBytes(1, 3)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
	_, err = f.RequiredBytes(1, 32)
	require.Error(t, err)
	f, err = Decode(nil, testSchema)
	require.NoError(t, err)
	_, err = f.RequiredBytes(1, -1)
	require.Error(t, err)
}

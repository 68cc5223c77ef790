package smt

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/lib/crypto"
)

// H256 is a 32 byte digest: a leaf key, a leaf value digest, a node or a root
type H256 [crypto.HashSize]byte

// Zero is the all zero digest; the root of the empty tree and the digest of an absent value
var Zero H256

// NewH256() converts a 32 byte slice into a digest
func NewH256(b []byte) (h H256, err lib.ErrorI) {
	if len(b) != len(h) {
		return h, ErrInvalidHashLength(len(b))
	}
	copy(h[:], b)
	return
}

// KeyDigest() returns the position of a raw key in the tree
func KeyDigest(key []byte) (h H256) {
	copy(h[:], crypto.Hash(key))
	return
}

// IsZero() returns true if every byte is zero
func (h H256) IsZero() bool { return h == Zero }

// Bytes() returns a copy of the digest as a slice
func (h H256) Bytes() []byte { return append([]byte{}, h[:]...) }

// String() returns the hex encoding of the digest
func (h H256) String() string { return hex.EncodeToString(h[:]) }

// MarshalJSON() serializes the digest as a hex string
func (h H256) MarshalJSON() ([]byte, error) { return json.Marshal(h.String()) }

// UnmarshalJSON() deserializes a hex string into the digest
func (h *H256) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	bz, err := lib.StringToBytes(s)
	if err != nil {
		return err
	}
	*h, err = NewH256(bz)
	if err != nil {
		return err
	}
	return nil
}

// BytesOpt is an optional byte string: absent (None) is distinct from present and empty
type BytesOpt struct {
	value []byte
	some  bool
}

// None is the absent value; assigning it to a key removes the key from the tree
var None = BytesOpt{}

// Some() wraps a present value; nil is treated as the empty value
func Some(value []byte) BytesOpt {
	return BytesOpt{value: append([]byte{}, value...), some: true}
}

// IsSome() returns true if the value is present
func (o BytesOpt) IsSome() bool { return o.some }

// Value() returns the value bytes; nil if absent
func (o BytesOpt) Value() []byte {
	if !o.some {
		return nil
	}
	return append([]byte{}, o.value...)
}

// Equal() compares presence and content
func (o BytesOpt) Equal(other BytesOpt) bool {
	return o.some == other.some && bytes.Equal(o.value, other.value)
}

// Digest() is the value digest used by the tree: Hash(value) if present, Zero otherwise
func (o BytesOpt) Digest() (h H256) {
	if !o.some {
		return Zero
	}
	copy(h[:], crypto.Hash(o.value))
	return
}

// String() returns 'none' or the hex encoding of the value
func (o BytesOpt) String() string {
	if !o.some {
		return "none"
	}
	return hex.EncodeToString(o.value)
}

// MarshalJSON() serializes an absent value as null and a present one as a hex string
func (o BytesOpt) MarshalJSON() ([]byte, error) {
	if !o.some {
		return []byte("null"), nil
	}
	return json.Marshal(hex.EncodeToString(o.value))
}

// UnmarshalJSON() deserializes null into None and a hex string into Some
func (o *BytesOpt) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*o = None
		return nil
	}
	bz, err := lib.StringToBytes(*s)
	if err != nil {
		return err
	}
	*o = Some(bz)
	return nil
}

// Leaf is a claim handed to the verifier: the key digest and the value digest at that key
type Leaf struct {
	Key   H256
	Value H256
}

// KeyValue is a raw key and its optional value as carried inside a DataWithProof
type KeyValue struct {
	Key   lib.HexBytes `json:"key"`
	Value BytesOpt     `json:"value"`
}

// Leaf() converts the raw pair into the hashed claim
func (kv KeyValue) Leaf() Leaf { return Leaf{Key: KeyDigest(kv.Key), Value: kv.Value.Digest()} }

// Change is a single leaf transition inside an Update
type Change struct {
	Key      lib.HexBytes `json:"key"`
	OldValue BytesOpt     `json:"oldValue"`
	NewValue BytesOpt     `json:"newValue"`
}

// OldLeaf() returns the claim of the key before the change
func (c Change) OldLeaf() Leaf { return Leaf{Key: KeyDigest(c.Key), Value: c.OldValue.Digest()} }

// NewLeaf() returns the claim of the key after the change
func (c Change) NewLeaf() Leaf { return Leaf{Key: KeyDigest(c.Key), Value: c.NewValue.Digest()} }

// Update is the artifact of a committed change set: the new root, every change with its old and new value,
// and one compiled proof valid for both the old and the new leaf sets
type Update struct {
	NewRoot H256         `json:"newRoot"`
	Changes []Change     `json:"changes"`
	Proof   lib.HexBytes `json:"proof"`
}

// OldLeaves() returns the claims of every changed key before the update
func (u *Update) OldLeaves() []Leaf {
	leaves := make([]Leaf, len(u.Changes))
	for i, c := range u.Changes {
		leaves[i] = c.OldLeaf()
	}
	return leaves
}

// NewLeaves() returns the claims of every changed key after the update
func (u *Update) NewLeaves() []Leaf {
	leaves := make([]Leaf, len(u.Changes))
	for i, c := range u.Changes {
		leaves[i] = c.NewLeaf()
	}
	return leaves
}

// DataWithProof is the artifact authenticating a set of key value pairs against a root
type DataWithProof struct {
	Entries []KeyValue   `json:"entries"`
	Proof   lib.HexBytes `json:"proof"`
}

// Leaves() returns the claims of every entry
func (d *DataWithProof) Leaves() []Leaf {
	leaves := make([]Leaf, len(d.Entries))
	for i, e := range d.Entries {
		leaves[i] = e.Leaf()
	}
	return leaves
}

package smt

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/canopy-network/smtkv/lib"
)

// =====================================================
// SMT: a full depth sparse Merkle tree
// =====================================================
//
// 1. Every key digest selects one of 2^256 leaves. Heights count from the
//    leaves (0) up to the root (256).
// 2. A leaf node is Zero if its value is absent, otherwise
//    Hash(0x00 || key || value_digest).
// 3. A branch node is Zero if both children are Zero, otherwise
//    Hash(0x01 || left || right). The root of the empty tree is Zero.
// 4. At height h a path goes right if bit h of the key is set. Height 255
//    is decided by the most significant bit.
//
// -----------------------------------------------------
// Storage:
// -----------------------------------------------------
// - Only non zero nodes are stored, keyed by (height, path) where path is
//   the key with every bit below height cleared.
// - Leaf values are stored by key digest with a presence marker so an
//   empty value is distinct from an absent one.
//
// -----------------------------------------------------
// Update: set or delete a leaf
// -----------------------------------------------------
// - Write the value and the leaf node.
// - LOOP from height 0 to 255:
//   1. Read the sibling of the current node.
//   2. Merge the two on the sides given by the path bit.
//   3. Write the parent.
//
// -----------------------------------------------------
// MerkleProof: compile a proof for a sorted set of keys
// -----------------------------------------------------
// - Push each key as a leaf and climb toward the lower of two fork heights:
//   with the entry below it on the stack and with the next key.
// - Siblings on the way are emitted as 'P' or folded into 'O'.
// - When the fork with the entry below comes first, emit 'H' and keep
//   climbing with the merged entry. Otherwise move to the next key.
// - A sibling passed on the way never contains a requested key, so the same
//   proof is valid for any values of the requested keys.
//
// =====================================================

var (
	nodePrefix  = []byte("n/") // prefix designated for the tree nodes
	valuePrefix = []byte("v/") // prefix designated for the leaf values

	valuePresent = byte(0x01) // marker prepended to every stored value
)

// SMT is a sparse merkle tree persisted in a key value store
// it is not safe for concurrent use
type SMT struct {
	// store: an abstraction of the database where the tree is being stored
	store lib.RWStoreI
}

// NewSMT() creates a new abstraction of the SMT object over the store
func NewSMT(store lib.RWStoreI) *SMT { return &SMT{store: store} }

// Root() returns the root of the tree; Zero if empty
func (s *SMT) Root() (H256, lib.ErrorI) { return s.getNode(MaxHeight, Zero) }

// Get() returns the value stored at the key digest; None if unassigned
func (s *SMT) Get(key H256) (BytesOpt, lib.ErrorI) {
	bz, err := s.store.Get(valueKey(key))
	if err != nil {
		return None, err
	}
	if len(bz) == 0 {
		return None, nil
	}
	if bz[0] != valuePresent {
		return None, ErrCorruptNode(0, key)
	}
	return Some(bz[1:]), nil
}

// Update() sets the value at the key digest, deleting it when value is None, and returns the new root
func (s *SMT) Update(key H256, value BytesOpt) (H256, lib.ErrorI) {
	// write the value itself
	if value.IsSome() {
		if err := s.store.Set(valueKey(key), append([]byte{valuePresent}, value.value...)); err != nil {
			return Zero, err
		}
	} else if err := s.store.Delete(valueKey(key)); err != nil {
		return Zero, err
	}
	// calculate and write the leaf node
	node := LeafHash(key, value.Digest())
	if err := s.setNode(0, key, node); err != nil {
		return Zero, err
	}
	// rehash the path from the leaf up to the root
	for height := 0; height < MaxHeight; height++ {
		sibling, err := s.getNode(height, siblingPath(key, height))
		if err != nil {
			return Zero, err
		}
		node = mergeAt(key, height, node, sibling)
		if err = s.setNode(height+1, parentPath(key, height+1), node); err != nil {
			return Zero, err
		}
	}
	return node, nil
}

// MerkleProof() compiles one proof covering every key; the keys must be unique and non empty
func (s *SMT) MerkleProof(keys []H256) (CompiledProof, lib.ErrorI) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeySet()
	}
	sorted := make([]H256, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, ErrDuplicateKey(sorted[i])
		}
	}
	var (
		builder proofBuilder
		stack   []stackEntry
	)
	for i, key := range sorted {
		builder.leaf()
		stack = append(stack, stackEntry{key: key})
		for {
			top := &stack[len(stack)-1]
			// the height where the top meets the entry below it
			forkLeft := MaxHeight
			if len(stack) > 1 {
				forkLeft = forkHeight(stack[len(stack)-2].key, top.key)
			}
			// the height where the top meets the next requested key
			forkRight := MaxHeight
			if i+1 < len(sorted) {
				forkRight = forkHeight(top.key, sorted[i+1])
			}
			target := forkLeft
			if forkRight < target {
				target = forkRight
			}
			// climb to the target emitting the siblings on the way
			for ; top.height < target; top.height++ {
				sibling, err := s.getNode(top.height, siblingPath(top.key, top.height))
				if err != nil {
					return nil, err
				}
				builder.sibling(sibling)
			}
			if forkLeft >= forkRight {
				break
			}
			// merge with the entry below and keep climbing
			builder.merge()
			left := stack[len(stack)-2]
			stack = append(stack[:len(stack)-2], stackEntry{key: left.key, height: target + 1})
		}
	}
	return builder.finish(), nil
}

// getNode() reads the node at height and path; missing nodes are Zero
func (s *SMT) getNode(height int, path H256) (H256, lib.ErrorI) {
	bz, err := s.store.Get(nodeKey(height, path))
	if err != nil {
		return Zero, err
	}
	if bz == nil {
		return Zero, nil
	}
	if len(bz) != len(Zero) {
		return Zero, ErrCorruptNode(height, path)
	}
	var node H256
	copy(node[:], bz)
	return node, nil
}

// setNode() writes the node at height and path; Zero nodes are deleted instead
func (s *SMT) setNode(height int, path, node H256) lib.ErrorI {
	if node.IsZero() {
		return s.store.Delete(nodeKey(height, path))
	}
	return s.store.Set(nodeKey(height, path), node.Bytes())
}

// nodeKey() is the store key of the node at height and path
func nodeKey(height int, path H256) []byte {
	h := make([]byte, 2)
	binary.BigEndian.PutUint16(h, uint16(height))
	return lib.JoinLenPrefix(nodePrefix, h, path[:])
}

// valueKey() is the store key of the value at the key digest
func valueKey(key H256) []byte { return lib.JoinLenPrefix(valuePrefix, key[:]) }

// valuesPrefix() is the store prefix shared by every leaf value
func valuesPrefix() []byte { return lib.JoinLenPrefix(valuePrefix) }

// decodeValueEntry() converts a raw store entry under valuesPrefix() into the key digest and value
func decodeValueEntry(k, v []byte) (key H256, value BytesOpt, err lib.ErrorI) {
	segments := lib.DecodeLengthPrefixed(k)
	if len(segments) != 2 {
		return Zero, None, ErrInvalidHashLength(len(k))
	}
	if key, err = NewH256(segments[1]); err != nil {
		return
	}
	if len(v) == 0 || v[0] != valuePresent {
		return key, None, ErrCorruptNode(0, key)
	}
	return key, Some(v[1:]), nil
}

package smt

import (
	"github.com/canopy-network/smtkv/lib/crypto"
)

const (
	// MaxHeight is the height of the root; leaves live at height 0
	MaxHeight = crypto.HashSize * 8

	leafDomain  = byte(0x00) // prefix of a leaf node preimage
	mergeDomain = byte(0x01) // prefix of a branch node preimage
)

// LeafHash() computes the node of a leaf: Zero for an absent value, otherwise Hash(0x00 || key || value)
func LeafHash(key, value H256) (h H256) {
	if value.IsZero() {
		return Zero
	}
	copy(h[:], crypto.HashSegments([]byte{leafDomain}, key[:], value[:]))
	return
}

// Merge() computes a branch node: Zero if both children are Zero, otherwise Hash(0x01 || lhs || rhs)
func Merge(lhs, rhs H256) (h H256) {
	if lhs.IsZero() && rhs.IsZero() {
		return Zero
	}
	copy(h[:], crypto.HashSegments([]byte{mergeDomain}, lhs[:], rhs[:]))
	return
}

// getBit() returns the direction taken at height by a path through the tree
// height 255 selects the most significant bit of the key, height 0 the least significant one
func getBit(key H256, height int) int {
	bitPos := MaxHeight - 1 - height
	// calculate the byte index and the bit index within that byte using MSB logic
	byteIndex, bitIndex := bitPos/8, 7-(bitPos%8)
	return int(key[byteIndex]>>bitIndex) & 1
}

// setBit() returns the key with the bit at height set to 1
func setBit(key H256, height int) H256 {
	bitPos := MaxHeight - 1 - height
	key[bitPos/8] |= 1 << (7 - bitPos%8)
	return key
}

// clearBit() returns the key with the bit at height set to 0
func clearBit(key H256, height int) H256 {
	bitPos := MaxHeight - 1 - height
	key[bitPos/8] &^= 1 << (7 - bitPos%8)
	return key
}

// parentPath() returns the path of the node at height that contains the key: every bit below height is cleared
func parentPath(key H256, height int) H256 {
	if height >= MaxHeight {
		return Zero
	}
	// heights 0-7 live in the last byte, 8-15 in the one before, and so on
	full := height / 8
	for i := 0; i < full; i++ {
		key[len(key)-1-i] = 0
	}
	if rem := height % 8; rem != 0 {
		key[len(key)-1-full] &^= byte(1<<rem - 1)
	}
	return key
}

// siblingPath() returns the path of the sibling of the node at height that contains the key
func siblingPath(key H256, height int) H256 {
	path := parentPath(key, height)
	if getBit(key, height) == 0 {
		return setBit(path, height)
	}
	return clearBit(path, height)
}

// forkHeight() returns the height of the lowest node shared by the two paths
// the paths first differ at the returned height; equal keys return -1
func forkHeight(a, b H256) int {
	for i := range a {
		if x := a[i] ^ b[i]; x != 0 {
			// count the leading zero bits of the first differing byte
			lead := 0
			for ; x&0x80 == 0; x <<= 1 {
				lead++
			}
			return MaxHeight - 1 - (i*8 + lead)
		}
	}
	return -1
}

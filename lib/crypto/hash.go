package crypto

import (
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

const (
	HashSize = blake2b.Size256
)

/*
	Hash is a function that takes an input message and returns a fixed-size string of bytes that is unique to the input.
	Every digest in the tree, every script identity and every unique record identifier is produced by the same
	global hash so the prover and the validators always agree
*/

// Hasher() returns the global hashing algorithm used
func Hasher() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only possible with an oversized key
		panic(err)
	}
	return h
}

// Hash() executes the global hashing algorithm on input bytes
func Hash(msg []byte) []byte {
	h := blake2b.Sum256(msg)
	return h[:]
}

// HashSegments() hashes the concatenation of the segments without allocating the joined message
func HashSegments(segments ...[]byte) []byte {
	h := Hasher()
	for _, s := range segments {
		_, _ = h.Write(s)
	}
	return h.Sum(nil)
}

// HashString() returns the hex byte version of a hash
func HashString(msg []byte) string { return hex.EncodeToString(Hash(msg)) }

// UniqueID() derives the identifier of a newly created record from the serialized first input of the
// transaction and the absolute index of the output being created
func UniqueID(firstInput []byte, outputIndex uint64) []byte {
	var index [8]byte
	binary.LittleEndian.PutUint64(index[:], outputIndex)
	return HashSegments(firstInput, index[:])
}

package smt

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/canopy-network/smtkv/lib"
)

/*
	A compiled proof is a small stack program. Run against a sorted set of claimed leaves it rebuilds every node
	on the paths from those leaves to the root and yields the root.

	OPCODES:
	- 'L' (0x4C)            push the next claimed leaf at height 0
	- 'P' (0x50) <32 bytes> merge the top of the stack with the given sibling; height + 1
	- 'O' (0x4F) <1 byte n> merge the top of the stack with n zero siblings (n = 0 means 256); height + n
	- 'H' (0x48)            pop the right node then the left node; both at height h and forking at h; push their parent

	The program is valid only if it ends with exactly one node at the root height and every claim consumed.
	Because the program fixes the shape of the paths, changing the set of claimed keys makes it fail and
	changing a claimed value yields a different root.
*/

const (
	OpLeaf   = byte(0x4C) // 'L'
	OpProof  = byte(0x50) // 'P'
	OpZeros  = byte(0x4F) // 'O'
	OpMerge  = byte(0x48) // 'H'
	maxZeros = 255        // largest run a single 'O' can express besides the full 256
)

// CompiledProof is the opcode program produced by the tree
type CompiledProof []byte

// ProofVerifierI is the capability the verification functions depend on
type ProofVerifierI interface {
	// ComputeRoot() runs the proof against the claimed leaves and returns the root they imply
	ComputeRoot(proof []byte, leaves []Leaf) (H256, lib.ErrorI)
}

var _ ProofVerifierI = DefaultVerifier{} // enforce the verifier interface

// DefaultVerifier runs compiled proofs with the global hash
type DefaultVerifier struct{}

// ComputeRoot() implements ProofVerifierI with the opcode program above
func (DefaultVerifier) ComputeRoot(proof []byte, leaves []Leaf) (H256, lib.ErrorI) {
	return ComputeRoot(proof, leaves)
}

// stackEntry is a partially rebuilt node: a path through it, its height and its hash
type stackEntry struct {
	key    H256
	height int
	node   H256
}

// ComputeRoot() rebuilds the root from a compiled proof and the claimed leaves
// the claims are sorted by key before use; the caller's slice is not modified
func ComputeRoot(proof []byte, leaves []Leaf) (H256, lib.ErrorI) {
	// sort a copy of the claims by key
	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i].Key[:], sorted[j].Key[:]) < 0 })
	// duplicate keys would let one claim shadow another
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			return Zero, ErrDuplicateLeaf(sorted[i].Key)
		}
	}
	var (
		stack   []stackEntry
		leafIdx int
	)
	for pc := 0; pc < len(proof); {
		code := proof[pc]
		pc++
		switch code {
		case OpLeaf:
			if leafIdx >= len(sorted) {
				return Zero, ErrComputeRoot("more leaf opcodes than claimed leaves")
			}
			leaf := sorted[leafIdx]
			leafIdx++
			stack = append(stack, stackEntry{key: leaf.Key, height: 0, node: LeafHash(leaf.Key, leaf.Value)})
		case OpProof:
			if pc+len(Zero) > len(proof) {
				return Zero, ErrComputeRoot("truncated sibling operand")
			}
			if len(stack) == 0 {
				return Zero, ErrComputeRoot("sibling merge on an empty stack")
			}
			var sibling H256
			copy(sibling[:], proof[pc:pc+len(Zero)])
			pc += len(Zero)
			top := &stack[len(stack)-1]
			if top.height >= MaxHeight {
				return Zero, ErrComputeRoot("sibling merge above the root")
			}
			top.node = mergeAt(top.key, top.height, top.node, sibling)
			top.height++
		case OpZeros:
			if pc >= len(proof) {
				return Zero, ErrComputeRoot("truncated zeros operand")
			}
			if len(stack) == 0 {
				return Zero, ErrComputeRoot("zeros merge on an empty stack")
			}
			n := int(proof[pc])
			pc++
			if n == 0 {
				n = MaxHeight
			}
			top := &stack[len(stack)-1]
			if top.height+n > MaxHeight {
				return Zero, ErrComputeRoot(fmt.Sprintf("zeros merge from height %d by %d passes the root", top.height, n))
			}
			for i := 0; i < n; i++ {
				top.node = mergeAt(top.key, top.height, top.node, Zero)
				top.height++
			}
		case OpMerge:
			if len(stack) < 2 {
				return Zero, ErrComputeRoot("branch merge needs two stack entries")
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			if a.height != b.height {
				return Zero, ErrComputeRoot(fmt.Sprintf("branch merge of heights %d and %d", a.height, b.height))
			}
			if a.height >= MaxHeight {
				return Zero, ErrComputeRoot("branch merge above the root")
			}
			// both must sit under the same parent: the paths fork exactly here with the left going left
			if forkHeight(a.key, b.key) != a.height || getBit(a.key, a.height) != 0 {
				return Zero, ErrComputeRoot(fmt.Sprintf("branch merge of unrelated nodes at height %d", a.height))
			}
			stack = append(stack, stackEntry{key: a.key, height: a.height + 1, node: Merge(a.node, b.node)})
		default:
			return Zero, ErrComputeRoot(fmt.Sprintf("unknown opcode 0x%02x at %d", code, pc-1))
		}
	}
	if len(stack) != 1 {
		return Zero, ErrComputeRoot(fmt.Sprintf("expected one stack entry at the end, got %d", len(stack)))
	}
	if stack[0].height != MaxHeight {
		return Zero, ErrComputeRoot(fmt.Sprintf("program ended at height %d", stack[0].height))
	}
	if leafIdx != len(sorted) {
		return Zero, ErrComputeRoot(fmt.Sprintf("%d of %d claimed leaves unused", len(sorted)-leafIdx, len(sorted)))
	}
	return stack[0].node, nil
}

// mergeAt() merges a node with its sibling, placing each on the side the path takes at height
func mergeAt(key H256, height int, node, sibling H256) H256 {
	if getBit(key, height) == 0 {
		return Merge(node, sibling)
	}
	return Merge(sibling, node)
}

// proofBuilder accumulates opcodes and folds runs of zero siblings into 'O' instructions
type proofBuilder struct {
	proof CompiledProof
	zeros int
}

// leaf() emits 'L'
func (p *proofBuilder) leaf() { p.flush(); p.proof = append(p.proof, OpLeaf) }

// sibling() emits 'P' for a non zero sibling or extends the current run of zeros
func (p *proofBuilder) sibling(node H256) {
	if node.IsZero() {
		p.zeros++
		return
	}
	p.flush()
	p.proof = append(append(p.proof, OpProof), node[:]...)
}

// merge() emits 'H'
func (p *proofBuilder) merge() { p.flush(); p.proof = append(p.proof, OpMerge) }

// flush() emits the pending run of zeros
func (p *proofBuilder) flush() {
	if p.zeros == MaxHeight {
		p.proof, p.zeros = append(p.proof, OpZeros, 0), 0
		return
	}
	for p.zeros > 0 {
		n := p.zeros
		if n > maxZeros {
			n = maxZeros
		}
		p.proof = append(p.proof, OpZeros, byte(n))
		p.zeros -= n
	}
}

// finish() flushes and returns the program
func (p *proofBuilder) finish() CompiledProof { p.flush(); return p.proof }

package smt

import (
	"bytes"
	"sort"

	"github.com/canopy-network/smtkv/lib"
	"github.com/canopy-network/smtkv/store"
)

/*
	The ProofGenerator is the prover side of the key value store. It holds the full tree, stages changes,
	commits them as one Update artifact and answers data queries with DataWithProof artifacts.

	CONTRACT:
	- single owner; not safe for concurrent use
	- a commit is all or nothing: the tree and the staged set are untouched on failure
*/

type ProofGenerator struct {
	db      lib.StoreI          // the store holding the tree
	tree    *SMT                // the tree reading directly from the store
	changes map[string]BytesOpt // staged changes by raw key; last write wins
	owned   bool                // close the store with the generator
	metrics *lib.Metrics        // telemetry
	log     lib.LoggerI         // logger
}

// NewProofGenerator() opens the configured store and creates a generator that owns it
func NewProofGenerator(config lib.StoreConfig, metrics *lib.Metrics, log lib.LoggerI) (*ProofGenerator, lib.ErrorI) {
	db, err := store.New(config, log)
	if err != nil {
		return nil, err
	}
	g := NewProofGeneratorWithStore(db, metrics, log)
	g.owned = true
	return g, nil
}

// NewProofGeneratorInMemory() creates a generator over a fresh in memory store
func NewProofGeneratorInMemory(log lib.LoggerI) (*ProofGenerator, lib.ErrorI) {
	return NewProofGenerator(lib.InMemoryStoreConfig(), nil, log)
}

// NewProofGeneratorWithStore() creates a generator over an existing store; the caller keeps ownership of the store
func NewProofGeneratorWithStore(db lib.StoreI, metrics *lib.Metrics, log lib.LoggerI) *ProofGenerator {
	return &ProofGenerator{
		db:      db,
		tree:    NewSMT(db),
		changes: make(map[string]BytesOpt),
		metrics: metrics,
		log:     log.WithModule(string(lib.SMTModule)),
	}
}

// Get() returns the committed value of a key; None if unassigned
func (g *ProofGenerator) Get(key []byte) (BytesOpt, lib.ErrorI) { return g.tree.Get(KeyDigest(key)) }

// Root() returns the current root
func (g *ProofGenerator) Root() (H256, lib.ErrorI) { return g.tree.Root() }

// Update() immediately sets a key, or deletes it with None, and returns the new root
// staged changes are not affected
func (g *ProofGenerator) Update(key []byte, value BytesOpt) (root H256, err lib.ErrorI) {
	txn := store.NewTxn(g.db)
	if root, err = NewSMT(txn).Update(KeyDigest(key), value); err != nil {
		txn.Discard()
		return Zero, err
	}
	if err = txn.Write(); err != nil {
		txn.Discard()
		return Zero, err
	}
	g.metrics.ObserveUpdate()
	g.log.Debugf("Updated key %s to %s, root %s", lib.BytesToTruncatedString(key), value, root)
	return root, nil
}

// AppendChange() stages a change without touching the tree
// it returns the value previously staged for the same key, if any
func (g *ProofGenerator) AppendChange(key []byte, value BytesOpt) (prev BytesOpt, hadPrev bool) {
	prev, hadPrev = g.changes[string(key)]
	g.changes[string(key)] = value
	return
}

// PendingChanges() returns the number of staged changes
func (g *ProofGenerator) PendingChanges() int { return len(g.changes) }

// DiscardChanges() drops every staged change
func (g *ProofGenerator) DiscardChanges() { g.changes = make(map[string]BytesOpt) }

// CommitChanges() applies every staged change and returns the Update that proves the transition
// every old value is read before anything is written, the changes are applied and the proof compiled inside one
// buffered transaction, and the buffer reaches the store only after all of that succeeded
func (g *ProofGenerator) CommitChanges() (*Update, lib.ErrorI) {
	if len(g.changes) == 0 {
		return nil, ErrEmptyKeySet()
	}
	// order the changes by raw key for a deterministic artifact
	keys := make([][]byte, 0, len(g.changes))
	for k := range g.changes {
		keys = append(keys, []byte(k))
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	// capture the old values
	update := &Update{Changes: make([]Change, len(keys))}
	digests := make([]H256, len(keys))
	for i, k := range keys {
		digests[i] = KeyDigest(k)
		old, err := g.tree.Get(digests[i])
		if err != nil {
			return nil, err
		}
		update.Changes[i] = Change{Key: k, OldValue: old, NewValue: g.changes[string(k)]}
	}
	// apply inside a buffer
	txn := store.NewTxn(g.db)
	buffered := NewSMT(txn)
	root, proof, err := func() (root H256, proof CompiledProof, err lib.ErrorI) {
		for i, c := range update.Changes {
			if _, err = buffered.Update(digests[i], c.NewValue); err != nil {
				return
			}
		}
		if proof, err = buffered.MerkleProof(digests); err != nil {
			return
		}
		root, err = buffered.Root()
		return
	}()
	if err != nil {
		txn.Discard()
		g.log.Errorf("Commit of %d changes failed: %s", len(keys), err.Error())
		return nil, err
	}
	if err = txn.Write(); err != nil {
		txn.Discard()
		g.log.Errorf("Writing %d committed changes failed: %s", len(keys), err.Error())
		return nil, err
	}
	update.NewRoot, update.Proof = root, []byte(proof)
	g.DiscardChanges()
	g.metrics.ObserveCommit()
	g.log.Debugf("Committed %d changes, new root %s", len(keys), root)
	return update, nil
}

// MerkleProof() compiles a proof for the raw keys against the current tree
func (g *ProofGenerator) MerkleProof(keys [][]byte) (CompiledProof, lib.ErrorI) {
	digests := make([]H256, len(keys))
	for i, k := range keys {
		digests[i] = KeyDigest(k)
	}
	proof, err := g.tree.MerkleProof(digests)
	if err != nil {
		return nil, err
	}
	g.metrics.ObserveProof()
	return proof, nil
}

// DataWithProof() returns the current value of every key, in the order requested, with one proof for all of them
func (g *ProofGenerator) DataWithProof(keys [][]byte) (*DataWithProof, lib.ErrorI) {
	dwp := &DataWithProof{Entries: make([]KeyValue, len(keys))}
	for i, k := range keys {
		value, err := g.Get(k)
		if err != nil {
			return nil, err
		}
		dwp.Entries[i] = KeyValue{Key: append([]byte{}, k...), Value: value}
	}
	proof, err := g.MerkleProof(keys)
	if err != nil {
		return nil, err
	}
	dwp.Proof = []byte(proof)
	return dwp, nil
}

// ApplyUpdate() replays the new values of an update produced elsewhere; the proof is not checked
func (g *ProofGenerator) ApplyUpdate(update *Update) lib.ErrorI {
	if update == nil {
		return ErrNilUpdate()
	}
	txn := store.NewTxn(g.db)
	buffered := NewSMT(txn)
	for _, c := range update.Changes {
		if _, err := buffered.Update(KeyDigest(c.Key), c.NewValue); err != nil {
			txn.Discard()
			return err
		}
	}
	if err := txn.Write(); err != nil {
		txn.Discard()
		return err
	}
	g.log.Debugf("Applied update with %d changes", len(update.Changes))
	return nil
}

// Leaves() calls fn with every assigned key digest and its value in key order
func (g *ProofGenerator) Leaves(fn func(key H256, value BytesOpt) lib.ErrorI) lib.ErrorI {
	it, err := g.db.Iterator(valuesPrefix())
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		key, value, e := decodeValueEntry(it.Key(), it.Value())
		if e != nil {
			return e
		}
		if e = fn(key, value); e != nil {
			return e
		}
	}
	return nil
}

// Close() closes the store if the generator owns it
func (g *ProofGenerator) Close() lib.ErrorI {
	if !g.owned {
		return nil
	}
	return g.db.Close()
}

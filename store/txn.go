package store

import (
	"sort"

	"github.com/canopy-network/smtkv/lib"
)

// enforce the RWStoreI interface
var _ lib.RWStoreI = &Txn{}

/*
	Txn acts like a database transaction
	It saves set/del operations in memory and allows the caller to Write() to the parent or Discard()
	When read from, it merges with the parent as if Write() had already been called

	The proof generator applies a whole change set inside a Txn, compiles the proof from the buffered state,
	and only writes to the parent once everything succeeded. A failure anywhere leaves the parent untouched.

	CONTRACT:
	- Write() is atomic only when the parent is a *Store (one badger transaction), otherwise ops are applied in key order
	- not thread safe
	- deleted values read as nil
	- empty keys are rejected
*/

type Txn struct {
	parent lib.RWStoreI  // store to Write() to
	ops    map[string]op // [string(key)] -> set/del operations saved in memory
	sorted []string      // ops keys sorted lexicographically; gives Write() a deterministic order
}

// op or Operation has the value portion of the operation and if it's a *delete* or a *set*
type op struct {
	value  []byte // value of key value pair
	delete bool   // is operation delete
}

// batchWriterI is implemented by parents that can apply every buffered operation at once
type batchWriterI interface {
	writeBatch(keys []string, ops map[string]op) lib.ErrorI
}

// NewTxn() creates a new instance of a Txn with the specified parent store
func NewTxn(parent lib.RWStoreI) *Txn {
	return &Txn{parent: parent, ops: make(map[string]op), sorted: make([]string, 0)}
}

// Get() retrieves the value for a given key from either the in-memory operations or the parent store
func (c *Txn) Get(key []byte) ([]byte, lib.ErrorI) {
	if v, found := c.ops[string(key)]; found {
		return v.value, nil
	}
	return c.parent.Get(key)
}

// Set() adds or updates the value for a key in the in-memory operations
func (c *Txn) Set(key, value []byte) lib.ErrorI {
	if len(key) == 0 {
		return ErrInvalidKey()
	}
	c.update(string(key), append([]byte{}, value...), false)
	return nil
}

// Delete() marks a key for deletion in the in-memory operations
func (c *Txn) Delete(key []byte) lib.ErrorI {
	if len(key) == 0 {
		return ErrInvalidKey()
	}
	c.update(string(key), nil, true)
	return nil
}

// Len() returns the number of buffered operations
func (c *Txn) Len() int { return len(c.sorted) }

// update() modifies or adds an operation for a key in the in-memory operations and maintains order
func (c *Txn) update(key string, v []byte, delete bool) {
	if _, found := c.ops[key]; !found {
		c.addToSorted(key)
	}
	c.ops[key] = op{value: v, delete: delete}
}

// addToSorted() inserts a key into the sorted list of operations maintaining lexicographical order
func (c *Txn) addToSorted(key string) {
	i := sort.SearchStrings(c.sorted, key)
	c.sorted = append(c.sorted, "")
	copy(c.sorted[i+1:], c.sorted[i:])
	c.sorted[i] = key
}

// Discard() clears all in-memory operations and resets the sorted key list
func (c *Txn) Discard() { c.ops, c.sorted = make(map[string]op), make([]string, 0) }

// Write() flushes the in-memory operations to the parent store and clears in-memory changes
// if the write fails the operations are kept so the caller may retry or Discard()
func (c *Txn) Write() (err lib.ErrorI) {
	if bw, ok := c.parent.(batchWriterI); ok {
		if err = bw.writeBatch(c.sorted, c.ops); err != nil {
			return
		}
	} else {
		for _, k := range c.sorted {
			if v := c.ops[k]; v.delete {
				err = c.parent.Delete([]byte(k))
			} else {
				err = c.parent.Set([]byte(k), v.value)
			}
			if err != nil {
				return
			}
		}
	}
	c.Discard()
	return
}

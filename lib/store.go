package lib

/* This file contains persistence module interfaces that are used throughout the app */

// StoreI defines the interface for the key value database backing the sparse merkle tree
type StoreI interface {
	RWStoreI                                    // reading and writing
	Iterator(prefix []byte) (IteratorI, ErrorI) // iterate through the data one KV pair at a time in lexicographical order
	Close() ErrorI                              // gracefully stop the database
}

// RWStoreI defines the Read/Write interface for basic db CRUD operations
type RWStoreI interface {
	RStoreI
	WStoreI
}

// WStoreI defines an interface for basic write operations
type WStoreI interface {
	Set(key, value []byte) ErrorI // set value bytes referenced by key bytes
	Delete(key []byte) ErrorI     // remove the value referenced by key bytes; no-op if missing
}

// RStoreI defines an interface for basic read operations
type RStoreI interface {
	Get(key []byte) ([]byte, ErrorI) // access value bytes using key bytes; nil if missing
}

// IteratorI defines an interface for iterating over key-value pairs in a data store
type IteratorI interface {
	Valid() bool           // if the item the iterator is pointing at is valid
	Next()                 // move to next item
	Key() (key []byte)     // retrieve key
	Value() (value []byte) // retrieve value
	Close()                // close the iterator when done, ensuring proper resource management
}

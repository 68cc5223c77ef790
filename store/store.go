package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/canopy-network/smtkv/lib"
	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v4"
)

// openLockedTimeout bounds how long opening a disk DB waits for another process to release the directory lock
const openLockedTimeout = 5 * time.Second

var _ lib.StoreI = &Store{} // enforce the Store interface

/*
	The Store struct is a thin abstraction layer built on top of a single BadgerDB instance.

	It holds the nodes and the leaf values of the sparse merkle tree that backs the proof generator.
	Every read and every single write is its own badger transaction; batches of writes that must land
	together (a committed change set) are buffered in a Txn and applied in one badger transaction.

	CONTRACT:
	- keys must be non-empty
	- a missing key reads as a nil value, so stored values are expected to be non-empty
*/

type Store struct {
	db  *badger.DB  // underlying database
	log lib.LoggerI // logger
}

// New() creates a new instance of a StoreI either in memory or an actual disk DB
func New(config lib.StoreConfig, log lib.LoggerI) (*Store, lib.ErrorI) {
	if config.InMemory {
		return NewStoreInMemory(config, log)
	}
	return NewStore(config, filepath.Join(config.DataDirPath, config.DBName), log)
}

// NewStore() creates a new instance of a disk DB
func NewStore(config lib.StoreConfig, path string, log lib.LoggerI) (*Store, lib.ErrorI) {
	opts, err := badgerOptions(config, path, log)
	if err != nil {
		return nil, err
	}
	// another command may still hold the directory lock
	var s *Store
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = openLockedTimeout
	if e := backoff.Retry(func() error {
		if s, err = openStore(opts, log); err != nil {
			if !strings.Contains(err.Error(), "Another process is using this Badger database") {
				return backoff.Permanent(err)
			}
			log.Warnf("Database %s is locked, retrying", path)
			return err
		}
		return nil
	}, policy); e != nil {
		return nil, err
	}
	return s, nil
}

// NewStoreInMemory() creates a new instance of a mem DB
func NewStoreInMemory(config lib.StoreConfig, log lib.LoggerI) (*Store, lib.ErrorI) {
	opts, err := badgerOptions(config, "", log)
	if err != nil {
		return nil, err
	}
	return openStore(opts.WithInMemory(true), log)
}

// openStore() opens the badger database with the completed options
func openStore(opts badger.Options, log lib.LoggerI) (*Store, lib.ErrorI) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return &Store{db: db, log: log}, nil
}

// badgerOptions() translates the user configuration into badger options
func badgerOptions(config lib.StoreConfig, path string, log lib.LoggerI) (opts badger.Options, err lib.ErrorI) {
	memTableSize, err := config.MemTableBytes()
	if err != nil {
		return
	}
	valueLogFileSize, err := config.ValueLogFileBytes()
	if err != nil {
		return
	}
	opts = badger.DefaultOptions(path).
		WithMemTableSize(memTableSize).
		WithValueLogFileSize(valueLogFileSize).
		WithLogger(badgerLogger{log: log.WithModule("badger")})
	return
}

// Get() returns the value bytes referenced by the key; nil if the key does not exist
func (s *Store) Get(key []byte) (value []byte, err lib.ErrorI) {
	if e := s.db.View(func(txn *badger.Txn) error {
		item, er := txn.Get(key)
		if er != nil {
			if errors.Is(er, badger.ErrKeyNotFound) {
				return nil
			}
			return er
		}
		value, er = item.ValueCopy(nil)
		return er
	}); e != nil {
		return nil, ErrStoreGet(e)
	}
	return
}

// Set() sets the value bytes referenced by the key
func (s *Store) Set(key, value []byte) lib.ErrorI {
	if e := s.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) }); e != nil {
		return ErrStoreSet(e)
	}
	return nil
}

// Delete() removes the value referenced by the key; no-op if missing
func (s *Store) Delete(key []byte) lib.ErrorI {
	if e := s.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) }); e != nil {
		return ErrStoreDelete(e)
	}
	return nil
}

// writeBatch() applies a set of buffered operations in a single badger transaction
func (s *Store) writeBatch(keys []string, ops map[string]op) lib.ErrorI {
	if e := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			var er error
			if v := ops[k]; v.delete {
				er = txn.Delete([]byte(k))
			} else {
				er = txn.Set([]byte(k), v.value)
			}
			if er != nil {
				return er
			}
		}
		return nil
	}); e != nil {
		return ErrCommitDB(e)
	}
	return nil
}

// Iterator() returns an iterator over every key with the prefix in lexicographical order
// CONTRACT: the caller must Close() the iterator
func (s *Store) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	it.Rewind()
	return &Iterator{txn: txn, it: it, prefix: prefix, log: s.log}, nil
}

// Close() gracefully stops the database
func (s *Store) Close() lib.ErrorI {
	if err := s.db.Close(); err != nil {
		return ErrCloseDB(err)
	}
	return nil
}

var _ lib.IteratorI = &Iterator{} // enforce the Iterator interface

// Iterator wraps a badger iterator and the read only transaction it lives in
type Iterator struct {
	txn    *badger.Txn
	it     *badger.Iterator
	prefix []byte
	log    lib.LoggerI
}

// Valid() if the item the iterator is pointing at is valid
func (i *Iterator) Valid() bool { return i.it.ValidForPrefix(i.prefix) }

// Next() moves to the next item
func (i *Iterator) Next() { i.it.Next() }

// Key() retrieves a copy of the current key
func (i *Iterator) Key() []byte { return i.it.Item().KeyCopy(nil) }

// Value() retrieves a copy of the current value
func (i *Iterator) Value() []byte {
	v, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		i.log.Errorf("iterator value copy failed with err: %s", err.Error())
	}
	return v
}

// Close() releases the iterator and its transaction
func (i *Iterator) Close() {
	i.it.Close()
	i.txn.Discard()
}

// badgerLogger adapts the project logger to the badger.Logger interface
// badger's info output is noisy so it is demoted to debug
type badgerLogger struct{ log lib.LoggerI }

func (l badgerLogger) format(format string, args ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

func (l badgerLogger) Errorf(format string, args ...interface{}) { l.log.Error(l.format(format, args...)) }

func (l badgerLogger) Warningf(format string, args ...interface{}) { l.log.Warn(l.format(format, args...)) }

func (l badgerLogger) Infof(format string, args ...interface{}) { l.log.Debug(l.format(format, args...)) }

func (l badgerLogger) Debugf(format string, args ...interface{}) { l.log.Debug(l.format(format, args...)) }

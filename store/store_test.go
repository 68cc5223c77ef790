package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/canopy-network/smtkv/lib"
	"github.com/stretchr/testify/require"
)

func TestStoreSetGetDelete(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	key, val := []byte("key"), []byte("val")
	require.NoError(t, store.Set(key, val))
	gotVal, err := store.Get(key)
	require.NoError(t, err)
	require.Equal(t, val, gotVal, fmt.Sprintf("wanted %s got %s", string(val), string(gotVal)))
	require.NoError(t, store.Delete(key))
	gotVal, err = store.Get(key)
	require.NoError(t, err)
	require.Nil(t, gotVal, fmt.Sprintf("%s should be deleted", string(val)))
	// deleting a missing key is a no-op
	require.NoError(t, store.Delete([]byte("missing")))
}

func TestStoreGetMissing(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	got, err := store.Get([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestIteratorPrefixed(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	prefix := "test/"
	prefix2 := "test2/"
	bulkSetKV(t, store, prefix, "c", "a", "b")
	bulkSetKV(t, store, prefix2, "e", "d", "c")
	it, err := store.Iterator([]byte(prefix))
	require.NoError(t, err)
	validateIterators(t, []string{"test/a", "test/b", "test/c"}, it)
	it.Close()
	it2, err := store.Iterator([]byte(prefix2))
	require.NoError(t, err)
	validateIterators(t, []string{"test2/c", "test2/d", "test2/e"}, it2)
	it2.Close()
	it3, err := store.Iterator(nil)
	require.NoError(t, err)
	validateIterators(t, []string{"test/a", "test/b", "test/c", "test2/c", "test2/d", "test2/e"}, it3)
	it3.Close()
}

func TestIteratorValues(t *testing.T) {
	store, cleanup := testStore(t)
	defer cleanup()
	bulkSetKV(t, store, "v/", "x", "y")
	it, err := store.Iterator([]byte("v/"))
	require.NoError(t, err)
	defer it.Close()
	var values []string
	for ; it.Valid(); it.Next() {
		values = append(values, string(it.Value()))
	}
	require.Equal(t, []string{"x", "y"}, values)
}

func TestStoreOnDisk(t *testing.T) {
	config := lib.DefaultStoreConfig()
	config.DataDirPath = t.TempDir()
	store, err := New(config, lib.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, store.Set([]byte("persisted"), []byte("value")))
	require.NoError(t, store.Close())
	// reopen the same directory
	store, err = NewStore(config, filepath.Join(config.DataDirPath, config.DBName), lib.NewNullLogger())
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get([]byte("persisted"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestStoreOnDiskLocked(t *testing.T) {
	config := lib.DefaultStoreConfig()
	config.DataDirPath = t.TempDir()
	first, err := New(config, lib.NewNullLogger())
	require.NoError(t, err)
	// release the directory lock while the second open is retrying
	released := make(chan struct{})
	go func() {
		defer close(released)
		time.Sleep(200 * time.Millisecond)
		first.Close()
	}()
	second, err := New(config, lib.NewNullLogger())
	<-released
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestStoreInvalidConfig(t *testing.T) {
	config := lib.InMemoryStoreConfig()
	config.MemTableSize = "not a size"
	_, err := New(config, lib.NewNullLogger())
	require.Error(t, err)
	require.Equal(t, lib.CodeParseSize, err.Code())
}

func TestStoreMemTableSize(t *testing.T) {
	tests := []struct {
		name         string
		detail       string
		memTableSize string
		code         lib.ErrorCode
	}{
		{
			name:         "smallest accepted",
			detail:       "the minimum mem table opens and takes writes",
			memTableSize: "8MB",
		},
		{
			name:         "in memory default",
			detail:       "the configuration used by ephemeral generators opens",
			memTableSize: lib.InMemoryStoreConfig().MemTableSize,
		},
		{
			name:         "too small",
			detail:       "a mem table below the minimum is a config error, not a badger error",
			memTableSize: "4MB",
			code:         lib.CodeMemTableSize,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := lib.InMemoryStoreConfig()
			config.MemTableSize = test.memTableSize
			s, err := New(config, lib.NewNullLogger())
			if test.code != 0 {
				require.Error(t, err, test.detail)
				require.Equal(t, test.code, err.Code(), test.detail)
				return
			}
			require.NoError(t, err, test.detail)
			defer s.Close()
			require.NoError(t, s.Set([]byte("a"), []byte("b")))
			got, err := s.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("b"), got)
		})
	}
}

func testStore(t *testing.T) (*Store, func()) {
	store, err := NewStoreInMemory(lib.InMemoryStoreConfig(), lib.NewNullLogger())
	require.NoError(t, err)
	return store, func() { store.Close() }
}

func validateIterators(t *testing.T, expectedKeys []string, iterators ...lib.IteratorI) {
	for _, it := range iterators {
		i := 0
		for ; it.Valid(); func() { i++; it.Next() }() {
			require.Less(t, i, len(expectedKeys), "too many iterations")
			got, wanted := string(it.Key()), expectedKeys[i]
			require.Equal(t, wanted, got, fmt.Sprintf("wanted %s got %s", wanted, got))
		}
		require.Equal(t, len(expectedKeys), i)
	}
}

func bulkSetKV(t *testing.T, store lib.WStoreI, prefix string, keyValue ...string) {
	for _, kv := range keyValue {
		require.NoError(t, store.Set([]byte(prefix+kv), []byte(kv)))
	}
}

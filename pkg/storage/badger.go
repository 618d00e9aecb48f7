// BadgerDriver provides persistent disk-based storage using BadgerDB,
// the engine's sole on-disk StorageDriver. BadgerDB does not have a native
// column-family concept, so trees are multiplexed over one badger.DB by
// prefixing every key with an 8-byte tree id computed from the tree name;
// this mirrors the label/outgoing/incoming key-prefix scheme the in-process
// Node/Edge store used, generalized from five fixed prefixes to an open set
// of named trees.
package storage

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// BadgerOptions configures the BadgerDriver.
type BadgerOptions struct {
	// DataDir is the directory for storing data files. Required unless
	// InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode. Useful for testing.
	InMemory bool

	// SyncWrites forces fsync after each write. Slower but more durable;
	// OpenManager leaves it off (the WAL is a separate file that fsyncs
	// each append itself).
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. A nil Logger silences it.
	Logger badger.Logger
}

// BadgerDriver is the persistent StorageDriver backing an on-disk database
// directory.
//
// Example:
//
//	driver, err := storage.NewBadgerDriver(storage.BadgerOptions{DataDir: "./data/mydb"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer driver.Close()
//
//	nodes, _ := driver.OpenTree("nodes")
//	nodes.Insert([]byte("alice"), payload)
type BadgerDriver struct {
	db *badger.DB

	mu    sync.RWMutex
	trees map[string]*badgerTree
}

// NewBadgerDriver opens (or creates) a Badger-backed database directory.
func NewBadgerDriver(opts BadgerOptions) (*BadgerDriver, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	// Low-memory-friendly defaults, suitable for an embedded single-process
	// deployment rather than a dedicated server.
	badgerOpts = badgerOpts.
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithValueThreshold(1024).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger: %w", err)
	}

	return &BadgerDriver{
		db:    db,
		trees: make(map[string]*badgerTree),
	}, nil
}

// treePrefix derives a stable 8-byte tree id from its name via xxhash, so
// distinct tree names never collide within the shared keyspace short of a
// hash collision, and the prefix never needs a catalog lookup to compute.
func treePrefix(name string) []byte {
	h := xxhash.Sum64String(name)
	prefix := make([]byte, 8)
	for i := 0; i < 8; i++ {
		prefix[i] = byte(h >> (8 * (7 - i)))
	}
	return prefix
}

func (d *BadgerDriver) OpenTree(name string) (StorageTree, error) {
	return d.openTree(name, IndexTreeOptions{})
}

func (d *BadgerDriver) OpenIndexTree(name string, opts IndexTreeOptions) (StorageTree, error) {
	return d.openTree(name, opts)
}

func (d *BadgerDriver) openTree(name string, opts IndexTreeOptions) (*badgerTree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil, ErrClosed
	}
	t, ok := d.trees[name]
	if !ok {
		t = &badgerTree{
			db:     d.db,
			name:   name,
			prefix: treePrefix(name),
			opts:   opts,
		}
		d.trees[name] = t
	}
	return t, nil
}

func (d *BadgerDriver) ListTrees() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.trees))
	for name := range d.trees {
		names = append(names, name)
	}
	return names
}

func (d *BadgerDriver) DropTree(name string) error {
	d.mu.Lock()
	t, ok := d.trees[name]
	delete(d.trees, name)
	d.mu.Unlock()
	if !ok {
		return nil
	}
	return d.db.DropPrefix(t.prefix)
}

func (d *BadgerDriver) FlushAll() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, t := range d.trees {
		if err := t.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (d *BadgerDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// badgerTree is one named keyspace within the shared badger.DB, scoped by
// a prefix computed from its name.
type badgerTree struct {
	db     *badger.DB
	name   string
	prefix []byte
	opts   IndexTreeOptions
}

func (t *badgerTree) key(k []byte) []byte {
	full := make([]byte, 0, len(t.prefix)+len(k))
	full = append(full, t.prefix...)
	full = append(full, k...)
	return full
}

func (t *badgerTree) Get(key []byte) ([]byte, error) {
	var out []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(t.key(key))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	return out, err
}

func (t *badgerTree) Insert(key, value []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(t.key(key), value)
	})
}

func (t *badgerTree) Remove(key []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(t.key(key))
	})
}

func (t *badgerTree) ContainsKey(key []byte) (bool, error) {
	found := false
	err := t.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(t.key(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (t *badgerTree) BatchGet(keys [][]byte) ([][]byte, error) {
	out := make([][]byte, len(keys))
	err := t.db.View(func(txn *badger.Txn) error {
		for i, k := range keys {
			item, err := txn.Get(t.key(k))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				out[i] = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

func (t *badgerTree) BatchInsert(pairs []KV) error {
	wb := t.db.NewWriteBatch()
	defer wb.Cancel()
	for _, kv := range pairs {
		if err := wb.Set(t.key(kv.Key), kv.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (t *badgerTree) BatchRemove(keys [][]byte) error {
	wb := t.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(t.key(k)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (t *badgerTree) Iter(fn func(key, value []byte) bool) error {
	return t.ScanPrefix(nil, fn)
}

func (t *badgerTree) ScanPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	fullPrefix := t.key(prefix)
	return t.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)[len(t.prefix):]
			var cont bool
			if err := item.Value(func(val []byte) error {
				cont = fn(key, val)
				return nil
			}); err != nil {
				return err
			}
			if !cont {
				break
			}
		}
		return nil
	})
}

func (t *badgerTree) Clear() error {
	return t.db.DropPrefix(t.prefix)
}

func (t *badgerTree) IsEmpty() (bool, error) {
	empty := true
	err := t.ScanPrefix(nil, func(_, _ []byte) bool {
		empty = false
		return false
	})
	return empty, err
}

func (t *badgerTree) Flush() error {
	return t.db.Sync()
}

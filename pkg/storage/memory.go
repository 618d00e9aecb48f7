package storage

import (
	"sort"
	"sync"
)

// MemoryDriver is an in-memory StorageDriver. It is used for tests and for
// sessions that never need to survive process restart; it never touches
// disk and FlushAll/Flush are no-ops.
//
// Example:
//
//	driver := storage.NewMemoryDriver()
//	defer driver.Close()
//	nodes, _ := driver.OpenTree("nodes")
//	nodes.Insert([]byte("alice"), payload)
type MemoryDriver struct {
	mu     sync.RWMutex
	trees  map[string]*memoryTree
	closed bool
}

// NewMemoryDriver constructs an empty in-memory driver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{trees: make(map[string]*memoryTree)}
}

func (d *MemoryDriver) OpenTree(name string) (StorageTree, error) {
	return d.openTree(name)
}

func (d *MemoryDriver) OpenIndexTree(name string, _ IndexTreeOptions) (StorageTree, error) {
	return d.openTree(name)
}

func (d *MemoryDriver) openTree(name string) (*memoryTree, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	t, ok := d.trees[name]
	if !ok {
		t = &memoryTree{data: make(map[string][]byte)}
		d.trees[name] = t
	}
	return t, nil
}

func (d *MemoryDriver) ListTrees() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.trees))
	for name := range d.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *MemoryDriver) DropTree(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	delete(d.trees, name)
	return nil
}

func (d *MemoryDriver) FlushAll() error { return nil }

func (d *MemoryDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.trees = nil
	return nil
}

// memoryTree is a single in-memory keyspace guarded by its own lock so
// concurrent trees never contend with each other.
type memoryTree struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (t *memoryTree) Get(key []byte) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *memoryTree) Insert(key, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	t.data[string(key)] = v
	return nil
}

func (t *memoryTree) Remove(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.data, string(key))
	return nil
}

func (t *memoryTree) ContainsKey(key []byte) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.data[string(key)]
	return ok, nil
}

func (t *memoryTree) BatchGet(keys [][]byte) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := t.Get(k)
		if err == nil {
			out[i] = v
		}
	}
	return out, nil
}

func (t *memoryTree) BatchInsert(pairs []KV) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, kv := range pairs {
		v := make([]byte, len(kv.Value))
		copy(v, kv.Value)
		t.data[string(kv.Key)] = v
	}
	return nil
}

func (t *memoryTree) BatchRemove(keys [][]byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.data, string(k))
	}
	return nil
}

func (t *memoryTree) Iter(fn func(key, value []byte) bool) error {
	return t.ScanPrefix(nil, fn)
}

func (t *memoryTree) ScanPrefix(prefix []byte, fn func(key, value []byte) bool) error {
	t.mu.RLock()
	keys := make([]string, 0, len(t.data))
	for k := range t.data {
		if prefix == nil || hasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	pairs := make([]KV, len(keys))
	for i, k := range keys {
		pairs[i] = KV{Key: []byte(k), Value: t.data[k]}
	}
	t.mu.RUnlock()

	for _, kv := range pairs {
		if !fn(kv.Key, kv.Value) {
			break
		}
	}
	return nil
}

func (t *memoryTree) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = make(map[string][]byte)
	return nil
}

func (t *memoryTree) IsEmpty() (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.data) == 0, nil
}

func (t *memoryTree) Flush() error { return nil }

package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// StorageManager selects a driver, opens the trees a graph needs, and
// materializes a GraphCache on demand. One StorageManager corresponds to
// one database directory.
//
// Example:
//
//	mgr, err := storage.OpenManager(storage.DriverBadger, "/var/lib/mydb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//	cache, err := mgr.LoadGraph("/schema/graph")
type StorageManager struct {
	kind   DriverKind
	root   string
	driver StorageDriver
}

// OpenManager opens path with the given driver kind, creating it if absent.
func OpenManager(kind DriverKind, path string) (*StorageManager, error) {
	var driver StorageDriver
	switch kind {
	case DriverMemory:
		driver = NewMemoryDriver()
	case DriverBadger:
		d, err := NewBadgerDriver(BadgerOptions{DataDir: filepath.Join(path, "graphs")})
		if err != nil {
			return nil, err
		}
		driver = d
	default:
		return nil, fmt.Errorf("storage: unknown driver kind %v", kind)
	}
	return &StorageManager{kind: kind, root: path, driver: driver}, nil
}

// Driver returns the underlying StorageDriver, for callers (the catalog)
// that need their own named trees.
func (m *StorageManager) Driver() StorageDriver { return m.driver }

func graphTreeNames(path string) (nodes, edges string) {
	return "nodes:" + path, "edges:" + path
}

// persistedNode/persistedEdge are the JSON wire shapes written to the nodes
// and edges trees; Value round-trips through an explicit Kind tag because
// encoding/json cannot discriminate a tagged union on its own.
type persistedValue struct {
	Kind   ValueKind        `json:"k"`
	Bool   bool             `json:"b,omitempty"`
	Num    float64          `json:"n,omitempty"`
	Str    string           `json:"s,omitempty"`
	Vector []float32        `json:"v,omitempty"`
	List   []persistedValue `json:"l,omitempty"`
}

func toPersisted(v Value) persistedValue {
	pv := persistedValue{Kind: v.Kind, Bool: v.Bool, Num: v.Num, Str: v.Str, Vector: v.Vector}
	for _, item := range v.List {
		pv.List = append(pv.List, toPersisted(item))
	}
	return pv
}

func fromPersisted(pv persistedValue) Value {
	v := Value{Kind: pv.Kind, Bool: pv.Bool, Num: pv.Num, Str: pv.Str, Vector: pv.Vector}
	for _, item := range pv.List {
		v.List = append(v.List, fromPersisted(item))
	}
	return v
}

func persistedProps(props map[string]Value) map[string]persistedValue {
	out := make(map[string]persistedValue, len(props))
	for k, v := range props {
		out[k] = toPersisted(v)
	}
	return out
}

func restoreProps(props map[string]persistedValue) map[string]Value {
	out := make(map[string]Value, len(props))
	for k, v := range props {
		out[k] = fromPersisted(v)
	}
	return out
}

type wireNode struct {
	ID         NodeID                    `json:"id"`
	Labels     []string                  `json:"labels"`
	Properties map[string]persistedValue `json:"properties"`
}

type wireEdge struct {
	ID         EdgeID                    `json:"id"`
	FromNode   NodeID                    `json:"from"`
	ToNode     NodeID                    `json:"to"`
	Label      string                    `json:"label"`
	Properties map[string]persistedValue `json:"properties"`
}

func encodeNode(n *Node) ([]byte, error) {
	return json.Marshal(wireNode{ID: n.ID, Labels: n.Labels, Properties: persistedProps(n.Properties)})
}

func decodeNode(data []byte) (*Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &Node{ID: w.ID, Labels: w.Labels, Properties: restoreProps(w.Properties)}, nil
}

func encodeEdge(e *Edge) ([]byte, error) {
	return json.Marshal(wireEdge{ID: e.ID, FromNode: e.FromNode, ToNode: e.ToNode, Label: e.Label, Properties: persistedProps(e.Properties)})
}

func decodeEdge(data []byte) (*Edge, error) {
	var w wireEdge
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &Edge{ID: w.ID, FromNode: w.FromNode, ToNode: w.ToNode, Label: w.Label, Properties: restoreProps(w.Properties)}, nil
}

// LoadGraph opens the nodes/edges trees for path and materializes a fresh
// GraphCache by scanning both in full. Call PersistNode/PersistEdge/
// RemoveNode/RemoveEdge to write mutations back; the cache itself is never
// durable on its own.
func (m *StorageManager) LoadGraph(path string) (*GraphCache, error) {
	nodesTreeName, edgesTreeName := graphTreeNames(path)
	nodesTree, err := m.driver.OpenTree(nodesTreeName)
	if err != nil {
		return nil, fmt.Errorf("storage: open nodes tree: %w", err)
	}
	edgesTree, err := m.driver.OpenTree(edgesTreeName)
	if err != nil {
		return nil, fmt.Errorf("storage: open edges tree: %w", err)
	}

	cache := NewGraphCache()
	var scanErr error
	_ = nodesTree.Iter(func(_, value []byte) bool {
		n, err := decodeNode(value)
		if err != nil {
			scanErr = fmt.Errorf("storage: decode node: %w", err)
			return false
		}
		cache.PutNode(n)
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	_ = edgesTree.Iter(func(_, value []byte) bool {
		e, err := decodeEdge(value)
		if err != nil {
			scanErr = fmt.Errorf("storage: decode edge: %w", err)
			return false
		}
		if err := cache.PutEdge(e); err != nil {
			scanErr = err
			return false
		}
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return cache, nil
}

// PersistNode writes a single node's current state to its graph's nodes
// tree. pkg/engine calls it through txn.PersistPayload after the mutating
// GraphCache call and after the WAL record for the same operation has been
// appended; WAL recovery and rollback also call it.
func (m *StorageManager) PersistNode(graphPath string, n *Node) error {
	nodesTreeName, _ := graphTreeNames(graphPath)
	tree, err := m.driver.OpenTree(nodesTreeName)
	if err != nil {
		return err
	}
	data, err := encodeNode(n)
	if err != nil {
		return err
	}
	return tree.Insert([]byte(n.ID), data)
}

// RemoveNode deletes a node's persisted record.
func (m *StorageManager) RemoveNode(graphPath string, id NodeID) error {
	nodesTreeName, _ := graphTreeNames(graphPath)
	tree, err := m.driver.OpenTree(nodesTreeName)
	if err != nil {
		return err
	}
	return tree.Remove([]byte(id))
}

// PersistEdge writes a single edge's current state to its graph's edges
// tree.
func (m *StorageManager) PersistEdge(graphPath string, e *Edge) error {
	_, edgesTreeName := graphTreeNames(graphPath)
	tree, err := m.driver.OpenTree(edgesTreeName)
	if err != nil {
		return err
	}
	data, err := encodeEdge(e)
	if err != nil {
		return err
	}
	return tree.Insert([]byte(e.ID), data)
}

// RemoveEdge deletes an edge's persisted record.
func (m *StorageManager) RemoveEdge(graphPath string, id EdgeID) error {
	_, edgesTreeName := graphTreeNames(graphPath)
	tree, err := m.driver.OpenTree(edgesTreeName)
	if err != nil {
		return err
	}
	return tree.Remove([]byte(id))
}

// TruncateGraph removes every node and edge belonging to path.
func (m *StorageManager) TruncateGraph(path string) error {
	nodesTreeName, edgesTreeName := graphTreeNames(path)
	if err := m.driver.DropTree(nodesTreeName); err != nil {
		return err
	}
	return m.driver.DropTree(edgesTreeName)
}

// Close flushes and closes the underlying driver.
func (m *StorageManager) Close() error {
	if err := m.driver.FlushAll(); err != nil {
		return err
	}
	return m.driver.Close()
}

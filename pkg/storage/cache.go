package storage

import (
	"fmt"
	"sync"
)

// GraphCache is the in-memory materialization of one graph: every node and
// edge, plus label and endpoint indexes, used directly by the executor.
//
// Cyclic references (a node and its incident edges) never use
// pointer-to-pointer links — entities live in an id-keyed map, adjacency is
// an id-to-id index, and removals update both sides. This keeps the cache
// free of reference cycles and trivially serializable.
//
// Invariants maintained by every mutating method:
//   - every label in a node's Labels appears in byLabel[label] mapped to
//     that node's id, and nowhere else;
//   - every edge's FromNode/ToNode resolves to an existing node;
//   - byOutgoing[n] and byIncoming[n] contain exactly the edge ids incident
//     to n in that direction.
type GraphCache struct {
	mu sync.RWMutex

	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge

	byLabel    map[string]map[NodeID]struct{}
	byOutgoing map[NodeID]map[EdgeID]struct{}
	byIncoming map[NodeID]map[EdgeID]struct{}
}

// NewGraphCache returns an empty graph cache.
func NewGraphCache() *GraphCache {
	return &GraphCache{
		nodes:      make(map[NodeID]*Node),
		edges:      make(map[EdgeID]*Edge),
		byLabel:    make(map[string]map[NodeID]struct{}),
		byOutgoing: make(map[NodeID]map[EdgeID]struct{}),
		byIncoming: make(map[NodeID]map[EdgeID]struct{}),
	}
}

// ErrNodeExists reports a create-only insert of an id that is already
// present. GraphCache itself never returns it: PutNode always replaces.
var ErrNodeExists = fmt.Errorf("storage: node already exists")

// ErrEdgeExists is the edge analogue of ErrNodeExists.
var ErrEdgeExists = fmt.Errorf("storage: edge already exists")

// ErrHasIncidentEdges is returned by DeleteNode when the node still has
// incident edges and the caller did not request DETACH semantics.
var ErrHasIncidentEdges = fmt.Errorf("storage: node has incident edges")

// ErrDanglingEdge is returned by PutEdge when an endpoint does not exist.
var ErrDanglingEdge = fmt.Errorf("storage: edge endpoint does not exist")

func (g *GraphCache) RLock()   { g.mu.RLock() }
func (g *GraphCache) RUnlock() { g.mu.RUnlock() }
func (g *GraphCache) Lock()    { g.mu.Lock() }
func (g *GraphCache) Unlock()  { g.mu.Unlock() }

// GetNode returns the node with id, or nil if absent. Caller must hold at
// least RLock.
func (g *GraphCache) GetNode(id NodeID) *Node {
	return g.nodes[id]
}

// GetEdge returns the edge with id, or nil if absent. Caller must hold at
// least RLock.
func (g *GraphCache) GetEdge(id EdgeID) *Edge {
	return g.edges[id]
}

// NodesByLabel returns every node carrying label, in unspecified order.
// Caller must hold at least RLock.
func (g *GraphCache) NodesByLabel(label string) []*Node {
	ids := g.byLabel[label]
	out := make([]*Node, 0, len(ids))
	for id := range ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// AllNodes returns every node in the cache. Caller must hold at least RLock.
func (g *GraphCache) AllNodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// OutgoingEdges returns edges whose FromNode is id. Caller must hold at
// least RLock.
func (g *GraphCache) OutgoingEdges(id NodeID) []*Edge {
	ids := g.byOutgoing[id]
	out := make([]*Edge, 0, len(ids))
	for eid := range ids {
		out = append(out, g.edges[eid])
	}
	return out
}

// IncomingEdges returns edges whose ToNode is id. Caller must hold at least
// RLock.
func (g *GraphCache) IncomingEdges(id NodeID) []*Edge {
	ids := g.byIncoming[id]
	out := make([]*Edge, 0, len(ids))
	for eid := range ids {
		out = append(out, g.edges[eid])
	}
	return out
}

// PutNode inserts or replaces a node, updating label indexes. Caller must
// hold Lock (exclusive).
func (g *GraphCache) PutNode(n *Node) {
	if old, ok := g.nodes[n.ID]; ok {
		for _, l := range old.Labels {
			delete(g.byLabel[l], n.ID)
		}
	}
	g.nodes[n.ID] = n
	for _, l := range n.Labels {
		if g.byLabel[l] == nil {
			g.byLabel[l] = make(map[NodeID]struct{})
		}
		g.byLabel[l][n.ID] = struct{}{}
	}
}

// DeleteNode removes a node. If detach is false and incident edges remain,
// it returns ErrHasIncidentEdges and makes no change. If detach is true,
// every incident edge is removed first. Caller must hold Lock (exclusive).
func (g *GraphCache) DeleteNode(id NodeID, detach bool) (removedEdges []*Edge, err error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, nil
	}
	incident := len(g.byOutgoing[id]) + len(g.byIncoming[id])
	if incident > 0 && !detach {
		return nil, ErrHasIncidentEdges
	}
	if detach {
		for eid := range g.byOutgoing[id] {
			removedEdges = append(removedEdges, g.edges[eid])
			g.removeEdgeUnlocked(eid)
		}
		for eid := range g.byIncoming[id] {
			removedEdges = append(removedEdges, g.edges[eid])
			g.removeEdgeUnlocked(eid)
		}
	}
	for _, l := range n.Labels {
		delete(g.byLabel[l], id)
	}
	delete(g.nodes, id)
	delete(g.byOutgoing, id)
	delete(g.byIncoming, id)
	return removedEdges, nil
}

// PutEdge inserts or replaces an edge. Both endpoints must already exist.
// Caller must hold Lock (exclusive).
func (g *GraphCache) PutEdge(e *Edge) error {
	if _, ok := g.nodes[e.FromNode]; !ok {
		return ErrDanglingEdge
	}
	if _, ok := g.nodes[e.ToNode]; !ok {
		return ErrDanglingEdge
	}
	if old, ok := g.edges[e.ID]; ok {
		g.unindexEdge(old)
	}
	g.edges[e.ID] = e
	g.indexEdge(e)
	return nil
}

// DeleteEdge removes an edge by id. Caller must hold Lock (exclusive).
func (g *GraphCache) DeleteEdge(id EdgeID) *Edge {
	e, ok := g.edges[id]
	if !ok {
		return nil
	}
	g.removeEdgeUnlocked(id)
	return e
}

func (g *GraphCache) removeEdgeUnlocked(id EdgeID) {
	e, ok := g.edges[id]
	if !ok {
		return
	}
	g.unindexEdge(e)
	delete(g.edges, id)
}

func (g *GraphCache) indexEdge(e *Edge) {
	if g.byOutgoing[e.FromNode] == nil {
		g.byOutgoing[e.FromNode] = make(map[EdgeID]struct{})
	}
	g.byOutgoing[e.FromNode][e.ID] = struct{}{}
	if g.byIncoming[e.ToNode] == nil {
		g.byIncoming[e.ToNode] = make(map[EdgeID]struct{})
	}
	g.byIncoming[e.ToNode][e.ID] = struct{}{}
}

func (g *GraphCache) unindexEdge(e *Edge) {
	delete(g.byOutgoing[e.FromNode], e.ID)
	delete(g.byIncoming[e.ToNode], e.ID)
}

// NodeCount and EdgeCount report cache size. Caller must hold at least
// RLock.
func (g *GraphCache) NodeCount() int { return len(g.nodes) }
func (g *GraphCache) EdgeCount() int { return len(g.edges) }

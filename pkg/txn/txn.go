// Package txn implements the transaction engine: operation recording, the
// per-session undo log, the write-ahead log, the clean-shutdown marker, and
// startup recovery.
//
// Feature flag: none — the WAL is always on. Durability is not optional in
// an embedded database the way it might be behind a cache-warming flag in a
// server process.
package txn

import "github.com/orneryd/gqlgraph/pkg/storage"

// OperationType tags why an UndoOperation exists.
type OperationType string

const (
	OpRead   OperationType = "read"
	OpSet    OperationType = "set"
	OpDelete OperationType = "delete"
	OpInsert OperationType = "insert"
)

// UndoOperation is one reversible step recorded while a transaction is
// active. Every variant carries GraphPath so recovery can locate the right
// GraphCache without consulting the statement that produced it.
//
// Cyclic references never appear here: a DeleteNode carries a snapshot of
// the deleted node's value, not a live pointer back into a GraphCache that
// may no longer contain it.
type UndoOperation struct {
	Kind      UndoKind
	GraphPath string

	// NodeID/EdgeID identify the entity an Insert*/Update* operation
	// targets; the entity's identity never changes across an update, so
	// one field serves both "which node was inserted" and "which node was
	// updated".
	NodeID storage.NodeID
	EdgeID storage.EdgeID

	DeletedNode *storage.Node
	DeletedEdge *storage.Edge

	OldProperties map[string]storage.Value
	OldLabels     []string

	Batch []UndoOperation
}

// UndoKind discriminates the UndoOperation variant.
type UndoKind int

const (
	UndoNone UndoKind = iota
	UndoInsertNode
	UndoInsertEdge
	UndoDeleteNode
	UndoDeleteEdge
	UndoUpdateNode
	UndoUpdateEdge
	UndoBatch
)

// NoOp is the sentinel returned by a data-modification executor whose
// statement touched zero bindings.
var NoOp = UndoOperation{Kind: UndoNone}

// Collapse returns ops[0] directly when there is exactly one operation,
// NoOp when there are none, and a Batch wrapping all of them otherwise —
// the rule a DataStatementExecutor applies to the undo list it accumulated
// for one statement.
func Collapse(graphPath string, ops []UndoOperation) UndoOperation {
	switch len(ops) {
	case 0:
		return NoOp
	case 1:
		return ops[0]
	default:
		return UndoOperation{Kind: UndoBatch, GraphPath: graphPath, Batch: ops}
	}
}

// Apply reverses op against cache, restoring the state it captured. Batch
// operations are reversed in last-in-first-out order, matching how a
// ROLLBACK replays the undo log.
func Apply(cache *storage.GraphCache, op UndoOperation) error {
	switch op.Kind {
	case UndoNone:
		return nil
	case UndoInsertNode:
		_, err := cache.DeleteNode(op.NodeID, true)
		return err
	case UndoInsertEdge:
		cache.DeleteEdge(op.EdgeID)
		return nil
	case UndoDeleteNode:
		cache.PutNode(op.DeletedNode)
		return nil
	case UndoDeleteEdge:
		return cache.PutEdge(op.DeletedEdge)
	case UndoUpdateNode:
		n := cache.GetNode(op.NodeID)
		if n == nil {
			return nil
		}
		n.Properties = op.OldProperties
		n.Labels = op.OldLabels
		cache.PutNode(n)
		return nil
	case UndoUpdateEdge:
		e := cache.GetEdge(op.EdgeID)
		if e == nil {
			return nil
		}
		e.Properties = op.OldProperties
		cache.PutEdge(e)
		return nil
	case UndoBatch:
		for i := len(op.Batch) - 1; i >= 0; i-- {
			if err := Apply(cache, op.Batch[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// UpdateNodeOp records enough of a node's prior state to undo a SET/REMOVE.
func UpdateNodeOp(graphPath string, id storage.NodeID, oldProps map[string]storage.Value, oldLabels []string) UndoOperation {
	return UndoOperation{
		Kind: UndoUpdateNode, GraphPath: graphPath,
		NodeID: id, OldProperties: oldProps, OldLabels: oldLabels,
	}
}

// UpdateEdgeOp is the edge analogue of UpdateNodeOp.
func UpdateEdgeOp(graphPath string, id storage.EdgeID, oldProps map[string]storage.Value) UndoOperation {
	return UndoOperation{Kind: UndoUpdateEdge, GraphPath: graphPath, EdgeID: id, OldProperties: oldProps}
}

// InsertNodeOp records that a node with the given id was just inserted.
func InsertNodeOp(graphPath string, id storage.NodeID) UndoOperation {
	return UndoOperation{Kind: UndoInsertNode, GraphPath: graphPath, NodeID: id}
}

// InsertEdgeOp records that an edge with the given id was just inserted.
func InsertEdgeOp(graphPath string, id storage.EdgeID) UndoOperation {
	return UndoOperation{Kind: UndoInsertEdge, GraphPath: graphPath, EdgeID: id}
}

// DeleteNodeOp records the full prior value of a node just deleted.
func DeleteNodeOp(graphPath string, n *storage.Node) UndoOperation {
	return UndoOperation{Kind: UndoDeleteNode, GraphPath: graphPath, DeletedNode: n}
}

// DeleteEdgeOp records the full prior value of an edge just deleted.
func DeleteEdgeOp(graphPath string, e *storage.Edge) UndoOperation {
	return UndoOperation{Kind: UndoDeleteEdge, GraphPath: graphPath, DeletedEdge: e}
}

// TxnState is the per-session transaction state machine.
type TxnState int

const (
	Idle TxnState = iota
	Active
)

// Transaction holds the undo log accumulated since START TRANSACTION (or
// since the implicit transaction around a single statement began).
type Transaction struct {
	ID        string
	StartedAt int64 // unix nanos; stamped by the caller, never time.Now() here
	UndoLog   []UndoOperation
	Explicit  bool
}

// Record appends op to the transaction's undo log.
func (t *Transaction) Record(op UndoOperation) {
	if op.Kind == UndoNone {
		return
	}
	t.UndoLog = append(t.UndoLog, op)
}

package txn

import "github.com/orneryd/gqlgraph/pkg/storage"

// ForwardPayloads derives the WAL Stmt payload(s) that redo op's forward
// effect — the mutation that made op's undo necessary — reading current
// entity state from cache. The engine calls this right after a
// DataStatementExecutor call returns its combined UndoOperation, so the
// same mutation gets a durable WAL record and a StorageManager write
// without DataStatementExecutor itself knowing about either.
func ForwardPayloads(graphPath string, cache *storage.GraphCache, op UndoOperation) []StmtPayload {
	switch op.Kind {
	case UndoNone:
		return nil
	case UndoInsertNode, UndoUpdateNode:
		n := cache.GetNode(op.NodeID)
		if n == nil {
			return nil
		}
		return []StmtPayload{{GraphPath: graphPath, Action: ActionPutNode, Node: n}}
	case UndoInsertEdge, UndoUpdateEdge:
		e := cache.GetEdge(op.EdgeID)
		if e == nil {
			return nil
		}
		return []StmtPayload{{GraphPath: graphPath, Action: ActionPutEdge, Edge: e}}
	case UndoDeleteNode:
		if op.DeletedNode == nil {
			return nil
		}
		return []StmtPayload{{GraphPath: graphPath, Action: ActionDeleteNode, NodeID: op.DeletedNode.ID}}
	case UndoDeleteEdge:
		if op.DeletedEdge == nil {
			return nil
		}
		return []StmtPayload{{GraphPath: graphPath, Action: ActionDeleteEdge, EdgeID: op.DeletedEdge.ID}}
	case UndoBatch:
		var out []StmtPayload
		for _, sub := range op.Batch {
			out = append(out, ForwardPayloads(graphPath, cache, sub)...)
		}
		return out
	}
	return nil
}

// PersistPayload writes one StmtPayload's forward effect to mgr, the same
// half of replayOne's work recovery does — split out so both recovery and
// ordinary commit/rollback persistence share one path to the
// StorageManager.
func PersistPayload(mgr *storage.StorageManager, p StmtPayload) error {
	if mgr == nil {
		return nil
	}
	switch p.Action {
	case ActionPutNode:
		return mgr.PersistNode(p.GraphPath, p.Node)
	case ActionDeleteNode:
		return mgr.RemoveNode(p.GraphPath, p.NodeID)
	case ActionPutEdge:
		return mgr.PersistEdge(p.GraphPath, p.Edge)
	case ActionDeleteEdge:
		return mgr.RemoveEdge(p.GraphPath, p.EdgeID)
	}
	return nil
}

// ApplyAndPersist reverses op against cache (as Apply does) and then
// writes the now-reverted entity state to mgr, so ROLLBACK and
// mid-write-cancellation undo are durable the same way a forward mutation
// is: cache and storage move together, never one without the other.
func ApplyAndPersist(mgr *storage.StorageManager, cache *storage.GraphCache, graphPath string, op UndoOperation) error {
	switch op.Kind {
	case UndoNone:
		return nil
	case UndoInsertNode:
		if err := Apply(cache, op); err != nil {
			return err
		}
		return persistIfNotNil(mgr, graphPath, ActionDeleteNode, op.NodeID, "")
	case UndoInsertEdge:
		if err := Apply(cache, op); err != nil {
			return err
		}
		return persistIfNotNil(mgr, graphPath, ActionDeleteEdge, "", op.EdgeID)
	case UndoDeleteNode:
		if err := Apply(cache, op); err != nil {
			return err
		}
		if mgr == nil {
			return nil
		}
		return mgr.PersistNode(graphPath, op.DeletedNode)
	case UndoDeleteEdge:
		if err := Apply(cache, op); err != nil {
			return err
		}
		if mgr == nil {
			return nil
		}
		return mgr.PersistEdge(graphPath, op.DeletedEdge)
	case UndoUpdateNode:
		if err := Apply(cache, op); err != nil {
			return err
		}
		if mgr == nil {
			return nil
		}
		if n := cache.GetNode(op.NodeID); n != nil {
			return mgr.PersistNode(graphPath, n)
		}
		return nil
	case UndoUpdateEdge:
		if err := Apply(cache, op); err != nil {
			return err
		}
		if mgr == nil {
			return nil
		}
		if e := cache.GetEdge(op.EdgeID); e != nil {
			return mgr.PersistEdge(graphPath, e)
		}
		return nil
	case UndoBatch:
		for i := len(op.Batch) - 1; i >= 0; i-- {
			if err := ApplyAndPersist(mgr, cache, graphPath, op.Batch[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func persistIfNotNil(mgr *storage.StorageManager, graphPath string, action StmtAction, nodeID storage.NodeID, edgeID storage.EdgeID) error {
	if mgr == nil {
		return nil
	}
	switch action {
	case ActionDeleteNode:
		return mgr.RemoveNode(graphPath, nodeID)
	case ActionDeleteEdge:
		return mgr.RemoveEdge(graphPath, edgeID)
	}
	return nil
}

// RollbackLog reverses every UndoOperation a transaction accumulated, last
// statement first (each statement's own Batch is already reverse-ordered
// internally), undoing both the GraphCache and the StorageManager.
func RollbackLog(mgr *storage.StorageManager, cache *storage.GraphCache, graphPath string, ops []UndoOperation) error {
	for i := len(ops) - 1; i >= 0; i-- {
		if err := ApplyAndPersist(mgr, cache, graphPath, ops[i]); err != nil {
			return err
		}
	}
	return nil
}

package txn

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/orneryd/gqlgraph/pkg/storage"
)

// StmtAction tags what a KindStmt frame's payload replays.
type StmtAction byte

const (
	ActionPutNode StmtAction = iota + 1
	ActionDeleteNode
	ActionPutEdge
	ActionDeleteEdge
)

// StmtPayload is the gob-encoded body of a KindStmt frame: enough to
// reapply one forward mutation to a GraphCache and its StorageManager
// during recovery, independent of the UndoOperation that reverses it.
type StmtPayload struct {
	GraphPath string
	Action    StmtAction
	Node      *storage.Node
	Edge      *storage.Edge
	NodeID    storage.NodeID
	EdgeID    storage.EdgeID
}

func EncodeStmt(p StmtPayload) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("txn: encode stmt payload: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeStmt(data []byte) (StmtPayload, error) {
	var p StmtPayload
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p)
	return p, err
}

// Recover replays a WAL file against a set of already-loaded GraphCaches,
// keyed by graph path, after a dirty shutdown. Only statements belonging to
// a BeginTxn...Commit span are applied; a span ending in Rollback, or never
// closed at all (the crash happened mid-transaction), is skipped, since
// its effects were never acknowledged to the caller.
//
// This mirrors the engine's broader rule that nothing left uncommitted
// survives a crash: WAL replay reconstructs exactly the post-commit state,
// never more.
func Recover(walPath string, caches map[string]*storage.GraphCache, mgr *storage.StorageManager) error {
	frames, err := ReadFrames(walPath)
	if err != nil {
		return fmt.Errorf("txn: read wal: %w", err)
	}

	var pending []StmtPayload
	inTxn := false

	flush := func(commit bool) error {
		if commit {
			for _, p := range pending {
				if err := replayOne(caches, mgr, p); err != nil {
					return err
				}
			}
		}
		pending = nil
		inTxn = false
		return nil
	}

	for _, f := range frames {
		switch f.Kind {
		case KindBeginTxn:
			pending = nil
			inTxn = true
		case KindStmt:
			p, err := DecodeStmt(f.Payload)
			if err != nil {
				// A corrupt individual statement record invalidates only
				// the transaction it belongs to, not prior committed work.
				inTxn = false
				pending = nil
				continue
			}
			if inTxn {
				pending = append(pending, p)
			}
		case KindCommit:
			if err := flush(true); err != nil {
				return err
			}
		case KindRollback:
			_ = flush(false)
		}
	}
	// A trailing BeginTxn/Stmt span with no Commit/Rollback frame means the
	// crash happened mid-transaction; leave it unapplied.
	return nil
}

func replayOne(caches map[string]*storage.GraphCache, mgr *storage.StorageManager, p StmtPayload) error {
	cache, ok := caches[p.GraphPath]
	if !ok {
		cache = storage.NewGraphCache()
		caches[p.GraphPath] = cache
	}
	cache.Lock()
	defer cache.Unlock()

	switch p.Action {
	case ActionPutNode:
		cache.PutNode(p.Node)
		if mgr != nil {
			return mgr.PersistNode(p.GraphPath, p.Node)
		}
	case ActionDeleteNode:
		if _, err := cache.DeleteNode(p.NodeID, true); err != nil {
			return err
		}
		if mgr != nil {
			return mgr.RemoveNode(p.GraphPath, p.NodeID)
		}
	case ActionPutEdge:
		if err := cache.PutEdge(p.Edge); err != nil {
			return err
		}
		if mgr != nil {
			return mgr.PersistEdge(p.GraphPath, p.Edge)
		}
	case ActionDeleteEdge:
		cache.DeleteEdge(p.EdgeID)
		if mgr != nil {
			return mgr.RemoveEdge(p.GraphPath, p.EdgeID)
		}
	}
	return nil
}

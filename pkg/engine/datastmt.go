package engine

import (
	"github.com/orneryd/gqlgraph/pkg/exec"
	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/session"
	"github.com/orneryd/gqlgraph/pkg/txn"
)

// runDataStatement executes one of the eight data-modification statement
// shapes against the session's current graph, then derives the durable WAL
// frames and StorageManager writes exec.ExecuteDataStatement never
// produces itself — see pkg/txn/forward.go's doc comment for why that
// split exists.
//
// Inside an explicit transaction (session.Active) the mutation is recorded
// into the session's undo log and into the WAL as a bare Stmt frame;
// BeginTxn/Commit/Rollback framing is left to runTransaction. Outside one,
// this function wraps the single statement in its own implicit
// BeginTxn/Commit pair, rolling the cache back (and writing a Rollback
// frame) if anything after the mutation itself fails.
func (co *Coordinator) runDataStatement(stmt gql.Statement, sess *session.Session) (*QueryResult, error) {
	if co.cfg.Database.ReadOnly {
		return nil, execError(ExecPermissionDenied, "database is open read-only")
	}

	graphPath := sess.CurrentGraph()
	if graphPath == "" {
		return nil, execError(ExecInvalidQuery, "no graph selected; run SESSION SET GRAPH <path> first")
	}
	gc, err := co.graph(graphPath)
	if err != nil {
		return nil, err
	}

	explicit := sess.TxnState() == session.Active
	if !explicit {
		if err := co.wal.Append(txn.KindBeginTxn, nil); err != nil {
			return nil, newError(CategoryStorage, err)
		}
	}

	// exec.ExecuteDataStatement takes gc's exclusive lock itself (and, for a
	// MATCH-qualified statement, a read lock first while planning the
	// prefix) — locking it again here would deadlock against
	// sync.RWMutex's non-reentrancy, so this function never wraps the call
	// below in a lock of its own.
	undoOp, affected, err := exec.ExecuteDataStatement(stmt, &exec.ModContext{
		Cache:     gc,
		Params:    sess.Parameters(),
		GraphPath: graphPath,
		Catalog:   co.catalog,
	})
	if err != nil {
		if !explicit {
			_ = co.wal.Append(txn.KindRollback, nil)
		}
		return nil, newError(CategoryExecution, err)
	}

	gc.RLock()
	payloads := txn.ForwardPayloads(graphPath, gc, undoOp)
	gc.RUnlock()

	persistErr := co.persistForward(graphPath, payloads)
	if persistErr != nil {
		gc.Lock()
		_ = txn.ApplyAndPersist(nil, gc, graphPath, undoOp)
		gc.Unlock()
		if !explicit {
			_ = co.wal.Append(txn.KindRollback, nil)
		}
		return nil, newError(CategoryStorage, persistErr)
	}

	co.syncTextIndexes(graphPath, payloads)

	if explicit {
		sess.Transaction().Record(undoOp)
	} else if err := co.wal.Append(txn.KindCommit, nil); err != nil {
		return nil, newError(CategoryStorage, err)
	}

	return &QueryResult{Status: StatusOK, RowsAffected: affected}, nil
}

// persistForward writes every forward payload to the WAL and the storage
// manager, in that order — the WAL frame durably records the intent before
// the slower key/value write happens, matching the ordering pkg/txn's
// Recover already assumes (a Stmt frame means the storage write was at
// least attempted).
func (co *Coordinator) persistForward(graphPath string, payloads []txn.StmtPayload) error {
	for _, p := range payloads {
		buf, err := txn.EncodeStmt(p)
		if err != nil {
			return err
		}
		if err := co.wal.Append(txn.KindStmt, buf); err != nil {
			return err
		}
		if err := txn.PersistPayload(co.storageMgr, p); err != nil {
			return err
		}
	}
	return nil
}

package engine

import (
	"time"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/session"
	"github.com/orneryd/gqlgraph/pkg/txn"
)

// runTransaction executes a START/COMMIT/ROLLBACK/SET TRANSACTION
// CHARACTERISTICS statement against the session's transaction state.
func (co *Coordinator) runTransaction(stmt *gql.TransactionStatement, sess *session.Session) (*QueryResult, error) {
	switch stmt.Kind {
	case gql.TxnStart:
		return co.txnStart(sess)
	case gql.TxnCommit:
		return co.txnCommit(sess)
	case gql.TxnRollback:
		return co.txnRollback(sess)
	case gql.TxnSetCharacteristics:
		return &QueryResult{Status: StatusOK}, nil
	}
	return nil, execError(ExecInvalidQuery, "unsupported transaction statement kind %v", stmt.Kind)
}

func (co *Coordinator) txnStart(sess *session.Session) (*QueryResult, error) {
	if sess.TxnState() == session.Active {
		return nil, execError(ExecConflict, "session already has an active transaction")
	}
	if err := co.wal.Append(txn.KindBeginTxn, nil); err != nil {
		return nil, newError(CategoryStorage, err)
	}
	if err := sess.Begin(newTxnID(), time.Now().UnixNano()); err != nil {
		return nil, newError(CategoryTransaction, err)
	}
	return &QueryResult{Status: StatusOK}, nil
}

func (co *Coordinator) txnCommit(sess *session.Session) (*QueryResult, error) {
	if sess.TxnState() != session.Active {
		return nil, execError(ExecConflict, "no active transaction to commit")
	}
	if err := sess.Commit(); err != nil {
		return nil, newError(CategoryTransaction, err)
	}
	if err := co.wal.Append(txn.KindCommit, nil); err != nil {
		return nil, newError(CategoryStorage, err)
	}
	return &QueryResult{Status: StatusOK}, nil
}

// txnRollback reverses every statement the transaction recorded, last
// first, against whichever graph each UndoOperation actually belongs to —
// a single explicit transaction can touch more than one graph, each
// operation already carrying its own GraphPath, so this can't delegate to
// pkg/txn's single-graph RollbackLog convenience.
func (co *Coordinator) txnRollback(sess *session.Session) (*QueryResult, error) {
	if sess.TxnState() != session.Active {
		return nil, execError(ExecConflict, "no active transaction to roll back")
	}
	ops, err := sess.Rollback()
	if err != nil {
		return nil, newError(CategoryTransaction, err)
	}

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		gc, err := co.graph(op.GraphPath)
		if err != nil {
			continue
		}
		gc.Lock()
		err = txn.ApplyAndPersist(co.storageMgr, gc, op.GraphPath, op)
		gc.Unlock()
		if err != nil {
			return nil, newError(CategoryTransaction, err)
		}
	}

	if err := co.wal.Append(txn.KindRollback, nil); err != nil {
		return nil, newError(CategoryStorage, err)
	}
	return &QueryResult{Status: StatusOK}, nil
}

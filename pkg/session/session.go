// Package session tracks per-connection state: which user is attached,
// which schema/graph is current, session parameters, and the transaction
// state machine layered on top of pkg/txn's undo log. It is the engine's
// analogue of a SQL connection object — cheap, short-lived, and isolated
// from every other session except through the catalog and graph locks it
// shares with them.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/orneryd/gqlgraph/pkg/txn"
)

// ID identifies a Session within a Manager. Opaque to callers.
type ID string

// Session is one client's connection state. A Session is not safe for
// concurrent use by multiple goroutines — statements within a session are
// strictly serial, matching the lock order the engine enforces above it
// (catalog -> session -> graph -> text-index -> storage).
type Session struct {
	mu sync.Mutex

	id        ID
	user      string
	schema    string
	graph     string
	params    map[string]storage.Value
	createdAt time.Time

	txnState TxnState
	txn      *txn.Transaction
}

// TxnState mirrors the session-visible half of the transaction state
// machine: Idle between statements (each statement runs in its own
// implicit transaction), Active once START TRANSACTION has opened an
// explicit one that spans multiple statements until COMMIT/ROLLBACK.
type TxnState int

const (
	Idle TxnState = iota
	Active
)

func (s TxnState) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

func newSession(id ID, user string) *Session {
	return &Session{
		id:        id,
		user:      user,
		params:    make(map[string]storage.Value),
		createdAt: time.Now(),
		txnState:  Idle,
	}
}

func (s *Session) ID() ID        { return s.id }
func (s *Session) User() string  { return s.user }

// CurrentSchema returns the session's current schema path, or "" if unset.
func (s *Session) CurrentSchema() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// CurrentGraph returns the session's current graph path, or "" if unset.
func (s *Session) CurrentGraph() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// SetSchema implements SESSION SET SCHEMA path.
func (s *Session) SetSchema(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = path
}

// SetGraph implements SESSION SET GRAPH path.
func (s *Session) SetGraph(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = path
}

// SetParameter implements SESSION SET PARAMETER name = value.
func (s *Session) SetParameter(name string, v storage.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[name] = v
}

// Parameter looks up a session parameter previously set with SetParameter,
// used by the executor to resolve $name references.
func (s *Session) Parameter(name string) (storage.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.params[name]
	return v, ok
}

// Parameters returns a copy of every session parameter currently set, for
// SESSION SHOW PARAMETER.
func (s *Session) Parameters() map[string]storage.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]storage.Value, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

// Reset clears the named target ("SCHEMA", "GRAPH", "PARAMETER", or "" for
// everything), implementing SESSION RESET.
func (s *Session) Reset(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch target {
	case "SCHEMA":
		s.schema = ""
	case "GRAPH":
		s.graph = ""
	case "PARAMETER":
		s.params = make(map[string]storage.Value)
	case "":
		s.schema = ""
		s.graph = ""
		s.params = make(map[string]storage.Value)
	}
}

// ErrAlreadyInTransaction is returned by Begin when a transaction is
// already open on this session.
var ErrAlreadyInTransaction = fmt.Errorf("session: transaction already active")

// ErrNoActiveTransaction is returned by Commit/Rollback when no
// explicit transaction is open.
var ErrNoActiveTransaction = fmt.Errorf("session: no active transaction")

// TxnState reports whether an explicit transaction is open.
func (s *Session) TxnState() TxnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txnState
}

// Begin opens an explicit transaction (START TRANSACTION), moving the
// session from Idle to Active. id should be generated by the caller (the
// executor layer owns id generation so tests can supply deterministic
// ids); startedAt is the caller's clock reading, kept out of this package
// for the same testability reason pkg/txn's own Transaction.StartedAt is
// caller-stamped.
func (s *Session) Begin(id string, startedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txnState == Active {
		return ErrAlreadyInTransaction
	}
	s.txnState = Active
	s.txn = &txn.Transaction{ID: id, StartedAt: startedAt, Explicit: true}
	return nil
}

// Transaction returns the session's open explicit transaction, or nil when
// none is open. Callers append undo operations to the returned transaction;
// Commit/Rollback only apply to an explicit one.
func (s *Session) Transaction() *txn.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txn
}

// Commit closes the open explicit transaction, discarding its undo log
// (the mutations it recorded already landed in storage and the WAL).
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txnState != Active {
		return ErrNoActiveTransaction
	}
	s.txnState = Idle
	s.txn = nil
	return nil
}

// Rollback returns the undo log accumulated by the open explicit
// transaction and closes it; the caller is responsible for replaying the
// undo log against the graph cache(s) it touched.
func (s *Session) Rollback() ([]txn.UndoOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txnState != Active {
		return nil, ErrNoActiveTransaction
	}
	ops := s.txn.UndoLog
	s.txnState = Idle
	s.txn = nil
	return ops, nil
}

package session

import (
	"testing"

	"github.com/orneryd/gqlgraph/pkg/storage"
	"github.com/orneryd/gqlgraph/pkg/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateGetClose(t *testing.T) {
	m := NewManager()
	s, err := m.Create("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", s.User())
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Close(s.ID()))
	assert.Equal(t, 0, m.Count())
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerShutdownDrainsEverySession(t *testing.T) {
	m := NewManager()
	_, err := m.Create("alice")
	require.NoError(t, err)
	_, err = m.Create("bob")
	require.NoError(t, err)
	require.Equal(t, 2, m.Count())

	m.Shutdown()
	assert.Equal(t, 0, m.Count())
}

func TestSessionSchemaGraphAndParameterLifecycle(t *testing.T) {
	m := NewManager()
	s, err := m.Create("alice")
	require.NoError(t, err)

	s.SetSchema("/prod")
	s.SetGraph("/prod/social")
	s.SetParameter("limit", storage.NumberValue(10))

	assert.Equal(t, "/prod", s.CurrentSchema())
	assert.Equal(t, "/prod/social", s.CurrentGraph())
	v, ok := s.Parameter("limit")
	require.True(t, ok)
	assert.Equal(t, float64(10), v.Num)

	s.Reset("GRAPH")
	assert.Equal(t, "", s.CurrentGraph())
	assert.Equal(t, "/prod", s.CurrentSchema())

	s.Reset("")
	assert.Equal(t, "", s.CurrentSchema())
	_, ok = s.Parameter("limit")
	assert.False(t, ok)
}

func TestSessionTransactionStateMachine(t *testing.T) {
	m := NewManager()
	s, err := m.Create("alice")
	require.NoError(t, err)

	assert.Equal(t, Idle, s.TxnState())
	require.NoError(t, s.Begin("txn-1", 1000))
	assert.Equal(t, Active, s.TxnState())

	err = s.Begin("txn-2", 2000)
	assert.ErrorIs(t, err, ErrAlreadyInTransaction)

	txn := s.Transaction()
	require.NotNil(t, txn)
	assert.Equal(t, "txn-1", txn.ID)

	require.NoError(t, s.Commit())
	assert.Equal(t, Idle, s.TxnState())
	assert.Nil(t, s.Transaction())

	_, err = s.Rollback()
	assert.ErrorIs(t, err, ErrNoActiveTransaction)
}

func TestSessionRollbackReturnsUndoLog(t *testing.T) {
	m := NewManager()
	s, err := m.Create("alice")
	require.NoError(t, err)

	require.NoError(t, s.Begin("txn-1", 1000))
	s.Transaction().Record(txn.InsertNodeOp("/prod/social", storage.NodeID("n1")))

	ops, err := s.Rollback()
	require.NoError(t, err)
	assert.Len(t, ops, 1)
	assert.Equal(t, Idle, s.TxnState())
}

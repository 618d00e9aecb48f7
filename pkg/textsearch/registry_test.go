package textsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterGetUnregister(t *testing.T) {
	r := NewRegistry()
	ix := NewInvertedIndex("people_name", DefaultAnalyzerConfig())

	require.NoError(t, r.Register(ix))
	assert.ErrorIs(t, r.Register(ix), ErrIndexExists)

	got, err := r.Get("people_name")
	require.NoError(t, err)
	assert.Same(t, ix, got)

	assert.True(t, r.Exists("people_name"))
	assert.Equal(t, []string{"people_name"}, r.Names())

	require.NoError(t, r.Unregister("people_name"))
	assert.False(t, r.Exists("people_name"))
	assert.ErrorIs(t, r.Unregister("people_name"), ErrIndexNotFound)
}

func TestRegistry_Search(t *testing.T) {
	r := NewRegistry()
	ix := NewInvertedIndex("bios", DefaultAnalyzerConfig())
	ix.Index("1", "graph database query engine")
	ix.Index("2", "relational database storage")
	require.NoError(t, r.Register(ix))

	results, err := r.Search("bios", "database", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRegistry_SearchUnknownIndexClassifiesNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Search("missing", "query", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexNotFound)

	class := r.Recovery().Classify(err)
	assert.Equal(t, ClassNotFound, class.Class)
}

func TestRegistry_IndexAndRemoveDocument(t *testing.T) {
	r := NewRegistry()
	ix := NewInvertedIndex("bios", DefaultAnalyzerConfig())
	require.NoError(t, r.Register(ix))

	require.NoError(t, r.IndexDocument("bios", "1", "graph database engine"))
	results, err := r.Search("bios", "graph", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, r.RemoveDocument("bios", "1"))
	results, err = r.Search("bios", "graph", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.ErrorIs(t, r.IndexDocument("missing", "1", "x"), ErrIndexNotFound)
	assert.ErrorIs(t, r.RemoveDocument("missing", "1"), ErrIndexNotFound)
}

func TestRegistry_StatsTracksSearches(t *testing.T) {
	r := NewRegistry()
	ix := NewInvertedIndex("bios", DefaultAnalyzerConfig())
	require.NoError(t, r.Register(ix))
	require.NoError(t, r.IndexDocument("bios", "1", "graph database"))

	_, err := r.Search("bios", "graph", 10)
	require.NoError(t, err)

	stats := r.Stats("bios")
	assert.Equal(t, 1, stats.TotalQueries)

	assert.Equal(t, QueryStats{}, r.Stats("missing"))
}

func TestRegistry_SearchEnforcesResultSizeLimit(t *testing.T) {
	r := NewRegistryWithLimits(ResourceLimits{MaxResultRows: 1})
	ix := NewInvertedIndex("bios", DefaultAnalyzerConfig())
	ix.Index("1", "graph database")
	ix.Index("2", "graph storage")
	require.NoError(t, r.Register(ix))

	_, err := r.Search("bios", "graph", 10)
	require.Error(t, err)
	v, ok := err.(Violation)
	require.True(t, ok)
	assert.Equal(t, LimitResultSize, v.Kind)
}

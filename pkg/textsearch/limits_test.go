package textsearch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceMonitor_CheckResultSize(t *testing.T) {
	mon := NewResourceMonitor(ResourceLimits{MaxResultRows: 10})

	require.NoError(t, mon.CheckResultSize(10))

	err := mon.CheckResultSize(11)
	require.Error(t, err)
	v, ok := err.(Violation)
	require.True(t, ok)
	assert.Equal(t, LimitResultSize, v.Kind)
	assert.Equal(t, int64(11), v.Current)
	assert.Equal(t, int64(10), v.Limit)

	assert.Len(t, mon.Violations(), 1)
}

func TestResourceMonitor_CheckTimeout(t *testing.T) {
	mon := NewResourceMonitor(ResourceLimits{QueryTimeout: 10 * time.Millisecond})

	require.NoError(t, mon.CheckTimeout(5*time.Millisecond))

	err := mon.CheckTimeout(50 * time.Millisecond)
	require.Error(t, err)
	v := err.(Violation)
	assert.Equal(t, LimitQueryTimeout, v.Kind)
}

func TestResourceMonitor_CheckIndexSize(t *testing.T) {
	mon := NewResourceMonitor(ResourceLimits{MaxIndexSizeBytes: 1024})

	require.NoError(t, mon.CheckIndexSize(1024))
	err := mon.CheckIndexSize(1025)
	require.Error(t, err)
	assert.Equal(t, LimitIndexSize, err.(Violation).Kind)
}

func TestResourceMonitor_CheckMemory(t *testing.T) {
	mon := NewResourceMonitor(ResourceLimits{MaxMemoryBytes: 100})

	require.NoError(t, mon.CheckMemory(100))
	err := mon.CheckMemory(101)
	require.Error(t, err)
	assert.Equal(t, LimitQueryMemory, err.(Violation).Kind)
}

func TestResourceMonitor_ZeroLimitMeansUnbounded(t *testing.T) {
	mon := NewResourceMonitor(ResourceLimits{})
	assert.NoError(t, mon.CheckResultSize(1_000_000))
	assert.NoError(t, mon.CheckTimeout(time.Hour))
	assert.NoError(t, mon.CheckIndexSize(1 << 40))
	assert.NoError(t, mon.CheckMemory(1 << 40))
}

func TestDefaultResourceLimits(t *testing.T) {
	limits := DefaultResourceLimits()
	assert.Equal(t, 30*time.Second, limits.QueryTimeout)
	assert.Equal(t, int64(1<<30), limits.MaxMemoryBytes)
	assert.Equal(t, 100_000, limits.MaxResultRows)
	assert.Equal(t, int64(10<<30), limits.MaxIndexSizeBytes)
}

package textsearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexRecoveryManager_ClassifiesKnownErrors(t *testing.T) {
	m := NewIndexRecoveryManager()

	notFound := m.Classify(ErrIndexNotFound)
	assert.Equal(t, ClassNotFound, notFound.Class)
	assert.True(t, notFound.Recoverable)
	assert.Equal(t, StrategyFallbackToScan, notFound.Strategy)

	exists := m.Classify(ErrIndexExists)
	assert.Equal(t, ClassAlreadyExists, exists.Class)
	assert.Equal(t, StrategyNoRecovery, exists.Strategy)

	malformed := m.Classify(newErr(KindInvalidQuery, "bad query"))
	assert.Equal(t, ClassMalformedQuery, malformed.Class)
	assert.Equal(t, StrategyFallbackToScan, malformed.Strategy)

	corrupt := m.Classify(newErr(KindIndexError, "corrupt postings"))
	assert.Equal(t, ClassCorruption, corrupt.Class)
	assert.Equal(t, SeverityFatal, corrupt.Severity)
	assert.False(t, corrupt.Recoverable)
}

func TestIndexRecoveryManager_UnknownError(t *testing.T) {
	m := NewIndexRecoveryManager()
	c := m.Classify(assert.AnError)
	assert.Equal(t, ClassUnknown, c.Class)
	assert.Equal(t, StrategyNoRecovery, c.Strategy)
}

func TestIndexErrorClassStringsAreStable(t *testing.T) {
	cases := map[IndexErrorClass]string{
		ClassNotFound:       "not_found",
		ClassAlreadyExists:  "already_exists",
		ClassMalformedQuery: "malformed_query",
		ClassCorruption:     "corruption",
		ClassDiskError:      "disk_error",
		ClassOutOfMemory:    "out_of_memory",
		ClassLockTimeout:    "lock_timeout",
		ClassUnknown:        "unknown",
	}
	for class, want := range cases {
		assert.Equal(t, want, class.String())
	}
}

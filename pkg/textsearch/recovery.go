package textsearch

import "errors"

// IndexErrorClass classifies a text-index failure the way spec.md §4.7's
// IndexRecoveryManager does, independent of this package's own ErrorKind
// (which exists to carry a message; IndexErrorClass exists to decide what
// to do next).
type IndexErrorClass int

const (
	ClassNotFound IndexErrorClass = iota
	ClassAlreadyExists
	ClassMalformedQuery
	ClassCorruption
	ClassDiskError
	ClassOutOfMemory
	ClassLockTimeout
	ClassUnknown
)

func (c IndexErrorClass) String() string {
	switch c {
	case ClassNotFound:
		return "not_found"
	case ClassAlreadyExists:
		return "already_exists"
	case ClassMalformedQuery:
		return "malformed_query"
	case ClassCorruption:
		return "corruption"
	case ClassDiskError:
		return "disk_error"
	case ClassOutOfMemory:
		return "out_of_memory"
	case ClassLockTimeout:
		return "lock_timeout"
	default:
		return "unknown"
	}
}

// Severity ranks how serious a classified error is, most to least.
type Severity int

const (
	SeverityFatal Severity = iota
	SeverityRecoverable
	SeverityTransient
)

// Strategy is what IndexRecoveryManager recommends doing about a
// classified error.
type Strategy int

const (
	// StrategyAutomatic retries the same operation; transient errors like
	// LockTimeout recover this way.
	StrategyAutomatic Strategy = iota
	// StrategyFallbackToScan abandons the index and serves the query (or
	// rebuild) via a full document scan instead.
	StrategyFallbackToScan
	// StrategyNoRecovery means the caller must surface the error; nothing
	// short of operator intervention fixes it.
	StrategyNoRecovery
)

// Classification is IndexRecoveryManager's verdict on one error: its
// class, how severe it is, whether it's recoverable at all, and the
// recommended strategy.
type Classification struct {
	Class       IndexErrorClass
	Severity    Severity
	Recoverable bool
	Strategy    Strategy
}

// classificationTable maps each IndexErrorClass to its fixed verdict.
// Corruption and OutOfMemory are fatal (operator must intervene or the
// process must free memory before retrying) so StrategyNoRecovery;
// NotFound and MalformedQuery aren't really failures of the index at all,
// so they're recoverable by falling back to a full scan rather than
// retried as-is; LockTimeout is the one genuinely transient case.
var classificationTable = map[IndexErrorClass]Classification{
	ClassNotFound:       {ClassNotFound, SeverityRecoverable, true, StrategyFallbackToScan},
	ClassAlreadyExists:  {ClassAlreadyExists, SeverityRecoverable, true, StrategyNoRecovery},
	ClassMalformedQuery: {ClassMalformedQuery, SeverityRecoverable, true, StrategyFallbackToScan},
	ClassCorruption:     {ClassCorruption, SeverityFatal, false, StrategyNoRecovery},
	ClassDiskError:      {ClassDiskError, SeverityFatal, false, StrategyNoRecovery},
	ClassOutOfMemory:    {ClassOutOfMemory, SeverityFatal, false, StrategyNoRecovery},
	ClassLockTimeout:    {ClassLockTimeout, SeverityTransient, true, StrategyAutomatic},
	ClassUnknown:        {ClassUnknown, SeverityRecoverable, false, StrategyNoRecovery},
}

// IndexRecoveryManager classifies a text-index error and recommends a
// recovery strategy. It carries no mutable state itself; classification is
// a pure function of the error, kept as a type (rather than a bare
// function) so a Registry can hold one per database the way it holds a
// ResourceMonitor per index.
type IndexRecoveryManager struct{}

// NewIndexRecoveryManager returns a ready-to-use recovery manager.
func NewIndexRecoveryManager() *IndexRecoveryManager { return &IndexRecoveryManager{} }

// Classify inspects err and returns its Classification. A Violation from
// limits.go is never passed here — resource-limit violations are reported
// to the caller directly, not routed through recovery, since there is
// nothing to automatically recover from a query that is simply too big.
func (m *IndexRecoveryManager) Classify(err error) Classification {
	class := m.classOf(err)
	if c, ok := classificationTable[class]; ok {
		return c
	}
	return classificationTable[ClassUnknown]
}

func (m *IndexRecoveryManager) classOf(err error) IndexErrorClass {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, ErrIndexNotFound) {
		return ClassNotFound
	}
	if errors.Is(err, ErrIndexExists) {
		return ClassAlreadyExists
	}
	var tsErr *Error
	if errors.As(err, &tsErr) {
		switch tsErr.Kind {
		case KindInvalidQuery:
			return ClassMalformedQuery
		case KindInvalidConfig:
			return ClassMalformedQuery
		case KindTokenization:
			return ClassMalformedQuery
		case KindIndexError:
			return ClassCorruption
		}
	}
	return ClassUnknown
}

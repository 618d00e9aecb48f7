package engine

import "fmt"

// Category classifies an Error the way the rest of the pipeline already
// classifies its own failures (gql.ParseError, gql.ValidationError, a
// planning inconsistency, or an execution-time fault); Coordinator wraps
// whichever one it catches into this single taxonomy so a caller never
// needs to type-switch across package boundaries.
type Category int

const (
	CategoryParse Category = iota
	CategoryValidation
	CategoryPlanning
	CategoryExecution
	CategoryStorage
	CategoryTransaction
)

func (c Category) String() string {
	switch c {
	case CategoryParse:
		return "ParseError"
	case CategoryValidation:
		return "ValidationError"
	case CategoryPlanning:
		return "PlanningError"
	case CategoryExecution:
		return "ExecutionError"
	case CategoryStorage:
		return "StorageError"
	case CategoryTransaction:
		return "TransactionError"
	}
	return "UnknownError"
}

// ExecutionSubkind further classifies a CategoryExecution Error; zero value
// (ExecInvalidQuery) is also the default for categories where a subkind
// makes no sense.
type ExecutionSubkind int

const (
	ExecInvalidQuery ExecutionSubkind = iota
	ExecNotFound
	ExecPermissionDenied
	ExecCancelled
	ExecResourceExhausted
	ExecConflict
)

func (k ExecutionSubkind) String() string {
	switch k {
	case ExecNotFound:
		return "NotFound"
	case ExecPermissionDenied:
		return "PermissionDenied"
	case ExecCancelled:
		return "Cancelled"
	case ExecResourceExhausted:
		return "ResourceExhausted"
	case ExecConflict:
		return "Conflict"
	}
	return "InvalidQuery"
}

// Error is the single error type ProcessQuery ever returns to an embedding
// caller — every lower-level error (gql, plan, exec, storage, txn) gets
// wrapped into one of these before crossing the package boundary.
type Error struct {
	Category Category
	Subkind  ExecutionSubkind // meaningful only when Category == CategoryExecution
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Category == CategoryExecution {
		return fmt.Sprintf("%s(%s): %s", e.Category, e.Subkind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(cat Category, err error) *Error {
	return &Error{Category: cat, Message: err.Error(), Err: err}
}

func execError(sub ExecutionSubkind, format string, args ...any) *Error {
	return &Error{Category: CategoryExecution, Subkind: sub, Message: fmt.Sprintf(format, args...)}
}

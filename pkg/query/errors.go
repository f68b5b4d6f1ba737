package query

import (
	"errors"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/plan"
	"github.com/orneryd/pgraphdb/pkg/store"
)

// Sentinel errors for spec §7's error-kind taxonomy. Following the
// teacher's storage package convention (pkg/storage/types.go's
// ErrNotFound/ErrInvalidID var block), every kind is a plain
// errors.New value a caller matches with errors.Is rather than a
// host-specific error code.
var (
	ErrParseError          = errors.New("parse error")
	ErrSchemaError         = errors.New("schema error")
	ErrTypeError           = errors.New("type error")
	ErrEntityMissing       = errors.New("entity missing")
	ErrRuntimeError        = errors.New("runtime error")
	ErrOutOfMemory         = errors.New("out of memory")
	ErrCancelled           = errors.New("query cancelled")
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrGraphNotFound is a Server-level addressing error — the named
	// graph doesn't exist — not one of spec §7's eight query-semantic
	// kinds, since it's detected before any operator runs.
	ErrGraphNotFound = errors.New("graph not found")
)

// QueryError wraps one of the sentinels above with a detail message and,
// where applicable, the underlying cause from pkg/graph/pkg/store/pkg/plan.
// Unwrap returns the sentinel so errors.Is(err, query.ErrSchemaError)
// works regardless of which concrete failure produced it.
type QueryError struct {
	Sentinel error
	Detail   string
	Cause    error
}

func (e *QueryError) Error() string {
	if e.Detail == "" {
		return e.Sentinel.Error()
	}
	return e.Sentinel.Error() + ": " + e.Detail
}

func (e *QueryError) Unwrap() error { return e.Sentinel }

func newQueryError(sentinel error, detail string, cause error) *QueryError {
	return &QueryError{Sentinel: sentinel, Detail: detail, Cause: cause}
}

// classifyRuntimeErr maps an error surfaced from ExecContext.Err() (set
// by an operator mid-plan, per spec §4.7.8) onto a QueryError. Errors
// pkg/plan/pkg/graph/pkg/store already export as sentinels translate to
// their matching kind; anything else falls back to RuntimeError, since an
// operator failure that isn't one of the recognized causes is still a
// query-time failure rather than a caller-addressing mistake.
func classifyRuntimeErr(err error) *QueryError {
	if err == nil {
		return nil
	}
	if qe, ok := err.(*QueryError); ok {
		return qe
	}
	switch {
	case errors.Is(err, store.ErrEntityMissing):
		return newQueryError(ErrEntityMissing, "", err)
	case errors.Is(err, graph.ErrDuplicateEdge):
		return newQueryError(ErrSchemaError, "duplicate relationship", err)
	case errors.Is(err, plan.ErrNodeHasRelationships):
		return newQueryError(ErrSchemaError, "node has relationships, use DETACH DELETE", err)
	case errors.Is(err, graph.ErrConcurrencyConflict):
		return newQueryError(ErrConcurrencyConflict, "", err)
	default:
		return newQueryError(ErrRuntimeError, err.Error(), err)
	}
}

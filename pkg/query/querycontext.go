package query

import (
	"time"

	"github.com/orneryd/pgraphdb/pkg/graph"
)

// LatchState records how far a running query has gotten in the §5 latch
// protocol, so Execute's deferred cleanup knows whether to release a
// shared hold, release an exclusive hold, or do nothing.
type LatchState int

const (
	LatchNone LatchState = iota
	LatchShared
	LatchExclusive
)

func (s LatchState) String() string {
	switch s {
	case LatchShared:
		return "Read"
	case LatchExclusive:
		return "Write"
	default:
		return "None"
	}
}

// QueryCtx is one query's bookkeeping (spec §4.9): which graph it runs
// against, how far it has progressed through the latch protocol, and
// timing; the statistics the final Reply reports are counted on
// plan.ExecContext instead. Burble is an optional trace sink that trace
// writes short progress lines to when it is non-nil, named after
// GraphBLAS's own GB_BURBLE_START/GB_BURBLE_END kernel tracing macros
// (original_source/deps/GraphBLAS/Source), not the teacher. Execute
// builds its QueryCtx internally and never sets Burble, so its trace
// calls write nothing.
type QueryCtx struct {
	Graph     *graph.Graph
	GraphName string
	Latch     LatchState
	Err       error
	Start     time.Time
	End       time.Time
	Burble    chan<- string
}

func newQueryCtx(name string, g *graph.Graph) *QueryCtx {
	return &QueryCtx{GraphName: name, Graph: g, Start: nowFunc()}
}

// Elapsed reports how long the query ran, valid once End is set.
func (q *QueryCtx) Elapsed() time.Duration { return q.End.Sub(q.Start) }

func (q *QueryCtx) trace(msg string) {
	if q.Burble == nil {
		return
	}
	select {
	case q.Burble <- msg:
	default:
	}
}

// nowFunc is a seam for tests that need deterministic timestamps;
// production code always calls time.Now.
var nowFunc = time.Now

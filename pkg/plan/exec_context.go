package plan

import (
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/record"
)

// Stats accumulates the counters exposed on QueryCtx (spec §4.9),
// updated as operators run.
type Stats struct {
	NodesCreated      uint64
	RelationshipsCreated uint64
	PropertiesSet     uint64
	LabelsAdded       uint64
	LabelsRemoved     uint64
	NodesDeleted      uint64
	RelationshipsDeleted uint64
	RowsProduced      uint64
}

// ExecContext is the per-query state shared by every operator in one
// plan tree: the graph the query runs against, the shared alias map,
// cancellation, and the first error encountered (spec §4.7.8 — a
// runtime error records on the context and the operator returns
// exhausted; it does not propagate as a Go error through Consume).
type ExecContext struct {
	Graph     *graph.Graph
	Aliases   *record.AliasMap
	Strict    bool
	Stats     Stats
	err       error
	cancelled bool
}

func NewExecContext(g *graph.Graph, aliases *record.AliasMap) *ExecContext {
	return &ExecContext{Graph: g, Aliases: aliases}
}

// SetErr records the first error seen during execution; subsequent
// calls are no-ops so the root surfaces the earliest failure.
func (c *ExecContext) SetErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *ExecContext) Err() error { return c.err }

func (c *ExecContext) Failed() bool { return c.err != nil }

// Cancel marks the query cancelled; every operator's Consume checks
// this at its own granularity and returns exhausted once set (spec §5).
func (c *ExecContext) Cancel() { c.cancelled = true }

func (c *ExecContext) Cancelled() bool { return c.cancelled }

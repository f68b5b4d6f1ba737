package query

import (
	"github.com/orneryd/pgraphdb/pkg/ast"
	"github.com/orneryd/pgraphdb/pkg/plan"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/resultset"
)

// Format selects which of §6's two wire encodings Execute renders the
// result into. FormatNone skips rendering entirely — a caller that only
// wants Stats (e.g. a health-check write) avoids paying for it.
type Format int

const (
	FormatVerbose Format = iota
	FormatCompact
	FormatNone
)

// defaultRowCap bounds how many rows a single query accumulates before
// Results reports Truncated, guarding against an unbounded RETURN on a
// very large graph exhausting memory before a caller's own LIMIT would.
const defaultRowCap = 1_000_000

// Reply is what Execute hands back to a caller: rendered rows in
// whichever Format was requested (both renders stay nil if FormatNone
// or if Err is set — spec §7's "no partial result ever reaches the
// client"), plus the write statistics every query reports regardless of
// format.
type Reply struct {
	Columns   []string
	Verbose   *resultset.VerboseReply
	Compact   *resultset.CompactReply
	Stats     resultset.Statistics
	Truncated bool
	Err       error
}

// Execute runs one query against a named graph end to end: acquire the
// latch, build and drive the plan, upgrade and flush on a successful
// write, and render the collected rows. It never returns a Reply with
// both Err set and rows populated — on any failure every accumulated
// write is discarded before Execute returns (spec §7).
func (s *Server) Execute(graphName string, a *ast.AST, format Format) *Reply {
	g, ok := s.Graph(graphName)
	if !ok {
		s.Logger.Warn("execute: graph not found", "graph", graphName)
		return &Reply{Err: newQueryError(ErrGraphNotFound, graphName, nil)}
	}

	qctx := newQueryCtx(graphName, g)
	defer func() { qctx.End = nowFunc() }()
	s.Logger.Debug("execute: starting", "graph", graphName, "readOnly", a.IsReadOnly)

	g.Latch.AcquireShared()
	qctx.Latch = LatchShared
	qctx.trace("acquired shared latch")

	builder := plan.NewBuilder(g)
	root, err := builder.Build(a)
	if err != nil {
		g.Latch.ReleaseShared()
		qctx.Latch = LatchNone
		s.Logger.Error("execute: plan build failed", "graph", graphName, "err", err)
		return &Reply{Err: newQueryError(ErrParseError, err.Error(), err)}
	}

	aliases := record.NewAliasMap()
	ec := plan.NewExecContext(g, aliases)

	results := plan.NewResults(root, defaultRowCap)
	defer results.Free()
	if err := results.Init(ec); err != nil {
		g.Latch.ReleaseShared()
		qctx.Latch = LatchNone
		return &Reply{Err: classifyRuntimeErr(err)}
	}

	runErr := results.Run(ec)

	if ec.Cancelled() {
		g.DiscardPending()
		g.Latch.AbortUpgrade()
		qctx.Latch = LatchNone
		qctx.trace("cancelled, pending writes discarded")
		s.Logger.Warn("execute: cancelled", "graph", graphName)
		return &Reply{Err: newQueryError(ErrCancelled, "", nil)}
	}

	if runErr != nil || ec.Failed() {
		failure := runErr
		if failure == nil {
			failure = ec.Err()
		}
		g.DiscardPending()
		g.Latch.ReleaseShared()
		qctx.Latch = LatchNone
		s.Logger.Error("execute: run failed", "graph", graphName, "err", failure)
		return &Reply{Err: classifyRuntimeErr(failure)}
	}

	if a.IsReadOnly {
		g.Latch.ReleaseShared()
		qctx.Latch = LatchNone
	} else {
		if err := g.Latch.UpgradeToExclusive(); err != nil {
			g.DiscardPending()
			g.Latch.ReleaseShared()
			qctx.Latch = LatchNone
			s.Logger.Error("execute: upgrade to exclusive failed", "graph", graphName, "err", err)
			return &Reply{Err: classifyRuntimeErr(err)}
		}
		qctx.Latch = LatchExclusive
		qctx.trace("upgraded to exclusive, flushing")
		g.Flush()
		g.Latch.ReleaseExclusive()
		qctx.Latch = LatchNone
	}

	qctx.End = nowFunc()
	s.Logger.Debug("execute: done", "graph", graphName, "elapsed", qctx.Elapsed())

	reply := &Reply{
		Columns:   builder.Columns,
		Stats:     statsFrom(ec.Stats),
		Truncated: results.Truncated,
	}
	rs := resultset.New(builder.Columns)
	rs.Stats = reply.Stats
	rs.Truncated = results.Truncated
	rs.CollectAll(aliases, results.Rows)

	switch format {
	case FormatVerbose:
		reply.Verbose = rs.Verbose(g)
	case FormatCompact:
		reply.Compact = rs.Compact(g)
	case FormatNone:
	}
	return reply
}

// statsFrom translates the plan package's execution-time counters into
// the reply-facing shape pkg/resultset defines, since pkg/plan can't
// import pkg/resultset without an import cycle (Results lives under
// plan, the formatters that read it live under resultset).
func statsFrom(s plan.Stats) resultset.Statistics {
	return resultset.Statistics{
		NodesCreated:         int(s.NodesCreated),
		NodesDeleted:         int(s.NodesDeleted),
		RelationshipsCreated: int(s.RelationshipsCreated),
		RelationshipsDeleted: int(s.RelationshipsDeleted),
		PropertiesSet:        int(s.PropertiesSet),
		LabelsAdded:          int(s.LabelsAdded),
		LabelsRemoved:        int(s.LabelsRemoved),
	}
}

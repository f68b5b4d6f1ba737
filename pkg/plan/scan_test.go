package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func newTestCtx(g *graph.Graph) *ExecContext {
	return NewExecContext(g, record.NewAliasMap())
}

func collectNodeIDs(t *testing.T, ctx *ExecContext, op Operator, alias string) []uint64 {
	t.Helper()
	require.NoError(t, op.Init(ctx))
	idx, ok := ctx.Aliases.Lookup(alias)
	require.True(t, ok)
	var out []uint64
	for {
		rec, more := op.Consume(ctx)
		if !more {
			break
		}
		v, ok := rec.GetIndex(idx)
		require.True(t, ok)
		id, ok := v.NodeID()
		require.True(t, ok)
		out = append(out, id)
	}
	return out
}

func TestAllNodeScanSkipsNodeTombstonedBeforeInit(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	require.NoError(t, g.DeleteNode(b))

	ctx := newTestCtx(g)
	ids := collectNodeIDs(t, ctx, NewAllNodeScan("n"), "n")
	assert.Equal(t, []uint64{a}, ids)
}

func TestLabelScanSeesSameQueryPendingLabel(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	_, err := g.AddLabel(a, 7)
	require.NoError(t, err)
	// Not flushed: the label is still only staged.

	ctx := newTestCtx(g)
	ids := collectNodeIDs(t, ctx, NewLabelScan("n", 7), "n")
	assert.Equal(t, []uint64{a}, ids)
}

func TestLabelScanExcludesNodesWithoutTheLabel(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode([]uint32{3})
	g.CreateNode([]uint32{9})

	ctx := newTestCtx(g)
	ids := collectNodeIDs(t, ctx, NewLabelScan("n", 3), "n")
	assert.Equal(t, []uint64{a}, ids)
}

func TestIndexScanFiltersByRangePredicate(t *testing.T) {
	g := graph.New(4)
	ageAttr := g.Attrs.Intern("age")
	a := g.CreateNode([]uint32{1})
	require.NoError(t, g.Store.SetNodeProperty(a, ageAttr, value.Int64(30)))
	b := g.CreateNode([]uint32{1})
	require.NoError(t, g.Store.SetNodeProperty(b, ageAttr, value.Int64(10)))

	ctx := newTestCtx(g)
	pred := RangePredicate{Attr: ageAttr, Min: value.Int64(20), HasMin: true}
	ids := collectNodeIDs(t, ctx, NewIndexScan("n", 1, pred), "n")
	assert.Equal(t, []uint64{a}, ids)
}

func TestIndexScanExcludesNodesMissingTheProperty(t *testing.T) {
	g := graph.New(4)
	ageAttr := g.Attrs.Intern("age")
	g.CreateNode([]uint32{1}) // no age property set

	ctx := newTestCtx(g)
	pred := RangePredicate{Attr: ageAttr, Min: value.Int64(0), HasMin: true}
	ids := collectNodeIDs(t, ctx, NewIndexScan("n", 1, pred), "n")
	assert.Empty(t, ids)
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func TestAggregateCountStarOverAllRows(t *testing.T) {
	g := graph.New(4)
	g.CreateNode(nil)
	g.CreateNode(nil)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	agg := NewAggregate(NewAllNodeScan("n"), nil, []AggregateItem{
		{Alias: "c", Func: AggCountStar},
	})
	require.NoError(t, agg.Init(ctx))

	rec, ok := agg.Consume(ctx)
	require.True(t, ok)
	cIdx, _ := ctx.Aliases.Lookup("c")
	v, _ := rec.GetIndex(cIdx)
	n, _ := v.Int64()
	assert.Equal(t, int64(3), n)

	_, ok = agg.Consume(ctx)
	assert.False(t, ok)
}

func TestAggregateGroupsByLabelAttribute(t *testing.T) {
	g := graph.New(4)
	teamAttr := g.Attrs.Intern("team")
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	c := g.CreateNode(nil)
	require.NoError(t, g.Store.SetNodeProperty(a, teamAttr, value.String("red")))
	require.NoError(t, g.Store.SetNodeProperty(b, teamAttr, value.String("red")))
	require.NoError(t, g.Store.SetNodeProperty(c, teamAttr, value.String("blue")))

	ctx := newTestCtx(g)
	teamExpr := expr.VariableRef{Alias: "n", Path: []string{"team"}}
	agg := NewAggregate(NewAllNodeScan("n"),
		[]ProjectItem{{Alias: "team", Expr: teamExpr}},
		[]AggregateItem{{Alias: "c", Func: AggCountStar}},
	)
	require.NoError(t, agg.Init(ctx))

	teamIdx, _ := ctx.Aliases.Lookup("team")
	cIdx, _ := ctx.Aliases.Lookup("c")
	counts := map[string]int64{}
	for {
		rec, ok := agg.Consume(ctx)
		if !ok {
			break
		}
		tv, _ := rec.GetIndex(teamIdx)
		team, _ := tv.String()
		cv, _ := rec.GetIndex(cIdx)
		n, _ := cv.Int64()
		counts[team] = n
	}
	assert.Equal(t, map[string]int64{"red": 2, "blue": 1}, counts)
}

func TestAggregateMinMaxAvg(t *testing.T) {
	g := graph.New(4)
	ageAttr := g.Attrs.Intern("age")
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	require.NoError(t, g.Store.SetNodeProperty(a, ageAttr, value.Int64(10)))
	require.NoError(t, g.Store.SetNodeProperty(b, ageAttr, value.Int64(20)))

	ctx := newTestCtx(g)
	ageExpr := expr.VariableRef{Alias: "n", Path: []string{"age"}}
	agg := NewAggregate(NewAllNodeScan("n"), nil, []AggregateItem{
		{Alias: "mn", Func: AggMin, Arg: ageExpr},
		{Alias: "mx", Func: AggMax, Arg: ageExpr},
		{Alias: "avg", Func: AggAvg, Arg: ageExpr},
	})
	require.NoError(t, agg.Init(ctx))

	rec, ok := agg.Consume(ctx)
	require.True(t, ok)
	mnIdx, _ := ctx.Aliases.Lookup("mn")
	mxIdx, _ := ctx.Aliases.Lookup("mx")
	avgIdx, _ := ctx.Aliases.Lookup("avg")

	mn, _ := rec.GetIndex(mnIdx)
	mx, _ := rec.GetIndex(mxIdx)
	avg, _ := rec.GetIndex(avgIdx)

	mnI, _ := mn.Int64()
	mxI, _ := mx.Int64()
	avgF, _ := avg.Double()
	assert.Equal(t, int64(10), mnI)
	assert.Equal(t, int64(20), mxI)
	assert.Equal(t, 15.0, avgF)
}

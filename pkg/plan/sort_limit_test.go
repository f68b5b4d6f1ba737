package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func ageValues(t *testing.T, ctx *ExecContext, op Operator, ageAlias string) []int64 {
	t.Helper()
	require.NoError(t, op.Init(ctx))
	idx, _ := ctx.Aliases.Lookup(ageAlias)
	var out []int64
	for {
		rec, ok := op.Consume(ctx)
		if !ok {
			break
		}
		v, ok := rec.GetIndex(idx)
		require.True(t, ok)
		if v.IsNull() {
			out = append(out, -1)
			continue
		}
		n, _ := v.Int64()
		out = append(out, n)
	}
	return out
}

func TestSortAscendingPutsNullsLast(t *testing.T) {
	g := graph.New(4)
	ageAttr := g.Attrs.Intern("age")
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	c := g.CreateNode(nil) // no age set: Null
	require.NoError(t, g.Store.SetNodeProperty(a, ageAttr, value.Int64(30)))
	require.NoError(t, g.Store.SetNodeProperty(b, ageAttr, value.Int64(10)))
	_ = c

	ctx := newTestCtx(g)
	proj := NewProject(NewAllNodeScan("n"), []ProjectItem{
		{Alias: "age", Expr: expr.VariableRef{Alias: "n", Path: []string{"age"}}},
	})
	sorted := NewSort(proj, []SortItem{{Expr: expr.VariableRef{Alias: "age"}, Descending: false}}, 0, 0, false)

	got := ageValues(t, ctx, sorted, "age")
	assert.Equal(t, []int64{10, 30, -1}, got)
}

func TestSortDescendingPutsNullsFirst(t *testing.T) {
	g := graph.New(4)
	ageAttr := g.Attrs.Intern("age")
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	g.CreateNode(nil) // Null
	require.NoError(t, g.Store.SetNodeProperty(a, ageAttr, value.Int64(30)))
	require.NoError(t, g.Store.SetNodeProperty(b, ageAttr, value.Int64(10)))

	ctx := newTestCtx(g)
	proj := NewProject(NewAllNodeScan("n"), []ProjectItem{
		{Alias: "age", Expr: expr.VariableRef{Alias: "n", Path: []string{"age"}}},
	})
	sorted := NewSort(proj, []SortItem{{Expr: expr.VariableRef{Alias: "age"}, Descending: true}}, 0, 0, false)

	got := ageValues(t, ctx, sorted, "age")
	assert.Equal(t, []int64{-1, 30, 10}, got)
}

func TestSortWithLimitUsesBoundedHeap(t *testing.T) {
	g := graph.New(4)
	ageAttr := g.Attrs.Intern("age")
	for _, age := range []int64{5, 3, 9, 1, 7} {
		n := g.CreateNode(nil)
		require.NoError(t, g.Store.SetNodeProperty(n, ageAttr, value.Int64(age)))
	}

	ctx := newTestCtx(g)
	proj := NewProject(NewAllNodeScan("n"), []ProjectItem{
		{Alias: "age", Expr: expr.VariableRef{Alias: "n", Path: []string{"age"}}},
	})
	sorted := NewSort(proj, []SortItem{{Expr: expr.VariableRef{Alias: "age"}}}, 0, 2, true)

	got := ageValues(t, ctx, sorted, "age")
	assert.Equal(t, []int64{1, 3}, got)
}

func TestDistinctDropsDuplicateRows(t *testing.T) {
	g := graph.New(4)
	teamAttr := g.Attrs.Intern("team")
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	c := g.CreateNode(nil)
	require.NoError(t, g.Store.SetNodeProperty(a, teamAttr, value.String("red")))
	require.NoError(t, g.Store.SetNodeProperty(b, teamAttr, value.String("red")))
	require.NoError(t, g.Store.SetNodeProperty(c, teamAttr, value.String("blue")))

	ctx := newTestCtx(g)
	proj := NewProject(NewAllNodeScan("n"), []ProjectItem{
		{Alias: "team", Expr: expr.VariableRef{Alias: "n", Path: []string{"team"}}},
	})
	distinct := NewDistinct(proj, []expr.Expr{expr.VariableRef{Alias: "team"}})
	require.NoError(t, distinct.Init(ctx))

	teamIdx, _ := ctx.Aliases.Lookup("team")
	var teams []string
	for {
		rec, ok := distinct.Consume(ctx)
		if !ok {
			break
		}
		v, _ := rec.GetIndex(teamIdx)
		s, _ := v.String()
		teams = append(teams, s)
	}
	assert.ElementsMatch(t, []string{"red", "blue"}, teams)
}

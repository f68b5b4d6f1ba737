package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func TestFilterForwardsOnlyTrueRows(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	g.CreateNode(nil)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	nIdx := ctx.Aliases.Intern("n")

	pred := expr.Comparison{
		Ops: []string{"="},
		Operands: []expr.Expr{
			expr.VariableRef{Alias: "n"},
			expr.Constant{Value: value.NodeRef(a)},
		},
	}
	f := NewFilter(NewAllNodeScan("n"), pred)
	require.NoError(t, f.Init(ctx))

	var got []uint64
	for {
		rec, ok := f.Consume(ctx)
		if !ok {
			break
		}
		v, _ := rec.GetIndex(nIdx)
		id, _ := v.NodeID()
		got = append(got, id)
	}
	assert.Equal(t, []uint64{a}, got)
}

func TestProjectRewritesRecordToOnlyProjectedAliases(t *testing.T) {
	g := graph.New(4)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	proj := NewProject(NewAllNodeScan("n"), []ProjectItem{
		{Alias: "out", Expr: expr.VariableRef{Alias: "n"}},
	})
	require.NoError(t, proj.Init(ctx))

	rec, ok := proj.Consume(ctx)
	require.True(t, ok)

	outIdx, _ := ctx.Aliases.Lookup("out")
	v, ok := rec.GetIndex(outIdx)
	require.True(t, ok)
	assert.Equal(t, value.KindNodeRef, v.Kind())

	_, ok = rec.Get("n")
	assert.False(t, ok, "project narrows visibility to only its own items")
}

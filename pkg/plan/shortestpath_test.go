package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/graph"
)

func TestShortestPathFindsWeightedDistance(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	c := g.CreateNode(nil)
	e1, err := g.Connect(a, b, 1)
	require.NoError(t, err)
	e2, err := g.Connect(b, c, 1)
	require.NoError(t, err)
	g.Flush()

	ctx := newTestCtx(g)
	child := newPairScan("src", "dst", [][2]uint64{{a, c}})
	sp := NewShortestPath(child, "src", "dst", "dist", []uint32{1}, map[uint64]float64{e1: 2, e2: 3}, 0)
	require.NoError(t, sp.Init(ctx))

	rec, ok := sp.Consume(ctx)
	require.True(t, ok)
	distIdx, _ := ctx.Aliases.Lookup("dist")
	v, _ := rec.GetIndex(distIdx)
	d, _ := v.Double()
	assert.Equal(t, 5.0, d)
}

func TestShortestPathUnreachableYieldsInfinity(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	c := g.CreateNode(nil)

	ctx := newTestCtx(g)
	child := newPairScan("src", "dst", [][2]uint64{{a, c}})
	sp := NewShortestPath(child, "src", "dst", "dist", []uint32{1}, nil, 0)
	require.NoError(t, sp.Init(ctx))

	rec, ok := sp.Consume(ctx)
	require.True(t, ok)
	distIdx, _ := ctx.Aliases.Lookup("dist")
	v, _ := rec.GetIndex(distIdx)
	d, _ := v.Double()
	assert.True(t, math.IsInf(d, 1))
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
)

func TestCartesianProductDrainsRightPerLeftRow(t *testing.T) {
	g := graph.New(4)
	g.CreateNode(nil)
	g.CreateNode(nil)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	left := NewAllNodeScan("a")
	right := NewAllNodeScan("b")
	cp := NewCartesianProduct(left, right)
	require.NoError(t, cp.Init(ctx))

	n := 0
	for {
		_, ok := cp.Consume(ctx)
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 9, n) // 3 x 3
}

func TestValueHashJoinMatchesOnEqualKeysOnly(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)

	ctx := newTestCtx(g)
	left := newPairScan("l", "lk", [][2]uint64{{a, 1}, {b, 2}})
	right := newPairScan("r", "rk", [][2]uint64{{a, 1}, {b, 3}})

	join := NewValueHashJoin(left, right, expr.VariableRef{Alias: "lk"}, expr.VariableRef{Alias: "rk"})
	require.NoError(t, join.Init(ctx))

	n := 0
	for {
		_, ok := join.Consume(ctx)
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 1, n) // only key 1 matches on both sides
}

func TestUnionDistinctDedupsAcrossChildren(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	left := newPairScan("a", "b", [][2]uint64{{a, a}})
	right := newPairScan("a", "b", [][2]uint64{{a, a}})
	u := NewUnion([]Operator{left, right}, true)
	require.NoError(t, u.Init(ctx))

	n := 0
	for {
		_, ok := u.Consume(ctx)
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 1, n)
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func TestUnwindFansOutListElements(t *testing.T) {
	g := graph.New(4)
	ctx := newTestCtx(g)

	src := expr.Constant{Value: value.List([]value.Value{value.Int64(1), value.Int64(2), value.Int64(3)})}
	u := NewUnwind(newUnitOperator(), src, "x")
	require.NoError(t, u.Init(ctx))

	xIdx, _ := ctx.Aliases.Lookup("x")
	var got []int64
	for {
		rec, ok := u.Consume(ctx)
		if !ok {
			break
		}
		v, ok := rec.GetIndex(xIdx)
		require.True(t, ok)
		i, ok := v.Int64()
		require.True(t, ok)
		got = append(got, i)
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestUnwindScalarProducesOneRow(t *testing.T) {
	g := graph.New(4)
	ctx := newTestCtx(g)

	u := NewUnwind(newUnitOperator(), expr.Constant{Value: value.Int64(42)}, "x")
	require.NoError(t, u.Init(ctx))

	xIdx, _ := ctx.Aliases.Lookup("x")
	rec, ok := u.Consume(ctx)
	require.True(t, ok)
	v, _ := rec.GetIndex(xIdx)
	i, _ := v.Int64()
	assert.Equal(t, int64(42), i)

	_, ok = u.Consume(ctx)
	assert.False(t, ok)
}

func TestUnwindNullProducesNoRows(t *testing.T) {
	g := graph.New(4)
	ctx := newTestCtx(g)

	u := NewUnwind(newUnitOperator(), expr.Constant{Value: value.Null}, "x")
	require.NoError(t, u.Init(ctx))

	_, ok := u.Consume(ctx)
	assert.False(t, ok)
}

func TestUnwindFansOutPerInputRow(t *testing.T) {
	g := graph.New(4)
	ctx := newTestCtx(g)

	child := newPairScan("a", "b", [][2]uint64{{1, 2}, {3, 4}})
	src := expr.Constant{Value: value.List([]value.Value{value.Int64(10), value.Int64(20)})}
	u := NewUnwind(child, src, "x")
	require.NoError(t, u.Init(ctx))

	xIdx, _ := ctx.Aliases.Lookup("x")
	var got []int64
	for {
		rec, ok := u.Consume(ctx)
		if !ok {
			break
		}
		v, _ := rec.GetIndex(xIdx)
		i, _ := v.Int64()
		got = append(got, i)
	}
	assert.Equal(t, []int64{10, 20, 10, 20}, got)
}

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/value"
)

func TestFnSubstringWithAndWithoutLength(t *testing.T) {
	ctx, _ := newCtx()
	v, err := fnSubstring(ctx, []value.Value{value.String("hello world"), value.Int64(6)})
	require.NoError(t, err)
	s, _ := v.String()
	assert.Equal(t, "world", s)

	v, err = fnSubstring(ctx, []value.Value{value.String("hello world"), value.Int64(0), value.Int64(5)})
	require.NoError(t, err)
	s, _ = v.String()
	assert.Equal(t, "hello", s)
}

func TestFnSizeOverStringListMap(t *testing.T) {
	ctx, _ := newCtx()
	v, _ := fnSize(ctx, []value.Value{value.String("abc")})
	i, _ := v.Int64()
	assert.Equal(t, int64(3), i)

	v, _ = fnSize(ctx, []value.Value{value.List([]value.Value{value.Int64(1), value.Int64(2)})})
	i, _ = v.Int64()
	assert.Equal(t, int64(2), i)

	v, _ = fnSize(ctx, []value.Value{value.Map(map[string]value.Value{"a": value.Int64(1)})})
	i, _ = v.Int64()
	assert.Equal(t, int64(1), i)
}

func TestFnToIntegerFromString(t *testing.T) {
	ctx, _ := newCtx()
	v, err := fnToInteger(ctx, []value.Value{value.String(" 42 ")})
	require.NoError(t, err)
	i, _ := v.Int64()
	assert.Equal(t, int64(42), i)
}

func TestFnTypeResolvesRelationTypeName(t *testing.T) {
	ctx, _ := newCtx()
	knows := ctx.RelTypes.Intern("KNOWS")
	a := ctx.Store.CreateNode(nil)
	b := ctx.Store.CreateNode(nil)
	edgeID := ctx.Store.CreateEdge(a, b, knows)

	v, err := fnType(ctx, []value.Value{value.EdgeRef(edgeID)})
	require.NoError(t, err)
	s, ok := v.String()
	require.True(t, ok)
	assert.Equal(t, "KNOWS", s)
}

func TestFnIDOnNodeAndEdge(t *testing.T) {
	ctx, _ := newCtx()
	id := ctx.Store.CreateNode(nil)
	v, err := fnID(ctx, []value.Value{value.NodeRef(id)})
	require.NoError(t, err)
	i, _ := v.Int64()
	assert.Equal(t, int64(id), i)

	other := ctx.Store.CreateNode(nil)
	edgeID := ctx.Store.CreateEdge(id, other, 0)
	v, err = fnID(ctx, []value.Value{value.EdgeRef(edgeID)})
	require.NoError(t, err)
	i, _ = v.Int64()
	assert.Equal(t, int64(edgeID), i)
}

func TestFnHeadLastTail(t *testing.T) {
	ctx, _ := newCtx()
	list := value.List([]value.Value{value.Int64(1), value.Int64(2), value.Int64(3)})

	h, _ := fnHead(ctx, []value.Value{list})
	hi, _ := h.Int64()
	assert.Equal(t, int64(1), hi)

	l, _ := fnLast(ctx, []value.Value{list})
	li, _ := l.Int64()
	assert.Equal(t, int64(3), li)

	tail, _ := fnTail(ctx, []value.Value{list})
	tlist, _ := tail.List()
	assert.Len(t, tlist, 2)
}

package algebra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingNotVisibleUntilGetOverlay(t *testing.T) {
	m := New[bool](4, 4)
	m.Set(1, 2, true)
	v, ok := m.Get(1, 2)
	require.True(t, ok)
	assert.True(t, v)
	// Not materialized yet.
	assert.Equal(t, uint64(0), m.NVals())
}

func TestWaitMaterializesAndIsIdempotent(t *testing.T) {
	m := New[bool](4, 4)
	m.Set(0, 0, true)
	m.Set(1, 1, true)
	m.Wait()
	assert.Equal(t, uint64(2), m.NVals())
	m.Wait() // T2: wait on an empty pending set is a no-op
	assert.Equal(t, uint64(2), m.NVals())
}

func TestRemoveThenSetCollapsesToLatest(t *testing.T) {
	m := New[bool](2, 2)
	m.Set(0, 0, true)
	m.Wait()
	m.Remove(0, 0)
	m.Set(0, 0, true)
	m.Wait()
	v, ok := m.Get(0, 0)
	require.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, uint64(1), m.NVals())
}

func TestDiscardPendingDropsStagedWrites(t *testing.T) {
	m := New[bool](2, 2)
	m.Set(0, 0, true)
	m.DiscardPending()
	m.Wait()
	_, ok := m.Get(0, 0)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), m.NVals())
}

func TestTranspose(t *testing.T) {
	a := New[bool](3, 3)
	a.Set(0, 1, true)
	a.Wait()
	c := New[bool](3, 3)
	Transpose(c, nil, a, Default)
	v, ok := c.Get(1, 0)
	require.True(t, ok)
	assert.True(t, v)
}

func TestMxMBooleanReachability(t *testing.T) {
	// A: 0->1, B: 1->2. A*B should give 0->2.
	a := New[bool](3, 3)
	a.Set(0, 1, true)
	a.Wait()
	b := New[bool](3, 3)
	b.Set(1, 2, true)
	b.Wait()
	c := New[bool](3, 3)
	MxM(c, nil, AnyPairBool, a, b, Default)
	v, ok := c.Get(0, 2)
	require.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, uint64(1), c.NVals())
}

func TestMxVConditionalTraverseShape(t *testing.T) {
	// R_t: 5 -> 7, 5 -> 9. q = unit vector at 5. transpose(R_t) * q should
	// yield {7, 9}, matching spec §4.7.2's ConditionalTraverse recipe.
	n := uint64(10)
	rt := New[bool](n, n)
	rt.Set(5, 7, true)
	rt.Set(5, 9, true)
	rt.Wait()

	q := UnitVector(n, 5)
	w := NewVector[bool](n)
	MxV(w, nil, AnyPairBool, rt, q, Descriptor{TransposeA: true})

	var got []uint64
	w.Each(func(i uint64, v bool) {
		if v {
			got = append(got, i)
		}
	})
	assert.ElementsMatch(t, []uint64{7, 9}, got)
}

func TestEMultIntersection(t *testing.T) {
	a := New[bool](2, 2)
	a.Set(0, 0, true)
	a.Set(0, 1, true)
	a.Wait()
	b := New[bool](2, 2)
	b.Set(0, 0, true)
	b.Wait()
	c := New[bool](2, 2)
	EMult(c, nil, nil, a, b, func(x, y bool) bool { return x && y }, Default)
	assert.Equal(t, uint64(1), c.NVals())
	v, ok := c.Get(0, 0)
	require.True(t, ok)
	assert.True(t, v)
}

func TestApplyUnary(t *testing.T) {
	a := New[int64](2, 2)
	a.Set(0, 0, 3)
	a.Wait()
	c := New[int64](2, 2)
	Apply(c, nil, a, func(v int64) int64 { return v * 10 }, Default)
	v, ok := c.Get(0, 0)
	require.True(t, ok)
	assert.Equal(t, int64(30), v)
}

func TestResizeGrowsOnly(t *testing.T) {
	m := New[bool](2, 2)
	m.Resize(5, 5)
	assert.Equal(t, uint64(5), m.Rows())
	m.Resize(1, 1)
	assert.Equal(t, uint64(5), m.Rows(), "resize never shrinks")
}

func TestAssignWithMask(t *testing.T) {
	c := New[bool](3, 3)
	mask := New[bool](3, 3)
	mask.Set(1, 1, true)
	mask.Wait()
	Assign(c, mask, Default, true, []uint64{0, 1, 2}, []uint64{0, 1, 2})
	c.Wait()
	assert.Equal(t, uint64(1), c.NVals())
	v, ok := c.Get(1, 1)
	require.True(t, ok)
	assert.True(t, v)
}

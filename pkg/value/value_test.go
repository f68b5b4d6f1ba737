package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareNullOrdering(t *testing.T) {
	require.Equal(t, 0, Null.Compare(Null))
	assert.Negative(t, Null.Compare(Bool(false)))
	assert.Positive(t, Int64(1).Compare(Null))
}

func TestCompareNumericCrossKind(t *testing.T) {
	assert.Equal(t, 0, Int64(2).Compare(Double(2.0)))
	assert.Negative(t, Int64(1).Compare(Double(1.5)))
	assert.Positive(t, Double(3.5).Compare(Int64(3)))
}

func TestCompareStrings(t *testing.T) {
	assert.Negative(t, String("a").Compare(String("b")))
	assert.Equal(t, 0, String("x").Compare(String("x")))
}

func TestHash64NumericEquivalence(t *testing.T) {
	assert.Equal(t, Int64(7).Hash64(), Double(7.0).Hash64())
}

func TestHash64Distinctness(t *testing.T) {
	assert.NotEqual(t, String("a").Hash64(), String("b").Hash64())
	assert.NotEqual(t, Null.Hash64(), Bool(false).Hash64())
}

func TestCloneDeepCopiesListAndMap(t *testing.T) {
	inner := List([]Value{Int64(1), Int64(2)})
	clone := inner.Clone()
	list, _ := clone.List()
	list[0] = Int64(99)
	orig, _ := inner.List()
	assert.Equal(t, int64(1), func() int64 { v, _ := orig[0].Int64(); return v }())

	m := Map(map[string]Value{"k": String("v")})
	mclone := m.Clone()
	mm, _ := mclone.Map()
	mm["k"] = String("mutated")
	origm, _ := m.Map()
	assert.Equal(t, "v", func() string { s, _ := origm["k"].String(); return s }())
}

func TestCompareListsLexicographic(t *testing.T) {
	a := List([]Value{Int64(1), Int64(2)})
	b := List([]Value{Int64(1), Int64(3)})
	assert.Negative(t, a.Compare(b))

	c := List([]Value{Int64(1)})
	assert.Negative(t, c.Compare(a)) // shorter prefix sorts first
}

func TestEqualUsesTotalOrder(t *testing.T) {
	assert.True(t, Int64(5).Equal(Double(5)))
	assert.False(t, Int64(5).Equal(Int64(6)))
}

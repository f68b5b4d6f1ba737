package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/value"
)

func TestSetGetByNameAndIndex(t *testing.T) {
	aliases := NewAliasMap()
	r := New(aliases)
	r.Set("n", value.Int64(42))

	v, ok := r.Get("n")
	require.True(t, ok)
	i, _ := v.Int64()
	assert.Equal(t, int64(42), i)

	idx, ok := aliases.Lookup("n")
	require.True(t, ok)
	v2, ok := r.GetIndex(idx)
	require.True(t, ok)
	assert.True(t, v.Equal(v2))
}

func TestUnsetSlotDistinctFromNull(t *testing.T) {
	aliases := NewAliasMap()
	r := New(aliases)
	aliases.Intern("x")
	_, ok := r.Get("x")
	assert.False(t, ok, "never-set slot reports unset, not null")

	r.Set("x", value.Null)
	v, ok := r.Get("x")
	require.True(t, ok)
	assert.True(t, v.IsNull())
}

func TestCloneDeepCopiesListPayload(t *testing.T) {
	aliases := NewAliasMap()
	r := New(aliases)
	r.Set("xs", value.List([]value.Value{value.Int64(1), value.Int64(2)}))

	clone := r.Clone()
	v, _ := r.Get("xs")
	list, _ := v.List()
	list[0] = value.Int64(99)

	cv, _ := clone.Get("xs")
	clist, _ := cv.List()
	first, _ := clist[0].Int64()
	assert.Equal(t, int64(1), first, "mutating the original's list must not affect the clone")
}

func TestMergeFillsOnlyUnsetSlots(t *testing.T) {
	aliases := NewAliasMap()
	a := aliases.Intern("a")
	b := aliases.Intern("b")
	_ = a
	_ = b

	left := New(aliases)
	left.Set("a", value.Int64(1))
	right := New(aliases)
	right.Set("a", value.Int64(999))
	right.Set("b", value.Int64(2))

	left.Merge(right)
	va, _ := left.Get("a")
	i, _ := va.Int64()
	assert.Equal(t, int64(1), i, "merge never overwrites a slot already set on the receiver")

	vb, ok := left.Get("b")
	require.True(t, ok)
	ib, _ := vb.Int64()
	assert.Equal(t, int64(2), ib)
}

func TestHash64StableAndOrderSensitiveToIndexNotInsertOrder(t *testing.T) {
	aliases := NewAliasMap()
	r1 := New(aliases)
	r1.Set("a", value.Int64(1))
	r1.Set("b", value.Int64(2))

	r2 := New(aliases)
	r2.Set("b", value.Int64(2))
	r2.Set("a", value.Int64(1))

	assert.Equal(t, r1.Hash64(), r2.Hash64())
}

func TestHash64DiffersOnDifferentValues(t *testing.T) {
	aliases := NewAliasMap()
	r1 := New(aliases)
	r1.Set("a", value.Int64(1))
	r2 := New(aliases)
	r2.Set("a", value.Int64(2))
	assert.NotEqual(t, r1.Hash64(), r2.Hash64())
}

func TestEqualTreatsUnsetVsUnsetAsEqual(t *testing.T) {
	aliases := NewAliasMap()
	aliases.Intern("a")
	aliases.Intern("b")
	r1 := New(aliases)
	r2 := New(aliases)
	assert.True(t, r1.Equal(r2))

	r1.Set("a", value.Int64(1))
	assert.False(t, r1.Equal(r2))
}

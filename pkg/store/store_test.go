package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/value"
)

func TestCreateNodeIDsMonotonic(t *testing.T) {
	s := New()
	a := s.CreateNode(nil)
	b := s.CreateNode(nil)
	assert.Equal(t, uint64(0), a)
	assert.Equal(t, uint64(1), b)
	assert.Equal(t, uint64(2), s.NodeCount())
}

func TestDeleteNodeTombstonesNotFrees(t *testing.T) {
	s := New()
	id := s.CreateNode(nil)
	require.NoError(t, s.DeleteNode(id))
	assert.Nil(t, s.GetNode(id))
	assert.Equal(t, uint64(1), s.NodeCount(), "slot stays allocated, id never reused")

	// A second delete of the same (already tombstoned) id fails.
	assert.ErrorIs(t, s.DeleteNode(id), ErrEntityMissing)
}

func TestEachNodeSkipsTombstoned(t *testing.T) {
	s := New()
	a := s.CreateNode(nil)
	s.CreateNode(nil)
	require.NoError(t, s.DeleteNode(a))

	var seen []uint64
	s.EachNode(func(n *NodeSlot) { seen = append(seen, n.ID) })
	assert.Equal(t, []uint64{1}, seen)
}

func TestPropertyBagAbsentVsNull(t *testing.T) {
	s := New()
	id := s.CreateNode(nil)
	attrs := NewAttributeTable()
	name := attrs.Intern("age")

	n := s.GetNode(id)
	_, present := n.Props[name]
	assert.False(t, present, "property never set is absent, not null")

	require.NoError(t, s.SetNodeProperty(id, name, value.Null))
	n = s.GetNode(id)
	v, present := n.Props[name]
	assert.True(t, present)
	assert.True(t, v.IsNull())
}

func TestAttributeTableInternIsStable(t *testing.T) {
	attrs := NewAttributeTable()
	a := attrs.Intern("name")
	b := attrs.Intern("name")
	assert.Equal(t, a, b)
	name, ok := attrs.Name(a)
	require.True(t, ok)
	assert.Equal(t, "name", name)
}

func TestAddRemoveLabel(t *testing.T) {
	s := New()
	id := s.CreateNode(nil)
	added, err := s.AddLabel(id, 5)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddLabel(id, 5)
	require.NoError(t, err)
	assert.False(t, added, "re-adding an existing label is a no-op")

	removed, err := s.RemoveLabel(id, 5)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestCreateEdgeAndPropertyBagClone(t *testing.T) {
	s := New()
	n1 := s.CreateNode(nil)
	n2 := s.CreateNode(nil)
	eid := s.CreateEdge(n1, n2, 0)
	e := s.GetEdge(eid)
	require.NotNil(t, e)
	assert.Equal(t, n1, e.Src)
	assert.Equal(t, n2, e.Dst)

	bag := PropertyBag{0: value.String("x")}
	clone := bag.Clone()
	clone[0] = value.String("y")
	orig, _ := bag[0].String()
	assert.Equal(t, "x", orig)
}

package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func buildSampleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(4)
	nameAttr := g.Attrs.Intern("name")
	personLabel := g.Labels.Intern("Person")
	knows := g.RelTypes.Intern("KNOWS")

	alice := g.CreateNode([]uint32{personLabel})
	require.NoError(t, g.Store.SetNodeProperty(alice, nameAttr, value.String("Alice")))
	bob := g.CreateNode([]uint32{personLabel})
	require.NoError(t, g.Store.SetNodeProperty(bob, nameAttr, value.String("Bob")))

	// A third node that gets deleted — its tombstoned slot must not appear
	// in the checkpoint, and the KNOWS edge below must still resolve
	// correctly despite the gap it leaves in NodeID space.
	carol := g.CreateNode([]uint32{personLabel})
	require.NoError(t, g.DeleteNode(carol))

	edgeID, err := g.Connect(alice, bob, knows)
	require.NoError(t, err)
	since := g.Attrs.Intern("since")
	require.NoError(t, g.Store.SetEdgeProperty(edgeID, since, value.Int64(2020)))

	g.Flush()
	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := buildSampleGraph(t)
	dir := t.TempDir()

	manifest, err := Save(dir, "test-graph", g)
	require.NoError(t, err)
	assert.Equal(t, "test-graph", manifest.GraphName)
	assert.Equal(t, 2, manifest.NodeCount) // carol's tombstone is excluded
	assert.Equal(t, 1, manifest.EdgeCount)

	loaded, loadedManifest, err := Load(dir, 4)
	require.NoError(t, err)
	assert.Equal(t, manifest.NodeCount, loadedManifest.NodeCount)
	assert.Equal(t, uint64(2), loaded.Store.NodeCount())
	assert.Equal(t, uint64(1), loaded.Store.EdgeCount())

	nameAttr, ok := loaded.Attrs.Lookup("name")
	require.True(t, ok)
	var names []string
	loaded.Store.EachNode(func(n *store.NodeSlot) {
		v, ok := n.Props[nameAttr]
		require.True(t, ok)
		s, _ := v.String()
		names = append(names, s)
	})
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)

	sinceAttr, ok := loaded.Attrs.Lookup("since")
	require.True(t, ok)
	loaded.Store.EachEdge(func(e *store.EdgeSlot) {
		v, ok := e.Props[sinceAttr]
		require.True(t, ok)
		n, _ := v.Int64()
		assert.Equal(t, int64(2020), n)
		typeName, _ := loaded.RelTypes.Name(e.Type)
		assert.Equal(t, "KNOWS", typeName)
	})
}

func TestManifestRoundTripsThroughYAML(t *testing.T) {
	dir := t.TempDir()
	g := graph.New(4)
	g.Flush()
	manifest, err := Save(dir, "empty-graph", g)
	require.NoError(t, err)
	assert.Equal(t, 0, manifest.NodeCount)
	assert.Equal(t, 0, manifest.EdgeCount)

	reread, err := readManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, manifest.GraphName, reread.GraphName)
	assert.Equal(t, manifest.WrittenAt.Unix(), reread.WrittenAt.Unix())
}

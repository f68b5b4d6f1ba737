package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/graph"
)

func TestResultsRunCollectsAllRows(t *testing.T) {
	g := graph.New(4)
	g.CreateNode(nil)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	res := NewResults(NewAllNodeScan("n"), 0)
	require.NoError(t, res.Init(ctx))
	require.NoError(t, res.Run(ctx))
	assert.Len(t, res.Rows, 2)
	assert.False(t, res.Truncated)
}

func TestResultsRunStopsAtRowCap(t *testing.T) {
	g := graph.New(4)
	g.CreateNode(nil)
	g.CreateNode(nil)
	g.CreateNode(nil)

	ctx := newTestCtx(g)
	res := NewResults(NewAllNodeScan("n"), 2)
	require.NoError(t, res.Init(ctx))
	require.NoError(t, res.Run(ctx))
	assert.Len(t, res.Rows, 2)
	assert.True(t, res.Truncated)
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// singleRowOperator feeds exactly one empty record through, the upstream
// shape CREATE with no preceding MATCH gets.
type singleRowOperator struct {
	baseState
	aliases *record.AliasMap
	emitted bool
}

func (s *singleRowOperator) Init(ctx *ExecContext) error {
	s.aliases = ctx.Aliases
	s.emitted = false
	s.markInit()
	return nil
}
func (s *singleRowOperator) Consume(ctx *ExecContext) (*record.Record, bool) {
	if s.emitted {
		s.markExhausted()
		return nil, false
	}
	s.emitted = true
	s.markProducing()
	return record.New(s.aliases), true
}
func (s *singleRowOperator) Reset(ctx *ExecContext) error { s.emitted = false; return nil }
func (s *singleRowOperator) Clone() Operator              { return &singleRowOperator{} }
func (s *singleRowOperator) Free()                        {}

func TestCreateAllocatesNodesAndRelationship(t *testing.T) {
	g := graph.New(4)
	nameAttr := g.Attrs.Intern("name")

	ctx := newTestCtx(g)
	create := NewCreate(&singleRowOperator{},
		[]NodeSpec{
			{Alias: "a", Labels: []uint32{1}, Props: map[store.AttrID]expr.Expr{nameAttr: expr.Constant{Value: value.String("Ann")}}},
			{Alias: "b", Labels: []uint32{1}},
		},
		[]RelSpec{{Alias: "r", FromAlias: "a", ToAlias: "b", RelType: 2}},
	)
	require.NoError(t, create.Init(ctx))
	rec, ok := create.Consume(ctx)
	require.True(t, ok)

	aIdx, _ := ctx.Aliases.Lookup("a")
	bIdx, _ := ctx.Aliases.Lookup("b")
	rIdx, _ := ctx.Aliases.Lookup("r")

	av, _ := rec.GetIndex(aIdx)
	aID, _ := av.NodeID()
	bv, _ := rec.GetIndex(bIdx)
	bID, _ := bv.NodeID()
	rv, _ := rec.GetIndex(rIdx)
	edgeID, _ := rv.EdgeID()

	assert.EqualValues(t, 2, ctx.Graph.Store.NodeCount())
	assert.EqualValues(t, 1, ctx.Graph.Store.EdgeCount())

	n := ctx.Graph.Store.GetNode(aID)
	require.NotNil(t, n)
	nameVal, ok := n.Props[nameAttr]
	require.True(t, ok)
	s, _ := nameVal.String()
	assert.Equal(t, "Ann", s)

	e := ctx.Graph.Store.GetEdge(edgeID)
	require.NotNil(t, e)
	assert.Equal(t, aID, e.Src)
	assert.Equal(t, bID, e.Dst)
}

func TestUpdateSetsPropertyAndAddsLabel(t *testing.T) {
	g := graph.New(4)
	nameAttr := g.Attrs.Intern("name")
	a := g.CreateNode(nil)

	ctx := newTestCtx(g)
	update := NewUpdate(NewAllNodeScan("n"),
		[]SetItem{{Alias: "n", Attr: nameAttr, Value: expr.Constant{Value: value.String("Bob")}}},
		nil,
	)
	require.NoError(t, update.Init(ctx))
	_, ok := update.Consume(ctx)
	require.True(t, ok)

	n := ctx.Graph.Store.GetNode(a)
	require.NotNil(t, n)
	v, ok := n.Props[nameAttr]
	require.True(t, ok)
	s, _ := v.String()
	assert.Equal(t, "Bob", s)
}

func TestDeleteRefusesNonDetachWithIncidentEdges(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	_, err := g.Connect(a, b, 1)
	require.NoError(t, err)
	g.Flush()

	ctx := newTestCtx(g)
	del := NewDelete(NewAllNodeScan("n"), []string{"n"}, false)
	require.NoError(t, del.Init(ctx))
	_, ok := del.Consume(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, ctx.Err(), ErrNodeHasRelationships)
}

func TestDetachDeleteRemovesNodeAndEdges(t *testing.T) {
	g := graph.New(4)
	a := g.CreateNode(nil)
	b := g.CreateNode(nil)
	_, err := g.Connect(a, b, 1)
	require.NoError(t, err)
	g.Flush()

	ctx := newTestCtx(g)
	del := NewDelete(NewAllNodeScan("n"), []string{"n"}, true)
	require.NoError(t, del.Init(ctx))
	for {
		_, ok := del.Consume(ctx)
		if !ok {
			break
		}
	}
	require.NoError(t, ctx.Err())
	assert.False(t, g.Store.AliveNode(a))
	assert.False(t, g.Store.AliveNode(b))
}

package plan

import (
	"errors"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/hexastore"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// ErrNodeHasRelationships is returned by a plain DELETE (not DETACH
// DELETE) on a node that still has incident edges, matching Cypher's
// refusal to silently orphan relationships.
var ErrNodeHasRelationships = errors.New("cannot delete a node with relationships without DETACH DELETE")

// NodeSpec describes one node pattern to materialize under CREATE/MERGE.
type NodeSpec struct {
	Alias  string
	Labels []uint32
	Props  map[store.AttrID]expr.Expr
}

// RelSpec describes one relationship pattern to materialize, between two
// already-bound (or just-created) node aliases.
type RelSpec struct {
	Alias              string
	FromAlias, ToAlias string
	RelType            uint32
	Props              map[store.AttrID]expr.Expr
}

func applyNodeProps(ctx *ExecContext, rec *record.Record, id uint64, props map[store.AttrID]expr.Expr) error {
	ec := exprContext(ctx, rec)
	for attr, e := range props {
		v, err := e.Evaluate(ec)
		if err != nil {
			return err
		}
		if v.IsNull() {
			continue
		}
		if err := ctx.Graph.Store.SetNodeProperty(id, attr, v); err != nil {
			return err
		}
		ctx.Stats.PropertiesSet++
	}
	return nil
}

func applyEdgeProps(ctx *ExecContext, rec *record.Record, id uint64, props map[store.AttrID]expr.Expr) error {
	ec := exprContext(ctx, rec)
	for attr, e := range props {
		v, err := e.Evaluate(ec)
		if err != nil {
			return err
		}
		if v.IsNull() {
			continue
		}
		if err := ctx.Graph.Store.SetEdgeProperty(id, attr, v); err != nil {
			return err
		}
		ctx.Stats.PropertiesSet++
	}
	return nil
}

// Create implements §4.7.6's CREATE clause: one input row fans out into
// exactly one output row with every pattern element newly allocated and
// bound, in node-then-relationship order so a relationship's endpoints are
// already live by the time Connect runs.
type Create struct {
	baseState
	Child Operator
	Nodes []NodeSpec
	Rels  []RelSpec

	nodeIdx []int
	relIdx  []int
}

func NewCreate(child Operator, nodes []NodeSpec, rels []RelSpec) *Create {
	return &Create{Child: child, Nodes: nodes, Rels: rels}
}

func (c *Create) Init(ctx *ExecContext) error {
	if err := c.Child.Init(ctx); err != nil {
		return err
	}
	c.nodeIdx = make([]int, len(c.Nodes))
	for i, n := range c.Nodes {
		c.nodeIdx[i] = ctx.Aliases.Intern(n.Alias)
	}
	c.relIdx = make([]int, len(c.Rels))
	for i, r := range c.Rels {
		c.relIdx[i] = ctx.Aliases.Intern(r.Alias)
	}
	c.markInit()
	return nil
}

func (c *Create) apply(ctx *ExecContext, rec *record.Record) error {
	for i, n := range c.Nodes {
		id := ctx.Graph.CreateNode(n.Labels)
		ctx.Stats.NodesCreated++
		ctx.Stats.LabelsAdded += uint64(len(n.Labels))
		rec.SetIndex(c.nodeIdx[i], value.NodeRef(id))
		if err := applyNodeProps(ctx, rec, id, n.Props); err != nil {
			return err
		}
	}
	for i, r := range c.Rels {
		srcVal, ok := rec.Get(r.FromAlias)
		if !ok {
			return store.ErrEntityMissing
		}
		src, ok := srcVal.NodeID()
		if !ok {
			return store.ErrEntityMissing
		}
		dstVal, ok := rec.Get(r.ToAlias)
		if !ok {
			return store.ErrEntityMissing
		}
		dst, ok := dstVal.NodeID()
		if !ok {
			return store.ErrEntityMissing
		}
		edgeID, err := ctx.Graph.Connect(src, dst, r.RelType)
		if err != nil {
			return err
		}
		ctx.Stats.RelationshipsCreated++
		rec.SetIndex(c.relIdx[i], value.EdgeRef(edgeID))
		if err := applyEdgeProps(ctx, rec, edgeID, r.Props); err != nil {
			return err
		}
	}
	return nil
}

func (c *Create) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := c.checkConsume(); err != nil {
		ctx.SetErr(err)
		c.markError()
		return nil, false
	}
	if ctx.Cancelled() {
		c.markExhausted()
		return nil, false
	}
	rec, ok := c.Child.Consume(ctx)
	if !ok {
		c.markExhausted()
		return nil, false
	}
	if err := c.apply(ctx, rec); err != nil {
		ctx.SetErr(err)
		c.markError()
		return nil, false
	}
	c.markProducing()
	return rec, true
}

func (c *Create) Reset(ctx *ExecContext) error {
	if err := c.Child.Reset(ctx); err != nil {
		return err
	}
	c.markInit()
	return nil
}

func (c *Create) Clone() Operator {
	return &Create{Child: c.Child.Clone(), Nodes: append([]NodeSpec(nil), c.Nodes...), Rels: append([]RelSpec(nil), c.Rels...)}
}
func (c *Create) Free() { c.Child.Free(); c.markFreed() }

// Merge implements §4.7.6: a nested match against MatchPlan; rows it
// produces take the OnMatch branch, and an empty match falls back to
// CreatePlan followed by OnCreate. MatchPlan and CreatePlan are built by
// the same lowering that builds every other operator tree, so Merge is
// mechanically just a conditional dispatch between two already-built
// sub-plans plus a branch-specific property-update pass.
type Merge struct {
	baseState
	Child      Operator
	MatchPlan  Operator // probes whether the pattern already exists for this row
	CreatePlan *Create  // runs when MatchPlan produces nothing
	OnMatch    []SetItem
	OnCreate   []SetItem
}

func NewMerge(child Operator, matchPlan Operator, createPlan *Create, onMatch, onCreate []SetItem) *Merge {
	return &Merge{Child: child, MatchPlan: matchPlan, CreatePlan: createPlan, OnMatch: onMatch, OnCreate: onCreate}
}

func (m *Merge) Init(ctx *ExecContext) error {
	if err := m.Child.Init(ctx); err != nil {
		return err
	}
	if err := m.MatchPlan.Init(ctx); err != nil {
		return err
	}
	if err := m.CreatePlan.Init(ctx); err != nil {
		return err
	}
	m.markInit()
	return nil
}

func (m *Merge) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := m.checkConsume(); err != nil {
		ctx.SetErr(err)
		m.markError()
		return nil, false
	}
	if ctx.Cancelled() {
		m.markExhausted()
		return nil, false
	}
	rec, ok := m.Child.Consume(ctx)
	if !ok {
		m.markExhausted()
		return nil, false
	}
	if err := m.MatchPlan.Reset(ctx); err != nil {
		ctx.SetErr(err)
		m.markError()
		return nil, false
	}
	matched, ok := m.MatchPlan.Consume(ctx)
	var items []SetItem
	var out *record.Record
	if ok {
		out = matched
		items = m.OnMatch
	} else {
		if err := m.CreatePlan.apply(ctx, rec); err != nil {
			ctx.SetErr(err)
			m.markError()
			return nil, false
		}
		out = rec
		items = m.OnCreate
	}
	if err := applySetItems(ctx, out, items); err != nil {
		ctx.SetErr(err)
		m.markError()
		return nil, false
	}
	m.markProducing()
	return out, true
}

func (m *Merge) Reset(ctx *ExecContext) error {
	if err := m.Child.Reset(ctx); err != nil {
		return err
	}
	m.markInit()
	return nil
}

func (m *Merge) Clone() Operator {
	return &Merge{
		Child: m.Child.Clone(), MatchPlan: m.MatchPlan.Clone(), CreatePlan: m.CreatePlan.Clone().(*Create),
		OnMatch: append([]SetItem(nil), m.OnMatch...), OnCreate: append([]SetItem(nil), m.OnCreate...),
	}
}
func (m *Merge) Free() { m.Child.Free(); m.MatchPlan.Free(); m.CreatePlan.Free(); m.markFreed() }

// SetItem is one SET assignment: a property value, or a label add.
type SetItem struct {
	Alias    string
	Attr     store.AttrID
	Value    expr.Expr // nil for a label-only item
	AddLabel uint32
	HasLabel bool
}

func applySetItems(ctx *ExecContext, rec *record.Record, items []SetItem) error {
	ec := exprContext(ctx, rec)
	for _, item := range items {
		v, ok := rec.Get(item.Alias)
		if !ok {
			continue
		}
		id, isNode := v.NodeID()
		if item.HasLabel {
			if !isNode {
				continue
			}
			if _, err := ctx.Graph.AddLabel(id, item.AddLabel); err != nil {
				return err
			}
			ctx.Stats.LabelsAdded++
			continue
		}
		val, err := item.Value.Evaluate(ec)
		if err != nil {
			return err
		}
		if isNode {
			if err := ctx.Graph.Store.SetNodeProperty(id, item.Attr, val); err != nil {
				return err
			}
		} else if eid, isEdge := v.EdgeID(); isEdge {
			if err := ctx.Graph.Store.SetEdgeProperty(eid, item.Attr, val); err != nil {
				return err
			}
		} else {
			continue
		}
		ctx.Stats.PropertiesSet++
	}
	return nil
}

// RemoveItem is one REMOVE: a property clear, or a label removal.
type RemoveItem struct {
	Alias       string
	Attr        store.AttrID
	HasAttr     bool
	RemoveLabel uint32
	HasLabel    bool
}

// Update implements §4.7.6's SET/REMOVE clauses against the bound rows of
// its child.
type Update struct {
	baseState
	Child   Operator
	Sets    []SetItem
	Removes []RemoveItem
}

func NewUpdate(child Operator, sets []SetItem, removes []RemoveItem) *Update {
	return &Update{Child: child, Sets: sets, Removes: removes}
}

func (u *Update) Init(ctx *ExecContext) error {
	if err := u.Child.Init(ctx); err != nil {
		return err
	}
	u.markInit()
	return nil
}

func (u *Update) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := u.checkConsume(); err != nil {
		ctx.SetErr(err)
		u.markError()
		return nil, false
	}
	if ctx.Cancelled() {
		u.markExhausted()
		return nil, false
	}
	rec, ok := u.Child.Consume(ctx)
	if !ok {
		u.markExhausted()
		return nil, false
	}
	if err := applySetItems(ctx, rec, u.Sets); err != nil {
		ctx.SetErr(err)
		u.markError()
		return nil, false
	}
	for _, r := range u.Removes {
		v, ok := rec.Get(r.Alias)
		if !ok {
			continue
		}
		id, isNode := v.NodeID()
		if !isNode {
			continue
		}
		if r.HasAttr {
			if err := ctx.Graph.Store.RemoveNodeProperty(id, r.Attr); err != nil {
				ctx.SetErr(err)
				u.markError()
				return nil, false
			}
		}
		if r.HasLabel {
			if _, err := ctx.Graph.RemoveLabel(id, r.RemoveLabel); err != nil {
				ctx.SetErr(err)
				u.markError()
				return nil, false
			}
			ctx.Stats.LabelsRemoved++
		}
	}
	u.markProducing()
	return rec, true
}

func (u *Update) Reset(ctx *ExecContext) error {
	if err := u.Child.Reset(ctx); err != nil {
		return err
	}
	u.markInit()
	return nil
}

func (u *Update) Clone() Operator {
	return &Update{Child: u.Child.Clone(), Sets: append([]SetItem(nil), u.Sets...), Removes: append([]RemoveItem(nil), u.Removes...)}
}
func (u *Update) Free() { u.Child.Free(); u.markFreed() }

// Delete implements §4.7.6's DELETE/DETACH DELETE: collects every distinct
// entity named by Variables across the whole input (so a later row's
// re-mention of an already-deleted id is a no-op), then deletes nodes
// after edges — deferred until the child is fully drained, since deleting
// mid-scan would invalidate a concurrently running scan's snapshot.
type Delete struct {
	baseState
	Child     Operator
	Variables []string
	Detach    bool

	queued []*record.Record
	pos    int
	done   bool
}

func NewDelete(child Operator, variables []string, detach bool) *Delete {
	return &Delete{Child: child, Variables: variables, Detach: detach}
}

func (d *Delete) Init(ctx *ExecContext) error {
	if err := d.Child.Init(ctx); err != nil {
		return err
	}
	d.queued = nil
	d.pos = 0
	d.done = false
	d.markInit()
	return nil
}

func (d *Delete) drain(ctx *ExecContext) error {
	seenNodes := make(map[uint64]bool)
	seenEdges := make(map[uint64]bool)
	var edges, nodes []uint64
	for {
		if ctx.Cancelled() {
			break
		}
		rec, ok := d.Child.Consume(ctx)
		if !ok {
			break
		}
		d.queued = append(d.queued, rec)
		for _, alias := range d.Variables {
			v, ok := rec.Get(alias)
			if !ok {
				continue
			}
			if id, ok := v.NodeID(); ok && !seenNodes[id] {
				seenNodes[id] = true
				nodes = append(nodes, id)
			} else if id, ok := v.EdgeID(); ok && !seenEdges[id] {
				seenEdges[id] = true
				edges = append(edges, id)
			}
		}
	}
	for _, id := range edges {
		if ctx.Graph.Store.AliveEdge(id) {
			if err := ctx.Graph.DeleteEdge(id); err != nil {
				return err
			}
			ctx.Stats.RelationshipsDeleted++
		}
	}
	for _, id := range nodes {
		if !ctx.Graph.Store.AliveNode(id) {
			continue
		}
		if !d.Detach && hasIncidentEdges(ctx, id) {
			return ErrNodeHasRelationships
		}
		if err := ctx.Graph.DeleteNode(id); err != nil {
			return err
		}
		ctx.Stats.NodesDeleted++
	}
	return nil
}

func hasIncidentEdges(ctx *ExecContext, id uint64) bool {
	if len(ctx.Graph.Hexastore().Scan(hexastore.Pattern{BindS: true, S: id})) > 0 {
		return true
	}
	return len(ctx.Graph.Hexastore().Scan(hexastore.Pattern{BindO: true, O: id})) > 0
}

func (d *Delete) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := d.checkConsume(); err != nil {
		ctx.SetErr(err)
		d.markError()
		return nil, false
	}
	if !d.done {
		if err := d.drain(ctx); err != nil {
			ctx.SetErr(err)
			d.markError()
			return nil, false
		}
		d.done = true
	}
	if d.pos >= len(d.queued) {
		d.markExhausted()
		return nil, false
	}
	rec := d.queued[d.pos]
	d.pos++
	d.markProducing()
	return rec, true
}

func (d *Delete) Reset(ctx *ExecContext) error {
	if err := d.Child.Reset(ctx); err != nil {
		return err
	}
	d.queued = nil
	d.pos = 0
	d.done = false
	d.markInit()
	return nil
}

func (d *Delete) Clone() Operator {
	return &Delete{Child: d.Child.Clone(), Variables: append([]string(nil), d.Variables...), Detach: d.Detach}
}
func (d *Delete) Free() { d.Child.Free(); d.markFreed() }

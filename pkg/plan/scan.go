package plan

import (
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// AllNodeScan emits one record per alive node in EntityStore, per
// §4.7.1. Node ids are snapshotted at Init so Reset (CartesianProduct's
// per-left-row child reset) restarts from the same set without
// re-walking a store that may have grown mid-query.
type AllNodeScan struct {
	baseState
	Alias string

	aliasIdx int
	ids      []uint64
	pos      int
}

func NewAllNodeScan(alias string) *AllNodeScan { return &AllNodeScan{Alias: alias} }

func (s *AllNodeScan) Init(ctx *ExecContext) error {
	s.aliasIdx = ctx.Aliases.Intern(s.Alias)
	s.ids = s.ids[:0]
	ctx.Graph.Store.EachNode(func(n *store.NodeSlot) { s.ids = append(s.ids, n.ID) })
	s.pos = 0
	s.markInit()
	return nil
}

func (s *AllNodeScan) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := s.checkConsume(); err != nil {
		ctx.SetErr(err)
		s.markError()
		return nil, false
	}
	for s.pos < len(s.ids) {
		id := s.ids[s.pos]
		s.pos++
		if ctx.Cancelled() {
			s.markExhausted()
			return nil, false
		}
		if !ctx.Graph.Store.AliveNode(id) {
			continue // tombstoned since the scan started, in this or another query
		}
		rec := record.New(ctx.Aliases)
		rec.SetIndex(s.aliasIdx, value.NodeRef(id))
		s.markProducing()
		return rec, true
	}
	s.markExhausted()
	return nil, false
}

func (s *AllNodeScan) Reset(ctx *ExecContext) error {
	s.pos = 0
	s.markInit()
	return nil
}

func (s *AllNodeScan) Clone() Operator { return &AllNodeScan{Alias: s.Alias} }
func (s *AllNodeScan) Free()           { s.markFreed() }

// LabelScan emits one record per node carrying a given label, per
// §4.7.1. Membership is checked through the label matrix's pending-aware
// Get rather than a raw diagonal walk, so a label staged earlier in the
// same query (not yet flushed) is visible to a later clause that scans
// for it.
type LabelScan struct {
	baseState
	Alias   string
	LabelID uint32

	aliasIdx int
	ids      []uint64
	pos      int
}

func NewLabelScan(alias string, labelID uint32) *LabelScan {
	return &LabelScan{Alias: alias, LabelID: labelID}
}

func (s *LabelScan) Init(ctx *ExecContext) error {
	s.aliasIdx = ctx.Aliases.Intern(s.Alias)
	l := ctx.Graph.LabelMatrix(s.LabelID)
	s.ids = s.ids[:0]
	ctx.Graph.Store.EachNode(func(n *store.NodeSlot) {
		if v, ok := l.Get(n.ID, n.ID); ok && v {
			s.ids = append(s.ids, n.ID)
		}
	})
	s.pos = 0
	s.markInit()
	return nil
}

func (s *LabelScan) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := s.checkConsume(); err != nil {
		ctx.SetErr(err)
		s.markError()
		return nil, false
	}
	for s.pos < len(s.ids) {
		id := s.ids[s.pos]
		s.pos++
		if ctx.Cancelled() {
			s.markExhausted()
			return nil, false
		}
		if !ctx.Graph.Store.AliveNode(id) {
			continue
		}
		rec := record.New(ctx.Aliases)
		rec.SetIndex(s.aliasIdx, value.NodeRef(id))
		s.markProducing()
		return rec, true
	}
	s.markExhausted()
	return nil, false
}

func (s *LabelScan) Reset(ctx *ExecContext) error {
	s.pos = 0
	s.markInit()
	return nil
}

func (s *LabelScan) Clone() Operator { return &LabelScan{Alias: s.Alias, LabelID: s.LabelID} }
func (s *LabelScan) Free()           { s.markFreed() }

// RangePredicate bounds an IndexScan's attribute value.
type RangePredicate struct {
	Attr     store.AttrID
	Min, Max value.Value // read only when HasMin / HasMax is set; an unset side is unbounded
	HasMin   bool
	HasMax   bool
}

func (p RangePredicate) matches(v value.Value) bool {
	if p.HasMin && v.Compare(p.Min) < 0 {
		return false
	}
	if p.HasMax && v.Compare(p.Max) > 0 {
		return false
	}
	return true
}

// IndexScan consults a secondary ordered index when one exists; this
// implementation carries no such index (spec §4.7.1 makes it optional),
// so it always falls back to LabelScan + an attribute-range filter.
type IndexScan struct {
	baseState
	inner     *LabelScan
	Predicate RangePredicate
}

func NewIndexScan(alias string, labelID uint32, predicate RangePredicate) *IndexScan {
	return &IndexScan{inner: NewLabelScan(alias, labelID), Predicate: predicate}
}

func (s *IndexScan) Init(ctx *ExecContext) error {
	if err := s.inner.Init(ctx); err != nil {
		return err
	}
	s.markInit()
	return nil
}

func (s *IndexScan) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := s.checkConsume(); err != nil {
		ctx.SetErr(err)
		s.markError()
		return nil, false
	}
	for {
		rec, ok := s.inner.Consume(ctx)
		if !ok {
			s.markExhausted()
			return nil, false
		}
		id, _ := mustNodeID(rec, s.inner.aliasIdx)
		n := ctx.Graph.Store.GetNode(id)
		if n == nil {
			continue
		}
		v, present := n.Props[s.Predicate.Attr]
		if !present || !s.Predicate.matches(v) {
			continue
		}
		s.markProducing()
		return rec, true
	}
}

func mustNodeID(rec *record.Record, idx int) (uint64, bool) {
	v, ok := rec.GetIndex(idx)
	if !ok {
		return 0, false
	}
	return v.NodeID()
}

func (s *IndexScan) Reset(ctx *ExecContext) error { return s.inner.Reset(ctx) }
func (s *IndexScan) Clone() Operator {
	return &IndexScan{inner: s.inner.Clone().(*LabelScan), Predicate: s.Predicate}
}
func (s *IndexScan) Free() { s.inner.Free(); s.markFreed() }

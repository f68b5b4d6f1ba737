package plan

import (
	"sort"

	"github.com/orneryd/pgraphdb/pkg/algebra"
	"github.com/orneryd/pgraphdb/pkg/hexastore"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// Direction constrains a traversal to the pattern's arrow: -->  is DirOut,
// <-- is DirIn, and a bare -- (or explicit undirected pattern) is DirBoth,
// matching either edge orientation.
type Direction int

const (
	DirOut Direction = iota
	DirIn
	DirBoth
)

// relTypesOrWildcard returns types if non-empty, else every relationship
// type the graph currently has a matrix for — the -[r]-> case with no
// type filter in the pattern.
func relTypesOrWildcard(ctx *ExecContext, types []uint32) []uint32 {
	if len(types) > 0 {
		return types
	}
	return ctx.Graph.AllRelTypes()
}

// traverseHit is one (relType, dst, edge) landing from a single source
// node, before it's re-emitted as a Record.
type traverseHit struct {
	relType uint32
	dst     uint64
	edgeID  uint64
}

// edgeIDBetween recovers the concrete edge identity for a (src,relType,dst)
// triple via a hexastore scan with subject, type and object bound (the SPO
// permutation) — the matrices only carry
// boolean reachability, so the triplet index is what turns a reachable bit
// back into a bindable relationship variable.
func edgeIDBetween(ctx *ExecContext, src uint64, relType uint32, dst uint64) (uint64, bool) {
	hits := ctx.Graph.Hexastore().Scan(hexastore.Pattern{
		BindS: true, S: src,
		BindP: true, RelType: relType,
		BindO: true, O: dst,
	})
	if len(hits) == 0 {
		return 0, false
	}
	// Single-edge-per-(type,src,dst) mode (the resolved Open Question):
	// there is at most one.
	return hits[0].EdgeID, true
}

// ConditionalTraverse implements the fixed-length directed traversal of
// §4.7.2: q <- e_src, w <- R_t^T (x) q per candidate type, one output
// record per set bit of w, in ascending destination NodeID order.
type ConditionalTraverse struct {
	baseState
	Child                         Operator
	SrcAlias, EdgeAlias, DstAlias string
	RelTypes                      []uint32 // empty = any type
	Dir                           Direction

	srcIdx, edgeIdx, dstIdx int
	pending                 []traverseHit
	pendingRec              *record.Record
}

func NewConditionalTraverse(child Operator, srcAlias, edgeAlias, dstAlias string, relTypes []uint32, dir Direction) *ConditionalTraverse {
	return &ConditionalTraverse{Child: child, SrcAlias: srcAlias, EdgeAlias: edgeAlias, DstAlias: dstAlias, RelTypes: relTypes, Dir: dir}
}

func (t *ConditionalTraverse) Init(ctx *ExecContext) error {
	t.srcIdx = ctx.Aliases.Intern(t.SrcAlias)
	t.edgeIdx = ctx.Aliases.Intern(t.EdgeAlias)
	t.dstIdx = ctx.Aliases.Intern(t.DstAlias)
	if err := t.Child.Init(ctx); err != nil {
		return err
	}
	t.markInit()
	return nil
}

// frontier computes, for one relationship type and one arrow orientation,
// the set of "other end" nodes reachable from src: forward uses R_t^T . q
// (w[dst] = R_t[src,dst]); reverse uses R_t . q (w[x] = R_t[x,src]), the
// incoming-edge set — the same MxV primitive with TransposeA flipped.
func (t *ConditionalTraverse) frontier(ctx *ExecContext, rt uint32, src uint64, forward bool, hits *[]traverseHit) {
	m := ctx.Graph.RelMatrix(rt)
	q := algebra.UnitVector(m.Rows(), src)
	w := algebra.NewVector[bool](m.Rows())
	algebra.MxV(w, nil, algebra.AnyPairBool, m, q, algebra.Descriptor{TransposeA: forward})
	w.Each(func(other uint64, set bool) {
		if !set {
			return
		}
		if forward {
			if edgeID, ok := edgeIDBetween(ctx, src, rt, other); ok {
				*hits = append(*hits, traverseHit{relType: rt, dst: other, edgeID: edgeID})
			}
		} else {
			if edgeID, ok := edgeIDBetween(ctx, other, rt, src); ok {
				*hits = append(*hits, traverseHit{relType: rt, dst: other, edgeID: edgeID})
			}
		}
	})
}

func (t *ConditionalTraverse) fill(ctx *ExecContext, src uint64) []traverseHit {
	var hits []traverseHit
	for _, rt := range relTypesOrWildcard(ctx, t.RelTypes) {
		if t.Dir != DirIn {
			t.frontier(ctx, rt, src, true, &hits)
		}
		if t.Dir != DirOut {
			t.frontier(ctx, rt, src, false, &hits)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dst != hits[j].dst {
			return hits[i].dst < hits[j].dst
		}
		return hits[i].relType < hits[j].relType
	})
	return hits
}

func (t *ConditionalTraverse) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := t.checkConsume(); err != nil {
		ctx.SetErr(err)
		t.markError()
		return nil, false
	}
	for {
		if len(t.pending) > 0 {
			hit := t.pending[0]
			t.pending = t.pending[1:]
			out := t.pendingRec.Clone()
			out.SetIndex(t.dstIdx, value.NodeRef(hit.dst))
			out.SetIndex(t.edgeIdx, value.EdgeRef(hit.edgeID))
			t.markProducing()
			return out, true
		}
		if ctx.Cancelled() {
			t.markExhausted()
			return nil, false
		}
		rec, ok := t.Child.Consume(ctx)
		if !ok {
			t.markExhausted()
			return nil, false
		}
		srcVal, ok := rec.GetIndex(t.srcIdx)
		if !ok {
			continue
		}
		src, ok := srcVal.NodeID()
		if !ok {
			continue
		}
		t.pending = t.fill(ctx, src)
		t.pendingRec = rec
	}
}

func (t *ConditionalTraverse) Reset(ctx *ExecContext) error {
	t.pending = nil
	t.pendingRec = nil
	if err := t.Child.Reset(ctx); err != nil {
		return err
	}
	t.markInit()
	return nil
}

func (t *ConditionalTraverse) Clone() Operator {
	return &ConditionalTraverse{
		Child: t.Child.Clone(), SrcAlias: t.SrcAlias, EdgeAlias: t.EdgeAlias, DstAlias: t.DstAlias,
		RelTypes: append([]uint32(nil), t.RelTypes...), Dir: t.Dir,
	}
}
func (t *ConditionalTraverse) Free() { t.Child.Free(); t.markFreed() }

// ExpandInto implements §4.7.2's both-ends-bound case: instead of
// computing a frontier, it directly tests R_t[src,dst] for each candidate
// type, which is O(1) per type rather than a matrix-vector product.
type ExpandInto struct {
	baseState
	Child                         Operator
	SrcAlias, EdgeAlias, DstAlias string
	RelTypes                      []uint32
	Dir                           Direction

	srcIdx, edgeIdx, dstIdx int
	pending                 []traverseHit
	pendingRec              *record.Record
}

func NewExpandInto(child Operator, srcAlias, edgeAlias, dstAlias string, relTypes []uint32, dir Direction) *ExpandInto {
	return &ExpandInto{Child: child, SrcAlias: srcAlias, EdgeAlias: edgeAlias, DstAlias: dstAlias, RelTypes: relTypes, Dir: dir}
}

func (e *ExpandInto) Init(ctx *ExecContext) error {
	e.srcIdx = ctx.Aliases.Intern(e.SrcAlias)
	e.edgeIdx = ctx.Aliases.Intern(e.EdgeAlias)
	e.dstIdx = ctx.Aliases.Intern(e.DstAlias)
	if err := e.Child.Init(ctx); err != nil {
		return err
	}
	e.markInit()
	return nil
}

func (e *ExpandInto) fill(ctx *ExecContext, src, dst uint64) []traverseHit {
	var hits []traverseHit
	for _, rt := range relTypesOrWildcard(ctx, e.RelTypes) {
		m := ctx.Graph.RelMatrix(rt)
		if e.Dir != DirIn {
			if v, ok := m.Get(src, dst); ok && v {
				if edgeID, ok := edgeIDBetween(ctx, src, rt, dst); ok {
					hits = append(hits, traverseHit{relType: rt, dst: dst, edgeID: edgeID})
				}
			}
		}
		if e.Dir != DirOut {
			if v, ok := m.Get(dst, src); ok && v {
				if edgeID, ok := edgeIDBetween(ctx, dst, rt, src); ok {
					hits = append(hits, traverseHit{relType: rt, dst: dst, edgeID: edgeID})
				}
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].relType < hits[j].relType })
	return hits
}

func (e *ExpandInto) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := e.checkConsume(); err != nil {
		ctx.SetErr(err)
		e.markError()
		return nil, false
	}
	for {
		if len(e.pending) > 0 {
			hit := e.pending[0]
			e.pending = e.pending[1:]
			out := e.pendingRec.Clone()
			out.SetIndex(e.edgeIdx, value.EdgeRef(hit.edgeID))
			e.markProducing()
			return out, true
		}
		if ctx.Cancelled() {
			e.markExhausted()
			return nil, false
		}
		rec, ok := e.Child.Consume(ctx)
		if !ok {
			e.markExhausted()
			return nil, false
		}
		srcVal, ok := rec.GetIndex(e.srcIdx)
		if !ok {
			continue
		}
		src, ok := srcVal.NodeID()
		if !ok {
			continue
		}
		dstVal, ok := rec.GetIndex(e.dstIdx)
		if !ok {
			continue
		}
		dst, ok := dstVal.NodeID()
		if !ok {
			continue
		}
		e.pending = e.fill(ctx, src, dst)
		e.pendingRec = rec
	}
}

func (e *ExpandInto) Reset(ctx *ExecContext) error {
	e.pending = nil
	e.pendingRec = nil
	if err := e.Child.Reset(ctx); err != nil {
		return err
	}
	e.markInit()
	return nil
}

func (e *ExpandInto) Clone() Operator {
	return &ExpandInto{
		Child: e.Child.Clone(), SrcAlias: e.SrcAlias, EdgeAlias: e.EdgeAlias, DstAlias: e.DstAlias,
		RelTypes: append([]uint32(nil), e.RelTypes...), Dir: e.Dir,
	}
}
func (e *ExpandInto) Free() { e.Child.Free(); e.markFreed() }

// edgeCarrierMatrix builds an int64-valued matrix sharing R_t's sparsity
// but carrying each edge's EdgeID as its stored value instead of a plain
// boolean, mirroring ShortestPath.weightedMatrix's pattern of layering a
// typed payload matrix over the boolean relation matrix. It is the
// operand AnyFirstI64 multiplies against: a single mxv pass then reports
// both "is this node reachable" and "which edge reached it" together,
// rather than a second hexastore round trip per candidate destination.
func edgeCarrierMatrix(ctx *ExecContext, rt uint32) *algebra.Matrix[int64] {
	bm := ctx.Graph.RelMatrix(rt)
	out := algebra.New[int64](bm.Rows(), bm.Cols())
	bm.Each(func(i, j uint64, v bool) {
		if !v {
			return
		}
		if edgeID, ok := edgeIDBetween(ctx, i, rt, j); ok {
			out.Set(i, j, int64(edgeID))
		}
	})
	out.Wait()
	return out
}

// varLenPath is one completed variable-length walk from a bound source.
type varLenPath struct {
	dst   uint64
	edges []uint64
}

// VarLenTraverse implements §4.7.2's bounded-hop pattern (e.g.
// -[:KNOWS*1..3]->): an mxv-driven, mask-pruned BFS (see fill/hop below)
// that never revisits a node within one walk, emitting the one path that
// reaches each destination first within [Min,Max] hops.
type VarLenTraverse struct {
	baseState
	Child                             Operator
	SrcAlias, EdgeListAlias, DstAlias string
	Min, Max                          int
	RelTypes                          []uint32
	Dir                               Direction

	srcIdx, edgeListIdx, dstIdx int
	pending                     []varLenPath
	pendingRec                  *record.Record
}

func NewVarLenTraverse(child Operator, srcAlias, edgeListAlias, dstAlias string, min, max int, relTypes []uint32, dir Direction) *VarLenTraverse {
	return &VarLenTraverse{Child: child, SrcAlias: srcAlias, EdgeListAlias: edgeListAlias, DstAlias: dstAlias, Min: min, Max: max, RelTypes: relTypes, Dir: dir}
}

func (v *VarLenTraverse) Init(ctx *ExecContext) error {
	v.srcIdx = ctx.Aliases.Intern(v.SrcAlias)
	v.edgeListIdx = ctx.Aliases.Intern(v.EdgeListAlias)
	v.dstIdx = ctx.Aliases.Intern(v.DstAlias)
	if err := v.Child.Init(ctx); err != nil {
		return err
	}
	v.markInit()
	return nil
}

// hop expands the current frontier by one step across every candidate
// relationship type and permitted direction, returning each newly
// reached node mapped to the edge that reached it. visited is passed to
// mxv as a complemented mask so a node already placed on some path is
// never re-entered — spec §4.7.2's "iterate matrix powers R^k ... using
// repeated mxv with a mask to prune already-visited nodes" — the same
// MxV primitive ConditionalTraverse.frontier drives one level up, not a
// hexastore scan. The boolean pass (AnyPairBool outbound, LorLandBool
// inbound — both valid names spec §4.1 lists for the same boolean
// semiring) decides reachability; the parallel AnyFirstI64 pass over
// edgeCarrierMatrix decides which edge gets credited, per its own doc
// comment's "propagate a parent id during BFS-style traversal".
func (v *VarLenTraverse) hop(mats map[uint32]*algebra.Matrix[bool], carriers map[uint32]*algebra.Matrix[int64], frontierBool *algebra.Vector[bool], frontierI64 *algebra.Vector[int64], visited *algebra.Vector[bool], types []uint32) map[uint64]uint64 {
	discovered := make(map[uint64]uint64)
	mark := func(wb *algebra.Vector[bool], we *algebra.Vector[int64]) {
		wb.Each(func(node uint64, set bool) {
			if !set {
				return
			}
			if edgeID, ok := we.Get(node); ok {
				if _, exists := discovered[node]; !exists {
					discovered[node] = uint64(edgeID)
				}
			}
		})
	}
	for _, rt := range types {
		m, ec := mats[rt], carriers[rt]
		if v.Dir != DirIn {
			wb := algebra.NewVector[bool](m.Rows())
			algebra.MxV(wb, visited, algebra.AnyPairBool, m, frontierBool, algebra.Descriptor{TransposeA: true, ComplementMask: true})
			we := algebra.NewVector[int64](ec.Rows())
			algebra.MxV(we, visited, algebra.AnyFirstI64, ec, frontierI64, algebra.Descriptor{TransposeA: true, ComplementMask: true})
			mark(wb, we)
		}
		if v.Dir != DirOut {
			wb := algebra.NewVector[bool](m.Rows())
			algebra.MxV(wb, visited, algebra.LorLandBool, m, frontierBool, algebra.Descriptor{TransposeA: false, ComplementMask: true})
			we := algebra.NewVector[int64](ec.Rows())
			algebra.MxV(we, visited, algebra.AnyFirstI64, ec, frontierI64, algebra.Descriptor{TransposeA: false, ComplementMask: true})
			mark(wb, we)
		}
	}
	return discovered
}

// reconstructPath walks parentEdge backward from dst to src, recovering
// each hop's predecessor from the edge's own stored endpoints — the edge
// id was already carried out of the matrix pass in hop, so the store is
// the cheaper source of truth for "which end isn't the node I arrived
// at" than a second hexastore lookup.
func reconstructPath(ctx *ExecContext, dst, src uint64, parentEdge map[uint64]uint64) []uint64 {
	var edges []uint64
	cur := dst
	for cur != src {
		edgeID, ok := parentEdge[cur]
		if !ok {
			break
		}
		edges = append(edges, edgeID)
		slot := ctx.Graph.Store.GetEdge(edgeID)
		if slot == nil {
			break
		}
		next := slot.Dst
		if slot.Src != cur {
			next = slot.Src
		}
		if next == cur {
			break // a self-loop edge can't resolve a distinct predecessor
		}
		cur = next
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return edges
}

// fill drives the bounded-hop BFS of spec §4.7.2: one mxv-powered hop per
// iteration (via hop), expanding [1, Max] steps from src and emitting a
// path for every node first reached within [Min, Max] hops. Node-level
// masking (rather than per-path edge-uniqueness bookkeeping) is what
// "prune already-visited nodes" buys: a destination is reached by at
// most one path, recovered by walking parentEdge back through the hop
// that discovered it — stronger than Cypher's relationship-isolation
// rule, but the literal mask-pruning behaviour spec §4.7.2 calls for.
func (v *VarLenTraverse) fill(ctx *ExecContext, src uint64) []varLenPath {
	n := ctx.Graph.Adjacency().Rows()
	types := relTypesOrWildcard(ctx, v.RelTypes)
	mats := make(map[uint32]*algebra.Matrix[bool], len(types))
	carriers := make(map[uint32]*algebra.Matrix[int64], len(types))
	for _, rt := range types {
		mats[rt] = ctx.Graph.RelMatrix(rt)
		carriers[rt] = edgeCarrierMatrix(ctx, rt)
	}

	visited := algebra.NewVector[bool](n)
	visited.Set(src, true)
	parentEdge := make(map[uint64]uint64)

	var out []varLenPath
	if v.Min == 0 {
		out = append(out, varLenPath{dst: src})
	}

	frontierBool := algebra.UnitVector(n, src)
	frontierI64 := algebra.NewVector[int64](n)
	frontierI64.Set(src, 0)
	frontierI64.Wait()

	for hopNum := 1; hopNum <= v.Max; hopNum++ {
		discovered := v.hop(mats, carriers, frontierBool, frontierI64, visited, types)
		if len(discovered) == 0 {
			break
		}
		nextBool := algebra.NewVector[bool](n)
		nextI64 := algebra.NewVector[int64](n)
		for node, edgeID := range discovered {
			visited.Set(node, true)
			parentEdge[node] = edgeID
			nextBool.Set(node, true)
			nextI64.Set(node, 0)
			if hopNum >= v.Min {
				out = append(out, varLenPath{dst: node, edges: reconstructPath(ctx, node, src, parentEdge)})
			}
		}
		nextBool.Wait()
		nextI64.Wait()
		frontierBool = nextBool
		frontierI64 = nextI64
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].dst != out[j].dst {
			return out[i].dst < out[j].dst
		}
		return len(out[i].edges) < len(out[j].edges)
	})
	return out
}

func (v *VarLenTraverse) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := v.checkConsume(); err != nil {
		ctx.SetErr(err)
		v.markError()
		return nil, false
	}
	for {
		if len(v.pending) > 0 {
			hit := v.pending[0]
			v.pending = v.pending[1:]
			out := v.pendingRec.Clone()
			out.SetIndex(v.dstIdx, value.NodeRef(hit.dst))
			edgeList := make([]value.Value, len(hit.edges))
			for i, e := range hit.edges {
				edgeList[i] = value.EdgeRef(e)
			}
			out.SetIndex(v.edgeListIdx, value.List(edgeList))
			v.markProducing()
			return out, true
		}
		if ctx.Cancelled() {
			v.markExhausted()
			return nil, false
		}
		rec, ok := v.Child.Consume(ctx)
		if !ok {
			v.markExhausted()
			return nil, false
		}
		srcVal, ok := rec.GetIndex(v.srcIdx)
		if !ok {
			continue
		}
		src, ok := srcVal.NodeID()
		if !ok {
			continue
		}
		v.pending = v.fill(ctx, src)
		v.pendingRec = rec
	}
}

func (v *VarLenTraverse) Reset(ctx *ExecContext) error {
	v.pending = nil
	v.pendingRec = nil
	if err := v.Child.Reset(ctx); err != nil {
		return err
	}
	v.markInit()
	return nil
}

func (v *VarLenTraverse) Clone() Operator {
	return &VarLenTraverse{
		Child: v.Child.Clone(), SrcAlias: v.SrcAlias, EdgeListAlias: v.EdgeListAlias, DstAlias: v.DstAlias,
		Min: v.Min, Max: v.Max, RelTypes: append([]uint32(nil), v.RelTypes...), Dir: v.Dir,
	}
}
func (v *VarLenTraverse) Free() { v.Child.Free(); v.markFreed() }

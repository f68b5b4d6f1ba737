package plan

import (
	"math"

	"github.com/orneryd/pgraphdb/pkg/algebra"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// ShortestPath implements the supplemented shortest-path operator (SPEC_FULL
// §5): single-source weighted distance via repeated MxV over the
// min-plus semiring, one relaxation round per hop up to MaxHops. An
// unreachable destination yields +Inf, the resolved Open Question's
// chosen representation rather than a sentinel error — a caller that
// wants "no path" as a filterable condition can compare the returned
// Value against infinity directly.
type ShortestPath struct {
	baseState
	Child                         Operator
	SrcAlias, DstAlias, DistAlias string
	RelTypes                      []uint32
	Weight                        map[uint64]float64 // edgeID -> weight; absent edges cost 1
	MaxHops                       int

	srcIdx, dstIdx, distIdx int
}

func NewShortestPath(child Operator, srcAlias, dstAlias, distAlias string, relTypes []uint32, weight map[uint64]float64, maxHops int) *ShortestPath {
	return &ShortestPath{Child: child, SrcAlias: srcAlias, DstAlias: dstAlias, DistAlias: distAlias, RelTypes: relTypes, Weight: weight, MaxHops: maxHops}
}

func (s *ShortestPath) Init(ctx *ExecContext) error {
	s.srcIdx = ctx.Aliases.Intern(s.SrcAlias)
	s.dstIdx = ctx.Aliases.Intern(s.DstAlias)
	s.distIdx = ctx.Aliases.Intern(s.DistAlias)
	if err := s.Child.Init(ctx); err != nil {
		return err
	}
	s.markInit()
	return nil
}

// weightedMatrix builds a float64 matrix over one relationship type,
// consulting Weight for each edge via the hexastore (the boolean R_t
// carries no weight, so a concrete edge identity is needed per cell).
func (s *ShortestPath) weightedMatrix(ctx *ExecContext, relType uint32) *algebra.Matrix[float64] {
	bm := ctx.Graph.RelMatrix(relType)
	out := algebra.New[float64](bm.Rows(), bm.Cols())
	bm.Each(func(i, j uint64, v bool) {
		if !v {
			return
		}
		w := 1.0
		if edgeID, ok := edgeIDBetween(ctx, i, relType, j); ok {
			if weight, ok := s.Weight[edgeID]; ok {
				w = weight
			}
		}
		out.Set(i, j, w)
	})
	out.Wait()
	return out
}

func (s *ShortestPath) distancesFrom(ctx *ExecContext, src uint64) map[uint64]float64 {
	types := relTypesOrWildcard(ctx, s.RelTypes)
	mats := make([]*algebra.Matrix[float64], len(types))
	for i, t := range types {
		mats[i] = s.weightedMatrix(ctx, t)
	}
	n := ctx.Graph.Adjacency().Rows()
	dist := algebra.NewVector[float64](n)
	dist.Set(src, 0)
	dist.Wait()

	maxHops := s.MaxHops
	if maxHops <= 0 {
		maxHops = int(n)
	}
	for hop := 0; hop < maxHops; hop++ {
		changed := false
		frontier := dist.Clone()
		for _, m := range mats {
			next := algebra.NewVector[float64](n)
			algebra.MxV(next, nil, algebra.MinPlusF64, m, frontier, algebra.Descriptor{TransposeA: true})
			next.Each(func(i uint64, d float64) {
				cur, ok := dist.Get(i)
				if !ok || d < cur {
					dist.Set(i, d)
					changed = true
				}
			})
		}
		dist.Wait()
		if !changed {
			break
		}
	}

	out := make(map[uint64]float64)
	dist.Each(func(i uint64, d float64) { out[i] = d })
	return out
}

func (s *ShortestPath) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := s.checkConsume(); err != nil {
		ctx.SetErr(err)
		s.markError()
		return nil, false
	}
	for {
		if ctx.Cancelled() {
			s.markExhausted()
			return nil, false
		}
		rec, ok := s.Child.Consume(ctx)
		if !ok {
			s.markExhausted()
			return nil, false
		}
		srcVal, ok := rec.GetIndex(s.srcIdx)
		if !ok {
			continue
		}
		src, ok := srcVal.NodeID()
		if !ok {
			continue
		}
		dstVal, ok := rec.GetIndex(s.dstIdx)
		if !ok {
			continue
		}
		dst, ok := dstVal.NodeID()
		if !ok {
			continue
		}
		dists := s.distancesFrom(ctx, src)
		d, reached := dists[dst]
		if !reached {
			d = math.Inf(1)
		}
		out := rec.Clone()
		out.SetIndex(s.distIdx, value.Double(d))
		s.markProducing()
		return out, true
	}
}

func (s *ShortestPath) Reset(ctx *ExecContext) error {
	if err := s.Child.Reset(ctx); err != nil {
		return err
	}
	s.markInit()
	return nil
}

func (s *ShortestPath) Clone() Operator {
	return &ShortestPath{
		Child: s.Child.Clone(), SrcAlias: s.SrcAlias, DstAlias: s.DstAlias, DistAlias: s.DistAlias,
		RelTypes: append([]uint32(nil), s.RelTypes...), Weight: s.Weight, MaxHops: s.MaxHops,
	}
}
func (s *ShortestPath) Free() { s.Child.Free(); s.markFreed() }

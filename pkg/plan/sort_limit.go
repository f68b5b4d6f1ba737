package plan

import (
	"container/heap"
	"sort"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// SortItem is one ORDER BY term.
type SortItem struct {
	Expr       expr.Expr
	Descending bool
}

// sortRow pairs a buffered record with its precomputed sort keys so a
// comparator never re-evaluates expressions mid-sort.
type sortRow struct {
	rec  *record.Record
	keys []value.Value
}

// compareKeys implements the resolved null-ordering rule: nulls sort last
// in ascending order, first in descending order, on a per-item basis.
// Value.Compare alone always ranks Null lowest (rank 0), so it would put
// nulls first in ascending order and its negation would put them last in
// descending order; null/non-null pairs are therefore decided here, and
// only non-null pairs go to Compare, negated for a descending item.
func compareKeys(a, b sortRow, items []SortItem) int {
	for i, it := range items {
		av, bv := a.keys[i], b.keys[i]
		an, bn := av.IsNull(), bv.IsNull()
		switch {
		case an && bn:
			continue
		case an:
			if it.Descending {
				return -1
			}
			return 1
		case bn:
			if it.Descending {
				return 1
			}
			return -1
		}
		c := av.Compare(bv)
		if it.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Sort implements §4.7.4: buffers every input row (a barrier, like
// Aggregate), evaluates each ORDER BY item once per row, and emits rows in
// sorted order. When Limit is set the buffer only ever needs to retain
// skip+limit rows, so a bounded max-heap is used instead of a full sort —
// the common "ORDER BY ... LIMIT N" case never materializes the whole
// input.
type Sort struct {
	baseState
	Child Operator
	Items []SortItem
	Skip  int
	Limit int // read only when HasLimit is set; without it the output is unlimited
	HasLimit bool

	rows     []sortRow
	pos      int
	computed bool
}

func NewSort(child Operator, items []SortItem, skip, limit int, hasLimit bool) *Sort {
	return &Sort{Child: child, Items: items, Skip: skip, Limit: limit, HasLimit: hasLimit}
}

func (s *Sort) Init(ctx *ExecContext) error {
	if err := s.Child.Init(ctx); err != nil {
		return err
	}
	s.rows = nil
	s.pos = 0
	s.computed = false
	s.markInit()
	return nil
}

// sortHeap is a bounded max-heap under the requested order: the worst-ranked
// retained row sits on top, and an incoming row that ranks better replaces
// it once the heap is full, so exactly the best skip+limit rows remain.
type sortHeap struct {
	rows  []sortRow
	items []SortItem
}

func (h *sortHeap) Len() int { return len(h.rows) }
func (h *sortHeap) Less(i, j int) bool {
	return compareKeys(h.rows[i], h.rows[j], h.items) > 0 // max-heap: worst-ranked on top
}
func (h *sortHeap) Swap(i, j int)      { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }
func (h *sortHeap) Push(x interface{}) { h.rows = append(h.rows, x.(sortRow)) }
func (h *sortHeap) Pop() interface{} {
	old := h.rows
	n := len(old)
	v := old[n-1]
	h.rows = old[:n-1]
	return v
}

func (s *Sort) consumeAll(ctx *ExecContext) error {
	bound := 0
	if s.HasLimit {
		bound = s.Skip + s.Limit
	}
	var bh *sortHeap
	if s.HasLimit && bound > 0 {
		bh = &sortHeap{items: s.Items}
		heap.Init(bh)
	}
	for {
		if ctx.Cancelled() {
			break
		}
		rec, ok := s.Child.Consume(ctx)
		if !ok {
			break
		}
		keys := make([]value.Value, len(s.Items))
		ec := exprContext(ctx, rec)
		for i, it := range s.Items {
			v, err := it.Expr.Evaluate(ec)
			if err != nil {
				return err
			}
			keys[i] = v
		}
		row := sortRow{rec: rec, keys: keys}
		if bh == nil {
			s.rows = append(s.rows, row)
			continue
		}
		if bh.Len() < bound {
			heap.Push(bh, row)
		} else if compareKeys(row, bh.rows[0], s.Items) < 0 {
			heap.Pop(bh)
			heap.Push(bh, row)
		}
	}
	if bh != nil {
		s.rows = bh.rows
	}
	sort.SliceStable(s.rows, func(i, j int) bool {
		return compareKeys(s.rows[i], s.rows[j], s.Items) < 0
	})
	if s.Skip > 0 {
		if s.Skip >= len(s.rows) {
			s.rows = nil
		} else {
			s.rows = s.rows[s.Skip:]
		}
	}
	if s.HasLimit && len(s.rows) > s.Limit {
		s.rows = s.rows[:s.Limit]
	}
	return nil
}

func (s *Sort) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := s.checkConsume(); err != nil {
		ctx.SetErr(err)
		s.markError()
		return nil, false
	}
	if !s.computed {
		if err := s.consumeAll(ctx); err != nil {
			ctx.SetErr(err)
			s.markError()
			return nil, false
		}
		s.computed = true
	}
	if s.pos >= len(s.rows) {
		s.markExhausted()
		return nil, false
	}
	row := s.rows[s.pos]
	s.pos++
	s.markProducing()
	return row.rec, true
}

func (s *Sort) Reset(ctx *ExecContext) error {
	if err := s.Child.Reset(ctx); err != nil {
		return err
	}
	s.rows = nil
	s.pos = 0
	s.computed = false
	s.markInit()
	return nil
}

func (s *Sort) Clone() Operator {
	return &Sort{Child: s.Child.Clone(), Items: append([]SortItem(nil), s.Items...), Skip: s.Skip, Limit: s.Limit, HasLimit: s.HasLimit}
}
func (s *Sort) Free() { s.Child.Free(); s.markFreed() }

// Distinct implements §4.7.4: a 64-bit hash set with a full-value
// tie-break, since Hash64 collisions are possible and silently dropping a
// distinct row on a collision would be a correctness bug, not a
// performance one.
type Distinct struct {
	baseState
	Child Operator
	Items []expr.Expr // the DISTINCT key; typically every projected column

	seen map[uint64][][]value.Value
}

func NewDistinct(child Operator, items []expr.Expr) *Distinct {
	return &Distinct{Child: child, Items: items}
}

func (d *Distinct) Init(ctx *ExecContext) error {
	if err := d.Child.Init(ctx); err != nil {
		return err
	}
	d.seen = make(map[uint64][][]value.Value)
	d.markInit()
	return nil
}

func keysEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (d *Distinct) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := d.checkConsume(); err != nil {
		ctx.SetErr(err)
		d.markError()
		return nil, false
	}
	for {
		if ctx.Cancelled() {
			d.markExhausted()
			return nil, false
		}
		rec, ok := d.Child.Consume(ctx)
		if !ok {
			d.markExhausted()
			return nil, false
		}
		ec := exprContext(ctx, rec)
		keys := make([]value.Value, len(d.Items))
		failed := false
		for i, it := range d.Items {
			v, err := it.Evaluate(ec)
			if err != nil {
				ctx.SetErr(err)
				d.markError()
				failed = true
				break
			}
			keys[i] = v
		}
		if failed {
			return nil, false
		}
		h := hashKey(keys)
		dup := false
		for _, existing := range d.seen[h] {
			if keysEqual(existing, keys) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		d.seen[h] = append(d.seen[h], keys)
		d.markProducing()
		return rec, true
	}
}

func (d *Distinct) Reset(ctx *ExecContext) error {
	if err := d.Child.Reset(ctx); err != nil {
		return err
	}
	d.seen = make(map[uint64][][]value.Value)
	d.markInit()
	return nil
}

func (d *Distinct) Clone() Operator {
	return &Distinct{Child: d.Child.Clone(), Items: append([]expr.Expr(nil), d.Items...)}
}
func (d *Distinct) Free() { d.Child.Free(); d.markFreed() }

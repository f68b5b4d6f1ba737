package plan

import (
	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// AggFunc is an aggregate function kind (§4.7.3).
type AggFunc int

const (
	AggSum AggFunc = iota
	AggCount
	AggCountStar
	AggMin
	AggMax
	AggAvg
	AggCollect
)

// AggregateItem is one aggregate expression bound to an output alias.
type AggregateItem struct {
	Alias string
	Func  AggFunc
	Arg   expr.Expr // nil for AggCountStar
}

type aggState struct {
	count int64
	sum   float64
	min   value.Value
	hasMM bool
	max   value.Value
	items []value.Value // AggCollect
}

func (s *aggState) accumulate(fn AggFunc, v value.Value) {
	switch fn {
	case AggCountStar:
		s.count++
	case AggCount:
		if !v.IsNull() {
			s.count++
		}
	case AggSum:
		if f, ok := v.AsFloat64(); ok {
			s.sum += f
			s.count++
		}
	case AggAvg:
		if f, ok := v.AsFloat64(); ok {
			s.sum += f
			s.count++
		}
	case AggMin:
		if !v.IsNull() && (!s.hasMM || v.Compare(s.min) < 0) {
			s.min = v
			s.hasMM = true
		}
	case AggMax:
		if !v.IsNull() && (!s.hasMM || v.Compare(s.max) > 0) {
			s.max = v
			s.hasMM = true
		}
	case AggCollect:
		if !v.IsNull() {
			s.items = append(s.items, v)
		}
	}
}

func (s *aggState) result(fn AggFunc) value.Value {
	switch fn {
	case AggCountStar, AggCount:
		return value.Int64(s.count)
	case AggSum:
		return value.Double(s.sum)
	case AggAvg:
		if s.count == 0 {
			return value.Null
		}
		return value.Double(s.sum / float64(s.count))
	case AggMin:
		if !s.hasMM {
			return value.Null
		}
		return s.min
	case AggMax:
		if !s.hasMM {
			return value.Null
		}
		return s.max
	case AggCollect:
		return value.List(append([]value.Value(nil), s.items...))
	default:
		return value.Null
	}
}

// Aggregate implements §4.7.3's grouping operator: buffers every input
// record, groups by the hash of its key expressions, and emits one record
// per group once the child is exhausted — aggregation is a full barrier,
// not a streaming operator, because any row could still change a group's
// accumulator until the child runs dry.
type Aggregate struct {
	baseState
	Child   Operator
	GroupBy []ProjectItem   // key expressions, each bound to an output alias
	Aggs    []AggregateItem // aggregate expressions, each bound to an output alias

	aliases  *record.AliasMap
	groupIdx []int
	aggIdx   []int

	groups   map[uint64][]*groupEntry
	order    []uint64
	pos      int
	consumed bool
}

type groupEntry struct {
	keyVals []value.Value
	states  []*aggState
}

func NewAggregate(child Operator, groupBy []ProjectItem, aggs []AggregateItem) *Aggregate {
	return &Aggregate{Child: child, GroupBy: groupBy, Aggs: aggs}
}

func (a *Aggregate) Init(ctx *ExecContext) error {
	if err := a.Child.Init(ctx); err != nil {
		return err
	}
	a.aliases = ctx.Aliases
	a.groupIdx = make([]int, len(a.GroupBy))
	for i, g := range a.GroupBy {
		a.groupIdx[i] = ctx.Aliases.Intern(g.Alias)
	}
	a.aggIdx = make([]int, len(a.Aggs))
	for i, g := range a.Aggs {
		a.aggIdx[i] = ctx.Aliases.Intern(g.Alias)
	}
	a.groups = nil
	a.order = nil
	a.pos = 0
	a.consumed = false
	a.markInit()
	return nil
}

func hashKey(vals []value.Value) uint64 {
	var h uint64 = 1469598103934665603
	for _, v := range vals {
		h ^= v.Hash64()
		h *= 1099511628211
	}
	return h
}

func (a *Aggregate) consumeAll(ctx *ExecContext) error {
	a.groups = make(map[uint64][]*groupEntry)
	for {
		if ctx.Cancelled() {
			return nil
		}
		rec, ok := a.Child.Consume(ctx)
		if !ok {
			return nil
		}
		ec := exprContext(ctx, rec)
		keyVals := make([]value.Value, len(a.GroupBy))
		for i, g := range a.GroupBy {
			v, err := g.Expr.Evaluate(ec)
			if err != nil {
				return err
			}
			keyVals[i] = v
		}
		h := hashKey(keyVals)
		var entry *groupEntry
		for _, e := range a.groups[h] {
			if sameKey(e.keyVals, keyVals) {
				entry = e
				break
			}
		}
		if entry == nil {
			entry = &groupEntry{keyVals: keyVals, states: make([]*aggState, len(a.Aggs))}
			for i := range entry.states {
				entry.states[i] = &aggState{}
			}
			if _, seen := a.groups[h]; !seen {
				a.order = append(a.order, h)
			}
			a.groups[h] = append(a.groups[h], entry)
		}
		for i, ag := range a.Aggs {
			var v value.Value
			if ag.Arg != nil {
				var err error
				v, err = ag.Arg.Evaluate(ec)
				if err != nil {
					return err
				}
			}
			entry.states[i].accumulate(ag.Func, v)
		}
	}
}

func sameKey(a, b []value.Value) bool {
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

func (a *Aggregate) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := a.checkConsume(); err != nil {
		ctx.SetErr(err)
		a.markError()
		return nil, false
	}
	if !a.consumed {
		if err := a.consumeAll(ctx); err != nil {
			ctx.SetErr(err)
			a.markError()
			return nil, false
		}
		a.consumed = true
	}
	for a.pos < len(a.order) {
		h := a.order[a.pos]
		bucket := a.groups[h]
		entry := bucket[0]
		a.groups[h] = bucket[1:]
		if len(a.groups[h]) == 0 {
			a.pos++
		}

		out := record.New(a.aliases)
		for i, idx := range a.groupIdx {
			out.SetIndex(idx, entry.keyVals[i])
		}
		for i, idx := range a.aggIdx {
			out.SetIndex(idx, entry.states[i].result(a.Aggs[i].Func))
		}
		a.markProducing()
		return out, true
	}
	a.markExhausted()
	return nil, false
}

func (a *Aggregate) Reset(ctx *ExecContext) error {
	if err := a.Child.Reset(ctx); err != nil {
		return err
	}
	a.groups = nil
	a.order = nil
	a.pos = 0
	a.consumed = false
	a.markInit()
	return nil
}

func (a *Aggregate) Clone() Operator {
	return &Aggregate{
		Child:   a.Child.Clone(),
		GroupBy: append([]ProjectItem(nil), a.GroupBy...),
		Aggs:    append([]AggregateItem(nil), a.Aggs...),
	}
}
func (a *Aggregate) Free() { a.Child.Free(); a.markFreed() }

package plan

import (
	"sort"

	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// CartesianProduct implements §4.7.5's unconditional join: for every left
// row, drain the right child from scratch via Reset. Used when two
// pattern clauses share no bound variable and a MATCH's WHERE (or a
// subsequent ValueHashJoin) narrows the product afterwards.
type CartesianProduct struct {
	baseState
	Left, Right Operator

	leftRec      *record.Record
	rightOpen    bool
	aliases      *record.AliasMap
}

func NewCartesianProduct(left, right Operator) *CartesianProduct {
	return &CartesianProduct{Left: left, Right: right}
}

func (c *CartesianProduct) Init(ctx *ExecContext) error {
	if err := c.Left.Init(ctx); err != nil {
		return err
	}
	if err := c.Right.Init(ctx); err != nil {
		return err
	}
	c.aliases = ctx.Aliases
	c.rightOpen = false
	c.markInit()
	return nil
}

func (c *CartesianProduct) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := c.checkConsume(); err != nil {
		ctx.SetErr(err)
		c.markError()
		return nil, false
	}
	for {
		if ctx.Cancelled() {
			c.markExhausted()
			return nil, false
		}
		if !c.rightOpen {
			rec, ok := c.Left.Consume(ctx)
			if !ok {
				c.markExhausted()
				return nil, false
			}
			c.leftRec = rec
			if err := c.Right.Reset(ctx); err != nil {
				ctx.SetErr(err)
				c.markError()
				return nil, false
			}
			c.rightOpen = true
		}
		rrec, ok := c.Right.Consume(ctx)
		if !ok {
			c.rightOpen = false
			continue
		}
		out := c.leftRec.Clone()
		out.Merge(rrec)
		c.markProducing()
		return out, true
	}
}

func (c *CartesianProduct) Reset(ctx *ExecContext) error {
	if err := c.Left.Reset(ctx); err != nil {
		return err
	}
	c.rightOpen = false
	c.markInit()
	return nil
}

func (c *CartesianProduct) Clone() Operator {
	return &CartesianProduct{Left: c.Left.Clone(), Right: c.Right.Clone()}
}
func (c *CartesianProduct) Free() { c.Left.Free(); c.Right.Free(); c.markFreed() }

// ValueHashJoin implements §4.7.5's equi-join: the left side is buffered
// and sorted by its join key, the right side streams through with a
// binary search for the matching key range. A NULL join key never
// matches anything, including another NULL, per Cypher's equality rules.
type ValueHashJoin struct {
	baseState
	Left, Right   Operator
	LeftKey       expr.Expr
	RightKey      expr.Expr

	built     []keyedRow
	rightRec  *record.Record
	matchIdx  []int
	matchPos  int
}

type keyedRow struct {
	key value.Value
	rec *record.Record
}

func NewValueHashJoin(left, right Operator, leftKey, rightKey expr.Expr) *ValueHashJoin {
	return &ValueHashJoin{Left: left, Right: right, LeftKey: leftKey, RightKey: rightKey}
}

func (j *ValueHashJoin) Init(ctx *ExecContext) error {
	if err := j.Left.Init(ctx); err != nil {
		return err
	}
	if err := j.Right.Init(ctx); err != nil {
		return err
	}
	j.built = nil
	j.matchIdx = nil
	j.matchPos = 0
	j.markInit()
	return nil
}

func (j *ValueHashJoin) build(ctx *ExecContext) error {
	for {
		if ctx.Cancelled() {
			return nil
		}
		rec, ok := j.Left.Consume(ctx)
		if !ok {
			break
		}
		k, err := j.LeftKey.Evaluate(exprContext(ctx, rec))
		if err != nil {
			return err
		}
		if k.IsNull() {
			continue // null keys never match, so never worth indexing
		}
		j.built = append(j.built, keyedRow{key: k, rec: rec})
	}
	sort.Slice(j.built, func(a, b int) bool { return j.built[a].key.Compare(j.built[b].key) < 0 })
	return nil
}

func (j *ValueHashJoin) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := j.checkConsume(); err != nil {
		ctx.SetErr(err)
		j.markError()
		return nil, false
	}
	if j.built == nil {
		if err := j.build(ctx); err != nil {
			ctx.SetErr(err)
			j.markError()
			return nil, false
		}
	}
	for {
		if ctx.Cancelled() {
			j.markExhausted()
			return nil, false
		}
		if j.matchPos < len(j.matchIdx) {
			leftRow := j.built[j.matchIdx[j.matchPos]]
			j.matchPos++
			out := leftRow.rec.Clone()
			out.Merge(j.rightRec)
			j.markProducing()
			return out, true
		}
		rrec, ok := j.Right.Consume(ctx)
		if !ok {
			j.markExhausted()
			return nil, false
		}
		rk, err := j.RightKey.Evaluate(exprContext(ctx, rrec))
		if err != nil {
			ctx.SetErr(err)
			j.markError()
			return nil, false
		}
		if rk.IsNull() {
			continue
		}
		lo := sort.Search(len(j.built), func(i int) bool { return j.built[i].key.Compare(rk) >= 0 })
		var matches []int
		for i := lo; i < len(j.built) && j.built[i].key.Compare(rk) == 0; i++ {
			matches = append(matches, i)
		}
		if len(matches) == 0 {
			continue
		}
		j.rightRec = rrec
		j.matchIdx = matches
		j.matchPos = 0
	}
}

func (j *ValueHashJoin) Reset(ctx *ExecContext) error {
	if err := j.Left.Reset(ctx); err != nil {
		return err
	}
	if err := j.Right.Reset(ctx); err != nil {
		return err
	}
	j.built = nil
	j.matchIdx = nil
	j.matchPos = 0
	j.markInit()
	return nil
}

func (j *ValueHashJoin) Clone() Operator {
	return &ValueHashJoin{Left: j.Left.Clone(), Right: j.Right.Clone(), LeftKey: j.LeftKey, RightKey: j.RightKey}
}
func (j *ValueHashJoin) Free() { j.Left.Free(); j.Right.Free(); j.markFreed() }

// Union implements §4.7.5: concatenates its children's output, optionally
// deduping via the same hashed-key-set strategy as Distinct.
type Union struct {
	baseState
	Children []Operator
	Distinct bool

	cur  int
	seen map[uint64][]*record.Record
}

func NewUnion(children []Operator, distinct bool) *Union {
	return &Union{Children: children, Distinct: distinct}
}

func (u *Union) Init(ctx *ExecContext) error {
	for _, c := range u.Children {
		if err := c.Init(ctx); err != nil {
			return err
		}
	}
	u.cur = 0
	u.seen = make(map[uint64][]*record.Record)
	u.markInit()
	return nil
}

func (u *Union) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := u.checkConsume(); err != nil {
		ctx.SetErr(err)
		u.markError()
		return nil, false
	}
	for u.cur < len(u.Children) {
		if ctx.Cancelled() {
			u.markExhausted()
			return nil, false
		}
		rec, ok := u.Children[u.cur].Consume(ctx)
		if !ok {
			u.cur++
			continue
		}
		if u.Distinct {
			h := rec.Hash64()
			dup := false
			for _, existing := range u.seen[h] {
				if existing.Equal(rec) {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			u.seen[h] = append(u.seen[h], rec)
		}
		u.markProducing()
		return rec, true
	}
	u.markExhausted()
	return nil, false
}

func (u *Union) Reset(ctx *ExecContext) error {
	for _, c := range u.Children {
		if err := c.Reset(ctx); err != nil {
			return err
		}
	}
	u.cur = 0
	u.seen = make(map[uint64][]*record.Record)
	u.markInit()
	return nil
}

func (u *Union) Clone() Operator {
	children := make([]Operator, len(u.Children))
	for i, c := range u.Children {
		children[i] = c.Clone()
	}
	return &Union{Children: children, Distinct: u.Distinct}
}
func (u *Union) Free() {
	for _, c := range u.Children {
		c.Free()
	}
	u.markFreed()
}

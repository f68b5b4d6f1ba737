package plan

import (
	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// Unwind implements UNWIND: evaluates Source once per input row and
// fans that row out into one output row per list element, bound to
// Variable. A non-list source is treated as a single-element list (a
// scalar UNWINDs to itself); NULL unwinds to zero rows.
type Unwind struct {
	baseState
	Child    Operator
	Source   expr.Expr
	Variable string

	varIdx  int
	pending []value.Value
	rec     *record.Record
}

func NewUnwind(child Operator, source expr.Expr, variable string) *Unwind {
	return &Unwind{Child: child, Source: source, Variable: variable}
}

func (u *Unwind) Init(ctx *ExecContext) error {
	u.varIdx = ctx.Aliases.Intern(u.Variable)
	if err := u.Child.Init(ctx); err != nil {
		return err
	}
	u.markInit()
	return nil
}

func (u *Unwind) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := u.checkConsume(); err != nil {
		ctx.SetErr(err)
		u.markError()
		return nil, false
	}
	for {
		if len(u.pending) > 0 {
			item := u.pending[0]
			u.pending = u.pending[1:]
			out := u.rec.Clone()
			out.SetIndex(u.varIdx, item)
			u.markProducing()
			return out, true
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
		v, err := u.Source.Evaluate(exprContext(ctx, rec))
		if err != nil {
			ctx.SetErr(err)
			u.markError()
			return nil, false
		}
		if v.IsNull() {
			continue
		}
		if list, ok := v.List(); ok {
			u.pending = list
		} else {
			u.pending = []value.Value{v}
		}
		u.rec = rec
	}
}

func (u *Unwind) Reset(ctx *ExecContext) error {
	u.pending = nil
	u.rec = nil
	if err := u.Child.Reset(ctx); err != nil {
		return err
	}
	u.markInit()
	return nil
}

func (u *Unwind) Clone() Operator {
	return &Unwind{Child: u.Child.Clone(), Source: u.Source, Variable: u.Variable}
}
func (u *Unwind) Free() { u.Child.Free(); u.markFreed() }

func (u *Unwind) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Unwind", Description: "UNWIND", Identifiers: []string{u.Variable}, Children: []*PlanNode{Explain(u.Child)}}
}

package plan

import (
	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/record"
)

// exprContext builds the per-record evaluation context an expr.Expr needs,
// bridging the plan-level ExecContext to expr's narrower view.
func exprContext(ctx *ExecContext, rec *record.Record) *expr.Context {
	return &expr.Context{
		Record:   rec,
		Store:    ctx.Graph.Store,
		Attrs:    ctx.Graph.Attrs,
		RelTypes: ctx.Graph.RelTypes,
		Strict:   ctx.Strict,
	}
}

// Filter implements §4.7.3: forwards a record only when Predicate
// evaluates to boolean true. A NULL or non-boolean result is treated as
// false, matching Cypher's WHERE semantics — three-valued logic collapses
// to exclusion, never inclusion, at the WHERE boundary.
type Filter struct {
	baseState
	Child     Operator
	Predicate expr.Expr
}

func NewFilter(child Operator, predicate expr.Expr) *Filter {
	return &Filter{Child: child, Predicate: predicate}
}

func (f *Filter) Init(ctx *ExecContext) error {
	if err := f.Child.Init(ctx); err != nil {
		return err
	}
	f.markInit()
	return nil
}

func (f *Filter) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := f.checkConsume(); err != nil {
		ctx.SetErr(err)
		f.markError()
		return nil, false
	}
	for {
		if ctx.Cancelled() {
			f.markExhausted()
			return nil, false
		}
		rec, ok := f.Child.Consume(ctx)
		if !ok {
			f.markExhausted()
			return nil, false
		}
		v, err := f.Predicate.Evaluate(exprContext(ctx, rec))
		if err != nil {
			ctx.SetErr(err)
			f.markError()
			return nil, false
		}
		b, isBool := v.Bool()
		if isBool && b {
			f.markProducing()
			return rec, true
		}
	}
}

func (f *Filter) Reset(ctx *ExecContext) error {
	if err := f.Child.Reset(ctx); err != nil {
		return err
	}
	f.markInit()
	return nil
}

func (f *Filter) Clone() Operator { return &Filter{Child: f.Child.Clone(), Predicate: f.Predicate} }
func (f *Filter) Free()           { f.Child.Free(); f.markFreed() }

// ProjectItem is one RETURN/WITH expression bound to an output alias.
type ProjectItem struct {
	Alias string
	Expr  expr.Expr
}

// Project implements §4.7.3: evaluates each item against the input record
// and writes a fresh record with only the projected aliases bound — a
// RETURN/WITH clause narrows visibility to exactly its item list.
type Project struct {
	baseState
	Child   Operator
	Items   []ProjectItem
	outIdx  []int
	aliases *record.AliasMap
}

func NewProject(child Operator, items []ProjectItem) *Project {
	return &Project{Child: child, Items: items}
}

func (p *Project) Init(ctx *ExecContext) error {
	if err := p.Child.Init(ctx); err != nil {
		return err
	}
	p.aliases = ctx.Aliases
	p.outIdx = make([]int, len(p.Items))
	for i, item := range p.Items {
		p.outIdx[i] = ctx.Aliases.Intern(item.Alias)
	}
	p.markInit()
	return nil
}

func (p *Project) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := p.checkConsume(); err != nil {
		ctx.SetErr(err)
		p.markError()
		return nil, false
	}
	if ctx.Cancelled() {
		p.markExhausted()
		return nil, false
	}
	rec, ok := p.Child.Consume(ctx)
	if !ok {
		p.markExhausted()
		return nil, false
	}
	out := record.New(p.aliases)
	for i, item := range p.Items {
		v, err := item.Expr.Evaluate(exprContext(ctx, rec))
		if err != nil {
			ctx.SetErr(err)
			p.markError()
			return nil, false
		}
		out.SetIndex(p.outIdx[i], v)
	}
	ctx.Stats.RowsProduced++
	p.markProducing()
	return out, true
}

func (p *Project) Reset(ctx *ExecContext) error {
	if err := p.Child.Reset(ctx); err != nil {
		return err
	}
	p.markInit()
	return nil
}

func (p *Project) Clone() Operator {
	return &Project{Child: p.Child.Clone(), Items: append([]ProjectItem(nil), p.Items...)}
}
func (p *Project) Free() { p.Child.Free(); p.markFreed() }

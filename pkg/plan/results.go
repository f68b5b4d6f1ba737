package plan

import "github.com/orneryd/pgraphdb/pkg/record"

// Results is the terminal operator of every plan tree (§4.7.7): it drives
// its child to exhaustion (or until RowCap rows have been produced) and
// buffers every row, the shape pkg/resultset's formatters read from.
type Results struct {
	baseState
	Child  Operator
	RowCap int // 0 means unbounded

	Rows     []*record.Record
	Truncated bool
}

func NewResults(child Operator, rowCap int) *Results {
	return &Results{Child: child, RowCap: rowCap}
}

func (r *Results) Init(ctx *ExecContext) error {
	if err := r.Child.Init(ctx); err != nil {
		return err
	}
	r.Rows = nil
	r.Truncated = false
	r.markInit()
	return nil
}

// Run drives the child operator to completion, collecting every row into
// Rows. Unlike every other operator, callers don't pull from Results via
// Consume in a loop — Run is the one-shot entry point query.Execute calls.
func (r *Results) Run(ctx *ExecContext) error {
	for {
		if ctx.Cancelled() {
			return nil
		}
		if r.RowCap > 0 && len(r.Rows) >= r.RowCap {
			r.Truncated = true
			return nil
		}
		rec, ok := r.Child.Consume(ctx)
		if !ok {
			return ctx.Err()
		}
		r.Rows = append(r.Rows, rec)
	}
}

// Consume satisfies Operator so Results can itself sit under Explain or a
// nested Merge sub-plan, but query execution normally calls Run instead.
func (r *Results) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := r.checkConsume(); err != nil {
		ctx.SetErr(err)
		r.markError()
		return nil, false
	}
	rec, ok := r.Child.Consume(ctx)
	if !ok {
		r.markExhausted()
		return nil, false
	}
	r.markProducing()
	return rec, true
}

func (r *Results) Reset(ctx *ExecContext) error {
	if err := r.Child.Reset(ctx); err != nil {
		return err
	}
	r.Rows = nil
	r.Truncated = false
	r.markInit()
	return nil
}

func (r *Results) Clone() Operator { return &Results{Child: r.Child.Clone(), RowCap: r.RowCap} }
func (r *Results) Free()           { r.Child.Free(); r.markFreed() }

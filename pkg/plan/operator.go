// Package plan implements Components H and I: the pull-based operator
// tree and every concrete operator of spec §4.7.
//
// Execution is single-threaded and pull-based: the root calls Consume
// until it returns (nil, false). Each operator pulls from its child(ren)
// as needed. Unlike a C/Rust implementation, a Record handed back by
// Consume does not need an explicit free — Go's GC reclaims it — so the
// V-table's "free" step is folded into Free() only where an operator
// holds non-memory resources (nothing in this implementation does;
// Free exists to keep the state machine's Freed transition honest and to
// give future resource-owning operators (e.g. a streaming external sort)
// a place to release them).
package plan

import (
	"errors"

	"github.com/orneryd/pgraphdb/pkg/record"
)

// State is the operator lifecycle state of spec §4.7.8.
type State int

const (
	StateUninit State = iota
	StateInit
	StateProducing
	StateExhausted
	StateError
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateUninit:
		return "Uninit"
	case StateInit:
		return "Init"
	case StateProducing:
		return "Producing"
	case StateExhausted:
		return "Exhausted"
	case StateError:
		return "Error"
	case StateFreed:
		return "Freed"
	default:
		return "Unknown"
	}
}

// ErrNotInitialized is returned by Consume if called before Init.
var ErrNotInitialized = errors.New("operator consumed before init")

// ErrFreed is returned by any call made after Free.
var ErrFreed = errors.New("operator used after free")

// Operator is the V-table every plan node implements.
type Operator interface {
	// Init transitions Uninit -> Init, preparing any buffers the
	// operator needs before its first Consume.
	Init(ctx *ExecContext) error

	// Consume returns the next output Record, or (nil, false) when
	// exhausted. A (nil, false) due to an error is distinguished via
	// ctx.Err() — Consume itself never returns a Go error, matching the
	// "errors go on QueryCtx" rule of spec §4.7.8.
	Consume(ctx *ExecContext) (*record.Record, bool)

	// Reset returns the operator to just-after-Init state, ready to be
	// consumed again from the start (used by CartesianProduct's
	// per-left-row child reset).
	Reset(ctx *ExecContext) error

	// Clone produces an independent copy of this operator (and,
	// transitively, its children) sharing no execution-local state; the
	// copy starts Uninit and is bound to an alias map by its own Init.
	Clone() Operator

	// Free releases any resources and transitions to Freed.
	Free()

	// State reports the current lifecycle state.
	State() State
}

// baseState is embedded by every concrete operator to get the state
// machine's bookkeeping for free; concrete types still implement their
// own Init/Consume/Reset logic but call into these helpers to enforce
// transitions.
type baseState struct {
	state State
}

func (b *baseState) State() State { return b.state }

func (b *baseState) checkConsume() error {
	switch b.state {
	case StateUninit:
		return ErrNotInitialized
	case StateFreed:
		return ErrFreed
	}
	return nil
}

func (b *baseState) markInit()       { b.state = StateInit }
func (b *baseState) markProducing()  { b.state = StateProducing }
func (b *baseState) markExhausted()  { b.state = StateExhausted }
func (b *baseState) markError()      { b.state = StateError }
func (b *baseState) markFreed()      { b.state = StateFreed }

// Package expr implements Component G: the tree of arithmetic, logical,
// comparison-chain and function-call nodes that Filter/Project/Aggregate
// evaluate against a Record (spec §4.6).
//
// # Operator Categories
//
// Logical: AND, OR, XOR, NOT — three-valued, NULL-propagating.
// Comparison: =, <>, <, >, <=, >=, chained (a < b < c is AND of pairwise
// comparisons, short-circuiting on the first NULL or false the way
// Cypher's chained comparisons do).
// Arithmetic: +, -, *, /, % over Integer/Double, plus string/list +
// (concatenation).
//
// Any operand that evaluates to NULL makes the whole expression NULL
// (three-valued logic) unless the expression tree is built with strict
// evaluation, in which case a type error is returned instead of
// silently producing NULL.
package expr

import (
	"fmt"
	"strings"

	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// Context carries everything Evaluate needs beyond the current Record:
// entity property lookup for property-path access on node/edge values.
type Context struct {
	Record   *record.Record
	Store    *store.EntityStore
	Attrs    *store.AttributeTable
	RelTypes *store.DictTable // relationship-type name lookup, for type()
	Strict   bool             // type errors propagate instead of yielding Null
}

// Expr is one node of the expression tree.
type Expr interface {
	Evaluate(ctx *Context) (value.Value, error)
}

// Constant is a literal value.
type Constant struct{ Value value.Value }

func (c Constant) Evaluate(*Context) (value.Value, error) { return c.Value, nil }

// VariableRef reads an alias's bound value, optionally descending a
// property path (n.age, r.weight.nested for map-valued properties).
type VariableRef struct {
	Alias string
	Path  []string
}

func (v VariableRef) Evaluate(ctx *Context) (value.Value, error) {
	bound, ok := ctx.Record.Get(v.Alias)
	if !ok {
		return value.Null, nil
	}
	if len(v.Path) == 0 {
		return bound, nil
	}
	return resolvePath(ctx, bound, v.Path)
}

func resolvePath(ctx *Context, v value.Value, path []string) (value.Value, error) {
	cur := v
	for _, field := range path {
		switch {
		case cur.Kind() == value.KindNodeRef:
			id, _ := cur.NodeID()
			cur = propertyOf(ctx, ctx.Store.GetNode(id), field, ctx)
		case cur.Kind() == value.KindEdgeRef:
			id, _ := cur.EdgeID()
			cur = edgePropertyOf(ctx, ctx.Store.GetEdge(id), field)
		case cur.Kind() == value.KindMap:
			m, _ := cur.Map()
			if nested, ok := m[field]; ok {
				cur = nested
			} else {
				cur = value.Null
			}
		default:
			if ctx.Strict {
				return value.Null, fmt.Errorf("cannot access property %q on a %s", field, cur.Kind())
			}
			cur = value.Null
		}
	}
	return cur, nil
}

func propertyOf(ctx *Context, n *store.NodeSlot, field string, _ *Context) value.Value {
	if n == nil {
		return value.Null
	}
	attr, ok := ctx.Attrs.Lookup(field)
	if !ok {
		return value.Null
	}
	v, ok := n.Props[attr]
	if !ok {
		return value.Null
	}
	return v
}

func edgePropertyOf(ctx *Context, e *store.EdgeSlot, field string) value.Value {
	if e == nil {
		return value.Null
	}
	attr, ok := ctx.Attrs.Lookup(field)
	if !ok {
		return value.Null
	}
	v, ok := e.Props[attr]
	if !ok {
		return value.Null
	}
	return v
}

// UnaryOp is NOT or unary minus.
type UnaryOp struct {
	Op      string // "NOT" | "-"
	Operand Expr
}

func (u UnaryOp) Evaluate(ctx *Context) (value.Value, error) {
	v, err := u.Operand.Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	switch u.Op {
	case "NOT":
		b, ok := v.Bool()
		if !ok {
			if v.IsNull() {
				return value.Null, nil
			}
			return typeErr(ctx, "NOT requires a boolean operand, got %s", v.Kind())
		}
		return value.Bool(!b), nil
	case "-":
		if v.IsNull() {
			return value.Null, nil
		}
		if i, ok := v.Int64(); ok {
			return value.Int64(-i), nil
		}
		if f, ok := v.Double(); ok {
			return value.Double(-f), nil
		}
		return typeErr(ctx, "unary - requires a numeric operand, got %s", v.Kind())
	default:
		return value.Null, fmt.Errorf("unknown unary operator %q", u.Op)
	}
}

// BinaryOp covers arithmetic and the AND/OR/XOR logical connectives.
// AND/OR short-circuit the way three-valued Cypher logic defines: AND
// short-circuits on a definite false, OR on a definite true; otherwise a
// NULL operand makes the whole expression NULL.
type BinaryOp struct {
	Op          string
	Left, Right Expr
}

func (b BinaryOp) Evaluate(ctx *Context) (value.Value, error) {
	switch b.Op {
	case "AND", "OR", "XOR":
		return b.evalLogical(ctx)
	default:
		return b.evalArithmetic(ctx)
	}
}

func (b BinaryOp) evalLogical(ctx *Context) (value.Value, error) {
	l, err := b.Left.Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	lb, lIsBool := l.Bool()

	if b.Op == "AND" && lIsBool && !lb {
		return value.Bool(false), nil
	}
	if b.Op == "OR" && lIsBool && lb {
		return value.Bool(true), nil
	}

	r, err := b.Right.Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	rb, rIsBool := r.Bool()

	if b.Op == "AND" && rIsBool && !rb {
		return value.Bool(false), nil
	}
	if b.Op == "OR" && rIsBool && rb {
		return value.Bool(true), nil
	}

	if !lIsBool || !rIsBool {
		if l.IsNull() || r.IsNull() {
			return value.Null, nil
		}
		return typeErr(ctx, "%s requires boolean operands", b.Op)
	}

	switch b.Op {
	case "AND":
		return value.Bool(lb && rb), nil
	case "OR":
		return value.Bool(lb || rb), nil
	case "XOR":
		return value.Bool(lb != rb), nil
	}
	return value.Null, fmt.Errorf("unknown logical operator %q", b.Op)
}

func (b BinaryOp) evalArithmetic(ctx *Context) (value.Value, error) {
	l, err := b.Left.Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	r, err := b.Right.Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	if l.IsNull() || r.IsNull() {
		return value.Null, nil
	}

	if b.Op == "+" {
		if ls, ok := l.String(); ok {
			if rs, ok := r.String(); ok {
				return value.String(ls + rs), nil
			}
		}
		if ll, ok := l.List(); ok {
			if rl, ok := r.List(); ok {
				out := make([]value.Value, 0, len(ll)+len(rl))
				out = append(out, ll...)
				out = append(out, rl...)
				return value.List(out), nil
			}
		}
	}

	li, lIsInt := l.Int64()
	ri, rIsInt := r.Int64()
	if lIsInt && rIsInt {
		iv, err := intArith(ctx, b.Op, li, ri)
		if err != nil {
			return value.Null, err
		}
		return value.Int64(iv), nil
	}

	lf, lIsF := l.AsFloat64()
	rf, rIsF := r.AsFloat64()
	if lIsF && rIsF {
		fv, err := floatArith(ctx, b.Op, lf, rf)
		if err != nil {
			return value.Null, err
		}
		return value.Double(fv), nil
	}
	return typeErr(ctx, "%s requires numeric operands, got %s and %s", b.Op, l.Kind(), r.Kind())
}

func intArith(ctx *Context, op string, l, r int64) (int64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return l % r, nil
	}
	return 0, fmt.Errorf("unknown arithmetic operator %q", op)
}

func floatArith(ctx *Context, op string, l, r float64) (float64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		return l / r, nil
	case "%":
		return mathMod(l, r), nil
	}
	return 0, fmt.Errorf("unknown arithmetic operator %q", op)
}

func mathMod(l, r float64) float64 {
	for l >= r {
		l -= r
	}
	return l
}

// Comparison is a chain a OP1 b OP2 c ... (length-1 operators for
// length operands), evaluated left to right with AND semantics between
// each pairwise comparison, per Cypher's chained-comparison rule.
type Comparison struct {
	Ops      []string // "=", "<>", "<", ">", "<=", ">="
	Operands []Expr
}

func (c Comparison) Evaluate(ctx *Context) (value.Value, error) {
	if len(c.Operands) < 2 || len(c.Ops) != len(c.Operands)-1 {
		return value.Null, fmt.Errorf("malformed comparison chain")
	}
	prev, err := c.Operands[0].Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	result := true
	anyNull := prev.IsNull()
	for i, op := range c.Ops {
		next, err := c.Operands[i+1].Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		anyNull = anyNull || next.IsNull()
		if !anyNull {
			if !compareOp(op, prev, next) {
				return value.Bool(false), nil
			}
		}
		prev = next
	}
	if anyNull {
		return value.Null, nil
	}
	return value.Bool(result), nil
}

func compareOp(op string, a, b value.Value) bool {
	c := a.Compare(b)
	switch op {
	case "=":
		return c == 0
	case "<>", "!=":
		return c != 0
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	case "=~":
		as, _ := a.String()
		bs, _ := b.String()
		return strings.Contains(as, bs)
	}
	return false
}

// FunctionCall invokes a named scalar or aggregate function (pkg/expr's
// functions.go registry); Distinct only matters to aggregates consumed
// by the Aggregate operator, which de-duplicates arguments itself.
type FunctionCall struct {
	Name     string
	Args     []Expr
	Distinct bool
}

func (f FunctionCall) Evaluate(ctx *Context) (value.Value, error) {
	fn, ok := ScalarFunctions[strings.ToLower(f.Name)]
	if !ok {
		return value.Null, fmt.Errorf("unknown function %q (or it is an aggregate, evaluated by the Aggregate operator)", f.Name)
	}
	args := make([]value.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		args[i] = v
	}
	return fn(ctx, args)
}

// Case implements CASE WHEN ... THEN ... ELSE ... END, with an optional
// leading test expression (CASE x WHEN 1 THEN ...).
type Case struct {
	Test    Expr // nil for the searched form
	Whens   []Expr
	Thens   []Expr
	Else    Expr // nil means NULL
}

func (c Case) Evaluate(ctx *Context) (value.Value, error) {
	var testVal value.Value
	if c.Test != nil {
		v, err := c.Test.Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		testVal = v
	}
	for i, when := range c.Whens {
		wv, err := when.Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		matched := false
		if c.Test != nil {
			matched = testVal.Compare(wv) == 0
		} else if b, ok := wv.Bool(); ok {
			matched = b
		}
		if matched {
			return c.Thens[i].Evaluate(ctx)
		}
	}
	if c.Else != nil {
		return c.Else.Evaluate(ctx)
	}
	return value.Null, nil
}

// ListComprehension evaluates [x IN list WHERE pred | map] over a bound
// list-valued expression.
type ListComprehension struct {
	Variable string
	Source   Expr
	Where    Expr // nil means no filter
	Map      Expr // nil means identity
}

func (lc ListComprehension) Evaluate(ctx *Context) (value.Value, error) {
	src, err := lc.Source.Evaluate(ctx)
	if err != nil {
		return value.Null, err
	}
	items, ok := src.List()
	if !ok {
		if src.IsNull() {
			return value.Null, nil
		}
		return typeErr(ctx, "list comprehension source must be a list, got %s", src.Kind())
	}

	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		inner := ctx.Record.Clone()
		inner.Set(lc.Variable, item)
		innerCtx := &Context{Record: inner, Store: ctx.Store, Attrs: ctx.Attrs, RelTypes: ctx.RelTypes, Strict: ctx.Strict}

		if lc.Where != nil {
			wv, err := lc.Where.Evaluate(innerCtx)
			if err != nil {
				return value.Null, err
			}
			if b, ok := wv.Bool(); !ok || !b {
				continue
			}
		}
		if lc.Map == nil {
			out = append(out, item)
			continue
		}
		mv, err := lc.Map.Evaluate(innerCtx)
		if err != nil {
			return value.Null, err
		}
		out = append(out, mv)
	}
	return value.List(out), nil
}

// MapProjection evaluates n{.a, .b, x: expr} style map literals.
type MapProjection struct {
	Source Expr // nil for a bare map literal
	Fields map[string]Expr
}

func (mp MapProjection) Evaluate(ctx *Context) (value.Value, error) {
	out := make(map[string]value.Value, len(mp.Fields))
	if mp.Source != nil {
		src, err := mp.Source.Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		if m, ok := src.Map(); ok {
			for k, v := range m {
				out[k] = v
			}
		}
	}
	for k, fieldExpr := range mp.Fields {
		v, err := fieldExpr.Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		out[k] = v
	}
	return value.Map(out), nil
}

func typeErr(ctx *Context, format string, args ...any) (value.Value, error) {
	err := fmt.Errorf(format, args...)
	if ctx.Strict {
		return value.Null, err
	}
	return value.Null, nil
}

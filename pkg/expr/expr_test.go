package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

func newCtx() (*Context, *record.AliasMap) {
	aliases := record.NewAliasMap()
	rec := record.New(aliases)
	ctx := &Context{
		Record:   rec,
		Store:    store.New(),
		Attrs:    store.NewAttributeTable(),
		RelTypes: store.NewDictTable(),
	}
	return ctx, aliases
}

func TestConstantAndVariableRef(t *testing.T) {
	ctx, _ := newCtx()
	ctx.Record.Set("x", value.Int64(5))

	v, err := VariableRef{Alias: "x"}.Evaluate(ctx)
	require.NoError(t, err)
	i, _ := v.Int64()
	assert.Equal(t, int64(5), i)
}

func TestVariableRefPropertyPath(t *testing.T) {
	ctx, _ := newCtx()
	id := ctx.Store.CreateNode(nil)
	attr := ctx.Attrs.Intern("age")
	require.NoError(t, ctx.Store.SetNodeProperty(id, attr, value.Int64(30)))
	ctx.Record.Set("n", value.NodeRef(id))

	v, err := VariableRef{Alias: "n", Path: []string{"age"}}.Evaluate(ctx)
	require.NoError(t, err)
	i, _ := v.Int64()
	assert.Equal(t, int64(30), i)
}

func TestUnsetPropertyYieldsNull(t *testing.T) {
	ctx, _ := newCtx()
	id := ctx.Store.CreateNode(nil)
	ctx.Record.Set("n", value.NodeRef(id))
	v, err := VariableRef{Alias: "n", Path: []string{"missing"}}.Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestAndShortCircuitsOnFalse(t *testing.T) {
	ctx, _ := newCtx()
	expr := BinaryOp{Op: "AND", Left: Constant{value.Bool(false)}, Right: Constant{value.Null}}
	v, err := expr.Evaluate(ctx)
	require.NoError(t, err)
	b, ok := v.Bool()
	require.True(t, ok)
	assert.False(t, b, "AND short-circuits on a definite false even with a NULL other operand")
}

func TestAndWithNullIsNullWhenNotShortCircuited(t *testing.T) {
	ctx, _ := newCtx()
	expr := BinaryOp{Op: "AND", Left: Constant{value.Bool(true)}, Right: Constant{value.Null}}
	v, err := expr.Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestOrShortCircuitsOnTrue(t *testing.T) {
	ctx, _ := newCtx()
	expr := BinaryOp{Op: "OR", Left: Constant{value.Bool(true)}, Right: Constant{value.Null}}
	v, err := expr.Evaluate(ctx)
	require.NoError(t, err)
	b, _ := v.Bool()
	assert.True(t, b)
}

func TestArithmeticIntAndFloatPromotion(t *testing.T) {
	ctx, _ := newCtx()
	intExpr := BinaryOp{Op: "+", Left: Constant{value.Int64(2)}, Right: Constant{value.Int64(3)}}
	v, err := intExpr.Evaluate(ctx)
	require.NoError(t, err)
	i, ok := v.Int64()
	require.True(t, ok)
	assert.Equal(t, int64(5), i)

	mixed := BinaryOp{Op: "+", Left: Constant{value.Int64(2)}, Right: Constant{value.Double(1.5)}}
	v, err = mixed.Evaluate(ctx)
	require.NoError(t, err)
	f, ok := v.Double()
	require.True(t, ok)
	assert.Equal(t, 3.5, f)
}

func TestArithmeticWithNullIsNull(t *testing.T) {
	ctx, _ := newCtx()
	e := BinaryOp{Op: "+", Left: Constant{value.Int64(2)}, Right: Constant{value.Null}}
	v, err := e.Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestStringConcatenation(t *testing.T) {
	ctx, _ := newCtx()
	e := BinaryOp{Op: "+", Left: Constant{value.String("foo")}, Right: Constant{value.String("bar")}}
	v, err := e.Evaluate(ctx)
	require.NoError(t, err)
	s, _ := v.String()
	assert.Equal(t, "foobar", s)
}

func TestComparisonChain(t *testing.T) {
	ctx, _ := newCtx()
	e := Comparison{
		Ops:      []string{"<", "<"},
		Operands: []Expr{Constant{value.Int64(1)}, Constant{value.Int64(2)}, Constant{value.Int64(3)}},
	}
	v, err := e.Evaluate(ctx)
	require.NoError(t, err)
	b, _ := v.Bool()
	assert.True(t, b)

	e2 := Comparison{
		Ops:      []string{"<", "<"},
		Operands: []Expr{Constant{value.Int64(1)}, Constant{value.Int64(5)}, Constant{value.Int64(3)}},
	}
	v2, err := e2.Evaluate(ctx)
	require.NoError(t, err)
	b2, _ := v2.Bool()
	assert.False(t, b2)
}

func TestComparisonChainWithNullIsNull(t *testing.T) {
	ctx, _ := newCtx()
	e := Comparison{
		Ops:      []string{"<"},
		Operands: []Expr{Constant{value.Int64(1)}, Constant{value.Null}},
	}
	v, err := e.Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestUnaryNot(t *testing.T) {
	ctx, _ := newCtx()
	v, err := UnaryOp{Op: "NOT", Operand: Constant{value.Bool(false)}}.Evaluate(ctx)
	require.NoError(t, err)
	b, _ := v.Bool()
	assert.True(t, b)
}

func TestFunctionCallToUpper(t *testing.T) {
	ctx, _ := newCtx()
	v, err := FunctionCall{Name: "toUpper", Args: []Expr{Constant{value.String("abc")}}}.Evaluate(ctx)
	require.NoError(t, err)
	s, _ := v.String()
	assert.Equal(t, "ABC", s)
}

func TestFunctionCallCoalesce(t *testing.T) {
	ctx, _ := newCtx()
	v, err := FunctionCall{Name: "coalesce", Args: []Expr{Constant{value.Null}, Constant{value.Int64(7)}}}.Evaluate(ctx)
	require.NoError(t, err)
	i, _ := v.Int64()
	assert.Equal(t, int64(7), i)
}

func TestCaseSearchedForm(t *testing.T) {
	ctx, _ := newCtx()
	c := Case{
		Whens: []Expr{Constant{value.Bool(false)}, Constant{value.Bool(true)}},
		Thens: []Expr{Constant{value.String("no")}, Constant{value.String("yes")}},
		Else:  Constant{value.String("else")},
	}
	v, err := c.Evaluate(ctx)
	require.NoError(t, err)
	s, _ := v.String()
	assert.Equal(t, "yes", s)
}

func TestListComprehensionFilterAndMap(t *testing.T) {
	ctx, _ := newCtx()
	lc := ListComprehension{
		Variable: "x",
		Source: Constant{value.List([]value.Value{
			value.Int64(1), value.Int64(2), value.Int64(3), value.Int64(4),
		})},
		Where: Comparison{Ops: []string{">"}, Operands: []Expr{VariableRef{Alias: "x"}, Constant{value.Int64(2)}}},
		Map:   BinaryOp{Op: "*", Left: VariableRef{Alias: "x"}, Right: Constant{value.Int64(10)}},
	}
	v, err := lc.Evaluate(ctx)
	require.NoError(t, err)
	list, ok := v.List()
	require.True(t, ok)
	require.Len(t, list, 2)
	a, _ := list[0].Int64()
	b, _ := list[1].Int64()
	assert.Equal(t, int64(30), a)
	assert.Equal(t, int64(40), b)
}

func TestMapProjection(t *testing.T) {
	ctx, _ := newCtx()
	mp := MapProjection{Fields: map[string]Expr{"a": Constant{value.Int64(1)}}}
	v, err := mp.Evaluate(ctx)
	require.NoError(t, err)
	m, ok := v.Map()
	require.True(t, ok)
	i, _ := m["a"].Int64()
	assert.Equal(t, int64(1), i)
}

package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/orneryd/pgraphdb/pkg/value"
)

// ScalarFunction evaluates a function call given its already-evaluated
// arguments.
type ScalarFunction func(ctx *Context, args []value.Value) (value.Value, error)

// ScalarFunctions is the registry FunctionCall.Evaluate consults. Names
// are lower-cased before lookup, matching Cypher's case-insensitive
// function names.
var ScalarFunctions = map[string]ScalarFunction{
	"coalesce":    fnCoalesce,
	"tostring":    fnToString,
	"tointeger":   fnToInteger,
	"tofloat":     fnToFloat,
	"toupper":     fnStringUnary(strings.ToUpper),
	"tolower":     fnStringUnary(strings.ToLower),
	"trim":        fnStringUnary(strings.TrimSpace),
	"ltrim":       fnStringUnary(func(s string) string { return strings.TrimLeft(s, " \t\n\r") }),
	"rtrim":       fnStringUnary(func(s string) string { return strings.TrimRight(s, " \t\n\r") }),
	"reverse":     fnReverse,
	"size":        fnSize,
	"length":      fnSize,
	"substring":   fnSubstring,
	"replace":     fnReplace,
	"split":       fnSplit,
	"abs":         fnNumericUnary(math.Abs),
	"ceil":        fnNumericUnary(math.Ceil),
	"floor":       fnNumericUnary(math.Floor),
	"sqrt":        fnNumericUnary(math.Sqrt),
	"sign":        fnNumericUnary(sign),
	"round":       fnNumericUnary(math.Round),
	"startswith":  fnStartsWith,
	"endswith":    fnEndsWith,
	"contains":    fnContains,
	"keys":        fnKeys,
	"type":        fnType,
	"id":          fnID,
	"head":        fnHead,
	"last":        fnLast,
	"tail":        fnTail,
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func requireArgs(name string, args []value.Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s() takes %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func fnCoalesce(_ *Context, args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	return value.Null, nil
}

func fnToString(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("toString", args, 1); err != nil {
		return value.Null, err
	}
	v := args[0]
	if v.IsNull() {
		return value.Null, nil
	}
	if s, ok := v.String(); ok {
		return value.String(s), nil
	}
	if i, ok := v.Int64(); ok {
		return value.String(strconv.FormatInt(i, 10)), nil
	}
	if f, ok := v.Double(); ok {
		return value.String(strconv.FormatFloat(f, 'g', -1, 64)), nil
	}
	if b, ok := v.Bool(); ok {
		return value.String(strconv.FormatBool(b)), nil
	}
	return value.Null, nil
}

func fnToInteger(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("toInteger", args, 1); err != nil {
		return value.Null, err
	}
	v := args[0]
	if i, ok := v.Int64(); ok {
		return value.Int64(i), nil
	}
	if f, ok := v.Double(); ok {
		return value.Int64(int64(f)), nil
	}
	if s, ok := v.String(); ok {
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Null, nil
		}
		return value.Int64(i), nil
	}
	return value.Null, nil
}

func fnToFloat(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("toFloat", args, 1); err != nil {
		return value.Null, err
	}
	v := args[0]
	if f, ok := v.AsFloat64(); ok {
		return value.Double(f), nil
	}
	if s, ok := v.String(); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return value.Null, nil
		}
		return value.Double(f), nil
	}
	return value.Null, nil
}

func fnStringUnary(op func(string) string) ScalarFunction {
	return func(_ *Context, args []value.Value) (value.Value, error) {
		if err := requireArgs("string function", args, 1); err != nil {
			return value.Null, err
		}
		s, ok := args[0].String()
		if !ok {
			if args[0].IsNull() {
				return value.Null, nil
			}
			return value.Null, fmt.Errorf("expected a string argument, got %s", args[0].Kind())
		}
		return value.String(op(s)), nil
	}
}

func fnNumericUnary(op func(float64) float64) ScalarFunction {
	return func(_ *Context, args []value.Value) (value.Value, error) {
		if err := requireArgs("numeric function", args, 1); err != nil {
			return value.Null, err
		}
		f, ok := args[0].AsFloat64()
		if !ok {
			if args[0].IsNull() {
				return value.Null, nil
			}
			return value.Null, fmt.Errorf("expected a numeric argument, got %s", args[0].Kind())
		}
		return value.Double(op(f)), nil
	}
}

func fnReverse(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("reverse", args, 1); err != nil {
		return value.Null, err
	}
	if s, ok := args[0].String(); ok {
		r := []rune(s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return value.String(string(r)), nil
	}
	if list, ok := args[0].List(); ok {
		out := make([]value.Value, len(list))
		for i, v := range list {
			out[len(list)-1-i] = v
		}
		return value.List(out), nil
	}
	return value.Null, nil
}

func fnSize(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("size", args, 1); err != nil {
		return value.Null, err
	}
	if s, ok := args[0].String(); ok {
		return value.Int64(int64(len([]rune(s)))), nil
	}
	if list, ok := args[0].List(); ok {
		return value.Int64(int64(len(list))), nil
	}
	if m, ok := args[0].Map(); ok {
		return value.Int64(int64(len(m))), nil
	}
	return value.Null, nil
}

func fnSubstring(_ *Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return value.Null, fmt.Errorf("substring() takes 2 or 3 arguments, got %d", len(args))
	}
	s, ok := args[0].String()
	if !ok {
		return value.Null, nil
	}
	start, _ := args[1].Int64()
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if start > int64(len(r)) {
		start = int64(len(r))
	}
	end := int64(len(r))
	if len(args) == 3 {
		n, _ := args[2].Int64()
		if start+n < end {
			end = start + n
		}
	}
	return value.String(string(r[start:end])), nil
}

func fnReplace(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("replace", args, 3); err != nil {
		return value.Null, err
	}
	s, _ := args[0].String()
	search, _ := args[1].String()
	replacement, _ := args[2].String()
	return value.String(strings.ReplaceAll(s, search, replacement)), nil
}

func fnSplit(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("split", args, 2); err != nil {
		return value.Null, err
	}
	s, _ := args[0].String()
	sep, _ := args[1].String()
	parts := strings.Split(s, sep)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.List(out), nil
}

func fnStartsWith(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("startsWith", args, 2); err != nil {
		return value.Null, err
	}
	s, _ := args[0].String()
	prefix, _ := args[1].String()
	return value.Bool(strings.HasPrefix(s, prefix)), nil
}

func fnEndsWith(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("endsWith", args, 2); err != nil {
		return value.Null, err
	}
	s, _ := args[0].String()
	suffix, _ := args[1].String()
	return value.Bool(strings.HasSuffix(s, suffix)), nil
}

func fnContains(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("contains", args, 2); err != nil {
		return value.Null, err
	}
	s, _ := args[0].String()
	sub, _ := args[1].String()
	return value.Bool(strings.Contains(s, sub)), nil
}

func fnKeys(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("keys", args, 1); err != nil {
		return value.Null, err
	}
	m, ok := args[0].Map()
	if !ok {
		return value.Null, nil
	}
	out := make([]value.Value, 0, len(m))
	for k := range m {
		out = append(out, value.String(k))
	}
	return value.List(out), nil
}

func fnType(ctx *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("type", args, 1); err != nil {
		return value.Null, err
	}
	id, ok := args[0].EdgeID()
	if !ok {
		return value.Null, nil
	}
	e := ctx.Store.GetEdge(id)
	if e == nil {
		return value.Null, nil
	}
	if ctx.RelTypes != nil {
		if name, ok := ctx.RelTypes.Name(e.Type); ok {
			return value.String(name), nil
		}
	}
	return value.Null, nil
}

func fnID(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("id", args, 1); err != nil {
		return value.Null, err
	}
	if id, ok := args[0].NodeID(); ok {
		return value.Int64(int64(id)), nil
	}
	if id, ok := args[0].EdgeID(); ok {
		return value.Int64(int64(id)), nil
	}
	return value.Null, nil
}

func fnHead(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("head", args, 1); err != nil {
		return value.Null, err
	}
	list, ok := args[0].List()
	if !ok || len(list) == 0 {
		return value.Null, nil
	}
	return list[0], nil
}

func fnLast(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("last", args, 1); err != nil {
		return value.Null, err
	}
	list, ok := args[0].List()
	if !ok || len(list) == 0 {
		return value.Null, nil
	}
	return list[len(list)-1], nil
}

func fnTail(_ *Context, args []value.Value) (value.Value, error) {
	if err := requireArgs("tail", args, 1); err != nil {
		return value.Null, err
	}
	list, ok := args[0].List()
	if !ok || len(list) == 0 {
		return value.List(nil), nil
	}
	return value.List(list[1:]), nil
}

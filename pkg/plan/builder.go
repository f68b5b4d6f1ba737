package plan

import (
	"fmt"
	"strings"

	"github.com/orneryd/pgraphdb/pkg/ast"
	"github.com/orneryd/pgraphdb/pkg/expr"
	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// defaultMaxHops bounds an unbounded variable-length pattern (e.g.
// -[:KNOWS*]-> with no upper bound) so VarLenTraverse's BFS terminates
// without a caller-supplied cap.
const defaultMaxHops = 15

// Builder lowers a parsed ast.AST into the pkg/plan operator tree that
// runs it, resolving every label/relationship-type/attribute name
// against the target graph's dictionaries as it goes (interning new
// ones on write clauses, on read clauses too — a MATCH against a label
// that doesn't exist yet simply scans an empty, lazily-allocated
// matrix rather than needing a separate "unknown name" code path).
type Builder struct {
	Graph       *graph.Graph
	anonCounter int

	// Columns is the output column list of the last WITH/RETURN clause
	// seen, in source order, populated once Build returns. A query with
	// no RETURN (a pure write) leaves this nil — pkg/query reports zero
	// columns and zero rows for such a query, only its Stats.
	Columns []string
}

func NewBuilder(g *graph.Graph) *Builder { return &Builder{Graph: g} }

// Build lowers a whole query. A compound (UNION) query is split into
// its constituent single queries at the ClauseUnion boundaries and
// stitched back together with a Union operator; UNION (without ALL) is
// Cypher's default and the only form ast.AST currently distinguishes.
func (b *Builder) Build(a *ast.AST) (Operator, error) {
	groups := splitOnUnion(a.Clauses)
	if len(groups) == 1 {
		return b.buildSingle(groups[0])
	}
	children := make([]Operator, len(groups))
	for i, g := range groups {
		op, err := b.buildSingle(g)
		if err != nil {
			return nil, err
		}
		children[i] = op
	}
	return NewUnion(children, true), nil
}

func splitOnUnion(clauses []ast.Clause) [][]ast.Clause {
	var groups [][]ast.Clause
	var cur []ast.Clause
	for _, c := range clauses {
		if c.Type == ast.ClauseUnion {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, c)
	}
	groups = append(groups, cur)
	return groups
}

// buildSingle lowers one linear clause pipeline (no UNION) into an
// operator tree, threading a `bound` set of already-bound aliases
// through MATCH/CREATE/MERGE so later clauses know whether a pattern
// variable needs a fresh scan or an ExpandInto/equality check against
// an existing binding.
func (b *Builder) buildSingle(clauses []ast.Clause) (Operator, error) {
	var cur Operator
	bound := map[string]bool{}

	for i := 0; i < len(clauses); i++ {
		c := clauses[i]
		switch c.Type {
		case ast.ClauseMatch, ast.ClauseOptionalMatch:
			// OPTIONAL MATCH is lowered identically to MATCH; the
			// outer-join fallback (null bindings on no match) isn't
			// modeled, a documented simplification.
			for _, pat := range c.Match.Patterns {
				patOp, err := b.buildPattern(pat, bound)
				if err != nil {
					return nil, err
				}
				if cur == nil {
					cur = patOp
				} else {
					cur = NewCartesianProduct(cur, patOp)
				}
			}

		case ast.ClauseWhere:
			pred, err := b.lowerExpr(c.Where.Condition)
			if err != nil {
				return nil, err
			}
			if cur == nil {
				cur = newUnitOperator()
			}
			cur = NewFilter(cur, pred)

		case ast.ClauseCreate:
			nodes, rels, err := b.buildCreateSpecs(c.Create.Patterns, bound)
			if err != nil {
				return nil, err
			}
			child := cur
			if child == nil {
				child = newUnitOperator()
			}
			cur = NewCreate(child, nodes, rels)

		case ast.ClauseMerge:
			matchPlan, createPlan, err := b.buildMerge(c.Merge, bound)
			if err != nil {
				return nil, err
			}
			onMatch, err := b.lowerSetItems(c.Merge.OnMatch)
			if err != nil {
				return nil, err
			}
			onCreate, err := b.lowerSetItems(c.Merge.OnCreate)
			if err != nil {
				return nil, err
			}
			child := cur
			if child == nil {
				child = newUnitOperator()
			}
			cur = NewMerge(child, matchPlan, createPlan, onMatch, onCreate)

		case ast.ClauseDelete, ast.ClauseDetachDelete:
			if cur == nil {
				return nil, fmt.Errorf("DELETE requires a preceding MATCH")
			}
			cur = NewDelete(cur, c.Delete.Variables, c.Delete.Detach)

		case ast.ClauseSet:
			items, err := b.lowerSetItems(c.Set.Items)
			if err != nil {
				return nil, err
			}
			cur = NewUpdate(cur, items, nil)

		case ast.ClauseRemove:
			cur = NewUpdate(cur, nil, b.lowerRemoveItems(c.Remove.Items))

		case ast.ClauseUnwind:
			src, err := b.lowerExpr(c.Unwind.Expression)
			if err != nil {
				return nil, err
			}
			if cur == nil {
				cur = newUnitOperator()
			}
			cur = NewUnwind(cur, src, c.Unwind.Variable)
			bound[c.Unwind.Variable] = true

		case ast.ClauseWith, ast.ClauseReturn:
			groupBy, aggs, isAgg, err := b.splitAggregates(c)
			if err != nil {
				return nil, err
			}
			b.Columns = returnColumns(c)
			if cur == nil {
				cur = newUnitOperator()
			}
			if isAgg {
				cur = NewAggregate(cur, groupBy, aggs)
			} else {
				cur = NewProject(cur, groupBy)
			}
			if clauseDistinct(c) && !isAgg {
				keys := make([]expr.Expr, len(groupBy))
				for i, it := range groupBy {
					keys[i] = expr.VariableRef{Alias: it.Alias}
				}
				cur = NewDistinct(cur, keys)
			}
			newBound := map[string]bool{}
			for _, it := range groupBy {
				newBound[it.Alias] = true
			}
			for _, it := range aggs {
				newBound[it.Alias] = true
			}
			bound = newBound

		case ast.ClauseOrderBy:
			items := make([]SortItem, len(c.OrderBy.Items))
			for j, oi := range c.OrderBy.Items {
				e, err := b.lowerExpr(oi.Expression)
				if err != nil {
					return nil, err
				}
				items[j] = SortItem{Expr: e, Descending: oi.Descending}
			}
			skip, limit, hasLimit, consumed := peekSkipLimit(clauses, i+1)
			cur = NewSort(cur, items, skip, limit, hasLimit)
			i += consumed

		case ast.ClauseSkip:
			skip := int(*c.Skip)
			limit := 0
			hasLimit := false
			if i+1 < len(clauses) && clauses[i+1].Type == ast.ClauseLimit {
				limit = int(*clauses[i+1].Limit)
				hasLimit = true
				i++
			}
			cur = NewSort(cur, nil, skip, limit, hasLimit)

		case ast.ClauseLimit:
			cur = NewSort(cur, nil, 0, int(*c.Limit), true)

		case ast.ClauseCall:
			// No stored-procedure registry exists in this build; CALL
			// is accepted syntactically and left as a pass-through.

		case ast.ClauseUnion:
			// split out by splitOnUnion before buildSingle runs.
		}
	}
	return cur, nil
}

func peekSkipLimit(clauses []ast.Clause, start int) (skip, limit int, hasLimit bool, consumed int) {
	i := start
	if i < len(clauses) && clauses[i].Type == ast.ClauseSkip {
		skip = int(*clauses[i].Skip)
		consumed++
		i++
	}
	if i < len(clauses) && clauses[i].Type == ast.ClauseLimit {
		limit = int(*clauses[i].Limit)
		hasLimit = true
		consumed++
	}
	return skip, limit, hasLimit, consumed
}

func clauseDistinct(c ast.Clause) bool {
	if c.Type == ast.ClauseReturn {
		return c.Return.Distinct
	}
	return c.With.Distinct
}

// aliasOrAnon assigns a stable synthetic alias to an unnamed pattern
// element (e.g. the node in (n)-->()) so it still has a slot in the
// shared AliasMap, even though no clause ever refers to it by name.
func (b *Builder) aliasOrAnon(v string) string {
	if v != "" {
		return v
	}
	b.anonCounter++
	return fmt.Sprintf("_anon%d", b.anonCounter)
}

func (b *Builder) scanForNode(n ast.NodePattern, alias string) Operator {
	if len(n.Labels) == 0 {
		return NewAllNodeScan(alias)
	}
	return NewLabelScan(alias, b.Graph.Labels.Intern(n.Labels[0]))
}

// applyNodeFilters wraps op with a Filter for every label beyond the
// one LabelScan already checked, plus an equality Filter for any
// inline {props} on the node pattern.
func (b *Builder) applyNodeFilters(op Operator, alias string, n ast.NodePattern, firstLabelAlreadyScanned bool) (Operator, error) {
	labels := n.Labels
	if firstLabelAlreadyScanned && len(labels) > 0 {
		labels = labels[1:]
	}
	for _, lbl := range labels {
		op = NewFilter(op, hasLabelExpr{Alias: alias, LabelID: b.Graph.Labels.Intern(lbl)})
	}
	if len(n.Properties) > 0 {
		pred, err := b.propertyEqualityExpr(alias, n.Properties)
		if err != nil {
			return nil, err
		}
		op = NewFilter(op, pred)
	}
	return op, nil
}

func (b *Builder) propertyEqualityExpr(alias string, props map[string]ast.Expression) (expr.Expr, error) {
	var result expr.Expr
	for k, v := range props {
		rhs, err := b.lowerExpr(v)
		if err != nil {
			return nil, err
		}
		cmp := expr.Comparison{
			Ops:      []string{"="},
			Operands: []expr.Expr{expr.VariableRef{Alias: alias, Path: []string{k}}, rhs},
		}
		if result == nil {
			result = cmp
		} else {
			result = expr.BinaryOp{Op: "AND", Left: result, Right: cmp}
		}
	}
	if result == nil {
		result = expr.Constant{Value: value.Bool(true)}
	}
	return result, nil
}

func lowerDirection(d ast.Direction) Direction {
	switch d {
	case ast.DirOutgoing:
		return DirOut
	case ast.DirIncoming:
		return DirIn
	default:
		return DirBoth
	}
}

// buildPattern lowers one graph pattern into a scan-then-traverse
// operator chain. The first node's scan is LabelScan/AllNodeScan
// depending on the pattern's label; every relationship hop picks
// ConditionalTraverse (destination not yet bound), ExpandInto (both
// ends already bound — a cyclic pattern like (a)-->(b)-->(a)), or
// VarLenTraverse (a bounded-hop relationship).
func (b *Builder) buildPattern(pat ast.Pattern, bound map[string]bool) (Operator, error) {
	if len(pat.Nodes) == 0 {
		return nil, fmt.Errorf("pattern has no nodes")
	}
	n0 := pat.Nodes[0]
	alias0 := b.aliasOrAnon(n0.Variable)
	op := b.scanForNode(n0, alias0)
	bound[alias0] = true
	op, err := b.applyNodeFilters(op, alias0, n0, true)
	if err != nil {
		return nil, err
	}

	prevAlias := alias0
	for i, rel := range pat.Relationships {
		dstNode := pat.Nodes[i+1]
		dstAlias := b.aliasOrAnon(dstNode.Variable)
		edgeAlias := b.aliasOrAnon(rel.Variable)
		dir := lowerDirection(rel.Direction)

		var relTypes []uint32
		if rel.Type != "" {
			relTypes = []uint32{b.Graph.RelTypes.Intern(rel.Type)}
		}

		switch {
		case rel.MinHops != nil || rel.MaxHops != nil:
			min := 1
			if rel.MinHops != nil {
				min = *rel.MinHops
			}
			max := defaultMaxHops
			if rel.MaxHops != nil {
				max = *rel.MaxHops
			}
			op = NewVarLenTraverse(op, prevAlias, edgeAlias, dstAlias, min, max, relTypes, dir)
			bound[edgeAlias] = true
			bound[dstAlias] = true
		case bound[dstAlias]:
			op = NewExpandInto(op, prevAlias, edgeAlias, dstAlias, relTypes, dir)
			bound[edgeAlias] = true
		default:
			op = NewConditionalTraverse(op, prevAlias, edgeAlias, dstAlias, relTypes, dir)
			bound[dstAlias] = true
			bound[edgeAlias] = true
		}

		op, err = b.applyNodeFilters(op, dstAlias, dstNode, false)
		if err != nil {
			return nil, err
		}
		if len(rel.Properties) > 0 {
			pred, err := b.propertyEqualityExpr(edgeAlias, rel.Properties)
			if err != nil {
				return nil, err
			}
			op = NewFilter(op, pred)
		}
		prevAlias = dstAlias
	}
	return op, nil
}

// buildCreateSpecs lowers CREATE/MERGE patterns into NodeSpec/RelSpec,
// skipping any node alias already present in bound — CREATE (a)-[:X]->(b)
// after a MATCH (a) reuses the matched a rather than allocating a
// second node under the same alias.
func (b *Builder) buildCreateSpecs(patterns []ast.Pattern, bound map[string]bool) ([]NodeSpec, []RelSpec, error) {
	var nodes []NodeSpec
	var rels []RelSpec
	for _, pat := range patterns {
		if len(pat.Nodes) == 0 {
			continue
		}
		aliases := make([]string, len(pat.Nodes))
		for i, n := range pat.Nodes {
			alias := b.aliasOrAnon(n.Variable)
			aliases[i] = alias
			if bound[alias] {
				continue
			}
			labelIDs := make([]uint32, len(n.Labels))
			for j, l := range n.Labels {
				labelIDs[j] = b.Graph.Labels.Intern(l)
			}
			props, err := b.lowerPropMap(n.Properties)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, NodeSpec{Alias: alias, Labels: labelIDs, Props: props})
			bound[alias] = true
		}
		for i, rel := range pat.Relationships {
			from, to := aliases[i], aliases[i+1]
			if rel.Direction == ast.DirIncoming {
				from, to = to, from
			}
			props, err := b.lowerPropMap(rel.Properties)
			if err != nil {
				return nil, nil, err
			}
			edgeAlias := b.aliasOrAnon(rel.Variable)
			rels = append(rels, RelSpec{
				Alias: edgeAlias, FromAlias: from, ToAlias: to,
				RelType: b.Graph.RelTypes.Intern(rel.Type), Props: props,
			})
			bound[edgeAlias] = true
		}
	}
	return nodes, rels, nil
}

func (b *Builder) buildMerge(m *ast.Merge, bound map[string]bool) (Operator, *Create, error) {
	matchBound := map[string]bool{}
	matchPlan, err := b.buildPattern(m.Pattern, matchBound)
	if err != nil {
		return nil, nil, err
	}
	createBound := map[string]bool{}
	nodes, rels, err := b.buildCreateSpecs([]ast.Pattern{m.Pattern}, createBound)
	if err != nil {
		return nil, nil, err
	}
	createPlan := NewCreate(newUnitOperator(), nodes, rels)
	for alias := range matchBound {
		bound[alias] = true
	}
	return matchPlan, createPlan, nil
}

func (b *Builder) lowerPropMap(m map[string]ast.Expression) (map[store.AttrID]expr.Expr, error) {
	out := make(map[store.AttrID]expr.Expr, len(m))
	for k, v := range m {
		lowered, err := b.lowerExpr(v)
		if err != nil {
			return nil, err
		}
		out[b.Graph.Attrs.Intern(k)] = lowered
	}
	return out, nil
}

func (b *Builder) lowerSetItems(items []ast.SetItem) ([]SetItem, error) {
	var out []SetItem
	for _, it := range items {
		if len(it.Labels) > 0 {
			for _, l := range it.Labels {
				out = append(out, SetItem{Alias: it.Variable, AddLabel: b.Graph.Labels.Intern(l), HasLabel: true})
			}
			continue
		}
		if it.Property == "" {
			// SET n = {...} / n += {...}: expand a map-literal RHS into
			// per-key SetItems. Replace-vs-merge aren't distinguished —
			// a plain "= {...}" clearing keys absent from the literal
			// isn't modeled, a documented limitation.
			lowered, err := b.lowerExpr(it.Value)
			if err != nil {
				return nil, err
			}
			mp, ok := lowered.(expr.MapProjection)
			if !ok {
				continue
			}
			for k, fe := range mp.Fields {
				out = append(out, SetItem{Alias: it.Variable, Attr: b.Graph.Attrs.Intern(k), Value: fe})
			}
			continue
		}
		val, err := b.lowerExpr(it.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, SetItem{Alias: it.Variable, Attr: b.Graph.Attrs.Intern(it.Property), Value: val})
	}
	return out, nil
}

func (b *Builder) lowerRemoveItems(items []ast.RemoveItem) []RemoveItem {
	var out []RemoveItem
	for _, it := range items {
		if it.Property != "" {
			out = append(out, RemoveItem{Alias: it.Variable, Attr: b.Graph.Attrs.Intern(it.Property), HasAttr: true})
		}
		for _, l := range it.Labels {
			out = append(out, RemoveItem{Alias: it.Variable, RemoveLabel: b.Graph.Labels.Intern(l), HasLabel: true})
		}
	}
	return out
}

// splitAggregates partitions a RETURN/WITH item list into plain
// projections (GROUP BY keys, implicitly) and aggregate expressions; a
// clause counts as an aggregation the moment any item is a recognized
// aggregate function call.
func (b *Builder) splitAggregates(c ast.Clause) ([]ProjectItem, []AggregateItem, bool, error) {
	var items []ast.ReturnItem
	if c.Type == ast.ClauseReturn {
		items = c.Return.Items
	} else {
		items = c.With.Items
	}
	var groupBy []ProjectItem
	var aggs []AggregateItem
	isAgg := false
	for i, it := range items {
		if fn, argExpr, isCountStar, ok := aggregateFunc(it.Expression); ok {
			isAgg = true
			var lowered expr.Expr
			if !isCountStar {
				var err error
				lowered, err = b.lowerExpr(*argExpr)
				if err != nil {
					return nil, nil, false, err
				}
			}
			aggs = append(aggs, AggregateItem{Alias: aliasFor(it, i), Func: fn, Arg: lowered})
			continue
		}
		e, err := b.lowerExpr(it.Expression)
		if err != nil {
			return nil, nil, false, err
		}
		groupBy = append(groupBy, ProjectItem{Alias: aliasFor(it, i), Expr: e})
	}
	return groupBy, aggs, isAgg, nil
}

// returnColumns lists a RETURN/WITH clause's output aliases in source
// order, independent of how splitAggregates partitions them internally —
// ResultSet.Collect resolves each column by name through the shared
// AliasMap, so display order only needs to match the query text.
func returnColumns(c ast.Clause) []string {
	var items []ast.ReturnItem
	if c.Type == ast.ClauseReturn {
		items = c.Return.Items
	} else {
		items = c.With.Items
	}
	cols := make([]string, len(items))
	for i, it := range items {
		cols[i] = aliasFor(it, i)
	}
	return cols
}

func aggregateFunc(e ast.Expression) (fn AggFunc, arg *ast.Expression, isCountStar bool, ok bool) {
	if e.Type != ast.ExprFunction || e.Function == nil {
		return 0, nil, false, false
	}
	name := strings.ToLower(e.Function.Name)
	if name == "count" && len(e.Function.Args) == 0 {
		return AggCountStar, nil, true, true
	}
	if len(e.Function.Args) == 0 {
		return 0, nil, false, false
	}
	switch name {
	case "count":
		return AggCount, &e.Function.Args[0], false, true
	case "sum":
		return AggSum, &e.Function.Args[0], false, true
	case "min":
		return AggMin, &e.Function.Args[0], false, true
	case "max":
		return AggMax, &e.Function.Args[0], false, true
	case "avg":
		return AggAvg, &e.Function.Args[0], false, true
	case "collect":
		return AggCollect, &e.Function.Args[0], false, true
	}
	return 0, nil, false, false
}

func aliasFor(it ast.ReturnItem, idx int) string {
	if it.Alias != "" {
		return it.Alias
	}
	switch it.Expression.Type {
	case ast.ExprVariable:
		return it.Expression.Variable
	case ast.ExprProperty:
		if p := it.Expression.Property; p != nil {
			if len(p.Path) > 0 {
				return p.Variable + "." + strings.Join(p.Path, ".")
			}
			return p.Variable
		}
	}
	return fmt.Sprintf("expr%d", idx)
}

// lowerExpr translates the parser-facing ast.Expression tree into the
// expr.Expr tree Filter/Project/Aggregate/Sort evaluate.
func (b *Builder) lowerExpr(e ast.Expression) (expr.Expr, error) {
	switch e.Type {
	case ast.ExprLiteral:
		return expr.Constant{Value: literalValue(e.Literal)}, nil

	case ast.ExprVariable:
		return expr.VariableRef{Alias: e.Variable}, nil

	case ast.ExprProperty:
		if e.Property == nil {
			return nil, fmt.Errorf("malformed property access")
		}
		return expr.VariableRef{Alias: e.Property.Variable, Path: append([]string(nil), e.Property.Path...)}, nil

	case ast.ExprFunction:
		if e.Function == nil {
			return nil, fmt.Errorf("malformed function call")
		}
		args := make([]expr.Expr, len(e.Function.Args))
		for i, a := range e.Function.Args {
			le, err := b.lowerExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = le
		}
		return expr.FunctionCall{Name: e.Function.Name, Args: args, Distinct: e.Function.Distinct}, nil

	case ast.ExprBinary:
		if e.Binary == nil {
			return nil, fmt.Errorf("malformed binary expression")
		}
		l, err := b.lowerExpr(e.Binary.Left)
		if err != nil {
			return nil, err
		}
		r, err := b.lowerExpr(e.Binary.Right)
		if err != nil {
			return nil, err
		}
		return expr.BinaryOp{Op: e.Binary.Op, Left: l, Right: r}, nil

	case ast.ExprUnary:
		if e.Unary == nil {
			return nil, fmt.Errorf("malformed unary expression")
		}
		operand, err := b.lowerExpr(e.Unary.Operand)
		if err != nil {
			return nil, err
		}
		return expr.UnaryOp{Op: e.Unary.Op, Operand: operand}, nil

	case ast.ExprComparison:
		if e.Chain == nil {
			return nil, fmt.Errorf("malformed comparison chain")
		}
		operands := make([]expr.Expr, len(e.Chain.Operands))
		for i, o := range e.Chain.Operands {
			le, err := b.lowerExpr(o)
			if err != nil {
				return nil, err
			}
			operands[i] = le
		}
		return expr.Comparison{Ops: append([]string(nil), e.Chain.Ops...), Operands: operands}, nil

	case ast.ExprList:
		items := make([]expr.Expr, len(e.List))
		for i, it := range e.List {
			le, err := b.lowerExpr(it)
			if err != nil {
				return nil, err
			}
			items[i] = le
		}
		return listLit{Items: items}, nil

	case ast.ExprMap:
		fields := make(map[string]expr.Expr, len(e.Map))
		for k, v := range e.Map {
			le, err := b.lowerExpr(v)
			if err != nil {
				return nil, err
			}
			fields[k] = le
		}
		return expr.MapProjection{Fields: fields}, nil

	case ast.ExprParameter:
		// Bind parameters aren't threaded through ExecContext in this
		// build; a parameter reference evaluates to NULL instead of
		// failing the whole query.
		return expr.Constant{Value: value.Null}, nil

	case ast.ExprCase:
		if e.Case == nil {
			return nil, fmt.Errorf("malformed case expression")
		}
		cs := expr.Case{}
		if e.Case.Test != nil {
			t, err := b.lowerExpr(*e.Case.Test)
			if err != nil {
				return nil, err
			}
			cs.Test = t
		}
		cs.Whens = make([]expr.Expr, len(e.Case.Whens))
		for i, w := range e.Case.Whens {
			le, err := b.lowerExpr(w)
			if err != nil {
				return nil, err
			}
			cs.Whens[i] = le
		}
		cs.Thens = make([]expr.Expr, len(e.Case.Thens))
		for i, th := range e.Case.Thens {
			le, err := b.lowerExpr(th)
			if err != nil {
				return nil, err
			}
			cs.Thens[i] = le
		}
		if e.Case.Else != nil {
			el, err := b.lowerExpr(*e.Case.Else)
			if err != nil {
				return nil, err
			}
			cs.Else = el
		}
		return cs, nil

	case ast.ExprListComprehension:
		if e.ListComp == nil {
			return nil, fmt.Errorf("malformed list comprehension")
		}
		src, err := b.lowerExpr(e.ListComp.Source)
		if err != nil {
			return nil, err
		}
		lc := expr.ListComprehension{Variable: e.ListComp.Variable, Source: src}
		if e.ListComp.Where != nil {
			w, err := b.lowerExpr(*e.ListComp.Where)
			if err != nil {
				return nil, err
			}
			lc.Where = w
		}
		if e.ListComp.Map != nil {
			m, err := b.lowerExpr(*e.ListComp.Map)
			if err != nil {
				return nil, err
			}
			lc.Map = m
		}
		return lc, nil

	default:
		return nil, fmt.Errorf("unknown expression type %d", e.Type)
	}
}

func literalValue(lit any) value.Value {
	switch v := lit.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(v)
	case int64:
		return value.Int64(v)
	case int:
		return value.Int64(int64(v))
	case float64:
		return value.Double(v)
	case string:
		return value.String(v)
	default:
		return value.Null
	}
}

// listLit evaluates a [a, b, c] list literal by evaluating each element
// expression in order; expr.Expr has no built-in list-literal node since
// expr's own ListComprehension always needs a source list to iterate,
// not construct one.
type listLit struct{ Items []expr.Expr }

func (l listLit) Evaluate(ctx *expr.Context) (value.Value, error) {
	out := make([]value.Value, len(l.Items))
	for i, it := range l.Items {
		v, err := it.Evaluate(ctx)
		if err != nil {
			return value.Null, err
		}
		out[i] = v
	}
	return value.List(out), nil
}

// hasLabelExpr tests whether a bound node carries a given label;
// builder-local since expr has no such node (label checks only ever
// arise from a lowered pattern, never from a Cypher expression grammar
// production).
type hasLabelExpr struct {
	Alias   string
	LabelID uint32
}

func (h hasLabelExpr) Evaluate(ctx *expr.Context) (value.Value, error) {
	v, ok := ctx.Record.Get(h.Alias)
	if !ok {
		return value.Bool(false), nil
	}
	id, ok := v.NodeID()
	if !ok {
		return value.Bool(false), nil
	}
	n := ctx.Store.GetNode(id)
	if n == nil {
		return value.Bool(false), nil
	}
	for _, l := range n.Labels {
		if l == h.LabelID {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

// unitOperator emits exactly one empty record then is exhausted — the
// seed child for a standalone CREATE/MERGE with no preceding MATCH, and
// for a Merge's nested CreatePlan (which fans off of its own apply call
// rather than a real scan).
type unitOperator struct {
	baseState
	emitted bool
}

func newUnitOperator() *unitOperator { return &unitOperator{} }

func (u *unitOperator) Init(ctx *ExecContext) error {
	u.emitted = false
	u.markInit()
	return nil
}

func (u *unitOperator) Consume(ctx *ExecContext) (*record.Record, bool) {
	if err := u.checkConsume(); err != nil {
		ctx.SetErr(err)
		u.markError()
		return nil, false
	}
	if u.emitted {
		u.markExhausted()
		return nil, false
	}
	u.emitted = true
	u.markProducing()
	return record.New(ctx.Aliases), true
}

func (u *unitOperator) Reset(ctx *ExecContext) error {
	u.emitted = false
	u.markInit()
	return nil
}

func (u *unitOperator) Clone() Operator { return &unitOperator{} }
func (u *unitOperator) Free()           { u.markFreed() }

func (u *unitOperator) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Unit", Description: "single seed row"}
}

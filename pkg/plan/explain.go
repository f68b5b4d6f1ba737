package plan

import "fmt"

// PlanNode is one node of an Explain tree: the operator's type name, a
// human-readable description, and its children — the shape a query
// response's EXPLAIN/PROFILE form renders, mirroring the teacher's
// PlanOperator without the PROFILE-only runtime counters this design
// tracks on ExecContext.Stats instead of per-node.
type PlanNode struct {
	OperatorType string          `json:"operatorType"`
	Description  string          `json:"description"`
	Identifiers  []string        `json:"identifiers,omitempty"`
	Children     []*PlanNode     `json:"children,omitempty"`
}

// Explain walks an operator tree without running it, producing the plan
// shape a client's EXPLAIN request renders. It relies on each concrete
// operator satisfying the optional Explainable interface; an operator
// that doesn't gets a generic node naming only its Go type.
type Explainable interface {
	ExplainNode() *PlanNode
}

func Explain(op Operator) *PlanNode {
	if e, ok := op.(Explainable); ok {
		return e.ExplainNode()
	}
	return &PlanNode{OperatorType: fmt.Sprintf("%T", op), Description: "unannotated operator"}
}

func (s *AllNodeScan) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "AllNodeScan", Description: fmt.Sprintf("scan all nodes as %s", s.Alias), Identifiers: []string{s.Alias}}
}

func (s *LabelScan) ExplainNode() *PlanNode {
	return &PlanNode{
		OperatorType: "LabelScan",
		Description:  fmt.Sprintf("scan nodes with label %d as %s", s.LabelID, s.Alias),
		Identifiers:  []string{s.Alias},
	}
}

func (s *IndexScan) ExplainNode() *PlanNode {
	return &PlanNode{
		OperatorType: "IndexScan",
		Description:  fmt.Sprintf("scan nodes with label %d as %s, filtered by range predicate", s.inner.LabelID, s.inner.Alias),
		Identifiers:  []string{s.inner.Alias},
	}
}

func (t *ConditionalTraverse) ExplainNode() *PlanNode {
	return &PlanNode{
		OperatorType: "ConditionalTraverse",
		Description:  fmt.Sprintf("(%s)-[%s]->(%s)", t.SrcAlias, t.EdgeAlias, t.DstAlias),
		Identifiers:  []string{t.EdgeAlias, t.DstAlias},
		Children:     []*PlanNode{Explain(t.Child)},
	}
}

func (e *ExpandInto) ExplainNode() *PlanNode {
	return &PlanNode{
		OperatorType: "ExpandInto",
		Description:  fmt.Sprintf("(%s)-[%s]->(%s) both ends bound", e.SrcAlias, e.EdgeAlias, e.DstAlias),
		Identifiers:  []string{e.EdgeAlias},
		Children:     []*PlanNode{Explain(e.Child)},
	}
}

func (v *VarLenTraverse) ExplainNode() *PlanNode {
	return &PlanNode{
		OperatorType: "VarLenTraverse",
		Description:  fmt.Sprintf("(%s)-[%s*%d..%d]->(%s)", v.SrcAlias, v.EdgeListAlias, v.Min, v.Max, v.DstAlias),
		Identifiers:  []string{v.EdgeListAlias, v.DstAlias},
		Children:     []*PlanNode{Explain(v.Child)},
	}
}

func (f *Filter) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Filter", Description: "WHERE", Children: []*PlanNode{Explain(f.Child)}}
}

func (p *Project) ExplainNode() *PlanNode {
	ids := make([]string, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.Alias
	}
	return &PlanNode{OperatorType: "Project", Description: "RETURN/WITH", Identifiers: ids, Children: []*PlanNode{Explain(p.Child)}}
}

func (a *Aggregate) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Aggregate", Description: "grouping + aggregate functions", Children: []*PlanNode{Explain(a.Child)}}
}

func (s *Sort) ExplainNode() *PlanNode {
	desc := "ORDER BY"
	if s.HasLimit {
		desc += fmt.Sprintf(" LIMIT %d", s.Limit)
	}
	return &PlanNode{OperatorType: "Sort", Description: desc, Children: []*PlanNode{Explain(s.Child)}}
}

func (d *Distinct) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Distinct", Description: "DISTINCT", Children: []*PlanNode{Explain(d.Child)}}
}

func (c *CartesianProduct) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "CartesianProduct", Description: "cross join", Children: []*PlanNode{Explain(c.Left), Explain(c.Right)}}
}

func (j *ValueHashJoin) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "ValueHashJoin", Description: "equi-join", Children: []*PlanNode{Explain(j.Left), Explain(j.Right)}}
}

func (u *Union) ExplainNode() *PlanNode {
	children := make([]*PlanNode, len(u.Children))
	for i, c := range u.Children {
		children[i] = Explain(c)
	}
	desc := "UNION"
	if u.Distinct {
		desc = "UNION (distinct)"
	}
	return &PlanNode{OperatorType: "Union", Description: desc, Children: children}
}

func (c *Create) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Create", Description: "CREATE", Children: []*PlanNode{Explain(c.Child)}}
}

func (m *Merge) ExplainNode() *PlanNode {
	return &PlanNode{
		OperatorType: "Merge",
		Description:  "MERGE",
		Children:     []*PlanNode{Explain(m.Child), Explain(m.MatchPlan), Explain(m.CreatePlan)},
	}
}

func (u *Update) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Update", Description: "SET/REMOVE", Children: []*PlanNode{Explain(u.Child)}}
}

func (d *Delete) ExplainNode() *PlanNode {
	desc := "DELETE"
	if d.Detach {
		desc = "DETACH DELETE"
	}
	return &PlanNode{OperatorType: "Delete", Description: desc, Children: []*PlanNode{Explain(d.Child)}}
}

func (r *Results) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "Results", Description: "produce rows", Children: []*PlanNode{Explain(r.Child)}}
}

func (s *ShortestPath) ExplainNode() *PlanNode {
	return &PlanNode{OperatorType: "ShortestPath", Description: fmt.Sprintf("shortestPath(%s,%s)", s.SrcAlias, s.DstAlias), Children: []*PlanNode{Explain(s.Child)}}
}

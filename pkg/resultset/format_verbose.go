package resultset

import (
	"encoding/json"
	"sort"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// VerboseReply is the §4.8 verbose rendering: every cell is a tagged
// [type_name, payload] pair, self-describing without a side-channel
// string pool. Following the teacher's ExecuteResult
// (nornicdb/pkg/cypher/types.go), columns/rows/stats are the three
// top-level fields a caller marshals to JSON for a human-facing reply.
type VerboseReply struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	Stats   Statistics      `json:"stats"`
}

// Verbose renders a ResultSet into the tagged-array form. g resolves
// Node/Relationship refs into their labels/type name and property bag;
// a nil g is only valid when the result set carries no entity refs (pure
// scalar projections), otherwise resolution panics on the first lookup.
func (rs *ResultSet) Verbose(g *graph.Graph) *VerboseReply {
	out := &VerboseReply{Columns: rs.Columns, Stats: rs.Stats}
	out.Rows = make([][]interface{}, 0, rs.Len())
	rs.Data.Each(func(row Row) {
		orow := make([]interface{}, len(row))
		for i, v := range row {
			orow[i] = verboseCell(v, g)
		}
		out.Rows = append(out.Rows, orow)
	})
	return out
}

// JSON marshals the reply with encoding/json, the same library the
// teacher's functions.go reaches for whenever a Cypher value needs a
// wire-ready encoding.
func (r *VerboseReply) JSON() ([]byte, error) { return json.Marshal(r) }

func verboseCell(v value.Value, g *graph.Graph) []interface{} {
	switch v.Kind() {
	case value.KindNull:
		return []interface{}{"Null", nil}
	case value.KindBool:
		b, _ := v.Bool()
		return []interface{}{"Boolean", b}
	case value.KindInt64:
		i, _ := v.Int64()
		return []interface{}{"Integer", i}
	case value.KindDouble:
		f, _ := v.Double()
		return []interface{}{"Float", f}
	case value.KindString:
		s, _ := v.String()
		return []interface{}{"String", s}
	case value.KindDuration:
		d, _ := v.Duration()
		return []interface{}{"String", d.String()}
	case value.KindList:
		items, _ := v.List()
		payload := make([]interface{}, len(items))
		for i, it := range items {
			payload[i] = verboseCell(it, g)
		}
		return []interface{}{"Array", payload}
	case value.KindMap:
		m, _ := v.Map()
		payload := make(map[string]interface{}, len(m))
		for k, mv := range m {
			payload[k] = verboseCell(mv, g)
		}
		return []interface{}{"Map", payload}
	case value.KindNodeRef:
		id, _ := v.NodeID()
		return []interface{}{"Node", verboseNode(id, g)}
	case value.KindEdgeRef:
		id, _ := v.EdgeID()
		return []interface{}{"Relationship", verboseEdge(id, g)}
	default:
		return []interface{}{"Null", nil}
	}
}

func verboseNode(id uint64, g *graph.Graph) map[string]interface{} {
	n := g.Store.GetNode(id)
	if n == nil {
		return map[string]interface{}{"id": id, "labels": []string{}, "properties": map[string]interface{}{}}
	}
	labels := make([]string, 0, len(n.Labels))
	for _, l := range n.Labels {
		if name, ok := g.Labels.Name(l); ok {
			labels = append(labels, name)
		}
	}
	sort.Strings(labels)
	return map[string]interface{}{
		"id":         id,
		"labels":     labels,
		"properties": verboseProps(n.Props, g),
	}
}

func verboseEdge(id uint64, g *graph.Graph) map[string]interface{} {
	e := g.Store.GetEdge(id)
	if e == nil {
		return map[string]interface{}{"id": id}
	}
	typeName, _ := g.RelTypes.Name(e.Type)
	return map[string]interface{}{
		"id":         id,
		"type":       typeName,
		"start":      e.Src,
		"end":        e.Dst,
		"properties": verboseProps(e.Props, g),
	}
}

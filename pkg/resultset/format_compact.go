package resultset

import (
	"fmt"
	"sort"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/store"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// Type codes for the compact wire format, spec §6.2.
const (
	CodeNull    = 1
	CodeString  = 2
	CodeInteger = 3
	CodeBoolean = 4
	CodeDouble  = 5
	CodeArray   = 6
	CodeEdge    = 7
	CodeNode    = 8
	CodePath    = 9
	CodeMap     = 10
	CodePoint   = 11
)

// CompactCell is one [type_code, payload] column per §6.2. Payload shapes
// by Type:
//   - CodeNull: nil
//   - CodeString: int offset into Pool
//   - CodeInteger: int64
//   - CodeBoolean: 0 or 1
//   - CodeDouble: string, formatted "%.15g"
//   - CodeArray: []CompactCell
//   - CodeEdge: []interface{} (id, type_offset, src_id, dst_id, props)
//   - CodeNode: (id, []int label_offsets, props)
//   - CodeMap: [][2]interface{} (key_offset, CompactCell) pairs
//
// CodePath and CodePoint are reserved by §6.2 but unproduced: no operator
// in pkg/plan yields a path- or point-typed value.Value, so no encoder
// branch ever emits them.
type CompactCell struct {
	Type    int
	Payload interface{}
}

// CompactReply is the §6.2 wire-ready rendering: a per-query string pool
// (every string value, duration text, map key and attribute/label/
// relationship-type name referenced by a row, deduplicated and
// order-of-first-use) plus rows of tagged cells.
type CompactReply struct {
	Columns   []string
	Pool      []string
	Rows      [][]CompactCell
	Stats     Statistics
	Truncated bool
}

// stringPool interns strings to stable per-reply integer offsets.
type stringPool struct {
	index map[string]int
	pool  []string
}

func newStringPool() *stringPool {
	return &stringPool{index: make(map[string]int)}
}

func (p *stringPool) intern(s string) int {
	if i, ok := p.index[s]; ok {
		return i
	}
	i := len(p.pool)
	p.index[s] = i
	p.pool = append(p.pool, s)
	return i
}

// Compact renders a ResultSet into the type-coded wire form.
func (rs *ResultSet) Compact(g *graph.Graph) *CompactReply {
	pool := newStringPool()
	out := &CompactReply{Columns: rs.Columns, Stats: rs.Stats, Truncated: rs.Truncated}
	out.Rows = make([][]CompactCell, 0, rs.Len())
	rs.Data.Each(func(row Row) {
		orow := make([]CompactCell, len(row))
		for i, v := range row {
			orow[i] = compactCell(v, g, pool)
		}
		out.Rows = append(out.Rows, orow)
	})
	out.Pool = pool.pool
	return out
}

func compactCell(v value.Value, g *graph.Graph, pool *stringPool) CompactCell {
	switch v.Kind() {
	case value.KindNull:
		return CompactCell{Type: CodeNull}
	case value.KindBool:
		b, _ := v.Bool()
		n := 0
		if b {
			n = 1
		}
		return CompactCell{Type: CodeBoolean, Payload: n}
	case value.KindInt64:
		i, _ := v.Int64()
		return CompactCell{Type: CodeInteger, Payload: i}
	case value.KindDouble:
		f, _ := v.Double()
		return CompactCell{Type: CodeDouble, Payload: fmt.Sprintf("%.15g", f)}
	case value.KindString:
		s, _ := v.String()
		return CompactCell{Type: CodeString, Payload: pool.intern(s)}
	case value.KindDuration:
		d, _ := v.Duration()
		return CompactCell{Type: CodeString, Payload: pool.intern(d.String())}
	case value.KindList:
		items, _ := v.List()
		payload := make([]CompactCell, len(items))
		for i, it := range items {
			payload[i] = compactCell(it, g, pool)
		}
		return CompactCell{Type: CodeArray, Payload: payload}
	case value.KindMap:
		m, _ := v.Map()
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		payload := make([][2]interface{}, len(keys))
		for i, k := range keys {
			payload[i] = [2]interface{}{pool.intern(k), compactCell(m[k], g, pool)}
		}
		return CompactCell{Type: CodeMap, Payload: payload}
	case value.KindNodeRef:
		id, _ := v.NodeID()
		return compactNode(id, g, pool)
	case value.KindEdgeRef:
		id, _ := v.EdgeID()
		return compactEdge(id, g, pool)
	default:
		return CompactCell{Type: CodeNull}
	}
}

func compactNode(id uint64, g *graph.Graph, pool *stringPool) CompactCell {
	n := g.Store.GetNode(id)
	if n == nil {
		return CompactCell{Type: CodeNull}
	}
	labelOffsets := make([]int, len(n.Labels))
	for i, l := range n.Labels {
		name, _ := g.Labels.Name(l)
		labelOffsets[i] = pool.intern(name)
	}
	return CompactCell{Type: CodeNode, Payload: []interface{}{id, labelOffsets, compactProps(n.Props, g, pool)}}
}

func compactEdge(id uint64, g *graph.Graph, pool *stringPool) CompactCell {
	e := g.Store.GetEdge(id)
	if e == nil {
		return CompactCell{Type: CodeNull}
	}
	typeName, _ := g.RelTypes.Name(e.Type)
	return CompactCell{Type: CodeEdge, Payload: []interface{}{
		id, pool.intern(typeName), e.Src, e.Dst, compactProps(e.Props, g, pool),
	}}
}

func compactProps(bag store.PropertyBag, g *graph.Graph, pool *stringPool) [][2]interface{} {
	ids := sortedProps(bag)
	out := make([][2]interface{}, len(ids))
	for i, a := range ids {
		name, _ := g.Attrs.Name(a)
		out[i] = [2]interface{}{pool.intern(name), compactCell(bag[a], g, pool)}
	}
	return out
}

package resultset

import (
	"github.com/orneryd/pgraphdb/pkg/record"
	"github.com/orneryd/pgraphdb/pkg/value"
)

// Statistics mirrors spec §4.8/§4.9's accumulated counters. Field names
// follow the teacher's QueryStats json-tag convention
// (nornicdb/pkg/cypher/types.go), extended with the two counters spec.md
// names that QueryStats didn't carry (LabelsRemoved, IndicesCreated) plus
// the cached-execution flag.
type Statistics struct {
	NodesCreated         int  `json:"nodes_created"`
	NodesDeleted         int  `json:"nodes_deleted"`
	RelationshipsCreated int  `json:"relationships_created"`
	RelationshipsDeleted int  `json:"relationships_deleted"`
	PropertiesSet        int  `json:"properties_set"`
	LabelsAdded          int  `json:"labels_added"`
	LabelsRemoved        int  `json:"labels_removed"`
	IndicesCreated       int  `json:"indices_created"`
	Cached               bool `json:"cached"`
}

// ResultSet is the terminal, formatter-facing view of a query's output:
// column headers, accumulated rows, and execution statistics. Unlike
// pkg/plan's Results (which holds *record.Record values pinned to one
// plan's AliasMap), a ResultSet's rows are plain value.Value slices in
// column order — it outlives the plan tree that produced it.
type ResultSet struct {
	Columns   []string
	Data      *DataBlock
	Stats     Statistics
	Truncated bool
}

// New allocates an empty ResultSet for the given column list, in the
// order a RETURN/WITH clause's items were projected.
func New(columns []string) *ResultSet {
	return &ResultSet{Columns: columns, Data: NewDataBlock(columns)}
}

// Collect appends one plan record's projected columns as a row, resolving
// each column name through aliases (a column absent from the record's
// alias map — shouldn't happen for a well-formed plan, but is treated as
// NULL rather than panicking).
func (rs *ResultSet) Collect(aliases *record.AliasMap, rec *record.Record) {
	row := make(Row, len(rs.Columns))
	for i, col := range rs.Columns {
		row[i] = value.Null
		idx, ok := aliases.Lookup(col)
		if !ok {
			continue
		}
		if v, ok := rec.GetIndex(idx); ok {
			row[i] = v
		}
	}
	rs.Data.Append(row)
}

// CollectAll is a convenience wrapper for the common case of draining an
// already-collected slice of rows (e.g. pkg/plan's Results.Rows after Run).
func (rs *ResultSet) CollectAll(aliases *record.AliasMap, rows []*record.Record) {
	for _, rec := range rows {
		rs.Collect(aliases, rec)
	}
}

// Len returns the number of accumulated rows.
func (rs *ResultSet) Len() int { return rs.Data.Len() }

// Package resultset implements Component J (spec §4.8): a row
// accumulator decoupled from the plan tree's AliasMap, plus the two wire
// formatters (verbose and compact, §6.2) that render it.
package resultset

import "github.com/orneryd/pgraphdb/pkg/value"

// blockRows is the fixed row count per allocated chunk. Chunking avoids
// the repeated realloc-and-copy a single growing [][]value.Value would
// pay as a large result accumulates.
const blockRows = 1024

// Row is one result row, ordered to match DataBlock.Columns.
type Row []value.Value

type dataChunk struct {
	rows [blockRows]Row
	n    int
	next *dataChunk
}

// DataBlock is the block-allocated row store backing a ResultSet.
// Columns fixes the row width and ordering for the lifetime of the
// block; rows are appended in chunks of blockRows and never copied.
type DataBlock struct {
	Columns []string

	head, tail *dataChunk
	count      int
}

// NewDataBlock allocates an empty block sized for the given columns.
func NewDataBlock(columns []string) *DataBlock {
	first := &dataChunk{}
	return &DataBlock{Columns: columns, head: first, tail: first}
}

// Append adds one row, allocating a fresh chunk if the current one is full.
func (d *DataBlock) Append(row Row) {
	if d.tail.n == blockRows {
		next := &dataChunk{}
		d.tail.next = next
		d.tail = next
	}
	d.tail.rows[d.tail.n] = row
	d.tail.n++
	d.count++
}

// Len returns the total row count across all chunks.
func (d *DataBlock) Len() int { return d.count }

// Each visits every row in insertion order.
func (d *DataBlock) Each(fn func(Row)) {
	for c := d.head; c != nil; c = c.next {
		for i := 0; i < c.n; i++ {
			fn(c.rows[i])
		}
	}
}

// Package algebra implements the abstract sparse matrix/vector algebra
// spec §4.1/§6.3 describes: a semiring-parameterised operation set over
// masked, descriptor-flagged sparse containers, with mutations staged in a
// pending buffer and materialised only on Wait.
//
// The backend here is a row-map-of-columns sparse structure (an map of
// maps, not a generated-kernel CSR/CSC implementation) generic over the
// stored element type. Bool matrices (label matrices, relation matrices,
// the adjacency matrix) and float64/int64 matrices (shortest-path weights,
// BFS parent tracking) share this one implementation via Go generics
// rather than duplicating it per type, which is exactly the "generic
// dispatch instead of per-semiring kernel" posture spec §9 asks for.
package algebra

import "sync"

// pendingOp is a staged single-cell mutation: either "set to v" or
// "delete". Only the latest op per cell is kept — staging Set then Remove
// on the same cell before a Wait collapses to Remove, matching spec §3.4's
// requirement that reads see a consistent pre- or post-commit view, never
// an interleaving of superseded writes.
type pendingOp[T any] struct {
	value   T
	del     bool
	hasPrev bool // not set or read anywhere; NVals counts materialized entries directly
}

// Matrix is a square or rectangular sparse container over element type T.
// The zero value is not usable; construct with New.
type Matrix[T any] struct {
	mu   sync.Mutex
	rows uint64
	cols uint64

	data map[uint64]map[uint64]T

	pending map[[2]uint64]pendingOp[T]
}

// New allocates an empty rows x cols matrix, per spec §4.1's `new`.
func New[T any](rows, cols uint64) *Matrix[T] {
	return &Matrix[T]{
		rows:    rows,
		cols:    cols,
		data:    make(map[uint64]map[uint64]T),
		pending: make(map[[2]uint64]pendingOp[T]),
	}
}

func (m *Matrix[T]) Rows() uint64 { return m.rows }
func (m *Matrix[T]) Cols() uint64 { return m.cols }

// Resize grows the matrix's logical dimensions. Per spec §3.3 (I4) this
// tracks the EntityStore's allocated size, not its logical count; shrinking
// is never requested by the core and is therefore rejected.
func (m *Matrix[T]) Resize(rows, cols uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rows > m.rows {
		m.rows = rows
	}
	if cols > m.cols {
		m.cols = cols
	}
}

// NVals returns the number of materialized entries, per spec §4.1. It does
// not count pending, unflushed entries — T2 requires NVals to be stable
// once a flush completes and a no-op thereafter, which only holds if
// pending mutations are excluded until they are actually applied.
func (m *Matrix[T]) NVals() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n uint64
	for _, row := range m.data {
		n += uint64(len(row))
	}
	return n
}

// Set stages M[i,j]=v as a pending insert. Per spec §3.4, single-entry
// sparse insertion is staged rather than applied in place.
func (m *Matrix[T]) Set(i, j uint64, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[[2]uint64{i, j}] = pendingOp[T]{value: v}
}

// Remove stages deletion of M[i,j].
func (m *Matrix[T]) Remove(i, j uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[[2]uint64{i, j}] = pendingOp[T]{del: true}
}

// Get returns the effective post-pending value at (i,j), per spec §4.3.5:
// a reader — including the writer reading its own staged mutations —
// always observes the pending overlay on top of the materialized matrix.
func (m *Matrix[T]) Get(i, j uint64) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(i, j)
}

func (m *Matrix[T]) getLocked(i, j uint64) (T, bool) {
	key := [2]uint64{i, j}
	if op, ok := m.pending[key]; ok {
		if op.del {
			var zero T
			return zero, false
		}
		return op.value, true
	}
	if row, ok := m.data[i]; ok {
		v, ok := row[j]
		return v, ok
	}
	var zero T
	return zero, false
}

// HasPending reports whether any staged mutation is waiting for Wait.
func (m *Matrix[T]) HasPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending) > 0
}

// PendingLen reports the number of staged mutations, for stats/testing.
func (m *Matrix[T]) PendingLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Wait flushes every staged mutation into the materialized matrix
// atomically with respect to other goroutines taking the matrix's own
// lock — the graph-level exclusive latch (spec §5) is what actually makes
// this atomic with respect to *other matrices* in the same flush; Wait
// itself only guarantees this one matrix never shows a half-applied
// pending set.
func (m *Matrix[T]) Wait() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, op := range m.pending {
		i, j := key[0], key[1]
		if op.del {
			if row, ok := m.data[i]; ok {
				delete(row, j)
				if len(row) == 0 {
					delete(m.data, i)
				}
			}
			continue
		}
		row, ok := m.data[i]
		if !ok {
			row = make(map[uint64]T)
			m.data[i] = row
		}
		row[j] = op.value
	}
	m.pending = make(map[[2]uint64]pendingOp[T])
}

// DiscardPending drops every staged mutation without applying it — used
// by query cancellation (spec §5) to guarantee partial writes never
// escape.
func (m *Matrix[T]) DiscardPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = make(map[[2]uint64]pendingOp[T])
}

// Clone returns a deep, fully-materialized (pending flushed first is the
// caller's responsibility) copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := New[T](m.rows, m.cols)
	for i, row := range m.data {
		nrow := make(map[uint64]T, len(row))
		for j, v := range row {
			nrow[j] = v
		}
		out.data[i] = nrow
	}
	return out
}

// Each calls fn once per materialized (pre-pending) entry, in no
// particular order. Callers that need ascending NodeID order (per spec
// §4.7.2's tie-break rule) must sort the keys themselves; Each is the
// primitive iteration hook extract/apply/transpose build on.
func (m *Matrix[T]) Each(fn func(i, j uint64, v T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.data {
		for j, v := range row {
			fn(i, j, v)
		}
	}
}

// Row returns a copy of materialized row i as a column->value map.
func (m *Matrix[T]) Row(i uint64) map[uint64]T {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.data[i]
	if !ok {
		return nil
	}
	out := make(map[uint64]T, len(row))
	for j, v := range row {
		out[j] = v
	}
	return out
}

// Assign performs a scalar or submatrix assign into C, per spec §4.1. Here:
// assign the scalar value to every (i,j) in rows x cols. If mask is
// non-nil, only cells selected by the mask (per desc.ComplementMask) are
// written.
func Assign[T any](c *Matrix[T], mask *Matrix[bool], desc Descriptor, value T, rows, cols []uint64) {
	for _, i := range rows {
		for _, j := range cols {
			if mask != nil && !maskSelects(mask, i, j, desc) {
				continue
			}
			c.Set(i, j, value)
		}
	}
}

func maskSelects(mask *Matrix[bool], i, j uint64, desc Descriptor) bool {
	v, ok := mask.Get(i, j)
	selected := ok && (desc.StructuralMask || v)
	if desc.ComplementMask {
		return !selected
	}
	return selected
}

// Transpose writes A^T into C (materialized reads of A; pending mutations
// on A must be flushed first for a meaningful result, matching GraphBLAS's
// requirement that transpose observes a stable snapshot).
func Transpose[T any](c *Matrix[T], mask *Matrix[bool], a *Matrix[T], desc Descriptor) {
	a.Each(func(i, j uint64, v T) {
		if mask != nil && !maskSelects(mask, j, i, desc) {
			return
		}
		c.Set(j, i, v)
	})
	c.Wait()
}

// Apply writes unary(A[i,j]) into C for every materialized entry of A.
func Apply[T any](c *Matrix[T], mask *Matrix[bool], a *Matrix[T], unary func(T) T, desc Descriptor) {
	a.Each(func(i, j uint64, v T) {
		if mask != nil && !maskSelects(mask, i, j, desc) {
			return
		}
		c.Set(i, j, unary(v))
	})
	c.Wait()
}

// EMult computes C[i,j] <mask>= accum(C[i,j], op(A[i,j], B[i,j])) over the
// intersection of A and B's materialized entries. accum may be nil, in
// which case the computed value simply replaces whatever C already held.
func EMult[T any](c *Matrix[T], mask *Matrix[bool], accum func(existing, next T) T, a, b *Matrix[T], op func(a, b T) T, desc Descriptor) {
	a.Each(func(i, j uint64, av T) {
		bv, ok := b.Get(i, j)
		if !ok {
			return
		}
		if mask != nil && !maskSelects(mask, i, j, desc) {
			return
		}
		next := op(av, bv)
		if accum != nil {
			if existing, ok := c.Get(i, j); ok {
				next = accum(existing, next)
			}
		}
		c.Set(i, j, next)
	})
	c.Wait()
}

// Extract writes the submatrix A[rows,cols] into C, per spec §4.1.
func Extract[T any](c *Matrix[T], mask *Matrix[bool], a *Matrix[T], rows, cols []uint64, desc Descriptor) {
	for oi, i := range rows {
		for oj, j := range cols {
			v, ok := a.Get(i, j)
			if !ok {
				continue
			}
			if mask != nil && !maskSelects(mask, uint64(oi), uint64(oj), desc) {
				continue
			}
			c.Set(uint64(oi), uint64(oj), v)
		}
	}
	c.Wait()
}

// MxM computes C <mask>= accum(C, A (x) B) over the given semiring, per
// spec §4.1. Descriptor transpose flags select A^T/B^T without
// materializing a transposed copy. Accumulation walks only A's and B's
// materialized entries (via Each), so cost is proportional to nvals(A),
// not to the dense row x col product — the sparse-matrix property the
// spec requires of the backend.
func MxM[T any](c *Matrix[T], mask *Matrix[bool], sr Semiring[T], a, b *Matrix[T], desc Descriptor) {
	acc := make(map[uint64]map[uint64]T)
	eachEntry(a, desc.TransposeA, func(i, j uint64, av T) {
		eachEffRow(b, j, desc.TransposeB, func(k uint64, bv T) {
			row, ok := acc[i]
			if !ok {
				row = make(map[uint64]T)
				acc[i] = row
			}
			if prev, ok := row[k]; ok {
				row[k] = sr.Add(prev, sr.Mul(av, bv))
			} else {
				row[k] = sr.Mul(av, bv)
			}
		})
	})
	for i, row := range acc {
		for k, v := range row {
			if sr.IsZero(v) {
				continue
			}
			if mask != nil && !maskSelects(mask, i, k, desc) {
				continue
			}
			c.Set(i, k, v)
		}
	}
	c.Wait()
}

// eachEntry iterates A's materialized entries as (row, col, value),
// honoring a transpose flag without allocating a transposed copy.
func eachEntry[T any](m *Matrix[T], transposed bool, fn func(i, j uint64, v T)) {
	m.Each(func(i, j uint64, v T) {
		if transposed {
			fn(j, i, v)
		} else {
			fn(i, j, v)
		}
	})
}

// eachColEntry iterates effective column `idx` of M (or M^T if
// transposed): pairs (other, v) such that Meff[other, idx] = v. When
// transposed, that is row `idx` of the untransposed M — an O(row-size) map
// lookup; when not transposed, this sparse row-keyed layout cannot address
// a column directly and falls back to a full scan.
func eachColEntry[T any](m *Matrix[T], idx uint64, transposed bool, fn func(other uint64, v T)) {
	if transposed {
		for other, v := range m.Row(idx) {
			fn(other, v)
		}
		return
	}
	m.Each(func(i, j uint64, v T) {
		if j == idx {
			fn(i, v)
		}
	})
}

// eachEffRow iterates effective row `idx` of M (or M^T if transposed):
// pairs (other, v) such that Meff[idx, other] = v. This is eachColEntry
// with the transpose branches swapped — row access is the efficient path
// when not transposed, full scan when transposed.
func eachEffRow[T any](m *Matrix[T], idx uint64, transposed bool, fn func(other uint64, v T)) {
	if !transposed {
		for other, v := range m.Row(idx) {
			fn(other, v)
		}
		return
	}
	m.Each(func(i, j uint64, v T) {
		if i == idx {
			fn(j, v)
		}
	})
}

// MxV computes w <mask>= accum(w, A (x) u) — matrix times vector — over
// the given semiring. This is the workhorse behind ConditionalTraverse and
// VarLenTraverse (spec §4.7.2): computing the reachable-neighbour set of a
// bound source node is one MxV call per hop. Cost is proportional to
// nvals(A) restricted to the rows touched by nonzero entries of u.
func MxV[T any](w *Vector[T], mask *Vector[bool], sr Semiring[T], a *Matrix[T], u *Vector[T], desc Descriptor) {
	acc := make(map[uint64]T)
	seen := make(map[uint64]bool)
	u.Each(func(j uint64, uv T) {
		eachColEntry(a, j, desc.TransposeA, func(i uint64, av T) {
			contrib := sr.Mul(av, uv)
			if prev, ok := acc[i]; ok {
				acc[i] = sr.Add(prev, contrib)
			} else {
				acc[i] = contrib
			}
			seen[i] = true
		})
	})
	for i := range seen {
		v := acc[i]
		if sr.IsZero(v) {
			continue
		}
		if mask != nil {
			mv, ok := mask.Get(i)
			selected := ok && mv
			if desc.ComplementMask {
				selected = !selected
			}
			if !selected {
				continue
			}
		}
		w.Set(i, v)
	}
	w.Wait()
}

// Package graph implements Component D: label matrices, typed
// relationship matrices, the adjacency matrix, the hexastore triplet
// index, and the commit/flush protocol that ties them to a per-graph
// reader-writer latch (spec §4.3/§5).
//
// Single-edge-per-(type,src,dst) mode is the resolved Open Question (see
// the design ledger): Connect refuses a duplicate (type,src,dst) the way
// the source's Graph_ConnectNodes assertion does, rather than
// accumulating a multi-edge count.
package graph

import (
	"errors"
	"sync"

	"github.com/orneryd/pgraphdb/pkg/algebra"
	"github.com/orneryd/pgraphdb/pkg/hexastore"
	"github.com/orneryd/pgraphdb/pkg/store"
)

// ErrDuplicateEdge is returned by Connect when an edge of the same
// relationship type already exists between the same ordered pair, per
// the single-edge-per-(type,src,dst) mode.
var ErrDuplicateEdge = errors.New("edge of this type already exists between these nodes")

// Graph owns one property graph: its entity records, its matrices, its
// triplet index, and the latch that arbitrates readers and the single
// committing writer.
type Graph struct {
	mu sync.Mutex // guards the matrix maps themselves (not their contents)

	Store    *store.EntityStore
	Attrs    *store.AttributeTable
	Labels   *store.DictTable
	RelTypes *store.DictTable

	labelMatrices map[uint32]*algebra.Matrix[bool]
	relMatrices   map[uint32]*algebra.Matrix[bool]
	adjacency     *algebra.Matrix[bool]
	hex           *hexastore.Hexastore

	Latch *Latch
}

// New constructs an empty graph with the given initial node-id capacity
// (matrix dimensions grow from here as nodes are created, per I4).
func New(initialCapacity uint64) *Graph {
	if initialCapacity == 0 {
		initialCapacity = 16
	}
	return &Graph{
		Store:         store.New(),
		Attrs:         store.NewAttributeTable(),
		Labels:        store.NewDictTable(),
		RelTypes:      store.NewDictTable(),
		labelMatrices: make(map[uint32]*algebra.Matrix[bool]),
		relMatrices:   make(map[uint32]*algebra.Matrix[bool]),
		adjacency:     algebra.New[bool](initialCapacity, initialCapacity),
		hex:           hexastore.New(),
		Latch:         NewLatch(),
	}
}

func (g *Graph) labelMatrix(labelID uint32) *algebra.Matrix[bool] {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.labelMatrices[labelID]
	if !ok {
		m = algebra.New[bool](g.adjacency.Rows(), g.adjacency.Cols())
		g.labelMatrices[labelID] = m
	}
	return m
}

func (g *Graph) relMatrix(relType uint32) *algebra.Matrix[bool] {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.relMatrices[relType]
	if !ok {
		m = algebra.New[bool](g.adjacency.Rows(), g.adjacency.Cols())
		g.relMatrices[relType] = m
	}
	return m
}

// LabelMatrix exposes L_k read-only access for scan operators.
func (g *Graph) LabelMatrix(labelID uint32) *algebra.Matrix[bool] { return g.labelMatrix(labelID) }

// RelMatrix exposes R_t read-only access for traversal operators.
func (g *Graph) RelMatrix(relType uint32) *algebra.Matrix[bool] { return g.relMatrix(relType) }

// Adjacency exposes A.
func (g *Graph) Adjacency() *algebra.Matrix[bool] { return g.adjacency }

// AllRelTypes returns every relationship type id with a matrix, for
// wildcard traversals (-[r]-> with no type filter).
func (g *Graph) AllRelTypes() []uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]uint32, 0, len(g.relMatrices))
	for t := range g.relMatrices {
		out = append(out, t)
	}
	return out
}

// Hexastore exposes the triplet index for scan operators building index
// lookups directly.
func (g *Graph) Hexastore() *hexastore.Hexastore { return g.hex }

// growCapacity grows every matrix to at least n rows/cols, per I4 ("grow
// is amortised" — callers pass a doubled target so this isn't O(n) per
// node creation).
func (g *Graph) growCapacity(n uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.adjacency.Rows() >= n {
		return
	}
	g.adjacency.Resize(n, n)
	for _, m := range g.labelMatrices {
		m.Resize(n, n)
	}
	for _, m := range g.relMatrices {
		m.Resize(n, n)
	}
}

func nextCapacity(cur, need uint64) uint64 {
	if cur >= need {
		return cur
	}
	if cur == 0 {
		cur = 16
	}
	for cur < need {
		cur *= 2
	}
	return cur
}

// CreateNode allocates a node and stages its label diagonal entries.
func (g *Graph) CreateNode(labels []uint32) uint64 {
	id := g.Store.CreateNode(labels)
	g.growCapacity(nextCapacity(g.adjacency.Rows(), id+1))
	for _, l := range labels {
		g.labelMatrix(l).Set(id, id, true)
	}
	return id
}

// AddLabel adds a label to an existing node and stages L_k[n,n]=true.
func (g *Graph) AddLabel(id uint64, labelID uint32) (bool, error) {
	added, err := g.Store.AddLabel(id, labelID)
	if err != nil {
		return false, err
	}
	if added {
		g.labelMatrix(labelID).Set(id, id, true)
	}
	return added, nil
}

// RemoveLabel removes a label and stages L_k[n,n]=false.
func (g *Graph) RemoveLabel(id uint64, labelID uint32) (bool, error) {
	removed, err := g.Store.RemoveLabel(id, labelID)
	if err != nil {
		return false, err
	}
	if removed {
		g.labelMatrix(labelID).Remove(id, id)
	}
	return removed, nil
}

// Connect implements §4.3.1: allocate the edge, stage R_t and A, insert
// the six hexastore keys.
func (g *Graph) Connect(src, dst uint64, relType uint32) (uint64, error) {
	if !g.Store.AliveNode(src) || !g.Store.AliveNode(dst) {
		return store.InvalidID, store.ErrEntityMissing
	}
	rt := g.relMatrix(relType)
	if v, ok := rt.Get(src, dst); ok && v {
		return store.InvalidID, ErrDuplicateEdge
	}

	edgeID := g.Store.CreateEdge(src, dst, relType)
	rt.Set(src, dst, true)
	g.adjacency.Set(src, dst, true)
	g.hex.InsertTriplet(src, relType, edgeID, dst)
	return edgeID, nil
}

// DeleteEdge implements §4.3.3.
func (g *Graph) DeleteEdge(id uint64) error {
	e := g.Store.GetEdge(id)
	if e == nil {
		return store.ErrEntityMissing
	}
	if err := g.Store.DeleteEdge(id); err != nil {
		return err
	}
	g.hex.DeleteTriplet(e.Src, e.Type, id, e.Dst)

	// Single-edge-per-(type,src,dst) mode: this was necessarily the only
	// edge of this type between src and dst, so R_t[src,dst] always
	// clears.
	g.relMatrix(e.Type).Remove(e.Src, e.Dst)

	if !g.anyRelationBetween(e.Src, e.Dst) {
		g.adjacency.Remove(e.Src, e.Dst)
	}
	return nil
}

func (g *Graph) anyRelationBetween(src, dst uint64) bool {
	g.mu.Lock()
	mats := make([]*algebra.Matrix[bool], 0, len(g.relMatrices))
	for _, m := range g.relMatrices {
		mats = append(mats, m)
	}
	g.mu.Unlock()
	for _, m := range mats {
		if v, ok := m.Get(src, dst); ok && v {
			return true
		}
	}
	return false
}

// DeleteNode implements §4.3.2.
func (g *Graph) DeleteNode(id uint64) error {
	n := g.Store.GetNode(id)
	if n == nil {
		return store.ErrEntityMissing
	}
	labels := append([]uint32(nil), n.Labels...)

	if err := g.Store.DeleteNode(id); err != nil {
		return err
	}
	for _, l := range labels {
		g.labelMatrix(l).Remove(id, id)
	}

	for _, edgeID := range g.incidentEdgeIDs(id) {
		// DeleteEdge is a no-op (ErrEntityMissing) if the edge was
		// already removed by an earlier iteration via hexastore overlap
		// between the SPO and OPS scans below.
		if g.Store.AliveEdge(edgeID) {
			_ = g.DeleteEdge(edgeID)
		}
	}

	g.clearRowAndCol(g.adjacency, id)
	return nil
}

// incidentEdgeIDs finds every edge touching n as subject or object, via
// SPO/OPS prefix scans per §4.3.2.
func (g *Graph) incidentEdgeIDs(n uint64) []uint64 {
	seen := make(map[uint64]bool)
	var ids []uint64
	add := func(t hexastore.Triplet) {
		if !seen[t.EdgeID] {
			seen[t.EdgeID] = true
			ids = append(ids, t.EdgeID)
		}
	}
	for _, t := range g.hex.Scan(hexastore.Pattern{BindS: true, S: n}) {
		add(t)
	}
	for _, t := range g.hex.Scan(hexastore.Pattern{BindO: true, O: n}) {
		add(t)
	}
	return ids
}

func (g *Graph) clearRowAndCol(m *algebra.Matrix[bool], n uint64) {
	for j := range m.Row(n) {
		m.Remove(n, j)
	}
	// Each holds m's lock while calling back, so the column entries are
	// collected first and removed after it returns.
	var colRows []uint64
	m.Each(func(i, j uint64, v bool) {
		if j == n {
			colRows = append(colRows, i)
		}
	})
	for _, i := range colRows {
		m.Remove(i, n)
	}
}

// Flush implements §4.3.4: called under the latch's exclusive hold, it
// materialises every matrix's pending buffer atomically.
func (g *Graph) Flush() {
	g.mu.Lock()
	labelMats := make([]*algebra.Matrix[bool], 0, len(g.labelMatrices))
	for _, m := range g.labelMatrices {
		labelMats = append(labelMats, m)
	}
	relMats := make([]*algebra.Matrix[bool], 0, len(g.relMatrices))
	for _, m := range g.relMatrices {
		relMats = append(relMats, m)
	}
	g.mu.Unlock()

	for _, m := range labelMats {
		m.Wait()
	}
	for _, m := range relMats {
		m.Wait()
	}
	g.adjacency.Wait()
}

// DiscardPending drops every matrix's staged writes without applying
// them, per §5's cancellation rule: partial writes never escape.
func (g *Graph) DiscardPending() {
	g.mu.Lock()
	labelMats := make([]*algebra.Matrix[bool], 0, len(g.labelMatrices))
	for _, m := range g.labelMatrices {
		labelMats = append(labelMats, m)
	}
	relMats := make([]*algebra.Matrix[bool], 0, len(g.relMatrices))
	for _, m := range g.relMatrices {
		relMats = append(relMats, m)
	}
	g.mu.Unlock()

	for _, m := range labelMats {
		m.DiscardPending()
	}
	for _, m := range relMats {
		m.DiscardPending()
	}
	g.adjacency.DiscardPending()
}

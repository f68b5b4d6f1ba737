// Package store implements the append-only, block-allocated EntityStore
// (spec §3.3/§4.2): the record-of-truth for node and edge property bags,
// addressed by monotonically increasing integer ids.
//
// IDs are never reused within a session. Deletion only tombstones a slot;
// the slot's storage is retained (and skipped by scans) until the process
// exits. This mirrors the source's two-phase "mark zombie, reclaim later"
// delete, minus the reclamation step and minus the "zombie" terminology —
// per spec §9, tombstoning is immediate and visible to the deleting query,
// matrix-side cleanup is staged separately by pkg/graph.
package store

import (
	"errors"
	"sync"

	"github.com/orneryd/pgraphdb/pkg/value"
)

// InvalidID is the sentinel "no such id" value, per spec §3.1.
const InvalidID = ^uint64(0)

var (
	ErrEntityMissing = errors.New("entity missing")
)

// AttrID is a small dense integer keyed to an attribute name via the
// Attributes table.
type AttrID uint32

// PropertyBag maps AttrID to Value. Absence of a key means the property
// was never set, distinct from a present Null.
type PropertyBag map[AttrID]value.Value

// Clone returns a deep copy so two entities never share property Value
// storage (spec §4.5's Record ownership rule applies symmetrically to
// EntityStore slots).
func (b PropertyBag) Clone() PropertyBag {
	out := make(PropertyBag, len(b))
	for k, v := range b {
		out[k] = v.Clone()
	}
	return out
}

// NodeSlot is one allocated node record.
type NodeSlot struct {
	ID        uint64
	Labels    []uint32 // LabelIDs carried by this node
	Props     PropertyBag
	Tombstone bool
}

// EdgeSlot is one allocated edge record.
type EdgeSlot struct {
	ID        uint64
	Src       uint64
	Dst       uint64
	Type      uint32 // RelationTypeID
	Props     PropertyBag
	Tombstone bool
}

// AttributeTable maps attribute names to small dense AttrIDs, assigned at
// first use and never reused, per spec §3.1. It also serves the compact
// result format's string pool (§6.2) via the reverse lookup.
type AttributeTable struct {
	mu     sync.RWMutex
	byName map[string]AttrID
	byID   []string
}

func NewAttributeTable() *AttributeTable {
	return &AttributeTable{byName: make(map[string]AttrID)}
}

// Intern returns the AttrID for name, assigning a fresh one if this is the
// first use. Per spec §5, new-entry insertion happens only under the
// exclusive portion of the graph latch; callers are responsible for that
// discipline — Intern itself is merely thread-safe, not latch-aware.
func (t *AttributeTable) Intern(name string) AttrID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := AttrID(len(t.byID))
	t.byName[name] = id
	t.byID = append(t.byID, name)
	return id
}

// Lookup returns the AttrID for name without creating one.
func (t *AttributeTable) Lookup(name string) (AttrID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the attribute name for an AttrID.
func (t *AttributeTable) Name(id AttrID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// Len returns the number of interned attribute names, for checkpoint
// manifests that report dictionary sizes alongside entity counts.
func (t *AttributeTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// DictTable is the same name<->id interning scheme, reused for
// LabelID/RelationTypeID dictionaries (spec §3.1).
type DictTable struct {
	mu     sync.RWMutex
	byName map[string]uint32
	byID   []string
}

func NewDictTable() *DictTable {
	return &DictTable{byName: make(map[string]uint32)}
}

func (t *DictTable) Intern(name string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := uint32(len(t.byID))
	t.byName[name] = id
	t.byID = append(t.byID, name)
	return id
}

func (t *DictTable) Lookup(name string) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	return id, ok
}

func (t *DictTable) Name(id uint32) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

func (t *DictTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

func (t *DictTable) Each(fn func(id uint32, name string)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i, name := range t.byID {
		fn(uint32(i), name)
	}
}

// EntityStore is the append-only block-allocated store of node/edge
// records, per spec §3.3/§4.2.
type EntityStore struct {
	mu    sync.RWMutex
	nodes []*NodeSlot
	edges []*EdgeSlot
}

func New() *EntityStore {
	return &EntityStore{}
}

// CreateNode allocates a fresh NodeID and slot.
func (s *EntityStore) CreateNode(labels []uint32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint64(len(s.nodes))
	s.nodes = append(s.nodes, &NodeSlot{
		ID:     id,
		Labels: append([]uint32(nil), labels...),
		Props:  make(PropertyBag),
	})
	return id
}

// CreateEdge allocates a fresh EdgeID and slot.
func (s *EntityStore) CreateEdge(src, dst uint64, relType uint32) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uint64(len(s.edges))
	s.edges = append(s.edges, &EdgeSlot{
		ID:    id,
		Src:   src,
		Dst:   dst,
		Type:  relType,
		Props: make(PropertyBag),
	})
	return id
}

// GetNode returns the node slot, or nil if tombstoned/out of range.
func (s *EntityStore) GetNode(id uint64) *NodeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.nodes)) {
		return nil
	}
	n := s.nodes[id]
	if n.Tombstone {
		return nil
	}
	return n
}

// GetEdge returns the edge slot, or nil if tombstoned/out of range.
func (s *EntityStore) GetEdge(id uint64) *EdgeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.edges)) {
		return nil
	}
	e := s.edges[id]
	if e.Tombstone {
		return nil
	}
	return e
}

// AliveNode reports whether id names a live (non-tombstoned, allocated)
// node.
func (s *EntityStore) AliveNode(id uint64) bool { return s.GetNode(id) != nil }

// AliveEdge reports whether id names a live edge.
func (s *EntityStore) AliveEdge(id uint64) bool { return s.GetEdge(id) != nil }

// SetNodeProperty sets attr=v on a live node's property bag.
func (s *EntityStore) SetNodeProperty(id uint64, attr AttrID, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.nodes)) || s.nodes[id].Tombstone {
		return ErrEntityMissing
	}
	s.nodes[id].Props[attr] = v
	return nil
}

// RemoveNodeProperty deletes attr from a live node's property bag.
func (s *EntityStore) RemoveNodeProperty(id uint64, attr AttrID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.nodes)) || s.nodes[id].Tombstone {
		return ErrEntityMissing
	}
	delete(s.nodes[id].Props, attr)
	return nil
}

// SetEdgeProperty sets attr=v on a live edge's property bag.
func (s *EntityStore) SetEdgeProperty(id uint64, attr AttrID, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.edges)) || s.edges[id].Tombstone {
		return ErrEntityMissing
	}
	s.edges[id].Props[attr] = v
	return nil
}

// AddLabel adds labelID to a live node's label set if not already present.
// Returns true if the label was newly added.
func (s *EntityStore) AddLabel(id uint64, labelID uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.nodes)) || s.nodes[id].Tombstone {
		return false, ErrEntityMissing
	}
	n := s.nodes[id]
	for _, l := range n.Labels {
		if l == labelID {
			return false, nil
		}
	}
	n.Labels = append(n.Labels, labelID)
	return true, nil
}

// RemoveLabel removes labelID from a live node's label set. Returns true
// if it was present.
func (s *EntityStore) RemoveLabel(id uint64, labelID uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.nodes)) || s.nodes[id].Tombstone {
		return false, ErrEntityMissing
	}
	n := s.nodes[id]
	for i, l := range n.Labels {
		if l == labelID {
			n.Labels = append(n.Labels[:i], n.Labels[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteNode tombstones a node slot. Matrix-side cleanup is the caller's
// (pkg/graph's) responsibility.
func (s *EntityStore) DeleteNode(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.nodes)) || s.nodes[id].Tombstone {
		return ErrEntityMissing
	}
	s.nodes[id].Tombstone = true
	return nil
}

// DeleteEdge tombstones an edge slot.
func (s *EntityStore) DeleteEdge(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.edges)) || s.edges[id].Tombstone {
		return ErrEntityMissing
	}
	s.edges[id].Tombstone = true
	return nil
}

// NodeCount returns the number of allocated node slots (size(), spec
// §4.2 — "the next id to be allocated" — including tombstoned ones).
func (s *EntityStore) NodeCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.nodes))
}

// EdgeCount returns the number of allocated edge slots.
func (s *EntityStore) EdgeCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.edges))
}

// EachNode calls fn once per live (non-tombstoned) node, in ascending id
// order — the natural scan order AllNodeScan (spec §4.7.1) relies on.
func (s *EntityStore) EachNode(fn func(n *NodeSlot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		if !n.Tombstone {
			fn(n)
		}
	}
}

// EachEdge calls fn once per live edge, in ascending id order.
func (s *EntityStore) EachEdge(fn func(e *EdgeSlot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.edges {
		if !e.Tombstone {
			fn(e)
		}
	}
}

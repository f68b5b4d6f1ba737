// Package record implements Component F: the fixed-capacity,
// alias-indexed row that flows between plan operators (spec §4.5). Two
// operators in the same plan share one AliasMap and therefore the same
// slot layout, so Records never carry their own schema — they're pure
// data, indexed by a plan-wide lookup.
package record

import (
	"hash/fnv"
	"sync"

	"github.com/orneryd/pgraphdb/pkg/value"
)

// AliasMap assigns stable slot indices to variable names within one
// plan. Shared by reference across every Record belonging to that plan.
type AliasMap struct {
	mu    sync.RWMutex
	index map[string]int
	names []string
}

func NewAliasMap() *AliasMap {
	return &AliasMap{index: make(map[string]int)}
}

// Intern returns the slot index for name, assigning a fresh one (growing
// the map's width) on first use. Plan construction calls this; once a
// plan starts executing, the alias set is fixed.
func (m *AliasMap) Intern(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.index[name]; ok {
		return i
	}
	i := len(m.names)
	m.index[name] = i
	m.names = append(m.names, name)
	return i
}

// Lookup returns the slot index for name without creating one.
func (m *AliasMap) Lookup(name string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[name]
	return i, ok
}

// Name returns the alias occupying a slot, for EXPLAIN/debug output.
func (m *AliasMap) Name(idx int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx < 0 || idx >= len(m.names) {
		return "", false
	}
	return m.names[idx], true
}

// Width is the number of slots a Record built against this map needs.
func (m *AliasMap) Width() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

// entry is the tagged-union slot: either unset, or holding a Value
// (scalars and entity refs are both represented as value.Value, per
// pkg/value's NodeRef/EdgeRef kinds — spec §4.5's "node(Node) | edge(Edge)"
// variants collapse into that single representation).
type entry struct {
	set bool
	v   value.Value
}

// Record is a fixed-capacity row, one slot per AliasMap entry at the
// time of construction.
type Record struct {
	Aliases *AliasMap
	slots   []entry
}

// New builds an all-unset Record sized to the alias map's current width.
func New(aliases *AliasMap) *Record {
	return &Record{Aliases: aliases, slots: make([]entry, aliases.Width())}
}

// ensureWidth grows slots if the alias map widened since this Record was
// built (operators may intern new aliases mid-plan-construction, before
// any row flows; never during execution).
func (r *Record) ensureWidth() {
	w := r.Aliases.Width()
	if len(r.slots) < w {
		grown := make([]entry, w)
		copy(grown, r.slots)
		r.slots = grown
	}
}

// GetIndex returns the value at a slot index and whether it is set.
func (r *Record) GetIndex(idx int) (value.Value, bool) {
	if idx < 0 || idx >= len(r.slots) || !r.slots[idx].set {
		return value.Null, false
	}
	return r.slots[idx].v, true
}

// Get returns the value bound to an alias and whether it is set. Returns
// false if the alias is unknown to this plan.
func (r *Record) Get(name string) (value.Value, bool) {
	idx, ok := r.Aliases.Lookup(name)
	if !ok {
		return value.Null, false
	}
	return r.GetIndex(idx)
}

// SetIndex binds a value at a slot index.
func (r *Record) SetIndex(idx int, v value.Value) {
	r.ensureWidth()
	r.slots[idx] = entry{set: true, v: v}
}

// Set binds a value to an alias, interning it if this is the first use.
func (r *Record) Set(name string, v value.Value) {
	idx := r.Aliases.Intern(name)
	r.SetIndex(idx, v)
}

// UnsetIndex clears a slot back to unset.
func (r *Record) UnsetIndex(idx int) {
	if idx >= 0 && idx < len(r.slots) {
		r.slots[idx] = entry{}
	}
}

// Clone deep-copies every set slot's Value payload so the clone and the
// original never alias mutable list/map storage.
func (r *Record) Clone() *Record {
	out := &Record{Aliases: r.Aliases, slots: make([]entry, len(r.slots))}
	for i, e := range r.slots {
		if e.set {
			out.slots[i] = entry{set: true, v: e.v.Clone()}
		}
	}
	return out
}

// Merge copies every slot set in other but unset in r, leaving r's own
// bindings untouched. Used by outer-join-style operators that combine a
// left row with an optional right row.
func (r *Record) Merge(other *Record) {
	r.ensureWidth()
	for i, e := range other.slots {
		if e.set && (i >= len(r.slots) || !r.slots[i].set) {
			if i >= len(r.slots) {
				continue
			}
			r.slots[i] = entry{set: true, v: e.v.Clone()}
		}
	}
}

// Hash64 is a canonical hash over set slots in index order, stable
// regardless of which aliases happen to be unset — hash joins and
// Distinct key on this.
func (r *Record) Hash64() uint64 {
	h := fnv.New64a()
	var buf [9]byte
	for i, e := range r.slots {
		if !e.set {
			continue
		}
		buf[0] = 1
		putU64(buf[1:], uint64(i))
		h.Write(buf[:])
		putU64(buf[1:], e.v.Hash64())
		h.Write(buf[:])
	}
	return h.Sum64()
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}

// Equal reports whether two Records have identical slot-by-slot values
// (unset vs unset counts as equal; unset vs set does not).
func (r *Record) Equal(other *Record) bool {
	n := len(r.slots)
	if len(other.slots) > n {
		n = len(other.slots)
	}
	for i := 0; i < n; i++ {
		var a, b entry
		if i < len(r.slots) {
			a = r.slots[i]
		}
		if i < len(other.slots) {
			b = other.slots[i]
		}
		if a.set != b.set {
			return false
		}
		if a.set && !a.v.Equal(b.v) {
			return false
		}
	}
	return true
}

// Package hexastore implements the lex-ordered six-permutation triplet
// index of spec §3.5/§4.4: for every live edge, one key in each of SPO,
// SOP, PSO, POS, OSP, OPS, all sharing a single ordered keyspace so any
// fixed-prefix lookup pattern ("all edges of type t from s", "all edges
// targeting o of type t", ...) is a contiguous range scan.
//
// The backing structure is a sorted-slice ordered map rather than a
// B-tree or radix trie — spec §4.4 leaves the concrete ordered-map choice
// open ("for example, a radix or B-tree"), and a sorted slice with binary
// search gives the same O(log n) prefix-scan entry point at a fraction of
// the implementation size, matching the "keep it minimal, general
// dispatch over specialised structure" posture spec §9 asks for elsewhere.
package hexastore

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// Triplet is (subject, predicate=(relType,edgeID), object), per spec §3.5.
type Triplet struct {
	Subject  uint64
	RelType  uint32
	EdgeID   uint64
	Object   uint64
}

// index names the six permutations; its value is the one-byte tag every key
// starts with, and chooseIndex picks one of them for each Scan.
type index byte

const (
	idxSPO index = iota
	idxSOP
	idxPSO
	idxPOS
	idxOSP
	idxOPS
)

// Hexastore is a single ordered keyspace holding six keys per live edge.
type Hexastore struct {
	keys map[string]Triplet // encoded key -> originating triplet, for iteration payload
	order []string          // kept sorted; rebuilt lazily via dirty flag
	dirty bool
}

func New() *Hexastore {
	return &Hexastore{keys: make(map[string]Triplet)}
}

func encodeU64(b *bytes.Buffer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.Write(buf[:])
}

func encodeU32(b *bytes.Buffer, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	b.Write(buf[:])
}

// predicate encodes (relType, edgeID) as a fixed-width sortable blob so a
// prefix bound on relType alone (edge id unknown) still works: encoding
// relType first means any edgeID suffix sorts within the relType's range.
func predicate(b *bytes.Buffer, relType uint32, edgeID uint64) {
	encodeU32(b, relType)
	encodeU64(b, edgeID)
}

func buildKey(idx index, parts ...func(*bytes.Buffer)) string {
	var b bytes.Buffer
	b.WriteByte(byte(idx))
	for _, p := range parts {
		p(&b)
	}
	return b.String()
}

func keysFor(t Triplet) [6]string {
	s := func(b *bytes.Buffer) { encodeU64(b, t.Subject) }
	o := func(b *bytes.Buffer) { encodeU64(b, t.Object) }
	p := func(b *bytes.Buffer) { predicate(b, t.RelType, t.EdgeID) }
	return [6]string{
		buildKey(idxSPO, s, p, o),
		buildKey(idxSOP, s, o, p),
		buildKey(idxPSO, p, s, o),
		buildKey(idxPOS, p, o, s),
		buildKey(idxOSP, o, s, p),
		buildKey(idxOPS, o, p, s),
	}
}

// InsertTriplet inserts all six keys for (s, relType, edgeID, o). Per
// invariant H2, no two triplets may share an edgeID; InsertTriplet does
// not itself enforce this (the caller — pkg/graph — guarantees edgeIDs are
// freshly allocated and unique).
func (h *Hexastore) InsertTriplet(s uint64, relType uint32, edgeID uint64, o uint64) {
	t := Triplet{Subject: s, RelType: relType, EdgeID: edgeID, Object: o}
	for _, k := range keysFor(t) {
		if _, exists := h.keys[k]; !exists {
			h.dirty = true
		}
		h.keys[k] = t
	}
}

// DeleteTriplet removes all six keys for the given triplet.
func (h *Hexastore) DeleteTriplet(s uint64, relType uint32, edgeID uint64, o uint64) {
	t := Triplet{Subject: s, RelType: relType, EdgeID: edgeID, Object: o}
	for _, k := range keysFor(t) {
		if _, exists := h.keys[k]; exists {
			delete(h.keys, k)
			h.dirty = true
		}
	}
}

// Len returns the number of triplets (not the number of keys, which is
// always 6x that, per H1).
func (h *Hexastore) Len() int {
	return len(h.keys) / 6
}

func (h *Hexastore) rebuildOrder() {
	if !h.dirty {
		return
	}
	order := make([]string, 0, len(h.keys))
	for k := range h.keys {
		order = append(order, k)
	}
	sort.Strings(order)
	h.order = order
	h.dirty = false
}

// Pattern selects which of the seven non-empty {S,P,O} subsets to bind, and
// carries the bound values. RelType/EdgeID are only meaningful when
// BindP is true; EdgeID may additionally be left unbound (open range over
// the edge id suffix) by setting BindEdgeID to false — "all edges of this
// relation type between this pair", for instance.
type Pattern struct {
	BindS bool
	S     uint64
	BindP bool
	RelType uint32
	BindEdgeID bool
	EdgeID  uint64
	BindO bool
	O     uint64
}

// chooseIndex picks the permutation whose key layout has the pattern's
// bound components as a prefix, preferring the permutation that lets the
// LONGEST bound prefix participate (so a fully-bound S+P+O pattern still
// range-scans a single key instead of falling back to a 2-component
// index and filtering in Go).
func (pt Pattern) chooseIndex() index {
	switch {
	case pt.BindS && pt.BindP && pt.BindO:
		return idxSPO
	case pt.BindS && pt.BindO:
		return idxSOP
	case pt.BindP && pt.BindS:
		return idxPSO
	case pt.BindP && pt.BindO:
		return idxPOS
	case pt.BindO && pt.BindS:
		return idxOSP
	case pt.BindO && pt.BindP:
		return idxOPS
	case pt.BindS:
		return idxSPO
	case pt.BindP:
		return idxPSO
	case pt.BindO:
		return idxOSP
	default:
		return idxSPO
	}
}

func (h *Hexastore) prefixFor(idx index, pt Pattern) []byte {
	var b bytes.Buffer
	b.WriteByte(byte(idx))
	write := map[byte]func(){
		'S': func() { encodeU64(&b, pt.S) },
		'P': func() {
			encodeU32(&b, pt.RelType)
			if pt.BindEdgeID {
				encodeU64(&b, pt.EdgeID)
			}
		},
		'O': func() { encodeU64(&b, pt.O) },
	}
	order := indexComponentOrder(idx)
	for _, comp := range order {
		bound := false
		switch comp {
		case 'S':
			bound = pt.BindS
		case 'P':
			bound = pt.BindP
		case 'O':
			bound = pt.BindO
		}
		if !bound {
			break
		}
		write[comp]()
		if comp == 'P' && !pt.BindEdgeID {
			// A bound relation type with an unbound edge id is still a
			// valid (shorter) prefix — stop here rather than writing a
			// partial predicate encoding.
			break
		}
	}
	return b.Bytes()
}

func indexComponentOrder(idx index) []byte {
	switch idx {
	case idxSPO:
		return []byte{'S', 'P', 'O'}
	case idxSOP:
		return []byte{'S', 'O', 'P'}
	case idxPSO:
		return []byte{'P', 'S', 'O'}
	case idxPOS:
		return []byte{'P', 'O', 'S'}
	case idxOSP:
		return []byte{'O', 'S', 'P'}
	case idxOPS:
		return []byte{'O', 'P', 'S'}
	default:
		return nil
	}
}

// Scan returns every triplet matching pattern, in the lex order of the
// chosen index. The byte-prefix range scan narrows candidates to the
// longest contiguous run of bound components the chosen index's layout
// permits (prefixFor stops as soon as a field can't be expressed as exact
// bytes, e.g. a bound relation type with an unbound edge id); matches() then
// re-checks every bound field so a partial prefix never under-filters.
func (h *Hexastore) Scan(pt Pattern) []Triplet {
	h.rebuildOrder()
	idx := pt.chooseIndex()
	prefix := h.prefixFor(idx, pt)

	lo := sort.Search(len(h.order), func(i int) bool {
		return h.order[i] >= string(prefix)
	})
	var out []Triplet
	for i := lo; i < len(h.order); i++ {
		key := h.order[i]
		if !bytesHasPrefix(key, prefix) {
			break
		}
		t := h.keys[key]
		if pt.matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// matches reports whether t satisfies every bound component of pt. Used
// to re-check candidates whose byte prefix only partially constrained the
// pattern (see Scan).
func (pt Pattern) matches(t Triplet) bool {
	if pt.BindS && t.Subject != pt.S {
		return false
	}
	if pt.BindP && t.RelType != pt.RelType {
		return false
	}
	if pt.BindEdgeID && t.EdgeID != pt.EdgeID {
		return false
	}
	if pt.BindO && t.Object != pt.O {
		return false
	}
	return true
}

func bytesHasPrefix(s string, prefix []byte) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == string(prefix)
}

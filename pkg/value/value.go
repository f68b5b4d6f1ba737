// Package value provides the tagged-union scalar type carried by every
// Record entry, property bag slot, and expression result in the query
// engine.
//
// A Value is one of a small fixed set of kinds: null, boolean, a 64-bit
// integer, a double, a string, a reference to a node or edge (by id only —
// dereferencing goes through the graph, not through the Value itself), a
// list of Values, a map of string to Value, or a duration. Absence of a
// property is represented by the property bag simply not holding an entry
// for that attribute; Null is a present-but-null value, which is distinct.
package value

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind identifies the concrete payload carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindDouble
	KindString
	KindNodeRef
	KindEdgeRef
	KindList
	KindMap
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Boolean"
	case KindInt64:
		return "Integer"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	case KindNodeRef:
		return "Node"
	case KindEdgeRef:
		return "Relationship"
	case KindList:
		return "Array"
	case KindMap:
		return "Map"
	case KindDuration:
		return "Duration"
	default:
		return "Unknown"
	}
}

// Value is an immutable tagged scalar. Zero value is Null.
//
// List and Map payloads are reference types (a Go slice/map); Clone deep
// copies them so a Record holding a Value never shares mutable backing
// storage with another Record unless explicitly merged.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

// Null is the canonical null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func Int64(i int64) Value     { return Value{kind: KindInt64, i: i} }
func Double(f float64) Value  { return Value{kind: KindDouble, f: f} }
func String(s string) Value   { return Value{kind: KindString, s: s} }
func NodeRef(id uint64) Value { return Value{kind: KindNodeRef, i: int64(id)} }
func EdgeRef(id uint64) Value { return Value{kind: KindEdgeRef, i: int64(id)} }
func Duration(d time.Duration) Value {
	return Value{kind: KindDuration, i: int64(d)}
}

func List(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

func Map(m map[string]Value) Value {
	cp := make(map[string]Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Bool() (bool, bool)          { return v.b, v.kind == KindBool }
func (v Value) Int64() (int64, bool)        { return v.i, v.kind == KindInt64 }
func (v Value) Double() (float64, bool)     { return v.f, v.kind == KindDouble }
func (v Value) String() (string, bool)      { return v.s, v.kind == KindString }
func (v Value) NodeID() (uint64, bool)      { return uint64(v.i), v.kind == KindNodeRef }
func (v Value) EdgeID() (uint64, bool)      { return uint64(v.i), v.kind == KindEdgeRef }
func (v Value) Duration() (time.Duration, bool) {
	return time.Duration(v.i), v.kind == KindDuration
}
func (v Value) List() ([]Value, bool) { return v.list, v.kind == KindList }
func (v Value) Map() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Clone deep-copies any heap payload so the receiver owns independent
// storage. Scalars are copied by value already; List/Map are the only
// kinds that need an explicit copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		cp := make([]Value, len(v.list))
		for i, e := range v.list {
			cp[i] = e.Clone()
		}
		return Value{kind: KindList, list: cp}
	case KindMap:
		cp := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			cp[k] = e.Clone()
		}
		return Value{kind: KindMap, m: cp}
	default:
		return v
	}
}

// isNumeric reports whether the value is Int64 or Double.
func (v Value) isNumeric() bool { return v.kind == KindInt64 || v.kind == KindDouble }

// AsFloat64 coerces a numeric Value to float64; ok is false for non-numeric
// kinds.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt64:
		return float64(v.i), true
	case KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// Compare implements the total order used by Sort and by range-based
// filters. Ordering across kinds follows Cypher's collation: Null, then
// Boolean, then numeric (Int64/Double compared numerically), then String,
// then List, then Map, then Node/Relationship/Duration by kind then id.
//
// Per spec §9's resolved Open Question, callers that need "nulls last in
// ASC / nulls first in DESC" must special-case Null in both directions:
// Compare itself always orders Null first, so it would put nulls first in
// ascending order and its negation would put them last in descending
// order. That null placement belongs to the Sort operator, not to the
// total order.
func (a Value) Compare(b Value) int {
	if a.kind == KindNull || b.kind == KindNull {
		return rank(a.kind) - rank(b.kind)
	}
	if a.isNumeric() && b.isNumeric() {
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if rank(a.kind) != rank(b.kind) {
		return rank(a.kind) - rank(b.kind)
	}
	switch a.kind {
	case KindBool:
		return boolCompare(a.b, b.b)
	case KindString:
		return compareStrings(a.s, b.s)
	case KindNodeRef, KindEdgeRef, KindDuration:
		if a.kind != b.kind {
			return int(a.kind) - int(b.kind)
		}
		return int64Compare(a.i, b.i)
	case KindList:
		return compareLists(a.list, b.list)
	case KindMap:
		return compareMaps(a.m, b.m)
	default:
		return 0
	}
}

// rank orders distinct kinds for cross-kind comparison; numeric kinds share
// a rank so int/double compare numerically rather than by kind.
func rank(k Kind) int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt64, KindDouble:
		return 2
	case KindString:
		return 3
	case KindList:
		return 4
	case KindMap:
		return 5
	default:
		return 6
	}
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func int64Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareLists(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareMaps(a, b map[string]Value) int {
	ak := sortedKeys(a)
	bk := sortedKeys(b)
	n := len(ak)
	if len(bk) < n {
		n = len(bk)
	}
	for i := 0; i < n; i++ {
		if c := compareStrings(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := a[ak[i]].Compare(b[bk[i]]); c != 0 {
			return c
		}
	}
	return len(ak) - len(bk)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports value equality. Null equals Null under this predicate even
// though Cypher's `=` operator treats NULL = NULL as NULL at the expression
// level — that three-valued logic lives in pkg/expr, not here.
func (a Value) Equal(b Value) bool {
	return a.Compare(b) == 0
}

// Hash64 is a canonical, deterministic-within-process hash used by
// Distinct and hash joins. Two equal Values (by Compare) always hash
// equal; the converse need not hold, so callers must still resolve
// collisions with Compare/Equal.
func (v Value) Hash64() uint64 {
	h := fnv.New64a()
	switch v.kind {
	case KindNull:
		h.Write([]byte{0})
	case KindBool:
		if v.b {
			h.Write([]byte{1, 1})
		} else {
			h.Write([]byte{1, 0})
		}
	case KindInt64, KindDouble:
		f, _ := v.AsFloat64()
		// Canonicalize -0 to 0 and hash all numerics as their float64 bit
		// pattern so Int64(2) and Double(2.0) hash identically, matching
		// Compare's cross-numeric equality.
		if f == 0 {
			f = 0
		}
		var buf [9]byte
		buf[0] = 2
		bits := math.Float64bits(f)
		for i := 0; i < 8; i++ {
			buf[i+1] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	case KindString:
		h.Write([]byte{3})
		h.Write([]byte(v.s))
	case KindNodeRef:
		h.Write([]byte{4})
		h.Write([]byte(strconv.FormatUint(uint64(v.i), 10)))
	case KindEdgeRef:
		h.Write([]byte{5})
		h.Write([]byte(strconv.FormatUint(uint64(v.i), 10)))
	case KindDuration:
		h.Write([]byte{6})
		h.Write([]byte(strconv.FormatInt(v.i, 10)))
	case KindList:
		h.Write([]byte{7})
		for _, e := range v.list {
			var b [8]byte
			eh := e.Hash64()
			for i := range b {
				b[i] = byte(eh >> (8 * i))
			}
			h.Write(b[:])
		}
	case KindMap:
		h.Write([]byte{8})
		for _, k := range sortedKeys(v.m) {
			h.Write([]byte(k))
			var b [8]byte
			eh := v.m[k].Hash64()
			for i := range b {
				b[i] = byte(eh >> (8 * i))
			}
			h.Write(b[:])
		}
	}
	return h.Sum64()
}

// GoString supports %#v debug printing.
func (v Value) GoString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindNodeRef:
		return fmt.Sprintf("Node(%d)", uint64(v.i))
	case KindEdgeRef:
		return fmt.Sprintf("Relationship(%d)", uint64(v.i))
	case KindDuration:
		return time.Duration(v.i).String()
	case KindList:
		return fmt.Sprintf("%v", v.list)
	case KindMap:
		return fmt.Sprintf("%v", v.m)
	default:
		return "?"
	}
}

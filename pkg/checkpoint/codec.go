package checkpoint

import (
	"fmt"
	"time"

	"github.com/orneryd/pgraphdb/pkg/value"
)

// valueDTO is the on-disk, JSON-marshalable shape of a value.Value. It
// names its kind explicitly rather than relying on Go's zero-value
// omission, since e.g. Int64(0) and Null must round-trip distinctly.
type valueDTO struct {
	Kind  string              `json:"kind"`
	Bool  bool                `json:"bool,omitempty"`
	Int   int64               `json:"int,omitempty"`
	Float float64             `json:"float,omitempty"`
	Str   string              `json:"str,omitempty"`
	List  []valueDTO          `json:"list,omitempty"`
	Map   map[string]valueDTO `json:"map,omitempty"`
}

// encodeValue converts a property-bag scalar to its DTO. Node/Relationship
// refs never appear as property values in this engine (properties are
// scalars, lists, or maps per spec §3.2), so there's no id-remapping
// concern here the way there is for edge endpoints.
func encodeValue(v value.Value) valueDTO {
	switch v.Kind() {
	case value.KindNull:
		return valueDTO{Kind: "null"}
	case value.KindBool:
		b, _ := v.Bool()
		return valueDTO{Kind: "bool", Bool: b}
	case value.KindInt64:
		i, _ := v.Int64()
		return valueDTO{Kind: "int", Int: i}
	case value.KindDouble:
		f, _ := v.Double()
		return valueDTO{Kind: "float", Float: f}
	case value.KindString:
		s, _ := v.String()
		return valueDTO{Kind: "str", Str: s}
	case value.KindDuration:
		d, _ := v.Duration()
		return valueDTO{Kind: "duration", Int: int64(d)}
	case value.KindList:
		items, _ := v.List()
		out := make([]valueDTO, len(items))
		for i, it := range items {
			out[i] = encodeValue(it)
		}
		return valueDTO{Kind: "list", List: out}
	case value.KindMap:
		m, _ := v.Map()
		out := make(map[string]valueDTO, len(m))
		for k, mv := range m {
			out[k] = encodeValue(mv)
		}
		return valueDTO{Kind: "map", Map: out}
	default:
		return valueDTO{Kind: "null"}
	}
}

func decodeValue(d valueDTO) (value.Value, error) {
	switch d.Kind {
	case "null", "":
		return value.Null, nil
	case "bool":
		return value.Bool(d.Bool), nil
	case "int":
		return value.Int64(d.Int), nil
	case "float":
		return value.Double(d.Float), nil
	case "str":
		return value.String(d.Str), nil
	case "duration":
		return value.Duration(time.Duration(d.Int)), nil
	case "list":
		items := make([]value.Value, len(d.List))
		for i, it := range d.List {
			v, err := decodeValue(it)
			if err != nil {
				return value.Null, err
			}
			items[i] = v
		}
		return value.List(items), nil
	case "map":
		m := make(map[string]value.Value, len(d.Map))
		for k, it := range d.Map {
			v, err := decodeValue(it)
			if err != nil {
				return value.Null, err
			}
			m[k] = v
		}
		return value.Map(m), nil
	default:
		return value.Null, fmt.Errorf("checkpoint: unknown value kind %q", d.Kind)
	}
}

package resultset

import (
	"sort"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/store"
)

// sortedProps returns a property bag's entries in attribute-id order, the
// stable order the compact formatter renders props in regardless of Go's
// randomized map iteration; the verbose formatter collects them into a
// name-keyed map.
func sortedProps(bag store.PropertyBag) []store.AttrID {
	ids := make([]store.AttrID, 0, len(bag))
	for a := range bag {
		ids = append(ids, a)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func verboseProps(bag store.PropertyBag, g *graph.Graph) map[string]interface{} {
	out := make(map[string]interface{}, len(bag))
	for _, a := range sortedProps(bag) {
		name, ok := g.Attrs.Name(a)
		if !ok {
			continue
		}
		out[name] = verboseCell(bag[a], g)
	}
	return out
}

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainRendersNestedOperatorTree(t *testing.T) {
	scan := NewAllNodeScan("n")
	filter := NewFilter(scan, nil)
	proj := NewProject(filter, []ProjectItem{{Alias: "out"}})

	node := Explain(proj)
	assert.Equal(t, "Project", node.OperatorType)
	assert.Equal(t, []string{"out"}, node.Identifiers)
	require.Len(t, node.Children, 1)
	assert.Equal(t, "Filter", node.Children[0].OperatorType)
	assert.Equal(t, "AllNodeScan", node.Children[0].Children[0].OperatorType)
}

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/pgraphdb/pkg/ast"
)

func litInt(n int64) ast.Expression   { return ast.Expression{Type: ast.ExprLiteral, Literal: n} }
func litStr(s string) ast.Expression  { return ast.Expression{Type: ast.ExprLiteral, Literal: s} }
func varRef(name string) ast.Expression { return ast.Expression{Type: ast.ExprVariable, Variable: name} }
func propRef(v, p string) ast.Expression {
	return ast.Expression{Type: ast.ExprProperty, Property: &ast.PropertyAccess{Variable: v, Path: []string{p}}}
}
func countStar() ast.Expression {
	return ast.Expression{Type: ast.ExprFunction, Function: &ast.FunctionCall{Name: "count"}}
}

// newTestServer registers one empty graph named "g" and returns the server
// plus that name, the shape every scenario below builds on.
func newTestServer() (*Server, string) {
	s := NewServer()
	s.CreateGraph("g", 4)
	return s, "g"
}

// TestCreateThenMatchReturnsColumnsAndStats mirrors spec §8 scenario 1: a
// CREATE query followed by a separate MATCH/RETURN query produces the
// created node's projected properties and the expected write counters.
func TestCreateThenMatchReturnsColumnsAndStats(t *testing.T) {
	s, name := newTestServer()

	createAST := &ast.AST{Clauses: []ast.Clause{
		{Type: ast.ClauseCreate, Create: &ast.Create{Patterns: []ast.Pattern{{
			Nodes: []ast.NodePattern{{Variable: "p", Labels: []string{"Person"}, Properties: map[string]ast.Expression{
				"name": litStr("Alice"),
				"age":  litInt(30),
			}}},
		}}}},
	}}
	reply := s.Execute(name, createAST, FormatNone)
	require.NoError(t, reply.Err)
	assert.Equal(t, 1, reply.Stats.NodesCreated)
	assert.Equal(t, 1, reply.Stats.LabelsAdded)
	assert.Equal(t, 2, reply.Stats.PropertiesSet)

	matchAST := &ast.AST{IsReadOnly: true, Clauses: []ast.Clause{
		{Type: ast.ClauseMatch, Match: &ast.Match{Patterns: []ast.Pattern{{
			Nodes: []ast.NodePattern{{Variable: "p", Labels: []string{"Person"}}},
		}}}},
		{Type: ast.ClauseReturn, Return: &ast.Return{Items: []ast.ReturnItem{
			{Expression: propRef("p", "name"), Alias: "p.name"},
			{Expression: propRef("p", "age"), Alias: "p.age"},
		}}},
	}}
	reply = s.Execute(name, matchAST, FormatVerbose)
	require.NoError(t, reply.Err)
	require.NotNil(t, reply.Verbose)
	assert.Equal(t, []string{"p.name", "p.age"}, reply.Columns)
	require.Len(t, reply.Verbose.Rows, 1)
	row := reply.Verbose.Rows[0]
	assert.Equal(t, []interface{}{"String", "Alice"}, row[0])
	assert.Equal(t, []interface{}{"Integer", int64(30)}, row[1])
}

// TestDeleteReadYourOwnWrites mirrors spec §8 scenario 5: a single query
// creates a node, binds it again via WITH, deletes it, and returns a count
// — the delete must see the write the same query staged.
func TestDeleteReadYourOwnWrites(t *testing.T) {
	s, name := newTestServer()

	queryAST := &ast.AST{Clauses: []ast.Clause{
		{Type: ast.ClauseCreate, Create: &ast.Create{Patterns: []ast.Pattern{{
			Nodes: []ast.NodePattern{{Variable: "n", Labels: []string{"T"}}},
		}}}},
		{Type: ast.ClauseWith, With: &ast.With{Items: []ast.ReturnItem{{Expression: varRef("n"), Alias: "n"}}}},
		{Type: ast.ClauseDelete, Delete: &ast.Delete{Variables: []string{"n"}}},
		{Type: ast.ClauseReturn, Return: &ast.Return{Items: []ast.ReturnItem{{Expression: countStar(), Alias: "count(*)"}}}},
	}}
	reply := s.Execute(name, queryAST, FormatVerbose)
	require.NoError(t, reply.Err)
	require.NotNil(t, reply.Verbose)
	require.Len(t, reply.Verbose.Rows, 1)
	assert.Equal(t, []interface{}{"Integer", int64(1)}, reply.Verbose.Rows[0][0])
	assert.Equal(t, 1, reply.Stats.NodesCreated)
	assert.Equal(t, 1, reply.Stats.NodesDeleted)
}

// TestExecuteUnknownGraphReturnsGraphNotFound exercises the Server-level
// addressing error that's detected before any operator runs.
func TestExecuteUnknownGraphReturnsGraphNotFound(t *testing.T) {
	s := NewServer()
	reply := s.Execute("missing", &ast.AST{IsReadOnly: true}, FormatNone)
	require.Error(t, reply.Err)
	assert.ErrorIs(t, reply.Err, ErrGraphNotFound)
}

// TestExecuteCompactFormatInternsPropertyNames checks the §6.2 rendering
// path end to end: a returned node renders as a CodeNode cell whose
// property name is interned in the reply's string pool.
func TestExecuteCompactFormatInternsPropertyNames(t *testing.T) {
	s, name := newTestServer()
	createAST := &ast.AST{Clauses: []ast.Clause{
		{Type: ast.ClauseCreate, Create: &ast.Create{Patterns: []ast.Pattern{{
			Nodes: []ast.NodePattern{{Variable: "p", Labels: []string{"Person"}, Properties: map[string]ast.Expression{
				"name": litStr("Ada"),
			}}},
		}}}},
	}}
	require.NoError(t, s.Execute(name, createAST, FormatNone).Err)

	matchAST := &ast.AST{IsReadOnly: true, Clauses: []ast.Clause{
		{Type: ast.ClauseMatch, Match: &ast.Match{Patterns: []ast.Pattern{{
			Nodes: []ast.NodePattern{{Variable: "p", Labels: []string{"Person"}}},
		}}}},
		{Type: ast.ClauseReturn, Return: &ast.Return{Items: []ast.ReturnItem{{Expression: varRef("p"), Alias: "p"}}}},
	}}
	reply := s.Execute(name, matchAST, FormatCompact)
	require.NoError(t, reply.Err)
	require.NotNil(t, reply.Compact)
	require.Len(t, reply.Compact.Rows, 1)
	cell := reply.Compact.Rows[0][0]
	assert.Equal(t, 8, cell.Type) // CodeNode
	payload := cell.Payload.([]interface{})
	props := payload[2].([][2]interface{})
	require.Len(t, props, 1)
	assert.Equal(t, "name", reply.Compact.Pool[props[0][0].(int)])
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/pgraphdb/pkg/ast"
	"github.com/orneryd/pgraphdb/pkg/checkpoint"
	"github.com/orneryd/pgraphdb/pkg/query"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one pre-built AST document against a graph",
		Long: `query opens (or creates) a graph from a checkpoint directory, runs a
single query through pkg/query.Server.Execute, writes the result back to
the checkpoint if the query wrote anything, and prints the reply as JSON.

The query itself is supplied as a pkg/ast.AST document — this binary has
no Cypher text parser (parsing is an external collaborator's concern).
The document shape mirrors the ast package's exported fields directly,
e.g. a trivial "CREATE (n:Person {name: 'Ada'})" lowers to:

	{
	  "Clauses": [
	    {"Type": 2, "Create": {"Patterns": [{"Nodes": [
	      {"Variable": "n", "Labels": ["Person"],
	       "Properties": {"name": {"Type": 0, "Literal": "Ada"}}}
	    ]}]}}
	  ],
	  "IsReadOnly": false
	}

where Type 2 is ClauseCreate and the nested expression's Type 0 is
ExprLiteral, per pkg/ast's ClauseType/ExprType enums.`,
		RunE: runQuery,
	}
	cmd.Flags().String("data-dir", "./data/checkpoint", "Checkpoint directory for this graph")
	cmd.Flags().String("graph", "default", "Graph name")
	cmd.Flags().String("ast", "-", "Path to a JSON-encoded pkg/ast.AST document, or - for stdin")
	cmd.Flags().String("format", "verbose", "Reply rendering: verbose, compact, or none")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	graphName, _ := cmd.Flags().GetString("graph")
	astPath, _ := cmd.Flags().GetString("ast")
	formatFlag, _ := cmd.Flags().GetString("format")

	format, err := parseFormat(formatFlag)
	if err != nil {
		return err
	}

	a, err := readAST(astPath)
	if err != nil {
		return fmt.Errorf("reading AST document: %w", err)
	}

	g, _, err := openOrCreateGraph(dataDir, graphName)
	if err != nil {
		return err
	}

	srv := query.NewServer()
	srv.AttachGraph(graphName, g)

	reply := srv.Execute(graphName, a, format)
	if reply.Err != nil {
		return reply.Err
	}

	if !a.IsReadOnly {
		if _, err := checkpoint.Save(dataDir, graphName, g); err != nil {
			return fmt.Errorf("saving checkpoint after write: %w", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	switch format {
	case query.FormatVerbose:
		return enc.Encode(reply.Verbose)
	case query.FormatCompact:
		return enc.Encode(reply.Compact)
	default:
		return enc.Encode(reply.Stats)
	}
}

func parseFormat(s string) (query.Format, error) {
	switch s {
	case "verbose", "":
		return query.FormatVerbose, nil
	case "compact":
		return query.FormatCompact, nil
	case "none":
		return query.FormatNone, nil
	default:
		return 0, fmt.Errorf("unknown format %q (want verbose, compact, or none)", s)
	}
}

func readAST(path string) (*ast.AST, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var a ast.AST
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding AST JSON: %w", err)
	}
	return &a, nil
}

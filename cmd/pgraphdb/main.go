// Command pgraphdb is the CLI front end for the matrix-backed property
// graph engine: stand up a graph from a checkpoint directory, run a
// single pre-built query against it, or inspect/compact an existing
// checkpoint. There is no network listener here — the wire/RESP protocol
// and the Cypher-to-AST parser are both external collaborators per
// spec §1, so every subcommand talks to an in-process pkg/query.Server
// and expects its query already lowered to a pkg/ast.AST.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pgraphdb",
		Short: "pgraphdb - matrix-backed property graph engine",
		Long: `pgraphdb is a property graph engine built on sparse boolean matrix
algebra: labels and relationship types are adjacency matrices, MATCH
patterns lower to masked matrix multiplies, and every write is staged in
a pending buffer until the query that issued it upgrades to an exclusive
latch and flushes.

This binary exposes the engine's ambient lifecycle (serve, checkpoint)
and a one-shot query runner. It does not parse Cypher text — queries are
supplied as pre-built pkg/ast.AST documents, the same shape pkg/plan's
builder consumes internally.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pgraphdb v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newCheckpointCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/orneryd/pgraphdb/pkg/checkpoint"
	"github.com/orneryd/pgraphdb/pkg/graph"
)

const defaultInitialCapacity = 1024

// manifestName mirrors pkg/checkpoint's unexported manifest filename, so
// this CLI can decide up front whether dir already holds a checkpoint
// without relying on Load's error text to tell a missing manifest apart
// from a corrupt one.
const manifestName = "manifest.yaml"

// openOrCreateGraph loads graphName from a checkpoint under dir if one
// exists (a manifest.yaml is present), otherwise allocates a fresh empty
// graph. The returned bool reports which happened, for a subcommand's own
// "opening existing/fresh database" log line.
func openOrCreateGraph(dir, graphName string) (*graph.Graph, bool, error) {
	if _, err := os.Stat(filepath.Join(dir, manifestName)); err == nil {
		g, _, err := checkpoint.Load(dir, defaultInitialCapacity)
		if err != nil {
			return nil, false, fmt.Errorf("loading checkpoint from %s: %w", dir, err)
		}
		return g, true, nil
	} else if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("stat %s: %w", dir, err)
	}
	return graph.New(defaultInitialCapacity), false, nil
}

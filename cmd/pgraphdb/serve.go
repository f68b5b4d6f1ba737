package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/pgraphdb/pkg/checkpoint"
	"github.com/orneryd/pgraphdb/pkg/log"
	"github.com/orneryd/pgraphdb/pkg/query"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Hold a graph resident in memory, checkpointing on an interval",
		Long: `serve opens (or creates) a graph from a checkpoint directory and keeps
it resident in a pkg/query.Server for the lifetime of the process. There
is no network listener — queries reach this process through an embedding
caller or a future transport; this command exists so checkpointing and
graceful shutdown can be exercised without one.`,
		RunE: runServe,
	}
	cmd.Flags().String("data-dir", "./data/checkpoint", "Checkpoint directory for this graph")
	cmd.Flags().String("graph", "default", "Graph name")
	cmd.Flags().Duration("checkpoint-interval", 5*time.Minute, "Automatic checkpoint interval (0 disables)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	graphName, _ := cmd.Flags().GetString("graph")
	interval, _ := cmd.Flags().GetDuration("checkpoint-interval")

	fmt.Printf("pgraphdb serve: graph %q, checkpoint dir %s\n", graphName, dataDir)

	g, loaded, err := openOrCreateGraph(dataDir, graphName)
	if err != nil {
		return err
	}
	if loaded {
		fmt.Println("opened existing checkpoint")
	} else {
		fmt.Println("no checkpoint found, starting with an empty graph")
	}

	srv := query.NewServer()
	srv.AttachGraph(graphName, g)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if interval > 0 {
		ticker = time.NewTicker(interval)
		tickC = ticker.C
		defer ticker.Stop()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("ready, press Ctrl+C to stop")
	for {
		select {
		case <-tickC:
			if err := checkpointNow(dataDir, graphName, srv); err != nil {
				log.Default.Error("serve: automatic checkpoint failed", "graph", graphName, "err", err)
			} else {
				fmt.Println("checkpoint written")
			}
		case <-sigChan:
			fmt.Println("\nshutting down, writing final checkpoint...")
			if err := checkpointNow(dataDir, graphName, srv); err != nil {
				return fmt.Errorf("final checkpoint: %w", err)
			}
			fmt.Println("stopped cleanly")
			return nil
		}
	}
}

func checkpointNow(dir, graphName string, srv *query.Server) error {
	g, ok := srv.Graph(graphName)
	if !ok {
		return fmt.Errorf("graph %q not registered", graphName)
	}
	_, err := checkpoint.Save(dir, graphName, g)
	return err
}

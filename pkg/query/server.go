package query

import (
	"sync"

	"github.com/orneryd/pgraphdb/pkg/graph"
	"github.com/orneryd/pgraphdb/pkg/log"
)

// Server owns every named graph a process serves, replacing the source's
// process-wide tables (spec §9's "global mutable state → owned graph
// handles" decision) with one handle a caller threads through every
// Execute call. Modeled after the teacher's DB façade
// (nornicdb/pkg/nornicdb/db.go: Open/Close owning the backing stores)
// generalized from one embedded store to a name-keyed map of graphs.
type Server struct {
	mu     sync.RWMutex
	graphs map[string]*graph.Graph
	Logger *log.Logger
}

// NewServer returns an empty Server with no graphs registered, logging
// through pkg/log's Default logger unless overridden via s.Logger.
func NewServer() *Server {
	return &Server{graphs: make(map[string]*graph.Graph), Logger: log.Default}
}

// CreateGraph registers a fresh, empty graph under name, replacing any
// existing graph of the same name.
func (s *Server) CreateGraph(name string, initialCapacity uint64) *graph.Graph {
	g := graph.New(initialCapacity)
	s.mu.Lock()
	s.graphs[name] = g
	s.mu.Unlock()
	return g
}

// Graph returns the named graph, or false if no graph of that name has
// been created (or restored from a checkpoint) yet.
func (s *Server) Graph(name string) (*graph.Graph, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[name]
	return g, ok
}

// AttachGraph registers an already-constructed graph under name (the
// pgraphdb command's query and serve subcommands use it to publish the
// graph they opened).
func (s *Server) AttachGraph(name string, g *graph.Graph) {
	s.mu.Lock()
	s.graphs[name] = g
	s.mu.Unlock()
}

// DropGraph removes a graph from the registry. It does not release any
// resources the graph holds; callers that need that should stop issuing
// queries against it first.
func (s *Server) DropGraph(name string) {
	s.mu.Lock()
	delete(s.graphs, name)
	s.mu.Unlock()
}

// GraphNames lists every registered graph name.
func (s *Server) GraphNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.graphs))
	for n := range s.graphs {
		names = append(names, n)
	}
	return names
}

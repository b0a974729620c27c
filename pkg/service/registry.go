// Package service keeps graphs and KDE structures in memory behind opaque
// handles and runs the analysis operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/kde"
	"github.com/gilchrisn/graph-approx-engine/pkg/localcluster"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
	"github.com/gilchrisn/graph-approx-engine/pkg/simgraph"
)

// ErrNotFound is returned for unknown handles.
var ErrNotFound = errors.New("not found")

// Graph sources.
const (
	SourceUpload     = "upload"
	SourceSimilarity = "similarity"
)

// GraphEntry describes a registered graph.
type GraphEntry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Vertices    int       `json:"vertices"`
	Edges       int       `json:"edges"`
	TotalVolume float64   `json:"total_volume"`
	CreatedAt   time.Time `json:"created_at"`

	graph *graph.Graph
}

// Graph returns the registered graph.
func (e *GraphEntry) Graph() *graph.Graph { return e.graph }

// KDEEntry describes a registered KDE structure.
type KDEEntry struct {
	ID        string          `json:"id"`
	Kernel    string          `json:"kernel"`
	Points    int             `json:"points"`
	Dim       int             `json:"dim"`
	Stats     *kde.Statistics `json:"stats"`
	CreatedAt time.Time       `json:"created_at"`

	kde *kde.KDE
}

// KDEParams configures a KDE build.
type KDEParams struct {
	Kernel    string
	Bandwidth float64
	Epsilon   float64
	Delta     float64
	Seed      uint64
}

// Registry handles graph and KDE operations
type Registry struct {
	graphs map[string]*GraphEntry
	kdes   map[string]*KDEEntry
	mutex  sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		graphs: make(map[string]*GraphEntry),
		kdes:   make(map[string]*KDEEntry),
	}
}

// AddGraph builds a graph from edges and registers it. A negative
// numVertices infers the count from the largest vertex id.
func (s *Registry) AddGraph(name string, numVertices int, edges []graph.Edge) (*GraphEntry, error) {
	g, err := graph.ReadFrom(graph.NewSliceSource(edges), numVertices)
	if err != nil {
		return nil, err
	}
	return s.RegisterGraph(name, SourceUpload, g), nil
}

// RegisterGraph stores an already built graph.
func (s *Registry) RegisterGraph(name, source string, g *graph.Graph) *GraphEntry {
	entry := &GraphEntry{
		ID:          uuid.New().String(),
		Name:        name,
		Source:      source,
		Vertices:    g.NumVertices(),
		Edges:       g.NumEdges(),
		TotalVolume: g.TotalVolume(),
		CreatedAt:   time.Now(),
		graph:       g,
	}

	s.mutex.Lock()
	s.graphs[entry.ID] = entry
	s.mutex.Unlock()

	log.Info().
		Str("graph_id", entry.ID).
		Str("source", source).
		Int("vertices", entry.Vertices).
		Int("edges", entry.Edges).
		Msg("Graph registered")

	return entry
}

// GetGraph returns the graph registered under id.
func (s *Registry) GetGraph(id string) (*GraphEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.graphs[id]
	if !ok {
		return nil, fmt.Errorf("graph %s: %w", id, ErrNotFound)
	}
	return entry, nil
}

// ListGraphs returns every registered graph, oldest first.
func (s *Registry) ListGraphs() []*GraphEntry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*GraphEntry, 0, len(s.graphs))
	for _, entry := range s.graphs {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// LocalCluster runs approximate PageRank clustering on a registered graph.
func (s *Registry) LocalCluster(ctx context.Context, graphID string, seeds []int, config *localcluster.Config) (*localcluster.Result, error) {
	entry, err := s.GetGraph(graphID)
	if err != nil {
		return nil, err
	}
	return localcluster.Run(ctx, entry.graph, seeds, config)
}

// BuildKDE builds and registers a KDE structure over rows.
func (s *Registry) BuildKDE(ctx context.Context, rows [][]float64, params KDEParams) (*KDEEntry, error) {
	points, err := models.FromRows(rows)
	if err != nil {
		return nil, err
	}
	kernel, err := kde.NewKernel(params.Kernel, params.Bandwidth)
	if err != nil {
		return nil, err
	}

	config := kde.NewConfig()
	config.Set("algorithm.epsilon", params.Epsilon)
	config.Set("algorithm.delta", params.Delta)
	k, err := kde.Build(ctx, points, kernel, config, rand.New(rand.NewPCG(params.Seed, 0)))
	if err != nil {
		return nil, err
	}
	stats, err := k.Stats()
	if err != nil {
		return nil, err
	}

	entry := &KDEEntry{
		ID:        uuid.New().String(),
		Kernel:    kernel.Name(),
		Points:    points.Len(),
		Dim:       points.Dim(),
		Stats:     stats,
		CreatedAt: time.Now(),
		kde:       k,
	}

	s.mutex.Lock()
	s.kdes[entry.ID] = entry
	s.mutex.Unlock()

	log.Info().
		Str("kde_id", entry.ID).
		Str("kernel", entry.Kernel).
		Int("points", entry.Points).
		Int("levels", len(stats.Levels)).
		Msg("KDE registered")

	return entry, nil
}

// GetKDE returns the KDE registered under id.
func (s *Registry) GetKDE(id string) (*KDEEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.kdes[id]
	if !ok {
		return nil, fmt.Errorf("kde %s: %w", id, ErrNotFound)
	}
	return entry, nil
}

// structure returns the KDE structure currently held by entry id.
func (s *Registry) structure(id string) (*kde.KDE, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, ok := s.kdes[id]
	if !ok {
		return nil, fmt.Errorf("kde %s: %w", id, ErrNotFound)
	}
	return entry.kde, nil
}

// QueryKDE estimates the density at each query point.
func (s *Registry) QueryKDE(ctx context.Context, id string, queries [][]float64) ([]float64, error) {
	k, err := s.structure(id)
	if err != nil {
		return nil, err
	}
	return k.QueryBatch(ctx, queries)
}

// InvalidateKDE marks a KDE structure invalid and releases it. The handle
// stays registered, backed by an empty structure, so later operations on it
// report ErrInvalidState. Calls already running on the old structure finish
// and then drop the last reference.
func (s *Registry) InvalidateKDE(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.kdes[id]
	if !ok {
		return fmt.Errorf("kde %s: %w", id, ErrNotFound)
	}
	entry.kde.Invalidate()
	entry.kde = &kde.KDE{}

	log.Info().Str("kde_id", id).Msg("KDE invalidated")
	return nil
}

// SimilarityGraph samples a similarity graph from a registered KDE and
// registers the result as a graph.
func (s *Registry) SimilarityGraph(ctx context.Context, kdeID string, epsilon float64, seed uint64) (*GraphEntry, *simgraph.Result, error) {
	k, err := s.structure(kdeID)
	if err != nil {
		return nil, nil, err
	}

	config := simgraph.NewConfig()
	config.Set("algorithm.epsilon", epsilon)
	result, err := simgraph.FromKDE(ctx, k, config, rand.New(rand.NewPCG(seed, 1)))
	if err != nil {
		return nil, nil, err
	}

	graphEntry := s.RegisterGraph("similarity:"+kdeID, SourceSimilarity, result.Graph)
	return graphEntry, result, nil
}

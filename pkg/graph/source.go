package graph

import (
	"errors"
	"fmt"
	"io"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// EdgeSource yields edges one at a time. Next returns io.EOF once the
// stream is exhausted.
type EdgeSource interface {
	Next() (Edge, error)
}

// SliceSource serves edges from memory.
type SliceSource struct {
	edges []Edge
	pos   int
}

// NewSliceSource wraps an edge slice as an EdgeSource.
func NewSliceSource(edges []Edge) *SliceSource {
	return &SliceSource{edges: edges}
}

// Next implements EdgeSource.
func (s *SliceSource) Next() (Edge, error) {
	if s.pos >= len(s.edges) {
		return Edge{}, io.EOF
	}
	e := s.edges[s.pos]
	s.pos++
	return e, nil
}

// ReadFrom drains src into a graph. When n is negative the vertex count is
// inferred as one more than the largest vertex id seen.
func ReadFrom(src EdgeSource, n int) (*Graph, error) {
	var edges []Edge
	maxID := -1
	for {
		e, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read edge %d: %w", len(edges), err)
		}
		if e.From < 0 || e.To < 0 {
			return nil, fmt.Errorf("%w: negative vertex id in edge %d", models.ErrInvalidParameter, len(edges))
		}
		maxID = max(maxID, e.From, e.To)
		edges = append(edges, e)
	}

	if n < 0 {
		n = maxID + 1
	}
	return FromEdges(n, edges)
}

package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Graph is an immutable weighted undirected graph in compressed sparse row
// form. A self-loop appears once in its vertex's neighbor list and counts its
// weight once in the degree, so Degree(v) always equals the sum of the
// weights returned by Neighbors(v).
//
// A built Graph is never mutated and may be shared by any number of
// concurrent readers.
type Graph struct {
	numVertices int
	numEdges    int
	offsets     []int
	targets     []int
	weights     []float64
	degrees     []float64
	totalVolume float64
}

// Edge is a weighted undirected edge.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Builder accumulates edges for a graph with a fixed vertex count. Parallel
// edges are merged by summing their weights.
type Builder struct {
	numVertices int
	edges       map[[2]int]float64
	order       [][2]int
}

// NewBuilder creates a builder for a graph on n vertices.
func NewBuilder(n int) *Builder {
	return &Builder{
		numVertices: n,
		edges:       make(map[[2]int]float64),
	}
}

// AddEdge adds a weighted edge between two vertices. Zero-weight edges are
// accepted and dropped.
func (b *Builder) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= b.numVertices || v < 0 || v >= b.numVertices {
		return fmt.Errorf("%w: vertex index out of range: u=%d, v=%d, numVertices=%d",
			models.ErrInvalidParameter, u, v, b.numVertices)
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return fmt.Errorf("%w: edge weight must be finite and non-negative: %f", models.ErrInvalidParameter, weight)
	}
	if weight == 0 {
		return nil
	}

	key := [2]int{u, v}
	if u > v {
		key = [2]int{v, u}
	}
	if _, ok := b.edges[key]; !ok {
		b.order = append(b.order, key)
	}
	b.edges[key] += weight
	return nil
}

// Build freezes the accumulated edges into a Graph. The builder may be
// reused afterwards; later edges do not affect graphs already built.
func (b *Builder) Build() *Graph {
	n := b.numVertices
	counts := make([]int, n+1)
	for _, key := range b.order {
		counts[key[0]]++
		if key[0] != key[1] {
			counts[key[1]]++
		}
	}

	offsets := make([]int, n+1)
	for v := 0; v < n; v++ {
		offsets[v+1] = offsets[v] + counts[v]
	}

	g := &Graph{
		numVertices: n,
		numEdges:    len(b.order),
		offsets:     offsets,
		targets:     make([]int, offsets[n]),
		weights:     make([]float64, offsets[n]),
		degrees:     make([]float64, n),
	}

	cursor := make([]int, n)
	copy(cursor, offsets[:n])
	place := func(u, v int, w float64) {
		g.targets[cursor[u]] = v
		g.weights[cursor[u]] = w
		cursor[u]++
		g.degrees[u] += w
	}
	for _, key := range b.order {
		w := b.edges[key]
		place(key[0], key[1], w)
		if key[0] != key[1] {
			place(key[1], key[0], w)
		}
	}

	for v := 0; v < n; v++ {
		lo, hi := offsets[v], offsets[v+1]
		sort.Sort(adjacencySlice{targets: g.targets[lo:hi], weights: g.weights[lo:hi]})
		g.totalVolume += g.degrees[v]
	}

	return g
}

type adjacencySlice struct {
	targets []int
	weights []float64
}

func (a adjacencySlice) Len() int           { return len(a.targets) }
func (a adjacencySlice) Less(i, j int) bool { return a.targets[i] < a.targets[j] }
func (a adjacencySlice) Swap(i, j int) {
	a.targets[i], a.targets[j] = a.targets[j], a.targets[i]
	a.weights[i], a.weights[j] = a.weights[j], a.weights[i]
}

// FromEdges builds a graph on n vertices from an edge list.
func FromEdges(n int, edges []Edge) (*Graph, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: vertex count must be non-negative, got %d", models.ErrInvalidParameter, n)
	}
	b := NewBuilder(n)
	for _, e := range edges {
		if err := b.AddEdge(e.From, e.To, e.Weight); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int { return g.numVertices }

// NumEdges returns the number of distinct undirected edges, self-loops included.
func (g *Graph) NumEdges() int { return g.numEdges }

// HasVertex reports whether v is a valid vertex id.
func (g *Graph) HasVertex(v int) bool { return v >= 0 && v < g.numVertices }

// Degree returns the weighted degree of v.
func (g *Graph) Degree(v int) float64 { return g.degrees[v] }

// Neighbors returns the neighbors of v sorted by id and the matching edge
// weights. The slices share the graph's storage and must not be modified.
func (g *Graph) Neighbors(v int) ([]int, []float64) {
	lo, hi := g.offsets[v], g.offsets[v+1]
	return g.targets[lo:hi:hi], g.weights[lo:hi:hi]
}

// EdgeWeight returns the weight of edge {u, v}, or 0 if absent.
func (g *Graph) EdgeWeight(u, v int) float64 {
	if !g.HasVertex(u) || !g.HasVertex(v) {
		return 0
	}
	targets, weights := g.Neighbors(u)
	i := sort.SearchInts(targets, v)
	if i < len(targets) && targets[i] == v {
		return weights[i]
	}
	return 0
}

// TotalVolume returns the sum of all degrees.
func (g *Graph) TotalVolume() float64 { return g.totalVolume }

// Edges returns every undirected edge once with From <= To.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.numEdges)
	for u := 0; u < g.numVertices; u++ {
		targets, weights := g.Neighbors(u)
		for i, v := range targets {
			if u <= v {
				edges = append(edges, Edge{From: u, To: v, Weight: weights[i]})
			}
		}
	}
	return edges
}

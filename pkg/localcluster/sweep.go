package localcluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Sweep is the best prefix found by a sweep over a vertex ordering.
type Sweep struct {
	Cluster     []int     `json:"cluster"`
	Conductance float64   `json:"conductance"`
	Volume      float64   `json:"volume"`
	Order       []int     `json:"order"`
	Profile     []float64 `json:"profile"`
}

// SweepCut sorts the vertices with a positive value by value/degree
// (descending, ties by id) and returns the prefix of minimum conductance.
// Vertices of zero degree are skipped. An empty ordering yields an empty
// Sweep with infinite conductance.
func SweepCut(g graph.LocalGraph, vector map[int]float64) (*Sweep, error) {
	if missing(g) {
		return nil, fmt.Errorf("%w: graph is nil", models.ErrInvalidParameter)
	}

	type entry struct {
		v     int
		score float64
	}
	entries := make([]entry, 0, len(vector))
	for v, x := range vector {
		if !g.HasVertex(v) {
			return nil, fmt.Errorf("%w: vertex %d not in graph", models.ErrInvalidParameter, v)
		}
		if x > 0 && g.Degree(v) > 0 {
			entries = append(entries, entry{v: v, score: x / g.Degree(v)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].v < entries[j].v
	})

	order := make([]int, len(entries))
	for i, e := range entries {
		order[i] = e.v
	}
	return SweepOrder(g, order)
}

// SweepVector runs SweepCut on a dense vector indexed by vertex.
func SweepVector(g *graph.Graph, vector []float64) (*Sweep, error) {
	if g == nil || len(vector) != g.NumVertices() {
		return nil, fmt.Errorf("%w: vector length must equal the vertex count", models.ErrInvalidParameter)
	}
	sparse := make(map[int]float64)
	for v, x := range vector {
		if x != 0 {
			sparse[v] = x
		}
	}
	return SweepCut(g, sparse)
}

// SweepOrder evaluates every prefix of order and returns the first one of
// minimum conductance. Cut and volume are maintained incrementally, so the
// cost is the total degree of the ordered vertices.
//
// Conductance is cut(S)/min(vol(S), vol(V)-vol(S)) when g implements
// graph.VolumeOracle. Otherwise the complement's volume is unknown and the
// sweep scores cut(S)/vol(S).
func SweepOrder(g graph.LocalGraph, order []int) (*Sweep, error) {
	if missing(g) {
		return nil, fmt.Errorf("%w: graph is nil", models.ErrInvalidParameter)
	}

	total := math.Inf(1)
	if oracle, ok := g.(graph.VolumeOracle); ok {
		total = oracle.TotalVolume()
	}
	inSet := make(map[int]bool, len(order))
	profile := make([]float64, 0, len(order))

	cut, vol := 0.0, 0.0
	best, bestIdx, bestVol := math.Inf(1), -1, 0.0
	for i, u := range order {
		if !g.HasVertex(u) {
			return nil, fmt.Errorf("%w: vertex %d not in graph", models.ErrInvalidParameter, u)
		}
		if inSet[u] {
			return nil, fmt.Errorf("%w: vertex %d repeated in sweep order", models.ErrInvalidParameter, u)
		}

		// cut(S+u) = cut(S) + deg(u) - w(u,u) - 2 w(u,S)
		delta := g.Degree(u)
		targets, weights := g.Neighbors(u)
		for j, v := range targets {
			if v == u {
				delta -= weights[j]
			} else if inSet[v] {
				delta -= 2 * weights[j]
			}
		}
		cut += delta
		vol += g.Degree(u)
		inSet[u] = true

		phi := conductance(cut, vol, total)
		profile = append(profile, phi)
		if bestIdx < 0 || phi < best {
			best, bestIdx, bestVol = phi, i, vol
		}
	}

	sweep := &Sweep{
		Conductance: best,
		Volume:      bestVol,
		Order:       order,
		Profile:     profile,
	}
	if bestIdx >= 0 {
		sweep.Cluster = sortedCopy(order[:bestIdx+1])
	}
	return sweep, nil
}

// conductance guards the denominator against round-off near the full set.
// An infinite total scores cut/vol.
func conductance(cut, vol, total float64) float64 {
	if math.IsInf(total, 1) {
		if vol <= 0 {
			return math.Inf(1)
		}
		return math.Max(cut, 0) / vol
	}
	den := math.Min(vol, total-vol)
	if den <= 1e-12*total {
		return math.Inf(1)
	}
	return math.Max(cut, 0) / den
}

func sortedCopy(vs []int) []int {
	out := make([]int, len(vs))
	copy(out, vs)
	sort.Ints(out)
	return out
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

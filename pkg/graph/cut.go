package graph

import (
	"fmt"
	"math"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Volume returns the sum of degrees over a vertex set. Duplicates count once.
func (g *Graph) Volume(set []int) float64 {
	vol := 0.0
	for v := range toSet(set) {
		vol += g.degrees[v]
	}
	return vol
}

// Cut returns the total weight of edges with exactly one endpoint in set.
func (g *Graph) Cut(set []int) float64 {
	members := toSet(set)
	cut := 0.0
	for u := range members {
		targets, weights := g.Neighbors(u)
		for i, v := range targets {
			if _, ok := members[v]; !ok {
				cut += weights[i]
			}
		}
	}
	return cut
}

// Conductance returns cut(S) / min(vol(S), vol(V) - vol(S)). The result is
// +Inf when the denominator is zero.
func (g *Graph) Conductance(set []int) (float64, error) {
	for _, v := range set {
		if !g.HasVertex(v) {
			return 0, fmt.Errorf("%w: vertex %d not in graph", models.ErrInvalidParameter, v)
		}
	}
	vol := g.Volume(set)
	return ratio(g.Cut(set), vol, g.totalVolume), nil
}

// ratio is the conductance of a set with the given cut and volume.
func ratio(cut, vol, total float64) float64 {
	den := math.Min(vol, total-vol)
	if den <= 0 {
		return math.Inf(1)
	}
	return math.Max(cut, 0) / den
}

func toSet(set []int) map[int]struct{} {
	m := make(map[int]struct{}, len(set))
	for _, v := range set {
		m[v] = struct{}{}
	}
	return m
}

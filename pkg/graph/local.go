package graph

// LocalGraph is a graph known only through its vertices' neighborhoods.
// Local algorithms query it one vertex at a time, so an implementation may
// compute neighborhoods on demand instead of holding the whole graph.
type LocalGraph interface {
	HasVertex(v int) bool
	Degree(v int) float64
	Neighbors(v int) ([]int, []float64)
}

// VolumeOracle is implemented by graphs that know their total volume.
type VolumeOracle interface {
	TotalVolume() float64
}

// Degrees returns the weighted degree of each vertex in vs.
func Degrees(g LocalGraph, vs []int) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = g.Degree(v)
	}
	return out
}

// DegreesUnweighted returns the number of neighbors of each vertex in vs.
func DegreesUnweighted(g LocalGraph, vs []int) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		targets, _ := g.Neighbors(v)
		out[i] = len(targets)
	}
	return out
}

// DegreeUnweighted returns the number of distinct neighbors of v. A
// self-loop counts as one neighbor.
func (g *Graph) DegreeUnweighted(v int) int { return g.offsets[v+1] - g.offsets[v] }

// NeighborsUnweighted returns the neighbors of v sorted by id. The slice
// shares the graph's storage and must not be modified.
func (g *Graph) NeighborsUnweighted(v int) []int {
	targets, _ := g.Neighbors(v)
	return targets
}

var (
	_ LocalGraph   = (*Graph)(nil)
	_ VolumeOracle = (*Graph)(nil)
)

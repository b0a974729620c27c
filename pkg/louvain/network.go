package louvain

import (
	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
)

// network is the working graph of one Louvain level. A self-loop of weight w
// is stored once in the adjacency and contributes 2w to the degree, so that
// degrees sum to twice the total edge weight.
type network struct {
	numNodes  int
	adjacency [][]int
	weights   [][]float64
	degrees   []float64
	selfLoops []float64
	m2        float64
}

func newNetwork(n int) *network {
	return &network{
		numNodes:  n,
		adjacency: make([][]int, n),
		weights:   make([][]float64, n),
		degrees:   make([]float64, n),
		selfLoops: make([]float64, n),
	}
}

// fromGraph copies g into a network.
func fromGraph(g *graph.Graph) *network {
	net := newNetwork(g.NumVertices())
	for v := 0; v < net.numNodes; v++ {
		targets, weights := g.Neighbors(v)
		net.adjacency[v] = append([]int(nil), targets...)
		net.weights[v] = append([]float64(nil), weights...)
		for i, u := range targets {
			net.degrees[v] += weights[i]
			if u == v {
				net.selfLoops[v] = weights[i]
				net.degrees[v] += weights[i]
			}
		}
		net.m2 += net.degrees[v]
	}
	return net
}

// addEdge adds an undirected edge; callers add each pair once.
func (net *network) addEdge(u, v int, w float64) {
	net.adjacency[u] = append(net.adjacency[u], v)
	net.weights[u] = append(net.weights[u], w)
	if u == v {
		net.selfLoops[u] += w
		net.degrees[u] += 2 * w
		net.m2 += 2 * w
		return
	}
	net.adjacency[v] = append(net.adjacency[v], u)
	net.weights[v] = append(net.weights[v], w)
	net.degrees[u] += w
	net.degrees[v] += w
	net.m2 += 2 * w
}

// modularity computes Newman's modularity of the given assignment.
func (net *network) modularity(community []int) float64 {
	if net.m2 == 0 {
		return 0
	}
	internal := make(map[int]float64)
	total := make(map[int]float64)
	for v := 0; v < net.numNodes; v++ {
		c := community[v]
		total[c] += net.degrees[v]
		for i, u := range net.adjacency[v] {
			if u == v {
				internal[c] += 2 * net.weights[v][i]
			} else if community[u] == c {
				internal[c] += net.weights[v][i]
			}
		}
	}

	q := 0.0
	for c, tot := range total {
		q += internal[c]/net.m2 - (tot/net.m2)*(tot/net.m2)
	}
	return q
}

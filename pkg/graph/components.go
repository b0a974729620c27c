package graph

import (
	"fmt"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// ToGonum converts the graph into a gonum weighted undirected graph with
// node ids 0..n-1. Self-loops are omitted since gonum's simple graphs do not
// allow them.
func (g *Graph) ToGonum() *simple.WeightedUndirectedGraph {
	out := simple.NewWeightedUndirectedGraph(0, 0)
	for v := 0; v < g.numVertices; v++ {
		out.AddNode(simple.Node(v))
	}
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		out.SetWeightedEdge(out.NewWeightedEdge(simple.Node(e.From), simple.Node(e.To), e.Weight))
	}
	return out
}

// ConnectedComponents returns the vertex sets of all connected components.
// Each component is sorted and components are ordered by their smallest vertex.
func (g *Graph) ConnectedComponents() [][]int {
	ccs := topo.ConnectedComponents(g.ToGonum())

	components := make([][]int, 0, len(ccs))
	for _, cc := range ccs {
		components = append(components, nodeIDs(cc))
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

// ConnectedComponent returns the sorted vertex set reachable from v.
func (g *Graph) ConnectedComponent(v int) ([]int, error) {
	if !g.HasVertex(v) {
		return nil, fmt.Errorf("%w: vertex %d not in graph", models.ErrInvalidParameter, v)
	}

	var visited []gonum.Node
	bf := traverse.BreadthFirst{}
	bf.Walk(g.ToGonum(), simple.Node(v), func(n gonum.Node, _ int) bool {
		visited = append(visited, n)
		return false
	})
	return nodeIDs(visited), nil
}

func nodeIDs(nodes []gonum.Node) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = int(n.ID())
	}
	sort.Ints(ids)
	return ids
}

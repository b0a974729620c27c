package graph

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

func TestBuilder(t *testing.T) {
	t.Run("merges parallel edges", func(t *testing.T) {
		b := NewBuilder(3)
		require.NoError(t, b.AddEdge(0, 1, 1.0))
		require.NoError(t, b.AddEdge(1, 0, 0.5))
		require.NoError(t, b.AddEdge(1, 2, 2.0))
		g := b.Build()

		assert.Equal(t, 2, g.NumEdges())
		assert.Equal(t, 1.5, g.EdgeWeight(0, 1))
		assert.Equal(t, 1.5, g.EdgeWeight(1, 0))
		assert.Equal(t, 3.5, g.Degree(1))
		assert.Equal(t, 7.0, g.TotalVolume())
	})

	t.Run("self loop counts once", func(t *testing.T) {
		b := NewBuilder(2)
		require.NoError(t, b.AddEdge(0, 0, 2.0))
		require.NoError(t, b.AddEdge(0, 1, 1.0))
		g := b.Build()

		targets, weights := g.Neighbors(0)
		assert.Equal(t, []int{0, 1}, targets)
		assert.Equal(t, []float64{2, 1}, weights)
		assert.Equal(t, 3.0, g.Degree(0))
	})

	t.Run("rejects bad edges", func(t *testing.T) {
		b := NewBuilder(2)
		assert.ErrorIs(t, b.AddEdge(0, 2, 1), models.ErrInvalidParameter)
		assert.ErrorIs(t, b.AddEdge(-1, 0, 1), models.ErrInvalidParameter)
		assert.ErrorIs(t, b.AddEdge(0, 1, -1), models.ErrInvalidParameter)
		assert.ErrorIs(t, b.AddEdge(0, 1, math.NaN()), models.ErrInvalidParameter)
		assert.NoError(t, b.AddEdge(0, 1, 0))
		assert.Equal(t, 0, b.Build().NumEdges())
	})
}

func TestDegreeMatchesNeighborWeights(t *testing.T) {
	for _, g := range []*Graph{Complete(6), Cycle(7), Barbell(5), Star(9)} {
		for v := 0; v < g.NumVertices(); v++ {
			_, weights := g.Neighbors(v)
			sum := 0.0
			for _, w := range weights {
				sum += w
			}
			assert.InDelta(t, g.Degree(v), sum, 1e-12)
		}
	}
}

func TestFixtures(t *testing.T) {
	cases := []struct {
		name     string
		g        *Graph
		vertices int
		edges    int
	}{
		{"complete", Complete(6), 6, 15},
		{"cycle", Cycle(4), 4, 4},
		{"barbell", Barbell(5), 10, 21},
		{"star", Star(5), 5, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.vertices, tc.g.NumVertices())
			assert.Equal(t, tc.edges, tc.g.NumEdges())
		})
	}

	b := Barbell(5)
	assert.Equal(t, 1.0, b.EdgeWeight(4, 5))
	assert.Equal(t, 0.0, b.EdgeWeight(3, 5))
}

func TestConductance(t *testing.T) {
	g := Barbell(5)

	cond, err := g.Conductance([]int{0, 1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0/21, cond, 1e-12)

	cond, err = g.Conductance(nil)
	require.NoError(t, err)
	assert.True(t, math.IsInf(cond, 1))

	all := make([]int, g.NumVertices())
	for i := range all {
		all[i] = i
	}
	cond, err = g.Conductance(all)
	require.NoError(t, err)
	assert.True(t, math.IsInf(cond, 1))

	_, err = g.Conductance([]int{11})
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestVolumeAndCut(t *testing.T) {
	g := Barbell(4)
	assert.Equal(t, 13.0, g.Volume([]int{0, 1, 2, 3}))
	assert.Equal(t, 13.0, g.Volume([]int{0, 1, 2, 3, 3}))
	assert.Equal(t, 1.0, g.Cut([]int{0, 1, 2, 3}))
	assert.Equal(t, 3.0, g.Cut([]int{0}))
}

func TestConnectedComponents(t *testing.T) {
	edges := []Edge{{0, 1, 1}, {1, 2, 1}, {3, 4, 1}, {4, 4, 1}}
	g, err := FromEdges(6, edges)
	require.NoError(t, err)

	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4}, {5}}, g.ConnectedComponents())

	cc, err := g.ConnectedComponent(4)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, cc)

	cc, err = g.ConnectedComponent(5)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, cc)

	_, err = g.ConnectedComponent(6)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

type failingSource struct{ calls int }

func (f *failingSource) Next() (Edge, error) {
	f.calls++
	if f.calls > 2 {
		return Edge{}, fmt.Errorf("disk on fire")
	}
	return Edge{From: 0, To: f.calls, Weight: 1}, nil
}

func TestReadFrom(t *testing.T) {
	g, err := ReadFrom(NewSliceSource([]Edge{{0, 3, 1}, {1, 2, 0.5}}), -1)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumVertices())
	assert.Equal(t, 0.5, g.EdgeWeight(2, 1))

	g, err = ReadFrom(NewSliceSource(nil), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumVertices())

	_, err = ReadFrom(NewSliceSource([]Edge{{0, 5, 1}}), 3)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = ReadFrom(&failingSource{}, -1)
	assert.ErrorContains(t, err, "disk on fire")
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// loopPath is 0 -(2)- 1 -(1)- 2 with a 0.5 self-loop on 2 and an isolated
// vertex 3.
func loopPath(t *testing.T) *Graph {
	t.Helper()
	g, err := FromEdges(4, []Edge{
		{From: 0, To: 1, Weight: 2},
		{From: 1, To: 2, Weight: 1},
		{From: 2, To: 2, Weight: 0.5},
	})
	require.NoError(t, err)
	return g
}

func TestUnweightedAccessors(t *testing.T) {
	g := loopPath(t)

	assert.Equal(t, 1, g.DegreeUnweighted(0))
	assert.Equal(t, 2, g.DegreeUnweighted(2))
	assert.Equal(t, 0, g.DegreeUnweighted(3))
	assert.Equal(t, []int{0, 2}, g.NeighborsUnweighted(1))
	assert.Empty(t, g.NeighborsUnweighted(3))

	all := []int{0, 1, 2, 3}
	assert.Equal(t, []float64{2, 3, 1.5, 0}, Degrees(g, all))
	assert.Equal(t, []int{1, 2, 2, 0}, DegreesUnweighted(g, all))
}

func TestMatrixAccessors(t *testing.T) {
	g := loopPath(t)

	t.Run("adjacency", func(t *testing.T) {
		want := mat.NewSymDense(4, []float64{
			0, 2, 0, 0,
			2, 0, 1, 0,
			0, 1, 0.5, 0,
			0, 0, 0, 0,
		})
		assert.True(t, mat.Equal(want, g.Adjacency()))
	})

	t.Run("degree matrices", func(t *testing.T) {
		assert.True(t, mat.Equal(mat.NewDiagDense(4, []float64{2, 3, 1.5, 0}), g.DegreeMatrix()))
		assert.True(t, mat.EqualApprox(mat.NewDiagDense(4, []float64{0.5, 1.0 / 3, 2.0 / 3, 0}), g.InverseDegreeMatrix(), 1e-12))
	})

	t.Run("laplacian", func(t *testing.T) {
		want := mat.NewSymDense(4, []float64{
			2, -2, 0, 0,
			-2, 3, -1, 0,
			0, -1, 1, 0,
			0, 0, 0, 0,
		})
		lap := g.Laplacian()
		assert.True(t, mat.EqualApprox(want, lap, 1e-12))

		var product mat.VecDense
		product.MulVec(lap, mat.NewVecDense(4, []float64{1, 1, 1, 1}))
		assert.InDeltaSlice(t, []float64{0, 0, 0, 0}, product.RawVector().Data, 1e-12)
	})

	t.Run("lazy random walk", func(t *testing.T) {
		w := g.LazyRandomWalkMatrix()
		assert.InDelta(t, 0.5, w.At(1, 0), 1e-12)
		assert.InDelta(t, 1.0/3, w.At(0, 1), 1e-12)
		assert.InDelta(t, 0.5+1.0/6, w.At(2, 2), 1e-12)
		assert.InDelta(t, 0.5, w.At(3, 3), 1e-12)

		// Columns of non-isolated vertices are distributions.
		for v := 0; v < 3; v++ {
			assert.InDelta(t, 1.0, mat.Sum(w.ColView(v)), 1e-12, "column %d", v)
		}
	})

	t.Run("empty graph", func(t *testing.T) {
		empty := NewBuilder(0).Build()
		r, c := empty.Laplacian().Dims()
		assert.Zero(t, r+c)
		r, c = empty.LazyRandomWalkMatrix().Dims()
		assert.Zero(t, r+c)
	})
}

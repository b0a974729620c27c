// Package spectral clusters graphs from eigenvectors of the normalized
// Laplacian. It builds dense matrices and is meant for graphs of moderate
// size.
package spectral

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/localcluster"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// NormalizedLaplacian returns I - D^{-1/2} A D^{-1/2}. Rows of zero-degree
// vertices are left as the identity row.
func NormalizedLaplacian(g *graph.Graph) *mat.SymDense {
	n := g.NumVertices()
	invSqrt := inverseSqrtDegrees(g)

	lap := mat.NewSymDense(n, nil)
	for v := 0; v < n; v++ {
		lap.SetSym(v, v, 1)
	}
	for _, e := range g.Edges() {
		w := e.Weight * invSqrt[e.From] * invSqrt[e.To]
		lap.SetSym(e.From, e.To, lap.At(e.From, e.To)-w)
	}
	return lap
}

// Embedding returns the n x k matrix whose columns are the eigenvectors of
// the normalized Laplacian for its k smallest eigenvalues, and those
// eigenvalues.
func Embedding(g *graph.Graph, k int) (*mat.Dense, []float64, error) {
	if g == nil || g.NumVertices() == 0 {
		return nil, nil, fmt.Errorf("%w: graph is empty", models.ErrInvalidParameter)
	}
	if k < 1 || k > g.NumVertices() {
		return nil, nil, fmt.Errorf("%w: k must be in [1, %d], got %d", models.ErrInvalidParameter, g.NumVertices(), k)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(NormalizedLaplacian(g), true); !ok {
		return nil, nil, fmt.Errorf("eigendecomposition failed to converge")
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	values := eig.Values(nil)

	// gonum returns eigenvalues in ascending order.
	n := g.NumVertices()
	embedding := mat.NewDense(n, k, nil)
	embedding.Copy(vectors.Slice(0, n, 0, k))
	return embedding, values[:k], nil
}

// Cluster partitions the graph into k groups by running k-means on the
// unit-normalized rows of the spectral embedding. Labels are in [0, k).
func Cluster(g *graph.Graph, k int, rng *rand.Rand) ([]int, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", models.ErrInvalidParameter)
	}
	embedding, _, err := Embedding(g, k)
	if err != nil {
		return nil, err
	}

	n, _ := embedding.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, embedding)
		if norm := floats.Norm(rows[i], 2); norm > 0 {
			floats.Scale(1/norm, rows[i])
		}
	}
	return KMeans(rows, k, rng, defaultRestarts), nil
}

// CheegerCut splits the graph in two by sweeping over D^{-1/2} times the
// second eigenvector of the normalized Laplacian. Vertices of the returned
// low-conductance side are labelled 1, the rest 0.
func CheegerCut(g *graph.Graph) ([]int, error) {
	if g == nil || g.NumVertices() < 2 {
		return nil, fmt.Errorf("%w: graph needs at least two vertices", models.ErrInvalidParameter)
	}
	embedding, _, err := Embedding(g, 2)
	if err != nil {
		return nil, err
	}

	invSqrt := inverseSqrtDegrees(g)
	n := g.NumVertices()
	score := make([]float64, n)
	order := make([]int, n)
	for v := 0; v < n; v++ {
		score[v] = embedding.At(v, 1) * invSqrt[v]
		order[v] = v
	}
	sort.SliceStable(order, func(i, j int) bool { return score[order[i]] < score[order[j]] })

	sweep, err := localcluster.SweepOrder(g, order)
	if err != nil {
		return nil, fmt.Errorf("sweep failed: %w", err)
	}

	labels := make([]int, n)
	for _, v := range sweep.Cluster {
		labels[v] = 1
	}
	return labels, nil
}

func inverseSqrtDegrees(g *graph.Graph) []float64 {
	out := make([]float64, g.NumVertices())
	for v := range out {
		if d := g.Degree(v); d > 0 {
			out[v] = 1 / math.Sqrt(d)
		}
	}
	return out
}

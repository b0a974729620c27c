package spectral

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// samePartition reports whether two labelings induce the same partition.
func samePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ab := map[int]int{}
	ba := map[int]int{}
	for i := range a {
		if x, ok := ab[a[i]]; ok && x != b[i] {
			return false
		}
		if y, ok := ba[b[i]]; ok && y != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}

func halves(n int) []int {
	labels := make([]int, 2*n)
	for i := n; i < 2*n; i++ {
		labels[i] = 1
	}
	return labels
}

func TestEmbeddingEigenvalues(t *testing.T) {
	_, values, err := Embedding(graph.Complete(5), 3)
	require.NoError(t, err)
	assert.InDelta(t, 0, values[0], 1e-9)
	assert.InDelta(t, 1.25, values[1], 1e-9)
	assert.InDelta(t, 1.25, values[2], 1e-9)

	_, _, err = Embedding(graph.Complete(5), 6)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestClusterBarbell(t *testing.T) {
	labels, err := Cluster(graph.Barbell(10), 2, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.True(t, samePartition(halves(10), labels), "labels %v", labels)
}

func TestCheegerCutBarbell(t *testing.T) {
	labels, err := CheegerCut(graph.Barbell(10))
	require.NoError(t, err)
	assert.True(t, samePartition(halves(10), labels), "labels %v", labels)

	_, err = CheegerCut(graph.Complete(1))
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestKMeansSeparatedGroups(t *testing.T) {
	rows := [][]float64{{0, 0}, {0.1, 0}, {0, 0.1}, {10, 10}, {10.1, 10}, {10, 10.1}, {-10, 5}, {-10.1, 5}}
	labels := KMeans(rows, 3, rand.New(rand.NewPCG(3, 3)), 5)
	assert.True(t, samePartition([]int{0, 0, 0, 1, 1, 1, 2, 2}, labels), "labels %v", labels)
}

// Package clustering compares clusterings and clusters point sets through
// their sparse similarity graph.
package clustering

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// contingency holds the joint and marginal label counts of two labelings.
type contingency struct {
	n      int
	joint  map[[2]int]int
	counts [2]map[int]int
}

func newContingency(a, b []int) (*contingency, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: labelings have different lengths %d and %d", models.ErrInvalidParameter, len(a), len(b))
	}
	c := &contingency{
		n:      len(a),
		joint:  make(map[[2]int]int),
		counts: [2]map[int]int{make(map[int]int), make(map[int]int)},
	}
	for i := range a {
		c.joint[[2]int{a[i], b[i]}]++
		c.counts[0][a[i]]++
		c.counts[1][b[i]]++
	}
	return c, nil
}

// entropy returns the natural-log entropy of one side's label distribution.
func (c *contingency) entropy(side int) float64 {
	p := make([]float64, 0, len(c.counts[side]))
	for _, count := range c.counts[side] {
		p = append(p, float64(count)/float64(c.n))
	}
	return stat.Entropy(p)
}

// AdjustedRandIndex returns the Rand index of two labelings adjusted for
// chance. Identical partitions score 1 and independent ones about 0.
func AdjustedRandIndex(a, b []int) (float64, error) {
	c, err := newContingency(a, b)
	if err != nil {
		return 0, err
	}
	if c.n < 2 {
		return 1, nil
	}

	pairs := func(x int) float64 { return float64(x) * float64(x-1) / 2 }
	index := 0.0
	for _, nij := range c.joint {
		index += pairs(nij)
	}
	sumA, sumB := 0.0, 0.0
	for _, ni := range c.counts[0] {
		sumA += pairs(ni)
	}
	for _, nj := range c.counts[1] {
		sumB += pairs(nj)
	}

	expected := sumA * sumB / pairs(c.n)
	maximum := (sumA + sumB) / 2
	if maximum == expected {
		return 1, nil
	}
	return (index - expected) / (maximum - expected), nil
}

// NormalizedMutualInformation returns the mutual information of two
// labelings divided by the arithmetic mean of their entropies.
func NormalizedMutualInformation(a, b []int) (float64, error) {
	c, err := newContingency(a, b)
	if err != nil {
		return 0, err
	}
	if c.n == 0 {
		return 0, nil
	}

	n := float64(c.n)
	mi := 0.0
	for key, nij := range c.joint {
		ni := float64(c.counts[0][key[0]])
		nj := float64(c.counts[1][key[1]])
		mi += float64(nij) / n * math.Log(float64(nij)*n/(ni*nj))
	}

	avgEntropy := (c.entropy(0) + c.entropy(1)) / 2
	if avgEntropy == 0 {
		return 1, nil
	}
	return math.Min(1, mi/avgEntropy), nil
}

// SymmetricDifference returns the sorted elements that are in exactly one of
// s and t.
func SymmetricDifference(s, t []int) []int {
	in := make(map[int]int)
	for _, v := range s {
		in[v] |= 1
	}
	for _, v := range t {
		in[v] |= 2
	}
	var out []int
	for v, mask := range in {
		if mask != 3 {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// LabelsFromClusters converts disjoint clusters over vertices 0..n-1 into a
// label vector. Vertices in no cluster get the label len(clusters).
func LabelsFromClusters(n int, clusters [][]int) ([]int, error) {
	labels := make([]int, n)
	for v := range labels {
		labels[v] = -1
	}
	for c, members := range clusters {
		for _, v := range members {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("%w: vertex %d out of range [0, %d)", models.ErrInvalidParameter, v, n)
			}
			if labels[v] >= 0 {
				return nil, fmt.Errorf("%w: vertex %d is in clusters %d and %d", models.ErrInvalidParameter, v, labels[v], c)
			}
			labels[v] = c
		}
	}
	for v, l := range labels {
		if l < 0 {
			labels[v] = len(clusters)
		}
	}
	return labels, nil
}

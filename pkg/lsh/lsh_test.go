package lsh

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollisionProbability(t *testing.T) {
	cases := []struct {
		distance float64
		width    float64
		expected float64
	}{
		{math.Sqrt(3), 4, 0.65759},
		{1, 4, 0.80053},
		{2, 4, 0.60955},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.expected, CollisionProbability(tc.distance, tc.width), 1e-4)
	}

	assert.Equal(t, 1.0, CollisionProbability(0, 4))
	assert.Equal(t, 0.0, CollisionProbability(math.Inf(1), 4))

	prev := 1.0
	for c := 0.1; c < 20; c += 0.1 {
		p := CollisionProbability(c, 4)
		assert.LessOrEqual(t, p, prev)
		prev = p
	}
}

func TestE2CollisionRate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	family := E2Family{Width: 4}

	x := []float64{0, 0, 0}
	y := []float64{1, 1, 1}

	const trials = 20000
	collisions := 0
	for i := 0; i < trials; i++ {
		h := family.New(3, rng)
		if h.Hash(x) == h.Hash(y) {
			collisions++
		}
	}
	assert.InDelta(t, family.CollisionProbability(math.Sqrt(3)), float64(collisions)/trials, 0.02)
}

func TestIndexCandidates(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	idx := NewIndex(E2Family{Width: 1}, 2, 4, 8, rng)

	points := [][]float64{{0, 0}, {0.01, 0}, {50, 50}, {0, 0.01}}
	for i, p := range points {
		idx.Insert(i, p)
	}

	candidates := idx.Candidates([]float64{0, 0})
	assert.Contains(t, candidates, 0)
	assert.NotContains(t, candidates, 2)
	assert.IsIncreasing(t, candidates)

	assert.Equal(t, 4, idx.Hashes())
	assert.Equal(t, 8, idx.Tables())
	assert.InDelta(t, 1.0, idx.CollisionProbability(0), 1e-12)
}

func TestIndexCollisionProbabilityMatchesEmpirical(t *testing.T) {
	family := E2Family{Width: 4}
	x := []float64{0, 0}
	y := []float64{2, 0}

	const trials = 3000
	hits := 0
	var expected float64
	for i := 0; i < trials; i++ {
		idx := NewIndex(family, 2, 3, 2, rand.New(rand.NewPCG(uint64(i), 11)))
		idx.Insert(0, y)
		if len(idx.Candidates(x)) == 1 {
			hits++
		}
		expected = idx.CollisionProbability(2)
	}
	assert.InDelta(t, expected, float64(hits)/trials, 0.03)
}

func TestTune(t *testing.T) {
	near := CollisionProbability(1, 4)
	far := CollisionProbability(2, 4)

	k, tables := Tune(near, far, 1000, 0.9, 16, 32)
	require.Equal(t, 14, k)
	assert.Equal(t, 32, tables)

	k, tables = Tune(near, far, 1, 0.9, 16, 32)
	assert.Equal(t, 1, k)
	assert.Equal(t, 2, tables)

	k, tables = Tune(near, far, 1000, 0.9, 4, 64)
	assert.Equal(t, 4, k)
	assert.GreaterOrEqual(t, tables, 1)
}

package kde

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

func uniformSquare(t *testing.T, n int, seed uint64) *models.PointSet {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]float64, 2*n)
	for i := range data {
		data[i] = rng.Float64()
	}
	ps, err := models.NewPointSet(2, data, nil)
	require.NoError(t, err)
	return ps
}

func TestGaussianKernel(t *testing.T) {
	distances := []float64{0, 0.1, 0.5, 1, 1.5, 2, 10}
	expected := []float64{1, 0.8869204, 0.548812, 0.301194, 0.165299, 0.0907180, 0.00000614421}
	for i, c := range distances {
		assert.InDelta(t, expected[i], GaussianKernelDist(1.2, c), 1e-6)
	}

	k := GaussianKernel{A: 1.5}
	assert.InDelta(t, 0.0497871, k.Value([]float64{0, 0, 0}, []float64{0, 1, 1}), 1e-7)
	assert.InDelta(t, 0.25, k.Value([]float64{0}, []float64{k.Radius(0.25)}), 1e-12)
}

func TestLaplacianKernel(t *testing.T) {
	k := LaplacianKernel{A: 2}
	assert.InDelta(t, math.Exp(-2*5), k.Value([]float64{0, 0}, []float64{3, 4}), 1e-12)
	assert.InDelta(t, 0.125, k.Value([]float64{0}, []float64{k.Radius(0.125)}), 1e-12)
	assert.Equal(t, 1.0, k.Max())
}

func TestNewKernel(t *testing.T) {
	k, err := NewKernel("laplacian", 3)
	require.NoError(t, err)
	assert.Equal(t, LaplacianKernel{A: 3}, k)

	_, err = NewKernel("cosine", 1)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
	_, err = NewKernel("gaussian", 0)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestLevelOf(t *testing.T) {
	cases := []struct {
		u        float64
		expected int
	}{
		{1, 1},
		{0.51, 1},
		{0.5, 2},
		{0.3, 2},
		{0.25, 3},
		{math.Pow(2, -10), 11},
		{math.Pow(2, -11), 12},
		{1e-9, 12},
		{0, 12},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, levelOf(tc.u, 12), "u=%v", tc.u)
	}
	assert.Equal(t, 1, levelOf(0, 1))
}

func TestPlan(t *testing.T) {
	config := NewConfig()
	p := newPlan(1000, 0.1, 0.1, config)
	assert.Equal(t, 12, p.levels)
	assert.Equal(t, 3, p.instances)
	assert.Equal(t, 3, p.groups)
	assert.InDelta(t, 1e-3, p.minDensity, 1e-15)
	assert.Equal(t, 1.0, p.retention(1, 1))
	assert.InDelta(t, 100*math.Pow(2, -11), p.retention(12, 1), 1e-12)

	config.Set("algorithm.max_instances", 4)
	config.Set("algorithm.instance_constant", 2.0)
	p = newPlan(1000, 0.1, 0.1, config)
	assert.Equal(t, 3, p.instances)

	config.Set("algorithm.min_density", 0.5)
	p = newPlan(1000, 0.5, 0.1, config)
	assert.Equal(t, 3, p.levels)
}

func TestMedianOfMeans(t *testing.T) {
	assert.Equal(t, 4.5, medianOfMeans([]float64{1, 2, 3, 100, 5, 6}, 3))
	assert.Equal(t, 7.0, medianOfMeans([]float64{7}, 3))
	assert.Equal(t, 2.0, medianOfMeans([]float64{1, 3}, 1))
}

func TestQueryCentroidMatchesExact(t *testing.T) {
	points := uniformSquare(t, 1000, 42)
	kernel := GaussianKernel{A: 1}
	const eps = 0.1

	k, err := BuildKDE(points, kernel, eps, 0.1, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	centroid := []float64{0.5, 0.5}
	estimate, err := k.Query(centroid)
	require.NoError(t, err)
	truth, err := Exact(points, kernel, centroid)
	require.NoError(t, err)

	assert.InDelta(t, truth, estimate, eps*truth)
}

func TestQueryMeanConvergesAcrossSeeds(t *testing.T) {
	points := uniformSquare(t, 1000, 9)
	kernel := GaussianKernel{A: 10}
	queries := [][]float64{{0.5, 0.5}, {0.1, 0.2}, {0.9, 0.9}}

	truth, err := ExactBatch(context.Background(), points, kernel, queries)
	require.NoError(t, err)

	const seeds = 8
	mean := make([]float64, len(queries))
	for s := 0; s < seeds; s++ {
		k, err := BuildKDE(points, kernel, 0.1, 0.1, rand.New(rand.NewPCG(uint64(s), 77)))
		require.NoError(t, err)
		estimates, err := k.QueryBatch(context.Background(), queries)
		require.NoError(t, err)
		for i, e := range estimates {
			assert.InDelta(t, truth[i], e, 0.25*truth[i], "seed %d query %d", s, i)
			mean[i] += e / seeds
		}
	}
	for i := range queries {
		assert.InDelta(t, truth[i], mean[i], 0.1*truth[i], "query %d", i)
	}
}

func TestQueryDeterministic(t *testing.T) {
	points := uniformSquare(t, 300, 3)
	kernel := GaussianKernel{A: 5}

	a, err := BuildKDE(points, kernel, 0.2, 0.1, rand.New(rand.NewPCG(5, 5)))
	require.NoError(t, err)
	b, err := BuildKDE(points, kernel, 0.2, 0.1, rand.New(rand.NewPCG(5, 5)))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(8, 8))
	for i := 0; i < 20; i++ {
		q := []float64{rng.Float64()*2 - 0.5, rng.Float64()*2 - 0.5}
		x, err := a.Query(q)
		require.NoError(t, err)
		again, err := a.Query(q)
		require.NoError(t, err)
		y, err := b.Query(q)
		require.NoError(t, err)

		assert.Equal(t, x, again)
		assert.Equal(t, x, y)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, kernel.Max())
	}
}

func TestQueryFarPointIsZero(t *testing.T) {
	points := uniformSquare(t, 200, 4)
	k, err := BuildKDE(points, GaussianKernel{A: 10}, 0.2, 0.1, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)

	v, err := k.Query([]float64{1000, 1000})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestQueryBatchMatchesQuery(t *testing.T) {
	points := uniformSquare(t, 400, 6)
	k, err := BuildKDE(points, LaplacianKernel{A: 3}, 0.2, 0.1, rand.New(rand.NewPCG(2, 3)))
	require.NoError(t, err)

	queries := points.Rows()[:25]
	batch, err := k.QueryBatch(context.Background(), queries)
	require.NoError(t, err)
	for i, q := range queries {
		v, err := k.Query(q)
		require.NoError(t, err)
		assert.Equal(t, v, batch[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = k.QueryBatch(ctx, queries)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContributions(t *testing.T) {
	points := uniformSquare(t, 500, 10)
	kernel := GaussianKernel{A: 2}
	k, err := BuildKDE(points, kernel, 0.1, 0.1, rand.New(rand.NewPCG(4, 4)))
	require.NoError(t, err)

	q := []float64{0.4, 0.6}
	sum := 0.0
	require.NoError(t, k.Contributions(q, func(c Contribution) {
		assert.GreaterOrEqual(t, c.Point, 0)
		assert.Less(t, c.Point, points.Len())
		assert.Positive(t, c.Weight)
		sum += c.Weight
	}))

	truth, err := Exact(points, kernel, q)
	require.NoError(t, err)
	assert.InDelta(t, truth, sum/float64(points.Len()), 0.15*truth)
}

func TestInvalidState(t *testing.T) {
	var zero KDE
	_, err := zero.Query([]float64{0, 0})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	var nilKDE *KDE
	_, err = nilKDE.Query([]float64{0, 0})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	points := uniformSquare(t, 50, 1)
	k, err := BuildKDE(points, GaussianKernel{A: 1}, 0.5, 0.5, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	_, err = k.Stats()
	require.NoError(t, err)

	k.Invalidate()
	_, err = k.Query([]float64{0, 0})
	assert.ErrorIs(t, err, models.ErrInvalidState)
	_, err = k.QueryBatch(context.Background(), [][]float64{{0, 0}})
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.ErrorIs(t, k.Contributions([]float64{0, 0}, func(Contribution) {}), models.ErrInvalidState)
	_, err = k.Stats()
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestBuildValidation(t *testing.T) {
	points := uniformSquare(t, 10, 1)
	rng := rand.New(rand.NewPCG(1, 1))
	kernel := GaussianKernel{A: 1}

	cases := []struct {
		name    string
		points  *models.PointSet
		kernel  Kernel
		epsilon float64
		delta   float64
		rng     *rand.Rand
	}{
		{"nil points", nil, kernel, 0.1, 0.1, rng},
		{"nil kernel", points, nil, 0.1, 0.1, rng},
		{"nil rng", points, kernel, 0.1, 0.1, nil},
		{"epsilon zero", points, kernel, 0, 0.1, rng},
		{"epsilon one", points, kernel, 1, 0.1, rng},
		{"delta zero", points, kernel, 0.1, 0, rng},
		{"delta one", points, kernel, 0.1, 1, rng},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildKDE(tc.points, tc.kernel, tc.epsilon, tc.delta, tc.rng)
			assert.ErrorIs(t, err, models.ErrInvalidParameter)
		})
	}

	k, err := BuildKDE(points, kernel, 0.1, 0.1, rng)
	require.NoError(t, err)
	_, err = k.Query([]float64{1, 2, 3})
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, uniformSquare(t, 100, 1), GaussianKernel{A: 1}, NewConfig(), rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStats(t *testing.T) {
	points := uniformSquare(t, 200, 2)
	k, err := BuildKDE(points, GaussianKernel{A: 4}, 0.25, 0.1, rand.New(rand.NewPCG(3, 1)))
	require.NoError(t, err)

	stats, err := k.Stats()
	require.NoError(t, err)
	assert.Equal(t, 200, stats.Points)
	assert.Equal(t, 2, stats.Dimension)
	require.NotEmpty(t, stats.Levels)
	last := stats.Levels[len(stats.Levels)-1]
	assert.True(t, last.Coarsest)
	for _, lvl := range stats.Levels[:len(stats.Levels)-1] {
		assert.GreaterOrEqual(t, lvl.Hashes, 1)
		assert.GreaterOrEqual(t, lvl.Tables, 1)
		assert.Positive(t, lvl.Radius)
		assert.LessOrEqual(t, lvl.MeanSampleSize, 200.0)
	}
}

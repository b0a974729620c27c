// Package simgraph builds sparse approximations of the dense kernel
// similarity graph, with O(n log n / epsilon^2) edges, on top of a KDE
// structure.
package simgraph

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/kde"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

var tracer = otel.Tracer("graph-approx-engine/simgraph")

// Result is a sparse similarity graph over point indices. Every edge weight
// lies in [0, 1]; Scale times the graph estimates the dense kernel graph.
type Result struct {
	Graph           *graph.Graph `json:"-"`
	Scale           float64      `json:"scale"`
	SamplesPerPoint int          `json:"samples_per_point"`
	Edges           int          `json:"edges"`
	RuntimeMS       int64        `json:"runtime_ms"`
}

// BuildSimilarityGraph builds a KDE with the given accuracy targets and
// samples a similarity graph from it.
func BuildSimilarityGraph(points *models.PointSet, kernel kde.Kernel, epsilon, delta float64, rng *rand.Rand) (*Result, error) {
	kdeConfig := kde.NewConfig()
	kdeConfig.Set("algorithm.epsilon", epsilon)
	kdeConfig.Set("algorithm.delta", delta)
	config := NewConfig()
	config.Set("algorithm.epsilon", epsilon)
	return Build(context.Background(), points, kernel, kdeConfig, config, rng)
}

// Build constructs the KDE structure described by kdeConfig and samples the
// graph from it. The KDE is invalidated before returning.
func Build(ctx context.Context, points *models.PointSet, kernel kde.Kernel, kdeConfig *kde.Config, config *Config, rng *rand.Rand) (*Result, error) {
	k, err := kde.Build(ctx, points, kernel, kdeConfig, rng)
	if err != nil {
		return nil, fmt.Errorf("kde build failed: %w", err)
	}
	defer k.Invalidate()
	return FromKDE(ctx, k, config, rng)
}

// neighbor is a sampled edge endpoint with its accumulated weight.
type neighbor struct {
	j int
	w float64
}

// FromKDE samples, for every point i, m neighbors j with probability
// proportional to the KDE's weighted contribution of x_j at x_i. Each sample
// adds D_i/(2m) to edge {i, j}, where D_i is the estimated degree of i, so
// the expected weight of {i, j} is k(x_i, x_j).
func FromKDE(ctx context.Context, k *kde.KDE, config *Config, rng *rand.Rand) (*Result, error) {
	startTime := time.Now()
	if config == nil {
		config = NewConfig()
	}
	logger := config.CreateLogger()

	if !k.Valid() {
		return nil, fmt.Errorf("%w: KDE structure is not built or has been invalidated", models.ErrInvalidState)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", models.ErrInvalidParameter)
	}
	epsilon := config.Epsilon()
	if !(epsilon > 0 && epsilon < 1) {
		return nil, fmt.Errorf("%w: epsilon must be in (0, 1), got %v", models.ErrInvalidParameter, epsilon)
	}

	points := k.Points()
	n := points.Len()
	m := samplesPerPoint(n, epsilon, k.Delta(), config.SampleConstant())

	ctx, span := tracer.Start(ctx, "simgraph.FromKDE",
		trace.WithAttributes(
			attribute.Int("points", n),
			attribute.Int("samples_per_point", m),
		),
	)
	defer span.End()

	seeds := make([][2]uint64, n)
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}

	sampled := make([][]neighbor, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, config.NumWorkers()))
	for i := 0; i < n && m > 0; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			nbrs, err := samplePoint(k, i, m, rand.New(rand.NewPCG(seeds[i][0], seeds[i][1])))
			if err != nil {
				return err
			}
			sampled[i] = nbrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Merge in point order so floating-point sums do not depend on
	// scheduling.
	weights := make(map[[2]int]float64)
	var keys [][2]int
	for i, nbrs := range sampled {
		for _, nb := range nbrs {
			key := [2]int{min(i, nb.j), max(i, nb.j)}
			if _, ok := weights[key]; !ok {
				keys = append(keys, key)
			}
			weights[key] += nb.w
		}
	}

	scale := 1.0
	for _, w := range weights {
		scale = math.Max(scale, w)
	}

	builder := graph.NewBuilder(n)
	for _, key := range keys {
		if err := builder.AddEdge(key[0], key[1], math.Min(1, weights[key]/scale)); err != nil {
			return nil, fmt.Errorf("failed to add edge %v: %w", key, err)
		}
	}
	result := &Result{
		Graph:           builder.Build(),
		Scale:           scale,
		SamplesPerPoint: m,
	}
	result.Edges = result.Graph.NumEdges()
	result.RuntimeMS = time.Since(startTime).Milliseconds()

	span.SetAttributes(
		attribute.Int("edges", result.Edges),
		attribute.Float64("scale", scale),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info().
		Int("points", n).
		Int("samples_per_point", m).
		Int("edges", result.Edges).
		Float64("scale", scale).
		Int64("runtime_ms", result.RuntimeMS).
		Msg("Similarity graph built")

	return result, nil
}

// samplesPerPoint is min(n-1, ceil(c * ln(n/delta) / epsilon^2)), enough
// for every one of the n degree estimates to hold together with
// probability 1-delta.
func samplesPerPoint(n int, epsilon, delta, c float64) int {
	if n <= 1 {
		return 0
	}
	m := int(math.Ceil(c * math.Log(float64(n)/delta) / (epsilon * epsilon)))
	return max(1, min(n-1, m))
}

// samplePoint draws m neighbors of point i in proportion to their estimated
// kernel weight and returns the merged per-neighbor edge weights.
func samplePoint(k *kde.KDE, i, m int, rng *rand.Rand) ([]neighbor, error) {
	agg := make(map[int]float64)
	err := k.Contributions(k.Points().At(i), func(c kde.Contribution) {
		if c.Point != i {
			agg[c.Point] += c.Weight
		}
	})
	if err != nil {
		return nil, err
	}
	if len(agg) == 0 {
		return nil, nil
	}

	candidates := make([]int, 0, len(agg))
	for j := range agg {
		candidates = append(candidates, j)
	}
	sort.Ints(candidates)

	cumulative := make([]float64, len(candidates))
	degree := 0.0
	for idx, j := range candidates {
		degree += agg[j]
		cumulative[idx] = degree
	}
	if !(degree > 0) {
		return nil, nil
	}

	counts := make([]int, len(candidates))
	for s := 0; s < m; s++ {
		idx := sort.SearchFloat64s(cumulative, rng.Float64()*degree)
		counts[min(idx, len(candidates)-1)]++
	}

	share := degree / (2 * float64(m))
	var nbrs []neighbor
	for idx, c := range counts {
		if c > 0 {
			nbrs = append(nbrs, neighbor{j: candidates[idx], w: float64(c) * share})
		}
	}
	return nbrs, nil
}

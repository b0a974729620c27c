package localcluster

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Defaults used by LocalClusterVolume.
const (
	volumeAlpha          = 0.01
	volumeEpsilonDivisor = 10.0
)

// Result represents the local clustering output
type Result struct {
	Cluster     []int      `json:"cluster"`
	Conductance float64    `json:"conductance"`
	Volume      float64    `json:"volume"`
	SupportSize int        `json:"support_size"`
	Profile     []float64  `json:"profile,omitempty"`
	Statistics  Statistics `json:"statistics"`
}

// Statistics contains push and runtime metrics
type Statistics struct {
	Pushes    int   `json:"pushes"`
	RuntimeMS int64 `json:"runtime_ms"`
}

// Run computes an approximate personalized PageRank vector from the seeds
// and returns the sweep-cut prefix of minimum conductance. When the push
// touches nothing (for example an isolated seed) the deduplicated seed set
// is returned.
func Run(ctx context.Context, g graph.LocalGraph, seeds []int, config *Config) (*Result, error) {
	startTime := time.Now()
	if config == nil {
		config = NewConfig()
	}
	logger := config.CreateLogger()

	alpha, epsilon := config.Alpha(), config.Epsilon()
	if err := validatePushParams(g, alpha, epsilon); err != nil {
		return nil, err
	}
	seedSet, err := uniqueSeeds(g, seeds)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "localcluster.Run",
		trace.WithAttributes(
			attribute.Int("seeds", len(seedSet)),
		),
	)
	defer span.End()

	logger.Debug().
		Ints("seeds", seedSet).
		Float64("alpha", alpha).
		Float64("epsilon", epsilon).
		Bool("lazy", config.Lazy()).
		Msg("Starting local clustering")

	seed := make(map[int]float64, len(seedSet))
	for _, v := range seedSet {
		seed[v] = 1.0 / float64(len(seedSet))
	}

	progress := 0
	if config.EnableProgress() {
		progress = config.ProgressInterval()
	}
	pr, err := approximatePageRank(ctx, g, seed, alpha, epsilon, config.Lazy(), logger, progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("approximate pagerank failed: %w", err)
	}

	sweep, err := SweepCut(g, pr.P)
	if err != nil {
		return nil, fmt.Errorf("sweep cut failed: %w", err)
	}

	result := &Result{
		Cluster:     sweep.Cluster,
		Conductance: sweep.Conductance,
		Volume:      sweep.Volume,
		SupportSize: len(sweep.Order),
		Profile:     sweep.Profile,
		Statistics:  Statistics{Pushes: pr.Pushes},
	}
	if len(result.Cluster) == 0 {
		seedSweep, err := SweepOrder(g, seedSet)
		if err != nil {
			return nil, fmt.Errorf("sweep cut failed: %w", err)
		}
		result.Cluster = seedSet
		result.Volume = floats.Sum(graph.Degrees(g, seedSet))
		result.Conductance = seedSweep.Profile[len(seedSweep.Profile)-1]
	}
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	span.SetAttributes(
		attribute.Int("cluster_size", len(result.Cluster)),
		attribute.Float64("conductance", result.Conductance),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info().
		Int("cluster_size", len(result.Cluster)).
		Int("support", result.SupportSize).
		Int("pushes", pr.Pushes).
		Float64("conductance", result.Conductance).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Local clustering completed")

	return result, nil
}

// LocalCluster returns a low-conductance cluster around the seed vertices.
func LocalCluster(g graph.LocalGraph, seeds []int, alpha, epsilon float64) ([]int, error) {
	config := NewConfig()
	config.Set("algorithm.alpha", alpha)
	config.Set("algorithm.epsilon", epsilon)

	result, err := Run(context.Background(), g, seeds, config)
	if err != nil {
		return nil, err
	}
	return result.Cluster, nil
}

// LocalClusterVolume finds a cluster around seed sized for roughly
// targetVolume. It runs the lazy walk with teleport 0.01 and epsilon
// 1/(10*targetVolume).
func LocalClusterVolume(g graph.LocalGraph, seed int, targetVolume float64) ([]int, error) {
	if !(targetVolume > 0) {
		return nil, fmt.Errorf("%w: target volume must be positive, got %v", models.ErrInvalidParameter, targetVolume)
	}
	config := NewConfig()
	config.Set("algorithm.alpha", volumeAlpha)
	config.Set("algorithm.epsilon", 1/(volumeEpsilonDivisor*targetVolume))
	config.Set("algorithm.lazy", true)

	result, err := Run(context.Background(), g, []int{seed}, config)
	if err != nil {
		return nil, err
	}
	return result.Cluster, nil
}

func uniqueSeeds(g graph.LocalGraph, seeds []int) ([]int, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: seed set is empty", models.ErrInvalidParameter)
	}
	seen := make(map[int]bool, len(seeds))
	unique := make([]int, 0, len(seeds))
	for _, v := range seeds {
		if !g.HasVertex(v) {
			return nil, fmt.Errorf("%w: seed vertex %d not in graph", models.ErrInvalidParameter, v)
		}
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return sortedCopy(unique), nil
}

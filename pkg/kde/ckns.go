// Package kde estimates kernel densities with a multi-level LSH structure.
//
// Build partitions the kernel range into geometric levels. Level i keeps an
// independent subsample of the points for each of R instances and hashes it
// with an LSH index tuned to the level's distance range. A query sums, per
// level, the inverse-probability weighted contributions of colliding sampled
// points, combines the R instance estimates by median-of-means and adds the
// levels together.
//
// A built KDE is immutable: Query and QueryBatch may be called from any
// number of goroutines without locking.
package kde

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

var tracer = otel.Tracer("graph-approx-engine/kde")

// KDE is a built kernel density estimation structure. The zero value is not
// usable; every method on it reports ErrInvalidState.
type KDE struct {
	points  *models.PointSet
	kernel  Kernel
	levels  []*Level
	plan    plan
	delta   float64
	workers int
	valid   atomic.Bool
	buildMS int64
	logger  zerolog.Logger
}

// Statistics describes the shape of a built structure.
type Statistics struct {
	Points     int          `json:"points"`
	Dimension  int          `json:"dimension"`
	Kernel     string       `json:"kernel"`
	Epsilon    float64      `json:"epsilon"`
	Delta      float64      `json:"delta"`
	MinDensity float64      `json:"min_density"`
	Instances  int          `json:"instances"`
	Groups     int          `json:"groups"`
	Levels     []LevelStats `json:"levels"`
	BuildMS    int64        `json:"build_ms"`
}

// LevelStats summarizes one level.
type LevelStats struct {
	Level
	MeanSampleSize float64 `json:"mean_sample_size"`
}

// BuildKDE builds a structure with the default configuration and the given
// accuracy targets.
func BuildKDE(points *models.PointSet, kernel Kernel, epsilon, delta float64, rng *rand.Rand) (*KDE, error) {
	config := NewConfig()
	config.Set("algorithm.epsilon", epsilon)
	config.Set("algorithm.delta", delta)
	return Build(context.Background(), points, kernel, config, rng)
}

// Build constructs the level structure. Each (level, instance) unit is built
// on a bounded worker pool from its own seed; seeds are drawn from rng in a
// fixed order first, so the result depends only on rng's state and not on
// scheduling. Cancellation discards any partial structure.
func Build(ctx context.Context, points *models.PointSet, kernel Kernel, config *Config, rng *rand.Rand) (*KDE, error) {
	startTime := time.Now()
	if config == nil {
		config = NewConfig()
	}
	logger := config.CreateLogger()

	epsilon, delta := config.Epsilon(), config.Delta()
	if err := validateBuild(points, kernel, epsilon, delta, config.MinDensity(), rng); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "kde.Build",
		trace.WithAttributes(
			attribute.Int("points", points.Len()),
			attribute.Int("dimension", points.Dim()),
			attribute.String("kernel", kernel.Name()),
			attribute.Float64("epsilon", epsilon),
			attribute.Float64("delta", delta),
		),
	)
	defer span.End()

	p := newPlan(points.Len(), epsilon, delta, config)
	k := &KDE{
		points:  points,
		kernel:  kernel,
		levels:  make([]*Level, p.levels),
		plan:    p,
		delta:   delta,
		workers: max(1, config.NumWorkers()),
		logger:  logger,
	}
	for i := range k.levels {
		k.levels[i] = newLevel(i+1, p, kernel, config)
	}

	logger.Info().
		Int("points", points.Len()).
		Int("levels", p.levels).
		Int("instances", p.instances).
		Float64("min_density", p.minDensity).
		Msg("Starting KDE build")

	seeds := make([][2]uint64, p.levels*p.instances)
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(k.workers)
	for unit := range seeds {
		lvl := k.levels[unit/p.instances]
		slot := unit % p.instances
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lvl.instances[slot] = lvl.buildInstance(points, kernel, config, seeds[unit])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	k.buildMS = time.Since(startTime).Milliseconds()
	k.valid.Store(true)
	buildDuration.Observe(time.Since(startTime).Seconds())

	for _, lvl := range k.levels {
		logger.Debug().
			Int("level", lvl.Index).
			Float64("retention", lvl.Retention).
			Float64("radius", lvl.Radius).
			Int("hashes", lvl.Hashes).
			Int("tables", lvl.Tables).
			Float64("mean_sample", lvl.sampleSize()).
			Msg("Level built")
	}
	logger.Info().
		Int64("runtime_ms", k.buildMS).
		Msg("KDE build completed")
	span.SetStatus(codes.Ok, "")

	return k, nil
}

func validateBuild(points *models.PointSet, kernel Kernel, epsilon, delta, minDensity float64, rng *rand.Rand) error {
	switch {
	case points == nil || points.Len() == 0:
		return fmt.Errorf("%w: point set is empty", models.ErrInvalidParameter)
	case kernel == nil:
		return fmt.Errorf("%w: kernel is nil", models.ErrInvalidParameter)
	case !(kernel.Max() > 0):
		return fmt.Errorf("%w: kernel maximum must be positive", models.ErrInvalidParameter)
	case rng == nil:
		return fmt.Errorf("%w: random source is nil", models.ErrInvalidParameter)
	case !(epsilon > 0 && epsilon < 1):
		return fmt.Errorf("%w: epsilon must be in (0, 1), got %v", models.ErrInvalidParameter, epsilon)
	case !(delta > 0 && delta < 1):
		return fmt.Errorf("%w: delta must be in (0, 1), got %v", models.ErrInvalidParameter, delta)
	case minDensity < 0 || minDensity > 1 || math.IsNaN(minDensity):
		return fmt.Errorf("%w: min density must be in (0, 1], got %v", models.ErrInvalidParameter, minDensity)
	}
	return nil
}

// Query estimates (1/n) * sum_i k(q, x_i). The result lies in
// [0, kernel.Max()] and is a deterministic function of q and the structure.
func (k *KDE) Query(q []float64) (float64, error) {
	if err := k.checkQuery(q); err != nil {
		return 0, err
	}
	return k.estimate(q), nil
}

// QueryBatch estimates the density at every query point on a bounded worker
// pool. It stops between points when ctx is cancelled.
func (k *KDE) QueryBatch(ctx context.Context, queries [][]float64) ([]float64, error) {
	if err := k.checkValid(); err != nil {
		return nil, err
	}
	for i, q := range queries {
		if err := k.checkQuery(q); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}

	ctx, span := tracer.Start(ctx, "kde.QueryBatch",
		trace.WithAttributes(attribute.Int("queries", len(queries))),
	)
	defer span.End()

	startTime := time.Now()
	results := make([]float64, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(k.workers)
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = k.estimate(q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	batchDuration.Observe(time.Since(startTime).Seconds())
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// Contribution is one sampled point's weighted share of a density estimate.
type Contribution struct {
	Point  int
	Value  float64
	Weight float64
}

// Contributions calls fn for every (level, instance) contribution at q.
// Weights are divided by the instance count, so summing Weight over all
// calls estimates sum_i k(q, x_i) (without the 1/n factor).
func (k *KDE) Contributions(q []float64, fn func(Contribution)) error {
	if err := k.checkQuery(q); err != nil {
		return err
	}
	r := float64(k.plan.instances)
	for _, lvl := range k.levels {
		for _, inst := range lvl.instances {
			lvl.visit(inst, k.points, k.kernel, k.plan.levels, q, func(j int, value, weight float64) {
				fn(Contribution{Point: j, Value: value, Weight: weight / r})
			})
		}
	}
	return nil
}

func (k *KDE) estimate(q []float64) float64 {
	n := float64(k.plan.n)
	total := 0.0
	perInstance := make([]float64, k.plan.instances)
	for _, lvl := range k.levels {
		for r, inst := range lvl.instances {
			sum := 0.0
			lvl.visit(inst, k.points, k.kernel, k.plan.levels, q, func(_ int, _, weight float64) {
				sum += weight
			})
			perInstance[r] = sum / n
		}
		total += medianOfMeans(perInstance, k.plan.groups)
	}
	queriesTotal.Inc()
	return math.Max(0, math.Min(total, k.kernel.Max()))
}

// Invalidate marks the structure unusable. Subsequent calls report
// ErrInvalidState. Memory is reclaimed once the caller drops its reference.
func (k *KDE) Invalidate() {
	if k != nil && k.valid.Swap(false) {
		k.logger.Debug().Int("points", k.plan.n).Msg("KDE invalidated")
	}
}

// Valid reports whether the structure can answer queries.
func (k *KDE) Valid() bool { return k != nil && k.valid.Load() }

// Points returns the indexed point set.
func (k *KDE) Points() *models.PointSet { return k.points }

// Kernel returns the kernel the structure was built for.
func (k *KDE) Kernel() Kernel { return k.kernel }

// Delta returns the failure probability the structure was built for.
func (k *KDE) Delta() float64 { return k.delta }

// Instances returns the number of independent instances per level.
func (k *KDE) Instances() int { return k.plan.instances }

// Stats reports the level plan and sample sizes.
func (k *KDE) Stats() (*Statistics, error) {
	if err := k.checkValid(); err != nil {
		return nil, err
	}
	stats := &Statistics{
		Points:     k.points.Len(),
		Dimension:  k.points.Dim(),
		Kernel:     k.kernel.Name(),
		Epsilon:    k.plan.epsilon,
		Delta:      k.delta,
		MinDensity: k.plan.minDensity,
		Instances:  k.plan.instances,
		Groups:     k.plan.groups,
		BuildMS:    k.buildMS,
	}
	for _, lvl := range k.levels {
		stats.Levels = append(stats.Levels, LevelStats{Level: *lvl, MeanSampleSize: lvl.sampleSize()})
	}
	return stats, nil
}

func (k *KDE) checkValid() error {
	if !k.Valid() {
		return fmt.Errorf("%w: KDE structure is not built or has been invalidated", models.ErrInvalidState)
	}
	return nil
}

func (k *KDE) checkQuery(q []float64) error {
	if err := k.checkValid(); err != nil {
		return err
	}
	if len(q) != k.points.Dim() {
		return fmt.Errorf("%w: query dimension %d, expected %d", models.ErrInvalidParameter, len(q), k.points.Dim())
	}
	for _, x := range q {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: query has a non-finite coordinate", models.ErrInvalidParameter)
		}
	}
	return nil
}

package kde

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Exact computes (1/n) * sum_i k(q, x_i) by scanning every point.
func Exact(points *models.PointSet, kernel Kernel, q []float64) (float64, error) {
	if err := validateExact(points, kernel); err != nil {
		return 0, err
	}
	if len(q) != points.Dim() {
		return 0, fmt.Errorf("%w: query dimension %d, expected %d", models.ErrInvalidParameter, len(q), points.Dim())
	}
	return exact(points, kernel, q), nil
}

// ExactBatch runs Exact for every query on a worker pool sized to the CPU
// count.
func ExactBatch(ctx context.Context, points *models.PointSet, kernel Kernel, queries [][]float64) ([]float64, error) {
	if err := validateExact(points, kernel); err != nil {
		return nil, err
	}
	for i, q := range queries {
		if len(q) != points.Dim() {
			return nil, fmt.Errorf("%w: query %d has dimension %d, expected %d", models.ErrInvalidParameter, i, len(q), points.Dim())
		}
	}

	results := make([]float64, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = exact(points, kernel, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func exact(points *models.PointSet, kernel Kernel, q []float64) float64 {
	sum := 0.0
	for i := 0; i < points.Len(); i++ {
		sum += kernel.Value(q, points.At(i))
	}
	return sum / float64(points.Len())
}

func validateExact(points *models.PointSet, kernel Kernel) error {
	if points == nil || points.Len() == 0 {
		return fmt.Errorf("%w: point set is empty", models.ErrInvalidParameter)
	}
	if kernel == nil {
		return fmt.Errorf("%w: kernel is nil", models.ErrInvalidParameter)
	}
	return nil
}

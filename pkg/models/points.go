package models

import (
	"fmt"
	"math"
)

// PointSet is an ordered, immutable collection of equal-dimension points
// stored row-major in a single slice.
type PointSet struct {
	ids  []int64
	data []float64
	dim  int
}

// NewPointSet wraps flat row-major data. When ids is nil the points are
// numbered 0..n-1. The data slice is retained, not copied.
func NewPointSet(dim int, data []float64, ids []int64) (*PointSet, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidParameter, dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("%w: %d values do not divide into rows of dimension %d", ErrInvalidParameter, len(data), dim)
	}
	n := len(data) / dim
	for i, x := range data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: non-finite coordinate at point %d", ErrInvalidParameter, i/dim)
		}
	}

	if ids == nil {
		ids = make([]int64, n)
		for i := range ids {
			ids[i] = int64(i)
		}
	} else if len(ids) != n {
		return nil, fmt.Errorf("%w: %d ids for %d points", ErrInvalidParameter, len(ids), n)
	}

	return &PointSet{ids: ids, data: data, dim: dim}, nil
}

// FromRows copies a slice of rows into a PointSet.
func FromRows(rows [][]float64) (*PointSet, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: point set is empty", ErrInvalidParameter)
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: point %d has dimension %d, expected %d", ErrInvalidParameter, i, len(row), dim)
		}
		data = append(data, row...)
	}
	return NewPointSet(dim, data, nil)
}

// Len returns the number of points.
func (p *PointSet) Len() int {
	if p == nil || p.dim == 0 {
		return 0
	}
	return len(p.data) / p.dim
}

// Dim returns the dimension shared by all points.
func (p *PointSet) Dim() int { return p.dim }

// At returns a read-only view of point i.
func (p *PointSet) At(i int) []float64 {
	return p.data[i*p.dim : (i+1)*p.dim : (i+1)*p.dim]
}

// ID returns the stable identifier of point i.
func (p *PointSet) ID(i int) int64 { return p.ids[i] }

// Rows returns views of every point.
func (p *PointSet) Rows() [][]float64 {
	rows := make([][]float64, p.Len())
	for i := range rows {
		rows[i] = p.At(i)
	}
	return rows
}

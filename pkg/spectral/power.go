package spectral

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// PowerMethod returns M^t v0 scaled to unit length, which approaches the
// eigenvector of m with the largest eigenvalue in absolute value. The vector
// is renormalized after every multiplication.
//
// A non-positive iterations uses ceil(10 ln n) + 1 steps. A nil initial
// vector is replaced by a random unit vector drawn from rng.
func PowerMethod(m mat.Matrix, iterations int, initial mat.Vector, rng *rand.Rand) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || r != c {
		return nil, fmt.Errorf("%w: power method needs a non-empty square matrix, got %dx%d", models.ErrInvalidParameter, r, c)
	}
	n := r
	if iterations <= 0 {
		iterations = int(math.Ceil(10*math.Log(float64(n)))) + 1
	}

	v := mat.NewVecDense(n, nil)
	switch {
	case initial != nil:
		if initial.Len() != n {
			return nil, fmt.Errorf("%w: initial vector has length %d, matrix is %dx%d", models.ErrInvalidParameter, initial.Len(), n, n)
		}
		v.CopyVec(initial)
	case rng != nil:
		for i := 0; i < n; i++ {
			v.SetVec(i, rng.NormFloat64())
		}
	default:
		return nil, fmt.Errorf("%w: need an initial vector or a random source", models.ErrInvalidParameter)
	}
	if err := normalize(v); err != nil {
		return nil, err
	}

	next := mat.NewVecDense(n, nil)
	for i := 0; i < iterations; i++ {
		next.MulVec(m, v)
		if err := normalize(next); err != nil {
			return nil, err
		}
		v, next = next, v
	}
	return v, nil
}

// RayleighQuotient returns v'Mv / v'v.
func RayleighQuotient(m mat.Matrix, v mat.Vector) (float64, error) {
	r, c := m.Dims()
	if r != c || v.Len() != r {
		return 0, fmt.Errorf("%w: vector of length %d does not match %dx%d matrix", models.ErrInvalidParameter, v.Len(), r, c)
	}
	den := mat.Dot(v, v)
	if den == 0 {
		return 0, fmt.Errorf("%w: rayleigh quotient of the zero vector", models.ErrInvalidParameter)
	}
	var mv mat.VecDense
	mv.MulVec(m, v)
	return mat.Dot(v, &mv) / den, nil
}

func normalize(v *mat.VecDense) error {
	norm := v.Norm(2)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return fmt.Errorf("%w: power iteration reached a vector of norm %v", models.ErrInvalidParameter, norm)
	}
	v.ScaleVec(1/norm, v)
	return nil
}

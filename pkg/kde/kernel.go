package kde

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-approx-engine/pkg/lsh"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Kernel is a distance-decaying similarity function. Value must be a
// non-increasing function of Euclidean distance with maximum Max() at
// distance zero.
type Kernel interface {
	// Value returns k(u, v).
	Value(u, v []float64) float64
	// Max returns k(u, u).
	Max() float64
	// Radius returns the distance at which the kernel falls to
	// fraction*Max(), for fraction in (0, 1].
	Radius(fraction float64) float64
	// HashFamily returns an LSH family with the given bucket width whose
	// collision probability decreases with distance.
	HashFamily(width float64) lsh.Family
	// Name identifies the kernel in logs and responses.
	Name() string
}

// GaussianKernel is k(u, v) = exp(-A * |u - v|^2).
type GaussianKernel struct {
	A float64
}

func (k GaussianKernel) Value(u, v []float64) float64 {
	d := floats.Distance(u, v, 2)
	return math.Exp(-k.A * d * d)
}

func (k GaussianKernel) Max() float64 { return 1 }

func (k GaussianKernel) Radius(fraction float64) float64 {
	return math.Sqrt(math.Log(1/fraction) / k.A)
}

func (k GaussianKernel) HashFamily(width float64) lsh.Family {
	return lsh.E2Family{Width: width}
}

func (k GaussianKernel) Name() string { return fmt.Sprintf("gaussian(a=%g)", k.A) }

// GaussianKernelDist evaluates the Gaussian kernel at squared distance c.
func GaussianKernelDist(a, c float64) float64 {
	return math.Exp(-a * c)
}

// LaplacianKernel is k(u, v) = exp(-A * |u - v|).
type LaplacianKernel struct {
	A float64
}

func (k LaplacianKernel) Value(u, v []float64) float64 {
	return math.Exp(-k.A * floats.Distance(u, v, 2))
}

func (k LaplacianKernel) Max() float64 { return 1 }

func (k LaplacianKernel) Radius(fraction float64) float64 {
	return math.Log(1/fraction) / k.A
}

func (k LaplacianKernel) HashFamily(width float64) lsh.Family {
	return lsh.E2Family{Width: width}
}

func (k LaplacianKernel) Name() string { return fmt.Sprintf("laplacian(a=%g)", k.A) }

// NewKernel resolves a kernel by name. Supported names are "gaussian" and
// "laplacian".
func NewKernel(name string, a float64) (Kernel, error) {
	if !(a > 0) || math.IsInf(a, 1) {
		return nil, fmt.Errorf("%w: kernel parameter must be positive, got %v", models.ErrInvalidParameter, a)
	}
	switch name {
	case "gaussian", "":
		return GaussianKernel{A: a}, nil
	case "laplacian":
		return LaplacianKernel{A: a}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kernel %q", models.ErrInvalidParameter, name)
	}
}

// Package lsh implements Euclidean locality-sensitive hashing built from
// p-stable (Gaussian) projections, and multi-table indexes over them.
package lsh

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Function maps a point to an integer bucket coordinate.
type Function interface {
	Hash(x []float64) int64
}

// Family draws independent hash functions and knows their collision
// probability as a function of distance.
type Family interface {
	New(dim int, rng *rand.Rand) Function
	CollisionProbability(distance float64) float64
}

// E2Family is the p-stable family h(x) = floor((a.x + b) / w) with a drawn
// from a standard Gaussian and b uniform in [0, w).
type E2Family struct {
	Width float64
}

// E2Hash is a single p-stable projection.
type E2Hash struct {
	a     []float64
	b     float64
	width float64
}

// New implements Family.
func (f E2Family) New(dim int, rng *rand.Rand) Function {
	a := make([]float64, dim)
	for i := range a {
		a[i] = rng.NormFloat64()
	}
	return &E2Hash{a: a, b: rng.Float64() * f.Width, width: f.Width}
}

// CollisionProbability implements Family.
func (f E2Family) CollisionProbability(distance float64) float64 {
	return CollisionProbability(distance, f.Width)
}

// Hash implements Function.
func (h *E2Hash) Hash(x []float64) int64 {
	return int64(math.Floor((floats.Dot(h.a, x) + h.b) / h.width))
}

// CollisionProbability is the probability that two points at distance c
// share a p-stable bucket of width w:
//
//	p(c) = 1 - 2*Phi(-w/c) - 2/(sqrt(2*pi)*w/c) * (1 - exp(-(w/c)^2/2))
func CollisionProbability(c, w float64) float64 {
	if c <= 0 {
		return 1
	}
	if math.IsInf(c, 1) {
		return 0
	}
	r := w / c
	p := 1 - 2*distuv.UnitNormal.CDF(-r) - 2/(math.Sqrt(2*math.Pi)*r)*(1-math.Exp(-r*r/2))
	return math.Max(0, math.Min(1, p))
}

// Tune picks the number of concatenated hashes and the number of tables for
// an index over n points. k is chosen so far points (collision probability
// far) collide with about one point per bucket; tables are then added until
// near points (probability near) are found with the requested recall.
func Tune(near, far float64, n int, recall float64, maxHashes, maxTables int) (k, tables int) {
	k = 1
	if n > 1 && far > 0 && far < 1 {
		k = int(math.Ceil(math.Log(float64(n)) / math.Log(1/far)))
	}
	k = clamp(k, 1, maxHashes)

	tables = 1
	pk := math.Pow(near, float64(k))
	if pk < 1 && recall > 0 && recall < 1 {
		tables = int(math.Ceil(math.Log(1-recall) / math.Log(1-pk)))
	}
	tables = clamp(tables, 1, maxTables)
	return k, tables
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if hi >= lo && x > hi {
		return hi
	}
	return x
}

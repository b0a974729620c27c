package spectral

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

const (
	defaultRestarts = 10
	maxIterations   = 300
)

// KMeans clusters rows into k groups with k-means++ seeding and Lloyd
// iterations, keeping the best of several restarts by inertia.
func KMeans(rows [][]float64, k int, rng *rand.Rand, restarts int) []int {
	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < max(1, restarts); r++ {
		labels, inertia := lloyd(rows, seedCentroids(rows, k, rng))
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best
}

// seedCentroids picks k initial centroids, each new one with probability
// proportional to its squared distance from the nearest chosen centroid.
func seedCentroids(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(rows[rng.IntN(len(rows))]))

	dist := make([]float64, len(rows))
	for len(centroids) < k {
		total := 0.0
		for i, row := range rows {
			dist[i] = math.Inf(1)
			for _, c := range centroids {
				dist[i] = math.Min(dist[i], sqDist(row, c))
			}
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, clone(rows[rng.IntN(len(rows))]))
			continue
		}

		target := rng.Float64() * total
		next := len(rows) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				next = i
				break
			}
		}
		centroids = append(centroids, clone(rows[next]))
	}
	return centroids
}

func lloyd(rows [][]float64, centroids [][]float64) ([]int, float64) {
	k, dim := len(centroids), len(rows[0])
	labels := make([]int, len(rows))
	inertia := 0.0

	for iter := 0; iter < maxIterations; iter++ {
		changed := iter == 0
		inertia = 0
		for i, row := range rows {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := sqDist(row, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
			inertia += bestDist
		}
		if !changed {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, row := range rows {
			floats.Add(sums[labels[i]], row)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				floats.ScaleTo(centroids[c], 1/float64(counts[c]), sums[c])
			}
		}
	}
	return labels, inertia
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	return out
}

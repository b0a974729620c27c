package kde

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/graph-approx-engine/pkg/lsh"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

// Level owns the contributions whose normalized kernel value lies in
// (Lower, Upper]. The coarsest level also owns value zero and is scanned
// without hashing.
type Level struct {
	Index     int     `json:"index"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Radius    float64 `json:"radius"`
	Retention float64 `json:"retention"`
	Hashes    int     `json:"hashes"`
	Tables    int     `json:"tables"`
	Coarsest  bool    `json:"coarsest"`

	instances []*instance
}

// instance is one independent sample of the point set with its index. The
// sample holds indices into the shared PointSet.
type instance struct {
	sample []int32
	index  *lsh.Index
}

// plan is the level/instance layout derived from the configuration.
type plan struct {
	n          int
	epsilon    float64
	minDensity float64
	levels     int
	instances  int
	groups     int
}

func newPlan(n int, epsilon, delta float64, config *Config) plan {
	mu := config.MinDensity()
	if mu <= 0 {
		mu = 1 / float64(n)
	}

	levels := int(math.Ceil(math.Log2(1/(epsilon*mu)))) + 1
	levels = clampInt(levels, 1, max(1, config.MaxLevels()))

	instances := int(math.Ceil(config.InstanceConstant() * math.Log(1/delta)))
	instances = clampInt(instances, 1, max(1, config.MaxInstances()))
	if instances%2 == 0 {
		if instances+1 <= config.MaxInstances() {
			instances++
		} else {
			instances--
		}
	}

	return plan{
		n:          n,
		epsilon:    epsilon,
		minDensity: mu,
		levels:     levels,
		instances:  instances,
		groups:     clampInt(config.MedianOfMeansGroups(), 1, instances),
	}
}

// retention is the probability that a point is kept in a level-i sample.
func (p plan) retention(i int, sampleConstant float64) float64 {
	r := sampleConstant * math.Pow(2, -float64(i-1)) / (p.epsilon * p.epsilon * p.minDensity * float64(p.n))
	return math.Min(1, r)
}

// levelOf maps a normalized kernel value in [0, 1] to its owning level.
func levelOf(u float64, levels int) int {
	if u <= math.Pow(2, -float64(levels-1)) {
		return levels
	}
	return int(math.Floor(math.Log2(1/u))) + 1
}

func newLevel(i int, p plan, kernel Kernel, config *Config) *Level {
	lvl := &Level{
		Index:     i,
		Upper:     math.Pow(2, -float64(i-1)),
		Retention: p.retention(i, config.SampleConstant()),
		Coarsest:  i == p.levels,
		instances: make([]*instance, p.instances),
	}
	if lvl.Coarsest {
		return lvl
	}

	lvl.Lower = math.Pow(2, -float64(i))
	lvl.Radius = kernel.Radius(lvl.Lower)

	family := kernel.HashFamily(config.BucketRatio() * lvl.Radius)
	near := family.CollisionProbability(lvl.Radius)
	far := family.CollisionProbability(config.FarRatio() * lvl.Radius)
	expected := max(1, int(math.Round(lvl.Retention*float64(p.n))))
	lvl.Hashes, lvl.Tables = lsh.Tune(near, far, expected, config.Recall(), config.MaxHashes(), config.MaxTables())
	return lvl
}

// buildInstance draws the level sample and, above the coarsest level,
// hashes it into a fresh index.
func (lvl *Level) buildInstance(points *models.PointSet, kernel Kernel, config *Config, seed [2]uint64) *instance {
	rng := rand.New(rand.NewPCG(seed[0], seed[1]))
	n := points.Len()

	inst := &instance{}
	if lvl.Retention >= 1 {
		inst.sample = make([]int32, n)
		for j := range inst.sample {
			inst.sample[j] = int32(j)
		}
	} else {
		inst.sample = make([]int32, 0, int(lvl.Retention*float64(n))+1)
		for j := 0; j < n; j++ {
			if rng.Float64() < lvl.Retention {
				inst.sample = append(inst.sample, int32(j))
			}
		}
	}

	if lvl.Coarsest {
		return inst
	}
	family := kernel.HashFamily(config.BucketRatio() * lvl.Radius)
	inst.index = lsh.NewIndex(family, points.Dim(), lvl.Hashes, lvl.Tables, rng)
	for _, j := range inst.sample {
		inst.index.Insert(int(j), points.At(int(j)))
	}
	return inst
}

// visit calls fn for every sampled point that collides with q and whose
// kernel value falls in this level. weight is the inverse-probability
// weighted contribution k / (retention * collision probability).
func (lvl *Level) visit(inst *instance, points *models.PointSet, kernel Kernel, levels int, q []float64,
	fn func(j int, value, weight float64)) {
	scale := kernel.Max()
	if lvl.Coarsest {
		for _, j := range inst.sample {
			value := kernel.Value(q, points.At(int(j)))
			if levelOf(value/scale, levels) == lvl.Index {
				fn(int(j), value, value/lvl.Retention)
			}
		}
		return
	}

	for _, j := range inst.index.Candidates(q) {
		x := points.At(j)
		value := kernel.Value(q, x)
		if levelOf(value/scale, levels) != lvl.Index {
			continue
		}
		pc := inst.index.CollisionProbability(floats.Distance(q, x, 2))
		if pc <= 0 {
			continue
		}
		fn(j, value, value/(lvl.Retention*pc))
	}
}

// sampleSize returns the mean sample size over instances.
func (lvl *Level) sampleSize() float64 {
	sizes := make([]float64, 0, len(lvl.instances))
	for _, inst := range lvl.instances {
		if inst != nil {
			sizes = append(sizes, float64(len(inst.sample)))
		}
	}
	if len(sizes) == 0 {
		return 0
	}
	return stat.Mean(sizes, nil)
}

// medianOfMeans splits values round-robin into groups, averages each and
// returns the median of the averages.
func medianOfMeans(values []float64, groups int) float64 {
	groups = clampInt(groups, 1, len(values))
	buckets := make([][]float64, groups)
	for i, v := range values {
		buckets[i%groups] = append(buckets[i%groups], v)
	}
	means := make([]float64, groups)
	for g, b := range buckets {
		means[g] = stat.Mean(b, nil)
	}
	sort.Float64s(means)
	return stat.Quantile(0.5, stat.Empirical, means, nil)
}

func clampInt(x, lo, hi int) int {
	return max(lo, min(x, hi))
}

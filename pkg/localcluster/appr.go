package localcluster

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

var tracer = otel.Tracer("graph-approx-engine/localcluster")

// cancelCheckInterval is the number of queue pops between context checks.
const cancelCheckInterval = 1024

// PageRank holds the sparse state of an approximate personalized PageRank
// computation. Only vertices touched by a push appear in P or R.
type PageRank struct {
	P      map[int]float64 `json:"p"`
	R      map[int]float64 `json:"r"`
	Pushes int             `json:"pushes"`
}

// pushState is the working set of the push loop: residual and estimate maps
// plus a FIFO of vertices whose normalized residual exceeds the threshold.
type pushState struct {
	g       graph.LocalGraph
	alpha   float64
	epsilon float64
	lazy    bool

	p      map[int]float64
	r      map[int]float64
	queue  []int
	head   int
	queued map[int]bool
	pushes int
}

// needsPush reports whether v's residual is above threshold. Zero-degree
// vertices never qualify.
func (s *pushState) needsPush(v int) bool {
	deg := s.g.Degree(v)
	if deg <= 0 {
		return false
	}
	if s.lazy {
		return s.r[v] >= s.epsilon*deg
	}
	return s.r[v] > s.epsilon*deg
}

func (s *pushState) enqueue(v int) {
	if s.queued[v] || !s.needsPush(v) {
		return
	}
	s.queued[v] = true
	s.queue = append(s.queue, v)
}

func (s *pushState) pop() (int, bool) {
	if s.head >= len(s.queue) {
		return 0, false
	}
	v := s.queue[s.head]
	s.head++
	// Compact the arena once the consumed prefix dominates it.
	if s.head > 1024 && s.head*2 > len(s.queue) {
		s.queue = append(s.queue[:0], s.queue[s.head:]...)
		s.head = 0
	}
	return v, true
}

// push moves residual mass at u into its estimate and its neighbors.
func (s *pushState) push(u int) {
	ru := s.r[u]
	deg := s.g.Degree(u)
	s.p[u] += s.alpha * ru

	spread := (1 - s.alpha) * ru
	if s.lazy {
		s.r[u] = spread / 2
		spread /= 2
	} else {
		s.r[u] = 0
	}

	targets, weights := s.g.Neighbors(u)
	for i, v := range targets {
		s.r[v] += spread * weights[i] / deg
		s.enqueue(v)
	}
	s.pushes++
}

// ApproximatePageRank runs the push procedure from the seed distribution
// until every touched vertex has r(v) <= epsilon*deg(v) (r(v) < epsilon*deg(v)
// for the lazy walk). Work is proportional to the vertices touched, never to
// the size of the graph, so g may be an implicit graph far too large to
// materialize.
func ApproximatePageRank(ctx context.Context, g graph.LocalGraph, seed map[int]float64, alpha, epsilon float64, lazy bool) (*PageRank, error) {
	return approximatePageRank(ctx, g, seed, alpha, epsilon, lazy, zerolog.Nop(), 0)
}

func approximatePageRank(ctx context.Context, g graph.LocalGraph, seed map[int]float64, alpha, epsilon float64,
	lazy bool, logger zerolog.Logger, progressInterval int) (*PageRank, error) {
	if err := validatePushParams(g, alpha, epsilon); err != nil {
		return nil, err
	}
	if len(seed) == 0 {
		return nil, fmt.Errorf("%w: seed distribution is empty", models.ErrInvalidParameter)
	}
	for v, mass := range seed {
		if !g.HasVertex(v) {
			return nil, fmt.Errorf("%w: seed vertex %d not in graph", models.ErrInvalidParameter, v)
		}
		if mass < 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
			return nil, fmt.Errorf("%w: seed mass for vertex %d must be finite and non-negative", models.ErrInvalidParameter, v)
		}
	}

	ctx, span := tracer.Start(ctx, "localcluster.ApproximatePageRank",
		trace.WithAttributes(
			attribute.Int("seeds", len(seed)),
			attribute.Float64("alpha", alpha),
			attribute.Float64("epsilon", epsilon),
			attribute.Bool("lazy", lazy),
		),
	)
	defer span.End()

	s := &pushState{
		g:       g,
		alpha:   alpha,
		epsilon: epsilon,
		lazy:    lazy,
		p:       make(map[int]float64),
		r:       make(map[int]float64, len(seed)),
		queued:  make(map[int]bool),
	}
	for _, v := range sortedKeys(seed) {
		s.r[v] = seed[v]
		s.enqueue(v)
	}

	for pops := 0; ; pops++ {
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}

		u, ok := s.pop()
		if !ok {
			break
		}
		// A vertex stays at the front until its own residual drops below
		// threshold; self-loops feed back into it.
		for s.needsPush(u) {
			s.push(u)
			if progressInterval > 0 && s.pushes%progressInterval == 0 {
				logger.Info().
					Int("pushes", s.pushes).
					Int("queue", len(s.queue)-s.head).
					Int("support", len(s.p)).
					Msg("Push progress")
			}
		}
		delete(s.queued, u)
	}

	span.SetAttributes(
		attribute.Int("pushes", s.pushes),
		attribute.Int("support", len(s.p)),
	)
	span.SetStatus(codes.Ok, "")

	return &PageRank{P: s.p, R: s.r, Pushes: s.pushes}, nil
}

func validatePushParams(g graph.LocalGraph, alpha, epsilon float64) error {
	if missing(g) {
		return fmt.Errorf("%w: graph is nil", models.ErrInvalidParameter)
	}
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w: alpha must be in (0, 1), got %v", models.ErrInvalidParameter, alpha)
	}
	if !(epsilon > 0) || math.IsInf(epsilon, 1) {
		return fmt.Errorf("%w: epsilon must be positive and finite, got %v", models.ErrInvalidParameter, epsilon)
	}
	return nil
}

// missing reports whether g is nil, including a nil *graph.Graph held in the
// interface.
func missing(g graph.LocalGraph) bool {
	if g == nil {
		return true
	}
	concrete, ok := g.(*graph.Graph)
	return ok && concrete == nil
}

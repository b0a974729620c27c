// Package louvain detects communities in a weighted undirected graph by
// greedy modularity optimisation over successively aggregated graphs.
package louvain

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

var tracer = otel.Tracer("graph-approx-engine/louvain")

// Result represents the algorithm output
type Result struct {
	Labels      []int       `json:"labels"`
	Communities [][]int     `json:"communities"`
	Modularity  float64     `json:"modularity"`
	NumLevels   int         `json:"num_levels"`
	Levels      []LevelInfo `json:"levels"`
	Statistics  Statistics  `json:"statistics"`
}

// LevelInfo contains information about each hierarchical level
type LevelInfo struct {
	Level             int     `json:"level"`
	Nodes             int     `json:"nodes"`
	NumCommunities    int     `json:"num_communities"`
	Iterations        int     `json:"iterations"`
	Moves             int     `json:"moves"`
	InitialModularity float64 `json:"initial_modularity"`
	FinalModularity   float64 `json:"final_modularity"`
	RuntimeMS         int64   `json:"runtime_ms"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	TotalIterations int   `json:"total_iterations"`
	TotalMoves      int   `json:"total_moves"`
	RuntimeMS       int64 `json:"runtime_ms"`
}

// Run executes the complete Louvain algorithm on g. Labels are contiguous
// community ids indexed by vertex. With analysis.track_moves set, every
// move is written to analysis.moves_file as a JSON line.
func Run(ctx context.Context, g *graph.Graph, config *Config) (result *Result, err error) {
	startTime := time.Now()
	if config == nil {
		config = NewConfig()
	}
	if g == nil || g.NumVertices() == 0 {
		return nil, fmt.Errorf("%w: graph is empty", models.ErrInvalidParameter)
	}
	logger := config.CreateLogger()

	var tracker *MoveTracker
	if config.TrackMoves() {
		if tracker, err = NewMoveTrackerFile(config.MovesFile()); err != nil {
			return nil, err
		}
		defer func() {
			if cerr := tracker.Close(); cerr != nil && err == nil {
				result, err = nil, cerr
			}
		}()
	}

	ctx, span := tracer.Start(ctx, "louvain.Run",
		trace.WithAttributes(
			attribute.Int("vertices", g.NumVertices()),
			attribute.Int("edges", g.NumEdges()),
		),
	)
	defer span.End()

	logger.Info().
		Int("nodes", g.NumVertices()).
		Float64("total_weight", g.TotalVolume()/2).
		Msg("Starting Louvain algorithm")

	rng := rand.New(rand.NewPCG(config.RandomSeed(), 0))
	net := fromGraph(g)
	labels := make([]int, g.NumVertices())
	for v := range labels {
		labels[v] = v
	}

	result = &Result{}
	for level := 0; level < config.MaxLevels(); level++ {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		levelStart := time.Now()
		community := make([]int, net.numNodes)
		for v := range community {
			community[v] = v
		}
		initialMod := net.modularity(community)

		iterations, moves := oneLevel(net, community, level, config, rng, logger, tracker)
		numComms := renumber(community)
		finalMod := net.modularity(community)

		result.Levels = append(result.Levels, LevelInfo{
			Level:             level,
			Nodes:             net.numNodes,
			NumCommunities:    numComms,
			Iterations:        iterations,
			Moves:             moves,
			InitialModularity: initialMod,
			FinalModularity:   finalMod,
			RuntimeMS:         time.Since(levelStart).Milliseconds(),
		})
		result.Statistics.TotalIterations += iterations
		result.Statistics.TotalMoves += moves

		logger.Debug().
			Int("level", level).
			Int("nodes", net.numNodes).
			Int("communities", numComms).
			Float64("modularity", finalMod).
			Msg("Level completed")

		if moves == 0 {
			break
		}
		for v := range labels {
			labels[v] = community[labels[v]]
		}
		if numComms == net.numNodes || numComms == 1 {
			break
		}
		net = aggregate(net, community, numComms)
	}

	result.Labels = labels
	result.Communities = groups(labels)
	result.Modularity = fromGraph(g).modularity(labels)
	result.NumLevels = len(result.Levels)
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()

	span.SetAttributes(
		attribute.Int("communities", len(result.Communities)),
		attribute.Float64("modularity", result.Modularity),
	)
	span.SetStatus(codes.Ok, "")

	logger.Info().
		Int("levels", result.NumLevels).
		Int("communities", len(result.Communities)).
		Float64("final_modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Louvain algorithm completed")

	return result, nil
}

// oneLevel moves nodes between communities until no move improves
// modularity by more than the configured gain, or the iteration cap is hit.
func oneLevel(net *network, community []int, level int, config *Config, rng *rand.Rand,
	logger zerolog.Logger, tracker *MoveTracker) (int, int) {
	if net.m2 == 0 {
		return 0, 0
	}
	total := make([]float64, net.numNodes)
	copy(total, net.degrees)

	order := make([]int, net.numNodes)
	for i := range order {
		order[i] = i
	}

	// Scratch space for the weight from the current node to each community.
	linkWeight := make([]float64, net.numNodes)
	seen := make([]bool, net.numNodes)
	var touched []int

	iterations, totalMoves := 0, 0
	for iteration := 0; iteration < config.MaxIterations(); iteration++ {
		iterations++
		moves := 0
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, node := range order {
			oldComm := community[node]
			degree := net.degrees[node]

			touched = touched[:0]
			for i, u := range net.adjacency[node] {
				if u == node {
					continue
				}
				c := community[u]
				if !seen[c] {
					seen[c] = true
					touched = append(touched, c)
				}
				linkWeight[c] += net.weights[node][i]
			}

			total[oldComm] -= degree
			oldGain := linkWeight[oldComm] - total[oldComm]*degree/net.m2
			bestComm, bestGain := oldComm, oldGain
			for _, c := range touched {
				gain := linkWeight[c] - total[c]*degree/net.m2
				if gain > bestGain {
					bestComm, bestGain = c, gain
				}
			}
			if bestComm != oldComm && 2*(bestGain-oldGain)/net.m2 <= config.MinModularityGain() {
				bestComm = oldComm
			}

			total[bestComm] += degree
			community[node] = bestComm
			if bestComm != oldComm {
				moves++
				tracker.LogMove(level, node, oldComm, bestComm, 2*(bestGain-oldGain)/net.m2)
			}

			for _, c := range touched {
				linkWeight[c] = 0
				seen[c] = false
			}
		}

		totalMoves += moves
		if config.EnableProgress() {
			logger.Info().
				Int("iteration", iteration+1).
				Int("moves", moves).
				Float64("modularity", net.modularity(community)).
				Msg("Local optimization progress")
		}
		if moves == 0 {
			break
		}
	}
	return iterations, totalMoves
}

// renumber maps community ids onto 0..k-1 in order of first appearance and
// returns k.
func renumber(community []int) int {
	ids := make(map[int]int)
	for v, c := range community {
		id, ok := ids[c]
		if !ok {
			id = len(ids)
			ids[c] = id
		}
		community[v] = id
	}
	return len(ids)
}

// aggregate builds the graph whose nodes are the communities of net.
func aggregate(net *network, community []int, numComms int) *network {
	cross := make(map[[2]int]float64)
	var keys [][2]int
	super := newNetwork(numComms)
	self := make([]float64, numComms)

	for v := 0; v < net.numNodes; v++ {
		cv := community[v]
		for i, u := range net.adjacency[v] {
			w := net.weights[v][i]
			cu := community[u]
			switch {
			case u == v:
				self[cv] += w
			case cu == cv:
				self[cv] += w / 2
			default:
				key := [2]int{min(cu, cv), max(cu, cv)}
				if _, ok := cross[key]; !ok {
					keys = append(keys, key)
				}
				cross[key] += w / 2
			}
		}
	}

	for c, w := range self {
		if w > 0 {
			super.addEdge(c, c, w)
		}
	}
	for _, key := range keys {
		super.addEdge(key[0], key[1], cross[key])
	}
	return super
}

// groups returns the members of each label, each sorted, ordered by label.
func groups(labels []int) [][]int {
	k := 0
	for _, l := range labels {
		k = max(k, l+1)
	}
	out := make([][]int, k)
	for v, l := range labels {
		out[l] = append(out[l], v)
	}
	for _, members := range out {
		sort.Ints(members)
	}
	return out
}

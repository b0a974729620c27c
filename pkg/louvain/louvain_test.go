package louvain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
)

func twoDisjointCliques(t *testing.T, n int) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(2 * n)
	for _, lo := range []int{0, n} {
		for u := lo; u < lo+n; u++ {
			for v := u + 1; v < lo+n; v++ {
				require.NoError(t, b.AddEdge(u, v, 1))
			}
		}
	}
	return b.Build()
}

func TestRunBarbell(t *testing.T) {
	result, err := Run(context.Background(), graph.Barbell(10), nil)
	require.NoError(t, err)

	require.Len(t, result.Communities, 2)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, result.Communities[0])
	assert.ElementsMatch(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, result.Communities[1])
	// Two K10 joined by one edge: 2 * (90/182 - (91/182)^2).
	assert.InDelta(t, 90.0/91.0-0.5, result.Modularity, 1e-9)
	assert.GreaterOrEqual(t, result.NumLevels, 1)
}

func TestRunDisjointCliques(t *testing.T) {
	result, err := Run(context.Background(), twoDisjointCliques(t, 5), nil)
	require.NoError(t, err)

	require.Len(t, result.Labels, 10)
	for v := 1; v < 5; v++ {
		assert.Equal(t, result.Labels[0], result.Labels[v])
		assert.Equal(t, result.Labels[5], result.Labels[5+v])
	}
	assert.NotEqual(t, result.Labels[0], result.Labels[5])
	assert.InDelta(t, 0.5, result.Modularity, 1e-9)
}

func TestRunNoEdges(t *testing.T) {
	result, err := Run(context.Background(), graph.NewBuilder(4).Build(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, result.Labels)
	assert.Len(t, result.Communities, 4)
	assert.Equal(t, 0.0, result.Modularity)
}

func TestRunSelfLoops(t *testing.T) {
	b := graph.NewBuilder(4)
	require.NoError(t, b.AddEdge(0, 1, 1))
	require.NoError(t, b.AddEdge(0, 0, 2))
	require.NoError(t, b.AddEdge(2, 3, 1))
	require.NoError(t, b.AddEdge(3, 3, 2))

	result, err := Run(context.Background(), b.Build(), nil)
	require.NoError(t, err)
	assert.Equal(t, result.Labels[0], result.Labels[1])
	assert.Equal(t, result.Labels[2], result.Labels[3])
	assert.NotEqual(t, result.Labels[0], result.Labels[2])
	assert.InDelta(t, 0.5, result.Modularity, 1e-9)
}

func TestRunDeterministic(t *testing.T) {
	g := graph.Barbell(8)
	config := NewConfig()
	config.Set("algorithm.random_seed", 7)

	a, err := Run(context.Background(), g, config)
	require.NoError(t, err)
	b, err := Run(context.Background(), g, config)
	require.NoError(t, err)
	assert.Equal(t, a.Labels, b.Labels)
}

func TestRunValidation(t *testing.T) {
	_, err := Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, graph.Barbell(4), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregatePreservesModularity(t *testing.T) {
	net := fromGraph(graph.Barbell(4))
	community := []int{0, 0, 0, 0, 1, 1, 1, 1}
	super := aggregate(net, community, 2)

	assert.InDelta(t, net.m2, super.m2, 1e-12)
	assert.InDelta(t, net.modularity(community), super.modularity([]int{0, 1}), 1e-12)
}

func TestRunTracksMoves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moves.jsonl")
	config := NewConfig()
	config.Set("analysis.track_moves", true)
	config.Set("analysis.moves_file", path)

	result, err := Run(context.Background(), graph.Barbell(10), config)
	require.NoError(t, err)
	require.Positive(t, result.Statistics.TotalMoves)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	count := 0
	for scanner.Scan() {
		var event MoveEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		count++
		assert.Equal(t, count, event.Move)
		assert.NotEqual(t, event.FromComm, event.ToComm)
		assert.Greater(t, event.Gain, config.MinModularityGain())
	}
	assert.Equal(t, result.Statistics.TotalMoves, count)
}

func TestMoveTrackerNil(t *testing.T) {
	var tracker *MoveTracker
	tracker.LogMove(0, 1, 2, 3, 0.5)
	assert.Zero(t, tracker.Moves())
	assert.NoError(t, tracker.Close())

	var buf bytes.Buffer
	tracker = NewMoveTracker(&buf)
	tracker.LogMove(1, 4, 0, 2, 0.25)
	assert.Equal(t, 1, tracker.Moves())
	assert.NoError(t, tracker.Close())
	assert.JSONEq(t, `{"move":1,"level":1,"node":4,"from_comm":0,"to_comm":2,"gain":0.25}`, buf.String())
}

func TestRunMovesFileError(t *testing.T) {
	config := NewConfig()
	config.Set("analysis.track_moves", true)
	config.Set("analysis.moves_file", filepath.Join(t.TempDir(), "missing", "moves.jsonl"))

	_, err := Run(context.Background(), graph.Barbell(4), config)
	assert.Error(t, err)
}

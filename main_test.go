package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/parser"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeTwoBlobs(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	for i := 0; i < 20; i++ {
		x := float64(i%5) * 0.01
		y := float64(i/5) * 0.01
		if i >= 10 {
			x += 5
		}
		fmt.Fprintf(&b, "%g %g\n", x, y)
	}
	path := filepath.Join(dir, "points.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestLocalClusterCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "barbell.txt")
	require.NoError(t, parser.SaveEdgeListFile(path, graph.Barbell(10)))

	out, err := execute(t, "local-cluster", "--graph", path, "--seed", "15",
		"--alpha", "0.15", "--epsilon", "1e-4", "--target-volume", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "cluster: [10 11 12 13 14 15 16 17 18 19]")
	assert.Contains(t, out, "conductance: 0.01098")
}

func TestLocalClusterCommandErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "barbell.txt")
	require.NoError(t, parser.SaveEdgeListFile(path, graph.Barbell(4)))

	_, err := execute(t, "local-cluster", "--graph", path, "--seed", "99",
		"--alpha", "0.15", "--epsilon", "1e-4", "--target-volume", "0")
	assert.Error(t, err)

	_, err = execute(t, "local-cluster", "--graph", filepath.Join(dir, "missing.txt"), "--seed", "0",
		"--target-volume", "0")
	assert.Error(t, err)
}

func TestKDECommand(t *testing.T) {
	points := writeTwoBlobs(t, t.TempDir())

	out, err := execute(t, "kde", "--points", points, "--kernel", "gaussian", "--bandwidth", "1",
		"--epsilon", "0.5", "--delta", "0.1", "--random-seed", "7", "--exact")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 20)
	for _, line := range lines {
		assert.Len(t, strings.Fields(line), 3)
	}
}

func TestSimilarityGraphCommand(t *testing.T) {
	dir := t.TempDir()
	points := writeTwoBlobs(t, dir)
	outPath := filepath.Join(dir, "graph.txt")

	out, err := execute(t, "simgraph", "--points", points, "--kernel", "gaussian", "--bandwidth", "1",
		"--epsilon", "0.5", "--delta", "0.1", "--random-seed", "3", "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "edges: ")

	g, err := parser.ReadEdgeListFile(outPath)
	require.NoError(t, err)
	assert.Positive(t, g.NumEdges())
	for _, e := range g.Edges() {
		assert.LessOrEqual(t, e.Weight, 1.0)
	}
}

func TestClusterPointsCommand(t *testing.T) {
	dir := t.TempDir()
	points := writeTwoBlobs(t, dir)
	labelsPath := filepath.Join(dir, "labels.txt")

	_, err := execute(t, "cluster-points", "--points", points, "--kernel", "gaussian", "--bandwidth", "1",
		"--epsilon", "0.5", "--delta", "0.1", "--random-seed", "5",
		"--method", "spectral", "--k", "2", "--out", labelsPath)
	require.NoError(t, err)

	labels, err := parser.ReadLabelsFile(labelsPath)
	require.NoError(t, err)
	require.Len(t, labels, 20)
	for i := 1; i < 10; i++ {
		assert.Equal(t, labels[0], labels[i])
		assert.Equal(t, labels[10], labels[10+i])
	}
	assert.NotEqual(t, labels[0], labels[10])
}

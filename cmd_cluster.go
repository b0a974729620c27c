package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-approx-engine/pkg/clustering"
	"github.com/gilchrisn/graph-approx-engine/pkg/parser"
)

func runClusterPoints(cmd *cobra.Command, args []string) error {
	log := logger(cmd)

	points, kernel, err := loadPoints()
	if err != nil {
		return err
	}

	config := clustering.NewConfig()
	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	override(cmd, "method", config.Set, "clustering.method", method)
	override(cmd, "k", config.Set, "clustering.k", numClusters)
	override(cmd, "seed", config.Set, "clustering.seed_point", seedPoint)
	override(cmd, "epsilon", config.Set, "graph.epsilon", epsilon)
	override(cmd, "delta", config.Set, "graph.delta", delta)

	result, err := clustering.ClusterPoints(cmd.Context(), points, kernel, config, rand.New(rand.NewPCG(randomSeed, 0)))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := parser.WriteLabels(out, result.Labels); err != nil {
		return err
	}

	event := log.Info().
		Str("method", result.Method).
		Int("points", points.Len()).
		Int("clusters", result.NumClusters)
	if truthFile != "" {
		truth, err := parser.ReadLabelsFile(truthFile)
		if err != nil {
			return err
		}
		ari, err := clustering.AdjustedRandIndex(truth, result.Labels)
		if err != nil {
			return err
		}
		nmi, err := clustering.NormalizedMutualInformation(truth, result.Labels)
		if err != nil {
			return err
		}
		event = event.Float64("ari", ari).Float64("nmi", nmi)
	}
	event.Msg("Point clustering completed")
	return nil
}

package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-approx-engine/pkg/parser"
	"github.com/gilchrisn/graph-approx-engine/pkg/simgraph"
)

func runSimilarityGraph(cmd *cobra.Command, args []string) error {
	log := logger(cmd)

	points, kernel, err := loadPoints()
	if err != nil {
		return err
	}
	kdeConf, err := kdeConfig(cmd)
	if err != nil {
		return err
	}

	config := simgraph.NewConfig()
	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	override(cmd, "epsilon", config.Set, "algorithm.epsilon", epsilon)

	result, err := simgraph.Build(cmd.Context(), points, kernel, kdeConf, config, rand.New(rand.NewPCG(randomSeed, 0)))
	if err != nil {
		return err
	}
	if err := parser.SaveEdgeListFile(outputFile, result.Graph); err != nil {
		return err
	}

	log.Info().
		Str("out", outputFile).
		Int("points", points.Len()).
		Int("edges", result.Edges).
		Float64("scale", result.Scale).
		Msg("Similarity graph written")

	fmt.Fprintf(cmd.OutOrStdout(), "edges: %d\nscale: %g\nsamples_per_point: %d\n",
		result.Edges, result.Scale, result.SamplesPerPoint)
	return nil
}

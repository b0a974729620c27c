package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-approx-engine/pkg/localcluster"
	"github.com/gilchrisn/graph-approx-engine/pkg/parser"
)

func runLocalCluster(cmd *cobra.Command, args []string) error {
	log := logger(cmd)

	g, err := parser.ReadEdgeListFile(graphFile)
	if err != nil {
		return err
	}
	log.Info().
		Str("graph", graphFile).
		Int("vertices", g.NumVertices()).
		Int("edges", g.NumEdges()).
		Msg("Graph loaded")

	out := cmd.OutOrStdout()
	if volume > 0 {
		if len(seedVertex) != 1 {
			return fmt.Errorf("--target-volume needs exactly one seed, got %d", len(seedVertex))
		}
		cluster, err := localcluster.LocalClusterVolume(g, seedVertex[0], volume)
		if err != nil {
			return err
		}
		phi, err := g.Conductance(cluster)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cluster: %v\n", cluster)
		fmt.Fprintf(out, "conductance: %g\n", phi)
		return nil
	}

	config := localcluster.NewConfig()
	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	override(cmd, "alpha", config.Set, "algorithm.alpha", alpha)
	override(cmd, "epsilon", config.Set, "algorithm.epsilon", pushEps)
	override(cmd, "lazy", config.Set, "algorithm.lazy", lazyWalk)

	result, err := localcluster.Run(cmd.Context(), g, seedVertex, config)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "cluster: %v\n", result.Cluster)
	fmt.Fprintf(out, "conductance: %g\n", result.Conductance)
	fmt.Fprintf(out, "volume: %g\n", result.Volume)
	fmt.Fprintf(out, "support: %d\n", result.SupportSize)
	fmt.Fprintf(out, "pushes: %d\n", result.Statistics.Pushes)
	return nil
}

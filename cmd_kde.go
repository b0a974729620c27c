package main

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-approx-engine/pkg/kde"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
	"github.com/gilchrisn/graph-approx-engine/pkg/parser"
)

// loadPoints reads the --points file and resolves the --kernel flags.
func loadPoints() (*models.PointSet, kde.Kernel, error) {
	points, err := parser.ReadPointsFile(pointsFile, pointsIDs)
	if err != nil {
		return nil, nil, err
	}
	kernel, err := kde.NewKernel(kernelName, bandwidth)
	if err != nil {
		return nil, nil, err
	}
	return points, kernel, nil
}

// kdeConfig loads the KDE configuration and applies the accuracy flags.
func kdeConfig(cmd *cobra.Command) (*kde.Config, error) {
	config := kde.NewConfig()
	if configFile != "" {
		if err := config.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	override(cmd, "epsilon", config.Set, "algorithm.epsilon", epsilon)
	override(cmd, "delta", config.Set, "algorithm.delta", delta)
	return config, nil
}

func runKDE(cmd *cobra.Command, args []string) error {
	log := logger(cmd)

	points, kernel, err := loadPoints()
	if err != nil {
		return err
	}
	queries := points
	if queriesFile != "" {
		if queries, err = parser.ReadPointsFile(queriesFile, pointsIDs); err != nil {
			return err
		}
	}

	config, err := kdeConfig(cmd)
	if err != nil {
		return err
	}
	structure, err := kde.Build(cmd.Context(), points, kernel, config, rand.New(rand.NewPCG(randomSeed, 0)))
	if err != nil {
		return err
	}
	defer structure.Invalidate()

	estimates, err := structure.QueryBatch(cmd.Context(), queries.Rows())
	if err != nil {
		return err
	}

	var exact []float64
	if withExact {
		if exact, err = kde.ExactBatch(cmd.Context(), points, kernel, queries.Rows()); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	worst := 0.0
	for i, est := range estimates {
		if exact == nil {
			fmt.Fprintf(out, "%d %g\n", queries.ID(i), est)
			continue
		}
		fmt.Fprintf(out, "%d %g %g\n", queries.ID(i), est, exact[i])
		if exact[i] > 0 {
			worst = math.Max(worst, math.Abs(est-exact[i])/exact[i])
		}
	}

	event := log.Info().
		Int("points", points.Len()).
		Int("queries", queries.Len()).
		Str("kernel", kernel.Name())
	if exact != nil {
		event = event.Float64("max_relative_error", worst)
	}
	event.Msg("KDE queries completed")
	return nil
}

package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configFile string
	logLevel   string

	// shared flags
	graphFile   string
	pointsFile  string
	pointsIDs   bool
	kernelName  string
	bandwidth   float64
	epsilon     float64
	delta       float64
	randomSeed  uint64
	outputFile  string
	seedVertex  []int
	seedPoint   int
	alpha       float64
	pushEps     float64
	lazyWalk    bool
	volume      float64
	queriesFile string
	withExact   bool
	method      string
	numClusters int
	truthFile   string
	serveAddr   string

	rootCmd = &cobra.Command{
		Use:   "graph-approx",
		Short: "Sublinear graph analysis: local clustering, kernel density estimation, similarity graphs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				level = zerolog.InfoLevel
			}
			zerolog.SetGlobalLevel(level)
		},
		SilenceUsage: true,
	}

	localClusterCmd = &cobra.Command{
		Use:   "local-cluster",
		Short: "Find a low-conductance cluster around seed vertices of an edge list",
		RunE:  runLocalCluster, // Defined in cmd_local.go
	}

	kdeCmd = &cobra.Command{
		Use:   "kde",
		Short: "Estimate kernel densities of a point set at query points",
		RunE:  runKDE, // Defined in cmd_kde.go
	}

	simgraphCmd = &cobra.Command{
		Use:   "simgraph",
		Short: "Build a sparse similarity graph of a point set and write it as an edge list",
		RunE:  runSimilarityGraph, // Defined in cmd_simgraph.go
	}

	clusterPointsCmd = &cobra.Command{
		Use:   "cluster-points",
		Short: "Cluster a point set through its similarity graph",
		RunE:  runClusterPoints, // Defined in cmd_cluster.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE:  runServe, // Defined in cmd_serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file for the command's algorithm")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	localClusterCmd.Flags().StringVar(&graphFile, "graph", "", "edge list file")
	localClusterCmd.Flags().IntSliceVar(&seedVertex, "seed", nil, "seed vertices")
	localClusterCmd.Flags().Float64Var(&alpha, "alpha", 0.15, "teleport probability")
	localClusterCmd.Flags().Float64Var(&pushEps, "epsilon", 1e-4, "push threshold")
	localClusterCmd.Flags().BoolVar(&lazyWalk, "lazy", false, "use the lazy random walk")
	localClusterCmd.Flags().Float64Var(&volume, "target-volume", 0, "target cluster volume; overrides alpha and epsilon when positive")
	_ = localClusterCmd.MarkFlagRequired("graph")
	_ = localClusterCmd.MarkFlagRequired("seed")

	for _, cmd := range []*cobra.Command{kdeCmd, simgraphCmd, clusterPointsCmd} {
		cmd.Flags().StringVar(&pointsFile, "points", "", "point file, one point per line")
		cmd.Flags().BoolVar(&pointsIDs, "ids", false, "the first column of the point file is an id")
		cmd.Flags().StringVar(&kernelName, "kernel", "gaussian", "kernel: gaussian or laplacian")
		cmd.Flags().Float64Var(&bandwidth, "bandwidth", 1, "kernel parameter a")
		cmd.Flags().Float64Var(&epsilon, "epsilon", 0.5, "relative accuracy")
		cmd.Flags().Float64Var(&delta, "delta", 0.1, "failure probability")
		cmd.Flags().Uint64Var(&randomSeed, "random-seed", 42, "random seed")
		_ = cmd.MarkFlagRequired("points")
	}

	kdeCmd.Flags().StringVar(&queriesFile, "queries", "", "query point file; defaults to the data points")
	kdeCmd.Flags().BoolVar(&withExact, "exact", false, "also compute exact densities and report the relative error")

	simgraphCmd.Flags().StringVar(&outputFile, "out", "", "output edge list file")
	_ = simgraphCmd.MarkFlagRequired("out")

	clusterPointsCmd.Flags().StringVar(&method, "method", "louvain", "louvain, spectral or local")
	clusterPointsCmd.Flags().IntVar(&numClusters, "k", 2, "number of clusters for spectral clustering")
	clusterPointsCmd.Flags().IntVar(&seedPoint, "seed", 0, "seed point for local clustering")
	clusterPointsCmd.Flags().StringVar(&outputFile, "out", "", "output label file")
	clusterPointsCmd.Flags().StringVar(&truthFile, "truth", "", "ground-truth label file to score against")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address; overrides server.address")

	rootCmd.AddCommand(localClusterCmd, kdeCmd, simgraphCmd, clusterPointsCmd, serveCmd)
}

// override sets key from a flag when no configuration file is given or the
// flag was set explicitly, so explicit flags win over the file.
func override(cmd *cobra.Command, flag string, set func(string, interface{}), key string, value interface{}) {
	if configFile == "" || cmd.Flags().Changed(flag) {
		set(key, value)
	}
}

// logger returns the global logger tagged with the running command.
func logger(cmd *cobra.Command) zerolog.Logger {
	return log.With().Str("command", cmd.Name()).Logger()
}

package api

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/gilchrisn/graph-approx-engine/pkg/localcluster"
	"github.com/gilchrisn/graph-approx-engine/pkg/service"
	"github.com/gilchrisn/graph-approx-engine/pkg/simgraph"
)

// validate checks the struct tags of decoded request bodies.
var validate = validator.New()

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// EdgeRequest is one edge of an uploaded graph. Weight defaults to 1.
type EdgeRequest struct {
	From   int      `json:"from" validate:"gte=0"`
	To     int      `json:"to" validate:"gte=0"`
	Weight *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
}

// CreateGraphRequest uploads a graph. When NumVertices is omitted it is
// inferred from the largest vertex id.
type CreateGraphRequest struct {
	Name        string        `json:"name"`
	NumVertices *int          `json:"num_vertices,omitempty" validate:"omitempty,gte=0"`
	Edges       []EdgeRequest `json:"edges" validate:"dive"`
}

// LocalClusterRequest configures a local clustering run. Omitted parameters
// take the algorithm defaults.
type LocalClusterRequest struct {
	Seeds   []int    `json:"seeds" validate:"required,min=1,dive,gte=0"`
	Alpha   *float64 `json:"alpha,omitempty"`
	Epsilon *float64 `json:"epsilon,omitempty"`
	Lazy    bool     `json:"lazy"`
}

// CreateKDERequest builds a KDE structure over Points.
type CreateKDERequest struct {
	Points    [][]float64 `json:"points" validate:"required,min=1"`
	Kernel    string      `json:"kernel" validate:"required,oneof=gaussian laplacian"`
	Bandwidth float64     `json:"bandwidth" validate:"gt=0"`
	Epsilon   float64     `json:"epsilon" validate:"gt=0,lt=1"`
	Delta     float64     `json:"delta" validate:"gt=0,lt=1"`
	Seed      uint64      `json:"seed"`
}

// QueryKDERequest asks for the density at each query point.
type QueryKDERequest struct {
	Queries [][]float64 `json:"queries"`
}

// QueryKDEResponse holds one estimate per query, in request order.
type QueryKDEResponse struct {
	Estimates []float64 `json:"estimates"`
}

// SimilarityGraphRequest configures similarity graph sampling.
type SimilarityGraphRequest struct {
	Epsilon float64 `json:"epsilon" validate:"gt=0,lt=1"`
	Seed    uint64  `json:"seed"`
}

// SimilarityGraphResponse identifies the registered similarity graph.
type SimilarityGraphResponse struct {
	Graph  *service.GraphEntry `json:"graph"`
	Result *simgraph.Result    `json:"result"`
}

// LocalClusterResponse reports a local clustering result. Conductance is
// null when it is unbounded, as for a cluster holding the whole volume.
type LocalClusterResponse struct {
	GraphID     string                  `json:"graph_id"`
	Cluster     []int                   `json:"cluster"`
	Conductance *float64                `json:"conductance"`
	Volume      float64                 `json:"volume"`
	SupportSize int                     `json:"support_size"`
	Statistics  localcluster.Statistics `json:"statistics"`
}

func newLocalClusterResponse(graphID string, result *localcluster.Result) LocalClusterResponse {
	resp := LocalClusterResponse{
		GraphID:     graphID,
		Cluster:     result.Cluster,
		Volume:      result.Volume,
		SupportSize: result.SupportSize,
		Statistics:  result.Statistics,
	}
	if !math.IsInf(result.Conductance, 0) {
		phi := result.Conductance
		resp.Conductance = &phi
	}
	return resp
}

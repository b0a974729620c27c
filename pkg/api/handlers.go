package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-approx-engine/pkg/graph"
	"github.com/gilchrisn/graph-approx-engine/pkg/localcluster"
	"github.com/gilchrisn/graph-approx-engine/pkg/models"
	"github.com/gilchrisn/graph-approx-engine/pkg/service"
)

// Limits bounds what a single request may make the server allocate.
type Limits struct {
	MaxBodyBytes int64
	MaxVertices  int
}

// DefaultLimits allows 100 MB bodies and graphs of up to five million
// vertices.
func DefaultLimits() Limits {
	return Limits{MaxBodyBytes: 100 << 20, MaxVertices: 5_000_000}
}

// Handlers contains HTTP request handlers
type Handlers struct {
	registry *service.Registry
	limits   Limits
}

// NewHandlers creates new API handlers
func NewHandlers(registry *service.Registry, limits Limits) *Handlers {
	return &Handlers{registry: registry, limits: limits}
}

// decode reads a JSON body of at most MaxBodyBytes into dst and checks its
// validate tags, reporting malformed or out-of-range bodies as invalid
// parameters.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.limits.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid request body: %v", models.ErrInvalidParameter, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidParameter, err)
	}
	return nil
}

// CreateGraph registers an uploaded edge list
func (h *Handlers) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if err := h.decode(w, r, &req); err != nil {
		WriteServiceError(w, "Invalid request body", err)
		return
	}

	edges := make([]graph.Edge, len(req.Edges))
	for i, e := range req.Edges {
		weight := 1.0
		if e.Weight != nil {
			weight = *e.Weight
		}
		edges[i] = graph.Edge{From: e.From, To: e.To, Weight: weight}
	}
	numVertices := -1
	if req.NumVertices != nil {
		numVertices = *req.NumVertices
	}
	if n := vertexCount(numVertices, edges); n > h.limits.MaxVertices {
		WriteServiceError(w, "Graph too large", fmt.Errorf("%w: graph needs %d vertices, limit is %d",
			models.ErrInvalidParameter, n, h.limits.MaxVertices))
		return
	}

	entry, err := h.registry.AddGraph(req.Name, numVertices, edges)
	if err != nil {
		log.Error().Err(err).Msg("Graph upload failed")
		WriteServiceError(w, "Graph upload failed", err)
		return
	}
	WriteSuccessResponse(w, "Graph created successfully", entry)
}

// vertexCount is the vertex count a graph upload asks for: numVertices when
// given, otherwise one more than the largest endpoint.
func vertexCount(numVertices int, edges []graph.Edge) int {
	if numVertices >= 0 {
		return numVertices
	}
	n := 0
	for _, e := range edges {
		n = max(n, e.From+1, e.To+1)
	}
	return n
}

// ListGraphs lists all graphs
func (h *Handlers) ListGraphs(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, "Graphs retrieved successfully", h.registry.ListGraphs())
}

// GetGraph retrieves a specific graph
func (h *Handlers) GetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := mux.Vars(r)["graphId"]

	entry, err := h.registry.GetGraph(graphID)
	if err != nil {
		WriteServiceError(w, "Graph not found", err)
		return
	}
	WriteSuccessResponse(w, "Graph retrieved successfully", entry)
}

// LocalCluster runs a local clustering around the requested seeds
func (h *Handlers) LocalCluster(w http.ResponseWriter, r *http.Request) {
	graphID := mux.Vars(r)["graphId"]

	var req LocalClusterRequest
	if err := h.decode(w, r, &req); err != nil {
		WriteServiceError(w, "Invalid request body", err)
		return
	}

	config := localcluster.NewConfig()
	if req.Alpha != nil {
		config.Set("algorithm.alpha", *req.Alpha)
	}
	if req.Epsilon != nil {
		config.Set("algorithm.epsilon", *req.Epsilon)
	}
	config.Set("algorithm.lazy", req.Lazy)

	result, err := h.registry.LocalCluster(r.Context(), graphID, req.Seeds, config)
	if err != nil {
		log.Error().
			Str("graph_id", graphID).
			Err(err).
			Msg("Local clustering failed")
		WriteServiceError(w, "Local clustering failed", err)
		return
	}

	log.Info().
		Str("graph_id", graphID).
		Int("cluster_size", len(result.Cluster)).
		Float64("conductance", result.Conductance).
		Msg("Local clustering completed")

	WriteSuccessResponse(w, "Local clustering completed", newLocalClusterResponse(graphID, result))
}

// CreateKDE builds a KDE structure
func (h *Handlers) CreateKDE(w http.ResponseWriter, r *http.Request) {
	var req CreateKDERequest
	if err := h.decode(w, r, &req); err != nil {
		WriteServiceError(w, "Invalid request body", err)
		return
	}

	entry, err := h.registry.BuildKDE(r.Context(), req.Points, service.KDEParams{
		Kernel:    req.Kernel,
		Bandwidth: req.Bandwidth,
		Epsilon:   req.Epsilon,
		Delta:     req.Delta,
		Seed:      req.Seed,
	})
	if err != nil {
		log.Error().Err(err).Msg("KDE build failed")
		WriteServiceError(w, "KDE build failed", err)
		return
	}
	WriteSuccessResponse(w, "KDE built successfully", entry)
}

// QueryKDE estimates densities at the requested points
func (h *Handlers) QueryKDE(w http.ResponseWriter, r *http.Request) {
	kdeID := mux.Vars(r)["kdeId"]

	var req QueryKDERequest
	if err := h.decode(w, r, &req); err != nil {
		WriteServiceError(w, "Invalid request body", err)
		return
	}

	estimates, err := h.registry.QueryKDE(r.Context(), kdeID, req.Queries)
	if err != nil {
		WriteServiceError(w, "KDE query failed", err)
		return
	}
	WriteSuccessResponse(w, "KDE query completed", QueryKDEResponse{Estimates: estimates})
}

// DeleteKDE invalidates a KDE structure
func (h *Handlers) DeleteKDE(w http.ResponseWriter, r *http.Request) {
	kdeID := mux.Vars(r)["kdeId"]

	if err := h.registry.InvalidateKDE(kdeID); err != nil {
		WriteServiceError(w, "KDE invalidation failed", err)
		return
	}
	WriteSuccessResponse(w, "KDE invalidated successfully", nil)
}

// SimilarityGraph samples a similarity graph from a KDE structure
func (h *Handlers) SimilarityGraph(w http.ResponseWriter, r *http.Request) {
	kdeID := mux.Vars(r)["kdeId"]

	var req SimilarityGraphRequest
	if err := h.decode(w, r, &req); err != nil {
		WriteServiceError(w, "Invalid request body", err)
		return
	}

	entry, result, err := h.registry.SimilarityGraph(r.Context(), kdeID, req.Epsilon, req.Seed)
	if err != nil {
		log.Error().
			Str("kde_id", kdeID).
			Err(err).
			Msg("Similarity graph failed")
		WriteServiceError(w, "Similarity graph failed", err)
		return
	}
	WriteSuccessResponse(w, "Similarity graph built", SimilarityGraphResponse{Graph: entry, Result: result})
}

// HealthCheck returns server health status
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"graphs":    len(h.registry.ListGraphs()),
	}
	WriteSuccessResponse(w, "Service is healthy", health)
}

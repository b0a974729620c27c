// Package api exposes the graph and KDE operations over HTTP.
package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers every endpoint on router.
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Graph endpoints
	graphs := api.PathPrefix("/graphs").Subrouter()
	graphs.HandleFunc("", handlers.ListGraphs).Methods("GET")
	graphs.HandleFunc("", handlers.CreateGraph).Methods("POST")
	graphs.HandleFunc("/{graphId}", handlers.GetGraph).Methods("GET")
	graphs.HandleFunc("/{graphId}/local-cluster", handlers.LocalCluster).Methods("POST")

	// KDE endpoints
	kdes := api.PathPrefix("/kde").Subrouter()
	kdes.HandleFunc("", handlers.CreateKDE).Methods("POST")
	kdes.HandleFunc("/{kdeId}", handlers.DeleteKDE).Methods("DELETE")
	kdes.HandleFunc("/{kdeId}/query", handlers.QueryKDE).Methods("POST")
	kdes.HandleFunc("/{kdeId}/similarity-graph", handlers.SimilarityGraph).Methods("POST")

	// Health check endpoint
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// NewRouter returns a router with every route and the middleware stack.
func NewRouter(handlers *Handlers) *mux.Router {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(MetricsMiddleware)
	router.Use(CORSMiddleware)
	return router
}

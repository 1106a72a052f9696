package routes

import (
	"ci-orchestrator/api/rest/handlers"
	"ci-orchestrator/core/monitoring"
	"ci-orchestrator/core/repository"
	"ci-orchestrator/core/scheduler"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, db *repository.DB, sched *scheduler.Scheduler, exporter *monitoring.MetricsExporter, monitor *monitoring.BuildMonitor) {
	buildRepo := repository.NewBuildRepository(db)
	modRepo := repository.NewModificationRepository(db)
	eventRepo := repository.NewEventRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)
	buildHandler := handlers.NewBuildHandler(buildRepo, modRepo, eventRepo, artifactRepo, monitor)
	projectHandler := handlers.NewProjectHandler(sched, exporter)

	api := r.PathPrefix("/v1").Subrouter()

	// Build endpoints
	api.HandleFunc("/builds", buildHandler.ListBuilds).Methods("GET")
	api.HandleFunc("/builds/{id}", buildHandler.GetBuild).Methods("GET")
	api.HandleFunc("/builds/{id}/modifications", buildHandler.GetBuildModifications).Methods("GET")
	api.HandleFunc("/builds/{id}/events", buildHandler.GetBuildEvents).Methods("GET")
	api.HandleFunc("/builds/{id}/artifacts", buildHandler.GetBuildArtifacts).Methods("GET")
	api.HandleFunc("/builds/{id}/metrics", buildHandler.GetBuildMetrics).Methods("GET")

	// Project endpoints
	api.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{name}/status", projectHandler.GetProjectStatus).Methods("GET")
	api.HandleFunc("/projects/{name}/force", projectHandler.ForceBuild).Methods("POST")

	r.HandleFunc("/metrics", projectHandler.GetMetrics).Methods("GET")
}

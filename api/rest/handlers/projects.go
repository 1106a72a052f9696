package handlers

import (
	"net/http"

	"ci-orchestrator/core/monitoring"
	"ci-orchestrator/core/scheduler"

	"github.com/gorilla/mux"
)

// ProjectHandler handles project status and control requests
type ProjectHandler struct {
	scheduler *scheduler.Scheduler
	exporter  *monitoring.MetricsExporter
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(sched *scheduler.Scheduler, exporter *monitoring.MetricsExporter) *ProjectHandler {
	return &ProjectHandler{
		scheduler: sched,
		exporter:  exporter,
	}
}

// ListProjects handles GET /v1/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		Name  string `json:"name"`
		State string `json:"state"`
		Tasks int    `json:"tasks"`
	}

	var projects []summary
	for _, project := range h.scheduler.Projects() {
		snapshot := project.Pipeline.Snapshot()
		projects = append(projects, summary{
			Name:  project.Name,
			State: string(snapshot.State),
			Tasks: len(snapshot.Children),
		})
	}

	writeJSON(w, map[string]interface{}{
		"projects":    projects,
		"queue_depth": h.scheduler.QueueDepth(),
	})
}

// GetProjectStatus handles GET /v1/projects/{name}/status
//
// The response is the project's point-in-time status snapshot tree; polling
// it never observes the live pipeline state.
func (h *ProjectHandler) GetProjectStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	project, ok := h.scheduler.Project(name)
	if !ok {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}

	writeJSON(w, project.Pipeline.Snapshot())
}

// ForceBuild handles POST /v1/projects/{name}/force
func (h *ProjectHandler) ForceBuild(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	if err := h.scheduler.Force(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{
		"project": name,
		"status":  "queued",
	})
}

// GetMetrics handles GET /metrics
func (h *ProjectHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.Write([]byte(h.exporter.GetPrometheusMetrics()))
}

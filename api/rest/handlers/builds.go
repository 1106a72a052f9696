package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ci-orchestrator/core/models"
	"ci-orchestrator/core/monitoring"
	"ci-orchestrator/core/repository"

	"github.com/gorilla/mux"
)

// BuildHandler handles build-related HTTP requests
type BuildHandler struct {
	buildRepo    *repository.BuildRepository
	modRepo      *repository.ModificationRepository
	eventRepo    *repository.EventRepository
	artifactRepo *repository.ArtifactRepository
	monitor      *monitoring.BuildMonitor
}

// NewBuildHandler creates a new build handler
func NewBuildHandler(
	buildRepo *repository.BuildRepository,
	modRepo *repository.ModificationRepository,
	eventRepo *repository.EventRepository,
	artifactRepo *repository.ArtifactRepository,
	monitor *monitoring.BuildMonitor,
) *BuildHandler {
	return &BuildHandler{
		buildRepo:    buildRepo,
		modRepo:      modRepo,
		eventRepo:    eventRepo,
		artifactRepo: artifactRepo,
		monitor:      monitor,
	}
}

// ListBuilds handles GET /v1/builds
func (h *BuildHandler) ListBuilds(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("project")

	var status *models.BuildStatus
	if s := r.URL.Query().Get("status"); s != "" {
		bs := models.BuildStatus(s)
		status = &bs
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	builds, err := h.buildRepo.ListBuilds(project, status, limit)
	if err != nil {
		http.Error(w, "Failed to list builds: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"builds": builds,
		"count":  len(builds),
	})
}

// GetBuild handles GET /v1/builds/{id}
func (h *BuildHandler) GetBuild(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	buildID := vars["id"]

	build, err := h.buildRepo.GetBuild(buildID)
	if err != nil {
		http.Error(w, "Build not found", http.StatusNotFound)
		return
	}

	writeJSON(w, build)
}

// GetBuildModifications handles GET /v1/builds/{id}/modifications
func (h *BuildHandler) GetBuildModifications(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	buildID := vars["id"]

	mods, err := h.modRepo.GetModificationsByBuildID(buildID)
	if err != nil {
		http.Error(w, "Failed to fetch modifications: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"build_id":      buildID,
		"modifications": mods,
		"count":         len(mods),
	})
}

// GetBuildEvents handles GET /v1/builds/{id}/events
func (h *BuildHandler) GetBuildEvents(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	buildID := vars["id"]

	events, err := h.eventRepo.GetBuildEvents(buildID, 100)
	if err != nil {
		http.Error(w, "Failed to fetch events: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"build_id": buildID,
		"events":   events,
	})
}

// GetBuildArtifacts handles GET /v1/builds/{id}/artifacts
func (h *BuildHandler) GetBuildArtifacts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	buildID := vars["id"]

	artifacts, err := h.artifactRepo.GetBuildArtifacts(buildID, nil)
	if err != nil {
		http.Error(w, "Failed to fetch artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"build_id":  buildID,
		"artifacts": artifacts,
	})
}

// GetBuildMetrics handles GET /v1/builds/{id}/metrics
func (h *BuildHandler) GetBuildMetrics(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	buildID := vars["id"]

	metrics, err := h.monitor.GetBuildMetrics(buildID)
	if err != nil {
		http.Error(w, "Failed to fetch build metrics: "+err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, metrics)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

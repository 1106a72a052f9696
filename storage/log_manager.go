package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"ci-orchestrator/core/models"
	"ci-orchestrator/core/repository"
)

// LogManager manages build log storage and retrieval
type LogManager struct {
	artifactRepo *repository.ArtifactRepository
	root         string
}

// NewLogManager creates a new log manager rooted at the given directory
func NewLogManager(artifactRepo *repository.ArtifactRepository, root string) *LogManager {
	return &LogManager{
		artifactRepo: artifactRepo,
		root:         root,
	}
}

// SaveBuildLog writes the combined build log under the artifact root and
// records it as a log artifact. Returns the stored log's URI.
func (lm *LogManager) SaveBuildLog(ctx context.Context, buildID, content string) (string, error) {
	dir := filepath.Join(lm.root, buildID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}

	path := filepath.Join(dir, "build.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write build log: %w", err)
	}

	uri := "file://" + path
	meta := map[string]interface{}{
		"bytes": len(content),
	}
	if err := lm.artifactRepo.CreateArtifact(buildID, models.ArtifactTypeLog, uri, meta); err != nil {
		return "", err
	}

	return uri, nil
}

// GetLatestLog retrieves the most recent log artifact URI for a build
func (lm *LogManager) GetLatestLog(ctx context.Context, buildID string) (string, error) {
	logType := models.ArtifactTypeLog
	artifacts, err := lm.artifactRepo.GetBuildArtifacts(buildID, &logType)
	if err != nil {
		return "", err
	}
	if len(artifacts) == 0 {
		return "", fmt.Errorf("no log found for build %s", buildID)
	}

	// Artifacts come back newest first
	return artifacts[0].URI, nil
}

// ListLogs lists all log artifacts for a build
func (lm *LogManager) ListLogs(ctx context.Context, buildID string) ([]models.BuildArtifact, error) {
	logType := models.ArtifactTypeLog
	return lm.artifactRepo.GetBuildArtifacts(buildID, &logType)
}

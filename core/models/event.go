package models

import "time"

// BuildEvent represents a state transition event for a build
type BuildEvent struct {
	ID         int64
	BuildID    string
	At         time.Time
	FromStatus *BuildStatus
	ToStatus   BuildStatus
	Reason     string
	MetaJSON   map[string]interface{} // Additional metadata
}

// ArtifactType represents the type of build artifact
type ArtifactType string

const (
	ArtifactTypeLog    ArtifactType = "log"
	ArtifactTypeOutput ArtifactType = "output"
)

// BuildArtifact represents a build artifact (task log, packaged output, etc.)
type BuildArtifact struct {
	ID        int64
	BuildID   string
	Type      ArtifactType
	URI       string
	CreatedAt time.Time
	MetaJSON  map[string]interface{}
}

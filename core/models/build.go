package models

import "time"

// Build represents one pipeline run for a project
type Build struct {
	ID                string
	ProjectName       string
	Label             string
	Trigger           BuildTrigger
	Status            BuildStatus
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	UpdatedAt         time.Time
	Error             string
	ModificationCount int
}

// BuildStatus represents the current status of a build
type BuildStatus string

const (
	BuildStatusPending   BuildStatus = "pending"
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusSucceeded BuildStatus = "succeeded"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusException BuildStatus = "exception"
)

// BuildTrigger represents what started a build
type BuildTrigger string

const (
	TriggerModification BuildTrigger = "modification"
	TriggerForced       BuildTrigger = "forced"
	TriggerFilesystem   BuildTrigger = "filesystem"
)

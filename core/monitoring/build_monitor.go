package monitoring

import (
	"context"
	"fmt"
	"log"
	"time"

	"ci-orchestrator/core/models"
	"ci-orchestrator/core/pipeline"
	"ci-orchestrator/core/repository"
	"ci-orchestrator/core/scheduler"
)

// BuildMonitor polls build and pipeline state for external observation
type BuildMonitor struct {
	buildRepo *repository.BuildRepository
	scheduler *scheduler.Scheduler
}

// NewBuildMonitor creates a new build monitor
func NewBuildMonitor(buildRepo *repository.BuildRepository, sched *scheduler.Scheduler) *BuildMonitor {
	return &BuildMonitor{
		buildRepo: buildRepo,
		scheduler: sched,
	}
}

// Start starts the build monitoring loop
func (bm *BuildMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.monitorRunningBuilds()
			bm.monitorPipelines()
		}
	}
}

// monitorRunningBuilds reports builds that are persisted as running
func (bm *BuildMonitor) monitorRunningBuilds() {
	if bm.buildRepo == nil {
		return
	}

	status := models.BuildStatusRunning
	builds, err := bm.buildRepo.ListBuilds("", &status, 100)
	if err != nil {
		log.Printf("Failed to fetch running builds: %v", err)
		return
	}

	for _, build := range builds {
		if build.StartedAt == nil {
			continue
		}
		log.Printf("Build %s (%s/%s) running for %v",
			build.ID, build.ProjectName, build.Label, time.Since(*build.StartedAt).Round(time.Second))
	}
}

// monitorPipelines polls each project's status snapshot and reports tasks
// running past their estimated completion
func (bm *BuildMonitor) monitorPipelines() {
	for _, project := range bm.scheduler.Projects() {
		snapshot := project.Pipeline.Snapshot()
		reportOverdue(project.Name, snapshot)
	}
}

// reportOverdue walks a status tree looking for overdue running tasks
func reportOverdue(projectName string, status *pipeline.TaskStatus) {
	if status.State == pipeline.TaskStateRunning &&
		status.EstimatedCompletionAt != nil &&
		time.Now().After(*status.EstimatedCompletionAt) {
		log.Printf("WARNING: %s task %q past estimated completion (%v overdue)",
			projectName, status.Name, time.Since(*status.EstimatedCompletionAt).Round(time.Second))
	}

	for _, child := range status.Children {
		reportOverdue(projectName, child)
	}
}

// BuildMetrics represents build monitoring metrics
type BuildMetrics struct {
	BuildID        string             `json:"build_id"`
	ProjectName    string             `json:"project_name"`
	Status         models.BuildStatus `json:"status"`
	StartTime      *time.Time         `json:"start_time,omitempty"`
	ElapsedTime    time.Duration      `json:"-"`
	ElapsedSeconds float64            `json:"elapsed_seconds"`
}

// GetBuildMetrics returns metrics for a build
func (bm *BuildMonitor) GetBuildMetrics(buildID string) (*BuildMetrics, error) {
	if bm.buildRepo == nil {
		return nil, fmt.Errorf("build metrics unavailable without persistence")
	}

	build, err := bm.buildRepo.GetBuild(buildID)
	if err != nil {
		return nil, err
	}

	metrics := &BuildMetrics{
		BuildID:     buildID,
		ProjectName: build.ProjectName,
		Status:      build.Status,
		StartTime:   build.StartedAt,
	}

	switch {
	case build.StartedAt != nil && build.CompletedAt != nil:
		metrics.ElapsedTime = build.CompletedAt.Sub(*build.StartedAt)
	case build.StartedAt != nil:
		metrics.ElapsedTime = time.Since(*build.StartedAt)
	}
	metrics.ElapsedSeconds = metrics.ElapsedTime.Seconds()

	return metrics, nil
}

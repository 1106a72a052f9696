package monitoring

import (
	"fmt"

	"ci-orchestrator/core/models"
	"ci-orchestrator/core/pipeline"
	"ci-orchestrator/core/repository"
	"ci-orchestrator/core/scheduler"
)

// MetricsExporter exports metrics for Prometheus/Grafana
type MetricsExporter struct {
	buildRepo *repository.BuildRepository
	scheduler *scheduler.Scheduler
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(buildRepo *repository.BuildRepository, sched *scheduler.Scheduler) *MetricsExporter {
	return &MetricsExporter{
		buildRepo: buildRepo,
		scheduler: sched,
	}
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics() string {
	var metrics string

	// Queue depth
	metrics += "# HELP ci_build_queue_depth Number of builds waiting to run\n"
	metrics += "# TYPE ci_build_queue_depth gauge\n"
	metrics += fmt.Sprintf("ci_build_queue_depth %d\n", me.scheduler.QueueDepth())

	// Per-project pipeline state
	metrics += "# HELP ci_pipeline_running Whether a project's pipeline is currently running\n"
	metrics += "# TYPE ci_pipeline_running gauge\n"
	for _, project := range me.scheduler.Projects() {
		running := 0
		if project.Pipeline.Snapshot().State == pipeline.TaskStateRunning {
			running = 1
		}
		metrics += fmt.Sprintf("ci_pipeline_running{project=\"%s\"} %d\n", project.Name, running)
	}

	if me.buildRepo == nil {
		return metrics
	}

	// Recent build outcomes and durations per project
	metrics += "# HELP ci_builds_recent Recent builds by project and status\n"
	metrics += "# TYPE ci_builds_recent gauge\n"
	counts := make(map[string]map[models.BuildStatus]int)
	durations := make(map[string]float64)
	completed := make(map[string]int)

	builds, err := me.buildRepo.ListBuilds("", nil, 500)
	if err != nil {
		return metrics
	}
	for _, build := range builds {
		if counts[build.ProjectName] == nil {
			counts[build.ProjectName] = make(map[models.BuildStatus]int)
		}
		counts[build.ProjectName][build.Status]++

		if build.StartedAt != nil && build.CompletedAt != nil {
			durations[build.ProjectName] += build.CompletedAt.Sub(*build.StartedAt).Seconds()
			completed[build.ProjectName]++
		}
	}

	for project, byStatus := range counts {
		for status, count := range byStatus {
			metrics += fmt.Sprintf("ci_builds_recent{project=\"%s\",status=\"%s\"} %d\n", project, status, count)
		}
	}

	metrics += "# HELP ci_build_duration_seconds_mean Mean duration of recent completed builds\n"
	metrics += "# TYPE ci_build_duration_seconds_mean gauge\n"
	for project, total := range durations {
		metrics += fmt.Sprintf("ci_build_duration_seconds_mean{project=\"%s\"} %.2f\n", project, total/float64(completed[project]))
	}

	return metrics
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"ci-orchestrator/core/models"
	"ci-orchestrator/core/pipeline"
	"ci-orchestrator/core/repository"
	"ci-orchestrator/core/sourcecontrol"
	"ci-orchestrator/storage"
)

// Scheduler polls project sources for modifications and runs the resulting
// builds, one at a time per scheduler.
type Scheduler struct {
	buildRepo *repository.BuildRepository
	modRepo   *repository.ModificationRepository
	logs      *storage.LogManager

	projects map[string]*Project
	queue    *BuildQueue
	interval time.Duration
	stopChan chan struct{}
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler. The repositories and log manager may
// be nil, in which case builds still run but nothing is persisted.
func NewScheduler(
	buildRepo *repository.BuildRepository,
	modRepo *repository.ModificationRepository,
	logs *storage.LogManager,
	interval time.Duration,
) *Scheduler {
	return &Scheduler{
		buildRepo: buildRepo,
		modRepo:   modRepo,
		logs:      logs,
		projects:  make(map[string]*Project),
		queue:     NewBuildQueue(),
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// AddProject registers a project with the scheduler
func (s *Scheduler) AddProject(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.Name] = p
}

// Project looks up a registered project by name
func (s *Scheduler) Project(name string) (*Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[name]
	return p, ok
}

// Projects returns the registered projects
func (s *Scheduler) Projects() []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out
}

// QueueDepth returns the number of builds waiting to run
func (s *Scheduler) QueueDepth() int {
	return s.queue.Depth()
}

// Start starts the scheduler worker
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.pollProjects(ctx)
			s.processQueue(ctx)
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// Force enqueues a build for the named project regardless of modifications
func (s *Scheduler) Force(projectName string) error {
	project, ok := s.Project(projectName)
	if !ok {
		return fmt.Errorf("unknown project %q", projectName)
	}

	s.queue.Enqueue(&BuildRequest{
		Project: project,
		Trigger: models.TriggerForced,
	})
	return nil
}

// pollProjects checks every project source for new modifications
func (s *Scheduler) pollProjects(ctx context.Context) {
	for _, project := range s.Projects() {
		if mods := project.DrainWatcher(); len(mods) > 0 {
			s.queue.Enqueue(&BuildRequest{
				Project:       project,
				Trigger:       models.TriggerFilesystem,
				Modifications: mods,
			})
			continue
		}

		if project.Source == nil {
			continue
		}

		// The parser window is inclusive on both ends; nudge the lower bound
		// so a modification at a prior poll's upper bound is not built twice.
		now := time.Now()
		mods, err := s.detectModifications(ctx, project, project.LastIntegrated().Add(time.Nanosecond), now)
		if err != nil {
			log.Printf("Failed to poll project %s: %v", project.Name, err)
			continue
		}
		project.MarkIntegrated(now)

		if len(mods) == 0 {
			continue
		}

		log.Printf("Project %s: %d modifications detected", project.Name, len(mods))
		s.queue.Enqueue(&BuildRequest{
			Project:       project,
			Trigger:       models.TriggerModification,
			Modifications: mods,
		})
	}
}

// detectModifications retrieves and parses one project's history window
func (s *Scheduler) detectModifications(ctx context.Context, project *Project, from, to time.Time) ([]*models.Modification, error) {
	raw, err := project.Source.History(ctx, from, to)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	return sourcecontrol.ParseHistory(raw, from, to)
}

// processQueue runs queued builds until the queue drains
func (s *Scheduler) processQueue(ctx context.Context) {
	for {
		req := s.queue.PopRequest()
		if req == nil {
			return
		}
		s.runBuild(ctx, req)
	}
}

// runBuild executes one build request through the project's pipeline
func (s *Scheduler) runBuild(ctx context.Context, req *BuildRequest) {
	project := req.Project
	build := &models.Build{
		ProjectName:       project.Name,
		Label:             project.NextLabel(),
		Trigger:           req.Trigger,
		Status:            models.BuildStatusPending,
		ModificationCount: len(req.Modifications),
	}

	if s.buildRepo != nil {
		if err := s.buildRepo.CreateBuild(build); err != nil {
			log.Printf("Failed to create build for %s: %v", project.Name, err)
			return
		}
		if err := s.buildRepo.UpdateBuildStatus(build.ID, models.BuildStatusPending, models.BuildStatusRunning, "build_started", nil); err != nil {
			log.Printf("Failed to update build status: %v", err)
		}
	}
	if s.modRepo != nil && build.ID != "" {
		if err := s.modRepo.CreateModifications(build.ID, req.Modifications); err != nil {
			log.Printf("Failed to store modifications for build %s: %v", build.ID, err)
		}
	}

	log.Printf("Project %s: build %s starting (trigger: %s)", project.Name, build.Label, req.Trigger)
	result := project.Pipeline.Run(build.ID, build.Label, project.Values)

	status, reason := buildOutcome(result.Status)
	if s.buildRepo != nil && build.ID != "" {
		if result.Status == pipeline.IntegrationException {
			if err := s.buildRepo.SetBuildError(build.ID, lastOutput(result)); err != nil {
				log.Printf("Failed to record build error: %v", err)
			}
		}
		if err := s.buildRepo.UpdateBuildStatus(build.ID, models.BuildStatusRunning, status, reason, map[string]interface{}{
			"modifications": len(req.Modifications),
		}); err != nil {
			log.Printf("Failed to update build status: %v", err)
		}
	}
	if s.logs != nil && build.ID != "" {
		if _, err := s.logs.SaveBuildLog(ctx, build.ID, result.CombinedOutput()); err != nil {
			log.Printf("Failed to save build log for %s: %v", build.ID, err)
		}
	}

	log.Printf("Project %s: build %s finished %s", project.Name, build.Label, status)
}

// buildOutcome maps an aggregate integration status onto a build status
func buildOutcome(status pipeline.IntegrationStatus) (models.BuildStatus, string) {
	switch status {
	case pipeline.IntegrationSuccess:
		return models.BuildStatusSucceeded, "pipeline_succeeded"
	case pipeline.IntegrationException:
		return models.BuildStatusException, "task_raised"
	default:
		return models.BuildStatusFailed, "pipeline_failed"
	}
}

// lastOutput returns the most recent task output, used as the error summary
func lastOutput(result *pipeline.IntegrationResult) string {
	if len(result.Outputs) == 0 {
		return "pipeline raised with no output"
	}
	return result.Outputs[len(result.Outputs)-1].Output
}

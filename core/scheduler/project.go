package scheduler

import (
	"fmt"
	"time"

	"ci-orchestrator/core/models"
	"ci-orchestrator/core/pipeline"
	"ci-orchestrator/core/sourcecontrol"
)

// Project is one tracked source repository and the pipeline it drives
type Project struct {
	Name         string
	Source       sourcecontrol.HistorySource
	Watcher      *sourcecontrol.WorkspaceWatcher // Optional filesystem trigger
	PollInterval time.Duration
	Values       map[string]string // External name -> value map for binders
	Pipeline     *pipeline.Runner

	lastIntegrated time.Time
	buildCount     int
}

// NewProject creates a project polling from the given history source
func NewProject(name string, source sourcecontrol.HistorySource, runner *pipeline.Runner) *Project {
	return &Project{
		Name:           name,
		Source:         source,
		PollInterval:   time.Minute,
		Pipeline:       runner,
		lastIntegrated: time.Now(),
	}
}

// NextLabel advances and returns the project's build label
func (p *Project) NextLabel() string {
	p.buildCount++
	return fmt.Sprintf("%d", p.buildCount)
}

// LastIntegrated returns the upper bound of the last polled window
func (p *Project) LastIntegrated() time.Time {
	return p.lastIntegrated
}

// MarkIntegrated records the upper bound of the polled window
func (p *Project) MarkIntegrated(t time.Time) {
	p.lastIntegrated = t
}

// DrainWatcher collects any filesystem modifications delivered since the
// last poll. Projects without a watcher always drain empty.
func (p *Project) DrainWatcher() []*models.Modification {
	if p.Watcher == nil {
		return nil
	}

	var mods []*models.Modification
	for {
		select {
		case mod := <-p.Watcher.Modifications():
			mods = append(mods, mod)
		default:
			return mods
		}
	}
}

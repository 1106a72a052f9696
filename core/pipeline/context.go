package pipeline

import "time"

// TaskOutcomeRecord correlates one task with its owning build before the
// task starts, keyed by the task's declared type identifier and effective
// description.
type TaskOutcomeRecord struct {
	TypeID      string
	Description string
	CreatedAt   time.Time
}

// TaskContext correlates tasks with the pipeline run that owns them. Each
// task registers an outcome record here before it runs, so monitors can
// attribute output to a task even if the run dies midway.
type TaskContext struct {
	ProjectName string
	BuildID     string
	records     []TaskOutcomeRecord
}

// NewTaskContext creates a context for one build of a project
func NewTaskContext(projectName, buildID string) *TaskContext {
	return &TaskContext{
		ProjectName: projectName,
		BuildID:     buildID,
	}
}

// InitializeResult registers a correlated outcome record for a task
func (tc *TaskContext) InitializeResult(typeID, description string) {
	tc.records = append(tc.records, TaskOutcomeRecord{
		TypeID:      typeID,
		Description: description,
		CreatedAt:   time.Now(),
	})
}

// Records returns the outcome records registered so far
func (tc *TaskContext) Records() []TaskOutcomeRecord {
	return tc.records
}

package pipeline

import (
	"log"

	"github.com/google/uuid"
)

// Runner executes a project's tasks in order, one run at a time. It owns
// task ordering and the stop-on-failure policy; the engines own per-task
// lifecycle.
type Runner struct {
	projectName string
	rootID      string
	tasks       []*Engine
	definitions []ParameterDefinition
}

// NewRunner creates a runner over the project's ordered tasks
func NewRunner(projectName string, tasks []*Engine, definitions []ParameterDefinition) *Runner {
	return &Runner{
		projectName: projectName,
		rootID:      uuid.New().String(),
		tasks:       tasks,
		definitions: definitions,
	}
}

// Tasks returns the ordered task engines
func (r *Runner) Tasks() []*Engine {
	return r.tasks
}

// Run executes the pipeline for one build: every task gets the run context
// and its parameters before running. The first handled failure stops the
// pipeline and fails the result; an escaping task error stops it with the
// result already forced to exception.
func (r *Runner) Run(buildID, label string, values map[string]string) *IntegrationResult {
	result := NewIntegrationResult(r.projectName, buildID, label)
	ctx := NewTaskContext(r.projectName, buildID)

	for _, task := range r.tasks {
		if err := task.AssociateContext(ctx); err != nil {
			// Unreachable with a fresh context; treated as an exception anyway.
			result.Status = IntegrationException
			log.Printf("Build %s: task %s rejected context: %v", buildID, task.Name(), err)
			return result
		}

		if err := task.ApplyParameters(values, r.definitions); err != nil {
			result.Status = IntegrationException
			result.AddOutput(task.Name(), err.Error())
			log.Printf("Build %s: parameter binding failed for %s: %v", buildID, task.Name(), err)
			return result
		}

		if err := task.Run(result); err != nil {
			log.Printf("Build %s: task %s raised: %v", buildID, task.Name(), err)
			return result
		}

		if snap := task.GenerateSnapshot(); snap.State == TaskStateCompletedFailed {
			// A later task never runs after a failure; the aggregate reflects
			// the failed task even if an earlier one already marked success.
			result.Status = IntegrationFailure
			return result
		}
	}

	return result
}

// Snapshot publishes the pipeline's current status tree under a project root
func (r *Runner) Snapshot() *TaskStatus {
	root := NewTaskStatus(r.projectName, "")
	root.ID = r.rootID
	for _, task := range r.tasks {
		root.AddChild(task.GenerateSnapshot())
	}

	root.State = summarizeChildren(root.Children)
	return root
}

func summarizeChildren(children []*TaskStatus) TaskState {
	state := TaskStatePending
	allSuccess := len(children) > 0
	for _, child := range children {
		switch child.State {
		case TaskStateRunning:
			return TaskStateRunning
		case TaskStateCompletedFailed:
			return TaskStateCompletedFailed
		case TaskStateCompletedSuccess:
		default:
			allSuccess = false
		}
	}
	if allSuccess {
		return TaskStateCompletedSuccess
	}
	return state
}

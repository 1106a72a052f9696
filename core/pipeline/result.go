package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// IntegrationStatus is the aggregate outcome of one pipeline run
type IntegrationStatus string

const (
	IntegrationUnknown   IntegrationStatus = "unknown"
	IntegrationSuccess   IntegrationStatus = "success"
	IntegrationFailure   IntegrationStatus = "failure"
	IntegrationException IntegrationStatus = "exception"
)

// TaskOutput is one task's contribution to the run's output sink
type TaskOutput struct {
	TaskName string
	Output   string
	At       time.Time
}

// IntegrationResult is the outcome holder threaded through a pipeline run.
// Tasks report into it; the engine resolves the aggregate status.
type IntegrationResult struct {
	ProjectName string
	BuildID     string
	Label       string
	Status      IntegrationStatus
	StartedAt   time.Time
	Outputs     []TaskOutput
}

// NewIntegrationResult creates a result for one build of a project
func NewIntegrationResult(projectName, buildID, label string) *IntegrationResult {
	return &IntegrationResult{
		ProjectName: projectName,
		BuildID:     buildID,
		Label:       label,
		Status:      IntegrationUnknown,
		StartedAt:   time.Now(),
	}
}

// AddOutput appends task output to the run's sink
func (r *IntegrationResult) AddOutput(taskName, output string) {
	r.Outputs = append(r.Outputs, TaskOutput{
		TaskName: taskName,
		Output:   output,
		At:       time.Now(),
	})
}

// Succeeded reports whether the run finished without failure or exception
func (r *IntegrationResult) Succeeded() bool {
	return r.Status == IntegrationSuccess
}

// CombinedOutput renders the output sink as one log document
func (r *IntegrationResult) CombinedOutput() string {
	var b strings.Builder
	for _, out := range r.Outputs {
		fmt.Fprintf(&b, "=== %s (%s)\n%s\n", out.TaskName, out.At.Format(time.RFC3339), out.Output)
	}
	return b.String()
}

package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// TaskState represents the lifecycle state of a task
type TaskState string

const (
	TaskStatePending          TaskState = "pending"
	TaskStateRunning          TaskState = "running"
	TaskStateCompletedSuccess TaskState = "completed_success"
	TaskStateCompletedFailed  TaskState = "completed_failed"
)

// Terminal reports whether the state is terminal
func (s TaskState) Terminal() bool {
	return s == TaskStateCompletedSuccess || s == TaskStateCompletedFailed
}

// TaskStatus holds the lifecycle and timing fields for one task. The engine
// mutates its own private instance; observers only ever receive clones.
type TaskStatus struct {
	ID                    string       `json:"id"`
	Name                  string       `json:"name"`
	Description           string       `json:"description,omitempty"`
	State                 TaskState    `json:"state"`
	StartedAt             *time.Time   `json:"started_at,omitempty"`
	CompletedAt           *time.Time   `json:"completed_at,omitempty"`
	EstimatedCompletionAt *time.Time   `json:"estimated_completion_at,omitempty"`
	Error                 string       `json:"error,omitempty"`
	Children              []*TaskStatus `json:"children,omitempty"`
}

// NewTaskStatus creates a pending status with a fresh identity
func NewTaskStatus(name, description string) *TaskStatus {
	return &TaskStatus{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		State:       TaskStatePending,
	}
}

// Clone deep-copies the status tree so a concurrently polling observer can
// never see a partially written update.
func (ts *TaskStatus) Clone() *TaskStatus {
	if ts == nil {
		return nil
	}

	clone := *ts
	clone.StartedAt = cloneTime(ts.StartedAt)
	clone.CompletedAt = cloneTime(ts.CompletedAt)
	clone.EstimatedCompletionAt = cloneTime(ts.EstimatedCompletionAt)

	if len(ts.Children) > 0 {
		clone.Children = make([]*TaskStatus, len(ts.Children))
		for i, child := range ts.Children {
			clone.Children[i] = child.Clone()
		}
	}

	return &clone
}

// AddChild appends a child status, preserving order
func (ts *TaskStatus) AddChild(child *TaskStatus) {
	ts.Children = append(ts.Children, child)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ci-orchestrator/core/pipeline"
	"ci-orchestrator/core/sourcecontrol"
)

type recordingExecutor struct {
	success bool
	calls   int
}

func (e *recordingExecutor) Execute(result *pipeline.IntegrationResult) (bool, error) {
	e.calls++
	result.AddOutput("recorded", "done")
	return e.success, nil
}

func newTestProject(t *testing.T, name string, source sourcecontrol.HistorySource, exec *recordingExecutor) *Project {
	t.Helper()
	engine := pipeline.NewEngine("recorded", "recorded", "", exec)
	runner := pipeline.NewRunner(name, []*pipeline.Engine{engine}, nil)
	return NewProject(name, source, runner)
}

func writeHistoryFixture(t *testing.T, modifiedAt time.Time) string {
	t.Helper()
	ts := modifiedAt.UTC().Format("02-Jan-2006.15:04:05")
	entry := fmt.Sprintf("anna#~#%s#~#src/main.c#~#3#~#checkin#~#note#~#note2#~#fix overflow", ts)

	path := filepath.Join(t.TempDir(), "history.txt")
	if err := os.WriteFile(path, []byte(entry), 0644); err != nil {
		t.Fatalf("failed to write history fixture: %v", err)
	}
	return path
}

func TestForce_UnknownProject(t *testing.T) {
	sched := NewScheduler(nil, nil, nil, time.Minute)
	if err := sched.Force("nope"); err == nil {
		t.Fatalf("Force on unknown project did not error")
	}
}

func TestForce_EnqueuesBuild(t *testing.T) {
	sched := NewScheduler(nil, nil, nil, time.Minute)
	sched.AddProject(newTestProject(t, "acme", nil, &recordingExecutor{success: true}))

	if err := sched.Force("acme"); err != nil {
		t.Fatalf("Force failed: %v", err)
	}
	if depth := sched.QueueDepth(); depth != 1 {
		t.Fatalf("queue depth = %d, want 1", depth)
	}
}

func TestPollProjects_EnqueuesOnModification(t *testing.T) {
	path := writeHistoryFixture(t, time.Now().Add(-time.Minute))

	sched := NewScheduler(nil, nil, nil, time.Minute)
	exec := &recordingExecutor{success: true}
	project := newTestProject(t, "acme", &sourcecontrol.FileHistorySource{Path: path}, exec)
	project.MarkIntegrated(time.Now().Add(-time.Hour))
	sched.AddProject(project)

	sched.pollProjects(context.Background())
	if depth := sched.QueueDepth(); depth != 1 {
		t.Fatalf("queue depth = %d, want 1", depth)
	}

	// A second poll sees no new modifications past the advanced window
	sched.pollProjects(context.Background())
	if depth := sched.QueueDepth(); depth != 1 {
		t.Fatalf("queue depth after second poll = %d, want 1", depth)
	}
}

func TestPollProjects_LowerBoundExclusive(t *testing.T) {
	boundary := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	path := writeHistoryFixture(t, boundary)

	sched := NewScheduler(nil, nil, nil, time.Minute)
	project := newTestProject(t, "acme", &sourcecontrol.FileHistorySource{Path: path}, &recordingExecutor{success: true})
	project.MarkIntegrated(boundary)
	sched.AddProject(project)

	// The modification sits exactly at the prior window's upper bound; the
	// next poll must not build it a second time.
	sched.pollProjects(context.Background())
	if depth := sched.QueueDepth(); depth != 0 {
		t.Fatalf("queue depth = %d, want 0 for a boundary-timestamped modification", depth)
	}
}

func TestProcessQueue_RunsBuildWithoutPersistence(t *testing.T) {
	sched := NewScheduler(nil, nil, nil, time.Minute)
	exec := &recordingExecutor{success: true}
	project := newTestProject(t, "acme", nil, exec)
	sched.AddProject(project)

	if err := sched.Force("acme"); err != nil {
		t.Fatalf("Force failed: %v", err)
	}
	sched.processQueue(context.Background())

	if exec.calls != 1 {
		t.Fatalf("executor calls = %d, want 1", exec.calls)
	}
	if depth := sched.QueueDepth(); depth != 0 {
		t.Fatalf("queue depth = %d, want 0 after drain", depth)
	}

	snap := project.Pipeline.Snapshot()
	if len(snap.Children) != 1 || snap.Children[0].State != pipeline.TaskStateCompletedSuccess {
		t.Fatalf("pipeline snapshot = %+v, want one successful task", snap)
	}
}

func TestBuildOutcome_Mapping(t *testing.T) {
	tests := []struct {
		status pipeline.IntegrationStatus
		want   string
	}{
		{pipeline.IntegrationSuccess, "succeeded"},
		{pipeline.IntegrationFailure, "failed"},
		{pipeline.IntegrationException, "exception"},
		{pipeline.IntegrationUnknown, "failed"},
	}

	for _, tt := range tests {
		got, _ := buildOutcome(tt.status)
		if string(got) != tt.want {
			t.Fatalf("buildOutcome(%s) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

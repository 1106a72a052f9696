package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type stubExecutor struct {
	success bool
	err     error
	calls   int
	delay   time.Duration
}

func (s *stubExecutor) Execute(result *IntegrationResult) (bool, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.success, s.err
}

func TestEngineRun_TerminalStateOnEveryPath(t *testing.T) {
	tests := []struct {
		name      string
		executor  *stubExecutor
		wantState TaskState
		wantErr   bool
	}{
		{"success", &stubExecutor{success: true}, TaskStateCompletedSuccess, false},
		{"handled failure", &stubExecutor{success: false}, TaskStateCompletedFailed, false},
		{"escaping failure", &stubExecutor{err: errors.New("boom")}, TaskStateCompletedFailed, true},
		{"success flag with escaping error", &stubExecutor{success: true, err: errors.New("boom")}, TaskStateCompletedFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine("stub", "task", "", tt.executor)
			result := NewIntegrationResult("proj", "build-1", "1")

			err := engine.Run(result)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run error = %v, wantErr %v", err, tt.wantErr)
			}

			snap := engine.GenerateSnapshot()
			if snap.State != tt.wantState {
				t.Fatalf("state = %s, want %s", snap.State, tt.wantState)
			}
			if !snap.State.Terminal() {
				t.Fatalf("state %s is not terminal after Run returned", snap.State)
			}
			if snap.CompletedAt == nil {
				t.Fatalf("completed time not set after Run returned")
			}
			if snap.StartedAt == nil || snap.CompletedAt.Before(*snap.StartedAt) {
				t.Fatalf("completed %v before started %v", snap.CompletedAt, snap.StartedAt)
			}
		})
	}
}

func TestEngineRun_EscapingFailurePropagates(t *testing.T) {
	boom := errors.New("tool crashed")
	engine := NewEngine("stub", "task", "", &stubExecutor{err: boom})
	result := NewIntegrationResult("proj", "build-1", "1")

	err := engine.Run(result)
	if !errors.Is(err, boom) {
		t.Fatalf("Run returned %v, want the executor's own error", err)
	}
	if result.Status != IntegrationException {
		t.Fatalf("result status = %s, want exception", result.Status)
	}
	if snap := engine.GenerateSnapshot(); snap.Error != "tool crashed" {
		t.Fatalf("status error = %q, want executor message", snap.Error)
	}
}

func TestEngineRun_OutcomeDefaulting(t *testing.T) {
	// A still-unknown aggregate takes the task's boolean outcome.
	engine := NewEngine("stub", "task", "", &stubExecutor{success: true})
	result := NewIntegrationResult("proj", "build-1", "1")
	if err := engine.Run(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != IntegrationSuccess {
		t.Fatalf("result status = %s, want success", result.Status)
	}

	// A resolved aggregate is left alone by later tasks.
	failing := NewEngine("stub", "task", "", &stubExecutor{success: false})
	if err := failing.Run(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != IntegrationSuccess {
		t.Fatalf("result status = %s, want earlier resolution preserved", result.Status)
	}
}

func TestEngineRun_EstimatedCompletionFromHistory(t *testing.T) {
	executor := &stubExecutor{success: true, delay: 5 * time.Millisecond}
	engine := NewEngine("stub", "task", "", executor)
	result := NewIntegrationResult("proj", "build-1", "1")

	if err := engine.Run(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap := engine.GenerateSnapshot(); snap.EstimatedCompletionAt != nil {
		t.Fatalf("first run has an estimate %v, want none", snap.EstimatedCompletionAt)
	}

	if err := engine.Run(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := engine.GenerateSnapshot()
	if snap.EstimatedCompletionAt == nil {
		t.Fatalf("second run has no estimate despite recorded history")
	}
	avg, ok := engine.elapsed.Average()
	if !ok {
		t.Fatalf("expected recorded elapsed history")
	}
	if got := snap.EstimatedCompletionAt.Sub(*snap.StartedAt); got != avg {
		t.Fatalf("estimate offset = %v, want mean of history %v", got, avg)
	}
}

func TestElapsedTimeHistory_BoundedEviction(t *testing.T) {
	var h ElapsedTimeHistory
	for i := 1; i <= 10; i++ {
		h.Add(time.Duration(i) * time.Second)
	}

	if h.Len() != 8 {
		t.Fatalf("history holds %d entries, want 8", h.Len())
	}

	// Entries 1s and 2s were evicted; the mean covers 3s..10s.
	avg, ok := h.Average()
	if !ok {
		t.Fatalf("expected an average")
	}
	if want := 6500 * time.Millisecond; avg != want {
		t.Fatalf("average = %v, want %v", avg, want)
	}
}

func TestEngineAssociateContext(t *testing.T) {
	engine := NewEngine("command", "compile", "compile the tree", &stubExecutor{success: true})

	if err := engine.AssociateContext(nil); !errors.Is(err, ErrNoContext) {
		t.Fatalf("AssociateContext(nil) = %v, want ErrNoContext", err)
	}
	if engine.context != nil {
		t.Fatalf("nil context was stored")
	}

	ctx := NewTaskContext("proj", "build-1")
	if err := engine.AssociateContext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := ctx.Records()
	if len(records) != 1 {
		t.Fatalf("got %d outcome records, want 1", len(records))
	}
	if records[0].TypeID != "command" || records[0].Description != "compile the tree" {
		t.Fatalf("record = %+v, want type identifier and description", records[0])
	}

	// Rejecting a later nil context must not clear the stored one.
	if err := engine.AssociateContext(nil); err == nil {
		t.Fatalf("expected error")
	}
	if engine.context != ctx {
		t.Fatalf("stored context changed on rejected call")
	}
}

func TestEngineAssociateContext_DescriptionFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		taskName    string
		description string
		want        string
	}{
		{"description wins", "compile", "compile the tree", "compile the tree"},
		{"name fallback", "compile", "", "compile"},
		{"derived fallback", "", "", "command task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine("command", tt.taskName, tt.description, &stubExecutor{success: true})
			ctx := NewTaskContext("proj", "build-1")
			if err := engine.AssociateContext(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ctx.Records()[0].Description; got != tt.want {
				t.Fatalf("effective description = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEngineGenerateSnapshot_LazyAndIsolated(t *testing.T) {
	engine := NewEngine("stub", "task", "", &stubExecutor{success: true})

	snap := engine.GenerateSnapshot()
	if snap.State != TaskStatePending {
		t.Fatalf("pre-run snapshot state = %s, want pending", snap.State)
	}

	// Mutating the snapshot must not reach the engine's live status.
	snap.State = TaskStateRunning
	snap.Error = "scribbled on"
	fresh := engine.GenerateSnapshot()
	if fresh.State != TaskStatePending || fresh.Error != "" {
		t.Fatalf("snapshot mutation leaked into the engine: %+v", fresh)
	}
}

func TestEngineGenerateSnapshot_ConcurrentWithRun(t *testing.T) {
	engine := NewEngine("stub", "task", "", &stubExecutor{success: true})

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			snap := engine.GenerateSnapshot()
			if snap.State.Terminal() && snap.CompletedAt == nil {
				t.Error("terminal snapshot without completion time")
				return
			}
			if snap.State == TaskStateRunning && snap.StartedAt == nil {
				t.Error("running snapshot without start time")
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		result := NewIntegrationResult("proj", "build-1", "1")
		if err := engine.Run(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	close(done)
	wg.Wait()
}

func TestSequenceTask_ForwardsParameterBinding(t *testing.T) {
	defs := []ParameterDefinition{{Name: "label", Kind: ParameterString, Required: true}}

	var got string
	child := NewEngine("stub", "inner", "", &stubExecutor{success: true},
		&NamedParameterBinder{Parameter: "label", Assign: func(v string) { got = v }})
	seq := NewEngine("sequence", "outer", "", NewSequenceTask(child))

	if err := seq.ApplyParameters(map[string]string{"label": "1.2.3"}, defs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1.2.3" {
		t.Fatalf("nested binder assigned %q, want %q", got, "1.2.3")
	}

	if err := seq.ApplyParameters(map[string]string{}, defs); err == nil {
		t.Fatalf("missing required value inside a sequence did not error")
	}
}

func TestSequenceTask_ForwardsContext(t *testing.T) {
	child := NewEngine("command", "inner", "", &stubExecutor{success: true})
	seq := NewEngine("sequence", "outer", "", NewSequenceTask(child))

	ctx := NewTaskContext("proj", "build-1")
	if err := seq.AssociateContext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records := ctx.Records()
	if len(records) != 2 {
		t.Fatalf("got %d outcome records, want outer and inner", len(records))
	}
	if records[1].TypeID != "command" {
		t.Fatalf("child record type = %q, want command", records[1].TypeID)
	}
}

func TestSequenceTask_ChildStatusTree(t *testing.T) {
	childA := NewEngine("stub", "a", "", &stubExecutor{success: true})
	childB := NewEngine("stub", "b", "", &stubExecutor{success: false})
	childC := NewEngine("stub", "c", "", &stubExecutor{success: true})
	seq := NewSequenceTask(childA, childB, childC)
	engine := NewEngine("sequence", "all", "", seq)

	result := NewIntegrationResult("proj", "build-1", "1")
	if err := engine.Run(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := engine.GenerateSnapshot()
	if snap.State != TaskStateCompletedFailed {
		t.Fatalf("composite state = %s, want failed", snap.State)
	}
	if len(snap.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(snap.Children))
	}

	wantStates := []TaskState{TaskStateCompletedSuccess, TaskStateCompletedFailed, TaskStatePending}
	for i, want := range wantStates {
		if snap.Children[i].State != want {
			t.Fatalf("child %d state = %s, want %s", i, snap.Children[i].State, want)
		}
	}
}

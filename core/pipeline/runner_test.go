package pipeline

import (
	"errors"
	"testing"
)

func TestRunnerRun_SequentialStopOnFailure(t *testing.T) {
	first := &stubExecutor{success: true}
	second := &stubExecutor{success: false}
	third := &stubExecutor{success: true}

	runner := NewRunner("proj", []*Engine{
		NewEngine("stub", "first", "", first),
		NewEngine("stub", "second", "", second),
		NewEngine("stub", "third", "", third),
	}, nil)

	result := runner.Run("build-1", "1", nil)
	if result.Status != IntegrationFailure {
		t.Fatalf("result status = %s, want failure", result.Status)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("expected first and second to run once, got %d/%d", first.calls, second.calls)
	}
	if third.calls != 0 {
		t.Fatalf("third task ran after a failure")
	}
}

func TestRunnerRun_EscapingErrorStopsPipeline(t *testing.T) {
	boom := errors.New("tool crashed")
	tail := &stubExecutor{success: true}

	runner := NewRunner("proj", []*Engine{
		NewEngine("stub", "explodes", "", &stubExecutor{err: boom}),
		NewEngine("stub", "tail", "", tail),
	}, nil)

	result := runner.Run("build-1", "1", nil)
	if result.Status != IntegrationException {
		t.Fatalf("result status = %s, want exception", result.Status)
	}
	if tail.calls != 0 {
		t.Fatalf("tail task ran after an escaping failure")
	}
}

func TestRunnerRun_BinderFailureIsException(t *testing.T) {
	task := &stubExecutor{success: true}
	engine := NewEngine("stub", "task", "", task,
		&NamedParameterBinder{Parameter: "label", Required: true, Assign: func(string) {}})

	runner := NewRunner("proj", []*Engine{engine}, nil)
	result := runner.Run("build-1", "1", map[string]string{})
	if result.Status != IntegrationException {
		t.Fatalf("result status = %s, want exception", result.Status)
	}
	if task.calls != 0 {
		t.Fatalf("task ran despite failed parameter binding")
	}
}

func TestRunnerRun_BindsNestedSequenceParameters(t *testing.T) {
	defs := []ParameterDefinition{{Name: "label", Kind: ParameterString, Required: true}}
	newSequence := func(assign func(string)) *Engine {
		child := NewEngine("stub", "inner", "", &stubExecutor{success: true},
			&NamedParameterBinder{Parameter: "label", Required: true, Assign: assign})
		return NewEngine("sequence", "verify", "", NewSequenceTask(child))
	}

	var bound string
	runner := NewRunner("proj", []*Engine{newSequence(func(v string) { bound = v })}, defs)
	result := runner.Run("build-1", "1", map[string]string{"label": "1.2.3"})
	if result.Status != IntegrationSuccess {
		t.Fatalf("result status = %s, want success", result.Status)
	}
	if bound != "1.2.3" {
		t.Fatalf("nested binder assigned %q, want %q", bound, "1.2.3")
	}

	// A missing required parameter inside the sequence fails the build.
	runner = NewRunner("proj", []*Engine{newSequence(func(string) {})}, defs)
	result = runner.Run("build-2", "2", map[string]string{})
	if result.Status != IntegrationException {
		t.Fatalf("result status = %s, want exception for unbound nested parameter", result.Status)
	}
}

func TestRunnerRun_RegistersOutcomeRecords(t *testing.T) {
	runner := NewRunner("proj", []*Engine{
		NewEngine("command", "compile", "", &stubExecutor{success: true}),
		NewEngine("command", "test", "", &stubExecutor{success: true}),
	}, nil)

	result := runner.Run("build-1", "1", nil)
	if result.Status != IntegrationSuccess {
		t.Fatalf("result status = %s, want success", result.Status)
	}
}

func TestRunnerSnapshot_TreeSummarizesChildren(t *testing.T) {
	runner := NewRunner("proj", []*Engine{
		NewEngine("stub", "a", "", &stubExecutor{success: true}),
		NewEngine("stub", "b", "", &stubExecutor{success: true}),
	}, nil)

	snap := runner.Snapshot()
	if snap.Name != "proj" || snap.State != TaskStatePending {
		t.Fatalf("pre-run root = %s/%s, want proj/pending", snap.Name, snap.State)
	}
	if len(snap.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(snap.Children))
	}

	runner.Run("build-1", "1", nil)
	snap = runner.Snapshot()
	if snap.State != TaskStateCompletedSuccess {
		t.Fatalf("post-run root state = %s, want success", snap.State)
	}

	// Root identity is stable across polls.
	if again := runner.Snapshot(); again.ID != snap.ID {
		t.Fatalf("root snapshot identity changed between polls")
	}
}

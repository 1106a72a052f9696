package pipeline

import (
	"errors"
	"sync"
	"time"
)

// TaskExecutor is the task-specific execution capability the engine composes
// over. The boolean reports handled success/failure; a non-nil error is an
// escaping failure the engine re-surfaces to the caller after bookkeeping.
type TaskExecutor interface {
	Execute(result *IntegrationResult) (bool, error)
}

// ChildReporter is implemented by composite executors whose snapshots carry
// a child status tree.
type ChildReporter interface {
	ChildSnapshots() []*TaskStatus
}

// ParameterApplier is implemented by composite executors whose children carry
// binders of their own.
type ParameterApplier interface {
	ApplyParameters(values map[string]string, defs []ParameterDefinition) error
}

// ContextAssociator is implemented by composite executors whose children
// register outcome records of their own.
type ContextAssociator interface {
	AssociateContext(ctx *TaskContext) error
}

// ErrNoContext signals a caller bug: a task was associated with no context.
var ErrNoContext = errors.New("task context must not be nil")

// Engine orchestrates one task's runs: lifecycle status, completion
// estimates, parameter binding and context correlation. The pipeline runner
// executes tasks sequentially; statusMu covers only the status record so a
// monitor polling GenerateSnapshot from another goroutine always clones a
// fully written state.
type Engine struct {
	typeID      string
	name        string
	description string
	executor    TaskExecutor
	binders     []ParameterBinder

	statusMu sync.Mutex
	status   *TaskStatus
	elapsed  ElapsedTimeHistory
	context  *TaskContext
}

// NewEngine creates an engine for one task variant. typeID is the variant's
// declared identifier, set at construction rather than looked up at runtime.
func NewEngine(typeID, name, description string, executor TaskExecutor, binders ...ParameterBinder) *Engine {
	return &Engine{
		typeID:      typeID,
		name:        name,
		description: description,
		executor:    executor,
		binders:     binders,
	}
}

// Name returns the task's configured name, falling back to its type identifier
func (e *Engine) Name() string {
	if e.name != "" {
		return e.name
	}
	return e.typeID
}

// Run executes the task once against the given outcome holder.
//
// Whatever path execution takes, the status is terminal and CompletedAt is
// set by the time Run returns: an observer never sees Running persist after
// control is back with the caller. An escaping executor error is returned
// unchanged after that bookkeeping, so the surrounding scheduler can apply
// retry or alerting policy.
func (e *Engine) Run(result *IntegrationResult) error {
	e.statusMu.Lock()
	if e.status != nil && e.status.StartedAt != nil && e.status.CompletedAt != nil {
		e.elapsed.Add(e.status.CompletedAt.Sub(*e.status.StartedAt))
	}
	e.initStatus()

	now := time.Now()
	if avg, ok := e.elapsed.Average(); ok {
		eta := now.Add(avg)
		e.status.EstimatedCompletionAt = &eta
	}
	e.status.State = TaskStateRunning
	e.status.StartedAt = &now
	e.statusMu.Unlock()

	success, execErr := e.executor.Execute(result)

	e.statusMu.Lock()
	if execErr != nil {
		success = false
		e.status.Error = execErr.Error()
		result.Status = IntegrationException
	}

	if success {
		e.status.State = TaskStateCompletedSuccess
	} else {
		e.status.State = TaskStateCompletedFailed
	}
	completed := time.Now()
	e.status.CompletedAt = &completed
	e.statusMu.Unlock()

	if result.Status == IntegrationUnknown {
		if success {
			result.Status = IntegrationSuccess
		} else {
			result.Status = IntegrationFailure
		}
	}

	return execErr
}

// ApplyParameters walks the registered binders in registration order,
// resolving named external values into the task's configuration. Composite
// executors get the values forwarded so nested tasks bind too.
func (e *Engine) ApplyParameters(values map[string]string, defs []ParameterDefinition) error {
	for _, binder := range e.binders {
		if err := binder.Bind(values, defs); err != nil {
			return err
		}
	}
	if applier, ok := e.executor.(ParameterApplier); ok {
		return applier.ApplyParameters(values, defs)
	}
	return nil
}

// AssociateContext stores the owning run's context and registers the task's
// outcome record with it. A nil context is a caller bug and leaves any
// previously stored context unchanged.
func (e *Engine) AssociateContext(ctx *TaskContext) error {
	if ctx == nil {
		return ErrNoContext
	}
	e.context = ctx
	ctx.InitializeResult(e.typeID, e.effectiveDescription())
	if associator, ok := e.executor.(ContextAssociator); ok {
		return associator.AssociateContext(ctx)
	}
	return nil
}

// GenerateSnapshot publishes an immutable copy of the current status tree,
// lazily initializing to pending so a task can be observed before its first
// run.
func (e *Engine) GenerateSnapshot() *TaskStatus {
	e.statusMu.Lock()
	if e.status == nil {
		e.initStatus()
	}
	snapshot := e.status.Clone()
	e.statusMu.Unlock()

	if reporter, ok := e.executor.(ChildReporter); ok {
		for _, child := range reporter.ChildSnapshots() {
			snapshot.AddChild(child)
		}
	}
	return snapshot
}

// initStatus resets the status record. Callers hold statusMu.
func (e *Engine) initStatus() {
	e.status = NewTaskStatus(e.Name(), e.description)
}

func (e *Engine) effectiveDescription() string {
	switch {
	case e.description != "":
		return e.description
	case e.name != "":
		return e.name
	default:
		return e.typeID + " task"
	}
}

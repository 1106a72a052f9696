package pipeline

// SequenceTask runs child engines in order, stopping on the first failure.
// Its wrapping engine's snapshot carries the children's status trees.
type SequenceTask struct {
	children []*Engine
}

// NewSequenceTask creates a composite over the given child engines
func NewSequenceTask(children ...*Engine) *SequenceTask {
	return &SequenceTask{children: children}
}

// Execute runs the children sequentially. A child's escaping error escapes
// the composite too; a handled child failure stops the sequence and fails it.
func (t *SequenceTask) Execute(result *IntegrationResult) (bool, error) {
	for _, child := range t.children {
		if err := child.Run(result); err != nil {
			return false, err
		}
		if snap := child.GenerateSnapshot(); snap.State != TaskStateCompletedSuccess {
			return false, nil
		}
	}
	return true, nil
}

// ChildSnapshots publishes the children's current status trees
func (t *SequenceTask) ChildSnapshots() []*TaskStatus {
	snapshots := make([]*TaskStatus, len(t.children))
	for i, child := range t.children {
		snapshots[i] = child.GenerateSnapshot()
	}
	return snapshots
}

// ApplyParameters forwards parameter binding to every child
func (t *SequenceTask) ApplyParameters(values map[string]string, defs []ParameterDefinition) error {
	for _, child := range t.children {
		if err := child.ApplyParameters(values, defs); err != nil {
			return err
		}
	}
	return nil
}

// AssociateContext forwards the run context to every child
func (t *SequenceTask) AssociateContext(ctx *TaskContext) error {
	for _, child := range t.children {
		if err := child.AssociateContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

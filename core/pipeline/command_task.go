package pipeline

import (
	"fmt"
	"os"
	"os/exec"
)

// CommandTask runs an external command in the project workspace. A non-zero
// exit is a handled build failure; not being able to start the command at
// all escapes to the engine.
type CommandTask struct {
	Name    string
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// Execute runs the command and records its combined output on the result
func (t *CommandTask) Execute(result *IntegrationResult) (bool, error) {
	cmd := exec.Command(t.Command, t.Args...)
	cmd.Dir = t.Dir
	if len(t.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Env...)
	}

	output, err := cmd.CombinedOutput()
	result.AddOutput(t.Name, string(output))

	if err == nil {
		return true, nil
	}
	if _, exited := err.(*exec.ExitError); exited {
		return false, nil
	}
	return false, fmt.Errorf("failed to start %s: %w", t.Command, err)
}

// SetEnvBinder returns a binder that resolves a named parameter into the
// command's environment.
func (t *CommandTask) SetEnvBinder(parameter string, required bool) *NamedParameterBinder {
	return &NamedParameterBinder{
		Parameter: parameter,
		Required:  required,
		Assign: func(value string) {
			t.Env = append(t.Env, fmt.Sprintf("%s=%s", parameter, value))
		},
	}
}

package spec

import (
	"fmt"
	"time"

	"ci-orchestrator/core/pipeline"
	"ci-orchestrator/core/scheduler"
	"ci-orchestrator/core/sourcecontrol"

	"gopkg.in/yaml.v3"
)

// ProjectsSpec represents the YAML project definitions file
type ProjectsSpec struct {
	Projects []ProjectSpec `yaml:"projects"`
}

// ProjectSpec represents one project definition
type ProjectSpec struct {
	Name           string            `yaml:"name"`
	HistoryFile    string            `yaml:"history_file,omitempty"`
	HistoryCommand string            `yaml:"history_command,omitempty"`
	HistoryArgs    []string          `yaml:"history_args,omitempty"`
	WorkingDir     string            `yaml:"working_dir,omitempty"`
	WatchDir       string            `yaml:"watch_dir,omitempty"`
	PollInterval   string            `yaml:"poll_interval,omitempty"`
	Parameters     []ParameterSpec   `yaml:"parameters,omitempty"`
	Values         map[string]string `yaml:"values,omitempty"`
	Tasks          []TaskSpec        `yaml:"tasks"`
}

// ParameterSpec represents one external parameter definition
type ParameterSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind,omitempty"` // string | number | boolean
	Required bool   `yaml:"required,omitempty"`
	Default  string `yaml:"default,omitempty"`
}

// TaskSpec represents one task definition
type TaskSpec struct {
	Type          string     `yaml:"type"` // command | sequence
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description,omitempty"`
	Command       string     `yaml:"command,omitempty"`
	Args          []string   `yaml:"args,omitempty"`
	WorkingDir    string     `yaml:"working_dir,omitempty"`
	EnvParameters []string   `yaml:"env_parameters,omitempty"`
	Tasks         []TaskSpec `yaml:"tasks,omitempty"` // For sequence tasks
}

// ParseProjectsSpec parses the YAML project definitions
func ParseProjectsSpec(specYAML string) (*ProjectsSpec, error) {
	var spec ProjectsSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i := range spec.Projects {
		if err := validateProject(&spec.Projects[i]); err != nil {
			return nil, err
		}
	}

	return &spec, nil
}

func validateProject(p *ProjectSpec) error {
	if p.Name == "" {
		return fmt.Errorf("project has no name")
	}
	if p.HistoryFile == "" && p.HistoryCommand == "" && p.WatchDir == "" {
		return fmt.Errorf("project %s: no history source configured", p.Name)
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("project %s: no tasks configured", p.Name)
	}
	for _, task := range p.Tasks {
		if err := validateTask(p.Name, task); err != nil {
			return err
		}
	}
	return nil
}

func validateTask(project string, task TaskSpec) error {
	switch task.Type {
	case "command", "":
		if task.Command == "" {
			return fmt.Errorf("project %s: command task %q has no command", project, task.Name)
		}
	case "sequence":
		if len(task.Tasks) == 0 {
			return fmt.Errorf("project %s: sequence task %q has no children", project, task.Name)
		}
		for _, child := range task.Tasks {
			if err := validateTask(project, child); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("project %s: unknown task type %q", project, task.Type)
	}
	return nil
}

// BuildProject assembles a scheduler project from its definition
func BuildProject(p ProjectSpec) (*scheduler.Project, error) {
	definitions := make([]pipeline.ParameterDefinition, 0, len(p.Parameters))
	for _, param := range p.Parameters {
		kind := pipeline.ParameterKind(param.Kind)
		if kind == "" {
			kind = pipeline.ParameterString
		}
		definitions = append(definitions, pipeline.ParameterDefinition{
			Name:     param.Name,
			Kind:     kind,
			Required: param.Required,
			Default:  param.Default,
		})
	}

	engines := make([]*pipeline.Engine, 0, len(p.Tasks))
	for _, task := range p.Tasks {
		engine, err := buildEngine(p, task)
		if err != nil {
			return nil, err
		}
		engines = append(engines, engine)
	}

	project := scheduler.NewProject(p.Name, historySource(p), pipeline.NewRunner(p.Name, engines, definitions))
	project.Values = p.Values

	if p.PollInterval != "" {
		interval, err := time.ParseDuration(p.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("project %s: invalid poll interval: %w", p.Name, err)
		}
		project.PollInterval = interval
	}

	if p.WatchDir != "" {
		watcher, err := sourcecontrol.NewWorkspaceWatcher(p.WatchDir)
		if err != nil {
			return nil, fmt.Errorf("project %s: failed to watch %s: %w", p.Name, p.WatchDir, err)
		}
		project.Watcher = watcher
	}

	return project, nil
}

func historySource(p ProjectSpec) sourcecontrol.HistorySource {
	switch {
	case p.HistoryCommand != "":
		return &sourcecontrol.CommandHistorySource{
			Command: p.HistoryCommand,
			Args:    p.HistoryArgs,
			Dir:     p.WorkingDir,
		}
	case p.HistoryFile != "":
		return &sourcecontrol.FileHistorySource{Path: p.HistoryFile}
	default:
		return nil
	}
}

// buildEngine assembles one task engine, recursing into sequence children
func buildEngine(p ProjectSpec, task TaskSpec) (*pipeline.Engine, error) {
	switch task.Type {
	case "sequence":
		children := make([]*pipeline.Engine, 0, len(task.Tasks))
		for _, child := range task.Tasks {
			engine, err := buildEngine(p, child)
			if err != nil {
				return nil, err
			}
			children = append(children, engine)
		}
		return pipeline.NewEngine("sequence", task.Name, task.Description, pipeline.NewSequenceTask(children...)), nil

	default:
		dir := task.WorkingDir
		if dir == "" {
			dir = p.WorkingDir
		}
		command := &pipeline.CommandTask{
			Name:    task.Name,
			Command: task.Command,
			Args:    task.Args,
			Dir:     dir,
		}

		binders := make([]pipeline.ParameterBinder, 0, len(task.EnvParameters))
		for _, param := range task.EnvParameters {
			binders = append(binders, command.SetEnvBinder(param, false))
		}
		return pipeline.NewEngine("command", task.Name, task.Description, command, binders...), nil
	}
}

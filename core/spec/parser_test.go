package spec

import (
	"strings"
	"testing"
	"time"

	"ci-orchestrator/core/sourcecontrol"
)

const sampleSpec = `
projects:
  - name: acme-web
    history_file: /var/spool/ci/acme-web.history
    working_dir: /srv/workspaces/acme-web
    poll_interval: 90s
    parameters:
      - name: BUILD_LABEL
        kind: string
        required: true
    values:
      BUILD_LABEL: nightly
    tasks:
      - type: command
        name: compile
        description: Compile the tree
        command: make
        args: ["all"]
        env_parameters: ["BUILD_LABEL"]
      - type: sequence
        name: verify
        tasks:
          - type: command
            name: unit
            command: make
            args: ["test"]
          - type: command
            name: lint
            command: make
            args: ["lint"]
`

func TestParseProjectsSpec(t *testing.T) {
	spec, err := ParseProjectsSpec(sampleSpec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spec.Projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(spec.Projects))
	}

	p := spec.Projects[0]
	if p.Name != "acme-web" || p.HistoryFile != "/var/spool/ci/acme-web.history" {
		t.Fatalf("project parsed wrong: %+v", p)
	}
	if len(p.Tasks) != 2 || p.Tasks[1].Type != "sequence" || len(p.Tasks[1].Tasks) != 2 {
		t.Fatalf("task tree parsed wrong: %+v", p.Tasks)
	}
}

func TestParseProjectsSpec_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing command",
			yaml: "projects:\n  - name: p\n    history_file: h\n    tasks:\n      - name: broken\n",
			want: "has no command",
		},
		{
			name: "no source",
			yaml: "projects:\n  - name: p\n    tasks:\n      - name: t\n        command: make\n",
			want: "no history source",
		},
		{
			name: "unknown task type",
			yaml: "projects:\n  - name: p\n    history_file: h\n    tasks:\n      - name: t\n        type: parallel\n",
			want: "unknown task type",
		},
		{
			name: "not yaml",
			yaml: "{{{",
			want: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProjectsSpec(tt.yaml)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestBuildProject(t *testing.T) {
	parsed, err := ParseProjectsSpec(sampleSpec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	project, err := BuildProject(parsed.Projects[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if project.Name != "acme-web" {
		t.Fatalf("name = %q", project.Name)
	}
	if project.PollInterval != 90*time.Second {
		t.Fatalf("poll interval = %v, want 90s", project.PollInterval)
	}
	if _, ok := project.Source.(*sourcecontrol.FileHistorySource); !ok {
		t.Fatalf("source = %T, want file source", project.Source)
	}
	if got := len(project.Pipeline.Tasks()); got != 2 {
		t.Fatalf("pipeline has %d tasks, want 2", got)
	}

	snap := project.Pipeline.Snapshot()
	if len(snap.Children) != 2 {
		t.Fatalf("snapshot has %d children, want 2", len(snap.Children))
	}
	if len(snap.Children[1].Children) != 2 {
		t.Fatalf("sequence snapshot has %d children, want 2", len(snap.Children[1].Children))
	}
}

func TestBuildProject_CommandHistorySource(t *testing.T) {
	parsed, err := ParseProjectsSpec(`
projects:
  - name: cmd-proj
    history_command: vcs-history
    history_args: ["-recurse"]
    tasks:
      - name: build
        command: make
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	project, err := BuildProject(parsed.Projects[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src, ok := project.Source.(*sourcecontrol.CommandHistorySource)
	if !ok {
		t.Fatalf("source = %T, want command source", project.Source)
	}
	if src.Command != "vcs-history" || len(src.Args) != 1 {
		t.Fatalf("command source = %+v", src)
	}
}

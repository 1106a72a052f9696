package sourcecontrol

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// HistorySource supplies raw history text for one project. The transport is
// the source's concern; the parser only ever sees already-retrieved text.
type HistorySource interface {
	History(ctx context.Context, from, to time.Time) (io.ReadCloser, error)
}

// FileHistorySource reads history from a file that an external fetch step
// keeps up to date.
type FileHistorySource struct {
	Path string
}

// History opens the history file for reading
func (s *FileHistorySource) History(_ context.Context, _, _ time.Time) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	return f, nil
}

// CommandHistorySource captures the stdout of an externally configured
// history command. The command and its arguments come straight from the
// project definition; this source does not know any tool's protocol.
type CommandHistorySource struct {
	Command string
	Args    []string
	Dir     string
}

// History runs the configured command and returns its captured output
func (s *CommandHistorySource) History(ctx context.Context, from, to time.Time) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("HISTORY_FROM=%s", from.Format(time.RFC3339)),
		fmt.Sprintf("HISTORY_TO=%s", to.Format(time.RFC3339)),
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("history command failed: %w", err)
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}

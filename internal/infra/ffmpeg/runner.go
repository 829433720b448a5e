package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner executes an engine binary and returns what it wrote to stdout and
// stderr. A non-zero exit is reported as err alongside the captured output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner runs binaries as child processes. A zero Timeout waits for the
// process however long it takes.
type ExecRunner struct {
	Timeout time.Duration
}

func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		return stdout.Bytes(), stderr.Bytes(), err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// CheckAvailable reports the first binary that cannot be found on PATH.
func CheckAvailable(binaries ...string) error {
	for _, b := range binaries {
		if _, err := exec.LookPath(b); err != nil {
			return fmt.Errorf("%s not available: %w", b, err)
		}
	}
	return nil
}

// EngineVersion returns the version token of `ffmpeg -version`, e.g. "6.1.1"
// or "n7.0-dev".
func EngineVersion(ctx context.Context, runner Runner, ffmpegPath string) (string, error) {
	stdout, stderr, err := runner.Run(ctx, ffmpegPath, "-version")
	if err != nil {
		return "", fmt.Errorf("%s -version: %w: %s", ffmpegPath, err, bytes.TrimSpace(stderr))
	}
	line, _, _ := strings.Cut(string(stdout), "\n")
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[1] != "version" {
		return "", fmt.Errorf("unexpected %s -version output: %q", ffmpegPath, line)
	}
	return fields[2], nil
}

// FramePattern is the zero-padded image sequence pattern used for extraction
// and reconstruction.
func FramePattern(dir, format string) string {
	return filepath.Join(dir, "frame_%04d."+format)
}

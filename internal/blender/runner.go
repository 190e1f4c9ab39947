package blender

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/art-e-fact/RoboProp/internal/logger"
)

// ExportScript is the Python entry point executed for every job.
//
//go:embed scripts/export_job.py
var ExportScript string

// DefaultPath is the executable looked up on PATH when none is configured.
const DefaultPath = "blender"

// outputTailLines is how much tool output a ToolError keeps.
const outputTailLines = 20

// ErrToolFailed is wrapped by every *ToolError.
var ErrToolFailed = errors.New("blender failed")

// ToolError reports a Blender process that could not start or exited non-zero.
type ToolError struct {
	Source   string
	ExitCode int // -1 when the process never ran
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("blender failed on %s", e.Source)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolFailed}
	}
	return []error{ErrToolFailed, e.Err}
}

// Tool runs export jobs. Runner is the real implementation; tests substitute
// fakes.
type Tool interface {
	Run(ctx context.Context, job Job) error
}

// Runner starts one Blender process per job.
type Runner struct {
	Path      string
	ExtraArgs []string
	// Timeout bounds a single job; zero means wait forever.
	Timeout time.Duration

	log *zap.Logger
}

// NewRunner returns a runner for the Blender executable at path.
func NewRunner(path string, extraArgs []string, timeout time.Duration) *Runner {
	if path == "" {
		path = DefaultPath
	}
	return &Runner{
		Path:      path,
		ExtraArgs: extraArgs,
		Timeout:   timeout,
		log:       logger.Named("blender"),
	}
}

// Args returns the command line for a script and job file.
func (r *Runner) Args(scriptPath, jobPath string) []string {
	args := []string{"--background", "--factory-startup", "--python-exit-code", "1"}
	args = append(args, r.ExtraArgs...)
	return append(args, "--python", scriptPath, "--", jobPath)
}

// Run executes job in a fresh Blender process and waits for it.
func (r *Runner) Run(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	workDir, err := os.MkdirTemp("", "roboprop-job-*")
	if err != nil {
		return fmt.Errorf("creating job dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	scriptPath := filepath.Join(workDir, "export_job.py")
	if err := os.WriteFile(scriptPath, []byte(ExportScript), 0o600); err != nil {
		return fmt.Errorf("writing export script: %w", err)
	}
	jobPath := filepath.Join(workDir, "job.json")
	if err := job.WriteFile(jobPath); err != nil {
		return err
	}

	out := newTailWriter(r.log, outputTailLines)
	cmd := exec.CommandContext(ctx, r.Path, r.Args(scriptPath, jobPath)...)
	cmd.Stdout = out
	cmd.Stderr = out

	r.log.Debug("starting blender",
		zap.String("source", job.Source),
		zap.String("visual", job.Visual.Filepath),
		zap.Strings("args", cmd.Args))

	start := time.Now()
	runErr := cmd.Run()
	out.Flush()

	if runErr == nil {
		r.log.Debug("blender finished", zap.Duration("took", time.Since(start)))
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("blender on %s: %w", job.Source, ctxErr)
	}

	toolErr := &ToolError{Source: job.Source, ExitCode: -1, Output: out.Tail(), Err: runErr}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
		toolErr.Err = nil
	}
	return toolErr
}

// tailWriter logs tool output line by line and remembers the last lines.
type tailWriter struct {
	mu      sync.Mutex
	log     *zap.Logger
	partial bytes.Buffer
	lines   []string
	keep    int
}

func newTailWriter(log *zap.Logger, keep int) *tailWriter {
	return &tailWriter{log: log, keep: keep}
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		line, err := w.partial.ReadString('\n')
		if err != nil {
			// Incomplete line: put it back for the next write.
			w.partial.Reset()
			w.partial.WriteString(line)
			break
		}
		w.push(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits a trailing line without newline.
func (w *tailWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.partial.Len() > 0 {
		w.push(w.partial.String())
		w.partial.Reset()
	}
}

func (w *tailWriter) push(line string) {
	if line == "" {
		return
	}
	w.log.Debug(line)
	w.lines = append(w.lines, line)
	if len(w.lines) > w.keep {
		w.lines = w.lines[len(w.lines)-w.keep:]
	}
}

// Tail returns the remembered lines.
func (w *tailWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return strings.Join(w.lines, "\n")
}

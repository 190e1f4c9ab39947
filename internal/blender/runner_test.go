package blender

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-e-fact/RoboProp/internal/collision"
)

// fakeBlender writes a shell script that records its arguments, copies the
// job and script it was given, prints some output and exits with code.
func fakeBlender(t *testing.T, code int) (exe, record string) {
	t.Helper()
	dir := t.TempDir()
	record = filepath.Join(dir, "record")
	require.NoError(t, os.MkdirAll(record, 0o755))

	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" > %[1]s/args
for last; do :; done
cp "$last" %[1]s/job.json
cp "$(dirname "$last")/export_job.py" %[1]s/export_job.py
echo "Blender 4.2.0"
echo "Traceback: something broke" >&2
exit %[2]d
`, record, code)

	exe = filepath.Join(dir, "blender")
	require.NoError(t, os.WriteFile(exe, []byte(script), 0o755))
	return exe, record
}

func sampleJob(dir string) Job {
	params := collision.Default().Params()
	return Job{
		Source:          filepath.Join(dir, "box.blend"),
		UnpackResources: true,
		Visual: Operation{
			Op:       "wm.obj_export",
			Filepath: filepath.Join(dir, "assets", "visual.obj"),
			Options:  map[string]any{"export_triangulated_mesh": true},
		},
		Collision: &Operation{
			Op:       "wm.obj_export",
			Filepath: filepath.Join(dir, "assets", "collision.obj"),
		},
		Simplify: &params,
	}
}

func TestRunnerPassesJob(t *testing.T) {
	exe, record := fakeBlender(t, 0)
	r := NewRunner(exe, []string{"--threads", "2"}, 0)
	job := sampleJob(t.TempDir())

	require.NoError(t, r.Run(context.Background(), job))

	args, err := os.ReadFile(filepath.Join(record, "args"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(args)), "\n")
	assert.Equal(t, []string{"--background", "--factory-startup", "--python-exit-code", "1", "--threads", "2", "--python"}, lines[:7])
	assert.Equal(t, "--", lines[len(lines)-2])

	got, err := ReadJob(filepath.Join(record, "job.json"))
	require.NoError(t, err)
	assert.Equal(t, job.Source, got.Source)
	assert.Equal(t, job.Visual.Filepath, got.Visual.Filepath)
	require.NotNil(t, got.Simplify)
	assert.Equal(t, collision.ModeRemesh, got.Simplify.Mode)
	assert.True(t, got.Simplify.SingleUser)

	script, err := os.ReadFile(filepath.Join(record, "export_job.py"))
	require.NoError(t, err)
	assert.Equal(t, ExportScript, string(script))
}

func TestRunnerReportsExitCode(t *testing.T) {
	exe, _ := fakeBlender(t, 3)
	r := NewRunner(exe, nil, 0)

	err := r.Run(context.Background(), sampleJob(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolFailed))

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Contains(t, toolErr.Output, "Traceback: something broke")
	assert.Contains(t, toolErr.Output, "Blender 4.2.0")
}

func TestRunnerMissingExecutable(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "no-such-blender"), nil, 0)

	err := r.Run(context.Background(), sampleJob(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrToolFailed))

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, -1, toolErr.ExitCode)
}

func TestRunnerTimeout(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "blender")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\nexec sleep 10\n"), 0o755))

	r := NewRunner(exe, nil, 100*time.Millisecond)
	start := time.Now()
	err := r.Run(context.Background(), sampleJob(dir))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunnerRejectsInvalidJob(t *testing.T) {
	r := NewRunner("blender", nil, 0)
	job := sampleJob(t.TempDir())
	job.Simplify = nil

	err := r.Run(context.Background(), job)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrToolFailed), "invalid jobs must fail before a process starts")
}

func TestTailWriterKeepsLastLines(t *testing.T) {
	w := newTailWriter(NewRunner("", nil, 0).log, 3)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(w, "line %d\n", i)
	}
	fmt.Fprint(w, "partial")
	w.Flush()

	assert.Equal(t, "line 3\nline 4\npartial", w.Tail())
}

func TestExportScriptSimplifiesPrivateCopies(t *testing.T) {
	// The visual export must run before the scene is simplified, and mesh data
	// must be made single-user before any modifier is applied.
	visual := strings.Index(ExportScript, `call_operator(visual["op"]`)
	simplify := strings.Index(ExportScript, `simplify_for_collision(job["simplify"])`)
	collisionExport := strings.Index(ExportScript, `call_operator(collision["op"]`)
	require.True(t, visual >= 0 && simplify >= 0 && collisionExport >= 0)
	assert.Less(t, visual, simplify)
	assert.Less(t, simplify, collisionExport)

	copyData := strings.Index(ExportScript, "obj.data = obj.data.copy()")
	firstModifier := strings.Index(ExportScript, "obj.modifiers.new(")
	require.True(t, copyData >= 0 && firstModifier >= 0)
	assert.Less(t, copyData, firstModifier)
}

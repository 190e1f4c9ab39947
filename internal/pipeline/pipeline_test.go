package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-e-fact/RoboProp/internal/blender"
	"github.com/art-e-fact/RoboProp/internal/collision"
	"github.com/art-e-fact/RoboProp/internal/export"
	"github.com/art-e-fact/RoboProp/internal/inspect"
	"github.com/art-e-fact/RoboProp/internal/inspect/inspecttest"
	"github.com/art-e-fact/RoboProp/internal/metadata"
	"github.com/art-e-fact/RoboProp/pkg/sdf"
)

// fakeTool stands in for Blender: it writes fixture meshes where the job
// asks and records what happened in which order.
type fakeTool struct {
	mu     sync.Mutex
	jobs   []blender.Job
	events []string
	// visualAfterSimplify is the visual file as it was once the collision
	// mesh had been written.
	visualAfterSimplify map[string][]byte
	failExt             string
	failErr             error
	brokenCollision     bool
	delay               time.Duration
	running, peak       atomic.Int32
}

func (f *fakeTool) Run(ctx context.Context, job blender.Job) error {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	if f.failExt != "" && filepath.Ext(job.Visual.Filepath) == f.failExt {
		return f.failErr
	}

	if err := inspecttest.WriteMesh(job.Visual.Filepath); err != nil {
		return err
	}
	f.events = append(f.events, "visual "+filepath.Base(job.Visual.Filepath))
	if job.Simplify != nil {
		f.events = append(f.events, "simplify "+string(job.Simplify.Mode))
	}
	if job.Collision != nil {
		if f.brokenCollision {
			if err := os.WriteFile(job.Collision.Filepath, []byte("# empty\n"), 0o644); err != nil {
				return err
			}
		} else if err := inspecttest.WriteMesh(job.Collision.Filepath); err != nil {
			return err
		}
		f.events = append(f.events, "collision "+filepath.Base(job.Collision.Filepath))
	}
	if f.visualAfterSimplify == nil {
		f.visualAfterSimplify = make(map[string][]byte)
	}
	data, err := os.ReadFile(job.Visual.Filepath)
	if err != nil {
		return err
	}
	f.visualAfterSimplify[job.Visual.Filepath] = data
	return nil
}

func writeSource(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "box.blend")
	require.NoError(t, os.WriteFile(src, []byte("BLENDER-v402"), 0o644))
	return src
}

func newPipeline(t *testing.T, tool blender.Tool, opts Options) *Pipeline {
	t.Helper()
	p, err := New(tool, collision.Default(), opts)
	require.NoError(t, err)
	return p
}

func mustTargets(t *testing.T, specs ...string) []Target {
	t.Helper()
	targets, err := ParseTargets(specs)
	require.NoError(t, err)
	return targets
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunBoxOBJ(t *testing.T) {
	out := filepath.Join(t.TempDir(), "Box")
	p := newPipeline(t, &fakeTool{}, Options{Targets: mustTargets(t, "default/obj")})

	res, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out})
	require.NoError(t, err)

	for _, f := range []string{"assets/visual.obj", "assets/collision.obj", "model.sdf", "model.config"} {
		assert.FileExists(t, filepath.Join(out, f))
	}
	assert.Len(t, res.Files(), 4)
	assert.NotEmpty(t, res.RunID)

	desc := readFile(t, filepath.Join(out, "model.sdf"))
	assert.Contains(t, desc, `<model name="Box">`)
	assert.Contains(t, desc, "<uri>assets/visual.obj</uri>")
	assert.Contains(t, desc, "<uri>assets/collision.obj</uri>")
	assert.Contains(t, desc, "<static>true</static>")
	assert.Contains(t, desc, `<pose degrees="1">0 0 0 0 0 0</pose>`)

	manifest := readFile(t, filepath.Join(out, "model.config"))
	assert.Contains(t, manifest, "<name>Box</name>")
	assert.Contains(t, manifest, `<sdf version="1.9">model.sdf</sdf>`)
}

func TestRunEveryFormat(t *testing.T) {
	out := t.TempDir()
	tool := &fakeTool{}
	p := newPipeline(t, tool, Options{
		Targets: mustTargets(t, "default/obj", "gltf/glb", "separate/gltf", "fbx"),
		Verify:  true,
	})

	res, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out})
	require.NoError(t, err)
	require.Len(t, res.Targets, 4)
	assert.Equal(t, []string{"obj", "glb", "gltf", "fbx"}, res.Formats())
	assert.Len(t, tool.jobs, 4, "one tool run per target")

	for _, tr := range res.Targets {
		l := tr.Layout
		for _, f := range l.Files() {
			assert.FileExists(t, f, tr.Target.String())
		}
		require.NotNil(t, tr.Report)
		assert.True(t, tr.Report.OK())

		d, err := sdf.ReadDescriptor(l.Descriptor)
		require.NoError(t, err)
		for _, uri := range d.MeshURIs() {
			assert.False(t, filepath.IsAbs(uri), uri)
			assert.FileExists(t, sdf.Resolve(l.Descriptor, uri))
		}
		pose, err := d.LinkPose()
		require.NoError(t, err)
		assert.Equal(t, tr.Target.Format.AxisCorrection(), pose)
	}
	assert.FileExists(t, filepath.Join(out, "separate-model.sdf"))
	assert.FileExists(t, filepath.Join(out, "fbx-model.config"))
}

func TestRunIsIdempotent(t *testing.T) {
	out := t.TempDir()
	src := writeSource(t)
	p := newPipeline(t, &fakeTool{}, Options{})
	meta := metadata.Metadata{Version: "2", Description: "A *box*.", Author: &metadata.Author{Name: "Ada"}}

	_, err := p.Run(context.Background(), Request{Name: "Box", Source: src, OutDir: out, Metadata: meta})
	require.NoError(t, err)
	docs := []string{"model.sdf", "model.config", "gltf-model.sdf", "gltf-model.config"}
	first := make(map[string]string)
	for _, d := range docs {
		first[d] = readFile(t, filepath.Join(out, d))
	}

	_, err = p.Run(context.Background(), Request{Name: "Box", Source: src, OutDir: out, Metadata: meta})
	require.NoError(t, err)
	for _, d := range docs {
		assert.Equal(t, first[d], readFile(t, filepath.Join(out, d)), d)
	}
}

func TestRunUnsupportedFormatWritesNothing(t *testing.T) {
	src := writeSource(t)

	t.Run("first target", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "Box")
		tool := &fakeTool{}
		p := newPipeline(t, tool, Options{Targets: []Target{{Variant: DefaultVariant, Format: "stl"}}})

		res, err := p.Run(context.Background(), Request{Name: "Box", Source: src, OutDir: out})
		require.ErrorIs(t, err, export.ErrUnsupportedFormat)
		assert.Empty(t, res.Targets)
		assert.Empty(t, tool.jobs)
		assert.NoDirExists(t, out)
	})

	t.Run("later target", func(t *testing.T) {
		out := t.TempDir()
		tool := &fakeTool{}
		targets := append(mustTargets(t, "default/obj"), Target{Variant: "mesh", Format: "stl"}, Target{Variant: "gltf", Format: export.FormatGLB})
		p := newPipeline(t, tool, Options{Targets: targets})

		res, err := p.Run(context.Background(), Request{Name: "Box", Source: src, OutDir: out})
		require.ErrorIs(t, err, export.ErrUnsupportedFormat)
		assert.Contains(t, err.Error(), "mesh/stl")

		// Earlier targets stay, nothing of the failing one or after it exists.
		require.Len(t, res.Targets, 1)
		assert.FileExists(t, filepath.Join(out, "model.sdf"))
		for _, f := range []string{"mesh-model.sdf", "mesh-model.config", "assets/visual.stl", "assets/collision.stl", "gltf-model.sdf", "assets/visual.glb"} {
			assert.NoFileExists(t, filepath.Join(out, f))
		}
		assert.Len(t, tool.jobs, 1)
	})
}

func TestRunCollisionAfterVisual(t *testing.T) {
	tool := &fakeTool{}
	out := t.TempDir()
	p := newPipeline(t, tool, Options{Targets: mustTargets(t, "default/obj", "gltf/glb")})

	_, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"visual visual.obj", "simplify remesh", "collision collision.obj",
		"visual visual.glb", "simplify remesh", "collision collision.glb",
	}, tool.events)
	for _, job := range tool.jobs {
		require.NotNil(t, job.Simplify)
		assert.True(t, job.Simplify.SingleUser, "meshes must be made single-user before modifiers")
	}
	for path, data := range tool.visualAfterSimplify {
		assert.True(t, bytes.Equal(data, []byte(readFile(t, path))), "visual %s changed after collision pass", path)
	}
}

func TestRunToolFailureKeepsEarlierTargets(t *testing.T) {
	out := t.TempDir()
	toolErr := &blender.ToolError{Source: "box.blend", ExitCode: 1, Output: "Error: GLB exporter crashed"}
	tool := &fakeTool{failExt: ".glb", failErr: toolErr}
	p := newPipeline(t, tool, Options{})

	res, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out})
	require.ErrorIs(t, err, blender.ErrToolFailed)
	assert.Contains(t, err.Error(), "gltf/glb")
	require.Len(t, res.Targets, 1)
	assert.FileExists(t, filepath.Join(out, "model.sdf"))
	assert.NoFileExists(t, filepath.Join(out, "gltf-model.sdf"))
}

func TestRunVerifyRejectsBrokenOutput(t *testing.T) {
	out := t.TempDir()
	p := newPipeline(t, &fakeTool{brokenCollision: true}, Options{Targets: mustTargets(t, "default/obj"), Verify: true})

	res, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out})
	require.ErrorIs(t, err, inspect.ErrInvalidOutput)
	assert.Contains(t, err.Error(), "no vertices")
	assert.Empty(t, res.Targets)
}

func TestRunMetadata(t *testing.T) {
	out := t.TempDir()
	static := false
	meta := metadata.Metadata{
		Version:     "1.2",
		Description: "# Box\n\nA *plain* box.",
		Authors:     []metadata.Author{{Name: "Ada", Email: "ada@example.com"}},
		Static:      &static,
	}
	p := newPipeline(t, &fakeTool{}, Options{Targets: mustTargets(t, "default/obj")})

	_, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out, Metadata: meta})
	require.NoError(t, err)

	assert.Contains(t, readFile(t, filepath.Join(out, "model.sdf")), "<static>false</static>")
	m, err := sdf.ReadManifest(filepath.Join(out, "model.config"))
	require.NoError(t, err)
	assert.Equal(t, "1.2", m.Version)
	assert.Equal(t, "Box\n\nA plain box.", m.Description)
	require.Len(t, m.Authors, 1)
	assert.Equal(t, "ada@example.com", m.Authors[0].Email)
}

func TestRunDemoWorld(t *testing.T) {
	out := t.TempDir()
	p := newPipeline(t, &fakeTool{}, Options{Targets: mustTargets(t, "default/obj"), DemoWorld: true})

	res, err := p.Run(context.Background(), Request{Name: "Box", Source: writeSource(t), OutDir: out})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, DemoWorldFile), res.World)
	assert.Contains(t, res.Files(), res.World)
	assert.Contains(t, readFile(t, res.World), "<name>Box</name>")
}

func TestRunRejectsBadRequests(t *testing.T) {
	p := newPipeline(t, &fakeTool{}, Options{})
	src := writeSource(t)
	for _, name := range []string{"", " ", "..", "a/b", `a\b`} {
		_, err := p.Run(context.Background(), Request{Name: name, Source: src, OutDir: t.TempDir()})
		assert.Error(t, err, "name %q", name)
	}
	_, err := p.Run(context.Background(), Request{Name: "Box", Source: src})
	assert.Error(t, err)

	_, err = p.Run(context.Background(), Request{Name: "Box", Source: filepath.Join(t.TempDir(), "missing.blend"), OutDir: t.TempDir()})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = New(&fakeTool{}, collision.Policy{}, Options{})
	assert.ErrorIs(t, err, collision.ErrInvalidPolicy)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tool := &fakeTool{}
	p := newPipeline(t, tool, Options{})
	_, err := p.Run(ctx, Request{Name: "Box", Source: writeSource(t), OutDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tool.jobs)
}

func TestRunBatch(t *testing.T) {
	root := t.TempDir()
	src := writeSource(t)
	tool := &fakeTool{delay: 20 * time.Millisecond}
	p := newPipeline(t, tool, Options{Targets: mustTargets(t, "default/obj")})

	var reqs []Request
	for _, name := range []string{"Box", "Chair", "Lamp", "Table"} {
		reqs = append(reqs, Request{Name: name, Source: src, OutDir: filepath.Join(root, name)})
	}
	results, err := p.RunBatch(context.Background(), reqs, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, reqs[i].Name, r.Name)
		assert.Contains(t, readFile(t, filepath.Join(r.Dir, "model.sdf")), `<model name="`+r.Name+`">`)
	}
	assert.LessOrEqual(t, tool.peak.Load(), int32(2))
}

func TestRunBatchErrors(t *testing.T) {
	root := t.TempDir()
	src := writeSource(t)
	p := newPipeline(t, &fakeTool{}, Options{Targets: mustTargets(t, "default/obj")})

	_, err := p.RunBatch(context.Background(), []Request{
		{Name: "Box", Source: src, OutDir: filepath.Join(root, "x")},
		{Name: "Crate", Source: src, OutDir: filepath.Join(root, "x") + "/"},
	}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share output directory")

	_, err = p.RunBatch(context.Background(), []Request{
		{Name: "Box", Source: src, OutDir: filepath.Join(root, "Box")},
		{Name: "Ghost", Source: filepath.Join(root, "ghost.blend"), OutDir: filepath.Join(root, "Ghost")},
	}, 1)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "model Ghost"), err.Error())
	assert.False(t, errors.Is(err, context.Canceled))
}

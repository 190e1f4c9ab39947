// Package pipeline turns a source scene into a simulator-ready model
// directory: meshes per target format plus the descriptor and manifest that
// point at them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/art-e-fact/RoboProp/internal/blender"
	"github.com/art-e-fact/RoboProp/internal/collision"
	"github.com/art-e-fact/RoboProp/internal/export"
	"github.com/art-e-fact/RoboProp/internal/inspect"
	"github.com/art-e-fact/RoboProp/internal/logger"
	"github.com/art-e-fact/RoboProp/internal/metadata"
	"github.com/art-e-fact/RoboProp/pkg/sdf"
)

// DemoWorldFile is written next to the descriptors when Options.DemoWorld is set.
const DemoWorldFile = "demo.sdf"

// ExporterFactory returns the exporter for a format.
type ExporterFactory func(format export.Format) (export.Exporter, error)

// Options configures a Pipeline.
type Options struct {
	// Targets are exported in order. Empty means DefaultTargets.
	Targets []Target
	// Verify inspects each target's output after writing it.
	Verify bool
	// DemoWorld writes demo.sdf including the model.
	DemoWorld bool
}

// Pipeline exports models. It holds no per-model state and may run several
// models at once.
type Pipeline struct {
	newExporter ExporterFactory
	opts        Options
}

// New returns a pipeline exporting through tool with the given collision
// policy.
func New(tool blender.Tool, policy collision.Policy, opts Options) (*Pipeline, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	factory := func(f export.Format) (export.Exporter, error) {
		return export.New(f, tool, policy)
	}
	return NewWithFactory(factory, opts), nil
}

// NewWithFactory returns a pipeline using factory to resolve exporters.
func NewWithFactory(factory ExporterFactory, opts Options) *Pipeline {
	if len(opts.Targets) == 0 {
		opts.Targets = DefaultTargets()
	}
	return &Pipeline{newExporter: factory, opts: opts}
}

// Targets returns the configured targets.
func (p *Pipeline) Targets() []Target {
	return append([]Target(nil), p.opts.Targets...)
}

// Request describes one model to export.
type Request struct {
	// Name is written into the descriptors.
	Name string
	// Source is the .blend scene.
	Source string
	// OutDir is the model directory; it is created if needed.
	OutDir   string
	Metadata metadata.Metadata
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target Target
	Layout Layout
	// Report is set when verification ran.
	Report *inspect.Report
}

// Result lists what a run wrote.
type Result struct {
	RunID   string
	Name    string
	Dir     string
	Targets []TargetResult
	// World is the demo world path, if written.
	World    string
	Duration time.Duration
}

// Files returns every file written, without duplicates, in write order.
func (r *Result) Files() []string {
	seen := make(map[string]bool)
	var files []string
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	for _, t := range r.Targets {
		for _, f := range t.Layout.Files() {
			add(f)
		}
	}
	add(r.World)
	return files
}

// Formats returns the distinct exported formats in target order.
func (r *Result) Formats() []string {
	seen := make(map[export.Format]bool)
	var out []string
	for _, t := range r.Targets {
		if !seen[t.Target.Format] {
			seen[t.Target.Format] = true
			out = append(out, string(t.Target.Format))
		}
	}
	return out
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("model name is empty")
	case name == "." || name == "..", strings.ContainsAny(name, `/\`):
		return fmt.Errorf("model name %q is not a single path element", name)
	}
	return nil
}

// Run exports req for every target in order. A failing target stops the run;
// files written by earlier targets are kept and listed in the returned
// result.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Name: req.Name, Dir: req.OutDir}
	if err := validateName(req.Name); err != nil {
		return res, err
	}
	if req.OutDir == "" {
		return res, errors.New("output directory is empty")
	}
	description, err := req.Metadata.PlainDescription()
	if err != nil {
		return res, err
	}

	log := logger.Named("pipeline").With(
		zap.String("run_id", res.RunID),
		zap.String("model", req.Name))
	start := time.Now()
	log.Info("export started",
		zap.String("source", req.Source),
		zap.String("out", req.OutDir),
		zap.Int("targets", len(p.opts.Targets)))

	for _, t := range p.opts.Targets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tr, err := p.runTarget(ctx, req, t, description, log)
		if err != nil {
			log.Error("target failed", zap.Stringer("target", t), zap.Error(err))
			return res, fmt.Errorf("target %s: %w", t, err)
		}
		res.Targets = append(res.Targets, tr)
	}

	if p.opts.DemoWorld {
		world := filepath.Join(req.OutDir, DemoWorldFile)
		if err := sdf.WriteWorld(world, req.Name, req.OutDir); err != nil {
			return res, fmt.Errorf("writing demo world: %w", err)
		}
		res.World = world
	}

	res.Duration = time.Since(start)
	log.Info("export finished",
		zap.Int("files", len(res.Files())),
		zap.Duration("took", res.Duration))
	return res, nil
}

func (p *Pipeline) runTarget(ctx context.Context, req Request, t Target, description string, log *zap.Logger) (TargetResult, error) {
	// Resolve first: an unsupported format must not leave files behind.
	exp, err := p.newExporter(t.Format)
	if err != nil {
		return TargetResult{}, err
	}
	layout := t.Layout(req.OutDir)
	if err := os.MkdirAll(filepath.Dir(layout.Visual), 0o755); err != nil {
		return TargetResult{}, err
	}

	log.Debug("exporting target", zap.Stringer("target", t))
	if err := exp.Export(ctx, req.Source, layout.Visual, layout.Collision); err != nil {
		return TargetResult{}, err
	}

	err = sdf.WriteDescriptor(sdf.DescriptorSpec{
		Name:           req.Name,
		DescriptorPath: layout.Descriptor,
		VisualPath:     layout.Visual,
		CollisionPath:  layout.Collision,
		Pose:           t.Format.AxisCorrection(),
		Static:         req.Metadata.IsStatic(),
	})
	if err != nil {
		return TargetResult{}, fmt.Errorf("writing descriptor: %w", err)
	}
	err = sdf.WriteManifest(sdf.ManifestSpec{
		Name:           req.Name,
		ManifestPath:   layout.Manifest,
		DescriptorPath: layout.Descriptor,
		Version:        req.Metadata.Version,
		Authors:        req.Metadata.ManifestAuthors(),
		Description:    description,
	})
	if err != nil {
		return TargetResult{}, fmt.Errorf("writing manifest: %w", err)
	}

	tr := TargetResult{Target: t, Layout: layout}
	if p.opts.Verify {
		tr.Report = inspect.Manifest(layout.Manifest)
		if err := tr.Report.Err(); err != nil {
			return tr, err
		}
	}
	log.Info("target written", zap.Stringer("target", t), zap.String("descriptor", layout.Descriptor))
	return tr, nil
}

// RunBatch exports independent models concurrently, at most jobs at a time.
// The first failure cancels the remaining runs. Results are in request order.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request, jobs int) ([]*Result, error) {
	seen := make(map[string]string)
	for _, r := range reqs {
		dir := filepath.Clean(r.OutDir)
		if other, ok := seen[dir]; ok {
			return nil, fmt.Errorf("models %q and %q share output directory %s", other, r.Name, dir)
		}
		seen[dir] = r.Name
	}
	if jobs < 1 {
		jobs = 1
	}

	results := make([]*Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := p.Run(ctx, req)
			results[i] = res
			if err != nil {
				return fmt.Errorf("model %s: %w", req.Name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// Package inspect checks an exported model directory the way a simulator
// would load it: manifest, descriptor, then every mesh the descriptor names.
package inspect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/art-e-fact/RoboProp/internal/export"
	"github.com/art-e-fact/RoboProp/internal/logger"
	rmath "github.com/art-e-fact/RoboProp/pkg/math"
	"github.com/art-e-fact/RoboProp/pkg/sdf"
)

// ErrInvalidOutput is wrapped by the error of a report with problems.
var ErrInvalidOutput = errors.New("invalid model output")

// Problem is one thing wrong with a file.
type Problem struct {
	File    string
	Message string
}

func (p Problem) String() string {
	return p.File + ": " + p.Message
}

// Mesh summarizes one mesh file referenced by a descriptor.
type Mesh struct {
	File   string
	Role   string // "visual" or "collision"
	Format export.Format
	Meshes int
	// Bounds is in the model frame: the link pose has been applied.
	Bounds rmath.Box
}

// Report collects everything found while inspecting.
type Report struct {
	Manifests []string
	Meshes    []Mesh
	Problems  []Problem
}

// OK reports whether no problem was found.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Err returns nil for a clean report, or an error listing every problem.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	lines := make([]string, len(r.Problems))
	for i, p := range r.Problems {
		lines[i] = p.String()
	}
	return fmt.Errorf("%w:\n  %s", ErrInvalidOutput, strings.Join(lines, "\n  "))
}

func (r *Report) addf(file, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{File: file, Message: fmt.Sprintf(format, args...)})
}

// Dir inspects every manifest in dir: model.config and <variant>-model.config.
func Dir(dir string) (*Report, error) {
	manifests, err := filepath.Glob(filepath.Join(dir, "*model.config"))
	if err != nil {
		return nil, err
	}
	sort.Strings(manifests)
	if len(manifests) == 0 {
		return nil, fmt.Errorf("no model.config in %s", dir)
	}
	r := &Report{}
	for _, m := range manifests {
		r.inspectManifest(m)
	}
	return r, nil
}

// Manifest inspects one manifest and the descriptor and meshes behind it.
func Manifest(path string) *Report {
	r := &Report{}
	r.inspectManifest(path)
	return r
}

func (r *Report) inspectManifest(path string) {
	log := logger.Named("inspect")
	r.Manifests = append(r.Manifests, path)

	m, err := sdf.ReadManifest(path)
	if err != nil {
		r.addf(path, "%v", err)
		return
	}
	if m.Name == "" {
		r.addf(path, "empty <name>")
	}
	if m.SDF.Path == "" {
		r.addf(path, "empty <sdf>")
		return
	}
	descPath := sdf.Resolve(path, m.SDF.Path)
	d, err := sdf.ReadDescriptor(descPath)
	if err != nil {
		r.addf(path, "<sdf> %s: %v", m.SDF.Path, err)
		return
	}
	if d.Model.Name != m.Name {
		r.addf(descPath, "model name %q differs from manifest name %q", d.Model.Name, m.Name)
	}
	pose, err := d.LinkPose()
	if err != nil {
		r.addf(descPath, "%v", err)
	}

	roles := []string{"visual", "collision"}
	for i, uri := range d.MeshURIs() {
		if uri == "" {
			r.addf(descPath, "empty %s <uri>", roles[i])
			continue
		}
		meshPath := sdf.Resolve(descPath, uri)
		mesh, err := inspectMesh(meshPath)
		if err != nil {
			r.addf(descPath, "%s <uri> %s: %v", roles[i], uri, err)
			continue
		}
		mesh.Role = roles[i]
		mesh.Bounds = mesh.Bounds.Rotate(pose.Rotation())
		r.Meshes = append(r.Meshes, mesh)
		log.Debug("mesh ok",
			zap.String("file", meshPath),
			zap.String("role", mesh.Role),
			zap.Int("meshes", mesh.Meshes),
			zap.Any("size", mesh.Bounds.Size()))
	}
}

func inspectMesh(path string) (Mesh, error) {
	format, err := export.FormatFromPath(path)
	if err != nil {
		return Mesh{}, err
	}
	if _, err := os.Stat(path); err != nil {
		return Mesh{}, err
	}
	mesh := Mesh{File: path, Format: format, Bounds: rmath.EmptyBox()}
	switch format {
	case export.FormatGLB, export.FormatGLTF:
		err = inspectGLTF(path, &mesh)
	case export.FormatOBJ:
		err = inspectOBJ(path, &mesh)
	case export.FormatFBX:
		err = inspectFBX(path, &mesh)
	}
	return mesh, err
}

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/art-e-fact/RoboProp/internal/blender"
	"github.com/art-e-fact/RoboProp/internal/collision"
	"github.com/art-e-fact/RoboProp/internal/logger"
)

// Exporter writes the visual and collision meshes for one format.
type Exporter interface {
	Format() Format
	Export(ctx context.Context, sourcePath, visualPath, collisionPath string) error
}

// operations returns the visual and collision operator calls for a format.
type operations func(visualPath, collisionPath string) (visual, coll blender.Operation)

// toolExporter runs a format's operations through the authoring tool.
type toolExporter struct {
	format Format
	tool   blender.Tool
	policy collision.Policy
	ops    operations
	unpack bool
}

// New returns the exporter for format. Every exporter simplifies the scene
// with policy between the visual and the collision export.
func New(format Format, tool blender.Tool, policy collision.Policy) (Exporter, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	e := &toolExporter{format: format, tool: tool, policy: policy}
	switch format {
	case FormatOBJ:
		e.ops, e.unpack = objOperations, true
	case FormatGLB:
		e.ops, e.unpack = gltfOperations("GLB"), false
	case FormatGLTF:
		e.ops, e.unpack = gltfOperations("GLTF_SEPARATE"), true
	case FormatFBX:
		e.ops, e.unpack = fbxOperations, true
	default:
		return nil, &UnsupportedFormatError{Ext: format.Ext()}
	}
	return e, nil
}

// ForPath returns the exporter matching the extension of visualPath.
func ForPath(visualPath string, tool blender.Tool, policy collision.Policy) (Exporter, error) {
	f, err := FormatFromPath(visualPath)
	if err != nil {
		return nil, err
	}
	return New(f, tool, policy)
}

func (e *toolExporter) Format() Format { return e.format }

func (e *toolExporter) Export(ctx context.Context, sourcePath, visualPath, collisionPath string) error {
	for _, p := range []string{visualPath, collisionPath} {
		if f, err := FormatFromPath(p); err != nil || f != e.format {
			return &UnsupportedFormatError{Ext: filepath.Ext(p), Path: p}
		}
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("opening source: %w", err)
	}

	source, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}
	visualPath, err = filepath.Abs(visualPath)
	if err != nil {
		return err
	}
	collisionPath, err = filepath.Abs(collisionPath)
	if err != nil {
		return err
	}

	visual, coll := e.ops(visualPath, collisionPath)
	params := e.policy.Params()
	job := blender.Job{
		Source:          source,
		UnpackResources: e.unpack,
		Visual:          visual,
		Collision:       &coll,
		Simplify:        &params,
	}

	logger.Debug("exporting",
		zap.String("format", string(e.format)),
		zap.String("source", source),
		zap.String("visual", visualPath),
		zap.String("collision", collisionPath),
		zap.String("collision_mode", string(params.Mode)))

	if err := e.tool.Run(ctx, job); err != nil {
		return fmt.Errorf("export %s: %w", e.format, err)
	}
	return nil
}

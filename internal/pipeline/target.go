package pipeline

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/art-e-fact/RoboProp/internal/export"
)

// DefaultVariant owns the unprefixed model.sdf and model.config.
const DefaultVariant = "default"

// AssetsDir holds the mesh files inside a model directory.
const AssetsDir = "assets"

var variantPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Target is one (variant, format) pair to export.
type Target struct {
	Variant string
	Format  export.Format
}

// DefaultTargets returns OBJ as the default variant and GLB as "gltf".
func DefaultTargets() []Target {
	return []Target{
		{Variant: DefaultVariant, Format: export.FormatOBJ},
		{Variant: "gltf", Format: export.FormatGLB},
	}
}

func (t Target) String() string {
	return t.Variant + "/" + string(t.Format)
}

// ParseTarget parses "variant/format", or a bare format for a variant of the
// same name.
func ParseTarget(s string) (Target, error) {
	variant, format, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		format = variant
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return Target{}, fmt.Errorf("target %q: %w", s, err)
	}
	if !ok {
		variant = string(f)
	}
	if !variantPattern.MatchString(variant) {
		return Target{}, fmt.Errorf("target %q: invalid variant %q", s, variant)
	}
	return Target{Variant: variant, Format: f}, nil
}

// ParseTargets parses a list of targets and rejects duplicate variants.
func ParseTargets(specs []string) ([]Target, error) {
	targets := make([]Target, 0, len(specs))
	seen := make(map[string]bool)
	for _, s := range specs {
		t, err := ParseTarget(s)
		if err != nil {
			return nil, err
		}
		if seen[t.Variant] {
			return nil, fmt.Errorf("target %q: variant %q listed twice", s, t.Variant)
		}
		seen[t.Variant] = true
		targets = append(targets, t)
	}
	return targets, nil
}

// Layout is where a target's files live inside a model directory.
type Layout struct {
	Dir        string
	Descriptor string
	Manifest   string
	Visual     string
	Collision  string
}

// Layout returns the file paths of t under dir. Targets sharing a format
// share mesh files.
func (t Target) Layout(dir string) Layout {
	prefix := ""
	if t.Variant != DefaultVariant {
		prefix = t.Variant + "-"
	}
	ext := t.Format.Ext()
	return Layout{
		Dir:        dir,
		Descriptor: filepath.Join(dir, prefix+"model.sdf"),
		Manifest:   filepath.Join(dir, prefix+"model.config"),
		Visual:     filepath.Join(dir, AssetsDir, "visual"+ext),
		Collision:  filepath.Join(dir, AssetsDir, "collision"+ext),
	}
}

// Files lists the layout's files in write order.
func (l Layout) Files() []string {
	return []string{l.Visual, l.Collision, l.Descriptor, l.Manifest}
}

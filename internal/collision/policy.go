// Package collision describes how visual meshes are simplified into collision
// meshes. The simplification itself runs inside the authoring tool; this
// package owns the policy and its validation.
package collision

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the simplification strategy.
type Mode string

const (
	// ModeRemesh decimates, then rebuilds a closed surface with a voxel-octree remesh.
	ModeRemesh Mode = "remesh"
	// ModeConvexHull decimates, then replaces each mesh with its convex hull.
	ModeConvexHull Mode = "convex_hull"
)

// Remesh surface modes understood by the authoring tool.
const (
	RemeshSmooth = "SMOOTH"
	RemeshSharp  = "SHARP"
	RemeshBlocks = "BLOCKS"
)

// ErrInvalidPolicy is wrapped by every validation failure.
var ErrInvalidPolicy = errors.New("invalid collision policy")

// Policy configures the collision pass.
type Policy struct {
	Mode          Mode    `yaml:"mode"`
	DecimateRatio float64 `yaml:"decimate_ratio"`
	OctreeDepth   int     `yaml:"octree_depth"`
	RemeshMode    string  `yaml:"remesh_mode"`
}

// Default returns the decimate+remesh policy: half the faces, then a smooth
// remesh at octree depth 6.
func Default() Policy {
	return Policy{
		Mode:          ModeRemesh,
		DecimateRatio: 0.5,
		OctreeDepth:   6,
		RemeshMode:    RemeshSmooth,
	}
}

// ParseMode accepts the config spellings of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remesh", "decimate_remesh", "":
		return ModeRemesh, nil
	case "convex_hull", "convex-hull", "hull", "decimate_convex_hull":
		return ModeConvexHull, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidPolicy, s)
	}
}

// Validate reports the first problem with the policy.
func (p Policy) Validate() error {
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.DecimateRatio <= 0 || p.DecimateRatio > 1 {
		return fmt.Errorf("%w: decimate_ratio %v must be in (0, 1]", ErrInvalidPolicy, p.DecimateRatio)
	}
	mode, _ := ParseMode(string(p.Mode))
	if mode == ModeRemesh {
		if p.OctreeDepth < 1 || p.OctreeDepth > 12 {
			return fmt.Errorf("%w: octree_depth %d must be in [1, 12]", ErrInvalidPolicy, p.OctreeDepth)
		}
		switch strings.ToUpper(p.RemeshMode) {
		case "", RemeshSmooth, RemeshSharp, RemeshBlocks:
		default:
			return fmt.Errorf("%w: remesh_mode %q", ErrInvalidPolicy, p.RemeshMode)
		}
	}
	return nil
}

// Params is the policy as handed to the authoring-tool script.
type Params struct {
	Mode          Mode    `json:"mode"`
	DecimateRatio float64 `json:"decimate_ratio"`
	OctreeDepth   int     `json:"octree_depth,omitempty"`
	RemeshMode    string  `json:"remesh_mode,omitempty"`
	// SingleUser makes every mesh object own its mesh data before any
	// modifier is applied; objects sharing data would otherwise be
	// simplified through each other.
	SingleUser bool `json:"single_user"`
	// ClearShapeKeys drops shape keys, which block modifier application.
	ClearShapeKeys bool `json:"clear_shape_keys"`
}

// Params normalizes the policy for the script. Call Validate first.
func (p Policy) Params() Params {
	mode, _ := ParseMode(string(p.Mode))
	params := Params{
		Mode:           mode,
		DecimateRatio:  p.DecimateRatio,
		SingleUser:     true,
		ClearShapeKeys: true,
	}
	if mode == ModeRemesh {
		params.OctreeDepth = p.OctreeDepth
		params.RemeshMode = strings.ToUpper(p.RemeshMode)
		if params.RemeshMode == "" {
			params.RemeshMode = RemeshSmooth
		}
	}
	return params
}

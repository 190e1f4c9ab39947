// Package export turns a .blend source into a visual mesh and a simplified
// collision mesh, one exporter per target file format.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/art-e-fact/RoboProp/pkg/sdf"
)

// Format is a mesh file format the exporters can write.
type Format string

const (
	FormatOBJ  Format = "obj"
	FormatGLB  Format = "glb"
	FormatGLTF Format = "gltf"
	FormatFBX  Format = "fbx"
)

// ErrUnsupportedFormat is matched by every *UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// UnsupportedFormatError names the extension that has no exporter.
type UnsupportedFormatError struct {
	Ext  string
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("exporting models with the extension %q is not implemented", e.Ext)
	}
	return fmt.Sprintf("exporting models with the extension %q is not implemented (appears in %s)", e.Ext, e.Path)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatOBJ, FormatGLB, FormatGLTF, FormatFBX}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// Supported reports whether an exporter exists for f.
func (f Format) Supported() bool {
	for _, known := range Formats() {
		if f == known {
			return true
		}
	}
	return false
}

// AxisCorrection is the link pose that brings the exported mesh into the
// simulator's Z-up frame. OBJ and FBX are exported with forward=Y, up=Z
// already; glTF is Y-up by definition and needs a +90 degree roll.
func (f Format) AxisCorrection() sdf.Pose {
	switch f {
	case FormatGLB, FormatGLTF:
		return sdf.Pose{Roll: 90}
	default:
		return sdf.Pose{}
	}
}

// ParseFormat accepts "obj", ".obj" or "OBJ".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if !f.Supported() {
		ext := s
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		return "", &UnsupportedFormatError{Ext: ext}
	}
	return f, nil
}

// FormatFromPath maps a file name to its format by extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", &UnsupportedFormatError{Ext: ext, Path: path}
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", &UnsupportedFormatError{Ext: ext, Path: path}
	}
	return f, nil
}

// Package sdf builds the XML documents that describe an exported model to a
// simulator: the SDF descriptor (model.sdf) and the manifest (model.config).
package sdf

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	rmath "github.com/art-e-fact/RoboProp/pkg/math"
)

// Version is the SDF schema version written into every document.
const Version = "1.9"

// Pose is a rigid transform; rotations are in degrees.
type Pose struct {
	X, Y, Z          float64
	Roll, Pitch, Yaw float64
}

// String formats the pose as "x y z roll pitch yaw".
func (p Pose) String() string {
	vals := []float64{p.X, p.Y, p.Z, p.Roll, p.Pitch, p.Yaw}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Rotation returns the orientation part of the pose.
func (p Pose) Rotation() rmath.Quat {
	const rad = math.Pi / 180
	return rmath.QuatFromEuler(p.Roll*rad, p.Pitch*rad, p.Yaw*rad)
}

// ParsePose parses the text of a <pose> element.
func ParsePose(s string) (Pose, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return Pose{}, fmt.Errorf("pose %q: expected 6 values, got %d", s, len(fields))
	}
	var vals [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Pose{}, fmt.Errorf("pose %q: %w", s, err)
		}
		vals[i] = v
	}
	return Pose{vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]}, nil
}

// RelativeURI returns the slash-separated path from the directory containing
// fromFile to target. Simulators resolve mesh URIs against the descriptor's own
// directory, so this is the only form written into documents.
func RelativeURI(fromFile, target string) (string, error) {
	fromDir, err := filepath.Abs(filepath.Dir(fromFile))
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(fromDir, absTarget)
	if err != nil {
		return "", fmt.Errorf("relative path from %s to %s: %w", fromDir, absTarget, err)
	}
	return filepath.ToSlash(rel), nil
}

// Resolve is the inverse of RelativeURI: it maps a URI found in the document at
// docPath back to a file-system path.
func Resolve(docPath, uri string) string {
	if filepath.IsAbs(uri) {
		return filepath.Clean(uri)
	}
	return filepath.Join(filepath.Dir(docPath), filepath.FromSlash(uri))
}

// Marshal renders v as an indented XML document with a header line.
// Output is a pure function of v.
func Marshal(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// WriteFile marshals v and replaces the file at path.
func WriteFile(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

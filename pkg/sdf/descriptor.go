package sdf

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
)

// Descriptor is the root <sdf> element of a model.sdf file.
type Descriptor struct {
	XMLName xml.Name `xml:"sdf"`
	Version string   `xml:"version,attr"`
	Model   Model    `xml:"model"`
}

// Model is a single simulated model with one link.
type Model struct {
	Name   string `xml:"name,attr"`
	Static bool   `xml:"static"`
	Link   Link   `xml:"link"`
}

// Link holds the visual and collision geometry of the model.
type Link struct {
	Name      string      `xml:"name,attr"`
	Pose      PoseElement `xml:"pose"`
	Visual    Shape       `xml:"visual"`
	Collision Shape       `xml:"collision"`
}

// PoseElement is the XML form of a Pose.
type PoseElement struct {
	Degrees string `xml:"degrees,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Shape is a named <visual> or <collision> block.
type Shape struct {
	Name     string   `xml:"name,attr"`
	Geometry Geometry `xml:"geometry"`
}

// Geometry wraps the mesh reference.
type Geometry struct {
	Mesh Mesh `xml:"mesh"`
}

// Mesh points at a mesh file relative to the descriptor.
type Mesh struct {
	URI string `xml:"uri"`
}

// DescriptorSpec is everything needed to build a descriptor.
type DescriptorSpec struct {
	Name           string
	DescriptorPath string
	VisualPath     string
	CollisionPath  string
	Pose           Pose
	Static         bool
}

// NewDescriptor builds the descriptor for spec. Mesh URIs are relative to the
// directory of spec.DescriptorPath.
func NewDescriptor(spec DescriptorSpec) (*Descriptor, error) {
	visualURI, err := RelativeURI(spec.DescriptorPath, spec.VisualPath)
	if err != nil {
		return nil, fmt.Errorf("visual uri: %w", err)
	}
	collisionURI, err := RelativeURI(spec.DescriptorPath, spec.CollisionPath)
	if err != nil {
		return nil, fmt.Errorf("collision uri: %w", err)
	}

	return &Descriptor{
		Version: Version,
		Model: Model{
			Name:   spec.Name,
			Static: spec.Static,
			Link: Link{
				Name: spec.Name + "_link",
				Pose: PoseElement{Degrees: "1", Value: spec.Pose.String()},
				Visual: Shape{
					Name:     spec.Name + "_visual",
					Geometry: Geometry{Mesh: Mesh{URI: visualURI}},
				},
				Collision: Shape{
					Name:     spec.Name + "_collision",
					Geometry: Geometry{Mesh: Mesh{URI: collisionURI}},
				},
			},
		},
	}, nil
}

// WriteDescriptor builds the descriptor for spec and writes it to
// spec.DescriptorPath.
func WriteDescriptor(spec DescriptorSpec) error {
	d, err := NewDescriptor(spec)
	if err != nil {
		return err
	}
	return WriteFile(spec.DescriptorPath, d)
}

// ReadDescriptor parses a model.sdf file.
func ReadDescriptor(path string) (*Descriptor, error) {
	var d Descriptor
	if err := readFile(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// MeshURIs returns the visual and collision URIs in document order.
func (d *Descriptor) MeshURIs() []string {
	return []string{
		d.Model.Link.Visual.Geometry.Mesh.URI,
		d.Model.Link.Collision.Geometry.Mesh.URI,
	}
}

// LinkPose parses the link pose. Angles are returned in degrees whatever
// unit the document uses.
func (d *Descriptor) LinkPose() (Pose, error) {
	el := d.Model.Link.Pose
	if el.Value == "" {
		return Pose{}, nil
	}
	p, err := ParsePose(el.Value)
	if err != nil {
		return Pose{}, err
	}
	if degrees, _ := strconv.ParseBool(el.Degrees); !degrees {
		const deg = 180 / math.Pi
		p.Roll, p.Pitch, p.Yaw = p.Roll*deg, p.Pitch*deg, p.Yaw*deg
	}
	return p, nil
}

package sdf

import (
	"encoding/xml"
	"fmt"
)

// Manifest is the root <model> element of a model.config file.
type Manifest struct {
	XMLName     xml.Name    `xml:"model"`
	Name        string      `xml:"name"`
	Version     string      `xml:"version,omitempty"`
	SDF         ManifestSDF `xml:"sdf"`
	Authors     []Author    `xml:"author,omitempty"`
	Description string      `xml:"description,omitempty"`
}

// ManifestSDF points at the descriptor, relative to the manifest.
type ManifestSDF struct {
	Version string `xml:"version,attr"`
	Path    string `xml:",chardata"`
}

// Author is a model author entry.
type Author struct {
	Name  string `xml:"name"`
	Email string `xml:"email,omitempty"`
}

// ManifestSpec is everything needed to build a manifest.
type ManifestSpec struct {
	Name           string
	ManifestPath   string
	DescriptorPath string

	// Optional fields.
	Version     string
	Authors     []Author
	Description string
}

// NewManifest builds the manifest for spec.
func NewManifest(spec ManifestSpec) (*Manifest, error) {
	rel, err := RelativeURI(spec.ManifestPath, spec.DescriptorPath)
	if err != nil {
		return nil, fmt.Errorf("descriptor path: %w", err)
	}
	return &Manifest{
		Name:        spec.Name,
		Version:     spec.Version,
		SDF:         ManifestSDF{Version: Version, Path: rel},
		Authors:     spec.Authors,
		Description: spec.Description,
	}, nil
}

// WriteManifest builds the manifest for spec and writes it to spec.ManifestPath.
func WriteManifest(spec ManifestSpec) error {
	m, err := NewManifest(spec)
	if err != nil {
		return err
	}
	return WriteFile(spec.ManifestPath, m)
}

// ReadManifest parses a model.config file.
func ReadManifest(path string) (*Manifest, error) {
	var m Manifest
	if err := readFile(path, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

package config

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelFileName is the conventional name of a model descriptor file.
const ModelFileName = "roboprop.yaml"

// Model is a roboprop.yaml file: one source scene and the key it is
// published under.
type Model struct {
	// Key is both the model name and its directory on the file server.
	Key string `yaml:"roboprop_key"`
	// BlendFile is relative to the descriptor file.
	BlendFile string         `yaml:"blend_file"`
	Metadata  map[string]any `yaml:"metadata,omitempty"`

	path string
}

// LoadModel reads and validates a model descriptor. BlendFile is returned
// resolved against the descriptor's directory.
func LoadModel(file string) (*Model, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{File: file, Field: "document", Problem: "is not valid YAML", Err: err}
	}
	m.path = file
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(m.BlendFile) {
		m.BlendFile = filepath.Join(filepath.Dir(file), filepath.FromSlash(m.BlendFile))
	}
	return &m, nil
}

// Validate reports missing required fields and keys that would escape the
// output directory.
func (m *Model) Validate() error {
	key := strings.TrimSpace(m.Key)
	if key == "" {
		return &ValidationError{File: m.path, Field: "roboprop_key", Problem: "is missing"}
	}
	if strings.ContainsAny(key, `\:`) || path.IsAbs(key) || path.Clean(key) != key || strings.HasPrefix(key, "..") {
		return &ValidationError{File: m.path, Field: "roboprop_key", Problem: "must be a clean relative key: " + key}
	}
	if strings.TrimSpace(m.BlendFile) == "" {
		return &ValidationError{File: m.path, Field: "blend_file", Problem: "is missing"}
	}
	return nil
}

// Name is the model name written into the descriptors: the last element of
// the key.
func (m *Model) Name() string {
	return path.Base(m.Key)
}

// Path is the file the model was loaded from.
func (m *Model) Path() string {
	return m.path
}

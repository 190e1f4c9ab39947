// Package metadata holds the optional descriptive fields of a model: what
// ends up in model.config besides the name, and what is indexed on the file
// server.
package metadata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/art-e-fact/RoboProp/pkg/dotpath"
	"github.com/art-e-fact/RoboProp/pkg/sdf"
)

// Description formats.
const (
	FormatMarkdown = "markdown"
	FormatOrg      = "org"
	FormatText     = "text"
)

// Author is a model author.
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
}

// Metadata is the typed view of a model's free-form metadata map. Keys it
// does not know are kept in Extra.
type Metadata struct {
	Description       string         `yaml:"description,omitempty"`
	DescriptionFormat string         `yaml:"description_format,omitempty"`
	Version           string         `yaml:"version,omitempty"`
	Author            *Author        `yaml:"author,omitempty"`
	Authors           []Author       `yaml:"authors,omitempty"`
	Tags              []string       `yaml:"tags,omitempty"`
	Static            *bool          `yaml:"static,omitempty"`
	Extra             map[string]any `yaml:",inline"`
}

// Decode converts a metadata tree (from YAML or from dotpath.Unflatten) into
// Metadata. String forms of typed fields ("static": "false",
// "tags": "a,b") are accepted.
func Decode(tree map[string]any) (Metadata, error) {
	var m Metadata
	if len(tree) == 0 {
		return m, nil
	}
	normalized, err := normalize(tree)
	if err != nil {
		return m, err
	}
	data, err := yaml.Marshal(normalized)
	if err != nil {
		return m, fmt.Errorf("encoding metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decoding metadata: %w", err)
	}
	switch m.DescriptionFormat {
	case "", FormatMarkdown, FormatOrg, FormatText:
	default:
		return m, fmt.Errorf("metadata: unknown description_format %q", m.DescriptionFormat)
	}
	return m, nil
}

func normalize(tree map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		out[k] = v
	}
	if s, ok := out["static"].(string); ok {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("metadata: static: %w", err)
		}
		out["static"] = b
	}
	if s, ok := out["tags"].(string); ok {
		var tags []string
		for _, tag := range strings.Split(s, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		out["tags"] = tags
	}
	switch v := out["version"].(type) {
	case int, float64:
		out["version"] = fmt.Sprint(v)
	}
	return out, nil
}

// Merge overlays b onto a, recursing into nested maps. Neither input is modified.
func Merge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if bm, ok := v.(map[string]any); ok {
			if am, ok := out[k].(map[string]any); ok {
				out[k] = Merge(am, bm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// FromAssignments parses repeated "a.b=value" flags into a metadata tree.
func FromAssignments(pairs []string) (map[string]any, error) {
	flat, err := dotpath.ParseAssignments(pairs)
	if err != nil {
		return nil, err
	}
	return dotpath.Unflatten(flat)
}

// IsStatic reports the static flag, defaulting to true: exported props do not
// move unless the model says so.
func (m Metadata) IsStatic() bool {
	return m.Static == nil || *m.Static
}

// AllAuthors returns Author followed by Authors.
func (m Metadata) AllAuthors() []Author {
	var out []Author
	if m.Author != nil && m.Author.Name != "" {
		out = append(out, *m.Author)
	}
	return append(out, m.Authors...)
}

// ManifestAuthors converts the authors for model.config.
func (m Metadata) ManifestAuthors() []sdf.Author {
	authors := m.AllAuthors()
	if len(authors) == 0 {
		return nil
	}
	out := make([]sdf.Author, len(authors))
	for i, a := range authors {
		out[i] = sdf.Author{Name: a.Name, Email: a.Email}
	}
	return out
}

// Flat returns the metadata as sorted dot-notation pairs, the form stored in
// the asset index.
func (m Metadata) Flat() (map[string]string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return dotpath.Flatten(tree), nil
}

// SortedKeys returns the keys of a flat map in order.
func SortedKeys(flat map[string]string) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-e-fact/RoboProp/internal/export"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"default/obj", Target{DefaultVariant, export.FormatOBJ}, false},
		{"gltf/GLB", Target{"gltf", export.FormatGLB}, false},
		{"fbx", Target{"fbx", export.FormatFBX}, false},
		{" web_lod-1/gltf ", Target{"web_lod-1", export.FormatGLTF}, false},
		{"default/stl", Target{}, true},
		{"bad variant/obj", Target{}, true},
		{"/obj", Target{}, true},
		{"", Target{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseTarget("x/dae")
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}

func TestParseTargetsRejectsDuplicateVariant(t *testing.T) {
	_, err := ParseTargets([]string{"default/obj", "default/glb"})
	assert.Error(t, err)

	targets, err := ParseTargets([]string{"default/obj", "gltf/glb"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTargets(), targets)
}

func TestLayout(t *testing.T) {
	dir := filepath.Join("out", "Box")

	def := Target{DefaultVariant, export.FormatOBJ}.Layout(dir)
	assert.Equal(t, filepath.Join(dir, "model.sdf"), def.Descriptor)
	assert.Equal(t, filepath.Join(dir, "model.config"), def.Manifest)
	assert.Equal(t, filepath.Join(dir, "assets", "visual.obj"), def.Visual)
	assert.Equal(t, filepath.Join(dir, "assets", "collision.obj"), def.Collision)

	gl := Target{"gltf", export.FormatGLB}.Layout(dir)
	assert.Equal(t, filepath.Join(dir, "gltf-model.sdf"), gl.Descriptor)
	assert.Equal(t, filepath.Join(dir, "gltf-model.config"), gl.Manifest)
	assert.Equal(t, filepath.Join(dir, "assets", "visual.glb"), gl.Visual)

	// Same format, different variants: shared meshes.
	other := Target{"lowpoly", export.FormatOBJ}.Layout(dir)
	assert.Equal(t, def.Visual, other.Visual)
	assert.NotEqual(t, def.Descriptor, other.Descriptor)
}

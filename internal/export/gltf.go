package export

import "github.com/art-e-fact/RoboProp/internal/blender"

// gltfOperations exports binary (GLB) or separate (GLTF_SEPARATE) glTF.
// Images are re-encoded as JPEG; rigged models are exported posed with their
// deform bones only.
func gltfOperations(exportFormat string) operations {
	return func(visualPath, collisionPath string) (blender.Operation, blender.Operation) {
		visual := blender.Operation{
			Op:       "export_scene.gltf",
			Filepath: visualPath,
			Options: map[string]any{
				"check_existing":                false,
				"use_selection":                 false,
				"export_format":                 exportFormat,
				"export_materials":              "EXPORT",
				"export_image_format":           "JPEG",
				"export_jpeg_quality":           60,
				"export_extras":                 true,
				"export_yup":                    true,
				"export_def_bones":              true,
				"export_rest_position_armature": false,
			},
		}
		coll := blender.Operation{
			Op:       "export_scene.gltf",
			Filepath: collisionPath,
			Options: map[string]any{
				"check_existing":   false,
				"use_selection":    false,
				"export_format":    exportFormat,
				"export_materials": "NONE",
				"export_apply":     true,
				"export_extras":    true,
				"export_yup":       true,
				"export_def_bones": true,
			},
		}
		return visual, coll
	}
}

package export

import "github.com/art-e-fact/RoboProp/internal/blender"

// objOperations exports Wavefront OBJ in the robotics frame (forward=Y, up=Z).
// Textures are copied next to the mesh; the collision mesh has no materials.
func objOperations(visualPath, collisionPath string) (blender.Operation, blender.Operation) {
	visual := blender.Operation{
		Op:       "wm.obj_export",
		Filepath: visualPath,
		Options: map[string]any{
			"check_existing":           false,
			"export_selected_objects":  false,
			"forward_axis":             "Y",
			"up_axis":                  "Z",
			"export_uv":                true,
			"export_normals":           true,
			"export_colors":            true,
			"export_materials":         true,
			"export_pbr_extensions":    true,
			"path_mode":                "COPY",
			"export_triangulated_mesh": true,
			"export_object_groups":     true,
			"export_material_groups":   true,
		},
	}
	coll := blender.Operation{
		Op:       "wm.obj_export",
		Filepath: collisionPath,
		Options: map[string]any{
			"check_existing":           false,
			"export_selected_objects":  false,
			"forward_axis":             "Y",
			"up_axis":                  "Z",
			"apply_modifiers":          true,
			"export_uv":                false,
			"export_normals":           true,
			"export_materials":         false,
			"export_triangulated_mesh": true,
		},
	}
	return visual, coll
}

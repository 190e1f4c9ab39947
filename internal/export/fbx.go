package export

import "github.com/art-e-fact/RoboProp/internal/blender"

// fbxOperations exports mesh objects only, with textures copied as files:
// simulators cannot read textures embedded in FBX.
func fbxOperations(visualPath, collisionPath string) (blender.Operation, blender.Operation) {
	visual := blender.Operation{
		Op:       "export_scene.fbx",
		Filepath: visualPath,
		Options: map[string]any{
			"check_existing":      false,
			"object_types":        []string{"MESH"},
			"path_mode":           "COPY",
			"embed_textures":      false,
			"apply_scale_options": "FBX_SCALE_ALL",
			"axis_forward":        "Y",
			"axis_up":             "Z",
		},
	}
	coll := blender.Operation{
		Op:       "export_scene.fbx",
		Filepath: collisionPath,
		Options: map[string]any{
			"check_existing":           false,
			"object_types":             []string{"MESH"},
			"path_mode":                "COPY",
			"embed_textures":           false,
			"apply_scale_options":      "FBX_SCALE_ALL",
			"axis_forward":             "Y",
			"axis_up":                  "Z",
			"use_mesh_modifiers":       true,
			"mesh_smooth_type":         "FACE",
			"use_mesh_edges":           false,
			"use_tspace":               false,
			"use_custom_props":         false,
			"add_leaf_bones":           false,
			"primary_bone_axis":        "Y",
			"secondary_bone_axis":      "X",
			"use_armature_deform_only": true,
			"bake_anim":                false,
			"use_metadata":             false,
			"use_triangles":            true,
		},
	}
	return visual, coll
}

// Package blender drives Blender as an external, one-shot subprocess.
//
// Blender's scene state is process-global and resetting it in place is not
// reliable, so every Job gets a fresh process.
package blender

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/art-e-fact/RoboProp/internal/collision"
)

// Operation is one bpy operator call that writes a file, e.g.
// "export_scene.gltf" with its keyword options.
type Operation struct {
	Op       string         `json:"op"`
	Filepath string         `json:"filepath"`
	Options  map[string]any `json:"options,omitempty"`
}

// Job is a complete export: load the source, write the visual mesh, simplify
// the scene in place, write the collision mesh. The visual export always runs
// on the unmodified scene.
type Job struct {
	Source          string            `json:"source"`
	UnpackResources bool              `json:"unpack_resources"`
	Visual          Operation         `json:"visual"`
	Collision       *Operation        `json:"collision,omitempty"`
	Simplify        *collision.Params `json:"simplify,omitempty"`
}

// Validate checks the job is complete before a process is spawned.
func (j Job) Validate() error {
	if j.Source == "" {
		return errors.New("job: source is empty")
	}
	if j.Visual.Op == "" || j.Visual.Filepath == "" {
		return errors.New("job: visual operation is incomplete")
	}
	if j.Collision != nil {
		if j.Collision.Op == "" || j.Collision.Filepath == "" {
			return errors.New("job: collision operation is incomplete")
		}
		if j.Simplify == nil {
			return errors.New("job: collision export without simplify parameters")
		}
	}
	return nil
}

// WriteFile stores the job as JSON for the script to pick up.
func (j Job) WriteFile(path string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadJob loads a job file.
func ReadJob(path string) (Job, error) {
	var j Job
	data, err := os.ReadFile(path)
	if err != nil {
		return j, err
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return j, fmt.Errorf("decoding job %s: %w", path, err)
	}
	return j, nil
}

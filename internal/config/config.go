// Package config handles toolkit configuration loading and management.
package config

import (
	"time"

	"github.com/art-e-fact/RoboProp/internal/collision"
)

// Config holds all toolkit settings.
type Config struct {
	Blender    BlenderConfig    `yaml:"blender"`
	Export     ExportConfig     `yaml:"export"`
	FileServer FileServerConfig `yaml:"fileserver"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BlenderConfig holds the authoring tool invocation.
type BlenderConfig struct {
	Path      string        `yaml:"path"`
	ExtraArgs []string      `yaml:"extra_args"`
	Timeout   time.Duration `yaml:"timeout"` // 0 = no limit
}

// ExportConfig holds output layout and export policy.
type ExportConfig struct {
	OutDir    string           `yaml:"out_dir"`
	Targets   []string         `yaml:"targets"` // "variant/format"
	Collision collision.Policy `yaml:"collision"`
	Verify    bool             `yaml:"verify"`
	DemoWorld bool             `yaml:"demo_world"`
	Jobs      int              `yaml:"jobs"`
}

// FileServerConfig holds the asset file server connection.
type FileServerConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Blender: BlenderConfig{
			Path: "blender",
		},
		Export: ExportConfig{
			OutDir:    "models",
			Targets:   []string{"default/obj", "gltf/glb"},
			Collision: collision.Default(),
			Verify:    true,
			DemoWorld: false,
			Jobs:      2,
		},
		FileServer: FileServerConfig{
			Timeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

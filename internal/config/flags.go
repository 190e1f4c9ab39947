package config

import "github.com/spf13/pflag"

// Flags holds the global command-line overrides. Zero values leave the
// loaded config untouched.
type Flags struct {
	ConfigPath  string
	Debug       bool
	LogFile     string
	BlenderPath string
}

// Bind registers the flags on fs.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write JSON logs to this file")
	fs.StringVar(&f.BlenderPath, "blender", "", "Blender executable")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.BlenderPath != "" {
		cfg.Blender.Path = f.BlenderPath
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidConfig is matched by every *ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError reports a missing or malformed setting.
type ValidationError struct {
	File    string // empty for the toolkit config
	Field   string
	Problem string
	Err     error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s %s", e.Field, e.Problem)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidConfig}
	}
	return []error{ErrInvalidConfig, e.Err}
}

// Validate checks the settings that cannot be defaulted at use time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Blender.Path) == "" {
		return &ValidationError{Field: "blender.path", Problem: "is empty"}
	}
	if c.Blender.Timeout < 0 {
		return &ValidationError{Field: "blender.timeout", Problem: "is negative"}
	}
	if c.Export.OutDir == "" {
		return &ValidationError{Field: "export.out_dir", Problem: "is empty"}
	}
	if len(c.Export.Targets) == 0 {
		return &ValidationError{Field: "export.targets", Problem: "is empty"}
	}
	if err := c.Export.Collision.Validate(); err != nil {
		return &ValidationError{Field: "export.collision", Problem: "is invalid", Err: err}
	}
	if c.Export.Jobs < 1 {
		return &ValidationError{Field: "export.jobs", Problem: fmt.Sprintf("must be at least 1, got %d", c.Export.Jobs)}
	}
	if c.FileServer.URL != "" {
		u, err := url.Parse(c.FileServer.URL)
		if err != nil {
			return &ValidationError{Field: "fileserver.url", Problem: "is not a URL", Err: err}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return &ValidationError{Field: "fileserver.url", Problem: fmt.Sprintf("has unsupported scheme %q", u.Scheme)}
		}
	}
	if c.FileServer.Timeout < 0 {
		return &ValidationError{Field: "fileserver.timeout", Problem: "is negative"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Field: "logging.level", Problem: fmt.Sprintf("is unknown: %q", c.Logging.Level)}
	}
	return nil
}

// CheckUpload reports whether the file server settings allow an upload.
func (c *Config) CheckUpload() error {
	if c.FileServer.URL == "" {
		return &ValidationError{Field: "fileserver.url", Problem: "is required for upload (set " + EnvFileServerURL + ")"}
	}
	if c.FileServer.APIKey == "" {
		return &ValidationError{Field: "fileserver.api_key", Problem: "is required for upload (set " + EnvFileServerAPIKey + ")"}
	}
	return nil
}

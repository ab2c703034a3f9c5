package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vk/cppbuildgo/internal/model"
)

// Config holds everything one build run needs.
type Config struct {
	WorkspaceRoot string
	BuildFile     string
	// PropertiesFile is the C/C++ properties file path. Empty disables the
	// properties layer entirely.
	PropertiesFile string

	ConfigName    string
	BuildTypeName string

	// Vars are -v name=value overrides. They shadow every other scope.
	Vars map[string]string

	MaxTasks         int
	ForceRebuild     bool
	ContinueOnError  bool
	Debug            bool
	TrimIncludePaths bool
	CommandTimeout   time.Duration

	// Initialize writes a sample build file instead of building.
	Initialize bool

	LogFormat string
	LogLevel  string
	NoColor   bool
}

// NewConfig validates and normalises a Config. The workspace root is made
// absolute here so every later path join is unambiguous.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigName == "" && !cfg.Initialize {
		return nil, errors.New("a configuration name is required")
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = "."
	}
	abs, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	cfg.WorkspaceRoot = abs
	if cfg.BuildFile == "" {
		return nil, errors.New("a build file path is required")
	}
	for name := range cfg.Vars {
		if !model.ValidName(name) {
			return nil, fmt.Errorf("invalid variable name %q", name)
		}
	}
	return &cfg, nil
}

// workspacePath resolves a configured path against the workspace root.
func (c *Config) workspacePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkspaceRoot, p)
}

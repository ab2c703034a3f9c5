// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
)

// SupportedVersion is the only build-steps file version this tool accepts.
const SupportedVersion = 1

// BuildStep is a single templated command, possibly fanned out over files
// or directories. At most one of FilePattern, DirectoryPattern and FileList
// may be set; OutputFile is only meaningful together with FilePattern.
type BuildStep struct {
	Name             string `json:"name"`
	Command          string `json:"command"`
	Params           Scope  `json:"params,omitempty"`
	FilePattern      string `json:"filePattern,omitempty"`
	DirectoryPattern string `json:"directoryPattern,omitempty"`
	FileList         string `json:"fileList,omitempty"`
	OutputDirectory  string `json:"outputDirectory,omitempty"`
	OutputFile       string `json:"outputFile,omitempty"`
	TrimIncludePaths bool   `json:"trimIncludePaths,omitempty"`
}

// BuildType is a named overlay of variables applied atop a configuration,
// e.g. "debug" or "release".
type BuildType struct {
	Name   string `json:"name"`
	Params Scope  `json:"params,omitempty"`
}

// BuildConfiguration is one named entry of the configurations array.
type BuildConfiguration struct {
	Name            string      `json:"name"`
	Params          Scope       `json:"params,omitempty"`
	BuildTypes      []BuildType `json:"buildTypes,omitempty"`
	BuildSteps      []BuildStep `json:"buildSteps"`
	ProblemMatchers []string    `json:"problemMatchers,omitempty"`
}

// BuildType returns the named build type, or nil when absent.
func (c *BuildConfiguration) BuildType(name string) *BuildType {
	for i := range c.BuildTypes {
		if c.BuildTypes[i].Name == name {
			return &c.BuildTypes[i]
		}
	}
	return nil
}

// GlobalConfiguration is the root object of the build-steps file.
type GlobalConfiguration struct {
	Version        int                  `json:"version"`
	Params         Scope                `json:"params,omitempty"`
	Configurations []BuildConfiguration `json:"configurations"`
}

// Configuration returns the named build configuration, or nil when absent.
func (g *GlobalConfiguration) Configuration(name string) *BuildConfiguration {
	for i := range g.Configurations {
		if g.Configurations[i].Name == name {
			return &g.Configurations[i]
		}
	}
	return nil
}

// Validate enforces the structural invariants of the document. It is run
// once by the loader; downstream packages assume a valid document.
func (g *GlobalConfiguration) Validate() error {
	if g.Version != SupportedVersion {
		return fmt.Errorf("unsupported build file version %d, expected %d", g.Version, SupportedVersion)
	}
	if len(g.Configurations) == 0 {
		return fmt.Errorf("build file defines no configurations")
	}
	if err := g.Params.Validate(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for i := range g.Configurations {
		cfg := &g.Configurations[i]
		if cfg.Name == "" {
			return fmt.Errorf("configuration %d has no name", i)
		}
		if seen[cfg.Name] {
			return fmt.Errorf("duplicate configuration name %q", cfg.Name)
		}
		seen[cfg.Name] = true
		if err := cfg.validate(); err != nil {
			return fmt.Errorf("configuration %q: %w", cfg.Name, err)
		}
	}
	return nil
}

func (c *BuildConfiguration) validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	types := map[string]bool{}
	for _, bt := range c.BuildTypes {
		if bt.Name == "" {
			return fmt.Errorf("build type with empty name")
		}
		if types[bt.Name] {
			return fmt.Errorf("duplicate build type name %q", bt.Name)
		}
		types[bt.Name] = true
		if err := bt.Params.Validate(); err != nil {
			return fmt.Errorf("build type %q: %w", bt.Name, err)
		}
	}
	if len(c.BuildSteps) == 0 {
		return fmt.Errorf("no build steps")
	}
	for i := range c.BuildSteps {
		if err := c.BuildSteps[i].validate(); err != nil {
			return fmt.Errorf("build step %q: %w", c.BuildSteps[i].Name, err)
		}
	}
	return nil
}

func (s *BuildStep) validate() error {
	if s.Name == "" {
		return fmt.Errorf("step has no name")
	}
	if s.Command == "" {
		return fmt.Errorf("step has no command")
	}
	set := 0
	for _, v := range []string{s.FilePattern, s.DirectoryPattern, s.FileList} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("filePattern, directoryPattern and fileList are mutually exclusive")
	}
	if s.OutputFile != "" && s.FilePattern == "" {
		return fmt.Errorf("outputFile requires filePattern")
	}
	return s.Params.Validate()
}

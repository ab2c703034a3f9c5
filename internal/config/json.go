package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vk/cppbuildgo/internal/ctxlog"
	"github.com/vk/cppbuildgo/internal/model"
)

// JSONLoader loads the documents from plain JSON files.
type JSONLoader struct{}

// NewJSONLoader returns a loader for the JSON on-disk format.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// LoadBuild implements Loader.
func (l *JSONLoader) LoadBuild(ctx context.Context, path string) (*model.GlobalConfiguration, error) {
	logger := ctxlog.FromContext(ctx)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading build file: %w", err)
	}
	var cfg model.GlobalConfiguration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing build file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build file %q: %w", path, err)
	}
	logger.Debug("Build file loaded.", "path", path, "configurations", len(cfg.Configurations))
	return &cfg, nil
}

// LoadProperties implements Loader.
func (l *JSONLoader) LoadProperties(ctx context.Context, path string) (*model.CppProperties, error) {
	logger := ctxlog.FromContext(ctx)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading properties file: %w", err)
	}
	var props model.CppProperties
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("parsing properties file %q: %w", path, err)
	}
	logger.Debug("Properties file loaded.", "path", path, "configurations", len(props.Configurations))
	return &props, nil
}

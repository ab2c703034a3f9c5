package config

import (
	"context"

	"github.com/vk/cppbuildgo/internal/model"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// LoadBuild reads and validates a build-steps file.
	LoadBuild(ctx context.Context, path string) (*model.GlobalConfiguration, error)

	// LoadProperties reads a C/C++ properties file. Keys outside the
	// tool's subset are ignored.
	LoadProperties(ctx context.Context, path string) (*model.CppProperties, error)
}

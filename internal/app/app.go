package app

import (
	"io"
	"log/slog"

	"github.com/gookit/color"

	"github.com/vk/cppbuildgo/internal/config"
)

// App encapsulates one build run's dependencies and configuration.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	loader config.Loader
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")
	if cfg.NoColor {
		color.Disable()
	}
	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		loader: loader,
	}
}

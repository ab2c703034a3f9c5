package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"

	"github.com/vk/cppbuildgo/internal/ctxlog"
	"github.com/vk/cppbuildgo/internal/executor"
	"github.com/vk/cppbuildgo/internal/model"
	"github.com/vk/cppbuildgo/internal/template"
)

// Run executes the build described by the App's configuration: every step
// of the selected configuration, in declaration order.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Run started.", "workspaceRoot", a.cfg.WorkspaceRoot, "configuration", a.cfg.ConfigName, "buildType", a.cfg.BuildTypeName)

	if a.cfg.Initialize {
		return a.writeSampleBuildFile()
	}

	if err := a.loadDotEnv(); err != nil {
		return err
	}

	global, err := a.loader.LoadBuild(ctx, a.cfg.workspacePath(a.cfg.BuildFile))
	if err != nil {
		return err
	}
	buildCfg := global.Configuration(a.cfg.ConfigName)
	if buildCfg == nil {
		return fmt.Errorf("configuration %q not found in %s", a.cfg.ConfigName, a.cfg.BuildFile)
	}
	var buildType *model.BuildType
	if a.cfg.BuildTypeName != "" {
		buildType = buildCfg.BuildType(a.cfg.BuildTypeName)
		if buildType == nil {
			return fmt.Errorf("build type %q not found in configuration %q", a.cfg.BuildTypeName, a.cfg.ConfigName)
		}
	}

	propScope, err := a.propertiesScope(ctx)
	if err != nil {
		return err
	}

	scopes := model.ScopeStack{a.defaultScope()}.Push(propScope, global.Params, buildCfg.Params)
	if buildType != nil {
		scopes = scopes.Push(buildType.Params)
	}

	exec := executor.New(a.outW, executor.Options{
		WorkspaceRoot:    a.cfg.WorkspaceRoot,
		MaxTasks:         int64(a.cfg.MaxTasks),
		ForceRebuild:     a.cfg.ForceRebuild,
		ContinueOnError:  a.cfg.ContinueOnError,
		Debug:            a.cfg.Debug,
		TrimIncludePaths: a.cfg.TrimIncludePaths,
		CommandTimeout:   a.cfg.CommandTimeout,
		CLIVars:          a.cliVars(),
	})

	start := time.Now()
	var total executor.Result
	for i := range buildCfg.BuildSteps {
		step := &buildCfg.BuildSteps[i]
		stepStart := time.Now()
		result, err := exec.RunStep(ctx, step, scopes.Push(step.Params))
		total.Add(result)
		a.printStepSummary(step.Name, result, time.Since(stepStart))
		if err != nil {
			return fmt.Errorf("build aborted: %w", err)
		}
	}

	a.printBuildSummary(total, time.Since(start))
	if total.ErrorsEncountered > 0 {
		return fmt.Errorf("build finished with %d errors", total.ErrorsEncountered)
	}
	return nil
}

// defaultScope is the outermost variable layer, available to every template.
func (a *App) defaultScope() model.Scope {
	return model.Scope{
		"workspaceRoot": model.String(template.Escape(filepath.ToSlash(a.cfg.WorkspaceRoot))),
		"configName":    model.String(template.Escape(a.cfg.ConfigName)),
		"buildTypeName": model.String(template.Escape(a.cfg.BuildTypeName)),
	}
}

// propertiesScope loads the C/C++ properties layer. A missing file is not
// an error; a present file with no matching configuration just logs.
func (a *App) propertiesScope(ctx context.Context) (model.Scope, error) {
	if a.cfg.PropertiesFile == "" {
		return nil, nil
	}
	path := a.cfg.workspacePath(a.cfg.PropertiesFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			a.logger.Debug("Properties file absent, skipping.", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("reading properties file: %w", err)
	}
	props, err := a.loader.LoadProperties(ctx, path)
	if err != nil {
		return nil, err
	}
	cfg := props.Configuration(a.cfg.ConfigName)
	if cfg == nil {
		a.logger.Debug("No matching properties configuration.", "requested", a.cfg.ConfigName)
		return nil, nil
	}
	return cfg.Scope(), nil
}

// loadDotEnv loads a workspace .env file into the process environment, so
// env: lookups in templates see it. Existing variables win.
func (a *App) loadDotEnv() error {
	path := filepath.Join(a.cfg.WorkspaceRoot, ".env")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading .env: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	a.logger.Debug("Workspace .env loaded.", "path", path)
	return nil
}

// cliVars converts the -v overrides into the innermost scope. Values are
// kept as raw template text so overrides may reference other variables.
func (a *App) cliVars() model.Scope {
	if len(a.cfg.Vars) == 0 {
		return nil
	}
	scope := make(model.Scope, len(a.cfg.Vars))
	for name, value := range a.cfg.Vars {
		scope[name] = model.String(value)
	}
	return scope
}

func (a *App) printStepSummary(name string, r executor.Result, d time.Duration) {
	line := fmt.Sprintf("Step %q: %d processed, %d skipped, %d errors (%s)",
		name, r.FilesProcessed, r.FilesSkipped, r.ErrorsEncountered, d.Round(time.Millisecond))
	if r.ErrorsEncountered > 0 {
		fmt.Fprintln(a.outW, color.Danger.Sprint(line))
		return
	}
	fmt.Fprintln(a.outW, color.Success.Sprint(line))
}

func (a *App) printBuildSummary(total executor.Result, d time.Duration) {
	line := fmt.Sprintf("Build finished: %d processed, %d skipped, %d errors (%s)",
		total.FilesProcessed, total.FilesSkipped, total.ErrorsEncountered, d.Round(time.Millisecond))
	if total.ErrorsEncountered > 0 {
		fmt.Fprintln(a.outW, color.Danger.Sprint(line))
		return
	}
	fmt.Fprintln(a.outW, color.Info.Sprint(line))
}

package executor

import (
	"context"
	"fmt"

	"github.com/vk/cppbuildgo/internal/ctxlog"
	"github.com/vk/cppbuildgo/internal/glob"
	"github.com/vk/cppbuildgo/internal/model"
	"github.com/vk/cppbuildgo/internal/template"
)

// runPerDirectory expands the step's directoryPattern and runs the
// command once per directory, sequentially and in match order.
func (e *Executor) runPerDirectory(ctx context.Context, step *model.BuildStep, scopes model.ScopeStack) (Result, error) {
	pattern, err := e.newResolver(scopes, nil).ExpandScalar(step.DirectoryPattern)
	if err != nil {
		return Result{}, fmt.Errorf("step %q: %w", step.Name, err)
	}
	dirs, err := e.glob.Expand(pattern, glob.DirectoriesOnly)
	if err != nil {
		return Result{}, fmt.Errorf("step %q: %w", step.Name, err)
	}
	logger := ctxlog.FromContext(ctx).With("step", step.Name)
	logger.Debug("Directory pattern expanded.", "pattern", pattern, "count", len(dirs))

	var c counters
	for _, escaped := range dirs {
		if ctx.Err() != nil {
			break
		}
		dir := template.Unescape(escaped)
		if err := e.runDirectoryTask(ctx, step, scopes, dir, &c); err != nil {
			c.errors.Add(1)
			e.reportError(stepError(step, dir, err))
			if !e.opts.ContinueOnError {
				return c.snapshot(), fmt.Errorf("step %q failed", step.Name)
			}
		}
	}
	return c.snapshot(), nil
}

func (e *Executor) runDirectoryTask(ctx context.Context, step *model.BuildStep, scopes model.ScopeStack, dir string, c *counters) error {
	resolver := e.newResolver(scopes, directoryScope(e.opts.WorkspaceRoot, dir))

	if step.OutputDirectory != "" {
		out, err := resolver.ExpandScalar(step.OutputDirectory)
		if err != nil {
			return err
		}
		if err := e.makeOutputDir(out); err != nil {
			return err
		}
	}
	command, err := resolver.Expand(step.Command)
	if err != nil {
		return err
	}
	if err := e.runCommand(ctx, dir, command); err != nil {
		return err
	}
	c.processed.Add(1)
	return nil
}

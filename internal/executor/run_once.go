package executor

import (
	"context"
	"fmt"

	"github.com/vk/cppbuildgo/internal/glob"
	"github.com/vk/cppbuildgo/internal/model"
	"github.com/vk/cppbuildgo/internal/template"
)

// runOnce runs the step's command a single time. When fileList is
// present, it is expanded first and the file variables enter the command
// scope as multi-valued lists so the command can fan out over them
// itself.
func (e *Executor) runOnce(ctx context.Context, step *model.BuildStep, scopes model.ScopeStack) (Result, error) {
	taskScope := model.Scope{}
	if step.FileList != "" {
		pattern, err := e.newResolver(scopes, nil).ExpandScalar(step.FileList)
		if err != nil {
			return Result{}, fmt.Errorf("step %q: %w", step.Name, err)
		}
		escaped, err := e.glob.Expand(pattern, glob.FilesOnly)
		if err != nil {
			return Result{}, fmt.Errorf("step %q: %w", step.Name, err)
		}
		paths := make([]string, len(escaped))
		for i, p := range escaped {
			paths[i] = template.Unescape(p)
		}
		taskScope = fileListScope(paths)
	}

	var c counters
	if err := e.runOnceTask(ctx, step, scopes, taskScope, &c); err != nil {
		c.errors.Add(1)
		e.reportError(stepError(step, "", err))
		if !e.opts.ContinueOnError {
			return c.snapshot(), fmt.Errorf("step %q failed", step.Name)
		}
	}
	return c.snapshot(), nil
}

func (e *Executor) runOnceTask(ctx context.Context, step *model.BuildStep, scopes model.ScopeStack, taskScope model.Scope, c *counters) error {
	resolver := e.newResolver(scopes, taskScope)

	if err := e.checkForcedIncludes(resolver); err != nil {
		return err
	}
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
	if ctx.Err() != nil {
		return nil
	}
	if err := e.runCommand(ctx, step.Name, command); err != nil {
		return err
	}
	c.processed.Add(1)
	return nil
}

package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/vk/cppbuildgo/internal/ctxlog"
	"github.com/vk/cppbuildgo/internal/glob"
	"github.com/vk/cppbuildgo/internal/includes"
	"github.com/vk/cppbuildgo/internal/model"
	"github.com/vk/cppbuildgo/internal/template"
)

// runPerFile expands the step's filePattern and runs the command once per
// file, up to MaxTasks concurrently. The first failure cancels the step
// unless ContinueOnError is set; in-flight tasks observe the cancellation
// at every suspension point and exit promptly.
func (e *Executor) runPerFile(parent context.Context, step *model.BuildStep, scopes model.ScopeStack) (Result, error) {
	pattern, err := e.newResolver(scopes, nil).ExpandScalar(step.FilePattern)
	if err != nil {
		return Result{}, fmt.Errorf("step %q: %w", step.Name, err)
	}
	files, err := e.glob.Expand(pattern, glob.FilesOnly)
	if err != nil {
		return Result{}, fmt.Errorf("step %q: %w", step.Name, err)
	}
	logger := ctxlog.FromContext(parent).With("step", step.Name)
	logger.Debug("File pattern expanded.", "pattern", step.FilePattern, "count", len(files))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var analyzer *includes.Analyzer
	if step.TrimIncludePaths || e.opts.TrimIncludePaths {
		analyzer = includes.New(e.opts.WorkspaceRoot)
	}

	var c counters
	sem := semaphore.NewWeighted(e.opts.MaxTasks)
	var wg sync.WaitGroup
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			defer sem.Release(1)
			if ctx.Err() != nil {
				return
			}
			if err := e.runFileTask(ctx, step, scopes, analyzer, file, &c); err != nil {
				c.errors.Add(1)
				e.reportError(stepError(step, template.Unescape(file), err))
				if !e.opts.ContinueOnError {
					cancel()
				}
			}
		}(file)
	}
	wg.Wait()

	result := c.snapshot()
	if result.ErrorsEncountered > 0 && !e.opts.ContinueOnError {
		return result, fmt.Errorf("step %q failed", step.Name)
	}
	return result, nil
}

// runFileTask processes one file of a per-file step.
func (e *Executor) runFileTask(ctx context.Context, step *model.BuildStep, scopes model.ScopeStack, analyzer *includes.Analyzer, escapedPath string, c *counters) error {
	logger := ctxlog.FromContext(ctx).With("step", step.Name, "file", template.Unescape(escapedPath))
	path := template.Unescape(escapedPath)
	taskScope := fileScope(path)
	resolver := e.newResolver(scopes, taskScope)

	if step.OutputFile != "" {
		outputFile, err := resolver.ExpandScalar(step.OutputFile)
		if err != nil {
			return err
		}
		if !e.opts.ForceRebuild && e.outputIsFresh(outputFile, path) {
			logger.Debug("Output is newer than input, skipping.", "output", outputFile)
			c.skipped.Add(1)
			return nil
		}
		if err := e.makeOutputDir(filepath.Dir(outputFile)); err != nil {
			return err
		}
	}
	if step.OutputDirectory != "" {
		dir, err := resolver.ExpandScalar(step.OutputDirectory)
		if err != nil {
			return err
		}
		if err := e.makeOutputDir(dir); err != nil {
			return err
		}
	}

	if analyzer != nil {
		trimmed, err := e.trimIncludePaths(resolver, analyzer, path)
		if err != nil {
			return err
		}
		if trimmed != nil {
			taskScope["includePath"] = model.List(trimmed...)
			// The include override invalidates anything memoised through
			// the old scope, so the command expands via a fresh resolver.
			resolver = e.newResolver(scopes, taskScope)
		}
	} else if err := e.checkForcedIncludes(resolver); err != nil {
		return err
	}

	command, err := resolver.Expand(step.Command)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := e.runCommand(ctx, path, command); err != nil {
		return err
	}
	c.processed.Add(1)
	return nil
}

// outputIsFresh reports whether output exists and is strictly newer than
// input, both resolved against the workspace root.
func (e *Executor) outputIsFresh(output, input string) bool {
	outInfo, err := os.Stat(e.absPath(output))
	if err != nil {
		return false
	}
	inInfo, err := os.Stat(e.absPath(input))
	if err != nil {
		return false
	}
	return outInfo.ModTime().After(inInfo.ModTime())
}

// trimIncludePaths computes the subset of includePath needed by the file
// and its forced includes. It returns nil when the step defines no
// include paths to trim. A forcedInclude file that does not exist is a
// hard error before the subprocess is launched.
func (e *Executor) trimIncludePaths(resolver *template.Resolver, analyzer *includes.Analyzer, path string) ([]string, error) {
	includePaths, err := resolveOptionalList(resolver, "includePath")
	if err != nil {
		return nil, err
	}
	if len(includePaths) == 0 {
		return nil, nil
	}
	forced, err := resolveOptionalList(resolver, "forcedInclude")
	if err != nil {
		return nil, err
	}
	for _, f := range forced {
		if _, err := os.Stat(e.absPath(f)); err != nil {
			return nil, fmt.Errorf("forced include %q does not exist", f)
		}
	}
	if err := analyzer.Enlist(includePaths); err != nil {
		return nil, err
	}

	// The compiled file is analysed as the first seed, ahead of the forced
	// includes; the union of their needed directories is kept.
	needed := map[string]struct{}{}
	for _, seed := range append([]string{path}, forced...) {
		paths, found, err := analyzer.GetPaths(e.opts.WorkspaceRoot, seed)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("cannot analyse %q: file not found", seed)
		}
		for _, p := range paths {
			needed[p] = struct{}{}
		}
	}

	trimmed := make([]string, 0, len(needed))
	for _, ip := range includePaths {
		key := ip
		if filepath.IsAbs(ip) {
			if rel, err := filepath.Rel(e.opts.WorkspaceRoot, ip); err == nil && !isOutside(rel) {
				key = filepath.ToSlash(rel)
			}
		} else {
			key = filepath.ToSlash(filepath.Clean(ip))
		}
		if _, ok := needed[key]; ok {
			trimmed = append(trimmed, template.Escape(ip))
		}
	}
	return trimmed, nil
}

// checkForcedIncludes verifies forced include files exist even when
// trimming is off, so the failure surfaces before the compiler's.
func (e *Executor) checkForcedIncludes(resolver *template.Resolver) error {
	forced, err := resolveOptionalList(resolver, "forcedInclude")
	if err != nil {
		return err
	}
	for _, f := range forced {
		if _, err := os.Stat(e.absPath(f)); err != nil {
			return fmt.Errorf("forced include %q does not exist", f)
		}
	}
	return nil
}

func (e *Executor) absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.opts.WorkspaceRoot, p)
}

func isOutside(rel string) bool {
	return rel == ".." || len(rel) > 1 && rel[0] == '.' && rel[1] == '.'
}

// Package executor runs build steps: it fans a templated command out over
// files or directories, enforces the concurrency ceiling, skips files
// whose outputs are already newer than their inputs and aggregates
// per-step counters.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/cppbuildgo/internal/glob"
	"github.com/vk/cppbuildgo/internal/model"
	"github.com/vk/cppbuildgo/internal/template"
)

// DefaultMaxTasks is the concurrency ceiling applied when the caller does
// not set one.
const DefaultMaxTasks = 4

// DefaultCommandTimeout bounds a single subprocess.
const DefaultCommandTimeout = 10 * time.Second

// Options configures an Executor for one build run.
type Options struct {
	WorkspaceRoot    string
	MaxTasks         int64
	ForceRebuild     bool
	ContinueOnError  bool
	Debug            bool
	TrimIncludePaths bool
	CommandTimeout   time.Duration

	// CLIVars is the scope of -v overrides. It layers above the per-file
	// command scope, so it shadows everything.
	CLIVars model.Scope
}

// Result is the aggregate outcome of one build step.
type Result struct {
	FilesProcessed    int
	FilesSkipped      int
	ErrorsEncountered int
}

// Add accumulates another step's counters.
func (r *Result) Add(other Result) {
	r.FilesProcessed += other.FilesProcessed
	r.FilesSkipped += other.FilesSkipped
	r.ErrorsEncountered += other.ErrorsEncountered
}

// counters is the concurrently-updated form of Result.
type counters struct {
	processed atomic.Int64
	skipped   atomic.Int64
	errors    atomic.Int64
}

func (c *counters) snapshot() Result {
	return Result{
		FilesProcessed:    int(c.processed.Load()),
		FilesSkipped:      int(c.skipped.Load()),
		ErrorsEncountered: int(c.errors.Load()),
	}
}

// Executor runs the steps of one build. It owns the glob cache, the
// output sink and the mutexes that keep task output and directory
// creation race-free.
type Executor struct {
	opts Options
	glob *glob.Expander
	outW io.Writer

	// outMu keeps each task's output lines contiguous in the stream.
	outMu sync.Mutex
	// mkdirMu serialises output-directory creation across file tasks.
	mkdirMu sync.Mutex
}

// New builds an executor over the workspace root.
func New(outW io.Writer, opts Options) *Executor {
	if opts.MaxTasks < 1 {
		opts.MaxTasks = DefaultMaxTasks
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	return &Executor{
		opts: opts,
		glob: glob.New(opts.WorkspaceRoot),
		outW: outW,
	}
}

// globFunc adapts the expander for use inside $${...} template groups.
func (e *Executor) globFunc(pattern string) ([]string, error) {
	return e.glob.Expand(pattern, glob.ExpandAll)
}

// RunStep executes one build step against the given scope stack. The
// stack must already contain every layer up to and including the step's
// params; RunStep itself layers the per-file command scope and the CLI
// overrides on top. Dispatch is decided by which of filePattern,
// directoryPattern and fileList is present.
func (e *Executor) RunStep(ctx context.Context, step *model.BuildStep, scopes model.ScopeStack) (Result, error) {
	switch {
	case step.FilePattern != "":
		return e.runPerFile(ctx, step, scopes)
	case step.DirectoryPattern != "":
		return e.runPerDirectory(ctx, step, scopes)
	default:
		return e.runOnce(ctx, step, scopes)
	}
}

// newResolver builds a fresh call-site resolver with the per-task scope
// and the CLI overrides layered innermost.
func (e *Executor) newResolver(scopes model.ScopeStack, taskScope model.Scope) *template.Resolver {
	return template.NewResolver(scopes.Push(taskScope, e.opts.CLIVars), e.globFunc)
}

// resolveOptionalList resolves a multi-valued variable that legitimately
// may be absent, such as includePath when no properties file is loaded.
func resolveOptionalList(r *template.Resolver, name string) ([]string, error) {
	v, err := r.Resolve(name)
	if err != nil {
		if isUndefined(err) {
			return nil, nil
		}
		return nil, err
	}
	items := v.Items()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = template.Unescape(item)
	}
	return out, nil
}

func isUndefined(err error) bool {
	return errors.Is(err, template.ErrUndefined)
}

// stepError decorates a task failure with its step and file context for
// the user-visible error line.
func stepError(step *model.BuildStep, file string, err error) error {
	if file == "" {
		return fmt.Errorf("step %q: %w", step.Name, err)
	}
	return fmt.Errorf("step %q, file %q: %w", step.Name, file, err)
}

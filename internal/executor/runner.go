package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/gookit/color"

	"github.com/vk/cppbuildgo/internal/ctxlog"
)

// runCommand expands nothing: it receives the final command line, hands it
// to the host shell with the configured timeout and relays its combined
// output under the output mutex so task lines stay contiguous.
func (e *Executor) runCommand(ctx context.Context, label, cmdLine string) error {
	logger := ctxlog.FromContext(ctx)

	cctx := ctx
	if e.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.opts.CommandTimeout)
		defer cancel()
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cctx, "cmd", "/s", "/c", cmdLine)
	} else {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "sh"
		}
		cmd = exec.CommandContext(cctx, shell, "-c", cmdLine)
	}
	cmd.Dir = e.opts.WorkspaceRoot

	if e.opts.Debug {
		e.printLine(color.Debug.Sprintf("$ %s", cmdLine))
	}
	logger.Debug("Spawning command.", "label", label, "command", cmdLine)

	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		e.printLine(string(out))
	}
	if cctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("command timed out after %s", e.opts.CommandTimeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("command exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("spawning command: %w", err)
	}
	return nil
}

// printLine writes one block of task output under the output mutex.
func (e *Executor) printLine(s string) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	fmt.Fprintln(e.outW, s)
}

// reportError emits the single user-visible failure line for a task.
func (e *Executor) reportError(err error) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	fmt.Fprintln(e.outW, color.Danger.Sprint(err.Error()))
}

// makeOutputDir creates dir (and parents) under the process-wide mutex so
// parallel tasks cannot race on the same path.
func (e *Executor) makeOutputDir(dir string) error {
	if dir == "" {
		return nil
	}
	abs := dir
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(e.opts.WorkspaceRoot, dir)
	}
	e.mkdirMu.Lock()
	defer e.mkdirMu.Unlock()
	if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("creating output directory %q: %w", dir, err)
	}
	return nil
}

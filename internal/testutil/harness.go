// Package testutil provides the shared harness for end-to-end tests: a
// thread-safe output buffer and a helper that materialises a workspace from
// a file map and runs a full build through the app driver.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/cppbuildgo/internal/app"
	"github.com/vk/cppbuildgo/internal/config"
)

// SafeBuffer is a thread-safe buffer for capturing build output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// BuildResult holds the outcomes of a harness run.
type BuildResult struct {
	Root   string
	Output string
	Err    error
}

// RunBuild materialises files into a temp workspace and runs one build with
// a background context. Keys ending in "/" create bare directories.
func RunBuild(t *testing.T, files map[string]string, cfg app.Config) *BuildResult {
	t.Helper()
	return RunBuildWithContext(context.Background(), t, files, cfg)
}

// RunBuildWithContext is RunBuild with a caller-provided context, for
// cancellation tests.
func RunBuildWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *BuildResult {
	t.Helper()
	return RunBuildAt(ctx, t, t.TempDir(), files, cfg)
}

// RunBuildAt runs a build against an existing root, so tests can run the
// same workspace twice and observe incremental behaviour.
func RunBuildAt(ctx context.Context, t *testing.T, root string, files map[string]string, cfg app.Config) *BuildResult {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, name)
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	cfg.WorkspaceRoot = root
	if cfg.BuildFile == "" {
		cfg.BuildFile = "c_cpp_build.json"
	}
	cfg.NoColor = true
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	buildApp := app.NewApp(out, appConfig, config.NewJSONLoader())
	runErr := buildApp.Run(ctx)

	if os.Getenv("CPPBUILD_TEST_LOGS") == "true" {
		t.Logf("--- Full output for %s ---\n%s", t.Name(), out.String())
	}

	return &BuildResult{
		Root:   root,
		Output: out.String(),
		Err:    runErr,
	}
}

package integrationtests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cppbuildgo/internal/app"
	"github.com/vk/cppbuildgo/internal/testutil"
)

const incrementalBuildFile = `{
	"version": 1,
	"configurations": [{
		"name": "linux",
		"buildSteps": [{
			"name": "compile",
			"filePattern": "**/*.cpp",
			"outputFile": "build/${fileName}.o",
			"command": "cp [${filePath}] [build/${fileName}.o]"
		}]
	}]
}`

// newAgedWorkspace materialises files with mtimes an hour in the past, so
// outputs written by the build are strictly newer regardless of filesystem
// timestamp granularity.
func newAgedWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	past := time.Now().Add(-time.Hour)
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		require.NoError(t, os.Chtimes(path, past, past))
	}
	return root
}

func TestSecondRunSkipsEverything(t *testing.T) {
	requireShell(t)
	root := newAgedWorkspace(t, map[string]string{
		"src/a.cpp":        "int a;",
		"src/b.cpp":        "int b;",
		"lib/deep/c.cpp":   "int c;",
		"c_cpp_build.json": incrementalBuildFile,
	})
	cfg := app.Config{ConfigName: "linux"}

	first := testutil.RunBuildAt(context.Background(), t, root, nil, cfg)
	require.NoError(t, first.Err)
	assert.Contains(t, first.Output, `Step "compile": 3 processed, 0 skipped, 0 errors`)

	second := testutil.RunBuildAt(context.Background(), t, root, nil, cfg)
	require.NoError(t, second.Err)
	assert.Contains(t, second.Output, `Step "compile": 0 processed, 3 skipped, 0 errors`)
}

func TestTouchedInputRebuildsOnlyThatFile(t *testing.T) {
	requireShell(t)
	root := newAgedWorkspace(t, map[string]string{
		"src/a.cpp":        "int a;",
		"src/b.cpp":        "int b;",
		"c_cpp_build.json": incrementalBuildFile,
	})
	cfg := app.Config{ConfigName: "linux"}

	first := testutil.RunBuildAt(context.Background(), t, root, nil, cfg)
	require.NoError(t, first.Err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src/b.cpp"), future, future))

	second := testutil.RunBuildAt(context.Background(), t, root, nil, cfg)
	require.NoError(t, second.Err)
	assert.Contains(t, second.Output, `Step "compile": 1 processed, 1 skipped, 0 errors`)
}

func TestForceRebuildIgnoresTimestamps(t *testing.T) {
	requireShell(t)
	root := newAgedWorkspace(t, map[string]string{
		"src/a.cpp":        "int a;",
		"c_cpp_build.json": incrementalBuildFile,
	})

	first := testutil.RunBuildAt(context.Background(), t, root, nil, app.Config{ConfigName: "linux"})
	require.NoError(t, first.Err)

	second := testutil.RunBuildAt(context.Background(), t, root, nil, app.Config{ConfigName: "linux", ForceRebuild: true})
	require.NoError(t, second.Err)
	assert.Contains(t, second.Output, `Step "compile": 1 processed, 0 skipped, 0 errors`)
}

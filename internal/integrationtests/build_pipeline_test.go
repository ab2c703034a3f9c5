// Package integrationtests runs whole builds through the app driver
// against real temp workspaces.
package integrationtests

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cppbuildgo/internal/app"
	"github.com/vk/cppbuildgo/internal/testutil"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test commands assume a POSIX shell")
	}
}

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name))
	require.NoError(t, err)
	return string(data)
}

func TestCompileAndLinkPipeline(t *testing.T) {
	requireShell(t)
	files := map[string]string{
		"src/a.c":   "int a;",
		"src/b.c":   "int b;",
		"sub/c.c":   "int c;",
		"c_cpp_build.json": `{
			"version": 1,
			"params": {"buildDir": "build"},
			"configurations": [{
				"name": "linux",
				"buildSteps": [
					{
						"name": "compile",
						"filePattern": "**/*.c",
						"outputFile": "${buildDir}/${fileName}.o",
						"command": "cp [${filePath}] [${buildDir}/${fileName}.o]"
					},
					{
						"name": "link",
						"fileList": "${buildDir}/*.o",
						"command": "cat ([${filePath}]) > ${buildDir}/app"
					}
				]
			}]
		}`,
	}
	r := testutil.RunBuild(t, files, app.Config{ConfigName: "linux"})
	require.NoError(t, r.Err)

	assert.Equal(t, "int a;int b;int c;", readFile(t, r.Root, "build/app"))
	assert.Contains(t, r.Output, `Step "compile": 3 processed, 0 skipped, 0 errors`)
	assert.Contains(t, r.Output, `Step "link": 1 processed, 0 skipped, 0 errors`)
	assert.Contains(t, r.Output, "Build finished: 4 processed, 0 skipped, 0 errors")
}

func TestBuildTypeOverlayShadowsParams(t *testing.T) {
	requireShell(t)
	files := map[string]string{
		"c_cpp_build.json": `{
			"version": 1,
			"params": {"flags": "-O0"},
			"configurations": [{
				"name": "linux",
				"buildTypes": [{"name": "release", "params": {"flags": "-O2"}}],
				"buildSteps": [{
					"name": "emit",
					"command": "echo ${flags} for ${buildTypeName} > flags.txt"
				}]
			}]
		}`,
	}
	r := testutil.RunBuild(t, files, app.Config{ConfigName: "linux", BuildTypeName: "release"})
	require.NoError(t, r.Err)
	assert.Equal(t, "-O2 for release\n", readFile(t, r.Root, "flags.txt"))
}

func TestCLIVarsShadowEverything(t *testing.T) {
	requireShell(t)
	files := map[string]string{
		"c_cpp_build.json": `{
			"version": 1,
			"params": {"compiler": "gcc"},
			"configurations": [{
				"name": "linux",
				"buildSteps": [{"name": "emit", "command": "echo ${compiler} > compiler.txt"}]
			}]
		}`,
	}
	cfg := app.Config{ConfigName: "linux", Vars: map[string]string{"compiler": "clang"}}
	r := testutil.RunBuild(t, files, cfg)
	require.NoError(t, r.Err)
	assert.Equal(t, "clang\n", readFile(t, r.Root, "compiler.txt"))
}

func TestPerDirectoryStep(t *testing.T) {
	requireShell(t)
	files := map[string]string{
		"modules/net/":  "",
		"modules/core/": "",
		"c_cpp_build.json": `{
			"version": 1,
			"configurations": [{
				"name": "linux",
				"buildSteps": [{
					"name": "stage",
					"directoryPattern": "modules/*",
					"command": "touch staged-${directoryName}"
				}]
			}]
		}`,
	}
	r := testutil.RunBuild(t, files, app.Config{ConfigName: "linux"})
	require.NoError(t, r.Err)
	assert.FileExists(t, filepath.Join(r.Root, "staged-core"))
	assert.FileExists(t, filepath.Join(r.Root, "staged-net"))
}

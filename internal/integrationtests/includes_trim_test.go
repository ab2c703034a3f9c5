package integrationtests

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cppbuildgo/internal/app"
	"github.com/vk/cppbuildgo/internal/testutil"
)

// TestTrimIncludePaths enlists fifty include directories of which the
// compiled file transitively needs three. The command line must carry
// exactly those three -I entries, in enlistment order.
func TestTrimIncludePaths(t *testing.T) {
	requireShell(t)

	files := map[string]string{
		"src/main.c": "#include \"hdr03.h\"\n#include \"hdr17.h\"\nint main(void) { return 0; }\n",
	}
	var includePaths []string
	for i := 0; i < 50; i++ {
		dir := fmt.Sprintf("inc%02d", i)
		files[fmt.Sprintf("%s/hdr%02d.h", dir, i)] = "#pragma once\n"
		includePaths = append(includePaths, dir)
	}
	// hdr03.h pulls in a third directory transitively.
	files["inc03/hdr03.h"] = "#pragma once\n#include \"hdr29.h\"\n"

	files["c_cpp_build.json"] = `{
		"version": 1,
		"configurations": [{
			"name": "linux",
			"buildSteps": [{
				"name": "compile",
				"filePattern": "src/*.c",
				"trimIncludePaths": true,
				"command": "echo (-I[$${includePath}]) > cmdline.txt"
			}]
		}]
	}`
	files["c_cpp_properties.json"] = fmt.Sprintf(`{
		"configurations": [{"name": "linux", "includePath": ["%s"]}]
	}`, strings.Join(includePaths, `", "`))

	cfg := app.Config{
		ConfigName:     "linux",
		PropertiesFile: "c_cpp_properties.json",
	}
	r := testutil.RunBuild(t, files, cfg)
	require.NoError(t, r.Err)
	assert.Contains(t, r.Output, `Step "compile": 1 processed, 0 skipped, 0 errors`)
	assert.Equal(t, "-Iinc03 -Iinc17 -Iinc29\n", readFile(t, r.Root, "cmdline.txt"))
}

// TestUntrimmedIncludePathsPassThrough keeps the full set when trimming is
// off.
func TestUntrimmedIncludePathsPassThrough(t *testing.T) {
	requireShell(t)

	files := map[string]string{
		"src/main.c":  "#include \"util.h\"\nint main(void) { return 0; }\n",
		"inc1/util.h": "#pragma once\n",
		"inc2/misc.h": "#pragma once\n",
		"c_cpp_build.json": `{
			"version": 1,
			"configurations": [{
				"name": "linux",
				"buildSteps": [{
					"name": "compile",
					"filePattern": "src/*.c",
					"command": "echo (-I[$${includePath}]) > cmdline.txt"
				}]
			}]
		}`,
		"c_cpp_properties.json": `{
			"configurations": [{"name": "linux", "includePath": ["inc1", "inc2"]}]
		}`,
	}
	cfg := app.Config{
		ConfigName:     "linux",
		PropertiesFile: "c_cpp_properties.json",
	}
	r := testutil.RunBuild(t, files, cfg)
	require.NoError(t, r.Err)
	assert.Equal(t, "-Iinc1 -Iinc2\n", readFile(t, r.Root, "cmdline.txt"))
}

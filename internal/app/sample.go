package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gookit/color"
)

const sampleBuildFile = `{
    "version": 1,
    "params": {
        "compiler": "gcc",
        "flags": ["-Wall", "-Wextra"],
        "typeFlags": "",
        "buildDir": "build/${configName}"
    },
    "configurations": [
        {
            "name": "default",
            "buildTypes": [
                { "name": "debug", "params": { "typeFlags": "-g -O0" } },
                { "name": "release", "params": { "typeFlags": "-O2" } }
            ],
            "buildSteps": [
                {
                    "name": "compile",
                    "filePattern": "src/**/*.c",
                    "outputFile": "${buildDir}/${fileName}.o",
                    "command": "${compiler} (${flags}) ${typeFlags} -c [${filePath}] -o [${buildDir}/${fileName}.o]"
                },
                {
                    "name": "link",
                    "fileList": "${buildDir}/*.o",
                    "command": "${compiler} ([${filePath}]) -o [${buildDir}/app]"
                }
            ]
        }
    ]
}
`

// writeSampleBuildFile materialises a starter build file at the configured
// path. Refusing to overwrite keeps a mistyped -i from clobbering a real
// configuration.
func (a *App) writeSampleBuildFile() error {
	path := a.cfg.workspacePath(a.cfg.BuildFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing build file %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating build file directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleBuildFile), 0644); err != nil {
		return fmt.Errorf("writing sample build file: %w", err)
	}
	fmt.Fprintln(a.outW, color.Success.Sprintf("Sample build file written to %s", path))
	return nil
}

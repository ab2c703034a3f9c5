package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/cppbuildgo/internal/config"
	"github.com/vk/cppbuildgo/internal/model"
)

func TestNewConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing configuration name",
			cfg:     Config{BuildFile: "build.json"},
			wantErr: "configuration name is required",
		},
		{
			name:    "missing build file",
			cfg:     Config{ConfigName: "linux"},
			wantErr: "build file path is required",
		},
		{
			name:    "invalid variable name",
			cfg:     Config{ConfigName: "linux", BuildFile: "b.json", Vars: map[string]string{"no spaces": "x"}},
			wantErr: `invalid variable name "no spaces"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewConfig(tc.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewConfigNormalisesWorkspaceRoot(t *testing.T) {
	cfg, err := NewConfig(Config{ConfigName: "linux", BuildFile: "b.json"})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.WorkspaceRoot))
}

func TestNewConfigInitializeSkipsConfigName(t *testing.T) {
	cfg, err := NewConfig(Config{BuildFile: "b.json", Initialize: true})
	require.NoError(t, err)
	assert.True(t, cfg.Initialize)
}

func TestWriteSampleBuildFile(t *testing.T) {
	root := t.TempDir()
	cfg, err := NewConfig(Config{
		WorkspaceRoot: root,
		BuildFile:     ".vscode/c_cpp_build.json",
		Initialize:    true,
		NoColor:       true,
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a := NewApp(out, cfg, config.NewJSONLoader())
	require.NoError(t, a.Run(context.Background()))

	path := filepath.Join(root, ".vscode/c_cpp_build.json")
	require.FileExists(t, path)
	assert.Contains(t, out.String(), "Sample build file written")

	// The sample must itself be a valid build file.
	loaded, err := config.NewJSONLoader().LoadBuild(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, loaded.Configuration("default"))

	// A second run must not clobber it.
	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite")
}

func TestSampleBuildFileIsValidJSON(t *testing.T) {
	var cfg model.GlobalConfiguration
	require.NoError(t, json.Unmarshal([]byte(sampleBuildFile), &cfg))
	require.NoError(t, cfg.Validate())
}

func TestRunUnknownConfiguration(t *testing.T) {
	root := t.TempDir()
	buildFile := `{
		"version": 1,
		"configurations": [{
			"name": "linux",
			"buildSteps": [{"name": "s", "command": "true"}]
		}]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "build.json"), []byte(buildFile), 0644))

	cfg, err := NewConfig(Config{
		WorkspaceRoot: root,
		BuildFile:     "build.json",
		ConfigName:    "windows",
		NoColor:       true,
	})
	require.NoError(t, err)

	a := NewApp(&bytes.Buffer{}, cfg, config.NewJSONLoader())
	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `configuration "windows" not found`)
}

func TestRunUnknownBuildType(t *testing.T) {
	root := t.TempDir()
	buildFile := `{
		"version": 1,
		"configurations": [{
			"name": "linux",
			"buildSteps": [{"name": "s", "command": "true"}]
		}]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "build.json"), []byte(buildFile), 0644))

	cfg, err := NewConfig(Config{
		WorkspaceRoot: root,
		BuildFile:     "build.json",
		ConfigName:    "linux",
		BuildTypeName: "sanitize",
		NoColor:       true,
	})
	require.NoError(t, err)

	a := NewApp(&bytes.Buffer{}, cfg, config.NewJSONLoader())
	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `build type "sanitize" not found`)
}

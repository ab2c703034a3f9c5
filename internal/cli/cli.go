package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vk/cppbuildgo/internal/app"
	"github.com/vk/cppbuildgo/internal/model"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// varFlag collects repeatable -v name=value overrides.
type varFlag struct {
	vars map[string]string
}

func (v *varFlag) String() string {
	pairs := make([]string, 0, len(v.vars))
	for name, value := range v.vars {
		pairs = append(pairs, name+"="+value)
	}
	return strings.Join(pairs, ",")
}

func (v *varFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	if !model.ValidName(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	if v.vars == nil {
		v.vars = map[string]string{}
	}
	v.vars[name] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("cppbuild", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
cppbuild - a declarative, incremental, multi-step build driver for C/C++.

Usage:
  cppbuild [options] <configuration> [buildType]

Arguments:
  configuration
    Name of the configuration to build, as declared in the build file.
  buildType
    Optional named overlay of that configuration, e.g. "debug".

Options:
`)
		flagSet.PrintDefaults()
	}

	var (
		workspaceRoot   string
		buildFile       string
		propertiesFile  string
		maxTasks        int
		commandTimeout  time.Duration
		forceRebuild    bool
		continueOnError bool
		debug           bool
		trimIncludes    bool
		initialize      bool
		logFormat       string
		logLevel        string
		noColor         bool
		vars            varFlag
	)

	flagSet.StringVar(&workspaceRoot, "workspace-root", ".", "Root directory of the workspace being built.")
	flagSet.StringVar(&workspaceRoot, "w", ".", "Root directory of the workspace being built (shorthand).")
	flagSet.StringVar(&buildFile, "build-file", ".vscode/c_cpp_build.json", "Path to the build-steps file, relative to the workspace root.")
	flagSet.StringVar(&buildFile, "b", ".vscode/c_cpp_build.json", "Path to the build-steps file (shorthand).")
	flagSet.StringVar(&propertiesFile, "properties-file", ".vscode/c_cpp_properties.json", "Path to the C/C++ properties file. An empty value disables it.")
	flagSet.StringVar(&propertiesFile, "p", ".vscode/c_cpp_properties.json", "Path to the C/C++ properties file (shorthand).")
	flagSet.IntVar(&maxTasks, "max-tasks", 4, "Maximum number of concurrent tasks for per-file steps.")
	flagSet.IntVar(&maxTasks, "j", 4, "Maximum number of concurrent tasks (shorthand).")
	flagSet.DurationVar(&commandTimeout, "command-timeout", 10*time.Second, "Timeout for a single spawned command.")
	flagSet.BoolVar(&forceRebuild, "force-rebuild", false, "Rebuild every file, ignoring output timestamps.")
	flagSet.BoolVar(&forceRebuild, "f", false, "Rebuild every file (shorthand).")
	flagSet.BoolVar(&continueOnError, "continue-on-error", false, "Keep building remaining tasks after a failure.")
	flagSet.BoolVar(&continueOnError, "c", false, "Keep building after a failure (shorthand).")
	flagSet.BoolVar(&debug, "debug", false, "Echo each command line before it is spawned.")
	flagSet.BoolVar(&debug, "d", false, "Echo each command line (shorthand).")
	flagSet.BoolVar(&trimIncludes, "trim-include-paths", false, "Reduce includePath per file to the directories it actually needs.")
	flagSet.BoolVar(&trimIncludes, "t", false, "Reduce includePath per file (shorthand).")
	flagSet.BoolVar(&initialize, "initialize", false, "Write a sample build file and exit.")
	flagSet.BoolVar(&initialize, "i", false, "Write a sample build file and exit (shorthand).")
	flagSet.StringVar(&logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&logLevel, "log-level", "warn", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.BoolVar(&noColor, "no-color", false, "Disable coloured output.")
	flagSet.Var(&vars, "v", "Define or override a variable as name=value. Repeatable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 && !initialize {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 2 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", flagSet.Arg(2))}
	}

	logFormat = strings.ToLower(logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel = strings.ToLower(logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	if maxTasks < 1 {
		return nil, false, &ExitError{Code: 2, Message: "max-tasks must be at least 1"}
	}

	config, err := app.NewConfig(app.Config{
		WorkspaceRoot:    workspaceRoot,
		BuildFile:        buildFile,
		PropertiesFile:   propertiesFile,
		ConfigName:       flagSet.Arg(0),
		BuildTypeName:    flagSet.Arg(1),
		Vars:             vars.vars,
		MaxTasks:         maxTasks,
		ForceRebuild:     forceRebuild,
		ContinueOnError:  continueOnError,
		Debug:            debug,
		TrimIncludePaths: trimIncludes,
		CommandTimeout:   commandTimeout,
		Initialize:       initialize,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		NoColor:          noColor,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

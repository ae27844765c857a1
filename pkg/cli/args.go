package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luasharp/luasharp/internal/exitcode"
	"github.com/luasharp/luasharp/pkg/api"
)

type Options struct {
	Transform api.TransformOptions

	// Interchange files to compile. Stdin is compiled to stdout if empty.
	Inputs []string

	// Where "name.lua" files go. Defaults to the directory of each input.
	Outdir string

	// Write every output to stdout instead of to files
	Stdout bool

	// Also write the reference runtime library to this path
	RuntimeFile string
}

func newOptions() Options {
	return Options{
		Transform: api.TransformOptions{
			// Apply defaults appropriate for the CLI
			ErrorLimit: 10,
			LogLevel:   api.LogLevelInfo,
		},
	}
}

func ParseOptions(osArgs []string) (options Options, err error) {
	options = newOptions()
	err = parseOptionsImpl(osArgs, &options)
	return
}

func usageError(format string, args ...interface{}) error {
	return exitcode.Set(fmt.Errorf(format, args...), exitcode.Usage)
}

func parseOptionsImpl(osArgs []string, options *Options) error {
	hasLogLevel := false
	transform := &options.Transform

	for _, arg := range osArgs {
		switch {
		case arg == "--stdout":
			options.Stdout = true

		case arg == "--emit-types":
			transform.EmitTypes = true

		case arg == "--minify-whitespace":
			transform.MinifyWhitespace = true

		case arg == "--main":
			transform.CallEntryPoint = true

		case arg == "--no-exports":
			transform.Exports = api.ExportsNone

		case arg == "--timing":
			transform.Timing = true

		case strings.HasPrefix(arg, "--outdir="):
			options.Outdir = arg[len("--outdir="):]

		case strings.HasPrefix(arg, "--runtime="):
			transform.RuntimeLibrary = arg[len("--runtime="):]

		case strings.HasPrefix(arg, "--runtime-file="):
			options.RuntimeFile = arg[len("--runtime-file="):]

		case strings.HasPrefix(arg, "--sourcefile="):
			transform.Sourcefile = arg[len("--sourcefile="):]

		case strings.HasPrefix(arg, "--indent="):
			value := arg[len("--indent="):]
			width, err := strconv.Atoi(value)
			if err != nil || width <= 0 {
				return usageError("Invalid indent width: %q", value)
			}
			transform.IndentWidth = width

		case strings.HasPrefix(arg, "--error-limit="):
			value := arg[len("--error-limit="):]
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 0 {
				return usageError("Invalid error limit: %q", value)
			}
			transform.ErrorLimit = limit

		// Make sure this stays in sync with "PrintErrorToStderr"
		case strings.HasPrefix(arg, "--color="):
			value := arg[len("--color="):]
			switch value {
			case "false":
				transform.Color = api.ColorNever
			case "true":
				transform.Color = api.ColorAlways
			default:
				return usageError("Invalid color: %q (valid: false, true)", value)
			}

		// Make sure this stays in sync with "PrintErrorToStderr"
		case strings.HasPrefix(arg, "--log-level="):
			value := arg[len("--log-level="):]
			switch value {
			case "verbose":
				transform.LogLevel = api.LogLevelVerbose
			case "info":
				transform.LogLevel = api.LogLevelInfo
			case "warning":
				transform.LogLevel = api.LogLevelWarning
			case "error":
				transform.LogLevel = api.LogLevelError
			case "silent":
				transform.LogLevel = api.LogLevelSilent
			default:
				return usageError("Invalid log level: %q (valid: verbose, info, warning, error, silent)", value)
			}
			hasLogLevel = true

		case !strings.HasPrefix(arg, "-"):
			options.Inputs = append(options.Inputs, arg)

		default:
			return usageError("Invalid flag: %q", arg)
		}
	}

	// Timing information is logged at the verbose level
	if transform.Timing && !hasLogLevel {
		transform.LogLevel = api.LogLevelVerbose
	}

	if options.Stdout && options.Outdir != "" {
		return usageError("Cannot use both \"--stdout\" and \"--outdir\"")
	}
	if len(options.Inputs) > 1 && transform.Sourcefile != "" {
		return usageError("Cannot use \"--sourcefile\" with more than one input file")
	}
	return nil
}

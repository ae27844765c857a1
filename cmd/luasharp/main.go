package main

import (
	"fmt"
	"os"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/luasharp/luasharp/internal/exitcode"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/runtime"
	"github.com/luasharp/luasharp/pkg/cli"
)

const luasharpVersion = "0.1.0"

var helpText = `
Usage:
  luasharp [options] [files.tree]

Reads resolved syntax trees in the tree interchange format and writes Luau.
Each "name.tree" input becomes "name.lua". Without inputs, stdin is compiled
to stdout.

Options:
  --outdir=...           Write outputs to this directory
  --stdout               Write every output to stdout
  --emit-types           Emit Luau type annotations
  --main                 Call a static "Main()" method at the end of the chunk
  --no-exports           End each chunk with a bare "return"
  --minify-whitespace    Remove whitespace
  --runtime=...          The global table runtime calls go through (default "CS")
  --runtime-file=...     Also write the runtime library to this file
  --color=...            Force use of color terminal escapes (true or false)

Advanced options:
  --version              Print the current version and exit (` + luasharpVersion + `)
  --indent=...           Spaces per indentation level (default 4)
  --sourcefile=...       The file name to use in messages (for stdin)
  --error-limit=...      Maximum error count or 0 to disable (default 10)
  --log-level=...        Disable logging (verbose, info, warning, error, silent)
  --timing               Log the time spent in each stage
  --trace=...            Write a Go execution trace to this file
  --cpuprofile=...       Write a CPU profile to this file

The runtime contract is version ` + fmt.Sprint(runtime.Version) + `.

Examples:
  # Produces out/Program.lua
  luasharp Program.tree --outdir=out --main

  # Provide input via stdin, get output via stdout
  luasharp --emit-types < Program.tree > Program.lua
`

func main() {
	osArgs := os.Args[1:]
	traceFile := ""
	cpuprofileFile := ""

	// Do an initial scan over the argument list
	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		// Show help if a common help flag is provided
		case arg == "-h", arg == "-help", arg == "--help", arg == "/?":
			fmt.Fprintf(os.Stderr, "%s\n", helpText)
			os.Exit(0)

		// Special-case the version flag here
		case arg == "--version":
			fmt.Fprintf(os.Stderr, "%s\n", luasharpVersion)
			os.Exit(0)

		case strings.HasPrefix(arg, "--trace="):
			traceFile = arg[len("--trace="):]

		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]

		default:
			// Strip any arguments that were handled above
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	// Print help text when there are no arguments
	if len(osArgs) == 0 && logger.GetTerminalInfo(os.Stdin).IsTTY {
		fmt.Fprintf(os.Stderr, "%s\n", helpText)
		os.Exit(0)
	}

	// Capture the defer statements below so the traces are flushed before
	// exiting
	var err error
	func() {
		// To view a CPU trace, use "go tool trace [file]"
		if traceFile != "" {
			f, createErr := os.Create(traceFile)
			if createErr != nil {
				logger.PrintErrorToStderr(osArgs, fmt.Sprintf(
					"Failed to create trace file: %s", createErr.Error()))
				err = createErr
				return
			}
			defer f.Close()
			trace.Start(f)
			defer trace.Stop()
		}

		if cpuprofileFile != "" {
			f, createErr := os.Create(cpuprofileFile)
			if createErr != nil {
				logger.PrintErrorToStderr(osArgs, fmt.Sprintf(
					"Failed to create cpuprofile file: %s", createErr.Error()))
				err = createErr
				return
			}
			defer f.Close()
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		err = cli.Run(osArgs)
	}()

	exitcode.Exit(err)
}

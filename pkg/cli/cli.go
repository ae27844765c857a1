package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/runtime"
	"github.com/luasharp/luasharp/pkg/api"
)

// Compile errors have already been printed by the time this is returned
var errCompileFailed = errors.New("Compilation failed")

// Everything returned from here has already been reported on stderr, so the
// caller only needs to turn it into an exit code
func Run(osArgs []string) error {
	options, err := ParseOptions(osArgs)
	if err != nil {
		logger.PrintErrorToStderr(osArgs, err.Error())
		return err
	}

	if options.RuntimeFile != "" {
		if err := writeFile(options.RuntimeFile, []byte(runtime.Code)); err != nil {
			logger.PrintErrorToStderr(osArgs, err.Error())
			return err
		}
	}

	if len(options.Inputs) == 0 {
		return runStdin(osArgs, options)
	}
	return runFiles(osArgs, options)
}

func runStdin(osArgs []string, options Options) error {
	bytes, err := io.ReadAll(os.Stdin)
	if err != nil {
		err = fmt.Errorf("Could not read from stdin: %s", err.Error())
		logger.PrintErrorToStderr(osArgs, err.Error())
		return err
	}

	result := api.TransformText(string(bytes), options.Transform)
	if len(result.Errors) > 0 {
		return errCompileFailed
	}

	if _, err := os.Stdout.Write(result.Code); err != nil {
		err = fmt.Errorf("Failed to write to stdout: %s", err.Error())
		logger.PrintErrorToStderr(osArgs, err.Error())
		return err
	}
	return nil
}

type fileResult struct {
	outputPath string
	code       []byte
	err        error
}

// Files are independent, so they are compiled in parallel. Outputs are
// written in input order once everything has finished.
func runFiles(osArgs []string, options Options) error {
	results := make([]fileResult, len(options.Inputs))
	waitGroup := sync.WaitGroup{}
	waitGroup.Add(len(options.Inputs))
	for i, input := range options.Inputs {
		go func(i int, input string) {
			defer waitGroup.Done()
			results[i] = compileFile(input, options)
		}(i, input)
	}
	waitGroup.Wait()

	failed := false
	for _, result := range results {
		if result.err != nil {
			if result.err != errCompileFailed {
				logger.PrintErrorToStderr(osArgs, result.err.Error())
			}
			failed = true
			continue
		}
		if options.Stdout {
			if _, err := os.Stdout.Write(result.code); err != nil {
				logger.PrintErrorToStderr(osArgs, fmt.Sprintf("Failed to write to stdout: %s", err.Error()))
				return err
			}
		} else if err := writeFile(result.outputPath, result.code); err != nil {
			logger.PrintErrorToStderr(osArgs, err.Error())
			failed = true
		}
	}

	if failed {
		return errCompileFailed
	}
	return nil
}

func compileFile(input string, options Options) fileResult {
	contents, err := os.ReadFile(input)
	if err != nil {
		return fileResult{err: fmt.Errorf("Could not read from file %q: %s", input, err.Error())}
	}

	transform := options.Transform
	if transform.Sourcefile == "" {
		transform.Sourcefile = input
	}
	result := api.TransformText(string(contents), transform)
	if len(result.Errors) > 0 {
		return fileResult{err: errCompileFailed}
	}
	return fileResult{outputPath: OutputPath(input, options.Outdir), code: result.Code}
}

// "dir/name.tree" becomes "dir/name.lua", or "outdir/name.lua" when there
// is an output directory
func OutputPath(input string, outdir string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input)) + ".lua"
	if outdir == "" {
		return base
	}
	return filepath.Join(outdir, filepath.Base(base))
}

func writeFile(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("Failed to create output directory: %s", err.Error())
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("Failed to write to output file: %s", err.Error())
	}
	return nil
}

package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luasharp/luasharp/internal/exitcode"
	"github.com/luasharp/luasharp/internal/runtime"
	"github.com/luasharp/luasharp/internal/test"
	"github.com/luasharp/luasharp/pkg/api"
	"github.com/luasharp/luasharp/pkg/cli"
	"github.com/nalgeon/be"
)

func TestParseOptions(t *testing.T) {
	options, err := cli.ParseOptions([]string{
		"a.tree", "--outdir=out", "--emit-types", "--runtime=RT", "--minify-whitespace",
		"--main", "--no-exports", "--indent=2", "--color=false", "--error-limit=0", "b.tree",
	})
	be.Err(t, err, nil)
	be.Equal(t, options.Inputs, []string{"a.tree", "b.tree"})
	be.Equal(t, options.Outdir, "out")
	be.Equal(t, options.Transform, api.TransformOptions{
		Color:            api.ColorNever,
		ErrorLimit:       0,
		LogLevel:         api.LogLevelInfo,
		RuntimeLibrary:   "RT",
		EmitTypes:        true,
		IndentWidth:      2,
		MinifyWhitespace: true,
		CallEntryPoint:   true,
		Exports:          api.ExportsNone,
	})
}

func TestParseOptionsDefaults(t *testing.T) {
	options, err := cli.ParseOptions(nil)
	be.Err(t, err, nil)
	be.Equal(t, len(options.Inputs), 0)
	be.Equal(t, options.Transform.ErrorLimit, 10)
	be.Equal(t, options.Transform.LogLevel, api.LogLevelInfo)
	be.Equal(t, options.Transform.Exports, api.ExportsTypes)
}

func TestParseOptionsTiming(t *testing.T) {
	options, err := cli.ParseOptions([]string{"--timing"})
	be.Err(t, err, nil)
	be.Equal(t, options.Transform.LogLevel, api.LogLevelVerbose)

	options, err = cli.ParseOptions([]string{"--log-level=error", "--timing"})
	be.Err(t, err, nil)
	be.Equal(t, options.Transform.LogLevel, api.LogLevelError)
}

func TestParseOptionsErrors(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"--bundle"}, `Invalid flag: "--bundle"`},
		{[]string{"--indent=0"}, `Invalid indent width: "0"`},
		{[]string{"--error-limit=x"}, `Invalid error limit: "x"`},
		{[]string{"--color=maybe"}, `Invalid color: "maybe" (valid: false, true)`},
		{[]string{"--log-level=loud"}, `Invalid log level: "loud" (valid: verbose, info, warning, error, silent)`},
		{[]string{"--stdout", "--outdir=out"}, `Cannot use both "--stdout" and "--outdir"`},
		{[]string{"a.tree", "b.tree", "--sourcefile=x"}, `Cannot use "--sourcefile" with more than one input file`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			_, err := cli.ParseOptions(tt.args)
			be.True(t, err != nil)
			be.Equal(t, err.Error(), tt.expected)
			be.Equal(t, exitcode.Get(err), exitcode.Usage)
		})
	}
}

func TestOutputPath(t *testing.T) {
	be.Equal(t, cli.OutputPath("src/Program.tree", ""), "src/Program.lua")
	be.Equal(t, cli.OutputPath("src/Program.tree", "out"), filepath.Join("out", "Program.lua"))
	be.Equal(t, cli.OutputPath("Program", ""), "Program.lua")
}

func TestRunWritesFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Counter.tree")
	err := os.WriteFile(input, []byte("(local n int 1)\n(++ n)\n"), 0644)
	be.Err(t, err, nil)

	outdir := filepath.Join(dir, "out")
	runtimeFile := filepath.Join(outdir, "CS.lua")
	err = cli.Run([]string{input, "--outdir=" + outdir, "--runtime-file=" + runtimeFile, "--no-exports", "--log-level=silent"})
	be.Err(t, err, nil)

	lua, err := os.ReadFile(filepath.Join(outdir, "Counter.lua"))
	be.Err(t, err, nil)
	test.AssertEqualWithDiff(t, string(lua), "local n = 1\nn += 1\nreturn\n")

	runtimeCode, err := os.ReadFile(runtimeFile)
	be.Err(t, err, nil)
	be.Equal(t, string(runtimeCode), runtime.Code)
}

func TestRunReportsCompileErrors(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tree")
	bad := filepath.Join(dir, "bad.tree")
	be.Err(t, os.WriteFile(good, []byte("(local n int 1)"), 0644), nil)
	be.Err(t, os.WriteFile(bad, []byte("(throw)"), 0644), nil)

	err := cli.Run([]string{good, bad, "--log-level=silent"})
	be.True(t, err != nil)
	be.Equal(t, exitcode.Get(err), exitcode.Failure)

	// Inputs that compiled are still written
	_, statErr := os.Stat(filepath.Join(dir, "good.lua"))
	be.Err(t, statErr, nil)
	_, statErr = os.Stat(filepath.Join(dir, "bad.lua"))
	be.True(t, os.IsNotExist(statErr))
}

func TestRunMissingInput(t *testing.T) {
	err := cli.Run([]string{filepath.Join(t.TempDir(), "missing.tree"), "--log-level=silent"})
	be.True(t, err != nil)
	be.Equal(t, exitcode.Get(err), exitcode.Failure)
}

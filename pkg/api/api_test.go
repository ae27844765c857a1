package api_test

import (
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/cs_reader"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/test"
	"github.com/luasharp/luasharp/pkg/api"
	"github.com/nalgeon/be"
)

func TestTransformText(t *testing.T) {
	result := api.TransformText(`
(local n int 1)
(call Console.WriteLine n)
`, api.TransformOptions{Exports: api.ExportsNone})
	be.Equal(t, len(result.Errors), 0)
	be.Equal(t, len(result.Warnings), 0)
	test.AssertEqualWithDiff(t, string(result.Code), "local n = 1\nprint(n)\nreturn\n")
}

func TestTransformTextExportsTypesByDefault(t *testing.T) {
	result := api.TransformText("(enum Mode On Off)", api.TransformOptions{})
	be.Equal(t, len(result.Errors), 0)
	test.AssertEqualWithDiff(t, string(result.Code), "local Mode\nMode = { On = 0, Off = 1 }\nreturn { Mode = Mode }\n")
}

func TestTransformTextErrorLocation(t *testing.T) {
	result := api.TransformText("(call Console.WriteLine zz)", api.TransformOptions{Sourcefile: "main.tree"})
	be.Equal(t, len(result.Code), 0)
	be.Equal(t, len(result.Errors), 1)

	msg := result.Errors[0]
	be.Equal(t, msg.Text, `Could not resolve name "zz"`)
	be.True(t, msg.Location != nil)
	be.Equal(t, *msg.Location, api.Location{
		File:     "main.tree",
		Line:     1,
		Column:   24,
		LineText: "(call Console.WriteLine zz)",
	})
}

func TestTransformTextUnsupported(t *testing.T) {
	result := api.TransformText("(throw)", api.TransformOptions{})
	be.Equal(t, len(result.Code), 0)
	be.Equal(t, len(result.Errors), 1)
	be.Equal(t, result.Errors[0].Text, "A rethrow must be inside a catch clause")
	be.Equal(t, result.Errors[0].Location.File, "<stdin>")
}

func TestTransformRuntimeLibrary(t *testing.T) {
	result := api.TransformText(`
(try
  (block (call Console.WriteLine 1))
  (finally (call Console.WriteLine 2)))
`, api.TransformOptions{RuntimeLibrary: "Runtime", Exports: api.ExportsNone})
	be.Equal(t, len(result.Errors), 0)
	be.True(t, strings.HasPrefix(string(result.Code), "Runtime.try(function()\n"))
}

func TestTransformInvalidOptions(t *testing.T) {
	result := api.TransformText("(local n int 1)", api.TransformOptions{RuntimeLibrary: "end"})
	be.Equal(t, len(result.Code), 0)
	be.Equal(t, len(result.Errors), 1)
	be.Equal(t, result.Errors[0].Text, `Invalid runtime library name: "end"`)
	be.True(t, result.Errors[0].Location == nil)

	result = api.TransformText("(local n int 1)", api.TransformOptions{IndentWidth: -1})
	be.Equal(t, len(result.Errors), 1)
	be.Equal(t, result.Errors[0].Text, "Invalid indent width: -1")
}

func TestTransformResolvedUnit(t *testing.T) {
	source := test.SourceForTest(`
(class Program
  (method Main () void :static (call Console.WriteLine "hi")))
`)
	log := logger.NewDeferLog()
	unit, ok := cs_reader.Read(log, source)
	be.True(t, ok)
	be.Equal(t, len(log.Done()), 0)

	result := api.Transform(unit, source, api.TransformOptions{CallEntryPoint: true, IndentWidth: 2})
	be.Equal(t, len(result.Errors), 0)
	test.AssertEqualWithDiff(t, string(result.Code), `local Program
Program = {}
Program.__index = Program
Program.__className = "Program"
function Program.new()
  local self = setmetatable({}, Program)
  Program.constructor(self)
  return self
end
function Program:constructor() end
function Program.Main()
  print("hi")
end
Program.Main()
return { Program = Program }
`)
}

func TestTransformTiming(t *testing.T) {
	// Timing information is verbose, so it never shows up as an error or a
	// warning
	result := api.TransformText("(local n int 1)", api.TransformOptions{Timing: true})
	be.Equal(t, len(result.Errors), 0)
	be.Equal(t, len(result.Warnings), 0)
	be.Equal(t, string(result.Code), "local n = 1\nreturn {}\n")
}

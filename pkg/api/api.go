package api

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelVerbose
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type Exports uint8

const (
	// The chunk returns a table of every type it declares
	ExportsTypes Exports = iota
	ExportsNone
)

////////////////////////////////////////////////////////////////////////////////
// Transform API

type TransformOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	// Adds a verbose message with the time spent in each stage
	Timing bool

	// The global table runtime calls go through, "CS" if empty
	RuntimeLibrary string

	EmitTypes        bool
	IndentWidth      int
	MinifyWhitespace bool
	CallEntryPoint   bool
	Exports          Exports

	// The file name used in messages, "<stdin>" if empty
	Sourcefile string
}

type TransformResult struct {
	Errors   []Message
	Warnings []Message

	Code []byte
}

// Lowers a tree that was already resolved by a front end. Nothing is
// generated if there are any errors.
func Transform(unit *cs_ast.Unit, source logger.Source, options TransformOptions) TransformResult {
	return transformImpl(unit, source, options)
}

// Like "Transform" but starts from the tree interchange format
func TransformText(text string, options TransformOptions) TransformResult {
	return transformTextImpl(text, options)
}

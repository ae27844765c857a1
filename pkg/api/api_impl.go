package api

import (
	"fmt"

	"github.com/luasharp/luasharp/internal/config"
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/cs_reader"
	"github.com/luasharp/luasharp/internal/helpers"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lower"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/lua_printer"
)

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelVerbose:
		return logger.LevelVerbose
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	default:
		panic("Invalid log level")
	}
}

func validateExports(value Exports) bool {
	switch value {
	case ExportsTypes:
		return true
	case ExportsNone:
		return false
	default:
		panic("Invalid exports")
	}
}

func validateRuntimeLibrary(log logger.Log, name string) string {
	if name == "" {
		return config.DefaultRuntimeLibrary
	}
	if !lua_ast.IsIdentifier(name) {
		log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid runtime library name: %q", name))
	}
	return name
}

func validateIndentWidth(log logger.Log, width int) int {
	if width < 0 {
		log.AddError(nil, logger.Loc{}, fmt.Sprintf("Invalid indent width: %d", width))
	}
	return width
}

func validateOptions(log logger.Log, options TransformOptions) config.Options {
	return config.Options{
		RuntimeLibrary:   validateRuntimeLibrary(log, options.RuntimeLibrary),
		EmitTypes:        options.EmitTypes,
		IndentWidth:      validateIndentWidth(log, options.IndentWidth),
		MinifyWhitespace: options.MinifyWhitespace,
		CallEntryPoint:   options.CallEntryPoint,
		ExportTypes:      validateExports(options.Exports),
	}.WithDefaults()
}

func newLog(options TransformOptions) logger.Log {
	if options.LogLevel == LogLevelSilent {
		return logger.NewDeferLog()
	}
	return logger.NewStderrLog(logger.OutputOptions{
		IncludeSource: true,
		ErrorLimit:    options.ErrorLimit,
		Color:         validateColor(options.Color),
		LogLevel:      validateLogLevel(options.LogLevel),
	})
}

func newTimer(options TransformOptions) *helpers.Timer {
	if options.Timing {
		return &helpers.Timer{}
	}
	return nil
}

func messagesOfKind(keep func(logger.MsgKind) bool, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if !keep(msg.Kind) {
			continue
		}
		var location *Location
		if loc := msg.Location; loc != nil {
			location = &Location{
				File:     loc.File,
				Line:     loc.Line,
				Column:   loc.Column,
				Length:   loc.Length,
				LineText: loc.LineText,
			}
		}
		filtered = append(filtered, Message{Text: msg.Text, Location: location})
	}
	return filtered
}

func resultFromMsgs(code []byte, msgs []logger.Msg) TransformResult {
	errors := messagesOfKind(logger.MsgKind.IsError, msgs)
	if len(errors) > 0 {
		code = nil
	}
	return TransformResult{
		Errors:   errors,
		Warnings: messagesOfKind(func(kind logger.MsgKind) bool { return kind == logger.Warning }, msgs),
		Code:     code,
	}
}

func lowerAndPrint(log logger.Log, timer *helpers.Timer, unit *cs_ast.Unit, source *logger.Source, options config.Options) []byte {
	timer.Begin("Lower")
	chunk, ok := lower.Lower(log, source, unit, options)
	timer.End("Lower")
	if !ok {
		return nil
	}

	timer.Begin("Print")
	result := lua_printer.Print(chunk, lua_printer.Options{
		IndentWidth:      options.IndentWidth,
		MinifyWhitespace: options.MinifyWhitespace,
		EmitTypes:        options.EmitTypes,
	})
	timer.End("Print")
	return result.Lua
}

func transformImpl(unit *cs_ast.Unit, source logger.Source, options TransformOptions) TransformResult {
	log := newLog(options)
	timer := newTimer(options)
	lowerOptions := validateOptions(log, options)

	var code []byte
	if !log.HasErrors() {
		code = lowerAndPrint(log, timer, unit, &source, lowerOptions)
	}

	timer.Log(log)
	return resultFromMsgs(code, log.Done())
}

func transformTextImpl(text string, options TransformOptions) TransformResult {
	log := newLog(options)
	timer := newTimer(options)
	lowerOptions := validateOptions(log, options)

	var code []byte
	if !log.HasErrors() {
		source := logger.Source{PrettyPath: options.Sourcefile, Contents: text}
		if source.PrettyPath == "" {
			source.PrettyPath = "<stdin>"
		}

		timer.Begin("Read")
		unit, ok := cs_reader.Read(log, source)
		timer.End("Read")

		if ok {
			code = lowerAndPrint(log, timer, unit, &source, lowerOptions)
		}
	}

	timer.Log(log)
	return resultFromMsgs(code, log.Done())
}

package logger_test

import (
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/logger"
	"github.com/nalgeon/be"
)

func TestMsgStringWithSource(t *testing.T) {
	source := logger.Source{PrettyPath: "a.tree", Contents: "(unit\n  (await-using x))"}
	log := logger.NewDeferLog()
	log.AddError(&source, logger.Loc{Start: 8}, "Unsupported construct")
	msgs := log.Done()
	be.Equal(t, len(msgs), 1)
	be.True(t, log.HasErrors())

	text := msgs[0].String(logger.OutputOptions{IncludeSource: true}, logger.TerminalInfo{})
	be.Equal(t, text, "a.tree:2:2: error: Unsupported construct\n  (await-using x))\n  ^\n")
}

func TestMsgStringRangeMarker(t *testing.T) {
	source := logger.Source{PrettyPath: "a.tree", Contents: "(unit\n  (await-using x))"}
	log := logger.NewDeferLog()
	log.AddRangeError(&source, source.RangeOfForm(logger.Loc{Start: 8}), "Unsupported construct")
	msgs := log.Done()

	text := msgs[0].String(logger.OutputOptions{IncludeSource: true}, logger.TerminalInfo{})
	be.True(t, strings.HasSuffix(text, "  "+strings.Repeat("~", len("(await-using x)"))+"\n"))
}

func TestInternalErrorsAreErrors(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddWarning(nil, logger.Loc{}, "just a warning")
	be.True(t, !log.HasErrors())
	log.AddInternalError(nil, logger.Loc{}, "Popped an empty scope stack")
	be.True(t, log.HasErrors())

	msgs := log.Done()
	be.Equal(t, msgs[0].Kind, logger.InternalError)
	be.Equal(t, msgs[0].String(logger.OutputOptions{}, logger.TerminalInfo{}), "internal error: Popped an empty scope stack\n")
	be.Equal(t, msgs[1].Kind, logger.Warning)
}

func TestRangeOfForm(t *testing.T) {
	source := logger.Source{Contents: `(a "(" (b c)) d`}
	be.Equal(t, source.RangeOfForm(logger.Loc{Start: 0}).Len, int32(13))
	be.Equal(t, source.RangeOfForm(logger.Loc{Start: 14}).Len, int32(0))
}

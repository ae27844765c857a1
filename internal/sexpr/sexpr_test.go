package sexpr_test

import (
	"testing"

	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/sexpr"
	"github.com/luasharp/luasharp/internal/test"
	"github.com/nalgeon/be"
)

func parse(t *testing.T, contents string) []*sexpr.Node {
	t.Helper()
	log := logger.NewDeferLog()
	forms, ok := sexpr.Parse(log, test.SourceForTest(contents))
	be.True(t, ok)
	be.Equal(t, len(log.Done()), 0)
	return forms
}

func expectParseError(t *testing.T, contents string, expected string) {
	t.Helper()
	log := logger.NewDeferLog()
	_, ok := sexpr.Parse(log, test.SourceForTest(contents))
	be.True(t, !ok)
	test.AssertEqual(t, test.MsgsToText(log.Done()), expected)
}

func TestParseAtoms(t *testing.T) {
	forms := parse(t, `foo :static "a\"b" 12 -3.5 1e10 - -x`)
	be.Equal(t, len(forms), 8)

	be.Equal(t, forms[0].Kind, sexpr.KSymbol)
	be.Equal(t, forms[1].Kind, sexpr.KKeyword)
	be.Equal(t, forms[1].Text, "static")
	be.Equal(t, forms[2].Kind, sexpr.KString)
	be.Equal(t, forms[2].Text, `a"b`)
	be.Equal(t, forms[3].Kind, sexpr.KNumber)
	be.Equal(t, forms[4].Kind, sexpr.KNumber)
	be.Equal(t, forms[5].Kind, sexpr.KNumber)
	be.Equal(t, forms[6].Kind, sexpr.KSymbol)
	be.Equal(t, forms[6].Text, "-")
	be.Equal(t, forms[7].Kind, sexpr.KSymbol)
	be.Equal(t, forms[7].Text, "-x")
}

func TestParseLists(t *testing.T) {
	forms := parse(t, "; comment\n(class Point\n  (field X int)) ()")
	be.Equal(t, len(forms), 2)

	class := forms[0]
	be.Equal(t, class.Head(), "class")
	be.Equal(t, class.Loc.Start, int32(10))
	be.Equal(t, len(class.Args()), 2)
	be.Equal(t, class.Args()[1].String(), "(field X int)")

	be.Equal(t, forms[1].Head(), "")
	be.Equal(t, len(forms[1].Items), 0)
}

func TestParseStringRoundTrip(t *testing.T) {
	forms := parse(t, `(write "line\nnext\t\\")`)
	be.Equal(t, forms[0].Items[1].Text, "line\nnext\t\\")
	be.Equal(t, forms[0].String(), `(write "line\nnext\t\\")`)
}

func TestParseErrors(t *testing.T) {
	expectParseError(t, "(a (b)", "<stdin>:1:0: error: Unterminated list\n")
	expectParseError(t, "a)", "<stdin>:1:1: error: Unexpected \")\"\n")
	expectParseError(t, `"abc`, "<stdin>:1:0: error: Unterminated string\n")
	expectParseError(t, `("\q")`, "<stdin>:1:2: error: Invalid escape sequence \"\\q\"\n")
	expectParseError(t, "(: x)", "<stdin>:1:1: error: Expected a keyword name after \":\"\n")
}

package test_test

import (
	"testing"

	"github.com/luasharp/luasharp/internal/test"
	"github.com/nalgeon/be"
)

func TestExtractSnapshotCases(t *testing.T) {
	markdown := "# Suite\n\n" +
		"## Test: first\n\n" +
		"```tree\n(unit (return))\n```\n\n" +
		"```lua types\nreturn\n```\n\n" +
		"## Test: second\n\n" +
		"```tree\n(unit (bogus))\n```\n\n" +
		"```error\nerror: bad\n```\n"

	cases, err := test.ExtractSnapshotCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	be.Equal(t, cases[0].Name, "first")
	be.Equal(t, cases[0].Input, "(unit (return))")
	be.Equal(t, cases[0].Expected, "return")
	be.True(t, cases[0].Options["types"])
	be.True(t, !cases[0].IsError)

	be.Equal(t, cases[1].Name, "second")
	be.True(t, cases[1].IsError)
	be.Equal(t, cases[1].Expected, "error: bad")
}

func TestExtractSnapshotCasesMissingExpectation(t *testing.T) {
	markdown := "## Test: lonely\n\n```tree\n(unit)\n```\n"
	_, err := test.ExtractSnapshotCases(markdown)
	be.True(t, err != nil)
}

func TestExtractSnapshotCasesUnknownFence(t *testing.T) {
	markdown := "## Test: odd\n\n```python\nprint(1)\n```\n"
	_, err := test.ExtractSnapshotCases(markdown)
	be.True(t, err != nil)
}

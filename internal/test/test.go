package test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/luasharp/luasharp/internal/logger"
)

func AssertEqual(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		t.Fatalf("%s != %s", observed, expected)
	}
}

// Multi-line values are reported as a line diff, which is much easier to read
// than two dumps of generated code.
func AssertEqualWithDiff(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		stringA := fmt.Sprintf("%v", observed)
		stringB := fmt.Sprintf("%v", expected)
		if strings.Contains(stringA, "\n") || strings.Contains(stringB, "\n") {
			t.Fatal("\n" + diff.Diff(stringB, stringA))
		} else {
			t.Fatalf("%q != %q", stringA, stringB)
		}
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		Index:      0,
		PrettyPath: "<stdin>",
		Contents:   contents,
	}
}

// Renders messages the way the CLI does, minus colors, so tests can compare
// against plain text.
func MsgsToText(msgs []logger.Msg) string {
	sb := strings.Builder{}
	for _, msg := range msgs {
		sb.WriteString(msg.String(logger.OutputOptions{}, logger.TerminalInfo{}))
	}
	return sb.String()
}

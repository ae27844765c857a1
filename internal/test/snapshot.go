package test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Snapshot suites are markdown documents. Each "Test: <name>" heading starts
// a case, which is followed by one "tree" fence holding the input and one
// "lua" or "error" fence holding the expected result. Words after the fence
// language are options, e.g. "lua types".
type SnapshotCase struct {
	Name     string
	Line     int
	Input    string
	Expected string
	IsError  bool
	Options  map[string]bool
}

const (
	fenceInput    = "tree"
	fenceExpected = "lua"
	fenceError    = "error"
)

func ExtractSnapshotCases(markdown string) ([]SnapshotCase, error) {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var cases []SnapshotCase
	var current *SnapshotCase

	finish := func() error {
		if current == nil {
			return nil
		}
		if current.Input == "" {
			return fmt.Errorf("line %d: test %q has no %q fence", current.Line, current.Name, fenceInput)
		}
		if current.Expected == "" && !current.IsError {
			return fmt.Errorf("line %d: test %q has no %q or %q fence", current.Line, current.Name, fenceExpected, fenceError)
		}
		cases = append(cases, *current)
		current = nil
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkSkipChildren, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &SnapshotCase{
				Name:    strings.TrimPrefix(heading, "Test: "),
				Line:    lineNumber(n, source),
				Options: make(map[string]bool),
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			line := lineNumber(n, source)
			info := ""
			if n.Info != nil {
				info = string(n.Info.Segment.Value(source))
			}
			words := strings.Fields(info)
			if len(words) == 0 {
				return ast.WalkContinue, nil
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %q fence found outside of a test", line, words[0])
			}
			content := strings.TrimRight(codeBlockText(n, source), "\n")

			switch words[0] {
			case fenceInput:
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %q fences in test %q", line, fenceInput, current.Name)
				}
				current.Input = content

			case fenceExpected, fenceError:
				if current.Expected != "" || current.IsError {
					return ast.WalkStop, fmt.Errorf("line %d: multiple expectations in test %q", line, current.Name)
				}
				current.Expected = content
				current.IsError = words[0] == fenceError
				for _, option := range words[1:] {
					current.Options[option] = true
				}

			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language %q in test %q", line, words[0], current.Name)
			}
		}

		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func codeBlockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	offset := -1
	if lines := node.Lines(); lines != nil && lines.Len() > 0 {
		offset = lines.At(0).Start
	}
	if offset < 0 {
		return 0
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

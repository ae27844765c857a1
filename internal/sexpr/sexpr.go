package sexpr

// The tree interchange format is a small s-expression language:
//
//   (class Point (field X int) (field Y int))
//
// Symbols are bare words, keywords start with ":" and are used for flags and
// named arguments, strings are double-quoted and comments run from ";" to the
// end of the line. Every node remembers the byte offset it starts at so that
// diagnostics can point back into the text.

import (
	"fmt"
	"strings"

	"github.com/luasharp/luasharp/internal/logger"
)

type Kind uint8

const (
	KSymbol Kind = iota
	KKeyword
	KString
	KNumber
	KList
)

func (kind Kind) String() string {
	switch kind {
	case KSymbol:
		return "symbol"
	case KKeyword:
		return "keyword"
	case KString:
		return "string"
	case KNumber:
		return "number"
	case KList:
		return "list"
	default:
		panic("Internal error")
	}
}

type Node struct {
	Kind  Kind
	Loc   logger.Loc
	Text  string // Symbol and keyword names (without ":"), decoded strings, number text
	Items []*Node
}

func (n *Node) IsSymbol(name string) bool {
	return n.Kind == KSymbol && n.Text == name
}

func (n *Node) IsKeyword(name string) bool {
	return n.Kind == KKeyword && n.Text == name
}

// Returns the symbol at the head of a list, or "" for anything else
func (n *Node) Head() string {
	if n.Kind == KList && len(n.Items) > 0 && n.Items[0].Kind == KSymbol {
		return n.Items[0].Text
	}
	return ""
}

// Returns the items after the head symbol
func (n *Node) Args() []*Node {
	if n.Kind != KList || len(n.Items) == 0 {
		return nil
	}
	return n.Items[1:]
}

func (n *Node) String() string {
	switch n.Kind {
	case KSymbol, KNumber:
		return n.Text
	case KKeyword:
		return ":" + n.Text
	case KString:
		escaped := strings.ReplaceAll(n.Text, "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")
		return fmt.Sprintf("\"%s\"", escaped)
	case KList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return fmt.Sprintf("(%s)", strings.Join(parts, " "))
	default:
		panic("Internal error")
	}
}

type parsePanic struct{}

type parser struct {
	log    logger.Log
	source logger.Source
	text   string
	pos    int
}

// Parses every top-level form in the source. Syntax errors are reported to
// the log and parsing stops at the first one.
func Parse(log logger.Log, source logger.Source) (forms []*Node, ok bool) {
	p := &parser{log: log, source: source, text: source.Contents}

	defer func() {
		r := recover()
		if _, isParsePanic := r.(parsePanic); isParsePanic {
			forms = nil
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	for {
		p.skipSpace()
		if p.pos >= len(p.text) {
			break
		}
		forms = append(forms, p.parseNode())
	}
	return forms, true
}

func (p *parser) fail(pos int, format string, args ...interface{}) {
	p.log.AddError(&p.source, logger.Loc{Start: int32(pos)}, fmt.Sprintf(format, args...))
	panic(parsePanic{})
}

func (p *parser) skipSpace() {
	for p.pos < len(p.text) {
		switch c := p.text[p.pos]; {
		case c == ';':
			for p.pos < len(p.text) && p.text[p.pos] != '\n' {
				p.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseNode() *Node {
	start := p.pos
	loc := logger.Loc{Start: int32(start)}

	switch c := p.text[p.pos]; {
	case c == '(':
		p.pos++
		node := &Node{Kind: KList, Loc: loc}
		for {
			p.skipSpace()
			if p.pos >= len(p.text) {
				p.fail(start, "Unterminated list")
			}
			if p.text[p.pos] == ')' {
				p.pos++
				return node
			}
			node.Items = append(node.Items, p.parseNode())
		}

	case c == ')':
		p.fail(start, "Unexpected \")\"")

	case c == '"':
		return &Node{Kind: KString, Loc: loc, Text: p.parseString()}

	case c == ':':
		p.pos++
		word := p.parseWord()
		if word == "" {
			p.fail(start, "Expected a keyword name after \":\"")
		}
		return &Node{Kind: KKeyword, Loc: loc, Text: word}
	}

	word := p.parseWord()
	if word == "" {
		p.fail(start, "Unexpected %q", p.text[start:start+1])
	}
	if isNumber(word) {
		return &Node{Kind: KNumber, Loc: loc, Text: word}
	}
	return &Node{Kind: KSymbol, Loc: loc, Text: word}
}

func (p *parser) parseWord() string {
	start := p.pos
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if c == '(' || c == ')' || c == '"' || c == ';' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		p.pos++
	}
	return p.text[start:p.pos]
}

func (p *parser) parseString() string {
	start := p.pos
	p.pos++
	sb := strings.Builder{}
	for {
		if p.pos >= len(p.text) {
			p.fail(start, "Unterminated string")
		}
		c := p.text[p.pos]
		p.pos++
		switch c {
		case '"':
			return sb.String()
		case '\\':
			if p.pos >= len(p.text) {
				p.fail(start, "Unterminated string")
			}
			escape := p.text[p.pos]
			p.pos++
			switch escape {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case '\\', '"':
				sb.WriteByte(escape)
			default:
				p.fail(p.pos-2, "Invalid escape sequence \"\\%c\"", escape)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

// Numbers are an optional minus sign followed by digits, with an optional
// fraction and exponent. "-" on its own is a symbol.
func isNumber(word string) bool {
	i := 0
	if i < len(word) && word[i] == '-' {
		i++
	}
	digits := 0
	for i < len(word) && word[i] >= '0' && word[i] <= '9' {
		i++
		digits++
	}
	if i < len(word) && word[i] == '.' {
		i++
		for i < len(word) && word[i] >= '0' && word[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(word) && (word[i] == 'e' || word[i] == 'E') {
		i++
		if i < len(word) && (word[i] == '+' || word[i] == '-') {
			i++
		}
		exponent := 0
		for i < len(word) && word[i] >= '0' && word[i] <= '9' {
			i++
			exponent++
		}
		if exponent == 0 {
			return false
		}
	}
	return i == len(word)
}

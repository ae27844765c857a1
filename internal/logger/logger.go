package logger

// Diagnostics look like clang's: "file:line:col: error: text", followed by the
// offending line and a marker underneath. Lowering aborts the whole unit on
// the first error, so in practice a unit produces at most one error, but the
// log is shared by every unit of a CLI run.

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

type LogLevel int8

const (
	LevelNone LogLevel = iota
	LevelVerbose
	LevelInfo
	LevelWarning
	LevelError
	LevelSilent
)

type MsgKind uint8

const (
	Error MsgKind = iota
	InternalError
	Warning
	Verbose
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case InternalError:
		return "internal error"
	case Warning:
		return "warning"
	case Verbose:
		return "verbose"
	default:
		panic("Internal error")
	}
}

// Both kinds of errors abort the unit. They are kept apart because an
// internal error is a bug in the compiler, not in the input.
func (kind MsgKind) IsError() bool {
	return kind == Error || kind == InternalError
}

type Msg struct {
	Kind     MsgKind
	Text     string
	Location *MsgLocation
	Notes    []string
}

type MsgLocation struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Loc struct {
	// This is the 0-based index of this location from the start of the file, in bytes
	Start int32
}

type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 {
	return r.Loc.Start + r.Len
}

type Source struct {
	Index uint32

	// Used in diagnostics only. Never used to touch the file system.
	PrettyPath string

	// The text the locations of the tree point into. This is the interchange
	// text when the tree came from the reader, or the original source text when
	// a real front end handed the tree over.
	Contents string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

// Returns the range of the balanced parenthesized form starting at "loc", or
// an empty range if there isn't one.
func (s *Source) RangeOfForm(loc Loc) Range {
	text := s.Contents[loc.Start:]
	if len(text) == 0 || text[0] != '(' {
		return Range{Loc: loc}
	}
	depth := 0
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return Range{Loc: loc, Len: int32(i + 1)}
			}
		}
	}
	return Range{Loc: loc}
}

type sortableMsgs []Msg

func (a sortableMsgs) Len() int          { return len(a) }
func (a sortableMsgs) Swap(i int, j int) { a[i], a[j] = a[j], a[i] }

func (a sortableMsgs) Less(i int, j int) bool {
	li, lj := a[i].Location, a[j].Location
	if (li == nil) != (lj == nil) {
		return li == nil
	}
	if li != nil {
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		if li.Column != lj.Column {
			return li.Column < lj.Column
		}
	}
	if a[i].Kind != a[j].Kind {
		return a[i].Kind < a[j].Kind
	}
	return a[i].Text < a[j].Text
}

func plural(prefix string, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, prefix)
	}
	return fmt.Sprintf("%d %ss", count, prefix)
}

func errorAndWarningSummary(errors int, warnings int) string {
	switch {
	case errors == 0:
		return plural("warning", warnings)
	case warnings == 0:
		return plural("error", errors)
	default:
		return fmt.Sprintf("%s and %s", plural("warning", warnings), plural("error", errors))
	}
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type OutputOptions struct {
	IncludeSource bool
	ErrorLimit    int
	Color         StderrColor
	LogLevel      LogLevel
}

func NewStderrLog(options OutputOptions) Log {
	var mutex sync.Mutex
	var msgs sortableMsgs
	terminalInfo := GetTerminalInfo(os.Stderr)
	errors := 0
	warnings := 0
	errorLimitWasHit := false

	switch options.Color {
	case ColorNever:
		terminalInfo.UseColorEscapes = false
	case ColorAlways:
		terminalInfo.UseColorEscapes = SupportsColorEscapes
	}

	shouldPrint := func(kind MsgKind) bool {
		switch kind {
		case Error, InternalError:
			return options.LogLevel <= LevelError
		case Warning:
			return options.LogLevel <= LevelWarning
		default:
			return options.LogLevel <= LevelVerbose
		}
	}

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			msgs = append(msgs, msg)

			// Be silent if we're past the limit so we don't flood the terminal
			if errorLimitWasHit {
				return
			}

			if msg.Kind.IsError() {
				errors++
			} else if msg.Kind == Warning {
				warnings++
			}
			if shouldPrint(msg.Kind) {
				os.Stderr.WriteString(msg.String(options, terminalInfo))
			}

			if options.ErrorLimit != 0 && errors >= options.ErrorLimit {
				errorLimitWasHit = true
				if options.LogLevel <= LevelError {
					os.Stderr.WriteString(fmt.Sprintf(
						"%s reached (disable error limit with --error-limit=0)\n", errorAndWarningSummary(errors, warnings)))
				}
			}
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return errors > 0
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			if !errorLimitWasHit && options.LogLevel <= LevelInfo && (warnings != 0 || errors != 0) {
				os.Stderr.WriteString(fmt.Sprintf("%s\n", errorAndWarningSummary(errors, warnings)))
			}
			sort.Stable(msgs)
			return msgs
		},
	}
}

func PrintErrorToStderr(osArgs []string, text string) {
	options := OutputOptions{IncludeSource: true}
	for _, arg := range osArgs {
		switch arg {
		case "--color=false":
			options.Color = ColorNever
		case "--color=true":
			options.Color = ColorAlways
		case "--log-level=silent":
			options.LogLevel = LevelSilent
		}
	}
	log := NewStderrLog(options)
	log.AddMsg(Msg{Kind: Error, Text: text})
	log.Done()
}

func NewDeferLog() Log {
	var msgs sortableMsgs
	var mutex sync.Mutex
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind.IsError() {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			return msgs
		},
	}
}

const colorReset = "\033[0m"
const colorRed = "\033[31m"
const colorGreen = "\033[32m"
const colorMagenta = "\033[35m"
const colorDim = "\033[37m"
const colorBold = "\033[1m"
const colorResetBold = "\033[0;1m"

func kindColor(kind MsgKind) string {
	switch kind {
	case Warning:
		return colorMagenta
	case Verbose:
		return colorDim
	default:
		return colorRed
	}
}

func (msg Msg) String(options OutputOptions, terminalInfo TerminalInfo) string {
	sb := strings.Builder{}
	kind := msg.Kind.String()
	color := kindColor(msg.Kind)

	switch {
	case msg.Location == nil:
		if terminalInfo.UseColorEscapes {
			fmt.Fprintf(&sb, "%s%s%s: %s%s%s\n", colorBold, color, kind, colorResetBold, msg.Text, colorReset)
		} else {
			fmt.Fprintf(&sb, "%s: %s\n", kind, msg.Text)
		}

	case !options.IncludeSource:
		loc := msg.Location
		if terminalInfo.UseColorEscapes {
			fmt.Fprintf(&sb, "%s%s:%d:%d: %s%s: %s%s%s\n", colorBold, loc.File, loc.Line, loc.Column,
				color, kind, colorResetBold, msg.Text, colorReset)
		} else {
			fmt.Fprintf(&sb, "%s:%d:%d: %s: %s\n", loc.File, loc.Line, loc.Column, kind, msg.Text)
		}

	default:
		d := detailStruct(msg, terminalInfo)
		if terminalInfo.UseColorEscapes {
			fmt.Fprintf(&sb, "%s%s:%d:%d: %s%s: %s%s\n%s%s%s%s%s%s\n%s%s%s%s\n",
				colorBold, d.Path, d.Line, d.Column,
				color, d.Kind,
				colorResetBold, d.Message,
				colorReset, d.SourceBefore, colorGreen, d.SourceMarked, colorReset, d.SourceAfter,
				colorGreen, d.Indent, d.Marker, colorReset)
		} else {
			fmt.Fprintf(&sb, "%s:%d:%d: %s: %s\n%s\n%s%s\n",
				d.Path, d.Line, d.Column, d.Kind, d.Message, d.Source, d.Indent, d.Marker)
		}
	}

	for _, note := range msg.Notes {
		if terminalInfo.UseColorEscapes {
			fmt.Fprintf(&sb, "  %s%s%s\n", colorDim, note, colorReset)
		} else {
			fmt.Fprintf(&sb, "  %s\n", note)
		}
	}
	return sb.String()
}

type MsgDetail struct {
	Path    string
	Line    int
	Column  int
	Kind    string
	Message string

	// Source == SourceBefore + SourceMarked + SourceAfter
	Source       string
	SourceBefore string
	SourceMarked string
	SourceAfter  string

	Indent string
	Marker string
}

func computeLineAndColumn(contents string, offset int) (lineCount int, columnCount int, lineStart int, lineEnd int) {
	if offset > len(contents) {
		offset = len(contents)
	}

	for i, c := range contents[:offset] {
		if c == '\n' {
			lineStart = i + 1
			lineCount++
		}
	}

	lineEnd = len(contents)
	if i := strings.IndexAny(contents[offset:], "\r\n"); i != -1 {
		lineEnd = offset + i
	}

	columnCount = offset - lineStart
	return
}

func locationOrNil(source *Source, r Range) *MsgLocation {
	if source == nil {
		return nil
	}
	lineCount, columnCount, lineStart, lineEnd := computeLineAndColumn(source.Contents, int(r.Loc.Start))
	return &MsgLocation{
		File:     source.PrettyPath,
		Line:     lineCount + 1,
		Column:   columnCount,
		Length:   int(r.Len),
		LineText: source.Contents[lineStart:lineEnd],
	}
}

func detailStruct(msg Msg, terminalInfo TerminalInfo) MsgDetail {
	loc := *msg.Location
	lineText := strings.ReplaceAll(loc.LineText, "\t", "  ")

	// Tabs were widened, so shift the column by the extra width before it
	column := loc.Column
	if column > len(loc.LineText) {
		column = len(loc.LineText)
	}
	markerStart := column + strings.Count(loc.LineText[:column], "\t")
	markerEnd := markerStart + loc.Length
	if markerEnd > len(lineText) {
		markerEnd = len(lineText)
	}
	if markerEnd < markerStart {
		markerEnd = markerStart
	}

	// Trim the line to fit the terminal width, keeping the marker visible
	width := terminalInfo.Width
	if width < 1 {
		width = 80
	}
	if len(lineText) > width {
		sliceStart := markerStart - width/5
		if sliceStart < 0 {
			sliceStart = 0
		}
		if sliceStart > len(lineText)-width {
			sliceStart = len(lineText) - width
		}
		lineText = lineText[sliceStart : sliceStart+width]
		markerStart -= sliceStart
		markerEnd -= sliceStart
		if markerEnd > len(lineText) {
			markerEnd = len(lineText)
		}
	}

	marker := "^"
	if markerEnd-markerStart > 1 {
		marker = strings.Repeat("~", markerEnd-markerStart)
	}

	return MsgDetail{
		Path:    loc.File,
		Line:    loc.Line,
		Column:  loc.Column,
		Kind:    msg.Kind.String(),
		Message: msg.Text,

		Source:       lineText,
		SourceBefore: lineText[:markerStart],
		SourceMarked: lineText[markerStart:markerEnd],
		SourceAfter:  lineText[markerEnd:],

		Indent: strings.Repeat(" ", markerStart),
		Marker: marker,
	}
}

func (log Log) AddError(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Error, Text: text, Location: locationOrNil(source, Range{Loc: loc})})
}

func (log Log) AddErrorWithNotes(source *Source, r Range, text string, notes []string) {
	log.AddMsg(Msg{Kind: Error, Text: text, Location: locationOrNil(source, r), Notes: notes})
}

func (log Log) AddRangeError(source *Source, r Range, text string) {
	log.AddMsg(Msg{Kind: Error, Text: text, Location: locationOrNil(source, r)})
}

func (log Log) AddInternalError(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: InternalError, Text: text, Location: locationOrNil(source, Range{Loc: loc})})
}

func (log Log) AddWarning(source *Source, loc Loc, text string) {
	log.AddMsg(Msg{Kind: Warning, Text: text, Location: locationOrNil(source, Range{Loc: loc})})
}

func (log Log) AddVerbose(text string, notes []string) {
	log.AddMsg(Msg{Kind: Verbose, Text: text, Notes: notes})
}

package cs_reader

// The reader decodes the tree interchange format into a resolved cs_ast
// tree. It stands in for the real front end: it declares every type first,
// then member signatures, then bodies, so forward references between types
// and members resolve the way they would in the source language.
//
// Declarations:
//
//   (class Name [(extends Base)] [(implements I...)] Member...)
//   (struct Name Member...)
//   (interface Name (method Name (Param...) Type)...)
//   (enum Name A B (C 10))
//   (namespace Name Decl...)
//
// Members:
//
//   (field Name Type [:static] [:init Expr])
//   (property Name Type [:static] [:init Expr] [:get Stmt...] [:set Stmt...])
//   (event Name Type [:static])
//   (method Name (Param...) Type [:static] [:async] Stmt...)
//   (ctor (Param...) [:base (Expr...)] Stmt...)
//
// where a parameter is "(name Type [:ref] [:out] [:default Expr])". Any form
// that is not a declaration is a top-level statement.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/helpers"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/sexpr"
)

type readerPanic struct{}

type scope struct {
	parent *scope
	names  map[string]*cs_ast.Symbol
}

type fnInfo struct {
	symbol     *cs_ast.Symbol
	returnType *cs_ast.Type

	// The element type of "yield return" values in iterator methods
	yieldType *cs_ast.Type

	// Lambdas without a known return type infer it from their first "return"
	inferReturn  bool
	inferredType *cs_ast.Type

	loopDepth   int
	switchDepth int
}

type reader struct {
	log    logger.Log
	source logger.Source

	types      map[string]*cs_ast.Symbol
	typeParams map[string]*cs_ast.Type

	scope    *scope
	class    *cs_ast.Symbol
	isStatic bool
	fn       *fnInfo

	// Member bodies are read once every signature is known
	pendingBodies []func()

	// Set while reading the library declarations
	isBuiltin bool
}

func Read(log logger.Log, source logger.Source) (unit *cs_ast.Unit, ok bool) {
	forms, ok := sexpr.Parse(log, source)
	if !ok {
		return nil, false
	}

	r := newReader(log, source, builtinTypes())

	defer func() {
		rec := recover()
		if _, isReaderPanic := rec.(readerPanic); isReaderPanic {
			unit = nil
			ok = false
		} else if rec != nil {
			panic(rec)
		}
	}()

	return r.readUnit(forms), true
}

func newReader(log logger.Log, source logger.Source, builtins map[string]*cs_ast.Symbol) *reader {
	r := &reader{
		log:    log,
		source: source,
		types:  make(map[string]*cs_ast.Symbol),
	}
	for name, symbol := range builtins {
		r.types[name] = symbol
	}
	r.scope = &scope{names: make(map[string]*cs_ast.Symbol)}
	return r
}

func (r *reader) fail(loc logger.Loc, format string, args ...interface{}) {
	r.log.AddError(&r.source, loc, fmt.Sprintf(format, args...))
	panic(readerPanic{})
}

// Reports an unknown name, suggesting a known one if it looks like a typo
func (r *reader) failUnknown(loc logger.Loc, what string, name string, candidates []string) {
	detector := helpers.MakeTypoDetector(candidates)
	if corrected, ok := detector.MaybeCorrectTypo(name); ok {
		r.fail(loc, "Could not resolve %s %q (did you mean %q?)", what, name, corrected)
	}
	r.fail(loc, "Could not resolve %s %q", what, name)
}

func (r *reader) expectArgs(node *sexpr.Node, min int, max int) []*sexpr.Node {
	args := node.Args()
	if len(args) < min || (max >= 0 && len(args) > max) {
		switch {
		case min == max:
			r.fail(node.Loc, "Expected %d arguments to %q but got %d", min, node.Head(), len(args))
		case max < 0:
			r.fail(node.Loc, "Expected at least %d arguments to %q but got %d", min, node.Head(), len(args))
		default:
			r.fail(node.Loc, "Expected %d to %d arguments to %q but got %d", min, max, node.Head(), len(args))
		}
	}
	return args
}

func (r *reader) expectSymbol(node *sexpr.Node, what string) string {
	if node.Kind != sexpr.KSymbol {
		r.fail(node.Loc, "Expected %s but found %s", what, node.Kind)
	}
	return node.Text
}

func (r *reader) expectList(node *sexpr.Node, what string) []*sexpr.Node {
	if node.Kind != sexpr.KList {
		r.fail(node.Loc, "Expected %s but found %s", what, node.Kind)
	}
	return node.Items
}

// Splits trailing items into flags ("static"), keyword arguments (":init x")
// and the remaining positional items. "valued" names the keywords that take
// an argument.
type options struct {
	flags  map[string]bool
	values map[string]*sexpr.Node
	rest   []*sexpr.Node
}

func (r *reader) parseOptions(items []*sexpr.Node, allowedFlags []string, valued []string) options {
	result := options{flags: make(map[string]bool), values: make(map[string]*sexpr.Node)}
	for i := 0; i < len(items); i++ {
		item := items[i]
		if item.Kind != sexpr.KKeyword {
			result.rest = append(result.rest, item)
			continue
		}
		if contains(valued, item.Text) {
			if i+1 >= len(items) {
				r.fail(item.Loc, "Expected a value after \":%s\"", item.Text)
			}
			if _, ok := result.values[item.Text]; ok {
				r.fail(item.Loc, "Duplicate \":%s\"", item.Text)
			}
			i++
			result.values[item.Text] = items[i]
			continue
		}
		if contains(allowedFlags, item.Text) {
			result.flags[item.Text] = true
			continue
		}
		r.failUnknown(item.Loc, "option", ":"+item.Text, prefixAll(":", append(allowedFlags, valued...)))
	}
	return result
}

func contains(list []string, text string) bool {
	for _, item := range list {
		if item == text {
			return true
		}
	}
	return false
}

func prefixAll(prefix string, list []string) []string {
	result := make([]string, len(list))
	for i, item := range list {
		result[i] = prefix + item
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// Scopes

func (r *reader) pushScope() {
	r.scope = &scope{parent: r.scope, names: make(map[string]*cs_ast.Symbol)}
}

func (r *reader) popScope() {
	r.scope = r.scope.parent
}

func (r *reader) declare(loc logger.Loc, symbol *cs_ast.Symbol) {
	if _, ok := r.scope.names[symbol.Name]; ok {
		r.fail(loc, "%q is already declared in this scope", symbol.Name)
	}
	r.scope.names[symbol.Name] = symbol
}

func (r *reader) lookupLocal(name string) *cs_ast.Symbol {
	for s := r.scope; s != nil; s = s.parent {
		if symbol, ok := s.names[name]; ok {
			return symbol
		}
	}
	return nil
}

// Every name visible from the current position, for typo suggestions
func (r *reader) visibleNames() []string {
	seen := make(map[string]bool)
	for s := r.scope; s != nil; s = s.parent {
		for name := range s.names {
			seen[name] = true
		}
	}
	if r.class != nil {
		for t := r.class; t != nil; t = t.Base {
			for name := range t.Members {
				seen[name] = true
			}
		}
	}
	for name := range r.types {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

////////////////////////////////////////////////////////////////////////////////
// Unit

func isDeclForm(head string) bool {
	switch head {
	case "class", "struct", "interface", "enum", "namespace":
		return true
	}
	return false
}

func (r *reader) readUnit(forms []*sexpr.Node) *cs_ast.Unit {
	if len(forms) == 1 && forms[0].Head() == "unit" {
		forms = forms[0].Args()
	}

	var declForms []*sexpr.Node
	var stmtForms []*sexpr.Node
	for _, form := range forms {
		if isDeclForm(form.Head()) {
			declForms = append(declForms, form)
		} else {
			stmtForms = append(stmtForms, form)
		}
	}

	// Pass 1: every type name
	for _, form := range declForms {
		r.declareTypes(form)
	}

	// Pass 2: bases and member signatures
	unit := &cs_ast.Unit{}
	for _, form := range declForms {
		unit.Decls = append(unit.Decls, r.readDecl(form))
	}

	// Pass 3: bodies
	for _, body := range r.pendingBodies {
		body()
	}

	r.fn = &fnInfo{returnType: cs_ast.VoidType}
	for _, form := range stmtForms {
		unit.Stmts = append(unit.Stmts, r.readStmt(form))
	}
	r.fn = nil
	return unit
}

func (r *reader) typeNames() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isValidName(name string) bool {
	if name == "" || strings.ContainsAny(name, ".:") {
		return false
	}
	c := name[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

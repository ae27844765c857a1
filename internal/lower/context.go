package lower

import (
	"fmt"

	"github.com/luasharp/luasharp/internal/config"
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/renamer"
)

// Lowering aborts the unit on the first error by panicking with this value.
// The message has already been logged when it is thrown.
type lowerPanic struct{}

// Everything that changes while one unit is lowered. A context is never
// shared between units.
type Context struct {
	log      logger.Log
	source   *logger.Source
	options  config.Options
	names    *renamer.Renamer
	registry *Registry

	scopes     []*scope
	fns        []*fnFrame
	generators []*generatorScope

	// Set once an error was logged. The stacks are then unwound without
	// checking their order, since frames popped without "defer" were skipped.
	aborting bool

	// The expression of the expression statement being lowered. Its value
	// is unused, which lets some forms lower to plain statements.
	stmtExpr cs_ast.E

	// Statements that must run right before the statement being lowered
	prereqs []lua_ast.Stmt

	// Generated type names, declared once with a single "local" at the top
	predecls    []string
	predeclared map[string]bool

	// Output names of methods and constructors. Overloads get distinct names
	// and overrides reuse the name of the method they override.
	memberNames map[*cs_ast.Symbol]string
	ctorNames   map[*cs_ast.Symbol]string
}

type scope struct {
	// Connection handles of event subscriptions made in this scope
	connections map[*cs_ast.Symbol]string
}

// A loop or a switch. Both are "break" targets, only loops are "continue"
// targets.
type loopFrame struct {
	isSwitch bool

	// The number of try frames of the function when the loop was entered.
	// A jump from deeper than this crosses a try closure.
	tryDepth int

	// Switches only: the flag a "continue" sets before leaving the switch
	continueFlag string
}

type tryFrame struct {
	usesReturn   bool
	usesBreak    bool
	usesContinue bool
}

// One per output function
type fnFrame struct {
	loops []*loopFrame
	tries []*tryFrame

	// Names of the exception parameters of enclosing catch closures, for
	// rethrow
	catches []string

	// Output names of by-ref parameters, returned after the return value
	byRef []string

	returnsValue bool
}

type generatorScope struct {
	fn      *fnFrame
	state   string
	onBreak string
}

func newContext(log logger.Log, source *logger.Source, options config.Options) *Context {
	return &Context{
		log:         log,
		source:      source,
		options:     options,
		names:       renamer.NewRenamer(options.RuntimeLibrary),
		registry:    defaultRegistry(),
		predeclared: make(map[string]bool),
		memberNames: make(map[*cs_ast.Symbol]string),
		ctorNames:   make(map[*cs_ast.Symbol]string),
	}
}

////////////////////////////////////////////////////////////////////////////////
// Errors

func (ctx *Context) unsupported(loc logger.Loc, format string, args ...interface{}) {
	ctx.log.AddError(ctx.source, loc, fmt.Sprintf(format, args...))
	ctx.aborting = true
	panic(lowerPanic{})
}

func (ctx *Context) internalError(loc logger.Loc, format string, args ...interface{}) {
	ctx.log.AddInternalError(ctx.source, loc, fmt.Sprintf(format, args...))
	ctx.aborting = true
	panic(lowerPanic{})
}

////////////////////////////////////////////////////////////////////////////////
// Stacks. Every push returns the matching pop, so callers write
// "defer ctx.pushScope()()" and an abort still unwinds every frame.

func (ctx *Context) pushScope() func() {
	ctx.scopes = append(ctx.scopes, &scope{})
	depth := len(ctx.scopes)
	return func() {
		if len(ctx.scopes) != depth && !ctx.aborting {
			ctx.internalError(logger.Loc{}, "Scope stack popped out of order")
		}
		ctx.scopes = ctx.scopes[:depth-1]
	}
}

func (ctx *Context) currentScope() *scope {
	if len(ctx.scopes) == 0 {
		ctx.internalError(logger.Loc{}, "No current scope")
	}
	return ctx.scopes[len(ctx.scopes)-1]
}

func (ctx *Context) pushFn(frame *fnFrame) func() {
	ctx.fns = append(ctx.fns, frame)
	depth := len(ctx.fns)
	return func() {
		if !ctx.aborting {
			if len(ctx.fns) != depth {
				ctx.internalError(logger.Loc{}, "Function stack popped out of order")
			}
			if len(frame.loops) != 0 || len(frame.tries) != 0 || len(frame.catches) != 0 {
				ctx.internalError(logger.Loc{}, "Function left with %d loop and %d try frames", len(frame.loops), len(frame.tries))
			}
		}
		ctx.fns = ctx.fns[:depth-1]
	}
}

func (ctx *Context) fn() *fnFrame {
	if len(ctx.fns) == 0 {
		ctx.internalError(logger.Loc{}, "No current function")
	}
	return ctx.fns[len(ctx.fns)-1]
}

func (ctx *Context) pushLoop(isSwitch bool) (*loopFrame, func()) {
	fn := ctx.fn()
	loop := &loopFrame{isSwitch: isSwitch, tryDepth: len(fn.tries)}
	fn.loops = append(fn.loops, loop)
	depth := len(fn.loops)
	return loop, func() {
		if !ctx.aborting && (len(fn.loops) != depth || fn.loops[depth-1] != loop) {
			ctx.internalError(logger.Loc{}, "Loop stack popped out of order")
		}
		fn.loops = fn.loops[:depth-1]
	}
}

func (ctx *Context) pushTry() (*tryFrame, func()) {
	fn := ctx.fn()
	try := &tryFrame{}
	fn.tries = append(fn.tries, try)
	depth := len(fn.tries)
	return try, func() {
		if !ctx.aborting && (len(fn.tries) != depth || fn.tries[depth-1] != try) {
			ctx.internalError(logger.Loc{}, "Try stack popped out of order")
		}
		fn.tries = fn.tries[:depth-1]
	}
}

func (ctx *Context) pushCatch(name string) func() {
	fn := ctx.fn()
	fn.catches = append(fn.catches, name)
	depth := len(fn.catches)
	return func() {
		if len(fn.catches) != depth && !ctx.aborting {
			ctx.internalError(logger.Loc{}, "Catch stack popped out of order")
		}
		fn.catches = fn.catches[:depth-1]
	}
}

func (ctx *Context) pushGenerator(gen *generatorScope) func() {
	ctx.generators = append(ctx.generators, gen)
	depth := len(ctx.generators)
	return func() {
		if len(ctx.generators) != depth && !ctx.aborting {
			ctx.internalError(logger.Loc{}, "Generator stack popped out of order")
		}
		ctx.generators = ctx.generators[:depth-1]
	}
}

// The generator scope of the current function, if it has one
func (ctx *Context) generator() *generatorScope {
	if len(ctx.generators) > 0 {
		if gen := ctx.generators[len(ctx.generators)-1]; gen.fn == ctx.fn() {
			return gen
		}
	}
	return nil
}

// Reports the first leaked frame, if any
func (ctx *Context) leakedFrame() string {
	switch {
	case len(ctx.scopes) != 0:
		return "scope"
	case len(ctx.fns) != 0:
		return "function"
	case len(ctx.generators) != 0:
		return "generator"
	case len(ctx.prereqs) != 0:
		return "prerequisite"
	}
	return ""
}

////////////////////////////////////////////////////////////////////////////////
// Names

func (ctx *Context) temp(prefix string) string {
	return ctx.names.NewTemp(prefix)
}

func (ctx *Context) nameOf(symbol *cs_ast.Symbol) string {
	return ctx.names.NameForSymbol(symbol)
}

func (ctx *Context) predeclare(name string) {
	if !ctx.predeclared[name] {
		ctx.predeclared[name] = true
		ctx.predecls = append(ctx.predecls, name)
	}
}

// A global of the runtime library, e.g. "CS.try"
func (ctx *Context) runtime(name string) lua_ast.Expr {
	return lua_ast.Dot(lua_ast.Id(ctx.options.RuntimeLibrary), name)
}

func (ctx *Context) callRuntime(name string, args ...lua_ast.Expr) *lua_ast.ECall {
	return lua_ast.Call(ctx.runtime(name), args...)
}

// A function of a Luau library table, e.g. "table.insert"
func libCall(lib string, name string, args ...lua_ast.Expr) *lua_ast.ECall {
	return lua_ast.Call(lua_ast.Dot(lua_ast.Id(lib), name), args...)
}

////////////////////////////////////////////////////////////////////////////////
// Prerequisites

func (ctx *Context) hoist(stmts ...lua_ast.Stmt) {
	ctx.prereqs = append(ctx.prereqs, stmts...)
}

// Lowers an expression and returns the statements it hoisted separately,
// for places where they cannot run before the enclosing statement
func (ctx *Context) captureExpr(expr cs_ast.Expr) (lua_ast.Expr, []lua_ast.Stmt) {
	old := ctx.prereqs
	ctx.prereqs = nil
	value := ctx.lowerExpr(expr)
	captured := ctx.prereqs
	ctx.prereqs = old
	return value, captured
}

func (ctx *Context) capture(body func()) []lua_ast.Stmt {
	old := ctx.prereqs
	ctx.prereqs = nil
	body()
	captured := ctx.prereqs
	ctx.prereqs = old
	return captured
}

// Whether an expression can be evaluated again without changing behavior
// or doing extra work: names, literals and field reads of those
func isReusable(expr lua_ast.Expr) bool {
	switch e := expr.(type) {
	case *lua_ast.EIdentifier, *lua_ast.ENil, *lua_ast.EBoolean, *lua_ast.ENumber, *lua_ast.EString:
		return true
	case *lua_ast.EDot:
		return isReusable(e.Target)
	}
	return false
}

// Returns a function producing copies of "value". A value that cannot be
// evaluated twice is stored in a temporary first.
func (ctx *Context) reusable(value lua_ast.Expr, prefix string) func() lua_ast.Expr {
	if !isReusable(value) {
		name := ctx.temp(prefix)
		ctx.hoist(lua_ast.Local(name, value))
		value = lua_ast.Id(name)
	}
	used := false
	return func() lua_ast.Expr {
		if !used {
			used = true
			return value
		}
		return lua_ast.CloneExpr(value)
	}
}

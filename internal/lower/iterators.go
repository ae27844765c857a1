package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/runtime"
)

// An iterator method returns an enumerable driven by the runtime. The body
// runs inside a coroutine and hands values out through "yield", which
// reports whether the consumer stopped early. The generator then unwinds
// like a return, so pending finally blocks still run.
func (ctx *Context) lowerIteratorBody(body []cs_ast.Stmt) lua_ast.Stmt {
	frame := &fnFrame{}
	gen := &generatorScope{fn: frame, state: ctx.temp("_state")}
	params := []string{gen.state}
	if cs_ast.ContainsStmt(body, needsOnBreak) {
		gen.onBreak = ctx.temp("_onBreak")
		params = append(params, gen.onBreak)
	}

	popFn := ctx.pushFn(frame)
	popGen := ctx.pushGenerator(gen)
	stmts := ctx.lowerBlock(body)
	popGen()
	popFn()

	return lua_ast.Return(ctx.callRuntime(runtime.Iterator, lua_ast.Func(params, stmts...)))
}

// Bodies that can leave early through a finally block need the callback the
// runtime uses to close the enumerator from outside
func needsOnBreak(s cs_ast.S) bool {
	switch s := s.(type) {
	case *cs_ast.STry:
		return s.HasFinally
	case *cs_ast.SUsing:
		return true
	case *cs_ast.SLocal:
		return s.IsUsing
	}
	return false
}

func (ctx *Context) currentGenerator(loc cs_ast.Stmt) *generatorScope {
	gen := ctx.generator()
	if gen == nil {
		ctx.internalError(loc.Loc, "%s outside of an iterator", loc.Data.Kind())
	}
	return gen
}

func lowerYieldReturnStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SYieldReturn)
	gen := ctx.currentGenerator(stmt)
	value := ctx.lowerExpr(s.Value)
	stopped := ctx.callRuntime(runtime.Yield, lua_ast.Id(gen.state), value)
	return []lua_ast.Stmt{lua_ast.If(stopped, []lua_ast.Stmt{ctx.returnStmt(nil)}, nil)}, true
}

func lowerYieldBreakStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	gen := ctx.currentGenerator(stmt)
	stmts := []lua_ast.Stmt{lua_ast.CallStmt(ctx.callRuntime(runtime.Close, lua_ast.Id(gen.state)))}
	if gen.onBreak != "" {
		stmts = append(stmts, lua_ast.CallStmt(lua_ast.Call(lua_ast.Id(gen.onBreak))))
	}
	return append(stmts, ctx.returnStmt(nil)), true
}

func lowerAwait(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EAwait)
	return ctx.callRuntime(runtime.Await, ctx.lowerExpr(e.Value)), true
}

package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/runtime"
)

// Exception handling runs each block as a closure under the runtime's "try".
// Jumps out of a closure become "return <sentinel>, {values}" and the call
// site dispatches on the sentinel. The dispatch is only emitted for the
// sentinels some jump actually produced.

type catchClause struct {
	param string
	body  func() []lua_ast.Stmt
}

func lowerTryStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.STry)
	if len(s.Catches) > 1 {
		ctx.unsupported(s.Catches[1].Loc, "Only one catch clause per try statement is supported")
	}

	var catch *catchClause
	if len(s.Catches) == 1 {
		c := s.Catches[0]
		if c.Filter != nil {
			ctx.unsupported(c.Filter.Loc, "Exception filters are not supported")
		}
		catch = &catchClause{body: func() []lua_ast.Stmt { return ctx.lowerStmts(c.Body) }}
		if c.Symbol != nil {
			catch.param = ctx.nameOf(c.Symbol)
		} else if cs_ast.ContainsStmt(c.Body, isRethrow) {
			catch.param = ctx.temp("_error")
		}
	}

	var finally func() []lua_ast.Stmt
	if s.HasFinally {
		finally = func() []lua_ast.Stmt { return ctx.lowerStmts(s.Finally) }
	}

	return ctx.emulateTry(stmt.Loc, func() []lua_ast.Stmt { return ctx.lowerStmts(s.Body) }, catch, finally), true
}

func isRethrow(s cs_ast.S) bool {
	throw, ok := s.(*cs_ast.SThrow)
	return ok && throw.Value == nil
}

func (ctx *Context) emulateTry(loc logger.Loc, body func() []lua_ast.Stmt, catch *catchClause, finally func() []lua_ast.Stmt) []lua_ast.Stmt {
	frame, pop := ctx.pushTry()
	args := []lua_ast.Expr{ctx.closure(nil, body)}
	if catch != nil {
		var params []string
		if catch.param != "" {
			params = []string{catch.param}
			popCatch := ctx.pushCatch(catch.param)
			args = append(args, ctx.closure(params, catch.body))
			popCatch()
		} else {
			args = append(args, ctx.closure(nil, catch.body))
		}
	}
	if finally != nil {
		if catch == nil {
			args = append(args, lua_ast.Nil())
		}
		args = append(args, ctx.closure(nil, finally))
	}
	pop()

	call := ctx.callRuntime(runtime.Try, args...)
	if !frame.usesReturn && !frame.usesBreak && !frame.usesContinue {
		return []lua_ast.Stmt{lua_ast.CallStmt(call)}
	}

	exitKind := ctx.temp("_exitKind")
	local := &lua_ast.SLocal{Names: []string{exitKind}, Values: []lua_ast.Expr{call}}
	var returns string
	if frame.usesReturn {
		returns = ctx.temp("_returns")
		local.Names = append(local.Names, returns)
	}

	type arm struct {
		sentinel string
		body     []lua_ast.Stmt
	}
	var arms []arm
	if frame.usesReturn {
		arms = append(arms, arm{runtime.TryReturn, ctx.propagateReturn(returns)})
	}
	if frame.usesBreak {
		arms = append(arms, arm{runtime.TryBreak, ctx.breakStmts(loc)})
	}
	if frame.usesContinue {
		arms = append(arms, arm{runtime.TryContinue, ctx.continueStmts(loc)})
	}

	// Build the "if ... elseif ..." chain from the last arm up
	var dispatch []lua_ast.Stmt
	for i := len(arms) - 1; i >= 0; i-- {
		test := lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Id(exitKind), ctx.runtime(arms[i].sentinel))
		dispatch = []lua_ast.Stmt{lua_ast.If(test, arms[i].body, dispatch)}
	}
	return append([]lua_ast.Stmt{local}, dispatch...)
}

// The values packed by a return inside the closure are returned again, or
// packed again when this try is itself inside another one
func (ctx *Context) propagateReturn(returns string) []lua_ast.Stmt {
	fn := ctx.fn()
	if len(fn.tries) > 0 {
		fn.tries[len(fn.tries)-1].usesReturn = true
		return []lua_ast.Stmt{lua_ast.Return(ctx.runtime(runtime.TryReturn), lua_ast.Id(returns))}
	}
	if !fn.returnsValue && len(fn.byRef) == 0 {
		return []lua_ast.Stmt{lua_ast.Return()}
	}
	return []lua_ast.Stmt{lua_ast.Return(libCall("table", "unpack", lua_ast.Id(returns)))}
}

// A try, catch or finally block as a function. Falling off the end is
// reported to the runtime as a normal exit.
func (ctx *Context) closure(params []string, body func() []lua_ast.Stmt) *lua_ast.EFunction {
	popScope := ctx.pushScope()
	stmts := body()
	popScope()
	if len(stmts) == 0 || !isReturn(stmts[len(stmts)-1]) {
		stmts = append(stmts, lua_ast.Return(lua_ast.Nil(), &lua_ast.ETable{}))
	}
	return lua_ast.Func(params, stmts...)
}

func isReturn(stmt lua_ast.Stmt) bool {
	_, ok := stmt.(*lua_ast.SReturn)
	return ok
}

////////////////////////////////////////////////////////////////////////////////
// Using

func lowerUsingStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SUsing)
	defer ctx.pushScope()()
	return ctx.lowerUsing(stmt.Loc, s.Decls, s.Value, s.IsAwait, func() []lua_ast.Stmt {
		return ctx.lowerBody(s.Body)
	}), true
}

// The resources are declared first, then the body runs as a try whose finally
// disposes them in reverse order. A resource that is nil is skipped.
func (ctx *Context) lowerUsing(loc logger.Loc, decls *cs_ast.SLocal, value *cs_ast.Expr, isAwait bool, body func() []lua_ast.Stmt) []lua_ast.Stmt {
	if isAwait {
		ctx.unsupported(loc, "\"await using\" is not supported")
	}

	var stmts []lua_ast.Stmt
	var resources []string
	if decls != nil {
		plain := *decls
		plain.IsUsing = false
		stmts = ctx.lowerStmt(cs_ast.Stmt{Loc: loc, Data: &plain})
		for _, decl := range decls.Decls {
			resources = append(resources, ctx.nameOf(decl.Symbol))
		}
	} else {
		name := ctx.temp("_resource")
		resource, prereqs := ctx.captureExpr(*value)
		stmts = append(prereqs, lua_ast.Local(name, resource))
		resources = append(resources, name)
	}

	dispose := func() []lua_ast.Stmt {
		var result []lua_ast.Stmt
		for i := len(resources) - 1; i >= 0; i-- {
			r := resources[i]
			call := lua_ast.CallStmt(lua_ast.MethodCall(lua_ast.Id(r), "Dispose"))
			result = append(result, lua_ast.If(lua_ast.Bin(lua_ast.BinOpNe, lua_ast.Id(r), lua_ast.Nil()), []lua_ast.Stmt{call}, nil))
		}
		return result
	}
	return append(stmts, ctx.emulateTry(loc, body, nil, dispose)...)
}

package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/runtime"
)

// A "using var" declaration turns the rest of its block into the body of a
// try/finally, so statements are lowered as a list rather than one by one
func (ctx *Context) lowerStmts(stmts []cs_ast.Stmt) []lua_ast.Stmt {
	var result []lua_ast.Stmt
	for i, stmt := range stmts {
		if local, ok := stmt.Data.(*cs_ast.SLocal); ok && (local.IsUsing || local.IsAwaitUsing) {
			rest := stmts[i+1:]
			return append(result, ctx.lowerUsing(stmt.Loc, local, nil, local.IsAwaitUsing, func() []lua_ast.Stmt {
				return ctx.lowerStmts(rest)
			})...)
		}
		result = append(result, ctx.lowerStmt(stmt)...)
	}
	return result
}

func (ctx *Context) lowerBlock(stmts []cs_ast.Stmt) []lua_ast.Stmt {
	defer ctx.pushScope()()
	return ctx.lowerStmts(stmts)
}

// The body of a loop or an if branch. A nested block statement is not
// wrapped in another "do".
func (ctx *Context) lowerBody(stmt cs_ast.Stmt) []lua_ast.Stmt {
	return ctx.lowerBlock(cs_ast.StmtsOf(stmt))
}

func lowerBlockStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SBlock)
	body := ctx.lowerBlock(s.Stmts)
	if len(body) == 0 {
		return nil, true
	}
	return []lua_ast.Stmt{&lua_ast.SDo{Body: lua_ast.NewBlock(body...)}}, true
}

func lowerEmptyStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	return nil, true
}

func lowerLocalStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SLocal)
	local := &lua_ast.SLocal{}
	for _, decl := range s.Decls {
		local.Names = append(local.Names, ctx.nameOf(decl.Symbol))
		if ctx.options.EmitTypes {
			local.Types = append(local.Types, ctx.luauType(decl.Symbol.Type))
		}
	}
	for _, decl := range s.Decls {
		if decl.Value == nil {
			break
		}
		local.Values = append(local.Values, ctx.lowerExpr(*decl.Value))
	}
	if len(local.Values) != 0 && len(local.Values) != len(s.Decls) {
		ctx.internalError(stmt.Loc, "Some but not all locals have an initializer")
	}
	return []lua_ast.Stmt{local}, true
}

func lowerLocalFunctionStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SLocalFunction)
	name := ctx.nameOf(s.Symbol)
	fn := ctx.lowerFn(&s.Fn, s.Symbol, s.Symbol.Type)
	return []lua_ast.Stmt{&lua_ast.SLocalFunction{Name: name, Fn: fn}}, true
}

func lowerExprStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SExpr)
	return ctx.lowerSideEffect(s.Value), true
}

// Lowers an expression evaluated only for its side effects. Luau only allows
// calls as statements, so anything else is kept alive through a local.
func (ctx *Context) lowerSideEffect(expr cs_ast.Expr) []lua_ast.Stmt {
	value := ctx.lowerExprStmt(expr)
	if value == nil {
		return nil
	}
	if lua_ast.IsCall(value) {
		return []lua_ast.Stmt{lua_ast.CallStmt(value)}
	}
	return []lua_ast.Stmt{lua_ast.Local("_", value)}
}

func lowerIfStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SIf)

	// "if (x is T t)" assigns the bindings at the top of the branch where the
	// pattern matched instead of going through a flag
	test, negated := s.Test, false
	if un, ok := test.Data.(*cs_ast.EUnary); ok && un.Op == cs_ast.UnOpNot {
		if _, ok := un.Value.Data.(*cs_ast.EIs); ok {
			test, negated = un.Value, true
		}
	}
	if is, ok := test.Data.(*cs_ast.EIs); ok {
		result := ctx.compileIs(is)
		if len(result.bindings) > 0 && result.cond != nil {
			assigns := result.assignments()
			yes := ctx.lowerBody(s.Yes)
			var no []lua_ast.Stmt
			if s.No != nil {
				no = ctx.lowerBody(*s.No)
			}
			if negated {
				return []lua_ast.Stmt{lua_ast.If(lua_ast.Not(result.cond), yes, append(assigns, no...))}, true
			}
			return []lua_ast.Stmt{lua_ast.If(result.cond, append(assigns, yes...), elseBranch(s.No != nil, no))}, true
		}
		cond := result.condOrTrue()
		ctx.hoist(result.assignmentsAlways()...)
		if negated {
			cond = lua_ast.Not(cond)
		}
		return ctx.finishIf(cond, s), true
	}

	return ctx.finishIf(ctx.lowerExpr(s.Test), s), true
}

func (ctx *Context) finishIf(test lua_ast.Expr, s *cs_ast.SIf) []lua_ast.Stmt {
	yes := ctx.lowerBody(s.Yes)
	var no []lua_ast.Stmt
	if s.No != nil {
		no = ctx.lowerBody(*s.No)
	}
	return []lua_ast.Stmt{lua_ast.If(test, yes, elseBranch(s.No != nil, no))}
}

// An "else" with an empty body is dropped, and nil means there is none
func elseBranch(hasElse bool, no []lua_ast.Stmt) []lua_ast.Stmt {
	if !hasElse || len(no) == 0 {
		return nil
	}
	return no
}

func lowerThrowStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SThrow)
	if s.Value == nil {
		catches := ctx.fn().catches
		if len(catches) == 0 {
			ctx.unsupported(stmt.Loc, "A rethrow must be inside a catch clause")
		}
		return []lua_ast.Stmt{lua_ast.CallStmt(lua_ast.Call(lua_ast.Id("error"), lua_ast.Id(catches[len(catches)-1])))}, true
	}
	value := ctx.lowerExpr(*s.Value)
	return []lua_ast.Stmt{lua_ast.CallStmt(lua_ast.Call(lua_ast.Id("error"), value))}, true
}

////////////////////////////////////////////////////////////////////////////////
// Jumps

func lowerReturnStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SReturn)
	var values []lua_ast.Expr
	if s.Value != nil {
		values = append(values, ctx.lowerExpr(*s.Value))
	}
	return []lua_ast.Stmt{ctx.returnStmt(values)}, true
}

// A return of the current function. Its by-ref parameters are returned after
// the value, and inside a try closure everything is packed behind the
// return sentinel.
func (ctx *Context) returnStmt(values []lua_ast.Expr) lua_ast.Stmt {
	fn := ctx.fn()
	for _, name := range fn.byRef {
		values = append(values, lua_ast.Id(name))
	}
	if len(fn.tries) > 0 {
		fn.tries[len(fn.tries)-1].usesReturn = true
		return lua_ast.Return(ctx.runtime(runtime.TryReturn), &lua_ast.ETable{Fields: positional(values)})
	}
	return lua_ast.Return(values...)
}

func positional(values []lua_ast.Expr) []lua_ast.TableField {
	fields := make([]lua_ast.TableField, len(values))
	for i, value := range values {
		fields[i] = lua_ast.TableField{Value: value}
	}
	return fields
}

func lowerBreakStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	return ctx.breakStmts(stmt.Loc), true
}

func lowerContinueStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	return ctx.continueStmts(stmt.Loc), true
}

func (ctx *Context) breakStmts(loc logger.Loc) []lua_ast.Stmt {
	fn := ctx.fn()
	if len(fn.loops) == 0 {
		ctx.internalError(loc, "There is no loop or switch to break out of")
	}
	target := fn.loops[len(fn.loops)-1]
	if len(fn.tries) > target.tryDepth {
		fn.tries[len(fn.tries)-1].usesBreak = true
		return []lua_ast.Stmt{lua_ast.Return(ctx.runtime(runtime.TryBreak), &lua_ast.ETable{})}
	}
	return []lua_ast.Stmt{&lua_ast.SBreak{}}
}

// Luau has no labeled jumps. A "continue" inside a switch sets a flag and
// leaves the switch, which then continues the loop around it.
func (ctx *Context) continueStmts(loc logger.Loc) []lua_ast.Stmt {
	fn := ctx.fn()
	if len(fn.loops) == 0 {
		ctx.internalError(loc, "There is no loop to continue")
	}
	target := fn.loops[len(fn.loops)-1]
	if len(fn.tries) > target.tryDepth {
		fn.tries[len(fn.tries)-1].usesContinue = true
		return []lua_ast.Stmt{lua_ast.Return(ctx.runtime(runtime.TryContinue), &lua_ast.ETable{})}
	}
	if target.isSwitch {
		if target.continueFlag == "" {
			target.continueFlag = ctx.temp("_continue")
		}
		return []lua_ast.Stmt{lua_ast.Assign(lua_ast.Id(target.continueFlag), lua_ast.Bool(true)), &lua_ast.SBreak{}}
	}
	return []lua_ast.Stmt{&lua_ast.SContinue{}}
}

package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Lowers a method, accessor, local function or lambda body. "symbol" is nil
// for lambdas and accessors, "returnType" nil when nothing is returned.
//
// Parameters passed by reference cannot be written through in Luau, so such
// functions return the final values of those parameters after their result
// and call sites assign them back.
func (ctx *Context) lowerFn(fn *cs_ast.Fn, symbol *cs_ast.Symbol, returnType *cs_ast.Type) *lua_ast.Fn {
	return ctx.lowerFnWith(fn, symbol, returnType, nil)
}

// Like lowerFn, with statements from "before" placed ahead of the body
func (ctx *Context) lowerFnWith(fn *cs_ast.Fn, symbol *cs_ast.Symbol, returnType *cs_ast.Type, before func() []lua_ast.Stmt) *lua_ast.Fn {
	defer ctx.pushScope()()

	isIterator := symbol != nil && symbol.IsIterator
	frame := &fnFrame{returnsValue: returnType != nil && !returnType.Is(cs_ast.TypeVoid) && !isIterator}
	out := &lua_ast.Fn{}
	var prologue []lua_ast.Stmt

	for i, arg := range fn.Args {
		name := ctx.nameOf(arg.Symbol)
		param := lua_ast.Param{Name: name}
		if ctx.options.EmitTypes {
			param.Type = ctx.luauType(arg.Symbol.Type)
		}
		out.Params = append(out.Params, param)

		if arg.Symbol.RefKind == cs_ast.RefRef || arg.Symbol.RefKind == cs_ast.RefOut {
			frame.byRef = append(frame.byRef, name)
		}

		// Optional parameters are filled in by the callee so call sites can
		// simply leave them out
		if symbol != nil && i < len(symbol.Params) && symbol.Params[i].Default != nil {
			value, prereqs := ctx.captureExpr(*symbol.Params[i].Default)
			fill := append(prereqs, lua_ast.Assign(lua_ast.Id(name), value))
			prologue = append(prologue, lua_ast.If(lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Id(name), lua_ast.Nil()), fill, nil))
		}
	}

	if ctx.options.EmitTypes && !isIterator {
		if frame.returnsValue {
			out.ReturnTypes = append(out.ReturnTypes, ctx.luauType(returnType))
		}
		for _, arg := range fn.Args {
			if arg.Symbol.RefKind == cs_ast.RefRef || arg.Symbol.RefKind == cs_ast.RefOut {
				out.ReturnTypes = append(out.ReturnTypes, ctx.luauType(arg.Symbol.Type))
			}
		}
	}

	popFn := ctx.pushFn(frame)
	var body []lua_ast.Stmt
	if isIterator {
		body = []lua_ast.Stmt{ctx.lowerIteratorBody(fn.Body)}
	} else {
		if before != nil {
			body = before()
		}
		body = append(body, ctx.lowerStmts(fn.Body)...)
		if len(frame.byRef) > 0 && !lua_ast.EndsWithJump(body) {
			body = append(body, ctx.returnStmt(nil))
		}
	}
	popFn()

	out.Body = lua_ast.NewBlock(append(prologue, body...)...)
	return out
}

func lowerLambda(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ELambda)
	return &lua_ast.EFunction{Fn: ctx.lowerFn(&e.Fn, nil, delegateReturnType(expr.Type))}, true
}

// "Func" keeps its return type last and "Predicate" returns a bool. Other
// delegates return nothing.
func delegateReturnType(t *cs_ast.Type) *cs_ast.Type {
	if t == nil || t.Kind != cs_ast.TypeDelegate {
		return nil
	}
	switch t.Name {
	case "Func":
		if len(t.Args) > 0 {
			return t.Args[len(t.Args)-1]
		}
	case "Predicate":
		return cs_ast.BoolType
	}
	return nil
}

// Method groups used as values become closures. An instance method is bound
// to the receiver it was taken from, which is evaluated once.
func lowerMethodGroup(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EMember)
	if e.Symbol == nil || e.Symbol.Kind != cs_ast.SymbolMethod {
		return nil, false
	}
	if e.Symbol.IsBuiltin {
		ctx.unsupported(expr.Loc, "%s.%s cannot be used as a value", e.Symbol.ContainingType.Name, e.Symbol.Name)
	}
	name := ctx.methodName(e.Symbol)
	if e.Symbol.IsStatic {
		return lua_ast.Dot(lua_ast.Id(ctx.typeName(e.Symbol.ContainingType)), name), true
	}
	receiver := ctx.reusable(ctx.lowerExpr(e.Target), "_receiver")
	call := lua_ast.MethodCall(receiver(), name, &lua_ast.EVararg{})
	return &lua_ast.EFunction{Fn: &lua_ast.Fn{IsVararg: true, Body: lua_ast.NewBlock(lua_ast.Return(call))}}, true
}

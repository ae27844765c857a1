package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Calls of user methods. Instance methods use ":" and static ones go through
// the class table. Library methods never get here: they are macros or
// rejected.

func lowerCall(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ECall)
	symbol := e.Symbol

	// Delegates and local functions are plain calls
	if symbol == nil || symbol.Kind == cs_ast.SymbolLocalFunction {
		var target lua_ast.Expr
		if symbol == nil {
			target = ctx.lowerExpr(e.Target)
		} else {
			target = lua_ast.Id(ctx.nameOf(symbol))
		}
		args, refs := ctx.lowerArgs(e.Args)
		return ctx.finishCall(expr, lua_ast.Call(target, args...), refs), true
	}

	if symbol.IsBuiltin {
		ctx.unsupported(expr.Loc, "%s.%s is not supported", symbol.ContainingType.Name, symbol.Name)
	}
	member, ok := e.Target.Data.(*cs_ast.EMember)
	if !ok {
		ctx.internalError(expr.Loc, "Expected a member as the target of a method call")
	}
	name := ctx.methodName(symbol)

	if symbol.IsStatic {
		target := lua_ast.Dot(lua_ast.Id(ctx.typeName(symbol.ContainingType)), name)
		args, refs := ctx.lowerArgs(e.Args)
		return ctx.finishCall(expr, lua_ast.Call(target, args...), refs), true
	}

	// "base.M()" calls the base implementation with the same "self"
	if _, ok := member.Target.Data.(*cs_ast.EBase); ok {
		target := lua_ast.Dot(lua_ast.Id(ctx.typeName(symbol.ContainingType)), name)
		args, refs := ctx.lowerArgs(e.Args)
		args = append([]lua_ast.Expr{lua_ast.Id("self")}, args...)
		return ctx.finishCall(expr, lua_ast.Call(target, args...), refs), true
	}

	if member.IsOptional {
		return ctx.lowerOptionalCall(expr, member, name), true
	}

	target := ctx.lowerExpr(member.Target)
	args, refs := ctx.lowerArgs(e.Args)
	return ctx.finishCall(expr, lua_ast.MethodCall(target, name, args...), refs), true
}

// "a?.M(b)" only evaluates "b" when "a" isn't nil
func (ctx *Context) lowerOptionalCall(expr cs_ast.Expr, member *cs_ast.EMember, name string) lua_ast.Expr {
	e := expr.Data.(*cs_ast.ECall)
	target := ctx.reusable(ctx.lowerExpr(member.Target), "_target")
	check := lua_ast.Bin(lua_ast.BinOpNe, target(), lua_ast.Nil())

	var args []lua_ast.Expr
	prereqs := ctx.capture(func() {
		var refs []lvalue
		args, refs = ctx.lowerArgs(e.Args)
		if len(refs) > 0 {
			ctx.unsupported(expr.Loc, "By-reference arguments cannot be used with \"?.\"")
		}
	})
	call := lua_ast.MethodCall(target(), name, args...)

	if ctx.isStatement(expr) {
		ctx.hoist(lua_ast.If(check, append(prereqs, lua_ast.CallStmt(call)), nil))
		return nil
	}
	if len(prereqs) == 0 {
		return &lua_ast.EIfElse{Test: check, Yes: call, No: lua_ast.Nil()}
	}
	result := ctx.temp("_result")
	ctx.hoist(
		lua_ast.Local(result, nil),
		lua_ast.If(check, append(prereqs, lua_ast.Assign(lua_ast.Id(result), call)), nil),
	)
	return lua_ast.Id(result)
}

// By-ref arguments pass their current value ("out" ones pass nil). The callee
// returns the final values after its result.
func (ctx *Context) lowerArgs(args []cs_ast.Arg) ([]lua_ast.Expr, []lvalue) {
	var values []lua_ast.Expr
	var refs []lvalue
	for _, arg := range args {
		if arg.RefKind != cs_ast.RefRef && arg.RefKind != cs_ast.RefOut {
			values = append(values, ctx.lowerExpr(arg.Value))
			continue
		}
		target := ctx.lowerLValue(arg.Value)
		if !target.isPlain {
			ctx.unsupported(arg.Loc, "A property cannot be passed by reference")
		}
		refs = append(refs, target)
		if arg.RefKind == cs_ast.RefOut {
			values = append(values, lua_ast.Nil())
		} else {
			values = append(values, target.get())
		}
	}
	return values, refs
}

// Assigns the by-ref results of a call back to the arguments
func (ctx *Context) finishCall(expr cs_ast.Expr, call lua_ast.Expr, refs []lvalue) lua_ast.Expr {
	if len(refs) == 0 {
		return call
	}
	returnsValue := expr.Type != nil && !expr.Type.Is(cs_ast.TypeVoid)

	var targets []lua_ast.Expr
	var result string
	if returnsValue {
		if ctx.isStatement(expr) {
			targets = append(targets, lua_ast.Id("_"))
		} else {
			result = ctx.temp("_result")
			ctx.hoist(lua_ast.Local(result, nil))
			targets = append(targets, lua_ast.Id(result))
		}
	}
	for _, ref := range refs {
		targets = append(targets, ref.get())
	}
	ctx.hoist(&lua_ast.SAssign{Targets: targets, Values: []lua_ast.Expr{call}})

	if result == "" {
		if !ctx.isStatement(expr) {
			ctx.internalError(expr.Loc, "A call without a value was used as a value")
		}
		return nil
	}
	return lua_ast.Id(result)
}

// Raising an event fires its signal
func lowerEventInvoke(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ECall)
	if e.Symbol != nil {
		return nil, false
	}
	member, ok := e.Target.Data.(*cs_ast.EMember)
	if !ok || member.Symbol == nil || member.Symbol.Kind != cs_ast.SymbolEvent {
		return nil, false
	}
	signal := memberAccess(ctx.lowerMemberTarget(member), member.Symbol.Name)
	args, refs := ctx.lowerArgs(e.Args)
	if len(refs) > 0 {
		ctx.unsupported(expr.Loc, "Events cannot be raised with by-reference arguments")
	}
	return lua_ast.MethodCall(signal, "Fire", args...), true
}

////////////////////////////////////////////////////////////////////////////////
// Construction

func lowerNew(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ENew)
	decl := e.Type.Decl
	if decl == nil || decl.IsBuiltin {
		ctx.unsupported(expr.Loc, "Constructing %q is not supported", e.Type.String())
	}

	suffix := ""
	if e.Symbol != nil {
		suffix = ctx.ctorNames[e.Symbol]
	}
	args, refs := ctx.lowerArgs(e.Args)
	if len(refs) > 0 {
		ctx.unsupported(expr.Loc, "Constructors cannot take by-reference arguments")
	}
	value := lua_ast.Expr(lua_ast.Call(lua_ast.Dot(lua_ast.Id(ctx.typeName(decl)), "new"+suffix), args...))

	if e.Init == nil {
		return value, true
	}
	if e.Init.Kind != cs_ast.InitObject {
		ctx.unsupported(expr.Loc, "%q is not a collection", e.Type.String())
	}

	// "new T { X = 1 }" sets members on a temporary after construction
	obj := ctx.temp("_obj")
	ctx.hoist(lua_ast.Local(obj, value))
	for _, init := range e.Init.Members {
		v := ctx.lowerExpr(init.Value)
		ctx.hoist(ctx.writeMember(lua_ast.Id(obj), init.Symbol, v))
	}
	return lua_ast.Id(obj), true
}

// Stores into a field or property of an already lowered object
func (ctx *Context) writeMember(target lua_ast.Expr, symbol *cs_ast.Symbol, value lua_ast.Expr) lua_ast.Stmt {
	if symbol.Kind == cs_ast.SymbolProperty && !symbol.IsAutoProperty {
		return lua_ast.CallStmt(lua_ast.MethodCall(target, accessorName("set", symbol), value))
	}
	return lua_ast.Assign(memberAccess(target, symbol.Name), value)
}

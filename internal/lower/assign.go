package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Something that can be assigned to. The parts of the target that would
// run twice (the object of a field, the key of an index) are evaluated once
// into temporaries when needed.
type lvalue struct {
	get func() lua_ast.Expr
	set func(value lua_ast.Expr) lua_ast.Stmt

	// Set when "get()" can be the target of a Luau assignment. Accessor
	// properties go through calls instead.
	isPlain bool
}

func (ctx *Context) lowerLValue(expr cs_ast.Expr) lvalue {
	switch e := expr.Data.(type) {
	case *cs_ast.EIdentifier:
		return plainLValue(ctx.lowerExpr(expr))

	case *cs_ast.EMember:
		if e.IsOptional {
			ctx.unsupported(expr.Loc, "Cannot assign through \"?.\"")
		}
		symbol := e.Symbol
		if symbol != nil && symbol.IsBuiltin && (symbol.Kind != cs_ast.SymbolProperty || !symbol.IsAutoProperty || symbol.Name != "Message") {
			ctx.unsupported(expr.Loc, "Cannot assign to %s.%s", symbol.ContainingType.Name, symbol.Name)
		}
		target := ctx.reusable(ctx.lowerMemberTarget(e), "_object")
		if symbol != nil && symbol.Kind == cs_ast.SymbolProperty && !symbol.IsAutoProperty {
			get, set := accessorName("get", symbol), accessorName("set", symbol)
			if symbol.IsStatic {
				return lvalue{
					get: func() lua_ast.Expr { return lua_ast.Call(lua_ast.Dot(target(), get)) },
					set: func(value lua_ast.Expr) lua_ast.Stmt {
						return lua_ast.CallStmt(lua_ast.Call(lua_ast.Dot(target(), set), value))
					},
				}
			}
			return lvalue{
				get: func() lua_ast.Expr { return lua_ast.MethodCall(target(), get) },
				set: func(value lua_ast.Expr) lua_ast.Stmt {
					return lua_ast.CallStmt(lua_ast.MethodCall(target(), set, value))
				},
			}
		}
		name := e.Name
		if symbol != nil {
			name = symbol.Name
		}
		return lvalue{
			get:     func() lua_ast.Expr { return memberAccess(target(), name) },
			set:     func(value lua_ast.Expr) lua_ast.Stmt { return lua_ast.Assign(memberAccess(target(), name), value) },
			isPlain: true,
		}

	case *cs_ast.EIndex:
		if e.IsOptional {
			ctx.unsupported(expr.Loc, "Cannot assign through \"?[]\"")
		}
		t := cs_ast.Underlying(e.Target.Type)
		if t.Is(cs_ast.TypeString) {
			ctx.unsupported(expr.Loc, "Strings cannot be modified")
		}
		target := ctx.reusable(ctx.lowerExpr(e.Target), "_object")
		var key func() lua_ast.Expr
		if t.IsArrayLike() {
			key = ctx.reusable(ctx.oneBased(e.Index), "_index")
		} else {
			key = ctx.reusable(ctx.lowerExpr(e.Index), "_key")
		}
		return lvalue{
			get:     func() lua_ast.Expr { return lua_ast.Index(target(), key()) },
			set:     func(value lua_ast.Expr) lua_ast.Stmt { return lua_ast.Assign(lua_ast.Index(target(), key()), value) },
			isPlain: true,
		}
	}
	ctx.internalError(expr.Loc, "%s cannot be assigned to", expr.Data.Kind())
	return lvalue{}
}

func plainLValue(target lua_ast.Expr) lvalue {
	used := false
	get := func() lua_ast.Expr {
		if !used {
			used = true
			return target
		}
		return lua_ast.CloneExpr(target)
	}
	return lvalue{
		get:     get,
		set:     func(value lua_ast.Expr) lua_ast.Stmt { return lua_ast.Assign(get(), value) },
		isPlain: true,
	}
}

// Luau compound assignment operators for source compound operators that map
// one to one. Everything else is expanded to "a = a op b".
var compoundOps = map[cs_ast.OpCode]lua_ast.OpCode{
	cs_ast.BinOpAddAssign: lua_ast.BinOpAdd,
	cs_ast.BinOpSubAssign: lua_ast.BinOpSub,
	cs_ast.BinOpMulAssign: lua_ast.BinOpMul,
	cs_ast.BinOpRemAssign: lua_ast.BinOpMod,
}

func lowerAssign(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EBinary)
	if !e.Op.IsAssign() {
		return nil, false
	}
	target := ctx.lowerLValue(e.Left)
	ctx.hoist(ctx.assignStmts(e, expr.Type, target)...)
	if ctx.isStatement(expr) {
		return nil, true
	}
	return target.get(), true
}

func (ctx *Context) assignStmts(e *cs_ast.EBinary, t *cs_ast.Type, target lvalue) []lua_ast.Stmt {
	if e.Op == cs_ast.BinOpAssign {
		return []lua_ast.Stmt{target.set(ctx.lowerExpr(e.Right))}
	}

	// "a ??= b" only evaluates "b" when "a" is nil
	if e.Op == cs_ast.BinOpNullCoalescingAssign {
		value, prereqs := ctx.captureExpr(e.Right)
		check := lua_ast.Bin(lua_ast.BinOpEq, target.get(), lua_ast.Nil())
		return []lua_ast.Stmt{lua_ast.If(check, append(prereqs, target.set(value)), nil)}
	}

	base := e.Op.CompoundBase()
	lt := cs_ast.Underlying(e.Left.Type)

	// String concatenation
	if base == cs_ast.BinOpAdd && lt.Is(cs_ast.TypeString) {
		value := ctx.stringOperand(e.Right)
		if target.isPlain {
			return []lua_ast.Stmt{&lua_ast.SCompoundAssign{Op: lua_ast.BinOpConcat, Target: target.get(), Value: value}}
		}
		return []lua_ast.Stmt{target.set(lua_ast.Bin(lua_ast.BinOpConcat, target.get(), value))}
	}

	value := ctx.numericOperand(e.Right)
	if op, ok := compoundOps[e.Op]; ok && target.isPlain && !lt.Is(cs_ast.TypeChar) {
		return []lua_ast.Stmt{&lua_ast.SCompoundAssign{Op: op, Target: target.get(), Value: value}}
	}
	if e.Op == cs_ast.BinOpDivAssign && target.isPlain {
		op := lua_ast.BinOpDiv
		if lt.Is(cs_ast.TypeInt) {
			op = lua_ast.BinOpFloorDiv
		}
		return []lua_ast.Stmt{&lua_ast.SCompoundAssign{Op: op, Target: target.get(), Value: value}}
	}

	current := target.get()
	if lt.Is(cs_ast.TypeChar) {
		result := libCall("string", "char", ctx.arithmetic(base, cs_ast.IntType, libCall("string", "byte", current), value))
		return []lua_ast.Stmt{target.set(result)}
	}
	return []lua_ast.Stmt{target.set(ctx.arithmetic(base, t, current, value))}
}

// "++" and "--". The value of a postfix update is the old value, which is
// saved first.
func lowerUpdate(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EUnary)
	if !e.Op.IsUpdate() {
		return nil, false
	}
	target := ctx.lowerLValue(e.Value)
	isChar := cs_ast.Underlying(e.Value.Type).Is(cs_ast.TypeChar)

	var old string
	if !ctx.isStatement(expr) && !e.Op.IsPrefix() {
		old = ctx.temp("_old")
		ctx.hoist(lua_ast.Local(old, target.get()))
	}

	op := lua_ast.BinOpSub
	if e.Op.IsIncrement() {
		op = lua_ast.BinOpAdd
	}
	switch {
	case isChar:
		next := libCall("string", "char", lua_ast.Bin(op, libCall("string", "byte", target.get()), lua_ast.Num(1)))
		ctx.hoist(target.set(next))
	case target.isPlain:
		ctx.hoist(&lua_ast.SCompoundAssign{Op: op, Target: target.get(), Value: lua_ast.Num(1)})
	default:
		ctx.hoist(target.set(lua_ast.Bin(op, target.get(), lua_ast.Num(1))))
	}

	switch {
	case ctx.isStatement(expr):
		return nil, true
	case old != "":
		return lua_ast.Id(old), true
	}
	return target.get(), true
}

package lower

import (
	"strconv"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Characters are one-character strings in the output. Arithmetic on them
// goes through "string.byte" and "string.char".

func lowerLiteral(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	switch e := expr.Data.(type) {
	case *cs_ast.ENull:
		return lua_ast.Nil(), true
	case *cs_ast.EBoolean:
		return lua_ast.Bool(e.Value), true
	case *cs_ast.ENumber:
		return lua_ast.Num(e.Value), true
	case *cs_ast.EString:
		return lua_ast.Str(e.Value), true
	case *cs_ast.EChar:
		return lua_ast.Str(string(e.Value)), true
	}
	return nil, false
}

// Interpolated strings become a ".." chain. Non-string parts go through
// "tostring" since ".." only accepts strings and numbers.
func lowerInterpolated(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EInterpolated)
	var parts []lua_ast.Expr
	for _, part := range e.Parts {
		if s, ok := part.Data.(*cs_ast.EString); ok && s.Value == "" {
			continue
		}
		parts = append(parts, ctx.stringOperand(part))
	}
	if len(parts) == 0 {
		return lua_ast.Str(""), true
	}
	return concat(parts), true
}

func (ctx *Context) stringOperand(expr cs_ast.Expr) lua_ast.Expr {
	value := ctx.lowerExpr(expr)
	if t := cs_ast.Underlying(expr.Type); t.Is(cs_ast.TypeString) || t.Is(cs_ast.TypeChar) {
		if _, ok := expr.Data.(*cs_ast.ENull); !ok {
			return value
		}
	}
	return lua_ast.Call(lua_ast.Id("tostring"), value)
}

// ".." is right-associative, so the chain is built from the end
func concat(parts []lua_ast.Expr) lua_ast.Expr {
	result := parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0; i-- {
		result = lua_ast.Bin(lua_ast.BinOpConcat, parts[i], result)
	}
	return result
}

func lowerIdentifier(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EIdentifier)
	return lua_ast.Id(ctx.nameOf(e.Symbol)), true
}

func lowerSelf(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	return lua_ast.Id("self"), true
}

func lowerTypeRef(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ETypeRef)
	if e.Type.Decl == nil || e.Type.Decl.IsBuiltin {
		ctx.unsupported(expr.Loc, "The type %q cannot be used as a value", e.Type.String())
	}
	return lua_ast.Id(ctx.typeName(e.Type.Decl)), true
}

////////////////////////////////////////////////////////////////////////////////
// Members

func lowerMember(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EMember)
	if e.IsOptional {
		target := ctx.reusable(ctx.lowerExpr(e.Target), "_target")
		check := lua_ast.Bin(lua_ast.BinOpNe, target(), lua_ast.Nil())
		return &lua_ast.EIfElse{Test: check, Yes: ctx.readMember(expr.Loc, target(), e), No: lua_ast.Nil()}, true
	}
	return ctx.readMember(expr.Loc, ctx.lowerMemberTarget(e), e), true
}

// Static members are read from the class table no matter how they were
// reached
func (ctx *Context) lowerMemberTarget(e *cs_ast.EMember) lua_ast.Expr {
	if e.Symbol != nil && e.Symbol.IsStatic && e.Symbol.ContainingType != nil && !e.Symbol.ContainingType.IsBuiltin {
		return lua_ast.Id(ctx.typeName(e.Symbol.ContainingType))
	}
	return ctx.lowerExpr(e.Target)
}

func (ctx *Context) readMember(loc logger.Loc, target lua_ast.Expr, e *cs_ast.EMember) lua_ast.Expr {
	symbol := e.Symbol
	if symbol == nil {
		return memberAccess(target, e.Name)
	}
	if symbol.Kind == cs_ast.SymbolProperty && !symbol.IsAutoProperty {
		if symbol.IsBuiltin {
			ctx.unsupported(loc, "%s.%s is not supported", symbol.ContainingType.Name, symbol.Name)
		}
		if symbol.IsStatic {
			return lua_ast.Call(lua_ast.Dot(target, accessorName("get", symbol)))
		}
		return lua_ast.MethodCall(target, accessorName("get", symbol))
	}
	if symbol.IsBuiltin && symbol.Kind != cs_ast.SymbolProperty {
		ctx.unsupported(loc, "%s.%s is not supported", symbol.ContainingType.Name, symbol.Name)
	}
	return memberAccess(target, symbol.Name)
}

// Reads a member of a value that was already lowered, as in property
// patterns
func (ctx *Context) readMemberOf(loc logger.Loc, target lua_ast.Expr, symbol *cs_ast.Symbol, name string) lua_ast.Expr {
	return ctx.readMember(loc, target, &cs_ast.EMember{Name: name, Symbol: symbol})
}

func lowerIndex(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EIndex)
	if e.IsOptional {
		target := ctx.reusable(ctx.lowerExpr(e.Target), "_target")
		check := lua_ast.Bin(lua_ast.BinOpNe, target(), lua_ast.Nil())
		return &lua_ast.EIfElse{Test: check, Yes: ctx.indexInto(target(), e.Target.Type, e.Index), No: lua_ast.Nil()}, true
	}
	return ctx.indexInto(ctx.lowerExpr(e.Target), e.Target.Type, e.Index), true
}

// Arrays, lists and strings are 0-based in the source and 1-based in Luau.
// Dictionary keys are used as they are.
func (ctx *Context) indexInto(target lua_ast.Expr, t *cs_ast.Type, index cs_ast.Expr) lua_ast.Expr {
	t = cs_ast.Underlying(t)
	switch {
	case t.IsArrayLike():
		return lua_ast.Index(target, ctx.oneBased(index))
	case t.Is(cs_ast.TypeString):
		i := ctx.reusable(ctx.oneBased(index), "_index")
		return libCall("string", "sub", target, i(), i())
	}
	return lua_ast.Index(target, ctx.lowerExpr(index))
}

// Converts a 0-based index, folding constants
func (ctx *Context) oneBased(index cs_ast.Expr) lua_ast.Expr {
	if n, ok := index.Data.(*cs_ast.ENumber); ok {
		return lua_ast.Num(n.Value + 1)
	}
	return plusOne(ctx.lowerExpr(index))
}

func plusOne(value lua_ast.Expr) lua_ast.Expr {
	if n, ok := value.(*lua_ast.ENumber); ok {
		return lua_ast.Num(n.Value + 1)
	}
	return lua_ast.Bin(lua_ast.BinOpAdd, value, lua_ast.Num(1))
}

func minusOne(value lua_ast.Expr) lua_ast.Expr {
	if n, ok := value.(*lua_ast.ENumber); ok {
		return lua_ast.Num(n.Value - 1)
	}
	return lua_ast.Bin(lua_ast.BinOpSub, value, lua_ast.Num(1))
}

////////////////////////////////////////////////////////////////////////////////
// Operators

func lowerUnary(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EUnary)
	switch e.Op {
	case cs_ast.UnOpPos:
		return ctx.numericOperand(e.Value), true
	case cs_ast.UnOpNeg:
		return lua_ast.Un(lua_ast.UnOpNeg, ctx.numericOperand(e.Value)), true
	case cs_ast.UnOpNot:
		return lua_ast.Not(ctx.lowerExpr(e.Value)), true
	case cs_ast.UnOpCpl:
		return libCall("bit32", "bnot", ctx.numericOperand(e.Value)), true
	}
	return nil, false
}

// A character used as a number
func (ctx *Context) numericOperand(expr cs_ast.Expr) lua_ast.Expr {
	value := ctx.lowerExpr(expr)
	if cs_ast.Underlying(expr.Type).Is(cs_ast.TypeChar) {
		return libCall("string", "byte", value)
	}
	return value
}

var comparisonOps = map[cs_ast.OpCode]lua_ast.OpCode{
	cs_ast.BinOpLt: lua_ast.BinOpLt,
	cs_ast.BinOpLe: lua_ast.BinOpLe,
	cs_ast.BinOpGt: lua_ast.BinOpGt,
	cs_ast.BinOpGe: lua_ast.BinOpGe,
	cs_ast.BinOpEq: lua_ast.BinOpEq,
	cs_ast.BinOpNe: lua_ast.BinOpNe,
}

func lowerBinary(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EBinary)
	switch e.Op {
	case cs_ast.BinOpLogicalAnd, cs_ast.BinOpLogicalOr:
		return ctx.lowerLogical(e), true
	case cs_ast.BinOpNullCoalescing:
		return ctx.lowerCoalesce(e), true
	}

	if op, ok := comparisonOps[e.Op]; ok {
		left, right := e.Left, e.Right
		lt, rt := cs_ast.Underlying(left.Type), cs_ast.Underlying(right.Type)

		// Two characters compare as strings, a character and a number as
		// numbers
		if lt.Is(cs_ast.TypeChar) != rt.Is(cs_ast.TypeChar) {
			return lua_ast.Bin(op, ctx.numericOperand(left), ctx.numericOperand(right)), true
		}
		return lua_ast.Bin(op, ctx.lowerExpr(left), ctx.lowerExpr(right)), true
	}

	if e.Op == cs_ast.BinOpAdd && expr.Type.Is(cs_ast.TypeString) {
		return concat(ctx.concatParts(expr, nil)), true
	}

	left := ctx.numericOperand(e.Left)
	right := ctx.numericOperand(e.Right)
	return ctx.arithmetic(e.Op, expr.Type, left, right), true
}

// Flattens "a + b + c" on strings into one ".." chain
func (ctx *Context) concatParts(expr cs_ast.Expr, parts []lua_ast.Expr) []lua_ast.Expr {
	if e, ok := expr.Data.(*cs_ast.EBinary); ok && e.Op == cs_ast.BinOpAdd && expr.Type.Is(cs_ast.TypeString) {
		parts = ctx.concatParts(e.Left, parts)
		return ctx.concatParts(e.Right, parts)
	}
	return append(parts, ctx.stringOperand(expr))
}

// An arithmetic or bitwise operation on already lowered operands. "result" is
// the type of the whole expression.
func (ctx *Context) arithmetic(op cs_ast.OpCode, result *cs_ast.Type, left lua_ast.Expr, right lua_ast.Expr) lua_ast.Expr {
	result = cs_ast.Underlying(result)
	switch op {
	case cs_ast.BinOpAdd:
		return lua_ast.Bin(lua_ast.BinOpAdd, left, right)
	case cs_ast.BinOpSub:
		return lua_ast.Bin(lua_ast.BinOpSub, left, right)
	case cs_ast.BinOpMul:
		return lua_ast.Bin(lua_ast.BinOpMul, left, right)
	case cs_ast.BinOpDiv:
		if result.Is(cs_ast.TypeInt) {
			return lua_ast.Bin(lua_ast.BinOpFloorDiv, left, right)
		}
		return lua_ast.Bin(lua_ast.BinOpDiv, left, right)
	case cs_ast.BinOpRem:
		return lua_ast.Bin(lua_ast.BinOpMod, left, right)
	case cs_ast.BinOpShl:
		return libCall("bit32", "lshift", left, right)
	case cs_ast.BinOpShr:
		return libCall("bit32", "arshift", left, right)
	case cs_ast.BinOpBitwiseAnd:
		if result.Is(cs_ast.TypeBool) {
			return lua_ast.Bin(lua_ast.BinOpAnd, left, right)
		}
		return libCall("bit32", "band", left, right)
	case cs_ast.BinOpBitwiseOr:
		if result.Is(cs_ast.TypeBool) {
			return lua_ast.Bin(lua_ast.BinOpOr, left, right)
		}
		return libCall("bit32", "bor", left, right)
	case cs_ast.BinOpBitwiseXor:
		if result.Is(cs_ast.TypeBool) {
			return lua_ast.Bin(lua_ast.BinOpNe, left, right)
		}
		return libCall("bit32", "bxor", left, right)
	}
	ctx.internalError(logger.Loc{}, "Unexpected operator %d", op)
	return nil
}

// The right operand only runs when needed. If it hoisted statements, those
// must not run unconditionally, so the whole operation becomes an "if".
func (ctx *Context) lowerLogical(e *cs_ast.EBinary) lua_ast.Expr {
	left := ctx.lowerExpr(e.Left)
	right, prereqs := ctx.captureExpr(e.Right)
	isAnd := e.Op == cs_ast.BinOpLogicalAnd
	if len(prereqs) == 0 {
		if isAnd {
			return lua_ast.Bin(lua_ast.BinOpAnd, left, right)
		}
		return lua_ast.Bin(lua_ast.BinOpOr, left, right)
	}

	result := ctx.temp("_result")
	ctx.hoist(lua_ast.Local(result, left))
	test := lua_ast.Expr(lua_ast.Id(result))
	if !isAnd {
		test = lua_ast.Not(test)
	}
	ctx.hoist(lua_ast.If(test, append(prereqs, lua_ast.Assign(lua_ast.Id(result), right)), nil))
	return lua_ast.Id(result)
}

// "a ?? b" is "a or b" unless "a" can be false
func (ctx *Context) lowerCoalesce(e *cs_ast.EBinary) lua_ast.Expr {
	left := ctx.lowerExpr(e.Left)
	right, prereqs := ctx.captureExpr(e.Right)
	if len(prereqs) == 0 && !mayBeFalse(e.Left.Type) {
		return lua_ast.Bin(lua_ast.BinOpOr, left, right)
	}
	if len(prereqs) == 0 {
		value := ctx.reusable(left, "_value")
		return &lua_ast.EIfElse{Test: lua_ast.Bin(lua_ast.BinOpNe, value(), lua_ast.Nil()), Yes: value(), No: right}
	}

	result := ctx.temp("_value")
	ctx.hoist(
		lua_ast.Local(result, left),
		lua_ast.If(lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Id(result), lua_ast.Nil()), append(prereqs, lua_ast.Assign(lua_ast.Id(result), right)), nil),
	)
	return lua_ast.Id(result)
}

func mayBeFalse(t *cs_ast.Type) bool {
	t = cs_ast.Underlying(t)
	if t == nil {
		return true
	}
	switch t.Kind {
	case cs_ast.TypeBool, cs_ast.TypeObject, cs_ast.TypeParameter, cs_ast.TypeUnknown:
		return true
	}
	return false
}

func lowerConditional(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EConditional)
	test := ctx.lowerExpr(e.Test)
	yes, yesPrereqs := ctx.captureExpr(e.Yes)
	no, noPrereqs := ctx.captureExpr(e.No)
	if len(yesPrereqs) == 0 && len(noPrereqs) == 0 {
		return &lua_ast.EIfElse{Test: test, Yes: yes, No: no}, true
	}

	result := ctx.temp("_result")
	ctx.hoist(
		lua_ast.Local(result, nil),
		lua_ast.If(test,
			append(yesPrereqs, lua_ast.Assign(lua_ast.Id(result), yes)),
			append(noPrereqs, lua_ast.Assign(lua_ast.Id(result), no))),
	)
	return lua_ast.Id(result), true
}

////////////////////////////////////////////////////////////////////////////////
// Conversions

func lowerCast(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ECast)
	from, to := cs_ast.Underlying(e.Value.Type), cs_ast.Underlying(e.Target)
	value := ctx.lowerExpr(e.Value)
	switch {
	case to.Is(cs_ast.TypeInt) && from.Is(cs_ast.TypeFloat):
		// Truncates toward zero. The parentheses drop the fractional part
		// "math.modf" also returns.
		return &lua_ast.EParen{Value: libCall("math", "modf", value)}, true
	case to.Is(cs_ast.TypeChar) && (from.Is(cs_ast.TypeInt) || from.Is(cs_ast.TypeFloat)):
		return libCall("string", "char", value), true
	case (to.Is(cs_ast.TypeInt) || to.Is(cs_ast.TypeFloat)) && from.Is(cs_ast.TypeChar):
		return libCall("string", "byte", value), true
	case to.Is(cs_ast.TypeString) && from != nil && from.Kind != cs_ast.TypeString && from.Kind != cs_ast.TypeObject && from.Kind != cs_ast.TypeNull:
		return lua_ast.Call(lua_ast.Id("tostring"), value), true
	}
	return value, true
}

func lowerAs(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EAs)
	value := ctx.reusable(ctx.lowerExpr(e.Value), "_value")
	test := ctx.typeTest(value(), e.Target)
	return &lua_ast.EIfElse{Test: test, Yes: value(), No: lua_ast.Nil()}, true
}

////////////////////////////////////////////////////////////////////////////////
// Other expressions

func lowerTuple(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ETuple)
	table := &lua_ast.ETable{}
	for i, item := range e.Items {
		table.Fields = append(table.Fields, lua_ast.TableField{Name: tupleItemName(i), Value: ctx.lowerExpr(item)})
	}
	return table, true
}

func tupleItemName(i int) string {
	return "Item" + strconv.Itoa(i+1)
}

func lowerDefault(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EDefault)
	if value := defaultValue(e.Target); value != nil {
		return value, true
	}
	return lua_ast.Nil(), true
}

func lowerNameof(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ENameof)
	return lua_ast.Str(e.Name), true
}

// "new T[] { a, b }" is a table constructor. "new T[n]" preallocates and
// fills with the default value when it isn't nil.
func lowerArray(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EArray)
	if e.Size == nil {
		table := &lua_ast.ETable{}
		for _, item := range e.Items {
			table.Fields = append(table.Fields, lua_ast.TableField{Value: ctx.lowerExpr(item)})
		}
		return table, true
	}
	size := ctx.lowerExpr(*e.Size)
	if fill := defaultValue(expr.Type.ElementType()); fill != nil {
		return libCall("table", "create", size, fill), true
	}
	return libCall("table", "create", size), true
}

// The value a variable of this type starts with, or nil when that is Luau's
// nil
func defaultValue(t *cs_ast.Type) lua_ast.Expr {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case cs_ast.TypeInt, cs_ast.TypeFloat, cs_ast.TypeEnum:
		return lua_ast.Num(0)
	case cs_ast.TypeBool:
		return lua_ast.Bool(false)
	case cs_ast.TypeChar:
		return lua_ast.Str("\x00")
	}
	return nil
}

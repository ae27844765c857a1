package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/runtime"
)

// A pattern compiles to a condition on the value being matched plus the
// variables it binds. The variables are assigned only after the whole
// condition held, so a failed match leaves them untouched.

type binding struct {
	name  string
	value lua_ast.Expr
}

type patternResult struct {
	// Nil when the pattern always matches
	cond     lua_ast.Expr
	bindings []binding
}

// "comparand" returns a fresh copy of the matched value on every call
func (ctx *Context) compilePattern(p cs_ast.Pattern, comparand func() lua_ast.Expr, t *cs_ast.Type) patternResult {
	switch d := p.Data.(type) {
	case *cs_ast.PDiscard:
		return patternResult{}

	case *cs_ast.PConstant:
		if _, ok := d.Value.Data.(*cs_ast.ENull); ok {
			return patternResult{cond: lua_ast.Bin(lua_ast.BinOpEq, comparand(), lua_ast.Nil())}
		}
		return patternResult{cond: lua_ast.Bin(lua_ast.BinOpEq, comparand(), ctx.lowerExpr(d.Value))}

	case *cs_ast.PRelational:
		op, ok := comparisonOps[d.Op]
		if !ok {
			ctx.internalError(p.Loc, "Unexpected relational operator")
		}
		return patternResult{cond: lua_ast.Bin(op, comparand(), ctx.lowerExpr(d.Value))}

	case *cs_ast.PType:
		return patternResult{cond: ctx.typeTest(comparand(), d.Type)}

	case *cs_ast.PDeclaration:
		var result patternResult
		if !isStaticallyKnown(t, d.Type) {
			result.cond = ctx.typeTest(comparand(), d.Type)
		}
		result.bindings = ctx.designationBindings(d.Designation, comparand, d.Type)
		return result

	case *cs_ast.PVar:
		return patternResult{bindings: ctx.designationBindings(d.Designation, comparand, t)}

	case *cs_ast.PParenthesized:
		return ctx.compilePattern(d.Value, comparand, t)

	case *cs_ast.PBinary:
		if d.Op != cs_ast.BinOpLogicalAnd && len(patternSymbols(p)) > 0 {
			ctx.unsupported(p.Loc, "Variables cannot be declared under \"or\"")
		}
		left := ctx.compilePattern(d.Left, comparand, t)
		right := ctx.compilePattern(d.Right, comparand, t)
		if d.Op == cs_ast.BinOpLogicalAnd {
			return patternResult{
				cond:     lua_ast.And(left.cond, right.cond),
				bindings: append(left.bindings, right.bindings...),
			}
		}
		if left.cond == nil || right.cond == nil {
			return patternResult{}
		}
		return patternResult{cond: lua_ast.Bin(lua_ast.BinOpOr, left.cond, right.cond)}

	case *cs_ast.PNot:
		if len(patternSymbols(d.Value)) > 0 {
			ctx.unsupported(p.Loc, "Variables cannot be declared under \"not\"")
		}
		inner := ctx.compilePattern(d.Value, comparand, t)
		if inner.cond == nil {
			return patternResult{cond: lua_ast.Bool(false)}
		}
		return patternResult{cond: lua_ast.Not(inner.cond)}

	case *cs_ast.PList:
		return ctx.compileListPattern(p, d, comparand, t)

	case *cs_ast.PRecursive:
		return ctx.compileRecursivePattern(p, d, comparand, t)

	case *cs_ast.PSlice:
		ctx.unsupported(p.Loc, "A slice pattern must be directly inside a list pattern")
	}
	ctx.internalError(p.Loc, "Unexpected pattern")
	return patternResult{}
}

// A declaration pattern of the value's own non-nullable value type always
// matches
func isStaticallyKnown(from *cs_ast.Type, to *cs_ast.Type) bool {
	if from == nil || to == nil || from.Kind != to.Kind || from.Name != to.Name {
		return false
	}
	switch from.Kind {
	case cs_ast.TypeInt, cs_ast.TypeFloat, cs_ast.TypeBool, cs_ast.TypeChar, cs_ast.TypeEnum, cs_ast.TypeStruct:
		return true
	}
	return false
}

// "[a, .., b]" checks the length, then matches head elements from the front
// and tail elements from the back. The slice itself is only materialized
// when it has a pattern of its own.
func (ctx *Context) compileListPattern(p cs_ast.Pattern, d *cs_ast.PList, comparand func() lua_ast.Expr, t *cs_ast.Type) patternResult {
	t = cs_ast.Underlying(t)
	if !t.IsArrayLike() {
		ctx.unsupported(p.Loc, "List patterns are only supported on arrays and lists")
	}
	elem := t.ElementType()

	slice := -1
	for i, item := range d.Items {
		if _, ok := item.Data.(*cs_ast.PSlice); ok {
			if slice != -1 {
				ctx.unsupported(item.Loc, "A list pattern can contain only one slice")
			}
			slice = i
		}
	}

	head, tail := len(d.Items), 0
	if slice != -1 {
		head, tail = slice, len(d.Items)-slice-1
	}
	length := func() lua_ast.Expr { return lua_ast.Un(lua_ast.UnOpLen, comparand()) }

	var result patternResult
	result.cond = lua_ast.Bin(lua_ast.BinOpNe, comparand(), lua_ast.Nil())
	if slice == -1 {
		result.cond = lua_ast.And(result.cond, lua_ast.Bin(lua_ast.BinOpEq, length(), lua_ast.Num(float64(head))))
	} else if head+tail > 0 {
		result.cond = lua_ast.And(result.cond, lua_ast.Bin(lua_ast.BinOpGe, length(), lua_ast.Num(float64(head+tail))))
	}

	match := func(item cs_ast.Pattern, element func() lua_ast.Expr, t *cs_ast.Type) {
		sub := ctx.compilePattern(item, element, t)
		result.cond = lua_ast.And(result.cond, sub.cond)
		result.bindings = append(result.bindings, sub.bindings...)
	}

	for i := 0; i < head; i++ {
		i := i
		match(d.Items[i], func() lua_ast.Expr { return lua_ast.Index(comparand(), lua_ast.Num(float64(i+1))) }, elem)
	}
	for j := 0; j < tail; j++ {
		fromEnd := tail - 1 - j
		match(d.Items[slice+1+j], func() lua_ast.Expr {
			if fromEnd == 0 {
				return lua_ast.Index(comparand(), length())
			}
			return lua_ast.Index(comparand(), lua_ast.Bin(lua_ast.BinOpSub, length(), lua_ast.Num(float64(fromEnd))))
		}, elem)
	}

	if slice != -1 {
		if s := d.Items[slice].Data.(*cs_ast.PSlice); s.Value != nil {
			rest := func() lua_ast.Expr {
				count := lua_ast.Expr(length())
				if head+tail > 0 {
					count = lua_ast.Bin(lua_ast.BinOpSub, count, lua_ast.Num(float64(head+tail)))
				}
				return ctx.callRuntime(runtime.Slice, comparand(), lua_ast.Num(float64(head+1)), count)
			}
			match(*s.Value, rest, cs_ast.ArrayOf(elem))
		}
	}

	if d.Designation != nil {
		result.bindings = append(result.bindings, ctx.designationBindings(*d.Designation, comparand, t)...)
	}
	return result
}

// "T(a, b) { P: p } x": an optional type test, then positional elements and
// properties
func (ctx *Context) compileRecursivePattern(p cs_ast.Pattern, d *cs_ast.PRecursive, comparand func() lua_ast.Expr, t *cs_ast.Type) patternResult {
	var result patternResult
	target := t
	if d.Type != nil {
		target = d.Type
		if !isStaticallyKnown(t, d.Type) {
			result.cond = ctx.typeTest(comparand(), d.Type)
		}
	} else if mayBeNil(t) {
		result.cond = lua_ast.Bin(lua_ast.BinOpNe, comparand(), lua_ast.Nil())
	}

	match := func(item cs_ast.Pattern, element func() lua_ast.Expr, t *cs_ast.Type) {
		sub := ctx.compilePattern(item, element, t)
		result.cond = lua_ast.And(result.cond, sub.cond)
		result.bindings = append(result.bindings, sub.bindings...)
	}

	if d.HasPositional {
		u := cs_ast.Underlying(target)
		names := elementNames(u)
		if names == nil || len(names) != len(d.Positional) {
			ctx.unsupported(p.Loc, "Positional patterns are only supported on tuples")
		}
		for i, item := range d.Positional {
			name := names[i]
			match(item, func() lua_ast.Expr { return lua_ast.Dot(comparand(), name) }, u.Args[i])
		}
	}

	for _, prop := range d.Properties {
		prop := prop
		var propType *cs_ast.Type
		if prop.Symbol != nil {
			propType = cs_ast.Substitute(prop.Symbol.Type, cs_ast.BindingsFor(cs_ast.Underlying(target)))
		}
		match(prop.Pattern, func() lua_ast.Expr { return ctx.readMemberOf(prop.Loc, comparand(), prop.Symbol, prop.Name) }, propType)
	}

	if d.Designation != nil {
		result.bindings = append(result.bindings, ctx.designationBindings(*d.Designation, comparand, target)...)
	}
	return result
}

// The field names of the elements of a tuple-like value
func elementNames(t *cs_ast.Type) []string {
	switch {
	case t.Is(cs_ast.TypeTuple):
		names := make([]string, len(t.Args))
		for i := range t.Args {
			names[i] = tupleItemName(i)
		}
		return names
	case t != nil && t.Name == "KeyValuePair" && len(t.Args) == 2:
		return []string{"Key", "Value"}
	}
	return nil
}

func mayBeNil(t *cs_ast.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case cs_ast.TypeInt, cs_ast.TypeFloat, cs_ast.TypeBool, cs_ast.TypeChar, cs_ast.TypeEnum, cs_ast.TypeStruct, cs_ast.TypeTuple:
		return false
	}
	return true
}

func (ctx *Context) designationBindings(d cs_ast.Designation, value func() lua_ast.Expr, t *cs_ast.Type) []binding {
	switch b := d.Data.(type) {
	case *cs_ast.BSingle:
		return []binding{{name: ctx.nameOf(b.Symbol), value: value()}}
	case *cs_ast.BDiscard:
		return nil
	case *cs_ast.BParenthesized:
		u := cs_ast.Underlying(t)
		names := elementNames(u)
		if names == nil || len(names) != len(b.Items) {
			ctx.unsupported(d.Loc, "Only tuples can be deconstructed")
		}
		var result []binding
		for i, item := range b.Items {
			name := names[i]
			result = append(result, ctx.designationBindings(item, func() lua_ast.Expr { return lua_ast.Dot(value(), name) }, u.Args[i])...)
		}
		return result
	}
	ctx.internalError(d.Loc, "Unexpected designation")
	return nil
}

// Declares the variables of a designation as locals initialized from "value"
func (ctx *Context) designationLocals(d cs_ast.Designation, value func() lua_ast.Expr, t *cs_ast.Type) []lua_ast.Stmt {
	bindings := ctx.designationBindings(d, value, t)
	if len(bindings) == 0 {
		return nil
	}
	local := &lua_ast.SLocal{}
	for _, b := range bindings {
		local.Names = append(local.Names, b.name)
		local.Values = append(local.Values, b.value)
	}
	return []lua_ast.Stmt{local}
}

////////////////////////////////////////////////////////////////////////////////
// Type tests

// A condition that is true when "value" is an instance of "t". Luau has no
// way to tell integers from floats, so both test as "number".
func (ctx *Context) typeTest(value lua_ast.Expr, t *cs_ast.Type) lua_ast.Expr {
	if descriptor := typeDescriptor(t); descriptor != "" {
		if _, ok := primitiveDescriptors[descriptor]; ok {
			return lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Call(lua_ast.Id("type"), value), lua_ast.Str(descriptor))
		}
		return ctx.callRuntime(runtime.Is, value, lua_ast.Str(descriptor))
	}
	return lua_ast.Bin(lua_ast.BinOpNe, value, lua_ast.Nil())
}

var primitiveDescriptors = map[string]struct{}{
	"number":   {},
	"string":   {},
	"boolean":  {},
	"table":    {},
	"function": {},
}

// "" when every non-nil value passes
func typeDescriptor(t *cs_ast.Type) string {
	t = cs_ast.Underlying(t)
	if t == nil {
		return ""
	}
	switch t.Kind {
	case cs_ast.TypeInt, cs_ast.TypeFloat, cs_ast.TypeEnum:
		return "number"
	case cs_ast.TypeString, cs_ast.TypeChar:
		return "string"
	case cs_ast.TypeBool:
		return "boolean"
	case cs_ast.TypeDelegate:
		return "function"
	case cs_ast.TypeArray, cs_ast.TypeTuple:
		return "table"
	case cs_ast.TypeClass, cs_ast.TypeStruct, cs_ast.TypeInterface:
		if t.Decl == nil || t.Decl.IsBuiltin {
			return "table"
		}
		return t.Decl.Name
	}
	return ""
}

////////////////////////////////////////////////////////////////////////////////
// "is"

type isResult struct {
	patternResult
}

// The statements assigning the bound variables, to run once the match is
// known to have succeeded
func (r isResult) assignments() []lua_ast.Stmt {
	var stmts []lua_ast.Stmt
	for _, b := range r.bindings {
		stmts = append(stmts, lua_ast.Assign(lua_ast.Id(b.name), b.value))
	}
	return stmts
}

func (r isResult) condOrTrue() lua_ast.Expr {
	if r.cond == nil {
		return lua_ast.Bool(true)
	}
	return r.cond
}

// Assignments for a pattern that cannot fail
func (r isResult) assignmentsAlways() []lua_ast.Stmt {
	if r.cond != nil {
		return nil
	}
	return r.assignments()
}

// Compiles "value is pattern". The bound variables are declared as locals
// ahead of the statement so they stay visible after it.
func (ctx *Context) compileIs(e *cs_ast.EIs) isResult {
	value := ctx.reusable(ctx.lowerExpr(e.Value), "_value")
	result := isResult{ctx.compilePattern(e.Pattern, value, e.Value.Type)}

	if len(result.bindings) > 0 {
		local := &lua_ast.SLocal{}
		for _, b := range result.bindings {
			local.Names = append(local.Names, b.name)
		}
		ctx.hoist(local)
	}
	return result
}

func lowerIs(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EIs)
	result := ctx.compileIs(e)
	if len(result.bindings) == 0 {
		return result.condOrTrue(), true
	}
	if result.cond == nil {
		ctx.hoist(result.assignments()...)
		return lua_ast.Bool(true), true
	}
	flag := ctx.temp("_is")
	ctx.hoist(
		lua_ast.Local(flag, result.cond),
		lua_ast.If(lua_ast.Id(flag), result.assignments(), nil),
	)
	return lua_ast.Id(flag), true
}

// Every variable a pattern declares
func patternSymbols(p cs_ast.Pattern) []*cs_ast.Symbol {
	switch d := p.Data.(type) {
	case *cs_ast.PDeclaration:
		return d.Designation.Symbols()
	case *cs_ast.PVar:
		return d.Designation.Symbols()
	case *cs_ast.PParenthesized:
		return patternSymbols(d.Value)
	case *cs_ast.PNot:
		return patternSymbols(d.Value)
	case *cs_ast.PBinary:
		return append(patternSymbols(d.Left), patternSymbols(d.Right)...)
	case *cs_ast.PSlice:
		if d.Value != nil {
			return patternSymbols(*d.Value)
		}
	case *cs_ast.PList:
		var result []*cs_ast.Symbol
		for _, item := range d.Items {
			result = append(result, patternSymbols(item)...)
		}
		if d.Designation != nil {
			result = append(result, d.Designation.Symbols()...)
		}
		return result
	case *cs_ast.PRecursive:
		var result []*cs_ast.Symbol
		for _, item := range d.Positional {
			result = append(result, patternSymbols(item)...)
		}
		for _, prop := range d.Properties {
			result = append(result, patternSymbols(prop.Pattern)...)
		}
		if d.Designation != nil {
			result = append(result, d.Designation.Symbols()...)
		}
		return result
	}
	return nil
}

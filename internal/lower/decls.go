package lower

import (
	"sort"
	"strconv"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Classes are metatables. Instances are created by "Type.new(...)", which
// sets the metatable and runs "Type.constructor(self, ...)". A derived class
// is a table whose metatable is its base class, so lookups fall through to
// inherited members:
//
//	Circle = setmetatable({}, Shape)
//	Circle.__index = Circle
//	Circle.__className = "Circle"
//
// Namespaces are not emitted. Every type becomes a local of the chunk.

const ctorSymbolName = ".ctor"

// Namespaces only group declarations. Their contents are emitted flat.
func flattenDecls(decls []cs_ast.Decl) []cs_ast.Decl {
	var result []cs_ast.Decl
	for _, decl := range decls {
		if ns, ok := decl.Data.(*cs_ast.DNamespace); ok {
			result = append(result, flattenDecls(ns.Decls)...)
		} else {
			result = append(result, decl)
		}
	}
	return result
}

// Declaration order, except that a base class always comes before the
// classes extending it
func emitOrder(decls []cs_ast.Decl) []cs_ast.Decl {
	classes := make(map[*cs_ast.Symbol]cs_ast.Decl)
	for _, decl := range decls {
		if class, ok := decl.Data.(*cs_ast.DClass); ok {
			classes[class.Symbol] = decl
		}
	}

	var result []cs_ast.Decl
	visited := make(map[cs_ast.D]bool)
	var visit func(decl cs_ast.Decl)
	visit = func(decl cs_ast.Decl) {
		if visited[decl.Data] {
			return
		}
		visited[decl.Data] = true
		if class, ok := decl.Data.(*cs_ast.DClass); ok && class.Symbol.Base != nil {
			if base, ok := classes[class.Symbol.Base]; ok {
				visit(base)
			}
		}
		result = append(result, decl)
	}
	for _, decl := range decls {
		visit(decl)
	}
	return result
}

// Declares every generated type and names every method up front, so a
// method can be called before the code of its class is emitted
func (ctx *Context) declareTypes(decls []cs_ast.Decl) {
	for _, decl := range decls {
		switch d := decl.Data.(type) {
		case *cs_ast.DClass:
			ctx.predeclare(ctx.typeName(d.Symbol))
		case *cs_ast.DEnum:
			ctx.predeclare(ctx.typeName(d.Symbol))
		case *cs_ast.DInterface:
			ctx.nameInterfaceMethods(decl.Loc, d.Symbol)
		}
	}
	for _, decl := range emitOrder(decls) {
		if class, ok := decl.Data.(*cs_ast.DClass); ok {
			ctx.nameClassMembers(class)
		}
	}
}

func (ctx *Context) typeName(symbol *cs_ast.Symbol) string {
	if symbol.IsBuiltin {
		return symbol.Name
	}
	return ctx.nameOf(symbol)
}

func (ctx *Context) methodName(symbol *cs_ast.Symbol) string {
	if symbol.IsBuiltin {
		return symbol.Name
	}
	name, ok := ctx.memberNames[symbol]
	if !ok {
		ctx.internalError(logger.Loc{}, "The method %q was never named", symbol.Name)
	}
	return name
}

func accessorName(prefix string, property *cs_ast.Symbol) string {
	return prefix + "_" + property.Name
}

func (ctx *Context) nameInterfaceMethods(loc logger.Loc, iface *cs_ast.Symbol) {
	names := make([]string, 0, len(iface.Members))
	for name := range iface.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for i, member := range iface.Members[name] {
			if member.Kind != cs_ast.SymbolMethod {
				continue
			}
			ctx.checkMethodName(loc, member)
			ctx.memberNames[member] = overloadName(member.Name, i+1)
		}
	}
}

func overloadName(name string, n int) string {
	if n == 1 {
		return name
	}
	return name + strconv.Itoa(n)
}

func (ctx *Context) checkMethodName(loc logger.Loc, method *cs_ast.Symbol) {
	if !lua_ast.IsIdentifier(method.Name) {
		ctx.unsupported(loc, "The method name %q is a Luau keyword", method.Name)
	}
}

// Overrides and interface implementations reuse the name they override.
// Other overloads are numbered in declaration order ("Add", "Add2", ...),
// skipping names the base classes already use.
func (ctx *Context) nameClassMembers(class *cs_ast.DClass) {
	taken := make(map[string]bool)
	for t := class.Symbol.Base; t != nil; t = t.Base {
		for _, members := range t.Members {
			for _, member := range members {
				if member.Kind == cs_ast.SymbolMethod {
					if name, ok := ctx.memberNames[member]; ok {
						taken[name] = true
					} else if member.IsBuiltin {
						taken[member.Name] = true
					}
				}
			}
		}
	}

	ctors := 0
	for _, member := range class.Members {
		switch m := member.Data.(type) {
		case *cs_ast.MConstructor:
			ctors++
			ctx.ctorNames[m.Symbol] = overloadName("", ctors)

		case *cs_ast.MMethod:
			ctx.checkMethodName(member.Loc, m.Symbol)
			if name, ok := ctx.overriddenName(class.Symbol, m.Symbol); ok {
				ctx.memberNames[m.Symbol] = name
				taken[name] = true
				continue
			}
			name := m.Symbol.Name
			for n := 2; taken[name]; n++ {
				name = overloadName(m.Symbol.Name, n)
			}
			ctx.memberNames[m.Symbol] = name
			taken[name] = true
		}
	}
}

func (ctx *Context) overriddenName(class *cs_ast.Symbol, method *cs_ast.Symbol) (string, bool) {
	for t := class.Base; t != nil; t = t.Base {
		for _, other := range t.Members[method.Name] {
			if other.Kind == cs_ast.SymbolMethod && other.IsStatic == method.IsStatic && sameParams(other, method) {
				if other.IsBuiltin {
					return other.Name, true
				}
				if name, ok := ctx.memberNames[other]; ok {
					return name, true
				}
			}
		}
	}
	for t := class; t != nil; t = t.Base {
		for _, iface := range t.Interfaces {
			for _, other := range iface.Members[method.Name] {
				if other.Kind == cs_ast.SymbolMethod && sameParams(other, method) {
					if name, ok := ctx.memberNames[other]; ok {
						return name, true
					}
					return other.Name, true
				}
			}
		}
	}
	return "", false
}

func sameParams(a *cs_ast.Symbol, b *cs_ast.Symbol) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type.String() != b.Params[i].Type.String() {
			return false
		}
	}
	return true
}

// The suffix of the base constructor a ": base(...)" call with "args"
// arguments runs. Overloads were already checked by the front end, so the
// arity is enough to pick one.
func (ctx *Context) baseCtorSuffix(base *cs_ast.Symbol, args int) string {
	var fallback *cs_ast.Symbol
	for _, ctor := range base.Members[ctorSymbolName] {
		if len(ctor.Params) == args {
			return ctx.ctorNames[ctor]
		}
		required := 0
		for _, param := range ctor.Params {
			if param.Default == nil {
				required++
			}
		}
		if fallback == nil && required <= args && args <= len(ctor.Params) {
			fallback = ctor
		}
	}
	if fallback != nil {
		return ctx.ctorNames[fallback]
	}
	return ""
}

////////////////////////////////////////////////////////////////////////////////
// Emission

func (ctx *Context) lowerDecl(decl cs_ast.Decl) []lua_ast.Stmt {
	switch d := decl.Data.(type) {
	case *cs_ast.DClass:
		return ctx.lowerClass(d)
	case *cs_ast.DEnum:
		return ctx.lowerEnum(d)
	case *cs_ast.DInterface:
		// Interfaces only exist as names in "__interfaces"
		return nil
	}
	ctx.internalError(decl.Loc, "Unexpected declaration")
	return nil
}

func (ctx *Context) lowerEnum(enum *cs_ast.DEnum) []lua_ast.Stmt {
	table := &lua_ast.ETable{}
	for _, value := range enum.Values {
		field := lua_ast.TableField{Value: ctx.lowerExpr(*value.Value)}
		if lua_ast.IsIdentifier(value.Symbol.Name) {
			field.Name = value.Symbol.Name
		} else {
			field.Key = lua_ast.Str(value.Symbol.Name)
		}
		table.Fields = append(table.Fields, field)
	}
	return []lua_ast.Stmt{lua_ast.Assign(lua_ast.Id(ctx.typeName(enum.Symbol)), table)}
}

// A user-declared base class. Library base classes have no table to inherit
// from.
func userBase(class *cs_ast.Symbol) *cs_ast.Symbol {
	if class.Base != nil && !class.Base.IsBuiltin {
		return class.Base
	}
	return nil
}

func (ctx *Context) lowerClass(class *cs_ast.DClass) []lua_ast.Stmt {
	symbol := class.Symbol
	name := ctx.typeName(symbol)
	self := func() lua_ast.Expr { return lua_ast.Id(name) }

	var init lua_ast.Expr = &lua_ast.ETable{}
	if base := userBase(symbol); base != nil {
		init = lua_ast.Call(lua_ast.Id("setmetatable"), &lua_ast.ETable{}, lua_ast.Id(ctx.typeName(base)))
	}
	stmts := []lua_ast.Stmt{
		lua_ast.Assign(self(), init),
		lua_ast.Assign(lua_ast.Dot(self(), "__index"), self()),
		lua_ast.Assign(lua_ast.Dot(self(), "__className"), lua_ast.Str(symbol.Name)),
	}
	if len(symbol.Interfaces) > 0 {
		names := &lua_ast.ETable{}
		for _, iface := range symbol.Interfaces {
			names.Fields = append(names.Fields, lua_ast.TableField{Value: lua_ast.Str(iface.Name)})
		}
		stmts = append(stmts, lua_ast.Assign(lua_ast.Dot(self(), "__interfaces"), names))
	}

	// Metamethods are looked up without "__index", so each class needs its
	// own "__tostring"
	if toString := userToString(symbol); toString != nil {
		call := lua_ast.MethodCall(lua_ast.Id("self"), ctx.methodName(toString))
		stmts = append(stmts, lua_ast.Assign(lua_ast.Dot(self(), "__tostring"), lua_ast.Func([]string{"self"}, lua_ast.Return(call))))
	}

	// Static state
	for _, member := range class.Members {
		switch m := member.Data.(type) {
		case *cs_ast.MField:
			if m.Symbol.IsStatic {
				stmts = append(stmts, ctx.lowerStorageInit(self(), m.Symbol, m.Init)...)
			}
		case *cs_ast.MProperty:
			if m.Symbol.IsStatic && m.Symbol.IsAutoProperty {
				stmts = append(stmts, ctx.lowerStorageInit(self(), m.Symbol, m.Init)...)
			}
		}
	}

	// Constructors. A class without one gets a parameterless constructor.
	hasCtor := false
	for _, member := range class.Members {
		if ctor, ok := member.Data.(*cs_ast.MConstructor); ok {
			hasCtor = true
			stmts = append(stmts, ctx.lowerConstructor(class, name, ctor)...)
		}
	}
	if !hasCtor {
		stmts = append(stmts, ctx.lowerConstructor(class, name, nil)...)
	}

	for _, member := range class.Members {
		switch m := member.Data.(type) {
		case *cs_ast.MMethod:
			fn := ctx.lowerFn(&m.Fn, m.Symbol, effectiveReturnType(m.Symbol))
			stmts = append(stmts, &lua_ast.SFunction{Path: []string{name, ctx.methodName(m.Symbol)}, IsMethod: !m.Symbol.IsStatic, Fn: fn})

		case *cs_ast.MProperty:
			if m.Getter != nil {
				fn := ctx.lowerFn(m.Getter, nil, m.Symbol.Type)
				stmts = append(stmts, &lua_ast.SFunction{Path: []string{name, accessorName("get", m.Symbol)}, IsMethod: !m.Symbol.IsStatic, Fn: fn})
			}
			if m.Setter != nil {
				fn := ctx.lowerFn(m.Setter, nil, nil)
				stmts = append(stmts, &lua_ast.SFunction{Path: []string{name, accessorName("set", m.Symbol)}, IsMethod: !m.Symbol.IsStatic, Fn: fn})
			}
		}
	}
	return stmts
}

// The user-declared parameterless "ToString" visible on a class, if any
func userToString(class *cs_ast.Symbol) *cs_ast.Symbol {
	for _, member := range class.LookupMember("ToString") {
		if member.Kind == cs_ast.SymbolMethod && !member.IsBuiltin && !member.IsStatic && len(member.Params) == 0 {
			return member
		}
	}
	return nil
}

// Async methods returning "Task<T>" return a "T"
func effectiveReturnType(symbol *cs_ast.Symbol) *cs_ast.Type {
	if symbol.IsAsync && symbol.Type.IsBuiltinNamed("Task") {
		if len(symbol.Type.Args) == 1 {
			return symbol.Type.Args[0]
		}
		return cs_ast.VoidType
	}
	return symbol.Type
}

// Assigns the initial value of a field or auto-property. Nothing is emitted
// when the default value is nil anyway.
func (ctx *Context) lowerStorageInit(target lua_ast.Expr, symbol *cs_ast.Symbol, init *cs_ast.Expr) []lua_ast.Stmt {
	var value lua_ast.Expr
	var prereqs []lua_ast.Stmt
	if init != nil {
		value, prereqs = ctx.captureExpr(*init)
	} else {
		value = defaultValue(symbol.Type)
	}
	if value == nil {
		return nil
	}
	return append(prereqs, lua_ast.Assign(memberAccess(target, symbol.Name), value))
}

// Emits "Type.new<N>" and "Type.constructor<N>" for one constructor, or for
// the implicit one when "ctor" is nil. The constructor runs field
// initializers first, then the base constructor, then its own body.
func (ctx *Context) lowerConstructor(class *cs_ast.DClass, name string, ctor *cs_ast.MConstructor) []lua_ast.Stmt {
	suffix := ""
	fn := &cs_ast.Fn{}
	if ctor != nil {
		suffix = ctx.ctorNames[ctor.Symbol]
		fn = &ctor.Fn
		for _, arg := range fn.Args {
			if arg.Symbol.RefKind == cs_ast.RefRef || arg.Symbol.RefKind == cs_ast.RefOut {
				ctx.unsupported(arg.Loc, "Constructors cannot take by-reference parameters")
			}
		}
	}

	var symbol *cs_ast.Symbol
	if ctor != nil {
		symbol = ctor.Symbol
	}
	out := ctx.lowerFnWith(fn, symbol, nil, func() []lua_ast.Stmt {
		var stmts []lua_ast.Stmt
		for _, member := range class.Members {
			switch m := member.Data.(type) {
			case *cs_ast.MField:
				if !m.Symbol.IsStatic {
					stmts = append(stmts, ctx.lowerStorageInit(lua_ast.Id("self"), m.Symbol, m.Init)...)
				}
			case *cs_ast.MProperty:
				if !m.Symbol.IsStatic && m.Symbol.IsAutoProperty {
					stmts = append(stmts, ctx.lowerStorageInit(lua_ast.Id("self"), m.Symbol, m.Init)...)
				}
			}
		}
		var baseCall []lua_ast.Stmt
		prereqs := ctx.capture(func() { baseCall = ctx.lowerBaseCall(class.Symbol, ctor) })
		return append(append(stmts, prereqs...), baseCall...)
	})
	ctorFn := &lua_ast.SFunction{Path: []string{name, "constructor" + suffix}, IsMethod: true, Fn: out}

	// The factory forwards its arguments unchanged
	factory := &lua_ast.Fn{}
	args := []lua_ast.Expr{lua_ast.Id("self")}
	for _, param := range out.Params {
		copied := lua_ast.Param{Name: param.Name}
		if param.Type != nil {
			copied.Type = lua_ast.CloneType(param.Type)
		}
		factory.Params = append(factory.Params, copied)
		args = append(args, lua_ast.Id(param.Name))
	}
	if ctx.options.EmitTypes {
		factory.ReturnTypes = []lua_ast.Type{&lua_ast.TName{Name: "any"}}
	}
	factory.Body = lua_ast.NewBlock(
		lua_ast.Local("self", lua_ast.Call(lua_ast.Id("setmetatable"), &lua_ast.ETable{}, lua_ast.Id(name))),
		lua_ast.CallStmt(lua_ast.Call(lua_ast.Dot(lua_ast.Id(name), "constructor"+suffix), args...)),
		lua_ast.Return(lua_ast.Id("self")),
	)
	newFn := &lua_ast.SFunction{Path: []string{name, "new" + suffix}, Fn: factory}

	return []lua_ast.Stmt{newFn, ctorFn}
}

func (ctx *Context) lowerBaseCall(class *cs_ast.Symbol, ctor *cs_ast.MConstructor) []lua_ast.Stmt {
	var baseArgs []cs_ast.Arg
	if ctor != nil && ctor.HasBase {
		baseArgs = ctor.BaseArgs
	}

	if base := userBase(class); base != nil {
		args := []lua_ast.Expr{lua_ast.Id("self")}
		for _, arg := range baseArgs {
			args = append(args, ctx.lowerExpr(arg.Value))
		}
		target := lua_ast.Dot(lua_ast.Id(ctx.typeName(base)), "constructor"+ctx.baseCtorSuffix(base, len(baseArgs)))
		return []lua_ast.Stmt{lua_ast.CallStmt(lua_ast.Call(target, args...))}
	}

	// Library exceptions only carry a message
	if class.Base != nil && len(baseArgs) == 1 && isExceptionType(class.Base) {
		return []lua_ast.Stmt{lua_ast.Assign(lua_ast.Dot(lua_ast.Id("self"), "Message"), ctx.lowerExpr(baseArgs[0].Value))}
	}
	if len(baseArgs) > 0 {
		ctx.unsupported(baseArgs[0].Loc, "Cannot call the constructor of %q", class.Base.Name)
	}
	return nil
}

func isExceptionType(symbol *cs_ast.Symbol) bool {
	for t := symbol; t != nil; t = t.Base {
		if t.IsBuiltin && t.Name == "Exception" {
			return true
		}
	}
	return false
}

func memberAccess(target lua_ast.Expr, name string) lua_ast.Expr {
	if lua_ast.IsIdentifier(name) {
		return lua_ast.Dot(target, name)
	}
	return lua_ast.Index(target, lua_ast.Str(name))
}

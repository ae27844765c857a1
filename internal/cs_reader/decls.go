package cs_reader

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/sexpr"
)

const ctorName = ".ctor"

func (r *reader) declareTypes(form *sexpr.Node) {
	head := form.Head()
	args := r.expectArgs(form, 1, -1)

	if head == "namespace" {
		r.expectSymbol(args[0], "a namespace name")
		for _, item := range args[1:] {
			if !isDeclForm(item.Head()) {
				r.fail(item.Loc, "Expected a declaration inside namespace")
			}
			r.declareTypes(item)
		}
		return
	}

	name := r.expectSymbol(args[0], "a type name")
	if !isValidName(name) {
		r.fail(args[0].Loc, "Invalid type name %q", name)
	}
	if existing, ok := r.types[name]; ok && !existing.IsBuiltin {
		r.fail(args[0].Loc, "The type %q is declared more than once", name)
	}

	kind := cs_ast.TypeClass
	switch head {
	case "struct":
		kind = cs_ast.TypeStruct
	case "interface":
		kind = cs_ast.TypeInterface
	case "enum":
		kind = cs_ast.TypeEnum
	}

	symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolType, Name: name, IsBuiltin: r.isBuiltin, Members: make(map[string][]*cs_ast.Symbol)}
	symbol.Type = &cs_ast.Type{Kind: kind, Name: name, Decl: symbol}
	r.types[name] = symbol

	// Type parameters are needed before any base list or member signature
	// mentions the type
	for i, item := range args[1:] {
		if item.IsKeyword("params") && i+2 < len(args) {
			symbol.TypeParams = r.readTypeParams(args[i+2])
		}
	}
}

func (r *reader) readDecl(form *sexpr.Node) cs_ast.Decl {
	args := form.Args()
	loc := form.Loc

	switch form.Head() {
	case "namespace":
		namespace := &cs_ast.DNamespace{Name: args[0].Text}
		for _, item := range args[1:] {
			namespace.Decls = append(namespace.Decls, r.readDecl(item))
		}
		return cs_ast.Decl{Loc: loc, Data: namespace}

	case "enum":
		return cs_ast.Decl{Loc: loc, Data: r.readEnum(r.types[args[0].Text], args[1:])}

	case "interface":
		symbol := r.types[args[0].Text]
		r.readTypeBody(symbol, args[1:], cs_ast.ClassKindClass)
		return cs_ast.Decl{Loc: loc, Data: &cs_ast.DInterface{Symbol: symbol}}

	default:
		symbol := r.types[args[0].Text]
		kind := cs_ast.ClassKindClass
		if form.Head() == "struct" {
			kind = cs_ast.ClassKindStruct
		}
		class := r.readTypeBody(symbol, args[1:], kind)
		return cs_ast.Decl{Loc: loc, Data: class}
	}
}

func (r *reader) readEnum(symbol *cs_ast.Symbol, items []*sexpr.Node) *cs_ast.DEnum {
	enum := &cs_ast.DEnum{Symbol: symbol}
	next := 0.0
	for _, item := range items {
		var name string
		var value cs_ast.Expr
		switch item.Kind {
		case sexpr.KSymbol:
			name = item.Text
			value = cs_ast.Expr{Loc: item.Loc, Data: &cs_ast.ENumber{Value: next}, Type: cs_ast.IntType}
		case sexpr.KList:
			parts := item.Items
			if len(parts) != 2 {
				r.fail(item.Loc, "Expected an enum value like \"(Name 1)\"")
			}
			name = r.expectSymbol(parts[0], "an enum value name")
			value = r.expr(parts[1], cs_ast.IntType)
			number, ok := value.Data.(*cs_ast.ENumber)
			if !ok {
				r.fail(parts[1].Loc, "Enum values must be numeric constants")
			}
			next = number.Value
		default:
			r.fail(item.Loc, "Expected an enum value name")
		}
		if len(symbol.Members[name]) > 0 {
			r.fail(item.Loc, "The enum value %q is declared more than once", name)
		}
		member := &cs_ast.Symbol{Kind: cs_ast.SymbolEnumMember, Name: name, IsStatic: true, Type: symbol.Type}
		symbol.AddMember(member)
		enum.Values = append(enum.Values, cs_ast.EnumValue{Loc: item.Loc, Symbol: member, Value: &value})
		next++
	}
	return enum
}

func (r *reader) withTypeParams(names []string, callback func()) {
	if len(names) == 0 {
		callback()
		return
	}
	old := r.typeParams
	r.typeParams = make(map[string]*cs_ast.Type)
	for name, t := range old {
		r.typeParams[name] = t
	}
	for _, name := range names {
		r.typeParams[name] = &cs_ast.Type{Kind: cs_ast.TypeParameter, Name: name}
	}
	callback()
	r.typeParams = old
}

func (r *reader) readTypeParams(node *sexpr.Node) []string {
	if node == nil {
		return nil
	}
	var names []string
	for _, item := range r.expectList(node, "a list of type parameters") {
		names = append(names, r.expectSymbol(item, "a type parameter name"))
	}
	return names
}

func (r *reader) readTypeBody(symbol *cs_ast.Symbol, items []*sexpr.Node, kind cs_ast.ClassKind) *cs_ast.DClass {
	opts := r.parseOptions(items, []string{"static"}, []string{"params"})
	class := &cs_ast.DClass{Symbol: symbol, Kind: kind}

	oldClass := r.class
	r.class = symbol
	r.withTypeParams(symbol.TypeParams, func() {
		for _, item := range opts.rest {
			switch item.Head() {
			case "extends":
				args := r.expectArgs(item, 1, 1)
				base := r.readType(args[0])
				if base.Decl == nil || base.Kind != cs_ast.TypeClass {
					r.fail(args[0].Loc, "Cannot extend %q", base.String())
				}
				if base.Decl.DerivesFrom(symbol) {
					r.fail(args[0].Loc, "Circular base type %q", base.String())
				}
				symbol.Base = base.Decl

			case "implements":
				for _, arg := range r.expectArgs(item, 1, -1) {
					iface := r.readType(arg)
					if iface.Decl == nil || iface.Kind != cs_ast.TypeInterface {
						r.fail(arg.Loc, "%q is not an interface", iface.String())
					}
					symbol.Interfaces = append(symbol.Interfaces, iface.Decl)
				}

			default:
				if member, ok := r.readMember(symbol, item); ok {
					class.Members = append(class.Members, member)
				}
			}
		}
	})
	r.class = oldClass
	return class
}

func (r *reader) readMember(class *cs_ast.Symbol, form *sexpr.Node) (cs_ast.Member, bool) {
	loc := form.Loc
	isInterface := class.Type.Kind == cs_ast.TypeInterface
	isBuiltin := class.IsBuiltin

	switch form.Head() {
	case "field":
		args := r.expectArgs(form, 2, -1)
		opts := r.parseOptions(args[2:], []string{"static"}, []string{"init"})
		symbol := &cs_ast.Symbol{
			Kind:      cs_ast.SymbolField,
			Name:      r.memberName(class, args[0]),
			Type:      r.readType(args[1]),
			IsStatic:  opts.flags["static"],
			IsBuiltin: isBuiltin,
		}
		r.expectNoRest(opts)
		class.AddMember(symbol)
		field := &cs_ast.MField{Symbol: symbol}
		if init := opts.values["init"]; init != nil {
			r.later(class, symbol.IsStatic, func() {
				value := r.expr(init, symbol.Type)
				field.Init = &value
			})
		}
		return cs_ast.Member{Loc: loc, Data: field}, true

	case "property":
		args := r.expectArgs(form, 2, -1)
		opts := r.parseOptions(args[2:], []string{"static"}, []string{"init", "get", "set"})
		r.expectNoRest(opts)
		getter, setter := opts.values["get"], opts.values["set"]
		symbol := &cs_ast.Symbol{
			Kind:           cs_ast.SymbolProperty,
			Name:           r.memberName(class, args[0]),
			Type:           r.readType(args[1]),
			IsStatic:       opts.flags["static"],
			IsBuiltin:      isBuiltin,
			IsAutoProperty: getter == nil && setter == nil,
		}
		class.AddMember(symbol)
		property := &cs_ast.MProperty{Symbol: symbol}
		if init := opts.values["init"]; init != nil {
			r.later(class, symbol.IsStatic, func() {
				value := r.expr(init, symbol.Type)
				property.Init = &value
			})
		}
		if getter != nil {
			property.Getter = &cs_ast.Fn{Loc: getter.Loc}
			r.later(class, symbol.IsStatic, func() {
				r.readFnBody(property.Getter, nil, symbol.Type, getter)
			})
		}
		if setter != nil {
			value := &cs_ast.Symbol{Kind: cs_ast.SymbolParameter, Name: "value", Type: symbol.Type}
			property.Setter = &cs_ast.Fn{Loc: setter.Loc, Args: []cs_ast.FnArg{{Loc: setter.Loc, Symbol: value}}}
			r.later(class, symbol.IsStatic, func() {
				r.readFnBody(property.Setter, nil, cs_ast.VoidType, setter)
			})
		}
		return cs_ast.Member{Loc: loc, Data: property}, true

	case "event":
		args := r.expectArgs(form, 2, -1)
		opts := r.parseOptions(args[2:], []string{"static"}, nil)
		r.expectNoRest(opts)
		eventType := r.readType(args[1])
		if eventType.Kind != cs_ast.TypeDelegate {
			r.fail(args[1].Loc, "Events must have a delegate type, not %q", eventType.String())
		}
		symbol := &cs_ast.Symbol{
			Kind:      cs_ast.SymbolEvent,
			Name:      r.memberName(class, args[0]),
			Type:      eventType,
			IsStatic:  opts.flags["static"],
			IsBuiltin: isBuiltin,
		}
		class.AddMember(symbol)
		return cs_ast.Member{Loc: loc, Data: &cs_ast.MEvent{Symbol: symbol}}, true

	case "method":
		args := r.expectArgs(form, 3, -1)
		name := r.expectSymbol(args[0], "a method name")
		opts := r.parseOptions(args[3:], []string{"static", "async", "extension"}, []string{"params"})
		symbol := &cs_ast.Symbol{
			Kind:        cs_ast.SymbolMethod,
			Name:        name,
			IsStatic:    opts.flags["static"] || opts.flags["extension"],
			IsAsync:     opts.flags["async"],
			IsExtension: opts.flags["extension"],
			IsBuiltin:   isBuiltin,
			TypeParams:  r.readTypeParams(opts.values["params"]),
		}
		method := &cs_ast.MMethod{Symbol: symbol, Fn: cs_ast.Fn{Loc: loc}}
		r.withTypeParams(symbol.TypeParams, func() {
			r.readParams(symbol, &method.Fn, args[1])
			symbol.Type = r.readType(args[2])
		})
		r.checkOverload(class, symbol, args[0].Loc)
		class.AddMember(symbol)

		body := opts.rest
		if isInterface || isBuiltin {
			if len(body) > 0 {
				r.fail(body[0].Loc, "Methods of %q cannot have a body", class.Name)
			}
			return cs_ast.Member{Loc: loc, Data: method}, !isInterface
		}
		r.later(class, symbol.IsStatic, func() {
			r.withTypeParams(symbol.TypeParams, func() {
				r.readMethodBody(symbol, &method.Fn, body)
			})
		})
		return cs_ast.Member{Loc: loc, Data: method}, true

	case "ctor":
		args := r.expectArgs(form, 1, -1)
		opts := r.parseOptions(args[1:], nil, []string{"base"})
		symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolConstructor, Name: ctorName, Type: cs_ast.VoidType, IsBuiltin: isBuiltin}
		ctor := &cs_ast.MConstructor{Symbol: symbol, Fn: cs_ast.Fn{Loc: loc}}
		r.readParams(symbol, &ctor.Fn, args[0])
		r.checkOverload(class, symbol, args[0].Loc)
		class.AddMember(symbol)
		if isBuiltin {
			return cs_ast.Member{}, false
		}
		baseArgs := opts.values["base"]
		body := opts.rest
		r.later(class, false, func() {
			r.pushScope()
			for _, arg := range ctor.Fn.Args {
				r.declare(arg.Loc, arg.Symbol)
			}
			if baseArgs != nil {
				if class.Base == nil {
					r.fail(baseArgs.Loc, "%q has no base type", class.Name)
				}
				ctor.BaseArgs = r.readArgs(r.expectList(baseArgs, "a list of base constructor arguments"))
				ctor.HasBase = true
			}
			r.fn = &fnInfo{symbol: symbol, returnType: cs_ast.VoidType}
			ctor.Fn.Body = r.readStmts(body)
			r.fn = nil
			r.popScope()
		})
		return cs_ast.Member{Loc: loc, Data: ctor}, true
	}

	r.failUnknown(form.Loc, "member kind", form.Head(), []string{"field", "property", "event", "method", "ctor"})
	return cs_ast.Member{}, false
}

func (r *reader) expectNoRest(opts options) {
	if len(opts.rest) > 0 {
		r.fail(opts.rest[0].Loc, "Unexpected %s", opts.rest[0].Kind)
	}
}

// Fields, properties and events cannot share a name with another member
func (r *reader) memberName(class *cs_ast.Symbol, node *sexpr.Node) string {
	name := r.expectSymbol(node, "a member name")
	if !isValidName(name) {
		r.fail(node.Loc, "Invalid member name %q", name)
	}
	if len(class.Members[name]) > 0 {
		r.fail(node.Loc, "%q already has a member named %q", class.Name, name)
	}
	return name
}

func (r *reader) checkOverload(class *cs_ast.Symbol, symbol *cs_ast.Symbol, loc logger.Loc) {
	for _, other := range class.Members[symbol.Name] {
		if other.Kind != cs_ast.SymbolMethod && other.Kind != cs_ast.SymbolConstructor {
			r.fail(loc, "%q already has a member named %q", class.Name, symbol.Name)
		}
		if len(other.Params) == len(symbol.Params) && sameParamTypes(other.Params, symbol.Params) {
			r.fail(loc, "%q already declares %q with the same parameter types", class.Name, symbol.Name)
		}
	}
}

func sameParamTypes(a []cs_ast.Param, b []cs_ast.Param) bool {
	for i := range a {
		if a[i].Type.String() != b[i].Type.String() {
			return false
		}
	}
	return true
}

func (r *reader) later(class *cs_ast.Symbol, isStatic bool, body func()) {
	typeParams := r.typeParams
	r.pendingBodies = append(r.pendingBodies, func() {
		oldClass, oldStatic, oldParams := r.class, r.isStatic, r.typeParams
		r.class, r.isStatic, r.typeParams = class, isStatic, typeParams
		r.pushScope()
		body()
		r.popScope()
		r.class, r.isStatic, r.typeParams = oldClass, oldStatic, oldParams
	})
}

func (r *reader) readParams(symbol *cs_ast.Symbol, fn *cs_ast.Fn, node *sexpr.Node) {
	seenDefault := false
	for _, item := range r.expectList(node, "a parameter list") {
		parts := r.expectList(item, "a parameter like \"(name Type)\"")
		if len(parts) < 2 {
			r.fail(item.Loc, "Expected a parameter like \"(name Type)\"")
		}
		name := r.expectSymbol(parts[0], "a parameter name")
		opts := r.parseOptions(parts[2:], []string{"ref", "out", "in"}, []string{"default"})
		r.expectNoRest(opts)

		param := cs_ast.Param{Name: name, Type: r.readType(parts[1])}
		switch {
		case opts.flags["ref"]:
			param.RefKind = cs_ast.RefRef
		case opts.flags["out"]:
			param.RefKind = cs_ast.RefOut
		case opts.flags["in"]:
			param.RefKind = cs_ast.RefIn
		}
		if value := opts.values["default"]; value != nil {
			if param.RefKind != cs_ast.RefNone {
				r.fail(value.Loc, "By-reference parameters cannot have a default value")
			}
			defaultValue := r.expr(value, param.Type)
			param.Default = &defaultValue
			seenDefault = true
		} else if seenDefault {
			r.fail(item.Loc, "Parameter %q must have a default value because an earlier parameter has one", name)
		}

		for _, other := range symbol.Params {
			if other.Name == name {
				r.fail(parts[0].Loc, "Duplicate parameter %q", name)
			}
		}
		symbol.Params = append(symbol.Params, param)
		fn.Args = append(fn.Args, cs_ast.FnArg{
			Loc:    item.Loc,
			Symbol: &cs_ast.Symbol{Kind: cs_ast.SymbolParameter, Name: name, Type: param.Type, RefKind: param.RefKind},
		})
	}
}

func (r *reader) readMethodBody(symbol *cs_ast.Symbol, fn *cs_ast.Fn, body []*sexpr.Node) {
	r.pushScope()
	for _, arg := range fn.Args {
		r.declare(arg.Loc, arg.Symbol)
	}
	info := &fnInfo{symbol: symbol, returnType: symbol.Type}
	if isYieldingType(symbol.Type) && containsYieldForm(body) {
		symbol.IsIterator = true
		info.yieldType = symbol.Type.ElementType()
		if info.yieldType == nil {
			info.yieldType = cs_ast.ObjectType
		}
	}
	if symbol.IsAsync && symbol.Type.IsBuiltinNamed("Task") {
		if len(symbol.Type.Args) == 1 {
			info.returnType = symbol.Type.Args[0]
		} else {
			info.returnType = cs_ast.VoidType
		}
	}
	oldFn := r.fn
	r.fn = info
	fn.Body = r.readStmts(body)
	r.fn = oldFn
	r.popScope()
}

// Accessors, with either a "(block ...)" body or an expression body
func (r *reader) readFnBody(fn *cs_ast.Fn, symbol *cs_ast.Symbol, returnType *cs_ast.Type, node *sexpr.Node) {
	r.pushScope()
	for _, arg := range fn.Args {
		r.declare(arg.Loc, arg.Symbol)
	}
	oldFn := r.fn
	r.fn = &fnInfo{symbol: symbol, returnType: returnType}
	if node.Head() == "block" {
		fn.Body = r.readStmts(node.Args())
	} else {
		fn.Body = []cs_ast.Stmt{r.exprBodyStmt(node, returnType)}
		fn.IsExprBody = true
	}
	r.fn = oldFn
	r.popScope()
}

func (r *reader) exprBodyStmt(node *sexpr.Node, returnType *cs_ast.Type) cs_ast.Stmt {
	if returnType.Kind == cs_ast.TypeVoid {
		return cs_ast.Stmt{Loc: node.Loc, Data: &cs_ast.SExpr{Value: r.expr(node, nil)}}
	}
	value := r.expr(node, returnType)
	return cs_ast.Stmt{Loc: node.Loc, Data: &cs_ast.SReturn{Value: &value}}
}

func isYieldingType(t *cs_ast.Type) bool {
	return t.IsBuiltinNamed("IEnumerable") || t.IsBuiltinNamed("IEnumerator")
}

func containsYieldForm(nodes []*sexpr.Node) bool {
	for _, node := range nodes {
		switch node.Head() {
		case "yield", "yield-break":
			return true
		case "lambda", "local-func":
			continue
		}
		if node.Kind == sexpr.KList && containsYieldForm(node.Items) {
			return true
		}
	}
	return false
}

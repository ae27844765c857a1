package cs_reader

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/sexpr"
)

// Reads arguments that have no parameter list to check against
func (r *reader) readArgs(nodes []*sexpr.Node) []cs_ast.Arg {
	args := make([]cs_ast.Arg, len(nodes))
	for i, node := range nodes {
		args[i] = r.readArg(node, nil)
	}
	return args
}

func (r *reader) readArg(node *sexpr.Node, expected *cs_ast.Type) cs_ast.Arg {
	switch node.Head() {
	case "ref", "out", "in":
		parts := r.expectArgs(node, 1, 1)
		value := r.expr(parts[0], expected)
		r.expectAssignable(parts[0].Loc, value)
		kind := cs_ast.RefRef
		if node.Head() == "out" {
			kind = cs_ast.RefOut
		} else if node.Head() == "in" {
			kind = cs_ast.RefIn
		}
		return cs_ast.Arg{Loc: node.Loc, Value: value, RefKind: kind}
	}
	return cs_ast.Arg{Loc: node.Loc, Value: r.expr(node, expected)}
}

// Lambdas are read after overload resolution so that their parameters can
// take their types from the chosen overload
func isLambdaForm(node *sexpr.Node) bool {
	return node.Head() == "lambda"
}

func lambdaArity(node *sexpr.Node) int {
	args := node.Args()
	if len(args) == 0 || args[0].Kind != sexpr.KList {
		return -1
	}
	return len(args[0].Items)
}

func (r *reader) call(node *sexpr.Node) cs_ast.Expr {
	loc := node.Loc
	items := r.expectArgs(node, 1, -1)
	calleeNode, argNodes := items[0], items[1:]

	// Find what is being called
	var target cs_ast.Expr
	var candidates []*cs_ast.Symbol
	switch {
	case calleeNode.Kind == sexpr.KSymbol && r.lookupLocal(calleeNode.Text) == nil && r.class != nil && !isDotted(calleeNode.Text):
		members := r.class.LookupMember(calleeNode.Text)
		if len(members) > 0 && members[0].Kind == cs_ast.SymbolMethod {
			target = r.implicitTarget(calleeNode.Loc, members[0])
			candidates = members
			break
		}
		target = r.expr(calleeNode, nil)

	case calleeNode.Head() == "." || calleeNode.Head() == "?." || (calleeNode.Kind == sexpr.KSymbol && isDotted(calleeNode.Text)):
		var receiver cs_ast.Expr
		var nameNode *sexpr.Node
		isOptional := calleeNode.Head() == "?."
		if calleeNode.Kind == sexpr.KSymbol {
			i := lastDot(calleeNode.Text)
			receiver = r.name(&sexpr.Node{Kind: sexpr.KSymbol, Loc: calleeNode.Loc, Text: calleeNode.Text[:i]})
			nameNode = &sexpr.Node{Kind: sexpr.KSymbol, Loc: logger.Loc{Start: calleeNode.Loc.Start + int32(i) + 1}, Text: calleeNode.Text[i+1:]}
		} else {
			parts := r.expectArgs(calleeNode, 2, 2)
			receiver = r.expr(parts[0], nil)
			nameNode = parts[1]
		}
		name := r.expectSymbol(nameNode, "a member name")
		members := r.lookupMembers(receiver, name)
		if len(members) == 0 {
			r.failUnknownMember(nameNode.Loc, receiver, name)
		}
		if members[0].Kind == cs_ast.SymbolMethod {
			return r.methodCall(loc, receiver, name, members, argNodes, isOptional)
		}
		target = r.memberOf(calleeNode.Loc, receiver, name, members, isOptional)

	default:
		target = r.expr(calleeNode, nil)
	}

	if candidates != nil {
		return r.methodCall(loc, target, calleeNode.Text, candidates, argNodes, false)
	}

	// Delegates, local functions and events
	if id, ok := target.Data.(*cs_ast.EIdentifier); ok && id.Symbol.Kind == cs_ast.SymbolLocalFunction {
		return r.methodCall(loc, target, id.Symbol.Name, []*cs_ast.Symbol{id.Symbol}, argNodes, false)
	}
	if !target.Type.Is(cs_ast.TypeDelegate) {
		r.fail(calleeNode.Loc, "Cannot call a value of type %q", target.Type.String())
	}
	params, result := delegateSignature(target.Type)
	if len(params) != len(argNodes) {
		r.fail(loc, "Expected %d arguments but got %d", len(params), len(argNodes))
	}
	args := make([]cs_ast.Arg, len(argNodes))
	for i, argNode := range argNodes {
		args[i] = r.readArg(argNode, params[i])
	}
	return cs_ast.Expr{Loc: loc, Data: &cs_ast.ECall{Target: target, Args: args}, Type: result}
}

func isDotted(text string) bool {
	i := lastDot(text)
	return i > 0 && i < len(text)-1
}

func lastDot(text string) int {
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '.' {
			return i
		}
	}
	return -1
}

type overload struct {
	symbol *cs_ast.Symbol
	exact  int
}

func (r *reader) methodCall(loc logger.Loc, receiver cs_ast.Expr, name string, candidates []*cs_ast.Symbol, argNodes []*sexpr.Node, isOptional bool) cs_ast.Expr {
	// Everything but lambdas can be read up front
	preread := make([]*cs_ast.Arg, len(argNodes))
	for i, argNode := range argNodes {
		if !isLambdaForm(argNode) {
			arg := r.readArg(argNode, nil)
			preread[i] = &arg
		}
	}

	var best *overload
	for _, candidate := range candidates {
		if o, ok := r.matchOverload(candidate, receiver, preread, argNodes); ok && (best == nil || o.exact > best.exact) {
			o := o
			best = &o
		}
	}
	if best == nil {
		r.fail(loc, "No overload of %q takes these %d arguments", name, len(argNodes))
	}
	symbol := best.symbol

	bindings := r.callBindings(symbol, receiver)
	args := make([]cs_ast.Arg, len(argNodes))
	for i, argNode := range argNodes {
		param := symbol.Params[i]
		if preread[i] != nil {
			args[i] = *preread[i]
			if args[i].RefKind != param.RefKind && param.RefKind != cs_ast.RefIn {
				r.fail(argNode.Loc, "Argument %d of %q must be passed with %q", i+1, name, refKeyword(param.RefKind))
			}
			continue
		}
		expected := cs_ast.Substitute(param.Type, bindings)
		args[i] = r.readArg(argNode, expected)
		r.inferFromLambda(param.Type, args[i].Value.Type, bindings)
	}

	e := &cs_ast.ECall{Args: args, Symbol: symbol}
	if symbol.Kind == cs_ast.SymbolLocalFunction {
		e.Target = receiver
	} else {
		e.Target = cs_ast.Expr{Loc: receiver.Loc, Data: &cs_ast.EMember{Target: receiver, Name: name, Symbol: symbol, IsOptional: isOptional}, Type: methodGroupType(symbol, bindings)}
	}
	return cs_ast.Expr{Loc: loc, Data: e, Type: cs_ast.Substitute(symbol.Type, bindings)}
}

func refKeyword(kind cs_ast.RefKind) string {
	switch kind {
	case cs_ast.RefRef:
		return "ref"
	case cs_ast.RefOut:
		return "out"
	case cs_ast.RefIn:
		return "in"
	}
	return "no modifier"
}

// Type parameter bindings known before any lambda is read: the receiver's
// type arguments, or for extension methods its element type
func (r *reader) callBindings(symbol *cs_ast.Symbol, receiver cs_ast.Expr) map[string]*cs_ast.Type {
	bindings := make(map[string]*cs_ast.Type)
	if symbol.IsExtension {
		if elem := r.elementType(receiver.Type); elem != nil {
			bindings["T"] = elem
		}
		return bindings
	}
	for name, t := range r.bindingsFor(receiver.Type) {
		bindings[name] = t
	}
	return bindings
}

// Binds the result type parameter of a delegate parameter ("U" in
// "Func<T, U>") to what the lambda actually returned
func (r *reader) inferFromLambda(paramType *cs_ast.Type, argType *cs_ast.Type, bindings map[string]*cs_ast.Type) {
	if !paramType.Is(cs_ast.TypeDelegate) || !argType.Is(cs_ast.TypeDelegate) {
		return
	}
	_, declared := delegateSignature(paramType)
	_, actual := delegateSignature(argType)
	if declared.Is(cs_ast.TypeParameter) && actual != nil {
		if _, ok := bindings[declared.Name]; !ok {
			bindings[declared.Name] = actual
		}
	}
}

func (r *reader) matchOverload(symbol *cs_ast.Symbol, receiver cs_ast.Expr, preread []*cs_ast.Arg, argNodes []*sexpr.Node) (overload, bool) {
	if len(argNodes) > len(symbol.Params) {
		return overload{}, false
	}
	for _, param := range symbol.Params[len(argNodes):] {
		if param.Default == nil {
			return overload{}, false
		}
	}
	bindings := r.callBindings(symbol, receiver)
	result := overload{symbol: symbol}
	for i, param := range symbol.Params[:len(argNodes)] {
		paramType := cs_ast.Substitute(param.Type, bindings)
		if preread[i] == nil {
			if !paramType.Is(cs_ast.TypeDelegate) {
				return overload{}, false
			}
			params, _ := delegateSignature(paramType)
			if arity := lambdaArity(argNodes[i]); arity != -1 && arity != len(params) {
				return overload{}, false
			}
			continue
		}
		ok, exact := assignable(paramType, preread[i].Value.Type)
		if !ok {
			return overload{}, false
		}
		if exact {
			result.exact++
		}
	}
	return result, true
}

func (r *reader) newExpr(node *sexpr.Node) cs_ast.Expr {
	loc := node.Loc
	items := r.expectArgs(node, 1, -1)
	t := r.readType(items[0])
	if t.Decl == nil || (t.Kind != cs_ast.TypeClass && t.Kind != cs_ast.TypeStruct) {
		r.fail(items[0].Loc, "Cannot construct %q", t.String())
	}
	opts := r.parseOptions(items[1:], nil, []string{"props", "items", "pairs"})
	e := &cs_ast.ENew{Type: t}

	receiver := cs_ast.Expr{Loc: loc, Data: &cs_ast.ETypeRef{Type: t}, Type: t}
	ctors := t.Decl.Members[ctorName]
	if len(ctors) > 0 {
		call := r.methodCall(loc, receiver, t.Name, ctors, opts.rest, false)
		c := call.Data.(*cs_ast.ECall)
		e.Args = c.Args
		e.Symbol = c.Symbol
	} else if len(opts.rest) > 0 {
		r.fail(opts.rest[0].Loc, "%q has no constructor taking arguments", t.Name)
	}

	bindings := r.bindingsFor(t)
	if props := opts.values["props"]; props != nil {
		init := &cs_ast.Initializer{Kind: cs_ast.InitObject}
		for _, item := range r.expectList(props, "a list of member initializers") {
			parts := r.expectList(item, "a member initializer like \"(Name value)\"")
			if len(parts) != 2 {
				r.fail(item.Loc, "Expected a member initializer like \"(Name value)\"")
			}
			name := r.expectSymbol(parts[0], "a member name")
			var member *cs_ast.Symbol
			for _, candidate := range t.Decl.LookupMember(name) {
				if (candidate.Kind == cs_ast.SymbolField || candidate.Kind == cs_ast.SymbolProperty) && !candidate.IsStatic {
					member = candidate
					break
				}
			}
			if member == nil {
				r.failUnknownMember(parts[0].Loc, receiver, name)
			}
			init.Members = append(init.Members, cs_ast.MemberInit{
				Loc:    item.Loc,
				Name:   name,
				Symbol: member,
				Value:  r.expr(parts[1], cs_ast.Substitute(member.Type, bindings)),
			})
		}
		e.Init = init
	}
	if values := opts.values["items"]; values != nil {
		if e.Init != nil {
			r.fail(values.Loc, "Cannot combine \":items\" with another initializer")
		}
		elem := r.elementType(t)
		if elem == nil {
			r.fail(values.Loc, "%q is not a collection", t.String())
		}
		init := &cs_ast.Initializer{Kind: cs_ast.InitCollection}
		for _, item := range r.expectList(values, "a list of items") {
			init.Items = append(init.Items, r.expr(item, elem))
		}
		e.Init = init
	}
	if pairs := opts.values["pairs"]; pairs != nil {
		if e.Init != nil {
			r.fail(pairs.Loc, "Cannot combine \":pairs\" with another initializer")
		}
		if !t.IsBuiltinNamed("Dictionary") {
			r.fail(pairs.Loc, "%q is not a dictionary", t.String())
		}
		init := &cs_ast.Initializer{Kind: cs_ast.InitDictionary}
		for _, item := range r.expectList(pairs, "a list of key-value pairs") {
			parts := r.expectList(item, "a key-value pair like \"(key value)\"")
			if len(parts) != 2 {
				r.fail(item.Loc, "Expected a key-value pair like \"(key value)\"")
			}
			init.Pairs = append(init.Pairs, cs_ast.KeyValueInit{
				Key:   r.expr(parts[0], t.Args[0]),
				Value: r.expr(parts[1], t.Args[1]),
			})
		}
		e.Init = init
	}

	return cs_ast.Expr{Loc: loc, Data: e, Type: t}
}

// (lambda (x (y int)) body...) where a single non-block body form is an
// expression body
func (r *reader) lambda(node *sexpr.Node, expected *cs_ast.Type) cs_ast.Expr {
	loc := node.Loc
	items := r.expectArgs(node, 2, -1)
	opts := r.parseOptions(items[1:], []string{"async"}, nil)
	if len(opts.rest) == 0 {
		r.fail(loc, "Expected a lambda body")
	}

	var expectedParams []*cs_ast.Type
	var expectedResult *cs_ast.Type
	if expected.Is(cs_ast.TypeDelegate) {
		expectedParams, expectedResult = delegateSignature(expected)
	}

	fn := cs_ast.Fn{Loc: loc}
	r.pushScope()
	paramNodes := r.expectList(items[0], "a lambda parameter list")
	paramTypes := make([]*cs_ast.Type, len(paramNodes))
	for i, paramNode := range paramNodes {
		var name string
		var t *cs_ast.Type
		if paramNode.Kind == sexpr.KList {
			parts := paramNode.Items
			if len(parts) != 2 {
				r.fail(paramNode.Loc, "Expected a lambda parameter like \"x\" or \"(x int)\"")
			}
			name = r.expectSymbol(parts[0], "a parameter name")
			t = r.readType(parts[1])
		} else {
			name = r.expectSymbol(paramNode, "a parameter name")
			if i >= len(expectedParams) {
				r.fail(paramNode.Loc, "Cannot infer the type of lambda parameter %q", name)
			}
			t = expectedParams[i]
		}
		symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolParameter, Name: name, Type: t}
		r.declare(paramNode.Loc, symbol)
		fn.Args = append(fn.Args, cs_ast.FnArg{Loc: paramNode.Loc, Symbol: symbol})
		paramTypes[i] = t
	}

	oldFn := r.fn
	info := &fnInfo{returnType: expectedResult}
	if expectedResult == nil || expectedResult.Is(cs_ast.TypeParameter) {
		info.inferReturn = true
	}
	r.fn = info

	var result *cs_ast.Type
	body := opts.rest
	if len(body) == 1 && body[0].Head() != "block" && !isStmtForm(body[0].Head()) {
		fn.IsExprBody = true
		var value cs_ast.Expr
		if info.inferReturn {
			value = r.expr(body[0], nil)
		} else {
			value = r.expr(body[0], expectedResult)
		}
		result = value.Type
		if expectedResult.Is(cs_ast.TypeVoid) || result.Is(cs_ast.TypeVoid) {
			fn.Body = []cs_ast.Stmt{{Loc: body[0].Loc, Data: &cs_ast.SExpr{Value: value}}}
			result = cs_ast.VoidType
		} else {
			fn.Body = []cs_ast.Stmt{{Loc: body[0].Loc, Data: &cs_ast.SReturn{Value: &value}}}
		}
	} else {
		if len(body) == 1 && body[0].Head() == "block" {
			body = body[0].Args()
		}
		fn.Body = r.readStmts(body)
		if info.inferReturn {
			result = info.inferredType
		} else {
			result = expectedResult
		}
	}
	r.fn = oldFn
	r.popScope()

	return cs_ast.Expr{
		Loc:  loc,
		Data: &cs_ast.ELambda{Fn: fn, IsAsync: opts.flags["async"]},
		Type: delegateTypeOf(paramTypes, result),
	}
}

func isStmtForm(head string) bool {
	switch head {
	case "local", "using-local", "await-using-local", "local-func", "if", "while", "do", "for", "foreach",
		"break", "continue", "return", "throw", "yield", "yield-break", "try", "using", "await-using", "switch":
		return true
	}
	return false
}

func (r *reader) switchExpr(node *sexpr.Node, expected *cs_ast.Type) cs_ast.Expr {
	items := r.expectArgs(node, 2, -1)
	e := &cs_ast.ESwitch{Test: r.expr(items[0], nil)}
	var t *cs_ast.Type
	for _, armNode := range items[1:] {
		if armNode.Head() != "arm" {
			r.fail(armNode.Loc, "Expected an \"(arm pattern value)\"")
		}
		parts := r.expectArgs(armNode, 2, -1)
		opts := r.parseOptions(parts[1:], nil, []string{"when"})
		if len(opts.rest) != 1 {
			r.fail(armNode.Loc, "Expected an \"(arm pattern value)\"")
		}
		r.pushScope()
		arm := cs_ast.SwitchArm{Loc: armNode.Loc, Pattern: r.pattern(parts[0], e.Test.Type)}
		if guard := opts.values["when"]; guard != nil {
			value := r.condition(guard)
			arm.Guard = &value
		}
		arm.Value = r.expr(opts.rest[0], expected)
		r.popScope()
		if t == nil || t.Kind == cs_ast.TypeNull {
			t = arm.Value.Type
		}
		e.Arms = append(e.Arms, arm)
	}
	return cs_ast.Expr{Loc: node.Loc, Data: e, Type: t}
}

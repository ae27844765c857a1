package cs_reader

import (
	"strconv"
	"strings"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/sexpr"
)

var unaryOps = map[string]cs_ast.OpCode{}
var binaryOps = map[string]cs_ast.OpCode{}

func init() {
	for op, text := range cs_ast.OpTable {
		if cs_ast.OpCode(op) < cs_ast.BinOpAdd {
			unaryOps[text] = cs_ast.OpCode(op)
		} else {
			binaryOps[text] = cs_ast.OpCode(op)
		}
	}
}

// Reads an expression. "expected" is the type the context wants, if any. It
// gives lambdas their parameter types and numbers their kind, and is never
// used to reject anything here.
func (r *reader) expr(node *sexpr.Node, expected *cs_ast.Type) cs_ast.Expr {
	loc := node.Loc

	switch node.Kind {
	case sexpr.KNumber:
		value, err := strconv.ParseFloat(node.Text, 64)
		if err != nil {
			r.fail(loc, "Invalid number %q", node.Text)
		}
		t := cs_ast.IntType
		if strings.ContainsAny(node.Text, ".eE") || cs_ast.Underlying(expected).Is(cs_ast.TypeFloat) {
			t = cs_ast.FloatType
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.ENumber{Value: value, Raw: node.Text}, Type: t}

	case sexpr.KString:
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EString{Value: node.Text}, Type: cs_ast.StringType}

	case sexpr.KKeyword:
		r.fail(loc, "Unexpected keyword \":%s\"", node.Text)

	case sexpr.KSymbol:
		return r.name(node)
	}

	args := node.Args()
	head := node.Head()
	if head == "" {
		r.fail(loc, "Expected an expression")
	}

	switch head {
	case ".", "?.":
		args = r.expectArgs(node, 2, 2)
		return r.member(loc, r.expr(args[0], nil), args[1], head == "?.")

	case "index", "?index":
		args = r.expectArgs(node, 2, 2)
		target := r.expr(args[0], nil)
		index := r.expr(args[1], nil)
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EIndex{Target: target, Index: index, IsOptional: head == "?index"}, Type: r.indexType(args[0].Loc, target.Type)}

	case "call":
		return r.call(node)

	case "new":
		return r.newExpr(node)

	case "array":
		args = r.expectArgs(node, 1, -1)
		elem := r.readType(args[0])
		array := &cs_ast.EArray{}
		for _, item := range args[1:] {
			array.Items = append(array.Items, r.expr(item, elem))
		}
		return cs_ast.Expr{Loc: loc, Data: array, Type: cs_ast.ArrayOf(elem)}

	case "new-array":
		args = r.expectArgs(node, 2, 2)
		elem := r.readType(args[0])
		size := r.expr(args[1], cs_ast.IntType)
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EArray{Size: &size}, Type: cs_ast.ArrayOf(elem)}

	case "?":
		args = r.expectArgs(node, 3, 3)
		test := r.condition(args[0])
		yes := r.expr(args[1], expected)
		no := r.expr(args[2], expected)
		t := yes.Type
		if t.Kind == cs_ast.TypeNull {
			t = no.Type
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EConditional{Test: test, Yes: yes, No: no}, Type: t}

	case "is":
		args = r.expectArgs(node, 2, 2)
		value := r.expr(args[0], nil)
		pattern := r.pattern(args[1], value.Type)
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EIs{Value: value, Pattern: pattern}, Type: cs_ast.BoolType}

	case "as":
		args = r.expectArgs(node, 2, 2)
		value := r.expr(args[0], nil)
		target := r.readType(args[1])
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EAs{Value: value, Target: target}, Type: target}

	case "cast":
		args = r.expectArgs(node, 2, 2)
		target := r.readType(args[0])
		value := r.expr(args[1], target)
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.ECast{Target: target, Value: value}, Type: target}

	case "lambda":
		return r.lambda(node, expected)

	case "switch-expr":
		return r.switchExpr(node, expected)

	case "tuple":
		args = r.expectArgs(node, 2, -1)
		tuple := &cs_ast.ETuple{}
		t := &cs_ast.Type{Kind: cs_ast.TypeTuple, Name: "tuple"}
		for i, item := range args {
			var elemExpected *cs_ast.Type
			if expected.Is(cs_ast.TypeTuple) && i < len(expected.Args) {
				elemExpected = expected.Args[i]
			}
			value := r.expr(item, elemExpected)
			tuple.Items = append(tuple.Items, value)
			t.Args = append(t.Args, value.Type)
		}
		if expected.Is(cs_ast.TypeTuple) && len(expected.TupleNames) == len(args) {
			t.TupleNames = expected.TupleNames
		}
		return cs_ast.Expr{Loc: loc, Data: tuple, Type: t}

	case "named-tuple":
		args = r.expectArgs(node, 2, -1)
		tuple := &cs_ast.ETuple{}
		t := &cs_ast.Type{Kind: cs_ast.TypeTuple, Name: "tuple"}
		for _, item := range args {
			parts := r.expectList(item, "a named element like \"(Name value)\"")
			if len(parts) != 2 {
				r.fail(item.Loc, "Expected a named element like \"(Name value)\"")
			}
			name := r.expectSymbol(parts[0], "an element name")
			value := r.expr(parts[1], nil)
			tuple.Items = append(tuple.Items, value)
			tuple.Names = append(tuple.Names, name)
			t.Args = append(t.Args, value.Type)
			t.TupleNames = append(t.TupleNames, name)
		}
		return cs_ast.Expr{Loc: loc, Data: tuple, Type: t}

	case "interp":
		interp := &cs_ast.EInterpolated{}
		for _, item := range args {
			interp.Parts = append(interp.Parts, r.expr(item, nil))
		}
		return cs_ast.Expr{Loc: loc, Data: interp, Type: cs_ast.StringType}

	case "char":
		args = r.expectArgs(node, 1, 1)
		if args[0].Kind != sexpr.KString || len([]rune(args[0].Text)) != 1 {
			r.fail(args[0].Loc, "Expected a string with exactly one character")
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EChar{Value: []rune(args[0].Text)[0]}, Type: cs_ast.CharType}

	case "await":
		args = r.expectArgs(node, 1, 1)
		value := r.expr(args[0], nil)
		t := value.Type
		if t.IsBuiltinNamed("Task") && len(t.Args) == 1 {
			t = t.Args[0]
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EAwait{Value: value}, Type: t}

	case "default":
		args = r.expectArgs(node, 1, 1)
		target := r.readType(args[0])
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EDefault{Target: target}, Type: target}

	case "nameof":
		args = r.expectArgs(node, 1, 1)
		name := r.expectSymbol(args[0], "a name")
		r.name(args[0])
		if i := strings.LastIndexByte(name, '.'); i != -1 {
			name = name[i+1:]
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.ENameof{Name: name}, Type: cs_ast.StringType}
	}

	if len(args) == 1 {
		if op, ok := unaryOps[head]; ok {
			return r.unary(loc, op, args[0], expected)
		}
	}
	if op, ok := binaryOps[head]; ok {
		args = r.expectArgs(node, 2, 2)
		return r.binary(loc, op, args[0], args[1], expected)
	}

	r.failUnknown(node.Items[0].Loc, "expression form", head, exprForms())
	return cs_ast.Expr{}
}

func exprForms() []string {
	forms := []string{"call", "new", "array", "new-array", "lambda", "switch-expr", "tuple", "named-tuple",
		"interp", "char", "await", "default", "nameof", "index", "?index", "post++", "post--"}
	for text := range binaryOps {
		forms = append(forms, text)
	}
	return forms
}

// Names resolve to locals first, then to members of the enclosing types,
// then to types. Dotted names are member accesses.
func (r *reader) name(node *sexpr.Node) cs_ast.Expr {
	loc := node.Loc
	text := node.Text

	if i := strings.IndexByte(text, '.'); i > 0 && i < len(text)-1 && !strings.HasSuffix(text, "[]") {
		parts := strings.Split(text, ".")
		expr := r.name(&sexpr.Node{Kind: sexpr.KSymbol, Loc: loc, Text: parts[0]})
		start := loc.Start + int32(len(parts[0])) + 1
		for _, part := range parts[1:] {
			expr = r.member(loc, expr, &sexpr.Node{Kind: sexpr.KSymbol, Loc: logger.Loc{Start: start}, Text: part}, false)
			start += int32(len(part)) + 1
		}
		return expr
	}

	switch text {
	case "true", "false":
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EBoolean{Value: text == "true"}, Type: cs_ast.BoolType}
	case "null":
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.ENull{}, Type: cs_ast.NullType}
	case "this", "base":
		if r.class == nil || r.isStatic {
			r.fail(loc, "%q is not available here", text)
		}
		if text == "base" {
			if r.class.Base == nil {
				r.fail(loc, "%q has no base type", r.class.Name)
			}
			return cs_ast.Expr{Loc: loc, Data: &cs_ast.EBase{}, Type: r.class.Base.Type}
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EThis{}, Type: r.class.Type}
	}

	if symbol := r.lookupLocal(text); symbol != nil {
		t := symbol.Type
		if symbol.Kind == cs_ast.SymbolLocalFunction {
			t = methodGroupType(symbol, nil)
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EIdentifier{Symbol: symbol}, Type: t}
	}

	if r.class != nil {
		if members := r.class.LookupMember(text); len(members) > 0 {
			return r.memberOf(loc, r.implicitTarget(loc, members[0]), text, members, false)
		}
	}

	if symbol, ok := r.types[text]; ok {
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.ETypeRef{Type: symbol.Type}, Type: symbol.Type}
	}

	r.failUnknown(loc, "name", text, r.visibleNames())
	return cs_ast.Expr{}
}

// "this" for instance members, the containing type for static ones
func (r *reader) implicitTarget(loc logger.Loc, member *cs_ast.Symbol) cs_ast.Expr {
	if member.IsStatic {
		t := member.ContainingType.Type
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.ETypeRef{Type: t}, Type: t}
	}
	if r.isStatic {
		r.fail(loc, "Cannot access instance member %q from a static context", member.Name)
	}
	return cs_ast.Expr{Loc: loc, Data: &cs_ast.EThis{}, Type: r.class.Type}
}

func (r *reader) member(loc logger.Loc, target cs_ast.Expr, nameNode *sexpr.Node, isOptional bool) cs_ast.Expr {
	name := r.expectSymbol(nameNode, "a member name")
	if t := cs_ast.Underlying(target.Type); t.Is(cs_ast.TypeTuple) {
		if i := tupleElementIndex(t, name); i != -1 {
			return tupleElement(loc, target, t, i, isOptional)
		}
	}
	members := r.lookupMembers(target, name)
	if len(members) == 0 {
		r.failUnknownMember(nameNode.Loc, target, name)
	}
	return r.memberOf(loc, target, name, members, isOptional)
}

// Tuple elements are reachable as "Item1", "Item2", ... and by their names
func tupleElementIndex(t *cs_ast.Type, name string) int {
	for i := range t.Args {
		if name == "Item"+strconv.Itoa(i+1) || (i < len(t.TupleNames) && t.TupleNames[i] == name) {
			return i
		}
	}
	return -1
}

// Named elements are stored under their positional name
func tupleElement(loc logger.Loc, target cs_ast.Expr, t *cs_ast.Type, i int, isOptional bool) cs_ast.Expr {
	name := "Item" + strconv.Itoa(i+1)
	symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolField, Name: name, Type: t.Args[i]}
	return cs_ast.Expr{Loc: loc, Data: &cs_ast.EMember{Target: target, Name: name, Symbol: symbol, IsOptional: isOptional}, Type: t.Args[i]}
}

func (r *reader) lookupMembers(target cs_ast.Expr, name string) []*cs_ast.Symbol {
	_, isTypeRef := target.Data.(*cs_ast.ETypeRef)
	container := r.memberContainer(target.Type)
	if container == nil {
		return nil
	}

	var members []*cs_ast.Symbol
	for _, member := range container.LookupMember(name) {
		if member.Kind == cs_ast.SymbolConstructor || member.IsStatic != isTypeRef {
			continue
		}
		members = append(members, member)
	}
	if len(members) == 0 && !isTypeRef {
		if object := r.types["Object"]; container != object {
			members = object.Members[name]
		}
	}

	// Queries apply to anything enumerable
	if len(members) == 0 && !isTypeRef && r.elementType(target.Type) != nil {
		for _, member := range r.types["Enumerable"].Members[name] {
			members = append(members, member)
		}
	}
	return members
}

func (r *reader) failUnknownMember(loc logger.Loc, target cs_ast.Expr, name string) {
	var candidates []string
	if container := r.memberContainer(target.Type); container != nil {
		for t := container; t != nil; t = t.Base {
			for member := range t.Members {
				candidates = append(candidates, member)
			}
		}
	}
	r.failUnknown(loc, "member", target.Type.String()+"."+name, prefixAll(target.Type.String()+".", candidates))
}

func (r *reader) memberOf(loc logger.Loc, target cs_ast.Expr, name string, members []*cs_ast.Symbol, isOptional bool) cs_ast.Expr {
	symbol := members[0]
	bindings := r.bindingsFor(target.Type)
	e := &cs_ast.EMember{Target: target, Name: name, Symbol: symbol, IsOptional: isOptional}

	var t *cs_ast.Type
	switch symbol.Kind {
	case cs_ast.SymbolMethod:
		t = methodGroupType(symbol, bindings)
	default:
		t = cs_ast.Substitute(symbol.Type, bindings)
	}
	return cs_ast.Expr{Loc: loc, Data: e, Type: t}
}

func methodGroupType(symbol *cs_ast.Symbol, bindings map[string]*cs_ast.Type) *cs_ast.Type {
	params := make([]*cs_ast.Type, len(symbol.Params))
	for i, param := range symbol.Params {
		params[i] = cs_ast.Substitute(param.Type, bindings)
	}
	return delegateTypeOf(params, cs_ast.Substitute(symbol.Type, bindings))
}

func (r *reader) indexType(loc logger.Loc, t *cs_ast.Type) *cs_ast.Type {
	t = cs_ast.Underlying(t)
	switch {
	case t == nil:
		return cs_ast.ObjectType
	case t.Kind == cs_ast.TypeString:
		return cs_ast.CharType
	case t.Kind == cs_ast.TypeArray, t.IsBuiltinNamed("List"):
		return t.Args[0]
	case t.IsBuiltinNamed("Dictionary"):
		return t.Args[1]
	case t.Kind == cs_ast.TypeObject, t.Kind == cs_ast.TypeParameter:
		return cs_ast.ObjectType
	}
	r.fail(loc, "Cannot index into %q", t.String())
	return nil
}

func (r *reader) unary(loc logger.Loc, op cs_ast.OpCode, node *sexpr.Node, expected *cs_ast.Type) cs_ast.Expr {
	value := r.expr(node, expected)
	t := value.Type
	switch {
	case op == cs_ast.UnOpNot:
		t = cs_ast.BoolType
	case op.IsUpdate():
		r.expectAssignable(node.Loc, value)
	}
	return cs_ast.Expr{Loc: loc, Data: &cs_ast.EUnary{Op: op, Value: value}, Type: t}
}

func (r *reader) expectAssignable(loc logger.Loc, target cs_ast.Expr) {
	switch e := target.Data.(type) {
	case *cs_ast.EIdentifier:
		if e.Symbol.Kind == cs_ast.SymbolLocalFunction {
			r.fail(loc, "Cannot assign to local function %q", e.Symbol.Name)
		}
		return
	case *cs_ast.EIndex:
		return
	case *cs_ast.EMember:
		switch e.Symbol.Kind {
		case cs_ast.SymbolField, cs_ast.SymbolProperty, cs_ast.SymbolEvent:
			return
		}
	}
	r.fail(loc, "Cannot assign to this expression")
}

func (r *reader) binary(loc logger.Loc, op cs_ast.OpCode, leftNode *sexpr.Node, rightNode *sexpr.Node, expected *cs_ast.Type) cs_ast.Expr {
	if op.IsAssign() {
		left := r.expr(leftNode, nil)
		r.expectAssignable(leftNode.Loc, left)
		right := r.expr(rightNode, left.Type)
		if member, ok := left.Data.(*cs_ast.EMember); ok && member.Symbol.Kind == cs_ast.SymbolEvent {
			if op != cs_ast.BinOpAddAssign && op != cs_ast.BinOpSubAssign {
				r.fail(loc, "Events only support \"+=\" and \"-=\"")
			}
		} else if op == cs_ast.BinOpAssign {
			if ok, _ := assignable(left.Type, right.Type); !ok {
				r.fail(rightNode.Loc, "Cannot assign %q to %q", right.Type.String(), left.Type.String())
			}
		}
		return cs_ast.Expr{Loc: loc, Data: &cs_ast.EBinary{Op: op, Left: left, Right: right}, Type: left.Type}
	}

	left := r.expr(leftNode, operandExpectation(op, expected))
	right := r.expr(rightNode, operandExpectation(op, left.Type))
	return cs_ast.Expr{Loc: loc, Data: &cs_ast.EBinary{Op: op, Left: left, Right: right}, Type: binaryType(op, left.Type, right.Type)}
}

func operandExpectation(op cs_ast.OpCode, t *cs_ast.Type) *cs_ast.Type {
	switch op {
	case cs_ast.BinOpLogicalAnd, cs_ast.BinOpLogicalOr:
		return cs_ast.BoolType
	case cs_ast.BinOpNullCoalescing:
		return t
	}
	if t.IsNumeric() {
		return t
	}
	return nil
}

func binaryType(op cs_ast.OpCode, left *cs_ast.Type, right *cs_ast.Type) *cs_ast.Type {
	switch {
	case op.IsComparison(), op == cs_ast.BinOpLogicalAnd, op == cs_ast.BinOpLogicalOr:
		return cs_ast.BoolType
	case op == cs_ast.BinOpNullCoalescing:
		if left.Kind == cs_ast.TypeNull {
			return right
		}
		return cs_ast.Underlying(left)
	case op == cs_ast.BinOpAdd && (left.Is(cs_ast.TypeString) || right.Is(cs_ast.TypeString)):
		return cs_ast.StringType
	}
	l, rt := cs_ast.Underlying(left), cs_ast.Underlying(right)
	if l.Is(cs_ast.TypeFloat) || rt.Is(cs_ast.TypeFloat) {
		return cs_ast.FloatType
	}
	if (l.Is(cs_ast.TypeInt) || l.Is(cs_ast.TypeChar)) && (rt.Is(cs_ast.TypeInt) || rt.Is(cs_ast.TypeChar)) {
		return cs_ast.IntType
	}
	if op == cs_ast.BinOpBitwiseAnd || op == cs_ast.BinOpBitwiseOr || op == cs_ast.BinOpBitwiseXor {
		if l.Is(cs_ast.TypeBool) {
			return cs_ast.BoolType
		}
		return cs_ast.IntType
	}
	return l
}

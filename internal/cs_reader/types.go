package cs_reader

import (
	"strings"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/sexpr"
)

var primitiveTypes = map[string]*cs_ast.Type{
	"void":    cs_ast.VoidType,
	"bool":    cs_ast.BoolType,
	"int":     cs_ast.IntType,
	"long":    cs_ast.IntType,
	"short":   cs_ast.IntType,
	"byte":    cs_ast.IntType,
	"uint":    cs_ast.IntType,
	"ulong":   cs_ast.IntType,
	"double":  cs_ast.FloatType,
	"float":   cs_ast.FloatType,
	"decimal": cs_ast.FloatType,
	"string":  cs_ast.StringType,
	"char":    cs_ast.CharType,
	"object":  cs_ast.ObjectType,
}

// Delegate types are structural, so they are not declared anywhere
var delegateTypes = map[string]bool{
	"Func":      true,
	"Action":    true,
	"Predicate": true,
}

// Types are a symbol ("int", "Point", "int[]", "int?") or a generic
// instantiation ("(List int)", "(Func int bool)", "(tuple int (string Name))").
func (r *reader) readType(node *sexpr.Node) *cs_ast.Type {
	switch node.Kind {
	case sexpr.KSymbol:
		return r.readNamedType(node, node.Text)

	case sexpr.KList:
		head := node.Head()
		args := node.Args()
		if head == "" {
			r.fail(node.Loc, "Expected a type")
		}

		if head == "tuple" {
			t := &cs_ast.Type{Kind: cs_ast.TypeTuple, Name: "tuple"}
			if len(args) < 2 {
				r.fail(node.Loc, "Tuple types need at least two elements")
			}
			hasNames := false
			for _, arg := range args {
				name := ""
				if arg.Kind == sexpr.KList && len(arg.Items) == 2 && arg.Head() != "" && arg.Items[1].Kind == sexpr.KSymbol && isValidName(arg.Items[1].Text) {
					if symbol, isType := r.types[arg.Head()]; (!isType || len(symbol.TypeParams) == 0) && !delegateTypes[arg.Head()] {
						name = arg.Items[1].Text
						arg = arg.Items[0]
						hasNames = true
					}
				}
				t.Args = append(t.Args, r.readType(arg))
				t.TupleNames = append(t.TupleNames, name)
			}
			if !hasNames {
				t.TupleNames = nil
			}
			return t
		}

		var typeArgs []*cs_ast.Type
		for _, arg := range args {
			typeArgs = append(typeArgs, r.readType(arg))
		}

		if delegateTypes[head] {
			if head == "Func" && len(typeArgs) == 0 {
				r.fail(node.Loc, "\"Func\" needs a return type")
			}
			if head == "Predicate" && len(typeArgs) != 1 {
				r.fail(node.Loc, "\"Predicate\" takes exactly one type argument")
			}
			return &cs_ast.Type{Kind: cs_ast.TypeDelegate, Name: head, Args: typeArgs}
		}

		symbol, ok := r.types[head]
		if !ok {
			r.failUnknown(node.Items[0].Loc, "type", head, r.typeNames())
		}
		if len(symbol.TypeParams) != len(typeArgs) {
			r.fail(node.Loc, "%q takes %d type arguments but got %d", head, len(symbol.TypeParams), len(typeArgs))
		}
		return &cs_ast.Type{Kind: symbol.Type.Kind, Name: symbol.Name, Args: typeArgs, Decl: symbol}
	}

	r.fail(node.Loc, "Expected a type but found %s", node.Kind)
	return nil
}

func (r *reader) readNamedType(node *sexpr.Node, name string) *cs_ast.Type {
	if strings.HasSuffix(name, "[]") {
		return cs_ast.ArrayOf(r.readNamedType(node, name[:len(name)-2]))
	}
	if strings.HasSuffix(name, "?") {
		return cs_ast.NullableOf(r.readNamedType(node, name[:len(name)-1]))
	}
	if t, ok := primitiveTypes[name]; ok {
		return t
	}
	if t, ok := r.typeParams[name]; ok {
		return t
	}
	if delegateTypes[name] {
		if name != "Action" {
			r.fail(node.Loc, "%q needs type arguments", name)
		}
		return &cs_ast.Type{Kind: cs_ast.TypeDelegate, Name: name}
	}
	if symbol, ok := r.types[name]; ok {
		if len(symbol.TypeParams) > 0 {
			r.fail(node.Loc, "%q needs %d type arguments", name, len(symbol.TypeParams))
		}
		return symbol.Type
	}
	candidates := r.typeNames()
	for name := range primitiveTypes {
		candidates = append(candidates, name)
	}
	r.failUnknown(node.Loc, "type", name, candidates)
	return nil
}

// Builds the delegate type of a lambda or method group
func delegateTypeOf(params []*cs_ast.Type, result *cs_ast.Type) *cs_ast.Type {
	if result == nil || result.Kind == cs_ast.TypeVoid {
		return &cs_ast.Type{Kind: cs_ast.TypeDelegate, Name: "Action", Args: params}
	}
	args := append(append([]*cs_ast.Type{}, params...), result)
	return &cs_ast.Type{Kind: cs_ast.TypeDelegate, Name: "Func", Args: args}
}

// Splits a delegate type into its parameter types and result type
func delegateSignature(t *cs_ast.Type) (params []*cs_ast.Type, result *cs_ast.Type) {
	switch t.Name {
	case "Func":
		return t.Args[:len(t.Args)-1], t.Args[len(t.Args)-1]
	case "Predicate":
		return t.Args, cs_ast.BoolType
	default:
		return t.Args, cs_ast.VoidType
	}
}

// The symbol whose members are visible on values of this type
func (r *reader) memberContainer(t *cs_ast.Type) *cs_ast.Symbol {
	t = cs_ast.Underlying(t)
	if t == nil {
		return nil
	}
	switch t.Kind {
	case cs_ast.TypeString:
		return r.types["String"]
	case cs_ast.TypeArray:
		return r.types["Array"]
	case cs_ast.TypeObject:
		return r.types["Object"]
	}
	return t.Decl
}

// Bindings for a member's generic signature accessed through "t"
func (r *reader) bindingsFor(t *cs_ast.Type) map[string]*cs_ast.Type {
	t = cs_ast.Underlying(t)
	if t != nil && t.Kind == cs_ast.TypeArray {
		return map[string]*cs_ast.Type{"T": t.Args[0]}
	}
	return cs_ast.BindingsFor(t)
}

// The element type "foreach" sees
func (r *reader) elementType(t *cs_ast.Type) *cs_ast.Type {
	t = cs_ast.Underlying(t)
	switch {
	case t == nil:
		return nil
	case t.Kind == cs_ast.TypeString:
		return cs_ast.CharType
	case t.Kind == cs_ast.TypeArray:
		return t.Args[0]
	case t.IsBuiltinNamed("Dictionary"):
		pair := r.types["KeyValuePair"]
		return &cs_ast.Type{Kind: pair.Type.Kind, Name: pair.Name, Args: t.Args, Decl: pair}
	case t.IsBuiltinNamed("List"), t.IsBuiltinNamed("HashSet"), t.IsBuiltinNamed("IEnumerable"), t.IsBuiltinNamed("IEnumerator"):
		return t.Args[0]
	}
	return nil
}

// Whether a value of type "from" can be passed where "to" is expected. The
// second result says if no conversion is involved.
func assignable(to *cs_ast.Type, from *cs_ast.Type) (ok bool, exact bool) {
	if to == nil || from == nil {
		return true, false
	}
	if to.String() == from.String() {
		return true, true
	}
	switch to.Kind {
	case cs_ast.TypeObject, cs_ast.TypeParameter, cs_ast.TypeUnknown:
		return true, false
	case cs_ast.TypeFloat:
		return from.Kind == cs_ast.TypeInt || from.Kind == cs_ast.TypeChar, false
	case cs_ast.TypeInt:
		return from.Kind == cs_ast.TypeChar || from.Kind == cs_ast.TypeEnum, false
	case cs_ast.TypeNullable:
		if from.Kind == cs_ast.TypeNull {
			return true, false
		}
		return assignable(to.Args[0], from)
	}
	if from.Kind == cs_ast.TypeNull {
		switch to.Kind {
		case cs_ast.TypeInt, cs_ast.TypeFloat, cs_ast.TypeBool, cs_ast.TypeChar, cs_ast.TypeStruct, cs_ast.TypeEnum:
			return false, false
		}
		return true, false
	}
	if from.Kind == cs_ast.TypeParameter || from.Kind == cs_ast.TypeUnknown {
		return true, false
	}
	if to.Decl != nil && from.Decl != nil {
		if from.Decl.DerivesFrom(to.Decl) {
			return true, false
		}
		for t := from.Decl; t != nil; t = t.Base {
			for _, iface := range t.Interfaces {
				if iface == to.Decl {
					return true, false
				}
			}
		}
		if to.Decl == from.Decl {
			return true, false
		}
	}
	if to.Kind == cs_ast.TypeDelegate && from.Kind == cs_ast.TypeDelegate {
		return true, false
	}
	if to.IsBuiltinNamed("IEnumerable") && (from.Kind == cs_ast.TypeArray || from.Decl != nil && from.Decl.IsBuiltin) {
		return true, false
	}
	return false, false
}

package cs_reader

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/sexpr"
)

var relationalOps = map[string]cs_ast.OpCode{
	"<":  cs_ast.BinOpLt,
	"<=": cs_ast.BinOpLe,
	">":  cs_ast.BinOpGt,
	">=": cs_ast.BinOpGe,
}

// Reads a pattern tested against a value of type "t". Designations are
// declared in the current scope, which is what makes "x is int n" bindings
// visible to the statements after the test.
func (r *reader) pattern(node *sexpr.Node, t *cs_ast.Type) cs_ast.Pattern {
	loc := node.Loc

	switch node.Kind {
	case sexpr.KNumber, sexpr.KString:
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PConstant{Value: r.expr(node, t)}}

	case sexpr.KSymbol:
		switch node.Text {
		case "_":
			return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PDiscard{}}
		case "true", "false", "null":
			return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PConstant{Value: r.expr(node, t)}}
		}
		if primitive, ok := primitiveTypes[node.Text]; ok {
			return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PType{Type: primitive}}
		}
		value := r.expr(node, t)
		if typeRef, ok := value.Data.(*cs_ast.ETypeRef); ok {
			return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PType{Type: typeRef.Type}}
		}
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PConstant{Value: value}}

	case sexpr.KList:
		// Handled below

	default:
		r.fail(loc, "Expected a pattern")
	}

	head := node.Head()
	if op, ok := relationalOps[head]; ok {
		args := r.expectArgs(node, 1, 1)
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PRelational{Op: op, Value: r.expr(args[0], t)}}
	}

	switch head {
	case "const":
		args := r.expectArgs(node, 1, 1)
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PConstant{Value: r.expr(args[0], t)}}

	case "type":
		args := r.expectArgs(node, 1, 1)
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PType{Type: r.readType(args[0])}}

	case "decl":
		args := r.expectArgs(node, 2, 2)
		declared := r.readType(args[0])
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PDeclaration{Type: declared, Designation: r.readDesignation(args[1], []*cs_ast.Type{declared})}}

	case "var":
		args := r.expectArgs(node, 1, 1)
		var types []*cs_ast.Type
		if args[0].Kind == sexpr.KList {
			types = r.deconstructedTypes(t)
		} else {
			types = []*cs_ast.Type{t}
		}
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PVar{Designation: r.readDesignation(args[0], types)}}

	case "and", "or":
		args := r.expectArgs(node, 2, -1)
		op := cs_ast.BinOpLogicalAnd
		if head == "or" {
			op = cs_ast.BinOpLogicalOr
		}
		result := r.pattern(args[0], t)
		for _, arg := range args[1:] {
			right := r.pattern(arg, t)
			result = cs_ast.Pattern{Loc: loc, Data: &cs_ast.PBinary{Op: op, Left: result, Right: right}}
		}
		return result

	case "not":
		args := r.expectArgs(node, 1, 1)
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PNot{Value: r.pattern(args[0], t)}}

	case "paren":
		args := r.expectArgs(node, 1, 1)
		return cs_ast.Pattern{Loc: loc, Data: &cs_ast.PParenthesized{Value: r.pattern(args[0], t)}}

	case "list":
		opts := r.parseOptions(node.Args(), nil, []string{"as"})
		elem := r.elementType(t)
		if elem == nil {
			elem = cs_ast.ObjectType
		}
		list := &cs_ast.PList{}
		for _, item := range opts.rest {
			if item.Head() == ".." {
				args := r.expectArgs(item, 0, 1)
				slice := &cs_ast.PSlice{}
				if len(args) == 1 {
					sub := r.pattern(args[0], t)
					slice.Value = &sub
				}
				list.Items = append(list.Items, cs_ast.Pattern{Loc: item.Loc, Data: slice})
				continue
			}
			list.Items = append(list.Items, r.pattern(item, elem))
		}
		if as := opts.values["as"]; as != nil {
			designation := r.readDesignation(as, []*cs_ast.Type{t})
			list.Designation = &designation
		}
		return cs_ast.Pattern{Loc: loc, Data: list}

	case "tuple":
		args := r.expectArgs(node, 2, -1)
		rec := &cs_ast.PRecursive{HasPositional: true}
		for i, arg := range args {
			rec.Positional = append(rec.Positional, r.pattern(arg, positionalType(t, i)))
		}
		return cs_ast.Pattern{Loc: loc, Data: rec}

	case "rec":
		return cs_ast.Pattern{Loc: loc, Data: r.recursivePattern(node, t)}
	}

	r.failUnknown(node.Items[0].Loc, "pattern form", head,
		[]string{"const", "type", "decl", "var", "and", "or", "not", "paren", "list", "tuple", "rec"})
	return cs_ast.Pattern{}
}

// (rec [Type] [:pos (P...)] [:props ((Name P)...)] [:as name])
func (r *reader) recursivePattern(node *sexpr.Node, t *cs_ast.Type) *cs_ast.PRecursive {
	opts := r.parseOptions(node.Args(), nil, []string{"pos", "props", "as"})
	rec := &cs_ast.PRecursive{}
	if len(opts.rest) > 1 {
		r.fail(opts.rest[1].Loc, "Expected at most one type in a recursive pattern")
	}
	if len(opts.rest) == 1 {
		rec.Type = r.readType(opts.rest[0])
		t = rec.Type
	}

	if pos := opts.values["pos"]; pos != nil {
		rec.HasPositional = true
		for i, item := range r.expectList(pos, "a list of positional patterns") {
			rec.Positional = append(rec.Positional, r.pattern(item, positionalType(t, i)))
		}
	}

	if props := opts.values["props"]; props != nil {
		rec.HasProperties = true
		container := r.memberContainer(t)
		for _, item := range r.expectList(props, "a list of property patterns") {
			parts := r.expectList(item, "a property pattern like \"(Name pattern)\"")
			if len(parts) != 2 {
				r.fail(item.Loc, "Expected a property pattern like \"(Name pattern)\"")
			}
			name := r.expectSymbol(parts[0], "a property name")
			var member *cs_ast.Symbol
			if container != nil {
				for _, candidate := range container.LookupMember(name) {
					if (candidate.Kind == cs_ast.SymbolField || candidate.Kind == cs_ast.SymbolProperty) && !candidate.IsStatic {
						member = candidate
						break
					}
				}
			}
			if member == nil {
				r.failUnknownMember(parts[0].Loc, cs_ast.Expr{Type: t}, name)
			}
			memberType := cs_ast.Substitute(member.Type, r.bindingsFor(t))
			rec.Properties = append(rec.Properties, cs_ast.PropertySubpattern{
				Loc:     item.Loc,
				Name:    name,
				Symbol:  member,
				Pattern: r.pattern(parts[1], memberType),
			})
		}
	}

	if as := opts.values["as"]; as != nil {
		designation := r.readDesignation(as, []*cs_ast.Type{t})
		rec.Designation = &designation
	}
	return rec
}

func positionalType(t *cs_ast.Type, i int) *cs_ast.Type {
	if t.Is(cs_ast.TypeTuple) && i < len(t.Args) {
		return t.Args[i]
	}
	return cs_ast.ObjectType
}

// Declares the names of a designation. "types" holds the type of a single
// name, or the element types of a parenthesized designation.
func (r *reader) readDesignation(node *sexpr.Node, types []*cs_ast.Type) cs_ast.Designation {
	loc := node.Loc
	switch node.Kind {
	case sexpr.KSymbol:
		if node.Text == "_" {
			return cs_ast.Designation{Loc: loc, Data: &cs_ast.BDiscard{}}
		}
		if !isValidName(node.Text) {
			r.fail(loc, "Invalid name %q", node.Text)
		}
		t := cs_ast.ObjectType
		if len(types) > 0 && types[0] != nil {
			t = types[0]
		}
		symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: node.Text, Type: t}
		r.declare(loc, symbol)
		return cs_ast.Designation{Loc: loc, Data: &cs_ast.BSingle{Symbol: symbol}}

	case sexpr.KList:
		if len(node.Items) < 2 {
			r.fail(loc, "Parenthesized designations need at least two names")
		}
		b := &cs_ast.BParenthesized{}
		for i, item := range node.Items {
			var itemTypes []*cs_ast.Type
			if i < len(types) {
				if item.Kind == sexpr.KList {
					itemTypes = r.deconstructedTypes(types[i])
				} else {
					itemTypes = []*cs_ast.Type{types[i]}
				}
			}
			b.Items = append(b.Items, r.readDesignation(item, itemTypes))
		}
		return cs_ast.Designation{Loc: loc, Data: b}
	}

	r.fail(loc, "Expected a name, \"_\" or a parenthesized list of names")
	return cs_ast.Designation{}
}

package cs_reader

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/sexpr"
)

func (r *reader) readStmts(nodes []*sexpr.Node) []cs_ast.Stmt {
	stmts := make([]cs_ast.Stmt, 0, len(nodes))
	for _, node := range nodes {
		stmts = append(stmts, r.readStmt(node))
	}
	return stmts
}

func (r *reader) readBlock(node *sexpr.Node) cs_ast.Stmt {
	r.pushScope()
	stmt := r.readStmt(node)
	r.popScope()
	return stmt
}

func (r *reader) readStmt(node *sexpr.Node) cs_ast.Stmt {
	loc := node.Loc

	switch node.Head() {
	case "block":
		r.pushScope()
		stmts := r.readStmts(node.Args())
		r.popScope()
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SBlock{Stmts: stmts}}

	case "local", "using-local", "await-using-local":
		return cs_ast.Stmt{Loc: loc, Data: r.readLocal(node)}

	case "local-func":
		args := r.expectArgs(node, 3, -1)
		name := r.expectSymbol(args[0], "a function name")
		symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolLocalFunction, Name: name}
		fn := cs_ast.Fn{Loc: loc}
		r.readParams(symbol, &fn, args[1])
		symbol.Type = r.readType(args[2])
		r.declare(args[0].Loc, symbol)
		r.readMethodBody(symbol, &fn, args[3:])
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SLocalFunction{Symbol: symbol, Fn: fn}}

	case "if":
		args := r.expectArgs(node, 2, 3)
		s := &cs_ast.SIf{Test: r.condition(args[0])}
		s.Yes = r.readBlock(args[1])
		if len(args) == 3 {
			no := r.readBlock(args[2])
			s.No = &no
		}
		return cs_ast.Stmt{Loc: loc, Data: s}

	case "while":
		args := r.expectArgs(node, 2, 2)
		test := r.condition(args[0])
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SWhile{Test: test, Body: r.readLoopBody(args[1])}}

	case "do":
		args := r.expectArgs(node, 2, 2)
		body := r.readLoopBody(args[0])
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SDoWhile{Body: body, Test: r.condition(args[1])}}

	case "for":
		args := r.expectArgs(node, 4, 4)
		r.pushScope()
		s := &cs_ast.SFor{}
		for _, item := range r.expectList(args[0], "a list of initializers") {
			s.Init = append(s.Init, r.readStmt(item))
		}
		if items := r.expectList(args[1], "a condition or ()"); len(items) > 0 {
			test := r.condition(args[1])
			s.Test = &test
		}
		for _, item := range r.expectList(args[2], "a list of update expressions") {
			s.Update = append(s.Update, r.expr(item, nil))
		}
		s.Body = r.readLoopBody(args[3])
		r.popScope()
		return cs_ast.Stmt{Loc: loc, Data: s}

	case "foreach":
		return cs_ast.Stmt{Loc: loc, Data: r.readForEach(node)}

	case "break":
		r.expectArgs(node, 0, 0)
		if r.fn == nil || (r.fn.loopDepth == 0 && r.fn.switchDepth == 0) {
			r.fail(loc, "No enclosing loop or switch to break out of")
		}
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SBreak{}}

	case "continue":
		r.expectArgs(node, 0, 0)
		if r.fn == nil || r.fn.loopDepth == 0 {
			r.fail(loc, "No enclosing loop to continue")
		}
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SContinue{}}

	case "return":
		return cs_ast.Stmt{Loc: loc, Data: r.readReturn(node)}

	case "throw":
		args := r.expectArgs(node, 0, 1)
		s := &cs_ast.SThrow{}
		if len(args) == 1 {
			value := r.expr(args[0], nil)
			s.Value = &value
		}
		return cs_ast.Stmt{Loc: loc, Data: s}

	case "yield":
		args := r.expectArgs(node, 1, 1)
		var expected *cs_ast.Type
		if r.fn != nil {
			expected = r.fn.yieldType
		}
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SYieldReturn{Value: r.expr(args[0], expected)}}

	case "yield-break":
		r.expectArgs(node, 0, 0)
		return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SYieldBreak{}}

	case "try":
		return cs_ast.Stmt{Loc: loc, Data: r.readTry(node)}

	case "using", "await-using":
		args := r.expectArgs(node, 2, 2)
		s := &cs_ast.SUsing{IsAwait: node.Head() == "await-using"}
		r.pushScope()
		if args[0].Head() == "local" {
			s.Decls = r.readLocal(args[0])
		} else {
			value := r.expr(args[0], nil)
			s.Value = &value
		}
		s.Body = r.readBlock(args[1])
		r.popScope()
		return cs_ast.Stmt{Loc: loc, Data: s}

	case "switch":
		return cs_ast.Stmt{Loc: loc, Data: r.readSwitch(node)}
	}

	return cs_ast.Stmt{Loc: loc, Data: &cs_ast.SExpr{Value: r.expr(node, nil)}}
}

func (r *reader) condition(node *sexpr.Node) cs_ast.Expr {
	test := r.expr(node, cs_ast.BoolType)
	if ok, _ := assignable(cs_ast.BoolType, test.Type); !ok {
		r.fail(node.Loc, "Expected a condition of type \"bool\" but found %q", test.Type.String())
	}
	return test
}

func (r *reader) readLoopBody(node *sexpr.Node) cs_ast.Stmt {
	r.fn.loopDepth++
	body := r.readBlock(node)
	r.fn.loopDepth--
	return body
}

func (r *reader) readLocal(node *sexpr.Node) *cs_ast.SLocal {
	args := r.expectArgs(node, 2, 3)
	name := r.expectSymbol(args[0], "a local name")
	if !isValidName(name) {
		r.fail(args[0].Loc, "Invalid local name %q", name)
	}
	s := &cs_ast.SLocal{
		IsUsing:      node.Head() == "using-local",
		IsAwaitUsing: node.Head() == "await-using-local",
	}

	var declared *cs_ast.Type
	if !args[1].IsSymbol("var") {
		declared = r.readType(args[1])
	}

	decl := cs_ast.LocalDecl{Loc: args[0].Loc}
	if len(args) == 3 {
		value := r.expr(args[2], declared)
		if declared != nil {
			if ok, _ := assignable(declared, value.Type); !ok {
				r.fail(args[2].Loc, "Cannot assign %q to %q", value.Type.String(), declared.String())
			}
		} else {
			if value.Type.Kind == cs_ast.TypeNull || value.Type.Kind == cs_ast.TypeVoid {
				r.fail(args[2].Loc, "Cannot infer a type for %q from %q", name, value.Type.String())
			}
			declared = value.Type
		}
		decl.Value = &value
	} else if declared == nil {
		r.fail(args[1].Loc, "Locals declared with \"var\" need an initializer")
	}
	if (s.IsUsing || s.IsAwaitUsing) && decl.Value == nil {
		r.fail(node.Loc, "\"using\" declarations need an initializer")
	}

	decl.Symbol = &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: name, Type: declared}
	r.declare(args[0].Loc, decl.Symbol)
	s.Decls = []cs_ast.LocalDecl{decl}
	return s
}

func (r *reader) readForEach(node *sexpr.Node) *cs_ast.SForEach {
	args := r.expectArgs(node, 3, 4)
	s := &cs_ast.SForEach{}
	r.pushScope()

	if len(args) == 3 {
		s.Value = r.expr(args[1], nil)
		elem := r.elementType(s.Value.Type)
		if elem == nil {
			r.fail(args[1].Loc, "Cannot iterate over %q", s.Value.Type.String())
		}
		designation := r.readDesignation(args[0], r.deconstructedTypes(elem))
		s.Designation = &designation
		s.Body = r.readLoopBody(args[2])
	} else {
		name := r.expectSymbol(args[0], "a loop variable name")
		s.Value = r.expr(args[2], nil)
		elem := r.elementType(s.Value.Type)
		if elem == nil {
			r.fail(args[2].Loc, "Cannot iterate over %q", s.Value.Type.String())
		}
		if !args[1].IsSymbol("var") {
			declared := r.readType(args[1])
			if ok, _ := assignable(declared, elem); !ok {
				r.fail(args[1].Loc, "Cannot convert %q to %q", elem.String(), declared.String())
			}
			elem = declared
		}
		s.Symbol = &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: name, Type: elem}
		r.declare(args[0].Loc, s.Symbol)
		s.Body = r.readLoopBody(args[3])
	}

	r.popScope()
	return s
}

// The element types a deconstructing designation binds: tuple elements, or
// the key and value of a dictionary entry
func (r *reader) deconstructedTypes(t *cs_ast.Type) []*cs_ast.Type {
	switch {
	case t.Is(cs_ast.TypeTuple):
		return t.Args
	case t.IsBuiltinNamed("KeyValuePair"):
		return t.Args
	}
	return nil
}

func (r *reader) readReturn(node *sexpr.Node) *cs_ast.SReturn {
	args := r.expectArgs(node, 0, 1)
	fn := r.fn
	s := &cs_ast.SReturn{}
	if fn != nil && fn.yieldType != nil {
		r.fail(node.Loc, "Cannot return from an iterator, use \"yield-break\" instead")
	}
	if len(args) == 0 {
		if fn != nil && !fn.inferReturn && fn.returnType.Kind != cs_ast.TypeVoid {
			r.fail(node.Loc, "Expected a return value of type %q", fn.returnType.String())
		}
		return s
	}

	var expected *cs_ast.Type
	if fn != nil && !fn.inferReturn {
		expected = fn.returnType
		if expected.Kind == cs_ast.TypeVoid {
			r.fail(args[0].Loc, "Cannot return a value from a function returning \"void\"")
		}
	}
	value := r.expr(args[0], expected)
	if expected != nil {
		if ok, _ := assignable(expected, value.Type); !ok {
			r.fail(args[0].Loc, "Cannot return %q from a function returning %q", value.Type.String(), expected.String())
		}
	} else if fn != nil && fn.inferredType == nil {
		fn.inferredType = value.Type
	}
	s.Value = &value
	return s
}

func (r *reader) readTry(node *sexpr.Node) *cs_ast.STry {
	args := r.expectArgs(node, 2, -1)
	if args[0].Head() != "block" {
		r.fail(args[0].Loc, "Expected a \"(block ...)\" after \"try\"")
	}
	s := &cs_ast.STry{}
	r.pushScope()
	s.Body = r.readStmts(args[0].Args())
	r.popScope()

	for _, clause := range args[1:] {
		switch clause.Head() {
		case "catch":
			if s.HasFinally {
				r.fail(clause.Loc, "\"catch\" clauses must come before \"finally\"")
			}
			parts := r.expectArgs(clause, 1, -1)
			decl := r.expectList(parts[0], "a catch declaration like \"(Exception e)\" or \"()\"")
			c := cs_ast.Catch{Loc: clause.Loc}
			r.pushScope()
			if len(decl) > 2 {
				r.fail(parts[0].Loc, "Expected a catch declaration like \"(Exception e)\" or \"()\"")
			}
			if len(decl) >= 1 {
				c.Type = r.readType(decl[0])
			}
			if len(decl) == 2 {
				c.Symbol = &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: r.expectSymbol(decl[1], "a name"), Type: c.Type}
				r.declare(decl[1].Loc, c.Symbol)
			}
			opts := r.parseOptions(parts[1:], nil, []string{"when"})
			if filter := opts.values["when"]; filter != nil {
				value := r.condition(filter)
				c.Filter = &value
			}
			c.Body = r.readStmts(opts.rest)
			r.popScope()
			s.Catches = append(s.Catches, c)

		case "finally":
			if s.HasFinally {
				r.fail(clause.Loc, "Duplicate \"finally\" clause")
			}
			r.pushScope()
			s.Finally = r.readStmts(clause.Args())
			r.popScope()
			s.HasFinally = true

		default:
			r.fail(clause.Loc, "Expected \"catch\" or \"finally\"")
		}
	}
	return s
}

func (r *reader) readSwitch(node *sexpr.Node) *cs_ast.SSwitch {
	args := r.expectArgs(node, 1, -1)
	s := &cs_ast.SSwitch{Test: r.expr(args[0], nil)}
	seenDefault := false

	r.fn.switchDepth++
	for _, sectionNode := range args[1:] {
		if sectionNode.Head() != "section" {
			r.fail(sectionNode.Loc, "Expected a \"(section ...)\"")
		}
		section := cs_ast.SwitchSection{Loc: sectionNode.Loc}
		r.pushScope()

		items := sectionNode.Args()
		for len(items) > 0 && isLabel(items[0]) {
			label := items[0]
			items = items[1:]
			switch label.Head() {
			case "case":
				value := r.expectArgs(label, 1, 1)[0]
				section.Labels = append(section.Labels, cs_ast.SwitchLabel{
					Loc:   label.Loc,
					Kind:  cs_ast.LabelCase,
					Value: r.expr(value, s.Test.Type),
				})

			case "case-pattern":
				parts := r.expectArgs(label, 1, -1)
				opts := r.parseOptions(parts[1:], nil, []string{"when"})
				r.expectNoRest(opts)
				l := cs_ast.SwitchLabel{Loc: label.Loc, Kind: cs_ast.LabelPattern, Pattern: r.pattern(parts[0], s.Test.Type)}
				if guard := opts.values["when"]; guard != nil {
					value := r.condition(guard)
					l.Guard = &value
				}
				section.Labels = append(section.Labels, l)

			default:
				if seenDefault {
					r.fail(label.Loc, "Duplicate \"default\" label")
				}
				seenDefault = true
				section.Labels = append(section.Labels, cs_ast.SwitchLabel{Loc: label.Loc, Kind: cs_ast.LabelDefault})
			}
		}
		if len(section.Labels) == 0 {
			r.fail(sectionNode.Loc, "Switch sections need at least one label")
		}

		section.Body = r.readStmts(items)
		r.popScope()
		s.Sections = append(s.Sections, section)
	}
	r.fn.switchDepth--
	return s
}

func isLabel(node *sexpr.Node) bool {
	switch node.Head() {
	case "case", "case-pattern":
		return true
	case "default":
		return len(node.Args()) == 0
	}
	return false
}

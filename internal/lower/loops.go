package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/runtime"
)

func lowerWhileStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SWhile)
	test, prereqs := ctx.captureExpr(s.Test)

	_, pop := ctx.pushLoop(false)
	body := ctx.lowerBody(s.Body)
	pop()

	if len(prereqs) == 0 {
		return []lua_ast.Stmt{&lua_ast.SWhile{Test: test, Body: lua_ast.NewBlock(body...)}}, true
	}
	return []lua_ast.Stmt{whileTrue(append(append(prereqs, breakUnless(test)), body...))}, true
}

func whileTrue(body []lua_ast.Stmt) *lua_ast.SWhile {
	return &lua_ast.SWhile{Test: lua_ast.Bool(true), Body: lua_ast.NewBlock(body...)}
}

func breakUnless(test lua_ast.Expr) lua_ast.Stmt {
	return lua_ast.If(lua_ast.Not(test), []lua_ast.Stmt{&lua_ast.SBreak{}}, nil)
}

func lowerDoWhileStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SDoWhile)

	_, pop := ctx.pushLoop(false)
	body := ctx.lowerBody(s.Body)
	pop()
	test, prereqs := ctx.captureExpr(s.Test)

	if len(prereqs) == 0 {
		return []lua_ast.Stmt{&lua_ast.SRepeat{Body: lua_ast.NewBlock(body...), Until: lua_ast.Not(test)}}, true
	}

	// The test hoisted statements, which "until" cannot hold. The test runs
	// at the top of every iteration but the first instead.
	first := ctx.temp("_first")
	check := append(prereqs, breakUnless(test))
	loop := whileTrue(append([]lua_ast.Stmt{
		lua_ast.If(lua_ast.Not(lua_ast.Id(first)), check, nil),
		lua_ast.Assign(lua_ast.Id(first), lua_ast.Bool(false)),
	}, body...))
	return []lua_ast.Stmt{&lua_ast.SDo{Body: lua_ast.NewBlock(lua_ast.Local(first, lua_ast.Bool(true)), loop)}}, true
}

func lowerForStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SFor)
	defer ctx.pushScope()()

	var outer []lua_ast.Stmt
	for _, init := range s.Init {
		outer = append(outer, ctx.lowerStmt(init)...)
	}

	var test lua_ast.Expr
	var testPrereqs []lua_ast.Stmt
	if s.Test != nil {
		test, testPrereqs = ctx.captureExpr(*s.Test)
	}

	_, pop := ctx.pushLoop(false)
	body := ctx.lowerBody(s.Body)
	pop()

	var updates []lua_ast.Stmt
	for _, update := range s.Update {
		updates = append(updates, ctx.lowerStmt(cs_ast.Stmt{Loc: update.Loc, Data: &cs_ast.SExpr{Value: update}})...)
	}

	var loop *lua_ast.SWhile
	if len(updates) > 0 && continuesLoop(cs_ast.StmtsOf(s.Body)) {
		// "continue" jumps to the top of the loop, so the update runs there,
		// on every iteration but the first
		first := ctx.temp("_first")
		outer = append(outer, lua_ast.Local(first, lua_ast.Bool(true)))
		header := []lua_ast.Stmt{
			lua_ast.If(lua_ast.Not(lua_ast.Id(first)), updates, nil),
			lua_ast.Assign(lua_ast.Id(first), lua_ast.Bool(false)),
		}
		if test != nil {
			header = append(append(header, testPrereqs...), breakUnless(test))
		}
		loop = whileTrue(append(header, body...))
	} else {
		body = append(body, updates...)
		switch {
		case test == nil:
			loop = whileTrue(body)
		case len(testPrereqs) > 0:
			loop = whileTrue(append(append(testPrereqs, breakUnless(test)), body...))
		default:
			loop = &lua_ast.SWhile{Test: test, Body: lua_ast.NewBlock(body...)}
		}
	}

	if len(outer) == 0 {
		return []lua_ast.Stmt{loop}, true
	}
	return []lua_ast.Stmt{&lua_ast.SDo{Body: lua_ast.NewBlock(append(outer, loop)...)}}, true
}

// Reports whether a "continue" in these statements targets the loop they are
// the body of. Nested loops have their own "continue".
func continuesLoop(stmts []cs_ast.Stmt) bool {
	for _, stmt := range stmts {
		switch s := stmt.Data.(type) {
		case *cs_ast.SContinue:
			return true
		case *cs_ast.SBlock:
			if continuesLoop(s.Stmts) {
				return true
			}
		case *cs_ast.SIf:
			if continuesLoop([]cs_ast.Stmt{s.Yes}) || (s.No != nil && continuesLoop([]cs_ast.Stmt{*s.No})) {
				return true
			}
		case *cs_ast.STry:
			if continuesLoop(s.Body) || continuesLoop(s.Finally) {
				return true
			}
			for _, c := range s.Catches {
				if continuesLoop(c.Body) {
					return true
				}
			}
		case *cs_ast.SUsing:
			if continuesLoop([]cs_ast.Stmt{s.Body}) {
				return true
			}
		case *cs_ast.SSwitch:
			for _, section := range s.Sections {
				if continuesLoop(section.Body) {
					return true
				}
			}
		}
	}
	return false
}

func lowerForEachStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SForEach)
	source := ctx.lowerExpr(s.Value)
	t := s.Value.Type

	_, pop := ctx.pushLoop(false)
	defer pop()

	if s.Designation == nil {
		name := ctx.nameOf(s.Symbol)
		return []lua_ast.Stmt{ctx.eachElement(source, t, name, ctx.lowerBody(s.Body))}, true
	}

	// "foreach (var (key, value) in dict)" reads both straight from "pairs"
	if b, ok := s.Designation.Data.(*cs_ast.BParenthesized); ok && iterationOf(t) == iterateMap && len(b.Items) == 2 {
		key, value := ctx.designationName(b.Items[0]), ctx.designationName(b.Items[1])
		return []lua_ast.Stmt{ctx.forIn(iterateMap, source, key, value, ctx.lowerBody(s.Body))}, true
	}

	item := ctx.temp("_item")
	prologue := ctx.designationLocals(*s.Designation, func() lua_ast.Expr { return lua_ast.Id(item) }, elementType(t))
	body := append(prologue, ctx.lowerBody(s.Body)...)
	return []lua_ast.Stmt{ctx.eachElement(source, t, item, body)}, true
}

func (ctx *Context) designationName(d cs_ast.Designation) string {
	if b, ok := d.Data.(*cs_ast.BSingle); ok {
		return ctx.nameOf(b.Symbol)
	}
	if _, ok := d.Data.(*cs_ast.BDiscard); ok {
		return "_"
	}
	ctx.unsupported(d.Loc, "Nested deconstruction of a dictionary entry is not supported")
	return ""
}

////////////////////////////////////////////////////////////////////////////////
// Iteration

type iteration uint8

const (
	iterateEnumerable iteration = iota
	iterateArray
	iterateSet
	iterateMap
	iterateString
)

func iterationOf(t *cs_ast.Type) iteration {
	t = cs_ast.Underlying(t)
	switch {
	case t.IsArrayLike():
		return iterateArray
	case t.IsBuiltinNamed("HashSet"):
		return iterateSet
	case t.IsBuiltinNamed("Dictionary"):
		return iterateMap
	case t.Is(cs_ast.TypeString):
		return iterateString
	}
	return iterateEnumerable
}

// The type of the elements "foreach" produces
func elementType(t *cs_ast.Type) *cs_ast.Type {
	t = cs_ast.Underlying(t)
	switch {
	case t.Is(cs_ast.TypeString):
		return cs_ast.CharType
	case t.IsBuiltinNamed("Dictionary") && len(t.Args) == 2:
		return &cs_ast.Type{Kind: cs_ast.TypeStruct, Name: "KeyValuePair", Args: t.Args}
	}
	if elem := t.ElementType(); elem != nil {
		return elem
	}
	return cs_ast.ObjectType
}

// A generic for over "source". "key" may be "" when only values are needed.
func (ctx *Context) forIn(kind iteration, source lua_ast.Expr, key string, value string, body []lua_ast.Stmt) *lua_ast.SGenericFor {
	if key == "" {
		key = "_"
	}
	loop := &lua_ast.SGenericFor{Body: lua_ast.NewBlock(body...)}
	switch kind {
	case iterateArray:
		loop.Names = []string{key, value}
		loop.Values = []lua_ast.Expr{lua_ast.Call(lua_ast.Id("ipairs"), source)}
	case iterateSet:
		loop.Names = []string{value}
		loop.Values = []lua_ast.Expr{lua_ast.Call(lua_ast.Id("pairs"), source)}
	case iterateMap:
		loop.Names = []string{key, value}
		loop.Values = []lua_ast.Expr{lua_ast.Call(lua_ast.Id("pairs"), source)}
	case iterateString:
		loop.Names = []string{value}
		loop.Values = []lua_ast.Expr{libCall("string", "gmatch", source, lua_ast.Str("."))}
	default:
		loop.Names = []string{key, value}
		loop.Values = []lua_ast.Expr{ctx.callRuntime(runtime.Iterate, source)}
	}
	return loop
}

// Runs "body" once per element of a collection with the element in "item".
// Dictionary elements are key/value tables like "KeyValuePair".
func (ctx *Context) eachElement(source lua_ast.Expr, t *cs_ast.Type, item string, body []lua_ast.Stmt) *lua_ast.SGenericFor {
	kind := iterationOf(t)
	if kind != iterateMap {
		return ctx.forIn(kind, source, "", item, body)
	}
	key, value := ctx.temp("_key"), ctx.temp("_value")
	pair := lua_ast.Local(item, &lua_ast.ETable{Fields: []lua_ast.TableField{
		{Name: "Key", Value: lua_ast.Id(key)},
		{Name: "Value", Value: lua_ast.Id(value)},
	}})
	return ctx.forIn(iterateMap, source, key, value, append([]lua_ast.Stmt{pair}, body...))
}

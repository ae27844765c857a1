package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// A switch statement becomes a "repeat ... until true" block so that "break"
// leaves it. Each section is an "if" ending in "break". The default section
// moves to the end, which is equivalent because sections never fall through.
//
//	repeat
//		if _switch == 1 then
//			...
//			break
//		end
//		...default...
//	until true

func lowerSwitchStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	s := stmt.Data.(*cs_ast.SSwitch)
	bindsNames := false
	for _, section := range s.Sections {
		for _, label := range section.Labels {
			if label.Kind == cs_ast.LabelPattern && len(patternSymbols(label.Pattern)) > 0 {
				bindsNames = true
			}
		}
	}
	subject := ctx.switchSubject(s.Test, bindsNames)

	loop, pop := ctx.pushLoop(true)
	var body []lua_ast.Stmt
	var fallback *cs_ast.SwitchSection
	for i := range s.Sections {
		section := &s.Sections[i]
		if hasDefaultLabel(section) {
			fallback = section
			continue
		}
		stmts, unconditional := ctx.lowerSwitchSection(section, subject, s.Test.Type)
		body = append(body, stmts...)
		if unconditional {
			fallback = nil
			break
		}
	}
	if fallback != nil {
		body = append(body, ctx.lowerSectionBody(fallback)...)
	}
	pop()

	repeat := &lua_ast.SRepeat{Body: lua_ast.NewBlock(body...), Until: lua_ast.Bool(true)}
	if loop.continueFlag == "" {
		return []lua_ast.Stmt{repeat}, true
	}
	return []lua_ast.Stmt{
		lua_ast.Local(loop.continueFlag, lua_ast.Bool(false)),
		repeat,
		lua_ast.If(lua_ast.Id(loop.continueFlag), ctx.continueStmts(stmt.Loc), nil),
	}, true
}

// The subject is evaluated once. When some label binds names it is always
// read from a temporary, so the bound values are the tested value.
func (ctx *Context) switchSubject(test cs_ast.Expr, bindsNames bool) func() lua_ast.Expr {
	value := ctx.lowerExpr(test)
	if bindsNames {
		name := ctx.temp("_switch")
		ctx.hoist(lua_ast.Local(name, value))
		value = lua_ast.Id(name)
	}
	return ctx.reusable(value, "_switch")
}

func hasDefaultLabel(section *cs_ast.SwitchSection) bool {
	for _, label := range section.Labels {
		if label.Kind == cs_ast.LabelDefault {
			return true
		}
	}
	return false
}

// The body of a section, which always leaves the switch at its end
func (ctx *Context) lowerSectionBody(section *cs_ast.SwitchSection) []lua_ast.Stmt {
	defer ctx.pushScope()()
	body := ctx.lowerStmts(section.Body)
	if !lua_ast.EndsWithJump(body) {
		body = append(body, &lua_ast.SBreak{})
	}
	return body
}

type compiledLabel struct {
	patternResult
	guard *cs_ast.Expr
}

func (ctx *Context) compileLabel(label cs_ast.SwitchLabel, subject func() lua_ast.Expr, t *cs_ast.Type) compiledLabel {
	if label.Kind == cs_ast.LabelCase {
		if _, ok := label.Value.Data.(*cs_ast.ENull); ok {
			return compiledLabel{patternResult: patternResult{cond: lua_ast.Bin(lua_ast.BinOpEq, subject(), lua_ast.Nil())}}
		}
		return compiledLabel{patternResult: patternResult{cond: lua_ast.Bin(lua_ast.BinOpEq, subject(), ctx.lowerExpr(label.Value))}}
	}
	return compiledLabel{patternResult: ctx.compilePattern(label.Pattern, subject, t), guard: label.Guard}
}

// Returns the statements for one section and whether the section matches
// every value, which makes the sections after it unreachable
func (ctx *Context) lowerSwitchSection(section *cs_ast.SwitchSection, subject func() lua_ast.Expr, t *cs_ast.Type) ([]lua_ast.Stmt, bool) {
	labels := make([]compiledLabel, len(section.Labels))
	needsFlag := false
	for i, label := range section.Labels {
		labels[i] = ctx.compileLabel(label, subject, t)
		if len(labels[i].bindings) > 0 || labels[i].guard != nil {
			needsFlag = len(section.Labels) > 1
		}
	}

	if !needsFlag {
		var cond lua_ast.Expr
		var bindings []binding
		var guard *cs_ast.Expr
		unconditional := false
		for _, label := range labels {
			if label.cond == nil {
				unconditional = true
			}
			cond = orElse(cond, label.cond)
			bindings = append(bindings, label.bindings...)
			guard = label.guard
		}

		stmts := bindingLocals(bindings)
		body := ctx.lowerSectionBody(section)
		if guard != nil {
			test, prereqs := ctx.captureExpr(*guard)
			stmts = append(stmts, prereqs...)
			stmts = append(stmts, lua_ast.If(test, body, nil))
			unconditional = false
		} else {
			stmts = append(stmts, body...)
		}

		if unconditional {
			return []lua_ast.Stmt{&lua_ast.SDo{Body: lua_ast.NewBlock(stmts...)}}, true
		}
		if cond == nil {
			return []lua_ast.Stmt{&lua_ast.SDo{Body: lua_ast.NewBlock(stmts...)}}, false
		}
		return []lua_ast.Stmt{lua_ast.If(cond, stmts, nil)}, false
	}

	// Several labels where some bind variables or have guards. Each label is
	// tried in turn until one sets the flag.
	flag := ctx.temp("_fallthrough")
	stmts := []lua_ast.Stmt{lua_ast.Local(flag, lua_ast.Bool(false))}
	var names []string
	for _, label := range labels {
		for _, b := range label.bindings {
			names = append(names, b.name)
		}
	}
	if len(names) > 0 {
		stmts = append(stmts, &lua_ast.SLocal{Names: names})
	}
	for i, label := range labels {
		var matched []lua_ast.Stmt
		for _, b := range label.bindings {
			matched = append(matched, lua_ast.Assign(lua_ast.Id(b.name), b.value))
		}
		set := lua_ast.Assign(lua_ast.Id(flag), lua_ast.Bool(true))
		if label.guard != nil {
			test, prereqs := ctx.captureExpr(*label.guard)
			matched = append(matched, prereqs...)
			matched = append(matched, lua_ast.If(test, []lua_ast.Stmt{set}, nil))
		} else {
			matched = append(matched, set)
		}
		cond := label.cond
		if i > 0 {
			cond = lua_ast.And(lua_ast.Not(lua_ast.Id(flag)), cond)
		}
		if cond == nil {
			stmts = append(stmts, matched...)
		} else {
			stmts = append(stmts, lua_ast.If(cond, matched, nil))
		}
	}
	stmts = append(stmts, lua_ast.If(lua_ast.Id(flag), ctx.lowerSectionBody(section), nil))
	return []lua_ast.Stmt{&lua_ast.SDo{Body: lua_ast.NewBlock(stmts...)}}, false
}

// "a or b" where a nil condition always matches
func orElse(left lua_ast.Expr, right lua_ast.Expr) lua_ast.Expr {
	if left == nil {
		return right
	}
	if right == nil {
		return nil
	}
	return lua_ast.Bin(lua_ast.BinOpOr, left, right)
}

func bindingLocals(bindings []binding) []lua_ast.Stmt {
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

// A switch expression assigns the value of the first matching arm to a
// temporary. A value that matches no arm leaves it nil.
func lowerSwitchExpr(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ESwitch)
	bindsNames := false
	for _, arm := range e.Arms {
		if len(patternSymbols(arm.Pattern)) > 0 {
			bindsNames = true
		}
	}
	subject := ctx.switchSubject(e.Test, bindsNames)
	result := ctx.temp("_result")

	var body []lua_ast.Stmt
	exhaustive := false
	for _, arm := range e.Arms {
		p := ctx.compilePattern(arm.Pattern, subject, e.Test.Type)
		stmts := bindingLocals(p.bindings)

		value, prereqs := ctx.captureExpr(arm.Value)
		assign := append(prereqs, lua_ast.Assign(lua_ast.Id(result), value))

		if arm.Guard != nil {
			test, guardPrereqs := ctx.captureExpr(*arm.Guard)
			stmts = append(stmts, guardPrereqs...)
			stmts = append(stmts, lua_ast.If(test, append(assign, &lua_ast.SBreak{}), nil))
		} else if p.cond == nil {
			stmts = append(stmts, assign...)
			exhaustive = true
		} else {
			stmts = append(stmts, append(assign, &lua_ast.SBreak{})...)
		}

		switch {
		case exhaustive && len(p.bindings) == 0:
			body = append(body, stmts...)
		case p.cond == nil:
			body = append(body, &lua_ast.SDo{Body: lua_ast.NewBlock(stmts...)})
		default:
			body = append(body, lua_ast.If(p.cond, stmts, nil))
		}
		if exhaustive {
			break
		}
	}
	ctx.hoist(
		lua_ast.Local(result, nil),
		&lua_ast.SRepeat{Body: lua_ast.NewBlock(body...), Until: lua_ast.Bool(true)},
	)
	return lua_ast.Id(result), true
}

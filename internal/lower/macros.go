package lower

import (
	"strconv"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Library members are rewritten into Luau table and string operations.
// Collections are plain tables: lists and arrays are 1-based arrays,
// dictionaries map keys to values and sets map elements to "true". Indices
// cross between 0-based and 1-based at every macro that takes or returns one.
//
// Every node a macro builds is tagged with the member it expands, e.g.
// "List.Add".

type macro func(m *macroCall) lua_ast.Expr

type macroCall struct {
	ctx    *Context
	loc    logger.Loc
	expr   cs_ast.Expr
	name   string
	symbol *cs_ast.Symbol

	// The receiver, nil for static members and constructors
	target *cs_ast.Expr

	args []cs_ast.Expr

	// Constructors only
	init *cs_ast.Initializer
}

// Keyed by "Type.Member/arity"
var callMacros map[string]macro

// Properties and fields, keyed by "Type.Member"
var memberMacros map[string]macro

// Keyed by "Type/arity"
var ctorMacros map[string]macro

func callKey(typeName string, member string, arity int) string {
	return typeName + "." + member + "/" + strconv.Itoa(arity)
}

func lowerCallMacro(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ECall)
	if e.Symbol == nil || !e.Symbol.IsBuiltin || e.Symbol.ContainingType == nil {
		return nil, false
	}
	fn, ok := callMacros[callKey(e.Symbol.ContainingType.Name, e.Symbol.Name, len(e.Args))]
	if !ok {
		return nil, false
	}
	member, ok := e.Target.Data.(*cs_ast.EMember)
	if !ok {
		return nil, false
	}
	if member.IsOptional {
		ctx.unsupported(expr.Loc, "\"?.\" cannot be used with %s.%s", e.Symbol.ContainingType.Name, e.Symbol.Name)
	}
	m := &macroCall{
		ctx:    ctx,
		loc:    expr.Loc,
		expr:   expr,
		name:   e.Symbol.ContainingType.Name + "." + e.Symbol.Name,
		symbol: e.Symbol,
	}
	if !e.Symbol.IsStatic || e.Symbol.IsExtension {
		m.target = &member.Target
	}
	for _, arg := range e.Args {
		m.args = append(m.args, arg.Value)
	}
	return m.expand(fn), true
}

func lowerMemberMacro(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EMember)
	if e.Symbol == nil || !e.Symbol.IsBuiltin || e.Symbol.ContainingType == nil {
		return nil, false
	}
	name := e.Symbol.ContainingType.Name + "." + e.Symbol.Name
	fn, ok := memberMacros[name]
	if !ok {
		return nil, false
	}
	if e.IsOptional {
		ctx.unsupported(expr.Loc, "\"?.\" cannot be used with %s", name)
	}
	m := &macroCall{ctx: ctx, loc: expr.Loc, expr: expr, name: name, symbol: e.Symbol}
	if !e.Symbol.IsStatic {
		m.target = &e.Target
	}
	return m.expand(fn), true
}

func lowerConstructorMacro(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.ENew)
	if e.Type == nil || e.Type.Decl == nil || !e.Type.Decl.IsBuiltin {
		return nil, false
	}
	fn, ok := ctorMacros[e.Type.Name+"/"+strconv.Itoa(len(e.Args))]
	if !ok {
		return nil, false
	}
	if e.Init != nil && e.Init.Kind == cs_ast.InitObject {
		ctx.unsupported(expr.Loc, "Object initializers cannot be used with %q", e.Type.String())
	}
	m := &macroCall{ctx: ctx, loc: expr.Loc, expr: expr, name: e.Type.Name + ".new", symbol: e.Symbol, init: e.Init}
	for _, arg := range e.Args {
		m.args = append(m.args, arg.Value)
	}
	return m.expand(fn), true
}

func (m *macroCall) expand(fn macro) lua_ast.Expr {
	result := fn(m)
	if result != nil && result.ExpandedBy() == "" {
		result.SetExpandedBy(m.name)
	}
	return result
}

func (m *macroCall) hoist(stmts ...lua_ast.Stmt) {
	for _, stmt := range stmts {
		if stmt.ExpandedBy() == "" {
			stmt.SetExpandedBy(m.name)
		}
	}
	m.ctx.hoist(stmts...)
}

func (m *macroCall) isStatement() bool {
	return m.ctx.isStatement(m.expr)
}

// The receiver, for macros that use it once
func (m *macroCall) this() lua_ast.Expr {
	return m.ctx.lowerExpr(*m.target)
}

// The receiver, for macros that use it more than once
func (m *macroCall) thisReusable() func() lua_ast.Expr {
	return m.ctx.reusable(m.ctx.lowerExpr(*m.target), "_source")
}

func (m *macroCall) thisType() *cs_ast.Type {
	return cs_ast.Underlying(m.target.Type)
}

func (m *macroCall) arg(i int) lua_ast.Expr {
	return m.ctx.lowerExpr(m.args[i])
}

func (m *macroCall) argReusable(i int, prefix string) func() lua_ast.Expr {
	return m.ctx.reusable(m.ctx.lowerExpr(m.args[i]), prefix)
}

// A 0-based index argument as a 1-based one
func (m *macroCall) index(i int) lua_ast.Expr {
	return m.ctx.oneBased(m.args[i])
}

func (m *macroCall) temp(prefix string) string {
	return m.ctx.temp(prefix)
}

// Loops over the elements of the receiver with each bound to "item"
func (m *macroCall) each(source lua_ast.Expr, item string, body ...lua_ast.Stmt) lua_ast.Stmt {
	return m.ctx.eachElement(source, m.target.Type, item, body)
}

// "local name = value" hoisted ahead of the statement
func (m *macroCall) local(prefix string, value lua_ast.Expr) string {
	name := m.temp(prefix)
	m.hoist(lua_ast.Local(name, value))
	return name
}

////////////////////////////////////////////////////////////////////////////////
// Callbacks

// A delegate argument applied to each element. A lambda with one parameter
// and an expression body is inlined into the loop with the element bound to
// its parameter. Anything else is called.
type callback struct {
	item   string
	inline *cs_ast.Fn
	fn     func() lua_ast.Expr
}

func (m *macroCall) callback(i int) *callback {
	arg := m.args[i]
	if lambda, ok := arg.Data.(*cs_ast.ELambda); ok && !lambda.IsAsync && lambda.Fn.IsExprBody && len(lambda.Fn.Args) == 1 && len(lambda.Fn.Body) == 1 {
		return &callback{item: m.ctx.nameOf(lambda.Fn.Args[0].Symbol), inline: &lambda.Fn}
	}
	return &callback{item: m.temp("_item"), fn: m.ctx.reusable(m.ctx.lowerExpr(arg), "_callback")}
}

// The value of the callback for the current element, and the statements
// computing it
func (c *callback) value(ctx *Context) (lua_ast.Expr, []lua_ast.Stmt) {
	if c.inline != nil {
		if ret, ok := c.inline.Body[0].Data.(*cs_ast.SReturn); ok && ret.Value != nil {
			return ctx.captureExpr(*ret.Value)
		}
		ctx.internalError(c.inline.Loc, "Expected a lambda returning a value")
	}
	return lua_ast.Call(c.fn(), lua_ast.Id(c.item)), nil
}

// Runs the callback for its side effects
func (c *callback) run(ctx *Context) []lua_ast.Stmt {
	if c.inline != nil {
		if _, ok := c.inline.Body[0].Data.(*cs_ast.SReturn); !ok {
			return ctx.lowerStmts(c.inline.Body)
		}
		value, prereqs := c.value(ctx)
		if lua_ast.IsCall(value) {
			return append(prereqs, lua_ast.CallStmt(value))
		}
		return append(prereqs, lua_ast.Local("_", value))
	}
	return []lua_ast.Stmt{lua_ast.CallStmt(lua_ast.Call(c.fn(), lua_ast.Id(c.item)))}
}

// "if <callback> then body end"
func (c *callback) when(ctx *Context, body ...lua_ast.Stmt) []lua_ast.Stmt {
	test, prereqs := c.value(ctx)
	return append(prereqs, lua_ast.If(test, body, nil))
}

// "if not <callback> then body end"
func (c *callback) unless(ctx *Context, body ...lua_ast.Stmt) []lua_ast.Stmt {
	test, prereqs := c.value(ctx)
	return append(prereqs, lua_ast.If(lua_ast.Not(test), body, nil))
}

////////////////////////////////////////////////////////////////////////////////
// Shared shapes

func assign(name string, value lua_ast.Expr) lua_ast.Stmt {
	return lua_ast.Assign(lua_ast.Id(name), value)
}

func insert(list string, value lua_ast.Expr) lua_ast.Stmt {
	return lua_ast.CallStmt(libCall("table", "insert", lua_ast.Id(list), value))
}

func increment(name string) lua_ast.Stmt {
	return &lua_ast.SCompoundAssign{Op: lua_ast.BinOpAdd, Target: lua_ast.Id(name), Value: lua_ast.Num(1)}
}

// "(found or 0) - 1" turns a 1-based position or nil into a 0-based index
// or -1
func zeroBasedOrMinusOne(position lua_ast.Expr) lua_ast.Expr {
	return minusOne(lua_ast.Bin(lua_ast.BinOpOr, position, lua_ast.Num(0)))
}

// Counts the entries of a table that isn't an array
func (m *macroCall) countEntries(source lua_ast.Expr) lua_ast.Expr {
	count := m.local("_count", lua_ast.Num(0))
	m.hoist(m.ctx.forIn(iterateSet, source, "", "_", []lua_ast.Stmt{increment(count)}))
	return lua_ast.Id(count)
}

// Collects the elements of the receiver into a new array. Arrays are
// copied directly.
func (m *macroCall) collect() lua_ast.Expr {
	if m.thisType().IsArrayLike() {
		return libCall("table", "clone", m.this())
	}
	source := m.this()
	result := m.local("_result", &lua_ast.ETable{})
	item := m.temp("_item")
	m.hoist(m.each(source, item, insert(result, lua_ast.Id(item))))
	return lua_ast.Id(result)
}

// Finds the first element the callback accepts, or the first element at all
// when there is no callback. "fallback" runs when nothing was found.
func (m *macroCall) first(withCallback bool, initial lua_ast.Expr, fallback []lua_ast.Stmt) lua_ast.Expr {
	source := m.this()
	found := m.temp("_found")
	var item string
	var body []lua_ast.Stmt
	if withCallback {
		c := m.callback(0)
		item = c.item
		body = c.when(m.ctx, assign(found, lua_ast.Id(item)), &lua_ast.SBreak{})
	} else {
		item = m.temp("_item")
		body = []lua_ast.Stmt{assign(found, lua_ast.Id(item)), &lua_ast.SBreak{}}
	}
	m.hoist(lua_ast.Local(found, initial), m.each(source, item, body...))
	if fallback != nil {
		m.hoist(lua_ast.If(lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Id(found), lua_ast.Nil()), fallback, nil))
	}
	return lua_ast.Id(found)
}

func throwMessage(message string) []lua_ast.Stmt {
	exception := &lua_ast.ETable{Fields: []lua_ast.TableField{{Name: "Message", Value: lua_ast.Str(message)}}}
	return []lua_ast.Stmt{lua_ast.CallStmt(lua_ast.Call(lua_ast.Id("error"), exception))}
}

// A flag that starts as "initial" and flips when the callback returns
// "when" for some element
func (m *macroCall) flagLoop(prefix string, initial bool, when bool) lua_ast.Expr {
	source := m.this()
	flag := m.temp(prefix)
	c := m.callback(0)
	flip := []lua_ast.Stmt{assign(flag, lua_ast.Bool(!initial)), &lua_ast.SBreak{}}
	var body []lua_ast.Stmt
	if when {
		body = c.when(m.ctx, flip...)
	} else {
		body = c.unless(m.ctx, flip...)
	}
	m.hoist(lua_ast.Local(flag, lua_ast.Bool(initial)), m.each(source, c.item, body...))
	return lua_ast.Id(flag)
}

func (m *macroCall) elementDefault() lua_ast.Expr {
	return defaultValue(elementType(m.target.Type))
}

////////////////////////////////////////////////////////////////////////////////
// The table

func init() {
	callMacros = map[string]macro{
		// Object
		callKey("Object", "ToString", 0): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Call(lua_ast.Id("tostring"), m.this())
		},
		callKey("Object", "Equals", 1): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Bin(lua_ast.BinOpEq, m.this(), m.arg(0))
		},

		// String
		callKey("String", "Substring", 1): func(m *macroCall) lua_ast.Expr {
			return libCall("string", "sub", m.this(), m.index(0))
		},
		callKey("String", "Substring", 2): func(m *macroCall) lua_ast.Expr {
			s := m.this()
			start := m.argReusable(0, "_start")
			length := m.arg(1)
			first := plusOne(start())
			var last lua_ast.Expr
			a, aok := first.(*lua_ast.ENumber)
			b, bok := length.(*lua_ast.ENumber)
			if aok && bok {
				last = lua_ast.Num(a.Value + b.Value - 1)
			} else {
				last = lua_ast.Bin(lua_ast.BinOpAdd, start(), length)
			}
			return libCall("string", "sub", s, first, last)
		},
		callKey("String", "IndexOf", 1): func(m *macroCall) lua_ast.Expr {
			return zeroBasedOrMinusOne(libCall("string", "find", m.this(), m.arg(0), lua_ast.Num(1), lua_ast.Bool(true)))
		},
		callKey("String", "Contains", 1): func(m *macroCall) lua_ast.Expr {
			find := libCall("string", "find", m.this(), m.arg(0), lua_ast.Num(1), lua_ast.Bool(true))
			return lua_ast.Bin(lua_ast.BinOpNe, find, lua_ast.Nil())
		},
		callKey("String", "StartsWith", 1): func(m *macroCall) lua_ast.Expr {
			s := m.this()
			prefix := m.argReusable(0, "_prefix")
			head := libCall("string", "sub", s, lua_ast.Num(1), lua_ast.Un(lua_ast.UnOpLen, prefix()))
			return lua_ast.Bin(lua_ast.BinOpEq, head, prefix())
		},
		callKey("String", "EndsWith", 1): func(m *macroCall) lua_ast.Expr {
			s := m.thisReusable()
			suffix := m.argReusable(0, "_suffix")
			start := lua_ast.Bin(lua_ast.BinOpAdd,
				lua_ast.Bin(lua_ast.BinOpSub, lua_ast.Un(lua_ast.UnOpLen, s()), lua_ast.Un(lua_ast.UnOpLen, suffix())),
				lua_ast.Num(1))
			return lua_ast.Bin(lua_ast.BinOpEq, libCall("string", "sub", s(), start), suffix())
		},
		callKey("String", "ToUpper", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("string", "upper", m.this())
		},
		callKey("String", "ToLower", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("string", "lower", m.this())
		},
		callKey("String", "Trim", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("string", "match", m.this(), lua_ast.Str("^%s*(.-)%s*$"))
		},
		callKey("String", "Split", 1): func(m *macroCall) lua_ast.Expr {
			return libCall("string", "split", m.this(), m.arg(0))
		},
		callKey("String", "Replace", 2): func(m *macroCall) lua_ast.Expr {
			s := m.this()
			old := m.arg(0)
			return libCall("table", "concat", libCall("string", "split", s, old), m.arg(1))
		},
		callKey("String", "ToString", 0): func(m *macroCall) lua_ast.Expr {
			return m.this()
		},
		callKey("String", "IsNullOrEmpty", 1): func(m *macroCall) lua_ast.Expr {
			value := m.argReusable(0, "_value")
			return lua_ast.Bin(lua_ast.BinOpOr,
				lua_ast.Bin(lua_ast.BinOpEq, value(), lua_ast.Nil()),
				lua_ast.Bin(lua_ast.BinOpEq, value(), lua_ast.Str("")))
		},
		callKey("String", "Join", 2): func(m *macroCall) lua_ast.Expr {
			separator := m.argReusable(0, "_separator")
			return libCall("table", "concat", m.arg(1), separator())
		},

		// Math
		callKey("Math", "Abs", 1):     mathCall("abs"),
		callKey("Math", "Floor", 1):   mathCall("floor"),
		callKey("Math", "Ceiling", 1): mathCall("ceil"),
		callKey("Math", "Round", 1):   mathCall("round"),
		callKey("Math", "Sqrt", 1):    mathCall("sqrt"),
		callKey("Math", "Sign", 1):    mathCall("sign"),
		callKey("Math", "Max", 2):     mathCall("max"),
		callKey("Math", "Min", 2):     mathCall("min"),
		callKey("Math", "Clamp", 3):   mathCall("clamp"),
		callKey("Math", "Pow", 2): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Bin(lua_ast.BinOpPow, m.arg(0), m.arg(1))
		},

		// Console. Luau only has "print", which always ends the line.
		callKey("Console", "WriteLine", 0): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Call(lua_ast.Id("print"), lua_ast.Str(""))
		},
		callKey("Console", "WriteLine", 1): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Call(lua_ast.Id("print"), m.arg(0))
		},
		callKey("Console", "Write", 1): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Call(lua_ast.Id("print"), m.arg(0))
		},

		// List
		callKey("List", "Add", 1): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "insert", m.this(), m.arg(0))
		},
		callKey("List", "Insert", 2): func(m *macroCall) lua_ast.Expr {
			list := m.this()
			index := m.index(0)
			return libCall("table", "insert", list, index, m.arg(1))
		},
		callKey("List", "RemoveAt", 1): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "remove", m.this(), m.index(0))
		},
		callKey("List", "Remove", 1): func(m *macroCall) lua_ast.Expr {
			list := m.thisReusable()
			index := m.local("_index", libCall("table", "find", list(), m.arg(0)))
			found := lua_ast.Bin(lua_ast.BinOpNe, lua_ast.Id(index), lua_ast.Nil())
			remove := lua_ast.CallStmt(libCall("table", "remove", list(), lua_ast.Id(index)))
			m.hoist(lua_ast.If(found, []lua_ast.Stmt{remove}, nil))
			if m.isStatement() {
				return nil
			}
			return lua_ast.Bin(lua_ast.BinOpNe, lua_ast.Id(index), lua_ast.Nil())
		},
		callKey("List", "Clear", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "clear", m.this())
		},
		callKey("List", "Contains", 1): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Bin(lua_ast.BinOpNe, libCall("table", "find", m.this(), m.arg(0)), lua_ast.Nil())
		},
		callKey("List", "IndexOf", 1): func(m *macroCall) lua_ast.Expr {
			return zeroBasedOrMinusOne(libCall("table", "find", m.this(), m.arg(0)))
		},
		callKey("List", "Find", 1): func(m *macroCall) lua_ast.Expr {
			return m.first(true, m.elementDefault(), nil)
		},
		callKey("List", "FindLast", 1): func(m *macroCall) lua_ast.Expr {
			list := m.thisReusable()
			found := m.temp("_found")
			c := m.callback(0)
			i := m.temp("_i")
			body := append([]lua_ast.Stmt{lua_ast.Local(c.item, lua_ast.Index(list(), lua_ast.Id(i)))},
				c.when(m.ctx, assign(found, lua_ast.Id(c.item)), &lua_ast.SBreak{})...)
			loop := &lua_ast.SNumericFor{
				Name:  i,
				Start: lua_ast.Un(lua_ast.UnOpLen, list()),
				Stop:  lua_ast.Num(1),
				Step:  lua_ast.Num(-1),
				Body:  lua_ast.NewBlock(body...),
			}
			m.hoist(lua_ast.Local(found, m.elementDefault()), loop)
			return lua_ast.Id(found)
		},
		callKey("List", "FindIndex", 1): func(m *macroCall) lua_ast.Expr {
			list := m.this()
			index := m.temp("_index")
			c := m.callback(0)
			i := m.temp("_i")
			body := c.when(m.ctx, assign(index, minusOne(lua_ast.Id(i))), &lua_ast.SBreak{})
			m.hoist(lua_ast.Local(index, lua_ast.Num(-1)), m.ctx.forIn(iterateArray, list, i, c.item, body))
			return lua_ast.Id(index)
		},
		callKey("List", "Exists", 1): func(m *macroCall) lua_ast.Expr {
			return m.flagLoop("_exists", false, true)
		},
		callKey("List", "ConvertAll", 1): func(m *macroCall) lua_ast.Expr {
			return m.mapped()
		},
		callKey("List", "ForEach", 1): func(m *macroCall) lua_ast.Expr {
			list := m.this()
			c := m.callback(0)
			m.hoist(m.each(list, c.item, c.run(m.ctx)...))
			return nil
		},
		callKey("List", "AddRange", 1): func(m *macroCall) lua_ast.Expr {
			list := m.thisReusable()
			items := m.arg(0)
			item := m.temp("_item")
			add := lua_ast.CallStmt(libCall("table", "insert", list(), lua_ast.Id(item)))
			m.hoist(m.ctx.eachElement(items, m.args[0].Type, item, []lua_ast.Stmt{add}))
			return nil
		},
		callKey("List", "Sort", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "sort", m.this())
		},
		callKey("List", "ToArray", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "clone", m.this())
		},

		// Dictionary
		callKey("Dictionary", "Add", 2): func(m *macroCall) lua_ast.Expr {
			dict := m.this()
			key := m.arg(0)
			m.hoist(lua_ast.Assign(lua_ast.Index(dict, key), m.arg(1)))
			return nil
		},
		callKey("Dictionary", "Remove", 1): func(m *macroCall) lua_ast.Expr {
			return m.removeKey()
		},
		callKey("Dictionary", "ContainsKey", 1): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Bin(lua_ast.BinOpNe, lua_ast.Index(m.this(), m.arg(0)), lua_ast.Nil())
		},
		callKey("Dictionary", "TryGetValue", 2): func(m *macroCall) lua_ast.Expr {
			dict := m.this()
			key := m.arg(0)
			out := m.ctx.lowerLValue(m.args[1])
			m.hoist(out.set(lua_ast.Index(dict, key)))
			if m.isStatement() {
				return nil
			}
			return lua_ast.Bin(lua_ast.BinOpNe, out.get(), lua_ast.Nil())
		},
		callKey("Dictionary", "Clear", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "clear", m.this())
		},

		// HashSet
		callKey("HashSet", "Add", 1): func(m *macroCall) lua_ast.Expr {
			set := m.thisReusable()
			item := m.argReusable(0, "_item")
			var added string
			if !m.isStatement() {
				added = m.local("_added", lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Index(set(), item()), lua_ast.Nil()))
			}
			m.hoist(lua_ast.Assign(lua_ast.Index(set(), item()), lua_ast.Bool(true)))
			if added == "" {
				return nil
			}
			return lua_ast.Id(added)
		},
		callKey("HashSet", "Remove", 1): func(m *macroCall) lua_ast.Expr {
			return m.removeKey()
		},
		callKey("HashSet", "Contains", 1): func(m *macroCall) lua_ast.Expr {
			return lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Index(m.this(), m.arg(0)), lua_ast.Bool(true))
		},
		callKey("HashSet", "Clear", 0): func(m *macroCall) lua_ast.Expr {
			return libCall("table", "clear", m.this())
		},

		// Enumerable
		callKey("Enumerable", "Where", 1): func(m *macroCall) lua_ast.Expr {
			source := m.this()
			result := m.local("_result", &lua_ast.ETable{})
			c := m.callback(0)
			m.hoist(m.each(source, c.item, c.when(m.ctx, insert(result, lua_ast.Id(c.item)))...))
			return lua_ast.Id(result)
		},
		callKey("Enumerable", "Select", 1): func(m *macroCall) lua_ast.Expr {
			return m.mapped()
		},
		callKey("Enumerable", "Any", 0): func(m *macroCall) lua_ast.Expr {
			if m.thisType().IsArrayLike() {
				return lua_ast.Bin(lua_ast.BinOpGt, lua_ast.Un(lua_ast.UnOpLen, m.this()), lua_ast.Num(0))
			}
			source := m.this()
			flag := m.temp("_any")
			m.hoist(lua_ast.Local(flag, lua_ast.Bool(false)), m.each(source, "_", assign(flag, lua_ast.Bool(true)), &lua_ast.SBreak{}))
			return lua_ast.Id(flag)
		},
		callKey("Enumerable", "Any", 1): func(m *macroCall) lua_ast.Expr {
			return m.flagLoop("_any", false, true)
		},
		callKey("Enumerable", "All", 1): func(m *macroCall) lua_ast.Expr {
			return m.flagLoop("_all", true, false)
		},
		callKey("Enumerable", "Count", 0): func(m *macroCall) lua_ast.Expr {
			if m.thisType().IsArrayLike() {
				return lua_ast.Un(lua_ast.UnOpLen, m.this())
			}
			source := m.this()
			count := m.local("_count", lua_ast.Num(0))
			m.hoist(m.each(source, "_", increment(count)))
			return lua_ast.Id(count)
		},
		callKey("Enumerable", "Count", 1): func(m *macroCall) lua_ast.Expr {
			source := m.this()
			count := m.local("_count", lua_ast.Num(0))
			c := m.callback(0)
			m.hoist(m.each(source, c.item, c.when(m.ctx, increment(count))...))
			return lua_ast.Id(count)
		},
		callKey("Enumerable", "First", 0): func(m *macroCall) lua_ast.Expr {
			return m.first(false, nil, throwMessage("Sequence contains no elements"))
		},
		callKey("Enumerable", "First", 1): func(m *macroCall) lua_ast.Expr {
			return m.first(true, nil, throwMessage("Sequence contains no matching element"))
		},
		callKey("Enumerable", "FirstOrDefault", 0): func(m *macroCall) lua_ast.Expr {
			return m.first(false, m.elementDefault(), nil)
		},
		callKey("Enumerable", "FirstOrDefault", 1): func(m *macroCall) lua_ast.Expr {
			return m.first(true, m.elementDefault(), nil)
		},
		callKey("Enumerable", "Sum", 0): func(m *macroCall) lua_ast.Expr {
			source := m.this()
			sum := m.local("_sum", lua_ast.Num(0))
			item := m.temp("_item")
			add := &lua_ast.SCompoundAssign{Op: lua_ast.BinOpAdd, Target: lua_ast.Id(sum), Value: lua_ast.Id(item)}
			m.hoist(m.each(source, item, add))
			return lua_ast.Id(sum)
		},
		callKey("Enumerable", "Sum", 1): func(m *macroCall) lua_ast.Expr {
			source := m.this()
			sum := m.local("_sum", lua_ast.Num(0))
			c := m.callback(0)
			value, prereqs := c.value(m.ctx)
			add := &lua_ast.SCompoundAssign{Op: lua_ast.BinOpAdd, Target: lua_ast.Id(sum), Value: value}
			m.hoist(m.each(source, c.item, append(prereqs, add)...))
			return lua_ast.Id(sum)
		},
		callKey("Enumerable", "ToList", 0): func(m *macroCall) lua_ast.Expr {
			return m.collect()
		},
		callKey("Enumerable", "ToArray", 0): func(m *macroCall) lua_ast.Expr {
			return m.collect()
		},
	}

	memberMacros = map[string]macro{
		"Math.PI": func(m *macroCall) lua_ast.Expr {
			return lua_ast.Dot(lua_ast.Id("math"), "pi")
		},
		"String.Length": length,
		"Array.Length":  length,
		"List.Count":    length,
		"Dictionary.Count": func(m *macroCall) lua_ast.Expr {
			return m.countEntries(m.this())
		},
		"HashSet.Count": func(m *macroCall) lua_ast.Expr {
			return m.countEntries(m.this())
		},
		"Dictionary.Keys": func(m *macroCall) lua_ast.Expr {
			return m.entries(true)
		},
		"Dictionary.Values": func(m *macroCall) lua_ast.Expr {
			return m.entries(false)
		},
	}

	ctorMacros = map[string]macro{
		"List/0":       newList,
		"List/1":       newList,
		"Dictionary/0": newDictionary,
		"HashSet/0":    newSet,
	}
	for _, name := range []string{"Exception", "InvalidOperationException", "ArgumentException"} {
		ctorMacros[name+"/0"] = newException
		ctorMacros[name+"/1"] = newException
	}
}

func mathCall(name string) macro {
	return func(m *macroCall) lua_ast.Expr {
		args := make([]lua_ast.Expr, len(m.args))
		for i := range m.args {
			args[i] = m.arg(i)
		}
		return libCall("math", name, args...)
	}
}

func length(m *macroCall) lua_ast.Expr {
	return lua_ast.Un(lua_ast.UnOpLen, m.this())
}

// "Select" and "ConvertAll"
func (m *macroCall) mapped() lua_ast.Expr {
	source := m.this()
	result := m.local("_result", &lua_ast.ETable{})
	c := m.callback(0)
	value, prereqs := c.value(m.ctx)
	m.hoist(m.each(source, c.item, append(prereqs, insert(result, value))...))
	return lua_ast.Id(result)
}

// Removes a dictionary key or set element. The value says whether it was
// there.
func (m *macroCall) removeKey() lua_ast.Expr {
	table := m.thisReusable()
	key := m.argReusable(0, "_key")
	var removed string
	if !m.isStatement() {
		removed = m.local("_removed", lua_ast.Bin(lua_ast.BinOpNe, lua_ast.Index(table(), key()), lua_ast.Nil()))
	}
	m.hoist(lua_ast.Assign(lua_ast.Index(table(), key()), lua_ast.Nil()))
	if removed == "" {
		return nil
	}
	return lua_ast.Id(removed)
}

// "Keys" and "Values" copy into a new array
func (m *macroCall) entries(keys bool) lua_ast.Expr {
	dict := m.this()
	result := m.local("_result", &lua_ast.ETable{})
	key, value := m.temp("_key"), m.temp("_value")
	item := value
	if keys {
		item = key
	}
	m.hoist(m.ctx.forIn(iterateMap, dict, key, value, []lua_ast.Stmt{insert(result, lua_ast.Id(item))}))
	return lua_ast.Id(result)
}

func newList(m *macroCall) lua_ast.Expr {
	if m.init == nil {
		if len(m.args) == 1 {
			return libCall("table", "create", m.arg(0))
		}
		return &lua_ast.ETable{}
	}
	if len(m.args) == 1 {
		if capacity := m.arg(0); !isReusable(capacity) {
			m.hoist(lua_ast.Local("_", capacity))
		}
	}
	table := &lua_ast.ETable{}
	for _, item := range m.init.Items {
		table.Fields = append(table.Fields, lua_ast.TableField{Value: m.ctx.lowerExpr(item)})
	}
	return table
}

func newDictionary(m *macroCall) lua_ast.Expr {
	table := &lua_ast.ETable{}
	if m.init == nil {
		return table
	}
	if m.init.Kind != cs_ast.InitDictionary {
		m.ctx.unsupported(m.loc, "Dictionaries can only be initialized with key-value pairs")
	}
	for _, pair := range m.init.Pairs {
		key := m.ctx.lowerExpr(pair.Key)
		table.Fields = append(table.Fields, lua_ast.TableField{Key: key, Value: m.ctx.lowerExpr(pair.Value)})
	}
	return table
}

func newSet(m *macroCall) lua_ast.Expr {
	table := &lua_ast.ETable{}
	if m.init == nil {
		return table
	}
	for _, item := range m.init.Items {
		table.Fields = append(table.Fields, lua_ast.TableField{Key: m.ctx.lowerExpr(item), Value: lua_ast.Bool(true)})
	}
	return table
}

// Exceptions are tables with a "Message" field
func newException(m *macroCall) lua_ast.Expr {
	var message lua_ast.Expr
	if len(m.args) == 1 {
		message = m.arg(0)
	} else {
		typeName := m.expr.Type.Name
		message = lua_ast.Str("Exception of type '" + typeName + "' was thrown.")
	}
	return &lua_ast.ETable{Fields: []lua_ast.TableField{{Name: "Message", Value: message}}}
}

package lower

import (
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/config"
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/cs_reader"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/lua_printer"
	"github.com/luasharp/luasharp/internal/test"
	"github.com/nalgeon/be"
)

func readForTest(t *testing.T, contents string) (*cs_ast.Unit, logger.Source) {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	unit, ok := cs_reader.Read(log, source)
	if !ok {
		t.Fatal("Failed to read the input:\n" + test.MsgsToText(log.Done()))
	}
	return unit, source
}

// Returns the generated code, or the messages without their locations
func lowerForTest(t *testing.T, contents string, options config.Options) (string, string) {
	t.Helper()
	unit, source := readForTest(t, contents)
	log := logger.NewDeferLog()
	chunk, ok := Lower(log, &source, unit, options)
	msgs := log.Done()
	if !ok {
		for i := range msgs {
			msgs[i].Location = nil
		}
		return "", strings.TrimRight(test.MsgsToText(msgs), "\n")
	}
	if len(msgs) > 0 {
		t.Fatal("Unexpected messages:\n" + test.MsgsToText(msgs))
	}
	options = options.WithDefaults()
	lua := lua_printer.Print(chunk, lua_printer.Options{
		IndentWidth:      options.IndentWidth,
		MinifyWhitespace: options.MinifyWhitespace,
		EmitTypes:        options.EmitTypes,
	}).Lua
	return string(lua), ""
}

func expectLowered(t *testing.T, contents string, expected string) {
	t.Helper()
	lua, errors := lowerForTest(t, contents, config.Options{})
	if errors != "" {
		t.Fatal("Unexpected errors:\n" + errors)
	}
	test.AssertEqualWithDiff(t, lua, expected)
}

func expectLowerError(t *testing.T, contents string, expected string) {
	t.Helper()
	_, errors := lowerForTest(t, contents, config.Options{})
	test.AssertEqualWithDiff(t, errors, expected)
}

// A context ready to lower statements outside of a unit
func contextForTest() *Context {
	source := test.SourceForTest("")
	return newContext(logger.NewDeferLog(), &source, config.Options{}.WithDefaults())
}

func TestLowerEmptyUnit(t *testing.T) {
	expectLowered(t, "", "return\n")
}

func TestLowerIsAllOrNothing(t *testing.T) {
	unit, source := readForTest(t, `
(local names var (new (List string)))
(call (. names Add) "a")
(local upper var (call (?. "b" ToUpper)))
`)
	log := logger.NewDeferLog()
	chunk, ok := Lower(log, &source, unit, config.Options{})
	be.True(t, !ok)
	be.True(t, chunk == nil)

	msgs := log.Done()
	be.Equal(t, len(msgs), 1)
	be.Equal(t, msgs[0].Kind, logger.Error)
	be.Equal(t, msgs[0].Text, "\"?.\" cannot be used with String.ToUpper")
}

func TestAbortUnwindsEveryFrame(t *testing.T) {
	unit, _ := readForTest(t, `
(local i int 0)
(while (< i 10)
  (block
    (try
      (block (local s string "x") (local n var (call (. s GetHashCode))))
      (finally (++ i)))))
`)
	ctx := contextForTest()
	aborted := false
	func() {
		defer func() {
			if _, ok := recover().(lowerPanic); ok {
				aborted = true
			}
		}()
		ctx.lowerUnit(unit)
	}()
	be.True(t, aborted)
	be.Equal(t, len(ctx.scopes), 0)
	be.Equal(t, len(ctx.fns), 0)

	msgs := ctx.log.Done()
	be.Equal(t, len(msgs), 1)
	be.Equal(t, msgs[0].Text, "Object.GetHashCode is not supported")
}

func TestPoppingOutOfOrderIsInternalError(t *testing.T) {
	ctx := contextForTest()
	defer func() {
		_, ok := recover().(lowerPanic)
		be.True(t, ok)
		msgs := ctx.log.Done()
		be.Equal(t, len(msgs), 1)
		be.Equal(t, msgs[0].Kind, logger.InternalError)
		be.Equal(t, msgs[0].Text, "Scope stack popped out of order")
	}()
	popOuter := ctx.pushScope()
	ctx.pushScope()
	popOuter()
}

func TestTemporariesAreDistinct(t *testing.T) {
	ctx := contextForTest()
	be.Equal(t, ctx.temp("_result"), "_result")
	be.Equal(t, ctx.temp("_result"), "_result2")
	be.Equal(t, ctx.temp("_result"), "_result3")

	// A source name equal to an earlier temporary moves out of its way
	symbol := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "_result2"}
	be.True(t, ctx.nameOf(symbol) != "_result2")
	be.Equal(t, ctx.nameOf(symbol), ctx.nameOf(symbol))

	// Reserved globals are never used for source names
	shadow := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "table"}
	be.True(t, ctx.nameOf(shadow) != "table")
}

func TestRegistryTriesTransformersInOrder(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.RegisterExpressionTransformer(cs_ast.KindENumber, func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
		calls = append(calls, "first")
		return nil, false
	})
	r.RegisterExpressionTransformer(cs_ast.KindENumber, func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
		calls = append(calls, "second")
		return lua_ast.Num(2), true
	})
	r.RegisterExpressionTransformer(cs_ast.KindENumber, func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
		calls = append(calls, "third")
		return lua_ast.Num(3), true
	})

	ctx := contextForTest()
	ctx.registry = r
	result := ctx.lowerExpr(cs_ast.Expr{Data: &cs_ast.ENumber{Value: 1}, Type: cs_ast.IntType})
	be.Equal(t, lua_printer.PrintExpr(result, lua_printer.Options{}), "2")
	be.Equal(t, strings.Join(calls, ","), "first,second")
}

func TestRegistryDefaultWhenEveryTransformerDeclines(t *testing.T) {
	r := NewRegistry()
	r.RegisterExpressionTransformer(cs_ast.KindENumber, func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
		return nil, false
	})
	ctx := contextForTest()
	ctx.registry = r
	defer func() {
		_, ok := recover().(lowerPanic)
		be.True(t, ok)
		msgs := ctx.log.Done()
		be.Equal(t, len(msgs), 1)
		be.Equal(t, msgs[0].Kind, logger.InternalError)
		be.True(t, strings.HasPrefix(msgs[0].Text, "Every transformer declined"))
	}()
	ctx.lowerExpr(cs_ast.Expr{Data: &cs_ast.ENumber{Value: 1}, Type: cs_ast.IntType})
}

func TestRegistryDefaultCanBeReplaced(t *testing.T) {
	r := NewRegistry()
	r.RegisterExpressionTransformer(cs_ast.KindENumber, func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
		return nil, false
	})
	r.DefaultExpr = func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
		return lua_ast.Num(expr.Data.(*cs_ast.ENumber).Value), true
	}
	ctx := contextForTest()
	ctx.registry = r
	result := ctx.lowerExpr(cs_ast.Expr{Data: &cs_ast.ENumber{Value: 7}, Type: cs_ast.IntType})
	be.Equal(t, lua_printer.PrintExpr(result, lua_printer.Options{}), "7")
	be.Equal(t, len(ctx.log.Done()), 0)
}

func TestRegistryWithoutTransformerForKind(t *testing.T) {
	ctx := contextForTest()
	ctx.registry = NewRegistry()
	defer func() {
		_, ok := recover().(lowerPanic)
		be.True(t, ok)
		msgs := ctx.log.Done()
		be.Equal(t, len(msgs), 1)
		be.True(t, strings.HasPrefix(msgs[0].Text, "No transformer is registered for"))
	}()
	ctx.lowerExpr(cs_ast.Expr{Data: &cs_ast.EString{Value: "x"}, Type: cs_ast.StringType})
}

func TestRegistryRejectsWrongKinds(t *testing.T) {
	r := NewRegistry()
	panics := func(fn func()) (result bool) {
		defer func() { result = recover() != nil }()
		fn()
		return
	}
	be.True(t, panics(func() { r.RegisterStatementTransformer(cs_ast.KindENumber, lowerEmptyStmt) }))
	be.True(t, panics(func() { r.RegisterExpressionTransformer(cs_ast.KindSEmpty, lowerLiteral) }))
	be.True(t, !panics(func() { r.RegisterStatementTransformer(cs_ast.KindSEmpty, lowerEmptyStmt) }))
}

func TestExpressionStatementsOnlyKeepCalls(t *testing.T) {
	expectLowered(t, `
(local x int 1)
(local y int 2)
(= x (+ x y))
(++ y)
(call Console.WriteLine x)
`, `local x = 1
local y = 2
x = x + y
y += 1
print(x)
return
`)
}

func TestSwitchWithoutJumpsHasNoFlag(t *testing.T) {
	lua, _ := lowerForTest(t, `
(local n int 2)
(switch n
  (section (case 1) (call Console.WriteLine "one"))
  (section (default) (call Console.WriteLine "other")))
`, config.Options{})
	be.True(t, !strings.Contains(lua, "_continue"))
	be.True(t, !strings.Contains(lua, "_fallthrough"))
	be.True(t, !strings.Contains(lua, "CS."))
}

func TestContinueInsideSwitchLeavesThroughFlag(t *testing.T) {
	expectLowered(t, `
(local i int 0)
(while (< i 3)
  (block
    (++ i)
    (switch i
      (section (case 2) (continue))
      (section (default) (call Console.WriteLine i)))))
`, `local i = 0
while i < 3 do
    i += 1
    local _continue = false
    repeat
        if i == 2 then
            _continue = true
            break
        end
        print(i)
        break
    until true
    if _continue then continue end
end
return
`)
}

func TestListPatternSliceIsOnlyBuiltWhenMatched(t *testing.T) {
	lua, _ := lowerForTest(t, `
(local items var (array int 1 2 3))
(local a var (is items (list 1 (..) 3)))
`, config.Options{})
	be.True(t, !strings.Contains(lua, "CS.slice"))

	lua, _ = lowerForTest(t, `
(local items var (array int 1 2 3))
(local a var (is items (list 1 (.. (var rest)))))
`, config.Options{})
	be.True(t, strings.Contains(lua, "CS.slice(items, 2, #items - 1)"))
}

func TestRuntimeLibraryName(t *testing.T) {
	lua, _ := lowerForTest(t, `
(local o object 1)
(local b var (is o (type double)))
(local items var (array int 1 2 3))
(local c var (is items (list 1 (.. (var rest)))))
`, config.Options{RuntimeLibrary: "Runtime"})
	be.True(t, strings.Contains(lua, "Runtime.slice("))
	be.True(t, !strings.Contains(lua, "CS."))
}

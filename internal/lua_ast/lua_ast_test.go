package lua_ast_test

import (
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/nalgeon/be"
)

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		be.True(t, r != nil)
		text, _ := r.(string)
		be.True(t, strings.Contains(text, contains))
	}()
	fn()
}

func TestExpandedByOnce(t *testing.T) {
	call := lua_ast.Call(lua_ast.Id("print"))
	call.SetExpandedBy("Console.WriteLine")
	be.Equal(t, call.ExpandedBy(), "Console.WriteLine")

	expectPanic(t, `is also claimed by "Math.Max"`, func() {
		call.SetExpandedBy("Math.Max")
	})
}

func TestLinkSetsParents(t *testing.T) {
	arg := lua_ast.Str("hi")
	call := lua_ast.Call(lua_ast.Id("print"), arg)
	stmt := lua_ast.CallStmt(call)
	block := lua_ast.NewBlock(stmt)
	chunk := &lua_ast.Chunk{Body: block}

	lua_ast.Link(chunk)
	be.True(t, arg.Parent() == lua_ast.Node(call))
	be.True(t, call.Parent() == lua_ast.Node(stmt))
	be.True(t, block.Parent() == lua_ast.Node(chunk))
	be.True(t, chunk.Parent() == nil)
}

func TestLinkRejectsSharedNodes(t *testing.T) {
	shared := lua_ast.Id("x")
	block := lua_ast.NewBlock(
		lua_ast.Local("a", shared),
		lua_ast.Local("b", shared),
	)
	expectPanic(t, "more than one parent", func() {
		lua_ast.Link(block)
	})
}

func TestCloneIsIndependent(t *testing.T) {
	original := lua_ast.Bin(lua_ast.BinOpAdd, lua_ast.Id("a"), lua_ast.Num(1))
	original.SetExpandedBy("Math.Abs")
	copied := lua_ast.CloneExpr(original)

	be.Equal(t, copied.ExpandedBy(), "Math.Abs")
	copied.(*lua_ast.EBinary).Left.(*lua_ast.EIdentifier).Name = "b"
	be.Equal(t, original.(*lua_ast.EBinary).Left.(*lua_ast.EIdentifier).Name, "a")

	// Both copies can live in the same tree
	block := lua_ast.NewBlock(lua_ast.Local("x", original), lua_ast.Local("y", copied))
	lua_ast.Link(block)
}

func TestCloneBlock(t *testing.T) {
	loop := &lua_ast.SWhile{
		Test: lua_ast.Bool(true),
		Body: lua_ast.NewBlock(lua_ast.If(lua_ast.Id("done"), []lua_ast.Stmt{&lua_ast.SBreak{}}, nil)),
	}
	copied := lua_ast.CloneStmt(loop).(*lua_ast.SWhile)
	be.True(t, copied.Body != loop.Body)
	be.Equal(t, len(copied.Body.Stmts), 1)
	be.True(t, copied.Body.Stmts[0].(*lua_ast.SIf).No == nil)
}

func TestVisitCountsNodes(t *testing.T) {
	fn := lua_ast.Func([]string{"x"}, lua_ast.Return(lua_ast.Bin(lua_ast.BinOpMul, lua_ast.Id("x"), lua_ast.Num(2))))
	count := 0
	lua_ast.Visit(fn, func(lua_ast.Node) bool {
		count++
		return true
	})

	// EFunction, Fn, Block, SReturn, EBinary, EIdentifier, ENumber
	be.Equal(t, count, 7)
}

func TestNot(t *testing.T) {
	x := lua_ast.Id("x")
	be.True(t, lua_ast.Not(lua_ast.Not(x)) == lua_ast.Expr(x))

	flipped := lua_ast.Not(lua_ast.Bin(lua_ast.BinOpEq, lua_ast.Id("a"), lua_ast.Nil())).(*lua_ast.EBinary)
	be.Equal(t, flipped.Op, lua_ast.BinOpNe)

	be.Equal(t, lua_ast.Not(lua_ast.Bool(true)).(*lua_ast.EBoolean).Value, false)
}

func TestIsIdentifier(t *testing.T) {
	be.True(t, lua_ast.IsIdentifier("value"))
	be.True(t, lua_ast.IsIdentifier("_x1"))
	be.True(t, !lua_ast.IsIdentifier("1x"))
	be.True(t, !lua_ast.IsIdentifier("end"))
	be.True(t, !lua_ast.IsIdentifier("continue"))
	be.True(t, !lua_ast.IsIdentifier("a-b"))
}

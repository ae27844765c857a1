package lua_printer

import (
	"math"
	"testing"

	. "github.com/luasharp/luasharp/internal/lua_ast"
	"github.com/luasharp/luasharp/internal/test"
	"github.com/nalgeon/be"
)

func expectPrinted(t *testing.T, stmts []Stmt, expected string) {
	t.Helper()
	lua := Print(&Chunk{Body: NewBlock(stmts...)}, Options{IndentWidth: 4}).Lua
	test.AssertEqualWithDiff(t, string(lua), expected)
}

func expectPrintedMinify(t *testing.T, stmts []Stmt, expected string) {
	t.Helper()
	lua := Print(&Chunk{Body: NewBlock(stmts...)}, Options{MinifyWhitespace: true}).Lua
	test.AssertEqualWithDiff(t, string(lua), expected)
}

func expectExpr(t *testing.T, expr Expr, expected string) {
	t.Helper()
	be.Equal(t, PrintExpr(expr, Options{}), expected)
}

func TestPrecedence(t *testing.T) {
	a, b, c := Id("a"), Id("b"), Id("c")
	expectExpr(t, Bin(BinOpMul, Bin(BinOpAdd, a, b), c), "(a + b) * c")
	expectExpr(t, Bin(BinOpAdd, Id("a"), Bin(BinOpMul, Id("b"), Id("c"))), "a + b * c")
	expectExpr(t, Bin(BinOpSub, Id("a"), Bin(BinOpSub, Id("b"), Id("c"))), "a - (b - c)")
	expectExpr(t, Bin(BinOpSub, Bin(BinOpSub, Id("a"), Id("b")), Id("c")), "a - b - c")
	expectExpr(t, Bin(BinOpOr, Bin(BinOpAnd, Id("a"), Id("b")), Id("c")), "a and b or c")
	expectExpr(t, Bin(BinOpAnd, Bin(BinOpOr, Id("a"), Id("b")), Id("c")), "(a or b) and c")
	expectExpr(t, Un(UnOpNot, Bin(BinOpEq, Id("a"), Id("b"))), "not (a == b)")
	expectExpr(t, Un(UnOpLen, Id("list")), "#list")
}

func TestRightAssociative(t *testing.T) {
	expectExpr(t, Bin(BinOpConcat, Id("a"), Bin(BinOpConcat, Id("b"), Id("c"))), "a .. b .. c")
	expectExpr(t, Bin(BinOpConcat, Bin(BinOpConcat, Id("a"), Id("b")), Id("c")), "(a .. b) .. c")
	expectExpr(t, Bin(BinOpPow, Id("a"), Bin(BinOpPow, Id("b"), Id("c"))), "a ^ b ^ c")
	expectExpr(t, Bin(BinOpPow, Un(UnOpNeg, Id("a")), Id("b")), "(-a) ^ b")
	expectExpr(t, Un(UnOpNeg, Bin(BinOpPow, Id("a"), Id("b"))), "-a ^ b")
}

func TestMinusNeverFormsComment(t *testing.T) {
	expectExpr(t, Un(UnOpNeg, Un(UnOpNeg, Id("x"))), "- -x")
	expectExpr(t, Un(UnOpNeg, Num(-1)), "- -1")
	be.Equal(t, PrintExpr(Bin(BinOpSub, Id("a"), Num(-1)), Options{MinifyWhitespace: true}), "a- -1")
}

func TestNumbers(t *testing.T) {
	expectExpr(t, Num(3), "3")
	expectExpr(t, Num(0.5), "0.5")
	expectExpr(t, Num(-2), "-2")
	expectExpr(t, Num(1e300), "1e+300")
	expectExpr(t, Num(math.Inf(1)), "math.huge")
	expectExpr(t, Num(math.Inf(-1)), "-math.huge")
	expectExpr(t, Num(math.NaN()), "0/0")
}

func TestCallTargets(t *testing.T) {
	expectExpr(t, MethodCall(Str("abc"), "upper"), `("abc"):upper()`)
	expectExpr(t, Call(Func(nil)), "(function() end)()")
	expectExpr(t, Call(Dot(Id("CS"), "is"), Id("x"), Str("Foo")), `CS.is(x, "Foo")`)
	expectExpr(t, Dot(Id("t"), "end"), `t["end"]`)
	expectExpr(t, Index(Id("t"), Bin(BinOpAdd, Id("i"), Num(1))), "t[i + 1]")
}

func TestTables(t *testing.T) {
	expectExpr(t, &ETable{}, "{}")
	expectExpr(t, &ETable{Fields: []TableField{{Value: Num(1)}, {Value: Num(2)}}}, "{ 1, 2 }")
	expectExpr(t, &ETable{Fields: []TableField{
		{Name: "Name", Value: Str("x")},
		{Key: Id("k"), Value: Bool(true)},
		{Name: "and", Value: Nil()},
	}}, `{ Name = "x", [k] = true, ["and"] = nil }`)
}

func TestIfExpression(t *testing.T) {
	ifElse := &EIfElse{Test: Id("c"), Yes: Num(1), No: Num(2)}
	expectExpr(t, ifElse, "if c then 1 else 2")
	expectExpr(t, Bin(BinOpAdd, &EIfElse{Test: Id("c"), Yes: Num(1), No: Num(2)}, Num(3)), "(if c then 1 else 2) + 3")
}

func TestStatements(t *testing.T) {
	expectPrinted(t, []Stmt{
		Local("x", Num(1)),
		&SLocal{Names: []string{"a", "b"}},
		Assign(Id("x"), Bin(BinOpAdd, Id("x"), Num(1))),
		&SCompoundAssign{Op: BinOpConcat, Target: Id("s"), Value: Str("!")},
		CallStmt(Call(Id("print"), Id("x"))),
	}, `local x = 1
local a, b
x = x + 1
s ..= "!"
print(x)
`)
}

func TestIfChains(t *testing.T) {
	expectPrinted(t, []Stmt{
		If(Id("a"), []Stmt{CallStmt(Call(Id("f")))},
			[]Stmt{If(Id("b"), []Stmt{CallStmt(Call(Id("g")))},
				[]Stmt{CallStmt(Call(Id("h")))})}),
	}, `if a then
    f()
elseif b then
    g()
else
    h()
end
`)
}

func TestCompactJumps(t *testing.T) {
	expectPrinted(t, []Stmt{
		&SWhile{Test: Bool(true), Body: NewBlock(
			If(Id("done"), []Stmt{&SBreak{}}, nil),
			If(Id("skip"), []Stmt{&SContinue{}}, nil),
			If(Id("found"), []Stmt{Return(Id("x"))}, nil),
		)},
	}, `while true do
    if done then break end
    if skip then continue end
    if found then return x end
end
`)
}

func TestJumpInMiddleOfBlock(t *testing.T) {
	expectPrinted(t, []Stmt{
		Return(),
		CallStmt(Call(Id("f"))),
	}, `do return end
f()
`)
}

func TestLoops(t *testing.T) {
	expectPrinted(t, []Stmt{
		&SRepeat{Body: NewBlock(&SBreak{}), Until: Bool(true)},
		&SNumericFor{Name: "i", Start: Num(1), Stop: Num(10), Step: Num(2), Body: NewBlock(CallStmt(Call(Id("print"), Id("i"))))},
		&SGenericFor{Names: []string{"_", "v"}, Values: []Expr{Call(Id("ipairs"), Id("list"))}, Body: NewBlock()},
		&SDo{Body: NewBlock(Local("t", Nil()))},
	}, `repeat
    break
until true
for i = 1, 10, 2 do
    print(i)
end
for _, v in ipairs(list) do end
do
    local t = nil
end
`)
}

func TestFunctions(t *testing.T) {
	fn := NewFn([]string{"self", "x"}, Return(Bin(BinOpMul, Id("x"), Num(2))))
	expectPrinted(t, []Stmt{
		&SFunction{Path: []string{"Point", "scale"}, IsMethod: true, Fn: NewFn([]string{"k"}, Assign(Dot(Id("self"), "X"), Id("k")))},
		&SFunction{Path: []string{"Point", "new"}, Fn: NewFn(nil)},
		&SLocalFunction{Name: "double", Fn: fn},
		Local("f", Func([]string{"a"}, Return(Id("a")))),
	}, `function Point:scale(k)
    self.X = k
end
function Point.new() end
local function double(self, x)
    return x * 2
end
local f = function(a)
    return a
end
`)
}

func TestAmbiguousCallStatement(t *testing.T) {
	expectPrinted(t, []Stmt{
		Local("x", Num(1)),
		CallStmt(Call(Func(nil, CallStmt(Call(Id("print"), Id("x")))))),
	}, `local x = 1
;(function()
    print(x)
end)()
`)
}

func TestComments(t *testing.T) {
	expectPrinted(t, []Stmt{
		&SDo{Body: NewBlock(&SComment{Text: "first\nsecond"}, Local("x", Nil()))},
	}, `do
    -- first
    -- second
    local x = nil
end
`)
}

func TestTypes(t *testing.T) {
	lua := Print(&Chunk{Body: NewBlock(
		&SLocal{Names: []string{"xs"}, Types: []Type{&TArray{Elem: &TName{Name: "number"}}}, Values: []Expr{&ETable{}}},
		&SLocal{Names: []string{"m"}, Types: []Type{&TMap{Key: &TName{Name: "string"}, Value: &TOptional{Inner: &TName{Name: "boolean"}}}}},
		&SLocalFunction{Name: "f", Fn: &Fn{
			Params:      []Param{{Name: "cb", Type: &TOptional{Inner: &TFunction{Params: []Type{&TName{Name: "number"}}}}}},
			ReturnTypes: []Type{&TName{Name: "number"}, &TName{Name: "string"}},
			Body:        NewBlock(Return(Num(1), Str("a"))),
		}},
	)}, Options{EmitTypes: true}).Lua
	test.AssertEqualWithDiff(t, string(lua), `local xs: {number} = {}
local m: {[string]: boolean?}
local function f(cb: ((number) -> ())?): (number, string)
    return 1, "a"
end
`)
}

func TestMinify(t *testing.T) {
	expectPrintedMinify(t, []Stmt{
		Local("x", Num(1)),
		If(Bin(BinOpAnd, Id("x"), Un(UnOpNot, Id("y"))), []Stmt{Return(Id("x"))}, []Stmt{CallStmt(Call(Id("f"), Num(1), Num(2)))}),
	}, "local x=1 if x and not y then return x else f(1,2) end\n")
}

package cs_reader_test

import (
	"strings"
	"testing"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/cs_reader"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/test"
	"github.com/nalgeon/be"
)

func expectRead(t *testing.T, contents string) *cs_ast.Unit {
	t.Helper()
	log := logger.NewDeferLog()
	unit, ok := cs_reader.Read(log, test.SourceForTest(contents))
	msgs := log.Done()
	if !ok {
		t.Fatal("Failed to read the input:\n" + test.MsgsToText(msgs))
	}
	be.Equal(t, len(msgs), 0)
	return unit
}

func expectReadError(t *testing.T, contents string, expected string) {
	t.Helper()
	log := logger.NewDeferLog()
	unit, ok := cs_reader.Read(log, test.SourceForTest(contents))
	msgs := log.Done()
	be.True(t, !ok)
	be.True(t, unit == nil)
	for i := range msgs {
		msgs[i].Location = nil
	}
	test.AssertEqualWithDiff(t, strings.TrimRight(test.MsgsToText(msgs), "\n"), expected)
}

// The type of the value of the local declared by the statement at "index"
func localType(t *testing.T, unit *cs_ast.Unit, index int) *cs_ast.Type {
	t.Helper()
	local, ok := unit.Stmts[index].Data.(*cs_ast.SLocal)
	if !ok {
		t.Fatalf("Statement %d is not a local declaration", index)
	}
	return local.Decls[0].Symbol.Type
}

func TestReadEmpty(t *testing.T) {
	unit := expectRead(t, "")
	be.Equal(t, len(unit.Decls), 0)
	be.Equal(t, len(unit.Stmts), 0)
}

func TestReadForwardBaseType(t *testing.T) {
	unit := expectRead(t, `
(class Circle (extends Shape)
  (method Area () double (return (call (. base Area)))))
(class Shape
  (method Area () double (return 0.0)))
`)
	be.Equal(t, len(unit.Decls), 2)
	circle := unit.Decls[0].Data.(*cs_ast.DClass).Symbol
	shape := unit.Decls[1].Data.(*cs_ast.DClass).Symbol
	be.True(t, circle.Base == shape)
	be.True(t, circle.DerivesFrom(shape))
	be.True(t, !shape.DerivesFrom(circle))
	be.Equal(t, len(circle.LookupMember("Area")), 2)
}

func TestReadForwardMemberReference(t *testing.T) {
	unit := expectRead(t, `
(class Program
  (method Main () void :static (call Helper))
  (method Helper () void :static))
`)
	class := unit.Decls[0].Data.(*cs_ast.DClass)
	main := class.Members[0].Data.(*cs_ast.MMethod)
	call := main.Fn.Body[0].Data.(*cs_ast.SExpr).Value.Data.(*cs_ast.ECall)
	be.Equal(t, call.Symbol.Name, "Helper")
	be.True(t, call.Symbol.IsStatic)
}

func TestReadNumberTypes(t *testing.T) {
	unit := expectRead(t, `
(local a var 1)
(local b var 1.5)
(local c var 2e3)
(local d double 2)
(local e var -3)
`)
	be.Equal(t, localType(t, unit, 0).Kind, cs_ast.TypeInt)
	be.Equal(t, localType(t, unit, 1).Kind, cs_ast.TypeFloat)
	be.Equal(t, localType(t, unit, 2).Kind, cs_ast.TypeFloat)
	be.Equal(t, localType(t, unit, 3).Kind, cs_ast.TypeFloat)
	be.Equal(t, localType(t, unit, 4).Kind, cs_ast.TypeInt)

	value := unit.Stmts[4].Data.(*cs_ast.SLocal).Decls[0].Value
	be.Equal(t, value.Data.(*cs_ast.ENumber).Value, -3.0)
}

func TestReadOverloadResolution(t *testing.T) {
	unit := expectRead(t, `
(local a var (call Math.Abs -3))
(local b var (call Math.Abs 1.5))
(local c var (call Math.Max 1 2))
`)
	be.Equal(t, localType(t, unit, 0).Kind, cs_ast.TypeInt)
	be.Equal(t, localType(t, unit, 1).Kind, cs_ast.TypeFloat)
	be.Equal(t, localType(t, unit, 2).Kind, cs_ast.TypeInt)
}

func TestReadLambdaParameterInference(t *testing.T) {
	unit := expectRead(t, `
(local isBig (Predicate int) (lambda (x) (> x 10)))
`)
	value := unit.Stmts[0].Data.(*cs_ast.SLocal).Decls[0].Value
	lambda := value.Data.(*cs_ast.ELambda)
	be.Equal(t, len(lambda.Fn.Args), 1)
	be.Equal(t, lambda.Fn.Args[0].Symbol.Name, "x")
	be.Equal(t, lambda.Fn.Args[0].Symbol.Type.Kind, cs_ast.TypeInt)
	be.True(t, lambda.Fn.IsExprBody)
}

func TestReadGenericReceiver(t *testing.T) {
	unit := expectRead(t, `
(local names var (new (List string)))
(local first var (call (. names Find) (lambda (n) (== n "x"))))
(local count var (. names Count))
`)
	be.Equal(t, localType(t, unit, 0).String(), "List<string>")
	be.Equal(t, localType(t, unit, 1).Kind, cs_ast.TypeString)
	be.Equal(t, localType(t, unit, 2).Kind, cs_ast.TypeInt)
}

func TestReadObjectMembersOnAnyType(t *testing.T) {
	unit := expectRead(t, `
(class Point (field X int))
(local p var (new Point))
(local h var (call (. p GetHashCode)))
`)
	be.Equal(t, len(unit.Stmts), 2)
	be.Equal(t, localType(t, unit, 1).Kind, cs_ast.TypeInt)
}

func TestReadScopes(t *testing.T) {
	// Sibling blocks may reuse a name
	expectRead(t, `
(block (local x int 1))
(block (local x int 2))
`)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		expected string
	}{
		{"typo", "(local count int 1)\n(call Console.WriteLine coutn)",
			`error: Could not resolve name "coutn" (did you mean "count"?)`},
		{"unknown name", "(call Console.WriteLine zz)",
			`error: Could not resolve name "zz"`},
		{"member typo", "(local s string \"x\")\n(local n var (. s Lenght))",
			`error: Could not resolve member "string.Lenght" (did you mean "string.Length"?)`},
		{"argument count", "(local x int)\n(if x)",
			`error: Expected 2 to 3 arguments to "if" but got 1`},
		{"exact argument count", "(while true)",
			`error: Expected 2 arguments to "while" but got 1`},
		{"redeclared", "(local x int 1)\n(local x int 2)",
			`error: "x" is already declared in this scope`},
		{"no overload", "(call Math.Abs 1 2)",
			`error: No overload of "Abs" takes these 2 arguments`},
		{"constructor overload", "(local e var (new Exception 1 2))",
			`error: No overload of "Exception" takes these 2 arguments`},
		{"continue", "(continue)",
			`error: No enclosing loop to continue`},
		{"break", "(break)",
			`error: No enclosing loop or switch to break out of`},
		{"construct interface", "(local d var (new IDisposable))",
			`error: Cannot construct "IDisposable"`},
		{"this at top level", "(local t var this)",
			`error: "this" is not available here`},
		{"var without value", "(local x var)",
			`error: Locals declared with "var" need an initializer`},
		{"null to var", "(local x var null)",
			`error: Cannot infer a type for "x" from "null"`},
		{"mismatched local", "(local x int \"a\")",
			`error: Cannot assign "string" to "int"`},
		{"condition", "(if 1 (break))",
			`error: Expected a condition of type "bool" but found "int"`},
		{"duplicate type", "(class A)\n(class A)",
			`error: The type "A" is declared more than once`},
		{"unknown type", "(local x Strng \"a\")",
			`error: Could not resolve type "Strng" (did you mean "String"?)`},
		{"return in void", "(class A (method M () void (return 1)))",
			`error: Cannot return a value from a function returning "void"`},
		{"missing return value", "(class A (method M () int (return)))",
			`error: Expected a return value of type "int"`},
		{"unknown option", "(class A (field x int :statik))",
			`error: Could not resolve option ":statik" (did you mean ":static"?)`},
		{"event type", "(class A (event Fired int))",
			`error: Events must have a delegate type, not "int"`},
		{"static context", "(class A (field x int) (method M () void :static (call Console.WriteLine x)))",
			`error: Cannot access instance member "x" from a static context`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			expectReadError(t, tt.contents, tt.expected)
		})
	}
}

func TestReadSyntaxErrorStopsEarly(t *testing.T) {
	log := logger.NewDeferLog()
	unit, ok := cs_reader.Read(log, test.SourceForTest("(local x int"))
	msgs := log.Done()
	be.True(t, !ok)
	be.True(t, unit == nil)
	be.Equal(t, len(msgs), 1)
	be.Equal(t, msgs[0].Kind, logger.Error)
}

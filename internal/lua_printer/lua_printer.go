package lua_printer

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/luasharp/luasharp/internal/helpers"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

type Options struct {
	IndentWidth      int
	MinifyWhitespace bool
	EmitTypes        bool
}

type PrintResult struct {
	Lua []byte
}

type printer struct {
	lua     []byte
	options Options
	indent  int
}

func (p *printer) print(text string) {
	p.lua = append(p.lua, text...)
}

func (p *printer) printIndent() {
	if !p.options.MinifyWhitespace {
		for i := 0; i < p.indent*p.options.IndentWidth; i++ {
			p.print(" ")
		}
	}
}

func (p *printer) printSpace() {
	if !p.options.MinifyWhitespace {
		p.print(" ")
	}
}

func (p *printer) printNewline() {
	if !p.options.MinifyWhitespace {
		p.print("\n")
	}
}

func isIdentifierChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Keywords and names need a separator after any other word. This only
// matters when minifying since whitespace is otherwise always present.
func (p *printer) printSpaceBeforeIdentifier() {
	if n := len(p.lua); n > 0 && (isIdentifierChar(p.lua[n-1]) || p.lua[n-1] == '.') {
		p.print(" ")
	}
}

// "- -x" must not become the comment "--x"
func (p *printer) printMinus() {
	if n := len(p.lua); n > 0 && p.lua[n-1] == '-' {
		p.print(" ")
	}
	p.print("-")
}

func (p *printer) printWord(word string) {
	p.printSpaceBeforeIdentifier()
	p.print(word)
}

// Statements end with a newline when formatted. When minified, statements
// are separated by a single space so that adjacent words stay apart.
func (p *printer) printStmtEnd() {
	if p.options.MinifyWhitespace {
		p.print(" ")
	} else {
		p.print("\n")
	}
}

func (p *printer) printName(name string) {
	p.printSpaceBeforeIdentifier()
	p.print(name)
}

////////////////////////////////////////////////////////////////////////////////
// Statements

func (p *printer) printBlockBody(block *lua_ast.Block) {
	if block == nil {
		return
	}
	p.indent++
	for i, stmt := range block.Stmts {
		isLast := i+1 == len(block.Stmts)
		p.printStmtInBlock(stmt, isLast)
	}
	p.indent--
}

// Luau requires "return", "break" and "continue" to end their block. A jump
// in the middle of a block only happens in dead code but must still parse.
func (p *printer) printStmtInBlock(stmt lua_ast.Stmt, isLast bool) {
	switch stmt.(type) {
	case *lua_ast.SReturn, *lua_ast.SBreak, *lua_ast.SContinue:
		if !isLast {
			p.printIndent()
			p.printWord("do")
			p.print(" ")
			p.printJump(stmt)
			p.print(" ")
			p.print("end")
			p.printStmtEnd()
			return
		}
	}
	p.printStmt(stmt)
}

func startsWithParen(stmt lua_ast.Stmt) bool {
	var expr lua_ast.Expr
	switch s := stmt.(type) {
	case *lua_ast.SCall:
		expr = s.Call
	case *lua_ast.SAssign:
		expr = s.Targets[0]
	case *lua_ast.SCompoundAssign:
		expr = s.Target
	default:
		return false
	}
	for {
		switch e := expr.(type) {
		case *lua_ast.ECall:
			expr = e.Target
		case *lua_ast.EMethodCall:
			expr = e.Target
		case *lua_ast.EDot:
			expr = e.Target
		case *lua_ast.EIndex:
			expr = e.Target
		case *lua_ast.EIdentifier, *lua_ast.EVararg:
			return false
		default:
			return true
		}
	}
}

func (p *printer) printStmt(stmt lua_ast.Stmt) {
	p.printIndent()

	// "a = b\n(f)()" is ambiguous in Luau
	if startsWithParen(stmt) {
		p.print(";")
	}

	switch s := stmt.(type) {
	case *lua_ast.SLocal:
		p.printWord("local")
		p.print(" ")
		for i, name := range s.Names {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.print(name)
			if p.options.EmitTypes && i < len(s.Types) && s.Types[i] != nil {
				p.print(":")
				p.printSpace()
				p.printType(s.Types[i])
			}
		}
		if len(s.Values) > 0 {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExprList(s.Values)
		}
		p.printStmtEnd()

	case *lua_ast.SLocalFunction:
		p.printWord("local function")
		p.print(" ")
		p.print(s.Name)
		p.printFnRest(s.Fn)
		p.printStmtEnd()

	case *lua_ast.SFunction:
		p.printWord("function")
		p.print(" ")
		for i, part := range s.Path {
			if i > 0 {
				if s.IsMethod && i+1 == len(s.Path) {
					p.print(":")
				} else {
					p.print(".")
				}
			}
			p.print(part)
		}
		p.printFnRest(s.Fn)
		p.printStmtEnd()

	case *lua_ast.SAssign:
		for i, target := range s.Targets {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.printExpr(target, lua_ast.LLowest)
		}
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExprList(s.Values)
		p.printStmtEnd()

	case *lua_ast.SCompoundAssign:
		p.printExpr(s.Target, lua_ast.LLowest)
		p.printSpace()
		p.print(lua_ast.OpTable[s.Op].Text)
		p.print("=")
		p.printSpace()
		p.printExpr(s.Value, lua_ast.LLowest)
		p.printStmtEnd()

	case *lua_ast.SCall:
		p.printExpr(s.Call, lua_ast.LLowest)
		p.printStmtEnd()

	case *lua_ast.SIf:
		p.printIf(s)

	case *lua_ast.SWhile:
		p.printWord("while")
		p.print(" ")
		p.printExpr(s.Test, lua_ast.LLowest)
		p.print(" do")
		p.printBodyThenEnd(s.Body)

	case *lua_ast.SRepeat:
		p.printWord("repeat")
		p.printNewlineOrSpace()
		p.printBlockBody(s.Body)
		p.printIndent()
		p.printWord("until")
		p.print(" ")
		p.printExpr(s.Until, lua_ast.LLowest)
		p.printStmtEnd()

	case *lua_ast.SNumericFor:
		p.printWord("for")
		p.print(" ")
		p.print(s.Name)
		p.printSpace()
		p.print("=")
		p.printSpace()
		p.printExpr(s.Start, lua_ast.LLowest)
		p.print(",")
		p.printSpace()
		p.printExpr(s.Stop, lua_ast.LLowest)
		if s.Step != nil {
			p.print(",")
			p.printSpace()
			p.printExpr(s.Step, lua_ast.LLowest)
		}
		p.print(" do")
		p.printBodyThenEnd(s.Body)

	case *lua_ast.SGenericFor:
		p.printWord("for")
		p.print(" ")
		for i, name := range s.Names {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.print(name)
		}
		p.print(" in ")
		p.printExprList(s.Values)
		p.print(" do")
		p.printBodyThenEnd(s.Body)

	case *lua_ast.SDo:
		p.printWord("do")
		p.printBodyThenEnd(s.Body)

	case *lua_ast.SReturn, *lua_ast.SBreak, *lua_ast.SContinue:
		p.printJump(stmt)
		p.printStmtEnd()

	case *lua_ast.SComment:
		if p.options.MinifyWhitespace {
			return
		}
		for _, line := range strings.Split(s.Text, "\n") {
			if line == "" {
				p.print("--\n")
			} else {
				p.print("-- " + line + "\n")
			}
			p.printIndent()
		}
		p.lua = bytes.TrimRight(p.lua, " ")

	default:
		panic(fmt.Sprintf("Unexpected statement of type %T", stmt))
	}
}

func (p *printer) printNewlineOrSpace() {
	if p.options.MinifyWhitespace {
		p.print(" ")
	} else {
		p.print("\n")
	}
}

func (p *printer) printBodyThenEnd(body *lua_ast.Block) {
	if body == nil || len(body.Stmts) == 0 {
		p.print(" end")
		p.printStmtEnd()
		return
	}
	p.printNewlineOrSpace()
	p.printBlockBody(body)
	p.printIndent()
	p.printWord("end")
	p.printStmtEnd()
}

func (p *printer) printJump(stmt lua_ast.Stmt) {
	switch s := stmt.(type) {
	case *lua_ast.SReturn:
		p.printWord("return")
		if len(s.Values) > 0 {
			p.print(" ")
			p.printExprList(s.Values)
		}
	case *lua_ast.SBreak:
		p.printWord("break")
	case *lua_ast.SContinue:
		p.printWord("continue")
	}
}

// "if x then break end" stays on one line when the body is a single jump
// that itself fits on one line
func isCompactBody(s *lua_ast.SIf) bool {
	if s.No != nil || s.Yes == nil || len(s.Yes.Stmts) != 1 {
		return false
	}
	switch jump := s.Yes.Stmts[0].(type) {
	case *lua_ast.SBreak, *lua_ast.SContinue:
		return true
	case *lua_ast.SReturn:
		for _, value := range jump.Values {
			if !isSingleLine(value) {
				return false
			}
		}
		return true
	}
	return false
}

func isSingleLine(expr lua_ast.Expr) bool {
	result := true
	lua_ast.Visit(expr, func(node lua_ast.Node) bool {
		if _, ok := node.(*lua_ast.EFunction); ok {
			result = false
		}
		return result
	})
	return result
}

func (p *printer) printIf(s *lua_ast.SIf) {
	p.printWord("if")
	p.print(" ")
	p.printExpr(s.Test, lua_ast.LLowest)
	p.print(" then")

	if isCompactBody(s) {
		p.print(" ")
		p.printJump(s.Yes.Stmts[0])
		p.print(" end")
		p.printStmtEnd()
		return
	}

	p.printNewlineOrSpace()
	p.printBlockBody(s.Yes)

	for no := s.No; no != nil; {
		// An "else" holding nothing but another "if" becomes "elseif"
		if len(no.Stmts) == 1 {
			if elseIf, ok := no.Stmts[0].(*lua_ast.SIf); ok {
				p.printIndent()
				p.printWord("elseif")
				p.print(" ")
				p.printExpr(elseIf.Test, lua_ast.LLowest)
				p.print(" then")
				p.printNewlineOrSpace()
				p.printBlockBody(elseIf.Yes)
				no = elseIf.No
				continue
			}
		}
		if len(no.Stmts) > 0 {
			p.printIndent()
			p.printWord("else")
			p.printNewlineOrSpace()
			p.printBlockBody(no)
		}
		break
	}

	p.printIndent()
	p.printWord("end")
	p.printStmtEnd()
}

////////////////////////////////////////////////////////////////////////////////
// Functions

func (p *printer) printFnRest(fn *lua_ast.Fn) {
	p.print("(")
	for i, param := range fn.Params {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.print(param.Name)
		if p.options.EmitTypes && param.Type != nil {
			p.print(":")
			p.printSpace()
			p.printType(param.Type)
		}
	}
	if fn.IsVararg {
		if len(fn.Params) > 0 {
			p.print(",")
			p.printSpace()
		}
		p.print("...")
	}
	p.print(")")

	if p.options.EmitTypes && len(fn.ReturnTypes) > 0 {
		p.print(":")
		p.printSpace()
		p.printTypeList(fn.ReturnTypes)
	}

	if fn.Body == nil || len(fn.Body.Stmts) == 0 {
		p.print(" end")
		return
	}
	p.printNewlineOrSpace()
	p.printBlockBody(fn.Body)
	p.printIndent()
	p.printWord("end")
}

////////////////////////////////////////////////////////////////////////////////
// Expressions

func (p *printer) printExprList(list []lua_ast.Expr) {
	for i, expr := range list {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printExpr(expr, lua_ast.LLowest)
	}
}

// Only these can be called or indexed without parentheses
func isPrefixExpr(expr lua_ast.Expr) bool {
	switch expr.(type) {
	case *lua_ast.EIdentifier, *lua_ast.EDot, *lua_ast.EIndex, *lua_ast.ECall, *lua_ast.EMethodCall, *lua_ast.EParen:
		return true
	}
	return false
}

func (p *printer) printPrefixTarget(target lua_ast.Expr) {
	if isPrefixExpr(target) {
		p.printExpr(target, lua_ast.LLowest)
	} else {
		p.print("(")
		p.printExpr(target, lua_ast.LLowest)
		p.print(")")
	}
}

func (p *printer) printArgs(args []lua_ast.Expr) {
	p.print("(")
	p.printExprList(args)
	p.print(")")
}

func (p *printer) printExpr(expr lua_ast.Expr, level lua_ast.L) {
	switch e := expr.(type) {
	case *lua_ast.ENil:
		p.printWord("nil")

	case *lua_ast.EBoolean:
		if e.Value {
			p.printWord("true")
		} else {
			p.printWord("false")
		}

	case *lua_ast.ENumber:
		p.printNumber(e.Value, level)

	case *lua_ast.EString:
		p.print(helpers.QuoteForLua(e.Value))

	case *lua_ast.EVararg:
		p.print("...")

	case *lua_ast.EIdentifier:
		p.printName(e.Name)

	case *lua_ast.EDot:
		p.printPrefixTarget(e.Target)
		if lua_ast.IsIdentifier(e.Name) {
			p.print(".")
			p.print(e.Name)
		} else {
			p.print("[")
			p.print(helpers.QuoteForLua(e.Name))
			p.print("]")
		}

	case *lua_ast.EIndex:
		p.printPrefixTarget(e.Target)
		p.print("[")
		p.printExpr(e.Index, lua_ast.LLowest)
		p.print("]")

	case *lua_ast.ECall:
		p.printPrefixTarget(e.Target)
		p.printArgs(e.Args)

	case *lua_ast.EMethodCall:
		p.printPrefixTarget(e.Target)
		p.print(":")
		p.print(e.Name)
		p.printArgs(e.Args)

	case *lua_ast.EFunction:
		p.printWord("function")
		p.printFnRest(e.Fn)

	case *lua_ast.ETable:
		p.printTable(e)

	case *lua_ast.EParen:
		p.print("(")
		p.printExpr(e.Value, lua_ast.LLowest)
		p.print(")")

	case *lua_ast.EIfElse:
		wrap := level > lua_ast.LLowest
		if wrap {
			p.print("(")
		}
		p.printWord("if")
		p.print(" ")
		p.printExpr(e.Test, lua_ast.LLowest)
		p.print(" then ")
		p.printExpr(e.Yes, lua_ast.LLowest)
		p.print(" else ")
		p.printExpr(e.No, lua_ast.LLowest)
		if wrap {
			p.print(")")
		}

	case *lua_ast.EUnary:
		entry := lua_ast.OpTable[e.Op]
		wrap := level >= entry.Level
		if wrap {
			p.print("(")
		}
		switch e.Op {
		case lua_ast.UnOpNot:
			p.printWord("not")
			p.print(" ")
		case lua_ast.UnOpNeg:
			p.printMinus()
		default:
			p.print(entry.Text)
		}
		p.printExpr(e.Value, lua_ast.LPrefix-1)
		if wrap {
			p.print(")")
		}

	case *lua_ast.EBinary:
		entry := lua_ast.OpTable[e.Op]
		wrap := level >= entry.Level
		if wrap {
			p.print("(")
		}

		leftLevel := entry.Level - 1
		rightLevel := entry.Level - 1
		if e.Op.IsRightAssociative() {
			leftLevel = entry.Level
		} else {
			rightLevel = entry.Level
		}

		p.printExpr(e.Left, leftLevel)
		if entry.IsKeyword || e.Op == lua_ast.BinOpConcat {
			p.print(" ")
			p.print(entry.Text)
			p.print(" ")
		} else {
			p.printSpace()
			if e.Op == lua_ast.BinOpSub {
				p.printMinus()
			} else {
				p.print(entry.Text)
			}
			p.printSpace()
		}
		p.printExpr(e.Right, rightLevel)

		if wrap {
			p.print(")")
		}

	default:
		panic(fmt.Sprintf("Unexpected expression of type %T", expr))
	}
}

func (p *printer) printTable(e *lua_ast.ETable) {
	if len(e.Fields) == 0 {
		p.print("{}")
		return
	}
	p.print("{")
	p.printSpace()
	for i, field := range e.Fields {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		if field.Key != nil {
			p.print("[")
			p.printExpr(field.Key, lua_ast.LLowest)
			p.print("]")
			p.printSpace()
			p.print("=")
			p.printSpace()
		} else if field.Name != "" {
			if lua_ast.IsIdentifier(field.Name) {
				p.print(field.Name)
			} else {
				p.print("[")
				p.print(helpers.QuoteForLua(field.Name))
				p.print("]")
			}
			p.printSpace()
			p.print("=")
			p.printSpace()
		}
		p.printExpr(field.Value, lua_ast.LLowest)
	}
	p.printSpace()
	p.print("}")
}

func (p *printer) printNumber(value float64, level lua_ast.L) {
	if value != value {
		wrap := level >= lua_ast.LMultiply
		if wrap {
			p.print("(")
		}
		p.print("0/0")
		if wrap {
			p.print(")")
		}
		return
	}

	wrap := math.Signbit(value) && level >= lua_ast.LPrefix
	if wrap {
		p.print("(")
	}
	if math.Signbit(value) {
		p.printMinus()
	}

	absValue := math.Abs(value)
	if math.IsInf(absValue, 1) {
		p.printWord("math.huge")
	} else {
		p.printSpaceBeforeIdentifier()
		if absValue < 1e15 && absValue == math.Trunc(absValue) {
			p.print(strconv.FormatInt(int64(absValue), 10))
		} else {
			p.print(strconv.FormatFloat(absValue, 'g', -1, 64))
		}
	}

	if wrap {
		p.print(")")
	}
}

////////////////////////////////////////////////////////////////////////////////
// Types

func (p *printer) printTypeList(list []lua_ast.Type) {
	if len(list) == 1 {
		p.printType(list[0])
		return
	}
	p.print("(")
	for i, t := range list {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printType(t)
	}
	p.print(")")
}

func (p *printer) printType(t lua_ast.Type) {
	switch n := t.(type) {
	case *lua_ast.TName:
		p.print(n.Name)
		if len(n.Args) > 0 {
			p.print("<")
			for i, arg := range n.Args {
				if i > 0 {
					p.print(",")
					p.printSpace()
				}
				p.printType(arg)
			}
			p.print(">")
		}

	case *lua_ast.TOptional:
		if _, ok := n.Inner.(*lua_ast.TFunction); ok {
			p.print("(")
			p.printType(n.Inner)
			p.print(")")
		} else {
			p.printType(n.Inner)
		}
		p.print("?")

	case *lua_ast.TArray:
		p.print("{")
		p.printType(n.Elem)
		p.print("}")

	case *lua_ast.TMap:
		p.print("{[")
		p.printType(n.Key)
		p.print("]:")
		p.printSpace()
		p.printType(n.Value)
		p.print("}")

	case *lua_ast.TFunction:
		p.print("(")
		for i, param := range n.Params {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.printType(param)
		}
		p.print(")")
		p.printSpace()
		p.print("->")
		p.printSpace()
		if len(n.Returns) == 1 {
			p.printType(n.Returns[0])
		} else {
			p.print("(")
			for i, ret := range n.Returns {
				if i > 0 {
					p.print(",")
					p.printSpace()
				}
				p.printType(ret)
			}
			p.print(")")
		}

	default:
		panic(fmt.Sprintf("Unexpected type of type %T", t))
	}
}

func Print(chunk *lua_ast.Chunk, options Options) PrintResult {
	if options.IndentWidth <= 0 {
		options.IndentWidth = 4
	}
	p := &printer{options: options, indent: -1}
	p.printBlockBody(chunk.Body)

	if options.MinifyWhitespace {
		p.lua = bytes.TrimRight(p.lua, " ")
		if len(p.lua) > 0 {
			p.print("\n")
		}
	}
	return PrintResult{Lua: p.lua}
}

// Renders a single expression, for tests and diagnostics
func PrintExpr(expr lua_ast.Expr, options Options) string {
	p := &printer{options: options}
	p.printExpr(expr, lua_ast.LLowest)
	return string(p.lua)
}

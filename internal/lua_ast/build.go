package lua_ast

// Shorthand constructors used throughout lowering

func Id(name string) *EIdentifier { return &EIdentifier{Name: name} }
func Str(value string) *EString   { return &EString{Value: value} }
func Num(value float64) *ENumber  { return &ENumber{Value: value} }
func Nil() *ENil                  { return &ENil{} }
func Bool(value bool) *EBoolean   { return &EBoolean{Value: value} }

func Dot(target Expr, name string) Expr {
	return &EDot{Target: target, Name: name}
}

func Index(target Expr, index Expr) Expr {
	return &EIndex{Target: target, Index: index}
}

func Call(target Expr, args ...Expr) *ECall {
	return &ECall{Target: target, Args: args}
}

func MethodCall(target Expr, name string, args ...Expr) *EMethodCall {
	return &EMethodCall{Target: target, Name: name, Args: args}
}

func Bin(op OpCode, left Expr, right Expr) Expr {
	return &EBinary{Op: op, Left: left, Right: right}
}

func Un(op OpCode, value Expr) Expr {
	return &EUnary{Op: op, Value: value}
}

// Negates a condition, folding double negation and flipping "==" and "~="
func Not(value Expr) Expr {
	switch e := value.(type) {
	case *EUnary:
		if e.Op == UnOpNot {
			return e.Value
		}
	case *EBoolean:
		return Bool(!e.Value)
	case *EBinary:
		switch e.Op {
		case BinOpEq:
			return Bin(BinOpNe, e.Left, e.Right)
		case BinOpNe:
			return Bin(BinOpEq, e.Left, e.Right)
		}
	}
	return Un(UnOpNot, value)
}

func And(left Expr, right Expr) Expr {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return Bin(BinOpAnd, left, right)
}

func Or(left Expr, right Expr) Expr {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return Bin(BinOpOr, left, right)
}

func Func(params []string, body ...Stmt) *EFunction {
	return &EFunction{Fn: NewFn(params, body...)}
}

func NewFn(params []string, body ...Stmt) *Fn {
	fn := &Fn{Body: &Block{Stmts: body}}
	for _, name := range params {
		fn.Params = append(fn.Params, Param{Name: name})
	}
	return fn
}

func Local(name string, value Expr) *SLocal {
	s := &SLocal{Names: []string{name}}
	if value != nil {
		s.Values = []Expr{value}
	}
	return s
}

func Assign(target Expr, value Expr) *SAssign {
	return &SAssign{Targets: []Expr{target}, Values: []Expr{value}}
}

func Return(values ...Expr) *SReturn {
	return &SReturn{Values: values}
}

func CallStmt(call Expr) *SCall {
	return &SCall{Call: call}
}

func If(test Expr, yes []Stmt, no []Stmt) *SIf {
	s := &SIf{Test: test, Yes: &Block{Stmts: yes}}
	if no != nil {
		s.No = &Block{Stmts: no}
	}
	return s
}

func NewBlock(stmts ...Stmt) *Block {
	return &Block{Stmts: stmts}
}

// Whether a call result is used as a statement as-is
func IsCall(expr Expr) bool {
	switch expr.(type) {
	case *ECall, *EMethodCall:
		return true
	}
	return false
}

// Whether the last statement of a block unconditionally leaves it
func EndsWithJump(stmts []Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	switch s := stmts[len(stmts)-1].(type) {
	case *SReturn, *SBreak, *SContinue:
		return true
	case *SDo:
		return EndsWithJump(s.Body.Stmts)
	}
	return false
}

var Keywords = map[string]bool{
	"and":      true,
	"break":    true,
	"continue": true,
	"do":       true,
	"else":     true,
	"elseif":   true,
	"end":      true,
	"false":    true,
	"for":      true,
	"function": true,
	"if":       true,
	"in":       true,
	"local":    true,
	"nil":      true,
	"not":      true,
	"or":       true,
	"repeat":   true,
	"return":   true,
	"then":     true,
	"true":     true,
	"until":    true,
	"while":    true,
}

// "continue" is contextual in Luau but is still avoided as a name
func IsIdentifier(text string) bool {
	if text == "" || Keywords[text] {
		return false
	}
	for i, c := range text {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

package lua_ast

// The output tree. Nodes are built bottom-up and never edited afterwards:
// lowering a construct builds new nodes, and a sub-tree needed in two places
// is copied with Clone. Link then checks that every node has one parent.

type Node interface {
	Parent() Node

	// The macro that produced this node, or "" if it wasn't a macro
	ExpandedBy() string
	SetExpandedBy(macro string)

	Children() []Node
	base() *NodeBase
}

type NodeBase struct {
	parent     Node
	expandedBy string
}

func (n *NodeBase) Parent() Node       { return n.parent }
func (n *NodeBase) ExpandedBy() string { return n.expandedBy }
func (n *NodeBase) base() *NodeBase    { return n }

// Tags may only be set once. A second expansion of the same node means two
// macros claimed it, which is a bug in the macro table.
func (n *NodeBase) SetExpandedBy(macro string) {
	if n.expandedBy != "" {
		panic("Internal error: node expanded by \"" + n.expandedBy + "\" is also claimed by \"" + macro + "\"")
	}
	n.expandedBy = macro
}

type Stmt interface {
	Node
	isStmt()
}

type Expr interface {
	Node
	isExpr()
}

type Type interface {
	Node
	isType()
}

type Chunk struct {
	NodeBase
	Body *Block
}

type Block struct {
	NodeBase
	Stmts []Stmt
}

////////////////////////////////////////////////////////////////////////////////
// Statements

// "local a, b = x, y". Types may be nil or hold nil entries.
type SLocal struct {
	NodeBase
	Names  []string
	Types  []Type
	Values []Expr
}

type SLocalFunction struct {
	NodeBase
	Name string
	Fn   *Fn
}

// "function Name.path(...)" or "function Name:method(...)"
type SFunction struct {
	NodeBase
	Path     []string
	IsMethod bool
	Fn       *Fn
}

type SAssign struct {
	NodeBase
	Targets []Expr
	Values  []Expr
}

// Luau compound assignment, "a += b"
type SCompoundAssign struct {
	NodeBase
	Op     OpCode
	Target Expr
	Value  Expr
}

// A call in statement position. Only calls may be statements.
type SCall struct {
	NodeBase
	Call Expr
}

// An "else" block holding a single "if" is printed as "elseif"
type SIf struct {
	NodeBase
	Test Expr
	Yes  *Block
	No   *Block
}

type SWhile struct {
	NodeBase
	Test Expr
	Body *Block
}

type SRepeat struct {
	NodeBase
	Body  *Block
	Until Expr
}

type SNumericFor struct {
	NodeBase
	Name  string
	Start Expr
	Stop  Expr
	Step  Expr
	Body  *Block
}

type SGenericFor struct {
	NodeBase
	Names  []string
	Values []Expr
	Body   *Block
}

type SDo struct {
	NodeBase
	Body *Block
}

type SReturn struct {
	NodeBase
	Values []Expr
}

type SBreak struct{ NodeBase }

type SContinue struct{ NodeBase }

type SComment struct {
	NodeBase
	Text string
}

func (*SLocal) isStmt()          {}
func (*SLocalFunction) isStmt()  {}
func (*SFunction) isStmt()       {}
func (*SAssign) isStmt()         {}
func (*SCompoundAssign) isStmt() {}
func (*SCall) isStmt()           {}
func (*SIf) isStmt()             {}
func (*SWhile) isStmt()          {}
func (*SRepeat) isStmt()         {}
func (*SNumericFor) isStmt()     {}
func (*SGenericFor) isStmt()     {}
func (*SDo) isStmt()             {}
func (*SReturn) isStmt()         {}
func (*SBreak) isStmt()          {}
func (*SContinue) isStmt()       {}
func (*SComment) isStmt()        {}

////////////////////////////////////////////////////////////////////////////////
// Expressions

type ENil struct{ NodeBase }

type EBoolean struct {
	NodeBase
	Value bool
}

type ENumber struct {
	NodeBase
	Value float64
}

type EString struct {
	NodeBase
	Value string
}

type EVararg struct{ NodeBase }

type EIdentifier struct {
	NodeBase
	Name string
}

type EDot struct {
	NodeBase
	Target Expr
	Name   string
}

type EIndex struct {
	NodeBase
	Target Expr
	Index  Expr
}

type ECall struct {
	NodeBase
	Target Expr
	Args   []Expr
}

type EMethodCall struct {
	NodeBase
	Target Expr
	Name   string
	Args   []Expr
}

type Param struct {
	Name string
	Type Type
}

type Fn struct {
	NodeBase
	Params      []Param
	IsVararg    bool
	ReturnTypes []Type
	Body        *Block
}

type EFunction struct {
	NodeBase
	Fn *Fn
}

// Exactly one of "Key" and "Name" is set for keyed fields. Positional fields
// have neither.
type TableField struct {
	Key   Expr
	Name  string
	Value Expr
}

type ETable struct {
	NodeBase
	Fields []TableField
}

type EBinary struct {
	NodeBase
	Op    OpCode
	Left  Expr
	Right Expr
}

type EUnary struct {
	NodeBase
	Op    OpCode
	Value Expr
}

// Luau "if a then b else c"
type EIfElse struct {
	NodeBase
	Test Expr
	Yes  Expr
	No   Expr
}

// Parentheses truncate multiple results to one, so they are kept explicit
type EParen struct {
	NodeBase
	Value Expr
}

func (*ENil) isExpr()        {}
func (*EBoolean) isExpr()    {}
func (*ENumber) isExpr()     {}
func (*EString) isExpr()     {}
func (*EVararg) isExpr()     {}
func (*EIdentifier) isExpr() {}
func (*EDot) isExpr()        {}
func (*EIndex) isExpr()      {}
func (*ECall) isExpr()       {}
func (*EMethodCall) isExpr() {}
func (*EFunction) isExpr()   {}
func (*ETable) isExpr()      {}
func (*EBinary) isExpr()     {}
func (*EUnary) isExpr()      {}
func (*EIfElse) isExpr()     {}
func (*EParen) isExpr()      {}

////////////////////////////////////////////////////////////////////////////////
// Luau type annotations

type TName struct {
	NodeBase
	Name string
	Args []Type
}

type TOptional struct {
	NodeBase
	Inner Type
}

// "{T}"
type TArray struct {
	NodeBase
	Elem Type
}

// "{[K]: V}"
type TMap struct {
	NodeBase
	Key   Type
	Value Type
}

type TFunction struct {
	NodeBase
	Params  []Type
	Returns []Type
}

func (*TName) isType()     {}
func (*TOptional) isType() {}
func (*TArray) isType()    {}
func (*TMap) isType()      {}
func (*TFunction) isType() {}

////////////////////////////////////////////////////////////////////////////////
// Operators

type OpCode uint8

const (
	// Unary
	UnOpNot OpCode = iota
	UnOpNeg
	UnOpLen

	// Binary
	BinOpOr
	BinOpAnd
	BinOpLt
	BinOpGt
	BinOpLe
	BinOpGe
	BinOpNe
	BinOpEq
	BinOpConcat
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpFloorDiv
	BinOpMod
	BinOpPow
)

// Higher binds tighter
type L uint8

const (
	LLowest L = iota
	LOr
	LAnd
	LCompare
	LConcat
	LAdd
	LMultiply
	LPrefix
	LPow
)

type opTableEntry struct {
	Text      string
	Level     L
	IsKeyword bool
}

var OpTable = []opTableEntry{
	// Unary
	{"not", LPrefix, true},
	{"-", LPrefix, false},
	{"#", LPrefix, false},

	// Binary
	{"or", LOr, true},
	{"and", LAnd, true},
	{"<", LCompare, false},
	{">", LCompare, false},
	{"<=", LCompare, false},
	{">=", LCompare, false},
	{"~=", LCompare, false},
	{"==", LCompare, false},
	{"..", LConcat, false},
	{"+", LAdd, false},
	{"-", LAdd, false},
	{"*", LMultiply, false},
	{"/", LMultiply, false},
	{"//", LMultiply, false},
	{"%", LMultiply, false},
	{"^", LPow, false},
}

func (op OpCode) IsUnary() bool {
	return op <= UnOpLen
}

// ".." and "^" are the only right-associative binary operators
func (op OpCode) IsRightAssociative() bool {
	return op == BinOpConcat || op == BinOpPow
}

// Luau has compound assignment for every arithmetic operator and ".."
func (op OpCode) HasCompoundForm() bool {
	return op >= BinOpConcat
}

package cs_ast

import "github.com/luasharp/luasharp/internal/logger"

// This is the resolved syntax tree the front end hands over. Every identifier,
// member access and call carries the symbol it resolved to, and every
// expression carries its type. Lowering never resolves names on its own.

type OpCode int

func (op OpCode) IsPrefix() bool {
	return op < UnOpPostDec
}

func (op OpCode) IsUpdate() bool {
	return op >= UnOpPreDec && op <= UnOpPostInc
}

func (op OpCode) IsIncrement() bool {
	return op == UnOpPreInc || op == UnOpPostInc
}

func (op OpCode) IsAssign() bool {
	return op >= BinOpAssign
}

// For "a += b" this returns "+"
func (op OpCode) CompoundBase() OpCode {
	switch op {
	case BinOpAddAssign:
		return BinOpAdd
	case BinOpSubAssign:
		return BinOpSub
	case BinOpMulAssign:
		return BinOpMul
	case BinOpDivAssign:
		return BinOpDiv
	case BinOpRemAssign:
		return BinOpRem
	case BinOpShlAssign:
		return BinOpShl
	case BinOpShrAssign:
		return BinOpShr
	case BinOpBitwiseOrAssign:
		return BinOpBitwiseOr
	case BinOpBitwiseAndAssign:
		return BinOpBitwiseAnd
	case BinOpBitwiseXorAssign:
		return BinOpBitwiseXor
	case BinOpNullCoalescingAssign:
		return BinOpNullCoalescing
	}
	panic("Internal error")
}

func (op OpCode) IsComparison() bool {
	return op >= BinOpLt && op <= BinOpNe
}

// If you add a new operator, remember to add it to "OpTable" too
const (
	// Prefix
	UnOpPos OpCode = iota
	UnOpNeg
	UnOpCpl
	UnOpNot

	// Prefix update
	UnOpPreDec
	UnOpPreInc

	// Postfix update
	UnOpPostDec
	UnOpPostInc

	// Binary
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpRem
	BinOpLt
	BinOpLe
	BinOpGt
	BinOpGe
	BinOpEq
	BinOpNe
	BinOpShl
	BinOpShr
	BinOpBitwiseOr
	BinOpBitwiseAnd
	BinOpBitwiseXor
	BinOpLogicalOr
	BinOpLogicalAnd
	BinOpNullCoalescing

	// Assignment
	BinOpAssign
	BinOpAddAssign
	BinOpSubAssign
	BinOpMulAssign
	BinOpDivAssign
	BinOpRemAssign
	BinOpShlAssign
	BinOpShrAssign
	BinOpBitwiseOrAssign
	BinOpBitwiseAndAssign
	BinOpBitwiseXorAssign
	BinOpNullCoalescingAssign
)

var OpTable = []string{
	// Prefix
	"+",
	"-",
	"~",
	"!",

	// Prefix update
	"--",
	"++",

	// Postfix update
	"post--",
	"post++",

	// Binary
	"+",
	"-",
	"*",
	"/",
	"%",
	"<",
	"<=",
	">",
	">=",
	"==",
	"!=",
	"<<",
	">>",
	"|",
	"&",
	"^",
	"||",
	"&&",
	"??",

	// Assignment
	"=",
	"+=",
	"-=",
	"*=",
	"/=",
	"%=",
	"<<=",
	">>=",
	"|=",
	"&=",
	"^=",
	"??=",
}

////////////////////////////////////////////////////////////////////////////////
// Types and symbols

type TypeKind uint8

const (
	TypeUnknown TypeKind = iota
	TypeVoid
	TypeNull
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeChar
	TypeObject
	TypeArray
	TypeClass
	TypeStruct
	TypeInterface
	TypeEnum
	TypeDelegate
	TypeTuple
	TypeNullable
	TypeParameter
)

type Type struct {
	Kind TypeKind

	// The simple name, without namespace or generic arguments ("List", "int")
	Name string

	// Generic arguments. Arrays keep their element type in Args[0], nullable
	// types their underlying type, tuples their element types and delegates
	// their parameter types followed by the return type.
	Args []*Type

	// Element names of a named tuple ("(int X, int Y)"), "" for unnamed ones
	TupleNames []string

	// The declaring type symbol, nil for primitives
	Decl *Symbol
}

func (t *Type) Is(kind TypeKind) bool {
	return t != nil && t.Kind == kind
}

func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == TypeInt || t.Kind == TypeFloat || t.Kind == TypeChar)
}

// Arrays and "List<T>" are both emitted as plain Luau arrays
func (t *Type) IsArrayLike() bool {
	return t != nil && (t.Kind == TypeArray || (t.Kind == TypeClass && t.Name == "List" && t.Decl != nil && t.Decl.IsBuiltin))
}

func (t *Type) IsBuiltinNamed(name string) bool {
	return t != nil && t.Name == name && t.Decl != nil && t.Decl.IsBuiltin
}

func (t *Type) ElementType() *Type {
	if t != nil && len(t.Args) > 0 {
		return t.Args[0]
	}
	return nil
}

type SymbolKind uint8

const (
	SymbolLocal SymbolKind = iota
	SymbolParameter
	SymbolLocalFunction
	SymbolField
	SymbolProperty
	SymbolMethod
	SymbolConstructor
	SymbolEvent
	SymbolEnumMember
	SymbolType
)

func (kind SymbolKind) IsMember() bool {
	return kind >= SymbolField && kind <= SymbolEnumMember
}

type RefKind uint8

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

type Param struct {
	Name    string
	Type    *Type
	RefKind RefKind
	Default *Expr
}

type Symbol struct {
	Kind    SymbolKind
	Name    string
	RefKind RefKind

	IsStatic bool

	// Library members have no generated declaration. Calls against them are
	// either macros or left as ordinary calls.
	IsBuiltin bool

	// Auto-properties are stored like fields. Accessor properties go through
	// "get_X" and "set_X" methods.
	IsAutoProperty bool

	IsAsync    bool
	IsIterator bool

	// Static library methods callable as "receiver.Method(...)", e.g. the
	// "Enumerable" queries. The receiver is the target of the member access.
	IsExtension bool

	// The type this member is declared in, nil for locals and parameters
	ContainingType *Symbol

	// Locals, parameters, fields, properties and events: the declared type.
	// Methods: the return type. Types: the type itself.
	Type *Type

	// Methods, constructors and local functions
	Params []Param

	// Generic type parameters of types and methods, referenced by
	// "TypeParameter" types of the same name
	TypeParams []string

	// Types only
	Base       *Symbol
	Interfaces []*Symbol
	Members    map[string][]*Symbol
}

// Looks a member up through the base-type chain. Overloads are returned in
// declaration order, derived types first.
func (s *Symbol) LookupMember(name string) []*Symbol {
	var result []*Symbol
	for t := s; t != nil; t = t.Base {
		result = append(result, t.Members[name]...)
	}
	return result
}

func (s *Symbol) AddMember(member *Symbol) {
	if s.Members == nil {
		s.Members = make(map[string][]*Symbol)
	}
	member.ContainingType = s
	s.Members[member.Name] = append(s.Members[member.Name], member)
}

// True if "base" is this type or one of its base types
func (s *Symbol) DerivesFrom(base *Symbol) bool {
	for t := s; t != nil; t = t.Base {
		if t == base {
			return true
		}
	}
	return false
}

// Methods with by-ref parameters return their final values after the return
// value
func (s *Symbol) ByRefParams() []int {
	var result []int
	for i, param := range s.Params {
		if param.RefKind == RefRef || param.RefKind == RefOut {
			result = append(result, i)
		}
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// Declarations

type Unit struct {
	Decls []Decl

	// Top-level statements
	Stmts []Stmt
}

type Decl struct {
	Loc  logger.Loc
	Data D
}

type D interface{ isDecl() }

type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindStruct
)

type DClass struct {
	Symbol  *Symbol
	Kind    ClassKind
	Members []Member
}

type DInterface struct {
	Symbol *Symbol
}

type EnumValue struct {
	Loc    logger.Loc
	Symbol *Symbol
	Value  *Expr
}

type DEnum struct {
	Symbol *Symbol
	Values []EnumValue
}

type DNamespace struct {
	Name  string
	Decls []Decl
}

func (*DClass) isDecl()     {}
func (*DInterface) isDecl() {}
func (*DEnum) isDecl()      {}
func (*DNamespace) isDecl() {}

type Member struct {
	Loc  logger.Loc
	Data M
}

type M interface{ isMember() }

type MField struct {
	Symbol *Symbol
	Init   *Expr
}

// Auto-properties have neither getter nor setter
type MProperty struct {
	Symbol *Symbol
	Getter *Fn
	Setter *Fn
	Init   *Expr
}

type MMethod struct {
	Symbol *Symbol
	Fn     Fn
}

type MConstructor struct {
	Symbol *Symbol
	Fn     Fn

	// ": base(...)" initializer, nil if there is none
	BaseArgs []Arg
	HasBase  bool
}

type MEvent struct {
	Symbol *Symbol
}

func (*MField) isMember()       {}
func (*MProperty) isMember()    {}
func (*MMethod) isMember()      {}
func (*MConstructor) isMember() {}
func (*MEvent) isMember()       {}

type FnArg struct {
	Loc    logger.Loc
	Symbol *Symbol
}

type Fn struct {
	Loc  logger.Loc
	Args []FnArg
	Body []Stmt

	// Set for lambdas written "x => expr"
	IsExprBody bool
}

////////////////////////////////////////////////////////////////////////////////
// Statements

type Stmt struct {
	Loc  logger.Loc
	Data S
}

// Kind is what the transformer registry dispatches on
type S interface{ Kind() Kind }

type SBlock struct{ Stmts []Stmt }

type SEmpty struct{}

type LocalDecl struct {
	Loc    logger.Loc
	Symbol *Symbol
	Value  *Expr
}

type SLocal struct {
	Decls []LocalDecl

	// "using var x = ...;" disposes "x" at the end of the enclosing block
	IsUsing      bool
	IsAwaitUsing bool
}

type SLocalFunction struct {
	Symbol *Symbol
	Fn     Fn
}

type SExpr struct{ Value Expr }

type SIf struct {
	Test Expr
	Yes  Stmt
	No   *Stmt
}

type SWhile struct {
	Test Expr
	Body Stmt
}

type SDoWhile struct {
	Body Stmt
	Test Expr
}

type SFor struct {
	Init   []Stmt
	Test   *Expr
	Update []Expr
	Body   Stmt
}

// Either "Symbol" is set ("foreach (var x in xs)") or "Designation" is
// ("foreach (var (k, v) in dict)")
type SForEach struct {
	Symbol      *Symbol
	Designation *Designation
	Value       Expr
	Body        Stmt
}

type SBreak struct{}

type SContinue struct{}

type SReturn struct{ Value *Expr }

// A nil value is a rethrow
type SThrow struct{ Value *Expr }

type SYieldReturn struct{ Value Expr }

type SYieldBreak struct{}

type Catch struct {
	Loc    logger.Loc
	Type   *Type
	Symbol *Symbol
	Filter *Expr
	Body   []Stmt
}

type STry struct {
	Body       []Stmt
	Catches    []Catch
	Finally    []Stmt
	HasFinally bool
}

// Exactly one of "Decls" and "Value" is set
type SUsing struct {
	Decls   *SLocal
	Value   *Expr
	Body    Stmt
	IsAwait bool
}

type SwitchLabelKind uint8

const (
	LabelCase SwitchLabelKind = iota
	LabelPattern
	LabelDefault
)

type SwitchLabel struct {
	Loc     logger.Loc
	Kind    SwitchLabelKind
	Value   Expr    // LabelCase
	Pattern Pattern // LabelPattern
	Guard   *Expr   // LabelPattern
}

type SwitchSection struct {
	Loc    logger.Loc
	Labels []SwitchLabel
	Body   []Stmt
}

type SSwitch struct {
	Test     Expr
	Sections []SwitchSection
}

////////////////////////////////////////////////////////////////////////////////
// Expressions

type Expr struct {
	Loc  logger.Loc
	Data E
	Type *Type
}

type E interface{ Kind() Kind }

type ENull struct{}

type EBoolean struct{ Value bool }

type ENumber struct {
	Value float64

	// The literal as written, used to preserve formatting like "0x10"
	Raw string
}

type EString struct{ Value string }

type EChar struct{ Value rune }

// Literal parts are "EString" expressions
type EInterpolated struct{ Parts []Expr }

type EIdentifier struct{ Symbol *Symbol }

type EThis struct{}

type EBase struct{}

// A type used as an expression, e.g. "Math" in "Math.Abs(x)"
type ETypeRef struct{ Type *Type }

type EMember struct {
	Target     Expr
	Name       string
	Symbol     *Symbol
	IsOptional bool
}

type EIndex struct {
	Target     Expr
	Index      Expr
	IsOptional bool
}

type Arg struct {
	Loc     logger.Loc
	Value   Expr
	RefKind RefKind
}

type ECall struct {
	Target Expr
	Args   []Arg

	// The resolved method. Nil when calling a delegate-typed value.
	Symbol *Symbol
}

type InitializerKind uint8

const (
	InitObject InitializerKind = iota
	InitCollection
	InitDictionary
)

type MemberInit struct {
	Loc    logger.Loc
	Name   string
	Symbol *Symbol
	Value  Expr
}

type KeyValueInit struct {
	Key   Expr
	Value Expr
}

type Initializer struct {
	Kind    InitializerKind
	Members []MemberInit
	Items   []Expr
	Pairs   []KeyValueInit
}

type ENew struct {
	Type   *Type
	Args   []Arg
	Symbol *Symbol // The constructor, nil for types without one
	Init   *Initializer
}

// "new T[] { ... }" or "new T[n]"
type EArray struct {
	Items []Expr
	Size  *Expr
}

type EUnary struct {
	Op    OpCode
	Value Expr
}

type EBinary struct {
	Op    OpCode
	Left  Expr
	Right Expr
}

type EConditional struct {
	Test Expr
	Yes  Expr
	No   Expr
}

type EIs struct {
	Value   Expr
	Pattern Pattern
}

type EAs struct {
	Value  Expr
	Target *Type
}

type ECast struct {
	Target *Type
	Value  Expr
}

type ELambda struct {
	Fn      Fn
	IsAsync bool
}

type SwitchArm struct {
	Loc     logger.Loc
	Pattern Pattern
	Guard   *Expr
	Value   Expr
}

type ESwitch struct {
	Test Expr
	Arms []SwitchArm
}

type ETuple struct {
	Items []Expr
	Names []string
}

type EAwait struct{ Value Expr }

type EDefault struct{ Target *Type }

type ENameof struct{ Name string }

////////////////////////////////////////////////////////////////////////////////
// Patterns

type Pattern struct {
	Loc  logger.Loc
	Data P
}

type P interface{ isPattern() }

type PDiscard struct{}

type PConstant struct{ Value Expr }

// "< 5", ">= x"
type PRelational struct {
	Op    OpCode
	Value Expr
}

type PType struct{ Type *Type }

type PDeclaration struct {
	Type        *Type
	Designation Designation
}

type PVar struct{ Designation Designation }

// "Op" is BinOpLogicalAnd or BinOpLogicalOr
type PBinary struct {
	Op    OpCode
	Left  Pattern
	Right Pattern
}

type PNot struct{ Value Pattern }

type PParenthesized struct{ Value Pattern }

// A ".." slice, optionally followed by a pattern for the sliced part
type PSlice struct{ Value *Pattern }

type PList struct {
	Items       []Pattern
	Designation *Designation
}

type PropertySubpattern struct {
	Loc     logger.Loc
	Name    string
	Symbol  *Symbol
	Pattern Pattern
}

// "Point(var x, _) { Y: > 0 } p". Positional subpatterns without a type are
// tuple patterns.
type PRecursive struct {
	Type          *Type
	Positional    []Pattern
	HasPositional bool
	Properties    []PropertySubpattern
	HasProperties bool
	Designation   *Designation
}

func (*PDiscard) isPattern()       {}
func (*PConstant) isPattern()      {}
func (*PRelational) isPattern()    {}
func (*PType) isPattern()          {}
func (*PDeclaration) isPattern()   {}
func (*PVar) isPattern()           {}
func (*PBinary) isPattern()        {}
func (*PNot) isPattern()           {}
func (*PParenthesized) isPattern() {}
func (*PSlice) isPattern()         {}
func (*PList) isPattern()          {}
func (*PRecursive) isPattern()     {}

type Designation struct {
	Loc  logger.Loc
	Data B
}

type B interface{ isDesignation() }

type BSingle struct{ Symbol *Symbol }

type BDiscard struct{}

// "var (a, b)"
type BParenthesized struct{ Items []Designation }

func (*BSingle) isDesignation()        {}
func (*BDiscard) isDesignation()       {}
func (*BParenthesized) isDesignation() {}

// Every symbol a designation binds, in source order
func (d Designation) Symbols() []*Symbol {
	switch b := d.Data.(type) {
	case *BSingle:
		return []*Symbol{b.Symbol}
	case *BParenthesized:
		var result []*Symbol
		for _, item := range b.Items {
			result = append(result, item.Symbols()...)
		}
		return result
	}
	return nil
}

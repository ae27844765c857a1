package cs_ast

import "github.com/luasharp/luasharp/internal/logger"

// Primitive types are shared. Nothing may mutate them.
var (
	VoidType   = &Type{Kind: TypeVoid, Name: "void"}
	NullType   = &Type{Kind: TypeNull, Name: "null"}
	BoolType   = &Type{Kind: TypeBool, Name: "bool"}
	IntType    = &Type{Kind: TypeInt, Name: "int"}
	FloatType  = &Type{Kind: TypeFloat, Name: "double"}
	StringType = &Type{Kind: TypeString, Name: "string"}
	CharType   = &Type{Kind: TypeChar, Name: "char"}
	ObjectType = &Type{Kind: TypeObject, Name: "object"}
)

func ArrayOf(elem *Type) *Type {
	return &Type{Kind: TypeArray, Name: "Array", Args: []*Type{elem}}
}

func NullableOf(t *Type) *Type {
	if t.Kind == TypeNullable {
		return t
	}
	return &Type{Kind: TypeNullable, Name: t.Name, Args: []*Type{t}}
}

// Strips "?" from nullable value types
func Underlying(t *Type) *Type {
	if t != nil && t.Kind == TypeNullable && len(t.Args) == 1 {
		return t.Args[0]
	}
	return t
}

func (t *Type) String() string {
	if t == nil {
		return "?"
	}
	switch t.Kind {
	case TypeArray:
		return t.Args[0].String() + "[]"
	case TypeNullable:
		return t.Args[0].String() + "?"
	case TypeTuple:
		text := "("
		for i, arg := range t.Args {
			if i > 0 {
				text += ", "
			}
			text += arg.String()
			if i < len(t.TupleNames) && t.TupleNames[i] != "" {
				text += " " + t.TupleNames[i]
			}
		}
		return text + ")"
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	text := t.Name + "<"
	for i, arg := range t.Args {
		if i > 0 {
			text += ", "
		}
		text += arg.String()
	}
	return text + ">"
}

func Block(loc logger.Loc, stmts []Stmt) Stmt {
	return Stmt{Loc: loc, Data: &SBlock{Stmts: stmts}}
}

// Statements of a block, or the statement itself
func StmtsOf(stmt Stmt) []Stmt {
	if block, ok := stmt.Data.(*SBlock); ok {
		return block.Stmts
	}
	return []Stmt{stmt}
}

// Reports whether the statement list contains a node matching "visit",
// without descending into lambdas or local functions
func ContainsStmt(stmts []Stmt, visit func(S) bool) bool {
	for _, stmt := range stmts {
		if containsStmt(stmt, visit) {
			return true
		}
	}
	return false
}

func containsStmt(stmt Stmt, visit func(S) bool) bool {
	if visit(stmt.Data) {
		return true
	}
	switch s := stmt.Data.(type) {
	case *SBlock:
		return ContainsStmt(s.Stmts, visit)
	case *SIf:
		if containsStmt(s.Yes, visit) {
			return true
		}
		return s.No != nil && containsStmt(*s.No, visit)
	case *SWhile:
		return containsStmt(s.Body, visit)
	case *SDoWhile:
		return containsStmt(s.Body, visit)
	case *SFor:
		return ContainsStmt(s.Init, visit) || containsStmt(s.Body, visit)
	case *SForEach:
		return containsStmt(s.Body, visit)
	case *STry:
		if ContainsStmt(s.Body, visit) || ContainsStmt(s.Finally, visit) {
			return true
		}
		for _, c := range s.Catches {
			if ContainsStmt(c.Body, visit) {
				return true
			}
		}
	case *SUsing:
		return containsStmt(s.Body, visit)
	case *SSwitch:
		for _, section := range s.Sections {
			if ContainsStmt(section.Body, visit) {
				return true
			}
		}
	}
	return false
}

// Replaces type parameters by the types bound to them. Unbound parameters
// are left alone.
func Substitute(t *Type, bindings map[string]*Type) *Type {
	if t == nil || len(bindings) == 0 {
		return t
	}
	if t.Kind == TypeParameter {
		if bound, ok := bindings[t.Name]; ok {
			return bound
		}
		return t
	}
	if len(t.Args) == 0 {
		return t
	}
	clone := *t
	clone.Args = make([]*Type, len(t.Args))
	for i, arg := range t.Args {
		clone.Args[i] = Substitute(arg, bindings)
	}
	return &clone
}

// Binds the type parameters of a generic type declaration to the arguments
// of one of its instantiations
func BindingsFor(t *Type) map[string]*Type {
	if t == nil || t.Decl == nil || len(t.Decl.TypeParams) == 0 {
		return nil
	}
	bindings := make(map[string]*Type)
	for i, name := range t.Decl.TypeParams {
		if i < len(t.Args) {
			bindings[name] = t.Args[i]
		}
	}
	return bindings
}

package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Luau annotations for source types. Classes have no Luau type declaration,
// so instances of them are "any".
func (ctx *Context) luauType(t *cs_ast.Type) lua_ast.Type {
	if t == nil || t.Kind == cs_ast.TypeVoid {
		return nil
	}
	return luauTypeOf(t)
}

func luauTypeOf(t *cs_ast.Type) lua_ast.Type {
	switch t.Kind {
	case cs_ast.TypeBool:
		return &lua_ast.TName{Name: "boolean"}
	case cs_ast.TypeInt, cs_ast.TypeFloat, cs_ast.TypeEnum:
		return &lua_ast.TName{Name: "number"}
	case cs_ast.TypeString, cs_ast.TypeChar:
		return &lua_ast.TName{Name: "string"}
	case cs_ast.TypeNull:
		return &lua_ast.TName{Name: "nil"}

	case cs_ast.TypeNullable:
		if inner := t.ElementType(); inner != nil {
			return &lua_ast.TOptional{Inner: luauTypeOf(inner)}
		}

	case cs_ast.TypeArray:
		if elem := t.ElementType(); elem != nil {
			return &lua_ast.TArray{Elem: luauTypeOf(elem)}
		}

	case cs_ast.TypeClass:
		switch {
		case t.IsBuiltinNamed("List") && len(t.Args) == 1:
			return &lua_ast.TArray{Elem: luauTypeOf(t.Args[0])}
		case t.IsBuiltinNamed("Dictionary") && len(t.Args) == 2:
			return &lua_ast.TMap{Key: luauTypeOf(t.Args[0]), Value: luauTypeOf(t.Args[1])}
		case t.IsBuiltinNamed("HashSet") && len(t.Args) == 1:
			return &lua_ast.TMap{Key: luauTypeOf(t.Args[0]), Value: &lua_ast.TName{Name: "boolean"}}
		}

	case cs_ast.TypeDelegate:
		fn := &lua_ast.TFunction{}
		params, result := t.Args, delegateReturnType(t)
		if t.Name == "Func" && len(params) > 0 {
			params = params[:len(params)-1]
		}
		for _, param := range params {
			fn.Params = append(fn.Params, luauTypeOf(param))
		}
		if result != nil && result.Kind != cs_ast.TypeVoid {
			fn.Returns = append(fn.Returns, luauTypeOf(result))
		}
		return fn
	}
	return &lua_ast.TName{Name: "any"}
}

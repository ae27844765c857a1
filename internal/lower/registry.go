package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// A transformer either lowers a node and returns true, or declines and lets
// the next transformer registered for the same kind try. An expression
// transformer may return a nil expression only for an expression statement,
// after hoisting everything it produced.
type StmtTransformer func(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool)
type ExprTransformer func(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool)

type Registry struct {
	stmts map[cs_ast.Kind][]StmtTransformer
	exprs map[cs_ast.Kind][]ExprTransformer

	// Used when every transformer of a kind declined. There is no node
	// that can be copied to the output unchanged, so the defaults report an
	// internal error.
	DefaultStmt StmtTransformer
	DefaultExpr ExprTransformer
}

func NewRegistry() *Registry {
	return &Registry{
		stmts:       make(map[cs_ast.Kind][]StmtTransformer),
		exprs:       make(map[cs_ast.Kind][]ExprTransformer),
		DefaultStmt: declinedStmt,
		DefaultExpr: declinedExpr,
	}
}

// Transformers are tried in registration order
func (r *Registry) RegisterStatementTransformer(kind cs_ast.Kind, fn StmtTransformer) {
	if !kind.IsStmt() {
		panic("Internal error: " + kind.String() + " is not a statement kind")
	}
	r.stmts[kind] = append(r.stmts[kind], fn)
}

func (r *Registry) RegisterExpressionTransformer(kind cs_ast.Kind, fn ExprTransformer) {
	if kind.IsStmt() || kind == cs_ast.KindNone {
		panic("Internal error: " + kind.String() + " is not an expression kind")
	}
	r.exprs[kind] = append(r.exprs[kind], fn)
}

func declinedStmt(ctx *Context, stmt cs_ast.Stmt) ([]lua_ast.Stmt, bool) {
	ctx.internalError(stmt.Loc, "Every transformer declined %s", stmt.Data.Kind())
	return nil, false
}

func declinedExpr(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	ctx.internalError(expr.Loc, "Every transformer declined %s", expr.Data.Kind())
	return nil, false
}

func (ctx *Context) dispatchStmt(stmt cs_ast.Stmt) []lua_ast.Stmt {
	kind := stmt.Data.Kind()
	list, ok := ctx.registry.stmts[kind]
	if !ok {
		ctx.internalError(stmt.Loc, "No transformer is registered for %s", kind)
	}
	for _, fn := range list {
		if result, ok := fn(ctx, stmt); ok {
			return result
		}
	}
	result, _ := ctx.registry.DefaultStmt(ctx, stmt)
	return result
}

func (ctx *Context) dispatchExpr(expr cs_ast.Expr) lua_ast.Expr {
	kind := expr.Data.Kind()
	list, ok := ctx.registry.exprs[kind]
	if !ok {
		ctx.internalError(expr.Loc, "No transformer is registered for %s", kind)
	}
	for _, fn := range list {
		if result, ok := fn(ctx, expr); ok {
			return result
		}
	}
	result, _ := ctx.registry.DefaultExpr(ctx, expr)
	return result
}

// Lowers one statement. Prerequisites hoisted while lowering it come first.
func (ctx *Context) lowerStmt(stmt cs_ast.Stmt) []lua_ast.Stmt {
	old := ctx.prereqs
	ctx.prereqs = nil
	stmts := ctx.dispatchStmt(stmt)
	result := append(ctx.prereqs, stmts...)
	ctx.prereqs = old
	return result
}

func (ctx *Context) lowerExpr(expr cs_ast.Expr) lua_ast.Expr {
	value := ctx.dispatchExpr(expr)
	if value == nil {
		ctx.internalError(expr.Loc, "%s produced no value", expr.Data.Kind())
	}
	return value
}

// Lowers an expression whose value is unused. The result is nil when all of
// it was hoisted.
func (ctx *Context) lowerExprStmt(expr cs_ast.Expr) lua_ast.Expr {
	old := ctx.stmtExpr
	ctx.stmtExpr = expr.Data
	value := ctx.dispatchExpr(expr)
	ctx.stmtExpr = old
	return value
}

func (ctx *Context) isStatement(expr cs_ast.Expr) bool {
	return ctx.stmtExpr != nil && ctx.stmtExpr == expr.Data
}

package lower

import (
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// "E += f" connects "f" to the signal and keeps the connection in a local.
// "E -= f" disconnects the closest connection made to the same event.

func lowerEventSubscription(ctx *Context, expr cs_ast.Expr) (lua_ast.Expr, bool) {
	e := expr.Data.(*cs_ast.EBinary)
	if e.Op != cs_ast.BinOpAddAssign && e.Op != cs_ast.BinOpSubAssign {
		return nil, false
	}
	member, ok := e.Left.Data.(*cs_ast.EMember)
	if !ok || member.Symbol == nil || member.Symbol.Kind != cs_ast.SymbolEvent {
		return nil, false
	}
	if !ctx.isStatement(expr) {
		ctx.unsupported(expr.Loc, "Event subscriptions cannot be used as values")
	}
	event := member.Symbol

	if e.Op == cs_ast.BinOpSubAssign {
		handle, ok := ctx.connectionOf(event)
		if !ok {
			ctx.unsupported(expr.Loc, "No subscription to %q is visible here", event.Name)
		}
		ctx.hoist(lua_ast.CallStmt(lua_ast.MethodCall(lua_ast.Id(handle), "Disconnect")))
		return nil, true
	}

	signal := memberAccess(ctx.lowerMemberTarget(member), event.Name)

	// The handle is visible before the callback is lowered so a "-=" inside
	// the callback finds it
	handle := ctx.temp("_" + event.Name + "Connection")
	scope := ctx.currentScope()
	if scope.connections == nil {
		scope.connections = make(map[*cs_ast.Symbol]string)
	}
	scope.connections[event] = handle

	callback := ctx.lowerExpr(e.Right)
	connect := lua_ast.MethodCall(signal, "Connect", callback)

	if disconnectsItself(callback, handle) {
		ctx.hoist(
			lua_ast.Local(handle, nil),
			lua_ast.Assign(lua_ast.Id(handle), connect),
		)
	} else {
		ctx.hoist(lua_ast.Local(handle, connect))
	}
	return nil, true
}

func (ctx *Context) connectionOf(event *cs_ast.Symbol) (string, bool) {
	for i := len(ctx.scopes) - 1; i >= 0; i-- {
		if handle, ok := ctx.scopes[i].connections[event]; ok {
			return handle, true
		}
	}
	return "", false
}

// Whether the callback calls "handle:Disconnect()" anywhere in its body
func disconnectsItself(callback lua_ast.Expr, handle string) bool {
	fn, ok := callback.(*lua_ast.EFunction)
	if !ok {
		return false
	}
	found := false
	lua_ast.Visit(fn.Fn, func(node lua_ast.Node) bool {
		if call, ok := node.(*lua_ast.EMethodCall); ok && call.Name == "Disconnect" {
			if id, ok := call.Target.(*lua_ast.EIdentifier); ok && id.Name == handle {
				found = true
			}
		}
		return !found
	})
	return found
}

package lower

// Lowering turns a resolved source tree into a Luau tree in one pass. The
// driver walks declarations and statements and hands every node to the
// transformers registered for its kind. Constructs Luau cannot express
// directly (exceptions, iterators, switch fallthrough, patterns) become calls
// into a small runtime library whose names live in the "runtime" package.
//
// The first unsupported construct aborts the unit. There is never partial
// output.

import (
	"fmt"

	"github.com/luasharp/luasharp/internal/config"
	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/helpers"
	"github.com/luasharp/luasharp/internal/logger"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

func Lower(log logger.Log, source *logger.Source, unit *cs_ast.Unit, options config.Options) (chunk *lua_ast.Chunk, ok bool) {
	ctx := newContext(log, source, options.WithDefaults())

	defer func() {
		r := recover()
		if _, isLowerPanic := r.(lowerPanic); isLowerPanic {
			chunk = nil
			ok = false
		} else if r != nil {
			log.AddInternalError(source, logger.Loc{}, fmt.Sprintf("%v\n\n%s", r, helpers.PrettyPrintedStack()))
			chunk = nil
			ok = false
		}
	}()

	chunk = ctx.lowerUnit(unit)
	if leaked := ctx.leakedFrame(); leaked != "" {
		ctx.internalError(logger.Loc{}, "A %s frame was left on the stack", leaked)
	}
	lua_ast.Link(chunk)
	return chunk, true
}

func (ctx *Context) lowerUnit(unit *cs_ast.Unit) *lua_ast.Chunk {
	defer ctx.pushScope()()
	defer ctx.pushFn(&fnFrame{})()

	decls := flattenDecls(unit.Decls)
	ctx.declareTypes(decls)

	var body []lua_ast.Stmt
	for _, decl := range emitOrder(decls) {
		body = append(body, ctx.lowerDecl(decl)...)
	}
	body = append(body, ctx.lowerStmts(unit.Stmts)...)

	if ctx.options.CallEntryPoint {
		if main := findEntryPoint(decls); main != nil {
			target := lua_ast.Dot(lua_ast.Id(ctx.typeName(main.ContainingType)), ctx.methodName(main))
			body = append(body, lua_ast.CallStmt(lua_ast.Call(target)))
		}
	}

	if ctx.options.ExportTypes {
		exports := &lua_ast.ETable{}
		for _, name := range ctx.predecls {
			exports.Fields = append(exports.Fields, lua_ast.TableField{Name: name, Value: lua_ast.Id(name)})
		}
		body = append(body, lua_ast.Return(exports))
	} else {
		body = append(body, lua_ast.Return())
	}

	// Every generated type is declared up front so types can refer to each
	// other regardless of declaration order
	if len(ctx.predecls) > 0 {
		body = append([]lua_ast.Stmt{&lua_ast.SLocal{Names: append([]string{}, ctx.predecls...)}}, body...)
	}

	return &lua_ast.Chunk{Body: lua_ast.NewBlock(body...)}
}

// A parameterless static "Main" method
func findEntryPoint(decls []cs_ast.Decl) *cs_ast.Symbol {
	for _, decl := range decls {
		if class, ok := decl.Data.(*cs_ast.DClass); ok {
			for _, member := range class.Members {
				if method, ok := member.Data.(*cs_ast.MMethod); ok && method.Symbol.Name == "Main" && method.Symbol.IsStatic && len(method.Symbol.Params) == 0 {
					return method.Symbol
				}
			}
		}
	}
	return nil
}

func defaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterStatementTransformer(cs_ast.KindSBlock, lowerBlockStmt)
	r.RegisterStatementTransformer(cs_ast.KindSEmpty, lowerEmptyStmt)
	r.RegisterStatementTransformer(cs_ast.KindSLocal, lowerLocalStmt)
	r.RegisterStatementTransformer(cs_ast.KindSLocalFunction, lowerLocalFunctionStmt)
	r.RegisterStatementTransformer(cs_ast.KindSExpr, lowerExprStmt)
	r.RegisterStatementTransformer(cs_ast.KindSIf, lowerIfStmt)
	r.RegisterStatementTransformer(cs_ast.KindSWhile, lowerWhileStmt)
	r.RegisterStatementTransformer(cs_ast.KindSDoWhile, lowerDoWhileStmt)
	r.RegisterStatementTransformer(cs_ast.KindSFor, lowerForStmt)
	r.RegisterStatementTransformer(cs_ast.KindSForEach, lowerForEachStmt)
	r.RegisterStatementTransformer(cs_ast.KindSBreak, lowerBreakStmt)
	r.RegisterStatementTransformer(cs_ast.KindSContinue, lowerContinueStmt)
	r.RegisterStatementTransformer(cs_ast.KindSReturn, lowerReturnStmt)
	r.RegisterStatementTransformer(cs_ast.KindSThrow, lowerThrowStmt)
	r.RegisterStatementTransformer(cs_ast.KindSYieldReturn, lowerYieldReturnStmt)
	r.RegisterStatementTransformer(cs_ast.KindSYieldBreak, lowerYieldBreakStmt)
	r.RegisterStatementTransformer(cs_ast.KindSTry, lowerTryStmt)
	r.RegisterStatementTransformer(cs_ast.KindSUsing, lowerUsingStmt)
	r.RegisterStatementTransformer(cs_ast.KindSSwitch, lowerSwitchStmt)

	r.RegisterExpressionTransformer(cs_ast.KindENull, lowerLiteral)
	r.RegisterExpressionTransformer(cs_ast.KindEBoolean, lowerLiteral)
	r.RegisterExpressionTransformer(cs_ast.KindENumber, lowerLiteral)
	r.RegisterExpressionTransformer(cs_ast.KindEString, lowerLiteral)
	r.RegisterExpressionTransformer(cs_ast.KindEChar, lowerLiteral)
	r.RegisterExpressionTransformer(cs_ast.KindEInterpolated, lowerInterpolated)
	r.RegisterExpressionTransformer(cs_ast.KindEIdentifier, lowerIdentifier)
	r.RegisterExpressionTransformer(cs_ast.KindEThis, lowerSelf)
	r.RegisterExpressionTransformer(cs_ast.KindEBase, lowerSelf)
	r.RegisterExpressionTransformer(cs_ast.KindETypeRef, lowerTypeRef)
	r.RegisterExpressionTransformer(cs_ast.KindEMember, lowerMemberMacro)
	r.RegisterExpressionTransformer(cs_ast.KindEMember, lowerMethodGroup)
	r.RegisterExpressionTransformer(cs_ast.KindEMember, lowerMember)
	r.RegisterExpressionTransformer(cs_ast.KindEIndex, lowerIndex)
	r.RegisterExpressionTransformer(cs_ast.KindECall, lowerCallMacro)
	r.RegisterExpressionTransformer(cs_ast.KindECall, lowerEventInvoke)
	r.RegisterExpressionTransformer(cs_ast.KindECall, lowerCall)
	r.RegisterExpressionTransformer(cs_ast.KindENew, lowerConstructorMacro)
	r.RegisterExpressionTransformer(cs_ast.KindENew, lowerNew)
	r.RegisterExpressionTransformer(cs_ast.KindEArray, lowerArray)
	r.RegisterExpressionTransformer(cs_ast.KindEUnary, lowerUpdate)
	r.RegisterExpressionTransformer(cs_ast.KindEUnary, lowerUnary)
	r.RegisterExpressionTransformer(cs_ast.KindEBinary, lowerEventSubscription)
	r.RegisterExpressionTransformer(cs_ast.KindEBinary, lowerAssign)
	r.RegisterExpressionTransformer(cs_ast.KindEBinary, lowerBinary)
	r.RegisterExpressionTransformer(cs_ast.KindEConditional, lowerConditional)
	r.RegisterExpressionTransformer(cs_ast.KindEIs, lowerIs)
	r.RegisterExpressionTransformer(cs_ast.KindEAs, lowerAs)
	r.RegisterExpressionTransformer(cs_ast.KindECast, lowerCast)
	r.RegisterExpressionTransformer(cs_ast.KindELambda, lowerLambda)
	r.RegisterExpressionTransformer(cs_ast.KindESwitch, lowerSwitchExpr)
	r.RegisterExpressionTransformer(cs_ast.KindETuple, lowerTuple)
	r.RegisterExpressionTransformer(cs_ast.KindEAwait, lowerAwait)
	r.RegisterExpressionTransformer(cs_ast.KindEDefault, lowerDefault)
	r.RegisterExpressionTransformer(cs_ast.KindENameof, lowerNameof)

	return r
}

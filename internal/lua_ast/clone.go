package lua_ast

// Deep copies of output nodes. Copies have no parent and keep their macro
// tag, so a cloned macro expansion still reports where it came from.

func fresh(b NodeBase) NodeBase {
	return NodeBase{expandedBy: b.expandedBy}
}

func CloneExpr(expr Expr) Expr {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ENil:
		return &ENil{NodeBase: fresh(e.NodeBase)}
	case *EBoolean:
		return &EBoolean{NodeBase: fresh(e.NodeBase), Value: e.Value}
	case *ENumber:
		return &ENumber{NodeBase: fresh(e.NodeBase), Value: e.Value}
	case *EString:
		return &EString{NodeBase: fresh(e.NodeBase), Value: e.Value}
	case *EVararg:
		return &EVararg{NodeBase: fresh(e.NodeBase)}
	case *EIdentifier:
		return &EIdentifier{NodeBase: fresh(e.NodeBase), Name: e.Name}
	case *EDot:
		return &EDot{NodeBase: fresh(e.NodeBase), Target: CloneExpr(e.Target), Name: e.Name}
	case *EIndex:
		return &EIndex{NodeBase: fresh(e.NodeBase), Target: CloneExpr(e.Target), Index: CloneExpr(e.Index)}
	case *ECall:
		return &ECall{NodeBase: fresh(e.NodeBase), Target: CloneExpr(e.Target), Args: cloneExprs(e.Args)}
	case *EMethodCall:
		return &EMethodCall{NodeBase: fresh(e.NodeBase), Target: CloneExpr(e.Target), Name: e.Name, Args: cloneExprs(e.Args)}
	case *EFunction:
		return &EFunction{NodeBase: fresh(e.NodeBase), Fn: CloneFn(e.Fn)}
	case *ETable:
		fields := make([]TableField, len(e.Fields))
		for i, field := range e.Fields {
			fields[i] = TableField{Key: CloneExpr(field.Key), Name: field.Name, Value: CloneExpr(field.Value)}
		}
		return &ETable{NodeBase: fresh(e.NodeBase), Fields: fields}
	case *EBinary:
		return &EBinary{NodeBase: fresh(e.NodeBase), Op: e.Op, Left: CloneExpr(e.Left), Right: CloneExpr(e.Right)}
	case *EUnary:
		return &EUnary{NodeBase: fresh(e.NodeBase), Op: e.Op, Value: CloneExpr(e.Value)}
	case *EIfElse:
		return &EIfElse{NodeBase: fresh(e.NodeBase), Test: CloneExpr(e.Test), Yes: CloneExpr(e.Yes), No: CloneExpr(e.No)}
	case *EParen:
		return &EParen{NodeBase: fresh(e.NodeBase), Value: CloneExpr(e.Value)}
	}
	panic("Internal error: cannot clone this expression")
}

func cloneExprs(list []Expr) []Expr {
	if list == nil {
		return nil
	}
	result := make([]Expr, len(list))
	for i, expr := range list {
		result[i] = CloneExpr(expr)
	}
	return result
}

func CloneType(t Type) Type {
	if t == nil {
		return nil
	}
	switch n := t.(type) {
	case *TName:
		return &TName{NodeBase: fresh(n.NodeBase), Name: n.Name, Args: cloneTypes(n.Args)}
	case *TOptional:
		return &TOptional{NodeBase: fresh(n.NodeBase), Inner: CloneType(n.Inner)}
	case *TArray:
		return &TArray{NodeBase: fresh(n.NodeBase), Elem: CloneType(n.Elem)}
	case *TMap:
		return &TMap{NodeBase: fresh(n.NodeBase), Key: CloneType(n.Key), Value: CloneType(n.Value)}
	case *TFunction:
		return &TFunction{NodeBase: fresh(n.NodeBase), Params: cloneTypes(n.Params), Returns: cloneTypes(n.Returns)}
	}
	panic("Internal error: cannot clone this type")
}

func cloneTypes(list []Type) []Type {
	if list == nil {
		return nil
	}
	result := make([]Type, len(list))
	for i, t := range list {
		result[i] = CloneType(t)
	}
	return result
}

func CloneFn(fn *Fn) *Fn {
	params := make([]Param, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = Param{Name: param.Name, Type: CloneType(param.Type)}
	}
	return &Fn{
		NodeBase:    fresh(fn.NodeBase),
		Params:      params,
		IsVararg:    fn.IsVararg,
		ReturnTypes: cloneTypes(fn.ReturnTypes),
		Body:        CloneBlock(fn.Body),
	}
}

func CloneBlock(block *Block) *Block {
	if block == nil {
		return nil
	}
	stmts := make([]Stmt, len(block.Stmts))
	for i, stmt := range block.Stmts {
		stmts[i] = CloneStmt(stmt)
	}
	return &Block{NodeBase: fresh(block.NodeBase), Stmts: stmts}
}

func CloneStmt(stmt Stmt) Stmt {
	switch s := stmt.(type) {
	case *SLocal:
		return &SLocal{NodeBase: fresh(s.NodeBase), Names: append([]string{}, s.Names...), Types: cloneTypes(s.Types), Values: cloneExprs(s.Values)}
	case *SLocalFunction:
		return &SLocalFunction{NodeBase: fresh(s.NodeBase), Name: s.Name, Fn: CloneFn(s.Fn)}
	case *SFunction:
		return &SFunction{NodeBase: fresh(s.NodeBase), Path: append([]string{}, s.Path...), IsMethod: s.IsMethod, Fn: CloneFn(s.Fn)}
	case *SAssign:
		return &SAssign{NodeBase: fresh(s.NodeBase), Targets: cloneExprs(s.Targets), Values: cloneExprs(s.Values)}
	case *SCompoundAssign:
		return &SCompoundAssign{NodeBase: fresh(s.NodeBase), Op: s.Op, Target: CloneExpr(s.Target), Value: CloneExpr(s.Value)}
	case *SCall:
		return &SCall{NodeBase: fresh(s.NodeBase), Call: CloneExpr(s.Call)}
	case *SIf:
		return &SIf{NodeBase: fresh(s.NodeBase), Test: CloneExpr(s.Test), Yes: CloneBlock(s.Yes), No: CloneBlock(s.No)}
	case *SWhile:
		return &SWhile{NodeBase: fresh(s.NodeBase), Test: CloneExpr(s.Test), Body: CloneBlock(s.Body)}
	case *SRepeat:
		return &SRepeat{NodeBase: fresh(s.NodeBase), Body: CloneBlock(s.Body), Until: CloneExpr(s.Until)}
	case *SNumericFor:
		return &SNumericFor{NodeBase: fresh(s.NodeBase), Name: s.Name, Start: CloneExpr(s.Start), Stop: CloneExpr(s.Stop), Step: CloneExpr(s.Step), Body: CloneBlock(s.Body)}
	case *SGenericFor:
		return &SGenericFor{NodeBase: fresh(s.NodeBase), Names: append([]string{}, s.Names...), Values: cloneExprs(s.Values), Body: CloneBlock(s.Body)}
	case *SDo:
		return &SDo{NodeBase: fresh(s.NodeBase), Body: CloneBlock(s.Body)}
	case *SReturn:
		return &SReturn{NodeBase: fresh(s.NodeBase), Values: cloneExprs(s.Values)}
	case *SBreak:
		return &SBreak{NodeBase: fresh(s.NodeBase)}
	case *SContinue:
		return &SContinue{NodeBase: fresh(s.NodeBase)}
	case *SComment:
		return &SComment{NodeBase: fresh(s.NodeBase), Text: s.Text}
	}
	panic("Internal error: cannot clone this statement")
}

package lua_ast

func exprs(list []Expr) []Node {
	nodes := make([]Node, 0, len(list))
	for _, expr := range list {
		if expr != nil {
			nodes = append(nodes, expr)
		}
	}
	return nodes
}

func types(list []Type) []Node {
	nodes := make([]Node, 0, len(list))
	for _, t := range list {
		if t != nil {
			nodes = append(nodes, t)
		}
	}
	return nodes
}

func optional(nodes ...Node) []Node {
	result := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		if node != nil && !isNilNode(node) {
			result = append(result, node)
		}
	}
	return result
}

// Typed nil pointers stored in an interface are not nil
func isNilNode(node Node) bool {
	switch n := node.(type) {
	case *Block:
		return n == nil
	case *Fn:
		return n == nil
	}
	return false
}

func (n *Chunk) Children() []Node { return optional(n.Body) }

func (n *Block) Children() []Node {
	nodes := make([]Node, len(n.Stmts))
	for i, stmt := range n.Stmts {
		nodes[i] = stmt
	}
	return nodes
}

func (n *Fn) Children() []Node {
	nodes := []Node{}
	for _, param := range n.Params {
		if param.Type != nil {
			nodes = append(nodes, param.Type)
		}
	}
	nodes = append(nodes, types(n.ReturnTypes)...)
	return append(nodes, n.Body)
}

func (n *SLocal) Children() []Node          { return append(types(n.Types), exprs(n.Values)...) }
func (n *SLocalFunction) Children() []Node  { return []Node{n.Fn} }
func (n *SFunction) Children() []Node       { return []Node{n.Fn} }
func (n *SAssign) Children() []Node         { return append(exprs(n.Targets), exprs(n.Values)...) }
func (n *SCompoundAssign) Children() []Node { return []Node{n.Target, n.Value} }
func (n *SCall) Children() []Node           { return []Node{n.Call} }
func (n *SIf) Children() []Node             { return optional(n.Test, n.Yes, n.No) }
func (n *SWhile) Children() []Node          { return []Node{n.Test, n.Body} }
func (n *SRepeat) Children() []Node         { return []Node{n.Body, n.Until} }
func (n *SNumericFor) Children() []Node     { return optional(n.Start, n.Stop, n.Step, n.Body) }
func (n *SGenericFor) Children() []Node     { return append(exprs(n.Values), n.Body) }
func (n *SDo) Children() []Node             { return []Node{n.Body} }
func (n *SReturn) Children() []Node         { return exprs(n.Values) }
func (n *SBreak) Children() []Node          { return nil }
func (n *SContinue) Children() []Node       { return nil }
func (n *SComment) Children() []Node        { return nil }

func (n *ENil) Children() []Node        { return nil }
func (n *EBoolean) Children() []Node    { return nil }
func (n *ENumber) Children() []Node     { return nil }
func (n *EString) Children() []Node     { return nil }
func (n *EVararg) Children() []Node     { return nil }
func (n *EIdentifier) Children() []Node { return nil }
func (n *EDot) Children() []Node        { return []Node{n.Target} }
func (n *EIndex) Children() []Node      { return []Node{n.Target, n.Index} }
func (n *ECall) Children() []Node       { return append([]Node{n.Target}, exprs(n.Args)...) }
func (n *EMethodCall) Children() []Node { return append([]Node{n.Target}, exprs(n.Args)...) }
func (n *EFunction) Children() []Node   { return []Node{n.Fn} }
func (n *EBinary) Children() []Node     { return []Node{n.Left, n.Right} }
func (n *EUnary) Children() []Node      { return []Node{n.Value} }
func (n *EIfElse) Children() []Node     { return []Node{n.Test, n.Yes, n.No} }
func (n *EParen) Children() []Node      { return []Node{n.Value} }

func (n *ETable) Children() []Node {
	nodes := []Node{}
	for _, field := range n.Fields {
		if field.Key != nil {
			nodes = append(nodes, field.Key)
		}
		nodes = append(nodes, field.Value)
	}
	return nodes
}

func (n *TName) Children() []Node     { return types(n.Args) }
func (n *TOptional) Children() []Node { return []Node{n.Inner} }
func (n *TArray) Children() []Node    { return []Node{n.Elem} }
func (n *TMap) Children() []Node      { return []Node{n.Key, n.Value} }
func (n *TFunction) Children() []Node { return append(types(n.Params), types(n.Returns)...) }

// Sets the parent of every node below "root". A node reachable twice means
// a sub-tree was reused without Clone, which would make later rewrites of
// one copy leak into the other.
func Link(root Node) {
	for _, child := range root.Children() {
		b := child.base()
		if b.parent != nil {
			panic("Internal error: output node has more than one parent")
		}
		b.parent = root
		Link(child)
	}
}

// Walks the tree in pre-order. Returning false skips the children of a node.
func Visit(root Node, visit func(Node) bool) {
	if visit(root) {
		for _, child := range root.Children() {
			Visit(child, visit)
		}
	}
}

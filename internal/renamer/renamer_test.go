package renamer_test

import (
	"testing"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/renamer"
	"github.com/nalgeon/be"
)

func TestTempsStartBare(t *testing.T) {
	r := renamer.NewRenamer("CS")
	be.Equal(t, r.NewTemp("_result"), "_result")
	be.Equal(t, r.NewTemp("_result"), "_result2")
	be.Equal(t, r.NewTemp("_result"), "_result3")
	be.Equal(t, r.NewTemp("_exitType"), "_exitType")
}

func TestTempsAreUnique(t *testing.T) {
	r := renamer.NewRenamer("CS")
	r.Reserve("_i2")
	seen := make(map[string]bool)
	for _, prefix := range []string{"_i", "_i", "_i", "i", "_i2", "2x", "", "a-b", "_i", "table"} {
		name := r.NewTemp(prefix)
		be.True(t, !seen[name])
		seen[name] = true
	}
	be.True(t, !seen["_i2"])
	be.True(t, !seen["table"])
}

func TestReservedSourceNames(t *testing.T) {
	r := renamer.NewRenamer("CS")
	r.Reserve("end2")
	end := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "end"}
	table := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "table"}
	cs := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "CS"}
	plain := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "count"}

	be.Equal(t, r.NameForSymbol(end), "end3")
	be.Equal(t, r.NameForSymbol(end), "end3")
	be.Equal(t, r.NameForSymbol(table), "table2")
	be.Equal(t, r.NameForSymbol(cs), "CS2")
	be.Equal(t, r.NameForSymbol(plain), "count")
}

func TestNormalizePrefix(t *testing.T) {
	be.Equal(t, renamer.NormalizePrefix("list"), "list")
	be.Equal(t, renamer.NormalizePrefix("1st"), "_1st")
	be.Equal(t, renamer.NormalizePrefix("a.b"), "a_b")
	be.Equal(t, renamer.NormalizePrefix(""), "_")
}

func TestSourceNameAfterTemp(t *testing.T) {
	r := renamer.NewRenamer("CS")
	be.Equal(t, r.NewTemp("_result"), "_result")
	first := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "_result"}
	be.Equal(t, r.NameForSymbol(first), "_result2")

	// Two locals named "i" in sibling scopes keep their name
	i1 := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "i"}
	i2 := &cs_ast.Symbol{Kind: cs_ast.SymbolLocal, Name: "i"}
	be.Equal(t, r.NameForSymbol(i1), "i")
	be.Equal(t, r.NameForSymbol(i2), "i")
	be.Equal(t, r.NewTemp("i"), "i2")
}

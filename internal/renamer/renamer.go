package renamer

import (
	"strconv"
	"strings"

	"github.com/luasharp/luasharp/internal/cs_ast"
	"github.com/luasharp/luasharp/internal/lua_ast"
)

// Globals that emitted code refers to. A source name equal to one of these
// would shadow the global, so it is renamed like a keyword.
var ReservedGlobals = []string{
	"self",
	"bit32",
	"coroutine",
	"error",
	"getmetatable",
	"ipairs",
	"math",
	"next",
	"pairs",
	"print",
	"rawequal",
	"select",
	"setmetatable",
	"string",
	"table",
	"tostring",
	"type",
}

// Maps source symbols to output names and hands out temporaries. All names
// live in one namespace per unit, so every temporary is distinct from every
// other temporary and from every source name.
type Renamer struct {
	// This is used as a set of used names. It also maps a name to the number
	// of times the name has collided, so the next collision can start counting
	// from there instead of from 1.
	nameCounts map[string]uint32
	reserved   map[string]bool
	symbols    map[*cs_ast.Symbol]string

	// Names produced by findUnusedName. A source name that matches one of
	// these was seen after the temporary was handed out and must move.
	generated map[string]bool
}

func NewRenamer(runtimeLibrary string) *Renamer {
	r := &Renamer{
		nameCounts: make(map[string]uint32),
		reserved:   make(map[string]bool),
		symbols:    make(map[*cs_ast.Symbol]string),
		generated:  make(map[string]bool),
	}
	for keyword := range lua_ast.Keywords {
		r.reserved[keyword] = true
	}
	for _, name := range ReservedGlobals {
		r.reserved[name] = true
	}
	r.reserved[runtimeLibrary] = true
	for name := range r.reserved {
		r.nameCounts[name] = 1
	}
	return r
}

// Source names are claimed up front so a temporary never captures one
func (r *Renamer) Reserve(name string) {
	if _, ok := r.nameCounts[name]; !ok {
		r.nameCounts[name] = 1
	}
}

func (r *Renamer) IsUsed(name string) bool {
	_, ok := r.nameCounts[name]
	return ok
}

func (r *Renamer) NameForSymbol(symbol *cs_ast.Symbol) string {
	if name, ok := r.symbols[symbol]; ok {
		return name
	}
	name := symbol.Name
	if r.reserved[name] || r.generated[name] || !lua_ast.IsIdentifier(name) {
		name = r.findUnusedName(NormalizePrefix(name))
	} else {
		// Different symbols with the same name share it. Scoping in the
		// output mirrors scoping in the source.
		r.Reserve(name)
	}
	r.symbols[symbol] = name
	return name
}

// The first temporary for a prefix is the bare prefix, then "prefix2",
// "prefix3" and so on
func (r *Renamer) NewTemp(prefix string) string {
	return r.findUnusedName(NormalizePrefix(prefix))
}

func NormalizePrefix(prefix string) string {
	sb := strings.Builder{}
	for i, c := range prefix {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && c >= '0' && c <= '9') {
			sb.WriteRune(c)
		} else if i == 0 && c >= '0' && c <= '9' {
			sb.WriteByte('_')
			sb.WriteRune(c)
		} else {
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

func (r *Renamer) findUnusedName(name string) string {
	if tries, ok := r.nameCounts[name]; ok {
		prefix := name
		for {
			tries++
			name = prefix + strconv.Itoa(int(tries))
			if _, ok := r.nameCounts[name]; !ok {
				break
			}
		}
		r.nameCounts[prefix] = tries
	}
	r.nameCounts[name] = 1
	r.generated[name] = true
	return name
}

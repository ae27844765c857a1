package config

const DefaultRuntimeLibrary = "CS"
const DefaultIndentWidth = 4

type Options struct {
	// The global table every runtime call in the emitted code is made through,
	// e.g. "CS" gives "CS.try(...)"
	RuntimeLibrary string

	// Emit Luau type annotations on locals, parameters and function returns
	EmitTypes bool

	IndentWidth      int
	MinifyWhitespace bool

	// If the unit declares a "static void Main()" method, call it at the end
	// of the chunk, before the final return
	CallEntryPoint bool

	// The chunk ends with "return { TypeA = TypeA, ... }" instead of a bare
	// "return"
	ExportTypes bool
}

// Fills in defaults for zero values. The result is what every stage of the
// pipeline reads, so nothing downstream has to care about unset fields.
func (options Options) WithDefaults() Options {
	if options.RuntimeLibrary == "" {
		options.RuntimeLibrary = DefaultRuntimeLibrary
	}
	if options.IndentWidth <= 0 {
		options.IndentWidth = DefaultIndentWidth
	}
	return options
}

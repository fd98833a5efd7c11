package exports

// Style says how strongly a module owns a name it binds. The order is a total
// order from strongest to weakest claim; on a collision the lower rank wins,
// so a name that is ever assigned locally stays Local no matter how it was
// imported before or after.
type Style int

const (
	// StyleLocal is assigned or defined in this module, e.g. `x = 1` or `def x(): ...`.
	StyleLocal Style = iota
	// StyleImportAsEq is imported and aliased to its own name, e.g. `from x import y as y`.
	StyleImportAsEq
	// StyleImportAs is imported under a different name, e.g. `from x import y as z`.
	StyleImportAs
	// StyleImport is imported without an alias, e.g. `from x import y`.
	StyleImport
	// StyleImportModule is a bare `import x` or `import x.y`, binding only `x`.
	StyleImportModule
)

func (s Style) String() string {
	switch s {
	case StyleLocal:
		return "local"
	case StyleImportAsEq:
		return "import-as-eq"
	case StyleImportAs:
		return "import-as"
	case StyleImport:
		return "import"
	case StyleImportModule:
		return "import-module"
	default:
		return "unknown"
	}
}

func minStyle(a, b Style) Style {
	if a < b {
		return a
	}
	return b
}

// ModuleKind classifies a module for default export synthesis. Script-style
// modules auto-export wildcard imports and every non-underscore name;
// library-style modules export only names they own.
type ModuleKind int

const (
	LibraryModule ModuleKind = iota
	ScriptModule
)

func (k ModuleKind) String() string {
	if k == ScriptModule {
		return "script"
	}
	return "library"
}

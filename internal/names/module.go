package names

import (
	"strings"
)

// ModuleName is an absolute dotted Python module name, e.g. "pkg.sub.mod".
type ModuleName string

const builtinsModule ModuleName = "builtins"

// Builtins is the module implicitly wildcard-imported into every scope.
func Builtins() ModuleName {
	return builtinsModule
}

func FromComponents(parts []string) ModuleName {
	return ModuleName(strings.Join(parts, "."))
}

func (m ModuleName) Components() []string {
	if m == "" {
		return nil
	}
	return strings.Split(string(m), ".")
}

// First returns the top-level package component: "a" for "a.b.c". A bare
// `import a.b.c` binds only this component.
func (m ModuleName) First() string {
	if i := strings.IndexByte(string(m), '.'); i >= 0 {
		return string(m[:i])
	}
	return string(m)
}

func (m ModuleName) String() string {
	return string(m)
}

// ResolveRelative resolves an import observed inside current. dots is the
// number of leading dots (zero for absolute imports), base the trailing
// dotted name, if any. A package initializer counts as one level deeper than
// its own dotted name. Reports false when the dots escape the root package;
// callers drop such imports silently, diagnosing them is a later phase's job.
func ResolveRelative(current ModuleName, isInit bool, dots int, base string) (ModuleName, bool) {
	if dots == 0 {
		if base == "" {
			return "", false
		}
		return ModuleName(base), true
	}

	parts := current.Components()
	if isInit {
		parts = append(parts, "__init__")
	}
	if dots > len(parts) {
		return "", false
	}
	parts = parts[:len(parts)-dots]
	if base != "" {
		parts = append(parts, strings.Split(base, ".")...)
	}
	if len(parts) == 0 {
		return "", false
	}
	return FromComponents(parts), true
}

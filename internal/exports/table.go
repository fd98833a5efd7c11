package exports

import (
	"strings"

	"pydefs/internal/names"
	"pydefs/internal/syntax"
)

// Definition is one row of the module-scope name table. Span points at some
// defining occurrence, not guaranteed first or last; Style is the minimum
// rank ever observed; Count is the number of distinct (re)definitions.
type Definition struct {
	Name  string
	Span  syntax.Span
	Style Style
	Count int
}

// StarImport records one `from M import *`, keyed by the resolved absolute
// module name.
type StarImport struct {
	Module names.ModuleName
	Span   syntax.Span
}

// Definitions is everything one non-executing pass learns about a module's
// scope: the name table, the wildcard-imported modules, and the export log.
// Name and star-import iteration order is insertion order.
type Definitions struct {
	index   map[string]int
	entries []Definition

	starIndex map[names.ModuleName]struct{}
	stars     []StarImport

	// ExportLog is the ordered, unreplayed log of export-list operations.
	ExportLog []ExportOp
}

func NewDefinitions() *Definitions {
	return &Definitions{
		index:     make(map[string]int),
		starIndex: make(map[names.ModuleName]struct{}),
	}
}

// add inserts or merges a binding occurrence: new names get count 1, repeated
// names keep the minimum style and increment the count. The span is whichever
// write populated the slot.
func (d *Definitions) add(name string, span syntax.Span, style Style) {
	if i, ok := d.index[name]; ok {
		d.entries[i].Style = minStyle(d.entries[i].Style, style)
		d.entries[i].Count++
		return
	}
	d.index[name] = len(d.entries)
	d.entries = append(d.entries, Definition{Name: name, Span: span, Style: style, Count: 1})
}

// addStar records a wildcard import. Idempotent: the first location wins.
func (d *Definitions) addStar(module names.ModuleName, span syntax.Span) {
	if _, ok := d.starIndex[module]; ok {
		return
	}
	d.starIndex[module] = struct{}{}
	d.stars = append(d.stars, StarImport{Module: module, Span: span})
}

// Lookup returns the entry for name, if any.
func (d *Definitions) Lookup(name string) (Definition, bool) {
	if i, ok := d.index[name]; ok {
		return d.entries[i], true
	}
	return Definition{}, false
}

// Names returns all bound names in insertion order.
func (d *Definitions) Names() []string {
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Name
	}
	return out
}

// Entries returns the name table rows in insertion order.
func (d *Definitions) Entries() []Definition {
	out := make([]Definition, len(d.entries))
	copy(out, d.entries)
	return out
}

func (d *Definitions) Len() int {
	return len(d.entries)
}

// StarImports returns the wildcard-imported modules in insertion order.
func (d *Definitions) StarImports() []StarImport {
	out := make([]StarImport, len(d.stars))
	copy(out, d.stars)
	return out
}

// QNames materializes the positional identity key of every entry, for
// downstream symbol binding.
func (d *Definitions) QNames(module names.ModuleName) []names.QName {
	out := make([]names.QName, len(d.entries))
	for i, e := range d.entries {
		out[i] = names.NewQName(e.Name, e.Span, module)
	}
	return out
}

// InjectBuiltins ensures the implicit `from builtins import *` entry exists,
// without overwriting an explicit one.
func (d *Definitions) InjectBuiltins() {
	d.addStar(names.Builtins(), syntax.Span{})
}

// EnsureExportLog synthesizes a default export log when the module never
// defined __all__ itself. Script-style modules re-export their wildcard
// imports and every non-underscore name; library-style modules export only
// names they own (Local or imported-as-self), encoding the convention that a
// library should not silently re-export what it merely imported.
func (d *Definitions) EnsureExportLog(kind ModuleKind) {
	if _, ok := d.index[dunderAll]; ok {
		// explicitly defined, leave the log alone
		return
	}
	if kind == ScriptModule {
		for _, s := range d.stars {
			d.ExportLog = append(d.ExportLog, moduleOp(s.Span, s.Module))
		}
	}
	for _, e := range d.entries {
		if strings.HasPrefix(e.Name, "_") {
			continue
		}
		if kind == ScriptModule || e.Style == StyleLocal || e.Style == StyleImportAsEq {
			d.ExportLog = append(d.ExportLog, nameOp(e.Span, e.Name))
		}
	}
}

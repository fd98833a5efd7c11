package exports

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pydefs/internal/names"
	"pydefs/internal/syntax"
)

const dunderAll = "__all__"

// ExportOpKind tags one symbolic operation in the export log.
type ExportOpKind int

const (
	// ExportName adds a single name.
	ExportName ExportOpKind = iota
	// ExportModule defers to another module's own export list, resolved
	// transitively by a later phase.
	ExportModule
	// ExportRemove removes a name. Recorded, never replayed here: a module
	// may remove something a deferred module contributed.
	ExportRemove
)

// ExportOp is one entry of the export log. The log is append-ordered and
// unreplayed; consumers replay it to obtain the final export set.
type ExportOp struct {
	Kind   ExportOpKind
	Span   syntax.Span
	Name   string           // ExportName, ExportRemove
	Module names.ModuleName // ExportModule
}

func nameOp(span syntax.Span, name string) ExportOp {
	return ExportOp{Kind: ExportName, Span: span, Name: name}
}

func moduleOp(span syntax.Span, module names.ModuleName) ExportOp {
	return ExportOp{Kind: ExportModule, Span: span, Module: module}
}

func removeOp(span syntax.Span, name string) ExportOp {
	return ExportOp{Kind: ExportRemove, Span: span, Name: name}
}

func (o ExportOp) String() string {
	switch o.Kind {
	case ExportName:
		return fmt.Sprintf("Name(%s)", o.Name)
	case ExportModule:
		return fmt.Sprintf("Module(%s)", o.Module)
	case ExportRemove:
		return fmt.Sprintf("Remove(%s)", o.Name)
	default:
		return "?"
	}
}

// isDunderAllName reports whether an expression is the bare identifier
// __all__.
func isDunderAllName(node *sitter.Node, source []byte) bool {
	return node != nil && node.Kind() == "identifier" && syntax.Text(node, source) == dunderAll
}

// exportOpsFromList interprets an export-list right-hand side. A list or
// tuple literal yields one op per parseable element; `mod.__all__` yields a
// module deferral. Anything else yields nothing: dynamically computed
// right-hand sides are deliberately under-approximated as contributing no
// exports.
func exportOpsFromList(node *sitter.Node, source []byte) []ExportOp {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "list", "tuple":
		ops := make([]ExportOp, 0, node.NamedChildCount())
		for _, el := range syntax.NamedChildren(node) {
			if op, ok := exportOpFromItem(el, source); ok {
				ops = append(ops, op)
			}
		}
		return ops
	case "attribute":
		obj := node.ChildByFieldName("object")
		attr := node.ChildByFieldName("attribute")
		if obj != nil && attr != nil &&
			obj.Kind() == "identifier" &&
			syntax.Text(attr, source) == dunderAll {
			mod := names.ModuleName(syntax.Text(obj, source))
			return []ExportOp{moduleOp(syntax.NodeSpan(obj), mod)}
		}
	}
	return nil
}

// exportOpFromItem interprets one export-list element. Only a literal text
// value parses; computed elements are dropped silently.
func exportOpFromItem(node *sitter.Node, source []byte) (ExportOp, bool) {
	if node == nil {
		return ExportOp{}, false
	}
	if s, ok := syntax.StringLiteral(node, source); ok {
		return nameOp(syntax.NodeSpan(node), s), true
	}
	return ExportOp{}, false
}

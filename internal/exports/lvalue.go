package exports

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"pydefs/internal/syntax"
)

// bindTargets walks an assignment target and binds every name in binding
// position as Local. Attribute and subscript targets are not bindings and
// contribute nothing.
func (b *Builder) bindTargets(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		b.addName(syntax.Text(node, b.source), syntax.NodeSpan(node), StyleLocal)
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat",
		"as_pattern_target":
		for _, child := range syntax.NamedChildren(node) {
			b.bindTargets(child)
		}
	case "attribute", "subscript":
		// not a binding
	}
}

// bindPattern walks a match-case pattern and binds its capture names.
// Value patterns (dotted references, literals, class names, mapping keys)
// are not captures.
func (b *Builder) bindPattern(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "case_pattern", "union_pattern", "list_pattern", "tuple_pattern",
		"dict_pattern":
		for _, child := range syntax.NamedChildren(node) {
			b.bindPattern(child)
		}
	case "dotted_name":
		// a single bare component is a capture; multi-component names refer
		// to values
		if node.NamedChildCount() == 1 {
			b.bindPattern(node.NamedChild(0))
		}
	case "identifier":
		if text := syntax.Text(node, b.source); text != "_" {
			b.addName(text, syntax.NodeSpan(node), StyleLocal)
		}
	case "splat_pattern":
		for _, child := range syntax.NamedChildren(node) {
			b.bindPattern(child)
		}
	case "as_pattern", "as_pattern_target":
		// `<pattern> as <name>` captures the name and whatever the inner
		// pattern captures
		for _, child := range syntax.NamedChildren(node) {
			b.bindPattern(child)
		}
	case "keyword_pattern":
		// `Cls(attr=target)`: the left side names an attribute, only the
		// right side can capture
		if node.NamedChildCount() > 1 {
			b.bindPattern(node.NamedChild(node.NamedChildCount() - 1))
		}
	case "class_pattern":
		// first named child is the class reference, the rest are sub-patterns
		children := syntax.NamedChildren(node)
		for i, child := range children {
			if i == 0 {
				continue
			}
			b.bindPattern(child)
		}
	}
}

package syntax

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Statements returns the named statement children of a module or block node,
// skipping comments. Order is source order.
func Statements(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// NamedChildren returns all named children of a node in order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// VisitNestedBlocks invokes fn on every statement block nested directly under
// stmt: loop and with bodies, else/elif/except/finally clauses, and case
// consequences. It does not descend into the statements inside those blocks;
// recursing further is the caller's job.
func VisitNestedBlocks(stmt *sitter.Node, fn func(block *sitter.Node)) {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		kind := child.Kind()
		switch {
		case kind == "block":
			fn(child)
		case strings.HasSuffix(kind, "_clause"):
			VisitNestedBlocks(child, fn)
		}
	}
}

// FindChild returns the first direct child with the given kind, or nil.
func FindChild(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

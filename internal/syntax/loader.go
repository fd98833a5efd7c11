package syntax

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// PythonLanguage returns the shared Python grammar. Grammars are immutable
// and safe to share across parsers and goroutines.
func PythonLanguage() *sitter.Language {
	return pythonLanguage
}

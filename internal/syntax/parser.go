package syntax

import (
	"errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Module is one parsed Python source file. The tree owns the nodes; keep the
// Module alive for as long as any node taken from it is in use, then Close it.
type Module struct {
	Source []byte
	tree   *sitter.Tree
}

// Parser turns Python source into tree-sitter parse trees. Safe for
// concurrent use; parser instances are pooled.
type Parser struct {
	pool *parserPool
}

func NewParser() *Parser {
	return &Parser{pool: newParserPool(PythonLanguage())}
}

// ParseModule parses source into a Module. Syntax errors inside the tree are
// tolerated: tree-sitter produces a best-effort tree and the definition pass
// pattern-matches only the shapes it recognizes.
func (p *Parser) ParseModule(source []byte) (*Module, error) {
	sp := p.pool.get()
	defer p.pool.put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}

	return &Module{Source: source, tree: tree}, nil
}

// Root returns the top-level "module" node.
func (m *Module) Root() *sitter.Node {
	return m.tree.RootNode()
}

func (m *Module) Close() {
	if m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}

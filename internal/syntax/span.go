package syntax

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Span is a half-open byte range into a module's source text.
type Span struct {
	Start uint
	End   uint
}

func NodeSpan(n *sitter.Node) Span {
	return Span{Start: n.StartByte(), End: n.EndByte()}
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Position is a 1-based line/column pair for display.
type Position struct {
	Line   int
	Column int
}

func NodePosition(n *sitter.Node) Position {
	return Position{
		Line:   int(n.StartPosition().Row) + 1,
		Column: int(n.StartPosition().Column) + 1,
	}
}

// Text returns the source text covered by a node.
func Text(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}

package syntax

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// StringLiteral returns the value of a plain string literal node. It handles
// implicit concatenation ("a" "b") and the common escape sequences; f-strings
// and anything with interpolation report ok=false, matching the pass's policy
// of treating computed text as opaque.
func StringLiteral(node *sitter.Node, source []byte) (string, bool) {
	switch node.Kind() {
	case "string":
		return plainString(node, source)
	case "concatenated_string":
		var sb strings.Builder
		for _, part := range NamedChildren(node) {
			s, ok := plainString(part, source)
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		}
		return sb.String(), true
	default:
		return "", false
	}
}

func plainString(node *sitter.Node, source []byte) (string, bool) {
	if node.Kind() != "string" {
		return "", false
	}
	var sb strings.Builder
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "string_start":
			// an f or b prefix makes the content non-literal text
			if strings.ContainsAny(Text(child, source), "fFbB") {
				return "", false
			}
		case "string_content":
			if child.ChildCount() == 0 {
				sb.WriteString(Text(child, source))
			} else {
				sb.WriteString(decodeContent(child, source))
			}
		case "interpolation":
			return "", false
		}
	}
	return sb.String(), true
}

// decodeContent stitches literal runs and decoded escape sequences back
// together for string_content nodes that contain escape children.
func decodeContent(content *sitter.Node, source []byte) string {
	var sb strings.Builder
	pos := content.StartByte()
	for i := uint(0); i < content.ChildCount(); i++ {
		child := content.Child(i)
		sb.Write(source[pos:child.StartByte()])
		if child.Kind() == "escape_sequence" {
			sb.WriteString(unescape(Text(child, source)))
		} else {
			sb.WriteString(Text(child, source))
		}
		pos = child.EndByte()
	}
	sb.Write(source[pos:content.EndByte()])
	return sb.String()
}

func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '\\', '\'', '"':
		return seq[1:]
	case '0':
		return "\x00"
	default:
		return seq
	}
}

// IntLiteral returns the value of an integer literal node.
func IntLiteral(node *sitter.Node, source []byte) (int, bool) {
	if node.Kind() != "integer" {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(Text(node, source), "_", ""), 0, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

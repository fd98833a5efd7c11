package pyenv

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"pydefs/internal/syntax"
)

// Evaluate statically decides a condition from an if/elif guard. Only a fixed
// set of shapes is understood: boolean literals, TYPE_CHECKING, sys.platform
// and sys.version_info comparisons, and not/and/or over those. Everything
// else is Unknown.
func (e Env) Evaluate(source []byte, cond *sitter.Node) Truth {
	if cond == nil {
		return Unknown
	}
	switch cond.Kind() {
	case "true":
		return True
	case "false":
		return False
	case "identifier":
		if syntax.Text(cond, source) == "TYPE_CHECKING" {
			return True
		}
	case "attribute":
		if isDottedAttr(cond, source, "typing", "TYPE_CHECKING") {
			return True
		}
	case "parenthesized_expression":
		if inner := cond.NamedChild(0); inner != nil {
			return e.Evaluate(source, inner)
		}
	case "not_operator":
		return e.Evaluate(source, cond.ChildByFieldName("argument")).Not()
	case "boolean_operator":
		left := e.Evaluate(source, cond.ChildByFieldName("left"))
		right := e.Evaluate(source, cond.ChildByFieldName("right"))
		op := cond.ChildByFieldName("operator")
		if op == nil {
			return Unknown
		}
		switch syntax.Text(op, source) {
		case "and":
			return left.And(right)
		case "or":
			return left.Or(right)
		}
	case "comparison_operator":
		return e.comparison(source, cond)
	}
	return Unknown
}

func (e Env) comparison(source []byte, cond *sitter.Node) Truth {
	// only simple binary comparisons; chains stay Unknown
	if cond.NamedChildCount() != 2 {
		return Unknown
	}
	op := comparisonOp(cond, source)
	if op == "" {
		return Unknown
	}
	left, lok := e.value(source, cond.NamedChild(0))
	right, rok := e.value(source, cond.NamedChild(1))
	if !lok || !rok || left.kind != right.kind {
		return Unknown
	}

	c, ok := left.compare(right)
	if !ok {
		return Unknown
	}
	switch op {
	case "==":
		return FromBool(c == 0)
	case "!=":
		return FromBool(c != 0)
	case "<":
		return FromBool(c < 0)
	case "<=":
		return FromBool(c <= 0)
	case ">":
		return FromBool(c > 0)
	case ">=":
		return FromBool(c >= 0)
	}
	return Unknown
}

func comparisonOp(cond *sitter.Node, source []byte) string {
	for i := uint(0); i < cond.ChildCount(); i++ {
		switch t := syntax.Text(cond.Child(i), source); t {
		case "==", "!=", "<", "<=", ">", ">=":
			return t
		}
	}
	return ""
}

const (
	kindString = iota
	kindInt
	kindTuple
)

type value struct {
	kind int
	str  string
	num  int
	tup  []int
}

// value extracts a comparable static value from an expression: string and int
// literals, int tuples, sys.platform, sys.version_info, sys.version_info[i].
func (e Env) value(source []byte, node *sitter.Node) (value, bool) {
	if node == nil {
		return value{}, false
	}
	switch node.Kind() {
	case "string", "concatenated_string":
		if s, ok := syntax.StringLiteral(node, source); ok {
			return value{kind: kindString, str: s}, true
		}
	case "integer":
		if n, ok := syntax.IntLiteral(node, source); ok {
			return value{kind: kindInt, num: n}, true
		}
	case "parenthesized_expression":
		return e.value(source, node.NamedChild(0))
	case "tuple":
		tup := make([]int, 0, node.NamedChildCount())
		for _, el := range syntax.NamedChildren(node) {
			n, ok := syntax.IntLiteral(el, source)
			if !ok {
				return value{}, false
			}
			tup = append(tup, n)
		}
		return value{kind: kindTuple, tup: tup}, true
	case "attribute":
		if isDottedAttr(node, source, "sys", "platform") {
			return value{kind: kindString, str: e.Platform}, true
		}
		if isDottedAttr(node, source, "sys", "version_info") {
			return value{kind: kindTuple, tup: e.Version}, true
		}
	case "subscript":
		obj := node.ChildByFieldName("value")
		idx := node.ChildByFieldName("subscript")
		if obj != nil && isDottedAttr(obj, source, "sys", "version_info") {
			if n, ok := syntax.IntLiteral(idx, source); ok {
				return value{kind: kindInt, num: e.versionAt(n)}, true
			}
		}
	}
	return value{}, false
}

func (v value) compare(o value) (int, bool) {
	switch v.kind {
	case kindString:
		switch {
		case v.str < o.str:
			return -1, true
		case v.str > o.str:
			return 1, true
		}
		return 0, true
	case kindInt:
		return v.num - o.num, true
	case kindTuple:
		return compareTuples(v.tup, o.tup), true
	}
	return 0, false
}

// compareTuples follows Python tuple ordering: elementwise, with a shorter
// prefix comparing less.
func compareTuples(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func isDottedAttr(node *sitter.Node, source []byte, object, attr string) bool {
	if node.Kind() != "attribute" {
		return false
	}
	obj := node.ChildByFieldName("object")
	at := node.ChildByFieldName("attribute")
	return obj != nil && at != nil &&
		obj.Kind() == "identifier" &&
		syntax.Text(obj, source) == object &&
		syntax.Text(at, source) == attr
}

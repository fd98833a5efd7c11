package exports

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pydefs/internal/names"
	"pydefs/internal/pyenv"
	"pydefs/internal/syntax"
)

// Evaluator statically decides boolean-looking guards. Read-only; safe to
// share across concurrent analyses.
type Evaluator interface {
	Evaluate(source []byte, cond *sitter.Node) pyenv.Truth
}

// Builder is a single-pass walker over a module's top-level statements. It
// records module-scope bindings only: class and function bodies are separate
// scopes and are never entered. One builder is owned by one analysis and
// discarded once it yields its table.
type Builder struct {
	module names.ModuleName
	isInit bool
	eval   Evaluator
	source []byte
	defs   *Definitions
}

// Scan walks the statements of a parsed module body and produces the
// definitions table. It is a pure function of its inputs and never fails:
// unresolvable or unrecognized shapes degrade to recording nothing.
func Scan(mod *syntax.Module, module names.ModuleName, isInit bool, eval Evaluator) *Definitions {
	b := &Builder{
		module: module,
		isInit: isInit,
		eval:   eval,
		source: mod.Source,
		defs:   NewDefinitions(),
	}
	b.stmts(mod.Root())
	return b.defs
}

func (b *Builder) stmts(block *sitter.Node) {
	for _, stmt := range syntax.Statements(block) {
		b.stmt(stmt)
	}
}

func (b *Builder) addName(name string, span syntax.Span, style Style) {
	b.defs.add(name, span, style)
}

func (b *Builder) stmt(node *sitter.Node) {
	switch node.Kind() {
	case "import_statement":
		b.importStmt(node)

	case "import_from_statement":
		b.importFromStmt(node)

	case "future_import_statement":
		b.futureImportStmt(node)

	case "function_definition", "class_definition":
		// bodies are separate scopes; only the definition's own name binds here
		if name := node.ChildByFieldName("name"); name != nil {
			b.addName(syntax.Text(name, b.source), syntax.NodeSpan(name), StyleLocal)
		}
		return

	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			b.stmt(def)
		}
		return

	case "expression_statement":
		for _, expr := range syntax.NamedChildren(node) {
			switch expr.Kind() {
			case "assignment":
				b.assignment(expr)
			case "augmented_assignment":
				b.augmentedAssignment(expr)
			case "call":
				b.exportCall(expr)
			}
		}
		return

	case "if_statement":
		b.ifStmt(node)
		return

	case "for_statement":
		b.bindTargets(node.ChildByFieldName("left"))

	case "with_statement":
		b.withStmt(node)

	case "try_statement":
		b.tryHandlers(node)

	case "match_statement":
		b.matchStmt(node)
		return

	case "type_alias_statement":
		b.typeAlias(node)
		return
	}

	// structural recursion into nested statement blocks for everything that
	// didn't claim the whole subtree above
	syntax.VisitNestedBlocks(node, b.stmts)
}

func (b *Builder) importStmt(node *sitter.Node) {
	for _, child := range syntax.NamedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			// `import a.b.c` binds only the top-level component
			mod := names.ModuleName(syntax.Text(child, b.source))
			b.addName(mod.First(), syntax.NodeSpan(child), StyleImportModule)
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			style := StyleImportAs
			if syntax.Text(alias, b.source) == syntax.Text(name, b.source) {
				style = StyleImportAsEq
			}
			b.addName(syntax.Text(alias, b.source), syntax.NodeSpan(alias), style)
		}
	}
}

func (b *Builder) importFromStmt(node *sitter.Node) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return
	}
	dots, base := splitRelative(moduleNode, b.source)

	resolve := func() (names.ModuleName, bool) {
		return names.ResolveRelative(b.module, b.isInit, dots, base)
	}

	for _, child := range syntax.NamedChildren(node) {
		if child.StartByte() == moduleNode.StartByte() {
			// the module part itself, not an imported name
			continue
		}
		switch child.Kind() {
		case "wildcard_import":
			// records the module only; expansion happens in a later phase.
			// unresolvable relative imports are dropped silently.
			if mod, ok := resolve(); ok {
				b.defs.addStar(mod, syntax.NodeSpan(child))
			}
		case "dotted_name":
			b.addName(syntax.Text(child, b.source), syntax.NodeSpan(child), StyleImport)
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			nameText := syntax.Text(name, b.source)
			aliasText := syntax.Text(alias, b.source)
			style := StyleImportAs
			if aliasText == nameText {
				style = StyleImportAsEq
			}
			b.addName(aliasText, syntax.NodeSpan(alias), style)
			// `from M import __all__ as __all__` re-exports M wholesale:
			// reset the log to a single deferral
			if style == StyleImportAsEq && nameText == dunderAll {
				if mod, ok := resolve(); ok {
					b.defs.ExportLog = []ExportOp{moduleOp(syntax.NodeSpan(node), mod)}
				}
			}
		}
	}
}

// futureImportStmt handles `from __future__ import ...`, which binds its
// names like any other from-import but can never be a wildcard.
func (b *Builder) futureImportStmt(node *sitter.Node) {
	for _, child := range syntax.NamedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			b.addName(syntax.Text(child, b.source), syntax.NodeSpan(child), StyleImport)
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			style := StyleImportAs
			if syntax.Text(alias, b.source) == syntax.Text(name, b.source) {
				style = StyleImportAsEq
			}
			b.addName(syntax.Text(alias, b.source), syntax.NodeSpan(alias), style)
		}
	}
}

// splitRelative decomposes the module part of a from-import into its leading
// dot count and trailing dotted name.
func splitRelative(moduleNode *sitter.Node, source []byte) (int, string) {
	if moduleNode.Kind() != "relative_import" {
		return 0, syntax.Text(moduleNode, source)
	}
	dots := 0
	base := ""
	for _, child := range syntax.NamedChildren(moduleNode) {
		switch child.Kind() {
		case "import_prefix":
			dots = strings.Count(syntax.Text(child, source), ".")
		case "dotted_name":
			base = syntax.Text(child, source)
		}
	}
	if dots == 0 {
		// the prefix may be anonymous in some grammar versions; count from
		// the raw text instead
		text := syntax.Text(moduleNode, source)
		for dots < len(text) && text[dots] == '.' {
			dots++
		}
	}
	return dots, base
}

func (b *Builder) assignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")

	b.bindTargets(left)

	if right != nil && right.Kind() == "assignment" {
		// chained targets: `a = b = expr`
		b.assignment(right)
	}

	// `__all__ = <expr>` resets the whole log. An annotated `__all__: X = ...`
	// is a plain binding, matching the original pass's shape set.
	if node.ChildByFieldName("type") == nil && isDunderAllName(left, b.source) {
		b.defs.ExportLog = exportOpsFromList(chainValue(node), b.source)
	}
}

// chainValue returns the rightmost non-assignment value of a (possibly
// chained) assignment.
func chainValue(node *sitter.Node) *sitter.Node {
	right := node.ChildByFieldName("right")
	for right != nil && right.Kind() == "assignment" {
		right = right.ChildByFieldName("right")
	}
	return right
}

func (b *Builder) augmentedAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	op := node.ChildByFieldName("operator")
	right := node.ChildByFieldName("right")

	if isDunderAllName(left, b.source) && op != nil && syntax.Text(op, b.source) == "+=" {
		// the right-hand side is an export-log append, not a binding
		b.defs.ExportLog = append(b.defs.ExportLog, exportOpsFromList(right, b.source)...)
		return
	}
	b.bindTargets(left)
}

// exportCall recognizes `__all__.extend(x)`, `__all__.append(x)` and
// `__all__.remove("name")` expression statements. Exactly one positional
// argument; anything else contributes nothing.
func (b *Builder) exportCall(node *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "attribute" {
		return
	}
	obj := fn.ChildByFieldName("object")
	method := fn.ChildByFieldName("attribute")
	if !isDunderAllName(obj, b.source) || method == nil {
		return
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	positional := syntax.NamedChildren(args)
	if len(positional) != 1 || positional[0].Kind() == "keyword_argument" {
		return
	}
	arg := positional[0]

	switch syntax.Text(method, b.source) {
	case "extend":
		b.defs.ExportLog = append(b.defs.ExportLog, exportOpsFromList(arg, b.source)...)
	case "append":
		if op, ok := exportOpFromItem(arg, b.source); ok {
			b.defs.ExportLog = append(b.defs.ExportLog, op)
		}
	case "remove":
		if op, ok := exportOpFromItem(arg, b.source); ok && op.Kind == ExportName {
			b.defs.ExportLog = append(b.defs.ExportLog, removeOp(op.Span, op.Name))
		}
	}
}

// ifStmt applies the three-valued branch policy: a definitely-false guard
// contributes nothing, a definitely-true guard contributes its body and stops
// the chain, and an unknown guard contributes its body while later branches
// stay live. Unknown conditions therefore union all reachable branches.
func (b *Builder) ifStmt(node *sitter.Node) {
	cond := node.ChildByFieldName("condition")
	body := node.ChildByFieldName("consequence")

	t := b.eval.Evaluate(b.source, cond)
	if t != pyenv.False && body != nil {
		b.stmts(body)
	}
	if t == pyenv.True {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "elif_clause":
			t := b.eval.Evaluate(b.source, child.ChildByFieldName("condition"))
			if t != pyenv.False {
				if body := child.ChildByFieldName("consequence"); body != nil {
					b.stmts(body)
				}
			}
			if t == pyenv.True {
				return
			}
		case "else_clause":
			if body := child.ChildByFieldName("body"); body != nil {
				b.stmts(body)
			}
		}
	}
}

func (b *Builder) withStmt(node *sitter.Node) {
	clause := syntax.FindChild(node, "with_clause")
	if clause == nil {
		return
	}
	for _, item := range syntax.NamedChildren(clause) {
		if item.Kind() != "with_item" {
			continue
		}
		value := item.ChildByFieldName("value")
		if value == nil || value.Kind() != "as_pattern" {
			continue
		}
		if alias := value.ChildByFieldName("alias"); alias != nil {
			b.bindTargets(alias)
		}
	}
}

func (b *Builder) tryHandlers(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		clause := node.Child(i)
		switch clause.Kind() {
		case "except_clause", "except_group_clause":
			b.bindExceptAlias(clause)
		}
	}
}

// bindExceptAlias binds the `as name` of an exception handler, if present.
func (b *Builder) bindExceptAlias(clause *sitter.Node) {
	sawAs := false
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if child.Kind() == "as" {
			sawAs = true
			continue
		}
		if sawAs && child.Kind() == "identifier" {
			b.addName(syntax.Text(child, b.source), syntax.NodeSpan(child), StyleLocal)
			return
		}
	}
}

func (b *Builder) matchStmt(node *sitter.Node) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for _, clause := range syntax.NamedChildren(body) {
		if clause.Kind() != "case_clause" {
			continue
		}
		for _, child := range syntax.NamedChildren(clause) {
			if child.Kind() == "case_pattern" {
				b.bindPattern(child)
			}
		}
		if consequence := clause.ChildByFieldName("consequence"); consequence != nil {
			b.stmts(consequence)
		}
	}
}

// typeAlias binds the left-hand name of `type X = ...`.
func (b *Builder) typeAlias(node *sitter.Node) {
	left := node.NamedChild(0)
	if left == nil {
		return
	}
	target := left
	if target.Kind() == "type" {
		target = target.NamedChild(0)
	}
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		b.addName(syntax.Text(target, b.source), syntax.NodeSpan(target), StyleLocal)
	case "generic_type", "subscript":
		if name := target.NamedChild(0); name != nil && name.Kind() == "identifier" {
			b.addName(syntax.Text(name, b.source), syntax.NodeSpan(name), StyleLocal)
		}
	}
}

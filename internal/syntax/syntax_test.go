package syntax

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func TestParseModuleStatements(t *testing.T) {
	p := NewParser()
	mod, err := p.ParseModule([]byte(`
import os
# a comment
x = 1

def f():
    pass
`))
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close()

	stmts := Statements(mod.Root())
	kinds := make([]string, len(stmts))
	for i, s := range stmts {
		kinds[i] = s.Kind()
	}

	want := []string{"import_statement", "expression_statement", "function_definition"}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("statement %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestVisitNestedBlocks(t *testing.T) {
	p := NewParser()
	mod, err := p.ParseModule([]byte(`
try:
    a = 1
except ValueError:
    b = 2
else:
    c = 3
finally:
    d = 4
`))
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close()

	tryStmt := Statements(mod.Root())[0]
	if tryStmt.Kind() != "try_statement" {
		t.Fatalf("kind = %s, want try_statement", tryStmt.Kind())
	}

	var blocks []*sitter.Node
	VisitNestedBlocks(tryStmt, func(block *sitter.Node) {
		blocks = append(blocks, block)
	})
	if len(blocks) != 4 {
		t.Errorf("blocks = %d, want try/except/else/finally", len(blocks))
	}
}

func TestStringLiteral(t *testing.T) {
	tests := []struct {
		code string
		want string
		ok   bool
	}{
		{`x = "hello"`, "hello", true},
		{`x = 'single'`, "single", true},
		{`x = "with\nescape"`, "with\nescape", true},
		{`x = "a" "b"`, "ab", true},
		{`x = f"formatted {y}"`, "", false},
		{`x = name`, "", false},
		{`x = 42`, "", false},
	}
	p := NewParser()
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			mod, err := p.ParseModule([]byte(tt.code))
			if err != nil {
				t.Fatal(err)
			}
			defer mod.Close()

			assign := Statements(mod.Root())[0].NamedChild(0)
			right := assign.ChildByFieldName("right")
			got, ok := StringLiteral(right, mod.Source)
			if ok != tt.ok || got != tt.want {
				t.Errorf("StringLiteral = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIntLiteral(t *testing.T) {
	p := NewParser()
	mod, err := p.ParseModule([]byte("x = 1_000"))
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close()

	right := Statements(mod.Root())[0].NamedChild(0).ChildByFieldName("right")
	got, ok := IntLiteral(right, mod.Source)
	if !ok || got != 1000 {
		t.Errorf("IntLiteral = (%d, %v), want (1000, true)", got, ok)
	}
}

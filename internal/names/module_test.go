package names

import "testing"

func TestFirstComponent(t *testing.T) {
	tests := []struct {
		module ModuleName
		first  string
	}{
		{"a", "a"},
		{"a.b.c", "a"},
		{"mod.ule", "mod"},
	}
	for _, tt := range tests {
		if got := tt.module.First(); got != tt.first {
			t.Errorf("First(%q) = %q, want %q", tt.module, got, tt.first)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name    string
		current ModuleName
		isInit  bool
		dots    int
		base    string
		want    ModuleName
		ok      bool
	}{
		{"absolute", "pkg.mod", false, 0, "other.thing", "other.thing", true},
		{"absolute empty", "pkg.mod", false, 0, "", "", false},
		{"one dot sibling", "pkg.sub.mod", false, 1, "leaf", "pkg.sub.leaf", true},
		{"one dot bare", "pkg.sub.mod", false, 1, "", "pkg.sub", true},
		{"two dots", "pkg.sub.mod", false, 2, "uncle", "pkg.uncle", true},
		{"escape root", "pkg.mod", false, 3, "x", "", false},
		{"strip to nothing", "pkg.mod", false, 2, "", "", false},
		{"init counts as deeper", "pkg.sub", true, 1, "leaf", "pkg.sub.leaf", true},
		{"init two dots", "pkg.sub", true, 2, "leaf", "pkg.leaf", true},
		{"top level escape", "mod", false, 1, "x", "x", true},
		{"top level double escape", "mod", false, 2, "x", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveRelative(tt.current, tt.isInit, tt.dots, tt.base)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ResolveRelative(%q, %v, %d, %q) = (%q, %v), want (%q, %v)",
					tt.current, tt.isInit, tt.dots, tt.base, got, ok, tt.want, tt.ok)
			}
		})
	}
}

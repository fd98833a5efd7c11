package exports

import (
	"reflect"
	"testing"

	"pydefs/internal/names"
	"pydefs/internal/pyenv"
	"pydefs/internal/syntax"
)

func scanSource(t *testing.T, code string) *Definitions {
	t.Helper()
	return scanSourceIn(t, code, "main", false)
}

func scanSourceIn(t *testing.T, code, module string, isInit bool) *Definitions {
	t.Helper()
	parser := syntax.NewParser()
	mod, err := parser.ParseModule([]byte(code))
	if err != nil {
		t.Fatal(err)
	}
	defer mod.Close()
	return Scan(mod, names.ModuleName(module), isInit, pyenv.Default())
}

func starModules(d *Definitions) []string {
	stars := d.StarImports()
	out := make([]string, len(stars))
	for i, s := range stars {
		out[i] = s.Module.String()
	}
	return out
}

func opStrings(ops []ExportOp) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out
}

func TestScanDefinitions(t *testing.T) {
	defs := scanSource(t, `
from foo import *
from bar import baz as qux
from bar import moo
import mod.ule
import mod.lue

def x():
    y = 1

for z, w in []:
    pass

no.thing = 8

n = True

r[p] = 1
`)

	if got, want := starModules(defs), []string{"foo"}; !reflect.DeepEqual(got, want) {
		t.Errorf("star imports = %v, want %v", got, want)
	}
	if got, want := defs.Names(), []string{"qux", "moo", "mod", "x", "z", "w", "n"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}

	mod, ok := defs.Lookup("mod")
	if !ok {
		t.Fatal("mod not found")
	}
	if mod.Style != StyleImportModule {
		t.Errorf("mod style = %v, want import-module", mod.Style)
	}
	if mod.Count != 2 {
		t.Errorf("mod count = %d, want 2", mod.Count)
	}
}

func TestScanImportStyles(t *testing.T) {
	defs := scanSource(t, `
import os
import os.path as osp
import sys as sys
from collections import OrderedDict
from collections import abc as abc
from collections import deque as dq
`)

	tests := []struct {
		name  string
		style Style
	}{
		{"os", StyleImportModule},
		{"osp", StyleImportAs},
		{"sys", StyleImportAsEq},
		{"OrderedDict", StyleImport},
		{"abc", StyleImportAsEq},
		{"dq", StyleImportAs},
	}
	for _, tt := range tests {
		got, ok := defs.Lookup(tt.name)
		if !ok {
			t.Errorf("%s not found", tt.name)
			continue
		}
		if got.Style != tt.style {
			t.Errorf("%s style = %v, want %v", tt.name, got.Style, tt.style)
		}
	}
}

func TestScanPrecedence(t *testing.T) {
	defs := scanSource(t, `
from m import n
n = 1
`)
	got, ok := defs.Lookup("n")
	if !ok {
		t.Fatal("n not found")
	}
	if got.Style != StyleLocal {
		t.Errorf("style = %v, want local", got.Style)
	}
	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}

	// same merge, opposite order
	defs = scanSource(t, `
n = 1
from m import n
`)
	got, _ = defs.Lookup("n")
	if got.Style != StyleLocal {
		t.Errorf("style after rebind = %v, want local", got.Style)
	}
	if got.Count != 2 {
		t.Errorf("count = %d, want 2", got.Count)
	}
}

func TestScanScopeIsolation(t *testing.T) {
	defs := scanSource(t, `
def outer():
    inner = 1
    def nested():
        pass

class C:
    attr = 1
    def method(self):
        local = 2
`)
	if got, want := defs.Names(), []string{"outer", "C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScanNestedStatementBlocks(t *testing.T) {
	defs := scanSource(t, `
while True:
    inside_while = 1

for i in range(3):
    inside_for = 2
else:
    for_else = 3

with open("f") as fh:
    inside_with = 4

try:
    in_try = 5
except ValueError as err:
    in_except = 6
finally:
    in_finally = 7
`)
	// handler aliases bind when the try statement itself is visited, before
	// its blocks are walked
	want := []string{
		"inside_while", "i", "inside_for", "for_else", "fh", "inside_with",
		"err", "in_try", "in_except", "in_finally",
	}
	if got := defs.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScanConditionalPolicy(t *testing.T) {
	t.Run("definite platform chain", func(t *testing.T) {
		defs := scanSource(t, `
if sys.platform == "win32":
    a = 1
elif sys.platform == "linux":
    b = 1
else:
    c = 1
`)
		if got, want := defs.Names(), []string{"b"}; !reflect.DeepEqual(got, want) {
			t.Errorf("names = %v, want %v", got, want)
		}
	})

	t.Run("unknown guard unions branches", func(t *testing.T) {
		defs := scanSource(t, `
if flag:
    u1 = 1
elif other:
    u2 = 2
else:
    u3 = 3
`)
		if got, want := defs.Names(), []string{"u1", "u2", "u3"}; !reflect.DeepEqual(got, want) {
			t.Errorf("names = %v, want %v", got, want)
		}
	})

	t.Run("definitely true stops the chain", func(t *testing.T) {
		defs := scanSource(t, `
if TYPE_CHECKING:
    t = 1
else:
    skipped = 1
`)
		if got, want := defs.Names(), []string{"t"}; !reflect.DeepEqual(got, want) {
			t.Errorf("names = %v, want %v", got, want)
		}
	})

	t.Run("version guard", func(t *testing.T) {
		defs := scanSource(t, `
if sys.version_info >= (3, 10):
    new_api = 1
else:
    old_api = 1
`)
		if got, want := defs.Names(), []string{"new_api"}; !reflect.DeepEqual(got, want) {
			t.Errorf("names = %v, want %v", got, want)
		}
	})
}

func TestScanExportLog(t *testing.T) {
	defs := scanSource(t, `
from foo import *
a = 1
b = 1

__all__ = ("a", "b")
__all__ += ["a", "b"]
__all__ += foo.__all__
__all__.extend(['a', 'b'])
__all__.extend(foo.__all__)
__all__.append('a')
__all__.remove('r')
`)

	if got, want := starModules(defs), []string{"foo"}; !reflect.DeepEqual(got, want) {
		t.Errorf("star imports = %v, want %v", got, want)
	}
	if got, want := defs.Names(), []string{"a", "b", "__all__"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}

	want := []string{
		"Name(a)", "Name(b)",
		"Name(a)", "Name(b)",
		"Module(foo)",
		"Name(a)", "Name(b)",
		"Module(foo)",
		"Name(a)",
		"Remove(r)",
	}
	if got := opStrings(defs.ExportLog); !reflect.DeepEqual(got, want) {
		t.Errorf("export log = %v, want %v", got, want)
	}
}

func TestScanExportLogReset(t *testing.T) {
	defs := scanSource(t, `
__all__ = ["a"]
__all__.append('b')
__all__ = ["c"]
`)
	if got, want := opStrings(defs.ExportLog), []string{"Name(c)"}; !reflect.DeepEqual(got, want) {
		t.Errorf("export log = %v, want %v", got, want)
	}
}

func TestScanExportLogIgnoredShapes(t *testing.T) {
	defs := scanSource(t, `
__all__ = ["a", compute(), "b"]
__all__.extend(make_list())
__all__.append(name)
__all__.remove(name)
__all__.sort()
__all__.extend(['x'], ['y'])
__all__.append(key='z')
__all__ -= ["a"]
`)
	// computed elements and unrecognized shapes contribute nothing
	if got, want := opStrings(defs.ExportLog), []string{"Name(a)", "Name(b)"}; !reflect.DeepEqual(got, want) {
		t.Errorf("export log = %v, want %v", got, want)
	}
}

func TestScanDunderAllReexport(t *testing.T) {
	defs := scanSource(t, `
from _collections_abc import *
from _collections_abc import __all__ as __all__
`)
	if got, want := starModules(defs), []string{"_collections_abc"}; !reflect.DeepEqual(got, want) {
		t.Errorf("star imports = %v, want %v", got, want)
	}
	if got, want := defs.Names(), []string{"__all__"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	if got, want := opStrings(defs.ExportLog), []string{"Module(_collections_abc)"}; !reflect.DeepEqual(got, want) {
		t.Errorf("export log = %v, want %v", got, want)
	}
}

func TestScanRelativeImports(t *testing.T) {
	defs := scanSourceIn(t, `
from . import sibling
from .leaf import *
from ..uncle import thing
from ...... import escaped
from ......escape import *
`, "pkg.sub.mod", false)

	// wildcard of .leaf resolves against the containing package; the deeply
	// dotted forms escape the root and are dropped without error
	if got, want := starModules(defs), []string{"pkg.sub.leaf"}; !reflect.DeepEqual(got, want) {
		t.Errorf("star imports = %v, want %v", got, want)
	}
	// name bindings happen regardless of whether the module resolves
	if got, want := defs.Names(), []string{"sibling", "thing", "escaped"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScanRelativeImportInit(t *testing.T) {
	defs := scanSourceIn(t, `
from .leaf import *
`, "pkg.sub", true)

	// inside a package initializer a single dot names the package itself
	if got, want := starModules(defs), []string{"pkg.sub.leaf"}; !reflect.DeepEqual(got, want) {
		t.Errorf("star imports = %v, want %v", got, want)
	}
}

func TestScanMatchPatterns(t *testing.T) {
	defs := scanSource(t, `
match command:
    case "quit":
        pass
    case x:
        matched_name = 1
    case [first, *rest]:
        pass
    case {"key": value}:
        pass
    case Point(x=px):
        pass
`)
	want := []string{"x", "matched_name", "first", "rest", "value", "px"}
	if got := defs.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScanAnnotatedAndChainedAssignments(t *testing.T) {
	defs := scanSource(t, `
x: int = 1
y: str
a = b = 2
`)
	want := []string{"x", "y", "a", "b"}
	if got := defs.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScanDecoratedAndTypeAlias(t *testing.T) {
	defs := scanSource(t, `
@decorator
def wrapped():
    hidden = 1

type Alias = list[int]
`)
	want := []string{"wrapped", "Alias"}
	if got := defs.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestScanPurity(t *testing.T) {
	code := `
from foo import *
import a.b
x = 1
if flag:
    y = 2
__all__ = ["x"]
`
	first := scanSource(t, code)
	second := scanSource(t, code)

	if !reflect.DeepEqual(first.Entries(), second.Entries()) {
		t.Error("entries differ between identical runs")
	}
	if !reflect.DeepEqual(first.StarImports(), second.StarImports()) {
		t.Error("star imports differ between identical runs")
	}
	if !reflect.DeepEqual(first.ExportLog, second.ExportLog) {
		t.Error("export logs differ between identical runs")
	}
}

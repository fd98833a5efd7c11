package scan

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pydefs/internal/exports"
	"pydefs/internal/pyenv"
)

func newTestScanner(t *testing.T, root string, opts Options) *Scanner {
	t.Helper()
	opts.Roots = []string{root}
	opts.Env = pyenv.Default()
	s, err := NewScanner(opts)
	require.NoError(t, err)
	return s
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/__init__.py": "from .core import *\n",
		"pkg/core.py":     "import os\n\ndef run():\n    pass\n\nvalue = 1\n",
		"pkg/_skip.log":   "not python",
		".git/hook.py":    "ignored = True\n",
		"gen_pb2.py":      "x = 1\n",
	})

	s := newTestScanner(t, root, Options{
		ExcludeDirs:  []string{".git"},
		ExcludeFiles: []string{"*_pb2.py"},
		Workers:      2,
	})

	snapshot, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot.Warnings)
	require.Len(t, snapshot.Results, 2)

	// results come back sorted by module name
	assert.Equal(t, "pkg", string(snapshot.Results[0].Module))
	assert.True(t, snapshot.Results[0].IsInit)
	assert.Equal(t, "pkg.core", string(snapshot.Results[1].Module))

	core := snapshot.Results[1].Defs
	def, ok := core.Lookup("run")
	require.True(t, ok)
	assert.Equal(t, exports.StyleLocal, def.Style)
	_, ok = core.Lookup("os")
	assert.True(t, ok)

	// the implicit builtins wildcard is always present
	stars := snapshot.Results[0].Defs.StarImports()
	require.Len(t, stars, 2)
	assert.Equal(t, "pkg.core", string(stars[0].Module))
	assert.Equal(t, "builtins", string(stars[1].Module))
}

func TestScanAllScriptClassification(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"lib.py":            "import json\nvalue = 1\n",
		"scripts/runner.py": "import json\nvalue = 1\n",
	})

	s := newTestScanner(t, root, Options{ScriptGlobs: []string{"runner.py"}})

	snapshot, err := s.ScanAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Results, 2)

	byModule := map[string]Result{}
	for _, r := range snapshot.Results {
		byModule[string(r.Module)] = r
	}

	assert.Equal(t, exports.LibraryModule, byModule["lib"].Kind)
	assert.Equal(t, exports.ScriptModule, byModule["scripts.runner"].Kind)

	// scripts export imported names in their synthesized __all__, libraries do not
	lib := opStrings(t, byModule["lib"].Defs)
	assert.Equal(t, []string{"Name(value)"}, lib)
	script := opStrings(t, byModule["scripts.runner"].Defs)
	assert.Contains(t, script, "Name(json)")
}

func TestScanFileMissing(t *testing.T) {
	root := t.TempDir()
	s := newTestScanner(t, root, Options{})
	_, err := s.ScanFile(filepath.Join(root, "missing.py"))
	require.Error(t, err)
}

func TestScanFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"mod.py": "__all__ = [\"a\"]\na = 1\n",
	})

	s := newTestScanner(t, root, Options{})
	result, err := s.ScanFile(filepath.Join(root, "mod.py"))
	require.NoError(t, err)
	assert.Equal(t, "mod", string(result.Module))

	got := opStrings(t, result.Defs)
	assert.Equal(t, []string{"Name(a)"}, got)
}

func opStrings(t *testing.T, defs *exports.Definitions) []string {
	t.Helper()
	out := make([]string, 0, len(defs.ExportLog))
	for _, op := range defs.ExportLog {
		out = append(out, op.String())
	}
	return out
}

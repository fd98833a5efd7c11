package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pydefs/internal/config"
)

func newTestApp(t *testing.T, files map[string]string) *App {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg := &config.Config{
		ScanPaths: []string{root},
		Store:     config.Store{Path: filepath.Join(t.TempDir(), "defs.db")},
	}
	cfg.Python.Platform = "linux"
	cfg.Python.Version = []int{3, 13, 0}
	cfg.Workers = 2

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRunScanAndPrint(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"pkg/__init__.py": "from .core import *\n",
		"pkg/core.py":     "__all__ = [\"run\"]\n\ndef run():\n    pass\n",
	})

	snapshot, scanID, err := a.RunScan(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, scanID)
	require.Len(t, snapshot.Results, 2)

	var summary bytes.Buffer
	a.PrintSummary(&summary, snapshot, scanID)
	assert.Contains(t, summary.String(), "modules:      2")

	var detail bytes.Buffer
	require.NoError(t, a.PrintModule(&detail, "pkg.core"))
	out := detail.String()
	assert.Contains(t, out, "pkg.core (library)")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "name run")

	var initDetail bytes.Buffer
	require.NoError(t, a.PrintModule(&initDetail, "pkg"))
	assert.Contains(t, initDetail.String(), "from pkg.core import *")
}

func TestRescanChanged(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/alpha.py":    "a = 1\n",
		"pkg/beta.py":     "b = 1\n",
	})
	root := a.Config.ScanPaths[0]

	_, firstID, err := a.RunScan(context.Background())
	require.NoError(t, err)

	// edit one module, delete another
	alphaPath := filepath.Join(root, "pkg", "alpha.py")
	require.NoError(t, os.WriteFile(alphaPath, []byte("a = 1\nc = 2\n"), 0o644))
	betaPath := filepath.Join(root, "pkg", "beta.py")
	require.NoError(t, os.Remove(betaPath))

	secondID, err := a.rescanChanged(context.Background(), []string{alphaPath, betaPath})
	require.NoError(t, err)
	require.NotEqual(t, firstID, secondID)

	modules, err := a.Store.ListModules(secondID)
	require.NoError(t, err)
	got := make([]string, 0, len(modules))
	for _, m := range modules {
		got = append(got, string(m))
	}
	assert.Equal(t, []string{"pkg", "pkg.alpha"}, got)

	alpha, err := a.Store.LoadModule(secondID, "pkg.alpha")
	require.NoError(t, err)
	names := make([]string, 0, len(alpha.Definitions))
	for _, def := range alpha.Definitions {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestRescanChangedWithoutPriorScan(t *testing.T) {
	a := newTestApp(t, map[string]string{"mod.py": "x = 1\n"})

	scanID, err := a.rescanChanged(context.Background(), []string{"whatever.py"})
	require.NoError(t, err)
	require.NotEmpty(t, scanID)

	modules, err := a.Store.ListModules(scanID)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "mod", string(modules[0]))
}

func TestPrintModuleWithoutScan(t *testing.T) {
	a := newTestApp(t, map[string]string{"mod.py": "x = 1\n"})
	err := a.PrintModule(&bytes.Buffer{}, "mod")
	assert.Error(t, err)
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"pydefs/internal/config"
	"pydefs/internal/exports"
	"pydefs/internal/names"
	"pydefs/internal/scan"
	"pydefs/internal/store"
	"pydefs/internal/watch"
)

// App wires the scanner, the snapshot store and the watcher together.
type App struct {
	Config  *config.Config
	Scanner *scan.Scanner
	Store   *store.Store

	watcher *watch.Watcher

	mu   sync.Mutex
	last *scan.Snapshot
}

func New(cfg *config.Config) (*App, error) {
	scanner, err := scan.NewScanner(scan.Options{
		Roots:        cfg.ScanPaths,
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: cfg.Exclude.Files,
		ScriptGlobs:  cfg.Python.Scripts,
		Env:          cfg.Env(),
		Workers:      cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("build scanner: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &App{Config: cfg, Scanner: scanner, Store: st}, nil
}

func (a *App) Close() error {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	return a.Store.Close()
}

// RunScan performs a full scan, persists it and returns the snapshot with
// its scan id.
func (a *App) RunScan(ctx context.Context) (*scan.Snapshot, string, error) {
	snapshot, err := a.Scanner.ScanAll(ctx)
	if err != nil {
		return nil, "", err
	}
	scanID, err := a.Store.SaveScan(snapshot)
	if err != nil {
		return nil, "", err
	}
	a.mu.Lock()
	a.last = snapshot
	a.mu.Unlock()
	slog.Info("scan persisted", "scan_id", scanID, "modules", len(snapshot.Results))
	return snapshot, scanID, nil
}

// rescanChanged re-analyzes only the touched files, carrying everything else
// over from the previous snapshot, and persists the merged result. Without a
// previous snapshot it falls back to a full scan.
func (a *App) rescanChanged(ctx context.Context, paths []string) (string, error) {
	a.mu.Lock()
	last := a.last
	a.mu.Unlock()
	if last == nil {
		_, scanID, err := a.RunScan(ctx)
		return scanID, err
	}

	started := time.Now()
	snapshot := &scan.Snapshot{StartedAt: started.UTC()}

	byPath := make(map[string]scan.Result, len(last.Results))
	for _, r := range last.Results {
		byPath[r.Path] = r
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			// deleted or renamed away
			delete(byPath, path)
			continue
		}
		result, err := a.Scanner.ScanFile(path)
		if err != nil {
			// keep the previous result for this file, if any
			snapshot.Warnings = append(snapshot.Warnings, err.Error())
			continue
		}
		byPath[path] = result
	}

	snapshot.Results = make([]scan.Result, 0, len(byPath))
	for _, r := range byPath {
		snapshot.Results = append(snapshot.Results, r)
	}
	sort.Slice(snapshot.Results, func(i, j int) bool {
		x, y := snapshot.Results[i], snapshot.Results[j]
		if x.Module != y.Module {
			return x.Module < y.Module
		}
		return x.Path < y.Path
	})
	snapshot.Duration = time.Since(started)

	scanID, err := a.Store.SaveScan(snapshot)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	a.last = snapshot
	a.mu.Unlock()
	slog.Info("incremental scan persisted",
		"scan_id", scanID,
		"changed", len(paths),
		"modules", len(snapshot.Results),
	)
	return scanID, nil
}

// StartWatcher begins watch mode: any debounced batch of changes re-analyzes
// the touched modules and persists a fresh snapshot.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watch.NewWatcher(watch.Options{
		Debounce:        a.Config.Watch.Debounce,
		MaxEventsPerSec: a.Config.Watch.MaxEventsPerSec,
		ExcludeDirs:     a.Config.Exclude.Dirs,
		ExcludeFiles:    a.Config.Exclude.Files,
	}, func(paths []string) {
		slog.Debug("rescanning after change", "changed", len(paths))
		if _, err := a.rescanChanged(ctx, paths); err != nil {
			slog.Error("rescan failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Watch(a.Config.ScanPaths); err != nil {
		_ = w.Close()
		return err
	}
	a.watcher = w
	return nil
}

// PrintSummary renders a scan snapshot for terminal consumption.
func (a *App) PrintSummary(w io.Writer, snapshot *scan.Snapshot, scanID string) {
	var defs, stars, ops int
	for _, r := range snapshot.Results {
		defs += r.Defs.Len()
		stars += len(r.Defs.StarImports())
		ops += len(r.Defs.ExportLog)
	}

	fmt.Fprintf(w, "Scan %s\n", scanID)
	fmt.Fprintf(w, "  modules:      %d\n", len(snapshot.Results))
	fmt.Fprintf(w, "  definitions:  %d\n", defs)
	fmt.Fprintf(w, "  star imports: %d\n", stars)
	fmt.Fprintf(w, "  export ops:   %d\n", ops)
	fmt.Fprintf(w, "  duration:     %s\n", snapshot.Duration.Round(time.Millisecond))

	if len(snapshot.Warnings) > 0 {
		fmt.Fprintf(w, "  warnings (%d):\n", len(snapshot.Warnings))
		for _, warning := range snapshot.Warnings {
			fmt.Fprintf(w, "    - %s\n", warning)
		}
	}
}

// PrintModule renders one module's definition table and export log from the
// latest persisted scan.
func (a *App) PrintModule(w io.Writer, module names.ModuleName) error {
	scanID, err := a.Store.LatestScanID()
	if err != nil {
		return err
	}
	if scanID == "" {
		return fmt.Errorf("no scans recorded yet")
	}

	record, err := a.Store.LoadModule(scanID, module)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s)\n", record.Module, record.Kind)
	fmt.Fprintf(w, "  path: %s\n", record.Path)

	defs := append([]exports.Definition(nil), record.Definitions...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	fmt.Fprintf(w, "  definitions (%d):\n", len(defs))
	for _, def := range defs {
		fmt.Fprintf(w, "    %-24s %s x%d @%d..%d\n", def.Name, def.Style, def.Count, def.Span.Start, def.Span.End)
	}

	if len(record.StarImports) > 0 {
		fmt.Fprintf(w, "  star imports (%d):\n", len(record.StarImports))
		for _, star := range record.StarImports {
			fmt.Fprintf(w, "    from %s import *\n", star.Module)
		}
	}

	fmt.Fprintf(w, "  export log (%d):\n", len(record.ExportOps))
	for _, op := range record.ExportOps {
		switch op.Kind {
		case "module":
			fmt.Fprintf(w, "    module %s\n", op.Target)
		case "remove":
			fmt.Fprintf(w, "    remove %s\n", op.Name)
		default:
			fmt.Fprintf(w, "    name %s\n", op.Name)
		}
	}
	return nil
}

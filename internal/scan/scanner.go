package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pydefs/internal/exports"
	"pydefs/internal/names"
	"pydefs/internal/pyenv"
	"pydefs/internal/shared/observability"
	"pydefs/internal/syntax"
)

// Result holds the definition table produced for a single module.
type Result struct {
	Path   string
	Module names.ModuleName
	IsInit bool
	Kind   exports.ModuleKind
	Defs   *exports.Definitions
}

// Snapshot is the outcome of one full scan over the configured roots.
type Snapshot struct {
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
	Warnings  []string
}

type Scanner struct {
	roots        []string
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	scriptGlobs  []glob.Glob
	env          pyenv.Env
	locator      *Locator
	workers      int

	mu sync.Mutex
}

type Options struct {
	Roots        []string
	ExcludeDirs  []string
	ExcludeFiles []string
	ScriptGlobs  []string
	Env          pyenv.Env
	Workers      int
}

func NewScanner(opts Options) (*Scanner, error) {
	dirGlobs, err := compileGlobs(opts.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(opts.ExcludeFiles, "exclude file")
	if err != nil {
		return nil, err
	}
	scriptGlobs, err := compileGlobs(opts.ScriptGlobs, "script")
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	return &Scanner{
		roots:        opts.Roots,
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
		scriptGlobs:  scriptGlobs,
		env:          opts.Env,
		locator:      NewLocator(opts.Roots),
		workers:      workers,
	}, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Discover walks the roots and returns the Python files to scan.
func (s *Scanner) Discover() ([]string, error) {
	var files []string
	for _, root := range s.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range s.excludeDirs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !strings.HasSuffix(base, ".py") {
				return nil
			}
			for _, g := range s.excludeFiles {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// ScanAll discovers and scans every module under the roots. Files that
// cannot be read, parsed or located are reported as warnings, never as a
// failed scan.
func (s *Scanner) ScanAll(ctx context.Context) (*Snapshot, error) {
	ctx, span := observability.Tracer.Start(ctx, "Scanner.ScanAll", trace.WithAttributes())
	defer span.End()

	started := time.Now()
	timer := observability.ScanDuration.WithLabelValues("full_scan")

	files, err := s.Discover()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("files", len(files)))

	snapshot := &Snapshot{StartedAt: started.UTC()}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parser := syntax.NewParser()
			for path := range jobs {
				result, warn := s.scanFile(parser, path)
				s.mu.Lock()
				if warn != "" {
					snapshot.Warnings = append(snapshot.Warnings, warn)
				} else {
					snapshot.Results = append(snapshot.Results, result)
				}
				s.mu.Unlock()
			}
		}()
	}

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(snapshot.Results, func(i, j int) bool {
		a, b := snapshot.Results[i], snapshot.Results[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		return a.Path < b.Path
	})

	snapshot.Duration = time.Since(started)
	timer.Observe(snapshot.Duration.Seconds())
	s.publishMetrics(snapshot)

	slog.Info("scan complete",
		"modules", len(snapshot.Results),
		"warnings", len(snapshot.Warnings),
		"duration", snapshot.Duration,
	)
	return snapshot, nil
}

// ScanFile scans a single module, e.g. after a watcher event.
func (s *Scanner) ScanFile(path string) (Result, error) {
	parser := syntax.NewParser()
	result, warn := s.scanFile(parser, path)
	if warn != "" {
		return Result{}, fmt.Errorf("%s", warn)
	}
	return result, nil
}

func (s *Scanner) scanFile(parser *syntax.Parser, path string) (Result, string) {
	module, isInit, err := s.locator.Locate(path)
	if err != nil {
		return Result{}, fmt.Sprintf("locate %s: %v", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Sprintf("read %s: %v", path, err)
	}

	parseStart := time.Now()
	mod, err := parser.ParseModule(content)
	if err != nil {
		observability.ParseFailuresTotal.Inc()
		return Result{}, fmt.Sprintf("parse %s: %v", path, err)
	}
	defer mod.Close()
	observability.ParsingDuration.Observe(time.Since(parseStart).Seconds())

	kind := exports.LibraryModule
	if s.isScript(path) {
		kind = exports.ScriptModule
	}

	defs := exports.Scan(mod, module, isInit, s.env)
	defs.InjectBuiltins()
	defs.EnsureExportLog(kind)

	return Result{Path: path, Module: module, IsInit: isInit, Kind: kind, Defs: defs}, ""
}

func (s *Scanner) isScript(path string) bool {
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, g := range s.scriptGlobs {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	return false
}

func (s *Scanner) publishMetrics(snapshot *Snapshot) {
	var defs, stars int
	for _, r := range snapshot.Results {
		defs += r.Defs.Len()
		stars += len(r.Defs.StarImports())
	}
	observability.ModulesScanned.Set(float64(len(snapshot.Results)))
	observability.DefinitionsFound.Set(float64(defs))
	observability.StarImportsFound.Set(float64(stars))
}

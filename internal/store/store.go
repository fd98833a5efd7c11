package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pydefs/internal/exports"
	"pydefs/internal/names"
	"pydefs/internal/scan"
	"pydefs/internal/shared/observability"
	"pydefs/internal/syntax"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists scan snapshots so consumers can diff definition tables
// across runs without re-parsing the tree.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveScan writes one snapshot under a fresh scan id and returns it.
func (s *Store) SaveScan(snapshot *scan.Snapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scanID := uuid.NewString()
	started := time.Now()

	err := s.withRetry("save scan", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if err := insertSnapshot(tx, scanID, snapshot); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}

	observability.StoreWriteDuration.Observe(time.Since(started).Seconds())
	return scanID, nil
}

func insertSnapshot(tx *sql.Tx, scanID string, snapshot *scan.Snapshot) error {
	_, err := tx.Exec(
		`INSERT INTO scans (id, started_at_utc, duration_ms, module_count, warning_count) VALUES (?, ?, ?, ?, ?)`,
		scanID,
		snapshot.StartedAt.UTC().Format(time.RFC3339Nano),
		snapshot.Duration.Milliseconds(),
		len(snapshot.Results),
		len(snapshot.Warnings),
	)
	if err != nil {
		return fmt.Errorf("insert scan row: %w", err)
	}

	for _, result := range snapshot.Results {
		if _, err := tx.Exec(
			`INSERT INTO modules (scan_id, module, path, is_init, kind) VALUES (?, ?, ?, ?, ?)`,
			scanID, string(result.Module), result.Path, boolInt(result.IsInit), result.Kind.String(),
		); err != nil {
			return fmt.Errorf("insert module %s: %w", result.Module, err)
		}

		for _, def := range result.Defs.Entries() {
			if _, err := tx.Exec(
				`INSERT INTO definitions (scan_id, module, path, name, style, bind_count, span_start, span_end)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				scanID, string(result.Module), result.Path, def.Name, def.Style.String(), def.Count, def.Span.Start, def.Span.End,
			); err != nil {
				return fmt.Errorf("insert definition %s.%s: %w", result.Module, def.Name, err)
			}
		}

		for i, star := range result.Defs.StarImports() {
			if _, err := tx.Exec(
				`INSERT INTO star_imports (scan_id, module, path, position, target, span_start, span_end)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				scanID, string(result.Module), result.Path, i, string(star.Module), star.Span.Start, star.Span.End,
			); err != nil {
				return fmt.Errorf("insert star import %s -> %s: %w", result.Module, star.Module, err)
			}
		}

		for i, op := range result.Defs.ExportLog {
			if _, err := tx.Exec(
				`INSERT INTO export_ops (scan_id, module, path, position, kind, name, target, span_start, span_end)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				scanID, string(result.Module), result.Path, i, opKindString(op.Kind), op.Name, string(op.Module), op.Span.Start, op.Span.End,
			); err != nil {
				return fmt.Errorf("insert export op %s[%d]: %w", result.Module, i, err)
			}
		}
	}

	return nil
}

// LatestScanID returns the most recently created scan, or "" when the store
// is empty.
func (s *Store) LatestScanID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	err := s.db.QueryRow(`SELECT id FROM scans ORDER BY created_at_utc DESC, id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest scan id: %w", err)
	}
	return id, nil
}

// ModuleRecord is the persisted form of one scanned module.
type ModuleRecord struct {
	Module      names.ModuleName
	Path        string
	IsInit      bool
	Kind        string
	Definitions []exports.Definition
	StarImports []exports.StarImport
	ExportOps   []ExportOpRow
}

// ExportOpRow mirrors an export log entry without the parse-tree types.
type ExportOpRow struct {
	Kind   string
	Name   string
	Target names.ModuleName
	Span   syntax.Span
}

func (s *Store) ListModules(scanID string) ([]names.ModuleName, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT DISTINCT module FROM modules WHERE scan_id = ? ORDER BY module ASC`, scanID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var out []names.ModuleName
	for rows.Next() {
		var module string
		if err := rows.Scan(&module); err != nil {
			return nil, fmt.Errorf("scan module row: %w", err)
		}
		out = append(out, names.ModuleName(module))
	}
	return out, rows.Err()
}

func (s *Store) LoadModule(scanID string, module names.ModuleName) (*ModuleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &ModuleRecord{Module: module}

	// A dotted name can be claimed by two files, e.g. pkg/mod.py next to
	// pkg/mod/__init__.py. Prefer the package form, then the lowest path,
	// matching import precedence.
	var isInit int
	err := s.db.QueryRow(
		`SELECT path, is_init, kind FROM modules
		 WHERE scan_id = ? AND module = ?
		 ORDER BY is_init DESC, path ASC LIMIT 1`,
		scanID, string(module),
	).Scan(&record.Path, &isInit, &record.Kind)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("module %s not found in scan %s", module, scanID)
	}
	if err != nil {
		return nil, fmt.Errorf("load module %s: %w", module, err)
	}
	record.IsInit = isInit != 0

	if record.Definitions, err = s.loadDefinitions(scanID, module, record.Path); err != nil {
		return nil, err
	}
	if record.StarImports, err = s.loadStarImports(scanID, module, record.Path); err != nil {
		return nil, err
	}
	if record.ExportOps, err = s.loadExportOps(scanID, module, record.Path); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Store) loadDefinitions(scanID string, module names.ModuleName, path string) ([]exports.Definition, error) {
	rows, err := s.db.Query(
		`SELECT name, style, bind_count, span_start, span_end
		 FROM definitions WHERE scan_id = ? AND module = ? AND path = ? ORDER BY name ASC`,
		scanID, string(module), path,
	)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	defer rows.Close()

	var out []exports.Definition
	for rows.Next() {
		var (
			def   exports.Definition
			style string
		)
		if err := rows.Scan(&def.Name, &style, &def.Count, &def.Span.Start, &def.Span.End); err != nil {
			return nil, fmt.Errorf("scan definition row: %w", err)
		}
		def.Style, err = styleFromString(style)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func (s *Store) loadStarImports(scanID string, module names.ModuleName, path string) ([]exports.StarImport, error) {
	rows, err := s.db.Query(
		`SELECT target, span_start, span_end
		 FROM star_imports WHERE scan_id = ? AND module = ? AND path = ? ORDER BY position ASC`,
		scanID, string(module), path,
	)
	if err != nil {
		return nil, fmt.Errorf("load star imports: %w", err)
	}
	defer rows.Close()

	var out []exports.StarImport
	for rows.Next() {
		var (
			star   exports.StarImport
			target string
		)
		if err := rows.Scan(&target, &star.Span.Start, &star.Span.End); err != nil {
			return nil, fmt.Errorf("scan star import row: %w", err)
		}
		star.Module = names.ModuleName(target)
		out = append(out, star)
	}
	return out, rows.Err()
}

func (s *Store) loadExportOps(scanID string, module names.ModuleName, path string) ([]ExportOpRow, error) {
	rows, err := s.db.Query(
		`SELECT kind, name, target, span_start, span_end
		 FROM export_ops WHERE scan_id = ? AND module = ? AND path = ? ORDER BY position ASC`,
		scanID, string(module), path,
	)
	if err != nil {
		return nil, fmt.Errorf("load export ops: %w", err)
	}
	defer rows.Close()

	var out []ExportOpRow
	for rows.Next() {
		var (
			op     ExportOpRow
			target string
		)
		if err := rows.Scan(&op.Kind, &op.Name, &target, &op.Span.Start, &op.Span.End); err != nil {
			return nil, fmt.Errorf("scan export op row: %w", err)
		}
		op.Target = names.ModuleName(target)
		out = append(out, op)
	}
	return out, rows.Err()
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		observability.StoreRetriesTotal.Inc()
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func opKindString(kind exports.ExportOpKind) string {
	switch kind {
	case exports.ExportModule:
		return "module"
	case exports.ExportRemove:
		return "remove"
	default:
		return "name"
	}
}

func styleFromString(s string) (exports.Style, error) {
	for _, style := range []exports.Style{
		exports.StyleLocal,
		exports.StyleImportAsEq,
		exports.StyleImportAs,
		exports.StyleImport,
		exports.StyleImportModule,
	} {
		if style.String() == s {
			return style, nil
		}
	}
	return 0, fmt.Errorf("unknown definition style %q", s)
}

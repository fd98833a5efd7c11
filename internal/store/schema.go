package store

import (
	"database/sql"
	"fmt"
)

const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS scans (
  id TEXT PRIMARY KEY,
  started_at_utc TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  module_count INTEGER NOT NULL,
  warning_count INTEGER NOT NULL,
  created_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
CREATE TABLE IF NOT EXISTS modules (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  module TEXT NOT NULL,
  path TEXT NOT NULL,
  is_init INTEGER NOT NULL,
  kind TEXT NOT NULL,
  PRIMARY KEY (scan_id, module, path)
);
CREATE TABLE IF NOT EXISTS definitions (
  scan_id TEXT NOT NULL,
  module TEXT NOT NULL,
  path TEXT NOT NULL,
  name TEXT NOT NULL,
  style TEXT NOT NULL,
  bind_count INTEGER NOT NULL,
  span_start INTEGER NOT NULL,
  span_end INTEGER NOT NULL,
  PRIMARY KEY (scan_id, module, path, name)
);
CREATE TABLE IF NOT EXISTS star_imports (
  scan_id TEXT NOT NULL,
  module TEXT NOT NULL,
  path TEXT NOT NULL,
  position INTEGER NOT NULL,
  target TEXT NOT NULL,
  span_start INTEGER NOT NULL,
  span_end INTEGER NOT NULL,
  PRIMARY KEY (scan_id, module, path, position)
);
CREATE TABLE IF NOT EXISTS export_ops (
  scan_id TEXT NOT NULL,
  module TEXT NOT NULL,
  path TEXT NOT NULL,
  position INTEGER NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  target TEXT NOT NULL DEFAULT '',
  span_start INTEGER NOT NULL,
  span_end INTEGER NOT NULL,
  PRIMARY KEY (scan_id, module, path, position)
);
CREATE INDEX IF NOT EXISTS idx_modules_module ON modules(module);
CREATE INDEX IF NOT EXISTS idx_definitions_module ON definitions(scan_id, module);
CREATE INDEX IF NOT EXISTS idx_export_ops_module ON export_ops(scan_id, module);
`,
	},
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

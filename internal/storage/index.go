/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "wireframe/internal/log"
	"wireframe/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2

	// tsLayout has a fixed width so stored timestamps sort as text.
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// Index is the per-user SQLite database holding the recent-files list and
// autosave snapshots. It is disposable: deleting it loses history, not documents.
type Index struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// IndexPath returns the index location inside dir (usually the config directory).
func IndexPath(dir string) string {
	return filepath.Join(dir, IndexFileName)
}

// OpenIndex creates or opens the index database at path, enables WAL mode and
// brings the schema up to date.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready")
	return &Index{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

// Path is the database file location.
func (ix *Index) Path() string { return ix.path }

func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

// SchemaVersion reports the schema version recorded in the database.
func (ix *Index) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := ix.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at version 1; runMigrations takes it the rest of the way.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS recent_files (
			path       TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			opened_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS autosaves (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id  TEXT NOT NULL,
			ts          TEXT NOT NULL,
			blob        BLOB NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create index schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_autosaves_project_ts ON autosaves(project_id, ts);`,
				`CREATE INDEX IF NOT EXISTS idx_recent_opened ON recent_files(opened_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// RecentFile is one entry of the recent-files list.
type RecentFile struct {
	Path     string
	Name     string
	OpenedAt time.Time
}

// language=SQL
// dialect=SQLite
const upsertRecentSQL = `INSERT INTO recent_files(path, name, opened_at) VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET name = excluded.name, opened_at = excluded.opened_at`

// language=SQL
// dialect=SQLite
const listRecentSQL = `SELECT path, name, opened_at FROM recent_files ORDER BY opened_at DESC, path LIMIT ?`

// language=SQL
// dialect=SQLite
const trimRecentSQL = `DELETE FROM recent_files WHERE path NOT IN (
	SELECT path FROM recent_files ORDER BY opened_at DESC, path LIMIT ?
)`

// RecordRecent moves path to the top of the recent-files list and trims the
// list to max entries (no trimming when max <= 0).
func (ix *Index) RecordRecent(ctx context.Context, path, name string, max int) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	ts := time.Now().UTC().Format(tsLayout)
	if _, err := ix.db.ExecContext(ctx, upsertRecentSQL, abs, name, ts); err != nil {
		return fmt.Errorf("record recent: %w", err)
	}
	if max > 0 {
		if _, err := ix.db.ExecContext(ctx, trimRecentSQL, max); err != nil {
			return fmt.Errorf("trim recent: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit recent files, newest first.
func (ix *Index) Recent(ctx context.Context, limit int) ([]RecentFile, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := ix.db.QueryContext(ctx, listRecentSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []RecentFile
	for rows.Next() {
		var rf RecentFile
		var ts string
		if err := rows.Scan(&rf.Path, &rf.Name, &ts); err != nil {
			return nil, err
		}
		rf.OpenedAt, _ = time.Parse(tsLayout, ts)
		out = append(out, rf)
	}
	return out, rows.Err()
}

// ForgetRecent removes path from the recent-files list.
func (ix *Index) ForgetRecent(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	_, err = ix.db.ExecContext(ctx, `DELETE FROM recent_files WHERE path = ?`, abs)
	return err
}

// OpenOrRebuildIndex opens the index and, if the file is unreadable or fails
// an integrity check, moves it aside into a backups folder and starts a fresh
// one. rebuilt reports whether that happened.
func OpenOrRebuildIndex(ctx context.Context, path string) (ix *Index, rebuilt bool, err error) {
	ix, err = OpenIndex(ctx, path)
	if err == nil {
		var chk string
		qerr := ix.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk)
		if qerr == nil && strings.EqualFold(strings.TrimSpace(chk), "ok") {
			return ix, false, nil
		}
		_ = ix.Close()
		err = fmt.Errorf("quick_check: %q %v", chk, qerr)
	}
	applog.WithComponent("storage").Warn("index unusable, rebuilding", slog.String("path", path), slog.Any("err", err))
	backupIndexFile(path)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	ix, rerr := OpenIndex(ctx, path)
	if rerr != nil {
		return nil, false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rerr, err)
	}
	return ix, true, nil
}

// backupIndexFile copies the current index file into a timestamped backup next to it.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package library publishes wireframe snapshots to a shared PostgreSQL
// database so other machines can fetch and open them.
package library

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"wireframe/internal/domain"
	applog "wireframe/internal/log"
	"wireframe/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned by Fetch for an unknown stable id.
var ErrNotFound = errors.New("library: project not found")

// Library is a handle to the shared project database.
type Library struct {
	db  *sql.DB
	log *slog.Logger
}

// Entry describes one published project.
type Entry struct {
	StableID    string
	Name        string
	Version     int64
	PublishedBy string
	UpdatedAt   time.Time
}

// WithPassword adds pw to dsn unless dsn already carries a password. Both
// URL ("postgres://user@host/db") and keyword ("host=... user=...") forms
// are accepted.
func WithPassword(dsn, pw string) string {
	if pw == "" {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			return dsn
		}
		if _, set := u.User.Password(); set {
			return dsn
		}
		u.User = url.UserPassword(u.User.Username(), pw)
		return u.String()
	}
	if strings.Contains(dsn, "password=") {
		return dsn
	}
	return strings.TrimSpace(dsn) + " password='" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(pw) + "'"
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Library, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("library: empty dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	l := &Library{db: db, log: applog.WithComponent("library")}
	if err := l.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

func (l *Library) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Publish stores s as the newest version of its project. The first publish
// of an id creates version 1; each later one bumps it by one.
func (l *Library) Publish(ctx context.Context, s domain.Snapshot, by string) (Entry, error) {
	if strings.TrimSpace(s.ID) == "" {
		return Entry{}, errors.New("library: snapshot has no id")
	}
	blob, err := storage.Marshal(s)
	if err != nil {
		return Entry{}, err
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		pid int64
		e   = Entry{StableID: s.ID, Name: s.Name, PublishedBy: by}
	)
	err = tx.QueryRowContext(ctx, `INSERT INTO projects(stable_id, name, published_by) VALUES($1, $2, $3)
		ON CONFLICT (stable_id) DO UPDATE SET
			name = EXCLUDED.name,
			published_by = EXCLUDED.published_by,
			version = projects.version + 1,
			updated_at = now()
		RETURNING id, version, updated_at`, s.ID, s.Name, by).Scan(&pid, &e.Version, &e.UpdatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("upsert project: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots(project_id, version, snapshot) VALUES($1, $2, $3)`,
		pid, e.Version, string(blob)); err != nil {
		return Entry{}, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit: %w", err)
	}
	l.log.Info("published", slog.String("project", s.ID), slog.Int64("version", e.Version))
	return e, nil
}

// List returns published projects, most recently updated first.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT stable_id, name, version, published_by, updated_at FROM projects ORDER BY updated_at DESC, stable_id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.StableID, &e.Name, &e.Version, &e.PublishedBy, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Fetch returns the newest published snapshot of stableID as raw JSON,
// ready for the project store's load path.
func (l *Library) Fetch(ctx context.Context, stableID string) ([]byte, Entry, error) {
	var (
		raw string
		e   = Entry{StableID: stableID}
	)
	err := l.db.QueryRowContext(ctx, `SELECT p.name, p.published_by, s.version, s.created_at, s.snapshot::text
		FROM snapshots s JOIN projects p ON p.id = s.project_id
		WHERE p.stable_id = $1
		ORDER BY s.version DESC LIMIT 1`, stableID).Scan(&e.Name, &e.PublishedBy, &e.Version, &e.UpdatedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Entry{}, fmt.Errorf("%w: %s", ErrNotFound, stableID)
	}
	if err != nil {
		return nil, Entry{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	if !json.Valid([]byte(raw)) {
		return nil, Entry{}, fmt.Errorf("fetch snapshot: stored value is not json")
	}
	return []byte(raw), e, nil
}

type migration struct {
	version int64
	name    string
}

func migrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			continue
		}
		v, err := parseVersion(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, migration{version: v, name: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// applyMigrations runs embedded SQL files in version order, each in its own
// transaction together with its schema_migrations row.
func (l *Library) applyMigrations(ctx context.Context) error {
	// dialect=PostgreSQL
	if _, err := l.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	applied := map[int64]bool{}
	rows, err := l.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	list, err := migrations()
	if err != nil {
		return err
	}
	for _, m := range list {
		if applied[m.version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", m.name))
		if err != nil {
			return err
		}
		l.log.Info("applying migration", slog.String("file", m.name))
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

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
	"time"
)

// language=SQL
// dialect=SQLite
const insertAutosaveSQL = `INSERT INTO autosaves(project_id, ts, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestAutosaveSQL = `SELECT ts, blob FROM autosaves WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listAutosavesSQL = `SELECT ts, blob FROM autosaves WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneAutosavesSQL = `DELETE FROM autosaves WHERE project_id = ? AND id NOT IN (
	SELECT id FROM autosaves WHERE project_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// Autosave is a stored copy of a project's .wire contents.
type Autosave struct {
	TS   time.Time
	Blob []byte
}

// SaveAutosave stores blob as the newest autosave of a project.
func (ix *Index) SaveAutosave(ctx context.Context, projectID string, blob []byte, ts time.Time) error {
	if projectID == "" {
		return errors.New("project id is required")
	}
	_, err := ix.db.ExecContext(ctx, insertAutosaveSQL, projectID, ts.UTC().Format(tsLayout), blob)
	return err
}

// LatestAutosave returns the newest autosave of a project, or ok=false if there is none.
func (ix *Index) LatestAutosave(ctx context.Context, projectID string) (a Autosave, ok bool, err error) {
	var tsStr string
	err = ix.db.QueryRowContext(ctx, selectLatestAutosaveSQL, projectID).Scan(&tsStr, &a.Blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Autosave{}, false, nil
	}
	if err != nil {
		return Autosave{}, false, err
	}
	a.TS, _ = time.Parse(tsLayout, tsStr)
	return a, true, nil
}

// ListAutosaves returns up to limit autosaves of a project, newest first.
func (ix *Index) ListAutosaves(ctx context.Context, projectID string, limit int) ([]Autosave, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := ix.db.QueryContext(ctx, listAutosavesSQL, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Autosave
	for rows.Next() {
		var tsStr string
		var a Autosave
		if err := rows.Scan(&tsStr, &a.Blob); err != nil {
			return nil, err
		}
		a.TS, _ = time.Parse(tsLayout, tsStr)
		out = append(out, a)
	}
	return out, rows.Err()
}

// PruneAutosaves keeps the newest keep autosaves of a project and deletes the rest.
func (ix *Index) PruneAutosaves(ctx context.Context, projectID string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := ix.db.ExecContext(ctx, pruneAutosavesSQL, projectID, projectID, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

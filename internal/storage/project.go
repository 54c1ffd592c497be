/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wireframe/internal/domain"
)

// BackupsDirName is created next to a saved file and holds earlier versions of it.
const BackupsDirName = ".wire-backups"

// Marshal encodes a snapshot the way .wire files are written: two-space
// indented JSON with a trailing newline.
func Marshal(s domain.Snapshot) ([]byte, error) {
	if s.Pages == nil {
		s.Pages = []domain.Page{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(data, '\n'), nil
}

// HasWireExtension reports whether path looks like a project file (.wire or .json).
func HasWireExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wire", ".json":
		return true
	}
	return false
}

// FileName turns a project name into a file name that stays inside the
// directory it is joined to. Path separators and ".." are neutralised.
func FileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(filepath.Base(name), ". ")
	if name == "" {
		name = domain.DefaultExportName
	}
	return domain.ExportFileName(name)
}

// WriteFile saves s to path with transactional semantics. An existing file is
// first copied to a timestamped backup in BackupsDirName.
func WriteFile(path string, s domain.Snapshot) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if _, statErr := os.Stat(path); statErr == nil {
		if cerr := copyFile(path, backupPath(path, time.Now())); cerr != nil {
			return fmt.Errorf("backup current file: %w", cerr)
		}
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace file: %w", rerr)
	}
	return nil
}

// ReadFile returns the raw contents of a project file. If the file is
// missing or is not valid JSON, the newest backup is returned instead and
// fromBackup is true.
func ReadFile(path string) (data []byte, fromBackup bool, err error) {
	b, err := os.ReadFile(path)
	if err == nil && json.Valid(b) {
		return b, false, nil
	}
	cause := err
	if cause == nil {
		cause = errors.New("invalid JSON")
	}
	bpath, berr := LatestBackup(path)
	if berr != nil {
		return nil, false, fmt.Errorf("read %s: %w; backup attempt: %v", filepath.Base(path), cause, berr)
	}
	bb, berr := os.ReadFile(bpath)
	if berr != nil || !json.Valid(bb) {
		return nil, false, fmt.Errorf("read %s: %w; backup %s unusable", filepath.Base(path), cause, filepath.Base(bpath))
	}
	return bb, true, nil
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	bdir := filepath.Join(filepath.Dir(path), BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// LatestBackup returns the newest backup of path.
func LatestBackup(path string) (string, error) {
	all, err := Backups(path)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", errors.New("no backups found")
	}
	return all[len(all)-1], nil
}

func backupPath(path string, ts time.Time) string {
	name := fmt.Sprintf("%s.%s.bak", filepath.Base(path), ts.Format("20060102-150405.000"))
	return filepath.Join(filepath.Dir(path), BackupsDirName, name)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

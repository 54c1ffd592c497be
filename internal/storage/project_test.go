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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wireframe/internal/domain"
)

func sampleSnapshot(name string) domain.Snapshot {
	return domain.Snapshot{
		ID:     "proj-1",
		Name:   name,
		Canvas: domain.DefaultCanvas(),
		Pages: []domain.Page{{
			ID:   "page-1",
			Name: "Page 1",
			Nodes: []domain.Node{
				{ID: "n1", Type: domain.NodeRect, Name: "Box", Frame: domain.Frame{X: 1, Y: 2, W: 30, H: 40}, Style: domain.DefaultStyle()},
				{ID: "n2", Type: domain.NodeTextKind, Name: "Label", Frame: domain.DefaultFrame(), Style: domain.DefaultStyle(), Text: &domain.NodeText{Value: "Hi", Size: 16, Color: "#111827"}},
			},
		}},
	}
}

func TestMarshalFormat(t *testing.T) {
	data, err := Marshal(sampleSnapshot("Spec"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	if !strings.HasPrefix(s, "{\n  \"id\": \"proj-1\",\n  \"name\": \"Spec\",") {
		t.Fatalf("unexpected layout:\n%s", s)
	}
	if !strings.HasSuffix(s, "}\n") {
		t.Fatalf("missing trailing newline")
	}
	if strings.Contains(s, "activePageId") {
		t.Fatalf("activePageId must not be persisted")
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	nodes := m["pages"].([]any)[0].(map[string]any)["nodes"].([]any)
	if _, has := nodes[0].(map[string]any)["text"]; has {
		t.Fatalf("rect node should not carry a text field")
	}

	empty, _ := Marshal(domain.Snapshot{ID: "x"})
	if !strings.Contains(string(empty), `"pages": []`) {
		t.Fatalf("nil pages should encode as an empty list:\n%s", empty)
	}
}

func TestWriteFileCreatesBackupOnOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, domain.ExportFileName("Spec"))
	if err := WriteFile(path, sampleSnapshot("first")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Backups(path); err == nil {
		t.Fatalf("first save should not create a backups dir")
	}
	if err := WriteFile(path, sampleSnapshot("second")); err != nil {
		t.Fatalf("WriteFile second: %v", err)
	}
	baks, err := Backups(path)
	if err != nil || len(baks) != 1 {
		t.Fatalf("Backups = %v, %v", baks, err)
	}
	old, _ := os.ReadFile(baks[0])
	if !strings.Contains(string(old), `"first"`) {
		t.Fatalf("backup should hold the previous contents")
	}
	cur, _ := os.ReadFile(path)
	if !strings.Contains(string(cur), `"second"`) {
		t.Fatalf("file should hold the new contents")
	}
	ents, _ := os.ReadDir(dir)
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadFileFallsBackToBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wire")
	if err := WriteFile(path, sampleSnapshot("good")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, fromBackup, err := ReadFile(path)
	if err != nil || fromBackup || !strings.Contains(string(data), `"good"`) {
		t.Fatalf("ReadFile = %q, %v, %v", data, fromBackup, err)
	}

	if err := WriteFile(path, sampleSnapshot("newer")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(path, []byte("{ truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, fromBackup, err = ReadFile(path)
	if err != nil || !fromBackup || !strings.Contains(string(data), `"good"`) {
		t.Fatalf("expected backup contents, got %q, %v, %v", data, fromBackup, err)
	}
}

func TestReadFileMissingWithoutBackup(t *testing.T) {
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.wire")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestHasWireExtension(t *testing.T) {
	cases := map[string]bool{"a.wire": true, "b.JSON": true, "c.txt": false, "wire": false}
	for in, want := range cases {
		if got := HasWireExtension(in); got != want {
			t.Fatalf("HasWireExtension(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Landing":     "Landing.wire",
		"":            "wireframe.wire",
		"../escaped":  "_escaped.wire",
		"/etc/passwd": "_etc_passwd.wire",
		`..\..\win`:   "_.._win.wire",
		"...":         "wireframe.wire",
		" Mock v2 ":   "Mock v2.wire",
	}
	for in, want := range cases {
		got := FileName(in)
		if got != want {
			t.Fatalf("FileName(%q) = %q, want %q", in, got, want)
		}
		if filepath.Base(got) != got {
			t.Fatalf("FileName(%q) = %q is not a bare file name", in, got)
		}
	}
}

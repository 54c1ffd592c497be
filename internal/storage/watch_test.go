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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.wire")
	if err := WriteFile(path, sampleSnapshot("v1")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	other := filepath.Join(dir, "other.wire")

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan []byte, 8)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, 20*time.Millisecond, func(b []byte) { got <- b }) }()
	time.Sleep(100 * time.Millisecond) // let the watcher register

	if err := os.WriteFile(other, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, sampleSnapshot("v2")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case b := <-got:
		if !strings.Contains(string(b), `"v2"`) {
			t.Fatalf("unexpected contents %s", b)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not stop after cancel")
	}
}

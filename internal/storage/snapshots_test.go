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
	"testing"
	"time"
)

func TestAutosavesCRUD(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	if _, ok, err := ix.LatestAutosave(ctx, "p1"); err != nil || ok {
		t.Fatalf("empty index: ok=%v err=%v", ok, err)
	}
	base := time.Now()
	if err := ix.SaveAutosave(ctx, "p1", []byte("hello"), base); err != nil {
		t.Fatalf("SaveAutosave: %v", err)
	}
	a, ok, err := ix.LatestAutosave(ctx, "p1")
	if err != nil || !ok || string(a.Blob) != "hello" {
		t.Fatalf("LatestAutosave got %q ok=%v err=%v", a.Blob, ok, err)
	}
	for i := 0; i < 5; i++ {
		b := []byte{byte('a' + i)}
		if err := ix.SaveAutosave(ctx, "p1", b, base.Add(time.Duration(i+1)*time.Millisecond)); err != nil {
			t.Fatalf("SaveAutosave %d: %v", i, err)
		}
	}
	if err := ix.SaveAutosave(ctx, "p2", []byte("other"), base); err != nil {
		t.Fatalf("SaveAutosave p2: %v", err)
	}
	list, err := ix.ListAutosaves(ctx, "p1", 10)
	if err != nil || len(list) != 6 {
		t.Fatalf("ListAutosaves got %d err %v", len(list), err)
	}
	if string(list[0].Blob) != "e" {
		t.Fatalf("newest first expected, got %q", list[0].Blob)
	}

	n, err := ix.PruneAutosaves(ctx, "p1", 3)
	if err != nil || n != 3 {
		t.Fatalf("PruneAutosaves = %d, %v", n, err)
	}
	list, _ = ix.ListAutosaves(ctx, "p1", 10)
	if len(list) != 3 {
		t.Fatalf("after prune got %d", len(list))
	}
	if other, _ := ix.ListAutosaves(ctx, "p2", 10); len(other) != 1 {
		t.Fatalf("prune must not touch other projects")
	}
	if err := ix.SaveAutosave(ctx, "", nil, base); err == nil {
		t.Fatalf("expected error for empty project id")
	}
}

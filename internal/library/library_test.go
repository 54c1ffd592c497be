/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"wireframe/internal/domain"
)

func openForTest(t *testing.T) *Library {
	t.Helper()
	dsn := os.Getenv("WF_LIBRARY_DSN")
	if dsn == "" {
		t.Skip("WF_LIBRARY_DSN not set; skipping postgres tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	l, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("cannot open postgres: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestMigrationsOrdered(t *testing.T) {
	list, err := migrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if len(list) < 2 {
		t.Fatalf("got %d migrations want at least 2", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].version <= list[i-1].version {
			t.Fatalf("migrations out of order: %v", list)
		}
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("migrations/012_add.sql"); err != nil || v != 12 {
		t.Fatalf("got %d,%v want 12", v, err)
	}
	if _, err := parseVersion("init.sql"); err == nil {
		t.Fatalf("expected error for name without version")
	}
}

func TestOpenEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestPublishFetchRoundTrip(t *testing.T) {
	l := openForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := domain.Snapshot{
		ID:     uuid.NewString(),
		Name:   "Shared",
		Canvas: domain.DefaultCanvas(),
		Pages:  []domain.Page{{ID: "pg", Name: "Page 1", Nodes: []domain.Node{}}},
	}
	e1, err := l.Publish(ctx, snap, "tester")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if e1.Version != 1 {
		t.Fatalf("first version got %d want 1", e1.Version)
	}
	snap.Name = "Shared v2"
	e2, err := l.Publish(ctx, snap, "tester")
	if err != nil {
		t.Fatalf("publish again: %v", err)
	}
	if e2.Version != 2 {
		t.Fatalf("second version got %d want 2", e2.Version)
	}

	raw, e, err := l.Fetch(ctx, snap.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if e.Version != 2 || e.Name != "Shared v2" {
		t.Fatalf("fetch entry got %+v", e)
	}
	var got domain.Snapshot
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "Shared v2" || len(got.Pages) != 1 {
		t.Fatalf("fetched snapshot got %+v", got)
	}

	list, err := l.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, it := range list {
		found = found || it.StableID == snap.ID
	}
	if !found {
		t.Fatalf("published project missing from list")
	}

	if _, _, err := l.Fetch(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id got %v want ErrNotFound", err)
	}
}

func TestWithPassword(t *testing.T) {
	cases := []struct{ dsn, pw, want string }{
		{"postgres://wf@db:5432/lib", "s3cret", "postgres://wf:s3cret@db:5432/lib"},
		{"postgres://wf:old@db/lib", "new", "postgres://wf:old@db/lib"},
		{"host=db user=wf", "it's", `host=db user=wf password='it\'s'`},
		{"host=db password=x", "y", "host=db password=x"},
		{"host=db", "", "host=db"},
	}
	for _, c := range cases {
		if got := WithPassword(c.dsn, c.pw); got != c.want {
			t.Fatalf("WithPassword(%q) got %q want %q", c.dsn, got, c.want)
		}
	}
}

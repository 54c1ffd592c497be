/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"reflect"
	"testing"
)

func pageWith(ids ...string) Page {
	pg := NewPage("p", "Page 1")
	for _, id := range ids {
		pg = pg.AppendNode(Node{ID: id, Type: NodeRect, Name: id, Frame: DefaultFrame(), Style: DefaultStyle()})
	}
	return pg
}

func order(pg Page) []string {
	out := make([]string, len(pg.Nodes))
	for i, n := range pg.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestReorder(t *testing.T) {
	cases := []struct {
		name string
		id   string
		dir  Direction
		want []string
	}{
		{"forward middle", "b", Forward, []string{"a", "c", "b"}},
		{"backward middle", "b", Backward, []string{"b", "a", "c"}},
		{"forward at front", "c", Forward, []string{"a", "b", "c"}},
		{"backward at back", "a", Backward, []string{"a", "b", "c"}},
		{"missing node", "zz", Forward, []string{"a", "b", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pg := pageWith("a", "b", "c")
			got := pg.Reorder(tc.id, tc.dir)
			if !reflect.DeepEqual(order(got), tc.want) {
				t.Fatalf("order = %v, want %v", order(got), tc.want)
			}
			if !reflect.DeepEqual(order(pg), []string{"a", "b", "c"}) {
				t.Fatalf("receiver mutated: %v", order(pg))
			}
		})
	}
}

func TestUpdateNodeTouchesOnlyTarget(t *testing.T) {
	pg := pageWith("a", "b")
	got := pg.UpdateNode("b", func(n Node) Node {
		n.Name = "renamed"
		n.Style.Opacity = 0.5
		return n
	})
	if got.Nodes[0] != pg.Nodes[0] {
		t.Fatalf("untargeted node changed: %+v", got.Nodes[0])
	}
	if got.Nodes[1].Name != "renamed" || got.Nodes[1].Style.Opacity != 0.5 {
		t.Fatalf("target not updated: %+v", got.Nodes[1])
	}
	if pg.Nodes[1].Name != "b" {
		t.Fatalf("receiver mutated: %+v", pg.Nodes[1])
	}
}

func TestUpdateNodeDoesNotShareText(t *testing.T) {
	pg := NewPage("p", "P").AppendNode(Node{ID: "t", Type: NodeTextKind, Text: &NodeText{Value: "a", Size: 10}})
	got := pg.UpdateNode("t", func(n Node) Node {
		n.Text.Value = "b"
		return n
	})
	if pg.Nodes[0].Text.Value != "a" || got.Nodes[0].Text.Value != "b" {
		t.Fatalf("text shared between snapshots: old=%q new=%q", pg.Nodes[0].Text.Value, got.Nodes[0].Text.Value)
	}
}

func TestRemoveNodeAndSetFrame(t *testing.T) {
	pg := pageWith("a", "b", "c").RemoveNode("b")
	if !reflect.DeepEqual(order(pg), []string{"a", "c"}) {
		t.Fatalf("order = %v", order(pg))
	}
	pg = pg.SetFrame("c", Frame{X: 1, Y: 2, W: 3, H: 4})
	if n, _ := pg.Node("c"); n.Frame != (Frame{X: 1, Y: 2, W: 3, H: 4}) {
		t.Fatalf("frame = %+v", n.Frame)
	}
	if same := pg.SetFrame("missing", Frame{}); !reflect.DeepEqual(same, pg) {
		t.Fatalf("SetFrame on a missing node must be a no-op")
	}
}

func TestPageLifecycle(t *testing.T) {
	p := NormalizeWith(PartialProject{}, seqIDs())
	first := p.ActivePageID

	p = p.AddPage("second")
	if p.ActivePageID != "second" || len(p.Pages) != 2 || p.Pages[1].Name != "Page 2" {
		t.Fatalf("AddPage: %+v", p.Pages)
	}

	p = p.RenamePage("second", "   ")
	if p.Pages[1].Name != "Page 2" {
		t.Fatalf("blank rename should keep the name, got %q", p.Pages[1].Name)
	}
	p = p.RenamePage("second", "  Detail ")
	if p.Pages[1].Name != "Detail" {
		t.Fatalf("rename = %q", p.Pages[1].Name)
	}

	p = p.RemovePage("second", func() string { return "unused" })
	if p.ActivePageID != first || len(p.Pages) != 1 {
		t.Fatalf("RemovePage active=%q pages=%d", p.ActivePageID, len(p.Pages))
	}

	p = p.RemovePage(first, func() string { return "fresh" })
	if len(p.Pages) != 1 || p.Pages[0].ID != "fresh" || p.Pages[0].Name != "Page 1" || len(p.Pages[0].Nodes) != 0 {
		t.Fatalf("removing the last page must synthesize a fresh one: %+v", p.Pages)
	}
	if p.ActivePageID != "fresh" {
		t.Fatalf("activePageId = %q, want fresh", p.ActivePageID)
	}
}

func TestRemoveInactivePageKeepsActive(t *testing.T) {
	p := NormalizeWith(PartialProject{}, seqIDs()).AddPage("b").AddPage("c")
	p = p.SetActivePage("b")
	p = p.RemovePage("c", func() string { return "x" })
	if p.ActivePageID != "b" {
		t.Fatalf("activePageId = %q, want b", p.ActivePageID)
	}
}

func TestSetActivePageIgnoresUnknown(t *testing.T) {
	p := Normalize(PartialProject{})
	if got := p.SetActivePage("nope"); got.ActivePageID != p.ActivePageID {
		t.Fatalf("activePageId changed to %q", got.ActivePageID)
	}
}

func TestMapActivePageLeavesOthers(t *testing.T) {
	p := NormalizeWith(PartialProject{}, seqIDs()).AddPage("b")
	p = p.MapActivePage(func(pg Page) Page { return pg.AppendNode(Node{ID: "n"}) })
	if len(p.Pages[0].Nodes) != 0 || len(p.Pages[1].Nodes) != 1 {
		t.Fatalf("unexpected node counts: %d, %d", len(p.Pages[0].Nodes), len(p.Pages[1].Nodes))
	}
}

func TestClamps(t *testing.T) {
	if ClampOpacity(0) != 0.1 || ClampOpacity(2) != 1 || ClampOpacity(0.5) != 0.5 {
		t.Fatalf("ClampOpacity bounds wrong")
	}
	if ClampFontSize(3) != 8 || ClampFontSize(24) != 24 {
		t.Fatalf("ClampFontSize bounds wrong")
	}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"px": UnitPixel, " MM ": UnitMillimeter, "points": UnitPoint} {
		if got, ok := ParseUnit(in); !ok || got != want {
			t.Fatalf("ParseUnit(%q) = %q,%v", in, got, ok)
		}
	}
	if _, ok := ParseUnit("in"); ok {
		t.Fatalf("ParseUnit(in) should fail")
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"testing"

	"wireframe/internal/domain"
	"wireframe/internal/interaction"
)

func node(id string, typ domain.NodeType, f domain.Frame, rot float64) domain.Node {
	return domain.Node{ID: id, Type: typ, Frame: f, Rotation: rot, Style: domain.DefaultStyle()}
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#FFF":        {255, 255, 255, 255},
		"#E2E8F0":     {0xE2, 0xE8, 0xF0, 255},
		"#11182780":   {0x11, 0x18, 0x27, 0x80},
		" #0f08 ":     {0, 0xff, 0, 0x88},
		"transparent": Transparent,
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil || got != want {
			t.Fatalf("ParseColor(%q) = %+v, %v; want %+v", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "red", "#12", "#GGGGGG"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) should fail", bad)
		}
	}
	if ColorOr("nope", White) != White {
		t.Fatalf("ColorOr fallback")
	}
	if c := White.WithOpacity(0.5); c.A != 128 || c.Hex() != "#FFFFFF80" {
		t.Fatalf("WithOpacity = %+v %s", c, c.Hex())
	}
}

func TestShapeOfPaints(t *testing.T) {
	n := node("r", domain.NodeRect, domain.Frame{W: 10, H: 10}, 0)
	n.Style.Opacity = 0.5
	s := ShapeOf(n)
	if !s.Fill.Enabled || s.Fill.Color.A != 128 || s.Stroke.Width != StrokeWidth {
		t.Fatalf("rect paint = %+v / %+v", s.Fill, s.Stroke)
	}

	txt := ShapeOf(node("t", domain.NodeTextKind, domain.DefaultFrame(), 0))
	if txt.Fill.Enabled || txt.Stroke.Enabled || txt.Text == nil || txt.Text.Value != "Text" || txt.Text.Color != "#111827" {
		t.Fatalf("text shape = %+v text=%+v", txt, txt.Text)
	}

	line := ShapeOf(node("l", domain.NodeLine, domain.Frame{X: 5, Y: 5, W: 100, H: 60}, 0))
	if line.Box != R(5, 5, 100, LineThickness) || line.Fill.Color != ColorOr(domain.DefaultStyle().Stroke, Black) {
		t.Fatalf("line shape = %+v", line)
	}
}

func TestHitRotatedRect(t *testing.T) {
	// 100x20 bar centered at (50,10); rotated 90° it stands upright.
	n := node("r", domain.NodeRect, domain.Frame{X: 0, Y: 0, W: 100, H: 20}, 90)
	s := ShapeOf(n)
	if !s.Hit(Pt{50, 50}) || !s.Hit(Pt{50, -30}) {
		t.Fatalf("points along the rotated bar should hit")
	}
	if s.Hit(Pt{90, 10}) {
		t.Fatalf("point on the unrotated end should miss")
	}
	b := s.Bounds()
	if !near(Pt{b.W, b.H}, Pt{20, 100}) {
		t.Fatalf("rotated bounds = %+v", b)
	}
}

func TestHitEllipseAndLine(t *testing.T) {
	e := ShapeOf(node("e", domain.NodeEllipse, domain.Frame{W: 100, H: 100}, 0))
	if !e.Hit(Pt{50, 50}) || e.Hit(Pt{2, 2}) {
		t.Fatalf("ellipse hit test wrong")
	}
	flat := ShapeOf(node("e", domain.NodeEllipse, domain.Frame{W: 0, H: 100}, 0))
	if flat.Hit(Pt{0, 50}) {
		t.Fatalf("degenerate ellipse should not hit")
	}
	l := ShapeOf(node("l", domain.NodeLine, domain.Frame{X: 0, Y: 100, W: 100, H: 50}, 0))
	if !l.Hit(Pt{50, 105}) || l.Hit(Pt{50, 130}) {
		t.Fatalf("line hit area wrong")
	}
}

func TestHitNodeFrontMost(t *testing.T) {
	nodes := []domain.Node{
		node("back", domain.NodeRect, domain.Frame{W: 100, H: 100}, 0),
		node("front", domain.NodeRect, domain.Frame{X: 50, Y: 50, W: 100, H: 100}, 0),
	}
	if id, ok := HitNode(nodes, Pt{75, 75}); !ok || id != "front" {
		t.Fatalf("overlap: %q %v", id, ok)
	}
	if id, ok := HitNode(nodes, Pt{10, 10}); !ok || id != "back" {
		t.Fatalf("back only: %q %v", id, ok)
	}
	if _, ok := HitNode(nodes, Pt{500, 500}); ok {
		t.Fatalf("empty area should miss")
	}
	if got := len(Scene(domain.Page{Nodes: nodes})); got != 2 {
		t.Fatalf("scene size = %d", got)
	}
}

func TestHitHandle(t *testing.T) {
	n := node("r", domain.NodeRect, domain.Frame{X: 10, Y: 10, W: 100, H: 50}, 0)
	cases := map[Pt]interaction.Handle{
		{10, 10}:  interaction.HandleNW,
		{112, 8}:  interaction.HandleNE,
		{10, 60}:  interaction.HandleSW,
		{110, 60}: interaction.HandleSE,
	}
	for p, want := range cases {
		if h, ok := HitHandle(n, p, 0); !ok || h != want {
			t.Fatalf("HitHandle(%+v) = %q %v, want %q", p, h, ok, want)
		}
	}
	if _, ok := HitHandle(n, Pt{60, 35}, 10); ok {
		t.Fatalf("center is not a handle")
	}

	line := node("l", domain.NodeLine, domain.Frame{W: 100, H: 40}, 0)
	if len(HandlesFor(domain.NodeLine)) != 2 {
		t.Fatalf("lines offer two handles")
	}
	if _, ok := HitHandle(line, Pt{0, 40}, 10); ok {
		t.Fatalf("the line's frame height does not place grips")
	}
	if h, ok := HitHandle(line, Pt{0, 2}, 10); !ok || h != interaction.HandleSW {
		t.Fatalf("line sw = %q %v", h, ok)
	}
}

func TestHandlePointRotates(t *testing.T) {
	n := node("r", domain.NodeRect, domain.Frame{X: 0, Y: 0, W: 100, H: 100}, 180)
	if p := HandlePoint(n, interaction.HandleNW); !near(p, Pt{100, 100}) {
		t.Fatalf("nw after 180° = %+v", p)
	}
}

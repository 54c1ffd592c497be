/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"wireframe/internal/domain"
)

func rectNode(id string, f domain.Frame, fill string) domain.Node {
	return domain.Node{ID: id, Type: domain.NodeRect, Name: id, Frame: f,
		Style: domain.NodeStyle{Fill: fill, Opacity: 1}}
}

func sampleProject(nodes ...domain.Node) domain.Project {
	return domain.Project{
		ID:           "p1",
		Name:         "Sample",
		Canvas:       domain.CanvasSpec{Width: 100, Height: 80, Unit: domain.UnitPixel, Background: "#FFFFFF"},
		Pages:        []domain.Page{{ID: "pg1", Name: "Page 1", Nodes: nodes}, {ID: "pg2", Name: "Page 2"}},
		ActivePageID: "pg1",
	}
}

func decodePNG(t *testing.T, p domain.Project, opt PNGOptions) image.Image {
	t.Helper()
	var buf bytes.Buffer
	if err := PNG(&buf, p, "", opt); err != nil {
		t.Fatalf("png: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func rgb(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestPNGPaintsFillAndBackground(t *testing.T) {
	img := decodePNG(t, sampleProject(rectNode("a", domain.Frame{X: 10, Y: 10, W: 20, H: 20}, "#FF0000")), PNGOptions{})
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
		t.Fatalf("bounds got %v want 100x80", b)
	}
	if r, g, b := rgb(img.At(20, 20)); r != 255 || g != 0 || b != 0 {
		t.Fatalf("inside got %d,%d,%d want red", r, g, b)
	}
	if r, g, b := rgb(img.At(60, 60)); r != 255 || g != 255 || b != 255 {
		t.Fatalf("outside got %d,%d,%d want white", r, g, b)
	}
}

func TestPNGScale(t *testing.T) {
	img := decodePNG(t, sampleProject(rectNode("a", domain.Frame{X: 10, Y: 10, W: 20, H: 20}, "#00FF00")), PNGOptions{Scale: 2})
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 160 {
		t.Fatalf("bounds got %v want 200x160", b)
	}
	if _, g, _ := rgb(img.At(55, 55)); g != 255 {
		t.Fatalf("scaled rect not painted at 55,55")
	}
}

func TestPNGRotationAboutCenter(t *testing.T) {
	n := rectNode("a", domain.Frame{X: 40, Y: 10, W: 20, H: 60}, "#FF0000")
	n.Rotation = 90
	img := decodePNG(t, sampleProject(n), PNGOptions{})
	// a tall box turned a quarter lies across the middle
	if r, g, _ := rgb(img.At(25, 40)); r != 255 || g != 0 {
		t.Fatalf("rotated box missing at 25,40")
	}
	if _, g, _ := rgb(img.At(50, 15)); g != 255 {
		t.Fatalf("unrotated area still painted at 50,15")
	}
}

func TestPNGOpacityAndLine(t *testing.T) {
	half := rectNode("a", domain.Frame{X: 0, Y: 0, W: 40, H: 40}, "#000000")
	half.Style.Opacity = 0.5
	line := domain.Node{ID: "l", Type: domain.NodeLine, Frame: domain.Frame{X: 0, Y: 60, W: 100, H: 20},
		Style: domain.NodeStyle{Stroke: "#0000FF", Opacity: 1}}
	img := decodePNG(t, sampleProject(half, line), PNGOptions{})
	if r, _, _ := rgb(img.At(20, 20)); r < 120 || r > 135 {
		t.Fatalf("half opacity got %d want about 127", r)
	}
	if r, _, b := rgb(img.At(50, 61)); r != 0 || b != 255 {
		t.Fatalf("line bar got r=%d b=%d want blue", r, b)
	}
	// the bar is 2 units tall, not the frame height
	if r, _, _ := rgb(img.At(50, 70)); r != 255 {
		t.Fatalf("line painted below its bar")
	}
}

func TestPNGText(t *testing.T) {
	n := domain.Node{ID: "t", Type: domain.NodeTextKind, Frame: domain.Frame{X: 5, Y: 5, W: 90, H: 40},
		Style: domain.NodeStyle{Opacity: 1}, Text: &domain.NodeText{Value: "HHHH", Size: 30, Color: "#000000"}}
	img := decodePNG(t, sampleProject(n), PNGOptions{})
	dark := 0
	for y := 5; y < 45; y++ {
		for x := 5; x < 95; x++ {
			if r, _, _ := rgb(img.At(x, y)); r < 100 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatalf("text drew no pixels")
	}
}

func TestPageSelection(t *testing.T) {
	p := sampleProject()
	var buf bytes.Buffer
	if err := PNG(&buf, p, "missing", PNGOptions{}); !errors.Is(err, ErrNoPage) {
		t.Fatalf("got %v want ErrNoPage", err)
	}
	id, err := PageAt(p, 1)
	if err != nil || id != "pg2" {
		t.Fatalf("PageAt got %q,%v want pg2", id, err)
	}
	if _, err := PageAt(p, 2); !errors.Is(err, ErrNoPage) {
		t.Fatalf("PageAt out of range got %v", err)
	}
}

func TestSVGShapes(t *testing.T) {
	r := rectNode("a", domain.Frame{X: 10, Y: 10, W: 20, H: 20}, "#FF0000")
	r.Rotation = 45
	r.Style.Stroke = "#00000080"
	e := domain.Node{ID: "e", Type: domain.NodeEllipse, Frame: domain.Frame{X: 0, Y: 0, W: 40, H: 20}, Style: domain.NodeStyle{Fill: "#0F0", Opacity: 1}}
	txt := domain.Node{ID: "t", Type: domain.NodeTextKind, Frame: domain.Frame{X: 1, Y: 2, W: 50, H: 20},
		Style: domain.NodeStyle{Opacity: 1}, Text: &domain.NodeText{Value: "a<b\nc", Size: 10, Color: "#111827"}}
	var buf bytes.Buffer
	if err := SVG(&buf, sampleProject(r, e, txt), "pg1"); err != nil {
		t.Fatalf("svg: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`viewBox="0 0 100 80"`,
		`transform="rotate(45 20 20)"`,
		`fill="#FF0000"`,
		`stroke="#000000" stroke-opacity="0.502"`,
		`<ellipse id="e" cx="20" cy="10" rx="20" ry="10" fill="#00FF00" stroke="none"/>`,
		`a&lt;b`,
		`dy="12"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg missing %q in:\n%s", want, out)
		}
	}
	if strings.Index(out, `id="a"`) > strings.Index(out, `id="e"`) {
		t.Fatalf("nodes out of paint order")
	}
}

func TestPDFPagesAndUnits(t *testing.T) {
	p := sampleProject(rectNode("a", domain.Frame{X: 10, Y: 10, W: 20, H: 20}, "#FF0000"))
	var buf bytes.Buffer
	if err := PDF(&buf, p, PDFOptions{}); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF") {
		t.Fatalf("not a pdf")
	}
	pages := strings.Count(out, "/Type /Page") - strings.Count(out, "/Type /Pages")
	if pages != 2 {
		t.Fatalf("pages got %d want 2", pages)
	}
	if err := PDF(&buf, p, PDFOptions{Unit: "px"}); err == nil {
		t.Fatalf("px unit should be rejected")
	}
}

func TestPDFUnitConversion(t *testing.T) {
	cases := []struct {
		canvas domain.Unit
		want   string
		unit   string
		k      float64
	}{
		{domain.UnitPixel, "", "pt", 0.75},
		{domain.UnitMillimeter, "", "mm", 1},
		{domain.UnitPoint, "", "pt", 1},
		{domain.UnitPoint, "mm", "mm", 25.4 / 72},
	}
	for _, c := range cases {
		unit, k, err := pdfUnit(domain.CanvasSpec{Unit: c.canvas}, c.want)
		if err != nil {
			t.Fatalf("%s->%q: %v", c.canvas, c.want, err)
		}
		if unit != c.unit || k < c.k-1e-9 || k > c.k+1e-9 {
			t.Fatalf("%s->%q got %s,%v want %s,%v", c.canvas, c.want, unit, k, c.unit, c.k)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(".PDF"); err != nil || f != FormatPDF {
		t.Fatalf("got %q,%v", f, err)
	}
	if _, err := ParseFormat("cbz"); err == nil {
		t.Fatalf("cbz should be unknown")
	}
}

func TestImageMatchesCanvas(t *testing.T) {
	img, err := Image(sampleProject(), "pg2", PNGOptions{Scale: 0.5})
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 40 {
		t.Fatalf("bounds got %v want 50x40", b)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"wireframe/internal/domain"
	"wireframe/internal/vector"
)

// PDFOptions controls PDF export behavior.
//
// Unit is the PDF user unit ("pt" or "mm"); empty picks the canvas unit,
// with pixel canvases mapped to points. Canvas values are converted from
// the canvas unit at 96 px per inch.
type PDFOptions struct {
	Unit   string
	Title  string
	Author string
}

// points per unit
var ptPer = map[string]float64{
	"px": 0.75,
	"pt": 1,
	"mm": 72 / 25.4,
}

func pdfUnit(cv domain.CanvasSpec, want string) (string, float64, error) {
	from := string(cv.Unit)
	if _, ok := ptPer[from]; !ok {
		from = string(domain.UnitPixel)
	}
	to := strings.ToLower(strings.TrimSpace(want))
	if to == "" {
		to = from
		if to == "px" {
			to = "pt"
		}
	}
	if to == "px" {
		return "", 0, fmt.Errorf("pdf unit %q: use pt or mm", want)
	}
	if _, ok := ptPer[to]; !ok {
		return "", 0, fmt.Errorf("pdf unit %q: use pt or mm", want)
	}
	return to, ptPer[from] / ptPer[to], nil
}

// PDF writes every page of p as one PDF page, in document order.
func PDF(w io.Writer, p domain.Project, opt PDFOptions) error {
	unit, k, err := pdfUnit(p.Canvas, opt.Unit)
	if err != nil {
		return err
	}
	size := gofpdf.SizeType{Wd: p.Canvas.Width * k, Ht: p.Canvas.Height * k}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: unit,
		Size:    size,
	})
	title := opt.Title
	if title == "" {
		title = p.Name
	}
	pdf.SetTitle(title, true)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)
	pdf.SetFont("Helvetica", "", 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	bg := vector.ColorOr(p.Canvas.Background, vector.White)
	for _, pg := range p.Pages {
		pdf.AddPageFormat("", size)
		if bg.A > 0 {
			setFillColor(pdf, bg)
			pdf.SetAlpha(alpha(bg), "Normal")
			pdf.Rect(0, 0, size.Wd, size.Ht, "F")
			pdf.SetAlpha(1, "Normal")
		}
		for _, n := range pg.Nodes {
			drawPDFShape(pdf, tr, n, vector.ShapeOf(n), k)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawPDFShape(pdf *gofpdf.Fpdf, tr func(string) string, n domain.Node, s vector.Shape, k float64) {
	b := s.Box
	x, y, bw, bh := b.X*k, b.Y*k, b.W*k, b.H*k
	cx, cy := x+bw/2, y+bh/2

	pdf.TransformBegin()
	defer pdf.TransformEnd()
	if n.Rotation != 0 {
		// PDF angles turn counter-clockwise
		pdf.TransformRotate(-n.Rotation, cx, cy)
	}

	if s.Type == domain.NodeTextKind {
		t := s.Text
		col := vector.ColorOr(t.Color, vector.Black)
		pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
		pdf.SetAlpha(alpha(col), "Normal")
		size := t.Size * k
		pdf.SetFontUnitSize(size)
		lh := size * 1.2
		for i, line := range textLines(t.Value) {
			pdf.Text(x, y+float64(i)*lh+size*0.8, tr(line))
		}
		pdf.SetAlpha(1, "Normal")
		return
	}

	fill := s.Fill.Enabled && s.Fill.Color.A > 0
	stroke := s.Stroke.Enabled && s.Stroke.Color.A > 0
	style := ""
	if fill {
		setFillColor(pdf, s.Fill.Color)
		style += "F"
	}
	if stroke {
		setDrawColor(pdf, s.Stroke.Color)
		pdf.SetLineWidth(s.Stroke.Width * k)
		style += "D"
	}
	if style == "" {
		return
	}
	// gofpdf keeps one alpha for fill and stroke; the fill alpha wins
	if fill {
		pdf.SetAlpha(alpha(s.Fill.Color), "Normal")
	} else {
		pdf.SetAlpha(alpha(s.Stroke.Color), "Normal")
	}
	switch s.Type {
	case domain.NodeEllipse:
		pdf.Ellipse(cx, cy, bw/2, bh/2, 0, style)
	default:
		pdf.Rect(x, y, bw, bh, style)
	}
	pdf.SetAlpha(1, "Normal")
}

func alpha(c vector.Color) float64 { return float64(c.A) / 255 }

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

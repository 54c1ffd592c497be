/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"wireframe/internal/domain"
	"wireframe/internal/vector"
)

// SVG writes one page of p as a standalone SVG document in canvas units.
func SVG(w io.Writer, p domain.Project, pageID string) error {
	pg, err := pageFor(p, pageID)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	cw, ch := num(p.Canvas.Width), num(p.Canvas.Height)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n", cw, ch, cw, ch)
	if bg := vector.ColorOr(p.Canvas.Background, vector.White); bg.A > 0 {
		fmt.Fprintf(bw, `  <rect width="100%%" height="100%%" %s/>`+"\n", paint("fill", bg))
	}
	for _, n := range pg.Nodes {
		writeSVGShape(bw, n, vector.ShapeOf(n))
	}
	bw.WriteString("</svg>\n")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeSVGShape(w *bufio.Writer, n domain.Node, s vector.Shape) {
	b := s.Box
	c := b.Center()
	attrs := fmt.Sprintf(`id="%s"`, escape(n.ID))
	if n.Rotation != 0 {
		attrs += fmt.Sprintf(` transform="rotate(%s %s %s)"`, num(n.Rotation), num(c.X), num(c.Y))
	}

	switch s.Type {
	case domain.NodeTextKind:
		t := s.Text
		col := vector.ColorOr(t.Color, vector.Black)
		fmt.Fprintf(w, `  <text %s x="%s" y="%s" font-family="Helvetica, Arial, sans-serif" font-size="%s" dominant-baseline="hanging" %s>`,
			attrs, num(b.X), num(b.Y), num(t.Size), paint("fill", col))
		for i, line := range textLines(t.Value) {
			dy := "0"
			if i > 0 {
				dy = num(t.Size * 1.2)
			}
			fmt.Fprintf(w, `<tspan x="%s" dy="%s">%s</tspan>`, num(b.X), dy, escape(line))
		}
		w.WriteString("</text>\n")
		return
	case domain.NodeEllipse:
		fmt.Fprintf(w, `  <ellipse %s cx="%s" cy="%s" rx="%s" ry="%s" %s %s/>`+"\n",
			attrs, num(c.X), num(c.Y), num(b.W/2), num(b.H/2), fillAttr(s.Fill), strokeAttr(s.Stroke))
	default:
		fmt.Fprintf(w, `  <rect %s x="%s" y="%s" width="%s" height="%s" %s %s/>`+"\n",
			attrs, num(b.X), num(b.Y), num(b.W), num(b.H), fillAttr(s.Fill), strokeAttr(s.Stroke))
	}
}

func fillAttr(f vector.Fill) string {
	if !f.Enabled {
		return `fill="none"`
	}
	return paint("fill", f.Color)
}

func strokeAttr(s vector.Stroke) string {
	if !s.Enabled {
		return `stroke="none"`
	}
	return paint("stroke", s.Color) + fmt.Sprintf(` stroke-width="%s"`, num(s.Width))
}

// paint emits a color attribute with its alpha as a separate opacity.
func paint(attr string, c vector.Color) string {
	out := fmt.Sprintf(`%s="#%02X%02X%02X"`, attr, c.R, c.G, c.B)
	if c.A < 255 {
		out += fmt.Sprintf(` %s-opacity="%s"`, attr, num(float64(c.A)/255))
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(vector.FloatRound(v, 3), 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

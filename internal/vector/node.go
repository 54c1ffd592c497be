/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"

	"wireframe/internal/domain"
	"wireframe/internal/interaction"
)

// Renderer-facing view of a node: where it sits, how it is painted, and how
// pointer hits are tested against it.

const (
	// LineThickness is the painted height of a line node's bar.
	LineThickness = 2.0
	// LineHitSlop widens the hit area of line nodes on both sides.
	LineHitSlop = 7.0
	// StrokeWidth is the outline width of rectangles and ellipses.
	StrokeWidth = 1.0
	// DefaultHandleSize is the side length of a resize grip in canvas units.
	DefaultHandleSize = 10.0
)

// Shape is a node resolved for drawing. Box is in the node's unrotated
// frame; Xf maps it onto the canvas.
type Shape struct {
	ID     string
	Type   domain.NodeType
	Box    Rect
	Xf     Affine2D
	Fill   Fill
	Stroke Stroke
	Text   *domain.NodeText
}

// NodeBox is the unrotated box a node paints into. Lines are a thin bar
// along the top edge of their frame.
func NodeBox(n domain.Node) Rect {
	f := n.Frame
	if n.Type == domain.NodeLine {
		return R(f.X, f.Y, f.W, LineThickness)
	}
	return R(f.X, f.Y, f.W, f.H)
}

// NodeTransform rotates the node's box by its rotation about the box center.
func NodeTransform(n domain.Node) Affine2D {
	return RotateAbout(NodeBox(n).Center(), n.Rotation)
}

// ShapeOf resolves colors and geometry for n. Opacity is folded into the
// alpha of every paint. Text nodes have no fill or stroke.
func ShapeOf(n domain.Node) Shape {
	s := Shape{ID: n.ID, Type: n.Type, Box: NodeBox(n), Xf: NodeTransform(n)}
	op := n.Style.Opacity
	switch n.Type {
	case domain.NodeTextKind:
		t := domain.DefaultText()
		if n.Text != nil {
			t = *n.Text
		}
		t.Color = ColorOr(t.Color, Color{17, 24, 39, 255}).WithOpacity(op).Hex()
		s.Text = &t
	case domain.NodeLine:
		// the bar is filled with the stroke color
		s.Fill = Fill{Color: ColorOr(n.Style.Stroke, Black).WithOpacity(op), Enabled: true}
	default:
		s.Fill = Fill{Color: ColorOr(n.Style.Fill, Transparent).WithOpacity(op), Enabled: n.Style.Fill != ""}
		s.Stroke = Stroke{Color: ColorOr(n.Style.Stroke, Transparent).WithOpacity(op), Width: StrokeWidth, Enabled: n.Style.Stroke != ""}
	}
	return s
}

// Bounds is the canvas-space bounding box after rotation.
func (s Shape) Bounds() Rect { return s.Xf.Bounds(s.Box) }

// Hit reports whether canvas point p falls on the shape.
func (s Shape) Hit(p Pt) bool {
	q := s.Xf.Invert().Apply(p)
	switch s.Type {
	case domain.NodeEllipse:
		rx, ry := s.Box.W/2, s.Box.H/2
		if rx <= 0 || ry <= 0 {
			return false
		}
		c := s.Box.Center()
		dx, dy := (q.X-c.X)/rx, (q.Y-c.Y)/ry
		return dx*dx+dy*dy <= 1
	case domain.NodeLine:
		return s.Box.Inset(0, -LineHitSlop).Contains(q)
	default:
		return s.Box.Contains(q)
	}
}

// Scene resolves every node of a page in paint order, back to front.
func Scene(pg domain.Page) []Shape {
	out := make([]Shape, len(pg.Nodes))
	for i, n := range pg.Nodes {
		out[i] = ShapeOf(n)
	}
	return out
}

// HitNode returns the id of the front-most node under p.
func HitNode(nodes []domain.Node, p Pt) (string, bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		if ShapeOf(nodes[i]).Hit(p) {
			return nodes[i].ID, true
		}
	}
	return "", false
}

// HandlesFor lists the resize grips a node type offers. Lines only have the
// two grips at the ends of their bar.
func HandlesFor(t domain.NodeType) []interaction.Handle {
	if t == domain.NodeLine {
		return []interaction.Handle{interaction.HandleNE, interaction.HandleSW}
	}
	return interaction.Handles
}

// HandlePoint is the canvas position of grip h on node n.
func HandlePoint(n domain.Node, h interaction.Handle) Pt {
	c := NodeBox(n).Corners()
	var p Pt
	switch h {
	case interaction.HandleNW:
		p = c[0]
	case interaction.HandleNE:
		p = c[1]
	case interaction.HandleSW:
		p = c[2]
	default:
		p = c[3]
	}
	return NodeTransform(n).Apply(p)
}

// HitHandle returns the grip of n within size/2 of p, if any.
func HitHandle(n domain.Node, p Pt, size float64) (interaction.Handle, bool) {
	if size <= 0 {
		size = DefaultHandleSize
	}
	half := size / 2
	for _, h := range HandlesFor(n.Type) {
		hp := HandlePoint(n, h)
		if math.Abs(p.X-hp.X) <= half && math.Abs(p.Y-hp.Y) <= half {
			return h, true
		}
	}
	return "", false
}

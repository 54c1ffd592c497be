//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"wireframe/internal/domain"
	"wireframe/internal/editor"
	"wireframe/internal/export"
	"wireframe/internal/interaction"
	applog "wireframe/internal/log"
	"wireframe/internal/selection"
	"wireframe/internal/vector"
)

// handleScreenSize is the on-screen side length of a resize grip.
const handleScreenSize = 10

// PageCanvas shows the active page and turns mouse input into editor
// gestures. Pointer positions are converted to canvas units before they
// reach the gesture engine, so zoom does not change drag distances.
type PageCanvas struct {
	widget.BaseWidget
	ed *editor.Editor

	zoom    float32
	offsetX float32
	offsetY float32

	// OnChange runs after any input that may have changed the document or
	// the selection.
	OnChange func()
	log      *slog.Logger
}

var (
	_ desktop.Mouseable = (*PageCanvas)(nil)
	_ fyne.Draggable    = (*PageCanvas)(nil)
	_ fyne.Scrollable   = (*PageCanvas)(nil)
)

func NewPageCanvas(ed *editor.Editor) *PageCanvas {
	pc := &PageCanvas{ed: ed, zoom: 0.5, log: applog.WithComponent("ui.canvas")}
	pc.ExtendBaseWidget(pc)
	return pc
}

func (p *PageCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.NRGBA{R: 30, G: 30, B: 34, A: 255})
	img := &canvas.Image{FillMode: canvas.ImageFillStretch, ScaleMode: canvas.ImageScaleFastest}

	bbox := canvas.NewRectangle(color.Transparent)
	bbox.StrokeColor = color.NRGBA{R: 37, G: 99, B: 235, A: 255}
	bbox.StrokeWidth = 1
	bbox.Hide()

	handles := make(map[interaction.Handle]*canvas.Rectangle, len(interaction.Handles))
	objs := []fyne.CanvasObject{bg, img, bbox}
	for _, h := range interaction.Handles {
		r := canvas.NewRectangle(color.White)
		r.StrokeColor = bbox.StrokeColor
		r.StrokeWidth = 1
		r.Hide()
		handles[h] = r
		objs = append(objs, r)
	}
	return &pageCanvasRenderer{pc: p, objects: objs, bg: bg, img: img, bbox: bbox, handles: handles}
}

func (p *PageCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (p *PageCanvas) canvasSize() (float32, float32) {
	if pr, ok := p.ed.Project(); ok {
		return float32(pr.Canvas.Width), float32(pr.Canvas.Height)
	}
	c := domain.DefaultCanvas()
	return float32(c.Width), float32(c.Height)
}

func (p *PageCanvas) pageOriginAndScale() (cx, cy, scale float32) {
	size := p.Size()
	w, h := p.canvasSize()
	cx = size.Width/2 - w*p.zoom/2 + p.offsetX
	cy = size.Height/2 - h*p.zoom/2 + p.offsetY
	return cx, cy, p.zoom
}

func (p *PageCanvas) toScreen(pt vector.Pt) fyne.Position {
	cx, cy, s := p.pageOriginAndScale()
	return fyne.NewPos(cx+float32(pt.X)*s, cy+float32(pt.Y)*s)
}

func (p *PageCanvas) toPage(pos fyne.Position) vector.Pt {
	cx, cy, s := p.pageOriginAndScale()
	return vector.Pt{X: float64((pos.X - cx) / s), Y: float64((pos.Y - cy) / s)}
}

func point(pt vector.Pt) interaction.Point { return interaction.Point{X: pt.X, Y: pt.Y} }

// MouseDown starts a resize when a grip of the selected node is hit, a
// drag when a node is hit, and otherwise counts as a background press.
func (p *PageCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	pg, ok := p.ed.ActivePage()
	if !ok {
		return
	}
	pt := p.toPage(e.Position)
	defer p.changed()

	if n, ok := p.ed.SelectedNode(); ok && p.ed.Tool() == selection.ToolSelect {
		if h, ok := vector.HitHandle(n, pt, float64(handleScreenSize/p.zoom)); ok {
			p.ed.ResizePointerDown(n.ID, h, point(pt))
			return
		}
	}
	if id, ok := vector.HitNode(pg.Nodes, pt); ok {
		p.ed.NodePointerDown(id, point(pt))
		return
	}
	p.ed.CanvasPointerDown(point(pt))
}

func (p *PageCanvas) MouseUp(e *desktop.MouseEvent) {
	p.ed.PointerUp(point(p.toPage(e.Position)))
	p.changed()
}

// Dragged feeds pointer moves to the active gesture. Without one, the
// drag pans the view.
func (p *PageCanvas) Dragged(e *fyne.DragEvent) {
	if p.ed.Engine().Active() == nil {
		p.offsetX += e.Dragged.DX
		p.offsetY += e.Dragged.DY
		p.Refresh()
		return
	}
	p.ed.PointerMove(point(p.toPage(e.Position)))
	p.changed()
}

// DragEnd ends a gesture whose mouse-up was released outside the widget.
func (p *PageCanvas) DragEnd() {
	if s := p.ed.Engine().Active(); s != nil {
		p.log.Debug("drag ended without mouse up", slog.String("node", s.NodeID()))
		p.ed.Engine().Abort()
		p.changed()
	}
}

// Scrolled zooms the view.
func (p *PageCanvas) Scrolled(e *fyne.ScrollEvent) {
	p.zoom += e.Scrolled.DY * 0.002
	if p.zoom < 0.1 {
		p.zoom = 0.1
	}
	if p.zoom > 4 {
		p.zoom = 4
	}
	p.Refresh()
}

func (p *PageCanvas) changed() {
	p.Refresh()
	if p.OnChange != nil {
		p.OnChange()
	}
}

type pageCanvasRenderer struct {
	pc      *PageCanvas
	objects []fyne.CanvasObject
	bg      *canvas.Rectangle
	img     *canvas.Image
	bbox    *canvas.Rectangle
	handles map[interaction.Handle]*canvas.Rectangle
}

func (r *pageCanvasRenderer) Destroy()                     {}
func (r *pageCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *pageCanvasRenderer) MinSize() fyne.Size           { return r.pc.PreferredSize() }

func (r *pageCanvasRenderer) Refresh() {
	r.redraw()
	r.Layout(r.pc.Size())
	canvas.Refresh(r.pc)
}

// redraw rasterizes the active page at the current zoom.
func (r *pageCanvasRenderer) redraw() {
	pr, ok := r.pc.ed.Project()
	if !ok {
		r.img.Image = nil
		r.img.Hide()
		return
	}
	im, err := export.Image(pr, "", export.PNGOptions{Scale: float64(r.pc.zoom)})
	if err != nil {
		r.pc.log.Warn("page preview failed", slog.Any("err", err))
		return
	}
	r.img.Image = im
	r.img.Show()
	r.img.Refresh()
}

func (r *pageCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	cx, cy, s := r.pc.pageOriginAndScale()
	w, h := r.pc.canvasSize()
	r.img.Move(fyne.NewPos(cx, cy))
	r.img.Resize(fyne.NewSize(w*s, h*s))

	n, ok := r.pc.ed.SelectedNode()
	if !ok {
		r.bbox.Hide()
		for _, hr := range r.handles {
			hr.Hide()
		}
		return
	}
	b := vector.ShapeOf(n).Bounds()
	p0 := r.pc.toScreen(b.Min())
	p1 := r.pc.toScreen(b.Max())
	r.bbox.Move(p0)
	r.bbox.Resize(fyne.NewSize(p1.X-p0.X, p1.Y-p0.Y))
	r.bbox.Show()

	for h, hr := range r.handles {
		hr.Hide()
		for _, offered := range vector.HandlesFor(n.Type) {
			if offered != h {
				continue
			}
			c := r.pc.toScreen(vector.HandlePoint(n, h))
			hr.Move(fyne.NewPos(c.X-handleScreenSize/2, c.Y-handleScreenSize/2))
			hr.Resize(fyne.NewSize(handleScreenSize, handleScreenSize))
			hr.Show()
		}
	}
}

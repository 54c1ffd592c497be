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
	"image"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"wireframe/internal/domain"
	"wireframe/internal/vector"
)

// PNGOptions controls raster export.
// Scale multiplies the canvas size; zero means 1.
type PNGOptions struct {
	Scale float64
}

var (
	regularOnce sync.Once
	regularFont *truetype.Font
	regularErr  error
)

func regular() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regularFont, regularErr = truetype.Parse(goregular.TTF)
	})
	return regularFont, regularErr
}

// faceCache hands out one face per font size for a single render.
type faceCache struct {
	f     *truetype.Font
	faces map[float64]font.Face
}

func (c *faceCache) get(size float64) font.Face {
	if fc, ok := c.faces[size]; ok {
		return fc
	}
	fc := truetype.NewFace(c.f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	c.faces[size] = fc
	return fc
}

// PNG rasterizes one page of p at the canvas size times opt.Scale.
func PNG(w io.Writer, p domain.Project, pageID string, opt PNGOptions) error {
	pg, err := pageFor(p, pageID)
	if err != nil {
		return err
	}
	dc, err := rasterize(p.Canvas, pg, opt)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Image rasterizes one page of p in memory, for previews.
func Image(p domain.Project, pageID string, opt PNGOptions) (image.Image, error) {
	pg, err := pageFor(p, pageID)
	if err != nil {
		return nil, err
	}
	dc, err := rasterize(p.Canvas, pg, opt)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func rasterize(cv domain.CanvasSpec, pg domain.Page, opt PNGOptions) (*gg.Context, error) {
	scale := opt.Scale
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	pw := int(math.Max(1, math.Round(cv.Width*scale)))
	ph := int(math.Max(1, math.Round(cv.Height*scale)))

	ttf, err := regular()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	faces := &faceCache{f: ttf, faces: map[float64]font.Face{}}

	dc := gg.NewContext(pw, ph)
	dc.SetColor(vector.ColorOr(cv.Background, vector.White).NRGBA())
	dc.Clear()
	dc.Scale(scale, scale)

	for _, n := range pg.Nodes {
		drawPNGShape(dc, faces, n, vector.ShapeOf(n), scale)
	}
	return dc, nil
}

func drawPNGShape(dc *gg.Context, faces *faceCache, n domain.Node, s vector.Shape, scale float64) {
	b := s.Box
	c := b.Center()
	dc.Push()
	defer dc.Pop()
	if n.Rotation != 0 {
		dc.RotateAbout(gg.Radians(n.Rotation), c.X, c.Y)
	}

	switch s.Type {
	case domain.NodeTextKind:
		t := s.Text
		dc.SetFontFace(faces.get(t.Size))
		dc.SetColor(vector.ColorOr(t.Color, vector.Black).NRGBA())
		lh := t.Size * 1.2
		for i, line := range textLines(t.Value) {
			dc.DrawStringAnchored(line, b.X, b.Y+float64(i)*lh, 0, 1)
		}
		return
	case domain.NodeEllipse:
		dc.DrawEllipse(c.X, c.Y, b.W/2, b.H/2)
	default:
		dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	}
	if s.Fill.Enabled {
		dc.SetColor(s.Fill.Color.NRGBA())
		dc.FillPreserve()
	}
	if s.Stroke.Enabled {
		dc.SetColor(s.Stroke.Color.NRGBA())
		dc.SetLineWidth(s.Stroke.Width * scale)
		dc.StrokePreserve()
	}
	dc.ClearPath()
}

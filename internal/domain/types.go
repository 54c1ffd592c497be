/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the in-memory document model of a wireframe project.
// JSON tags match the persisted .wire format so the same types serialize
// directly; activePageId is the only field that never leaves the process.

import "strings"

// Unit is the measurement unit of a canvas.
type Unit string

const (
	UnitPixel      Unit = "px"
	UnitMillimeter Unit = "mm"
	UnitPoint      Unit = "pt"
)

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	switch u {
	case UnitPixel, UnitMillimeter, UnitPoint:
		return true
	}
	return false
}

// ParseUnit accepts the short persisted names and a few long spellings.
func ParseUnit(s string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "px", "pixel", "pixels":
		return UnitPixel, true
	case "mm", "millimeter", "millimeters":
		return UnitMillimeter, true
	case "pt", "point", "points":
		return UnitPoint, true
	}
	return "", false
}

// NodeType is the kind of primitive a node draws. It never changes after creation.
type NodeType string

const (
	NodeRect     NodeType = "rect"
	NodeEllipse  NodeType = "ellipse"
	NodeLine     NodeType = "line"
	NodeTextKind NodeType = "text"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeRect, NodeEllipse, NodeLine, NodeTextKind:
		return true
	}
	return false
}

// Size and style bounds enforced by the interactive editing paths.
const (
	MinFrameSize = 10.0
	MinOpacity   = 0.1
	MaxOpacity   = 1.0
	MinFontSize  = 8.0
)

// CanvasSpec describes the drawing surface shared by all pages of a project.
type CanvasSpec struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Unit       Unit    `json:"unit"`
	Background string  `json:"background"`
}

// Frame is a node's top-left position and size in canvas coordinates.
type Frame struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type NodeStyle struct {
	Fill    string  `json:"fill"`
	Stroke  string  `json:"stroke"`
	Opacity float64 `json:"opacity"`
}

// NodeText carries the content of text nodes.
type NodeText struct {
	Value string  `json:"value"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// Node is a single primitive placed on a page.
type Node struct {
	ID       string    `json:"id"`
	Type     NodeType  `json:"type"`
	Name     string    `json:"name"`
	Frame    Frame     `json:"frame"`
	Rotation float64   `json:"rotation"` // degrees
	Style    NodeStyle `json:"style"`
	Text     *NodeText `json:"text,omitempty"`
}

// Clone returns a copy that shares no memory with n.
func (n Node) Clone() Node {
	if n.Text != nil {
		t := *n.Text
		n.Text = &t
	}
	return n
}

// Page is an ordered stack of nodes. Order is paint order: the last node is in front.
type Page struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
}

// Project is the top-level editable document.
// Pages is never empty and ActivePageID always names one of them.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Canvas       CanvasSpec `json:"canvas"`
	Pages        []Page     `json:"pages"`
	ActivePageID string     `json:"activePageId"`
}

// Snapshot is the persisted shape of a project (.wire file).
type Snapshot struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Canvas CanvasSpec `json:"canvas"`
	Pages  []Page     `json:"pages"`
}

// Defaults used when creating or repairing documents.
const (
	DefaultProjectName = "Untitled"
	DefaultNodeName    = "Layer"
	DefaultExportName  = "wireframe"
)

func DefaultCanvas() CanvasSpec {
	return CanvasSpec{Width: 1440, Height: 900, Unit: UnitPixel, Background: "#FFFFFF"}
}

func DefaultFrame() Frame { return Frame{X: 80, Y: 80, W: 160, H: 100} }

// DefaultText fills in text content for nodes edited as text without any.
func DefaultText() NodeText { return NodeText{Value: "Text", Size: 16, Color: "#111827"} }

func DefaultStyle() NodeStyle {
	return NodeStyle{Fill: "#E2E8F0", Stroke: "#94A3B8", Opacity: 1}
}

// ClampOpacity bounds v to [MinOpacity, MaxOpacity].
func ClampOpacity(v float64) float64 {
	if v != v || v < MinOpacity { // NaN or too small
		return MinOpacity
	}
	if v > MaxOpacity {
		return MaxOpacity
	}
	return v
}

// ClampFontSize bounds v from below by MinFontSize.
func ClampFontSize(v float64) float64 {
	if v != v || v < MinFontSize {
		return MinFontSize
	}
	return v
}

// ExportFileName is the file name offered when a project is saved:
// "<name>.wire", or "wireframe.wire" for a blank name.
func ExportFileName(name string) string {
	if strings.TrimSpace(name) == "" {
		name = DefaultExportName
	}
	return name + ".wire"
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"wireframe/internal/ids"
)

// ErrNotObject is returned by ParsePartial when the input is valid JSON but
// its top level is not an object.
var ErrNotObject = errors.New("project data must be a JSON object")

// PartialProject is a possibly incomplete document as read from a file or
// assembled by a caller. A nil pointer means the field was absent (or null).
type PartialProject struct {
	ID           *string        `json:"id,omitempty"`
	Name         *string        `json:"name,omitempty"`
	Canvas       *PartialCanvas `json:"canvas,omitempty"`
	Pages        []PartialPage  `json:"pages,omitempty"`
	ActivePageID *string        `json:"activePageId,omitempty"`
}

type PartialCanvas struct {
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Unit       *Unit    `json:"unit,omitempty"`
	Background *string  `json:"background,omitempty"`
}

type PartialPage struct {
	ID    *string       `json:"id,omitempty"`
	Name  *string       `json:"name,omitempty"`
	Nodes []PartialNode `json:"nodes,omitempty"`
}

type PartialNode struct {
	ID       *string    `json:"id,omitempty"`
	Type     *NodeType  `json:"type,omitempty"`
	Name     *string    `json:"name,omitempty"`
	Frame    *Frame     `json:"frame,omitempty"`
	Rotation *float64   `json:"rotation,omitempty"`
	Style    *NodeStyle `json:"style,omitempty"`
	Text     *NodeText  `json:"text,omitempty"`
}

// ParsePartial decodes raw project JSON without applying any defaults.
func ParsePartial(data []byte) (PartialProject, error) {
	var p PartialProject
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return p, fmt.Errorf("parse project: empty input")
	}
	if !json.Valid(trimmed) {
		return p, fmt.Errorf("parse project: invalid JSON")
	}
	if trimmed[0] != '{' {
		return p, ErrNotObject
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return p, fmt.Errorf("parse project: %w", err)
	}
	return p, nil
}

// Normalize turns a partial document into a structurally valid Project using
// ids.Default for any missing identifier. It never fails.
func Normalize(in PartialProject) Project {
	return NormalizeWith(in, ids.Default)
}

// NormalizeWith is Normalize with an explicit identifier source.
func NormalizeWith(in PartialProject, gen ids.Generator) Project {
	canvas := DefaultCanvas()
	if c := in.Canvas; c != nil {
		if c.Width != nil {
			canvas.Width = *c.Width
		}
		if c.Height != nil {
			canvas.Height = *c.Height
		}
		if c.Unit != nil {
			canvas.Unit = *c.Unit
		}
		if c.Background != nil {
			canvas.Background = *c.Background
		}
	}

	pages := make([]Page, 0, len(in.Pages))
	for i, pp := range in.Pages {
		pg := Page{
			ID:    strOr(pp.ID, gen.NewID),
			Name:  strOr(pp.Name, func() string { return fmt.Sprintf("Page %d", i+1) }),
			Nodes: make([]Node, 0, len(pp.Nodes)),
		}
		for _, pn := range pp.Nodes {
			pg.Nodes = append(pg.Nodes, normalizeNode(pn, gen))
		}
		pages = append(pages, pg)
	}
	if len(pages) == 0 {
		pages = append(pages, NewPage(gen.NewID(), "Page 1"))
	}

	active := pages[0].ID
	if in.ActivePageID != nil && *in.ActivePageID != "" {
		for _, pg := range pages {
			if pg.ID == *in.ActivePageID {
				active = pg.ID
				break
			}
		}
	}

	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		name = DefaultProjectName
	}

	return Project{
		ID:           strOr(in.ID, gen.NewID),
		Name:         name,
		Canvas:       canvas,
		Pages:        pages,
		ActivePageID: active,
	}
}

func normalizeNode(pn PartialNode, gen ids.Generator) Node {
	n := Node{
		ID:    strOr(pn.ID, gen.NewID),
		Type:  NodeRect,
		Name:  DefaultNodeName,
		Frame: DefaultFrame(),
		Style: DefaultStyle(),
	}
	if pn.Type != nil {
		n.Type = *pn.Type
	}
	if pn.Name != nil {
		n.Name = *pn.Name
	}
	if pn.Frame != nil {
		n.Frame = *pn.Frame
	}
	if pn.Rotation != nil {
		n.Rotation = *pn.Rotation
	}
	if pn.Style != nil {
		n.Style = *pn.Style
	}
	if pn.Text != nil {
		t := *pn.Text
		n.Text = &t
	}
	return n
}

func strOr(v *string, def func() string) string {
	if v != nil {
		return *v
	}
	return def()
}

// NewPage returns an empty page.
func NewPage(id, name string) Page {
	return Page{ID: id, Name: name, Nodes: []Node{}}
}

// Partial converts a snapshot back into a partial document, e.g. to feed it
// through Normalize again.
func (s Snapshot) Partial() PartialProject {
	id, name := s.ID, s.Name
	c := s.Canvas
	out := PartialProject{
		ID:     &id,
		Name:   &name,
		Canvas: &PartialCanvas{Width: &c.Width, Height: &c.Height, Unit: &c.Unit, Background: &c.Background},
		Pages:  make([]PartialPage, 0, len(s.Pages)),
	}
	for _, pg := range s.Pages {
		pid, pname := pg.ID, pg.Name
		pp := PartialPage{ID: &pid, Name: &pname, Nodes: make([]PartialNode, 0, len(pg.Nodes))}
		for _, n := range pg.Nodes {
			n := n.Clone()
			pp.Nodes = append(pp.Nodes, PartialNode{
				ID: &n.ID, Type: &n.Type, Name: &n.Name, Frame: &n.Frame,
				Rotation: &n.Rotation, Style: &n.Style, Text: n.Text,
			})
		}
		out.Pages = append(out.Pages, pp)
	}
	return out
}

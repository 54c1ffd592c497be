/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection tracks the active tool and the selected node, and applies
// selection-scoped edits (delete, z-order, property updates) to the active page.
package selection

import (
	"log/slog"

	"wireframe/internal/domain"
	applog "wireframe/internal/log"
)

// Tool is the current interaction mode. Drawing tools share their names with node types.
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolRect    Tool = Tool(domain.NodeRect)
	ToolEllipse Tool = Tool(domain.NodeEllipse)
	ToolLine    Tool = Tool(domain.NodeLine)
	ToolText    Tool = Tool(domain.NodeTextKind)
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolRect, ToolEllipse, ToolLine, ToolText}

// PageEditor is the part of the project store selection edits go through.
type PageEditor interface {
	ActivePage() (domain.Page, bool)
	MutateActivePage(fn func(domain.Page) domain.Page)
}

// State holds the current tool and selection. The zero value is not usable; call New.
type State struct {
	tool     Tool
	selected string
	pages    PageEditor
	log      *slog.Logger
}

func New(pages PageEditor) *State {
	return &State{tool: ToolSelect, pages: pages, log: applog.WithComponent("selection")}
}

func (s *State) Tool() Tool { return s.tool }

// SetTool switches the interaction mode. Any value is accepted.
func (s *State) SetTool(t Tool) {
	if t != s.tool {
		s.log.Debug("tool changed", slog.String("from", string(s.tool)), slog.String("to", string(t)))
	}
	s.tool = t
}

// Select marks id as the selected node. The id is not checked against the page.
func (s *State) Select(id string) { s.selected = id }

// Clear drops the selection.
func (s *State) Clear() { s.selected = "" }

// SelectedID returns the selected node id, or "" when nothing is selected.
func (s *State) SelectedID() string { return s.selected }

func (s *State) HasSelection() bool { return s.selected != "" }

// SelectedNode resolves the selection against page.
func (s *State) SelectedNode(page domain.Page) (domain.Node, bool) {
	if s.selected == "" {
		return domain.Node{}, false
	}
	return page.Node(s.selected)
}

// Delete removes the selected node from the active page and clears the selection.
func (s *State) Delete() {
	if !s.ready() {
		return
	}
	id := s.selected
	s.pages.MutateActivePage(func(pg domain.Page) domain.Page { return pg.RemoveNode(id) })
	s.selected = ""
	s.log.Info("node deleted", slog.String("node", id))
}

// Reorder moves the selected node one step in paint order.
func (s *State) Reorder(dir domain.Direction) {
	if !s.ready() {
		return
	}
	id := s.selected
	s.pages.MutateActivePage(func(pg domain.Page) domain.Page { return pg.Reorder(id, dir) })
}

// UpdateNode applies fn to the selected node only.
func (s *State) UpdateNode(fn func(domain.Node) domain.Node) {
	if s.selected == "" {
		return
	}
	id := s.selected
	s.pages.MutateActivePage(func(pg domain.Page) domain.Page { return pg.UpdateNode(id, fn) })
}

func (s *State) ready() bool {
	if s.selected == "" {
		return false
	}
	_, ok := s.pages.ActivePage()
	return ok
}

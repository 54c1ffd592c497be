/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Pure copy-on-write transitions over the document model. None of these
// functions mutate their receiver; callers own the returned value.

import (
	"fmt"
	"strings"
)

// Direction moves a node one step in paint order.
type Direction string

const (
	Forward  Direction = "forward"  // toward the front (end of the sequence)
	Backward Direction = "backward" // toward the back (start of the sequence)
)

// Snapshot returns the persisted form of p, without ActivePageID.
func (p Project) Snapshot() Snapshot {
	pages := make([]Page, len(p.Pages))
	for i, pg := range p.Pages {
		pages[i] = pg.clone()
	}
	return Snapshot{ID: p.ID, Name: p.Name, Canvas: p.Canvas, Pages: pages}
}

// Page returns the page with the given id.
func (p Project) Page(id string) (Page, bool) {
	for _, pg := range p.Pages {
		if pg.ID == id {
			return pg, true
		}
	}
	return Page{}, false
}

// ActivePage returns the page ActivePageID points at.
func (p Project) ActivePage() (Page, bool) { return p.Page(p.ActivePageID) }

// MapPage applies fn to the page with the given id and leaves all other pages untouched.
func (p Project) MapPage(id string, fn func(Page) Page) Project {
	pages := make([]Page, len(p.Pages))
	for i, pg := range p.Pages {
		if pg.ID == id {
			pages[i] = fn(pg.clone())
		} else {
			pages[i] = pg
		}
	}
	p.Pages = pages
	return p
}

// MapActivePage applies fn to the active page.
func (p Project) MapActivePage(fn func(Page) Page) Project {
	return p.MapPage(p.ActivePageID, fn)
}

// AddPage appends an empty page named "Page N" and makes it active.
func (p Project) AddPage(id string) Project {
	pages := make([]Page, 0, len(p.Pages)+1)
	pages = append(pages, p.Pages...)
	pages = append(pages, NewPage(id, fmt.Sprintf("Page %d", len(p.Pages)+1)))
	p.Pages = pages
	p.ActivePageID = id
	return p
}

// RenamePage sets a page name; a blank name keeps the previous one.
func (p Project) RenamePage(id, name string) Project {
	name = strings.TrimSpace(name)
	if name == "" {
		return p
	}
	return p.MapPage(id, func(pg Page) Page {
		pg.Name = name
		return pg
	})
}

// RemovePage drops a page. When no page remains a fresh "Page 1" with id
// newID() is created. The active page is kept if it survived, otherwise the
// first remaining page becomes active.
func (p Project) RemovePage(id string, newID func() string) Project {
	pages := make([]Page, 0, len(p.Pages))
	for _, pg := range p.Pages {
		if pg.ID != id {
			pages = append(pages, pg)
		}
	}
	if len(pages) == 0 {
		pages = append(pages, NewPage(newID(), "Page 1"))
	}
	p.Pages = pages
	if _, ok := p.ActivePage(); !ok {
		p.ActivePageID = pages[0].ID
	}
	return p
}

// SetActivePage switches the active page. Unknown ids leave p unchanged.
func (p Project) SetActivePage(id string) Project {
	if _, ok := p.Page(id); ok {
		p.ActivePageID = id
	}
	return p
}

// SetCanvas replaces the canvas spec.
func (p Project) SetCanvas(c CanvasSpec) Project {
	p.Canvas = c
	return p
}

// Node returns the node with the given id.
func (pg Page) Node(id string) (Node, bool) {
	if i := pg.IndexOf(id); i >= 0 {
		return pg.Nodes[i], true
	}
	return Node{}, false
}

// IndexOf returns the paint-order index of a node or -1.
func (pg Page) IndexOf(id string) int {
	for i, n := range pg.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// AppendNode places n in front of all existing nodes.
func (pg Page) AppendNode(n Node) Page {
	nodes := make([]Node, 0, len(pg.Nodes)+1)
	nodes = append(nodes, pg.Nodes...)
	pg.Nodes = append(nodes, n.Clone())
	return pg
}

// RemoveNode drops the node with the given id, if present.
func (pg Page) RemoveNode(id string) Page {
	nodes := make([]Node, 0, len(pg.Nodes))
	for _, n := range pg.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	pg.Nodes = nodes
	return pg
}

// UpdateNode applies fn to the node with the given id; every other node is
// left as is. A missing id yields an unchanged copy of pg.
func (pg Page) UpdateNode(id string, fn func(Node) Node) Page {
	nodes := make([]Node, len(pg.Nodes))
	for i, n := range pg.Nodes {
		if n.ID == id {
			nodes[i] = fn(n.Clone())
		} else {
			nodes[i] = n
		}
	}
	pg.Nodes = nodes
	return pg
}

// SetFrame replaces the frame of the node with the given id.
func (pg Page) SetFrame(id string, f Frame) Page {
	return pg.UpdateNode(id, func(n Node) Node {
		n.Frame = f
		return n
	})
}

// Reorder moves a node one step in paint order, clamped at both ends.
// The page is returned unchanged if the node is missing or already at the bound.
func (pg Page) Reorder(id string, dir Direction) Page {
	idx := pg.IndexOf(id)
	if idx < 0 {
		return pg
	}
	target := idx
	switch dir {
	case Forward:
		target = min(len(pg.Nodes)-1, idx+1)
	case Backward:
		target = max(0, idx-1)
	}
	if target == idx {
		return pg
	}
	nodes := make([]Node, len(pg.Nodes))
	copy(nodes, pg.Nodes)
	nodes[idx], nodes[target] = nodes[target], nodes[idx]
	pg.Nodes = nodes
	return pg
}

func (pg Page) clone() Page {
	nodes := make([]Node, len(pg.Nodes))
	for i, n := range pg.Nodes {
		nodes[i] = n.Clone()
	}
	pg.Nodes = nodes
	return pg
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interaction turns pointer gestures on the canvas into document
// mutations: background presses, node drags and corner resizes.
//
// A gesture starts with one of the Engine's pointer-down methods and then
// listens on the Engine's Bus until pointer-up. Each gesture is a Session that
// owns its bus subscription and removes it when the gesture ends or is
// aborted. At most one session is active; starting a new one aborts the old.
package interaction

import (
	"log/slog"

	"wireframe/internal/domain"
	applog "wireframe/internal/log"
	"wireframe/internal/selection"
)

// Kind distinguishes the gesture families.
type Kind int

const (
	KindDrag Kind = iota + 1
	KindResize
)

func (k Kind) String() string {
	switch k {
	case KindDrag:
		return "drag"
	case KindResize:
		return "resize"
	}
	return "unknown"
}

// Engine routes pointer-down events by tool and owns the active gesture.
type Engine struct {
	sel    *selection.State
	pages  selection.PageEditor
	bus    *Bus
	active *Session
	log    *slog.Logger
}

// NewEngine wires the engine to the selection state and the page store.
func NewEngine(sel *selection.State, pages selection.PageEditor) *Engine {
	return &Engine{sel: sel, pages: pages, bus: &Bus{}, log: applog.WithComponent("interaction")}
}

// Bus is where the host delivers pointer-move and pointer-up events.
func (e *Engine) Bus() *Bus { return e.bus }

// PointerMove and PointerUp forward to the bus.
func (e *Engine) PointerMove(p Point) { e.bus.PointerMove(p) }
func (e *Engine) PointerUp(p Point)   { e.bus.PointerUp(p) }

// Active returns the running gesture, or nil.
func (e *Engine) Active() *Session { return e.active }

// DraggingID is the node being dragged, or "".
func (e *Engine) DraggingID() string { return e.activeID(KindDrag) }

// ResizingID is the node being resized, or "".
func (e *Engine) ResizingID() string { return e.activeID(KindResize) }

func (e *Engine) activeID(k Kind) string {
	if e.active == nil || e.active.kind != k {
		return ""
	}
	return e.active.nodeID
}

// CanvasPointerDown handles a press on the empty canvas. A gesture whose
// pointer-up never arrived is aborted first. With the select tool the press
// clears the selection. Drawing tools do not create nodes here.
func (e *Engine) CanvasPointerDown(p Point) {
	if e.active != nil {
		e.log.Debug("canvas press ends stale gesture", slog.String("node", e.active.nodeID))
		e.active.Abort()
	}
	if e.sel.Tool() != selection.ToolSelect {
		e.log.Debug("canvas press with drawing tool ignored", slog.String("tool", string(e.sel.Tool())))
		return
	}
	e.sel.Clear()
}

// NodePointerDown selects the node and starts dragging it. The node is
// selected even when it cannot be found on the active page; no gesture starts
// in that case and nil is returned.
func (e *Engine) NodePointerDown(nodeID string, p Point) *Session {
	if e.sel.Tool() != selection.ToolSelect {
		return nil
	}
	e.sel.Select(nodeID)
	n, ok := e.lookup(nodeID)
	if !ok {
		return nil
	}
	return e.start(&Session{kind: KindDrag, nodeID: nodeID, origin: p, orig: n.Frame})
}

// ResizePointerDown starts resizing the node from handle h. The selection is
// left alone.
func (e *Engine) ResizePointerDown(nodeID string, h Handle, p Point) *Session {
	if e.sel.Tool() != selection.ToolSelect || !h.Valid() {
		return nil
	}
	n, ok := e.lookup(nodeID)
	if !ok {
		return nil
	}
	return e.start(&Session{kind: KindResize, nodeID: nodeID, handle: h, origin: p, orig: n.Frame})
}

// Abort stops the active gesture, if any, leaving the node where the last move put it.
func (e *Engine) Abort() {
	if e.active != nil {
		e.active.Abort()
	}
}

func (e *Engine) lookup(nodeID string) (domain.Node, bool) {
	pg, ok := e.pages.ActivePage()
	if !ok {
		return domain.Node{}, false
	}
	return pg.Node(nodeID)
}

func (e *Engine) start(s *Session) *Session {
	if e.active != nil {
		e.log.Warn("gesture started while another was active",
			slog.String("active", e.active.kind.String()), slog.String("node", e.active.nodeID))
		e.active.Abort()
	}
	s.engine = e
	s.sub = e.bus.Subscribe(s.Move, s.End)
	e.active = s
	e.log.Debug("gesture started", slog.String("kind", s.kind.String()), slog.String("node", s.nodeID))
	return s
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"log/slog"

	"wireframe/internal/domain"
)

// Session is one pointer-down to pointer-up gesture on a single node.
// Positions are recomputed from the gesture origin on every move, so the
// number of move events does not affect the result.
type Session struct {
	engine *Engine
	kind   Kind
	nodeID string
	handle Handle
	origin Point
	orig   domain.Frame
	sub    Subscription
	moves  int
	done   bool
}

func (s *Session) Kind() Kind               { return s.kind }
func (s *Session) NodeID() string           { return s.nodeID }
func (s *Session) Handle() Handle           { return s.handle }
func (s *Session) Origin() Point            { return s.origin }
func (s *Session) StartFrame() domain.Frame { return s.orig }
func (s *Session) Done() bool               { return s.done }

// FrameAt is the frame the node gets for a pointer at p.
func (s *Session) FrameAt(p Point) domain.Frame {
	d := p.Sub(s.origin)
	if s.kind == KindResize {
		return ResizeFrame(s.orig, s.handle, d)
	}
	return DragFrame(s.orig, d)
}

// Move applies the pointer position to the node. The node is matched by id on
// the active page at each move; if it is gone the move changes nothing.
func (s *Session) Move(p Point) {
	if s.done {
		return
	}
	s.moves++
	f := s.FrameAt(p)
	id := s.nodeID
	s.engine.pages.MutateActivePage(func(pg domain.Page) domain.Page { return pg.SetFrame(id, f) })
}

// End finishes the gesture on pointer-up.
func (s *Session) End(Point) {
	if s.finish() {
		s.engine.log.Debug("gesture ended", slog.String("kind", s.kind.String()),
			slog.String("node", s.nodeID), slog.Int("moves", s.moves))
	}
}

// Abort finishes the gesture without a pointer-up.
func (s *Session) Abort() {
	if s.finish() {
		s.engine.log.Debug("gesture aborted", slog.String("kind", s.kind.String()), slog.String("node", s.nodeID))
	}
}

func (s *Session) finish() bool {
	if s.done {
		return false
	}
	s.done = true
	s.sub.Remove()
	if s.engine.active == s {
		s.engine.active = nil
	}
	return true
}

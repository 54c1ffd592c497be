/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

// Point is a pointer position in screen coordinates.
type Point struct{ X, Y float64 }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

type pointerHandler struct {
	id   uint32
	move func(Point)
	up   func(Point)
}

// Bus fans pointer-move and pointer-up events out to the gestures that
// subscribed to them. The host feeds it from its window-level event loop.
type Bus struct {
	nextID   uint32
	handlers []pointerHandler
}

// Subscription removes a handler registered on a Bus.
type Subscription struct {
	id  uint32
	bus *Bus
}

// Subscribe registers move and up callbacks. Either may be nil.
func (b *Bus) Subscribe(move, up func(Point)) Subscription {
	b.nextID++
	b.handlers = append(b.handlers, pointerHandler{id: b.nextID, move: move, up: up})
	return Subscription{id: b.nextID, bus: b}
}

// Remove unregisters the handler. Removing twice is harmless.
func (s Subscription) Remove() {
	if s.bus == nil {
		return
	}
	hs := s.bus.handlers
	for i, h := range hs {
		if h.id == s.id {
			s.bus.handlers = append(hs[:i:i], hs[i+1:]...)
			return
		}
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int { return len(b.handlers) }

// PointerMove delivers a move event to every subscriber.
func (b *Bus) PointerMove(p Point) {
	for _, h := range b.snapshot() {
		if h.move != nil {
			h.move(p)
		}
	}
}

// PointerUp delivers a release event to every subscriber.
func (b *Bus) PointerUp(p Point) {
	for _, h := range b.snapshot() {
		if h.up != nil {
			h.up(p)
		}
	}
}

// snapshot copies the handler list so callbacks may unsubscribe while dispatching.
func (b *Bus) snapshot() []pointerHandler {
	return append([]pointerHandler(nil), b.handlers...)
}

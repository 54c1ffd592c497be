/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interaction

import (
	"fmt"
	"math"

	"wireframe/internal/domain"
)

// Handle names a resize grip at one corner of a node's frame.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleNE Handle = "ne"
	HandleSW Handle = "sw"
	HandleSE Handle = "se"
)

// Handles lists the resize grips.
var Handles = []Handle{HandleNW, HandleNE, HandleSW, HandleSE}

func (h Handle) Valid() bool {
	switch h {
	case HandleNW, HandleNE, HandleSW, HandleSE:
		return true
	}
	return false
}

// ParseHandle accepts "nw", "ne", "sw" and "se".
func ParseHandle(s string) (Handle, error) {
	h := Handle(s)
	if !h.Valid() {
		return "", fmt.Errorf("unknown resize handle %q", s)
	}
	return h, nil
}

// DragFrame moves orig by delta, keeping its size.
func DragFrame(orig domain.Frame, delta Point) domain.Frame {
	orig.X += delta.X
	orig.Y += delta.Y
	return orig
}

// ResizeFrame applies a corner drag to orig. Width and height never drop
// below domain.MinFrameSize. The anchored edge follows the pointer even when
// the size is clamped.
func ResizeFrame(orig domain.Frame, h Handle, delta Point) domain.Frame {
	f := orig
	switch h {
	case HandleSE:
		f.W = math.Max(domain.MinFrameSize, orig.W+delta.X)
		f.H = math.Max(domain.MinFrameSize, orig.H+delta.Y)
	case HandleSW:
		f.W = math.Max(domain.MinFrameSize, orig.W-delta.X)
		f.H = math.Max(domain.MinFrameSize, orig.H+delta.Y)
		f.X = orig.X + delta.X
	case HandleNE:
		f.W = math.Max(domain.MinFrameSize, orig.W+delta.X)
		f.H = math.Max(domain.MinFrameSize, orig.H-delta.Y)
		f.Y = orig.Y + delta.Y
	case HandleNW:
		f.W = math.Max(domain.MinFrameSize, orig.W-delta.X)
		f.H = math.Max(domain.MinFrameSize, orig.H-delta.Y)
		f.X = orig.X + delta.X
		f.Y = orig.Y + delta.Y
	}
	return f
}

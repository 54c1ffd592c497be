/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import "wireframe/internal/domain"

// Edit is a node updater as accepted by State.UpdateNode.
type Edit func(domain.Node) domain.Node

func Rename(name string) Edit {
	return func(n domain.Node) domain.Node { n.Name = name; return n }
}

func SetX(v float64) Edit {
	return func(n domain.Node) domain.Node { n.Frame.X = v; return n }
}

func SetY(v float64) Edit {
	return func(n domain.Node) domain.Node { n.Frame.Y = v; return n }
}

// SetWidth and SetHeight take the value as typed; only gestures enforce the size floor.
func SetWidth(v float64) Edit {
	return func(n domain.Node) domain.Node { n.Frame.W = v; return n }
}

func SetHeight(v float64) Edit {
	return func(n domain.Node) domain.Node { n.Frame.H = v; return n }
}

func SetRotation(deg float64) Edit {
	return func(n domain.Node) domain.Node { n.Rotation = deg; return n }
}

func SetFill(c string) Edit {
	return func(n domain.Node) domain.Node { n.Style.Fill = c; return n }
}

func SetStroke(c string) Edit {
	return func(n domain.Node) domain.Node { n.Style.Stroke = c; return n }
}

// SetOpacity clamps to [0.1, 1].
func SetOpacity(v float64) Edit {
	return func(n domain.Node) domain.Node { n.Style.Opacity = domain.ClampOpacity(v); return n }
}

func SetTextValue(v string) Edit {
	return editText(func(t *domain.NodeText) { t.Value = v })
}

// SetFontSize clamps to a minimum of 8.
func SetFontSize(v float64) Edit {
	return editText(func(t *domain.NodeText) { t.Size = domain.ClampFontSize(v) })
}

func SetTextColor(c string) Edit {
	return editText(func(t *domain.NodeText) { t.Color = c })
}

// editText edits a copy of the node's text, starting from the defaults when it has none.
func editText(fn func(*domain.NodeText)) Edit {
	return func(n domain.Node) domain.Node {
		t := domain.DefaultText()
		if n.Text != nil {
			t = *n.Text
		}
		fn(&t)
		n.Text = &t
		return n
	}
}

// Chain applies edits in order.
func Chain(edits ...Edit) Edit {
	return func(n domain.Node) domain.Node {
		for _, e := range edits {
			n = e(n)
		}
		return n
	}
}

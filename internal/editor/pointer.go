/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"gocropper/internal/geometry"
	"gocropper/internal/hittest"
)

// PointerDown hit-tests p and, on a hit, selects the layer and starts a drag
// anchored at p. A miss clears the selection and stays idle.
func (c *Controller) PointerDown(p geometry.Pt) {
	_ = c.mutate(func(n *notice) error {
		c.drag = nil
		id, ok := hittest.At(c.layers, c.crop(), p)
		if !ok {
			c.setSelected("", n)
			n.redraw = n.selectChanged
			return nil
		}
		t := c.layers[c.indexOf(id)].Transform
		c.setSelected(id, n)
		c.drag = &drag{id: id, anchor: p, orig: geometry.Pt{X: t.OffsetX, Y: t.OffsetY}}
		n.redraw = n.selectChanged
		c.log.Debug("drag start", slog.String("layer", id), slog.Float64("x", p.X), slog.Float64("y", p.Y))
		return nil
	})
}

// PointerMove updates the dragged layer's offset to its original offset plus
// the pointer delta since PointerDown. It does nothing while idle.
func (c *Controller) PointerMove(p geometry.Pt) {
	_ = c.mutate(func(n *notice) error {
		if c.drag == nil {
			return nil
		}
		i := c.indexOf(c.drag.id)
		if i < 0 {
			c.drag = nil
			return nil
		}
		off := c.drag.orig.Add(p.Sub(c.drag.anchor))
		l := c.layers[i]
		l.Transform.OffsetX, l.Transform.OffsetY = off.X, off.Y
		n.offset, n.offsetID, n.offsetX, n.offsetY = true, l.ID, off.X, off.Y
		n.redraw = true
		return nil
	})
}

// PointerUp ends a drag. The last offset stays.
func (c *Controller) PointerUp() { c.endDrag("up") }

// PointerLeave behaves like PointerUp.
func (c *Controller) PointerLeave() { c.endDrag("leave") }

func (c *Controller) endDrag(how string) {
	_ = c.mutate(func(n *notice) error {
		if c.drag != nil {
			c.log.Debug("drag end", slog.String("layer", c.drag.id), slog.String("by", how))
		}
		c.drag = nil
		return nil
	})
}

// State reports the interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag != nil {
		return Dragging
	}
	return Idle
}

//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gocropper/internal/editor"
	"gocropper/internal/geometry"
)

// CompositionCanvas shows the live preview and forwards pointer input to the
// editor controller. Canvas coordinates are the widget's logical units.
type CompositionCanvas struct {
	widget.BaseWidget
	ctrl *editor.Controller

	mu     sync.Mutex
	last   *image.RGBA
	raster *canvas.Raster
}

// NewCompositionCanvas binds a canvas to ctrl. Call Redraw from the
// controller's OnRedraw callback.
func NewCompositionCanvas(ctrl *editor.Controller) *CompositionCanvas {
	c := &CompositionCanvas{ctrl: ctrl}
	c.raster = canvas.NewRaster(func(_, _ int) image.Image {
		c.mu.Lock()
		img := c.last
		c.mu.Unlock()
		if img == nil {
			img = c.ctrl.Render()
		}
		return img
	})
	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer draws the raster filling the widget.
func (c *CompositionCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize keeps room for a usable preview.
func (c *CompositionCanvas) MinSize() fyne.Size { return fyne.NewSize(480, 480) }

// Resize keeps the controller's canvas size in step with the widget.
func (c *CompositionCanvas) Resize(s fyne.Size) {
	c.BaseWidget.Resize(s)
	_ = c.ctrl.SetCanvasSize(int(s.Width), int(s.Height))
}

// Redraw stores a fresh preview and repaints.
func (c *CompositionCanvas) Redraw(img *image.RGBA) {
	c.mu.Lock()
	c.last = img
	c.mu.Unlock()
	c.raster.Refresh()
}

func pt(p fyne.Position) geometry.Pt { return geometry.Pt{X: float64(p.X), Y: float64(p.Y)} }

// MouseDown starts a drag on the layer under the pointer.
func (c *CompositionCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.ctrl.PointerDown(pt(e.Position))
}

// MouseUp ends a drag.
func (c *CompositionCanvas) MouseUp(*desktop.MouseEvent) { c.ctrl.PointerUp() }

// Dragged moves the layer grabbed in MouseDown.
func (c *CompositionCanvas) Dragged(e *fyne.DragEvent) { c.ctrl.PointerMove(pt(e.Position)) }

// DragEnd ends a drag.
func (c *CompositionCanvas) DragEnd() { c.ctrl.PointerUp() }

func (c *CompositionCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseMoved is a no-op; moves only matter while dragging.
func (c *CompositionCanvas) MouseMoved(*desktop.MouseEvent) {}

// MouseOut abandons a drag at the last position.
func (c *CompositionCanvas) MouseOut() { c.ctrl.PointerLeave() }

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor owns the live composition: the layer stack, the selection
// and the pointer drag state machine. All methods are safe for concurrent use.
package editor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"gocropper/internal/format"
	"gocropper/internal/geometry"
	"gocropper/internal/layer"
	applog "gocropper/internal/log"
	"gocropper/internal/render"
)

var (
	// ErrUnknownLayer is returned for ids not in the layer stack.
	ErrUnknownLayer = errors.New("unknown layer")
	// ErrNoLayers is returned when an operation needs at least one layer.
	ErrNoLayers = errors.New("composition has no layers")
	// ErrDisposed is returned after Dispose.
	ErrDisposed = errors.New("editor disposed")
)

// State is the pointer interaction state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Callbacks receive change notifications. They run synchronously on the
// calling goroutine after the controller lock has been released.
type Callbacks struct {
	OnSelect func(id string)
	OnOffset func(id string, x, y float64)
	OnRedraw func(img *image.RGBA)
}

type drag struct {
	id     string
	anchor geometry.Pt
	orig   geometry.Pt
}

// Controller is the interaction controller.
type Controller struct {
	mu       sync.Mutex
	r        *render.Renderer
	layers   []*layer.Layer
	selected string
	fill     color.NRGBA
	spec     format.Spec
	canvasW  int
	canvasH  int
	drag     *drag
	cb       Callbacks
	disposed bool
	log      *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithCallbacks installs notification callbacks.
func WithCallbacks(cb Callbacks) Option { return func(c *Controller) { c.cb = cb } }

// WithFill sets the initial canvas fill colour.
func WithFill(col color.Color) Option {
	return func(c *Controller) { c.fill = color.NRGBAModel.Convert(col).(color.NRGBA) }
}

// WithCanvasSize sets the initial preview canvas size.
func WithCanvasSize(w, h int) Option { return func(c *Controller) { c.canvasW, c.canvasH = w, h } }

// New creates a controller rendering with r for the given output format.
func New(r *render.Renderer, spec format.Spec, opts ...Option) *Controller {
	c := &Controller{
		r:       r,
		spec:    spec,
		fill:    color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		canvasW: 800,
		canvasH: 800,
		log:     applog.WithComponent("editor"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// notice is a set of callbacks to fire once the lock is released.
type notice struct {
	selectChanged bool
	selectID      string
	offset        bool
	offsetID      string
	offsetX       float64
	offsetY       float64
	redraw        bool
}

func (c *Controller) emit(cb Callbacks, n notice) {
	if n.selectChanged && cb.OnSelect != nil {
		cb.OnSelect(n.selectID)
	}
	if n.offset && cb.OnOffset != nil {
		cb.OnOffset(n.offsetID, n.offsetX, n.offsetY)
	}
	if n.redraw && cb.OnRedraw != nil {
		cb.OnRedraw(c.Render())
	}
}

// setSelected must be called with mu held.
func (c *Controller) setSelected(id string, n *notice) {
	if c.selected == id {
		return
	}
	c.selected = id
	n.selectChanged = true
	n.selectID = id
}

// indexOf must be called with mu held.
func (c *Controller) indexOf(id string) int {
	for i, l := range c.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) hasBackground() bool {
	return len(c.layers) > 0 && c.layers[0].Role == layer.RoleBackground
}

// crop must be called with mu held.
func (c *Controller) crop() geometry.Rect {
	return geometry.CropRect(float64(c.canvasW), float64(c.canvasH), c.r.Options().Padding, c.spec.AspectRatio())
}

// mutate runs fn under the lock and emits the collected notices afterwards.
func (c *Controller) mutate(fn func(n *notice) error) error {
	var n notice
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return ErrDisposed
	}
	err := fn(&n)
	cb := c.cb
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.emit(cb, n)
	return nil
}

// AddImage admits a decoded image. The first image becomes the background;
// later ones are overlays stacked on top. The new layer is selected.
func (c *Controller) AddImage(img image.Image) (string, error) {
	if err := layer.Validate(img); err != nil {
		return "", fmt.Errorf("add image: %w", err)
	}
	var id string
	err := c.mutate(func(n *notice) error {
		role := layer.RoleOverlay
		if !c.hasBackground() {
			role = layer.RoleBackground
		}
		l, err := layer.New(role, img)
		if err != nil {
			return fmt.Errorf("add image: %w", err)
		}
		if role == layer.RoleBackground {
			c.layers = append([]*layer.Layer{l}, c.layers...)
		} else {
			c.layers = append(c.layers, l)
		}
		id = l.ID
		c.setSelected(l.ID, n)
		n.redraw = true
		b := img.Bounds()
		c.log.Info("layer added", slog.String("layer", l.ID), slog.String("role", role.String()),
			slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
		return nil
	})
	return id, err
}

// RemoveLayer drops a layer and releases its image. Removing the selected
// layer clears the selection in the same critical section.
func (c *Controller) RemoveLayer(id string) error {
	return c.mutate(func(n *notice) error {
		i := c.indexOf(id)
		if i < 0 {
			return fmt.Errorf("remove %q: %w", id, ErrUnknownLayer)
		}
		l := c.layers[i]
		c.layers = append(c.layers[:i:i], c.layers[i+1:]...)
		l.Release()
		if c.selected == id {
			c.setSelected("", n)
		}
		if c.drag != nil && c.drag.id == id {
			c.drag = nil
		}
		n.redraw = true
		c.log.Info("layer removed", slog.String("layer", id))
		return nil
	})
}

// ResetLayer restores a layer's default transform.
func (c *Controller) ResetLayer(id string) error {
	return c.mutate(func(n *notice) error {
		i := c.indexOf(id)
		if i < 0 {
			return fmt.Errorf("reset %q: %w", id, ErrUnknownLayer)
		}
		c.layers[i].Reset()
		n.offset, n.offsetID = true, id
		n.redraw = true
		return nil
	})
}

// Clear removes every layer.
func (c *Controller) Clear() error {
	return c.mutate(func(n *notice) error {
		for _, l := range c.layers {
			l.Release()
		}
		c.layers = nil
		c.drag = nil
		c.setSelected("", n)
		n.redraw = true
		c.log.Info("composition cleared")
		return nil
	})
}

// SetFillColor changes the colour behind the layers.
func (c *Controller) SetFillColor(col color.Color) error {
	if col == nil {
		return errors.New("fill colour is nil")
	}
	return c.mutate(func(n *notice) error {
		c.fill = color.NRGBAModel.Convert(col).(color.NRGBA)
		n.redraw = true
		return nil
	})
}

// SetFormat switches the output format. Offsets are rescaled so every layer
// keeps its position relative to the new crop rectangle.
func (c *Controller) SetFormat(spec format.Spec) error {
	if spec.AspectRatio() <= 0 {
		return fmt.Errorf("%w: %s has no area", format.ErrUnknownFormat, spec.ID)
	}
	return c.mutate(func(n *notice) error {
		old := c.crop()
		c.spec = spec
		c.rescaleOffsets(old, c.crop(), n)
		n.redraw = true
		c.log.Info("format changed", slog.String("format", spec.ID))
		return nil
	})
}

// SetCanvasSize updates the preview canvas size, rescaling offsets with the crop.
func (c *Controller) SetCanvasSize(w, h int) error {
	if w < 0 || h < 0 {
		return fmt.Errorf("invalid canvas size %dx%d", w, h)
	}
	return c.mutate(func(n *notice) error {
		old := c.crop()
		c.canvasW, c.canvasH = w, h
		c.rescaleOffsets(old, c.crop(), n)
		n.redraw = true
		return nil
	})
}

// rescaleOffsets must be called with mu held.
func (c *Controller) rescaleOffsets(from, to geometry.Rect, n *notice) {
	if from.Empty() || to.Empty() || (from.W == to.W && from.H == to.H) {
		return
	}
	sx, sy := render.ScaleFactors(to, from)
	for _, l := range c.layers {
		l.Transform.OffsetX *= sx
		l.Transform.OffsetY *= sy
	}
	if c.drag != nil {
		c.drag = nil
	}
	if i := c.indexOf(c.selected); i >= 0 {
		t := c.layers[i].Transform
		n.offset, n.offsetID, n.offsetX, n.offsetY = true, c.selected, t.OffsetX, t.OffsetY
	}
}

// SetZoom sets a layer's zoom, clamped to the interactive range.
func (c *Controller) SetZoom(id string, zoom float64) error {
	return c.transform(id, "zoom", func(t *layer.Transform) { t.Zoom = layer.ClampZoom(zoom) })
}

// SetRotation sets a layer's rotation in degrees, normalised into (-180, 180].
func (c *Controller) SetRotation(id string, deg float64) error {
	return c.transform(id, "rotation", func(t *layer.Transform) { t.RotationDegrees = geometry.NormalizeDegrees(deg) })
}

// SetOffset moves a layer to an absolute offset from the crop centre.
func (c *Controller) SetOffset(id string, x, y float64) error {
	return c.transform(id, "offset", func(t *layer.Transform) { t.OffsetX, t.OffsetY = x, y })
}

func (c *Controller) transform(id, what string, fn func(*layer.Transform)) error {
	return c.mutate(func(n *notice) error {
		i := c.indexOf(id)
		if i < 0 {
			return fmt.Errorf("set %s %q: %w", what, id, ErrUnknownLayer)
		}
		fn(&c.layers[i].Transform)
		if what == "offset" {
			t := c.layers[i].Transform
			n.offset, n.offsetID, n.offsetX, n.offsetY = true, id, t.OffsetX, t.OffsetY
		}
		n.redraw = true
		return nil
	})
}

// Select changes the selection. An empty id clears it.
func (c *Controller) Select(id string) error {
	return c.mutate(func(n *notice) error {
		if id != "" && c.indexOf(id) < 0 {
			return fmt.Errorf("select %q: %w", id, ErrUnknownLayer)
		}
		c.setSelected(id, n)
		n.redraw = n.selectChanged
		return nil
	})
}

// Dispose releases every image and detaches callbacks. Later calls fail
// with ErrDisposed.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	for _, l := range c.layers {
		l.Release()
	}
	c.layers = nil
	c.selected = ""
	c.drag = nil
	c.cb = Callbacks{}
	c.disposed = true
	c.log.Debug("disposed")
}

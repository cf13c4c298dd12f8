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
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"gocropper/internal/format"
	"gocropper/internal/geometry"
	"gocropper/internal/layer"
	"gocropper/internal/render"
)

// Snapshot is a consistent copy of the composition. Layers are clones that
// share the read-only images.
type Snapshot struct {
	Layers     []*layer.Layer
	SelectedID string
	Fill       color.NRGBA
	Format     format.Spec
	CanvasW    int
	CanvasH    int
	State      State
}

// Scene converts the snapshot into renderer input.
func (s Snapshot) Scene() render.Scene {
	return render.Scene{Layers: s.Layers, SelectedID: s.SelectedID, Fill: s.Fill, Aspect: s.Format.AspectRatio()}
}

// Layer returns the snapshot copy of the layer with the given id.
func (s Snapshot) Layer(id string) (*layer.Layer, bool) {
	for _, l := range s.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() Snapshot {
	ls := make([]*layer.Layer, len(c.layers))
	for i, l := range c.layers {
		ls[i] = l.Clone()
	}
	st := Idle
	if c.drag != nil {
		st = Dragging
	}
	return Snapshot{
		Layers:     ls,
		SelectedID: c.selected,
		Fill:       c.fill,
		Format:     c.spec,
		CanvasW:    c.canvasW,
		CanvasH:    c.canvasH,
		State:      st,
	}
}

// PreviewCrop returns the crop rectangle of the current preview canvas.
func (c *Controller) PreviewCrop() geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.crop()
}

// Render draws the preview at the current canvas size.
func (c *Controller) Render() *image.RGBA {
	s := c.Snapshot()
	return c.r.Preview(s.Scene(), s.CanvasW, s.CanvasH)
}

// Export renders the composition at the active format's pixel size.
func (c *Controller) Export() (*image.RGBA, format.Spec, error) {
	c.mu.Lock()
	spec := c.spec
	c.mu.Unlock()
	img, err := c.ExportAs(spec)
	return img, spec, err
}

// ExportAs renders the composition at the pixel size of spec. Offsets are
// rescaled from the current preview crop per axis.
func (c *Controller) ExportAs(spec format.Spec) (*image.RGBA, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrDisposed
	}
	s := c.snapshot()
	crop := c.crop()
	c.mu.Unlock()
	if len(s.Layers) == 0 {
		return nil, fmt.Errorf("export %s: %w", spec.ID, ErrNoLayers)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("export %s: %w: size %dx%d", spec.ID, format.ErrUnknownFormat, spec.Width, spec.Height)
	}
	img := c.r.Export(s.Scene(), spec, crop)
	c.log.Info("rendered export", slog.String("format", spec.ID),
		slog.Int("w", spec.Width), slog.Int("h", spec.Height), slog.Int("layers", len(s.Layers)))
	return img, nil
}

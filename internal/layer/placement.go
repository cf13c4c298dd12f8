/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package layer

import (
	"image"
	"math"

	"gocropper/internal/geometry"
)

// BaseScale is the scale that maps the natural image size onto the crop at
// zoom 1: cover-fit for the background, a fixed share of the crop width for
// overlays. Degenerate sizes give 0.
func BaseScale(role Role, crop geometry.Rect, imgW, imgH float64) float64 {
	if !(imgW > 0) || !(imgH > 0) || crop.Empty() {
		return 0
	}
	if role == RoleBackground {
		return math.Max(crop.W/imgW, crop.H/imgH)
	}
	return crop.W * OverlayWidthFraction / imgW
}

// Placement is the rendered geometry of a layer on a particular canvas.
type Placement struct {
	Center   geometry.Pt
	Scale    float64 // finalScale: base scale times zoom
	Rotation float64 // radians
	Width    float64 // rendered width before rotation
	Height   float64
}

// Degenerate reports a zero-area placement that must be neither drawn nor hit.
func (p Placement) Degenerate() bool {
	return !(p.Scale > 0) || !(p.Width > 0) || !(p.Height > 0) ||
		math.IsInf(p.Scale, 0) || math.IsNaN(p.Center.X) || math.IsNaN(p.Center.Y)
}

// Place computes where the layer lands for the given crop rectangle. sx and
// sy rescale the stored preview-space offsets to the target canvas (1 for
// the preview itself).
func (l *Layer) Place(crop geometry.Rect, sx, sy float64) Placement {
	w, h := l.Size()
	iw, ih := float64(w), float64(h)
	scale := BaseScale(l.Role, crop, iw, ih) * l.Transform.EffectiveZoom()
	return Placement{
		Center:   crop.Center().Add(geometry.Pt{X: l.Transform.OffsetX * sx, Y: l.Transform.OffsetY * sy}),
		Scale:    scale,
		Rotation: geometry.Radians(l.Transform.RotationDegrees),
		Width:    iw * scale,
		Height:   ih * scale,
	}
}

// Local maps the layer's centred local space (origin at the layer centre,
// unscaled image pixels) to the canvas: translate, rotate, then scale.
func (p Placement) Local() geometry.Affine {
	return geometry.Translate(p.Center.X, p.Center.Y).
		Mul(geometry.Rotate(p.Rotation)).
		Mul(geometry.Scale(p.Scale, p.Scale))
}

// ImageToCanvas maps source image pixel coordinates (bounds as given by the
// image) to canvas coordinates, drawing the image centred on the origin.
func (p Placement) ImageToCanvas(bounds image.Rectangle) geometry.Affine {
	cx := float64(bounds.Min.X) + float64(bounds.Dx())/2
	cy := float64(bounds.Min.Y) + float64(bounds.Dy())/2
	return p.Local().Mul(geometry.Translate(-cx, -cy))
}

// Corners returns the rendered corners clockwise from the top-left.
func (p Placement) Corners() [4]geometry.Pt {
	hw, hh := p.Width/2, p.Height/2
	m := geometry.Translate(p.Center.X, p.Center.Y).Mul(geometry.Rotate(p.Rotation))
	return [4]geometry.Pt{
		m.Apply(geometry.Pt{X: -hw, Y: -hh}),
		m.Apply(geometry.Pt{X: hw, Y: -hh}),
		m.Apply(geometry.Pt{X: hw, Y: hh}),
		m.Apply(geometry.Pt{X: -hw, Y: hh}),
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render rasterises a composition. Preview and export share the same
// per-layer placement so both place every layer at the same relative position.
package render

import (
	"image"
	"image/color"
	"log/slog"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"gocropper/internal/format"
	"gocropper/internal/geometry"
	"gocropper/internal/layer"
	applog "gocropper/internal/log"
)

// Scene is an immutable view of the composition handed to the renderer.
// Layers are in stack order, background first.
type Scene struct {
	Layers     []*layer.Layer
	SelectedID string
	Fill       color.Color
	Aspect     float64
}

// Renderer draws previews and exports. It holds no composition state.
type Renderer struct {
	opts Options
	log  *slog.Logger
}

// New returns a renderer with the given options.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts, log: applog.WithComponent("render")}
}

// Options returns the renderer configuration.
func (r *Renderer) Options() Options { return r.opts }

// PreviewCrop is the crop rectangle a preview of the given size uses.
func (r *Renderer) PreviewCrop(s Scene, canvasW, canvasH int) geometry.Rect {
	return geometry.CropRect(float64(canvasW), float64(canvasH), r.opts.Padding, s.Aspect)
}

// Preview renders the interactive view: neutral canvas, clipped layers,
// selection chrome, guide border and a shade over everything outside the crop.
func (r *Renderer) Preview(s Scene, canvasW, canvasH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(canvasW, 0), max(canvasH, 0)))
	fill(dst, dst.Bounds(), r.opts.Neutral)

	crop := r.PreviewCrop(s, canvasW, canvasH)
	if crop.Empty() {
		return dst
	}
	clip := crop.Pixels().Intersect(dst.Bounds())
	fill(dst, clip, fillColor(s.Fill))
	drawLayers(dst, clip, crop, s.Layers, 1, 1, r.opts.PreviewInterpolation)

	if sel := selected(s); sel != nil {
		if err := r.drawSelection(dst, clip, crop, sel); err != nil {
			r.log.Debug("selection chrome", slog.String("layer", sel.ID), slog.Any("err", err))
		}
	}
	if err := r.drawGuides(dst, crop); err != nil {
		r.log.Debug("guide chrome", slog.Any("err", err))
	}
	return dst
}

// Export renders the composition at the exact pixel size of spec. The crop is
// the whole canvas and stored offsets, measured against previewCrop, are
// rescaled per axis. No chrome is drawn.
func (r *Renderer) Export(s Scene, spec format.Spec, previewCrop geometry.Rect) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(spec.Width, 0), max(spec.Height, 0)))
	fill(dst, dst.Bounds(), fillColor(s.Fill))
	crop := geometry.Rect{W: float64(dst.Bounds().Dx()), H: float64(dst.Bounds().Dy())}
	if crop.Empty() {
		return dst
	}
	sx, sy := ScaleFactors(crop, previewCrop)
	drawLayers(dst, dst.Bounds(), crop, s.Layers, sx, sy, r.opts.ExportInterpolation)
	return dst
}

// ScaleFactors maps preview offsets onto target. An unknown (empty) preview
// crop leaves offsets unscaled.
func ScaleFactors(target, preview geometry.Rect) (sx, sy float64) {
	if preview.Empty() {
		return 1, 1
	}
	return target.W / preview.W, target.H / preview.H
}

// drawLayers composites layers bottom to top, clipped to clip.
func drawLayers(dst *image.RGBA, clip image.Rectangle, crop geometry.Rect, layers []*layer.Layer, sx, sy float64, interp Interpolation) {
	if clip.Empty() {
		return
	}
	target, ok := dst.SubImage(clip).(*image.RGBA)
	if !ok {
		return
	}
	in := interp.interpolator()
	for _, l := range layers {
		if l == nil || l.Image == nil {
			continue
		}
		pl := l.Place(crop, sx, sy)
		if pl.Degenerate() {
			continue
		}
		b := l.Image.Bounds()
		in.Transform(target, aff3(pl.ImageToCanvas(b)), l.Image, b, draw.Over, nil)
	}
}

func aff3(m geometry.Affine) f64.Aff3 {
	return f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
}

func selected(s Scene) *layer.Layer {
	if s.SelectedID == "" {
		return nil
	}
	for _, l := range s.Layers {
		if l != nil && l.ID == s.SelectedID {
			return l
		}
	}
	return nil
}

func fillColor(c color.Color) color.Color {
	if c == nil {
		return color.White
	}
	return c
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"gocropper/internal/geometry"
	"gocropper/internal/layer"
)

// drawSelection strokes the selected layer's outline and corner handles in
// layer-local space. Widths are divided by the layer scale so they stay
// constant on screen. The overlay is composited only inside clip.
func (r *Renderer) drawSelection(dst *image.RGBA, clip image.Rectangle, crop geometry.Rect, l *layer.Layer) error {
	pl := l.Place(crop, 1, 1)
	if pl.Degenerate() || clip.Empty() {
		return nil
	}
	iw, ih := l.Size()
	w, h := float64(iw), float64(ih)

	b := dst.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	defer func() { _ = dc.Close() }()

	dc.Push()
	dc.Translate(pl.Center.X, pl.Center.Y)
	dc.Rotate(pl.Rotation)
	dc.Scale(pl.Scale, pl.Scale)
	dc.SetColor(r.opts.Selection)
	dc.SetLineWidth(r.opts.OutlineWidth / pl.Scale)
	dc.DrawRectangle(-w/2, -h/2, w, h)
	err := dc.Stroke()

	hs := r.opts.HandleSize / pl.Scale
	for _, c := range [4][2]float64{{-w / 2, -h / 2}, {w / 2, -h / 2}, {w / 2, h / 2}, {-w / 2, h / 2}} {
		dc.DrawRectangle(c[0]-hs/2, c[1]-hs/2, hs, hs)
	}
	err = errors.Join(err, dc.Fill())
	dc.Pop()

	draw.Draw(dst, clip, dc.Image(), clip.Min, draw.Over)
	return err
}

// drawGuides outlines the crop with a 1px border and darkens the rest of the
// canvas with an even-odd path (canvas rectangle minus crop rectangle).
func (r *Renderer) drawGuides(dst *image.RGBA, crop geometry.Rect) error {
	b := dst.Bounds()
	cw, ch := float64(b.Dx()), float64(b.Dy())
	dc := gg.NewContext(b.Dx(), b.Dy())
	defer func() { _ = dc.Close() }()

	in := crop.Inset(0.5, 0.5)
	dc.SetColor(r.opts.Guide)
	dc.SetLineWidth(1)
	dc.DrawRectangle(in.X, in.Y, in.W, in.H)
	err := dc.Stroke()

	dc.SetColor(r.opts.Shade)
	dc.SetFillRule(gg.FillRuleEvenOdd)
	dc.MoveTo(0, 0)
	dc.LineTo(cw, 0)
	dc.LineTo(cw, ch)
	dc.LineTo(0, ch)
	dc.ClosePath()
	lo, hi := crop.Min(), crop.Max()
	dc.MoveTo(lo.X, lo.Y)
	dc.LineTo(lo.X, hi.Y)
	dc.LineTo(hi.X, hi.Y)
	dc.LineTo(hi.X, lo.Y)
	dc.ClosePath()
	err = errors.Join(err, dc.Fill())

	draw.Draw(dst, b, dc.Image(), b.Min, draw.Over)
	return err
}

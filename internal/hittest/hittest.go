/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package hittest resolves which layer lies under a preview-canvas point.
package hittest

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"gocropper/internal/geometry"
	"gocropper/internal/layer"
)

// At returns the id of the topmost layer containing p. layers are in stack
// order, background first. When no layer contains p the background (if any)
// is returned so a click outside every image still grabs it.
func At(layers []*layer.Layer, crop geometry.Rect, p geometry.Pt) (string, bool) {
	for i := len(layers) - 1; i >= 0; i-- {
		if Contains(layers[i], crop, p) {
			return layers[i].ID, true
		}
	}
	for _, l := range layers {
		if l != nil && l.Role == layer.RoleBackground {
			return l.ID, true
		}
	}
	return "", false
}

// Contains reports whether p falls strictly inside the rendered, rotated
// bounds of l on the preview canvas. Degenerate layers never contain a point.
func Contains(l *layer.Layer, crop geometry.Rect, p geometry.Pt) bool {
	if l == nil {
		return false
	}
	pl := l.Place(crop, 1, 1)
	if pl.Degenerate() {
		return false
	}
	c := r2.Vec{X: pl.Center.X, Y: pl.Center.Y}
	local := r2.Sub(r2.Rotate(r2.Vec{X: p.X, Y: p.Y}, -pl.Rotation, c), c)
	return math.Abs(local.X) < pl.Width/2 && math.Abs(local.Y) < pl.Height/2
}

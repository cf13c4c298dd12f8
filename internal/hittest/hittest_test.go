/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package hittest

import (
	"image"
	"testing"

	"gocropper/internal/geometry"
	"gocropper/internal/layer"
)

func mk(id string, role layer.Role, w, h int, tr layer.Transform) *layer.Layer {
	return &layer.Layer{ID: id, Role: role, Image: image.NewRGBA(image.Rect(0, 0, w, h)), Transform: tr}
}

var crop = geometry.Rect{X: 0, Y: 0, W: 200, H: 200}

func TestTopmostWinsAndBackgroundFallback(t *testing.T) {
	bg := mk("bg", layer.RoleBackground, 200, 200, layer.DefaultTransform())
	ov := mk("ov", layer.RoleOverlay, 100, 100, layer.DefaultTransform())
	layers := []*layer.Layer{bg, ov}

	cases := []struct {
		name string
		p    geometry.Pt
		want string
	}{
		{"centre", geometry.Pt{X: 100, Y: 100}, "ov"},
		{"just inside", geometry.Pt{X: 149, Y: 100}, "ov"},
		{"one pixel outside", geometry.Pt{X: 151, Y: 100}, "bg"},
		{"outside crop", geometry.Pt{X: 500, Y: 500}, "bg"},
	}
	for _, c := range cases {
		id, ok := At(layers, crop, c.p)
		if !ok || id != c.want {
			t.Fatalf("%s: got %q,%v want %q", c.name, id, ok, c.want)
		}
	}
}

func TestNoBackgroundMissesReturnNone(t *testing.T) {
	ov := mk("ov", layer.RoleOverlay, 100, 100, layer.DefaultTransform())
	if id, ok := At([]*layer.Layer{ov}, crop, geometry.Pt{X: 10, Y: 10}); ok {
		t.Fatalf("expected miss, got %q", id)
	}
	if _, ok := At(nil, crop, geometry.Pt{X: 100, Y: 100}); ok {
		t.Fatalf("empty stack must not hit")
	}
}

func TestOffsetMovesHitArea(t *testing.T) {
	ov := mk("ov", layer.RoleOverlay, 100, 100, layer.Transform{Zoom: 1, OffsetX: 60})
	if !Contains(ov, crop, geometry.Pt{X: 200, Y: 100}) {
		t.Fatalf("offset overlay should contain (200,100)")
	}
	if Contains(ov, crop, geometry.Pt{X: 100, Y: 100}) {
		t.Fatalf("offset overlay should not contain crop centre")
	}
}

func TestRotatedBounds(t *testing.T) {
	ov := mk("ov", layer.RoleOverlay, 100, 100, layer.Transform{Zoom: 1, RotationDegrees: 45})
	if Contains(ov, crop, geometry.Pt{X: 140, Y: 140}) {
		t.Fatalf("corner region should be outside the rotated square")
	}
	if !Contains(ov, crop, geometry.Pt{X: 165, Y: 100}) {
		t.Fatalf("rotated tip should be inside")
	}
}

func TestForwardTransformedLocalPointsHit(t *testing.T) {
	for _, deg := range []float64{-170, -90, -33, 0, 12.5, 90, 135, 180} {
		ov := mk("ov", layer.RoleOverlay, 100, 60, layer.Transform{Zoom: 1.5, RotationDegrees: deg, OffsetX: -7, OffsetY: 11})
		pl := ov.Place(crop, 1, 1)
		fwd := geometry.Translate(pl.Center.X, pl.Center.Y).Mul(geometry.Rotate(pl.Rotation))
		for _, lp := range []geometry.Pt{{X: 0, Y: 0}, {X: 0.49 * pl.Width, Y: 0}, {X: -0.4 * pl.Width, Y: 0.45 * pl.Height}} {
			if !Contains(ov, crop, fwd.Apply(lp)) {
				t.Fatalf("rot %v: local %+v should hit", deg, lp)
			}
		}
		out := fwd.Apply(geometry.Pt{X: 0, Y: pl.Height/2 + 1})
		if Contains(ov, crop, out) {
			t.Fatalf("rot %v: point beyond edge should miss", deg)
		}
	}
}

func TestDegenerateLayerNeverHit(t *testing.T) {
	bg := mk("bg", layer.RoleBackground, 200, 200, layer.DefaultTransform())
	bad := mk("bad", layer.RoleOverlay, 0, 40, layer.DefaultTransform())
	id, ok := At([]*layer.Layer{bg, bad}, crop, geometry.Pt{X: 100, Y: 100})
	if !ok || id != "bg" {
		t.Fatalf("got %q,%v want bg", id, ok)
	}
}

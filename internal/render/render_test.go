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
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"golang.org/x/image/draw"

	"gocropper/internal/format"
	"gocropper/internal/geometry"
	"gocropper/internal/layer"
)

var (
	blue = color.NRGBA{B: 0xff, A: 0xff}
	red  = color.NRGBA{R: 0xff, A: 0xff}
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func testScene() Scene {
	bg := &layer.Layer{ID: "bg", Role: layer.RoleBackground, Image: solid(2000, 1000, blue), Transform: layer.DefaultTransform()}
	ov := &layer.Layer{ID: "ov", Role: layer.RoleOverlay, Image: solid(100, 100, red),
		Transform: layer.Transform{Zoom: 0.2, RotationDegrees: 30, OffsetX: 90, OffsetY: -60}}
	return Scene{Layers: []*layer.Layer{bg, ov}, Fill: color.White, Aspect: 1}
}

func testRenderer() *Renderer {
	o := DefaultOptions()
	o.PreviewInterpolation = Nearest
	o.ExportInterpolation = Nearest
	return New(o)
}

func isRed(c color.RGBA) bool { return c.R > 200 && c.G < 60 && c.B < 60 }

// redCentroid returns the centre of red pixels inside r, relative to r.
func redCentroid(t *testing.T, img *image.RGBA, r image.Rectangle) (float64, float64) {
	t.Helper()
	var sx, sy, n float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if isRed(img.RGBAAt(x, y)) {
				sx += float64(x) + 0.5
				sy += float64(y) + 0.5
				n++
			}
		}
	}
	if n == 0 {
		t.Fatalf("no red pixels in %v", r)
	}
	return (sx/n - float64(r.Min.X)) / float64(r.Dx()), (sy/n - float64(r.Min.Y)) / float64(r.Dy())
}

func TestPreviewIsIdempotent(t *testing.T) {
	r := testRenderer()
	s := testScene()
	s.SelectedID = "ov"
	a := r.Preview(s, 320, 240)
	b := r.Preview(s, 320, 240)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("two renders of the same scene differ")
	}
}

func TestExportHasExactFormatSize(t *testing.T) {
	r := testRenderer()
	for _, id := range []string{"square", "portrait", "story", "link"} {
		spec, _ := format.Builtin().Lookup(id)
		img := r.Export(testScene(), spec, geometry.Rect{W: 400, H: 400})
		if img.Bounds().Dx() != spec.Width || img.Bounds().Dy() != spec.Height {
			t.Fatalf("%s: got %v", id, img.Bounds())
		}
	}
}

func TestExportMatchesPreviewRelativePosition(t *testing.T) {
	r := testRenderer()
	s := testScene()
	prev := r.Preview(s, 800, 800)
	crop := r.PreviewCrop(s, 800, 800)
	px, py := redCentroid(t, prev, crop.Pixels())

	spec := format.Spec{ID: "square", Width: 1080, Height: 1080}
	exp := r.Export(s, spec, crop)
	ex, ey := redCentroid(t, exp, exp.Bounds())

	if math.Abs(px-0.625) > 0.005 || math.Abs(py-(300.0/720)) > 0.005 {
		t.Fatalf("preview centre (%v,%v)", px, py)
	}
	if math.Abs(px-ex) > 0.005 || math.Abs(py-ey) > 0.005 {
		t.Fatalf("preview (%v,%v) vs export (%v,%v)", px, py, ex, ey)
	}
}

func TestBackgroundCoversCrop(t *testing.T) {
	r := testRenderer()
	s := testScene()
	s.Fill = color.NRGBA{G: 0xff, A: 0xff}
	img := r.Preview(s, 600, 400)
	c := r.PreviewCrop(s, 600, 400).Pixels()
	for _, p := range []image.Point{{c.Min.X + 2, c.Min.Y + 2}, {c.Max.X - 3, c.Max.Y - 3}, {c.Min.X + 2, c.Max.Y - 3}} {
		if got := img.RGBAAt(p.X, p.Y); got.B != 0xff || got.G != 0 {
			t.Fatalf("pixel %v = %v, want background blue", p, got)
		}
	}
}

func TestPreviewShadesOutsideCropOnly(t *testing.T) {
	r := testRenderer()
	s := testScene()
	img := r.Preview(s, 400, 400)
	n := r.Options().Neutral
	if got := img.RGBAAt(5, 5); got.R >= n.R || got.B >= n.B {
		t.Fatalf("outside pixel %v not darker than neutral %v", got, n)
	}
	if got := img.RGBAAt(60, 200); got != (color.RGBA{B: 0xff, A: 0xff}) {
		t.Fatalf("inside pixel %v was shaded", got)
	}
}

func TestSelectionHandlesDrawnAtCorners(t *testing.T) {
	r := testRenderer()
	s := testScene()
	s.Layers[1].Transform.RotationDegrees = 0
	s.SelectedID = "ov"
	img := r.Preview(s, 800, 800)
	// overlay: 72px square centred at (490,340)
	sel := r.Options().Selection
	got := img.RGBAAt(454, 304)
	if absDiff(got.R, sel.R) > 8 || absDiff(got.G, sel.G) > 8 || absDiff(got.B, sel.B) > 8 {
		t.Fatalf("handle pixel %v want ~%v", got, sel)
	}
	s.SelectedID = ""
	plain := r.Preview(s, 800, 800)
	if plain.RGBAAt(454, 304) == got {
		t.Fatalf("handle drawn without a selection")
	}
}

func TestDegenerateLayerIsSkipped(t *testing.T) {
	r := testRenderer()
	s := testScene()
	want := r.Preview(s, 200, 200)
	s.Layers = append(s.Layers, &layer.Layer{ID: "empty", Role: layer.RoleOverlay, Image: image.NewRGBA(image.Rect(0, 0, 0, 0)), Transform: layer.DefaultTransform()})
	got := r.Preview(s, 200, 200)
	if !bytes.Equal(want.Pix, got.Pix) {
		t.Fatalf("degenerate layer changed the output")
	}
}

func TestScaleFactors(t *testing.T) {
	sx, sy := ScaleFactors(geometry.Rect{W: 1080, H: 1350}, geometry.Rect{W: 400, H: 500})
	if sx != 2.7 || sy != 2.7 {
		t.Fatalf("got %v,%v", sx, sy)
	}
	if sx, sy := ScaleFactors(geometry.Rect{W: 10, H: 10}, geometry.Rect{}); sx != 1 || sy != 1 {
		t.Fatalf("empty preview crop should give 1,1")
	}
}

func TestParseColourAndInterpolation(t *testing.T) {
	c, err := ParseHexColor("#fa0")
	if err != nil || c != (color.NRGBA{R: 0xff, G: 0xaa, A: 0xff}) {
		t.Fatalf("got %v %v", c, err)
	}
	if HexColor(color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}) != "#010203" {
		t.Fatalf("HexColor opaque")
	}
	if HexColor(color.NRGBA{R: 1, G: 2, B: 3, A: 4}) != "#01020304" {
		t.Fatalf("HexColor alpha")
	}
	if _, err := ParseHexColor("#12"); err == nil {
		t.Fatalf("expected error")
	}
	if i, err := ParseInterpolation("Catmull-Rom"); err != nil || i != CatmullRom {
		t.Fatalf("got %v %v", i, err)
	}
	if _, err := ParseInterpolation("lanczos"); err == nil {
		t.Fatalf("expected error")
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestTwoPreviewSizesGiveSameRelativePlacement(t *testing.T) {
	r := testRenderer()
	spec := format.Spec{ID: "square", Width: 1080, Height: 1080}

	a := testScene()
	cropA := r.PreviewCrop(a, 800, 800)
	b := testScene()
	cropB := r.PreviewCrop(b, 500, 500)
	// Same composition expressed in the smaller preview's pixel units.
	k := cropB.W / cropA.W
	b.Layers[1] = b.Layers[1].Clone()
	b.Layers[1].Transform.OffsetX *= k
	b.Layers[1].Transform.OffsetY *= k

	ax, ay := redCentroid(t, r.Preview(a, 800, 800), cropA.Pixels())
	bx, by := redCentroid(t, r.Preview(b, 500, 500), cropB.Pixels())
	if math.Abs(ax-bx) > 0.01 || math.Abs(ay-by) > 0.01 {
		t.Fatalf("previews differ: (%v,%v) vs (%v,%v)", ax, ay, bx, by)
	}
	ea := r.Export(a, spec, cropA)
	eb := r.Export(b, spec, cropB)
	ex1, ey1 := redCentroid(t, ea, ea.Bounds())
	ex2, ey2 := redCentroid(t, eb, eb.Bounds())
	if math.Abs(ex1-ex2) > 0.002 || math.Abs(ey1-ey2) > 0.002 {
		t.Fatalf("exports differ: (%v,%v) vs (%v,%v)", ex1, ey1, ex2, ey2)
	}
}

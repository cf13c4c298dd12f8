/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"gocropper/internal/editor"
	"gocropper/internal/format"
	"gocropper/internal/render"
)

type fakeSource struct{ err error }

func (f fakeSource) ExportAs(spec format.Spec) (*image.RGBA, error) {
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	img.SetRGBA(1, 1, color.RGBA{R: 0xff, A: 0xff})
	return img, nil
}

var fixed = time.UnixMilli(1700000000123)

func newExporter() *Exporter { return New("gocropper", WithClock(func() time.Time { return fixed })) }

func TestFilenamePattern(t *testing.T) {
	spec := format.Spec{ID: "square", Width: 8, Height: 8}
	res, err := newExporter().Export(fakeSource{}, spec, PNG)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Filename != "gocropper-square-1700000000123.png" {
		t.Fatalf("filename = %q", res.Filename)
	}
	re := regexp.MustCompile(`^[a-z]+-[a-z0-9_-]+-\d+\.(png|tiff|bmp|pdf)$`)
	for _, enc := range Encodings() {
		if n := newExporter().Filename("story", enc, time.Now()); !re.MatchString(n) {
			t.Fatalf("bad filename %q", n)
		}
	}
}

func TestPNGHasExactDimensions(t *testing.T) {
	spec := format.Spec{ID: "portrait", Width: 12, Height: 15}
	res, err := newExporter().Export(fakeSource{}, spec, PNG)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 15 || res.Width != 12 || res.Height != 15 {
		t.Fatalf("bounds %v result %dx%d", img.Bounds(), res.Width, res.Height)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 0xff {
		t.Fatalf("pixel not preserved")
	}
	if res.MIME != "image/png" {
		t.Fatalf("mime = %q", res.MIME)
	}
}

func TestOtherEncodings(t *testing.T) {
	spec := format.Spec{ID: "link", Width: 20, Height: 10}
	e := newExporter()
	for _, enc := range []Encoding{TIFF, BMP} {
		res, err := e.Export(fakeSource{}, spec, enc)
		if err != nil {
			t.Fatalf("%s: %v", enc, err)
		}
		var img image.Image
		if enc == TIFF {
			img, err = tiff.Decode(bytes.NewReader(res.Data))
		} else {
			img, err = bmp.Decode(bytes.NewReader(res.Data))
		}
		if err != nil || img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
			t.Fatalf("%s decode: %v %v", enc, err, img)
		}
	}
	res, err := e.Export(fakeSource{}, spec, PDF)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF-")) || res.MIME != "application/pdf" {
		t.Fatalf("not a pdf: %q", res.Data[:8])
	}
}

func TestErrorsProduceNoResult(t *testing.T) {
	spec := format.Spec{ID: "square", Width: 4, Height: 4}
	boom := errors.New("boom")
	res, err := newExporter().Export(fakeSource{err: boom}, spec, PNG)
	if !errors.Is(err, boom) || res != nil {
		t.Fatalf("got %v %v", res, err)
	}
	if _, err := newExporter().Export(fakeSource{}, spec, Encoding("jpeg")); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
	if _, err := ParseEncoding("gif"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
	if e, _ := ParseEncoding(".TIF"); e != TIFF {
		t.Fatalf("tif alias = %q", e)
	}
}

func TestSaveWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res, _ := newExporter().Export(fakeSource{}, format.Spec{ID: "square", Width: 3, Height: 3}, PNG)
	path, err := res.Save(dir)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(data, res.Data) {
		t.Fatalf("saved data mismatch: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the export in %s, found %d entries", dir, len(entries))
	}
}

func TestBundle(t *testing.T) {
	specs := []format.Spec{{ID: "square", Width: 4, Height: 4}, {ID: "story", Width: 9, Height: 16}}
	res, err := newExporter().Bundle(fakeSource{}, specs, PNG)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[f.Name] = f
	}
	mf, ok := files["manifest.json"]
	if !ok || len(files) != 3 {
		t.Fatalf("entries: %v", files)
	}
	rc, _ := mf.Open()
	raw, _ := io.ReadAll(rc)
	_ = rc.Close()
	var man Manifest
	if err := json.Unmarshal(raw, &man); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if len(man.Items) != 2 || man.Items[1].Format != "story" || man.Items[1].Height != 16 {
		t.Fatalf("manifest items: %+v", man.Items)
	}
	if _, ok := files[man.Items[0].File]; !ok {
		t.Fatalf("manifest file %q missing", man.Items[0].File)
	}
	if res.Filename != "gocropper-bundle-1700000000123.zip" {
		t.Fatalf("bundle name %q", res.Filename)
	}
}

func TestExportFromEditor(t *testing.T) {
	spec, _ := format.Builtin().Lookup("square")
	c := editor.New(render.New(render.DefaultOptions()), spec, editor.WithCanvasSize(400, 400))
	if _, err := c.AddImage(image.NewRGBA(image.Rect(0, 0, 64, 48))); err != nil {
		t.Fatalf("add: %v", err)
	}
	res, err := newExporter().Export(c, spec, PNG)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Width != 1080 || res.Height != 1080 {
		t.Fatalf("size %dx%d", res.Width, res.Height)
	}
}

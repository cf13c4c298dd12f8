/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package imageio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 7, 3))
	img.Set(2, 1, color.NRGBA{R: 255, A: 255})
	return img
}

func TestDecodeRegisteredFormats(t *testing.T) {
	var pngBuf, bmpBuf, tiffBuf bytes.Buffer
	if err := png.Encode(&pngBuf, sample()); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, sample()); err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(&tiffBuf, sample(), nil); err != nil {
		t.Fatal(err)
	}
	for want, buf := range map[string][]byte{"png": pngBuf.Bytes(), "bmp": bmpBuf.Bytes(), "tiff": tiffBuf.Bytes()} {
		img, name, err := DecodeBytes(buf)
		if err != nil {
			t.Fatalf("%s: %v", want, err)
		}
		if name != want {
			t.Fatalf("format = %q want %q", name, want)
		}
		if b := img.Bounds(); b.Dx() != 7 || b.Dy() != 3 {
			t.Fatalf("%s: bounds %v", want, b)
		}
		if r, _, _, _ := img.At(2, 1).RGBA(); r>>8 != 255 {
			t.Fatalf("%s: pixel lost", want)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeBytes([]byte("definitely not an image")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	var buf bytes.Buffer
	_ = png.Encode(&buf, sample())
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := Load(path)
	if err != nil || img.Bounds().Dx() != 7 {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.png")
	_ = os.WriteFile(bad, []byte("xx"), 0o644)
	if _, err := Load(bad); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	for _, p := range []string{"a.PNG", "b.jpeg", "c.tif", "d.webp"} {
		if !IsSupportedFormat(p) {
			t.Fatalf("%s should be supported", p)
		}
	}
	if IsSupportedFormat("notes.txt") {
		t.Fatalf("txt must not be supported")
	}
}

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
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"gocropper/internal/format"
)

// Encoding is an output file encoding. All encodings are lossless.
type Encoding string

const (
	PNG  Encoding = "png"
	TIFF Encoding = "tiff"
	BMP  Encoding = "bmp"
	PDF  Encoding = "pdf"
)

// Encodings lists the supported encodings, default first.
func Encodings() []Encoding { return []Encoding{PNG, TIFF, BMP, PDF} }

// ParseEncoding accepts an encoding name or common extension. Empty means PNG.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return PNG, nil
	case "tiff", "tif":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	case "pdf":
		return PDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEncoding, s)
	}
}

// Ext is the file extension without the dot.
func (e Encoding) Ext() string {
	if e == "" {
		return string(PNG)
	}
	return string(e)
}

// MIME is the media type of the encoded data.
func (e Encoding) MIME() string {
	switch e {
	case TIFF:
		return "image/tiff"
	case BMP:
		return "image/bmp"
	case PDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

func encode(img image.Image, enc Encoding, spec format.Spec, at time.Time) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch enc {
	case PNG, "":
		err = png.Encode(&buf, img)
	case TIFF:
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case BMP:
		err = bmp.Encode(&buf, img)
	case PDF:
		err = encodePDF(&buf, img, spec, at)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, string(enc))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc.Ext(), err)
	}
	return buf.Bytes(), nil
}

// encodePDF writes a single page sized 1pt per pixel with the image embedded
// as lossless PNG.
func encodePDF(buf *bytes.Buffer, img image.Image, spec format.Spec, at time.Time) error {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return err
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetTitle(fmt.Sprintf("%s %dx%d", spec.ID, b.Dx(), b.Dy()), false)
	pdf.SetCreator("gocropper", false)
	pdf.SetCreationDate(at)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("composition", opts, &pngBuf)
	pdf.ImageOptions("composition", 0, 0, w, h, false, opts, 0, "")
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(buf)
}

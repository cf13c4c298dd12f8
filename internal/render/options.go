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
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// Interpolation names a resampling kernel used when drawing layers.
type Interpolation string

const (
	Nearest        Interpolation = "nearest"
	ApproxBiLinear Interpolation = "approx-bilinear"
	BiLinear       Interpolation = "bilinear"
	CatmullRom     Interpolation = "catmull-rom"
)

// ParseInterpolation accepts the names above, case-insensitively.
func ParseInterpolation(s string) (Interpolation, error) {
	switch i := Interpolation(strings.ToLower(strings.TrimSpace(s))); i {
	case Nearest, ApproxBiLinear, BiLinear, CatmullRom:
		return i, nil
	case "":
		return BiLinear, nil
	default:
		return "", fmt.Errorf("unknown interpolation %q", s)
	}
}

func (i Interpolation) interpolator() draw.Interpolator {
	switch i {
	case Nearest:
		return draw.NearestNeighbor
	case ApproxBiLinear:
		return draw.ApproxBiLinear
	case CatmullRom:
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}

// Options controls colours and chrome of the renderer. Sizes are screen pixels.
type Options struct {
	Padding              float64
	Neutral              color.NRGBA
	Guide                color.NRGBA
	Shade                color.NRGBA
	Selection            color.NRGBA
	OutlineWidth         float64
	HandleSize           float64
	PreviewInterpolation Interpolation
	ExportInterpolation  Interpolation
}

// DefaultOptions returns the stock look of the editor.
func DefaultOptions() Options {
	return Options{
		Padding:              40,
		Neutral:              color.NRGBA{R: 0x2b, G: 0x2d, B: 0x31, A: 0xff},
		Guide:                color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xcc},
		Shade:                color.NRGBA{R: 0, G: 0, B: 0, A: 0x73},
		Selection:            color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
		OutlineWidth:         2,
		HandleSize:           10,
		PreviewInterpolation: ApproxBiLinear,
		ExportInterpolation:  CatmullRom,
	}
}

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// HexColor formats c as #rrggbb, or #rrggbbaa when not opaque.
func HexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

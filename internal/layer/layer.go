/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layer defines a composition layer: a decoded image plus the
// transform that places it relative to the crop rectangle.
package layer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/google/uuid"
)

// Role tags a layer as the composition background or an overlay.
type Role int

const (
	RoleBackground Role = iota
	RoleOverlay
)

func (r Role) String() string {
	switch r {
	case RoleBackground:
		return "background"
	case RoleOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Zoom bounds used by interactive controls. The geometry itself accepts any
// positive zoom; see EffectiveZoom.
const (
	DefaultZoom = 1.0
	MinZoom     = 0.1
	MaxZoom     = 3.0
)

// OverlayWidthFraction is the share of the crop width an overlay spans at zoom 1.
const OverlayWidthFraction = 0.5

var (
	// ErrNilImage is returned when a layer is built without an image.
	ErrNilImage = errors.New("layer image is nil")
	// ErrEmptyImage is returned by Validate for images without pixels.
	ErrEmptyImage = errors.New("layer image has zero width or height")
)

// Validate rejects images that cannot become a layer.
func Validate(img image.Image) error {
	if img == nil {
		return ErrNilImage
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Dx(), b.Dy())
	}
	return nil
}

// Transform places a layer. Offsets are preview-canvas pixels measured from
// the crop rectangle centre.
type Transform struct {
	Zoom            float64 `json:"zoom" yaml:"zoom"`
	RotationDegrees float64 `json:"rotationDegrees" yaml:"rotation_degrees"`
	OffsetX         float64 `json:"offsetX" yaml:"offset_x"`
	OffsetY         float64 `json:"offsetY" yaml:"offset_y"`
}

// DefaultTransform is the transform of a freshly added or reset layer.
func DefaultTransform() Transform { return Transform{Zoom: DefaultZoom} }

// EffectiveZoom returns the zoom used for drawing. Non-finite or non-positive
// values fall back to MinZoom so no draw ever collapses to zero size.
func (t Transform) EffectiveZoom() float64 {
	z := t.Zoom
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return MinZoom
	}
	return z
}

// ClampZoom limits z to the interactive range [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return DefaultZoom
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// Layer is one image participating in the composition. The layer holds the
// image for its whole lifetime; Release drops the reference.
type Layer struct {
	ID        string
	Role      Role
	Image     image.Image
	Transform Transform
}

// New creates a layer with a fresh id and the default transform. Zero-size
// images are accepted here and treated as zero-area by placement.
func New(role Role, img image.Image) (*Layer, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	return &Layer{
		ID:        uuid.NewString(),
		Role:      role,
		Image:     img,
		Transform: DefaultTransform(),
	}, nil
}

// Size returns the natural pixel size of the layer image.
func (l *Layer) Size() (w, h int) {
	if l == nil || l.Image == nil {
		return 0, 0
	}
	b := l.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Clone returns a copy that shares the (read-only) image.
func (l *Layer) Clone() *Layer {
	c := *l
	return &c
}

// Release drops the image reference so it can be collected.
func (l *Layer) Release() { l.Image = nil }

// Reset restores the default transform.
func (l *Layer) Reset() { l.Transform = DefaultTransform() }

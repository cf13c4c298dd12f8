/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package imageio decodes source images for layers.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"gocropper/internal/layer"
)

// ErrUnsupportedFormat is returned when no registered decoder accepts the data.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// SupportedFormats lists the file extensions accepted by file pickers.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range SupportedFormats() {
		if ext == f {
			return true
		}
	}
	return false
}

// Decode reads one image and returns it with the registered format name.
// Zero-size images are rejected so no layer is ever built from them.
func Decode(r io.Reader) (image.Image, string, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if err := layer.Validate(img); err != nil {
		return nil, name, err
	}
	return img, name, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, string, error) {
	return Decode(bytes.NewReader(data))
}

// Load opens and decodes the image at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

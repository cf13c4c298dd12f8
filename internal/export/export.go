/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export turns a composition into an encoded file at a format's exact
// pixel size.
package export

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gocropper/internal/format"
	applog "gocropper/internal/log"
)

// ErrUnsupportedEncoding is returned for unknown output encodings.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// Source renders the composition at a given format.
type Source interface {
	ExportAs(spec format.Spec) (*image.RGBA, error)
}

// Result is one encoded export.
type Result struct {
	Filename string
	MIME     string
	Data     []byte
	Width    int
	Height   int
	FormatID string
	Encoding Encoding
}

// Exporter encodes renders and names the resulting files.
type Exporter struct {
	app string
	now func() time.Time
	log *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option { return func(e *Exporter) { e.now = now } }

// New returns an exporter naming files after app.
func New(app string, opts ...Option) *Exporter {
	app = strings.TrimSpace(app)
	if app == "" {
		app = "gocropper"
	}
	e := &Exporter{app: app, now: time.Now, log: applog.WithComponent("export")}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Filename builds "<app>-<formatID>-<unixMillis>.<ext>".
func (e *Exporter) Filename(formatID string, enc Encoding, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d.%s", e.app, formatID, at.UnixMilli(), enc.Ext())
}

// Export renders src at spec and encodes it. It is a single attempt: any
// failure is returned and no result is produced.
func (e *Exporter) Export(src Source, spec format.Spec, enc Encoding) (*Result, error) {
	if _, err := ParseEncoding(string(enc)); err != nil {
		return nil, err
	}
	img, err := src.ExportAs(spec)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", spec.ID, err)
	}
	return e.Encode(img, spec, enc)
}

// Encode encodes an already rendered image.
func (e *Exporter) Encode(img *image.RGBA, spec format.Spec, enc Encoding) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("export %s: no image", spec.ID)
	}
	at := e.now()
	data, err := encode(img, enc, spec, at)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", spec.ID, err)
	}
	b := img.Bounds()
	res := &Result{
		Filename: e.Filename(spec.ID, enc, at),
		MIME:     enc.MIME(),
		Data:     data,
		Width:    b.Dx(),
		Height:   b.Dy(),
		FormatID: spec.ID,
		Encoding: enc,
	}
	e.log.Info("exported", slog.String("file", res.Filename), slog.Int("bytes", len(data)),
		slog.Int("w", res.Width), slog.Int("h", res.Height))
	return res, nil
}

// Save writes the result into dir and returns the file path. The file is
// written to a temporary name first so a failed write leaves nothing behind.
func (r *Result) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	out := filepath.Join(dir, r.Filename)
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(r.Data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", r.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", r.Filename, err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return "", fmt.Errorf("rename %s: %w", r.Filename, err)
	}
	return out, nil
}

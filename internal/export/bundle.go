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
	"fmt"
	"time"

	"gocropper/internal/format"
)

// Manifest describes the files of a bundle.
type Manifest struct {
	App     string          `json:"app"`
	Created time.Time       `json:"created"`
	Items   []ManifestEntry `json:"items"`
}

// ManifestEntry is one file in a bundle.
type ManifestEntry struct {
	File   string `json:"file"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	MIME   string `json:"mime"`
}

// Bundle exports the composition once per format and packs the files into a
// single ZIP archive with a manifest.json. Any failed item fails the bundle.
func (e *Exporter) Bundle(src Source, specs []format.Spec, enc Encoding) (*Result, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("bundle: no formats")
	}
	at := e.now()
	man := Manifest{App: e.app, Created: at.UTC()}
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, spec := range specs {
		res, err := e.Export(src, spec, enc)
		if err != nil {
			return nil, fmt.Errorf("bundle: %w", err)
		}
		if err := addZipFile(zw, res.Filename, res.Data); err != nil {
			return nil, fmt.Errorf("zip add %s: %w", res.Filename, err)
		}
		man.Items = append(man.Items, ManifestEntry{
			File: res.Filename, Format: spec.ID, Width: res.Width, Height: res.Height, MIME: res.MIME,
		})
	}
	mj, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "manifest.json", mj); err != nil {
		return nil, fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return &Result{
		Filename: fmt.Sprintf("%s-bundle-%d.zip", e.app, at.UnixMilli()),
		MIME:     "application/zip",
		Data:     buf.Bytes(),
		FormatID: "bundle",
		Encoding: enc,
	}, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

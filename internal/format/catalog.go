/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package format

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is returned for catalog files that fail validation.
var ErrInvalidCatalog = errors.New("invalid format catalog")

//go:embed catalog.schema.json
var catalogSchema []byte

type catalogFile struct {
	Formats []Spec `json:"formats" yaml:"formats"`
}

// ParseCatalog parses a catalog document. YAML is accepted and, being a
// superset, so is JSON. The document is checked against the embedded JSON
// schema before it is decoded.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(catalogSchema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
	}
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(cf.Formats)
}

// LoadCatalog reads a catalog file from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Resolve returns the catalog at path, or the builtin catalog when path is empty.
func Resolve(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}
	return LoadCatalog(path)
}

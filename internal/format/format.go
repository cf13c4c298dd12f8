/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package format holds the output format catalog: named target sizes whose
// aspect ratio drives the crop viewport.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownFormat is returned when a format id is not in the catalog.
var ErrUnknownFormat = errors.New("unknown format")

// Spec is one target output format. Values are immutable once in a catalog.
type Spec struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// AspectRatio is Width/Height, or 0 for a degenerate spec.
func (s Spec) AspectRatio() float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

func (s Spec) String() string {
	return fmt.Sprintf("%s (%dx%d)", s.ID, s.Width, s.Height)
}

// Catalog is an ordered, id-unique list of formats.
type Catalog struct {
	specs []Spec
	byID  map[string]int
}

// NewCatalog builds a catalog, rejecting duplicate ids and non-positive sizes.
func NewCatalog(specs []Spec) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(specs))}
	for _, s := range specs {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" {
			return nil, fmt.Errorf("%w: empty format id", ErrInvalidCatalog)
		}
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("%w: format %q has size %dx%d", ErrInvalidCatalog, s.ID, s.Width, s.Height)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate format id %q", ErrInvalidCatalog, s.ID)
		}
		if s.Label == "" {
			s.Label = s.ID
		}
		c.byID[s.ID] = len(c.specs)
		c.specs = append(c.specs, s)
	}
	if len(c.specs) == 0 {
		return nil, fmt.Errorf("%w: no formats", ErrInvalidCatalog)
	}
	return c, nil
}

// Lookup returns the format with the given id.
func (c *Catalog) Lookup(id string) (Spec, error) {
	if i, ok := c.byID[strings.TrimSpace(id)]; ok {
		return c.specs[i], nil
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknownFormat, id)
}

// All returns the formats in catalog order.
func (c *Catalog) All() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// IDs returns the sorted format ids.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.specs))
	for _, s := range c.specs {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return ids
}

// Default returns the first format of the catalog.
func (c *Catalog) Default() Spec { return c.specs[0] }

// Builtin returns the catalog shipped with the application.
func Builtin() *Catalog {
	c, err := NewCatalog([]Spec{
		{ID: "square", Label: "Square post", Width: 1080, Height: 1080},
		{ID: "portrait", Label: "Portrait post", Width: 1080, Height: 1350},
		{ID: "story", Label: "Story", Width: 1080, Height: 1920},
		{ID: "landscape", Label: "Landscape video", Width: 1920, Height: 1080},
		{ID: "link", Label: "Link preview", Width: 1200, Height: 628},
		{ID: "banner", Label: "Profile banner", Width: 1500, Height: 500},
	})
	if err != nil {
		panic(err)
	}
	return c
}

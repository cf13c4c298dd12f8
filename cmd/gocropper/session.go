/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gocropper/internal/config"
	"gocropper/internal/editor"
	"gocropper/internal/export"
	"gocropper/internal/format"
	"gocropper/internal/imageio"
	"gocropper/internal/layer"
	applog "gocropper/internal/log"
	"gocropper/internal/render"
	"gocropper/internal/ui"
)

// env is the resolved configuration and format catalog.
type env struct {
	cfg     config.AppConfig
	catalog *format.Catalog
}

func loadEnv(g *globalFlags) (env, error) {
	var (
		cfg config.AppConfig
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return env{}, fmt.Errorf("load config: %w", err)
	}
	applog.Init(cfg.LogOptions())
	catPath := g.catalogPath
	if catPath == "" {
		catPath = cfg.General.CatalogFile
	}
	cat, err := format.Resolve(catPath)
	if err != nil {
		return env{}, err
	}
	return env{cfg: cfg, catalog: cat}, nil
}

// sceneFlags describe a composition on the command line. Layer state is not
// persisted between runs.
type sceneFlags struct {
	background string
	overlays   []string
	places     []string
	formatID   string
	fill       string
	outDir     string
	encoding   string
	preview    string
}

func (sf *sceneFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sf.background, "background", "", "background image (required)")
	f.StringArrayVar(&sf.overlays, "overlay", nil, "overlay image, repeatable; stacked in order")
	f.StringArrayVar(&sf.places, "place", nil, "layer placement idx:dx,dy[,zoom[,rot]]; idx 0 is the background")
	f.StringVar(&sf.formatID, "format", "", "output format id (see: gocropper formats)")
	f.StringVar(&sf.fill, "fill", "", "crop fill colour, #rrggbb")
	f.StringVar(&sf.outDir, "out", "", "output directory")
	f.StringVar(&sf.encoding, "encoding", "", "png|tiff|bmp|pdf")
	f.StringVar(&sf.preview, "preview", "800x800", "preview canvas size WxH; offsets are in these pixels")
	_ = cmd.MarkFlagRequired("background")
}

// session is a controller populated from sceneFlags.
type session struct {
	ctrl     *editor.Controller
	exporter *export.Exporter
	spec     format.Spec
	encoding export.Encoding
	outDir   string
	canvasW  int
	canvasH  int
}

func buildSession(e env, sf *sceneFlags) (*session, error) {
	opts, err := e.cfg.RenderOptions()
	if err != nil {
		return nil, err
	}
	spec, err := pickFormat(e, sf.formatID)
	if err != nil {
		return nil, err
	}
	fill, err := pickFill(e.cfg, sf.fill)
	if err != nil {
		return nil, err
	}
	w, h, err := parseSize(sf.preview)
	if err != nil {
		return nil, err
	}
	encName := sf.encoding
	if encName == "" {
		encName = e.cfg.Export.Encoding
	}
	enc, err := export.ParseEncoding(encName)
	if err != nil {
		return nil, err
	}
	places := make([]placement, 0, len(sf.places))
	for _, p := range sf.places {
		pl, err := parsePlace(p)
		if err != nil {
			return nil, err
		}
		places = append(places, pl)
	}

	ctrl := editor.New(render.New(opts), spec, editor.WithFill(fill), editor.WithCanvasSize(w, h))
	ids, err := addImages(ctrl, append([]string{sf.background}, sf.overlays...))
	if err != nil {
		ctrl.Dispose()
		return nil, err
	}
	if err := applyPlacements(ctrl, ids, places); err != nil {
		ctrl.Dispose()
		return nil, err
	}
	outDir := sf.outDir
	if outDir == "" {
		outDir = e.cfg.Export.OutDir
	}
	return &session{
		ctrl:     ctrl,
		exporter: export.New(e.cfg.General.AppName),
		spec:     spec,
		encoding: enc,
		outDir:   outDir,
		canvasW:  w,
		canvasH:  h,
	}, nil
}

// details feeds crash reports.
func (s *session) details() []string {
	snap := s.ctrl.Snapshot()
	return []string{
		"Format: " + snap.Format.String(),
		"Layers: " + strconv.Itoa(len(snap.Layers)),
		fmt.Sprintf("Canvas: %dx%d", snap.CanvasW, snap.CanvasH),
	}
}

func previewSpec(s *session) format.Spec {
	return format.Spec{ID: "preview", Label: "Preview", Width: s.canvasW, Height: s.canvasH}
}

func pickFormat(e env, id string) (format.Spec, error) {
	if id == "" {
		id = e.cfg.General.DefaultFormat
	}
	if id == "" {
		return e.catalog.Default(), nil
	}
	return e.catalog.Lookup(id)
}

func pickFill(cfg config.AppConfig, flag string) (color.NRGBA, error) {
	if flag == "" {
		return cfg.Fill()
	}
	c, err := render.ParseHexColor(flag)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("--fill: %w", err)
	}
	return c, nil
}

func addImages(ctrl *editor.Controller, paths []string) ([]string, error) {
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		img, err := imageio.Load(p)
		if err != nil {
			return nil, err
		}
		id, err := ctrl.AddImage(img)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func applyPlacements(ctrl *editor.Controller, ids []string, places []placement) error {
	for _, p := range places {
		if p.index >= len(ids) {
			return fmt.Errorf("--place %d: only %d layers", p.index, len(ids))
		}
		id := ids[p.index]
		if err := ctrl.SetOffset(id, p.dx, p.dy); err != nil {
			return err
		}
		if err := ctrl.SetZoom(id, p.zoom); err != nil {
			return err
		}
		if err := ctrl.SetRotation(id, p.rotation); err != nil {
			return err
		}
	}
	return nil
}

func bundleSpecs(cat *format.Catalog, ids []string) ([]format.Spec, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) == 1 && strings.EqualFold(ids[0], "all") {
		return cat.All(), nil
	}
	specs := make([]format.Spec, 0, len(ids))
	for _, id := range ids {
		s, err := cat.Lookup(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

var errBadPlace = errors.New("expected idx:dx,dy[,zoom[,rot]]")

// placement is one parsed --place flag.
type placement struct {
	index    int
	dx, dy   float64
	zoom     float64
	rotation float64
}

func parsePlace(s string) (placement, error) {
	idx, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return placement{}, fmt.Errorf("--place %q: %w", s, errBadPlace)
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 {
		return placement{}, fmt.Errorf("--place %q: bad index: %w", s, errBadPlace)
	}
	parts := strings.Split(rest, ",")
	if len(parts) < 2 || len(parts) > 4 {
		return placement{}, fmt.Errorf("--place %q: %w", s, errBadPlace)
	}
	vals := []float64{0, 0, layer.DefaultZoom, 0}
	for k, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return placement{}, fmt.Errorf("--place %q: %w", s, err)
		}
		vals[k] = v
	}
	return placement{index: i, dx: vals[0], dy: vals[1], zoom: vals[2], rotation: vals[3]}, nil
}

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: expected WxH", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: expected positive WxH", s)
	}
	return w, h, nil
}

func uiRun(e env, images []string) error {
	return ui.Run(ui.Options{Config: e.cfg, Catalog: e.catalog, Images: images})
}

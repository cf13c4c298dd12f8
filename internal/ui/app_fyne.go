//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"gocropper/internal/crash"
	"gocropper/internal/editor"
	"gocropper/internal/export"
	"gocropper/internal/format"
	"gocropper/internal/imageio"
	"gocropper/internal/layer"
	applog "gocropper/internal/log"
	"gocropper/internal/render"
	"gocropper/internal/version"
)

// Run starts the Fyne-based desktop editor.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg := opts.Config
	cat := opts.Catalog
	if cat == nil {
		cat = format.Builtin()
	}
	spec, err := cat.Lookup(cfg.General.DefaultFormat)
	if err != nil {
		spec = cat.Default()
	}
	ropts, err := cfg.RenderOptions()
	if err != nil {
		l.Warn("render config ignored", slog.Any("err", err))
	}
	fill, err := cfg.Fill()
	if err != nil {
		fill = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}

	fyneApp := app.NewWithID("gocropper")
	w := fyneApp.NewWindow("gocropper")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(float32(max(prefs.IntWithFallback("window.width", 1200), 800)),
		float32(max(prefs.IntWithFallback("window.height", 800), 600))))

	status := widget.NewLabel("Ready")
	var (
		view    *CompositionCanvas
		panel   *sidePanel
		syncing bool
	)
	ctrl := editor.New(render.New(ropts), spec, editor.WithFill(fill), editor.WithCallbacks(editor.Callbacks{
		OnSelect: func(string) { panel.sync(&syncing) },
		OnOffset: func(_ string, x, y float64) {
			if panel != nil {
				panel.offset.SetText(fmt.Sprintf("Offset %.0f, %.0f", x, y))
			}
		},
		OnRedraw: func(img *image.RGBA) {
			if view != nil {
				view.Redraw(img)
			}
		},
	}))
	defer ctrl.Dispose()
	defer crash.Recover(&crash.Context{Details: func() []string {
		s := ctrl.Snapshot()
		return []string{"Format: " + s.Format.ID, fmt.Sprintf("Layers: %d", len(s.Layers))}
	}})

	view = NewCompositionCanvas(ctrl)
	panel = newSidePanel(ctrl, cat, w, status, &syncing)
	exp := export.New(cfg.General.AppName)

	addImage := func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil || rc == nil {
				return
			}
			defer func() { _ = rc.Close() }()
			img, _, err := imageio.Decode(rc)
			if err != nil {
				dialog.ShowError(fmt.Errorf("%s: %w", rc.URI().Name(), err), w)
				return
			}
			if _, err := ctrl.AddImage(img); err != nil {
				dialog.ShowError(err, w)
				return
			}
			panel.layers.Refresh()
			status.SetText("Added " + rc.URI().Name())
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter(imageio.SupportedFormats()))
		fd.Show()
	}

	encSel := widget.NewSelect([]string{"png", "tiff", "bmp", "pdf"}, nil)
	encSel.SetSelected(cfg.Export.Encoding)
	if encSel.Selected == "" {
		encSel.SetSelected("png")
	}
	doExport := func() {
		dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil || dir == nil {
				return
			}
			enc, err := export.ParseEncoding(encSel.Selected)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			res, err := exp.Export(ctrl, ctrl.Snapshot().Format, enc)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			path, err := res.Save(dir.Path())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + path)
		}, w)
	}

	toolbar := container.NewHBox(
		widget.NewButton("Add image…", addImage),
		widget.NewButton("Fill colour…", func() {
			p := dialog.NewColorPicker("Canvas fill", "Colour behind the layers", func(c color.Color) {
				_ = ctrl.SetFillColor(c)
			}, w)
			p.Advanced = true
			p.Show()
		}),
		widget.NewLabel("Encoding"), encSel,
		widget.NewButton("Export…", doExport),
	)
	split := container.NewHSplit(view, panel.content)
	split.Offset = 0.72
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, split))

	for _, path := range opts.Images {
		img, err := imageio.Load(path)
		if err != nil {
			l.Error("load image", slog.String("path", path), slog.Any("err", err))
			status.SetText(err.Error())
			continue
		}
		_, _ = ctrl.AddImage(img)
	}
	panel.layers.Refresh()

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	w.ShowAndRun()
	return nil
}

// sidePanel holds the format picker, layer list and transform controls.
type sidePanel struct {
	ctrl     *editor.Controller
	content  fyne.CanvasObject
	layers   *widget.List
	zoom     *widget.Slider
	rotation *widget.Slider
	offset   *widget.Label
}

func newSidePanel(ctrl *editor.Controller, cat *format.Catalog, w fyne.Window, status *widget.Label, syncing *bool) *sidePanel {
	p := &sidePanel{ctrl: ctrl, offset: widget.NewLabel("Offset 0, 0")}

	specs := cat.All()
	labels := make([]string, len(specs))
	current := ctrl.Snapshot().Format.ID
	var selected string
	for i, s := range specs {
		labels[i] = fmt.Sprintf("%s (%d×%d)", s.Label, s.Width, s.Height)
		if s.ID == current {
			selected = labels[i]
		}
	}
	formatSel := widget.NewSelect(labels, func(label string) {
		for i, l := range labels {
			if l == label {
				if err := ctrl.SetFormat(specs[i]); err != nil {
					dialog.ShowError(err, w)
				}
				status.SetText("Format " + specs[i].ID)
			}
		}
	})
	formatSel.SetSelected(selected)

	p.layers = widget.NewList(
		func() int { return len(ctrl.Snapshot().Layers) },
		func() fyne.CanvasObject { return widget.NewLabel("layer") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			s := ctrl.Snapshot()
			if id >= len(s.Layers) {
				return
			}
			l := s.Layers[id]
			wpx, hpx := l.Size()
			o.(*widget.Label).SetText(fmt.Sprintf("%d. %s %dx%d", id+1, l.Role, wpx, hpx))
		},
	)
	p.layers.OnSelected = func(id widget.ListItemID) {
		if *syncing {
			return
		}
		s := ctrl.Snapshot()
		if id < len(s.Layers) {
			_ = ctrl.Select(s.Layers[id].ID)
		}
	}

	p.zoom = widget.NewSlider(layer.MinZoom, layer.MaxZoom)
	p.zoom.Step = 0.01
	p.zoom.OnChanged = func(v float64) {
		if id := ctrl.Snapshot().SelectedID; id != "" && !*syncing {
			_ = ctrl.SetZoom(id, v)
		}
	}
	p.rotation = widget.NewSlider(-180, 180)
	p.rotation.Step = 1
	p.rotation.OnChanged = func(v float64) {
		if id := ctrl.Snapshot().SelectedID; id != "" && !*syncing {
			_ = ctrl.SetRotation(id, v)
		}
	}

	remove := widget.NewButton("Remove", func() {
		if id := ctrl.Snapshot().SelectedID; id != "" {
			_ = ctrl.RemoveLayer(id)
			p.layers.Refresh()
		}
	})
	reset := widget.NewButton("Reset", func() {
		if id := ctrl.Snapshot().SelectedID; id != "" {
			_ = ctrl.ResetLayer(id)
			p.sync(syncing)
		}
	})
	clearAll := widget.NewButton("Clear", func() {
		dialog.ShowConfirm("Clear", "Remove every layer?", func(ok bool) {
			if ok {
				_ = ctrl.Clear()
				p.layers.Refresh()
			}
		}, w)
	})

	p.content = container.NewBorder(
		container.NewVBox(widget.NewLabel("Format"), formatSel, widget.NewSeparator(), widget.NewLabel("Layers")),
		container.NewVBox(
			widget.NewLabel("Zoom"), p.zoom,
			widget.NewLabel("Rotation"), p.rotation,
			p.offset,
			container.NewGridWithColumns(3, remove, reset, clearAll),
		),
		nil, nil, p.layers,
	)
	return p
}

// sync mirrors the selected layer into the controls without feeding the
// changes back into the controller.
func (p *sidePanel) sync(syncing *bool) {
	if p == nil {
		return
	}
	*syncing = true
	defer func() { *syncing = false }()
	s := p.ctrl.Snapshot()
	l, ok := s.Layer(s.SelectedID)
	if !ok {
		p.layers.UnselectAll()
		p.offset.SetText("Offset -")
		return
	}
	for i, x := range s.Layers {
		if x.ID == l.ID {
			p.layers.Select(i)
		}
	}
	p.zoom.SetValue(math.Max(layer.MinZoom, math.Min(layer.MaxZoom, l.Transform.EffectiveZoom())))
	p.rotation.SetValue(l.Transform.RotationDegrees)
	p.offset.SetText(fmt.Sprintf("Offset %.0f, %.0f", l.Transform.OffsetX, l.Transform.OffsetY))
}

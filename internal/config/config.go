/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "gocropper/internal/log"
	"gocropper/internal/render"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	AppName       string `yaml:"app_name"`
	DefaultFormat string `yaml:"default_format"`
	CatalogFile   string `yaml:"catalog_file"` // empty uses the builtin catalog
}

type RenderConfig struct {
	Padding              float64 `yaml:"padding"`
	FillColor            string  `yaml:"fill_color"`
	NeutralColor         string  `yaml:"neutral_color"`
	GuideColor           string  `yaml:"guide_color"`
	ShadeColor           string  `yaml:"shade_color"`
	SelectionColor       string  `yaml:"selection_color"`
	OutlineWidth         float64 `yaml:"outline_width"`
	HandleSize           float64 `yaml:"handle_size"`
	PreviewInterpolation string  `yaml:"preview_interpolation"`
	ExportInterpolation  string  `yaml:"export_interpolation"`
}

type ExportConfig struct {
	Encoding string `yaml:"encoding"`
	OutDir   string `yaml:"out_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Render        RenderConfig  `yaml:"render"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	ro := render.DefaultOptions()
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{AppName: "gocropper", DefaultFormat: "square"},
		Render: RenderConfig{
			Padding:              ro.Padding,
			FillColor:            "#ffffff",
			NeutralColor:         render.HexColor(ro.Neutral),
			GuideColor:           render.HexColor(ro.Guide),
			ShadeColor:           render.HexColor(ro.Shade),
			SelectionColor:       render.HexColor(ro.Selection),
			OutlineWidth:         ro.OutlineWidth,
			HandleSize:           ro.HandleSize,
			PreviewInterpolation: string(ro.PreviewInterpolation),
			ExportInterpolation:  string(ro.ExportInterpolation),
		},
		Export:  ExportConfig{Encoding: "png", OutDir: "."},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath           = "GCR_CONFIG"
	EnvAppName              = "GCR_APP_NAME"
	EnvDefaultFormat        = "GCR_DEFAULT_FORMAT"
	EnvCatalogFile          = "GCR_CATALOG_FILE"
	EnvPadding              = "GCR_PADDING"
	EnvFillColor            = "GCR_FILL_COLOR"
	EnvPreviewInterpolation = "GCR_PREVIEW_INTERPOLATION"
	EnvExportInterpolation  = "GCR_EXPORT_INTERPOLATION"
	EnvExportEncoding       = "GCR_EXPORT_ENCODING"
	EnvOutDir               = "GCR_OUT_DIR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCR_LOG_LEVEL"
	EnvLogFormat = "GCR_LOG_FORMAT"
	EnvLogSource = "GCR_LOG_SOURCE"
	EnvLogFile   = "GCR_LOG_FILE"
)

// ConfigPath returns the per-user config file path. GCR_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCropper")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCropper")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocropper")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file yields the defaults;
// a malformed one is an error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func setStr(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func setLower(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = strings.ToLower(s)
	}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	setStr(&dst.General.AppName, src.General.AppName)
	setLower(&dst.General.DefaultFormat, src.General.DefaultFormat)
	setStr(&dst.General.CatalogFile, src.General.CatalogFile)
	// render
	if src.Render.Padding > 0 {
		dst.Render.Padding = src.Render.Padding
	}
	setLower(&dst.Render.FillColor, src.Render.FillColor)
	setLower(&dst.Render.NeutralColor, src.Render.NeutralColor)
	setLower(&dst.Render.GuideColor, src.Render.GuideColor)
	setLower(&dst.Render.ShadeColor, src.Render.ShadeColor)
	setLower(&dst.Render.SelectionColor, src.Render.SelectionColor)
	if src.Render.OutlineWidth > 0 {
		dst.Render.OutlineWidth = src.Render.OutlineWidth
	}
	if src.Render.HandleSize > 0 {
		dst.Render.HandleSize = src.Render.HandleSize
	}
	setLower(&dst.Render.PreviewInterpolation, src.Render.PreviewInterpolation)
	setLower(&dst.Render.ExportInterpolation, src.Render.ExportInterpolation)
	// export
	setLower(&dst.Export.Encoding, src.Export.Encoding)
	setStr(&dst.Export.OutDir, src.Export.OutDir)
	// logging
	setLower(&dst.Logging.Level, src.Logging.Level)
	setLower(&dst.Logging.Format, src.Logging.Format)
	dst.Logging.Source = src.Logging.Source
	setStr(&dst.Logging.File, src.Logging.File)
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	setStr(&cfg.General.AppName, os.Getenv(EnvAppName))
	setLower(&cfg.General.DefaultFormat, os.Getenv(EnvDefaultFormat))
	setStr(&cfg.General.CatalogFile, os.Getenv(EnvCatalogFile))
	if v := strings.TrimSpace(os.Getenv(EnvPadding)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Render.Padding = f
		}
	}
	setLower(&cfg.Render.FillColor, os.Getenv(EnvFillColor))
	setLower(&cfg.Render.PreviewInterpolation, os.Getenv(EnvPreviewInterpolation))
	setLower(&cfg.Render.ExportInterpolation, os.Getenv(EnvExportInterpolation))
	setLower(&cfg.Export.Encoding, os.Getenv(EnvExportEncoding))
	setStr(&cfg.Export.OutDir, os.Getenv(EnvOutDir))
	// logging overrides
	setLower(&cfg.Logging.Level, os.Getenv(EnvLogLevel))
	setLower(&cfg.Logging.Format, os.Getenv(EnvLogFormat))
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	setStr(&cfg.Logging.File, os.Getenv(EnvLogFile))
}

var envKeys = map[string]string{
	"general.app_name":             EnvAppName,
	"general.default_format":       EnvDefaultFormat,
	"general.catalog_file":         EnvCatalogFile,
	"render.padding":               EnvPadding,
	"render.fill_color":            EnvFillColor,
	"render.preview_interpolation": EnvPreviewInterpolation,
	"render.export_interpolation":  EnvExportInterpolation,
	"export.encoding":              EnvExportEncoding,
	"export.out_dir":               EnvOutDir,
	"logging.level":                EnvLogLevel,
	"logging.format":               EnvLogFormat,
	"logging.source":               EnvLogSource,
	"logging.file":                 EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	if env, ok := envKeys[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// RenderOptions converts the render section into renderer options.
func (c AppConfig) RenderOptions() (render.Options, error) {
	o := render.DefaultOptions()
	o.Padding = c.Render.Padding
	o.OutlineWidth = c.Render.OutlineWidth
	o.HandleSize = c.Render.HandleSize
	var errs []error
	interp := func(dst *render.Interpolation, v string) {
		i, err := render.ParseInterpolation(v)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = i
	}
	colour := func(dst *color.NRGBA, v string) {
		if strings.TrimSpace(v) == "" {
			return
		}
		col, err := render.ParseHexColor(v)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = col
	}
	interp(&o.PreviewInterpolation, c.Render.PreviewInterpolation)
	interp(&o.ExportInterpolation, c.Render.ExportInterpolation)
	colour(&o.Neutral, c.Render.NeutralColor)
	colour(&o.Guide, c.Render.GuideColor)
	colour(&o.Shade, c.Render.ShadeColor)
	colour(&o.Selection, c.Render.SelectionColor)
	if len(errs) > 0 {
		return render.DefaultOptions(), fmt.Errorf("render config: %w", errors.Join(errs...))
	}
	return o, nil
}

// Fill parses the canvas fill colour.
func (c AppConfig) Fill() (color.NRGBA, error) {
	return render.ParseHexColor(c.Render.FillColor)
}

// LogOptions maps the logging section onto logger options.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

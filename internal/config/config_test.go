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
	"os"
	"path/filepath"
	"testing"
)

// isolate points the config path at a temp dir so Load never reads the real user file.
func isolate(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	return p
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.DefaultFormat != "square" || cfg.Export.Encoding != "png" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if _, err := cfg.RenderOptions(); err != nil {
		t.Fatalf("default render options invalid: %v", err)
	}
}

func TestEnvOverridesDefaultFormat(t *testing.T) {
	isolate(t)
	t.Setenv(EnvDefaultFormat, "Portrait")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.General.DefaultFormat, "portrait"; got != want {
		t.Fatalf("General.DefaultFormat = %q, want %q", got, want)
	}
	if env, ok := EnvOverrideFor("general.default_format"); !ok || env != EnvDefaultFormat {
		t.Fatalf("EnvOverrideFor = %q,%v", env, ok)
	}
	if _, ok := EnvOverrideFor("render.padding"); ok {
		t.Fatalf("padding should not be reported as overridden")
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Render.Padding = 12
	cfg.Render.FillColor = "#102030"
	cfg.Export.OutDir = "/tmp/out"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Render.Padding != 12 || got.Render.FillColor != "#102030" || got.Export.OutDir != "/tmp/out" {
		t.Fatalf("round trip lost fields: %#v", got)
	}
	fill, err := got.Fill()
	if err != nil || fill.R != 0x10 || fill.B != 0x30 {
		t.Fatalf("fill = %v err=%v", fill, err)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	p := isolate(t)
	if err := os.WriteFile(p, []byte("render: [unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/gcr.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/gcr.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/gcr.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/gcr.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	lo := cfg.LogOptions()
	if lo.Level != "error" || lo.Format != "json" || !lo.AddSource || lo.File != "X:/gcr.log" {
		t.Fatalf("LogOptions mismatch: %+v", lo)
	}
}

func TestRenderOptionsRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Render.PreviewInterpolation = "lanczos"
	cfg.Render.GuideColor = "#zz"
	if _, err := cfg.RenderOptions(); err == nil {
		t.Fatalf("expected error")
	}
	cfg = Defaults()
	cfg.Render.SelectionColor = "#ff0000"
	o, err := cfg.RenderOptions()
	if err != nil || o.Selection.R != 0xff || o.Selection.G != 0 {
		t.Fatalf("selection = %v err=%v", o.Selection, err)
	}
}

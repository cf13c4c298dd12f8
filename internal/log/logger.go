/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log provides the slog-based logging used across gocropper.
// Records go to the console (compact line or JSON) and, when a file is
// configured, to a size-rotated JSON file as well.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"gocropper/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "GCR_LOG_LEVEL"
	EnvFormat = "GCR_LOG_FORMAT"
	EnvSource = "GCR_LOG_SOURCE"
	EnvFile   = "GCR_LOG_FILE"
)

// Options controls logger initialization.
//   - Level: debug|info|warn|error (default info)
//   - Format: console|json (default console)
//   - File: when set, JSON records are also written to a rotated file
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string

	// Rotation of File; zero values use 10 MB and 3 backups.
	MaxSizeMB  int
	MaxBackups int

	// Console overrides os.Stderr; used by tests.
	Console io.Writer
}

type state struct {
	logger *slog.Logger
	file   *lj.Logger
}

var (
	mu  sync.RWMutex
	cur state
)

// L returns the process logger, initializing it from the environment on first use.
func L() *slog.Logger {
	mu.RLock()
	l := cur.logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if cur.logger == nil {
		cur = build(FromEnv())
		slog.SetDefault(cur.logger)
	}
	return cur.logger
}

// Init replaces the process logger and installs it as slog.Default. A
// previously opened log file is closed.
func Init(opts Options) {
	next := build(opts)
	mu.Lock()
	prev := cur
	cur = next
	mu.Unlock()
	if prev.file != nil {
		_ = prev.file.Close()
	}
	slog.SetDefault(next.logger)
}

func build(opts Options) state {
	lvl := parseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		h = slog.NewJSONHandler(console, ho)
	} else {
		h = newConsoleHandler(console, ho)
	}

	var st state
	if path := strings.TrimSpace(opts.File); path != "" {
		st.file = &lj.Logger{
			Filename:   path,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     28,
			Compress:   true,
		}
		h = tee(h, slog.NewJSONHandler(st.file, ho))
	}
	st.logger = slog.New(h).With(slog.String("app", "gocropper"), slog.String("ver", version.Version))
	return st
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Close flushes and closes the rotating log file, if one is open.
func Close() error {
	mu.Lock()
	f := cur.file
	cur.file = nil
	mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

// FromEnv builds Options from GCR_LOG_* environment variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with the subsystem name.
func WithComponent(name string) *slog.Logger { return L().With(slog.String(componentKey, name)) }

// WithOperation tags l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

// Discard returns a logger that drops every record.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func parseLevel(s string) slog.Leveler {
	var l slog.Level
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "warning":
		l = slog.LevelWarn
	default:
		if err := l.UnmarshalText([]byte(v)); err != nil {
			l = slog.LevelInfo
		}
	}
	return l
}

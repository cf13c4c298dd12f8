/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns an unrecovered panic into a logged error and a report file.
package crash

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	applog "gocropper/internal/log"
	"gocropper/internal/version"
)

// Replaced in tests.
var (
	exitFn           = os.Exit
	stderr io.Writer = os.Stderr
	now              = time.Now
)

// Context describes where a report goes and what session details it carries.
// A nil Context writes to the temp dir.
type Context struct {
	ReportDir string
	// Details returns extra "Key: value" lines, e.g. the active format and layer count.
	Details func() []string
}

// Recover captures a panic, logs it with its stack, writes a report and
// exits with status 2.
//
// Usage: defer crash.Recover(ctx)
func Recover(ctx *Context) {
	r := recover()
	if r == nil {
		return
	}
	stack := debug.Stack()
	l := applog.WithComponent("crash")
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	path, err := writeReport(ctx, r, stack)
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
		fmt.Fprintf(stderr, "A fatal error occurred (%v).\n", r)
	} else {
		fmt.Fprintf(stderr, "A fatal error occurred. A crash report was saved to: %s\n", path)
	}
	fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportBody(ctx *Context, panicVal any, stack []byte, at time.Time) string {
	var b strings.Builder
	b.WriteString("gocropper Crash Report\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s\n", version.String())
	fmt.Fprintf(&b, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if ctx != nil && ctx.Details != nil {
		for _, line := range safeDetails(ctx.Details) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "\nPanic: %v\n\nStack:\n%s\n", panicVal, stack)
	return b.String()
}

// writeReport stores the report as gocropper-crash-<stamp>.log and returns its path.
func writeReport(ctx *Context, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if ctx != nil && ctx.ReportDir != "" {
		dir = ctx.ReportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report dir: %w", err)
	}
	at := now()
	path := filepath.Join(dir, "gocropper-crash-"+at.Format("20060102-150405")+".log")
	if err := os.WriteFile(path, []byte(reportBody(ctx, panicVal, stack, at)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// safeDetails shields the report from a second panic inside Details.
func safeDetails(fn func() []string) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			lines = []string{fmt.Sprintf("Details: unavailable (%v)", r)}
		}
	}()
	return fn()
}

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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gocropper/internal/crash"
	applog "gocropper/internal/log"
	"gocropper/internal/version"
)

func main() {
	applog.Init(applog.FromEnv())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")

	crashCtx := &crash.Context{}
	defer crash.Recover(crashCtx)

	l.Debug("start", slog.Int("args", len(os.Args)))
	if err := newRootCommand(crashCtx).Execute(); err != nil {
		l.Error("command failed", slog.Any("err", err))
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	catalogPath string
}

func newRootCommand(crashCtx *crash.Context) *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "gocropper",
		Short: "Compose, crop and export images into fixed aspect ratio formats",
		Long: `gocropper stacks a background image and any number of overlays inside a crop
viewport, then exports the composition at the exact pixel size of a social
media format.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: user config dir, or $GCR_CONFIG)")
	cmd.PersistentFlags().StringVar(&g.catalogPath, "catalog", "", "format catalog file (YAML or JSON)")

	cmd.AddCommand(newFormatsCommand(g))
	cmd.AddCommand(newPreviewCommand(g, crashCtx))
	cmd.AddCommand(newExportCommand(g, crashCtx))
	cmd.AddCommand(newUICommand(g))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gocropper")
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func newFormatsCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the output formats of the active catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, err := loadEnv(g)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range ev.catalog.All() {
				fmt.Fprintf(w, "%-12s %-28s %5dx%-5d %.3f\n", s.ID, s.Label, s.Width, s.Height, s.AspectRatio())
			}
			return nil
		},
	}
}

func newPreviewCommand(g *globalFlags, crashCtx *crash.Context) *cobra.Command {
	sf := &sceneFlags{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the editor preview, including guides and selection, to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, err := loadEnv(g)
			if err != nil {
				return err
			}
			s, err := buildSession(ev, sf)
			if err != nil {
				return err
			}
			defer s.ctrl.Dispose()
			crashCtx.Details = s.details

			res, err := s.exporter.Encode(s.ctrl.Render(), previewSpec(s), s.encoding)
			if err != nil {
				return err
			}
			path, err := res.Save(s.outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newExportCommand(g *globalFlags, crashCtx *crash.Context) *cobra.Command {
	sf := &sceneFlags{}
	var bundle []string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the composition at the pixel size of a format",
		Long: `Export renders the composition at the exact size of the selected format.
With --bundle, several formats are rendered into one ZIP archive with a manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, err := loadEnv(g)
			if err != nil {
				return err
			}
			s, err := buildSession(ev, sf)
			if err != nil {
				return err
			}
			defer s.ctrl.Dispose()
			crashCtx.Details = s.details

			specs, err := bundleSpecs(ev.catalog, bundle)
			if err != nil {
				return err
			}
			if len(specs) > 0 {
				res, err := s.exporter.Bundle(s.ctrl, specs, s.encoding)
				if err != nil {
					return err
				}
				path, err := res.Save(s.outDir)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}
			res, err := s.exporter.Export(s.ctrl, s.spec, s.encoding)
			if err != nil {
				return err
			}
			path, err := res.Save(s.outDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringSliceVar(&bundle, "bundle", nil, "export these format ids (or \"all\") into one ZIP archive")
	return cmd
}

func newUICommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [image...]",
		Short: "Launch the desktop editor (build with -tags fyne)",
		RunE: func(_ *cobra.Command, args []string) error {
			ev, err := loadEnv(g)
			if err != nil {
				return err
			}
			return uiRun(ev, args)
		},
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"

	"wireframe/internal/config"
	"wireframe/internal/crash"
	"wireframe/internal/editor"
	applog "wireframe/internal/log"
	"wireframe/internal/version"
)

func usage() {
	fmt.Println("Wireframe")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  wireframe version|-v|--version                       Show version")
	fmt.Println("  wireframe new <file> [name] [w h unit background]    Create a project file")
	fmt.Println("  wireframe info <file>                                Print a summary of a project")
	fmt.Println("  wireframe validate <file>                            Check a project against the file schema")
	fmt.Println("  wireframe export <file> <png|pdf|svg> <out> [page]   Render a project (page is a 0-based index)")
	fmt.Println("  wireframe watch <file> <out.png> [page]              Re-render a PNG whenever the file changes")
	fmt.Println("  wireframe recover <file>                             Restore a damaged file from its latest backup")
	fmt.Println("  wireframe publish <file>                             Publish to the shared library")
	fmt.Println("  wireframe library                                    List published projects")
	fmt.Println("  wireframe fetch <id> <dir>                           Download a published project into <dir>")
	fmt.Println("  wireframe recent                                     List recently opened files")
	fmt.Println("  wireframe ui [<file>]                                Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	cfg, cerr := config.Load()
	applog.Init(cfg.Logging.Options())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cerr))
	}

	ed := editor.New(editor.WithAutosaveKeep(cfg.General.AutosaveKeep), editor.WithRecentMax(cfg.General.RecentMax))
	ed.Store().SetForm(cfg.Canvas.FormDraft())
	defer crash.Recover(ed)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	if args[1] == "ui" {
		// the UI sets up its own editor and index
		var path string
		if len(args) >= 3 {
			path = args[2]
		}
		if err := runUI(path); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		return
	}

	app := &cli{cfg: cfg, ed: ed, out: os.Stdout, log: l}
	if err := app.run(args[1:]); err != nil {
		if err == errUsage {
			usage()
			os.Exit(2)
		}
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

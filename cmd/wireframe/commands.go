/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"wireframe/internal/config"
	"wireframe/internal/domain"
	"wireframe/internal/editor"
	"wireframe/internal/export"
	"wireframe/internal/library"
	applog "wireframe/internal/log"
	"wireframe/internal/project"
	"wireframe/internal/storage"
	"wireframe/internal/ui"
	"wireframe/internal/version"
)

var errUsage = errors.New("usage")

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

// runUI is swapped in tests.
var runUI = ui.Run

// cli runs one subcommand against a shared editor.
type cli struct {
	cfg config.AppConfig
	ed  *editor.Editor
	out io.Writer
	log *slog.Logger
}

func (c *cli) run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	ctx := context.Background()
	switch args[0] {
	case "version", "-v", "--version":
		fmt.Fprintln(c.out, version.String())
		return nil
	case "new":
		if len(args) < 2 {
			return errUsage
		}
		return c.newProject(args[1], args[2:])
	case "info":
		if len(args) < 2 {
			return errUsage
		}
		return c.info(ctx, args[1])
	case "validate":
		if len(args) < 2 {
			return errUsage
		}
		return c.validate(args[1])
	case "export":
		if len(args) < 4 {
			return errUsage
		}
		page := -1
		if len(args) >= 5 {
			i, err := strconv.Atoi(args[4])
			if err != nil {
				return fmt.Errorf("invalid page index %q", args[4])
			}
			page = i
		}
		return c.export(ctx, args[1], args[2], args[3], page)
	case "watch":
		if len(args) < 3 {
			return errUsage
		}
		page := -1
		if len(args) >= 4 {
			i, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid page index %q", args[3])
			}
			page = i
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return c.watch(ctx, args[1], args[2], page)
	case "recover":
		if len(args) < 2 {
			return errUsage
		}
		return c.recoverFile(ctx, args[1])
	case "publish":
		if len(args) < 2 {
			return errUsage
		}
		return c.publish(ctx, args[1])
	case "library":
		return c.listLibrary(ctx)
	case "fetch":
		if len(args) < 3 {
			return errUsage
		}
		return c.fetch(ctx, args[1], args[2])
	case "recent":
		return c.recent(ctx)
	}
	return errUsage
}

// newProject creates a one-page project at path. The optional positional
// arguments override the configured form: name, width, height, unit, background.
func (c *cli) newProject(path string, rest []string) error {
	form := c.cfg.Canvas.FormDraft()
	if len(rest) >= 1 {
		form.Name = rest[0]
	}
	if len(rest) >= 2 {
		form.Width = project.ParseDimension(rest[1])
	}
	if len(rest) >= 3 {
		form.Height = project.ParseDimension(rest[2])
	}
	if len(rest) >= 4 {
		u, ok := domain.ParseUnit(rest[3])
		if !ok {
			return fmt.Errorf("unknown unit %q (want px, pt or mm)", rest[3])
		}
		form.Unit = u
	}
	if len(rest) >= 5 {
		form.Background = rest[4]
	}
	if !storage.HasWireExtension(path) {
		path += ".wire"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	c.ed.Store().SetForm(form)
	p := c.ed.CreateProject()
	if err := storage.WriteFile(path, p.Snapshot()); err != nil {
		return err
	}
	c.log.Info("project created", slog.String("path", path), slog.String("id", p.ID))
	fmt.Fprintf(c.out, "Created %s (%s, %gx%g %s)\n", path, p.Name, p.Canvas.Width, p.Canvas.Height, p.Canvas.Unit)
	return nil
}

// open loads path into the editor; the recent list is not touched.
func (c *cli) open(path string) (domain.Project, error) {
	if err := c.ed.OpenFile(context.Background(), path); err != nil {
		return domain.Project{}, err
	}
	p, _ := c.ed.Project()
	return p, nil
}

// recoverFile restores a damaged file from its newest backup and writes the
// result back to path.
func (c *cli) recoverFile(ctx context.Context, path string) error {
	fromBackup, err := c.ed.RecoverFile(ctx, path)
	if err != nil {
		return err
	}
	if !fromBackup {
		fmt.Fprintf(c.out, "%s is intact, nothing to recover\n", path)
		return nil
	}
	if err := c.ed.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, warnStyle.Render("Restored "+path+" from its latest backup"))
	return nil
}

func (c *cli) info(_ context.Context, path string) error {
	p, err := c.open(path)
	if err != nil {
		return err
	}
	row := func(k, v string) string { return labelStyle.Render(fmt.Sprintf("%-10s", k)) + " " + v }
	lines := []string{
		titleStyle.Render(p.Name),
		row("id", p.ID),
		row("canvas", fmt.Sprintf("%gx%g %s, background %s", p.Canvas.Width, p.Canvas.Height, p.Canvas.Unit, p.Canvas.Background)),
		row("pages", strconv.Itoa(len(p.Pages))),
	}
	for i, pg := range p.Pages {
		marker := " "
		if pg.ID == p.ActivePageID {
			marker = "*"
		}
		counts := map[domain.NodeType]int{}
		for _, n := range pg.Nodes {
			counts[n.Type]++
		}
		var parts []string
		for _, t := range []domain.NodeType{domain.NodeRect, domain.NodeEllipse, domain.NodeTextKind, domain.NodeLine} {
			if counts[t] > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", counts[t], t))
			}
		}
		summary := "empty"
		if len(parts) > 0 {
			summary = strings.Join(parts, ", ")
		}
		lines = append(lines, fmt.Sprintf("  %s %d. %s  %s", marker, i, pg.Name, labelStyle.Render(summary)))
	}
	fmt.Fprintln(c.out, lipgloss.JoinVertical(lipgloss.Left, lines...))
	return nil
}

// validate checks the file against the schema and then loads it. Schema
// problems are reported but do not fail the command, since loading repairs them.
func (c *cli) validate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var se *storage.SchemaError
	switch err := storage.Validate(data); {
	case errors.As(err, &se):
		fmt.Fprintln(c.out, warnStyle.Render(fmt.Sprintf("%d schema problem(s):", len(se.Problems))))
		for _, p := range se.Problems {
			fmt.Fprintln(c.out, "  - "+p)
		}
	case err != nil:
		return err
	}
	if err := c.ed.LoadProject(data); err != nil {
		return err
	}
	if se != nil {
		fmt.Fprintln(c.out, "Loadable after repair.")
		return nil
	}
	fmt.Fprintln(c.out, "OK")
	return nil
}

func (c *cli) exportOptions() export.Options {
	return export.Options{
		PNG: export.PNGOptions{Scale: c.cfg.Export.PNGScale},
		PDF: export.PDFOptions{Unit: c.cfg.Export.PDFUnit, Author: c.cfg.Library.User},
	}
}

// export renders path to out. page < 0 selects the active page.
func (c *cli) export(_ context.Context, path, format, out string, page int) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	p, err := c.open(path)
	if err != nil {
		return err
	}
	var pageID string
	if page >= 0 {
		if pageID, err = export.PageAt(p, page); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := export.Render(&buf, f, p, pageID, c.exportOptions()); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	c.log.Info("exported", slog.String("format", string(f)), slog.String("out", out))
	fmt.Fprintf(c.out, "Exported %s to %s\n", f, out)
	return nil
}

// watch re-renders out each time path changes until ctx ends.
func (c *cli) watch(ctx context.Context, path, out string, page int) error {
	render := func() {
		if err := c.export(ctx, path, string(export.FormatPNG), out, page); err != nil {
			c.log.Warn("render failed", slog.String("path", path), slog.Any("err", err))
			fmt.Fprintln(c.out, warnStyle.Render("render failed: "+err.Error()))
		}
	}
	render()
	fmt.Fprintf(c.out, "Watching %s (Ctrl+C to stop)\n", path)
	err := storage.Watch(ctx, path, storage.DefaultDebounce, func([]byte) { render() })
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *cli) openLibrary(ctx context.Context) (*library.Library, error) {
	dsn := strings.TrimSpace(c.cfg.Library.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("no library configured (set library.dsn or %s)", config.EnvLibraryDSN)
	}
	pw, err := config.LibraryPassword()
	if err != nil {
		applog.WithOperation(c.log, "library").Debug("no stored password", slog.Any("err", err))
	}
	return library.Open(ctx, library.WithPassword(dsn, pw))
}

func (c *cli) publish(ctx context.Context, path string) error {
	p, err := c.open(path)
	if err != nil {
		return err
	}
	lib, err := c.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer lib.Close()
	by := c.cfg.Library.User
	if by == "" {
		by = os.Getenv("USER")
	}
	e, err := lib.Publish(ctx, p.Snapshot(), by)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Published %s as version %d\n", e.Name, e.Version)
	return nil
}

func (c *cli) listLibrary(ctx context.Context) error {
	lib, err := c.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer lib.Close()
	entries, err := lib.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "Library is empty.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "%s  %s %s\n", e.StableID, titleStyle.Render(e.Name),
			labelStyle.Render(fmt.Sprintf("v%d by %s, %s", e.Version, e.PublishedBy, e.UpdatedAt.Format("2006-01-02 15:04"))))
	}
	return nil
}

func (c *cli) fetch(ctx context.Context, id, dir string) error {
	lib, err := c.openLibrary(ctx)
	if err != nil {
		return err
	}
	defer lib.Close()
	data, e, err := lib.Fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := c.ed.LoadProject(data); err != nil {
		return err
	}
	path, err := c.ed.SaveFile(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Fetched %s v%d to %s\n", e.Name, e.Version, path)
	return nil
}

func (c *cli) recent(ctx context.Context) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	ix, rebuilt, err := storage.OpenOrRebuildIndex(ctx, storage.IndexPath(dir))
	if err != nil {
		return err
	}
	defer ix.Close()
	if rebuilt {
		fmt.Fprintln(c.out, warnStyle.Render("index was damaged and has been rebuilt"))
	}
	files, err := ix.Recent(ctx, c.cfg.General.RecentMax)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(c.out, "No recent files.")
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(c.out, "%s  %s\n", labelStyle.Render(f.OpenedAt.Local().Format("2006-01-02 15:04")), f.Path)
	}
	return nil
}

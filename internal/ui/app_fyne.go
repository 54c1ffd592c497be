//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"wireframe/internal/config"
	"wireframe/internal/crash"
	"wireframe/internal/domain"
	"wireframe/internal/editor"
	"wireframe/internal/export"
	"wireframe/internal/library"
	applog "wireframe/internal/log"
	"wireframe/internal/project"
	"wireframe/internal/selection"
	"wireframe/internal/storage"
	"wireframe/internal/version"
)

// fyneWindow adapts a fyne window to the editor's window capability.
type fyneWindow struct{ w fyne.Window }

// Minimize is not offered by the fyne driver API.
func (f fyneWindow) Minimize()       {}
func (f fyneWindow) ToggleMaximize() { f.w.SetFullScreen(!f.w.FullScreen()) }
func (f fyneWindow) Close()          { f.w.Close() }

// Run starts the Fyne-based desktop editor. path optionally names a .wire
// file to open.
func Run(path string) error {
	cfg, cerr := config.Load()
	applog.Init(cfg.Logging.Options())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("ui")
	if cerr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cerr))
	}
	l.Info("starting UI", slog.String("version", version.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ix *storage.Index
	if dir, err := config.ConfigDir(); err == nil {
		var rebuilt bool
		ix, rebuilt, err = storage.OpenOrRebuildIndex(ctx, storage.IndexPath(dir))
		if err != nil {
			l.Warn("index unavailable; recent files and autosave disabled", slog.Any("err", err))
		} else if rebuilt {
			l.Warn("index was rebuilt")
		}
	}
	if ix != nil {
		defer func() { _ = ix.Close() }()
	}

	fyneApp := app.NewWithID("wireframe")
	w := fyneApp.NewWindow("Wireframe")
	prefs := fyneApp.Preferences()
	w.Resize(fyne.NewSize(
		float32(max(900, prefs.IntWithFallback("window.width", 1280))),
		float32(max(600, prefs.IntWithFallback("window.height", 820))),
	))

	opts := []editor.Option{
		editor.WithWindow(fyneWindow{w}),
		editor.WithAutosaveKeep(cfg.General.AutosaveKeep),
		editor.WithRecentMax(cfg.General.RecentMax),
	}
	if ix != nil {
		opts = append(opts, editor.WithIndex(ix))
	}
	ed := editor.New(opts...)
	ed.Store().SetForm(cfg.Canvas.FormDraft())
	defer crash.Recover(ed)

	status := widget.NewLabel("Ready")
	pc := NewPageCanvas(ed)

	// pages
	var pages []domain.Page
	pagesList := widget.NewList(
		func() int { return len(pages) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && i < len(pages) {
				o.(*widget.Label).SetText(pages[i].Name)
			}
		},
	)

	// properties
	nameE, xE, yE, wE, hE, rotE := widget.NewEntry(), widget.NewEntry(), widget.NewEntry(), widget.NewEntry(), widget.NewEntry(), widget.NewEntry()
	fillE, strokeE, opE := widget.NewEntry(), widget.NewEntry(), widget.NewEntry()
	textE, sizeE, colorE := widget.NewMultiLineEntry(), widget.NewEntry(), widget.NewEntry()
	props := widget.NewForm(
		widget.NewFormItem("Name", nameE),
		widget.NewFormItem("X", xE), widget.NewFormItem("Y", yE),
		widget.NewFormItem("Width", wE), widget.NewFormItem("Height", hE),
		widget.NewFormItem("Rotation", rotE),
		widget.NewFormItem("Fill", fillE), widget.NewFormItem("Stroke", strokeE),
		widget.NewFormItem("Opacity", opE),
		widget.NewFormItem("Text", textE), widget.NewFormItem("Font size", sizeE), widget.NewFormItem("Text color", colorE),
	)
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	var refresh func()
	refreshProps := func() {
		n, ok := ed.SelectedNode()
		if !ok {
			props.Hide()
			return
		}
		nameE.SetText(n.Name)
		xE.SetText(num(n.Frame.X))
		yE.SetText(num(n.Frame.Y))
		wE.SetText(num(n.Frame.W))
		hE.SetText(num(n.Frame.H))
		rotE.SetText(num(n.Rotation))
		fillE.SetText(n.Style.Fill)
		strokeE.SetText(n.Style.Stroke)
		opE.SetText(num(n.Style.Opacity))
		t := domain.DefaultText()
		if n.Text != nil {
			t = *n.Text
		}
		textE.SetText(t.Value)
		sizeE.SetText(num(t.Size))
		colorE.SetText(t.Color)
		for _, e := range []*widget.Entry{textE, sizeE, colorE} {
			if n.Type == domain.NodeTextKind {
				e.Enable()
			} else {
				e.Disable()
			}
		}
		props.Show()
	}
	applyProps := widget.NewButton("Apply", func() {
		n, ok := ed.SelectedNode()
		if !ok {
			return
		}
		edits := []selection.Edit{
			selection.Rename(nameE.Text),
			selection.SetX(project.ParseDimension(xE.Text)),
			selection.SetY(project.ParseDimension(yE.Text)),
			selection.SetWidth(project.ParseDimension(wE.Text)),
			selection.SetHeight(project.ParseDimension(hE.Text)),
			selection.SetRotation(project.ParseDimension(rotE.Text)),
			selection.SetFill(fillE.Text),
			selection.SetStroke(strokeE.Text),
			selection.SetOpacity(project.ParseDimension(opE.Text)),
		}
		if n.Type == domain.NodeTextKind {
			edits = append(edits,
				selection.SetTextValue(textE.Text),
				selection.SetFontSize(project.ParseDimension(sizeE.Text)),
				selection.SetTextColor(colorE.Text))
		}
		ed.Edit(edits...)
		refresh()
	})

	updateTitle := func() {
		name := "Wireframe"
		if p, ok := ed.Project(); ok {
			name = p.Name + " - Wireframe"
			if ed.Dirty() {
				name = "* " + name
			}
		}
		w.SetTitle(name)
	}

	refresh = func() {
		pages = nil
		if p, ok := ed.Project(); ok {
			pages = p.Pages
			for i, pg := range pages {
				if pg.ID == p.ActivePageID {
					pagesList.Select(i)
				}
			}
		}
		pagesList.Refresh()
		refreshProps()
		updateTitle()
		pc.Refresh()
	}
	pc.OnChange = func() {
		refreshProps()
		updateTitle()
	}
	pagesList.OnSelected = func(i widget.ListItemID) {
		if i >= 0 && i < len(pages) {
			if pg, ok := ed.ActivePage(); !ok || pg.ID != pages[i].ID {
				ed.SetActivePage(pages[i].ID)
				refreshProps()
				updateTitle()
				pc.Refresh()
			}
		}
	}

	addPage := widget.NewButtonWithIcon("", theme.ContentAddIcon(), func() { ed.AddPage(); refresh() })
	renamePage := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		pg, ok := ed.ActivePage()
		if !ok {
			return
		}
		entry := widget.NewEntry()
		entry.SetText(pg.Name)
		dialog.ShowForm("Rename Page", "Rename", "Cancel", []*widget.FormItem{widget.NewFormItem("Name", entry)}, func(ok bool) {
			if ok {
				ed.RenamePage(pg.ID, entry.Text)
				refresh()
			}
		}, w)
	})
	removePage := widget.NewButtonWithIcon("", theme.ContentRemoveIcon(), func() {
		pg, ok := ed.ActivePage()
		if !ok {
			return
		}
		dialog.ShowConfirm("Remove Page", fmt.Sprintf("Remove %q and its layers?", pg.Name), func(ok bool) {
			if ok {
				ed.RemovePage(pg.ID)
				refresh()
			}
		}, w)
	})

	toolNames := make([]string, len(selection.Tools))
	for i, t := range selection.Tools {
		toolNames[i] = string(t)
	}
	tools := widget.NewRadioGroup(toolNames, func(s string) {
		ed.SetTool(selection.Tool(s))
	})
	tools.Horizontal = true
	tools.Required = true
	tools.SetSelected(string(ed.Tool()))

	// file actions
	newProject := func() {
		f := ed.Store().Form()
		nameEntry, wEntry, hEntry, bgEntry := widget.NewEntry(), widget.NewEntry(), widget.NewEntry(), widget.NewEntry()
		nameEntry.SetText(f.Name)
		wEntry.SetText(num(f.Width))
		hEntry.SetText(num(f.Height))
		bgEntry.SetText(f.Background)
		units := widget.NewSelect([]string{string(domain.UnitPixel), string(domain.UnitMillimeter), string(domain.UnitPoint)}, nil)
		units.SetSelected(string(f.Unit))
		dialog.ShowForm("New Project", "Create", "Cancel", []*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Width", wEntry),
			widget.NewFormItem("Height", hEntry),
			widget.NewFormItem("Unit", units),
			widget.NewFormItem("Background", bgEntry),
		}, func(ok bool) {
			if !ok {
				return
			}
			ed.Store().SetForm(project.FormDraft{
				Name:       nameEntry.Text,
				Width:      project.ParseDimension(wEntry.Text),
				Height:     project.ParseDimension(hEntry.Text),
				Unit:       domain.Unit(units.Selected),
				Background: bgEntry.Text,
			})
			ed.CreateProject()
			status.SetText("New project")
			refresh()
		}, w)
	}
	openPath := func(path string) {
		err := ed.OpenFile(ctx, path)
		refresh()
		var oe *editor.OpenError
		switch {
		case errors.As(err, &oe) && oe.Backup != "":
			dialog.ShowConfirm("Open failed", oe.Error()+"\n\nRestore the backup?", func(ok bool) {
				if !ok {
					return
				}
				if _, rerr := ed.RecoverFile(ctx, path); rerr != nil {
					dialog.ShowError(rerr, w)
					return
				}
				status.SetText("Restored " + filepath.Base(path) + " from backup (unsaved)")
				refresh()
			}, w)
		case err != nil:
			dialog.ShowError(err, w)
		default:
			status.SetText("Opened " + filepath.Base(path))
		}
	}
	openFile := func() {
		fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			path := rc.URI().Path()
			_ = rc.Close()
			openPath(path)
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".wire", ".json"}))
		fd.Show()
	}
	saveAs := func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			path, err := ed.SaveFile(ctx, uri.Path())
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Saved " + path)
			updateTitle()
		}, w)
		fd.Show()
	}
	save := func() {
		if !ed.Store().HasProject() {
			dialog.ShowInformation("Save", "No project open.", w)
			return
		}
		if ed.Path() == "" {
			saveAs()
			return
		}
		if err := ed.Save(ctx); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved " + ed.Path())
		updateTitle()
	}
	exportAs := func(f export.Format) func() {
		return func() {
			p, ok := ed.Project()
			if !ok {
				dialog.ShowInformation("Export", "No project open.", w)
				return
			}
			fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, w)
					return
				}
				if wc == nil {
					return
				}
				opt := export.Options{
					PNG: export.PNGOptions{Scale: cfg.Export.PNGScale},
					PDF: export.PDFOptions{Unit: cfg.Export.PDFUnit, Author: cfg.Library.User},
				}
				rerr := export.Render(wc, f, p, "", opt)
				cerr := wc.Close()
				if rerr == nil {
					rerr = cerr
				}
				if rerr != nil {
					dialog.ShowError(rerr, w)
					return
				}
				status.SetText("Exported " + wc.URI().Path())
			}, w)
			name, _ := ed.ExportFileName()
			fd.SetFileName(name[:len(name)-len(filepath.Ext(name))] + "." + string(f))
			fd.Show()
		}
	}
	publish := func() {
		p, ok := ed.Project()
		if !ok {
			dialog.ShowInformation("Publish", "No project open.", w)
			return
		}
		if cfg.Library.DSN == "" {
			dialog.ShowInformation("Publish", "No shared library configured (library.dsn).", w)
			return
		}
		pw, err := config.LibraryPassword()
		if err != nil {
			l.Warn("library password unavailable", slog.Any("err", err))
		}
		lib, err := library.Open(ctx, library.WithPassword(cfg.Library.DSN, pw))
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		defer func() { _ = lib.Close() }()
		e, err := lib.Publish(ctx, p.Snapshot(), cfg.Library.User)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText(fmt.Sprintf("Published %s v%d", e.Name, e.Version))
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), newProject),
		widget.NewToolbarAction(theme.FolderOpenIcon(), openFile),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), save),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { ed.Delete(); refresh() }),
		widget.NewToolbarAction(theme.MoveUpIcon(), func() { ed.Reorder(domain.Forward); refresh() }),
		widget.NewToolbarAction(theme.MoveDownIcon(), func() { ed.Reorder(domain.Backward); refresh() }),
	)

	recentItem := fyne.NewMenuItem("Open Recent", nil)
	recentItem.ChildMenu = fyne.NewMenu("")
	if ix != nil {
		if recent, err := ix.Recent(ctx, cfg.General.RecentMax); err == nil {
			for _, r := range recent {
				path := r.Path
				recentItem.ChildMenu.Items = append(recentItem.ChildMenu.Items, fyne.NewMenuItem(path, func() { openPath(path) }))
			}
		}
	}
	newItem := fyne.NewMenuItem("New…", newProject)
	openItem := fyne.NewMenuItem("Open…", openFile)
	saveItem := fyne.NewMenuItem("Save", save)
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierShortcutDefault}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierShortcutDefault}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
	fileMenu := fyne.NewMenu("File", newItem, openItem, recentItem, fyne.NewMenuItemSeparator(),
		saveItem, fyne.NewMenuItem("Save To Folder…", saveAs), fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Publish To Library", publish))
	exportMenu := fyne.NewMenu("Export",
		fyne.NewMenuItem("PNG…", exportAs(export.FormatPNG)),
		fyne.NewMenuItem("PDF…", exportAs(export.FormatPDF)),
		fyne.NewMenuItem("SVG…", exportAs(export.FormatSVG)),
	)
	viewMenu := fyne.NewMenu("View", fyne.NewMenuItem("Toggle Full Screen", func() { ed.Window().ToggleMaximize() }))
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, exportMenu, viewMenu))
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) { save() })
	w.Canvas().SetOnTypedKey(func(k *fyne.KeyEvent) {
		if k.Name == fyne.KeyDelete || k.Name == fyne.KeyBackspace {
			ed.Delete()
			refresh()
		}
	})

	left := container.NewBorder(widget.NewLabel("Pages"), container.NewHBox(addPage, renamePage, removePage), nil, nil, pagesList)
	right := container.NewBorder(widget.NewLabel("Properties"), applyProps, nil, nil, container.NewVScroll(props))
	center := container.NewHSplit(pc, right)
	center.Offset = 0.75
	body := container.NewHSplit(left, center)
	body.Offset = 0.15
	w.SetContent(container.NewBorder(container.NewVBox(toolbar, tools), status, nil, nil, body))

	if iv := cfg.General.AutosaveInterval(); iv > 0 && ix != nil {
		go func() {
			t := time.NewTicker(iv)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					fyne.Do(func() {
						if _, err := ed.Autosave(ctx); err != nil {
							l.Warn("autosave failed", slog.Any("err", err))
						}
					})
				}
			}
		}()
	}

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if !ed.Dirty() {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved Changes", "Close without saving?", func(ok bool) {
			if ok {
				w.Close()
			}
		}, w)
	})

	if path != "" {
		openPath(path)
	}
	if !ed.Store().HasProject() {
		ed.CreateProject()
	}
	refresh()

	w.ShowAndRun()
	return nil
}

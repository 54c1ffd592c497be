/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor composes the project store, selection state and gesture
// engine into the single API the desktop shell and the CLI drive.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"wireframe/internal/domain"
	"wireframe/internal/interaction"
	applog "wireframe/internal/log"
	"wireframe/internal/project"
	"wireframe/internal/selection"
	"wireframe/internal/storage"
)

// ErrNoPath is returned by Save when the document was never written to disk.
var ErrNoPath = errors.New("document has no file yet")

// WindowControl is the optional host window capability. Shells without
// window chrome use NoWindow.
type WindowControl interface {
	Minimize()
	ToggleMaximize()
	Close()
}

// NoWindow ignores every window request.
type NoWindow struct{}

func (NoWindow) Minimize()       {}
func (NoWindow) ToggleMaximize() {}
func (NoWindow) Close()          {}

// Editor owns one open document and everything that edits it.
type Editor struct {
	store  *project.Store
	sel    *selection.State
	engine *interaction.Engine
	window WindowControl
	index  *storage.Index

	path         string
	autosaveKeep int
	recentMax    int
	now          func() time.Time
	log          *slog.Logger
}

type Option func(*Editor)

// WithStore replaces the default project store.
func WithStore(s *project.Store) Option { return func(e *Editor) { e.store = s } }

func WithWindow(w WindowControl) Option { return func(e *Editor) { e.window = w } }

// WithIndex enables recent-file tracking and autosaves.
func WithIndex(ix *storage.Index) Option { return func(e *Editor) { e.index = ix } }

// WithAutosaveKeep bounds how many autosaves per project are retained.
func WithAutosaveKeep(n int) Option { return func(e *Editor) { e.autosaveKeep = n } }

func WithRecentMax(n int) Option { return func(e *Editor) { e.recentMax = n } }

func withClock(now func() time.Time) Option { return func(e *Editor) { e.now = now } }

func New(opts ...Option) *Editor {
	e := &Editor{
		window:       NoWindow{},
		autosaveKeep: 20,
		recentMax:    10,
		now:          time.Now,
		log:          applog.WithComponent("editor"),
	}
	for _, o := range opts {
		o(e)
	}
	if e.store == nil {
		e.store = project.NewStore()
	}
	if e.window == nil {
		e.window = NoWindow{}
	}
	e.sel = selection.New(e.store)
	e.engine = interaction.NewEngine(e.sel, e.store)
	return e
}

func (e *Editor) Store() *project.Store           { return e.store }
func (e *Editor) Selection() *selection.State     { return e.sel }
func (e *Editor) Engine() *interaction.Engine     { return e.engine }
func (e *Editor) Window() WindowControl           { return e.window }
func (e *Editor) Project() (domain.Project, bool) { return e.store.Project() }
func (e *Editor) ActivePage() (domain.Page, bool) { return e.store.ActivePage() }
func (e *Editor) Dirty() bool                     { return e.store.Dirty() }

// Path is the file the document was last opened from or saved to.
func (e *Editor) Path() string { return e.path }

// SelectedNode resolves the selection against the active page.
func (e *Editor) SelectedNode() (domain.Node, bool) {
	pg, ok := e.store.ActivePage()
	if !ok {
		return domain.Node{}, false
	}
	return e.sel.SelectedNode(pg)
}

// structural runs a document-level change and then drops the selection,
// which may no longer name a node on the active page.
func (e *Editor) structural(fn func()) {
	e.engine.Abort()
	fn()
	e.sel.Clear()
}

// CreateProject builds a new document from the store's form draft.
func (e *Editor) CreateProject() domain.Project {
	var p domain.Project
	e.structural(func() { p = e.store.CreateProject() })
	e.path = ""
	return p
}

// LoadProject replaces the document with raw. The selection is cleared
// whether or not the load succeeds; a rejected load keeps the document.
func (e *Editor) LoadProject(raw []byte) error {
	e.engine.Abort()
	e.sel.Clear()
	return e.store.LoadProject(raw)
}

func (e *Editor) AddPage() { e.structural(e.store.AddPage) }

func (e *Editor) RemovePage(pageID string) {
	e.structural(func() { e.store.RemovePage(pageID) })
}

func (e *Editor) RenamePage(pageID, name string) { e.store.RenamePage(pageID, name) }
func (e *Editor) SetActivePage(pageID string)    { e.store.SetActivePage(pageID) }
func (e *Editor) SetCanvas(c domain.CanvasSpec)  { e.store.SetCanvas(c) }

func (e *Editor) Tool() selection.Tool     { return e.sel.Tool() }
func (e *Editor) SetTool(t selection.Tool) { e.sel.SetTool(t) }
func (e *Editor) Select(id string)         { e.sel.Select(id) }
func (e *Editor) Delete()                  { e.sel.Delete() }

func (e *Editor) Reorder(dir domain.Direction) { e.sel.Reorder(dir) }

// Edit applies property edits to the selected node in one mutation.
func (e *Editor) Edit(edits ...selection.Edit) { e.sel.UpdateNode(selection.Chain(edits...)) }

// Pointer input, forwarded to the gesture engine.

func (e *Editor) CanvasPointerDown(p interaction.Point) { e.engine.CanvasPointerDown(p) }

func (e *Editor) NodePointerDown(nodeID string, p interaction.Point) *interaction.Session {
	return e.engine.NodePointerDown(nodeID, p)
}

func (e *Editor) ResizePointerDown(nodeID string, h interaction.Handle, p interaction.Point) *interaction.Session {
	return e.engine.ResizePointerDown(nodeID, h, p)
}

func (e *Editor) PointerMove(p interaction.Point) { e.engine.PointerMove(p) }
func (e *Editor) PointerUp(p interaction.Point)   { e.engine.PointerUp(p) }

// RequestExport hands out the persisted form and marks the document saved.
func (e *Editor) RequestExport() (domain.Snapshot, bool) { return e.store.RequestExport() }

func (e *Editor) ExportFileName() (string, error) { return e.store.ExportFileName() }

// OpenError reports a file that could not be opened. Backup names the
// newest backup of the file, if any, for use with RecoverFile.
type OpenError struct {
	Path   string
	Backup string
	Err    error
}

func (e *OpenError) Error() string {
	msg := "open " + filepath.Base(e.Path) + ": " + e.Err.Error()
	if e.Backup != "" {
		msg += " (a backup from " + filepath.Base(e.Backup) + " can be restored)"
	}
	return msg
}

func (e *OpenError) Unwrap() error { return e.Err }

// OpenFile reads a .wire file and loads it. A file that cannot be read or
// parsed leaves the current document in place and returns an *OpenError.
func (e *Editor) OpenFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err == nil {
		err = e.LoadProject(data)
	}
	if err != nil {
		oe := &OpenError{Path: path, Err: err}
		if b, berr := storage.LatestBackup(path); berr == nil {
			oe.Backup = b
		}
		applog.WithOperation(e.log, "open").Warn("open failed", slog.String("path", path), slog.Any("err", err))
		return oe
	}
	e.path = path
	e.recordRecent(ctx, path)
	return nil
}

// RecoverFile opens path, falling back to its newest backup when the file
// itself is damaged. A document restored from a backup is unsaved, so the
// next Save replaces the damaged file.
func (e *Editor) RecoverFile(ctx context.Context, path string) (fromBackup bool, err error) {
	data, fromBackup, err := storage.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := e.LoadProject(data); err != nil {
		return false, err
	}
	if fromBackup {
		applog.WithOperation(e.log, "recover").Warn("restored from backup", slog.String("path", path))
		e.store.Mutate(func(p domain.Project) domain.Project { return p })
	}
	e.path = path
	e.recordRecent(ctx, path)
	return fromBackup, nil
}

// SaveFile writes the document into dir under a file name derived from the
// project name. The file always lands directly in dir.
func (e *Editor) SaveFile(ctx context.Context, dir string) (string, error) {
	p, ok := e.store.Project()
	if !ok {
		return "", project.ErrNoProject
	}
	path := filepath.Join(dir, storage.FileName(p.Name))
	if err := e.writeTo(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// Save writes the document back to the file it came from.
func (e *Editor) Save(ctx context.Context) error {
	if e.path == "" {
		return ErrNoPath
	}
	return e.writeTo(ctx, e.path)
}

func (e *Editor) writeTo(ctx context.Context, path string) error {
	p, ok := e.store.Project()
	if !ok {
		return project.ErrNoProject
	}
	if err := storage.WriteFile(path, p.Snapshot()); err != nil {
		return err
	}
	// only a successful write is a save point
	e.store.RequestExport()
	e.path = path
	e.log.Info("saved", slog.String("path", path))
	e.recordRecent(ctx, path)
	return nil
}

func (e *Editor) recordRecent(ctx context.Context, path string) {
	if e.index == nil {
		return
	}
	p, _ := e.store.Project()
	if err := e.index.RecordRecent(ctx, path, p.Name, e.recentMax); err != nil {
		e.log.Warn("recent files not updated", slog.Any("err", err))
	}
}

// Autosave stores the unsaved document in the index. It reports whether a
// snapshot was written. Autosaves are not save points.
func (e *Editor) Autosave(ctx context.Context) (bool, error) {
	if e.index == nil || !e.store.Dirty() {
		return false, nil
	}
	p, ok := e.store.Project()
	if !ok {
		return false, nil
	}
	blob, err := storage.Marshal(p.Snapshot())
	if err != nil {
		return false, err
	}
	if err := e.index.SaveAutosave(ctx, p.ID, blob, e.now()); err != nil {
		return false, err
	}
	if e.autosaveKeep > 0 {
		if _, err := e.index.PruneAutosaves(ctx, p.ID, e.autosaveKeep); err != nil {
			e.log.Warn("autosave prune failed", slog.Any("err", err))
		}
	}
	e.log.Debug("autosaved", slog.String("project", p.ID))
	return true, nil
}

// RestoreAutosave loads the newest autosave of projectID. The restored
// document counts as unsaved.
func (e *Editor) RestoreAutosave(ctx context.Context, projectID string) (bool, error) {
	if e.index == nil {
		return false, nil
	}
	a, ok, err := e.index.LatestAutosave(ctx, projectID)
	if err != nil || !ok {
		return false, err
	}
	if err := e.LoadProject(a.Blob); err != nil {
		return false, err
	}
	e.store.Mutate(func(p domain.Project) domain.Project { return p })
	return true, nil
}

// Dir is the directory of the current file, or "" before the first save.
func (e *Editor) Dir() string {
	if e.path == "" {
		return ""
	}
	return filepath.Dir(e.path)
}

// CrashSave writes the document next to its file's backups, or into the
// temp dir, without touching the file itself.
func (e *Editor) CrashSave() (string, error) {
	p, ok := e.store.Project()
	if !ok {
		return "", nil
	}
	dir := os.TempDir()
	if d := e.Dir(); d != "" {
		dir = filepath.Join(d, storage.BackupsDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s-%s", e.now().Format("20060102-150405"), storage.FileName(p.Name)))
	blob, err := storage.Marshal(p.Snapshot())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package project owns the current wireframe document. Every structural or
// geometric change flows through Store.Mutate, which marks the document dirty.
package project

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"wireframe/internal/domain"
	"wireframe/internal/ids"
	applog "wireframe/internal/log"
)

// ErrNoProject is returned by operations that need a loaded document.
var ErrNoProject = errors.New("no project loaded")

// LoadErrorMessage is the user-facing text shown when a file cannot be read as a project.
const LoadErrorMessage = "Failed to load the file. Please check its format."

// LoadError wraps the reason a project file was rejected.
type LoadError struct{ Err error }

func (e *LoadError) Error() string { return "load project: " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// FormDraft holds the values of the "new project" form.
type FormDraft struct {
	Name       string
	Width      float64
	Height     float64
	Unit       domain.Unit
	Background string
}

// DefaultFormDraft returns the form defaults derived from the default canvas.
func DefaultFormDraft() FormDraft {
	c := domain.DefaultCanvas()
	return FormDraft{Name: domain.DefaultProjectName, Width: c.Width, Height: c.Height, Unit: c.Unit, Background: c.Background}
}

// ParseDimension converts form text into a number. Text that is not a finite
// number becomes 0, which CreateProject later replaces with the default.
func ParseDimension(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Store holds the current document, the dirty flag and the form draft.
// It is not safe for concurrent use; all calls come from the single UI event loop.
type Store struct {
	project *domain.Project
	dirty   bool
	form    FormDraft
	lastErr error
	ids     ids.Generator
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDs sets the identifier source used for new pages and repaired nodes.
func WithIDs(g ids.Generator) Option { return func(s *Store) { s.ids = g } }

// WithForm seeds the form draft, e.g. from user configuration.
func WithForm(f FormDraft) Option { return func(s *Store) { s.form = f } }

func NewStore(opts ...Option) *Store {
	s := &Store{form: DefaultFormDraft(), ids: ids.Default, log: applog.WithComponent("project")}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Project returns a copy of the current document.
func (s *Store) Project() (domain.Project, bool) {
	if s.project == nil {
		return domain.Project{}, false
	}
	return *s.project, true
}

// HasProject reports whether a document is loaded.
func (s *Store) HasProject() bool { return s.project != nil }

// ActivePage returns the page the document's activePageId points at.
func (s *Store) ActivePage() (domain.Page, bool) {
	if s.project == nil {
		return domain.Page{}, false
	}
	return s.project.ActivePage()
}

func (s *Store) Dirty() bool { return s.dirty }

// LastError is the most recent load failure, cleared by create and successful loads.
func (s *Store) LastError() error { return s.lastErr }

func (s *Store) Form() FormDraft     { return s.form }
func (s *Store) SetForm(f FormDraft) { s.form = f }

// CreateProject replaces the document with a fresh one built from the form
// draft. It is a save point, so the dirty flag is cleared.
func (s *Store) CreateProject() domain.Project {
	s.lastErr = nil
	def := domain.DefaultCanvas()
	f := s.form
	width, height := f.Width, f.Height
	if !positive(width) {
		width = def.Width
	}
	if !positive(height) {
		height = def.Height
	}
	unit := f.Unit
	if unit == "" {
		unit = def.Unit
	}
	name, bg := f.Name, f.Background
	pageID, pageName := s.ids.NewID(), "Page 1"
	p := domain.NormalizeWith(domain.PartialProject{
		Name:   &name,
		Canvas: &domain.PartialCanvas{Width: &width, Height: &height, Unit: &unit, Background: &bg},
		Pages:  []domain.PartialPage{{ID: &pageID, Name: &pageName}},
	}, s.ids)
	s.project = &p
	s.dirty = false
	s.log.Info("project created", slog.String("id", p.ID), slog.String("name", p.Name),
		slog.Float64("width", p.Canvas.Width), slog.Float64("height", p.Canvas.Height), slog.String("unit", string(p.Canvas.Unit)))
	return p
}

// LoadProject parses raw project data and replaces the document with its
// normalized form. On failure the current document is left untouched and the
// error is kept for display.
func (s *Store) LoadProject(raw []byte) error {
	s.lastErr = nil
	partial, err := domain.ParsePartial(raw)
	if err != nil {
		lerr := &LoadError{Err: err}
		s.lastErr = lerr
		s.log.Warn("load rejected", slog.Any("err", err))
		return lerr
	}
	p := domain.NormalizeWith(partial, s.ids)
	s.project = &p
	s.dirty = false
	s.log.Info("project loaded", slog.String("id", p.ID), slog.String("name", p.Name), slog.Int("pages", len(p.Pages)))
	return nil
}

// RequestExport returns the persisted form of the document and clears the
// dirty flag. Without a document it does nothing and reports false.
func (s *Store) RequestExport() (domain.Snapshot, bool) {
	if s.project == nil {
		return domain.Snapshot{}, false
	}
	snap := s.project.Snapshot()
	s.dirty = false
	s.log.Debug("project exported", slog.String("id", snap.ID))
	return snap, true
}

// Mutate applies fn to the current document. It is a silent no-op without a
// document but marks the store dirty either way.
func (s *Store) Mutate(fn func(domain.Project) domain.Project) {
	if s.project != nil {
		next := fn(*s.project)
		s.project = &next
	}
	s.dirty = true
}

// MutateActivePage applies fn to the active page only.
func (s *Store) MutateActivePage(fn func(domain.Page) domain.Page) {
	s.Mutate(func(p domain.Project) domain.Project { return p.MapActivePage(fn) })
}

// AddPage appends a new page and makes it active.
func (s *Store) AddPage() {
	id := s.ids.NewID()
	s.Mutate(func(p domain.Project) domain.Project { return p.AddPage(id) })
	s.log.Info("page added", slog.String("page", id))
}

func (s *Store) RenamePage(pageID, name string) {
	s.Mutate(func(p domain.Project) domain.Project { return p.RenamePage(pageID, name) })
}

// RemovePage drops a page; the project always keeps at least one.
func (s *Store) RemovePage(pageID string) {
	s.Mutate(func(p domain.Project) domain.Project { return p.RemovePage(pageID, s.ids.NewID) })
	s.log.Info("page removed", slog.String("page", pageID))
}

func (s *Store) SetActivePage(pageID string) {
	s.Mutate(func(p domain.Project) domain.Project { return p.SetActivePage(pageID) })
}

func (s *Store) SetCanvas(c domain.CanvasSpec) {
	s.Mutate(func(p domain.Project) domain.Project { return p.SetCanvas(c) })
}

// ExportFileName is the download name offered for the current document.
func (s *Store) ExportFileName() (string, error) {
	if s.project == nil {
		return "", ErrNoProject
	}
	return domain.ExportFileName(s.project.Name), nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

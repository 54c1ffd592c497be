/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders wireframe pages to PNG, PDF and SVG.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"wireframe/internal/domain"
)

// Format names an output file type.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// ErrNoPage is returned when the requested page does not exist.
var ErrNoPage = errors.New("export: page not found")

// ParseFormat accepts a format name or a file extension such as ".pdf".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatPNG, FormatPDF, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("export: unknown format %q", s)
}

// Options bundles the per-format settings used by Render.
type Options struct {
	PNG PNGOptions
	PDF PDFOptions
}

// Render writes p in format f. PDF output contains every page; PNG and SVG
// render pageID, or the active page when pageID is empty.
func Render(w io.Writer, f Format, p domain.Project, pageID string, opt Options) error {
	switch f {
	case FormatPNG:
		return PNG(w, p, pageID, opt.PNG)
	case FormatPDF:
		return PDF(w, p, opt.PDF)
	case FormatSVG:
		return SVG(w, p, pageID)
	}
	return fmt.Errorf("export: unknown format %q", f)
}

// pageFor picks the page to draw. An empty id means the active page, then
// the first page.
func pageFor(p domain.Project, pageID string) (domain.Page, error) {
	if pageID == "" {
		pageID = p.ActivePageID
		if pageID == "" && len(p.Pages) > 0 {
			return p.Pages[0], nil
		}
	}
	for _, pg := range p.Pages {
		if pg.ID == pageID {
			return pg, nil
		}
	}
	return domain.Page{}, fmt.Errorf("%w: %q", ErrNoPage, pageID)
}

// PageAt returns the id of the page at index i, for callers that address
// pages by position.
func PageAt(p domain.Project, i int) (string, error) {
	if i < 0 || i >= len(p.Pages) {
		return "", fmt.Errorf("%w: index %d", ErrNoPage, i)
	}
	return p.Pages[i].ID, nil
}

// textLines splits a text value into display lines.
func textLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

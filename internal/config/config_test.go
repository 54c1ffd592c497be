/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"wireframe/internal/domain"
)

// isolate points the config dir at a temp folder.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	return dir
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Defaults()
	if cfg.Canvas != want.Canvas || cfg.General != want.General {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestEnvOverridesLibraryDSN(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLibraryDSN, "postgres://db.example.test/wire")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Library.DSN, "postgres://db.example.test/wire"; got != want {
		t.Fatalf("Library.DSN = %q, want %q", got, want)
	}
	if env, ok := EnvOverrideFor("library.dsn"); !ok || env != EnvLibraryDSN {
		t.Fatalf("EnvOverrideFor(library.dsn) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("canvas.width"); ok {
		t.Fatalf("canvas.width has no env override")
	}
}

func TestEnvOverridesAutosaveAndScale(t *testing.T) {
	isolate(t)
	t.Setenv(EnvAutosaveInterval, "0")
	t.Setenv(EnvPNGScale, "2.5")
	cfg, _ := Load()
	if cfg.General.AutosaveInterval() != 0 {
		t.Fatalf("autosave should be disabled, got %v", cfg.General.AutosaveInterval())
	}
	if cfg.Export.PNGScale != 2.5 {
		t.Fatalf("PNGScale = %v", cfg.Export.PNGScale)
	}
}

func TestMergeIncludesCanvas(t *testing.T) {
	dst := Defaults()
	src := AppConfig{Canvas: CanvasConfig{Width: 800, Unit: " MM ", Background: "#000000"}}
	mergeInto(&dst, &src)
	if dst.Canvas.Width != 800 || dst.Canvas.Height != 900 || dst.Canvas.Unit != "mm" || dst.Canvas.Background != "#000000" || dst.Canvas.Name != "Untitled" {
		t.Fatalf("canvas fields not merged correctly: %#v", dst.Canvas)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/wf.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/wf.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	if o := dst.Logging.Options(); o.Level != "debug" || !o.AddSource || o.MaxSizeMB != 10 {
		t.Fatalf("Options() = %#v", o)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/wf.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/wf.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Defaults()
	cfg.Canvas.Width = 375
	cfg.Canvas.Height = 812
	cfg.General.Theme = "dark"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil || !strings.Contains(string(data), "width: 375") {
		t.Fatalf("config file = %q, %v", data, err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Canvas.Width != 375 || got.Canvas.Height != 812 || got.General.Theme != "dark" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
}

func TestLoadReportsBrokenFile(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("general: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Canvas.Width != 1440 {
		t.Fatalf("defaults expected on parse error, got %#v", cfg.Canvas)
	}
}

type memSecrets map[string]string

func (m memSecrets) Get(service, key string) (string, error) {
	v, ok := m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}
func (m memSecrets) Set(service, key, value string) error { m[service+"/"+key] = value; return nil }
func (m memSecrets) Delete(service, key string) error {
	if _, ok := m[service+"/"+key]; !ok {
		return keyring.ErrNotFound
	}
	delete(m, service+"/"+key)
	return nil
}

func TestLibraryPassword(t *testing.T) {
	prev := SetSecretStore(memSecrets{})
	t.Cleanup(func() { SetSecretStore(prev) })
	t.Setenv(EnvLibraryPassword, "")

	if pw, err := LibraryPassword(); err != nil || pw != "" {
		t.Fatalf("missing entry: %q, %v", pw, err)
	}
	if err := SetLibraryPassword("s3cret"); err != nil {
		t.Fatalf("SetLibraryPassword: %v", err)
	}
	if pw, _ := LibraryPassword(); pw != "s3cret" {
		t.Fatalf("password = %q", pw)
	}
	t.Setenv(EnvLibraryPassword, "from-env")
	if pw, _ := LibraryPassword(); pw != "from-env" {
		t.Fatalf("env should win, got %q", pw)
	}
	if err := SetLibraryPassword(""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := SetLibraryPassword(""); err != nil {
		t.Fatalf("deleting twice should be fine: %v", err)
	}
}

func TestCanvasFormDraft(t *testing.T) {
	f := CanvasConfig{Name: " Mobile ", Width: 390, Unit: "Millimeters"}.FormDraft()
	if f.Name != "Mobile" || f.Width != 390 || f.Height != 900 || f.Unit != domain.UnitMillimeter || f.Background != "#FFFFFF" {
		t.Fatalf("unexpected draft %+v", f)
	}
	if got := (CanvasConfig{Unit: "furlong"}).FormDraft().Unit; got != domain.UnitPixel {
		t.Fatalf("unknown unit got %q want px", got)
	}
}

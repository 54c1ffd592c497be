/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wireframe/internal/domain"
	applog "wireframe/internal/log"
	"wireframe/internal/project"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Export        ExportConfig  `yaml:"export"`
	Library       LibraryConfig `yaml:"library"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	Theme              string `yaml:"theme"` // "system" | "light" | "dark"
	AutosaveIntervalMs int    `yaml:"autosave_interval_ms"`
	AutosaveKeep       int    `yaml:"autosave_keep"`
	RecentMax          int    `yaml:"recent_max"`
}

// CanvasConfig seeds the new-project form.
type CanvasConfig struct {
	Name       string  `yaml:"name"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Unit       string  `yaml:"unit"`
	Background string  `yaml:"background"`
}

type ExportConfig struct {
	PNGScale float64 `yaml:"png_scale"`
	PDFUnit  string  `yaml:"pdf_unit"` // "pt" | "mm"; empty follows the canvas unit
}

// LibraryConfig points at the shared PostgreSQL project library.
type LibraryConfig struct {
	DSN  string `yaml:"dsn"`
	User string `yaml:"user"`
	// Password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Source     bool   `yaml:"source"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", AutosaveIntervalMs: 30000, AutosaveKeep: 20, RecentMax: 10},
		Canvas:        CanvasConfig{Name: "Untitled", Width: 1440, Height: 900, Unit: "px", Background: "#FFFFFF"},
		Export:        ExportConfig{PNGScale: 1},
		Library:       LibraryConfig{},
		Logging:       LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir        = "WF_CONFIG_DIR"
	EnvAutosaveInterval = "WF_AUTOSAVE_INTERVAL_MS"
	EnvLibraryDSN       = "WF_LIBRARY_DSN"
	EnvLibraryPassword  = "WF_LIBRARY_PASSWORD"
	EnvPNGScale         = "WF_PNG_SCALE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "WF_LOG_LEVEL"
	EnvLogFormat = "WF_LOG_FORMAT"
	EnvLogSource = "WF_LOG_SOURCE"
	EnvLogFile   = "WF_LOG_FILE"
)

// ConfigDir returns the per-user directory holding config.yaml and the index.
// WF_CONFIG_DIR takes precedence.
func ConfigDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Wireframe")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Wireframe")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "wireframe")
		} else if h := os.Getenv("HOME"); h != "" {
			base = filepath.Join(h, ".config", "wireframe")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A config file that cannot be parsed is reported but
// the defaults are still returned.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	var perr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			perr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, perr
}

// Save writes the user config YAML to ConfigPath.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.General.Theme); s != "" {
		dst.General.Theme = s
	}
	if src.General.AutosaveIntervalMs != 0 {
		dst.General.AutosaveIntervalMs = src.General.AutosaveIntervalMs
	}
	if src.General.AutosaveKeep > 0 {
		dst.General.AutosaveKeep = src.General.AutosaveKeep
	}
	if src.General.RecentMax > 0 {
		dst.General.RecentMax = src.General.RecentMax
	}
	// canvas
	if s := strings.TrimSpace(src.Canvas.Name); s != "" {
		dst.Canvas.Name = s
	}
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if s := strings.ToLower(strings.TrimSpace(src.Canvas.Unit)); s != "" {
		dst.Canvas.Unit = s
	}
	if s := strings.TrimSpace(src.Canvas.Background); s != "" {
		dst.Canvas.Background = s
	}
	// export
	if src.Export.PNGScale > 0 {
		dst.Export.PNGScale = src.Export.PNGScale
	}
	if s := strings.ToLower(strings.TrimSpace(src.Export.PDFUnit)); s != "" {
		dst.Export.PDFUnit = s
	}
	// library
	if s := strings.TrimSpace(src.Library.DSN); s != "" {
		dst.Library.DSN = s
	}
	if s := strings.TrimSpace(src.Library.User); s != "" {
		dst.Library.User = s
	}
	// logging
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
	if src.Logging.MaxSizeMB > 0 {
		dst.Logging.MaxSizeMB = src.Logging.MaxSizeMB
	}
	if src.Logging.MaxBackups > 0 {
		dst.Logging.MaxBackups = src.Logging.MaxBackups
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAutosaveInterval)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.General.AutosaveIntervalMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLibraryDSN)); v != "" {
		cfg.Library.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPNGScale)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.PNGScale = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

var envKeys = map[string]string{
	"general.autosave_interval_ms": EnvAutosaveInterval,
	"library.dsn":                  EnvLibraryDSN,
	"export.png_scale":             EnvPNGScale,
	"logging.level":                EnvLogLevel,
	"logging.format":               EnvLogFormat,
	"logging.source":               EnvLogSource,
	"logging.file":                 EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}

// AutosaveInterval returns the autosave period; zero or negative disables autosave.
func (g GeneralConfig) AutosaveInterval() time.Duration {
	if g.AutosaveIntervalMs <= 0 {
		return 0
	}
	return time.Duration(g.AutosaveIntervalMs) * time.Millisecond
}

// Options converts the logging section into logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{
		Level:      l.Level,
		Format:     l.Format,
		AddSource:  l.Source,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}
}

// FormDraft seeds the new-project form. Unknown units fall back to the
// default canvas unit.
func (c CanvasConfig) FormDraft() project.FormDraft {
	f := project.DefaultFormDraft()
	if s := strings.TrimSpace(c.Name); s != "" {
		f.Name = s
	}
	if c.Width > 0 {
		f.Width = c.Width
	}
	if c.Height > 0 {
		f.Height = c.Height
	}
	if u, ok := domain.ParseUnit(c.Unit); ok {
		f.Unit = u
	}
	if s := strings.TrimSpace(c.Background); s != "" {
		f.Background = s
	}
	return f
}

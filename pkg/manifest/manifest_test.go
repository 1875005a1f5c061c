// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture manifest: %v", err)
	}
}

func TestLoad_FullManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, `{
		"name": "StateCharts",
		"version": "1.4.0",
		"description": "Hierarchical state machines",
		"author": "comet contributors",
		"license": "MIT",
		"engine_version": "4.2",
		"runtime_version": "8.0",
		"packages": [
			{"name": "System.Reactive", "version": ">=6.0.0"},
			{"name": "Newtonsoft.Json", "version": "13.0.3", "required": false}
		],
		"components": ["Signals", "Timers"],
		"supported_engine_versions": ["4.2", "4.3"],
		"supported_runtime_versions": ["8.0"]
	}`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Name != "StateCharts" {
		t.Errorf("Name = %q, want %q", m.Name, "StateCharts")
	}
	if m.EngineVersion != "4.2" {
		t.Errorf("EngineVersion = %q, want %q", m.EngineVersion, "4.2")
	}
	if len(m.Packages) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(m.Packages))
	}
	if !m.Packages[0].Required {
		t.Error("Required should default to true when absent")
	}
	if m.Packages[1].Required {
		t.Error("explicit required=false must be preserved")
	}
	wantComponents := []string{"Signals", "Timers"}
	for i, want := range wantComponents {
		if m.Components[i] != want {
			t.Errorf("Components[%d] = %q, want %q", i, m.Components[i], want)
		}
	}
	if m.FilePath != Path(dir) {
		t.Errorf("FilePath = %q, want %q", m.FilePath, Path(dir))
	}
}

func TestLoad_MissingFileIsErrNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "Broken",`)

	_, err := Load(dir)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Path != Path(dir) {
		t.Errorf("ParseError.Path = %q, want %q", parseErr.Path, Path(dir))
	}
}

func TestLoad_MissingNameIsParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeManifest(t, dir, `{"version": "1.0.0"}`)

	_, err := Load(dir)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for missing name, got %v", err)
	}
}

func TestParse_MinimalManifest(t *testing.T) {
	t.Parallel()

	m, err := Parse([]byte(`{"name": "Bare"}`), "component_info.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Bare" {
		t.Errorf("Name = %q, want %q", m.Name, "Bare")
	}
	if len(m.Packages) != 0 || len(m.Components) != 0 {
		t.Error("minimal manifest should have no packages or components")
	}
}

// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// makeTarGz builds an in-memory gzipped tarball from path->content pairs.
// Paths ending in "/" become directories.
func makeTarGz(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for path, content := range files {
		if strings.HasSuffix(path, "/") {
			if err := tw.WriteHeader(&tar.Header{
				Name:     path,
				Typeflag: tar.TypeDir,
				Mode:     0o755,
			}); err != nil {
				t.Fatalf("writing dir header: %v", err)
			}
			continue
		}
		if err := tw.WriteHeader(&tar.Header{
			Name:     path,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}); err != nil {
			t.Fatalf("writing file header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing file content: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}

	return &buf
}

func TestExtractTarGz_SingleRoot(t *testing.T) {
	t.Parallel()

	archive := makeTarGz(t, map[string]string{
		"cometkit-components-abc123/":                                    "",
		"cometkit-components-abc123/Component/Signals/component_info.json": `{"name": "Signals"}`,
		"cometkit-components-abc123/Component/Signals/signals.cs":          "// impl",
	})

	dest := t.TempDir()
	if err := extractTarGz(archive, dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root, err := singleRootDir(dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(root) != "cometkit-components-abc123" {
		t.Errorf("root = %q, want the archive's wrapper directory", root)
	}

	data, err := os.ReadFile(filepath.Join(root, "Component", "Signals", "component_info.json"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != `{"name": "Signals"}` {
		t.Errorf("extracted content = %q", string(data))
	}
}

func TestSingleRootDir_Ambiguous(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dirs []string
	}{
		{"no directories", nil},
		{"two directories", []string{"first", "second"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dest := t.TempDir()
			for _, d := range tt.dirs {
				if err := os.Mkdir(filepath.Join(dest, d), 0o755); err != nil {
					t.Fatalf("creating fixture dir: %v", err)
				}
			}

			_, err := singleRootDir(dest)
			if !errors.Is(err, ErrAmbiguousArchive) {
				t.Fatalf("expected ErrAmbiguousArchive, got %v", err)
			}
		})
	}
}

func TestSingleRootDir_IgnoresStrayFiles(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	if err := os.Mkdir(filepath.Join(dest, "wrapper"), 0o755); err != nil {
		t.Fatalf("creating fixture dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dest, "pax_global_header"), []byte("x"), 0o644); err != nil {
		t.Fatalf("creating stray file: %v", err)
	}

	root, err := singleRootDir(dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(root) != "wrapper" {
		t.Errorf("root = %q, want %q", root, "wrapper")
	}
}

func TestExtractTarGz_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	archive := makeTarGz(t, map[string]string{
		"../escape.txt": "evil",
	})

	err := extractTarGz(archive, t.TempDir())
	if err == nil {
		t.Fatal("expected error for path traversal entry")
	}
	if !strings.Contains(err.Error(), "escapes extraction directory") {
		t.Errorf("unexpected error: %v", err)
	}
}

// SPDX-License-Identifier: MPL-2.0

package files

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// writeTree creates files under root from relative path->content pairs.
func writeTree(t *testing.T, root string, tree map[string]string) {
	t.Helper()
	for rel, content := range tree {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating fixture dirs: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing fixture file: %v", err)
		}
	}
}

// readTree returns relative path->content for all files under root.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		tree[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", root, err)
	}
	return tree
}

func TestInstall_CopiesTreeAndSkipsGitMetadata(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"component_info.json":   `{"name": "Signals"}`,
		"src/signals.cs":        "// impl",
		".git/config":           "should not be copied",
		"nested/.git/whatever":  "should not be copied either",
		"nested/keep.cs":        "// keep",
	})

	project := t.TempDir()
	target, err := Install(src, "Signals", project, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if target != TargetDir(project, "Signals") {
		t.Errorf("target = %q, want %q", target, TargetDir(project, "Signals"))
	}

	got := readTree(t, target)
	want := map[string]string{
		"component_info.json": `{"name": "Signals"}`,
		filepath.Join("src", "signals.cs"):   "// impl",
		filepath.Join("nested", "keep.cs"):   "// keep",
	}
	if len(got) != len(want) {
		t.Fatalf("installed tree has %d files, want %d: %v", len(got), len(want), got)
	}
	for rel, content := range want {
		if got[rel] != content {
			t.Errorf("file %s = %q, want %q", rel, got[rel], content)
		}
	}
}

func TestInstall_ExistingTargetWithoutForce(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"new.cs": "// new"})

	project := t.TempDir()
	existing := TargetDir(project, "Signals")
	writeTree(t, existing, map[string]string{"old.cs": "// old"})
	before := readTree(t, existing)

	_, err := Install(src, "Signals", project, false)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// The existing target must be byte-for-byte untouched.
	after := readTree(t, existing)
	if len(after) != len(before) {
		t.Fatalf("target was modified: %v", after)
	}
	for rel, content := range before {
		if after[rel] != content {
			t.Errorf("file %s changed from %q to %q", rel, content, after[rel])
		}
	}
}

func TestInstall_StatFailureIsSurfaced(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"new.cs": "// new"})

	// addons is a regular file, so the target path cannot be stat'd for a
	// reason other than non-existence (ENOTDIR).
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, AddonsDirName), []byte("in the way"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := Install(src, "Signals", project, false)
	if err == nil {
		t.Fatal("expected an error when the target cannot be stat'd")
	}
	if errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("stat failure must not be reported as ErrAlreadyExists: %v", err)
	}
	if !strings.Contains(err.Error(), "checking install target") {
		t.Errorf("error should name the stat failure, got: %v", err)
	}
}

func TestInstall_ForceReplacesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"component_info.json": `{"name": "Signals"}`,
		"signals.cs":          "// v2",
	})

	project := t.TempDir()
	existing := TargetDir(project, "Signals")
	writeTree(t, existing, map[string]string{"stale.cs": "// v1 leftover"})

	first, err := Install(src, "Signals", project, true)
	if err != nil {
		t.Fatalf("first force install: %v", err)
	}
	firstTree := readTree(t, first)

	if _, ok := firstTree["stale.cs"]; ok {
		t.Error("force install must remove stale files from the previous version")
	}

	second, err := Install(src, "Signals", project, true)
	if err != nil {
		t.Fatalf("second force install: %v", err)
	}
	secondTree := readTree(t, second)

	if len(firstTree) != len(secondTree) {
		t.Fatalf("re-install changed the tree: %v vs %v", firstTree, secondTree)
	}
	for rel, content := range firstTree {
		if secondTree[rel] != content {
			t.Errorf("file %s differs between installs", rel)
		}
	}
}

func TestInstallExamples_MissingSourceIsNotAnError(t *testing.T) {
	t.Parallel()

	target, err := InstallExamples(filepath.Join(t.TempDir(), "absent"), "Signals", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target != "" {
		t.Errorf("target = %q, want empty for missing examples", target)
	}
}

func TestInstallExamples_CopiesTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"demo.cs": "// demo"})

	project := t.TempDir()
	target, err := InstallExamples(src, "Signals", project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(project, ExamplesDirName, "Signals")
	if target != want {
		t.Errorf("target = %q, want %q", target, want)
	}
	if _, err := os.Stat(filepath.Join(target, "demo.cs")); err != nil {
		t.Errorf("example file missing: %v", err)
	}
}

func TestInstalledComponents(t *testing.T) {
	t.Parallel()

	project := t.TempDir()

	// No addons dir yet.
	names, err := InstalledComponents(project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names != nil {
		t.Errorf("expected nil for missing addons dir, got %v", names)
	}

	writeTree(t, AddonsDir(project), map[string]string{
		"Signals/component_info.json": "{}",
		"Timers/component_info.json":  "{}",
		"notes.txt":                   "not a component",
	})

	names, err = InstalledComponents(project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Strings(names)
	want := []string{"Signals", "Timers"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

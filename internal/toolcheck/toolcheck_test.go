// SPDX-License-Identifier: MPL-2.0

package toolcheck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newFakeChecker wires a Checker against canned PATH lookups and version
// output so tests never touch the host toolchain.
func newFakeChecker(onPath map[string]bool, versions map[string]string) *Checker {
	return &Checker{
		look: func(name string) (string, error) {
			if onPath[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("executable file not found in $PATH")
		},
		run: func(_ context.Context, name string, _ ...string) ([]byte, error) {
			return []byte(versions[name]), nil
		},
	}
}

func findCheck(t *testing.T, res *Result, name string) Check {
	t.Helper()
	for _, c := range res.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %+v", name, res.Checks)
	return Check{}
}

func TestRun_AllChecksPass(t *testing.T) {
	t.Parallel()

	checker := newFakeChecker(
		map[string]bool{"git": true, "dotnet": true},
		map[string]string{"git": "git version 2.39.2\n", "dotnet": "8.0.100\n"},
	)

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "Game.csproj"), nil, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	res := checker.Run(context.Background(), project)
	if !res.OK() {
		t.Fatalf("expected all checks to pass: %+v", res.Checks)
	}

	if got := findCheck(t, res, "git").Version; got != "2.39.2" {
		t.Errorf("git version = %q, want 2.39.2", got)
	}
	if got := findCheck(t, res, "dotnet").Version; got != "8.0.100" {
		t.Errorf("dotnet version = %q, want 8.0.100", got)
	}
}

func TestRun_MissingTool(t *testing.T) {
	t.Parallel()

	checker := newFakeChecker(
		map[string]bool{"git": true},
		map[string]string{"git": "git version 2.39.2"},
	)

	res := checker.Run(context.Background(), "")
	if res.OK() {
		t.Fatal("expected failure when dotnet is missing")
	}

	c := findCheck(t, res, "dotnet")
	if c.OK {
		t.Error("dotnet check should fail")
	}
	if !strings.Contains(c.Detail, "not found in PATH") {
		t.Errorf("Detail = %q", c.Detail)
	}

	// git still checked and passing; one failure must not hide the rest.
	if !findCheck(t, res, "git").OK {
		t.Error("git check should pass independently")
	}
}

func TestRun_ToolTooOld(t *testing.T) {
	t.Parallel()

	checker := newFakeChecker(
		map[string]bool{"git": true, "dotnet": true},
		map[string]string{"git": "git version 2.17.1", "dotnet": "8.0.100"},
	)

	res := checker.Run(context.Background(), "")
	c := findCheck(t, res, "git")
	if c.OK {
		t.Fatal("git 2.17.1 should fail the minimum version check")
	}
	if c.Version != "2.17.1" {
		t.Errorf("Version = %q, want 2.17.1", c.Version)
	}
	if !strings.Contains(c.Detail, MinGitVersion) {
		t.Errorf("Detail should name the required version, got %q", c.Detail)
	}
}

func TestRun_UnparseableVersionOutput(t *testing.T) {
	t.Parallel()

	checker := newFakeChecker(
		map[string]bool{"git": true, "dotnet": true},
		map[string]string{"git": "git version 2.39.2", "dotnet": "A fatal error occurred"},
	)

	res := checker.Run(context.Background(), "")
	c := findCheck(t, res, "dotnet")
	if c.OK {
		t.Fatal("unparseable version output must fail closed")
	}
	if !strings.Contains(c.Detail, "could not parse") {
		t.Errorf("Detail = %q", c.Detail)
	}
}

func TestRun_MissingProjectDescriptor(t *testing.T) {
	t.Parallel()

	checker := newFakeChecker(
		map[string]bool{"git": true, "dotnet": true},
		map[string]string{"git": "git version 2.39.2", "dotnet": "8.0.100"},
	)

	res := checker.Run(context.Background(), t.TempDir())
	c := findCheck(t, res, "project")
	if c.OK {
		t.Fatal("project check should fail without a .csproj")
	}
	if !strings.Contains(c.Detail, ".csproj") {
		t.Errorf("Detail should name the descriptor, got %q", c.Detail)
	}
}

func TestRun_NoProjectPathSkipsDescriptorCheck(t *testing.T) {
	t.Parallel()

	checker := newFakeChecker(
		map[string]bool{"git": true, "dotnet": true},
		map[string]string{"git": "git version 2.39.2", "dotnet": "8.0.100"},
	)

	res := checker.Run(context.Background(), "")
	if len(res.Checks) != 2 {
		t.Fatalf("expected 2 checks without a project path, got %d", len(res.Checks))
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package dotnet shells out to the dotnet CLI: adding NuGet package
// references to the target project and triggering builds after an install.
package dotnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"comet-cli/pkg/manifest"

	"github.com/charmbracelet/log"
)

// ErrNoProjectFile is returned when the target project contains no .csproj
// descriptor anywhere in its tree.
var ErrNoProjectFile = errors.New("no .csproj project file found")

type (
	// runner executes an external command and returns its combined output.
	// It is a seam so tests can run without the dotnet SDK installed.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)

	// Tool wraps dotnet CLI invocations.
	Tool struct {
		run    runner
		logger *log.Logger
	}

	// BuildError carries the build tool's output. Callers treat it as a
	// warning-level condition, not an install failure.
	BuildError struct {
		Output string
		Err    error
	}
)

// Error formats the build failure with the tool output when present.
func (e *BuildError) Error() string {
	msg := fmt.Sprintf("dotnet build failed: %v", e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// New creates a Tool that invokes the real dotnet CLI.
func New(logger *log.Logger) *Tool {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Tool{
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
		logger: logger,
	}
}

// FindProjectFile locates the target project's .csproj descriptor. The tree
// is walked recursively and candidates are sorted lexicographically by path
// so the choice is deterministic across filesystems; the first candidate
// wins.
func FindProjectFile(projectPath string) (string, error) {
	var candidates []string

	err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".csproj") {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching for project file in %s: %w", projectPath, err)
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoProjectFile, projectPath)
	}

	sort.Strings(candidates)
	return candidates[0], nil
}

// AddPackage adds one NuGet package reference to the given project file.
// A ">=" prefix on the declared version is stripped; the remainder is passed
// through as an exact pin.
func (t *Tool) AddPackage(ctx context.Context, projectFile string, pkg manifest.Package) error {
	args := []string{"add", projectFile, "package", pkg.Name}
	if v := strings.TrimPrefix(pkg.Version, ">="); v != "" {
		args = append(args, "--version", v)
	}

	t.logger.Debug("adding package", "package", pkg.Name, "version", pkg.Version)

	out, err := t.run(ctx, "dotnet", args...)
	if err != nil {
		return fmt.Errorf("dotnet add package %s: %v\n%s", pkg.Name, err, strings.TrimSpace(string(out)))
	}

	return nil
}

// InstallPackages adds every required package to the target project's
// descriptor. The descriptor lookup is skipped entirely when no package is
// required. Individual package failures are demoted to warnings and do not
// stop the remaining packages; a missing descriptor is a real error.
func (t *Tool) InstallPackages(ctx context.Context, projectPath string, pkgs []manifest.Package) ([]string, error) {
	var required []manifest.Package
	for _, p := range pkgs {
		if p.Required {
			required = append(required, p)
		}
	}
	if len(required) == 0 {
		return nil, nil
	}

	projectFile, err := FindProjectFile(projectPath)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, p := range required {
		if err := t.AddPackage(ctx, projectFile, p); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	return warnings, nil
}

// Build runs dotnet build in the target project directory.
func (t *Tool) Build(ctx context.Context, projectPath string) error {
	t.logger.Debug("building project", "path", projectPath)

	out, err := t.run(ctx, "dotnet", "build", projectPath)
	if err != nil {
		return &BuildError{Output: string(out), Err: err}
	}

	return nil
}

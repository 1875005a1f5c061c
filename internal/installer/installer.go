// SPDX-License-Identifier: MPL-2.0

// Package installer drives the recursive component installation walk: fetch
// a component, install its declared sibling dependencies depth-first, add
// its NuGet packages, then copy its files into the target project.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"comet-cli/internal/files"
	"comet-cli/internal/repo"
	"comet-cli/pkg/manifest"

	"github.com/charmbracelet/log"
)

// ErrManifestRequired is returned when the top-level requested component has
// no manifest. A missing manifest on a transitive dependency is only a
// warning: the dependency installs with no dependency information.
var ErrManifestRequired = errors.New("component has no manifest")

type (
	// Source produces a fresh checkout containing the named component.
	Source interface {
		Fetch(ctx context.Context, component string) (*repo.Checkout, error)
	}

	// PackageManager installs a component's package dependencies into the
	// target project, returning per-package warnings.
	PackageManager interface {
		InstallPackages(ctx context.Context, projectPath string, pkgs []manifest.Package) ([]string, error)
	}

	// Request describes one top-level install invocation.
	Request struct {
		Component   string
		ProjectPath string
		// Force overwrites existing component directories.
		Force bool
		// SkipDependencies installs only the named component: no sibling
		// components, no packages.
		SkipDependencies bool
		// InstallExamples copies the component's example tree. Examples
		// are installed for the requested component only, never for
		// transitive dependencies.
		InstallExamples bool
	}

	// CycleError indicates a component depends on itself through its
	// declared dependency chain.
	CycleError struct {
		Name string
	}

	// Report summarizes one install invocation for presentation by the
	// caller. The installer itself never prints.
	Report struct {
		// Installed lists components in installation order; the requested
		// component is always last.
		Installed []string
		// Skipped lists components that were reached again through a
		// second dependency path and not reinstalled.
		Skipped []string
		// PackageWarnings collects non-fatal package installation
		// failures across all components.
		PackageWarnings []string
		// ExamplesDir is where examples were installed, when requested
		// and present.
		ExamplesDir string
		// Root is the requested component's manifest.
		Root *manifest.Manifest
	}

	// Installer owns the recursive walk. Not safe for concurrent use; one
	// Installer serves one invocation at a time.
	Installer struct {
		source   Source
		packages PackageManager
		logger   *log.Logger
	}

	// state is the per-invocation bookkeeping. visiting guards the active
	// recursion path against cycles; installed prevents reinstalling a
	// component reached through two independent dependency paths.
	state struct {
		visiting  map[string]bool
		installed map[string]bool
		report    *Report
	}
)

// Error implements the error interface for CycleError.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %q depends on itself", e.Name)
}

// New creates an Installer.
func New(source Source, packages PackageManager, logger *log.Logger) *Installer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Installer{
		source:   source,
		packages: packages,
		logger:   logger,
	}
}

// Install fetches and installs the requested component and, unless
// SkipDependencies is set, its full dependency subtree in depth-first,
// declaration order. A failure anywhere aborts the whole operation; only
// individual package installs are demoted to warnings. The returned Report
// is valid even on error and describes what completed.
func (i *Installer) Install(ctx context.Context, req Request) (*Report, error) {
	st := &state{
		visiting:  make(map[string]bool),
		installed: make(map[string]bool),
		report:    &Report{},
	}

	err := i.installComponent(ctx, req.Component, req, st, true)
	return st.report, err
}

// installComponent installs one component after its dependency subtree.
// root marks the top-level requested component, which has stricter manifest
// requirements and is the only one whose examples are installed.
func (i *Installer) installComponent(ctx context.Context, name string, req Request, st *state, root bool) error {
	if st.visiting[name] {
		return &CycleError{Name: name}
	}
	if st.installed[name] {
		i.logger.Debug("already installed this run", "component", name)
		st.report.Skipped = append(st.report.Skipped, name)
		return nil
	}

	st.visiting[name] = true
	defer delete(st.visiting, name)

	co, err := i.source.Fetch(ctx, name)
	if err != nil {
		return fmt.Errorf("fetching component %s: %w", name, err)
	}
	// Each recursive call owns its checkout; the temp directory is removed
	// on every exit path, not just at the end of the top-level invocation.
	defer co.Cleanup()

	man, err := manifest.Load(co.ComponentDir)
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		if root {
			return fmt.Errorf("%w: %s", ErrManifestRequired, name)
		}
		// A dependency without a manifest installs with no dependency or
		// package information.
		i.logger.Warn("dependency has no manifest, installing files only", "component", name)
		man = &manifest.Manifest{Name: name}
	case err != nil:
		return err
	}

	if !req.SkipDependencies {
		for _, dep := range man.Components {
			if err := i.installComponent(ctx, dep, req, st, false); err != nil {
				return fmt.Errorf("installing dependency %s of %s: %w", dep, name, err)
			}
		}

		warnings, pkgErr := i.packages.InstallPackages(ctx, req.ProjectPath, man.Packages)
		if pkgErr != nil {
			return fmt.Errorf("installing packages for %s: %w", name, pkgErr)
		}
		st.report.PackageWarnings = append(st.report.PackageWarnings, warnings...)
	}

	if _, err := files.Install(co.ComponentDir, name, req.ProjectPath, req.Force); err != nil {
		return err
	}

	if root && req.InstallExamples {
		exampleSrc := filepath.Join(co.Root, repo.ExampleDirName, name)
		dir, exErr := files.InstallExamples(exampleSrc, name, req.ProjectPath)
		if exErr != nil {
			return exErr
		}
		if dir == "" {
			i.logger.Debug("no examples published for component", "component", name)
		}
		st.report.ExamplesDir = dir
	}

	st.installed[name] = true
	st.report.Installed = append(st.report.Installed, name)
	if root {
		st.report.Root = man
	}

	return nil
}

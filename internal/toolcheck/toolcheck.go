// SPDX-License-Identifier: MPL-2.0

// Package toolcheck verifies the host environment has the external tools an
// install needs: git for cloning and the dotnet SDK for package installs and
// builds, each at a minimum version.
package toolcheck

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"comet-cli/internal/dotnet"
	"comet-cli/internal/version"
)

// Minimum tool versions. git needs --single-branch shallow clone behavior
// that stabilized in 2.20; components target .NET 6 or newer SDKs.
const (
	MinGitVersion    = "2.20.0"
	MinDotnetVersion = "6.0.0"
)

// versionPattern extracts the leading dotted version number from tool
// output such as "git version 2.39.2" or "8.0.100".
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

type (
	// lookPath reports whether a binary is on PATH. Seam for tests.
	lookPath func(name string) (string, error)

	// runner executes a command and returns its combined output. Seam for
	// tests.
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)

	// Check is the outcome for a single requirement.
	Check struct {
		Name    string
		OK      bool
		Version string
		Detail  string
	}

	// Result aggregates all environment checks.
	Result struct {
		Checks []Check
	}

	// Checker runs environment checks against the host.
	Checker struct {
		look lookPath
		run  runner
	}
)

// OK reports whether every check passed.
func (r *Result) OK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// NewChecker creates a Checker backed by the real host PATH.
func NewChecker() *Checker {
	return &Checker{
		look: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Run checks git and dotnet availability and versions. When projectPath is
// non-empty it additionally checks that the project carries a .csproj
// descriptor. All checks run even after a failure so the result names every
// problem at once.
func (c *Checker) Run(ctx context.Context, projectPath string) *Result {
	res := &Result{}

	res.Checks = append(res.Checks,
		c.checkTool(ctx, "git", []string{"--version"}, MinGitVersion),
		c.checkTool(ctx, "dotnet", []string{"--version"}, MinDotnetVersion),
	)

	if projectPath != "" {
		res.Checks = append(res.Checks, checkProjectDescriptor(projectPath))
	}

	return res
}

// checkTool verifies one binary is on PATH and at least minVersion.
func (c *Checker) checkTool(ctx context.Context, name string, versionArgs []string, minVersion string) Check {
	if _, err := c.look(name); err != nil {
		return Check{
			Name:   name,
			Detail: fmt.Sprintf("%s not found in PATH", name),
		}
	}

	out, err := c.run(ctx, name, versionArgs...)
	if err != nil {
		return Check{
			Name:   name,
			Detail: fmt.Sprintf("%s %s failed: %v", name, strings.Join(versionArgs, " "), err),
		}
	}

	got := versionPattern.FindString(string(out))
	if got == "" {
		return Check{
			Name:   name,
			Detail: fmt.Sprintf("could not parse %s version from %q", name, strings.TrimSpace(string(out))),
		}
	}

	if !version.AtLeast(got, minVersion) {
		return Check{
			Name:    name,
			Version: got,
			Detail:  fmt.Sprintf("%s %s is older than required %s", name, got, minVersion),
		}
	}

	return Check{Name: name, OK: true, Version: got}
}

// checkProjectDescriptor verifies the target project has a .csproj file
// somewhere in its tree.
func checkProjectDescriptor(projectPath string) Check {
	file, err := dotnet.FindProjectFile(projectPath)
	if err != nil {
		return Check{
			Name:   "project",
			Detail: err.Error(),
		}
	}
	return Check{Name: "project", OK: true, Detail: file}
}

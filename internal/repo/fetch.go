// SPDX-License-Identifier: MPL-2.0

// Package repo fetches component sources from the remote components
// repository, either as a shallow branch checkout (git) or as the latest
// release tarball (GitHub API).
package repo

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultBranch is the branch fetched when none is configured.
const DefaultBranch = "main"

type (
	// CloneError wraps a failed git clone with the tool's output.
	CloneError struct {
		Repo   string
		Branch string
		Output string
		Err    error
	}

	// ComponentNotFoundError indicates the repository was fetched but does
	// not contain Component/<Name>.
	ComponentNotFoundError struct {
		Name string
		Repo string
	}

	// Checkout is one fetched copy of the repository. The temp directory is
	// exclusively owned by the Checkout; Cleanup must run on every exit
	// path, success or failure.
	Checkout struct {
		// Root is the repository root inside the temp directory.
		Root string
		// ComponentDir is Root/Component/<name>.
		ComponentDir string

		tempDir string
	}

	// Fetcher produces Checkouts for named components.
	Fetcher struct {
		client *Client
		logger *log.Logger

		// Branch fetched in clone mode. Defaults to DefaultBranch.
		Branch string
		// FromRelease switches to downloading the latest release tarball
		// instead of cloning the branch.
		FromRelease bool

		// gitBin is the git executable, a seam for tests.
		gitBin string
	}
)

// Error formats the clone failure with the git output when present.
func (e *CloneError) Error() string {
	msg := fmt.Sprintf("cloning %s (branch %s): %v", e.Repo, e.Branch, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Unwrap returns the underlying exec error.
func (e *CloneError) Unwrap() error {
	return e.Err
}

// Error implements the error interface for ComponentNotFoundError.
func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found in %s", e.Name, e.Repo)
}

// Cleanup removes the checkout's temp directory. Safe to call more than once.
func (c *Checkout) Cleanup() {
	if c.tempDir == "" {
		return
	}
	_ = os.RemoveAll(c.tempDir)
	c.tempDir = ""
}

// NewFetcher creates a Fetcher over the given API client.
func NewFetcher(client *Client, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{
		client: client,
		logger: logger,
		Branch: DefaultBranch,
		gitBin: "git",
	}
}

// Fetch obtains a fresh copy of the repository and locates the named
// component inside it. The returned Checkout owns a temp directory that the
// caller must Cleanup. A single network or tool failure is terminal; there
// are no retries.
func (f *Fetcher) Fetch(ctx context.Context, component string) (*Checkout, error) {
	tempDir, err := os.MkdirTemp("", "comet-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	co := &Checkout{tempDir: tempDir}

	if f.FromRelease {
		co.Root, err = f.fetchRelease(ctx, tempDir)
	} else {
		co.Root, err = f.cloneBranch(ctx, tempDir)
	}
	if err != nil {
		co.Cleanup()
		return nil, err
	}

	componentDir := filepath.Join(co.Root, ComponentDirName, component)
	info, statErr := os.Stat(componentDir)
	if statErr != nil || !info.IsDir() {
		co.Cleanup()
		return nil, &ComponentNotFoundError{Name: component, Repo: f.client.Slug()}
	}
	co.ComponentDir = componentDir

	return co, nil
}

// cloneBranch performs a depth-1 single-branch clone into dir and returns
// the repository root.
func (f *Fetcher) cloneBranch(ctx context.Context, dir string) (string, error) {
	branch := f.Branch
	if branch == "" {
		branch = DefaultBranch
	}

	dst := filepath.Join(dir, "repo")
	url := fmt.Sprintf("https://github.com/%s.git", f.client.Slug())

	// The clone gets the same deadline as API requests; a stalled remote
	// must not hang the install.
	if t := f.client.Timeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	f.logger.Debug("cloning branch", "repo", f.client.Slug(), "branch", branch)

	cmd := exec.CommandContext(ctx, f.gitBin, "clone", "--depth", "1", "--branch", branch, "--single-branch", url, dst)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &CloneError{Repo: f.client.Slug(), Branch: branch, Output: string(out), Err: err}
	}

	return dst, nil
}

// fetchRelease downloads and extracts the latest release tarball into dir
// and returns the single extracted root directory.
func (f *Fetcher) fetchRelease(ctx context.Context, dir string) (string, error) {
	release, err := f.client.LatestRelease(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving latest release of %s: %w", f.client.Slug(), err)
	}

	f.logger.Debug("downloading release", "repo", f.client.Slug(), "tag", release.TagName)

	body, err := f.client.Download(ctx, release.TarballURL)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	extractDir := filepath.Join(dir, "release")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}

	if err := extractTarGz(body, extractDir); err != nil {
		return "", fmt.Errorf("extracting release %s: %w", release.TagName, err)
	}

	root, err := singleRootDir(extractDir)
	if err != nil {
		return "", fmt.Errorf("release %s: %w", release.TagName, err)
	}

	return root, nil
}

// SPDX-License-Identifier: MPL-2.0

// Package files copies fetched component trees into a target project.
// All components install under addons/<namespace>/<component>; examples
// install under example/<component> when requested.
package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// Namespace is the fixed subdirectory under addons/ where every
	// component is installed.
	Namespace = "comet"

	// AddonsDirName is the target project's addon directory.
	AddonsDirName = "addons"

	// ExamplesDirName is the target project's example directory.
	ExamplesDirName = "example"
)

// ErrAlreadyExists is returned when the target directory exists and force
// was not requested. The existing target is left untouched.
var ErrAlreadyExists = errors.New("target directory already exists")

// AddonsDir returns <projectPath>/addons/<namespace>.
func AddonsDir(projectPath string) string {
	return filepath.Join(projectPath, AddonsDirName, Namespace)
}

// TargetDir returns the install destination for a component.
func TargetDir(projectPath, component string) string {
	return filepath.Join(AddonsDir(projectPath), component)
}

// Install copies a component's source tree into the target project and
// returns the destination directory. With force, an existing target is
// removed first; without it, an existing target fails with ErrAlreadyExists.
// A copy failure aborts immediately and may leave a partially populated
// target - there is no rollback.
func Install(srcDir, component, projectPath string, force bool) (string, error) {
	target := TargetDir(projectPath, component)

	switch _, err := os.Stat(target); {
	case err == nil:
		if !force {
			return "", fmt.Errorf("%w: %s (use --force to overwrite)", ErrAlreadyExists, target)
		}
		if err := os.RemoveAll(target); err != nil {
			return "", fmt.Errorf("removing existing target %s: %w", target, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("checking install target %s: %w", target, err)
	}

	if err := copyTree(srcDir, target); err != nil {
		return "", fmt.Errorf("installing %s: %w", component, err)
	}

	return target, nil
}

// InstallExamples copies <repoRoot>/Example/<component> into
// <projectPath>/example/<component>. A missing example tree is not an
// error; the returned path is empty in that case. Existing example files
// are overwritten.
func InstallExamples(exampleSrc, component, projectPath string) (string, error) {
	info, err := os.Stat(exampleSrc)
	if err != nil || !info.IsDir() {
		return "", nil
	}

	target := filepath.Join(projectPath, ExamplesDirName, component)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("removing existing examples %s: %w", target, err)
	}
	if err := copyTree(exampleSrc, target); err != nil {
		return "", fmt.Errorf("installing examples for %s: %w", component, err)
	}

	return target, nil
}

// InstalledComponents lists the component names present under the project's
// addon namespace, sorted by os.ReadDir's lexical order.
func InstalledComponents(projectPath string) ([]string, error) {
	entries, err := os.ReadDir(AddonsDir(projectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", AddonsDir(projectPath), err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	return names, nil
}

// copyTree recursively copies src into dst, preserving relative paths and
// file modes. Version-control metadata directories and symlinks are skipped.
func copyTree(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if err := copyTree(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath, info.Mode().Perm()); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyFile copies a single file.
func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}

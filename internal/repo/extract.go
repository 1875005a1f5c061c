// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxFileBytes caps any single extracted file (500 MB) to guard against
// decompression bombs in release tarballs.
const maxFileBytes = 500 << 20

// ErrAmbiguousArchive is returned when an extracted release archive does not
// contain exactly one top-level directory. GitHub source tarballs always wrap
// the tree in a single "<owner>-<repo>-<sha>" directory; anything else means
// the download is not a source snapshot we understand.
var ErrAmbiguousArchive = errors.New("archive does not contain exactly one top-level directory")

// extractTarGz extracts a gzipped tarball into destDir. Entry paths are
// cleaned and must stay inside destDir; symlinks and other special entries
// are skipped.
func extractTarGz(r io.Reader, destDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }() // read-only stream

	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}
		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}

		target, pathErr := securePath(destDir, hdr.Name)
		if pathErr != nil {
			return pathErr
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Symlinks, devices, and the pax global header are irrelevant
			// to a source snapshot.
			continue
		}
	}

	return nil
}

// writeEntry writes one regular file from the tar stream.
func writeEntry(tr *tar.Reader, target string, mode os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating parent directory for %s: %w", target, err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("creating file %s: %w", target, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(f, io.LimitReader(tr, maxFileBytes)); err != nil {
		return fmt.Errorf("extracting %s: %w", target, err)
	}

	return nil
}

// securePath joins an archive entry name onto destDir, rejecting entries
// that would escape it.
func securePath(destDir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return filepath.Join(destDir, cleaned), nil
}

// singleRootDir returns the sole top-level directory in dir. Stray files at
// the archive root (e.g. pax headers materialized by other tools) are
// ignored; zero or multiple directories yield ErrAmbiguousArchive.
func singleRootDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading extraction directory: %w", err)
	}

	var roots []string
	for _, e := range entries {
		if e.IsDir() {
			roots = append(roots, e.Name())
		}
	}

	if len(roots) != 1 {
		return "", fmt.Errorf("%w: found %d", ErrAmbiguousArchive, len(roots))
	}

	return filepath.Join(dir, roots[0]), nil
}

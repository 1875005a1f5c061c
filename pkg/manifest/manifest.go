// SPDX-License-Identifier: MPL-2.0

// Package manifest reads per-component metadata from component_info.json.
// The manifest is analogous to a go.mod file: it declares the component's
// identity, the engine and runtime versions it targets, the NuGet packages
// it needs, and the sibling components it depends on.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the manifest file expected at the root of every component
// directory in the remote repository.
const FileName = "component_info.json"

// ErrNotFound is returned when a component directory has no manifest.
// Callers decide severity: the top-level requested component must have one,
// a transitive dependency merely installs without dependency information.
var ErrNotFound = errors.New("component_info.json not found")

type (
	// Package declares a NuGet package dependency of a component.
	Package struct {
		// Name is the NuGet package identifier.
		Name string
		// Version is the pinned version, without any ">=" prefix.
		// Empty means "whatever the package manager resolves".
		Version string
		// Required controls whether the installer adds the package.
		// Defaults to true when absent from the manifest.
		Required bool
	}

	// Manifest is the parsed, immutable metadata of one component.
	Manifest struct {
		Name           string
		Version        string
		Description    string
		Author         string
		License        string
		EngineVersion  string
		RuntimeVersion string
		// Packages are NuGet dependencies in declaration order.
		Packages []Package
		// Components are sibling component names this component depends
		// on, installed in declaration order before this component.
		Components []string
		// SupportedEngineVersions lists engine versions the component has
		// been verified against (informational).
		SupportedEngineVersions []string
		// SupportedRuntimeVersions lists runtime versions the component
		// has been verified against (informational).
		SupportedRuntimeVersions []string
		// FilePath is where this manifest was loaded from (not in JSON).
		FilePath string
	}

	// ParseError indicates a manifest file exists but could not be decoded
	// or violates a structural invariant.
	ParseError struct {
		Path string
		Err  error
	}

	// wire types mirror the JSON shape. Required is a *bool so an absent
	// field can be distinguished from an explicit false.
	packageJSON struct {
		Name     string `json:"name"`
		Version  string `json:"version,omitempty"`
		Required *bool  `json:"required,omitempty"`
	}

	manifestJSON struct {
		Name                     string        `json:"name"`
		Version                  string        `json:"version,omitempty"`
		Description              string        `json:"description,omitempty"`
		Author                   string        `json:"author,omitempty"`
		License                  string        `json:"license,omitempty"`
		EngineVersion            string        `json:"engine_version,omitempty"`
		RuntimeVersion           string        `json:"runtime_version,omitempty"`
		Packages                 []packageJSON `json:"packages,omitempty"`
		Components               []string      `json:"components,omitempty"`
		SupportedEngineVersions  []string      `json:"supported_engine_versions,omitempty"`
		SupportedRuntimeVersions []string      `json:"supported_runtime_versions,omitempty"`
	}
)

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Path returns the manifest path inside a component directory.
func Path(componentDir string) string {
	return filepath.Join(componentDir, FileName)
}

// Load reads the manifest from a component directory. It returns ErrNotFound
// when the file is absent and a ParseError when it is present but malformed.
// Structural fields are never defaulted; a manifest without a name is
// malformed. The per-package Required flag defaults to true when absent.
func Load(componentDir string) (*Manifest, error) {
	path := Path(componentDir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNotFound, componentDir)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	return Parse(data, path)
}

// Parse decodes manifest content. path is used for error reporting and
// recorded in the returned Manifest.
func Parse(data []byte, path string) (*Manifest, error) {
	var raw manifestJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if raw.Name == "" {
		return nil, &ParseError{Path: path, Err: errors.New("missing required field \"name\"")}
	}

	m := &Manifest{
		Name:                     raw.Name,
		Version:                  raw.Version,
		Description:              raw.Description,
		Author:                   raw.Author,
		License:                  raw.License,
		EngineVersion:            raw.EngineVersion,
		RuntimeVersion:           raw.RuntimeVersion,
		Components:               raw.Components,
		SupportedEngineVersions:  raw.SupportedEngineVersions,
		SupportedRuntimeVersions: raw.SupportedRuntimeVersions,
		FilePath:                 path,
	}

	for _, p := range raw.Packages {
		required := true
		if p.Required != nil {
			required = *p.Required
		}
		m.Packages = append(m.Packages, Package{
			Name:     p.Name,
			Version:  p.Version,
			Required: required,
		})
	}

	return m, nil
}

// SPDX-License-Identifier: MPL-2.0

// Package version compares dot-separated version strings as reported by
// component manifests and external tools. These are plain numeric versions
// ("2.39.2", "8.0"), not full semver - no prerelease or build metadata.
package version

import (
	"strconv"
	"strings"
)

// AtLeast reports whether actual satisfies the minimum version required.
// Both strings are split on "." and compared field by field as integers,
// for as many fields as required has. A field missing from actual counts
// as 0, so AtLeast("7.0", "7.0.0") is true. Any field that does not parse
// as an integer fails the comparison - malformed input is "requirement not
// met", never a panic.
func AtLeast(actual, required string) bool {
	actualFields := strings.Split(actual, ".")
	requiredFields := strings.Split(required, ".")

	for i, reqField := range requiredFields {
		req, err := strconv.Atoi(strings.TrimSpace(reqField))
		if err != nil {
			return false
		}

		act := 0
		if i < len(actualFields) {
			act, err = strconv.Atoi(strings.TrimSpace(actualFields[i]))
			if err != nil {
				return false
			}
		}

		if act > req {
			return true
		}
		if act < req {
			return false
		}
	}

	// All compared fields equal; trailing fields in actual are irrelevant.
	return true
}

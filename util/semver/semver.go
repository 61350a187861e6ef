// Copyright 2025 The stellarhw Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package semver implements the subset of semantic versioning needed to compare app versions
// reported by a device.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stellarhw/app-stellar-harness/util/errp"
)

// SemVer is a major.minor.patch version.
type SemVer struct {
	major uint16
	minor uint16
	patch uint16
}

// NewSemVer creates a version from its components.
func NewSemVer(major, minor, patch uint16) *SemVer {
	return &SemVer{major: major, minor: minor, patch: patch}
}

// NewSemVerFromString parses "major.minor.patch", with an optional leading "v".
func NewSemVerFromString(version string) (*SemVer, error) {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return nil, errp.Newf("the string %q is not a valid semantic version", version)
	}
	var numbers [3]uint16
	for i, part := range parts {
		number, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return nil, errp.WithMessagef(errp.WithStack(err), "invalid component %q in %q", part, version)
		}
		numbers[i] = uint16(number)
	}
	return NewSemVer(numbers[0], numbers[1], numbers[2]), nil
}

// Major returns the major component.
func (version *SemVer) Major() uint16 { return version.major }

// Minor returns the minor component.
func (version *SemVer) Minor() uint16 { return version.minor }

// Patch returns the patch component.
func (version *SemVer) Patch() uint16 { return version.patch }

// AtLeast returns whether this version is equal to or newer than the given one.
func (version *SemVer) AtLeast(other *SemVer) bool {
	if version.major != other.major {
		return version.major > other.major
	}
	if version.minor != other.minor {
		return version.minor > other.minor
	}
	return version.patch >= other.patch
}

// String implements fmt.Stringer.
func (version *SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", version.major, version.minor, version.patch)
}

// Package core provides the release model and the version-set query engine.
package core

import (
	"time"

	"github.com/Masterminds/semver/v3"
)

// Release is one published version of a crate.
type Release struct {
	Version     *semver.Version
	Yanked      bool
	PublishedAt time.Time
}

// Major returns the SemVer MAJOR component.
func (r Release) Major() uint64 { return r.Version.Major() }

// Minor returns the SemVer MINOR component.
func (r Release) Minor() uint64 { return r.Version.Minor() }

// Patch returns the SemVer PATCH component.
func (r Release) Patch() uint64 { return r.Version.Patch() }

// String renders the version number, with a marker when the release has
// been yanked.
func (r Release) String() string {
	if r.Yanked {
		return r.Version.String() + " (yanked)"
	}
	return r.Version.String()
}

// VersionSet holds the published releases of one crate and answers
// filter-and-select queries over them. Queries are read-only; every query
// returns nil when no release satisfies its filter, and on ties keeps the
// first-seen maximum so results are deterministic for a fixed input order.
type VersionSet struct {
	releases []Release
}

// NewVersionSet creates a VersionSet from a list of releases. Tests can use
// it to build sets without a network call.
func NewVersionSet(releases []Release) *VersionSet {
	return &VersionSet{releases: releases}
}

// Add appends a release to the set.
func (s *VersionSet) Add(r Release) {
	s.releases = append(s.releases, r)
}

// Releases returns the full list of releases that were found.
func (s *VersionSet) Releases() []Release {
	return s.releases
}

// Len returns the number of releases in the set.
func (s *VersionSet) Len() int {
	return len(s.releases)
}

// anyRelease matches every release.
func anyRelease(Release) bool { return true }

func unyanked(r Release) bool { return !r.Yanked }

func yanked(r Release) bool { return r.Yanked }

// maxByVersion selects the release with the greatest semantic version among
// those matching all filters.
func (s *VersionSet) maxByVersion(filters ...func(Release) bool) *Release {
	var best *Release
	for i := range s.releases {
		r := &s.releases[i]
		if !matches(*r, filters) {
			continue
		}
		if best == nil || r.Version.GreaterThan(best.Version) {
			best = r
		}
	}
	return best
}

// newestByTime selects the most recently published release among those
// matching all filters. Publication order and version order can disagree:
// an old major line may receive a patch after a newer line's release.
func (s *VersionSet) newestByTime(filters ...func(Release) bool) *Release {
	var best *Release
	for i := range s.releases {
		r := &s.releases[i]
		if !matches(*r, filters) {
			continue
		}
		if best == nil || r.PublishedAt.After(best.PublishedAt) {
			best = r
		}
	}
	return best
}

func matches(r Release, filters []func(Release) bool) bool {
	for _, keep := range filters {
		if !keep(r) {
			return false
		}
	}
	return true
}

func hasMajor(major uint64) func(Release) bool {
	return func(r Release) bool { return r.Version.Major() == major }
}

func hasMinor(minor uint64) func(Release) bool {
	return func(r Release) bool { return r.Version.Minor() == minor }
}

// MaxVersion returns *any* max version.
func (s *VersionSet) MaxVersion() *Release {
	return s.maxByVersion(anyRelease)
}

// MaxUnyankedVersion returns the max version that hasn't been yanked.
func (s *VersionSet) MaxUnyankedVersion() *Release {
	return s.maxByVersion(unyanked)
}

// MaxYankedVersion returns the max version that has been yanked.
func (s *VersionSet) MaxYankedVersion() *Release {
	return s.maxByVersion(yanked)
}

// MaxMinorVersion returns *any* max version within the given major line.
// For major = 1, the result satisfies 1.0.0 <= v < 2.0.0.
func (s *VersionSet) MaxMinorVersion(major uint64) *Release {
	return s.maxByVersion(hasMajor(major))
}

// MaxUnyankedMinorVersion returns the max unyanked version within the given
// major line.
func (s *VersionSet) MaxUnyankedMinorVersion(major uint64) *Release {
	return s.maxByVersion(unyanked, hasMajor(major))
}

// MaxYankedMinorVersion returns the max yanked version within the given
// major line.
func (s *VersionSet) MaxYankedMinorVersion(major uint64) *Release {
	return s.maxByVersion(yanked, hasMajor(major))
}

// MaxPatch returns *any* max version within the given major.minor line.
// For major = 1, minor = 2, the result satisfies 1.2.0 <= v < 1.3.0.
func (s *VersionSet) MaxPatch(major, minor uint64) *Release {
	return s.maxByVersion(hasMajor(major), hasMinor(minor))
}

// MaxUnyankedPatch returns the max unyanked version within the given
// major.minor line.
func (s *VersionSet) MaxUnyankedPatch(major, minor uint64) *Release {
	return s.maxByVersion(unyanked, hasMajor(major), hasMinor(minor))
}

// MaxYankedPatch returns the max yanked version within the given
// major.minor line.
func (s *VersionSet) MaxYankedPatch(major, minor uint64) *Release {
	return s.maxByVersion(yanked, hasMajor(major), hasMinor(minor))
}

// NewestVersion returns *any* newest version by publication time.
func (s *VersionSet) NewestVersion() *Release {
	return s.newestByTime(anyRelease)
}

// NewestUnyankedVersion returns the newest unyanked version by publication
// time.
func (s *VersionSet) NewestUnyankedVersion() *Release {
	return s.newestByTime(unyanked)
}

// NewestYankedVersion returns the newest yanked version by publication time.
func (s *VersionSet) NewestYankedVersion() *Release {
	return s.newestByTime(yanked)
}

// CrateSummary is the two-field shortcut the crates.io API reports on the
// top-level crate object.
//
// Deprecated: query a VersionSet instead; the summary cannot distinguish
// yanked releases or constrain by major/minor line.
type CrateSummary struct {
	MaxVersion    *semver.Version
	NewestVersion *semver.Version
}

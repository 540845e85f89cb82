// Package engine holds the domain types shared by every stage of the
// project details engine: versions, package names, module names and
// constraints over them (spec §3).
package engine

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// Version is a (major, minor, patch) triple with a total order.
type Version struct {
	Major, Minor, Patch int64
}

// NewVersion parses a "major.minor.patch" string.
func NewVersion(s string) (Version, error) {
	sv, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) semver() *semver.Version {
	sv, _ := semver.NewVersion(v.String())
	return sv
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than o.
func (v Version) Compare(o Version) int {
	return v.semver().Compare(o.semver())
}

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool {
	return v.Compare(o) < 0
}

// PkgName is an (author, project) pair, case-sensitive, totally ordered.
type PkgName struct {
	Author  string
	Project string
}

func (p PkgName) String() string {
	return p.Author + "/" + p.Project
}

// MarshalText/UnmarshalText let PkgName serve as a JSON object key (used by
// Fingerprint, persisted to artifacts.json).
func (p PkgName) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PkgName) UnmarshalText(b []byte) error {
	s := string(b)
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			p.Author, p.Project = s[:i], s[i+1:]
			return nil
		}
	}
	return fmt.Errorf("invalid package name %q: missing /", s)
}

// Compare gives PkgName a total order: author first, then project.
func (p PkgName) Compare(o PkgName) int {
	if p.Author != o.Author {
		if p.Author < o.Author {
			return -1
		}
		return 1
	}
	switch {
	case p.Project < o.Project:
		return -1
	case p.Project > o.Project:
		return 1
	default:
		return 0
	}
}

// ModuleNameRaw is a dotted module path as it appears in source, e.g. "Html.Attributes".
type ModuleNameRaw string

// ModuleNameCanonical disambiguates a raw module name by the package that exposes it.
type ModuleNameCanonical struct {
	Pkg PkgName
	Raw ModuleNameRaw
}

func (c ModuleNameCanonical) String() string {
	return fmt.Sprintf("%s:%s", c.Pkg, c.Raw)
}

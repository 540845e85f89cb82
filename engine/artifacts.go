package engine

import "sort"

// DependencyInterfaceKind tags whether a DependencyInterface is visible to
// downstream packages.
type DependencyInterfaceKind int

const (
	Public DependencyInterfaceKind = iota
	Private
)

// DependencyInterface is an interface tagged with its visibility to
// downstream consumers (spec §3).
type DependencyInterface struct {
	Kind DependencyInterfaceKind
	Iface Interface
}

// Fingerprint is the exact version assigned to every direct dependency of
// a package during one solve (spec §3). Two Fingerprints are equal iff
// they agree on every package.
type Fingerprint map[PkgName]Version

// Equal reports whether two fingerprints name the same package/version pairs.
func (f Fingerprint) Equal(o Fingerprint) bool {
	if len(f) != len(o) {
		return false
	}
	for p, v := range f {
		ov, ok := o[p]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// sortedKeys returns the fingerprint's packages in a deterministic order,
// for canonical serialization (spec §9 "Deterministic iteration").
func (f Fingerprint) sortedKeys() []PkgName {
	keys := make([]PkgName, 0, len(f))
	for p := range f {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	return keys
}

// Artifacts is the full build product of one dependency package: its
// per-module interfaces plus one merged object graph (spec §3).
type Artifacts struct {
	Ifaces map[ModuleNameRaw]DependencyInterface
	Objs   GlobalGraph
}

// ArtifactCache is what gets persisted to <pkgCache>/<pkg>/<v>/artifacts.json:
// the set of fingerprints this package has successfully built under, plus
// the most recent Artifacts (spec §3).
type ArtifactCache struct {
	Fingerprints []Fingerprint
	Artifacts    Artifacts
}

// HasFingerprint reports whether fp is already recorded as reusable.
func (c *ArtifactCache) HasFingerprint(fp Fingerprint) bool {
	for _, have := range c.Fingerprints {
		if have.Equal(fp) {
			return true
		}
	}
	return false
}

// AddFingerprint accumulates fp into the cache's reusable set (monotone, spec §8).
func (c *ArtifactCache) AddFingerprint(fp Fingerprint) {
	if c.HasFingerprint(fp) {
		return
	}
	c.Fingerprints = append(c.Fingerprints, fp)
}

// Package registry implements the registry client (spec §4.B): it
// maintains the cumulative set of known (pkg, version) pairs, backed by
// registry.dat directly under <home>, with online refresh and offline
// fallback. Grounded on the teacher's source_manager.go / remote.go
// cache-then-refresh pattern (golang-dep).
package registry

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/elm-tooling/elm-details/engine"
)

// FileName is the registry cache's well-known filename under <home>.
const FileName = "registry.dat"

// RegistryBase is the well-known package registry endpoint root.
const RegistryBase = "https://package.elm-lang.org"

// entry is one (pkg, versions) row as served by the registry's "all
// packages" endpoint and as persisted to disk.
type entry struct {
	Pkg      engine.PkgName
	Versions []engine.Version
}

// Registry is the in-memory, mutex-guarded view of every known package and
// its published versions.
type Registry struct {
	mu   sync.RWMutex
	vers map[engine.PkgName][]engine.Version
}

func empty() *Registry {
	return &Registry{vers: make(map[engine.PkgName][]engine.Version)}
}

// Versions returns the known versions of pkg, newest first, or an empty
// slice if pkg is entirely unknown to this registry snapshot.
func (r *Registry) Versions(pkg engine.PkgName) []engine.Version {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vs := r.vers[pkg]
	out := make([]engine.Version, len(vs))
	copy(out, vs)
	sort.Slice(out, func(i, j int) bool { return out[j].LessThan(out[i]) })
	return out
}

// Known reports whether the registry has ever heard of pkg.
func (r *Registry) Known(pkg engine.PkgName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.vers[pkg]
	return ok
}

func (r *Registry) merge(entries []entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.vers[e.Pkg] = e.Versions
	}
}

func (r *Registry) snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry, 0, len(r.vers))
	for p, vs := range r.vers {
		out = append(out, entry{Pkg: p, Versions: vs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pkg.Compare(out[j].Pkg) < 0 })
	return out
}

// InitEnv loads the cached registry file if present; otherwise, unless
// offline, it performs one network refresh and writes the result (spec
// §4.B). When offline and no cache exists, it scans the unpacked package
// cache under <home>/packages instead: solving then proceeds against
// whatever versions are already present on disk, per spec.
func InitEnv(ctx context.Context, fs engine.FileSystem, home string, fetcher engine.Fetcher, offline bool) (*Registry, error) {
	path := home + "/" + FileName

	exists, err := fs.Exists(path)
	if err != nil {
		return nil, errors.Wrap(err, "checking for cached registry")
	}
	if exists {
		raw, err := fs.ReadBinary(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading cached registry")
		}
		reg, err := decode(raw)
		if err != nil {
			return nil, errors.Wrap(err, "cached registry is corrupt")
		}
		return reg, nil
	}

	if offline {
		reg, err := scanPackageCache(fs, home)
		if err != nil {
			return nil, errors.Wrap(err, "scanning package cache")
		}
		return reg, nil
	}

	reg := empty()
	if err := reg.refresh(ctx, fetcher); err != nil {
		return nil, engine.CannotGetRegistry(err)
	}
	raw, err := encode(reg)
	if err != nil {
		return nil, errors.Wrap(err, "encoding registry")
	}
	if err := fs.WriteBinary(path, raw); err != nil {
		return nil, errors.Wrap(err, "writing registry cache")
	}
	return reg, nil
}

// scanPackageCache builds a Registry from whatever (pkg, version) source
// trees are already unpacked under <home>/packages/<author>/<project>/<v>,
// for offline solving with no registry.dat cached yet (spec §4.B): a
// version only counts as known if its "src" directory actually exists,
// matching the same cache-probe fetch.Fetcher.Ensure uses to decide
// whether a download is needed.
func scanPackageCache(fs engine.FileSystem, home string) (*Registry, error) {
	reg := empty()
	packagesDir := home + "/packages"

	authors, err := fs.List(packagesDir)
	if err != nil {
		// No package cache on disk at all; offline solving then has
		// nothing to go on, which an empty registry represents correctly.
		return reg, nil
	}

	for _, author := range authors {
		authorDir := packagesDir + "/" + author
		projects, err := fs.List(authorDir)
		if err != nil {
			continue
		}
		for _, project := range projects {
			projectDir := authorDir + "/" + project
			versionDirs, err := fs.List(projectDir)
			if err != nil {
				continue
			}

			var versions []engine.Version
			for _, vs := range versionDirs {
				srcDir := projectDir + "/" + vs + "/src"
				hasSrc, err := fs.DirExists(srcDir)
				if err != nil || !hasSrc {
					continue
				}
				v, err := engine.NewVersion(vs)
				if err != nil {
					continue
				}
				versions = append(versions, v)
			}
			if len(versions) > 0 {
				reg.merge([]entry{{Pkg: engine.PkgName{Author: author, Project: project}, Versions: versions}})
			}
		}
	}
	return reg, nil
}

func (r *Registry) refresh(ctx context.Context, fetcher engine.Fetcher) error {
	var resp []entry
	url := RegistryBase + "/all-packages"
	if err := fetcher.GetJSON(ctx, url, &resp); err != nil {
		return err
	}
	r.merge(resp)
	return nil
}

func encode(r *Registry) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(r.snapshot()); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(raw []byte) (*Registry, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	var entries []entry
	if err := json.NewDecoder(gz).Decode(&entries); err != nil {
		return nil, err
	}
	reg := empty()
	reg.merge(entries)
	return reg, nil
}
